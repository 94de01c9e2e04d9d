package simply

/*
#include <stdint.h>

static int32_t simply_call_entry(void *fn, int32_t *argv) {
	int32_t (*f)(int32_t *) = (int32_t (*)(int32_t *))fn;
	return f(argv);
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"tinygo.org/x/go-llvm"
)

// VerifyError reports that a generated module failed LLVM's verifier —
// per §7 domain 3, itself evidence of a compiler bug, but reported rather
// than panicking so tests can observe it.
type VerifyError struct {
	msg string
}

func (e *VerifyError) Error() string { return "simply: module failed verification: " + e.msg }

// Verify checks module against LLVM's own well-formedness rules.
func Verify(module llvm.Module) error {
	if err := llvm.VerifyModule(module, llvm.ReturnStatusAction); err != nil {
		return &VerifyError{msg: err.Error()}
	}
	return nil
}

var nativeTargetOnce sync.Once

func ensureNativeTarget() {
	nativeTargetOnce.Do(func() {
		llvm.InitializeNativeTarget()
		llvm.InitializeNativeAsmPrinter()
		llvm.LinkInMCJIT()
	})
}

// Run is the marshaled callable §4.6 hands to withExec's continuation: a
// sequence of 32-bit arguments in, a 32-bit result out.
type Run func(args []int32) int32

// WithExec materializes module into an MCJIT execution engine, invokes k
// with a Run that calls __entry_point by marshaling its argument slice
// into an i32* buffer, and disposes the engine on return, including on
// panic. The module is detached from the engine first, so it stays valid
// and can be passed to WithExec again.
func WithExec(module llvm.Module, k func(run Run) error) error {
	ensureNativeTarget()

	options := llvm.NewMCJITCompilerOptions()
	options.SetMCJITOptimizationLevel(0)
	engine, err := llvm.NewMCJITCompiler(module, options)
	if err != nil {
		return fmt.Errorf("simply: failed to create execution engine: %w", err)
	}
	defer engine.Dispose()
	defer engine.RemoveModule(module)

	entry := module.NamedFunction("__entry_point")
	fnPtr := engine.PointerToGlobal(entry)

	run := func(args []int32) int32 {
		buf := make([]int32, len(args))
		copy(buf, args)
		var ptr *C.int32_t
		if len(buf) > 0 {
			ptr = (*C.int32_t)(unsafe.Pointer(&buf[0]))
		}
		return int32(C.simply_call_entry(fnPtr, ptr))
	}
	return k(run)
}

// RunProgram is a convenience wrapper combining Verify and WithExec for a
// single invocation of an already generated module, the shape both the
// CLI driver and the end-to-end tests need.
func RunProgram(module llvm.Module, args []int32) (int32, error) {
	if err := Verify(module); err != nil {
		return 0, err
	}
	var result int32
	err := WithExec(module, func(run Run) error {
		result = run(args)
		return nil
	})
	return result, err
}
