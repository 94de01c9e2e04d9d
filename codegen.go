package simply

import (
	"fmt"

	"tinygo.org/x/go-llvm"
)

// Codegen lowers a closed intermediate program into an LLVM module, with
// __entry_point calling the global named mainName. cfg controls the purely
// ambient parts of the generated module (§3.5): the symbol the closure
// allocator calls, and the module's target triple. Two passes are run over
// prog.Globals: declarations first (so mutually referencing globals can
// always resolve each other's llvm.Value), then bodies.
func Codegen(prog *IRProgram, mainName string, cfg *Config) llvm.Module {
	ctx := llvm.NewContext()
	module := ctx.NewModule("simply")
	if cfg.Target != "" {
		module.SetTarget(cfg.Target)
	}
	cg := &moduleBuilder{ctx: ctx, module: module, prog: prog, funcs: map[string]llvm.Value{}}
	cg.declareMalloc(cfg.MallocSymbol)
	for _, g := range prog.Globals {
		cg.declareGlobal(g)
	}
	for _, g := range prog.Globals {
		cg.defineGlobal(g)
	}
	cg.defineEntryPoint(mainName)
	return module
}

// moduleBuilder is the module-wide mutable context of §5: an ordered list
// of definitions (here, a name -> llvm.Value table) appended during
// lowering, readable only once the pipeline completes.
type moduleBuilder struct {
	ctx    llvm.Context
	module llvm.Module
	prog   *IRProgram
	funcs  map[string]llvm.Value
}

// declareMalloc declares the external allocator closures are built with,
// under symbol (§3.5's MallocSymbol override — normally "malloc", but any
// C symbol with malloc's signature can stand in for it, e.g. a conservative
// collector's allocator).
func (cg *moduleBuilder) declareMalloc(symbol string) {
	i8ptr := llvm.PointerType(cg.ctx.Int8Type(), 0)
	fnType := llvm.FunctionType(i8ptr, []llvm.Type{cg.ctx.Int32Type()}, false)
	fn := llvm.AddFunction(cg.module, symbol, fnType)
	cg.funcs["malloc"] = fn
}

// declareGlobal adds the LLVM function signature(s) for g without emitting
// a body: the primary function, plus — only when g captures nothing, per
// the DESIGN.md note on §4.4's $wrapped variant — its trampoline.
func (cg *moduleBuilder) declareGlobal(g *IRGlobalDef) {
	realParamTypes := g.ParamTypes[g.CapturedCount:]
	llvmParams := cg.primaryParamTypes(g)
	resultLLVM := llvmType(cg.ctx, g.ResultType)
	fnType := llvm.FunctionType(resultLLVM, llvmParams, false)
	fn := llvm.AddFunction(cg.module, g.Name, fnType)
	fn.SetFunctionCallConv(llvm.FastCallConv)
	cg.funcs[g.Name] = fn

	if g.CapturedCount == 0 {
		wrappedParams := make([]llvm.Type, 0, len(realParamTypes)+1)
		wrappedParams = append(wrappedParams, llvm.PointerType(cg.ctx.Int8Type(), 0))
		for _, t := range realParamTypes {
			wrappedParams = append(wrappedParams, llvmType(cg.ctx, t))
		}
		wrappedType := llvm.FunctionType(resultLLVM, wrappedParams, false)
		wrapped := llvm.AddFunction(cg.module, g.Name+"$wrapped", wrappedType)
		wrapped.SetFunctionCallConv(llvm.FastCallConv)
		cg.funcs[g.Name+"$wrapped"] = wrapped
	}
}

// primaryParamTypes is g's real LLVM parameter list: an opaque env pointer
// first, if and only if g has captures, followed by its non-captured
// parameters.
func (cg *moduleBuilder) primaryParamTypes(g *IRGlobalDef) []llvm.Type {
	realParamTypes := g.ParamTypes[g.CapturedCount:]
	params := make([]llvm.Type, 0, len(realParamTypes)+1)
	if g.CapturedCount > 0 {
		params = append(params, llvm.PointerType(cg.ctx.Int8Type(), 0))
	}
	for _, t := range realParamTypes {
		params = append(params, llvmType(cg.ctx, t))
	}
	return params
}

func (cg *moduleBuilder) capturedEnvType(g *IRGlobalDef) llvm.Type {
	fields := make([]llvm.Type, g.CapturedCount)
	for i := 0; i < g.CapturedCount; i++ {
		fields[i] = llvmType(cg.ctx, g.ParamTypes[i])
	}
	return cg.ctx.StructType(fields, false)
}

func (cg *moduleBuilder) defineGlobal(g *IRGlobalDef) {
	fn := cg.funcs[g.Name]
	builder := cg.ctx.NewBuilder()
	defer builder.Dispose()

	fb := &funcBuilder{cg: cg, fn: fn, builder: builder, symtab: map[string]llvm.Value{}}
	entry := fb.addBlock("entry")
	fb.setBlock(entry)

	llvmIdx := 0
	if g.CapturedCount > 0 {
		envParam := fn.Param(0)
		llvmIdx = 1
		envType := cg.capturedEnvType(g)
		envPtrType := llvm.PointerType(envType, 0)
		typedEnv := builder.CreateBitCast(envParam, envPtrType, fb.temp())
		for i := 0; i < g.CapturedCount; i++ {
			fieldPtr := structFieldPtr(builder, envType, typedEnv, i, fb.temp())
			fieldType := llvmType(cg.ctx, g.ParamTypes[i])
			fb.symtab[g.Params[i]] = builder.CreateLoad(fieldType, fieldPtr, fb.temp())
		}
	}
	for i := g.CapturedCount; i < len(g.Params); i++ {
		fb.symtab[g.Params[i]] = fn.Param(llvmIdx)
		llvmIdx++
	}

	result := fb.codegenExpr(g.Body)
	fb.terminator(func() { builder.CreateRet(result) })

	if g.CapturedCount == 0 {
		cg.defineWrapped(g)
	}
}

// defineWrapped emits name$wrapped's body: ignore the leading env
// parameter and tail-call name with the rest, fast convention throughout.
func (cg *moduleBuilder) defineWrapped(g *IRGlobalDef) {
	fn := cg.funcs[g.Name]
	wrapped := cg.funcs[g.Name+"$wrapped"]
	builder := cg.ctx.NewBuilder()
	defer builder.Dispose()
	bb := cg.ctx.AddBasicBlock(wrapped, "entry")
	builder.SetInsertPointAtEnd(bb)

	args := make([]llvm.Value, len(g.ParamTypes))
	for i := range args {
		args[i] = wrapped.Param(i + 1)
	}
	call := builder.CreateCall(fn.GlobalValueType(), fn, args, tempName())
	call.SetInstructionCallConv(llvm.FastCallConv)
	builder.CreateRet(call)
}

func (cg *moduleBuilder) defineEntryPoint(mainName string) {
	mainGlobal := cg.prog.Lookup(mainName)
	if mainGlobal == nil {
		internalError("program has no global named %q", mainName)
	}
	argc := mainGlobal.Arity()
	i32ptrType := llvm.PointerType(cg.ctx.Int32Type(), 0)
	fnType := llvm.FunctionType(cg.ctx.Int32Type(), []llvm.Type{i32ptrType}, false)
	entry := llvm.AddFunction(cg.module, "__entry_point", fnType)

	builder := cg.ctx.NewBuilder()
	defer builder.Dispose()
	bb := cg.ctx.AddBasicBlock(entry, "entry")
	builder.SetInsertPointAtEnd(bb)

	argv := entry.Param(0)
	args := make([]llvm.Value, argc)
	for i := 0; i < argc; i++ {
		idx := llvm.ConstInt(cg.ctx.Int32Type(), uint64(i), false)
		ptr := builder.CreateGEP(cg.ctx.Int32Type(), argv, []llvm.Value{idx}, tempName())
		args[i] = builder.CreateLoad(cg.ctx.Int32Type(), ptr, tempName())
	}
	mainFn := cg.funcs[mainName]
	call := builder.CreateCall(mainFn.GlobalValueType(), mainFn, args, tempName())
	call.SetInstructionCallConv(llvm.FastCallConv)
	builder.CreateRet(call)
}

// funcBuilder is the per-function mutable context of §5/§4.4: a builder
// positioned at the current block, a symbol table from intermediate locals
// to LLVM operands, and a fresh-name counter. Block/instruction numbering
// is LLVM's own responsibility once real llvm.Value/llvm.BasicBlock
// objects exist, so no explicit renumbering pass runs here — see
// DESIGN.md.
type funcBuilder struct {
	cg           *moduleBuilder
	fn           llvm.Value
	builder      llvm.Builder
	symtab       map[string]llvm.Value
	blockCounter int
	tempCounter  int
}

func (fb *funcBuilder) addBlock(label string) llvm.BasicBlock {
	fb.blockCounter++
	return fb.cg.ctx.AddBasicBlock(fb.fn, fmt.Sprintf("%s.%d", label, fb.blockCounter))
}

func (fb *funcBuilder) setBlock(bb llvm.BasicBlock) {
	fb.builder.SetInsertPointAtEnd(bb)
}

// terminator runs action, which must append exactly one terminator
// instruction to the current block.
func (fb *funcBuilder) terminator(action func()) {
	action()
}

// scope runs action with the symbol table entry for name temporarily
// bound to value, restoring whatever was there before on exit.
func (fb *funcBuilder) scope(name string, value llvm.Value, action func() llvm.Value) llvm.Value {
	old, had := fb.symtab[name]
	fb.symtab[name] = value
	result := action()
	if had {
		fb.symtab[name] = old
	} else {
		delete(fb.symtab, name)
	}
	return result
}

func (fb *funcBuilder) temp() string {
	fb.tempCounter++
	return fmt.Sprintf(".t%d", fb.tempCounter)
}

func (fb *funcBuilder) codegenExpr(e IRExpr) llvm.Value {
	switch e := e.(type) {
	case *IRLit:
		return llvm.ConstInt(fb.cg.ctx.Int32Type(), uint64(uint32(e.Value)), false)
	case *IRLitBool:
		v := uint64(0)
		if e.Value {
			v = 1
		}
		return llvm.ConstInt(fb.cg.ctx.Int1Type(), v, false)
	case *IRLocal:
		val, ok := fb.symtab[e.Name]
		if !ok {
			internalError("unbound local %q during code generation", e.Name)
		}
		return val
	case *IRLet:
		bound := fb.codegenExpr(e.Bound)
		return fb.scope(e.Name, bound, func() llvm.Value { return fb.codegenExpr(e.Body) })
	case *IRIf:
		return fb.codegenIf(e)
	case *IRBinOp:
		return fb.codegenBinOp(e)
	case *IRClosure:
		return fb.codegenClosure(e)
	case *IRCallKnown:
		return fb.codegenCallKnown(e)
	case *IRCallClosure:
		return fb.codegenCallClosure(e)
	default:
		internalError("unknown intermediate expression %T during code generation", e)
	}
	panic("unreachable")
}

func (fb *funcBuilder) codegenIf(e *IRIf) llvm.Value {
	cond := fb.codegenExpr(e.Cond)
	thenBB := fb.addBlock("if.then")
	elseBB := fb.addBlock("if.else")
	mergeBB := fb.addBlock("if.merge")
	fb.terminator(func() { fb.builder.CreateCondBr(cond, thenBB, elseBB) })

	fb.setBlock(thenBB)
	thenVal := fb.codegenExpr(e.Then)
	fb.terminator(func() { fb.builder.CreateBr(mergeBB) })
	thenEndBB := fb.builder.GetInsertBlock()

	fb.setBlock(elseBB)
	elseVal := fb.codegenExpr(e.Else)
	fb.terminator(func() { fb.builder.CreateBr(mergeBB) })
	elseEndBB := fb.builder.GetInsertBlock()

	fb.setBlock(mergeBB)
	phi := fb.builder.CreatePHI(thenVal.Type(), fb.temp())
	phi.AddIncoming([]llvm.Value{thenVal, elseVal}, []llvm.BasicBlock{thenEndBB, elseEndBB})
	return phi
}

func (fb *funcBuilder) codegenBinOp(e *IRBinOp) llvm.Value {
	left := fb.codegenExpr(e.Left)
	right := fb.codegenExpr(e.Right)
	switch e.Op {
	case Add:
		return fb.builder.CreateAdd(left, right, fb.temp())
	case Sub:
		return fb.builder.CreateSub(left, right, fb.temp())
	case Mul:
		return fb.builder.CreateMul(left, right, fb.temp())
	case Eq:
		return fb.builder.CreateICmp(llvm.IntEQ, left, right, fb.temp())
	case Lt:
		return fb.builder.CreateICmp(llvm.IntSLT, left, right, fb.temp())
	default:
		internalError("unknown binary operator %v during code generation", e.Op)
	}
	panic("unreachable")
}

// codegenClosure builds a closure value per §4.5: a zero-capture closure
// wraps the $wrapped trampoline with a null environment; otherwise a
// malloc'd environment struct is populated field-by-field and the
// closure's function-pointer field names the global directly (its own
// calling convention already begins with the env pointer it expects).
func (fb *funcBuilder) codegenClosure(e *IRClosure) llvm.Value {
	ctx := fb.cg.ctx
	structType := closureType(ctx, e.FuncType)

	if len(e.Captured) == 0 {
		wrapped := fb.cg.funcs[e.Global+"$wrapped"]
		envPtr := llvm.ConstNull(llvm.PointerType(ctx.Int8Type(), 0))
		return fb.buildClosureValue(structType, wrapped, envPtr)
	}

	g := fb.cg.prog.Lookup(e.Global)
	if g == nil {
		internalError("closure conversion referenced unknown global %q", e.Global)
	}
	envType := fb.cg.capturedEnvType(g)
	size := fb.sizeOf(envType)
	mallocFn := fb.cg.funcs["malloc"]
	raw := fb.builder.CreateCall(mallocFn.GlobalValueType(), mallocFn, []llvm.Value{size}, fb.temp())
	typedEnv := fb.builder.CreateBitCast(raw, llvm.PointerType(envType, 0), fb.temp())
	for i, capturedExpr := range e.Captured {
		val := fb.codegenExpr(capturedExpr)
		fieldPtr := structFieldPtr(fb.builder, envType, typedEnv, i, fb.temp())
		fb.builder.CreateStore(val, fieldPtr)
	}
	envPtr := fb.builder.CreateBitCast(typedEnv, llvm.PointerType(ctx.Int8Type(), 0), fb.temp())
	fnPtr := fb.cg.funcs[e.Global]
	return fb.buildClosureValue(structType, fnPtr, envPtr)
}

func (fb *funcBuilder) buildClosureValue(structType llvm.Type, fnPtr, envPtr llvm.Value) llvm.Value {
	undef := llvm.Undef(structType)
	withFn := fb.builder.CreateInsertValue(undef, fnPtr, 0, fb.temp())
	return fb.builder.CreateInsertValue(withFn, envPtr, 1, fb.temp())
}

// sizeOf computes the byte size of t via the pointer-arithmetic idiom of
// §4.5: ptrtoint of a getelementptr at index 1 of a null-typed pointer.
func (fb *funcBuilder) sizeOf(t llvm.Type) llvm.Value {
	nullPtr := llvm.ConstNull(llvm.PointerType(t, 0))
	one := llvm.ConstInt(fb.cg.ctx.Int32Type(), 1, false)
	gep := fb.builder.CreateGEP(t, nullPtr, []llvm.Value{one}, fb.temp())
	return fb.builder.CreatePtrToInt(gep, fb.cg.ctx.Int32Type(), fb.temp())
}

func (fb *funcBuilder) codegenCallKnown(e *IRCallKnown) llvm.Value {
	fn := fb.cg.funcs[e.Global]
	args := make([]llvm.Value, len(e.Args))
	for i, a := range e.Args {
		args[i] = fb.codegenExpr(a)
	}
	call := fb.builder.CreateCall(fn.GlobalValueType(), fn, args, fb.temp())
	call.SetInstructionCallConv(llvm.FastCallConv)
	return call
}

func (fb *funcBuilder) codegenCallClosure(e *IRCallClosure) llvm.Value {
	closureVal := fb.codegenExpr(e.Closure)
	fnPtr := fb.builder.CreateExtractValue(closureVal, 0, fb.temp())
	envPtr := fb.builder.CreateExtractValue(closureVal, 1, fb.temp())

	fnType := callFnType(fb.cg.ctx, e.ClosureType)
	args := make([]llvm.Value, 0, len(e.Args)+1)
	args = append(args, envPtr)
	for _, a := range e.Args {
		args = append(args, fb.codegenExpr(a))
	}
	call := fb.builder.CreateCall(fnType, fnPtr, args, fb.temp())
	call.SetInstructionCallConv(llvm.FastCallConv)
	return call
}

// structFieldPtr addresses field index of a value of type structType
// pointed to by ptr.
func structFieldPtr(builder llvm.Builder, structType llvm.Type, ptr llvm.Value, index int, name string) llvm.Value {
	return builder.CreateStructGEP(structType, ptr, index, name)
}

// llvmType maps a Simply type to its LLVM representation (§4.3). Every
// value of a given FunType is represented, throughout the program, by a
// closure whose real underlying arity equals FunArity(t) — partial
// application always yields a value of a shorter FunType, never a closure
// of mismatched arity for the same type — so this mapping needs no extra
// bookkeeping beyond t itself.
func llvmType(ctx llvm.Context, t Type) llvm.Type {
	switch t := t.(type) {
	case IntType:
		return ctx.Int32Type()
	case BoolType:
		return ctx.Int1Type()
	case *FunType:
		return closureType(ctx, t)
	default:
		internalError("unknown type %T during code generation", t)
	}
	panic("unreachable")
}

func closureType(ctx llvm.Context, ft *FunType) llvm.Type {
	fnPtrType := llvm.PointerType(callFnType(ctx, ft), 0)
	envPtrType := llvm.PointerType(ctx.Int8Type(), 0)
	return ctx.StructType([]llvm.Type{fnPtrType, envPtrType}, false)
}

// callFnType is the LLVM function type of the underlying wrapped function
// backing a closure value of curried type ft: an opaque env pointer
// followed by ft's arguments flattened to its full arity.
func callFnType(ctx llvm.Context, ft *FunType) llvm.Type {
	arity := FunArity(ft)
	argTypes, resultType := flattenArrows(ft, arity)
	params := make([]llvm.Type, 0, arity+1)
	params = append(params, llvm.PointerType(ctx.Int8Type(), 0))
	for _, at := range argTypes {
		params = append(params, llvmType(ctx, at))
	}
	return llvm.FunctionType(llvmType(ctx, resultType), params, false)
}

var tempsCount = 0

func tempName() string {
	tempsCount++
	return fmt.Sprintf(".tmp%d", tempsCount)
}
