package simply_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"tinygo.org/x/go-llvm"

	"simply"
)

// compile runs the full pipeline (typecheck, closure-convert, codegen,
// verify) for one catalogue program, reporting any failure through t.
func compile(t *testing.T, entry *simply.CatalogueEntry) {
	t.Helper()
	assert.NoError(t, simply.CheckProgram(entry.Program))
	ir := simply.ConvertProgram(entry.Program)
	module := simply.Codegen(ir, "main", simply.DefaultConfig())
	assert.NoError(t, simply.Verify(module))
}

// TestRunProgram_MatchesCatalogueExpectations exercises every seed program
// end to end: typecheck, closure-convert, codegen, verify, JIT, compare
// against the expected result table.
func TestRunProgram_MatchesCatalogueExpectations(t *testing.T) {
	for name, entry := range simply.Examples() {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, simply.CheckProgram(entry.Program))
			ir := simply.ConvertProgram(entry.Program)
			module := simply.Codegen(ir, "main", simply.DefaultConfig())
			assert.NoError(t, simply.Verify(module))

			for i, args := range entry.Args {
				got, err := simply.RunProgram(module, args)
				if assert.NoError(t, err) {
					assert.Equal(t, entry.Expected[i], got, "%s(args=%v)", name, args)
				}
			}
		})
	}
}

// TestRunProgram_MatchesInterpreter is the round-trip law of the test
// catalogue: the JIT-compiled result and the direct denotational
// evaluator's result must agree on every seed program and every argument
// tuple, since both are meant to denote the same Simply semantics.
func TestRunProgram_MatchesInterpreter(t *testing.T) {
	for name, entry := range simply.Examples() {
		t.Run(name, func(t *testing.T) {
			ir := simply.ConvertProgram(entry.Program)
			module := simply.Codegen(ir, "main", simply.DefaultConfig())
			assert.NoError(t, simply.Verify(module))

			for _, args := range entry.Args {
				compiled, err := simply.RunProgram(module, args)
				assert.NoError(t, err)

				interpreted := simply.EvalProgram(entry.Program, args)
				intObj, ok := interpreted.(*simply.IntObject)
				if assert.True(t, ok) {
					assert.Equal(t, intObj.Value, compiled, "%s(args=%v): JIT and interpreter disagree", name, args)
				}
			}
		})
	}
}

func TestVerify_RejectsNothingForWellFormedModules(t *testing.T) {
	for name, entry := range simply.Examples() {
		t.Run(name, func(t *testing.T) {
			compile(t, entry)
		})
	}
}

func TestCodegen_InternalFunctionsUseFastCallConv(t *testing.T) {
	entry := simply.Examples()["ho_add"]
	ir := simply.ConvertProgram(entry.Program)
	module := simply.Codegen(ir, "main", simply.DefaultConfig())
	assert.NoError(t, simply.Verify(module))

	for _, g := range ir.Globals {
		fn := module.NamedFunction(g.Name)
		if assert.False(t, fn.IsNil(), "global %q must be declared", g.Name) {
			assert.Equal(t, llvm.FastCallConv, fn.FunctionCallConv(), "global %q must use the fast calling convention", g.Name)
		}
	}
}

func TestCodegen_UsesConfiguredMallocSymbolAndTarget(t *testing.T) {
	entry := simply.Examples()["fact_with_let"]
	ir := simply.ConvertProgram(entry.Program)
	cfg, err := simply.LoadConfig("", simply.WithMallocSymbol("GC_malloc"), simply.WithTarget("x86_64-unknown-linux-gnu"))
	assert.NoError(t, err)

	module := simply.Codegen(ir, "main", cfg)
	assert.NoError(t, simply.Verify(module))
	assert.True(t, module.NamedFunction("malloc").IsNil(), "default malloc symbol must not be declared when overridden")
	assert.False(t, module.NamedFunction("GC_malloc").IsNil(), "overridden malloc symbol must be declared")
	assert.Equal(t, "x86_64-unknown-linux-gnu", module.Target())
}

func TestRunProgram_FactFixDirectly(t *testing.T) {
	entry := simply.Examples()["fact_fix"]
	ir := simply.ConvertProgram(entry.Program)
	module := simply.Codegen(ir, "main", simply.DefaultConfig())
	assert.NoError(t, simply.Verify(module))

	got, err := simply.RunProgram(module, []int32{7})
	assert.NoError(t, err)
	assert.Equal(t, int32(5040), got)
}
