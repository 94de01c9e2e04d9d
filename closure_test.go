package simply_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"simply"
)

func TestConvertProgram_AllExamplesConvertWithoutPanic(t *testing.T) {
	for name, entry := range simply.Examples() {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, simply.CheckProgram(entry.Program))
			ir := simply.ConvertProgram(entry.Program)
			assert.NotNil(t, ir.Lookup("main"), "converted program must keep a main global")
		})
	}
}

func TestConvertProgram_MainArityMatchesDeclaredType(t *testing.T) {
	for name, entry := range simply.Examples() {
		t.Run(name, func(t *testing.T) {
			mainDef := entry.Program.Lookup("main")
			ir := simply.ConvertProgram(entry.Program)
			main := ir.Lookup("main")
			assert.Equal(t, simply.FunArity(mainDef.Type), main.Arity())
		})
	}
}

// Over-application: helper returns fact ignoring its argument, so calling
// "helper 0 n" supplies one more argument than helper's own arity and must
// be reconciled into a saturated known call fed through a closure call.
func TestConvertProgram_OverApplicationChainsThroughClosureCall(t *testing.T) {
	entry := simply.Examples()["fact_via_helper"]
	ir := simply.ConvertProgram(entry.Program)
	main := ir.Lookup("main")
	if assert.NotNil(t, main) {
		call, ok := main.Body.(*simply.IRCallClosure)
		if assert.True(t, ok, "expected main's body to be a saturated closure call, got %T", main.Body) {
			inner, ok := call.Closure.(*simply.IRCallKnown)
			if assert.True(t, ok, "expected the over-applied callee to be a direct known call, got %T", call.Closure) {
				assert.Equal(t, "helper", inner.Global)
				assert.Len(t, inner.Args, 1)
			}
			assert.Len(t, call.Args, 1)
		}
	}
}

// Under-application of a known two-argument global must synthesize a curry
// wrapper global that captures the supplied argument and forwards once the
// second arrives, rather than calling the global directly.
func TestConvertProgram_UnderApplicationSynthesizesCurryWrapper(t *testing.T) {
	addType := simply.FunTypeOf([]simply.Type{simply.IntType{}, simply.IntType{}}, simply.IntType{})
	a := simply.Param{Name: "a", Type: simply.IntType{}}
	b := simply.Param{Name: "b", Type: simply.IntType{}}
	addDef := &simply.Def{
		Name: "add",
		Type: addType,
		Body: simply.Lams([]simply.Param{a, b}, &simply.BinOp{Op: simply.Add, Left: &simply.Var{Name: "a"}, Right: &simply.Var{Name: "b"}}),
	}
	mainType := simply.FunTypeOf([]simply.Type{simply.IntType{}}, simply.IntType{})
	mainDef := &simply.Def{
		Name: "main",
		Type: mainType,
		Body: &simply.App{Fun: &simply.Var{Name: "add"}, Arg: &simply.Lit{Value: 10}},
	}
	p := &simply.Program{Defs: []*simply.Def{addDef, mainDef}}
	assert.NoError(t, simply.CheckProgram(p))

	before := len(simply.ConvertProgram(p).Globals)
	ir := simply.ConvertProgram(p)
	assert.Equal(t, before, len(ir.Globals), "conversion must be deterministic across runs")

	main := ir.Lookup("main")
	closure, ok := main.Body.(*simply.IRClosure)
	if assert.True(t, ok, "expected under-application to yield a closure value, got %T", main.Body) {
		assert.Len(t, closure.Captured, 1)
		wrapper := ir.Lookup(closure.Global)
		if assert.NotNil(t, wrapper, "curry wrapper global must exist in the converted program") {
			assert.Equal(t, 1, wrapper.CapturedCount)
			assert.Equal(t, 2, wrapper.Arity())
		}
	}

	// original global "add" and main's own global, plus exactly one
	// synthesized curry wrapper.
	assert.Len(t, ir.Globals, 3)
}

// A lambda nested inside another lambda's body that happens not to use the
// outer parameter must close over nothing, not the outer parameter.
func TestConvertProgram_NestedLambdaCapturesOnlyWhatItUses(t *testing.T) {
	entry := simply.Examples()["ho_add"]
	ir := simply.ConvertProgram(entry.Program)

	var innerLambda *simply.IRGlobalDef
	for _, g := range ir.Globals {
		if g.CapturedCount == 0 && len(g.Params) == 1 && g.Name != "main" && g.Name != "apply" {
			innerLambda = g
		}
	}
	if assert.NotNil(t, innerLambda, "expected to find the zero-capture inner lambda global") {
		assert.Equal(t, 0, innerLambda.CapturedCount)
	}
}
