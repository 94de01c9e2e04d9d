package simply_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"simply"
)

func TestCheckProgram_Examples(t *testing.T) {
	for name, entry := range simply.Examples() {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, simply.CheckProgram(entry.Program))
		})
	}
}

func TestCheckProgram_UnboundVariable(t *testing.T) {
	p := &simply.Program{Defs: []*simply.Def{
		{Name: "main", Type: simply.IntType{}, Body: &simply.Var{Name: "nope"}},
	}}
	err := simply.CheckProgram(p)
	if assert.Error(t, err) {
		cerr, ok := err.(*simply.CompileError)
		if assert.True(t, ok) {
			assert.Equal(t, simply.UnboundVariable, cerr.Kind)
		}
	}
}

func TestCheckProgram_TypeMismatch(t *testing.T) {
	p := &simply.Program{Defs: []*simply.Def{
		{Name: "main", Type: simply.IntType{}, Body: &simply.LitBool{Value: true}},
	}}
	err := simply.CheckProgram(p)
	if assert.Error(t, err) {
		cerr, ok := err.(*simply.CompileError)
		if assert.True(t, ok) {
			assert.Equal(t, simply.TypeMismatch, cerr.Kind)
		}
	}
}

func TestCheckProgram_NotAFunction(t *testing.T) {
	p := &simply.Program{Defs: []*simply.Def{
		{Name: "n", Type: simply.IntType{}, Body: &simply.Lit{Value: 1}},
		{Name: "main", Type: simply.IntType{}, Body: &simply.App{Fun: &simply.Var{Name: "n"}, Arg: &simply.Lit{Value: 1}}},
	}}
	err := simply.CheckProgram(p)
	if assert.Error(t, err) {
		cerr, ok := err.(*simply.CompileError)
		if assert.True(t, ok) {
			assert.Equal(t, simply.NotAFunction, cerr.Kind)
		}
	}
}

func TestCheckProgram_FixOnNonFunction(t *testing.T) {
	p := &simply.Program{Defs: []*simply.Def{
		{Name: "main", Type: simply.IntType{}, Body: &simply.Fix{
			Self: "f", SelfType: simply.IntType{}, Body: &simply.Lit{Value: 1},
		}},
	}}
	err := simply.CheckProgram(p)
	if assert.Error(t, err) {
		cerr, ok := err.(*simply.CompileError)
		if assert.True(t, ok) {
			assert.Equal(t, simply.FixOnNonFunction, cerr.Kind)
		}
	}
}

func TestCheckProgram_MissingMain(t *testing.T) {
	p := &simply.Program{Defs: []*simply.Def{
		{Name: "notMain", Type: simply.IntType{}, Body: &simply.Lit{Value: 1}},
	}}
	err := simply.CheckProgram(p)
	if assert.Error(t, err) {
		cerr, ok := err.(*simply.CompileError)
		if assert.True(t, ok) {
			assert.Equal(t, simply.MissingMain, cerr.Kind)
		}
	}
}

func TestCheckProgram_MainNotFirstOrderInt(t *testing.T) {
	p := &simply.Program{Defs: []*simply.Def{
		{Name: "main", Type: simply.BoolType{}, Body: &simply.LitBool{Value: true}},
	}}
	err := simply.CheckProgram(p)
	if assert.Error(t, err) {
		cerr, ok := err.(*simply.CompileError)
		if assert.True(t, ok) {
			assert.Equal(t, simply.MainNotFirstOrderInt, cerr.Kind)
		}
	}
}

func TestCheckProgram_ShadowingPermitted(t *testing.T) {
	inner := &simply.Let{
		Name: "x", Type: simply.BoolType{}, Bound: &simply.LitBool{Value: true},
		Body: &simply.If{Cond: &simply.Var{Name: "x"}, Then: &simply.Lit{Value: 1}, Else: &simply.Lit{Value: 2}},
	}
	outer := &simply.Let{Name: "x", Type: simply.IntType{}, Bound: &simply.Lit{Value: 0}, Body: inner}
	p := &simply.Program{Defs: []*simply.Def{
		{Name: "main", Type: simply.IntType{}, Body: outer},
	}}
	assert.NoError(t, simply.CheckProgram(p))
}
