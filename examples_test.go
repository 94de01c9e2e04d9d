package simply_test

import (
	"testing"

	"simply"
)

func TestExamples_ArgsAndExpectedLengthsAgree(t *testing.T) {
	for name, entry := range simply.Examples() {
		if len(entry.Args) != len(entry.Expected) {
			t.Errorf("%s: %d argument tuples but %d expected results", name, len(entry.Args), len(entry.Expected))
		}
	}
}

func TestExamples_TypeCheck(t *testing.T) {
	for name, entry := range simply.Examples() {
		if err := simply.CheckProgram(entry.Program); err != nil {
			t.Errorf("%s: CheckProgram failed: %v", name, err)
		}
	}
}

func TestExamples_MainArityMatchesArgTuples(t *testing.T) {
	for name, entry := range simply.Examples() {
		mainDef := entry.Program.Lookup("main")
		if mainDef == nil {
			t.Errorf("%s: program has no main def", name)
			continue
		}
		arity := simply.FunArity(mainDef.Type)
		for i, args := range entry.Args {
			if len(args) != arity {
				t.Errorf("%s: args[%d] has %d values, main takes %d", name, i, len(args), arity)
			}
		}
	}
}

func TestExamples_KnownNames(t *testing.T) {
	want := []string{
		"fact_direct", "fact_arg", "fact_with_let", "fact_via_helper",
		"ho_const", "ho_add", "fact_fix",
	}
	got := simply.Examples()
	if len(got) != len(want) {
		t.Fatalf("got %d catalogue entries, want %d", len(got), len(want))
	}
	for _, name := range want {
		if _, ok := got[name]; !ok {
			t.Errorf("missing catalogue entry %q", name)
		}
	}
}
