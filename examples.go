package simply

// CatalogueEntry pairs a seed Program (§8's table) with the invocations it
// was designed to be tested against and their expected results.
type CatalogueEntry struct {
	Name     string
	Program  *Program
	Args     [][]int32
	Expected []int32
}

var factExpected0to7 = []int32{1, 1, 2, 6, 24, 120, 720, 5040}

func argsRange(n int32) [][]int32 {
	args := make([][]int32, n+1)
	for i := int32(0); i <= n; i++ {
		args[i] = []int32{i}
	}
	return args
}

// Examples is the registry of every seed program, keyed by name, so both
// the test suite and the CLI driver (§4.11) can run them interchangeably.
func Examples() map[string]*CatalogueEntry {
	entries := []*CatalogueEntry{
		factDirect(),
		factArg(),
		factWithLet(),
		factViaHelper(),
		hoConst(),
		hoAdd(),
		factFix(),
	}
	registry := make(map[string]*CatalogueEntry, len(entries))
	for _, e := range entries {
		registry[e.Name] = e
	}
	return registry
}

func factDef() *Def {
	n := Param{Name: "n", Type: IntType{}}
	body := &If{
		Cond: &BinOp{Op: Eq, Left: &Var{Name: "n"}, Right: &Lit{Value: 0}},
		Then: &Lit{Value: 1},
		Else: &BinOp{
			Op:   Mul,
			Left: &Var{Name: "n"},
			Right: &App{
				Fun: &Var{Name: "fact"},
				Arg: &BinOp{Op: Sub, Left: &Var{Name: "n"}, Right: &Lit{Value: 1}},
			},
		},
	}
	return &Def{Name: "fact", Type: FunTypeOf([]Type{IntType{}}, IntType{}), Body: Lams([]Param{n}, body)}
}

// fact_direct: main : Int = fact 5, fact : Int -> Int by explicit top-level
// self-recursion.
func factDirect() *CatalogueEntry {
	p := &Program{Defs: []*Def{
		factDef(),
		{Name: "main", Type: IntType{}, Body: &App{Fun: &Var{Name: "fact"}, Arg: &Lit{Value: 5}}},
	}}
	return &CatalogueEntry{Name: "fact_direct", Program: p, Args: [][]int32{{}}, Expected: []int32{120}}
}

// fact_arg: main : Int -> Int = lambda n. fact n.
func factArg() *CatalogueEntry {
	n := Param{Name: "n", Type: IntType{}}
	mainBody := Lams([]Param{n}, &App{Fun: &Var{Name: "fact"}, Arg: &Var{Name: "n"}})
	p := &Program{Defs: []*Def{
		factDef(),
		{Name: "main", Type: FunTypeOf([]Type{IntType{}}, IntType{}), Body: mainBody},
	}}
	return &CatalogueEntry{Name: "fact_arg", Program: p, Args: argsRange(7), Expected: factExpected0to7}
}

// fact_with_let: main binds the recursive function via Let before calling
// it, the function itself built through the general Fix combinator since
// Let alone cannot bind a self-referential name.
func factFixBody() Expr {
	k := Param{Name: "k", Type: IntType{}}
	return &Fix{
		Self:     "f",
		SelfType: FunTypeOf([]Type{IntType{}}, IntType{}),
		Body: Lams([]Param{k}, &If{
			Cond: &BinOp{Op: Eq, Left: &Var{Name: "k"}, Right: &Lit{Value: 0}},
			Then: &Lit{Value: 1},
			Else: &BinOp{
				Op:   Mul,
				Left: &Var{Name: "k"},
				Right: &App{
					Fun: &Var{Name: "f"},
					Arg: &BinOp{Op: Sub, Left: &Var{Name: "k"}, Right: &Lit{Value: 1}},
				},
			},
		}),
	}
}

func factWithLet() *CatalogueEntry {
	funType := FunTypeOf([]Type{IntType{}}, IntType{})
	mainBody := &Let{
		Name:  "rec",
		Type:  funType,
		Bound: factFixBody(),
		Body:  &App{Fun: &Var{Name: "rec"}, Arg: &Lit{Value: 5}},
	}
	p := &Program{Defs: []*Def{
		{Name: "main", Type: IntType{}, Body: mainBody},
	}}
	return &CatalogueEntry{Name: "fact_with_let", Program: p, Args: [][]int32{{}}, Expected: []int32{120}}
}

// fact_via_helper: main : Int -> Int calls a helper that returns fact
// curried — helper ignores its argument and returns fact itself as a
// value, exercising a zero-capture closure over a named global returned
// from (and then applied outside of) another function.
func factViaHelper() *CatalogueEntry {
	ignored := Param{Name: "ignored", Type: IntType{}}
	helperType := FunTypeOf([]Type{IntType{}}, FunTypeOf([]Type{IntType{}}, IntType{}))
	helperDef := &Def{Name: "helper", Type: helperType, Body: Lams([]Param{ignored}, &Var{Name: "fact"})}

	n := Param{Name: "n", Type: IntType{}}
	mainBody := Lams([]Param{n}, &App{
		Fun: &App{Fun: &Var{Name: "helper"}, Arg: &Lit{Value: 0}},
		Arg: &Var{Name: "n"},
	})
	p := &Program{Defs: []*Def{
		factDef(),
		helperDef,
		{Name: "main", Type: FunTypeOf([]Type{IntType{}}, IntType{}), Body: mainBody},
	}}
	return &CatalogueEntry{Name: "fact_via_helper", Program: p, Args: argsRange(7), Expected: factExpected0to7}
}

// ho_const: apply : (Int -> Int) -> Int -> Int, main = apply (lambda x. x+3) 4.
func applyDef() *Def {
	f := Param{Name: "f", Type: FunTypeOf([]Type{IntType{}}, IntType{})}
	x := Param{Name: "x", Type: IntType{}}
	applyType := FunTypeOf([]Type{f.Type, IntType{}}, IntType{})
	return &Def{Name: "apply", Type: applyType, Body: Lams([]Param{f, x}, &App{Fun: &Var{Name: "f"}, Arg: &Var{Name: "x"}})}
}

func addThree() Expr {
	x := Param{Name: "x", Type: IntType{}}
	return Lams([]Param{x}, &BinOp{Op: Add, Left: &Var{Name: "x"}, Right: &Lit{Value: 3}})
}

func hoConst() *CatalogueEntry {
	p := &Program{Defs: []*Def{
		applyDef(),
		{Name: "main", Type: IntType{}, Body: Apps(&Var{Name: "apply"}, addThree(), &Lit{Value: 4})},
	}}
	return &CatalogueEntry{Name: "ho_const", Program: p, Args: [][]int32{{}}, Expected: []int32{7}}
}

// ho_add: main : Int -> Int = lambda n. apply (lambda x. x+3) n — the inner
// lambda is nested under main's own, exercising free-variable analysis
// that must find it captures nothing despite n being in scope around it.
func hoAdd() *CatalogueEntry {
	n := Param{Name: "n", Type: IntType{}}
	mainBody := Lams([]Param{n}, Apps(&Var{Name: "apply"}, addThree(), &Var{Name: "n"}))
	p := &Program{Defs: []*Def{
		applyDef(),
		{Name: "main", Type: FunTypeOf([]Type{IntType{}}, IntType{}), Body: mainBody},
	}}
	expected := make([]int32, 8)
	for i := range expected {
		expected[i] = int32(i) + 3
	}
	return &CatalogueEntry{Name: "ho_add", Program: p, Args: argsRange(7), Expected: expected}
}

// fact_fix: main : Int -> Int = lambda n. (Fix f : Int->Int. lambda k. if
// k=0 then 1 else k * f (k-1)) n.
func factFix() *CatalogueEntry {
	n := Param{Name: "n", Type: IntType{}}
	mainBody := Lams([]Param{n}, &App{Fun: factFixBody(), Arg: &Var{Name: "n"}})
	p := &Program{Defs: []*Def{
		{Name: "main", Type: FunTypeOf([]Type{IntType{}}, IntType{}), Body: mainBody},
	}}
	return &CatalogueEntry{Name: "fact_fix", Program: p, Args: argsRange(7), Expected: factExpected0to7}
}
