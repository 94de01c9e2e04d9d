package simply

// IRProgram is the closed, lambda-lifted output of closure conversion: a
// flat set of top-level global definitions.
type IRProgram struct {
	Globals []*IRGlobalDef
}

func (p *IRProgram) Lookup(name string) *IRGlobalDef {
	for _, g := range p.Globals {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// IRGlobalDef is one top-level function (arity may be zero, in which case
// it is a plain value computed by calling it with no arguments).
type IRGlobalDef struct {
	Name       string
	ParamTypes []Type
	ResultType Type
	Params     []string
	Body       IRExpr
	// CapturedCount is the number of leading entries in ParamTypes/Params
	// that are captured environment values rather than real arguments
	// supplied at the call site; the remaining ParamTypes/Params are the
	// global's true parameters. Zero for every user-declared top-level
	// binding and for curry wrappers that capture nothing.
	CapturedCount int
}

func (g *IRGlobalDef) Arity() int { return len(g.Params) }

// IRExpr is the intermediate expression grammar: Lam, App and Fix from the
// surface grammar are gone, replaced by Local/Closure/CallKnown/
// CallClosure.
type IRExpr interface {
	irExpr()
}

type IRLit struct {
	Value int32
}

type IRLitBool struct {
	Value bool
}

type IRLet struct {
	Name  string
	Type  Type
	Bound IRExpr
	Body  IRExpr
}

type IRIf struct {
	Cond IRExpr
	Then IRExpr
	Else IRExpr
}

type IRBinOp struct {
	Op    BinOpKind
	Left  IRExpr
	Right IRExpr
}

// IRLocal is a reference to a parameter of the enclosing IRGlobalDef.
type IRLocal struct {
	Name string
	Type Type
}

// IRClosure pairs a global function with a heap-allocated environment
// holding captured values in declaration order. FuncType is the closure's
// apparent (possibly partially-applied) function type.
type IRClosure struct {
	Global    string
	Captured  []IRExpr
	FuncType  *FunType
}

// IRCallKnown is a direct call to a global of known arity with exactly
// that many arguments supplied.
type IRCallKnown struct {
	Global string
	Args   []IRExpr
}

// IRCallClosure applies a saturating set of arguments to a closure value.
// By the time codegen sees one, conversion has already guaranteed len(Args)
// equals the closure's declared arity (see curry-wrapper/over-application
// handling in closure.go).
type IRCallClosure struct {
	Closure IRExpr
	Args    []IRExpr
	// ClosureType is Closure's curried function type at this call site,
	// known statically at conversion time; codegen uses it to reconstruct
	// the wrapped function's LLVM signature without re-deriving it.
	ClosureType *FunType
}

func (*IRLit) irExpr()         {}
func (*IRLitBool) irExpr()     {}
func (*IRLet) irExpr()         {}
func (*IRIf) irExpr()          {}
func (*IRBinOp) irExpr()       {}
func (*IRLocal) irExpr()       {}
func (*IRClosure) irExpr()     {}
func (*IRCallKnown) irExpr()   {}
func (*IRCallClosure) irExpr() {}
