package simply

// TypeEnv is a chained scope mapping names to their declared types. It is
// shared by the type checker and the closure converter: once a program has
// been checked, the converter reuses the same synthesis judgment (via
// TypeOf) to recover the type of any well-typed subexpression.
type TypeEnv struct {
	parent *TypeEnv
	vars   map[string]Type
}

func NewTypeEnv(parent *TypeEnv) *TypeEnv {
	return &TypeEnv{parent: parent, vars: make(map[string]Type)}
}

func (e *TypeEnv) Bind(name string, t Type) *TypeEnv {
	child := NewTypeEnv(e)
	child.vars[name] = t
	return child
}

func (e *TypeEnv) Lookup(name string) (Type, bool) {
	for s := e; s != nil; s = s.parent {
		if t, ok := s.vars[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// CheckProgram type-checks every top-level binding in order, each visible
// to the ones that follow it (forward references are rejected), and
// requires a "main" binding of first-order Int type. A function-typed
// binding is also visible inside its own body, so top-level functions may
// recurse directly.
func CheckProgram(p *Program) error {
	globals := NewTypeEnv(nil)
	var mainDef *Def
	for _, def := range p.Defs {
		if _, isFun := def.Type.(*FunType); isFun {
			globals.vars[def.Name] = def.Type
		}
		t, err := synth(def.Body, NewTypeEnv(nil), globals)
		if err != nil {
			return err
		}
		if !TypeEqual(t, def.Type) {
			return newTypeMismatch(def.Type, t)
		}
		globals.vars[def.Name] = def.Type
		if def.Name == "main" {
			mainDef = def
		}
	}
	if mainDef == nil {
		return newMissingMain()
	}
	if !IsFirstOrderIntFun(mainDef.Type) {
		return newMainNotFirstOrderInt(mainDef.Type)
	}
	return nil
}

// synth synthesizes the type of e bottom-up under the local environment
// env and the top-level environment globals, per §4.1's per-form rules.
func synth(e Expr, env *TypeEnv, globals *TypeEnv) (Type, error) {
	switch e := e.(type) {
	case *Lit:
		return IntType{}, nil
	case *LitBool:
		return BoolType{}, nil
	case *selfRef:
		return e.Type, nil
	case *Var:
		if t, ok := env.Lookup(e.Name); ok {
			return t, nil
		}
		if t, ok := globals.Lookup(e.Name); ok {
			return t, nil
		}
		return nil, newUnboundVariable(e.Name)
	case *Let:
		boundType, err := synth(e.Bound, env, globals)
		if err != nil {
			return nil, err
		}
		if !TypeEqual(boundType, e.Type) {
			return nil, newTypeMismatch(e.Type, boundType)
		}
		return synth(e.Body, env.Bind(e.Name, e.Type), globals)
	case *If:
		condType, err := synth(e.Cond, env, globals)
		if err != nil {
			return nil, err
		}
		if _, ok := condType.(BoolType); !ok {
			return nil, newTypeMismatch(BoolType{}, condType)
		}
		thenType, err := synth(e.Then, env, globals)
		if err != nil {
			return nil, err
		}
		elseType, err := synth(e.Else, env, globals)
		if err != nil {
			return nil, err
		}
		if !TypeEqual(thenType, elseType) {
			return nil, newTypeMismatch(thenType, elseType)
		}
		return thenType, nil
	case *BinOp:
		leftType, err := synth(e.Left, env, globals)
		if err != nil {
			return nil, err
		}
		rightType, err := synth(e.Right, env, globals)
		if err != nil {
			return nil, err
		}
		if _, ok := leftType.(IntType); !ok {
			return nil, newTypeMismatch(IntType{}, leftType)
		}
		if _, ok := rightType.(IntType); !ok {
			return nil, newTypeMismatch(IntType{}, rightType)
		}
		switch e.Op {
		case Add, Sub, Mul:
			return IntType{}, nil
		case Eq, Lt:
			return BoolType{}, nil
		default:
			internalError("unknown binary operator %v", e.Op)
		}
	case *Lam:
		resultType, err := synth(e.Body, env.Bind(e.Param, e.ParamType), globals)
		if err != nil {
			return nil, err
		}
		return &FunType{Arg: e.ParamType, Result: resultType}, nil
	case *App:
		funType, err := synth(e.Fun, env, globals)
		if err != nil {
			return nil, err
		}
		ft, ok := funType.(*FunType)
		if !ok {
			return nil, newNotAFunction(describeCallee(e.Fun), funType)
		}
		argType, err := synth(e.Arg, env, globals)
		if err != nil {
			return nil, err
		}
		if !TypeEqual(argType, ft.Arg) {
			return nil, newTypeMismatch(ft.Arg, argType)
		}
		return ft.Result, nil
	case *Fix:
		if _, ok := e.SelfType.(*FunType); !ok {
			return nil, newFixOnNonFunction(e.SelfType)
		}
		bodyType, err := synth(e.Body, env.Bind(e.Self, e.SelfType), globals)
		if err != nil {
			return nil, err
		}
		if !TypeEqual(bodyType, e.SelfType) {
			return nil, newTypeMismatch(e.SelfType, bodyType)
		}
		return e.SelfType, nil
	default:
		internalError("unknown surface expression %T", e)
	}
	panic("unreachable")
}

func describeCallee(e Expr) string {
	if v, ok := e.(*Var); ok {
		return v.Name
	}
	return "<expr>"
}

// TypeOf recovers the type of e, assuming the enclosing program has
// already passed CheckProgram. It is an internal invariant violation
// (§7 domain 2) for synth to fail here, since the input is guaranteed
// well-typed.
func TypeOf(e Expr, env *TypeEnv, globals *TypeEnv) Type {
	t, err := synth(e, env, globals)
	if err != nil {
		internalError("TypeOf on checked program: %v", err)
	}
	return t
}
