package simply

import "fmt"

// ConvertProgram runs closure conversion (surface -> intermediate): every
// top-level binding whose body is a chain of Lams is peeled into a
// multi-parameter global; every other Lam is hoisted into a fresh global
// capturing its free variables; every Fix is lowered into a
// self-referential global; every application is reconciled to either a
// direct known call or a saturated closure call, synthesizing curry
// wrappers for under-application and expanding over-application into
// nested saturated calls. The result contains no Lam, App, or Fix node.
func ConvertProgram(p *Program) *IRProgram {
	c := &converter{globalInfo: computeGlobalInfo(p)}
	c.globalsEnv = NewTypeEnv(nil)
	for name, info := range c.globalInfo {
		c.globalsEnv = c.globalsEnv.Bind(name, info.Type)
	}
	for _, def := range p.Defs {
		c.convertTopLevel(def)
	}
	return &IRProgram{Globals: c.globals}
}

// globalInfo records, for every user-declared top-level binding, the
// number of parameters obtained by peeling its outermost Lam chain (its
// "arity") plus the types involved. Only user-declared bindings appear
// here — globals synthesized during conversion (hoisted lambdas, curry
// wrappers, Fix knots) are never looked up by name for CallKnown purposes.
type globalInfo struct {
	Type       Type
	Arity      int
	ParamTypes []Type
	ResultType Type
}

func computeGlobalInfo(p *Program) map[string]*globalInfo {
	info := make(map[string]*globalInfo, len(p.Defs))
	for _, def := range p.Defs {
		params, paramTypes, _, resultType := peelLambdas(def.Body, def.Type)
		info[def.Name] = &globalInfo{
			Type:       def.Type,
			Arity:      len(params),
			ParamTypes: paramTypes,
			ResultType: resultType,
		}
	}
	return info
}

// peelLambdas strips the outer Lam chain of body, whose declared type is
// t, returning the peeled parameter names/types, the remaining body, and
// the remaining (unpeeled) result type.
func peelLambdas(body Expr, t Type) (params []string, paramTypes []Type, inner Expr, resultType Type) {
	for {
		lam, ok := body.(*Lam)
		if !ok {
			return params, paramTypes, body, t
		}
		ft, ok := t.(*FunType)
		if !ok {
			return params, paramTypes, body, t
		}
		params = append(params, lam.Param)
		paramTypes = append(paramTypes, ft.Arg)
		body = lam.Body
		t = ft.Result
	}
}

type converter struct {
	globalInfo    map[string]*globalInfo
	globalsEnv    *TypeEnv
	globals       []*IRGlobalDef
	counter       int
	currentPrefix string
}

func (c *converter) isGlobal(name string) bool {
	_, ok := c.globalInfo[name]
	return ok
}

func (c *converter) freshName(prefix string) string {
	c.counter++
	return fmt.Sprintf("%s$%d", prefix, c.counter)
}

func (c *converter) convertTopLevel(def *Def) {
	c.currentPrefix = def.Name
	params, paramTypes, innerBody, resultType := peelLambdas(def.Body, def.Type)
	env := NewTypeEnv(nil)
	for i, p := range params {
		env = env.Bind(p, paramTypes[i])
	}
	body := c.convertExpr(innerBody, env)
	c.globals = append(c.globals, &IRGlobalDef{
		Name:       def.Name,
		ParamTypes: paramTypes,
		Params:     params,
		ResultType: resultType,
		Body:       body,
	})
}

// selfRef is an internal closed reference to a Fix's own knot global,
// substituted in place of Fix's bound self-name before conversion so that
// ordinary Var handling never needs to special-case self-recursion.
type selfRef struct {
	Global string
	Type   Type
}

func (*selfRef) expr() {}

func (c *converter) convertExpr(e Expr, env *TypeEnv) IRExpr {
	switch e := e.(type) {
	case *Lit:
		return &IRLit{Value: e.Value}
	case *LitBool:
		return &IRLitBool{Value: e.Value}
	case *selfRef:
		ft, ok := e.Type.(*FunType)
		if !ok {
			internalError("self-reference to %q has non-function type %s", e.Global, e.Type)
		}
		return &IRClosure{Global: e.Global, FuncType: ft}
	case *Var:
		if t, ok := env.Lookup(e.Name); ok {
			return &IRLocal{Name: e.Name, Type: t}
		}
		info, ok := c.globalInfo[e.Name]
		if !ok {
			internalError("unbound variable %q survived type-checking", e.Name)
		}
		if info.Arity > 0 {
			ft, ok := info.Type.(*FunType)
			if !ok {
				internalError("global %q has positive arity but non-function type %s", e.Name, info.Type)
			}
			return &IRClosure{Global: e.Name, FuncType: ft}
		}
		return &IRCallKnown{Global: e.Name}
	case *Let:
		bound := c.convertExpr(e.Bound, env)
		body := c.convertExpr(e.Body, env.Bind(e.Name, e.Type))
		return &IRLet{Name: e.Name, Type: e.Type, Bound: bound, Body: body}
	case *If:
		return &IRIf{
			Cond: c.convertExpr(e.Cond, env),
			Then: c.convertExpr(e.Then, env),
			Else: c.convertExpr(e.Else, env),
		}
	case *BinOp:
		return &IRBinOp{Op: e.Op, Left: c.convertExpr(e.Left, env), Right: c.convertExpr(e.Right, env)}
	case *Lam:
		return c.convertLam(e, env)
	case *App:
		return c.convertApp(e, env)
	case *Fix:
		return c.convertFix(e, env)
	default:
		internalError("unknown surface expression %T", e)
	}
	panic("unreachable")
}

func (c *converter) convertLam(lam *Lam, env *TypeEnv) IRExpr {
	fvs := freeVars(lam, nil, c.isGlobal)
	capturedTypes := make([]Type, len(fvs))
	capturedVals := make([]IRExpr, len(fvs))
	for i, n := range fvs {
		t, ok := env.Lookup(n)
		if !ok {
			internalError("free variable %q of a lambda not found in enclosing scope", n)
		}
		capturedTypes[i] = t
		capturedVals[i] = c.convertExpr(&Var{Name: n}, env)
	}
	resultType := TypeOf(lam.Body, env.Bind(lam.Param, lam.ParamType), c.globalsEnv)

	name := c.freshName(c.currentPrefix + "$lam")
	bodyEnv := NewTypeEnv(nil)
	for i, n := range fvs {
		bodyEnv = bodyEnv.Bind(n, capturedTypes[i])
	}
	bodyEnv = bodyEnv.Bind(lam.Param, lam.ParamType)
	body := c.convertExpr(lam.Body, bodyEnv)

	c.globals = append(c.globals, &IRGlobalDef{
		Name:          name,
		CapturedCount: len(fvs),
		ParamTypes:    append(append([]Type{}, capturedTypes...), lam.ParamType),
		Params:        append(append([]string{}, fvs...), lam.Param),
		ResultType:    resultType,
		Body:          body,
	})
	return &IRClosure{Global: name, Captured: capturedVals, FuncType: &FunType{Arg: lam.ParamType, Result: resultType}}
}

func (c *converter) convertFix(fx *Fix, env *TypeEnv) IRExpr {
	ft, ok := fx.SelfType.(*FunType)
	if !ok {
		// Duplicates the type checker's FixOnNonFunction check: the open
		// question of §9 is resolved by checking defensively here too.
		internalError("Fix on non-function type %s (type-checker precondition violated)", fx.SelfType)
	}

	fvs := freeVars(fx, nil, c.isGlobal)
	capturedTypes := make([]Type, len(fvs))
	capturedVals := make([]IRExpr, len(fvs))
	for i, n := range fvs {
		t, ok := env.Lookup(n)
		if !ok {
			internalError("free variable %q of a Fix not found in enclosing scope", n)
		}
		capturedTypes[i] = t
		capturedVals[i] = c.convertExpr(&Var{Name: n}, env)
	}

	name := c.freshName(c.currentPrefix + "$fix")
	substituted := substSelf(fx.Body, fx.Self, &selfRef{Global: name, Type: fx.SelfType})
	params, paramTypes, innerBody, resultType := peelLambdas(substituted, fx.SelfType)

	bodyEnv := NewTypeEnv(nil)
	for i, n := range fvs {
		bodyEnv = bodyEnv.Bind(n, capturedTypes[i])
	}
	for i, p := range params {
		bodyEnv = bodyEnv.Bind(p, paramTypes[i])
	}
	body := c.convertExpr(innerBody, bodyEnv)

	c.globals = append(c.globals, &IRGlobalDef{
		Name:          name,
		CapturedCount: len(fvs),
		ParamTypes:    append(append([]Type{}, capturedTypes...), paramTypes...),
		Params:        append(append([]string{}, fvs...), params...),
		ResultType:    resultType,
		Body:          body,
	})
	return &IRClosure{Global: name, Captured: capturedVals, FuncType: ft}
}

func (c *converter) convertApp(e *App, env *TypeEnv) IRExpr {
	head, args := collectSpine(e)
	if v, ok := head.(*Var); ok {
		if _, isLocal := env.Lookup(v.Name); !isLocal {
			if info, known := c.globalInfo[v.Name]; known && info.Arity > 0 {
				return c.applyKnownGlobal(v.Name, info, args, env)
			}
		}
	}
	headIR := c.convertExpr(head, env)
	headType := TypeOf(head, env, c.globalsEnv)
	argIRs := make([]IRExpr, len(args))
	for i, a := range args {
		argIRs[i] = c.convertExpr(a, env)
	}
	return c.applyToIRArgs(headIR, headType, argIRs)
}

// collectSpine walks a maximal chain of Apps, returning the non-App head
// and the arguments in left-to-right declaration order.
func collectSpine(e Expr) (Expr, []Expr) {
	var args []Expr
	for {
		app, ok := e.(*App)
		if !ok {
			return e, args
		}
		args = append([]Expr{app.Arg}, args...)
		e = app.Fun
	}
}

func (c *converter) applyKnownGlobal(name string, info *globalInfo, args []Expr, env *TypeEnv) IRExpr {
	convertedArgs := make([]IRExpr, len(args))
	for i, a := range args {
		convertedArgs[i] = c.convertExpr(a, env)
	}
	switch {
	case len(args) == info.Arity:
		return &IRCallKnown{Global: name, Args: convertedArgs}
	case len(args) < info.Arity:
		return c.curryGlobal(name, info, convertedArgs)
	default:
		saturated := &IRCallKnown{Global: name, Args: convertedArgs[:info.Arity]}
		restType := peelArrows(info.Type, info.Arity)
		return c.applyToIRArgs(saturated, restType, convertedArgs[info.Arity:])
	}
}

// curryGlobal synthesizes a top-level wrapper that captures the already-
// supplied arguments and forwards to name once the remaining arguments
// arrive, implementing under-application of a directly-known global.
func (c *converter) curryGlobal(name string, info *globalInfo, supplied []IRExpr) IRExpr {
	k := len(supplied)
	capturedTypes := info.ParamTypes[:k]
	remainingTypes := info.ParamTypes[k:]

	capturedNames := make([]string, k)
	for i := range capturedNames {
		capturedNames[i] = fmt.Sprintf("captured%d", i)
	}
	remainingNames := make([]string, len(remainingTypes))
	forwardArgs := make([]IRExpr, 0, len(info.ParamTypes))
	for i, n := range capturedNames {
		forwardArgs = append(forwardArgs, &IRLocal{Name: n, Type: capturedTypes[i]})
	}
	for i := range remainingTypes {
		pn := fmt.Sprintf("arg%d", i)
		remainingNames[i] = pn
		forwardArgs = append(forwardArgs, &IRLocal{Name: pn, Type: remainingTypes[i]})
	}

	wrapperName := c.freshName(name + "$curry")
	c.globals = append(c.globals, &IRGlobalDef{
		Name:          wrapperName,
		CapturedCount: k,
		ParamTypes:    append(append([]Type{}, capturedTypes...), remainingTypes...),
		Params:        append(append([]string{}, capturedNames...), remainingNames...),
		ResultType:    info.ResultType,
		Body:          &IRCallKnown{Global: name, Args: forwardArgs},
	})
	funcType := FunTypeOf(remainingTypes, info.ResultType).(*FunType)
	return &IRClosure{Global: wrapperName, Captured: supplied, FuncType: funcType}
}

// applyToIRArgs reconciles a (possibly under- or over-saturated) argument
// list against a closure value whose curried type is calleeType.
func (c *converter) applyToIRArgs(calleeIR IRExpr, calleeType Type, args []IRExpr) IRExpr {
	arity := FunArity(calleeType)
	switch {
	case len(args) == arity:
		return &IRCallClosure{Closure: calleeIR, Args: args, ClosureType: mustFunType(calleeType)}
	case len(args) < arity:
		return c.curryClosure(calleeIR, calleeType, arity, args)
	default:
		saturated := &IRCallClosure{Closure: calleeIR, Args: args[:arity], ClosureType: mustFunType(calleeType)}
		restType := peelArrows(calleeType, arity)
		return c.applyToIRArgs(saturated, restType, args[arity:])
	}
}

// curryClosure synthesizes a wrapper capturing a closure value itself plus
// the already-supplied arguments, forwarding via a saturated CallClosure
// once the remaining arguments arrive — the general analogue of
// curryGlobal for closures with no statically-known underlying global.
func (c *converter) curryClosure(calleeIR IRExpr, calleeType Type, arity int, supplied []IRExpr) IRExpr {
	argTypes, resultType := flattenArrows(calleeType, arity)
	k := len(supplied)
	remainingTypes := argTypes[k:]

	capturedTypes := append([]Type{calleeType}, argTypes[:k]...)
	capturedNames := make([]string, k+1)
	capturedNames[0] = "closure"
	for i := 1; i <= k; i++ {
		capturedNames[i] = fmt.Sprintf("captured%d", i-1)
	}
	remainingNames := make([]string, len(remainingTypes))
	forwardArgs := make([]IRExpr, 0, arity)
	for i := 1; i < len(capturedNames); i++ {
		forwardArgs = append(forwardArgs, &IRLocal{Name: capturedNames[i], Type: capturedTypes[i]})
	}
	for i := range remainingTypes {
		pn := fmt.Sprintf("arg%d", i)
		remainingNames[i] = pn
		forwardArgs = append(forwardArgs, &IRLocal{Name: pn, Type: remainingTypes[i]})
	}

	wrapperName := c.freshName("closure$curry")
	c.globals = append(c.globals, &IRGlobalDef{
		Name:          wrapperName,
		CapturedCount: k + 1,
		ParamTypes:    append(append([]Type{}, capturedTypes...), remainingTypes...),
		Params:        append(append([]string{}, capturedNames...), remainingNames...),
		ResultType:    resultType,
		Body:          &IRCallClosure{Closure: &IRLocal{Name: "closure", Type: calleeType}, Args: forwardArgs, ClosureType: mustFunType(calleeType)},
	})
	funcType := FunTypeOf(remainingTypes, resultType).(*FunType)
	capturedVals := append([]IRExpr{calleeIR}, supplied...)
	return &IRClosure{Global: wrapperName, Captured: capturedVals, FuncType: funcType}
}

func peelArrows(t Type, n int) Type {
	for i := 0; i < n; i++ {
		ft, ok := t.(*FunType)
		if !ok {
			internalError("cannot apply %d argument(s) to non-function type %s", n, t)
		}
		t = ft.Result
	}
	return t
}

func flattenArrows(t Type, n int) ([]Type, Type) {
	args := make([]Type, 0, n)
	for i := 0; i < n; i++ {
		ft, ok := t.(*FunType)
		if !ok {
			internalError("cannot apply %d argument(s) to non-function type %s", n, t)
		}
		args = append(args, ft.Arg)
		t = ft.Result
	}
	return args, t
}

// substSelf replaces free occurrences of name with ref throughout e,
// stopping at any nested binder that reuses name (capture-avoiding).
func substSelf(e Expr, name string, ref *selfRef) Expr {
	switch e := e.(type) {
	case *Lit, *LitBool, *selfRef:
		return e
	case *Var:
		if e.Name == name {
			return ref
		}
		return e
	case *Let:
		newBound := substSelf(e.Bound, name, ref)
		if e.Name == name {
			return &Let{Name: e.Name, Type: e.Type, Bound: newBound, Body: e.Body}
		}
		return &Let{Name: e.Name, Type: e.Type, Bound: newBound, Body: substSelf(e.Body, name, ref)}
	case *If:
		return &If{Cond: substSelf(e.Cond, name, ref), Then: substSelf(e.Then, name, ref), Else: substSelf(e.Else, name, ref)}
	case *BinOp:
		return &BinOp{Op: e.Op, Left: substSelf(e.Left, name, ref), Right: substSelf(e.Right, name, ref)}
	case *Lam:
		if e.Param == name {
			return e
		}
		return &Lam{Param: e.Param, ParamType: e.ParamType, Body: substSelf(e.Body, name, ref)}
	case *App:
		return &App{Fun: substSelf(e.Fun, name, ref), Arg: substSelf(e.Arg, name, ref)}
	case *Fix:
		if e.Self == name {
			return e
		}
		return &Fix{Self: e.Self, SelfType: e.SelfType, Body: substSelf(e.Body, name, ref)}
	default:
		internalError("unknown surface expression %T", e)
	}
	panic("unreachable")
}

// freeVars returns the names free in e, excluding any already in bound and
// any name for which isGlobal reports true, ordered by first occurrence.
func freeVars(e Expr, bound map[string]bool, isGlobal func(string) bool) []string {
	var order []string
	seen := map[string]bool{}
	var walk func(Expr, map[string]bool)
	extend := func(b map[string]bool, name string) map[string]bool {
		inner := make(map[string]bool, len(b)+1)
		for k, v := range b {
			inner[k] = v
		}
		inner[name] = true
		return inner
	}
	walk = func(e Expr, bound map[string]bool) {
		switch e := e.(type) {
		case *Lit, *LitBool, *selfRef:
		case *Var:
			if bound[e.Name] || isGlobal(e.Name) {
				return
			}
			if !seen[e.Name] {
				seen[e.Name] = true
				order = append(order, e.Name)
			}
		case *Let:
			walk(e.Bound, bound)
			walk(e.Body, extend(bound, e.Name))
		case *If:
			walk(e.Cond, bound)
			walk(e.Then, bound)
			walk(e.Else, bound)
		case *BinOp:
			walk(e.Left, bound)
			walk(e.Right, bound)
		case *Lam:
			walk(e.Body, extend(bound, e.Param))
		case *App:
			walk(e.Fun, bound)
			walk(e.Arg, bound)
		case *Fix:
			walk(e.Body, extend(bound, e.Self))
		default:
			internalError("unknown surface expression %T", e)
		}
	}
	walk(e, bound)
	return order
}
