package simply

import "fmt"

// ErrorKind distinguishes the structured type-error taxonomy of §4.1.
type ErrorKind int

const (
	TypeMismatch ErrorKind = iota
	UnboundVariable
	NotAFunction
	FixOnNonFunction
	MissingMain
	MainNotFirstOrderInt
)

func (k ErrorKind) String() string {
	switch k {
	case TypeMismatch:
		return "TypeMismatch"
	case UnboundVariable:
		return "UnboundVariable"
	case NotAFunction:
		return "NotAFunction"
	case FixOnNonFunction:
		return "FixOnNonFunction"
	case MissingMain:
		return "MissingMain"
	case MainNotFirstOrderInt:
		return "MainNotFirstOrderInt"
	default:
		return "UnknownError"
	}
}

// CompileError is a structured type-checking error: a kind plus the
// details needed to explain it.
type CompileError struct {
	Kind     ErrorKind
	Expected Type
	Found    Type
	Name     string
	msg      string
}

func (e *CompileError) Error() string {
	if e.msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.msg)
	}
	switch e.Kind {
	case TypeMismatch:
		return fmt.Sprintf("%s: expected %s, found %s", e.Kind, e.Expected, e.Found)
	case UnboundVariable, NotAFunction, FixOnNonFunction:
		return fmt.Sprintf("%s: %s", e.Kind, e.Name)
	default:
		return e.Kind.String()
	}
}

func newTypeMismatch(expected, found Type) *CompileError {
	return &CompileError{Kind: TypeMismatch, Expected: expected, Found: found}
}

func newUnboundVariable(name string) *CompileError {
	return &CompileError{Kind: UnboundVariable, Name: name}
}

func newNotAFunction(name string, found Type) *CompileError {
	return &CompileError{Kind: NotAFunction, Name: name, Found: found, msg: fmt.Sprintf("%s has type %s", name, found)}
}

func newFixOnNonFunction(found Type) *CompileError {
	return &CompileError{Kind: FixOnNonFunction, Found: found, msg: fmt.Sprintf("Fix requires a function type, found %s", found)}
}

func newMissingMain() *CompileError {
	return &CompileError{Kind: MissingMain, msg: "program has no binding named main"}
}

func newMainNotFirstOrderInt(found Type) *CompileError {
	return &CompileError{Kind: MainNotFirstOrderInt, Found: found, msg: fmt.Sprintf("main must be Int -> ... -> Int, found %s", found)}
}

// internalError reports a domain-2 invariant violation (§7): a condition
// that must not occur on well-typed input. It is not a recoverable error;
// callers are expected to let it panic.
func internalError(format string, args ...interface{}) {
	panic(fmt.Sprintf("simply: internal invariant violation: %s", fmt.Sprintf(format, args...)))
}
