package ovlerr

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// enableDebugErrorPrinting makes errors include the frame that created them when printed
const enableDebugErrorPrinting bool = false
const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None ErrCode = iota
	ArityMismatch
	SpecificityCycle
	DispatchExhausted
	UninferableGeneric
	UnhandledTypeShape
	MissingStaticOccurrence
	UnsupportedGenericMethod
	UnsupportedVarargs
	DuplicateSignature
)

// Kind separates compiler-internal failures (an upstream guarantee was violated)
// from language features this engine refuses to handle.
type Kind int

const (
	Internal Kind = iota
	Unsupported
)

func (k Kind) String() string {
	if k == Unsupported {
		return "unsupported"
	}
	return "internal"
}

// Context locates a failure within the overload set being processed
type Context struct {
	SetName string
	Arity   int
	// Candidates are the signatures of the offending members, if any
	Candidates []string
	// Position is the parameter position involved, or -1
	Position int
}

// At is a Context without a parameter position
func At(setName string, arity int, candidates ...string) Context {
	return Context{SetName: setName, Arity: arity, Candidates: candidates, Position: -1}
}

func (c Context) String() string {
	sb := &strings.Builder{}
	_, _ = fmt.Fprintf(sb, "%s/%d", c.SetName, c.Arity)
	if len(c.Candidates) > 0 {
		_, _ = fmt.Fprintf(sb, " [%s]", strings.Join(c.Candidates, ", "))
	}
	if c.Position >= 0 {
		_, _ = fmt.Fprintf(sb, " at parameter %d", c.Position)
	}
	return sb.String()
}

type Error interface {
	error
	Code() ErrCode
	Kind() Kind
	Where() Context

	withStack([]byte) Error
	getStack() []byte
}

func FormatWithCode(e Error) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			lines := strings.Split(stack, "\n")
			if len(lines) > 6 {
				stack = lines[6]
			}
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

// New attaches the current stack to err
func New[E Error](err E) Error {
	return err.withStack(debug.Stack())
}

type stackTrace struct {
	stack []byte
}

func (w stackTrace) getStack() []byte { return w.stack }

type NewArityMismatch struct {
	Context
	Expected, Found int
	stackTrace
}

func (e NewArityMismatch) Error() string {
	return fmt.Sprintf("overload set %v mixes arities: expected %d parameters, found %d", e.Context, e.Expected, e.Found)
}
func (e NewArityMismatch) Code() ErrCode  { return ArityMismatch }
func (e NewArityMismatch) Kind() Kind     { return Internal }
func (e NewArityMismatch) Where() Context { return e.Context }
func (e NewArityMismatch) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

type NewSpecificityCycle struct {
	Context
	stackTrace
}

func (e NewSpecificityCycle) Error() string {
	return fmt.Sprintf("specificity relation of %v is not a partial order: cycle through its members", e.Context)
}
func (e NewSpecificityCycle) Code() ErrCode  { return SpecificityCycle }
func (e NewSpecificityCycle) Kind() Kind     { return Internal }
func (e NewSpecificityCycle) Where() Context { return e.Context }
func (e NewSpecificityCycle) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

type NewDispatchExhausted struct {
	Context
	stackTrace
}

func (e NewDispatchExhausted) Error() string {
	return fmt.Sprintf("dispatch for %v has no candidate left to try", e.Context)
}
func (e NewDispatchExhausted) Code() ErrCode  { return DispatchExhausted }
func (e NewDispatchExhausted) Kind() Kind     { return Internal }
func (e NewDispatchExhausted) Where() Context { return e.Context }
func (e NewDispatchExhausted) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

type NewUninferableGeneric struct {
	Context
	StaticParam string
	Occurrences int
	stackTrace
}

func (e NewUninferableGeneric) Error() string {
	return fmt.Sprintf("cannot infer static parameter %s of %v: %d occurrences and none of them invariant", e.StaticParam, e.Context, e.Occurrences)
}
func (e NewUninferableGeneric) Code() ErrCode  { return UninferableGeneric }
func (e NewUninferableGeneric) Kind() Kind     { return Internal }
func (e NewUninferableGeneric) Where() Context { return e.Context }
func (e NewUninferableGeneric) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

type NewMissingStaticOccurrence struct {
	Context
	StaticParam string
	stackTrace
}

func (e NewMissingStaticOccurrence) Error() string {
	return fmt.Sprintf("static parameter %s of %v does not occur in any parameter type", e.StaticParam, e.Context)
}
func (e NewMissingStaticOccurrence) Code() ErrCode  { return MissingStaticOccurrence }
func (e NewMissingStaticOccurrence) Kind() Kind     { return Internal }
func (e NewMissingStaticOccurrence) Where() Context { return e.Context }
func (e NewMissingStaticOccurrence) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

type NewUnhandledTypeShape struct {
	Context
	Type string
	stackTrace
}

func (e NewUnhandledTypeShape) Error() string {
	return fmt.Sprintf("type %s in %v has no runtime test shape", e.Type, e.Context)
}
func (e NewUnhandledTypeShape) Code() ErrCode  { return UnhandledTypeShape }
func (e NewUnhandledTypeShape) Kind() Kind     { return Internal }
func (e NewUnhandledTypeShape) Where() Context { return e.Context }
func (e NewUnhandledTypeShape) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

type NewUnsupportedGenericMethod struct {
	Context
	Owner string
	stackTrace
}

func (e NewUnsupportedGenericMethod) Error() string {
	return fmt.Sprintf("overloaded generic methods of %s are not supported: %v", e.Owner, e.Context)
}
func (e NewUnsupportedGenericMethod) Code() ErrCode  { return UnsupportedGenericMethod }
func (e NewUnsupportedGenericMethod) Kind() Kind     { return Unsupported }
func (e NewUnsupportedGenericMethod) Where() Context { return e.Context }
func (e NewUnsupportedGenericMethod) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

type NewUnsupportedVarargs struct {
	Context
	stackTrace
}

func (e NewUnsupportedVarargs) Error() string {
	return fmt.Sprintf("varargs overloads must be disambiguated before dispatch: %v", e.Context)
}
func (e NewUnsupportedVarargs) Code() ErrCode  { return UnsupportedVarargs }
func (e NewUnsupportedVarargs) Kind() Kind     { return Unsupported }
func (e NewUnsupportedVarargs) Where() Context { return e.Context }
func (e NewUnsupportedVarargs) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

type NewDuplicateSignature struct {
	Context
	stackTrace
}

func (e NewDuplicateSignature) Error() string {
	return fmt.Sprintf("overload set %v declares the same member twice", e.Context)
}
func (e NewDuplicateSignature) Code() ErrCode  { return DuplicateSignature }
func (e NewDuplicateSignature) Kind() Kind     { return Internal }
func (e NewDuplicateSignature) Where() Context { return e.Context }
func (e NewDuplicateSignature) withStack(stack []byte) Error {
	e.stack = stack
	return e
}
