package backend

import (
	"fmt"
	goast "go/ast"
	"go/parser"
	"go/token"
	"log/slog"
	"maps"
	"slices"
	"strconv"

	"github.com/cottand/ovld/dispatch"
	"github.com/cottand/ovld/internal/log"
	"github.com/cottand/ovld/overload"
	"github.com/cottand/ovld/types"
	"github.com/cottand/ovld/util"
)

const DefaultRuntimeImport = "github.com/cottand/ovld/drt"

// runtimePkg is the name generated code refers to the runtime import by
const runtimePkg = "drt"

var _ dispatch.Emitter = (*GoEmitter)(nil)

// GoEmitter builds dispatch routines as Go functions taking and returning any.
//
// Every candidate but the last is wrapped in a switch with only a default case, so that a
// failed test is a break out of it. Arguments whose runtime representation is mapped to a Go
// type are tested and converted with type assertions; everything else goes through the
// runtime's structural matching, against the hierarchy the file declares in its init.
type GoEmitter struct {
	pkg           string
	runtimeImport string
	goTypes       map[string]goast.Expr
	hierarchy     *types.Hierarchy

	// TargetName names the Go function or method called for a chosen member
	TargetName func(overload.CallTarget) string
	// RoutineName names the Go function of a dispatch routine
	RoutineName func(routine string, scope overload.Scope) string

	decls       []goast.Decl
	patterns    int
	usesRuntime bool
	// routineNames are the Go names given to routines so far
	routineNames map[string]string

	// state of the routine being emitted
	routine   string
	goName    string
	arity     int
	slots     int
	usesSlots bool
	blocks    []*goBlock
	stack     util.Stack[goast.Expr]
	labels    int

	logger *slog.Logger
}

// goBlock collects the statements of one candidate, which a jump to label leaves
type goBlock struct {
	label dispatch.Label
	stmts []goast.Stmt
	// labeled is set when an inner block jumps out of this one
	labeled bool
}

// NewGoEmitter emits into package pkg. goTypes maps runtime representation names to Go
// type expressions, like Integer -> int. A value of a mapped Go type is taken to be of
// exactly that trait, so traits that others in h extend cannot be mapped.
//
// h is the hierarchy the generated file declares to the runtime; nil declares nothing.
func NewGoEmitter(pkg string, goTypes map[string]string, h *types.Hierarchy) (*GoEmitter, error) {
	if h == nil {
		h = types.NewHierarchy()
	}
	e := &GoEmitter{
		pkg:           pkg,
		runtimeImport: DefaultRuntimeImport,
		goTypes:       make(map[string]goast.Expr, len(goTypes)),
		hierarchy:     h,
		TargetName:    DefaultTargetName,
		RoutineName:   DefaultRoutineName,
		routineNames:  make(map[string]string),
		logger:        log.For(log.SectionBackend),
	}
	for _, repr := range slices.Sorted(maps.Keys(goTypes)) {
		if h.HasSubtypes(repr) {
			return nil, fmt.Errorf("go type for %s: %s is extended by other traits, only leaves can be mapped", repr, repr)
		}
		expr, err := parser.ParseExpr(goTypes[repr])
		if err != nil {
			return nil, fmt.Errorf("go type for %s: %w", repr, err)
		}
		e.goTypes[repr] = expr
	}
	return e, nil
}

// WithRuntimeImport makes generated code import the runtime from path
func (e *GoEmitter) WithRuntimeImport(path string) *GoEmitter {
	if path != "" {
		e.runtimeImport = path
	}
	return e
}

// DefaultTargetName prefixes top-level functions with their owner, so that same-named
// members of different APIs do not collide
func DefaultTargetName(target overload.CallTarget) string {
	if target.Kind == overload.StaticFunction && target.Owner != "" {
		return util.MangledIdentFrom(target.Owner + "." + target.Member)
	}
	return util.MangledIdentFrom(target.Member)
}

// DefaultRoutineName suffixes the routine with its scope, so that the routines of one
// overload name in a module, an API and an owner can live in the same package
func DefaultRoutineName(routine string, scope overload.Scope) string {
	return util.MangledIdentFrom(routine + "@" + scope.String())
}

// uniqueName is RoutineName, numbered when two routines mangle to the same identifier
func (e *GoEmitter) uniqueName(routine string, scope overload.Scope) string {
	key := routine + "@" + scope.String()
	base := e.RoutineName(routine, scope)
	name := base
	for n := 2; ; n++ {
		owner, taken := e.routineNames[name]
		if !taken || owner == key {
			break
		}
		name = base + "_" + strconv.Itoa(n)
	}
	if name != base {
		e.logger.Warn("routine name already taken, numbering it", "routine", key, "name", name)
	}
	e.routineNames[name] = key
	return name
}

func (e *GoEmitter) runtime(name string) goast.Expr {
	e.usesRuntime = true
	return &goast.SelectorExpr{X: goast.NewIdent(runtimePkg), Sel: goast.NewIdent(name)}
}

func (e *GoEmitter) push(expr goast.Expr) { e.stack.Push(expr) }

func (e *GoEmitter) pop() goast.Expr {
	expr, ok := e.stack.Pop()
	if !ok {
		panic(fmt.Sprintf("backend: empty value stack in routine %s", e.routine))
	}
	return expr
}

func (e *GoEmitter) add(stmt goast.Stmt) {
	b := e.blocks[len(e.blocks)-1]
	b.stmts = append(b.stmts, stmt)
}

func labelIdent(l dispatch.Label) *goast.Ident {
	return goast.NewIdent("L" + strconv.Itoa(int(l)))
}

// breakTo leaves the block of l, which must be open
func (e *GoEmitter) breakTo(l dispatch.Label) goast.Stmt {
	if e.blocks[len(e.blocks)-1].label == l {
		return &goast.BranchStmt{Tok: token.BREAK}
	}
	for _, b := range e.blocks {
		if b.label == l {
			b.labeled = true
			return &goast.BranchStmt{Tok: token.BREAK, Label: labelIdent(l)}
		}
	}
	panic(fmt.Sprintf("backend: jump to label L%d which is not open in routine %s", l, e.routine))
}

func (e *GoEmitter) unless(cond goast.Expr, onFail dispatch.Label) {
	e.add(&goast.IfStmt{
		Cond: &goast.UnaryExpr{Op: token.NOT, X: cond},
		Body: &goast.BlockStmt{List: []goast.Stmt{e.breakTo(onFail)}},
	})
}

func (e *GoEmitter) slotsExpr() goast.Expr {
	if e.slots == 0 {
		return goast.NewIdent("nil")
	}
	e.usesSlots = true
	return &goast.SliceExpr{X: goast.NewIdent("slots")}
}

func (e *GoEmitter) BeginRoutine(name string, scope overload.Scope, arity int, slots int) {
	e.routine = name
	e.goName = e.uniqueName(name, scope)
	e.arity = arity
	e.slots = slots
	e.usesSlots = false
	e.labels = 0
	e.stack = util.Stack[goast.Expr]{}
	e.blocks = []*goBlock{{label: -1}}
}

func (e *GoEmitter) EndRoutine() {
	if len(e.blocks) != 1 {
		panic(fmt.Sprintf("backend: routine %s ended with %d open labels", e.routine, len(e.blocks)-1))
	}
	body := e.blocks[0].stmts
	if e.usesSlots {
		slotsDecl := &goast.DeclStmt{Decl: &goast.GenDecl{
			Tok: token.VAR,
			Specs: []goast.Spec{&goast.ValueSpec{
				Names: []*goast.Ident{goast.NewIdent("slots")},
				Type: &goast.ArrayType{
					Len: &goast.BasicLit{Kind: token.INT, Value: strconv.Itoa(e.slots)},
					Elt: &goast.StarExpr{X: e.runtime("Descriptor")},
				},
			}},
		}}
		body = append([]goast.Stmt{slotsDecl}, body...)
	}

	var params []*goast.Field
	if e.arity > 0 {
		names := make([]*goast.Ident, e.arity)
		for i := range names {
			names[i] = argIdent(i)
		}
		params = []*goast.Field{{Names: names, Type: goast.NewIdent("any")}}
	}
	e.decls = append(e.decls, &goast.FuncDecl{
		Name: goast.NewIdent(e.goName),
		Type: &goast.FuncType{
			Params:  &goast.FieldList{List: params},
			Results: &goast.FieldList{List: []*goast.Field{{Type: goast.NewIdent("any")}}},
		},
		Body: &goast.BlockStmt{List: body},
	})
	e.logger.Debug("emitted go routine", "routine", e.routine, "name", e.goName, "statements", len(body))
}

func argIdent(i int) *goast.Ident { return goast.NewIdent("a" + strconv.Itoa(i)) }

func (e *GoEmitter) NewLabel() dispatch.Label {
	l := dispatch.Label(e.labels)
	e.labels++
	e.blocks = append(e.blocks, &goBlock{label: l})
	return l
}

func (e *GoEmitter) MarkLabel(l dispatch.Label) {
	b := e.blocks[len(e.blocks)-1]
	if b.label != l {
		panic(fmt.Sprintf("backend: label L%d marked while L%d is open in routine %s", l, b.label, e.routine))
	}
	e.blocks = e.blocks[:len(e.blocks)-1]
	var stmt goast.Stmt = &goast.SwitchStmt{Body: &goast.BlockStmt{List: []goast.Stmt{
		&goast.CaseClause{Body: b.stmts},
	}}}
	if b.labeled {
		stmt = &goast.LabeledStmt{Label: labelIdent(l), Stmt: stmt}
	}
	e.add(stmt)
}

func (e *GoEmitter) LoadArgument(i int) { e.push(argIdent(i)) }

func (e *GoEmitter) InstanceOf(node *dispatch.TypeStructure, onFail dispatch.Label) {
	value := e.pop()
	if goType, ok := e.goTypes[node.Repr]; ok && node.IsLeaf() && node.Var == "" && node.Variance == types.Covariant {
		e.add(&goast.IfStmt{
			Init: &goast.AssignStmt{
				Lhs: []goast.Expr{goast.NewIdent("_"), goast.NewIdent("ok")},
				Tok: token.DEFINE,
				Rhs: []goast.Expr{&goast.TypeAssertExpr{X: value, Type: goType}},
			},
			Cond: &goast.UnaryExpr{Op: token.NOT, X: goast.NewIdent("ok")},
			Body: &goast.BlockStmt{List: []goast.Stmt{e.breakTo(onFail)}},
		})
		return
	}
	pattern := e.declarePattern(node)
	e.unless(&goast.CallExpr{
		Fun:  e.runtime("Match"),
		Args: []goast.Expr{value, pattern, e.slotsExpr()},
	}, onFail)
}

// declarePattern adds a package-level variable holding the runtime pattern of node
func (e *GoEmitter) declarePattern(node *dispatch.TypeStructure) goast.Expr {
	name := goast.NewIdent("ovlPattern" + strconv.Itoa(e.patterns))
	e.patterns++
	e.decls = append(e.decls, &goast.GenDecl{
		Tok: token.VAR,
		Specs: []goast.Spec{&goast.ValueSpec{
			Names:  []*goast.Ident{name},
			Values: []goast.Expr{e.patternExpr(node)},
		}},
	})
	return goast.NewIdent(name.Name)
}

func (e *GoEmitter) patternExpr(node *dispatch.TypeStructure) goast.Expr {
	args := []goast.Expr{
		&goast.BasicLit{Kind: token.STRING, Value: strconv.Quote(node.Repr)},
		e.varianceExpr(node.Variance),
		&goast.BasicLit{Kind: token.INT, Value: strconv.Itoa(int(node.Slot))},
	}
	if node.Var != "" {
		return &goast.CallExpr{Fun: e.runtime("V"), Args: args}
	}
	for _, child := range node.Children {
		args = append(args, e.patternExpr(child))
	}
	return &goast.CallExpr{Fun: e.runtime("P"), Args: args}
}

func (e *GoEmitter) varianceExpr(v types.Variance) goast.Expr {
	switch v {
	case types.Contravariant:
		return e.runtime("Contravariant")
	case types.Invariant:
		return e.runtime("Invariant")
	default:
		return e.runtime("Covariant")
	}
}

func (e *GoEmitter) Cast(repr string) {
	if goType, ok := e.goTypes[repr]; ok {
		e.push(&goast.TypeAssertExpr{X: e.pop(), Type: goType})
	}
}

func (e *GoEmitter) LoadGenericDescriptor(slot uint16) {
	e.usesSlots = true
	e.push(&goast.IndexExpr{
		X:     goast.NewIdent("slots"),
		Index: &goast.BasicLit{Kind: token.INT, Value: strconv.Itoa(int(slot))},
	})
}

func (e *GoEmitter) RuntimeSubtypeCheck(onFail dispatch.Label) {
	b := e.pop()
	a := e.pop()
	e.unless(&goast.CallExpr{Fun: e.runtime("SubtypeOf"), Args: []goast.Expr{a, b}}, onFail)
}

func (e *GoEmitter) Call(target overload.CallTarget, signature string, staticArgs int) {
	args := make([]goast.Expr, e.arity+staticArgs)
	for i := len(args) - 1; i >= 0; i-- {
		args[i] = e.pop()
	}
	if target.Kind == overload.StaticFunction || target.Self < 0 || target.Self >= e.arity {
		e.push(&goast.CallExpr{Fun: goast.NewIdent(e.TargetName(target)), Args: args})
		return
	}
	receiver := args[target.Self]
	if _, ok := receiver.(*goast.TypeAssertExpr); !ok {
		receiver = &goast.TypeAssertExpr{X: receiver, Type: e.ownerType(target.Owner)}
	}
	e.push(&goast.CallExpr{
		Fun:  &goast.SelectorExpr{X: receiver, Sel: goast.NewIdent(e.TargetName(target))},
		Args: slices.Delete(args, target.Self, target.Self+1),
	})
}

func (e *GoEmitter) ownerType(owner string) goast.Expr {
	if goType, ok := e.goTypes[owner]; ok {
		return goType
	}
	return goast.NewIdent(util.MangledIdentFrom(owner))
}

func (e *GoEmitter) Return() {
	e.add(&goast.ReturnStmt{Results: []goast.Expr{e.pop()}})
}

func (e *GoEmitter) RaiseDispatchFailure(routine string) {
	args := []goast.Expr{&goast.BasicLit{Kind: token.STRING, Value: strconv.Quote(routine)}}
	for i := range e.arity {
		args = append(args, argIdent(i))
	}
	e.add(&goast.ExprStmt{X: &goast.CallExpr{
		Fun:  goast.NewIdent("panic"),
		Args: []goast.Expr{&goast.CallExpr{Fun: e.runtime("Fail"), Args: args}},
	}})
}

// runtimeInit declares the trait hierarchy and the mapped Go types to the runtime, which
// Match and SubtypeOf consult when a value is of a subtype of the trait tested
func (e *GoEmitter) runtimeInit() *goast.FuncDecl {
	var body []goast.Stmt
	call := func(fn string, args ...goast.Expr) {
		body = append(body, &goast.ExprStmt{X: &goast.CallExpr{Fun: e.runtime(fn), Args: args}})
	}
	quote := func(s string) goast.Expr {
		return &goast.BasicLit{Kind: token.STRING, Value: strconv.Quote(s)}
	}
	for _, name := range e.hierarchy.Names() {
		parents := e.hierarchy.Parents(name)
		if len(parents) == 0 {
			continue
		}
		args := []goast.Expr{quote(name)}
		for _, p := range parents {
			args = append(args, quote(p))
		}
		call("Declare", args...)
	}
	for _, repr := range slices.Sorted(maps.Keys(e.goTypes)) {
		// *new(T) is the zero value of any T
		zero := &goast.StarExpr{X: &goast.CallExpr{Fun: goast.NewIdent("new"), Args: []goast.Expr{e.goTypes[repr]}}}
		call("Bind", quote(repr), zero)
	}
	if len(body) == 0 {
		return nil
	}
	return &goast.FuncDecl{
		Name: goast.NewIdent("init"),
		Type: &goast.FuncType{Params: &goast.FieldList{}},
		Body: &goast.BlockStmt{List: body},
	}
}

// File returns every routine emitted so far as one Go file. When the routines use the
// runtime, the file also declares the hierarchy to it in an init function.
func (e *GoEmitter) File() *goast.File {
	var decls []goast.Decl
	if e.usesRuntime {
		decls = append(decls, &goast.GenDecl{
			Tok: token.IMPORT,
			Specs: []goast.Spec{&goast.ImportSpec{
				Path: &goast.BasicLit{Kind: token.STRING, Value: strconv.Quote(e.runtimeImport)},
			}},
		})
		if init := e.runtimeInit(); init != nil {
			decls = append(decls, init)
		}
	}
	decls = append(decls, e.decls...)
	return &goast.File{
		Name:  goast.NewIdent(e.pkg),
		Decls: decls,
	}
}
