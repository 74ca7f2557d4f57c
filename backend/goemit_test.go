package backend

import (
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/cottand/ovld/dispatch"
	"github.com/cottand/ovld/drt/drtsym"
	"github.com/cottand/ovld/overload"
	"github.com/cottand/ovld/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/traefik/yaegi/interp"
)

func testHierarchy() *types.Hierarchy {
	h := types.NewHierarchy()
	h.Declare("Number")
	h.Declare("Integer", "Number")
	h.Declare("String")
	h.Declare("List")
	h.Declare("Shape")
	return h
}

func testOracle() overload.Oracle {
	return overload.NewHierarchyOracle(testHierarchy())
}

func fn(name string, statics []string, params ...string) *overload.TaggedFunction {
	vars := map[string]*types.Var{}
	var staticParams []*types.Var
	for _, s := range statics {
		v := &types.Var{Name: s}
		vars[s] = v
		staticParams = append(staticParams, v)
	}
	var ps []types.Type
	for _, p := range params {
		ps = append(ps, types.MustParse(p, vars))
	}
	decl := overload.NewFunction(name, types.Top{}, ps...)
	decl.StaticParams = staticParams
	return overload.Tag("m", decl)
}

func goSource(t *testing.T, goTypes map[string]string, members ...*overload.TaggedFunction) string {
	t.Helper()
	set, err := overload.NewOverloadSet(members[0].Name(), overload.Scope{Name: "m"}, members)
	require.NoError(t, err)
	em, err := NewGoEmitter("main", goTypes, testHierarchy())
	require.NoError(t, err)
	_, err = dispatch.NewPlanner(testOracle()).Generate(set, em)
	require.NoError(t, err)
	src, err := Format("dispatch.go", em.File())
	require.NoError(t, err)
	return string(src)
}

func eval(t *testing.T, src string) *interp.Interpreter {
	t.Helper()
	i := interp.New(interp.Options{})
	require.NoError(t, i.Use(drtsym.Symbols))
	_, err := i.Eval(src)
	if err != nil {
		slog.Warn("had errors while evaluating", "err", err.Error(), "body", src)
	}
	require.NoError(t, err)
	return i
}

func TestGoDispatchEvaluates(t *testing.T) {
	src := goSource(t, map[string]string{"Integer": "int", "String": "string"},
		fn("show", nil, "Any"),
		fn("show", nil, "Integer"),
		fn("show", nil, "String"),
	)
	assert.NotContains(t, src, "drt", "mapped types need no runtime")

	i := eval(t, src+`
func m_show_Integer(i int) any { return "integer" }
func m_show_String(s string) any { return "string " + s }
func m_show_Any(v any) any { return "any" }
`)
	tests := map[string]string{
		`show_1_module_m(3)`:    "integer",
		`show_1_module_m("hi")`: "string hi",
		`show_1_module_m(2.5)`:  "any",
	}
	for call, want := range tests {
		res, err := i.Eval(call)
		require.NoError(t, err, call)
		assert.Equal(t, want, fmt.Sprint(res.Interface()), call)
	}
}

func TestGoDispatchUsesRuntimeForGenerics(t *testing.T) {
	src := goSource(t, nil,
		fn("f", nil, "Any", "Any"),
		fn("f", []string{"T"}, "List[T]", "List[T]"),
	)
	assert.Contains(t, src, `import "github.com/cottand/ovld/drt"`)
	assert.Contains(t, src, `var ovlPattern0 = drt.P("List", drt.Covariant, 0, drt.V("Any", drt.Invariant, 1))`)
	assert.Contains(t, src, "func f_2_module_m(a0, a1 any) any {")
	assert.Contains(t, src, "var slots [4]*drt.Descriptor")
	assert.Contains(t, src, "if !drt.Match(a0, ovlPattern0, slots[:]) {")
	assert.Contains(t, src, "if !drt.SubtypeOf(slots[3], slots[1]) {")
	assert.Contains(t, src, "return m_f_List_T_List_T(a0, a1, slots[1])")
	assert.Contains(t, src, "return m_f_Any_Any(a0, a1)")
}

func TestGoDispatchFailure(t *testing.T) {
	src := goSource(t, map[string]string{"Integer": "int"},
		fn("f", nil, "Integer", "Integer"),
		fn("f", []string{"T"}, "List[T]", "List[T]"),
	)
	assert.Contains(t, src, `panic(drt.Fail("f/2", a0, a1))`)
	assert.Contains(t, src, "if _, ok := a0.(int); !ok {")
}

func TestGoMethodCall(t *testing.T) {
	shape := types.MustParse("Shape", nil)
	m1 := overload.Tag("geo", overload.NewMethod("Shape", overload.TraitMember, "scale", 0, shape, shape, types.MustParse("Integer", nil)))
	m2 := overload.Tag("geo", overload.NewMethod("Shape", overload.TraitMember, "scale", 0, shape, shape, types.MustParse("Number", nil)))
	src := goSource(t, map[string]string{"Integer": "int"}, m1, m2)

	assert.Contains(t, src, "return a0.(Shape).scale_Shape_Integer(a1.(int))")
	assert.Contains(t, src, "return a0.(Shape).scale_Shape_Number(a1)")
}

func TestGoEmitterLabeledBreak(t *testing.T) {
	em, err := NewGoEmitter("main", map[string]string{"Integer": "int"}, nil)
	require.NoError(t, err)
	node, err := dispatch.NewCompiler(testOracle()).Compile(types.MustParse("Integer", nil), types.Covariant, 0, nil)
	require.NoError(t, err)

	em.BeginRoutine("outer", overload.Scope{}, 1, 1)
	outer := em.NewLabel()
	inner := em.NewLabel()
	em.LoadArgument(0)
	em.InstanceOf(node, outer)
	em.LoadArgument(0)
	em.InstanceOf(node, inner)
	em.MarkLabel(inner)
	em.MarkLabel(outer)
	em.LoadArgument(0)
	em.Return()
	em.EndRoutine()

	src, err := Format("labels.go", em.File())
	require.NoError(t, err)
	assert.Contains(t, string(src), "L0:")
	assert.Contains(t, string(src), "break L0")
	assert.NotContains(t, string(src), "L1:")
}

func TestNewGoEmitterRejectsBadTypes(t *testing.T) {
	_, err := NewGoEmitter("main", map[string]string{"Integer": "map[int"}, nil)
	assert.Error(t, err)

	_, err = NewGoEmitter("main", map[string]string{"Number": "float64"}, testHierarchy())
	assert.ErrorContains(t, err, "Number is extended by other traits")
}

func TestGoDispatchDeclaresHierarchy(t *testing.T) {
	src := goSource(t, map[string]string{"Integer": "int", "String": "string"},
		fn("f", nil, "Any"),
		fn("f", nil, "Number"),
		fn("f", nil, "String"),
	)
	assert.Contains(t, src, `drt.Declare("Integer", "Number")`)
	assert.Contains(t, src, `drt.Bind("Integer", *new(int))`)
	assert.Contains(t, src, `drt.Bind("String", *new(string))`)

	i := eval(t, src+`
func m_f_Number(n any) any { return "number" }
func m_f_String(s string) any { return "string " + s }
func m_f_Any(v any) any { return "any" }
`)
	tests := []struct{ call, want string }{
		{`f_1_module_m(3)`, "number"},
		{`f_1_module_m(drt.Value{Type: drt.Named("Integer")})`, "number"},
		{`f_1_module_m("hi")`, "string hi"},
		{`f_1_module_m(2.5)`, "any"},
	}
	for _, tt := range tests {
		res, err := i.Eval(tt.call)
		require.NoError(t, err, tt.call)
		assert.Equal(t, tt.want, fmt.Sprint(res.Interface()), tt.call)
	}
}

func TestGoRoutineNamesCarryScope(t *testing.T) {
	oracle := testOracle()
	members := []*overload.TaggedFunction{fn("show", nil, "Number"), fn("show", nil, "Integer")}
	em, err := NewGoEmitter("main", nil, nil)
	require.NoError(t, err)
	for _, scope := range []overload.Scope{
		{Kind: overload.ModuleScope, Name: "m"},
		{Kind: overload.APIScope, Name: "pub"},
		{Kind: overload.OwnerScope, Name: "m"},
	} {
		set, err := overload.NewOverloadSet("show", scope, members)
		require.NoError(t, err)
		_, err = dispatch.NewPlanner(oracle).GenerateAll(set, em)
		require.NoError(t, err)
	}
	em.RoutineName = func(routine string, _ overload.Scope) string { return "clash" }
	set, err := overload.NewOverloadSet("show", overload.Scope{Name: "other"}, members)
	require.NoError(t, err)
	_, err = dispatch.NewPlanner(oracle).GenerateAll(set, em)
	require.NoError(t, err)
	set, err = overload.NewOverloadSet("show", overload.Scope{Name: "another"}, members)
	require.NoError(t, err)
	_, err = dispatch.NewPlanner(oracle).GenerateAll(set, em)
	require.NoError(t, err)

	src, err := Format("dispatch.go", em.File())
	require.NoError(t, err)
	for _, name := range []string{"show_1_module_m", "show_1_apis_pub", "show_1_owner_m", "clash", "clash_2"} {
		assert.Equal(t, 1, strings.Count(string(src), "func "+name+"(a0 any) any {"), name)
	}
}
