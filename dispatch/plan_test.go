package dispatch_test

import (
	"strings"
	"testing"

	"github.com/cottand/ovld/backend"
	"github.com/cottand/ovld/dispatch"
	"github.com/cottand/ovld/ovlerr"
	"github.com/cottand/ovld/overload"
	"github.com/cottand/ovld/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOracle() overload.Oracle {
	h := types.NewHierarchy()
	h.Declare("Number")
	h.Declare("Integer", "Number")
	h.Declare("Small", "Integer")
	h.Declare("String")
	h.Declare("List")
	h.Declare("Shape")
	return overload.NewHierarchyOracle(h)
}

// fn declares a top-level function of api m. Static parameters are named in statics and
// referenced by name in params.
func fn(name, ret string, statics []string, params ...string) *overload.TaggedFunction {
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
	decl := overload.NewFunction(name, types.MustParse(ret, vars), ps...)
	decl.StaticParams = staticParams
	return overload.Tag("m", decl)
}

func mustSet(t *testing.T, members ...*overload.TaggedFunction) *overload.OverloadSet {
	t.Helper()
	set, err := overload.NewOverloadSet(members[0].Name(), overload.Scope{Kind: overload.ModuleScope, Name: "m"}, members)
	require.NoError(t, err)
	return set
}

func generate(t *testing.T, set *overload.OverloadSet) (*dispatch.Plan, string) {
	t.Helper()
	listing := backend.NewListing()
	plan, err := dispatch.NewPlanner(testOracle()).Generate(set, listing)
	require.NoError(t, err)
	return plan, listing.String()
}

func listing(lines ...string) string {
	return strings.Join(lines, "\n")
}

func TestTwoOverloads(t *testing.T) {
	set := mustSet(t,
		fn("show", "String", nil, "Number"),
		fn("show", "String", nil, "Integer"),
	)
	_, got := generate(t, set)
	assert.Equal(t, listing(
		"routine show/1 arity=1 slots=1",
		"  load a0",
		"  instanceof Integer@0 else L0",
		"  load a0",
		"  cast Integer",
		"  call static m.show show(Integer) (Integer)String",
		"  return",
		"L0:",
		"  load a0",
		"  cast Number",
		"  call static m.show show(Number) (Number)String",
		"  return",
		"end",
	), got)
}

func TestIncomparableOverloads(t *testing.T) {
	set := mustSet(t,
		fn("show", "String", nil, "String"),
		fn("show", "String", nil, "Integer"),
		fn("show", "String", nil, "List"),
	)
	plan, got := generate(t, set)

	var members []string
	for _, c := range plan.Candidates {
		members = append(members, c.Function.Key())
	}
	assert.Equal(t, []string{"show(Integer)", "show(List)", "show(String)"}, members)
	assert.Equal(t, 2, strings.Count(got, "instanceof"))
	assert.True(t, strings.HasSuffix(got, listing(
		"L1:",
		"  load a0",
		"  cast String",
		"  call static m.show show(String) (String)String",
		"  return",
		"end",
	)), got)
}

func TestUntestedPositionsAreSkipped(t *testing.T) {
	set := mustSet(t,
		fn("pair", "String", nil, "Any", "Integer"),
		fn("pair", "String", nil, "Any", "Number"),
	)
	_, got := generate(t, set)
	assert.NotContains(t, got, "instanceof Any")
	assert.Contains(t, got, "  load a1\n  instanceof Integer@1 else L0")
}

func TestInvariantInference(t *testing.T) {
	generic := fn("f", "Any", []string{"T"}, "List[T]", "List[T]")
	set := mustSet(t, fn("f", "Any", nil, "Any", "Any"), generic)

	plan, got := generate(t, set)
	require.Len(t, plan.Candidates, 2)
	assert.Same(t, generic, plan.Candidates[0].Function)
	assert.Equal(t, []dispatch.Inference{{
		StaticParam: "T",
		Chosen:      1,
		Checks:      []dispatch.Check{{Kind: dispatch.CheckEqual, Slot: 3}},
	}}, plan.Candidates[0].Inferences)
	assert.True(t, plan.Candidates[0].CanFail())

	assert.Equal(t, listing(
		"routine f/2 arity=2 slots=4",
		"  load a0",
		"  instanceof List@0[=T<:Any@1] else L0",
		"  load a1",
		"  instanceof List@2[=T<:Any@3] else L0",
		"  descriptor @3",
		"  descriptor @1",
		"  subtype else L0",
		"  descriptor @1",
		"  descriptor @3",
		"  subtype else L0",
		"  load a0",
		"  cast List",
		"  load a1",
		"  cast List",
		"  descriptor @1",
		"  call static m.f f(List[T],List[T]) (List,List)Any +1",
		"  return",
		"L0:",
		"  load a0",
		"  cast Any",
		"  load a1",
		"  cast Any",
		"  call static m.f f(Any,Any) (Any,Any)Any",
		"  return",
		"end",
	), got)
}

func TestVarianceChecks(t *testing.T) {
	// T is pinned by the list, the plain argument must be below it and the function
	// argument must accept it
	generic := fn("g", "Any", []string{"T"}, "List[T]", "T", "(T) -> Any")
	set := mustSet(t, fn("g", "Any", nil, "Any", "Any", "Any"), generic)

	plan, _ := generate(t, set)
	assert.Equal(t, []dispatch.Check{
		{Kind: dispatch.CheckBelow, Slot: 2},
		{Kind: dispatch.CheckAbove, Slot: 4},
	}, plan.Candidates[0].Inferences[0].Checks)
	assert.True(t, plan.Candidates[0].InvariantGenerics.Contains("T"))
	assert.False(t, plan.Candidates[0].VariantGenerics.Contains("T"))
}

func TestSingleOccurrenceNeedsNoCheck(t *testing.T) {
	generic := fn("h", "Any", []string{"T"}, "List[T]")
	set := mustSet(t, fn("h", "Any", nil, "Any"), generic)

	plan, got := generate(t, set)
	assert.Equal(t, []dispatch.Inference{{StaticParam: "T", Chosen: 1}}, plan.Candidates[0].Inferences)
	assert.NotContains(t, got, "subtype")
}

func TestLastGenericCandidateCanFail(t *testing.T) {
	set := mustSet(t,
		fn("f", "Any", nil, "Integer", "Integer"),
		fn("f", "Any", []string{"T"}, "List[T]", "List[T]"),
	)
	plan, got := generate(t, set)
	require.Len(t, plan.Candidates, 2)
	assert.True(t, plan.Candidates[1].IsGeneric())
	assert.True(t, strings.HasSuffix(got, "  return\nL1:\n  fail f/2\nend"), got)
}

func TestBuildFailures(t *testing.T) {
	tests := []struct {
		name     string
		members  []*overload.TaggedFunction
		code     ovlerr.ErrCode
		position int
	}{
		{
			name: "covariant occurrences only",
			members: []*overload.TaggedFunction{
				fn("f", "Any", []string{"T"}, "T", "T"),
				fn("f", "Any", nil, "Integer", "Integer"),
			},
			code:     ovlerr.UninferableGeneric,
			position: -1,
		},
		{
			name: "static parameter not used by the parameters",
			members: []*overload.TaggedFunction{
				fn("f", "T", []string{"T"}, "Integer"),
				fn("f", "Any", nil, "Number"),
			},
			code:     ovlerr.MissingStaticOccurrence,
			position: -1,
		},
		{
			name: "union parameter",
			members: []*overload.TaggedFunction{
				fn("f", "Any", nil, "Integer", "Integer | String"),
				fn("f", "Any", nil, "Number", "Any"),
			},
			code:     ovlerr.UnhandledTypeShape,
			position: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listing := backend.NewListing()
			_, err := dispatch.NewPlanner(testOracle()).Generate(mustSet(t, tt.members...), listing)
			require.Error(t, err)
			e, ok := ovlerr.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, e.Code())
			assert.Equal(t, tt.position, e.Where().Position)
			assert.Empty(t, listing.Lines(), "nothing is emitted for a failing plan")
		})
	}
}

func TestGenerateAllEmitsSubsets(t *testing.T) {
	set := mustSet(t,
		fn("show", "String", nil, "Number"),
		fn("show", "String", nil, "Integer"),
		fn("show", "String", nil, "Small"),
		fn("show", "String", nil, "String"),
	)
	em := backend.NewListing()
	plans, err := dispatch.NewPlanner(testOracle()).GenerateAll(set, em)
	require.NoError(t, err)
	require.Len(t, plans, 2)

	var routines []string
	for _, line := range em.Lines() {
		if strings.HasPrefix(line, "routine ") {
			routines = append(routines, line)
		}
	}
	assert.Equal(t, []string{
		"routine show/1 arity=1 slots=1",
		"routine show(Number) arity=1 slots=1",
	}, routines)
	assert.Len(t, plans[1].Candidates, 3)
}

func TestMethodReceiverIsNotTested(t *testing.T) {
	shape := types.MustParse("Shape", nil)
	m1 := overload.Tag("geo", overload.NewMethod("Shape", overload.TraitMember, "scale", 0, shape, shape, types.MustParse("Integer", nil)))
	m2 := overload.Tag("geo", overload.NewMethod("Shape", overload.TraitMember, "scale", 0, shape, shape, types.MustParse("Number", nil)))
	set, err := overload.NewOverloadSet("scale", overload.Scope{Kind: overload.OwnerScope, Name: "Shape"}, []*overload.TaggedFunction{m1, m2})
	require.NoError(t, err)

	plan, got := generate(t, set)
	assert.Nil(t, plan.Candidates[0].Params[0])
	assert.NotContains(t, got, "load a0\n  instanceof")
	assert.Contains(t, got, "call interface Shape.scale scale(Shape,Integer) (Shape,Integer)Shape")
}
