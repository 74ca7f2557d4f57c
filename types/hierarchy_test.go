package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numericHierarchy() *Hierarchy {
	h := NewHierarchy()
	h.Declare("Number")
	h.Declare("Integer", "Number")
	h.Declare("Float", "Number")
	h.Declare("String")
	h.Declare("List")
	return h
}

func TestParse(t *testing.T) {
	tVar := &Var{Name: "T"}
	vars := map[string]*Var{"T": tVar}
	testCases := []struct {
		src      string
		expected string
	}{
		{"Integer", "Integer"},
		{"List[T]", "List[T]"},
		{"(Integer, String)", "(Integer,String)"},
		{"(Integer, String) -> Number", "(Integer,String)->Number"},
		{"Integer -> Integer -> Integer", "(Integer)->(Integer)->Integer"},
		{"Integer | String", "(Integer|String)"},
		{"Integer & String", "(Integer&String)"},
		{"(Integer)", "Integer"},
		{"Any", "Any"},
		{"java.lang.Object", "java.lang.Object"},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			parsed, err := Parse(tc.src, vars)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, parsed.String())
		})
	}

	parsed := MustParse("List[T]", vars)
	assert.Same(t, tVar, parsed.(*Trait).Args[0])
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{"List[", "(Integer", "Integer ->", "", "Integer Integer"} {
		_, err := Parse(src, nil)
		assert.Error(t, err, "expected %q to fail", src)
	}
}

func TestSubtypeOf(t *testing.T) {
	h := numericHierarchy()
	vars := map[string]*Var{"T": {Name: "T", Bound: &Trait{Name: "Number"}}}
	p := func(s string) Type { return MustParse(s, vars) }

	testCases := []struct {
		sub, super string
		expected   bool
	}{
		{"Integer", "Number", true},
		{"Number", "Integer", false},
		{"Integer", "Any", true},
		{"Bottom", "String", true},
		{"(Integer, Integer)", "(Number, Number)", true},
		{"(Integer, String)", "(Number, Number)", false},
		{"Number -> Integer", "Integer -> Number", true},
		{"Integer -> Integer", "Number -> Number", false},
		{"List[Integer]", "List[Integer]", true},
		{"List[Integer]", "List[Number]", false},
		{"Integer", "Integer | String", true},
		{"Integer | Float", "Number", true},
		{"Integer | String", "Number", false},
		{"Integer & String", "String", true},
		{"Integer", "Number & Integer", true},
		{"T", "Number", true},
		{"T", "Integer", false},
	}
	for _, tc := range testCases {
		t.Run(tc.sub+" <: "+tc.super, func(t *testing.T) {
			assert.Equal(t, tc.expected, h.SubtypeOf(p(tc.sub), p(tc.super)))
		})
	}
}

func TestJoin(t *testing.T) {
	h := numericHierarchy()
	p := func(s string) Type { return MustParse(s, nil) }

	assert.Equal(t, "Number", h.Join([]Type{p("Integer"), p("Number")}).String())
	assert.Equal(t, "Number", h.Join([]Type{p("Integer"), p("Float")}).String())
	assert.Equal(t, "String", h.Join([]Type{p("String"), p("String")}).String())
	assert.Equal(t, "(Integer|String)", h.Join([]Type{p("Integer"), p("String")}).String())
	assert.True(t, IsUnion(h.Join([]Type{p("Integer"), p("String"), p("Float")})))
	assert.Equal(t, "Bottom", h.Join(nil).String())
}

func TestGroundBound(t *testing.T) {
	h := numericHierarchy()
	self := &Var{Name: "S"}
	self.Bound = &Trait{Name: "List", Args: []Type{self}}
	vars := map[string]*Var{
		"T": {Name: "T", Bound: &Trait{Name: "Number"}},
		"U": {Name: "U"},
		"S": self,
	}
	assert.Equal(t, "List[Number]", h.GroundBound(MustParse("List[T]", vars)).String())
	assert.Equal(t, "(Any)->Number", h.GroundBound(MustParse("U -> T", vars)).String())
	assert.Equal(t, "List[Any]", h.GroundBound(MustParse("S", vars)).String())
}

func TestVarianceCompose(t *testing.T) {
	assert.Equal(t, Contravariant, Covariant.Flip())
	assert.Equal(t, Covariant, Contravariant.Compose(Contravariant))
	assert.Equal(t, Invariant, Invariant.Compose(Contravariant))
	assert.Equal(t, Invariant, Covariant.Compose(Invariant))
	assert.Equal(t, "contravariant", Contravariant.String())
}

func TestHierarchyListing(t *testing.T) {
	h := numericHierarchy()
	assert.Equal(t, []string{"Float", "Integer", "List", "Number", "String"}, h.Names())
	assert.Equal(t, []string{"Number"}, h.Parents("Integer"))
	assert.Empty(t, h.Parents("Number"))

	assert.True(t, h.HasSubtypes("Number"))
	assert.False(t, h.HasSubtypes("Integer"))
	assert.False(t, h.HasSubtypes("Missing"))
}
