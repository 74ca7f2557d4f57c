package overload

import (
	"cmp"
	"hash/fnv"
	"slices"
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/ovld/types"
)

// TaggedFunction is a declaration together with the API or module it is visible from.
// It is immutable once constructed.
type TaggedFunction struct {
	API  string
	Decl *Declaration
}

func Tag(api string, decl *Declaration) *TaggedFunction {
	return &TaggedFunction{API: api, Decl: decl}
}

func (f *TaggedFunction) Name() string { return f.Decl.Name }
func (f *TaggedFunction) Arity() int   { return len(f.Decl.Params) }

func (f *TaggedFunction) Params() []types.Type {
	res := make([]types.Type, len(f.Decl.Params))
	for i, p := range f.Decl.Params {
		res[i] = p.Type
	}
	return res
}

func (f *TaggedFunction) Param(i int) types.Type { return f.Decl.Params[i].Type }

func (f *TaggedFunction) Return() types.Type {
	if f.Decl.Return == nil {
		return types.Top{}
	}
	return f.Decl.Return
}

func (f *TaggedFunction) Throws() []types.Type        { return f.Decl.Throws }
func (f *TaggedFunction) StaticParams() []*types.Var { return f.Decl.StaticParams }
func (f *TaggedFunction) SelfIndex() int             { return f.Decl.SelfIndex }

// Key is the signature-mangled name, like f(List[Integer],String).
// It identifies a member within one overload set.
func (f *TaggedFunction) Key() string {
	return f.Name() + "(" + strings.Join(types.Names(f.Params()), ",") + ")"
}

func (f *TaggedFunction) String() string {
	s := f.Key() + "->" + f.Return().String()
	if f.API != "" {
		s = f.API + "." + s
	}
	return s
}

// Compare is the total order used for deterministic tie-breaking: undecorated name,
// then declaring API, then the parameter types by shape and text.
// It says nothing about specificity.
func Compare(a, b *TaggedFunction) int {
	if c := cmp.Compare(a.Name(), b.Name()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.API, b.API); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Arity(), b.Arity()); c != 0 {
		return c
	}
	for i := range a.Decl.Params {
		if c := compareTypes(a.Param(i), b.Param(i)); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.Return().String(), b.Return().String())
}

func compareTypes(a, b types.Type) int {
	if c := cmp.Compare(shapeRank(a), shapeRank(b)); c != 0 {
		return c
	}
	return cmp.Compare(a.String(), b.String())
}

func shapeRank(t types.Type) int {
	switch t.(type) {
	case types.Bottom:
		return 0
	case *types.Trait:
		return 1
	case *types.Var:
		return 2
	case *types.Tuple:
		return 3
	case *types.Arrow:
		return 4
	case *types.Intersection:
		return 5
	case *types.Union:
		return 6
	default:
		return 7
	}
}

// SortFunctions orders fs by Compare in place
func SortFunctions(fs []*TaggedFunction) {
	slices.SortFunc(fs, Compare)
}

var _ immutable.Hasher[*TaggedFunction] = taggedHasher{}

// taggedHasher identifies tagged functions by declaring API and declaration
type taggedHasher struct{}

func (taggedHasher) Hash(f *TaggedFunction) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(f.API))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(f.Key()))
	return h.Sum32()
}

func (taggedHasher) Equal(a, b *TaggedFunction) bool {
	return a.API == b.API && a.Decl == b.Decl
}
