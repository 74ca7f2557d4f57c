package overload

import (
	"github.com/cottand/ovld/ovlerr"
	"github.com/cottand/ovld/types"
)

// Oracle answers the subtyping questions the dispatch engine does not decide itself.
// It is owned by the type checker.
type Oracle interface {
	// LessEq reports whether every call site statically applicable to lower is also
	// applicable to upper. It must be a preorder over any fixed-arity overload set.
	LessEq(lower, upper *TaggedFunction) bool
	// Join returns an upper bound of ts, possibly a union
	Join(ts []types.Type) types.Type
	// GroundBound erases static-parameter-dependent detail to a ground supertype
	GroundBound(t types.Type) types.Type
}

// HierarchyOracle answers with a types.Hierarchy
type HierarchyOracle struct {
	*types.Hierarchy
}

func NewHierarchyOracle(h *types.Hierarchy) HierarchyOracle {
	return HierarchyOracle{Hierarchy: h}
}

func (o HierarchyOracle) LessEq(lower, upper *TaggedFunction) bool {
	return o.LessEqParams(lower.Params(), upper.Params())
}

// AtLeastAsSpecific reports whether g's parameter list is more specific than or equal to f's:
// any argument list accepted by g also satisfies f's parameter types.
//
// f and g must have the same arity; anything else means the partitioning upstream is broken.
func AtLeastAsSpecific(oracle Oracle, f, g *TaggedFunction) (bool, error) {
	if f.Arity() != g.Arity() {
		return false, ovlerr.New(ovlerr.NewArityMismatch{
			Context:  ovlerr.At(f.Name(), f.Arity(), f.Key(), g.Key()),
			Expected: f.Arity(),
			Found:    g.Arity(),
		})
	}
	return oracle.LessEq(g, f), nil
}
