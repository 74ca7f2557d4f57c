package overload

import (
	"strings"

	"github.com/cottand/ovld/types"
	"github.com/cottand/ovld/util"
)

// Range is the externally visible return type of set. The principal member's return type
// wins when there is one; otherwise the returns are joined, and a join that is a union is
// widened to Any since callers cannot tell which member ran.
func Range(set *OverloadSet, oracle Oracle) (types.Type, error) {
	principal, err := PrincipalMember(set, oracle)
	if err != nil {
		return nil, err
	}
	if principal != nil {
		ret := principal.Return()
		if principal.Decl.IsGeneric() {
			ret = oracle.GroundBound(ret)
		}
		return ret, nil
	}
	if set.Len() == 1 {
		return set.members[0].Return(), nil
	}
	returns := make([]types.Type, 0, set.Len())
	for _, f := range set.members {
		returns = append(returns, f.Return())
	}
	joined := oracle.Join(returns)
	if types.IsUnion(joined) {
		return types.Top{}, nil
	}
	return joined, nil
}

// Domain is, per parameter position, the principal member's type or the join of every
// member's type at that position.
func Domain(set *OverloadSet, oracle Oracle) ([]types.Type, error) {
	principal, err := PrincipalMember(set, oracle)
	if err != nil {
		return nil, err
	}
	if principal != nil {
		return principal.Params(), nil
	}
	if set.Len() == 1 {
		return set.members[0].Params(), nil
	}
	res := make([]types.Type, set.Arity)
	for i := range res {
		column := make([]types.Type, 0, set.Len())
		for _, f := range set.members {
			column = append(column, f.Param(i))
		}
		res[i] = oracle.Join(column)
	}
	return res, nil
}

// Exceptions is the union (not the join) of every member's declared thrown types,
// ordered by name
func Exceptions(set *OverloadSet) []types.Type {
	byName := make(map[string]types.Type)
	var names []string
	for _, f := range set.members {
		var own []string
		for _, t := range f.Throws() {
			name := t.String()
			if _, ok := byName[name]; !ok {
				byName[name] = t
			}
			own = append(own, name)
		}
		names = util.UnionSorted(names, util.SortedSet(own))
	}
	res := make([]types.Type, len(names))
	for i, name := range names {
		res[i] = byName[name]
	}
	return res
}

// Signature is the erased call signature of set in runtime-representation form, like
// (Number,List)String. It does not require set to be split.
func Signature(set *OverloadSet, oracle Oracle) (string, error) {
	domain, err := Domain(set, oracle)
	if err != nil {
		return "", err
	}
	ret, err := Range(set, oracle)
	if err != nil {
		return "", err
	}
	sb := &strings.Builder{}
	sb.WriteString("(")
	for i, t := range domain {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(erasedRepr(t, oracle))
	}
	sb.WriteString(")")
	sb.WriteString(erasedRepr(ret, oracle))
	return sb.String(), nil
}

// erasedRepr has no runtime representation for unions and intersections, so they erase to Any
func erasedRepr(t types.Type, oracle Oracle) string {
	switch ground := oracle.GroundBound(t).(type) {
	case *types.Union, *types.Intersection:
		return types.AnyName
	default:
		return types.Repr(ground)
	}
}
