package overload

import (
	"log/slog"
	"slices"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/ovld/internal/log"
	"github.com/cottand/ovld/ovlerr"
)

// SplitResult is the immutable outcome of splitting an overload set
type SplitResult struct {
	// Order lists the members from most to least specific
	Order []*TaggedFunction
	// Principal is the member dominated by every other member, or nil
	Principal *TaggedFunction
	// Subsets maps a member's Key to the overload subset it heads. The map is shared by
	// a set and every subset created while splitting it.
	Subsets *immutable.SortedMap[string, *OverloadSet]
}

// Subset returns the overload subset headed by the member with the given key
func (r *SplitResult) Subset(key string) (*OverloadSet, bool) {
	return r.Subsets.Get(key)
}

// SubsetList returns the overload subsets ordered by key
func (r *SplitResult) SubsetList() []*OverloadSet {
	res := make([]*OverloadSet, 0, r.Subsets.Len())
	itr := r.Subsets.Iterator()
	for !itr.Done() {
		_, s, _ := itr.Next()
		res = append(res, s)
	}
	return res
}

// Index returns the position of f in the specialization order, or -1
func (r *SplitResult) Index(f *TaggedFunction) int {
	return slices.Index(r.Order, f)
}

// splitContext is the single owner of the subset map while one tree of sets is split.
// Subsets are registered once per key and never removed.
type splitContext struct {
	oracle  Oracle
	subsets map[string]*OverloadSet
	results map[*OverloadSet]*SplitResult
	logger  *slog.Logger
}

// Split computes the specialization order, principal member and overload subsets of set,
// and of every subset found along the way. The results are stored on the sets.
//
// It is not reentrant: only one Split may run at a time over the same set or its subsets.
func Split(set *OverloadSet, oracle Oracle) (*SplitResult, error) {
	ctx := &splitContext{
		oracle:  oracle,
		subsets: make(map[string]*OverloadSet),
		results: make(map[*OverloadSet]*SplitResult),
		logger:  log.For(log.SectionOverload).With("set", set.RoutineName()),
	}
	if err := ctx.split(set); err != nil {
		return nil, err
	}

	builder := immutable.NewSortedMapBuilder[string, *OverloadSet](immutable.NewComparer(""))
	for key, sub := range ctx.subsets {
		builder.Set(key, sub)
	}
	shared := builder.Map()
	for s, res := range ctx.results {
		res.Subsets = shared
		s.result = res
	}
	ctx.logger.Debug("split done", "order", len(set.result.Order), "subsets", shared.Len(), "principal", set.result.Principal)
	return set.result, nil
}

func (ctx *splitContext) split(set *OverloadSet) error {
	members := set.members
	n := len(members)
	if n == 1 {
		ctx.results[set] = &SplitResult{Order: slices.Clone(members)}
		return nil
	}

	// moreSpecific[i] lists the members tried before members[i]
	moreSpecific := make([][]int, n)
	for i, f := range members {
		for j, g := range members {
			if i == j {
				continue
			}
			ok, err := AtLeastAsSpecific(ctx.oracle, f, g)
			if err != nil {
				return err
			}
			if ok {
				moreSpecific[i] = append(moreSpecific[i], j)
			}
		}
	}

	var principal *TaggedFunction
	var discovered []*OverloadSet
	for i, f := range members {
		count := len(moreSpecific[i])
		switch {
		case count == n-1:
			if principal != nil {
				return ovlerr.New(ovlerr.NewSpecificityCycle{Context: ovlerr.At(set.Name, set.Arity, principal.Key(), f.Key())})
			}
			principal = f
		case count > 1:
			key := f.Key()
			if _, ok := ctx.subsets[key]; ok {
				continue
			}
			subMembers := []*TaggedFunction{f}
			for _, j := range moreSpecific[i] {
				subMembers = append(subMembers, members[j])
			}
			SortFunctions(subMembers)
			sub := set.subset(f, subMembers)
			ctx.subsets[key] = sub
			discovered = append(discovered, sub)
			ctx.logger.Debug("found overload subset", "key", key, "members", len(subMembers))
		}
	}

	order, err := specializationOrder(set, moreSpecific)
	if err != nil {
		return err
	}

	for _, sub := range discovered {
		if err := ctx.split(sub); err != nil {
			return err
		}
	}
	ctx.results[set] = &SplitResult{Order: order, Principal: principal}
	return nil
}

type visitState int8

const (
	unvisited visitState = iota
	visiting
	visited
)

// specializationOrder sorts members so that every member comes after all members more
// specific than it. Depth-first from members in Compare order, so incomparable members
// keep that order.
func specializationOrder(set *OverloadSet, moreSpecific [][]int) ([]*TaggedFunction, error) {
	members := set.members
	state := make([]visitState, len(members))
	order := make([]*TaggedFunction, 0, len(members))

	var visit func(i int, path []int) error
	visit = func(i int, path []int) error {
		switch state[i] {
		case visited:
			return nil
		case visiting:
			cycleStart := slices.Index(path, i)
			var keys []string
			for _, j := range path[cycleStart:] {
				keys = append(keys, members[j].Key())
			}
			return ovlerr.New(ovlerr.NewSpecificityCycle{Context: ovlerr.At(set.Name, set.Arity, keys...)})
		}
		state[i] = visiting
		path = append(path, i)
		for _, j := range moreSpecific[i] {
			if err := visit(j, path); err != nil {
				return err
			}
		}
		state[i] = visited
		order = append(order, members[i])
		return nil
	}

	for i := range members {
		if err := visit(i, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// PrincipalMember finds the member dominated by every other member without splitting.
// Single-member sets have none. Two such members dominate each other, which is the
// SpecificityCycle Split reports.
func PrincipalMember(set *OverloadSet, oracle Oracle) (*TaggedFunction, error) {
	if res, ok := set.Result(); ok {
		return res.Principal, nil
	}
	if set.Len() < 2 {
		return nil, nil
	}
	var principal *TaggedFunction
	for _, f := range set.members {
		dominated := true
		for _, g := range set.members {
			if f == g {
				continue
			}
			ok, err := AtLeastAsSpecific(oracle, f, g)
			if err != nil {
				return nil, err
			}
			if !ok {
				dominated = false
				break
			}
		}
		if !dominated {
			continue
		}
		if principal != nil {
			return nil, ovlerr.New(ovlerr.NewSpecificityCycle{Context: ovlerr.At(set.Name, set.Arity, principal.Key(), f.Key())})
		}
		principal = f
	}
	return principal, nil
}
