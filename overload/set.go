package overload

import (
	"fmt"
	"slices"

	"github.com/cottand/ovld/ovlerr"
	"github.com/cottand/ovld/util/hset"
)

// OverloadSet is a group of same-named, same-arity declarations competing at call sites
// within one scope. Members are kept sorted by Compare.
//
// An OverloadSet is not safe for concurrent use: Split must not run twice at the same
// time on the same tree of sets.
type OverloadSet struct {
	Name  string
	Arity int
	Scope Scope
	// SubsetKey is empty for a whole overload set and the key of the principal member
	// for an overload subset
	SubsetKey string

	members []*TaggedFunction
	result  *SplitResult
}

// NewOverloadSet validates members and groups them. Members must all have the given arity
// (as produced by Partition); varargs members and overloaded generic methods are refused.
func NewOverloadSet(name string, scope Scope, members []*TaggedFunction) (*OverloadSet, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("overload set %s has no members", name)
	}
	arity := members[0].Arity()
	ctx := ovlerr.At(name, arity)
	seen := hset.Empty[*TaggedFunction](taggedHasher{})
	for _, f := range members {
		if f.Arity() != arity {
			return nil, ovlerr.New(ovlerr.NewArityMismatch{
				Context:  ovlerr.At(name, arity, members[0].Key(), f.Key()),
				Expected: arity,
				Found:    f.Arity(),
			})
		}
		if f.Decl.Varargs {
			ctx.Candidates = []string{f.Key()}
			return nil, ovlerr.New(ovlerr.NewUnsupportedVarargs{Context: ctx})
		}
		if seen.Contains(f) {
			ctx.Candidates = []string{f.String()}
			return nil, ovlerr.New(ovlerr.NewDuplicateSignature{Context: ctx})
		}
		seen.Add(f)
	}
	if len(members) > 1 {
		for _, f := range members {
			if f.Decl.OwnerKind != TopLevel && f.Decl.IsGeneric() {
				ctx.Candidates = []string{f.Key()}
				return nil, ovlerr.New(ovlerr.NewUnsupportedGenericMethod{Context: ctx, Owner: f.Decl.Owner})
			}
		}
	}

	sorted := slices.Clone(members)
	SortFunctions(sorted)
	return &OverloadSet{
		Name:    name,
		Arity:   arity,
		Scope:   scope,
		members: sorted,
	}, nil
}

// subset is the overload subset of s keyed by principal, with the given members
func (s *OverloadSet) subset(principal *TaggedFunction, members []*TaggedFunction) *OverloadSet {
	return &OverloadSet{
		Name:      s.Name,
		Arity:     s.Arity,
		Scope:     s.Scope,
		SubsetKey: principal.Key(),
		members:   members,
	}
}

func (s *OverloadSet) Members() []*TaggedFunction { return slices.Clone(s.members) }
func (s *OverloadSet) Len() int                   { return len(s.members) }

func (s *OverloadSet) Contains(f *TaggedFunction) bool {
	return slices.Contains(s.members, f)
}

// NeedsDispatch is false for single-member sets, whose calls pass straight through
func (s *OverloadSet) NeedsDispatch() bool { return len(s.members) > 1 }

// Target is how member f is called once chosen
func (s *OverloadSet) Target(f *TaggedFunction) CallTarget {
	owner := f.API
	if f.Decl.OwnerKind != TopLevel {
		owner = f.Decl.Owner
	}
	return CallTarget{
		Kind:   callKindFor(f.Decl.OwnerKind),
		Name:   f.Name(),
		Owner:  owner,
		Member: f.Key(),
		Self:   f.SelfIndex(),
	}
}

// RoutineName identifies the dispatch routine generated for s
func (s *OverloadSet) RoutineName() string {
	if s.SubsetKey == "" {
		return fmt.Sprintf("%s/%d", s.Name, s.Arity)
	}
	return s.SubsetKey
}

func (s *OverloadSet) Context() ovlerr.Context {
	return ovlerr.At(s.Name, s.Arity)
}

func (s *OverloadSet) String() string {
	return fmt.Sprintf("%s@%v (%d members)", s.RoutineName(), s.Scope, len(s.members))
}

// Split computes the specialization order, principal member and overload subsets of s
// once; later calls return the stored result.
func (s *OverloadSet) Split(oracle Oracle) (*SplitResult, error) {
	if s.result != nil {
		return s.result, nil
	}
	res, err := Split(s, oracle)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Result returns the stored split result, if Split already ran
func (s *OverloadSet) Result() (*SplitResult, bool) {
	return s.result, s.result != nil
}
