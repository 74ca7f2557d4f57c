package types

import (
	"slices"
)

// Hierarchy is a nominal trait lattice with the structural subtyping rules needed
// to answer applicability questions. It is the reference oracle used by the
// driver and by tests; a full type checker can stand in for it.
//
// Static arguments of traits are compared invariantly.
type Hierarchy struct {
	parents map[string][]string
}

func NewHierarchy() *Hierarchy {
	return &Hierarchy{parents: make(map[string][]string)}
}

// Declare records name as a trait extending parents.
// Declaring the same name twice adds to its parents.
func (h *Hierarchy) Declare(name string, parents ...string) {
	existing := h.parents[name]
	for _, p := range parents {
		if !slices.Contains(existing, p) {
			existing = append(existing, p)
		}
	}
	h.parents[name] = existing
}

func (h *Hierarchy) Known(name string) bool {
	_, ok := h.parents[name]
	return ok
}

// Names returns every declared trait, sorted
func (h *Hierarchy) Names() []string {
	res := make([]string, 0, len(h.parents))
	for n := range h.parents {
		res = append(res, n)
	}
	slices.Sort(res)
	return res
}

// Parents returns the traits name directly extends, in declaration order
func (h *Hierarchy) Parents(name string) []string {
	return slices.Clone(h.parents[name])
}

// HasSubtypes reports whether some other declared trait extends name
func (h *Hierarchy) HasSubtypes(name string) bool {
	for n, parents := range h.parents {
		if n != name && slices.Contains(parents, name) {
			return true
		}
	}
	return false
}

// Ancestors returns name and every trait it transitively extends, sorted
func (h *Hierarchy) Ancestors(name string) []string {
	seen := map[string]struct{}{}
	var visit func(n string)
	visit = func(n string) {
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		for _, p := range h.parents[n] {
			visit(p)
		}
	}
	visit(name)
	res := make([]string, 0, len(seen))
	for n := range seen {
		res = append(res, n)
	}
	slices.Sort(res)
	return res
}

func (h *Hierarchy) extends(sub, super string) bool {
	if sub == super {
		return true
	}
	_, found := slices.BinarySearch(h.Ancestors(sub), super)
	return found
}

// SubtypeOf reports whether a <: b
func (h *Hierarchy) SubtypeOf(a, b Type) bool {
	if Equal(a, b) {
		return true
	}
	if _, ok := a.(Bottom); ok {
		return true
	}
	if _, ok := b.(Top); ok {
		return true
	}
	if u, ok := a.(*Union); ok {
		for _, e := range u.Elems {
			if !h.SubtypeOf(e, b) {
				return false
			}
		}
		return true
	}
	if i, ok := b.(*Intersection); ok {
		for _, e := range i.Elems {
			if !h.SubtypeOf(a, e) {
				return false
			}
		}
		return true
	}
	if u, ok := b.(*Union); ok {
		for _, e := range u.Elems {
			if h.SubtypeOf(a, e) {
				return true
			}
		}
		return false
	}
	if i, ok := a.(*Intersection); ok {
		for _, e := range i.Elems {
			if h.SubtypeOf(e, b) {
				return true
			}
		}
		return false
	}
	if v, ok := a.(*Var); ok {
		return h.SubtypeOf(v.UpperBound(), b)
	}

	switch a := a.(type) {
	case *Trait:
		b, ok := b.(*Trait)
		if !ok {
			return false
		}
		if a.Name == b.Name {
			return len(a.Args) == len(b.Args) && slices.EqualFunc(a.Args, b.Args, Equal)
		}
		return len(b.Args) == 0 && h.extends(a.Name, b.Name)
	case *Tuple:
		b, ok := b.(*Tuple)
		if !ok || len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !h.SubtypeOf(a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return true
	case *Arrow:
		b, ok := b.(*Arrow)
		if !ok || len(a.Domain) != len(b.Domain) {
			return false
		}
		for i := range a.Domain {
			if !h.SubtypeOf(b.Domain[i], a.Domain[i]) {
				return false
			}
		}
		return h.SubtypeOf(a.Range, b.Range)
	}
	return false
}

// LessEqParams reports whether every argument list applicable to lower is applicable
// to upper, with static parameters replaced by their bounds.
func (h *Hierarchy) LessEqParams(lower, upper []Type) bool {
	if len(lower) != len(upper) {
		return false
	}
	for i := range lower {
		if !h.SubtypeOf(h.GroundBound(lower[i]), h.GroundBound(upper[i])) {
			return false
		}
	}
	return true
}

// Join returns an upper bound of ts: the least common nominal ancestor when there is exactly
// one, otherwise a union.
func (h *Hierarchy) Join(ts []Type) Type {
	if len(ts) == 0 {
		return Bottom{}
	}
	res := ts[0]
	for _, t := range ts[1:] {
		res = h.join2(res, t)
	}
	return res
}

func (h *Hierarchy) join2(a, b Type) Type {
	if h.SubtypeOf(a, b) {
		return b
	}
	if h.SubtypeOf(b, a) {
		return a
	}
	ta, okA := a.(*Trait)
	tb, okB := b.(*Trait)
	if okA && okB && len(ta.Args) == 0 && len(tb.Args) == 0 {
		if lca, ok := h.leastCommonAncestor(ta.Name, tb.Name); ok {
			return &Trait{Name: lca}
		}
	}
	var elems []Type
	if u, ok := a.(*Union); ok {
		elems = append(elems, u.Elems...)
	} else {
		elems = append(elems, a)
	}
	return &Union{Elems: append(elems, b)}
}

func (h *Hierarchy) leastCommonAncestor(a, b string) (string, bool) {
	var common []string
	ancestorsB := h.Ancestors(b)
	for _, anc := range h.Ancestors(a) {
		if _, ok := slices.BinarySearch(ancestorsB, anc); ok {
			common = append(common, anc)
		}
	}
	var minimal []string
	for _, c := range common {
		dominated := false
		for _, other := range common {
			if other != c && h.extends(other, c) {
				dominated = true
				break
			}
		}
		if !dominated {
			minimal = append(minimal, c)
		}
	}
	if len(minimal) != 1 {
		return "", false
	}
	return minimal[0], true
}

// GroundBound replaces every static parameter reference in t with its ground upper bound
func (h *Hierarchy) GroundBound(t Type) Type {
	return groundBound(t, map[string]bool{})
}

// groundBound stops at self-referential bounds like T extends Comparable[T], which erase to Any
func groundBound(t Type, visiting map[string]bool) Type {
	return Map(t, func(t Type) Type {
		v, ok := t.(*Var)
		if !ok {
			return t
		}
		if visiting[v.Name] {
			return Top{}
		}
		visiting[v.Name] = true
		defer delete(visiting, v.Name)
		return groundBound(v.UpperBound(), visiting)
	})
}
