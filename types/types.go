package types

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Type is a static type as seen by the dispatch engine.
// Types are immutable values; two types are structurally equal iff Equal reports so.
type Type interface {
	fmt.Stringer
	Hash() uint64
	isType()
}

var (
	_ Type = Top{}
	_ Type = Bottom{}
	_ Type = (*Trait)(nil)
	_ Type = (*Tuple)(nil)
	_ Type = (*Arrow)(nil)
	_ Type = (*Union)(nil)
	_ Type = (*Intersection)(nil)
	_ Type = (*Var)(nil)
)

const (
	AnyName    = "Any"
	BottomName = "Bottom"
)

// Top is the universal supertype, called Any in declaration files
type Top struct{}

func (Top) isType()        {}
func (Top) String() string { return AnyName }
func (Top) Hash() uint64   { return 1099511628211 }

// Bottom has no values
type Bottom struct{}

func (Bottom) isType()        {}
func (Bottom) String() string { return BottomName }
func (Bottom) Hash() uint64   { return 16777619 }

// Trait is a nominal type, optionally applied to static arguments, like List[Integer].
type Trait struct {
	Name string
	Args []Type
}

func (*Trait) isType() {}
func (t *Trait) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	return t.Name + "[" + joinTypes(t.Args, ",") + "]"
}
func (t *Trait) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(t.Name))
	hash := h.Sum64()
	for _, arg := range t.Args {
		hash = hash*31 + arg.Hash()
	}
	return hash
}

type Tuple struct {
	Elems []Type
}

func (*Tuple) isType()          {}
func (t *Tuple) String() string { return "(" + joinTypes(t.Elems, ",") + ")" }
func (t *Tuple) Hash() uint64 {
	hash := uint64(7)
	for _, e := range t.Elems {
		hash = hash*41 + e.Hash()
	}
	return hash
}

// Arrow is a function type; Domain is contravariant and Range is covariant
type Arrow struct {
	Domain []Type
	Range  Type
}

func (*Arrow) isType() {}
func (t *Arrow) String() string {
	return "(" + joinTypes(t.Domain, ",") + ")->" + t.Range.String()
}
func (t *Arrow) Hash() uint64 {
	hash := uint64(11)
	for _, d := range t.Domain {
		hash = hash*43 + d.Hash()
	}
	return hash*47 + t.Range.Hash()
}

type Union struct {
	Elems []Type
}

func (*Union) isType()          {}
func (t *Union) String() string { return "(" + joinTypes(t.Elems, "|") + ")" }
func (t *Union) Hash() uint64 {
	hash := uint64(13)
	for _, e := range t.Elems {
		hash += e.Hash() * 53
	}
	return hash
}

type Intersection struct {
	Elems []Type
}

func (*Intersection) isType()          {}
func (t *Intersection) String() string { return "(" + joinTypes(t.Elems, "&") + ")" }
func (t *Intersection) Hash() uint64 {
	hash := uint64(17)
	for _, e := range t.Elems {
		hash += e.Hash() * 59
	}
	return hash
}

// Var is a reference to a static (generic) parameter.
// Bound is the declared upper bound, or nil for Any.
type Var struct {
	Name  string
	Bound Type
}

func (*Var) isType()          {}
func (t *Var) String() string { return t.Name }
func (t *Var) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("var:" + t.Name))
	return h.Sum64()
}

// UpperBound is Bound, defaulting to Top
func (t *Var) UpperBound() Type {
	if t.Bound == nil {
		return Top{}
	}
	return t.Bound
}

// Equal is structural equality. Union and Intersection compare element-wise in order.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Hash() != b.Hash() {
		return false
	}
	return a.String() == b.String()
}

// Repr is the runtime representation name used for leaf instance-of checks.
func Repr(t Type) string {
	switch t := t.(type) {
	case Top:
		return AnyName
	case Bottom:
		return BottomName
	case *Trait:
		return t.Name
	case *Tuple:
		return TupleStem(len(t.Elems))
	case *Arrow:
		return ArrowStem(len(t.Domain))
	case *Var:
		return t.Name
	default:
		return t.String()
	}
}

func TupleStem(n int) string { return "Tuple" + strconv.Itoa(n) }
func ArrowStem(n int) string { return "Arrow" + strconv.Itoa(n) }

// IsUnion reports whether t is a union of more than one type
func IsUnion(t Type) bool {
	u, ok := t.(*Union)
	return ok && len(u.Elems) > 1
}

// Map rebuilds t bottom-up, applying f to every node after its children.
func Map(t Type, f func(Type) Type) Type {
	switch t := t.(type) {
	case *Trait:
		if len(t.Args) == 0 {
			return f(t)
		}
		return f(&Trait{Name: t.Name, Args: mapAll(t.Args, f)})
	case *Tuple:
		return f(&Tuple{Elems: mapAll(t.Elems, f)})
	case *Arrow:
		return f(&Arrow{Domain: mapAll(t.Domain, f), Range: Map(t.Range, f)})
	case *Union:
		return f(&Union{Elems: mapAll(t.Elems, f)})
	case *Intersection:
		return f(&Intersection{Elems: mapAll(t.Elems, f)})
	default:
		return f(t)
	}
}

func mapAll(ts []Type, f func(Type) Type) []Type {
	res := make([]Type, len(ts))
	for i, t := range ts {
		res[i] = Map(t, f)
	}
	return res
}

func joinTypes(ts []Type, sep string) string {
	strs := make([]string, len(ts))
	for i, t := range ts {
		strs[i] = t.String()
	}
	return strings.Join(strs, sep)
}

// Names returns the String of every type in ts
func Names(ts []Type) []string {
	strs := make([]string, len(ts))
	for i, t := range ts {
		strs[i] = t.String()
	}
	return strs
}
