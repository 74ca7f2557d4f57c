// Package drt is the runtime support of generated dispatch routines: type descriptors of
// values, structural matching against compiled parameter types, and runtime subtyping.
package drt

import (
	"strconv"
	"strings"
)

const AnyName = "Any"

// Descriptor is the runtime type of a value. Tuples and functions are named by their
// stem (Tuple2, Arrow1) and carry their components as Args; the range of a function
// comes last.
type Descriptor struct {
	Name string
	Args []*Descriptor
}

func Named(name string, args ...*Descriptor) *Descriptor {
	return &Descriptor{Name: name, Args: args}
}

func TupleOf(elems ...*Descriptor) *Descriptor {
	return &Descriptor{Name: "Tuple" + strconv.Itoa(len(elems)), Args: elems}
}

func ArrowOf(rng *Descriptor, domain ...*Descriptor) *Descriptor {
	args := append(append([]*Descriptor{}, domain...), rng)
	return &Descriptor{Name: "Arrow" + strconv.Itoa(len(domain)), Args: args}
}

var Any = Named(AnyName)

func (d *Descriptor) IsTuple() bool { return strings.HasPrefix(d.Name, "Tuple") && isStem(d, "Tuple") }
func (d *Descriptor) IsArrow() bool { return strings.HasPrefix(d.Name, "Arrow") && isStem(d, "Arrow") }

func isStem(d *Descriptor, prefix string) bool {
	n, err := strconv.Atoi(d.Name[len(prefix):])
	if err != nil {
		return false
	}
	if prefix == "Arrow" {
		return len(d.Args) == n+1
	}
	return len(d.Args) == n
}

func (d *Descriptor) String() string {
	if d == nil {
		return "<nil>"
	}
	if len(d.Args) == 0 {
		return d.Name
	}
	parts := make([]string, len(d.Args))
	for i, a := range d.Args {
		parts[i] = a.String()
	}
	switch {
	case d.IsTuple():
		return "(" + strings.Join(parts, ",") + ")"
	case d.IsArrow():
		return "(" + strings.Join(parts[:len(parts)-1], ",") + ")->" + parts[len(parts)-1]
	default:
		return d.Name + "[" + strings.Join(parts, ",") + "]"
	}
}

// Equal is structural equality
func (d *Descriptor) Equal(o *Descriptor) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.Name != o.Name || len(d.Args) != len(o.Args) {
		return false
	}
	for i := range d.Args {
		if !d.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// Typed is implemented by values that know their own runtime type
type Typed interface {
	Descriptor() *Descriptor
}

// Tuple is the runtime value of a tuple
type Tuple []any

// Func is a function value together with its arrow type
type Func struct {
	Type *Descriptor
	Fn   func(args ...any) any
}

func (f Func) Descriptor() *Descriptor { return f.Type }

func (f Func) Call(args ...any) any { return f.Fn(args...) }

// Value boxes Data with a runtime type, for values whose Go type says nothing about
// their trait, like a List[Integer] held in a []any
type Value struct {
	Type *Descriptor
	Data any
}

func (v Value) Descriptor() *Descriptor { return v.Type }

// DispatchFailure is raised by a dispatch routine when no candidate applies to its arguments,
// which means the static checker let through a call it should have rejected
type DispatchFailure struct {
	Routine string
	Args    []any
}

func (e DispatchFailure) Error() string {
	return "no overload of " + e.Routine + " applies to the arguments"
}

// Fail builds the DispatchFailure generated routines panic with
func Fail(routine string, args ...any) DispatchFailure {
	return DispatchFailure{Routine: routine, Args: args}
}
