package drt

import (
	"reflect"
	"slices"
	"sync"
)

// Variance of a Pattern node, relative to the argument being matched
const (
	Contravariant int8 = -1
	Invariant     int8 = 0
	Covariant     int8 = 1
)

// Pattern is the runtime form of a compiled parameter type
type Pattern struct {
	// Name is the trait name or stem checked at this node. For a static parameter, it
	// is the name of its bound.
	Name     string
	Args     []*Pattern
	Variance int8
	// Slot receives the descriptor matched by this node, or is -1
	Slot int
	// Var marks a static parameter, which matches any descriptor within its bound
	Var bool
}

// P is a pattern node checking name
func P(name string, variance int8, slot int, args ...*Pattern) *Pattern {
	return &Pattern{Name: name, Args: args, Variance: variance, Slot: slot}
}

// V is a pattern node binding a static parameter bounded by bound
func V(bound string, variance int8, slot int) *Pattern {
	return &Pattern{Name: bound, Variance: variance, Slot: slot, Var: true}
}

// Runtime holds the nominal hierarchy and the names of Go types, as needed to describe
// values and compare descriptors
type Runtime struct {
	mu      sync.RWMutex
	parents map[string][]string
	goTypes map[reflect.Type]string
}

func New() *Runtime {
	return &Runtime{
		parents: make(map[string][]string),
		goTypes: make(map[reflect.Type]string),
	}
}

// Default is the runtime used by generated code
var Default = New()

// Declare records name as extending parents
func (r *Runtime) Declare(name string, parents ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := r.parents[name]
	for _, p := range parents {
		if !slices.Contains(existing, p) {
			existing = append(existing, p)
		}
	}
	r.parents[name] = existing
}

// Bind names the dynamic Go type of example, so that its values are described as name.
// A nil example, like the zero value of an interface type, only declares name.
func (r *Runtime) Bind(name string, example any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if goType := reflect.TypeOf(example); goType != nil {
		r.goTypes[goType] = name
	}
	if _, ok := r.parents[name]; !ok {
		r.parents[name] = nil
	}
}

// DescriptorOf describes v. Values that are neither Typed, Tuples nor of a bound Go type
// are described by their Go type name.
func (r *Runtime) DescriptorOf(v any) *Descriptor {
	switch v := v.(type) {
	case nil:
		return nil
	case Typed:
		return v.Descriptor()
	case Tuple:
		elems := make([]*Descriptor, len(v))
		for i, e := range v {
			elems[i] = r.DescriptorOf(e)
		}
		return TupleOf(elems...)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	goType := reflect.TypeOf(v)
	if name, ok := r.goTypes[goType]; ok {
		return Named(name)
	}
	return Named(goType.String())
}

func (r *Runtime) extends(sub, super string) bool {
	if sub == super {
		return true
	}
	r.mu.RLock()
	parents := r.parents[sub]
	r.mu.RUnlock()
	for _, p := range parents {
		if r.extends(p, super) {
			return true
		}
	}
	return false
}

// SubtypeOf reports whether a <: b. Trait arguments are compared invariantly.
func (r *Runtime) SubtypeOf(a, b *Descriptor) bool {
	if a == nil || b == nil {
		return false
	}
	if b.Name == AnyName && len(b.Args) == 0 {
		return true
	}
	switch {
	case a.IsTuple() && b.IsTuple():
		if len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !r.SubtypeOf(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case a.IsArrow() && b.IsArrow():
		if len(a.Args) != len(b.Args) {
			return false
		}
		last := len(a.Args) - 1
		for i := range last {
			if !r.SubtypeOf(b.Args[i], a.Args[i]) {
				return false
			}
		}
		return r.SubtypeOf(a.Args[last], b.Args[last])
	case a.Name == b.Name:
		return len(b.Args) == 0 || a.Equal(b)
	}
	return len(b.Args) == 0 && r.extends(a.Name, b.Name)
}

// Match reports whether v matches p, caching the descriptor of every matched node in
// slots. slots may be shorter than the highest slot of p, in which case nodes past it
// are not cached.
func (r *Runtime) Match(v any, p *Pattern, slots []*Descriptor) bool {
	return r.match(r.DescriptorOf(v), p, slots)
}

func (r *Runtime) match(d *Descriptor, p *Pattern, slots []*Descriptor) bool {
	if d == nil {
		return false
	}
	var ok bool
	switch {
	case p.Var:
		ok = p.Variance != Covariant || r.SubtypeOf(d, Named(p.Name))
	case len(p.Args) == 0:
		ok = r.compare(d, Named(p.Name), p.Variance)
	case d.Name == p.Name && len(d.Args) == len(p.Args):
		ok = true
		for i := range p.Args {
			if !r.match(d.Args[i], p.Args[i], slots) {
				ok = false
				break
			}
		}
	}
	if ok && p.Slot >= 0 && p.Slot < len(slots) {
		slots[p.Slot] = d
	}
	return ok
}

func (r *Runtime) compare(d, want *Descriptor, variance int8) bool {
	switch variance {
	case Covariant:
		return r.SubtypeOf(d, want)
	case Contravariant:
		return r.SubtypeOf(want, d)
	default:
		return d.Equal(want)
	}
}

func Declare(name string, parents ...string) { Default.Declare(name, parents...) }
func Bind(name string, example any)          { Default.Bind(name, example) }
func DescriptorOf(v any) *Descriptor         { return Default.DescriptorOf(v) }
func SubtypeOf(a, b *Descriptor) bool        { return Default.SubtypeOf(a, b) }

func Match(v any, p *Pattern, slots []*Descriptor) bool {
	return Default.Match(v, p, slots)
}
