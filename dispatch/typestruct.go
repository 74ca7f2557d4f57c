package dispatch

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"fortio.org/safecast"
	"github.com/cottand/ovld/internal/log"
	"github.com/cottand/ovld/ovlerr"
	"github.com/cottand/ovld/overload"
	"github.com/cottand/ovld/types"
	"github.com/hashicorp/go-set/v3"
)

// TypeStructure mirrors the shape of one parameter's static type, and says how to
// test an argument against it at runtime
type TypeStructure struct {
	// Repr is the runtime representation name checked for this node
	Repr string
	// Stem names the generic shape (trait name, TupleN, ArrowN) of a node with Children,
	// and is empty for leaves
	Stem     string
	Children []*TypeStructure
	// Slot is where the runtime descriptor of this node is cached during dispatch
	Slot uint16
	// Successor is the first slot free after this node and all its children
	Successor uint16
	Variance  types.Variance
	// Var is the static parameter this leaf refers to, if any
	Var string

	// VariantGenerics and InvariantGenerics are the static parameters reachable from this
	// node in variant and invariant positions. A name never appears in both.
	VariantGenerics   *set.Set[string]
	InvariantGenerics *set.Set[string]

	Type types.Type
}

func (ts *TypeStructure) IsLeaf() bool { return len(ts.Children) == 0 }

// IsGeneric reports whether a static parameter occurs anywhere under ts
func (ts *TypeStructure) IsGeneric() bool {
	return !ts.VariantGenerics.Empty() || !ts.InvariantGenerics.Empty()
}

// IsTrivial is true for a leaf that every value passes
func (ts *TypeStructure) IsTrivial() bool {
	return ts.IsLeaf() && ts.Var == "" && ts.Repr == types.AnyName
}

// Walk visits ts and its children depth-first, in slot order
func (ts *TypeStructure) Walk(f func(*TypeStructure)) {
	f(ts)
	for _, c := range ts.Children {
		c.Walk(f)
	}
}

func (ts *TypeStructure) String() string {
	sb := &strings.Builder{}
	ts.writeTo(sb)
	return sb.String()
}

func (ts *TypeStructure) writeTo(sb *strings.Builder) {
	switch ts.Variance {
	case types.Contravariant:
		sb.WriteString("-")
	case types.Invariant:
		sb.WriteString("=")
	}
	if ts.Var != "" {
		fmt.Fprintf(sb, "%s<:%s", ts.Var, ts.Repr)
	} else {
		sb.WriteString(ts.Repr)
	}
	fmt.Fprintf(sb, "@%d", ts.Slot)
	if ts.IsLeaf() {
		return
	}
	sb.WriteString("[")
	for i, c := range ts.Children {
		if i > 0 {
			sb.WriteString(",")
		}
		c.writeTo(sb)
	}
	sb.WriteString("]")
}

// Compiler turns static parameter types into TypeStructures
type Compiler struct {
	oracle overload.Oracle
	logger *slog.Logger
}

func NewCompiler(oracle overload.Oracle) *Compiler {
	return &Compiler{
		oracle: oracle,
		logger: log.For(log.SectionTypeStruc),
	}
}

// Compile builds the TypeStructure of t seen with variance, numbering slots from base.
// statics are the static parameters of the candidate t belongs to; references to any other
// static parameter are tested against their ground bound.
//
// Unions, intersections and Bottom have no runtime test and fail with UnhandledTypeShape.
func (c *Compiler) Compile(t types.Type, variance types.Variance, base uint16, statics []*types.Var) (*TypeStructure, error) {
	ts, err := c.compile(t, variance, int(base), statics)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("compiled type structure", "type", t, "structure", ts)
	return ts, nil
}

func (c *Compiler) compile(t types.Type, variance types.Variance, base int, statics []*types.Var) (*TypeStructure, error) {
	slot, err := safecast.Conv[uint16](base)
	if err != nil {
		return nil, fmt.Errorf("slot for %v: %w", t, err)
	}
	ts := &TypeStructure{
		Repr:              types.Repr(t),
		Slot:              slot,
		Variance:          variance,
		VariantGenerics:   set.New[string](0),
		InvariantGenerics: set.New[string](0),
		Type:              t,
	}

	var children []types.Type
	var childVariance []types.Variance
	switch t := t.(type) {
	case types.Top:
	case *types.Trait:
		if len(t.Args) > 0 {
			ts.Stem = t.Name
			children = t.Args
			// arguments are compared invariantly until declaration-site variance is known
			for range t.Args {
				childVariance = append(childVariance, variance.Compose(types.Invariant))
			}
		}
	case *types.Tuple:
		ts.Stem = types.TupleStem(len(t.Elems))
		children = t.Elems
		for range t.Elems {
			childVariance = append(childVariance, variance)
		}
	case *types.Arrow:
		ts.Stem = types.ArrowStem(len(t.Domain))
		children = append(slices.Clone(t.Domain), t.Range)
		for range t.Domain {
			childVariance = append(childVariance, variance.Flip())
		}
		childVariance = append(childVariance, variance)
	case *types.Var:
		if !slices.ContainsFunc(statics, func(v *types.Var) bool { return v.Name == t.Name }) {
			return c.compile(c.oracle.GroundBound(t), variance, base, statics)
		}
		ts.Var = t.Name
		ts.Repr = types.Repr(c.groundRepr(t))
		if variance == types.Invariant {
			ts.InvariantGenerics.Insert(t.Name)
		} else {
			ts.VariantGenerics.Insert(t.Name)
		}
	default:
		return nil, ovlerr.New(ovlerr.NewUnhandledTypeShape{Type: t.String()})
	}

	next := base + 1
	for i, child := range children {
		childTs, err := c.compile(child, childVariance[i], next, statics)
		if err != nil {
			return nil, err
		}
		next = int(childTs.Successor)
		ts.Children = append(ts.Children, childTs)
		ts.VariantGenerics.InsertSet(childTs.VariantGenerics)
		ts.InvariantGenerics.InsertSet(childTs.InvariantGenerics)
	}
	// an invariant occurrence pins the value, so it is not inferred separately
	ts.VariantGenerics.RemoveSet(ts.InvariantGenerics)

	ts.Successor, err = safecast.Conv[uint16](next)
	if err != nil {
		return nil, fmt.Errorf("slots after %v: %w", t, err)
	}
	return ts, nil
}

// groundRepr is the type a static parameter leaf is checked against
func (c *Compiler) groundRepr(v *types.Var) types.Type {
	switch ground := c.oracle.GroundBound(v).(type) {
	case *types.Union, *types.Intersection, types.Bottom:
		return types.Top{}
	default:
		return ground
	}
}
