package dispatch

import (
	"log/slog"
	"slices"

	"github.com/cottand/ovld/internal/log"
	"github.com/cottand/ovld/ovlerr"
	"github.com/cottand/ovld/overload"
	"github.com/cottand/ovld/types"
	"github.com/hashicorp/go-set/v3"
)

// CheckKind is a runtime check between two descriptors reached during inference
type CheckKind int

const (
	// CheckEqual requires both occurrences to be subtypes of each other
	CheckEqual CheckKind = iota
	// CheckBelow requires the occurrence to be a subtype of the chosen one
	CheckBelow
	// CheckAbove requires the chosen occurrence to be a subtype of the occurrence
	CheckAbove
)

func (k CheckKind) String() string {
	switch k {
	case CheckBelow:
		return "<:"
	case CheckAbove:
		return ":>"
	default:
		return "=="
	}
}

// Check compares the descriptor in Slot against the chosen one
type Check struct {
	Kind CheckKind
	Slot uint16
}

// Inference says where the descriptor of one static parameter is read from
type Inference struct {
	StaticParam string
	// Chosen is the slot holding the authoritative descriptor
	Chosen uint16
	Checks []Check
}

// Candidate is one member of the specialization order with the structures its arguments
// are tested against. Params holds nil at the receiver position.
type Candidate struct {
	Function  *overload.TaggedFunction
	Target    overload.CallTarget
	Signature string
	Params    []*TypeStructure
	// Inferences follow the order of the function's static parameters
	Inferences []Inference
	// VariantGenerics and InvariantGenerics merge the sets of every parameter
	VariantGenerics   *set.Set[string]
	InvariantGenerics *set.Set[string]
}

func (c *Candidate) IsGeneric() bool { return len(c.Inferences) > 0 }

// HasTests is true when some argument of c has to be tested before calling it
func (c *Candidate) HasTests() bool {
	return slices.ContainsFunc(c.Params, func(ts *TypeStructure) bool { return ts != nil && !ts.IsTrivial() })
}

// CanFail is true when the inference checks of c may reject the arguments
func (c *Candidate) CanFail() bool {
	return slices.ContainsFunc(c.Inferences, func(inf Inference) bool { return len(inf.Checks) > 0 })
}

// Plan is the dispatch routine of one overload set or subset, before emission
type Plan struct {
	Routine    string
	Scope      overload.Scope
	Arity      int
	Slots      int
	Candidates []*Candidate
}

// Planner compiles overload sets into dispatch plans and emits them
type Planner struct {
	oracle   overload.Oracle
	compiler *Compiler
	logger   *slog.Logger
}

func NewPlanner(oracle overload.Oracle) *Planner {
	return &Planner{
		oracle:   oracle,
		compiler: NewCompiler(oracle),
		logger:   log.For(log.SectionPlan),
	}
}

// Build splits set if needed and compiles the type structures and inference rules of every
// candidate in specialization order. Nothing is emitted, so a failing Build leaves no
// partial routine behind.
func (p *Planner) Build(set *overload.OverloadSet) (*Plan, error) {
	res, err := set.Split(p.oracle)
	if err != nil {
		return nil, err
	}
	if len(res.Order) == 0 {
		return nil, ovlerr.New(ovlerr.NewDispatchExhausted{Context: set.Context()})
	}
	plan := &Plan{
		Routine: set.RoutineName(),
		Scope:   set.Scope,
		Arity:   set.Arity,
	}
	for _, f := range res.Order {
		candidate, err := p.candidate(set, f)
		if err != nil {
			return nil, err
		}
		for _, ts := range candidate.Params {
			if ts != nil {
				plan.Slots = max(plan.Slots, int(ts.Successor))
			}
		}
		plan.Candidates = append(plan.Candidates, candidate)
	}
	return plan, nil
}

func (p *Planner) candidate(ovl *overload.OverloadSet, f *overload.TaggedFunction) (*Candidate, error) {
	signature, err := candidateSignature(f, p.oracle)
	if err != nil {
		return nil, err
	}
	c := &Candidate{
		Function:          f,
		Target:            ovl.Target(f),
		Signature:         signature,
		Params:            make([]*TypeStructure, f.Arity()),
		VariantGenerics:   set.New[string](0),
		InvariantGenerics: set.New[string](0),
	}
	// slots are reused by every candidate, as only one is being tried at a time
	var next uint16
	for j, param := range f.Params() {
		if f.Decl.HasSelf() && j == f.SelfIndex() {
			continue
		}
		ts, err := p.compiler.Compile(param, types.Covariant, next, f.StaticParams())
		if err != nil {
			return nil, withPosition(err, ovl, f, j)
		}
		next = ts.Successor
		c.Params[j] = ts
		c.VariantGenerics.InsertSet(ts.VariantGenerics)
		c.InvariantGenerics.InsertSet(ts.InvariantGenerics)
	}
	c.VariantGenerics.RemoveSet(c.InvariantGenerics)

	for _, static := range f.StaticParams() {
		inf, err := p.infer(ovl, f, c, static.Name)
		if err != nil {
			return nil, err
		}
		c.Inferences = append(c.Inferences, inf)
	}
	return c, nil
}

// infer picks the occurrence of static whose descriptor instantiates it: the only one, or
// the first invariant one, checked against all the others
func (p *Planner) infer(ovl *overload.OverloadSet, f *overload.TaggedFunction, c *Candidate, static string) (Inference, error) {
	ctx := ovlerr.At(ovl.Name, ovl.Arity, f.Key())
	var occurrences []*TypeStructure
	for _, ts := range c.Params {
		if ts == nil {
			continue
		}
		ts.Walk(func(node *TypeStructure) {
			if node.Var == static {
				occurrences = append(occurrences, node)
			}
		})
	}

	switch {
	case len(occurrences) == 0:
		return Inference{}, ovlerr.New(ovlerr.NewMissingStaticOccurrence{Context: ctx, StaticParam: static})
	case len(occurrences) == 1:
		return Inference{StaticParam: static, Chosen: occurrences[0].Slot}, nil
	case !c.InvariantGenerics.Contains(static):
		return Inference{}, ovlerr.New(ovlerr.NewUninferableGeneric{Context: ctx, StaticParam: static, Occurrences: len(occurrences)})
	}

	chosen := occurrences[slices.IndexFunc(occurrences, func(ts *TypeStructure) bool { return ts.Variance == types.Invariant })]
	inf := Inference{StaticParam: static, Chosen: chosen.Slot}
	for _, occ := range occurrences {
		if occ == chosen {
			continue
		}
		switch occ.Variance {
		case types.Invariant:
			inf.Checks = append(inf.Checks, Check{Kind: CheckEqual, Slot: occ.Slot})
		case types.Covariant:
			inf.Checks = append(inf.Checks, Check{Kind: CheckBelow, Slot: occ.Slot})
		case types.Contravariant:
			inf.Checks = append(inf.Checks, Check{Kind: CheckAbove, Slot: occ.Slot})
		}
	}
	p.logger.Debug("inferring static parameter", "candidate", f.Key(), "param", static, "chosen", chosen.Slot, "checks", len(inf.Checks))
	return inf, nil
}

// Emit writes plan through em. The chain of candidates ends with an unconditional call,
// unless the last candidate has to be tested to bind its static parameters, in which case
// it ends with a dispatch failure.
func (p *Planner) Emit(plan *Plan, em Emitter) {
	em.BeginRoutine(plan.Routine, plan.Scope, plan.Arity, plan.Slots)
	last := len(plan.Candidates) - 1
	for i, c := range plan.Candidates {
		if i == last && !c.IsGeneric() {
			p.emitCall(c, em)
			break
		}
		fail := em.NewLabel()
		p.emitTests(c, em, fail)
		p.emitInference(c, em, fail)
		p.emitCall(c, em)
		em.MarkLabel(fail)
		if i == last {
			em.RaiseDispatchFailure(plan.Routine)
		}
	}
	em.EndRoutine()
	p.logger.Debug("emitted dispatch routine", "routine", plan.Routine, "candidates", len(plan.Candidates))
}

// Generate builds the plan of set and emits it through em
func (p *Planner) Generate(set *overload.OverloadSet, em Emitter) (*Plan, error) {
	plan, err := p.Build(set)
	if err != nil {
		return nil, err
	}
	p.Emit(plan, em)
	return plan, nil
}

// GenerateAll generates the routine of set followed by one routine per overload subset.
// Every plan is built before anything is emitted.
func (p *Planner) GenerateAll(set *overload.OverloadSet, em Emitter) ([]*Plan, error) {
	res, err := set.Split(p.oracle)
	if err != nil {
		return nil, err
	}
	sets := append([]*overload.OverloadSet{set}, res.SubsetList()...)
	plans := make([]*Plan, 0, len(sets))
	for _, s := range sets {
		plan, err := p.Build(s)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	for _, plan := range plans {
		p.Emit(plan, em)
	}
	return plans, nil
}

func (p *Planner) emitTests(c *Candidate, em Emitter, fail Label) {
	for j, ts := range c.Params {
		if ts == nil || ts.IsTrivial() {
			continue
		}
		em.LoadArgument(j)
		em.InstanceOf(ts, fail)
	}
}

func (p *Planner) emitInference(c *Candidate, em Emitter, fail Label) {
	for _, inf := range c.Inferences {
		for _, check := range inf.Checks {
			switch check.Kind {
			case CheckEqual:
				em.LoadGenericDescriptor(check.Slot)
				em.LoadGenericDescriptor(inf.Chosen)
				em.RuntimeSubtypeCheck(fail)
				em.LoadGenericDescriptor(inf.Chosen)
				em.LoadGenericDescriptor(check.Slot)
				em.RuntimeSubtypeCheck(fail)
			case CheckBelow:
				em.LoadGenericDescriptor(check.Slot)
				em.LoadGenericDescriptor(inf.Chosen)
				em.RuntimeSubtypeCheck(fail)
			case CheckAbove:
				em.LoadGenericDescriptor(inf.Chosen)
				em.LoadGenericDescriptor(check.Slot)
				em.RuntimeSubtypeCheck(fail)
			}
		}
	}
}

func (p *Planner) emitCall(c *Candidate, em Emitter) {
	for j, param := range c.Function.Params() {
		em.LoadArgument(j)
		em.Cast(types.Repr(erased(p.oracle.GroundBound(param))))
	}
	for _, inf := range c.Inferences {
		em.LoadGenericDescriptor(inf.Chosen)
	}
	em.Call(c.Target, c.Signature, len(c.Inferences))
	em.Return()
}

// candidateSignature is the erased signature of a single member, like (Integer,List)String
func candidateSignature(f *overload.TaggedFunction, oracle overload.Oracle) (string, error) {
	single, err := overload.NewOverloadSet(f.Name(), overload.Scope{}, []*overload.TaggedFunction{f})
	if err != nil {
		return "", err
	}
	return overload.Signature(single, oracle)
}

func erased(t types.Type) types.Type {
	switch t.(type) {
	case *types.Union, *types.Intersection, types.Bottom:
		return types.Top{}
	default:
		return t
	}
}

func withPosition(err error, ovl *overload.OverloadSet, f *overload.TaggedFunction, position int) error {
	if e, ok := err.(ovlerr.NewUnhandledTypeShape); ok {
		e.Context = ovlerr.At(ovl.Name, ovl.Arity, f.Key())
		e.Position = position
		return e
	}
	return err
}
