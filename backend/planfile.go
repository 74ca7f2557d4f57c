package backend

import (
	"cmp"
	"fmt"
	"io"

	"github.com/cottand/ovld/dispatch"
	"github.com/cottand/ovld/overload"
	"github.com/cottand/ovld/util"
	"github.com/vmihailenco/msgpack/v5"
)

// PlanFileSuffix is the extension plan files are saved under
const PlanFileSuffix = ".ovlplan"

// planSchemaVersion must be incremented whenever PlanFile changes shape
const planSchemaVersion uint16 = 1

// PlanFile is the serialised form of every dispatch routine of a compilation
type PlanFile struct {
	Schema   uint16
	Routines []RoutinePayload
}

type RoutinePayload struct {
	Routine   string
	Scope     string
	Arity     int
	Slots     int
	Signature string
	Principal string
	Order     []string
	Subsets   []string
	Throws    []string

	Candidates []CandidatePayload
	Listing    []string
}

type CandidatePayload struct {
	Member     string
	Target     string
	Signature  string
	Params     []string
	Inferences []InferencePayload

	VariantGenerics   []string
	InvariantGenerics []string
}

type InferencePayload struct {
	StaticParam string
	Chosen      uint16
	Checks      []string
}

// Describe summarises the routine plan generated for set. listing is the instruction
// listing of the routine, if any.
func Describe(set *overload.OverloadSet, plan *dispatch.Plan, listing []string, oracle overload.Oracle) (RoutinePayload, error) {
	res, err := set.Split(oracle)
	if err != nil {
		return RoutinePayload{}, err
	}
	signature, err := overload.Signature(set, oracle)
	if err != nil {
		return RoutinePayload{}, err
	}
	payload := RoutinePayload{
		Routine:   plan.Routine,
		Scope:     set.Scope.String(),
		Arity:     plan.Arity,
		Slots:     plan.Slots,
		Signature: signature,
		Listing:   listing,
	}
	if res.Principal != nil {
		payload.Principal = res.Principal.Key()
	}
	for _, f := range res.Order {
		payload.Order = append(payload.Order, f.Key())
	}
	if set.SubsetKey == "" {
		for _, sub := range res.SubsetList() {
			payload.Subsets = append(payload.Subsets, sub.SubsetKey)
		}
	}
	for _, t := range overload.Exceptions(set) {
		payload.Throws = append(payload.Throws, t.String())
	}
	for _, c := range plan.Candidates {
		cp := CandidatePayload{
			Member:    c.Function.Key(),
			Target:    c.Target.String(),
			Signature: c.Signature,

			VariantGenerics:   util.SortedSlice(c.VariantGenerics, cmp.Compare[string]),
			InvariantGenerics: util.SortedSlice(c.InvariantGenerics, cmp.Compare[string]),
		}
		for _, ts := range c.Params {
			if ts == nil {
				cp.Params = append(cp.Params, "self")
				continue
			}
			cp.Params = append(cp.Params, ts.String())
		}
		for _, inf := range c.Inferences {
			ip := InferencePayload{StaticParam: inf.StaticParam, Chosen: inf.Chosen}
			for _, check := range inf.Checks {
				ip.Checks = append(ip.Checks, fmt.Sprintf("%v@%d", check.Kind, check.Slot))
			}
			cp.Inferences = append(cp.Inferences, ip)
		}
		payload.Candidates = append(payload.Candidates, cp)
	}
	return payload, nil
}

func NewPlanFile(routines []RoutinePayload) PlanFile {
	return PlanFile{Schema: planSchemaVersion, Routines: routines}
}

func EncodePlanFile(w io.Writer, file PlanFile) error {
	return msgpack.NewEncoder(w).Encode(file)
}

func DecodePlanFile(r io.Reader) (*PlanFile, error) {
	var file PlanFile
	if err := msgpack.NewDecoder(r).Decode(&file); err != nil {
		return nil, err
	}
	if file.Schema != planSchemaVersion {
		return nil, fmt.Errorf("plan file has schema %d, expected %d", file.Schema, planSchemaVersion)
	}
	return &file, nil
}
