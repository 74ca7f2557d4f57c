package backend

import (
	"bytes"
	"testing"

	"github.com/cottand/ovld/dispatch"
	"github.com/cottand/ovld/overload"
	"github.com/cottand/ovld/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestDescribeAndEncode(t *testing.T) {
	oracle := testOracle()
	read := fn("read", []string{"T"}, "List[T]", "List[T]")
	read.Decl.Throws = []types.Type{types.MustParse("IOException", nil)}
	fallback := fn("read", nil, "Any", "Any")
	fallback.Decl.Throws = []types.Type{types.MustParse("ParseException", nil)}
	set, err := overload.NewOverloadSet("read", overload.Scope{Kind: overload.ModuleScope, Name: "m"}, []*overload.TaggedFunction{read, fallback})
	require.NoError(t, err)

	listing := NewListing()
	plan, err := dispatch.NewPlanner(oracle).Generate(set, listing)
	require.NoError(t, err)
	payload, err := Describe(set, plan, listing.Lines(), oracle)
	require.NoError(t, err)

	assert.Equal(t, "read/2", payload.Routine)
	assert.Equal(t, "module:m", payload.Scope)
	assert.Equal(t, "(Any,Any)Any", payload.Signature)
	assert.Equal(t, "read(Any,Any)", payload.Principal)
	assert.Equal(t, []string{"read(List[T],List[T])", "read(Any,Any)"}, payload.Order)
	assert.Equal(t, []string{"IOException", "ParseException"}, payload.Throws)
	require.Len(t, payload.Candidates, 2)
	assert.Equal(t, []string{"List@0[=T<:Any@1]", "List@2[=T<:Any@3]"}, payload.Candidates[0].Params)
	assert.Equal(t, []InferencePayload{{StaticParam: "T", Chosen: 1, Checks: []string{"==@3"}}}, payload.Candidates[0].Inferences)
	assert.Equal(t, []string{"T"}, payload.Candidates[0].InvariantGenerics)
	assert.Empty(t, payload.Candidates[0].VariantGenerics)

	buf := &bytes.Buffer{}
	require.NoError(t, EncodePlanFile(buf, NewPlanFile([]RoutinePayload{payload})))
	decoded, err := DecodePlanFile(buf)
	require.NoError(t, err)
	require.Len(t, decoded.Routines, 1)
	assert.Equal(t, payload.Order, decoded.Routines[0].Order)
	assert.Equal(t, payload.Listing, decoded.Routines[0].Listing)
}

func TestDecodeRejectsOtherSchema(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, msgpack.NewEncoder(buf).Encode(PlanFile{Schema: planSchemaVersion + 1}))
	_, err := DecodePlanFile(buf)
	assert.ErrorContains(t, err, "schema")
}
