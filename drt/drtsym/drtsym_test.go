package drtsym

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/traefik/yaegi/interp"
)

func TestInterpretedMatch(t *testing.T) {
	i := interp.New(interp.Options{})
	require.NoError(t, i.Use(Symbols))
	_, err := i.Eval(`import "github.com/cottand/ovld/drt"`)
	require.NoError(t, err)

	res, err := i.Eval(`drt.Match(drt.Value{Type: drt.Named("List", drt.Named("Byte"))}, drt.P("List", drt.Covariant, 0, drt.V("Any", drt.Invariant, 1)), nil)`)
	require.NoError(t, err)
	assert.Equal(t, true, res.Interface())
}
