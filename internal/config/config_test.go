package config

import (
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(fstest.MapFS{})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, level)
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		FileName: {Data: []byte(`
log_level = "debug"
jobs = 4

[go]
package = "shapes"

[go.types]
Integer = "int"
String = "string"
`)},
	}
	cfg, err := Load(fsys)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Jobs)
	assert.Equal(t, "shapes", cfg.Go.Package)
	assert.Equal(t, "github.com/cottand/ovld/drt", cfg.Go.RuntimeImport)
	assert.Equal(t, map[string]string{"Integer": "int", "String": "string"}, cfg.Go.Types)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":      `jobs = `,
		"unknown key": `colour = "red"`,
		"bad package": "[go]\npackage = \"not-an-ident\"",
		"bad level":   `log_level = "loud"`,
		"negative":    `jobs = -1`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(src, "ovld.toml")
			assert.ErrorContains(t, err, "ovld.toml")
		})
	}
}
