package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cottand/ovld/backend"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDecls = `
module: m
traits: [{name: Number}, {name: Integer, parents: [Number]}]
functions:
  - {name: show, params: [Number]}
  - {name: show, params: [Integer]}
`

func writeProject(t *testing.T, decls string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "m.decl.yaml"), []byte(decls), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ovld.toml"), []byte("[go]\npackage = \"shapes\"\n"), 0o644))
	return dir
}

func TestPlanText(t *testing.T) {
	color.NoColor = true
	dir := writeProject(t, testDecls)

	out := &bytes.Buffer{}
	PlanCmd.SetOut(out)
	PlanCmd.SetArgs([]string{dir, "--format", "text"})
	require.NoError(t, PlanCmd.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "show/1 module:m (Number)Any\n")
	assert.Contains(t, out.String(), "  principal show(Number)\n")
	assert.Contains(t, out.String(), "  order     show(Integer), show(Number)\n")
	assert.Contains(t, out.String(), "  L0:\n")
}

func TestPlanMsgpack(t *testing.T) {
	dir := writeProject(t, testDecls)

	out := &bytes.Buffer{}
	PlanCmd.SetOut(out)
	PlanCmd.SetArgs([]string{filepath.Join(dir, "m.decl.yaml"), "--format", "msgpack"})
	require.NoError(t, PlanCmd.ExecuteContext(context.Background()))

	file, err := backend.DecodePlanFile(out)
	require.NoError(t, err)
	require.Len(t, file.Routines, 1)
	assert.Equal(t, "show/1", file.Routines[0].Routine)
}

func TestPlanReportsCompileErrors(t *testing.T) {
	dir := writeProject(t, testDecls+"  - {name: show, params: [Number]}\n")

	PlanCmd.SetOut(&bytes.Buffer{})
	PlanCmd.SetErr(&bytes.Buffer{})
	PlanCmd.SetArgs([]string{dir, "--format", "text"})
	err := PlanCmd.ExecuteContext(context.Background())
	assert.ErrorContains(t, err, "errors found during compilation")
}

func TestGen(t *testing.T) {
	dir := writeProject(t, testDecls)
	outDir := filepath.Join(t.TempDir(), "gen")

	out := &bytes.Buffer{}
	GenCmd.SetOut(out)
	GenCmd.SetArgs([]string{dir, "-o", outDir})
	require.NoError(t, GenCmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "1 dispatch routines written to")

	src, err := os.ReadFile(filepath.Join(outDir, genFileName+".go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "package shapes")
	assert.Contains(t, string(src), "func show_1_module_m(a0 any) any {")
}

func TestPlanShowsInferenceSlots(t *testing.T) {
	color.NoColor = true
	dir := writeProject(t, `
traits: [{name: List}]
functions:
  - {name: pair, static: [{name: T}], params: ["List[T]", "List[T]"]}
  - {name: pair, params: [Any, Any]}
`)

	out := &bytes.Buffer{}
	PlanCmd.SetOut(out)
	PlanCmd.SetArgs([]string{dir, "--format", "text"})
	require.NoError(t, PlanCmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), " T from slot 1 ==@3\n")
	assert.NotContains(t, out.String(), "from param")
}

func TestPlanReadsPlanFile(t *testing.T) {
	color.NoColor = true
	dir := writeProject(t, testDecls)

	saved := &bytes.Buffer{}
	PlanCmd.SetOut(saved)
	PlanCmd.SetArgs([]string{dir, "--format", "msgpack"})
	require.NoError(t, PlanCmd.ExecuteContext(context.Background()))
	planPath := filepath.Join(t.TempDir(), "m"+backend.PlanFileSuffix)
	require.NoError(t, os.WriteFile(planPath, saved.Bytes(), 0o644))

	out := &bytes.Buffer{}
	PlanCmd.SetOut(out)
	PlanCmd.SetArgs([]string{planPath, "--format", "text"})
	require.NoError(t, PlanCmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "show/1 module:m (Number)Any\n")
	assert.Contains(t, out.String(), "  principal show(Number)\n")

	require.NoError(t, os.WriteFile(planPath, []byte("not msgpack"), 0o644))
	PlanCmd.SetErr(&bytes.Buffer{})
	PlanCmd.SetArgs([]string{planPath, "--format", "text"})
	assert.ErrorContains(t, PlanCmd.ExecuteContext(context.Background()), "could not decode")
}
