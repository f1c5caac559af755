package main

import (
	"flag"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	geompack "github.com/flywave/go-geompack"
	"github.com/flywave/go-geompack/blender"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(&blender.ParameterError{Operation: "voxel-remesh"}))
	assert.Equal(t, 3, exitCode(&blender.ToolNotFoundError{}))
	assert.Equal(t, 4, exitCode(errors.Wrap(&blender.TimeoutError{}, "remesh")))
	assert.Equal(t, 5, exitCode(&blender.ExecError{ExitCode: 1}))
	assert.Equal(t, 5, exitCode(&blender.OutputError{}))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}

func TestPrimitiveAndConvert(t *testing.T) {
	dir := t.TempDir()
	obj := filepath.Join(dir, "sphere.obj")
	stl := filepath.Join(dir, "sphere.stl")

	require.NoError(t, cmdPrimitive([]string{"-shape", "sphere", "-subdivisions", "1", obj}))
	require.NoError(t, cmdConvert([]string{obj, stl}))

	mesh, err := geompack.LoadMesh(stl)
	require.NoError(t, err)
	assert.Equal(t, 42, mesh.VertexCount())
	assert.Equal(t, 80, mesh.FaceCount())
}

func TestParseAppliesFlags(t *testing.T) {
	fs := flag.NewFlagSet("locate", flag.ContinueOnError)
	s, err := parse(fs, []string{"-timeout", "1m", "-blender", "/nonexistent/blender"})
	require.NoError(t, err)
	defer s.close()

	_, err = s.bridge().Executable()
	assert.ErrorIs(t, err, blender.ErrToolNotFound)
}

func TestOperationCommandsValidateFirst(t *testing.T) {
	dir := t.TempDir()
	in, out := filepath.Join(dir, "missing.obj"), filepath.Join(dir, "out.obj")

	err := cmdOperation("voxel-remesh", []string{"-voxel-size", "5", in, out})
	assert.ErrorIs(t, err, blender.ErrInvalidParameter)
	assert.Equal(t, 2, exitCode(err))

	err = cmdOperation("unwrap", []string{"-angle", "0", in, out})
	var perr *blender.ParameterError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "uv-unwrap", perr.Operation)
	assert.Equal(t, "angle_limit", perr.Name)

	err = cmdOperation("quad-remesh", []string{"-faces", "10", in, out})
	assert.ErrorIs(t, err, blender.ErrInvalidParameter)

	assert.Error(t, cmdOperation("decimate", nil))
}
