package geompack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatOf(t *testing.T) {
	cases := map[string]string{
		"a/b/model.OBJ":   OBJ,
		"scan.stl":        STL,
		"scene.gltf":      GLTF,
		"scene.glb":       GLB,
		"house.3ds":       THREEDS,
		"rig.fbx":         FBX,
		"female.js.bin":   TBIN,
		"tile.mst":        MST,
		"scene.DAE":       DAE,
		"README":          "",
		"archive.tar.bin": "bin",
	}
	for path, want := range cases {
		assert.Equal(t, want, FormatOf(path), path)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := LoadMesh("mesh.ply")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	err = SaveMesh(CreateCube(1), filepath.Join(t.TempDir(), "cube.fbx"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSaveMeshValidates(t *testing.T) {
	err := SaveMesh(NewMesh(), filepath.Join(t.TempDir(), "empty.obj"))
	assert.ErrorIs(t, err, ErrEmptyMesh)
}

func TestLoadMeshValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.obj")
	require.NoError(t, os.WriteFile(path, []byte("v 0 0 0\nv 1 0 0\n"), 0644))

	_, err := LoadMesh(path)
	assert.ErrorIs(t, err, ErrEmptyMesh)
}

func TestCenter(t *testing.T) {
	moved := Translate(CreateCube(2), 3, -1, 0.5)
	centered, c := Center(moved)

	assert.InDeltaSlice(t, []float64{3, -1, 0.5}, c[:], 1e-6)
	box := centered.Bounds()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, -1, box.Min[i], 1e-6)
		assert.InDelta(t, 1, box.Max[i], 1e-6)
	}
	// input untouched
	assert.InDelta(t, 2, moved.Bounds().Min[0], 1e-6)
}

func TestResolvePaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "in.obj"), nil, 0644))

	got, err := ResolveInput("in.obj", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "in.obj"), got)

	_, err = ResolveInput("missing.obj", dir)
	assert.Error(t, err)

	_, err = ResolveInput("", dir)
	assert.Error(t, err)

	abs := filepath.Join(dir, "in.obj")
	got, err = ResolveInput(abs, "/elsewhere")
	require.NoError(t, err)
	assert.Equal(t, abs, got)

	got, err = ResolveOutput("out.obj", "/data/out")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data/out", "out.obj"), got)

	got, err = ResolveOutput("out.obj", "")
	require.NoError(t, err)
	assert.Equal(t, "out.obj", got)
}
