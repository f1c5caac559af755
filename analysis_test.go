package geompack

import (
	"encoding/json"
	"testing"

	"github.com/flywave/go3d/vec3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeCube(t *testing.T) {
	info := Analyze(CreateCube(2))

	assert.Equal(t, 8, info.Vertices)
	assert.Equal(t, 12, info.Faces)
	assert.Equal(t, 18, info.Edges)
	assert.Equal(t, 0, info.OpenEdges)
	assert.Equal(t, 0, info.NonManifoldEdges)
	assert.Empty(t, info.OpenEdgeFaces)
	assert.Empty(t, info.DegenerateFaces)
	assert.Equal(t, 1, info.Components)
	assert.True(t, info.Watertight)
	assert.InDelta(t, 24, info.SurfaceArea, 1e-6)
	assert.Equal(t, [3]float64{-1, -1, -1}, info.BoundsMin)
	assert.Equal(t, 2.0, info.MaxExtent)
}

func TestOpenEdges(t *testing.T) {
	cube := CreateCube(1)
	cube.Faces = cube.Faces[2:] // drop the -z side

	assert.False(t, IsWatertight(cube))
	open := OpenEdges(cube)
	assert.Equal(t, []Edge{{0, 1}, {0, 3}, {1, 2}, {2, 3}}, open)

	info := Analyze(cube)
	assert.Equal(t, 4, info.OpenEdges)
	assert.Len(t, info.OpenEdgeFaces, 4)
	assert.False(t, info.Watertight)
}

func TestNonManifoldEdge(t *testing.T) {
	m := &Mesh{
		Vertices: []vec3.T{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}},
		Faces:    [][3]uint32{{0, 1, 2}, {1, 0, 3}, {0, 1, 4}},
	}
	info := Analyze(m)
	assert.Equal(t, 1, info.NonManifoldEdges)
	assert.False(t, info.Watertight)
}

func TestDegenerateFaces(t *testing.T) {
	m := &Mesh{
		Vertices: []vec3.T{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {0, 1, 0}},
		Faces:    [][3]uint32{{0, 1, 3}, {0, 1, 2}, {1, 1, 3}},
	}
	assert.Equal(t, []int{1, 2}, DegenerateFaces(m, 1e-9))
}

func TestConnectedComponents(t *testing.T) {
	a := CreateCube(1)
	b := Translate(CreateCube(1), 5, 0, 0)

	m := a.Clone()
	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, b.Vertices...)
	for _, f := range b.Faces {
		m.Faces = append(m.Faces, [3]uint32{f[0] + base, f[1] + base, f[2] + base})
	}

	labels, count := ConnectedComponents(m)
	assert.Equal(t, 2, count)
	assert.Equal(t, 0, labels[0])
	assert.Equal(t, 1, labels[len(labels)-1])
	assert.True(t, IsWatertight(m))
}

func TestInfoJSON(t *testing.T) {
	data, err := json.Marshal(Analyze(CreateCube(1)))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, true, decoded["watertight"])
	assert.Equal(t, float64(8), decoded["vertices"])
	assert.NotContains(t, decoded, "open_edge_faces")
}

func TestInfoString(t *testing.T) {
	s := Analyze(CreateCube(1)).String()
	assert.Contains(t, s, "Vertices: 8\n")
	assert.Contains(t, s, "Watertight: true\n")
}
