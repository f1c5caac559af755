package geompack

import (
	"fmt"

	vec3d "github.com/flywave/go3d/float64/vec3"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/pkg/errors"
)

var (
	ErrEmptyMesh         = errors.New("mesh has no vertices or no faces")
	ErrInvalidMesh       = errors.New("invalid mesh")
	ErrUnsupportedFormat = errors.New("unsupported mesh format")
)

// Mesh is a triangulated surface. UVs is either empty or holds one
// coordinate per vertex.
type Mesh struct {
	Vertices []vec3.T
	Faces    [][3]uint32
	UVs      []vec2.T
}

func NewMesh() *Mesh {
	return &Mesh{}
}

func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

func (m *Mesh) FaceCount() int {
	return len(m.Faces)
}

func (m *Mesh) HasUVs() bool {
	return len(m.UVs) > 0
}

// Validate checks that the mesh is non-empty, that every face references an
// existing vertex and that UVs, when present, match the vertex count.
func (m *Mesh) Validate() error {
	if m == nil || len(m.Vertices) == 0 || len(m.Faces) == 0 {
		return ErrEmptyMesh
	}
	n := uint32(len(m.Vertices))
	for i, f := range m.Faces {
		for _, idx := range f {
			if idx >= n {
				return errors.Wrapf(ErrInvalidMesh, "face %d references vertex %d of %d", i, idx, n)
			}
		}
	}
	if len(m.UVs) != 0 && len(m.UVs) != len(m.Vertices) {
		return errors.Wrapf(ErrInvalidMesh, "%d uvs for %d vertices", len(m.UVs), len(m.Vertices))
	}
	return nil
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Vertices: make([]vec3.T, len(m.Vertices)),
		Faces:    make([][3]uint32, len(m.Faces)),
	}
	copy(c.Vertices, m.Vertices)
	copy(c.Faces, m.Faces)
	if len(m.UVs) > 0 {
		c.UVs = make([]vec2.T, len(m.UVs))
		copy(c.UVs, m.UVs)
	}
	return c
}

// Bounds returns the axis-aligned bounding box of the vertex positions.
func (m *Mesh) Bounds() vec3d.Box {
	bbox := vec3d.MinBox
	for _, v := range m.Vertices {
		bbox.Extend(&vec3d.T{float64(v[0]), float64(v[1]), float64(v[2])})
	}
	return bbox
}

func (m *Mesh) String() string {
	return fmt.Sprintf("mesh(%d vertices, %d faces)", len(m.Vertices), len(m.Faces))
}

// appendTriangulated adds a polygon to faces using a fan around its first
// corner. Polygons with fewer than three corners are dropped.
func appendTriangulated(faces [][3]uint32, poly []uint32) [][3]uint32 {
	for i := 1; i+1 < len(poly); i++ {
		faces = append(faces, [3]uint32{poly[0], poly[i], poly[i+1]})
	}
	return faces
}

func faceNormal(v0, v1, v2 vec3.T) vec3.T {
	e1 := vec3.Sub(&v1, &v0)
	e2 := vec3.Sub(&v2, &v0)
	normal := vec3.Cross(&e1, &e2)

	length := normal.Length()
	if length > 0 {
		return vec3.T{normal[0] / length, normal[1] / length, normal[2] / length}
	}
	return vec3.T{0, 1, 0}
}

// vertexNormals averages the area-weighted face normals around each vertex.
func vertexNormals(m *Mesh) []vec3.T {
	normals := make([]vec3.T, len(m.Vertices))
	for _, f := range m.Faces {
		v0, v1, v2 := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		e1 := vec3.Sub(&v1, &v0)
		e2 := vec3.Sub(&v2, &v0)
		n := vec3.Cross(&e1, &e2)
		for _, idx := range f {
			normals[idx][0] += n[0]
			normals[idx][1] += n[1]
			normals[idx][2] += n[2]
		}
	}
	for i, n := range normals {
		length := n.Length()
		if length > 0 {
			normals[i] = vec3.T{n[0] / length, n[1] / length, n[2] / length}
		} else {
			normals[i] = vec3.T{0, 1, 0}
		}
	}
	return normals
}
