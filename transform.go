package geompack

import (
	"github.com/flywave/go3d/vec3"
)

// Center returns a copy of the mesh translated so that its bounding-box
// centre sits at the origin, together with the original centre.
func Center(m *Mesh) (*Mesh, [3]float64) {
	box := m.Bounds()
	center := [3]float64{
		(box.Min[0] + box.Max[0]) / 2,
		(box.Min[1] + box.Max[1]) / 2,
		(box.Min[2] + box.Max[2]) / 2,
	}
	return Translate(m, -center[0], -center[1], -center[2]), center
}

// Translate returns a copy of the mesh moved by (dx, dy, dz).
func Translate(m *Mesh, dx, dy, dz float64) *Mesh {
	out := m.Clone()
	for i, v := range out.Vertices {
		out.Vertices[i] = vec3.T{
			float32(float64(v[0]) + dx),
			float32(float64(v[1]) + dy),
			float32(float64(v[2]) + dz),
		}
	}
	return out
}
