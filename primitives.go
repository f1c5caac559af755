package geompack

import (
	"math"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// CreateCube returns an axis-aligned cube centred on the origin with 8
// vertices and 12 outward-facing triangles.
func CreateCube(size float32) *Mesh {
	h := size / 2
	return &Mesh{
		Vertices: []vec3.T{
			{-h, -h, -h}, {h, -h, -h}, {h, h, -h}, {-h, h, -h},
			{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h},
		},
		Faces: [][3]uint32{
			{0, 2, 1}, {0, 3, 2}, // -z
			{4, 5, 6}, {4, 6, 7}, // +z
			{0, 1, 5}, {0, 5, 4}, // -y
			{3, 7, 6}, {3, 6, 2}, // +y
			{0, 4, 7}, {0, 7, 3}, // -x
			{1, 2, 6}, {1, 6, 5}, // +x
		},
	}
}

// CreateIcosphere subdivides an icosahedron. Subdivision 0 yields 12
// vertices and 20 faces, each level multiplies the face count by four.
func CreateIcosphere(radius float32, subdivisions int) *Mesh {
	t := float32((1 + math.Sqrt(5)) / 2)
	mesh := &Mesh{
		Vertices: []vec3.T{
			{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
			{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
			{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
		},
		Faces: [][3]uint32{
			{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
			{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
			{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
			{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
		},
	}
	for i := range mesh.Vertices {
		mesh.Vertices[i] = onSphere(mesh.Vertices[i], radius)
	}

	for s := 0; s < subdivisions; s++ {
		midpoints := make(map[[2]uint32]uint32)
		midpoint := func(a, b uint32) uint32 {
			key := [2]uint32{a, b}
			if a > b {
				key = [2]uint32{b, a}
			}
			if idx, ok := midpoints[key]; ok {
				return idx
			}
			va, vb := mesh.Vertices[a], mesh.Vertices[b]
			m := vec3.T{(va[0] + vb[0]) / 2, (va[1] + vb[1]) / 2, (va[2] + vb[2]) / 2}
			idx := uint32(len(mesh.Vertices))
			mesh.Vertices = append(mesh.Vertices, onSphere(m, radius))
			midpoints[key] = idx
			return idx
		}

		faces := make([][3]uint32, 0, len(mesh.Faces)*4)
		for _, f := range mesh.Faces {
			a := midpoint(f[0], f[1])
			b := midpoint(f[1], f[2])
			c := midpoint(f[2], f[0])
			faces = append(faces,
				[3]uint32{f[0], a, c},
				[3]uint32{f[1], b, a},
				[3]uint32{f[2], c, b},
				[3]uint32{a, b, c},
			)
		}
		mesh.Faces = faces
	}
	return mesh
}

func onSphere(v vec3.T, radius float32) vec3.T {
	l := v.Length()
	if l == 0 {
		return v
	}
	s := radius / l
	return vec3.T{v[0] * s, v[1] * s, v[2] * s}
}

// CreatePlane returns a square grid in the XY plane with 2^subdivisions
// cells per side and planar UVs.
func CreatePlane(size float32, subdivisions int) *Mesh {
	if subdivisions < 0 {
		subdivisions = 0
	}
	cells := 1 << subdivisions
	step := size / float32(cells)
	h := size / 2

	mesh := NewMesh()
	for y := 0; y <= cells; y++ {
		for x := 0; x <= cells; x++ {
			mesh.Vertices = append(mesh.Vertices, vec3.T{-h + float32(x)*step, -h + float32(y)*step, 0})
			mesh.UVs = append(mesh.UVs, vec2.T{float32(x) / float32(cells), float32(y) / float32(cells)})
		}
	}
	row := uint32(cells + 1)
	for y := uint32(0); y < uint32(cells); y++ {
		for x := uint32(0); x < uint32(cells); x++ {
			i := y*row + x
			mesh.Faces = append(mesh.Faces,
				[3]uint32{i, i + 1, i + row + 1},
				[3]uint32{i, i + row + 1, i + row},
			)
		}
	}
	return mesh
}
