package geompack

import (
	"github.com/flywave/go3d/vec3"
	"github.com/hschendel/stl"
	"github.com/pkg/errors"
)

// StlFormat reads and writes STL solids. STL stores a triangle soup, so
// coincident corners are welded into shared vertices on load.
type StlFormat struct {
	// Ascii selects the ASCII encoding on save; binary otherwise.
	Ascii bool
}

func (cv *StlFormat) Load(path string) (*Mesh, error) {
	solid, err := stl.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading stl %s", path)
	}
	return FromSolid(solid), nil
}

func (cv *StlFormat) Save(mesh *Mesh, path string) error {
	solid := ToSolid(mesh)
	solid.IsAscii = cv.Ascii
	if err := solid.WriteFile(path); err != nil {
		return errors.Wrapf(err, "writing stl %s", path)
	}
	return nil
}

// FromSolid converts an STL solid into an indexed mesh, merging corners with
// identical positions.
func FromSolid(solid *stl.Solid) *Mesh {
	mesh := NewMesh()
	welded := make(map[vec3.T]uint32)

	for _, triangle := range solid.Triangles {
		var face [3]uint32
		for i, vertex := range triangle.Vertices {
			v := vec3.T{vertex[0], vertex[1], vertex[2]}
			idx, ok := welded[v]
			if !ok {
				idx = uint32(len(mesh.Vertices))
				welded[v] = idx
				mesh.Vertices = append(mesh.Vertices, v)
			}
			face[i] = idx
		}
		mesh.Faces = append(mesh.Faces, face)
	}
	return mesh
}

// ToSolid expands the mesh into STL triangles with flat normals.
func ToSolid(mesh *Mesh) *stl.Solid {
	solid := &stl.Solid{
		Name:      "geompack",
		Triangles: make([]stl.Triangle, 0, len(mesh.Faces)),
	}
	for _, f := range mesh.Faces {
		v0, v1, v2 := mesh.Vertices[f[0]], mesh.Vertices[f[1]], mesh.Vertices[f[2]]
		n := faceNormal(v0, v1, v2)
		solid.Triangles = append(solid.Triangles, stl.Triangle{
			Normal: stl.Vec3{n[0], n[1], n[2]},
			Vertices: [3]stl.Vec3{
				{v0[0], v0[1], v0[2]},
				{v1[0], v1[1], v1[2]},
				{v2[0], v2[1], v2[2]},
			},
		})
	}
	return solid
}

var _ FormatLoader = (*StlFormat)(nil)
var _ FormatSaver = (*StlFormat)(nil)
