package geompack

import (
	"os"

	tds "github.com/flywave/go-3ds"
	dmat "github.com/flywave/go3d/float64/mat4"
	dvec3 "github.com/flywave/go3d/float64/vec3"
	dvec4 "github.com/flywave/go3d/float64/vec4"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/pkg/errors"
)

// ThreeDsFormat loads Autodesk 3DS files. Every mesh chunk is baked with its
// local matrix and merged into one surface.
type ThreeDsFormat struct{}

func (cv *ThreeDsFormat) Load(path string) (*Mesh, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	f := tds.OpenFile(path)
	mhs := f.GetMeshs()
	if len(mhs) == 0 {
		return nil, errors.Wrapf(ErrEmptyMesh, "reading 3ds %s", path)
	}

	mesh := NewMesh()
	anyUV := false
	for i := range mhs {
		if len(mhs[i].Texcos) > 0 {
			anyUV = true
		}
	}
	for i := range mhs {
		cv.appendMesh(mesh, &mhs[i], anyUV)
	}
	return mesh, nil
}

func (cv *ThreeDsFormat) appendMesh(mesh *Mesh, m *tds.Mesh, withUV bool) {
	mat := dmat.Ident
	for i, row := range m.Matrix {
		mat[i] = dvec4.T{float64(row[0]), float64(row[1]), float64(row[2]), float64(row[3])}
	}

	base := uint32(len(mesh.Vertices))
	for _, v := range m.Vertices {
		vt := &dvec3.T{float64(v[0]), float64(v[1]), float64(v[2])}
		*vt = mat.MulVec3(vt)
		mesh.Vertices = append(mesh.Vertices, vec3.T{float32(vt[0]), float32(vt[1]), float32(vt[2])})
	}

	if withUV {
		for i := range m.Vertices {
			var t vec2.T
			if i < len(m.Texcos) {
				t = vec2.T{float32(m.Texcos[i][0]), float32(m.Texcos[i][1])}
			}
			mesh.UVs = append(mesh.UVs, t)
		}
	}

	n := uint32(len(m.Vertices))
	for _, f := range m.Faces {
		face := [3]uint32{uint32(f.Index[0]), uint32(f.Index[1]), uint32(f.Index[2])}
		if face[0] >= n || face[1] >= n || face[2] >= n {
			continue
		}
		mesh.Faces = append(mesh.Faces, [3]uint32{base + face[0], base + face[1], base + face[2]})
	}
}

var _ FormatLoader = (*ThreeDsFormat)(nil)
