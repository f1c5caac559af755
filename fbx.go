package geompack

import (
	"math"
	"os"

	mat4d "github.com/flywave/go3d/float64/mat4"
	vec3d "github.com/flywave/go3d/float64/vec3"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	fbx "github.com/flywave/ofbx"
	"github.com/pkg/errors"
)

// FbxFormat loads FBX scenes. Geometry of every mesh is moved into world
// space with its global matrix and merged.
type FbxFormat struct{}

func (cv *FbxFormat) Load(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scene, err := fbx.Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading fbx %s", path)
	}

	mesh := NewMesh()
	withUV := false
	for _, mh := range scene.Meshes {
		g := mh.Geometry
		if g != nil && len(g.UVs[0]) > 0 && len(g.UVs[0]) == len(g.Vertices) {
			withUV = true
		}
	}
	for _, mh := range scene.Meshes {
		if mh.Geometry == nil {
			continue
		}
		cv.appendMesh(mesh, mh, withUV)
	}
	return mesh, nil
}

func (cv *FbxFormat) appendMesh(mesh *Mesh, mh *fbx.Mesh, withUV bool) {
	g := mh.Geometry
	mtx := fbx.GetGlobalMatrix(mh)
	matrix := mat4d.FromArray(mtx.ToArray())

	base := uint32(len(mesh.Vertices))
	points := make([]vec3d.T, len(g.Vertices))
	for i, v := range g.Vertices {
		points[i] = matrix.MulVec3(&vec3d.T{float64(v[0]), float64(v[1]), float64(v[2])})
		mesh.Vertices = append(mesh.Vertices, vec3.T{float32(points[i][0]), float32(points[i][1]), float32(points[i][2])})
	}

	if withUV {
		uvs := g.UVs[0]
		for i := range g.Vertices {
			var t vec2.T
			if len(uvs) == len(g.Vertices) {
				t = vec2.T{float32(uvs[i][0]), float32(uvs[i][1])}
			}
			mesh.UVs = append(mesh.UVs, t)
		}
	}

	n := len(g.Vertices)
	for _, face := range g.Faces {
		valid := len(face) >= 3
		for _, idx := range face {
			if idx < 0 || idx >= n {
				valid = false
			}
		}
		if !valid {
			continue
		}
		for _, tri := range splitPolygon(face, points) {
			mesh.Faces = append(mesh.Faces, [3]uint32{
				base + uint32(tri[0]), base + uint32(tri[1]), base + uint32(tri[2]),
			})
		}
	}
}

// splitPolygon triangulates a face. Quads are cut along their shorter
// diagonal; other polygons use a fan.
func splitPolygon(face []int, points []vec3d.T) [][3]int {
	switch len(face) {
	case 3:
		return [][3]int{{face[0], face[1], face[2]}}
	case 4:
		if distance(&points[face[0]], &points[face[2]]) <= distance(&points[face[1]], &points[face[3]]) {
			return [][3]int{{face[0], face[1], face[2]}, {face[0], face[2], face[3]}}
		}
		return [][3]int{{face[0], face[1], face[3]}, {face[1], face[2], face[3]}}
	}
	tris := make([][3]int, 0, len(face)-2)
	for i := 1; i+1 < len(face); i++ {
		tris = append(tris, [3]int{face[0], face[i], face[i+1]})
	}
	return tris
}

func distance(a, b *vec3d.T) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

var _ FormatLoader = (*FbxFormat)(nil)
