package geompack

import (
	"path/filepath"
	"testing"

	"github.com/hschendel/stl"
)

func TestFromSolidWeldsVertices(t *testing.T) {
	testSolid := &stl.Solid{
		Name: "TestQuad",
		Triangles: []stl.Triangle{
			{
				Normal:   stl.Vec3{0, 0, 1},
				Vertices: [3]stl.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			},
			{
				Normal:   stl.Vec3{0, 0, 1},
				Vertices: [3]stl.Vec3{{1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
			},
		},
	}

	mesh := FromSolid(testSolid)
	if mesh.VertexCount() != 4 {
		t.Errorf("expected 4 vertices, got %d", mesh.VertexCount())
	}
	if mesh.FaceCount() != 2 {
		t.Fatalf("expected 2 faces, got %d", mesh.FaceCount())
	}
	if mesh.Faces[1] != [3]uint32{1, 3, 2} {
		t.Errorf("face 1 = %v, expected [1 3 2]", mesh.Faces[1])
	}
	if err := mesh.Validate(); err != nil {
		t.Errorf("welded mesh invalid: %v", err)
	}
}

func TestToSolidNormals(t *testing.T) {
	solid := ToSolid(triangle())
	if len(solid.Triangles) != 1 {
		t.Fatalf("expected 1 triangle, got %d", len(solid.Triangles))
	}
	if n := solid.Triangles[0].Normal; n != (stl.Vec3{0, 0, 1}) {
		t.Errorf("normal = %v, expected [0 0 1]", n)
	}
}

func TestStlRoundTrip(t *testing.T) {
	for _, ascii := range []bool{false, true} {
		path := filepath.Join(t.TempDir(), "cube.stl")
		cube := CreateCube(1)

		if err := (&StlFormat{Ascii: ascii}).Save(cube, path); err != nil {
			t.Fatalf("save (ascii=%v) failed: %v", ascii, err)
		}
		mesh, err := LoadMesh(path)
		if err != nil {
			t.Fatalf("load (ascii=%v) failed: %v", ascii, err)
		}

		if mesh.VertexCount() != 8 || mesh.FaceCount() != 12 {
			t.Errorf("ascii=%v: got %s, expected 8 vertices and 12 faces", ascii, mesh)
		}
		if !IsWatertight(mesh) {
			t.Errorf("ascii=%v: welded cube should be watertight", ascii)
		}
		for i, f := range mesh.Faces {
			for j := range f {
				want := cube.Vertices[cube.Faces[i][j]]
				if got := mesh.Vertices[f[j]]; got != want {
					t.Errorf("face %d corner %d = %v, expected %v", i, j, got, want)
				}
			}
		}
	}
}
