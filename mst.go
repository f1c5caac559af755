package geompack

import (
	"os"

	mst "github.com/flywave/go-mst"
)

// MstFormat saves meshes as flywave MST containers.
type MstFormat struct{}

func (cv *MstFormat) Save(mesh *Mesh, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	mst.MeshMarshal(f, ToMst(mesh))
	return f.Close()
}

// ToMst wraps the mesh in a single node and face group with a default grey
// material. Normals are recomputed by the container.
func ToMst(mesh *Mesh) *mst.Mesh {
	out := mst.NewMesh()
	out.Materials = append(out.Materials, &mst.BaseMaterial{
		Color: [3]byte{200, 200, 200},
	})

	node := &mst.MeshNode{}
	node.Vertices = append(node.Vertices, mesh.Vertices...)
	if mesh.HasUVs() {
		node.TexCoords = append(node.TexCoords, mesh.UVs...)
	}

	group := &mst.MeshTriangle{Batchid: 0}
	for _, f := range mesh.Faces {
		group.Faces = append(group.Faces, &mst.Face{Vertex: f})
	}
	node.FaceGroup = append(node.FaceGroup, group)
	node.ReComputeNormal()

	out.Nodes = append(out.Nodes, node)
	return out
}

// FromMst flattens every node of an MST container into one mesh. Instanced
// geometry is ignored. UVs are kept only when every node carries them.
func FromMst(m *mst.Mesh) *Mesh {
	mesh := NewMesh()
	withUV := len(m.Nodes) > 0
	for _, nd := range m.Nodes {
		if nd == nil || len(nd.TexCoords) != len(nd.Vertices) {
			withUV = false
		}
	}

	for _, nd := range m.Nodes {
		if nd == nil {
			continue
		}
		base := uint32(len(mesh.Vertices))
		n := uint32(len(nd.Vertices))
		mesh.Vertices = append(mesh.Vertices, nd.Vertices...)
		if withUV {
			mesh.UVs = append(mesh.UVs, nd.TexCoords...)
		}
		for _, fg := range nd.FaceGroup {
			for _, f := range fg.Faces {
				if f.Vertex[0] >= n || f.Vertex[1] >= n || f.Vertex[2] >= n {
					continue
				}
				mesh.Faces = append(mesh.Faces, [3]uint32{
					base + f.Vertex[0], base + f.Vertex[1], base + f.Vertex[2],
				})
			}
		}
	}
	return mesh
}

var _ FormatSaver = (*MstFormat)(nil)
