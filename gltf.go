package geompack

import (
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// GltfFormat loads glTF and GLB documents and saves binary GLB, the format
// the three.js preview widget consumes.
type GltfFormat struct{}

// Load merges the triangle primitives of every mesh in the document. Node
// transforms are not applied.
func (g *GltfFormat) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading gltf %s", path)
	}
	mesh, err := FromGltf(doc)
	if err != nil {
		return nil, errors.Wrapf(err, "converting gltf %s", path)
	}
	return mesh, nil
}

func (g *GltfFormat) Save(mesh *Mesh, path string) error {
	doc := ToGltf(mesh, "geompack")
	if err := gltf.SaveBinary(doc, path); err != nil {
		return errors.Wrapf(err, "writing glb %s", path)
	}
	return nil
}

func FromGltf(doc *gltf.Document) (*Mesh, error) {
	mesh := NewMesh()
	anyUV := false

	for _, mh := range doc.Meshes {
		for _, ps := range mh.Primitives {
			if ps.Mode != gltf.PrimitiveTriangles {
				continue
			}
			posIdx, ok := ps.Attributes[gltf.POSITION]
			if !ok {
				continue
			}
			positions, err := modeler.ReadPosition(doc, doc.Accessors[int(posIdx)], nil)
			if err != nil {
				return nil, err
			}
			base := uint32(len(mesh.Vertices))
			for _, p := range positions {
				mesh.Vertices = append(mesh.Vertices, vec3.T{p[0], p[1], p[2]})
			}

			if uvIdx, ok := ps.Attributes[gltf.TEXCOORD_0]; ok {
				uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[int(uvIdx)], nil)
				if err != nil {
					return nil, err
				}
				for i := range positions {
					var t vec2.T
					if i < len(uvs) {
						t = vec2.T{uvs[i][0], uvs[i][1]}
					}
					mesh.UVs = append(mesh.UVs, t)
				}
				anyUV = true
			} else {
				mesh.UVs = append(mesh.UVs, make([]vec2.T, len(positions))...)
			}

			var indices []uint32
			if ps.Indices != nil {
				indices, err = modeler.ReadIndices(doc, doc.Accessors[int(*ps.Indices)], nil)
				if err != nil {
					return nil, err
				}
			} else {
				indices = make([]uint32, len(positions))
				for i := range indices {
					indices[i] = uint32(i)
				}
			}
			for i := 0; i+2 < len(indices); i += 3 {
				mesh.Faces = append(mesh.Faces, [3]uint32{
					base + indices[i], base + indices[i+1], base + indices[i+2],
				})
			}
		}
	}

	if !anyUV {
		mesh.UVs = nil
	}
	return mesh, nil
}

// ToGltf builds a single-node document holding the mesh with positions,
// smooth normals, indices and, when present, the first UV set.
func ToGltf(mesh *Mesh, name string) *gltf.Document {
	doc := gltf.NewDocument()

	positions := make([][3]float32, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		positions[i] = [3]float32(v)
	}
	normals := make([][3]float32, len(mesh.Vertices))
	for i, n := range vertexNormals(mesh) {
		normals[i] = [3]float32(n)
	}
	indices := make([]uint32, 0, len(mesh.Faces)*3)
	for _, f := range mesh.Faces {
		indices = append(indices, f[0], f[1], f[2])
	}

	attrs := map[string]uint32{
		gltf.POSITION: modeler.WritePosition(doc, positions),
		gltf.NORMAL:   modeler.WriteNormal(doc, normals),
	}
	if mesh.HasUVs() {
		uvs := make([][2]float32, len(mesh.UVs))
		for i, t := range mesh.UVs {
			uvs[i] = [2]float32(t)
		}
		attrs[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, uvs)
	}

	doc.Meshes = []*gltf.Mesh{{
		Name: name,
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(modeler.WriteIndices(doc, indices)),
			Attributes: attrs,
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc
}

var _ FormatLoader = (*GltfFormat)(nil)
var _ FormatSaver = (*GltfFormat)(nil)
