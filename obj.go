package geompack

import (
	"bufio"
	"io"
	"os"
	"strconv"

	gobj "github.com/flywave/go-obj"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/pkg/errors"
)

// ObjFormat reads and writes Wavefront OBJ, the interchange format handed
// to external tools.
type ObjFormat struct{}

func (obj *ObjFormat) Load(path string) (*Mesh, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	mesh, err := ReadObj(file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading obj %s", path)
	}
	return mesh, nil
}

func (obj *ObjFormat) Save(mesh *Mesh, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteObj(file, mesh); err != nil {
		file.Close()
		return errors.Wrapf(err, "writing obj %s", path)
	}
	return file.Close()
}

// ReadObj parses an OBJ stream. Polygons are fan triangulated. When the file
// carries texture coordinates, a vertex is emitted per distinct
// (position, uv) pair so that UVs end up per vertex.
func ReadObj(r io.Reader) (*Mesh, error) {
	reader := &gobj.ObjReader{}
	if err := reader.Read(r); err != nil {
		return nil, err
	}

	useUV := false
	if len(reader.VT) > 0 {
	scan:
		for _, f := range reader.F {
			for _, c := range f.Corners {
				if c.TexcoordIndex >= 0 {
					useUV = true
					break scan
				}
			}
		}
	}
	mesh := NewMesh()

	if !useUV {
		mesh.Vertices = make([]vec3.T, len(reader.V))
		copy(mesh.Vertices, reader.V)
	}

	type corner struct{ v, t int }
	remap := make(map[corner]uint32)

	for fi, face := range reader.F {
		if len(face.Corners) < 3 {
			continue
		}
		poly := make([]uint32, 0, len(face.Corners))
		for _, c := range face.Corners {
			if c.VertexIndex < 0 || c.VertexIndex >= len(reader.V) {
				return nil, errors.Wrapf(ErrInvalidMesh, "face %d references vertex %d of %d", fi, c.VertexIndex, len(reader.V))
			}
			if !useUV {
				poly = append(poly, uint32(c.VertexIndex))
				continue
			}
			key := corner{c.VertexIndex, c.TexcoordIndex}
			idx, ok := remap[key]
			if !ok {
				idx = uint32(len(mesh.Vertices))
				remap[key] = idx
				mesh.Vertices = append(mesh.Vertices, reader.V[c.VertexIndex])
				if c.TexcoordIndex >= 0 && c.TexcoordIndex < len(reader.VT) {
					mesh.UVs = append(mesh.UVs, reader.VT[c.TexcoordIndex])
				} else {
					mesh.UVs = append(mesh.UVs, vec2.T{0, 0})
				}
			}
			poly = append(poly, idx)
		}
		mesh.Faces = appendTriangulated(mesh.Faces, poly)
	}
	return mesh, nil
}

// WriteObj serialises the mesh as OBJ with 1-based indices. Texture
// coordinates are written when the mesh has UVs.
func WriteObj(w io.Writer, mesh *Mesh) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 64)

	for _, v := range mesh.Vertices {
		buf = append(buf[:0], 'v')
		for _, c := range v {
			buf = append(buf, ' ')
			buf = strconv.AppendFloat(buf, float64(c), 'g', -1, 32)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}

	uv := mesh.HasUVs()
	for _, t := range mesh.UVs {
		buf = append(buf[:0], "vt "...)
		buf = strconv.AppendFloat(buf, float64(t[0]), 'g', -1, 32)
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, float64(t[1]), 'g', -1, 32)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}

	for _, f := range mesh.Faces {
		buf = append(buf[:0], 'f')
		for _, idx := range f {
			buf = append(buf, ' ')
			buf = strconv.AppendUint(buf, uint64(idx)+1, 10)
			if uv {
				buf = append(buf, '/')
				buf = strconv.AppendUint(buf, uint64(idx)+1, 10)
			}
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

var _ FormatLoader = (*ObjFormat)(nil)
var _ FormatSaver = (*ObjFormat)(nil)
