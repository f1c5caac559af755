package geompack

import (
	"math"
	"os"
	"strconv"
	"strings"

	dae "github.com/flywave/go-collada"
	dmat "github.com/flywave/go3d/float64/mat4"
	"github.com/flywave/go3d/float64/quaternion"
	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/pkg/errors"
)

// DaeFormat loads COLLADA documents. Geometry instanced by the top level
// scene nodes is moved into world space and merged. A document without a
// visual scene contributes each of its geometries untransformed.
type DaeFormat struct{}

func (cv *DaeFormat) Load(path string) (*Mesh, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	doc, err := dae.LoadDocumentFromReader(file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading dae %s", path)
	}
	mesh, err := FromCollada(doc)
	if err != nil {
		return nil, errors.Wrapf(err, "reading dae %s", path)
	}
	return mesh, nil
}

func FromCollada(doc *dae.Collada) (*Mesh, error) {
	geometries := make(map[string]*dae.Geometry)
	var order []string
	for _, lib := range doc.LibraryGeometries {
		for _, geo := range lib.Geometry {
			id := string(geo.Id)
			geometries[id] = geo
			order = append(order, id)
		}
	}

	b := &daeBuilder{}
	instanced := false
	for _, lib := range doc.LibraryVisualScenes {
		for _, vs := range lib.VisualScene {
			for _, nd := range vs.Node {
				mat := nodeTransform(nd)
				for _, g := range nd.InstanceGeometry {
					id := g.Url.GetId()
					geo, ok := geometries[id]
					if !ok {
						return nil, errors.Wrapf(ErrInvalidMesh, "node %s instances unknown geometry %s", string(nd.Id), id)
					}
					instanced = true
					if err := b.addGeometry(geo, &mat); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	if !instanced {
		ident := dmat.Ident
		for _, id := range order {
			if err := b.addGeometry(geometries[id], &ident); err != nil {
				return nil, err
			}
		}
	}
	return b.mesh(), nil
}

type daeBuilder struct {
	vertices []vec3.T
	uvs      []vec2.T
	faces    [][3]uint32
	withUV   bool

	remap map[[2]int]uint32
}

func (b *daeBuilder) mesh() *Mesh {
	m := &Mesh{Vertices: b.vertices, Faces: b.faces}
	if b.withUV {
		m.UVs = b.uvs
	}
	return m
}

func (b *daeBuilder) addGeometry(geo *dae.Geometry, mat *dmat.T) error {
	mh := geo.Mesh
	if mh == nil {
		return nil
	}
	sources := make(map[string]*dae.Source)
	for _, src := range mh.Source {
		sources[string(src.Id)] = src
	}

	var positions []vec3.T
	for _, in := range mh.Vertices.Input {
		if in.Semantic != "POSITION" {
			continue
		}
		var err error
		if positions, err = readPositions(sources, in.Source.GetId(), mat); err != nil {
			return errors.Wrapf(err, "geometry %s", string(geo.Id))
		}
	}
	if positions == nil {
		return errors.Wrapf(ErrInvalidMesh, "geometry %s has no positions", string(geo.Id))
	}

	// corners are shared only within one instance of one geometry
	b.remap = make(map[[2]int]uint32)

	for _, p := range mh.Polylist {
		counts, err := parseInts(p.VCount.ToSlice())
		if err != nil {
			return errors.Wrapf(err, "geometry %s vcount", string(geo.Id))
		}
		if err := b.addPrimitive(p.Input, p.P.ToSlice(), counts, positions, sources); err != nil {
			return errors.Wrapf(err, "geometry %s", string(geo.Id))
		}
	}
	for _, t := range mh.Triangles {
		var trg dae.Trig = t
		counts := make([]int, int(trg.GetCount()))
		for i := range counts {
			counts[i] = 3
		}
		if err := b.addPrimitive(trg.GetSharedInput(), trg.GetP().ToSlice(), counts, positions, sources); err != nil {
			return errors.Wrapf(err, "geometry %s", string(geo.Id))
		}
	}
	return nil
}

// addPrimitive walks the interleaved index list of a polylist or triangles
// element. Polygons are fan triangulated.
func (b *daeBuilder) addPrimitive(inputs []*dae.InputShared, p []string, counts []int, positions []vec3.T, sources map[string]*dae.Source) error {
	stride, vOff, tOff := 0, -1, -1
	var texcoords []vec2.T
	for _, in := range inputs {
		off := int(in.Offset)
		if off+1 > stride {
			stride = off + 1
		}
		switch in.Semantic {
		case "VERTEX":
			vOff = off
		case "TEXCOORD":
			if tOff >= 0 {
				continue
			}
			var err error
			if texcoords, err = readTexCoords(sources, in.Source.GetId()); err != nil {
				return err
			}
			tOff = off
		}
	}
	if vOff < 0 {
		return errors.Wrap(ErrInvalidMesh, "primitive has no VERTEX input")
	}
	if tOff >= 0 {
		b.withUV = true
	}

	idx, err := parseInts(p)
	if err != nil {
		return err
	}
	corner := 0
	for fi, n := range counts {
		if (corner+n)*stride > len(idx) {
			return errors.Wrapf(ErrInvalidMesh, "polygon %d runs past the index list", fi)
		}
		poly := make([]uint32, 0, n)
		for k := 0; k < n; k++ {
			base := (corner + k) * stride
			v, t := idx[base+vOff], -1
			if v < 0 || v >= len(positions) {
				return errors.Wrapf(ErrInvalidMesh, "polygon %d references vertex %d of %d", fi, v, len(positions))
			}
			if tOff >= 0 {
				t = idx[base+tOff]
				if t < 0 || t >= len(texcoords) {
					return errors.Wrapf(ErrInvalidMesh, "polygon %d references texcoord %d of %d", fi, t, len(texcoords))
				}
			}
			poly = append(poly, b.vertex(v, t, positions, texcoords))
		}
		corner += n
		b.faces = appendTriangulated(b.faces, poly)
	}
	return nil
}

func (b *daeBuilder) vertex(v, t int, positions []vec3.T, texcoords []vec2.T) uint32 {
	key := [2]int{v, t}
	if idx, ok := b.remap[key]; ok {
		return idx
	}
	idx := uint32(len(b.vertices))
	b.remap[key] = idx
	b.vertices = append(b.vertices, positions[v])
	if t >= 0 {
		b.uvs = append(b.uvs, texcoords[t])
	} else {
		b.uvs = append(b.uvs, vec2.T{})
	}
	return idx
}

func readFloats(sources map[string]*dae.Source, id string, size int) ([]float64, int, error) {
	src, ok := sources[id]
	if !ok {
		return nil, 0, errors.Wrapf(ErrInvalidMesh, "unknown source %s", id)
	}
	stride := src.TechniqueCommon.Accessor.Stride
	if stride < size {
		return nil, 0, errors.Wrapf(ErrInvalidMesh, "source %s has stride %d", id, stride)
	}
	fields := src.FloatArray.ToSlice()
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, 0, errors.Wrapf(ErrInvalidMesh, "source %s: %v", id, err)
		}
		vals[i] = v
	}
	return vals, stride, nil
}

func readPositions(sources map[string]*dae.Source, id string, mat *dmat.T) ([]vec3.T, error) {
	vals, stride, err := readFloats(sources, id, 3)
	if err != nil {
		return nil, err
	}
	out := make([]vec3.T, 0, len(vals)/stride)
	for i := 0; i+stride <= len(vals); i += stride {
		p := mat.MulVec3(&dvec3.T{vals[i], vals[i+1], vals[i+2]})
		out = append(out, vec3.T{float32(p[0]), float32(p[1]), float32(p[2])})
	}
	return out, nil
}

func readTexCoords(sources map[string]*dae.Source, id string) ([]vec2.T, error) {
	vals, stride, err := readFloats(sources, id, 2)
	if err != nil {
		return nil, err
	}
	out := make([]vec2.T, 0, len(vals)/stride)
	for i := 0; i+stride <= len(vals); i += stride {
		out = append(out, vec2.T{float32(vals[i]), float32(vals[i+1])})
	}
	return out, nil
}

func parseInts(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidMesh, "index %q", f)
		}
		out[i] = v
	}
	return out, nil
}

func parseVector(fields []string, out []float64) {
	for i, f := range fields {
		if i >= len(out) {
			break
		}
		out[i], _ = strconv.ParseFloat(strings.TrimSpace(f), 64)
	}
}

// nodeTransform composes the node's local matrix. Matrix elements take
// precedence; otherwise translate, rotate and scale apply as T * R * S.
func nodeTransform(nd *dae.Node) dmat.T {
	mat := dmat.Ident
	if len(nd.Matrix) > 0 {
		for _, m := range nd.Matrix {
			var ay [16]float64
			parseVector(m.ToSlice(), ay[:])
			local := dmat.FromArray(ay)
			local.Transpose()
			var next dmat.T
			next.AssignMul(&mat, &local)
			mat = next
		}
		return mat
	}

	for _, t := range nd.Translate {
		var v [3]float64
		parseVector(t.ToSlice(), v[:])
		mat.Translate(&dvec3.T{v[0], v[1], v[2]})
	}
	for _, r := range nd.Rotate {
		var v [4]float64
		parseVector(r.ToSlice(), v[:])
		axis := dvec3.T{v[0], v[1], v[2]}
		if axis.Length() == 0 {
			continue
		}
		axis.Normalize()
		q := quaternion.FromAxisAngle(&axis, v[3]*math.Pi/180)
		var rot, next dmat.T
		rot.AssignQuaternion(&q)
		next.AssignMul(&mat, &rot)
		mat = next
	}
	for _, s := range nd.Scale {
		v := [3]float64{1, 1, 1}
		parseVector(s.ToSlice(), v[:])
		scale := dmat.Ident
		scale.ScaleVec3(&dvec3.T{v[0], v[1], v[2]})
		var next dmat.T
		next.AssignMul(&mat, &scale)
		mat = next
	}
	return mat
}

var _ FormatLoader = (*DaeFormat)(nil)
