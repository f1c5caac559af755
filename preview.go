package geompack

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const (
	ViewerThree = "three"
	ViewerVTK   = "vtk"
)

// PreviewInfo is the metadata handed to the browser viewer widgets.
type PreviewInfo struct {
	MeshFile    string     `json:"mesh_file"`
	Viewer      string     `json:"viewer"`
	VertexCount int        `json:"vertex_count"`
	FaceCount   int        `json:"face_count"`
	BoundsMin   [3]float64 `json:"bounds_min"`
	BoundsMax   [3]float64 `json:"bounds_max"`
	Extents     [3]float64 `json:"extents"`
	MaxExtent   float64    `json:"max_extent"`
}

// Preview exports the mesh into dir under a unique name for the given viewer:
// GLB for the three.js viewer, STL for the VTK viewer. If that export fails
// the mesh is written as OBJ instead.
func Preview(mesh *Mesh, dir, viewer string) (*PreviewInfo, error) {
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]

	var name string
	var saver FormatSaver
	switch viewer {
	case ViewerThree, "":
		viewer = ViewerThree
		name = "preview_" + id + ".glb"
		saver = &GltfFormat{}
	case ViewerVTK:
		name = "preview_vtk_" + id + ".stl"
		saver = &StlFormat{}
	default:
		return nil, errors.Errorf("unknown viewer %q", viewer)
	}

	if err := saver.Save(mesh, filepath.Join(dir, name)); err != nil {
		if rerr := os.Remove(filepath.Join(dir, name)); rerr != nil && !os.IsNotExist(rerr) {
			return nil, errors.Wrap(multierr.Append(err, rerr), "exporting preview")
		}
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".obj"
		if err := (&ObjFormat{}).Save(mesh, filepath.Join(dir, name)); err != nil {
			return nil, errors.Wrap(err, "exporting preview")
		}
	}

	info := Analyze(mesh)
	return &PreviewInfo{
		MeshFile:    name,
		Viewer:      viewer,
		VertexCount: info.Vertices,
		FaceCount:   info.Faces,
		BoundsMin:   info.BoundsMin,
		BoundsMax:   info.BoundsMax,
		Extents:     info.Extents,
		MaxExtent:   info.MaxExtent,
	}, nil
}
