package geompack

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	OBJ     = "obj"
	STL     = "stl"
	GLTF    = "gltf"
	GLB     = "glb"
	THREEDS = "3ds"
	FBX     = "fbx"
	TBIN    = "tbin"
	MST     = "mst"
	DAE     = "dae"
)

type FormatLoader interface {
	Load(path string) (*Mesh, error)
}

type FormatSaver interface {
	Save(mesh *Mesh, path string) error
}

func LoaderFactory(format string) FormatLoader {
	switch format {
	case OBJ:
		return &ObjFormat{}
	case STL:
		return &StlFormat{}
	case GLTF, GLB:
		return &GltfFormat{}
	case THREEDS:
		return &ThreeDsFormat{}
	case FBX:
		return &FbxFormat{}
	case TBIN:
		return &ThreejsBinFormat{}
	case DAE:
		return &DaeFormat{}
	}
	return nil
}

func SaverFactory(format string) FormatSaver {
	switch format {
	case OBJ:
		return &ObjFormat{}
	case STL:
		return &StlFormat{}
	case GLTF, GLB:
		return &GltfFormat{}
	case MST:
		return &MstFormat{}
	}
	return nil
}

// FormatOf returns the lower-case format name implied by the file extension.
func FormatOf(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	ext = strings.TrimPrefix(ext, ".")
	if ext == "bin" && strings.HasSuffix(strings.ToLower(path), ".js.bin") {
		return TBIN
	}
	return ext
}

// LoadMesh reads a mesh using the loader registered for the file extension.
func LoadMesh(path string) (*Mesh, error) {
	format := FormatOf(path)
	loader := LoaderFactory(format)
	if loader == nil {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "cannot load %q", format)
	}
	mesh, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	if err := mesh.Validate(); err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return mesh, nil
}

// SaveMesh writes a mesh using the saver registered for the file extension.
func SaveMesh(mesh *Mesh, path string) error {
	format := FormatOf(path)
	saver := SaverFactory(format)
	if saver == nil {
		return errors.Wrapf(ErrUnsupportedFormat, "cannot save %q", format)
	}
	if err := mesh.Validate(); err != nil {
		return errors.Wrapf(err, "saving %s", path)
	}
	return saver.Save(mesh, path)
}
