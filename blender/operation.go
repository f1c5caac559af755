package blender

import (
	"github.com/pkg/errors"
)

type Kind int

const (
	KindUVUnwrap Kind = iota + 1
	KindVoxelRemesh
	KindQuadRemesh
)

func (k Kind) String() string {
	switch k {
	case KindUVUnwrap:
		return "uv-unwrap"
	case KindVoxelRemesh:
		return "voxel-remesh"
	case KindQuadRemesh:
		return "quad-remesh"
	}
	return "unknown"
}

// ParseKind maps a command name such as "voxel-remesh" to its Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "uv-unwrap", "unwrap":
		return KindUVUnwrap, nil
	case "voxel-remesh":
		return KindVoxelRemesh, nil
	case "quad-remesh":
		return KindQuadRemesh, nil
	}
	return 0, errors.Errorf("unknown operation %q", name)
}

// Operation is one of UVUnwrap, VoxelRemesh or QuadRemesh.
type Operation interface {
	Kind() Kind
	Validate() error
	script(input, output string) (string, error)
}

const (
	MinAngleLimit = 1.0
	MaxAngleLimit = 89.0
	MinMargin     = 0.0
	MaxMargin     = 1.0
	MinVoxelSize  = 0.001
	MaxVoxelSize  = 1.0
	MinFaces      = 100
	MaxFaces      = 100000
)

// UVUnwrap runs a smart UV projection. AngleLimit is in degrees.
type UVUnwrap struct {
	AngleLimit   float64
	IslandMargin float64
}

func NewUVUnwrap() *UVUnwrap {
	return &UVUnwrap{AngleLimit: 66, IslandMargin: 0.02}
}

func (*UVUnwrap) Kind() Kind { return KindUVUnwrap }

func (op *UVUnwrap) Validate() error {
	if op == nil {
		return nilOperation(KindUVUnwrap)
	}
	if err := checkRange(op.Kind(), "angle_limit", op.AngleLimit, MinAngleLimit, MaxAngleLimit); err != nil {
		return err
	}
	return checkRange(op.Kind(), "island_margin", op.IslandMargin, MinMargin, MaxMargin)
}

// VoxelRemesh rebuilds the surface on a uniform voxel grid.
type VoxelRemesh struct {
	VoxelSize float64
}

func NewVoxelRemesh() *VoxelRemesh {
	return &VoxelRemesh{VoxelSize: 0.05}
}

func (*VoxelRemesh) Kind() Kind { return KindVoxelRemesh }

func (op *VoxelRemesh) Validate() error {
	if op == nil {
		return nilOperation(KindVoxelRemesh)
	}
	return checkRange(op.Kind(), "voxel_size", op.VoxelSize, MinVoxelSize, MaxVoxelSize)
}

// QuadRemesh runs QuadriFlow towards TargetFaces faces.
type QuadRemesh struct {
	TargetFaces int
}

func NewQuadRemesh() *QuadRemesh {
	return &QuadRemesh{TargetFaces: 5000}
}

func (*QuadRemesh) Kind() Kind { return KindQuadRemesh }

func (op *QuadRemesh) Validate() error {
	if op == nil {
		return nilOperation(KindQuadRemesh)
	}
	return checkRange(op.Kind(), "target_faces", float64(op.TargetFaces), MinFaces, MaxFaces)
}

func nilOperation(kind Kind) error {
	return &ParameterError{Operation: kind.String(), Err: errors.New("nil operation")}
}

func checkRange(kind Kind, name string, v, min, max float64) error {
	// NaN fails both comparisons.
	if !(v >= min && v <= max) {
		return &ParameterError{Operation: kind.String(), Name: name, Value: v, Min: min, Max: max}
	}
	return nil
}
