package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	geompack "github.com/flywave/go-geompack"
	"github.com/flywave/go-geompack/blender"
	"github.com/flywave/go-geompack/internal/config"
	"github.com/flywave/go-geompack/internal/logger"
	"github.com/flywave/go-geompack/internal/telemetry"
)

type session struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *blender.Metrics
	close   func()
}

// parse parses the shared and command flags and prepares configuration,
// logging and metrics.
func parse(fs *flag.FlagSet, args []string) (*session, error) {
	var flags config.Flags
	flags.Register(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := flags.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, log: logger.Named(fs.Name()), close: logger.Sync}
	if cfg.Metrics.Addr != "" {
		reg, m, err := telemetry.Registry()
		if err != nil {
			return nil, err
		}
		srv := telemetry.Expose(cfg.Metrics.Addr, reg, s.log)
		s.metrics = m
		s.close = func() {
			srv.Close()
			logger.Sync()
		}
		s.log.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr))
	}
	return s, nil
}

func (s *session) bridge() *blender.Bridge {
	return blender.NewWithOptions(s.cfg.BridgeOptions(logger.Log, s.metrics))
}

func (s *session) load(path string) (*geompack.Mesh, error) {
	resolved, err := geompack.ResolveInput(path, s.cfg.IO.InputDir)
	if err != nil {
		return nil, err
	}
	mesh, err := geompack.LoadMesh(resolved)
	if err != nil {
		return nil, err
	}
	s.log.Debug("loaded mesh", zap.String("path", resolved), zap.Stringer("mesh", mesh))
	return mesh, nil
}

func (s *session) save(mesh *geompack.Mesh, path string) error {
	resolved, err := geompack.ResolveOutput(path, s.cfg.IO.OutputDir)
	if err != nil {
		return err
	}
	if err := geompack.SaveMesh(mesh, resolved); err != nil {
		return err
	}
	fmt.Printf("Wrote %s: %d vertices, %d faces\n", resolved, mesh.VertexCount(), mesh.FaceCount())
	return nil
}

func needArgs(fs *flag.FlagSet, n int, usage string) error {
	if fs.NArg() < n {
		return errors.Errorf("usage: geompack %s %s", fs.Name(), usage)
	}
	return nil
}

func cmdInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print the summary as JSON")
	s, err := parse(fs, args)
	if err != nil {
		return err
	}
	defer s.close()
	if err := needArgs(fs, 1, "<mesh>"); err != nil {
		return err
	}

	mesh, err := s.load(fs.Arg(0))
	if err != nil {
		return err
	}
	info := geompack.Analyze(mesh)
	if *asJSON {
		return printJSON(info)
	}
	fmt.Printf("Mesh: %s\n", fs.Arg(0))
	fmt.Println(info.String())
	return nil
}

func cmdConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	s, err := parse(fs, args)
	if err != nil {
		return err
	}
	defer s.close()
	if err := needArgs(fs, 2, "<in> <out>"); err != nil {
		return err
	}

	mesh, err := s.load(fs.Arg(0))
	if err != nil {
		return err
	}
	return s.save(mesh, fs.Arg(1))
}

func cmdCenter(args []string) error {
	fs := flag.NewFlagSet("center", flag.ExitOnError)
	s, err := parse(fs, args)
	if err != nil {
		return err
	}
	defer s.close()
	if err := needArgs(fs, 2, "<in> <out>"); err != nil {
		return err
	}

	mesh, err := s.load(fs.Arg(0))
	if err != nil {
		return err
	}
	centered, c := geompack.Center(mesh)
	fmt.Printf("Original centre: [%.4f, %.4f, %.4f]\n", c[0], c[1], c[2])
	return s.save(centered, fs.Arg(1))
}

func cmdPrimitive(args []string) error {
	fs := flag.NewFlagSet("primitive", flag.ExitOnError)
	shape := fs.String("shape", "cube", "cube, sphere or plane")
	size := fs.Float64("size", 1, "Edge length for cube and plane, radius for sphere")
	subdivisions := fs.Int("subdivisions", 2, "Subdivision level for sphere and plane")
	s, err := parse(fs, args)
	if err != nil {
		return err
	}
	defer s.close()
	if err := needArgs(fs, 1, "[-shape cube|sphere|plane] <out>"); err != nil {
		return err
	}

	var mesh *geompack.Mesh
	switch *shape {
	case "cube":
		mesh = geompack.CreateCube(float32(*size))
	case "sphere", "icosphere":
		mesh = geompack.CreateIcosphere(float32(*size), *subdivisions)
	case "plane":
		mesh = geompack.CreatePlane(float32(*size), *subdivisions)
	default:
		return errors.Errorf("unknown shape %q", *shape)
	}
	return s.save(mesh, fs.Arg(0))
}

// cmdOperation runs the Blender operation the command names.
func cmdOperation(name string, args []string) error {
	kind, err := blender.ParseKind(name)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet(kind.String(), flag.ExitOnError)

	var op blender.Operation
	switch kind {
	case blender.KindUVUnwrap:
		uv := blender.NewUVUnwrap()
		fs.Float64Var(&uv.AngleLimit, "angle", uv.AngleLimit, "Angle limit in degrees (1-89)")
		fs.Float64Var(&uv.IslandMargin, "margin", uv.IslandMargin, "Island margin (0-1)")
		op = uv
	case blender.KindVoxelRemesh:
		voxel := blender.NewVoxelRemesh()
		fs.Float64Var(&voxel.VoxelSize, "voxel-size", voxel.VoxelSize, "Voxel size (0.001-1)")
		op = voxel
	case blender.KindQuadRemesh:
		quad := blender.NewQuadRemesh()
		fs.IntVar(&quad.TargetFaces, "faces", quad.TargetFaces, "Target face count (100-100000)")
		op = quad
	default:
		return errors.Errorf("no command for operation %s", kind)
	}
	return runOperation(fs, args, op)
}

func runOperation(fs *flag.FlagSet, args []string, op blender.Operation) error {
	s, err := parse(fs, args)
	if err != nil {
		return err
	}
	defer s.close()
	if err := needArgs(fs, 2, "[options] <in> <out>"); err != nil {
		return err
	}
	if err := op.Validate(); err != nil {
		return err
	}

	mesh, err := s.load(fs.Arg(0))
	if err != nil {
		return err
	}
	out, err := s.bridge().Apply(mesh, op)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d -> %d vertices, %d -> %d faces\n",
		op.Kind(), mesh.VertexCount(), out.VertexCount(), mesh.FaceCount(), out.FaceCount())
	return s.save(out, fs.Arg(1))
}

func cmdPreview(args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	viewer := fs.String("viewer", "", "three or vtk (default from config)")
	dir := fs.String("dir", "", "Output directory (default from config)")
	s, err := parse(fs, args)
	if err != nil {
		return err
	}
	defer s.close()
	if err := needArgs(fs, 1, "<mesh>"); err != nil {
		return err
	}

	if *viewer == "" {
		*viewer = s.cfg.Preview.Viewer
	}
	if *dir == "" {
		*dir = s.cfg.Preview.Dir
	}
	if err := os.MkdirAll(*dir, 0755); err != nil {
		return err
	}

	mesh, err := s.load(fs.Arg(0))
	if err != nil {
		return err
	}
	info, err := geompack.Preview(mesh, *dir, *viewer)
	if err != nil {
		return err
	}
	return printJSON(info)
}

func cmdLocate(args []string) error {
	fs := flag.NewFlagSet("locate", flag.ExitOnError)
	s, err := parse(fs, args)
	if err != nil {
		return err
	}
	defer s.close()

	path, err := s.bridge().Executable()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func cmdConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	save := fs.String("save", "", "Write the effective configuration to this file")
	s, err := parse(fs, args)
	if err != nil {
		return err
	}
	defer s.close()

	if *save != "" {
		if err := s.cfg.SaveTo(*save); err != nil {
			return err
		}
		fmt.Printf("Saved %s\n", *save)
		return nil
	}
	data, err := s.cfg.YAML()
	if err != nil {
		return err
	}
	os.Stdout.Write(data)
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitCode distinguishes bridge failures for scripts driving the CLI.
func exitCode(err error) int {
	switch {
	case errors.Is(err, blender.ErrInvalidParameter):
		return 2
	case errors.Is(err, blender.ErrToolNotFound):
		return 3
	case errors.Is(err, blender.ErrTimeout):
		return 4
	case errors.Is(err, blender.ErrExecutionFailed), errors.Is(err, blender.ErrMalformedOutput):
		return 5
	}
	return 1
}
