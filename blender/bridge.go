package blender

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"os/exec"
	"time"

	geompack "github.com/flywave/go-geompack"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const DefaultTimeout = 5 * time.Minute

// waitDelay bounds how long output pipes held open by leftover children may
// delay Apply once the Blender process itself has exited.
var waitDelay = 5 * time.Second

// Codec moves meshes in and out of the interchange files.
type Codec interface {
	Save(mesh *geompack.Mesh, path string) error
	Load(path string) (*geompack.Mesh, error)
}

type Options struct {
	// Executable, when set, is the only location checked.
	Executable  string
	SearchPaths []string // nil means DefaultSearchPaths
	Timeout     time.Duration
	TempDir     string // os.TempDir() when empty
	Logger      *zap.Logger
	Metrics     *Metrics
	Codec       Codec
}

func DefaultOptions() *Options {
	return &Options{
		Timeout: DefaultTimeout,
		Codec:   &geompack.ObjFormat{},
	}
}

// Bridge runs single mesh operations in a background Blender process.
// A Bridge holds no per-call state and may be used concurrently.
type Bridge struct {
	options Options
	log     *zap.Logger
}

func New() *Bridge {
	return NewWithOptions(DefaultOptions())
}

func NewWithOptions(options *Options) *Bridge {
	o := *DefaultOptions()
	if options != nil {
		o = *options
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Codec == nil {
		o.Codec = &geompack.ObjFormat{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return &Bridge{options: o, log: o.Logger.Named("blender")}
}

// Executable resolves the Blender binary the bridge would run.
func (b *Bridge) Executable() (string, error) {
	if b.options.Executable != "" {
		return Locate([]string{b.options.Executable})
	}
	paths := b.options.SearchPaths
	if paths == nil {
		paths = DefaultSearchPaths
	}
	return Locate(paths)
}

// Apply runs op on a copy of mesh and returns the reimported result. The
// input mesh is never modified. Parameters are checked and the executable is
// located before any file is written.
func (b *Bridge) Apply(mesh *geompack.Mesh, op Operation) (result *geompack.Mesh, err error) {
	var kind Kind
	if op != nil {
		kind = op.Kind()
	}
	var elapsed time.Duration
	defer func() {
		b.options.Metrics.observe(kind, err, elapsed)
	}()

	if op == nil {
		return nil, nilOperation(kind)
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}
	if err := mesh.Validate(); err != nil {
		return nil, &ParameterError{Operation: kind.String(), Err: err}
	}

	exe, err := b.Executable()
	if err != nil {
		return nil, err
	}

	log := b.log.With(zap.Stringer("operation", kind), zap.String("executable", exe))

	inPath, outPath, err := b.tempFiles()
	if err != nil {
		return nil, &ExecError{Path: exe, ExitCode: -1, Err: err}
	}
	defer func() {
		cerr := removeFiles(inPath, outPath)
		if cerr == nil {
			return
		}
		if err != nil {
			err = multierr.Append(err, cerr)
			return
		}
		log.Warn("removing interchange files", zap.Error(cerr))
	}()

	if err := b.options.Codec.Save(mesh, inPath); err != nil {
		return nil, &ExecError{Path: exe, ExitCode: -1, Err: errors.Wrap(err, "writing interchange input")}
	}
	script, err := op.script(inPath, outPath)
	if err != nil {
		return nil, &ExecError{Path: exe, ExitCode: -1, Err: err}
	}

	log.Info("running blender",
		zap.Reflect("params", op),
		zap.Int("vertices", mesh.VertexCount()),
		zap.Int("faces", mesh.FaceCount()),
		zap.Duration("timeout", b.options.Timeout))

	stderr, elapsed, err := b.run(exe, script)
	if err != nil {
		log.Error("blender failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return nil, err
	}

	result, err = b.readOutput(outPath, stderr, elapsed)
	if err != nil {
		log.Error("reading blender output", zap.Error(err))
		return nil, err
	}

	log.Info("blender finished",
		zap.Duration("elapsed", elapsed),
		zap.Int("vertices", result.VertexCount()),
		zap.Int("faces", result.FaceCount()),
		zap.Int("vertex_delta", result.VertexCount()-mesh.VertexCount()),
		zap.Int("face_delta", result.FaceCount()-mesh.FaceCount()),
		zap.Bool("uvs", result.HasUVs()))
	return result, nil
}

func (b *Bridge) tempFiles() (string, string, error) {
	in, err := os.CreateTemp(b.options.TempDir, "geompack-*-in.obj")
	if err != nil {
		return "", "", err
	}
	in.Close()
	out, err := os.CreateTemp(b.options.TempDir, "geompack-*-out.obj")
	if err != nil {
		return "", "", multierr.Append(err, removeFiles(in.Name()))
	}
	out.Close()
	return in.Name(), out.Name(), nil
}

func (b *Bridge) run(exe, script string) (string, time.Duration, error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.options.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, exe, "--background", "--python-expr", script)
	setProcessGroup(cmd)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	// nothing started by this call may outlive it
	if err := killProcessGroup(cmd); err != nil {
		b.log.Warn("killing blender process group", zap.Error(err))
	}

	b.log.Debug("blender output", zap.String("stdout", lastLines(stdout.String(), 40)))

	if errors.Is(runErr, exec.ErrWaitDelay) && cmd.ProcessState != nil && cmd.ProcessState.Success() {
		b.log.Warn("blender exited with its output pipes still held open", zap.Duration("wait_delay", waitDelay))
		runErr = nil
	}
	if runErr == nil {
		return stderr.String(), elapsed, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", elapsed, &TimeoutError{Path: exe, Timeout: b.options.Timeout, Elapsed: elapsed, Stderr: stderr.String()}
	}
	code := -1
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		code = exitErr.ExitCode()
	}
	return "", elapsed, &ExecError{Path: exe, ExitCode: code, Stderr: stderr.String(), Elapsed: elapsed, Err: runErr}
}

func (b *Bridge) readOutput(path, stderr string, elapsed time.Duration) (*geompack.Mesh, error) {
	fail := func(reason string, err error) error {
		return &OutputError{Path: path, Reason: reason, Stderr: stderr, Elapsed: elapsed, Err: err}
	}

	st, err := os.Stat(path)
	if err != nil {
		return nil, fail("output file missing", err)
	}
	if st.Size() == 0 {
		return nil, fail("output file is empty", nil)
	}
	mesh, err := b.options.Codec.Load(path)
	if err != nil {
		return nil, fail("output could not be parsed", err)
	}
	if mesh.VertexCount() == 0 || mesh.FaceCount() == 0 {
		return nil, fail("output has no geometry", geompack.ErrEmptyMesh)
	}
	if err := mesh.Validate(); err != nil {
		return nil, fail("output is not a valid mesh", err)
	}
	return mesh, nil
}

func removeFiles(paths ...string) error {
	var err error
	for _, p := range paths {
		if rerr := os.Remove(p); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
			err = multierr.Append(err, rerr)
		}
	}
	return err
}
