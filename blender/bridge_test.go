//go:build !windows

package blender

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	geompack "github.com/flywave/go-geompack"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// stubPrelude pulls the interchange paths out of the script passed as the
// third argument.
const stubPrelude = `#!/bin/sh
in=$(printf '%s\n' "$3" | sed -n 's/^INPUT_PATH = "\(.*\)"$/\1/p')
out=$(printf '%s\n' "$3" | sed -n 's/^OUTPUT_PATH = "\(.*\)"$/\1/p')
`

const quadObj = `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
f 1/1 2/2 3/3 4/4
`

func stubBridge(t *testing.T, body string) (*Bridge, string) {
	t.Helper()
	dir := t.TempDir()
	exe := filepath.Join(dir, "blender")
	require.NoError(t, os.WriteFile(exe, []byte(stubPrelude+body), 0o755))

	work := filepath.Join(dir, "work")
	require.NoError(t, os.Mkdir(work, 0o755))

	return NewWithOptions(&Options{
		Executable: exe,
		Timeout:    10 * time.Second,
		TempDir:    work,
	}), work
}

func requireEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Empty(t, names, "interchange files left behind")
}

func TestApplyRoundTrip(t *testing.T) {
	bridge, work := stubBridge(t, `cp "$in" "$out"`)
	cube := geompack.CreateCube(1)
	before := cube.Clone()

	out, err := bridge.Apply(cube, NewVoxelRemesh())
	require.NoError(t, err)
	assert.Equal(t, 8, out.VertexCount())
	assert.Equal(t, 12, out.FaceCount())
	assert.Equal(t, before, cube)
	assert.NotSame(t, cube, out)
	requireEmptyDir(t, work)
}

func TestApplyReadsToolOutput(t *testing.T) {
	bridge, work := stubBridge(t, "cat > \"$out\" <<'EOF'\n"+quadObj+"EOF\n")

	out, err := bridge.Apply(geompack.CreateCube(1), NewUVUnwrap())
	require.NoError(t, err)
	assert.Equal(t, 4, out.VertexCount())
	assert.Equal(t, 2, out.FaceCount())
	assert.True(t, out.HasUVs())
	requireEmptyDir(t, work)
}

func TestApplyInvocation(t *testing.T) {
	record := filepath.Join(t.TempDir(), "args")
	bridge, _ := stubBridge(t, `printf '%s\n' "$#" "$1" "$2" > "`+record+`"
cp "$in" "$out"`)

	_, err := bridge.Apply(geompack.CreateCube(1), &QuadRemesh{TargetFaces: 200})
	require.NoError(t, err)

	data, err := os.ReadFile(record)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "--background", "--python-expr"}, strings.Fields(string(data)))
}

func TestApplyExecutionFailure(t *testing.T) {
	bridge, work := stubBridge(t, `echo "Error: Python: quadriflow failed" >&2
exit 3`)

	_, err := bridge.Apply(geompack.CreateCube(1), NewQuadRemesh())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExecutionFailed)

	var eerr *ExecError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, 3, eerr.ExitCode)
	assert.Contains(t, eerr.Stderr, "quadriflow failed")
	assert.Contains(t, err.Error(), "quadriflow failed")
	requireEmptyDir(t, work)
}

func TestApplyMissingOutput(t *testing.T) {
	bridge, work := stubBridge(t, `echo "nothing exported" >&2
rm -f "$out"
exit 0`)

	_, err := bridge.Apply(geompack.CreateCube(1), NewVoxelRemesh())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedOutput)

	var oerr *OutputError
	require.ErrorAs(t, err, &oerr)
	assert.Contains(t, oerr.Stderr, "nothing exported")
	requireEmptyDir(t, work)
}

func TestApplyEmptyOutput(t *testing.T) {
	bridge, work := stubBridge(t, `exit 0`)

	_, err := bridge.Apply(geompack.CreateCube(1), NewVoxelRemesh())
	assert.ErrorIs(t, err, ErrMalformedOutput)
	requireEmptyDir(t, work)
}

func TestApplyNoGeometry(t *testing.T) {
	bridge, work := stubBridge(t, `printf '# exported by stub\nv 0 0 0\n' > "$out"`)

	_, err := bridge.Apply(geompack.CreateCube(1), NewVoxelRemesh())
	assert.ErrorIs(t, err, ErrMalformedOutput)
	requireEmptyDir(t, work)
}

func TestApplyOutputBadIndex(t *testing.T) {
	bridge, work := stubBridge(t, `printf 'v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 9\n' > "$out"`)

	_, err := bridge.Apply(geompack.CreateCube(1), NewVoxelRemesh())
	assert.ErrorIs(t, err, ErrMalformedOutput)
	requireEmptyDir(t, work)
}

func TestApplyTimeout(t *testing.T) {
	bridge, work := stubBridge(t, `sleep 5
cp "$in" "$out"`)
	bridge.options.Timeout = 200 * time.Millisecond

	start := time.Now()
	_, err := bridge.Apply(geompack.CreateCube(1), NewVoxelRemesh())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 4*time.Second)

	var terr *TimeoutError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 200*time.Millisecond, terr.Timeout)
	requireEmptyDir(t, work)
}

func TestApplyInvalidParameterDoesNotSpawn(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "spawned")
	bridge, work := stubBridge(t, `touch "`+marker+`"
cp "$in" "$out"`)

	for _, op := range []Operation{
		&UVUnwrap{AngleLimit: 0, IslandMargin: 0.02},
		&VoxelRemesh{VoxelSize: 10},
		&QuadRemesh{TargetFaces: 10},
		(*UVUnwrap)(nil),
		(*VoxelRemesh)(nil),
		(*QuadRemesh)(nil),
		nil,
	} {
		_, err := bridge.Apply(geompack.CreateCube(1), op)
		assert.ErrorIs(t, err, ErrInvalidParameter)
	}
	_, err := os.Stat(marker)
	assert.True(t, os.IsNotExist(err), "stub must not run")
	requireEmptyDir(t, work)
}

func TestApplyInvalidMesh(t *testing.T) {
	bridge, work := stubBridge(t, `cp "$in" "$out"`)

	_, err := bridge.Apply(geompack.NewMesh(), NewVoxelRemesh())
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.ErrorIs(t, err, geompack.ErrEmptyMesh)

	bad := geompack.CreateCube(1)
	bad.Faces = append(bad.Faces, [3]uint32{0, 1, 99})
	_, err = bridge.Apply(bad, NewVoxelRemesh())
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.ErrorIs(t, err, geompack.ErrInvalidMesh)
	requireEmptyDir(t, work)
}

func TestApplyToolNotFound(t *testing.T) {
	work := t.TempDir()
	bridge := NewWithOptions(&Options{SearchPaths: []string{}, TempDir: work})

	_, err := bridge.Apply(geompack.CreateCube(1), NewVoxelRemesh())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolNotFound)
	requireEmptyDir(t, work)
}

func TestApplyConcurrent(t *testing.T) {
	bridge, work := stubBridge(t, `cp "$in" "$out"`)
	sphere := geompack.CreateIcosphere(1, 1)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	faces := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := bridge.Apply(sphere, NewVoxelRemesh())
			errs[i] = err
			if err == nil {
				faces[i] = out.FaceCount()
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 80, faces[i])
	}
	requireEmptyDir(t, work)
}

func TestApplyRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	bridge, _ := stubBridge(t, `cp "$in" "$out"`)
	bridge.options.Metrics = metrics

	_, err = bridge.Apply(geompack.CreateCube(1), NewVoxelRemesh())
	require.NoError(t, err)
	_, err = bridge.Apply(geompack.CreateCube(1), &VoxelRemesh{VoxelSize: 0})
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	results := map[string]float64{}
	for _, f := range families {
		if f.GetName() != "geompack_blender_invocations_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "result" {
					results[l.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{"ok": 1, "invalid": 1}, results)
}

// processAlive reports whether pid is running. Zombies count as dead.
func processAlive(pid int) bool {
	if err := unix.Kill(pid, 0); err != nil {
		return false
	}
	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return true
	}
	i := strings.LastIndexByte(string(stat), ')')
	return i < 0 || i+2 >= len(stat) || stat[i+2] != 'Z'
}

func readPid(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	require.NoError(t, err)
	return pid
}

func TestApplyKillsBackgroundChildren(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "pid")
	bridge, work := stubBridge(t, `cp "$in" "$out"
sleep 30 >/dev/null 2>&1 &
echo $! > "`+pidFile+`"
exit 0`)

	out, err := bridge.Apply(geompack.CreateCube(1), NewVoxelRemesh())
	require.NoError(t, err)
	assert.Equal(t, 12, out.FaceCount())

	pid := readPid(t, pidFile)
	assert.Eventually(t, func() bool { return !processAlive(pid) }, 2*time.Second, 20*time.Millisecond,
		"background child %d survived Apply", pid)
	requireEmptyDir(t, work)
}

func TestApplyChildHoldingPipes(t *testing.T) {
	saved := waitDelay
	waitDelay = 300 * time.Millisecond
	defer func() { waitDelay = saved }()

	pidFile := filepath.Join(t.TempDir(), "pid")
	bridge, work := stubBridge(t, `cp "$in" "$out"
sleep 30 &
echo $! > "`+pidFile+`"
exit 0`)

	start := time.Now()
	out, err := bridge.Apply(geompack.CreateCube(1), NewVoxelRemesh())
	require.NoError(t, err)
	assert.Equal(t, 12, out.FaceCount())
	assert.Less(t, time.Since(start), 4*time.Second)

	pid := readPid(t, pidFile)
	assert.Eventually(t, func() bool { return !processAlive(pid) }, 2*time.Second, 20*time.Millisecond,
		"background child %d survived Apply", pid)
	requireEmptyDir(t, work)
}
