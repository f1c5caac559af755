package blender

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrToolNotFound     = errors.New("blender executable not found")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrExecutionFailed  = errors.New("blender execution failed")
	ErrTimeout          = errors.New("blender timed out")
	ErrMalformedOutput  = errors.New("malformed blender output")
)

// ToolNotFoundError lists every location that was checked.
type ToolNotFoundError struct {
	Searched []string
}

func (e *ToolNotFoundError) Error() string {
	if len(e.Searched) == 0 {
		return "blender executable not found: no search locations configured"
	}
	return fmt.Sprintf("blender executable not found, searched: %s", strings.Join(e.Searched, ", "))
}

func (e *ToolNotFoundError) Is(target error) bool { return target == ErrToolNotFound }

// ParameterError reports a request that was rejected before anything ran.
type ParameterError struct {
	Operation string
	Name      string
	Value     float64
	Min, Max  float64
	Err       error
}

func (e *ParameterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: invalid input: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("%s: %s must be in [%g, %g], got %g", e.Operation, e.Name, e.Min, e.Max, e.Value)
}

func (e *ParameterError) Is(target error) bool { return target == ErrInvalidParameter }

func (e *ParameterError) Unwrap() error { return e.Err }

// ExecError is returned when the process could not start or exited non-zero.
// ExitCode is -1 when the process never started.
type ExecError struct {
	Path     string
	ExitCode int
	Stderr   string
	Elapsed  time.Duration
	Err      error
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d after %s", e.Path, e.ExitCode, e.Elapsed.Round(time.Millisecond))
	if e.ExitCode < 0 && e.Err != nil {
		msg = fmt.Sprintf("%s failed to start: %v", e.Path, e.Err)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + lastLines(s, 20)
	}
	return msg
}

func (e *ExecError) Is(target error) bool { return target == ErrExecutionFailed }

func (e *ExecError) Unwrap() error { return e.Err }

type TimeoutError struct {
	Path    string
	Timeout time.Duration
	Elapsed time.Duration
	Stderr  string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s did not finish within %s (killed after %s)", e.Path, e.Timeout, e.Elapsed.Round(time.Millisecond))
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// OutputError is returned when the process succeeded but its result could
// not be used.
type OutputError struct {
	Path    string
	Reason  string
	Stderr  string
	Elapsed time.Duration
	Err     error
}

func (e *OutputError) Error() string {
	msg := fmt.Sprintf("malformed output %s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OutputError) Is(target error) bool { return target == ErrMalformedOutput }

func (e *OutputError) Unwrap() error { return e.Err }

func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
