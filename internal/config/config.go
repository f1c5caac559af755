// Package config loads geompack settings from defaults, a YAML or TOML file,
// GEOMPACK_ environment variables and command-line flags.
package config

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	geompack "github.com/flywave/go-geompack"
	"github.com/flywave/go-geompack/blender"
)

type Config struct {
	Blender BlenderConfig `yaml:"blender"`
	IO      IOConfig      `yaml:"io"`
	Preview PreviewConfig `yaml:"preview"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// BlenderConfig controls discovery and invocation of the external tool.
type BlenderConfig struct {
	Executable  string        `yaml:"executable"`
	SearchPaths []string      `yaml:"search_paths,omitempty"` // empty means the built-in list
	Timeout     time.Duration `yaml:"timeout"`
	TempDir     string        `yaml:"temp_dir"`
}

// IOConfig holds the directories relative file arguments resolve against.
type IOConfig struct {
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`
}

type PreviewConfig struct {
	Dir    string `yaml:"dir"`
	Viewer string `yaml:"viewer"` // three|vtk
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // e.g. ":9100", empty disables
}

func Default() *Config {
	return &Config{
		Blender: BlenderConfig{
			Timeout: blender.DefaultTimeout,
		},
		Preview: PreviewConfig{
			Dir:    ".",
			Viewer: geompack.ViewerThree,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate rejects settings the commands cannot work with.
func (c *Config) Validate() error {
	if c.Blender.Timeout <= 0 {
		return errors.Errorf("blender.timeout must be positive, got %s", c.Blender.Timeout)
	}
	switch c.Preview.Viewer {
	case geompack.ViewerThree, geompack.ViewerVTK:
	default:
		return errors.Errorf("preview.viewer must be %q or %q, got %q", geompack.ViewerThree, geompack.ViewerVTK, c.Preview.Viewer)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.Errorf("unknown logging.level %q", c.Logging.Level)
	}
	return nil
}

// BridgeOptions maps the blender section onto bridge options.
func (c *Config) BridgeOptions(log *zap.Logger, metrics *blender.Metrics) *blender.Options {
	opts := blender.DefaultOptions()
	opts.Executable = c.Blender.Executable
	if len(c.Blender.SearchPaths) > 0 {
		opts.SearchPaths = c.Blender.SearchPaths
	}
	opts.Timeout = c.Blender.Timeout
	opts.TempDir = c.Blender.TempDir
	opts.Logger = log
	opts.Metrics = metrics
	return opts
}
