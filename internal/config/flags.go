package config

import (
	"flag"
	"time"
)

// Flags are the options every subcommand accepts on top of its own.
type Flags struct {
	Config      string
	Debug       bool
	MetricsAddr string
	Blender     string
	Timeout     time.Duration
	OutputDir   string
}

func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config file (yaml or toml)")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.MetricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address")
	fs.StringVar(&f.Blender, "blender", "", "Path to the blender executable")
	fs.DurationVar(&f.Timeout, "timeout", 0, "Blender timeout")
	fs.StringVar(&f.OutputDir, "output-dir", "", "Directory relative output paths resolve against")
}

// Apply overrides cfg with the flags that were set.
func (f *Flags) Apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.MetricsAddr != "" {
		cfg.Metrics.Addr = f.MetricsAddr
	}
	if f.Blender != "" {
		cfg.Blender.Executable = f.Blender
	}
	if f.Timeout > 0 {
		cfg.Blender.Timeout = f.Timeout
	}
	if f.OutputDir != "" {
		cfg.IO.OutputDir = f.OutputDir
	}
}

// Load reads the configuration named by -config and applies the flags.
func (f *Flags) Load() (*Config, error) {
	cfg, err := Load(f.Config)
	if err != nil {
		return nil, err
	}
	f.Apply(cfg)
	return cfg, nil
}
