// Package config loads and persists the run configuration. Settings
// come from a YAML file with flag overrides layered on by the CLI; a
// missing file means defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mohammadamin382/Benchmarks/internal/scheduler"
	"github.com/mohammadamin382/Benchmarks/internal/topology"
	"github.com/mohammadamin382/Benchmarks/internal/workload"
)

// Duration wraps time.Duration so YAML accepts "3s" as well as raw
// nanosecond integers.
type Duration time.Duration

// UnmarshalYAML accepts either a Go duration string or an integer
// nanosecond count.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("duration must be a string or integer: %w", err)
	}
	*d = Duration(n)
	return nil
}

// MarshalYAML emits the string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full application configuration.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Mode    string   `yaml:"mode"`
	Kernels []string `yaml:"kernels"`
	// KernelDuration is the per-kernel window in benchmark mode.
	KernelDuration Duration `yaml:"kernel_duration"`
	// TotalDuration is the run length in endurance mode.
	TotalDuration Duration `yaml:"total_duration"`
	// ClassPolicy maps efficiency classes to core kinds.
	ClassPolicy topology.ClassPolicy `yaml:"class_policy"`
	// ElevatePriority requests maximum thread priority for workers.
	ElevatePriority bool `yaml:"elevate_priority"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "console",
		Mode:            string(scheduler.ModeBenchmark),
		Kernels:         workload.Names(),
		KernelDuration:  Duration(3 * time.Second),
		TotalDuration:   Duration(60 * time.Second),
		ClassPolicy:     topology.PolicyZeroPerformance,
		ElevatePriority: true,
	}
}

// Load reads the configuration file at path. A missing file yields
// defaults; a present but malformed or invalid file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks every field against its allowed values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.LogFormat)
	}
	if !scheduler.Mode(c.Mode).Valid() {
		return fmt.Errorf("invalid mode %q", c.Mode)
	}
	if len(c.Kernels) == 0 {
		return errors.New("at least one kernel must be configured")
	}
	if err := workload.Validate(c.Kernels); err != nil {
		return err
	}
	if c.KernelDuration <= 0 {
		return fmt.Errorf("kernel duration must be positive, got %s", c.KernelDuration.Std())
	}
	if c.TotalDuration <= 0 {
		return fmt.Errorf("total duration must be positive, got %s", c.TotalDuration.Std())
	}
	if !c.ClassPolicy.Valid() {
		return fmt.Errorf("invalid class policy %q", c.ClassPolicy)
	}
	return nil
}

// SchedulerConfig derives the engine configuration.
func (c *Config) SchedulerConfig() scheduler.Config {
	return scheduler.Config{
		Mode:            scheduler.Mode(c.Mode),
		Kernels:         c.Kernels,
		KernelDuration:  c.KernelDuration.Std(),
		TotalDuration:   c.TotalDuration.Std(),
		ElevatePriority: c.ElevatePriority,
	}
}
