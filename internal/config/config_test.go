package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammadamin382/Benchmarks/internal/topology"
	"github.com/mohammadamin382/Benchmarks/internal/workload"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "benchmark", cfg.Mode)
	assert.Equal(t, workload.Names(), cfg.Kernels)
	assert.Equal(t, 3*time.Second, cfg.KernelDuration.Std())
	assert.Equal(t, topology.PolicyZeroPerformance, cfg.ClassPolicy)
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadParsesDurationsAndOverrides(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log_level: debug
mode: endurance
kernels: [math, branch]
kernel_duration: 500ms
total_duration: 2m
class_policy: zero-efficiency
elevate_priority: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "endurance", cfg.Mode)
	assert.Equal(t, []string{workload.NameMath, workload.NameBranch}, cfg.Kernels)
	assert.Equal(t, 500*time.Millisecond, cfg.KernelDuration.Std())
	assert.Equal(t, 2*time.Minute, cfg.TotalDuration.Std())
	assert.Equal(t, topology.PolicyZeroEfficiency, cfg.ClassPolicy)
	assert.False(t, cfg.ElevatePriority)
	// Unset fields keep their defaults.
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kernels: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
		{"bad mode", func(c *Config) { c.Mode = "turbo" }},
		{"no kernels", func(c *Config) { c.Kernels = nil }},
		{"unknown kernel", func(c *Config) { c.Kernels = []string{"quantum"} }},
		{"zero kernel duration", func(c *Config) { c.KernelDuration = 0 }},
		{"negative total duration", func(c *Config) { c.TotalDuration = -1 }},
		{"bad class policy", func(c *Config) { c.ClassPolicy = "alphabetical" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := Default()
	cfg.Mode = "endurance"
	cfg.KernelDuration = Duration(750 * time.Millisecond)

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveRejectsInvalid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Mode = "bogus"
	assert.Error(t, cfg.Save(filepath.Join(t.TempDir(), "config.yaml")))
}

func TestSchedulerConfig(t *testing.T) {
	t.Parallel()

	cfg := Default()
	sc := cfg.SchedulerConfig()
	assert.Equal(t, cfg.Mode, string(sc.Mode))
	assert.Equal(t, cfg.Kernels, sc.Kernels)
	assert.Equal(t, cfg.KernelDuration.Std(), sc.KernelDuration)
	assert.Equal(t, cfg.TotalDuration.Std(), sc.TotalDuration)
	assert.True(t, sc.ElevatePriority)
}
