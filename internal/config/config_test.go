package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_MissingFile(t *testing.T) {
	cfg := LoadFrom(filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	assert.Equal(t, DefaultGitBinary, cfg.GitBinary)
	assert.Equal(t, DefaultTimeout, cfg.Timeout())
	assert.Equal(t, int64(DefaultMaxOutput), cfg.MaxOutputBytes())
}

func TestLoadFrom_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "git_binary: /usr/local/bin/git\ntimeout_ms: 5000\nmax_output: 1MiB\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := LoadFrom(path)

	assert.Equal(t, "/usr/local/bin/git", cfg.GitBinary)
	assert.Equal(t, 5*time.Second, cfg.Timeout())
	assert.Equal(t, int64(1024*1024), cfg.MaxOutputBytes())
	assert.Equal(t, "debug", cfg.LogLevel)
	// Unset fields keep defaults.
	assert.Equal(t, DefaultRegistryPath(), cfg.RegistryPath)
}

func TestLoadFrom_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{{not yaml"), 0o644))

	cfg := LoadFrom(path)

	assert.Equal(t, DefaultConfig(), cfg)
}

func TestApplyEnv_Overrides(t *testing.T) {
	t.Setenv("SNAPVIEW_GIT_TIMEOUT_MS", "2500")
	t.Setenv("SNAPVIEW_MAX_OUTPUT", "512KiB")
	t.Setenv("SNAPVIEW_REGISTRY", "/tmp/repos.json")

	cfg := applyEnv(DefaultConfig())

	assert.Equal(t, 2500*time.Millisecond, cfg.Timeout())
	assert.Equal(t, int64(512*1024), cfg.MaxOutputBytes())
	assert.Equal(t, "/tmp/repos.json", cfg.RegistryPath)
}

func TestApplyEnv_InvalidTimeoutIgnored(t *testing.T) {
	t.Setenv("SNAPVIEW_GIT_TIMEOUT_MS", "not-a-number")

	cfg := applyEnv(DefaultConfig())

	assert.Equal(t, DefaultTimeout, cfg.Timeout())
}

func TestMaxOutputBytes_InvalidFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxOutput = "lots"

	assert.Equal(t, int64(DefaultMaxOutput), cfg.MaxOutputBytes())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "empty git binary", mutate: func(c *Config) { c.GitBinary = "" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.TimeoutMS = 0 }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.TimeoutMS = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
