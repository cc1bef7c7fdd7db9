package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"snapview/internal/logging"

	"github.com/adrg/xdg"
	"github.com/docker/go-units"
	"gopkg.in/yaml.v3"
)

const APP_NAME = "snapview" // application name used for config and data directories

// Defaults applied when neither the config file nor the environment says
// otherwise.
const (
	DefaultTimeout      = 10 * time.Second
	DefaultMaxOutput    = 10 * 1024 * 1024 // 10 MiB captured-output cap
	DefaultGitBinary    = "git"
	DefaultRegistryFile = "repos.json"
)

// Config holds the runtime settings for the snapview MCP server.
//
// The file is optional: a missing or unreadable config file yields
// DefaultConfig. Environment variables always win over file values so a
// client launch configuration can tune a single session.
type Config struct {
	// GitBinary is the executable invoked for authorized commands,
	// located via PATH unless given as an absolute path.
	GitBinary string `yaml:"git_binary"`

	// TimeoutMS bounds the wall clock of a single git invocation.
	TimeoutMS int64 `yaml:"timeout_ms"`

	// MaxOutput is a human-readable size ("10MiB", "512KB") capping
	// captured subprocess output.
	MaxOutput string `yaml:"max_output"`

	// RegistryPath points at snapview's repos.json. Empty means the
	// platform default under the user's data directory.
	RegistryPath string `yaml:"registry_path"`

	// LogLevel mirrors SNAPVIEW_LOG (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// ConfigPath returns the standard config file path for the current platform.
func ConfigPath() string {
	return filepath.Join(xdg.ConfigHome, APP_NAME, "config.yaml")
}

// DefaultRegistryPath returns where the snapshot tool keeps its
// repository registry on this platform.
func DefaultRegistryPath() string {
	return filepath.Join(xdg.DataHome, APP_NAME, DefaultRegistryFile)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		GitBinary:    DefaultGitBinary,
		TimeoutMS:    DefaultTimeout.Milliseconds(),
		MaxOutput:    "10MiB",
		RegistryPath: DefaultRegistryPath(),
		LogLevel:     "warn",
	}
}

// Load reads the config file from the standard location, fills defaults
// for absent fields, and applies environment overrides. It never fails:
// the server must come up even with no configuration at all.
func Load() Config {
	cfg := LoadFrom(ConfigPath())
	return applyEnv(cfg)
}

// LoadFrom loads config from a specific path, falling back to defaults
// on any read or parse problem.
func LoadFrom(path string) Config {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		logging.Debug("No config file, using defaults", "path", path)
		return cfg
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		logging.Warn("Failed to parse config file, using defaults", "path", path, "error", err)
		return DefaultConfig()
	}

	// Partial files leave zero values behind; refill those.
	if cfg.GitBinary == "" {
		cfg.GitBinary = DefaultGitBinary
	}
	if cfg.TimeoutMS <= 0 {
		cfg.TimeoutMS = DefaultTimeout.Milliseconds()
	}
	if cfg.MaxOutput == "" {
		cfg.MaxOutput = "10MiB"
	}
	if cfg.RegistryPath == "" {
		cfg.RegistryPath = DefaultRegistryPath()
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}

	logging.Debug("Config loaded", "path", path)
	return cfg
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg Config) Config {
	if v := os.Getenv("SNAPVIEW_GIT_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil && ms > 0 {
			cfg.TimeoutMS = ms
		} else {
			logging.Warn("Ignoring invalid SNAPVIEW_GIT_TIMEOUT_MS", "value", v)
		}
	}
	if v := os.Getenv("SNAPVIEW_MAX_OUTPUT"); v != "" {
		cfg.MaxOutput = v
	}
	if v := os.Getenv("SNAPVIEW_REGISTRY"); v != "" {
		cfg.RegistryPath = v
	}
	if v := os.Getenv("SNAPVIEW_LOG"); v != "" {
		cfg.LogLevel = v
	}
	return cfg
}

// Timeout returns the configured subprocess timeout as a duration.
func (c Config) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// MaxOutputBytes parses the human-readable output cap. Unparseable
// values fall back to the 10 MiB default rather than failing startup.
func (c Config) MaxOutputBytes() int64 {
	if c.MaxOutput == "" {
		return DefaultMaxOutput
	}
	n, err := units.RAMInBytes(c.MaxOutput)
	if err != nil || n <= 0 {
		logging.Warn("Ignoring invalid max_output, using 10MiB", "value", c.MaxOutput, "error", err)
		return DefaultMaxOutput
	}
	return n
}

// Validate reports configuration problems that are worth surfacing at
// startup without being fatal.
func (c Config) Validate() error {
	if c.GitBinary == "" {
		return fmt.Errorf("git_binary cannot be empty")
	}
	if c.TimeoutMS <= 0 {
		return fmt.Errorf("timeout_ms must be positive, got %d", c.TimeoutMS)
	}
	return nil
}
