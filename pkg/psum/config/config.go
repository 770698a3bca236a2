package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Components map[string]string `mapstructure:"components"`
}

// CacheConfig configures the fingerprint cache used during generation.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // Empty means use default XDG cache path
}

// Config represents the application configuration.
type Config struct {
	WindowLen      string        `mapstructure:"window_len"`
	Algorithm      string        `mapstructure:"algorithm"`
	IncludeModTime bool          `mapstructure:"include_modtime"`
	SkipErrors     bool          `mapstructure:"skip_errors"`
	Workers        int           `mapstructure:"workers"`
	Exclude        []string      `mapstructure:"exclude"`
	Output         string        `mapstructure:"output"`
	Cache          CacheConfig   `mapstructure:"cache"`
	Logging        LoggingConfig `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/psum/config.yaml
//   - $HOME/.config/psum/config.yaml
//
// Environment variables are prefixed with PSUM_ (e.g., PSUM_WINDOW_LEN).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "psum"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "psum"))

	v.SetEnvPrefix("PSUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("window_len", DefaultWindowLen)
	v.SetDefault("algorithm", DefaultAlgorithm)
	v.SetDefault("include_modtime", false)
	v.SetDefault("skip_errors", false)
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("exclude", DefaultExclusions)
	v.SetDefault("output", DefaultOutputFormat)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", "") // Empty means use CacheDir()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means use DefaultLogPath
	v.SetDefault("logging.components", map[string]string{
		"engine": "info",
		"walker": "warn",
		"cache":  "info",
		"tui":    "info",
	})

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is acceptable; we use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.HasPrefix(cfg.Cache.Path, "~") {
		cfg.Cache.Path = filepath.Join(homeDir, cfg.Cache.Path[1:])
	}

	return &cfg, nil
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "psum"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "psum"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// WriteDefault writes a default config file if none exists.
// Returns nil if a config file already exists.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configDir, err := ConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		// Config file exists, do nothing
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# psum Partial Checksum Configuration

# Sample window length in bytes. Accepts size suffixes (4KiB, 1MiB).
window_len: "%s"

# Hash algorithm: sha256, sha512-256
algorithm: %s

# Hash and record file modification times
include_modtime: false

# Record per-file I/O failures and keep going instead of aborting
skip_errors: false

# Hashing worker count (0 means one per CPU)
workers: %d

# Paths to exclude from walks
exclude:
  - /proc
  - /sys
  - /dev

# Output format: plain, pretty, json
output: %s

# Fingerprint cache (generation only)
cache:
  enabled: true
  # Cache directory (empty means use default: $XDG_CACHE_HOME/psum)
  path: ""

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/psum/psum.log)
  path: ""
  # Per-component log levels
  components:
    engine: info
    walker: warn
    cache: info
    tui: info
`, DefaultWindowLen, DefaultAlgorithm, DefaultWorkers, DefaultOutputFormat)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// StateDir returns $XDG_STATE_HOME/psum/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "psum")
}

// CacheDir returns $XDG_CACHE_HOME/psum/ for the fingerprint cache.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "psum")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "psum.log")
}

// DefaultCachePath returns the default fingerprint cache directory.
func DefaultCachePath() string {
	return filepath.Join(CacheDir(), "fingerprints")
}

// EnsureStateDir creates the state directory if it doesn't exist.
func EnsureStateDir() error {
	if err := os.MkdirAll(StateDir(), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	return nil
}

// EnsureCacheDir creates the cache directory if it doesn't exist.
func EnsureCacheDir() error {
	if err := os.MkdirAll(CacheDir(), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	return nil
}
