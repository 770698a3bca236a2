// Package config provides configuration management for the psum tool.
package config

// Default configuration values for psum.
const (
	// DefaultWindowLen is the sample window length used when none is
	// configured. Accepts size suffixes, e.g. "4KiB".
	DefaultWindowLen = "100"

	// DefaultAlgorithm is the hash algorithm used when none is configured.
	DefaultAlgorithm = "sha256"

	// DefaultOutputFormat is the output format used when none is configured.
	DefaultOutputFormat = "plain"

	// DefaultConfigDir is the default configuration directory path.
	DefaultConfigDir = "~/.config/psum"

	// DefaultWorkers is the default hashing worker count. Zero means one
	// worker per CPU.
	DefaultWorkers = 0
)

// DefaultExclusions contains paths that are excluded from walks by default.
var DefaultExclusions = []string{
	"/proc",
	"/sys",
	"/dev",
}
