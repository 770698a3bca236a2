// Package types provides core data types for the psum partial checksummer.
// It includes structures for file fingerprints, sample windows, verification
// outcomes, and path remapping, along with utility functions for parsing and
// formatting byte sizes.
package types

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
)

// MaxWindowLen is the largest accepted sample window length (64 MiB).
// Windows are read into memory whole, so the cap bounds per-worker memory.
const MaxWindowLen = 64 * 1024 * 1024

// Sentinel errors for the checksum core. See the error taxonomy in DESIGN.md.
var (
	// ErrInvalidWindow indicates a zero or out-of-range window length
	// configuration. Fatal to the whole run.
	ErrInvalidWindow = errors.New("invalid sample window length")

	// ErrMalformedRecord indicates a single checksum line that failed to
	// parse. Fatal in strict mode, skipped with a warning in lenient mode.
	ErrMalformedRecord = errors.New("malformed checksum record")

	// ErrChecksumFile indicates the checksum file itself is missing or
	// unreadable. Fatal to the whole run.
	ErrChecksumFile = errors.New("checksum file error")

	// ErrUnencodablePath indicates a path that cannot appear in a checksum
	// record because it contains a field or line delimiter.
	ErrUnencodablePath = errors.New("path contains tab or newline")

	// ErrInvalidSize indicates that a size string could not be parsed.
	ErrInvalidSize = errors.New("invalid size format")

	// ErrNegativeSize indicates that a negative size value was provided.
	ErrNegativeSize = errors.New("size cannot be negative")
)

// SampleWindow is a contiguous byte range sampled for hashing.
// Invariant: Offset+Length never exceeds the size of the file the window
// was computed for.
type SampleWindow struct {
	// Offset is the byte offset of the window from the start of the file.
	Offset uint64 `json:"offset"`

	// Length is the number of bytes in the window.
	Length uint32 `json:"length"`
}

// FileFingerprint is the recorded expected state of one file: its path,
// size, partial-checksum digest, and optionally its modification time.
type FileFingerprint struct {
	// Path is the file path as recorded, before any remapping.
	Path string `json:"path"`

	// Size is the file size in bytes.
	Size uint64 `json:"size"`

	// Digest is the partial-checksum digest. Its length is constant for a
	// given algorithm configuration.
	Digest []byte `json:"digest"`

	// ModTime is the file modification time in seconds since the Unix
	// epoch. Meaningful only when HasModTime is true.
	ModTime uint64 `json:"mod_time,omitempty"`

	// HasModTime reports whether ModTime was included when the fingerprint
	// was built. Presence must be uniform across a record set; a zero
	// ModTime is still emitted as a column when HasModTime is true, so
	// "omitted" and "zero" can never be confused.
	HasModTime bool `json:"has_mod_time"`
}

// RemapRule is a path-prefix substitution applied during verification to
// account for relocated directory trees. It is a comparison-time transform;
// recorded paths are never rewritten.
type RemapRule struct {
	// OldPrefix is the recorded path prefix to replace.
	OldPrefix string `json:"old_prefix"`

	// NewPrefix is the live path prefix to substitute.
	NewPrefix string `json:"new_prefix"`
}

// Apply returns the remapped path. A path that does not start with
// OldPrefix is returned unchanged; that is a no-op, not an error.
func (r RemapRule) Apply(path string) string {
	if r.OldPrefix == "" {
		return path
	}
	if path == r.OldPrefix {
		return r.NewPrefix
	}
	rest, ok := strings.CutPrefix(path, r.OldPrefix)
	if !ok {
		return path
	}
	// Only replace whole path components: "/a" must not remap "/abc".
	if !strings.HasSuffix(r.OldPrefix, "/") && !strings.HasPrefix(rest, "/") {
		return path
	}
	return r.NewPrefix + rest
}

// IsZero reports whether the rule is empty (no remapping configured).
func (r RemapRule) IsZero() bool {
	return r.OldPrefix == "" && r.NewPrefix == ""
}

// OutcomeKind classifies the result of verifying one recorded file.
type OutcomeKind string

const (
	// Match means the recomputed digest equals the recorded digest.
	Match OutcomeKind = "ok"

	// ContentMismatch means the recomputed digest differs from the
	// recorded digest.
	ContentMismatch OutcomeKind = "mismatch"

	// MetadataOnlyMismatch means the digest could not be recomputed due to
	// a read error, but the live size already disagrees with the record.
	MetadataOnlyMismatch OutcomeKind = "meta-mismatch"

	// Missing means the file is recorded but absent on disk.
	Missing OutcomeKind = "missing"

	// Extra means the file exists on disk but has no recorded fingerprint.
	// Only produced by the optional companion diff pass.
	Extra OutcomeKind = "extra"

	// ReadError means the file could not be read or statted.
	ReadError OutcomeKind = "error"
)

// Failure reports whether this kind should cause a non-zero exit even when
// the run itself completed.
func (k OutcomeKind) Failure() bool {
	return k != Match && k != Extra
}

// Outcome is the verification result for one recorded path. Outcomes are
// ephemeral: produced and consumed within a single run.
type Outcome struct {
	// Path is the recorded path (not the remapped one), so reports line up
	// with the checksum file.
	Path string `json:"path"`

	// Kind classifies the result.
	Kind OutcomeKind `json:"kind"`

	// Err holds the underlying error message for ReadError and
	// MetadataOnlyMismatch outcomes.
	Err string `json:"err,omitempty"`
}

// sizePattern matches size strings like "100", "4K", "1.5MiB", "2g".
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMG]?(?:i?B)?)\s*$`)

// ParseSize parses a human-readable size string and returns the size in
// bytes. Plain byte counts, "B", and binary K/M/G suffixes (with optional
// "B"/"iB") are accepted; decimal values are truncated to the nearest byte.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}
	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	suffix := strings.ToUpper(matches[2])
	suffix = strings.TrimSuffix(suffix, "IB")
	suffix = strings.TrimSuffix(suffix, "B")

	var multiplier int64
	switch suffix {
	case "":
		multiplier = 1
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	default:
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, suffix)
	}

	return int64(value * float64(multiplier)), nil
}

// ParseWindowLen parses a window length such as "100", "4K", or "1MiB" and
// validates it against the window invariants: it must be positive and no
// larger than MaxWindowLen.
func ParseWindowLen(s string) (uint32, error) {
	n, err := ParseSize(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}
	if n <= 0 || n > MaxWindowLen {
		return 0, fmt.Errorf("%w: %d bytes", ErrInvalidWindow, n)
	}
	return uint32(n), nil
}

// FormatSize converts a size in bytes to a human-readable string using
// binary (IEC) units, e.g. FormatSize(1536*1024) returns "1.5 MiB".
func FormatSize(bytes uint64) string {
	return humanize.IBytes(bytes)
}
