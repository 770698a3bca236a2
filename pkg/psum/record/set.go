package record

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jamesainslie/psum/pkg/psum/fingerprint"
	"github.com/jamesainslie/psum/pkg/psum/types"
)

// Set is an ordered collection of fingerprints keyed by path. Paths are
// unique within a set; adding a duplicate replaces the earlier record (last
// occurrence wins) while keeping its original position, so verification
// output order matches the checksum file. A Set is built once per run and
// is read-only afterwards, which makes it safe for concurrent reads by
// verification workers.
type Set struct {
	order  []string
	byPath map[string]types.FileFingerprint
}

// NewSet returns an empty record set.
func NewSet() *Set {
	return &Set{byPath: make(map[string]types.FileFingerprint)}
}

// Add inserts a fingerprint, replacing any earlier record for the same
// path. It reports whether a record was replaced, which callers surface as
// a duplicate-path warning.
func (s *Set) Add(fp types.FileFingerprint) (replaced bool) {
	if _, ok := s.byPath[fp.Path]; ok {
		s.byPath[fp.Path] = fp
		return true
	}
	s.order = append(s.order, fp.Path)
	s.byPath[fp.Path] = fp
	return false
}

// Len returns the number of records in the set.
func (s *Set) Len() int { return len(s.order) }

// Get returns the record for path, if any.
func (s *Set) Get(path string) (types.FileFingerprint, bool) {
	fp, ok := s.byPath[path]
	return fp, ok
}

// Records returns all fingerprints in insertion order.
func (s *Set) Records() []types.FileFingerprint {
	out := make([]types.FileFingerprint, 0, len(s.order))
	for _, path := range s.order {
		out = append(out, s.byPath[path])
	}
	return out
}

// HasModTime reports whether the set's records carry a modtime column.
// Valid only for non-empty sets; presence is uniform by construction.
func (s *Set) HasModTime() bool {
	if len(s.order) == 0 {
		return false
	}
	return s.byPath[s.order[0]].HasModTime
}

// DecodeOptions configures record-set parsing.
type DecodeOptions struct {
	// Algorithm validates decoded digest lengths.
	Algorithm fingerprint.Algorithm

	// Lenient skips unparseable lines with a warning instead of aborting
	// the whole parse. Default is strict.
	Lenient bool

	// WantModTime, when non-nil, requires every record's modtime column
	// presence to match. Callers set this from their include-modtime
	// configuration so a mismatched checksum file fails up front instead
	// of producing spurious mismatches.
	WantModTime *bool

	// Warn receives non-fatal parse diagnostics: skipped lines in lenient
	// mode and duplicate paths. May be nil.
	Warn func(lineNo int, msg string)
}

func (o DecodeOptions) warn(lineNo int, format string, args ...interface{}) {
	if o.Warn != nil {
		o.Warn(lineNo, fmt.Sprintf(format, args...))
	}
}

// DecodeAll parses a whole checksum stream into a Set. Blank lines and
// comment lines are ignored. A line-level failure aborts the parse in
// strict mode and is skipped with a warning in lenient mode. Mixing records
// with and without the mtime column is a format error in either mode.
func DecodeAll(r io.Reader, opts DecodeOptions) (*Set, error) {
	set := NewSet()
	var modTimeMode *bool

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, CommentPrefix) {
			continue
		}

		fp, err := Decode(line, opts.Algorithm)
		if err == nil {
			err = checkModTimeMode(fp, &modTimeMode, opts.WantModTime)
		}
		if err != nil {
			if opts.Lenient {
				opts.warn(lineNo, "skipping: %v", err)
				continue
			}
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		if set.Add(fp) {
			opts.warn(lineNo, "duplicate path %q, later record wins", fp.Path)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrChecksumFile, err)
	}
	return set, nil
}

// checkModTimeMode enforces uniform mtime-column presence across the set
// and against the caller's expectation.
func checkModTimeMode(fp types.FileFingerprint, mode **bool, want *bool) error {
	if want != nil && fp.HasModTime != *want {
		if *want {
			return fmt.Errorf("%w: missing mtime column but modtime inclusion is enabled", types.ErrMalformedRecord)
		}
		return fmt.Errorf("%w: unexpected mtime column with modtime inclusion disabled", types.ErrMalformedRecord)
	}
	if *mode == nil {
		m := fp.HasModTime
		*mode = &m
		return nil
	}
	if fp.HasModTime != **mode {
		return fmt.Errorf("%w: mixed mtime column presence within one checksum file", types.ErrMalformedRecord)
	}
	return nil
}

// LoadFile reads and parses a checksum file. A missing or unreadable file
// fails with types.ErrChecksumFile.
func LoadFile(path string, opts DecodeOptions) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrChecksumFile, err)
	}
	defer f.Close()
	return DecodeAll(f, opts)
}
