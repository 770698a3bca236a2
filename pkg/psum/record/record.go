// Package record serializes file fingerprints to and from the line-oriented
// checksum file format:
//
//	<path>\t<size>\t<digest-hex>[\t<mtime>]
//
// One file per line, UTF-8, lowercase hex digests, tab separated. Lines
// beginning with '#' are comments; blank lines are ignored. The mtime column
// is present exactly when modtime inclusion was enabled at generation time
// and is detected from the column count, never from a header.
package record

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/jamesainslie/psum/pkg/psum/fingerprint"
	"github.com/jamesainslie/psum/pkg/psum/types"
)

// CommentPrefix marks a checksum-file line as a comment.
const CommentPrefix = "#"

const fieldSep = "\t"

// Encode renders one fingerprint as a checksum line (without trailing
// newline). Paths containing a tab or newline cannot be represented in the
// format and are rejected with types.ErrUnencodablePath rather than escaped;
// the same policy applies everywhere.
func Encode(fp types.FileFingerprint) (string, error) {
	if fp.Path == "" {
		return "", fmt.Errorf("%w: empty path", types.ErrUnencodablePath)
	}
	if strings.ContainsAny(fp.Path, "\t\n\r") {
		return "", fmt.Errorf("%w: %q", types.ErrUnencodablePath, fp.Path)
	}

	line := fp.Path + fieldSep +
		strconv.FormatUint(fp.Size, 10) + fieldSep +
		hex.EncodeToString(fp.Digest)
	if fp.HasModTime {
		// A zero modtime still gets its column so "omitted" and "zero"
		// can never be confused.
		line += fieldSep + strconv.FormatUint(fp.ModTime, 10)
	}
	return line, nil
}

// Decode parses one checksum line. The modtime column is detected from the
// field count. Decoding rejects a wrong field count, an empty path, a
// non-numeric or negative size, a non-hex digest, and a digest whose length
// does not match the configured algorithm; each failure wraps
// types.ErrMalformedRecord.
func Decode(line string, algo fingerprint.Algorithm) (types.FileFingerprint, error) {
	fields := strings.Split(line, fieldSep)
	if len(fields) < 3 || len(fields) > 4 {
		return types.FileFingerprint{}, fmt.Errorf("%w: %d fields, want 3 or 4", types.ErrMalformedRecord, len(fields))
	}

	path := fields[0]
	if path == "" {
		return types.FileFingerprint{}, fmt.Errorf("%w: empty path", types.ErrMalformedRecord)
	}

	size, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return types.FileFingerprint{}, fmt.Errorf("%w: bad size %q", types.ErrMalformedRecord, fields[1])
	}

	digest, err := hex.DecodeString(fields[2])
	if err != nil {
		return types.FileFingerprint{}, fmt.Errorf("%w: bad digest %q", types.ErrMalformedRecord, fields[2])
	}
	if len(digest) != algo.Size {
		return types.FileFingerprint{}, fmt.Errorf("%w: digest length %d, want %d for %s",
			types.ErrMalformedRecord, len(digest), algo.Size, algo.Name)
	}

	fp := types.FileFingerprint{Path: path, Size: size, Digest: digest}
	if len(fields) == 4 {
		mtime, err := strconv.ParseUint(fields[3], 10, 64)
		if err != nil {
			return types.FileFingerprint{}, fmt.Errorf("%w: bad mtime %q", types.ErrMalformedRecord, fields[3])
		}
		fp.ModTime = mtime
		fp.HasModTime = true
	}
	return fp, nil
}
