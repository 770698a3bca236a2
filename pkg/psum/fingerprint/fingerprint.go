// Package fingerprint builds partial-checksum fingerprints. A fingerprint
// digests a fixed-width encoding of the file size, the sampled window bytes
// in start/middle/end order, and optionally the modification time. The hash
// algorithm is an explicit configuration value threaded through every call,
// never ambient state, so tests can exercise multiple algorithms in one
// process.
package fingerprint

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"sort"
	"syscall"

	"github.com/jamesainslie/psum/pkg/psum/sampler"
	"github.com/jamesainslie/psum/pkg/psum/types"
)

// DefaultAlgorithm is the hash used when none is configured.
const DefaultAlgorithm = "sha256"

// Algorithm describes a configured hash function.
type Algorithm struct {
	// Name is the registry name of the algorithm.
	Name string

	// Size is the digest length in bytes. Constant per algorithm; the
	// record codec validates decoded digests against it.
	Size int

	// New returns a fresh hash state.
	New func() hash.Hash
}

// ErrUnknownAlgorithm is returned when an unregistered algorithm is requested.
var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

var algorithms = map[string]Algorithm{
	"sha256":     {Name: "sha256", Size: sha256.Size, New: sha256.New},
	"sha512-256": {Name: "sha512-256", Size: sha512.Size256, New: sha512.New512_256},
}

// GetAlgorithm returns the named algorithm.
func GetAlgorithm(name string) (Algorithm, error) {
	a, ok := algorithms[name]
	if !ok {
		return Algorithm{}, fmt.Errorf("%w: %q (available: %v)", ErrUnknownAlgorithm, name, Algorithms())
	}
	return a, nil
}

// Algorithms returns the sorted names of all registered algorithms.
func Algorithms() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builder computes fingerprints for one generation or verification run.
// It is safe for concurrent use by multiple workers.
type Builder struct {
	algo           Algorithm
	windowLen      uint32
	includeModTime bool
}

// NewBuilder creates a Builder for the given algorithm name, window length,
// and modtime-inclusion setting. A zero window length fails with
// types.ErrInvalidWindow.
func NewBuilder(algoName string, windowLen uint32, includeModTime bool) (*Builder, error) {
	if windowLen == 0 {
		return nil, fmt.Errorf("%w: zero length", types.ErrInvalidWindow)
	}
	algo, err := GetAlgorithm(algoName)
	if err != nil {
		return nil, err
	}
	return &Builder{algo: algo, windowLen: windowLen, includeModTime: includeModTime}, nil
}

// Algorithm returns the configured hash algorithm.
func (b *Builder) Algorithm() Algorithm { return b.algo }

// WindowLen returns the configured sample window length in bytes.
func (b *Builder) WindowLen() uint32 { return b.windowLen }

// IncludesModTime reports whether modification times are hashed and recorded.
func (b *Builder) IncludesModTime() bool { return b.includeModTime }

// Build assembles a fingerprint from already-read window bytes. The windows
// slice must be in start/middle/end order, exactly as returned by
// sampler.Windows. The digest input is the size as 8 big-endian bytes (so
// differently-sized files with identical sampled bytes cannot collide), each
// window's bytes in order, then the modtime as 8 big-endian bytes iff
// modtime inclusion is enabled.
func (b *Builder) Build(path string, windows [][]byte, size uint64, modTime uint64) types.FileFingerprint {
	h := b.algo.New()

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], size)
	h.Write(buf[:])

	for _, w := range windows {
		h.Write(w)
	}

	if b.includeModTime {
		binary.BigEndian.PutUint64(buf[:], modTime)
		h.Write(buf[:])
	}

	return types.FileFingerprint{
		Path:       path,
		Size:       size,
		Digest:     h.Sum(nil),
		ModTime:    modTime,
		HasModTime: b.includeModTime,
	}
}

// readRetries is how many extra attempts a transient read error gets before
// it is surfaced. Flaky spinning disks sometimes succeed on a reread.
const readRetries = 2

// ComputeFile stats path, samples its windows, and builds the fingerprint.
// The recorded path in the returned fingerprint is recordPath, which may
// differ from path when a remap rule is in effect. I/O failures are returned
// unwrapped beyond context so callers can classify stat-vs-read errors.
func (b *Builder) ComputeFile(path, recordPath string) (types.FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.FileFingerprint{}, err
	}
	return b.ComputeFrom(path, recordPath, uint64(info.Size()), uint64(info.ModTime().Unix()))
}

// ComputeFrom hashes the sampled windows of path given its already-known
// size and modtime, saving a stat when the caller has fresh metadata from a
// walk or an earlier stat call.
func (b *Builder) ComputeFrom(path, recordPath string, size, modTime uint64) (types.FileFingerprint, error) {
	wins, err := sampler.Windows(size, b.windowLen)
	if err != nil {
		return types.FileFingerprint{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return types.FileFingerprint{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	bufs := make([][]byte, len(wins))
	for i, w := range wins {
		buf, err := readWindow(f, w)
		if err != nil {
			return types.FileFingerprint{}, fmt.Errorf("read %s @%d: %w", path, w.Offset, err)
		}
		bufs[i] = buf
	}

	return b.Build(recordPath, bufs, size, modTime), nil
}

// readWindow reads exactly one sample window, retrying transient I/O errors.
func readWindow(r io.ReaderAt, w types.SampleWindow) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= readRetries; attempt++ {
		buf := make([]byte, w.Length)
		n, err := r.ReadAt(buf, int64(w.Offset))
		if err == nil || (errors.Is(err, io.EOF) && n == int(w.Length)) {
			return buf, nil
		}
		lastErr = err
		if !isTransient(err) {
			break
		}
	}
	return nil, lastErr
}

// isTransient reports whether a read error is worth retrying.
func isTransient(err error) bool {
	return errors.Is(err, syscall.EIO) || errors.Is(err, syscall.EINTR)
}
