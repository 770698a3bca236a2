package fingerprint

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesainslie/psum/pkg/psum/types"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGetAlgorithm(t *testing.T) {
	for _, name := range Algorithms() {
		a, err := GetAlgorithm(name)
		if err != nil {
			t.Fatalf("GetAlgorithm(%q) error = %v", name, err)
		}
		if got := len(a.New().Sum(nil)); got != a.Size {
			t.Errorf("algorithm %q: digest size %d, declared %d", name, got, a.Size)
		}
	}

	if _, err := GetAlgorithm("md5"); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("GetAlgorithm(md5) error = %v, want ErrUnknownAlgorithm", err)
	}
}

func TestNewBuilderZeroWindow(t *testing.T) {
	_, err := NewBuilder(DefaultAlgorithm, 0, false)
	if !errors.Is(err, types.ErrInvalidWindow) {
		t.Fatalf("NewBuilder error = %v, want ErrInvalidWindow", err)
	}
}

// Fingerprinting the same unmodified file twice yields identical digests.
func TestComputeFileDeterministic(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.bin", bytes.Repeat([]byte{0x41}, 5000))

	b, err := NewBuilder(DefaultAlgorithm, 100, false)
	if err != nil {
		t.Fatal(err)
	}

	first, err := b.ComputeFile(path, path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := b.ComputeFile(path, path)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(first.Digest, second.Digest) {
		t.Error("digests differ across identical runs")
	}
	if first.Size != 5000 {
		t.Errorf("Size = %d, want 5000", first.Size)
	}
	if first.HasModTime {
		t.Error("HasModTime = true without modtime inclusion")
	}
	if len(first.Digest) != b.Algorithm().Size {
		t.Errorf("digest length %d, want %d", len(first.Digest), b.Algorithm().Size)
	}
}

// Mutating a byte inside a sampled window changes the digest; mutating a
// byte strictly between windows does not. The blind spot is intentional.
func TestComputeFileSensitivity(t *testing.T) {
	const size = 10000
	const window = 100

	dir := t.TempDir()
	data := bytes.Repeat([]byte{0x55}, size)
	path := writeFile(t, dir, "data.bin", data)

	b, err := NewBuilder(DefaultAlgorithm, window, false)
	if err != nil {
		t.Fatal(err)
	}
	base, err := b.ComputeFile(path, path)
	if err != nil {
		t.Fatal(err)
	}

	mutate := func(offset int) types.FileFingerprint {
		t.Helper()
		mutated := append([]byte(nil), data...)
		mutated[offset] ^= 0xFF
		p := writeFile(t, dir, "mutated.bin", mutated)
		fp, err := b.ComputeFile(p, p)
		if err != nil {
			t.Fatal(err)
		}
		return fp
	}

	// Inside the start, middle, and end windows.
	for _, offset := range []int{0, 99, 4950, 5049, 9900, 9999} {
		if fp := mutate(offset); bytes.Equal(fp.Digest, base.Digest) {
			t.Errorf("mutation at %d (sampled) did not change digest", offset)
		}
	}

	// Strictly between windows.
	for _, offset := range []int{100, 2500, 4949, 5050, 7500, 9899} {
		if fp := mutate(offset); !bytes.Equal(fp.Digest, base.Digest) {
			t.Errorf("mutation at %d (unsampled) changed digest", offset)
		}
	}
}

// Two files whose sampled bytes coincide but whose sizes differ must not
// collide: the size is part of the digest input.
func TestSizeIsHashed(t *testing.T) {
	b, err := NewBuilder(DefaultAlgorithm, 100, false)
	if err != nil {
		t.Fatal(err)
	}

	win := bytes.Repeat([]byte{0x01}, 100)
	a := b.Build("a", [][]byte{win, win, win}, 1000, 0)
	c := b.Build("c", [][]byte{win, win, win}, 2000, 0)
	if bytes.Equal(a.Digest, c.Digest) {
		t.Error("digests collide across different sizes")
	}
}

func TestModTimeToggling(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.bin", bytes.Repeat([]byte{0x02}, 400))

	with, err := NewBuilder(DefaultAlgorithm, 100, true)
	if err != nil {
		t.Fatal(err)
	}
	without, err := NewBuilder(DefaultAlgorithm, 100, false)
	if err != nil {
		t.Fatal(err)
	}

	fpWith, err := with.ComputeFile(path, path)
	if err != nil {
		t.Fatal(err)
	}
	fpWithout, err := without.ComputeFile(path, path)
	if err != nil {
		t.Fatal(err)
	}

	if !fpWith.HasModTime {
		t.Error("HasModTime = false with modtime inclusion")
	}
	if bytes.Equal(fpWith.Digest, fpWithout.Digest) {
		t.Error("modtime inclusion did not change the digest")
	}

	// Touching the mtime changes the digest only in modtime mode.
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	newTime := info.ModTime().Add(-3600e9)
	if err := os.Chtimes(path, newTime, newTime); err != nil {
		t.Fatal(err)
	}

	fpWith2, err := with.ComputeFile(path, path)
	if err != nil {
		t.Fatal(err)
	}
	fpWithout2, err := without.ComputeFile(path, path)
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Equal(fpWith.Digest, fpWith2.Digest) {
		t.Error("mtime change did not alter digest in modtime mode")
	}
	if !bytes.Equal(fpWithout.Digest, fpWithout2.Digest) {
		t.Error("mtime change altered digest without modtime inclusion")
	}
}

func TestComputeFileEmptyAndTiny(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBuilder(DefaultAlgorithm, 100, false)
	if err != nil {
		t.Fatal(err)
	}

	empty := writeFile(t, dir, "empty", nil)
	fp, err := b.ComputeFile(empty, empty)
	if err != nil {
		t.Fatalf("empty file: %v", err)
	}
	if fp.Size != 0 || len(fp.Digest) != b.Algorithm().Size {
		t.Errorf("empty file fingerprint = %+v", fp)
	}

	tiny := writeFile(t, dir, "tiny", []byte("hello"))
	fpTiny, err := b.ComputeFile(tiny, tiny)
	if err != nil {
		t.Fatalf("tiny file: %v", err)
	}
	if bytes.Equal(fpTiny.Digest, fp.Digest) {
		t.Error("tiny and empty files share a digest")
	}
}

func TestComputeFileMissing(t *testing.T) {
	b, err := NewBuilder(DefaultAlgorithm, 100, false)
	if err != nil {
		t.Fatal(err)
	}
	_, err = b.ComputeFile(filepath.Join(t.TempDir(), "nope"), "nope")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("error = %v, want ErrNotExist", err)
	}
}

// The algorithms produce distinct digests for the same input, and the
// choice travels with the builder rather than any global.
func TestAlgorithmsAreIndependent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.bin", bytes.Repeat([]byte{0x03}, 1000))

	digests := map[string][]byte{}
	for _, name := range Algorithms() {
		b, err := NewBuilder(name, 100, false)
		if err != nil {
			t.Fatal(err)
		}
		fp, err := b.ComputeFile(path, path)
		if err != nil {
			t.Fatal(err)
		}
		digests[name] = fp.Digest
	}

	if bytes.Equal(digests["sha256"], digests["sha512-256"]) {
		t.Error("sha256 and sha512-256 produced identical digests")
	}
}
