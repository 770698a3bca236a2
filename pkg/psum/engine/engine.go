// Package engine orchestrates partial-checksum generation and verification.
// Files are fingerprinted by a bounded worker pool; per-file results land in
// one slot per file index, so no cross-path locking is needed and final
// output order is the deterministic input order, never completion order.
package engine

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/jamesainslie/psum/pkg/psum/logging"
	"github.com/jamesainslie/psum/pkg/psum/types"
)

// logger is the package-level logger for engine operations.
var logger = logging.Get("engine")

// Config configures a generation or verification run.
type Config struct {
	// WindowLen is the sample window length in bytes. Must be positive.
	WindowLen uint32

	// Algorithm names the hash algorithm. Empty means the default.
	Algorithm string

	// IncludeModTime hashes and records modification times. Verification
	// must use the same setting the checksum file was generated with;
	// a mismatch produces spurious results, not a detectable error.
	IncludeModTime bool

	// SkipErrors records per-file I/O failures as outcomes and keeps
	// going. When false, the first such failure halts the run; outcomes
	// already computed are still returned.
	SkipErrors bool

	// Workers bounds hashing concurrency. Zero or negative means
	// runtime.NumCPU().
	Workers int

	// Exclude contains path patterns to skip during traversal
	// (generate and extra-pass walks only).
	Exclude []string

	// Remap rewrites recorded path prefixes before comparing against the
	// live tree (verification only).
	Remap types.RemapRule

	// OnFile, when set, receives one event per completed file. It must be
	// safe to call from multiple goroutines.
	OnFile func(Event)
}

// workers returns the effective worker count.
func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// algorithm returns the effective algorithm name.
func (c Config) algorithm() string {
	if c.Algorithm != "" {
		return c.Algorithm
	}
	return "sha256"
}

// Event reports one completed file to the progress callback.
type Event struct {
	// Path is the file the event is about.
	Path string

	// Done and Total report run progress in files.
	Done, Total int64

	// Outcome is the verification outcome, nil during generation.
	Outcome *types.Outcome
}

// FileError pairs a path with the error that prevented fingerprinting it.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string { return e.Path + ": " + e.Err.Error() }

// Unwrap exposes the underlying error for errors.Is/As.
func (e FileError) Unwrap() error { return e.Err }

// pool runs work(i) for every index in [0, total) on a bounded worker
// pool. work returns a fatal error to stop dispatch of remaining indices;
// in-flight calls finish normally. The first fatal error is returned.
func pool(ctx context.Context, workers, total int, work func(i int) error) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var (
		wg       sync.WaitGroup
		fatalMu  sync.Mutex
		fatalErr error
	)

	fail := func(err error) {
		fatalMu.Lock()
		if fatalErr == nil {
			fatalErr = err
		}
		fatalMu.Unlock()
		cancel()
	}

	if workers > total && total > 0 {
		workers = total
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := work(i); err != nil {
					fail(err)
				}
			}
		}()
	}

dispatch:
	for i := 0; i < total; i++ {
		select {
		case jobs <- i:
		case <-runCtx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	fatalMu.Lock()
	defer fatalMu.Unlock()
	if fatalErr != nil {
		return fatalErr
	}
	return ctx.Err()
}

// counter is a done-file counter shared by pool workers.
type counter struct{ n atomic.Int64 }

func (c *counter) inc() int64 { return c.n.Add(1) }
