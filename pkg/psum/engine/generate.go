package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/jamesainslie/psum/pkg/psum/cache"
	"github.com/jamesainslie/psum/pkg/psum/fingerprint"
	"github.com/jamesainslie/psum/pkg/psum/types"
	"github.com/jamesainslie/psum/pkg/psum/walker"
)

// GenerateResult holds the outcome of a generation run.
type GenerateResult struct {
	// Records contains the computed fingerprints in lexicographic path
	// order, ready for encoding.
	Records []types.FileFingerprint

	// Skipped lists files that could not be fingerprinted, when
	// SkipErrors is set.
	Skipped []FileError

	// WalkErrors lists paths the traversal could not enter.
	WalkErrors []walker.WalkError

	// CacheHits and CacheMisses count fingerprint-cache activity.
	CacheHits, CacheMisses int64

	// Elapsed is the total run duration.
	Elapsed time.Duration
}

// Generate walks roots and computes a fingerprint for every regular file.
// fpCache may be nil to disable the fingerprint cache. When SkipErrors is
// unset, the first per-file failure halts dispatch and is returned along
// with the records completed so far.
func Generate(ctx context.Context, roots []string, cfg Config, fpCache *cache.Cache) (*GenerateResult, error) {
	start := time.Now()

	builder, err := fingerprint.NewBuilder(cfg.algorithm(), cfg.WindowLen, cfg.IncludeModTime)
	if err != nil {
		return nil, err
	}

	files, walkErrs, err := walker.Walk(ctx, roots, walker.Options{Exclude: cfg.Exclude})
	if err != nil {
		return nil, err
	}
	logger.Info("generate started",
		"files", len(files), "window", cfg.WindowLen,
		"algorithm", cfg.algorithm(), "workers", cfg.workers())

	hashCfg := cache.HashConfig{
		Algorithm:      cfg.algorithm(),
		WindowLen:      cfg.WindowLen,
		IncludeModTime: cfg.IncludeModTime,
	}

	type slot struct {
		fp  types.FileFingerprint
		err error
		set bool
	}
	slots := make([]slot, len(files))

	var done counter
	var hits, misses atomic.Int64
	total := int64(len(files))

	poolErr := pool(ctx, cfg.workers(), len(files), func(i int) error {
		f := files[i]

		fp, err := lookupOrCompute(builder, fpCache, hashCfg, f, &hits, &misses)
		if err != nil {
			slots[i] = slot{err: err, set: true}
			if cfg.SkipErrors {
				logger.Warn("skipping file", "path", f.Path, "error", err)
				emit(cfg, f.Path, done.inc(), total, nil)
				return nil
			}
			return FileError{Path: f.Path, Err: err}
		}

		slots[i] = slot{fp: fp, set: true}
		emit(cfg, f.Path, done.inc(), total, nil)
		return nil
	})

	result := &GenerateResult{
		WalkErrors:  walkErrs,
		CacheHits:   hits.Load(),
		CacheMisses: misses.Load(),
	}
	for i, s := range slots {
		switch {
		case !s.set:
			// Never dispatched: run was halted.
		case s.err != nil:
			result.Skipped = append(result.Skipped, FileError{Path: files[i].Path, Err: s.err})
		default:
			result.Records = append(result.Records, s.fp)
		}
	}
	result.Elapsed = time.Since(start)

	logger.Info("generate finished",
		"records", len(result.Records), "skipped", len(result.Skipped),
		"cache_hits", result.CacheHits, "elapsed", result.Elapsed)
	return result, poolErr
}

// lookupOrCompute consults the fingerprint cache before hashing, and
// refreshes it after a miss.
func lookupOrCompute(builder *fingerprint.Builder, fpCache *cache.Cache, hashCfg cache.HashConfig,
	f walker.FileMeta, hits, misses *atomic.Int64) (types.FileFingerprint, error) {

	mtimeNanos := f.ModTime.UnixNano()

	if fpCache != nil {
		if fp, err := fpCache.Lookup(f.Path, f.Size, mtimeNanos, hashCfg); err == nil {
			hits.Add(1)
			return fp, nil
		} else if !errors.Is(err, cache.ErrNotFound) {
			logger.Warn("cache lookup failed", "path", f.Path, "error", err)
		}
	}

	fp, err := builder.ComputeFrom(f.Path, f.Path, f.Size, uint64(f.ModTime.Unix()))
	if err != nil {
		return types.FileFingerprint{}, err
	}

	if fpCache != nil {
		misses.Add(1)
		if err := fpCache.Store(f.Path, mtimeNanos, hashCfg, fp); err != nil {
			logger.Warn("cache store failed", "path", f.Path, "error", err)
		}
	}
	return fp, nil
}

// emit sends a progress event if a callback is configured.
func emit(cfg Config, path string, done, total int64, outcome *types.Outcome) {
	if cfg.OnFile != nil {
		cfg.OnFile(Event{Path: path, Done: done, Total: total, Outcome: outcome})
	}
}
