package engine

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/jamesainslie/psum/pkg/psum/fingerprint"
	"github.com/jamesainslie/psum/pkg/psum/record"
	"github.com/jamesainslie/psum/pkg/psum/types"
	"github.com/jamesainslie/psum/pkg/psum/walker"
)

// Summary counts verification outcomes by kind.
type Summary struct {
	Matched        int64 `json:"matched"`
	Mismatched     int64 `json:"mismatched"`
	MetaMismatched int64 `json:"meta_mismatched"`
	Missing        int64 `json:"missing"`
	Extra          int64 `json:"extra"`
	Errors         int64 `json:"errors"`
}

// Failures returns the number of outcomes that make the run a failure.
func (s Summary) Failures() int64 {
	return s.Mismatched + s.MetaMismatched + s.Missing + s.Errors
}

// add counts one outcome.
func (s *Summary) add(kind types.OutcomeKind) {
	switch kind {
	case types.Match:
		s.Matched++
	case types.ContentMismatch:
		s.Mismatched++
	case types.MetadataOnlyMismatch:
		s.MetaMismatched++
	case types.Missing:
		s.Missing++
	case types.Extra:
		s.Extra++
	case types.ReadError:
		s.Errors++
	}
}

// VerifyResult holds the outcome of a verification run.
type VerifyResult struct {
	// Outcomes contains one entry per expected record, in the order the
	// record set was constructed, followed by any Extra outcomes in
	// lexicographic path order.
	Outcomes []types.Outcome

	// Summary counts outcomes by kind.
	Summary Summary

	// WalkErrors lists traversal failures from the optional extra pass.
	WalkErrors []walker.WalkError

	// Elapsed is the total run duration.
	Elapsed time.Duration
}

// Verify recomputes the fingerprint of every record in set against the
// live filesystem and classifies each as Match, ContentMismatch,
// MetadataOnlyMismatch, Missing, or ReadError. The remap rule in cfg is
// applied to each recorded path before touching the disk; reported paths
// stay as recorded so output lines up with the checksum file.
//
// extraRoot, when non-empty, enables the companion diff pass: live files
// under it with no corresponding record are appended as Extra outcomes.
//
// When SkipErrors is unset, the first per-file I/O error halts dispatch;
// outcomes already computed are still returned alongside the error.
func Verify(ctx context.Context, set *record.Set, cfg Config, extraRoot string) (*VerifyResult, error) {
	start := time.Now()

	builder, err := fingerprint.NewBuilder(cfg.algorithm(), cfg.WindowLen, cfg.IncludeModTime)
	if err != nil {
		return nil, err
	}

	expected := set.Records()
	logger.Info("verify started",
		"records", len(expected), "window", cfg.WindowLen,
		"remap", !cfg.Remap.IsZero(), "workers", cfg.workers())

	slots := make([]*types.Outcome, len(expected))
	var done counter
	total := int64(len(expected))

	poolErr := pool(ctx, cfg.workers(), len(expected), func(i int) error {
		fp := expected[i]
		outcome, ioErr := verifyOne(builder, fp, cfg.Remap)
		slots[i] = &outcome
		emit(cfg, fp.Path, done.inc(), total, &outcome)

		if ioErr != nil && !cfg.SkipErrors {
			return FileError{Path: fp.Path, Err: ioErr}
		}
		if ioErr != nil {
			logger.Warn("skipping file", "path", fp.Path, "error", ioErr)
		}
		return nil
	})

	result := &VerifyResult{}
	for _, o := range slots {
		if o == nil {
			continue // never dispatched: run was halted
		}
		result.Outcomes = append(result.Outcomes, *o)
		result.Summary.add(o.Kind)
	}

	if poolErr == nil && extraRoot != "" {
		extras, walkErrs, err := findExtras(ctx, set, cfg, extraRoot)
		if err != nil {
			return result, err
		}
		result.WalkErrors = walkErrs
		for _, o := range extras {
			result.Outcomes = append(result.Outcomes, o)
			result.Summary.add(o.Kind)
		}
	}

	result.Elapsed = time.Since(start)
	logger.Info("verify finished",
		"matched", result.Summary.Matched, "failures", result.Summary.Failures(),
		"elapsed", result.Elapsed)
	return result, poolErr
}

// verifyOne classifies a single expected record. The second return value is
// the underlying I/O error when the outcome stems from one; it drives the
// skip-errors policy without leaking into determinate outcomes.
func verifyOne(builder *fingerprint.Builder, fp types.FileFingerprint, remap types.RemapRule) (types.Outcome, error) {
	livePath := remap.Apply(fp.Path)

	info, err := os.Stat(livePath)
	if err != nil {
		if os.IsNotExist(err) {
			return types.Outcome{Path: fp.Path, Kind: types.Missing}, nil
		}
		return types.Outcome{Path: fp.Path, Kind: types.ReadError, Err: err.Error()}, err
	}

	current, err := builder.ComputeFrom(livePath, fp.Path, uint64(info.Size()), uint64(info.ModTime().Unix()))
	if err != nil {
		// The digest could not be recomputed. If the metadata already
		// disagrees with the record, that is a determinate mismatch
		// even without a digest.
		if uint64(info.Size()) != fp.Size {
			return types.Outcome{Path: fp.Path, Kind: types.MetadataOnlyMismatch, Err: err.Error()}, err
		}
		return types.Outcome{Path: fp.Path, Kind: types.ReadError, Err: err.Error()}, err
	}

	if bytes.Equal(current.Digest, fp.Digest) {
		return types.Outcome{Path: fp.Path, Kind: types.Match}, nil
	}
	return types.Outcome{Path: fp.Path, Kind: types.ContentMismatch}, nil
}

// findExtras walks the live tree and reports files with no expected record.
func findExtras(ctx context.Context, set *record.Set, cfg Config, root string) ([]types.Outcome, []walker.WalkError, error) {
	expectedLive := make(map[string]struct{}, set.Len())
	for _, fp := range set.Records() {
		expectedLive[cfg.Remap.Apply(fp.Path)] = struct{}{}
	}

	files, walkErrs, err := walker.Walk(ctx, []string{root}, walker.Options{Exclude: cfg.Exclude})
	if err != nil {
		return nil, nil, err
	}

	var extras []types.Outcome
	for _, f := range files {
		if _, ok := expectedLive[f.Path]; !ok {
			extras = append(extras, types.Outcome{Path: f.Path, Kind: types.Extra})
		}
	}
	return extras, walkErrs, nil
}
