// Package sampler computes which byte ranges of a file are fed into a
// partial checksum. It performs no I/O: given a file size and a window
// length it returns the ordered start/middle/end sample windows, which makes
// the range policy unit-testable without real files.
package sampler

import (
	"fmt"

	"github.com/jamesainslie/psum/pkg/psum/types"
)

// Windows returns the ordered sample windows for a file of fileSize bytes
// and the configured windowLen.
//
// The returned sequence is always in start, middle, end order; the byte
// stream fed to the hash is the concatenation of these windows in exactly
// that order.
//
//   - fileSize <= windowLen: one window covering the whole file. Small files
//     degenerate to a full checksum; an empty file yields a single empty
//     window, so every file contributes exactly one to three windows.
//   - otherwise start (0, W) and end (fileSize-W, W) are always sampled; the
//     middle window at floor((fileSize-W)/2) is included only when it
//     overlaps neither the start nor the end window.
//
// Windows never extend past end-of-file. A windowLen of zero fails with
// types.ErrInvalidWindow.
func Windows(fileSize uint64, windowLen uint32) ([]types.SampleWindow, error) {
	if windowLen == 0 {
		return nil, fmt.Errorf("%w: zero length", types.ErrInvalidWindow)
	}

	w := uint64(windowLen)

	if fileSize <= w {
		return []types.SampleWindow{{Offset: 0, Length: uint32(fileSize)}}, nil
	}

	start := types.SampleWindow{Offset: 0, Length: windowLen}
	end := types.SampleWindow{Offset: fileSize - w, Length: windowLen}

	mid := types.SampleWindow{Offset: (fileSize - w) / 2, Length: windowLen}
	if overlaps(mid, start) || overlaps(mid, end) {
		return []types.SampleWindow{start, end}, nil
	}
	return []types.SampleWindow{start, mid, end}, nil
}

// overlaps reports whether two windows share any byte.
func overlaps(a, b types.SampleWindow) bool {
	return a.Offset < b.Offset+uint64(b.Length) && b.Offset < a.Offset+uint64(a.Length)
}
