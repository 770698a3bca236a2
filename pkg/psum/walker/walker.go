// Package walker enumerates the regular files under a set of roots using
// parallel traversal. Results are returned in lexicographic path order so
// checksum output is deterministic regardless of walk concurrency.
package walker

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
)

// FileMeta describes one regular file found during traversal.
type FileMeta struct {
	// Path is the absolute path to the file.
	Path string

	// Size is the file size in bytes at walk time.
	Size uint64

	// ModTime is the file's modification time at walk time.
	ModTime time.Time
}

// WalkError pairs a path with the traversal error it produced. Walk errors
// do not stop the walk; they are collected for reporting.
type WalkError struct {
	Path string
	Err  error
}

// Options configures a walk.
type Options struct {
	// Exclude contains patterns for paths to skip. A pattern matches as a
	// path prefix (whole components), as a glob against the basename, or
	// as a glob against the full path.
	Exclude []string
}

// Walk enumerates the regular files under each root. A root that is itself
// a regular file is yielded directly, matching how checksum tools accept
// explicit file arguments. Symlinks are not followed. The returned files
// are sorted lexicographically by path.
func Walk(ctx context.Context, roots []string, opts Options) ([]FileMeta, []WalkError, error) {
	var (
		mu       sync.Mutex
		files    []FileMeta
		walkErrs []WalkError
	)

	addFile := func(path string, info fs.FileInfo) {
		mu.Lock()
		files = append(files, FileMeta{
			Path:    path,
			Size:    uint64(info.Size()),
			ModTime: info.ModTime(),
		})
		mu.Unlock()
	}
	addErr := func(path string, err error) {
		mu.Lock()
		walkErrs = append(walkErrs, WalkError{Path: path, Err: err})
		mu.Unlock()
	}

	conf := fastwalk.Config{
		Follow: false,
	}

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, nil, err
		}

		info, err := os.Lstat(abs)
		if err != nil {
			return nil, nil, err
		}
		if info.Mode().IsRegular() {
			addFile(abs, info)
			continue
		}
		if !info.IsDir() {
			// Sockets, devices, dangling symlinks given explicitly.
			addErr(abs, errors.New("not a regular file or directory"))
			continue
		}

		err = fastwalk.Walk(&conf, abs, func(path string, d fs.DirEntry, err error) error {
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			if err != nil {
				addErr(path, err)
				return nil
			}
			if isExcluded(path, opts.Exclude) {
				if d.IsDir() {
					return fastwalk.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				addErr(path, err)
				return nil
			}
			addFile(path, fi)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return nil, nil, err
		}
		if cerr := ctx.Err(); cerr != nil {
			return nil, nil, cerr
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	sort.Slice(walkErrs, func(i, j int) bool { return walkErrs[i].Path < walkErrs[j].Path })
	return files, walkErrs, nil
}

// isExcluded checks a path against the exclusion patterns.
func isExcluded(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if path == pattern {
			return true
		}
		if len(path) > len(pattern) && path[:len(pattern)+1] == pattern+string(filepath.Separator) {
			return true
		}
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
		if matched, err := filepath.Match(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}
