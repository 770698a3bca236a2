// Package cache provides a fingerprint cache for generate mode. A cached
// digest is reused only when the file's size and modification time and the
// full hashing configuration (window length, algorithm, modtime inclusion)
// all match, so a hit can never hide a changed file that a fresh hash would
// have caught under the same configuration. Verification never consults the
// cache: verifying from cache would verify the cache, not the disk.
package cache

import (
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/jamesainslie/psum/pkg/psum/types"
)

// ErrNotFound is returned when no entry exists for a path.
var ErrNotFound = errors.New("cache entry not found")

// Cache wraps a Badger store of fingerprint entries.
type Cache struct {
	db *badger.DB
}

// Open opens or creates a cache at the given directory.
func Open(path string) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Badger's own logging is noise here.

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Lookup returns the cached fingerprint for path if the stored entry
// matches size, mtimeNanos, and cfg exactly. A stale or missing entry
// returns ErrNotFound.
func (c *Cache) Lookup(path string, size uint64, mtimeNanos int64, cfg HashConfig) (types.FileFingerprint, error) {
	var entry Entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(entry.Decode)
	})
	if err != nil {
		return types.FileFingerprint{}, err
	}

	if entry.Size != size || entry.MtimeNanos != mtimeNanos || entry.Config != cfg {
		return types.FileFingerprint{}, ErrNotFound
	}

	fp := types.FileFingerprint{
		Path:   path,
		Size:   size,
		Digest: entry.Digest,
	}
	if cfg.IncludeModTime {
		fp.ModTime = uint64(mtimeNanos / 1e9)
		fp.HasModTime = true
	}
	return fp, nil
}

// Store records a freshly computed fingerprint.
func (c *Cache) Store(path string, mtimeNanos int64, cfg HashConfig, fp types.FileFingerprint) error {
	entry := Entry{
		Size:       fp.Size,
		MtimeNanos: mtimeNanos,
		Config:     cfg,
		Digest:     fp.Digest,
	}
	value, err := entry.Encode()
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(path), value)
	})
}

// Purge drops every cached entry.
func (c *Cache) Purge() error {
	return c.db.DropAll()
}
