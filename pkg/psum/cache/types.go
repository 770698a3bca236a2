package cache

import (
	"bytes"
	"encoding/gob"
)

// Version is incremented when the cache entry format changes.
const Version = 1

// HashConfig identifies the hashing configuration a digest was produced
// under. A cached digest is only valid for an identical configuration.
type HashConfig struct {
	Algorithm      string
	WindowLen      uint32
	IncludeModTime bool
}

// Entry is one cached fingerprint, keyed by absolute path.
type Entry struct {
	Size       uint64
	MtimeNanos int64
	Config     HashConfig
	Digest     []byte
}

// Encode serializes the entry using gob.
func (e *Entry) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes bytes into the entry using gob.
func (e *Entry) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}
