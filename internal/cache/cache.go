// Package cache stores compiled output keyed by a hash of the source and
// the settings that affect it. Entries are msgpack encoded and zstd
// compressed, one file per key.
package cache

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/xxh3"
)

// FormatVersion changes whenever Entry or the emitted code changes shape.
// Entries written with another version are misses.
const FormatVersion = 1

const extension = ".casec"

// Entry is one cached compilation result.
type Entry struct {
	Version  int       `msgpack:"v"`
	Output   string    `msgpack:"output"`
	Warnings []Warning `msgpack:"warnings,omitempty"`
}

// Warning is a lint finding stored with the output so cache hits report
// it again.
type Warning struct {
	Code    string `msgpack:"code,omitempty"`
	Message string `msgpack:"message"`
	Line    int    `msgpack:"line"`
	Column  int    `msgpack:"column"`
	Hint    string `msgpack:"hint,omitempty"`
}

// Store is a directory of cache entries. It is safe for concurrent use.
type Store struct {
	dir     string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Open returns a store rooted at dir, creating it if needed.
// Call Close when done.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create %s: %w", dir, err)
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("cache: create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("cache: create zstd decoder: %w", err)
	}
	return &Store{dir: dir, encoder: encoder, decoder: decoder}, nil
}

// Close releases the compressor resources.
func (s *Store) Close() error {
	s.decoder.Close()
	return s.encoder.Close()
}

// Key hashes source together with a settings fingerprint.
func Key(source []byte, fingerprint string) string {
	h := xxh3.New()
	h.Write(source)
	h.Write([]byte{0})
	h.WriteString(fingerprint)
	sum := h.Sum128().Bytes()
	return hex.EncodeToString(sum[:])
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key[:2], key+extension)
}

// Get returns the entry for key. A missing entry or one from another
// format version is a miss with a nil error; an unreadable entry is a miss
// with the error.
func (s *Store) Get(key string) (Entry, bool, error) {
	if len(key) < 2 {
		return Entry{}, false, fmt.Errorf("cache: invalid key %q", key)
	}
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache: read %s: %w", key, err)
	}

	raw, err := s.decoder.DecodeAll(data, nil)
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache: decompress %s: %w", key, err)
	}
	var entry Entry
	if err := msgpack.Unmarshal(raw, &entry); err != nil {
		return Entry{}, false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	if entry.Version != FormatVersion {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Put stores entry under key. The file is replaced atomically so readers
// never observe a partial entry.
func (s *Store) Put(key string, entry Entry) error {
	if len(key) < 2 {
		return fmt.Errorf("cache: invalid key %q", key)
	}
	entry.Version = FormatVersion
	raw, err := msgpack.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	data := s.encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2))

	dst := s.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("cache: create %s: %w", filepath.Dir(dst), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return fmt.Errorf("cache: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("cache: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache: write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("cache: commit %s: %w", key, err)
	}
	return nil
}
