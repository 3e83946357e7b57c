// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type upsert struct {
	code, path string
}

// JSONStore keeps the index in a JSON file mapping code to a list of paths.
// Save re-reads the file and merges pending upserts into it before
// writing back, so updates from another run since Load are kept.
type JSONStore struct {
	path string

	mu      sync.Mutex
	entries map[string][]string
	pending []upsert
}

// NewJSONStore returns a store backed by the file at path. The file need
// not exist yet.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path, entries: make(map[string][]string)}
}

func (s *JSONStore) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := readIndexFile(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	s.pending = nil
	return nil
}

func (s *JSONStore) Upsert(_ context.Context, code, path string) error {
	if code == "" {
		return fmt.Errorf("upsert %s: empty security code", path)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var added bool
	s.entries[code], added = merge(s.entries[code], path)
	if added {
		s.pending = append(s.pending, upsert{code: code, path: path})
	}
	return nil
}

func (s *JSONStore) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	onDisk, err := readIndexFile(s.path)
	if err != nil {
		return err
	}
	for _, u := range s.pending {
		onDisk[u.code], _ = merge(onDisk[u.code], u.path)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(onDisk); err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := writeFileAtomic(s.path, buf.Bytes()); err != nil {
		return err
	}
	s.entries = onDisk
	s.pending = nil
	return nil
}

func (s *JSONStore) Paths(_ context.Context, code string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.entries[code]...), nil
}

func (s *JSONStore) Snapshot(context.Context) (map[string][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyIndex(s.entries), nil
}

func (s *JSONStore) Close() error { return nil }

func readIndexFile(path string) (map[string][]string, error) {
	entries := make(map[string][]string)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entries, nil
		}
		return nil, fmt.Errorf("reading index %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding index %s: %w", path, err)
	}
	if entries == nil {
		entries = make(map[string][]string)
	}
	return entries, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".index-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing index: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
