// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index maintains the security-code index: for each listing code,
// the record files written for that company across filings. The index is
// append-only and de-duplicated; it is a convenience for lookups and is
// never consulted for extraction.
package index

import (
	"context"
	"fmt"
	"sort"

	"github.com/pdiddy/edinet-facts/pkg/types"
)

// Store is the security-code index. Load must be called before use;
// Upsert changes become durable after Save.
type Store interface {
	// Load reads the persisted index.
	Load(ctx context.Context) error

	// Upsert adds path to the list for code unless it is already present.
	Upsert(ctx context.Context, code, path string) error

	// Save persists all upserts since Load.
	Save(ctx context.Context) error

	// Paths returns the record paths for code in insertion order.
	Paths(ctx context.Context, code string) ([]string, error)

	// Snapshot returns the full index.
	Snapshot(ctx context.Context) (map[string][]string, error)

	// Close releases resources held by the store.
	Close() error
}

// Open returns the store selected by cfg.
func Open(cfg types.IndexConfig) (Store, error) {
	switch cfg.Backend {
	case types.IndexJSON, "":
		return NewJSONStore(cfg.Path), nil
	case types.IndexSQLite:
		return NewSQLiteStore(cfg.Path)
	case types.IndexMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown index backend %q (want json, sqlite or memory)", cfg.Backend)
}

// Codes returns the security codes in snap, sorted.
func Codes(snap map[string][]string) []string {
	codes := make([]string, 0, len(snap))
	for c := range snap {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// merge appends path to list unless present and reports whether it was added.
func merge(list []string, path string) ([]string, bool) {
	for _, p := range list {
		if p == path {
			return list, false
		}
	}
	return append(list, path), true
}

func copyIndex(src map[string][]string) map[string][]string {
	out := make(map[string][]string, len(src))
	for k, v := range src {
		out[k] = append([]string(nil), v...)
	}
	return out
}
