// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps the index in memory only.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]string
}

// NewMemoryStore returns an empty in-memory index.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]string)}
}

func (m *MemoryStore) Load(context.Context) error { return nil }

func (m *MemoryStore) Upsert(_ context.Context, code, path string) error {
	if code == "" {
		return fmt.Errorf("upsert %s: empty security code", path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[code], _ = merge(m.entries[code], path)
	return nil
}

func (m *MemoryStore) Save(context.Context) error { return nil }

func (m *MemoryStore) Paths(_ context.Context, code string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.entries[code]...), nil
}

func (m *MemoryStore) Snapshot(context.Context) (map[string][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyIndex(m.entries), nil
}

func (m *MemoryStore) Close() error { return nil }
