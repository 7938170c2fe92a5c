package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
)

// Snapshotter saves and restores annotation stores.
type Snapshotter interface {
	Save(ctx context.Context, key string, store *annotation.Store) error
	Load(ctx context.Context, key string) (*annotation.Store, error)
	Close() error
}

// Memory keeps snapshots in process memory. Stores are copied on the way in
// and out, so callers may keep mutating their own store after Save.
type Memory struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemory returns an empty in-memory snapshotter.
func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

// Save stores a JSON snapshot of store under key.
func (m *Memory) Save(_ context.Context, key string, store *annotation.Store) error {
	data, err := json.Marshal(store)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	m.mu.Lock()
	m.items[key] = data
	m.mu.Unlock()
	return nil
}

// Load returns the snapshot saved under key, or nil if there is none.
func (m *Memory) Load(_ context.Context, key string) (*annotation.Store, error) {
	m.mu.RLock()
	data, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decode(key, data)
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

func decode(key string, data []byte) (*annotation.Store, error) {
	store := annotation.NewStore()
	if err := json.Unmarshal(data, store); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return store, nil
}
