package store

import (
	"context"
	"sync"
)

// MemoryService keeps snapshots in a guarded map. It is the default
// backend, for local development and tests where nothing needs to survive
// a process restart.
type MemoryService struct {
	mu   sync.RWMutex
	blob map[string][]byte
}

func NewMemoryService() *MemoryService {
	return &MemoryService{blob: make(map[string][]byte)}
}

func (m *MemoryService) Save(_ context.Context, roomID string, snapshot []byte) error {
	cp := append([]byte(nil), snapshot...)
	m.mu.Lock()
	m.blob[roomID] = cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryService) Load(_ context.Context, roomID string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blob[roomID]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (m *MemoryService) Delete(_ context.Context, roomID string) error {
	m.mu.Lock()
	delete(m.blob, roomID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryService) ListActive(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.blob))
	for id := range m.blob {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MemoryService) Close() error { return nil }
