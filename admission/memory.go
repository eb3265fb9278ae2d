package admission

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryService keeps device identities in a guarded map. It is the
// default backend, matching store.MemoryService and auth.Manager's
// in-process, restart-loses-everything convention.
type MemoryService struct {
	mu             sync.Mutex
	playerByDevice map[string]string
	roomByPlayer   map[string]string
}

func NewMemoryService() *MemoryService {
	return &MemoryService{
		playerByDevice: make(map[string]string),
		roomByPlayer:   make(map[string]string),
	}
}

func (m *MemoryService) ResolveIdentity(_ context.Context, deviceID string) (string, error) {
	deviceID = strings.TrimSpace(deviceID)
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.playerByDevice[deviceID]; ok {
		return id, nil
	}
	id := uuid.New().String()
	m.playerByDevice[deviceID] = id
	return id, nil
}

func (m *MemoryService) SetActiveRoom(_ context.Context, deviceID, roomID string) error {
	deviceID = strings.TrimSpace(deviceID)
	m.mu.Lock()
	defer m.mu.Unlock()
	playerID, ok := m.playerByDevice[deviceID]
	if !ok {
		return ErrUnknownDevice
	}
	m.roomByPlayer[playerID] = roomID
	return nil
}

func (m *MemoryService) ActiveRoomByDevice(_ context.Context, deviceID string) (string, bool, error) {
	deviceID = strings.TrimSpace(deviceID)
	m.mu.Lock()
	defer m.mu.Unlock()
	playerID, ok := m.playerByDevice[deviceID]
	if !ok {
		return "", false, nil
	}
	roomID, ok := m.roomByPlayer[playerID]
	return roomID, ok, nil
}

func (m *MemoryService) ActiveRoomByPlayer(_ context.Context, playerID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	roomID, ok := m.roomByPlayer[playerID]
	return roomID, ok, nil
}

func (m *MemoryService) ClearActiveRoomByPlayer(_ context.Context, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.roomByPlayer, playerID)
	return nil
}

func (m *MemoryService) Close() error { return nil }
