package session

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"tablehost/internal/registry"
	"tablehost/internal/roomactor"
)

// Manager is the process-wide hub of live sessions, grounded on the
// teacher's Gateway (apps/server/internal/gateway/gateway.go): it owns
// the HTTP upgrade entrypoint and the per-room subscriber fan-out that
// the Room Actor's broadcast callback feeds into.
type Manager struct {
	registry *registry.Registry

	mu   sync.RWMutex
	subs map[string]map[*Session]struct{} // room id -> subscribed sessions
}

// NewManager constructs a Manager bound to reg. Pass Manager.Broadcast as
// the roomactor.BroadcastFunc when opening or restoring rooms through reg.
func NewManager(reg *registry.Registry) *Manager {
	return &Manager{
		registry: reg,
		subs:     make(map[string]map[*Session]struct{}),
	}
}

// HandleWebSocket upgrades a request at /ws/{room_id}/{player_id}.
func (m *Manager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	m.serve(w, r)
}

func (m *Manager) subscribe(roomID string, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subs[roomID] == nil {
		m.subs[roomID] = make(map[*Session]struct{})
	}
	m.subs[roomID][s] = struct{}{}
}

func (m *Manager) unsubscribe(roomID string, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if set, ok := m.subs[roomID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(m.subs, roomID)
		}
	}
}

// Broadcast implements roomactor.BroadcastFunc: it unpacks the actor's
// Broadcast envelope and re-emits it as the wire frames spec.md §6 names
// — one room_state frame, then one event frame per advisory event, so
// that "snapshots are authoritative; events are advisory" holds on the
// wire exactly as it does inside the engine.
func (m *Manager) Broadcast(roomID string, payload []byte) {
	var b roomactor.Broadcast
	if err := json.Unmarshal(payload, &b); err != nil {
		log.Printf("[Session] failed to unmarshal broadcast for room %s: %v", roomID, err)
		return
	}

	m.mu.RLock()
	subs := make([]*Session, 0, len(m.subs[roomID]))
	for s := range m.subs[roomID] {
		subs = append(subs, s)
	}
	m.mu.RUnlock()

	state := roomStateFrame{Type: "room_state", Room: b.Room}
	for _, s := range subs {
		s.writeJSON(state)
	}
	for _, ev := range b.Events {
		frame := eventFrame{Type: "event", Event: ev.Type, Detail: ev.Detail}
		for _, s := range subs {
			s.writeJSON(frame)
		}
	}
}
