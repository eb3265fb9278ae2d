// Package registry is the Room Registry: the process-wide table of live
// rooms, per spec.md §2/§4.5. Each entry owns its room's authoritative
// state through its own Room Actor; the registry itself only tracks which
// actors exist and reaps the ones that have sat empty too long.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"tablehost/engine"
	"tablehost/internal/roomactor"
	"tablehost/internal/store"
)

const defaultReapInterval = 30 * time.Second

// Registry is the single process-wide holder of every open room's Actor,
// grounded on the teacher's Lobby (apps/server/internal/lobby/lobby.go)
// minus the NPC-fill and story-mode bookkeeping that repo layers on top.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*roomactor.Actor

	store        store.Service
	idleTTL      time.Duration
	reapInterval time.Duration
	done         chan struct{}
	stopOnce     sync.Once
}

// New constructs a Registry and starts its idle-reap loop, mirroring the
// teacher's lobby.New spawning go l.cleanupLoop().
func New(st store.Service, idleTTL time.Duration) *Registry {
	r := &Registry{
		rooms:        make(map[string]*roomactor.Actor),
		store:        st,
		idleTTL:      idleTTL,
		reapInterval: defaultReapInterval,
		done:         make(chan struct{}),
	}
	go r.reapLoop()
	return r
}

// Create validates cfg, mints a short human-readable room id, seats owner
// at seat 0, and spawns its Room Actor — spec.md §4.1's
// create_room(owner_identity, config).
func (r *Registry) Create(ownerID, ownerName, ownerEmoji string, cfg engine.RoomConfig, broadcast roomactor.BroadcastFunc) (*roomactor.Actor, error) {
	room, err := engine.NewRoom(shortRoomID(), ownerID, cfg)
	if err != nil {
		return nil, err
	}
	room.Players[ownerID] = engine.NewPlayer(ownerID, ownerName, ownerEmoji, cfg.InitialChips)
	room, _, err = engine.Sit(room, ownerID, 0)
	if err != nil {
		return nil, err
	}

	a := roomactor.New(room, r.store, broadcast)
	if err := a.PersistNow(context.Background()); err != nil {
		log.Printf("[Registry] failed to persist new room %s: %v", room.ID, err)
	}

	r.mu.Lock()
	r.rooms[room.ID] = a
	r.mu.Unlock()

	log.Printf("[Registry] opened room %s (owner=%s)", room.ID, ownerID)
	return a, nil
}

// Restore re-spawns an Actor for a room snapshot loaded from the store —
// used at process start to bring persisted rooms back to life, per
// spec.md §3's "persists across process restarts via the snapshot store."
func (r *Registry) Restore(ctx context.Context, roomID string, broadcast roomactor.BroadcastFunc) (*roomactor.Actor, error) {
	r.mu.RLock()
	if existing, ok := r.rooms[roomID]; ok {
		r.mu.RUnlock()
		return existing, nil
	}
	r.mu.RUnlock()

	blob, ok, err := r.store.Load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, engine.ErrNotFound
	}
	var room engine.Room
	if err := json.Unmarshal(blob, &room); err != nil {
		return nil, fmt.Errorf("unmarshal room %s snapshot: %w", roomID, err)
	}

	a := roomactor.New(room, r.store, broadcast)
	r.mu.Lock()
	r.rooms[roomID] = a
	r.mu.Unlock()
	log.Printf("[Registry] restored room %s from snapshot", roomID)
	return a, nil
}

// RestoreAll brings back every room the store has a snapshot for, for use
// at server startup.
func (r *Registry) RestoreAll(ctx context.Context, broadcast roomactor.BroadcastFunc) error {
	ids, err := r.store.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := r.Restore(ctx, id, broadcast); err != nil {
			log.Printf("[Registry] failed to restore room %s: %v", id, err)
		}
	}
	return nil
}

// Lookup returns the Actor for roomID, or false if no such room is open.
func (r *Registry) Lookup(roomID string) (*roomactor.Actor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.rooms[roomID]
	return a, ok
}

// List returns every currently open room id.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	return ids
}

// Close stops and removes roomID's actor immediately and deletes its
// snapshot. ReapIdle is its only caller: an end_game command marks the room
// finished but does not close it.
func (r *Registry) Close(roomID string) {
	r.mu.Lock()
	a, ok := r.rooms[roomID]
	delete(r.rooms, roomID)
	r.mu.Unlock()
	if !ok {
		return
	}
	a.Stop()
	if r.store != nil {
		if err := r.store.Delete(context.Background(), roomID); err != nil {
			log.Printf("[Registry] failed to delete snapshot for room %s: %v", roomID, err)
		}
	}
	log.Printf("[Registry] closed room %s", roomID)
}

func (r *Registry) reapLoop() {
	ticker := time.NewTicker(r.reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.ReapIdle(r.idleTTL)
		case <-r.done:
			return
		}
	}
}

// ReapIdle closes every room that has had no seated players for at least
// ttl — the supplemented analog of the teacher's CleanupIdleTables.
func (r *Registry) ReapIdle(ttl time.Duration) int {
	r.mu.RLock()
	idle := make([]string, 0)
	for id, a := range r.rooms {
		if a.IsIdleFor(ttl) {
			idle = append(idle, id)
		}
	}
	r.mu.RUnlock()

	for _, id := range idle {
		r.Close(id)
		log.Printf("[Registry] reaped idle room %s", id)
	}
	return len(idle)
}

// Stop halts the reap loop and every open room's actor, for graceful
// server shutdown.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.mu.Lock()
		rooms := make([]*roomactor.Actor, 0, len(r.rooms))
		for _, a := range r.rooms {
			rooms = append(rooms, a)
		}
		r.rooms = make(map[string]*roomactor.Actor)
		r.mu.Unlock()
		for _, a := range rooms {
			a.Stop()
		}
	})
}

// shortRoomID mints a human-readable room id: the first 8 hex characters
// of a UUIDv4, matching the "short, human-readable" requirement without
// sacrificing the collision resistance a random generator gives.
func shortRoomID() string {
	return uuid.New().String()[:8]
}
