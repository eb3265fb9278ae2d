// Package roomactor is the Room Actor: a single-threaded, per-room command
// loop that is the only writer of an engine.Room, per spec.md §4.2.
package roomactor

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"tablehost/engine"
	"tablehost/internal/store"
)

// BroadcastFunc fans a room's new state out to every subscribed session.
// The Room Actor itself has no notion of connections, matching the
// teacher's table.go, which accepts a single broadcast callback and
// leaves connection bookkeeping to the gateway layer.
type BroadcastFunc func(roomID string, payload []byte)

// Broadcast is the envelope pushed to sessions after every command that
// changes room state: the full snapshot plus whatever advisory events
// fired alongside it, tagged with a per-room monotonic sequence number so
// a reconnecting client can detect gaps.
type Broadcast struct {
	Seq    uint64         `json:"seq"`
	Room   engine.Room    `json:"room"`
	Events []engine.Event `json:"events,omitempty"`
}

// Actor owns one room's state exclusively; every mutation flows through
// its command channel so concurrent submitters never race.
type Actor struct {
	id string

	mu   sync.RWMutex
	room engine.Room

	commands  chan command
	done      chan struct{}
	stopOnce  sync.Once
	broadcast BroadcastFunc
	store     store.Service

	seq        uint64
	nextHandAt time.Time
	emptySince time.Time
}

// New spawns an Actor's command loop in a new goroutine and returns
// immediately, mirroring the teacher's table.New starting go t.run().
func New(room engine.Room, st store.Service, broadcast BroadcastFunc) *Actor {
	a := &Actor{
		id:        room.ID,
		room:      room,
		commands:  make(chan command, 64),
		done:      make(chan struct{}),
		broadcast: broadcast,
		store:     st,
	}
	if seatedCount(room) == 0 {
		a.emptySince = time.Now()
	}
	go a.run()
	log.Printf("[Room %s] actor started (%d seats)", a.id, len(room.Seats))
	return a
}

// run is the actor's event loop: one goroutine, one mutation path.
func (a *Actor) run() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case cmd := <-a.commands:
			res := a.apply(cmd)
			if cmd.response != nil {
				cmd.response <- res
			}
		case <-ticker.C:
			a.tick()
		case <-a.done:
			log.Printf("[Room %s] actor stopped", a.id)
			return
		}
	}
}

// tick auto-starts the next hand once hand_interval has elapsed, per
// spec.md §3's room-level `hand_interval` field — the supplemented analog
// of the teacher's nextHandAt/tryStartHand pacing.
func (a *Actor) tick() {
	a.mu.Lock()
	if a.room.Status != engine.RoomWaiting || a.nextHandAt.IsZero() || time.Now().Before(a.nextHandAt) {
		a.mu.Unlock()
		return
	}
	a.nextHandAt = time.Time{}
	a.mu.Unlock()

	res := a.apply(command{kind: cmdStartHand, response: nil})
	if res.Err != nil {
		log.Printf("[Room %s] scheduled hand start skipped: %v", a.id, res.Err)
	}
}

// Submit enqueues cmd and blocks for its result, matching the teacher's
// SubmitEvent's synchronous-over-asynchronous pattern.
func (a *Actor) Submit(ctx context.Context, cmd command) Result {
	cmd.response = make(chan Result, 1)
	select {
	case a.commands <- cmd:
	case <-a.done:
		return Result{Err: engine.Internal("room actor is stopped")}
	case <-ctx.Done():
		return Result{Err: engine.Internal("command timed out waiting to enqueue")}
	}
	select {
	case res := <-cmd.response:
		return res
	case <-a.done:
		return Result{Err: engine.Internal("room actor is stopped")}
	case <-ctx.Done():
		return Result{Err: engine.Internal("command timed out waiting for a result")}
	}
}

// apply runs one command against the actor's authoritative room, commits
// on success, persists, and broadcasts. It is only ever called from run(),
// so it never needs its own locking against other commands — only Snapshot,
// IsIdleFor and PersistNow, called from other goroutines, take the read lock.
func (a *Actor) apply(cmd command) Result {
	a.mu.RLock()
	current := a.room
	a.mu.RUnlock()

	newRoom, events, err := cmd.dispatch(current)
	if err != nil {
		return Result{Err: err}
	}

	// Persist before committing in-memory, per spec.md §7: a store write
	// failure aborts the command and leaves the actor's state exactly as
	// it was, rather than broadcasting state the store never saw.
	if err := a.persist(context.Background(), newRoom); err != nil {
		return Result{Err: err}
	}

	a.mu.Lock()
	a.room = newRoom
	a.seq++
	seq := a.seq
	if newRoom.Status == engine.RoomWaiting && newRoom.Hand == nil {
		a.nextHandAt = time.Now().Add(time.Duration(newRoom.HandIntervalSeconds) * time.Second)
	}
	if seatedCount(newRoom) == 0 {
		if a.emptySince.IsZero() {
			a.emptySince = time.Now()
		}
	} else {
		a.emptySince = time.Time{}
	}
	a.mu.Unlock()

	if a.broadcast != nil {
		payload, mErr := json.Marshal(Broadcast{Seq: seq, Room: newRoom, Events: events})
		if mErr != nil {
			log.Printf("[Room %s] failed to marshal broadcast: %v", a.id, mErr)
		} else {
			a.broadcast(a.id, payload)
		}
	}
	return Result{Room: newRoom, Events: events}
}

// persist saves room to the store, wrapping marshal/save failures as
// Internal errors the caller can return directly.
func (a *Actor) persist(ctx context.Context, room engine.Room) error {
	if a.store == nil {
		return nil
	}
	blob, mErr := json.Marshal(room)
	if mErr != nil {
		log.Printf("[Room %s] failed to marshal snapshot: %v", a.id, mErr)
		return engine.Internal("failed to marshal snapshot: " + mErr.Error())
	}
	if sErr := a.store.Save(ctx, a.id, blob); sErr != nil {
		log.Printf("[Room %s] failed to persist snapshot: %v", a.id, sErr)
		return engine.Internal("failed to persist snapshot: " + sErr.Error())
	}
	return nil
}

// PersistNow saves the actor's current snapshot to the store directly,
// bypassing the command queue. Used once, right after a room is created,
// so a freshly opened room survives a restart even if no command is ever
// submitted against it.
func (a *Actor) PersistNow(ctx context.Context) error {
	a.mu.RLock()
	room := a.room
	a.mu.RUnlock()
	return a.persist(ctx, room)
}

// Snapshot returns the room's current state without going through the
// command queue, for read-only uses like HTTP room listing.
func (a *Actor) Snapshot() engine.Room {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.room
}

// IsIdleFor reports whether the room has had no seated players for at
// least ttl, the Room Registry's reap signal.
func (a *Actor) IsIdleFor(ttl time.Duration) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.emptySince.IsZero() {
		return false
	}
	return time.Since(a.emptySince) >= ttl
}

// Stop halts the actor's command loop permanently.
func (a *Actor) Stop() {
	a.stopOnce.Do(func() {
		close(a.done)
	})
}

func seatedCount(room engine.Room) int {
	n := 0
	for _, id := range room.Seats {
		if id != "" {
			n++
		}
	}
	return n
}
