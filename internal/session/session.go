// Package session is the Session Layer: one bidirectional WebSocket
// connection per (room_id, player_id), per spec.md §4.3. It forwards
// inbound JSON frames to the room's Room Actor and fans outbound
// snapshots/events back to the client.
package session

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"tablehost/engine"
	"tablehost/internal/roomactor"
)

const (
	readLimitBytes  = 65536
	pongWait        = 60 * time.Second
	pingInterval    = 30 * time.Second
	writeWait       = 10 * time.Second
	commandTimeout  = 5 * time.Second
	invalidRoomCode = 4001
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict to known origins in production
	},
}

// Session is one client's live connection, bound for its lifetime to a
// single (room_id, player_id) pair.
type Session struct {
	roomID   string
	playerID string
	conn     *websocket.Conn
	actor    *roomactor.Actor
	manager  *Manager

	send chan []byte
	done chan struct{}
}

// serve upgrades the request, validates the (room, player) pair, and runs
// the connection's read/write pumps until it closes.
func (m *Manager) serve(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room_id")
	playerID := r.PathValue("player_id")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Session] upgrade error: %v", err)
		return
	}

	actor, ok := m.registry.Lookup(roomID)
	if !ok {
		closeInvalid(conn, "room not found")
		return
	}
	if _, ok := actor.Snapshot().Players[playerID]; !ok {
		closeInvalid(conn, "player not recognized in this room")
		return
	}

	s := &Session{
		roomID:   roomID,
		playerID: playerID,
		conn:     conn,
		actor:    actor,
		manager:  m,
		send:     make(chan []byte, 256),
		done:     make(chan struct{}),
	}

	m.subscribe(roomID, s)
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	actor.Submit(ctx, roomactor.SetConnected(playerID, true))
	cancel()

	s.pushState(actor.Snapshot())

	log.Printf("[Session] %s/%s connected", roomID, playerID)
	go s.writePump()
	s.readPump()
}

func closeInvalid(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(invalidRoomCode, reason)
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	conn.Close()
}

func (s *Session) readPump() {
	defer func() {
		s.manager.unsubscribe(s.roomID, s)
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		s.actor.Submit(ctx, roomactor.SetConnected(s.playerID, false))
		cancel()
		close(s.done)
		s.conn.Close()
		log.Printf("[Session] %s/%s disconnected", s.roomID, s.playerID)
	}()

	s.conn.SetReadLimit(readLimitBytes)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Session] %s/%s read error: %v", s.roomID, s.playerID, err)
			}
			return
		}
		s.handleFrame(data)
	}
}

func (s *Session) handleFrame(data []byte) {
	var in inboundFrame
	if err := json.Unmarshal(data, &in); err != nil {
		s.writeJSON(newError("invalid frame"))
		return
	}

	switch in.Type {
	case "ping":
		s.writeJSON(newPong(in.Timestamp))
		return
	case "sit":
		s.submit(func(ctx context.Context) roomactor.Result {
			return s.actor.Submit(ctx, roomactor.Sit(s.playerID, in.Seat))
		})
	case "stand":
		s.submit(func(ctx context.Context) roomactor.Result {
			return s.actor.Submit(ctx, roomactor.Stand(s.playerID))
		})
	case "ready":
		ready := true
		if in.Ready != nil {
			ready = *in.Ready
		}
		s.submit(func(ctx context.Context) roomactor.Result {
			return s.actor.Submit(ctx, roomactor.SetReady(s.playerID, ready))
		})
	case "action":
		s.submit(func(ctx context.Context) roomactor.Result {
			return s.actor.Submit(ctx, roomactor.Act(s.playerID, engine.ActionKind(in.Action), in.Amount))
		})
	case "propose_settle":
		s.submit(func(ctx context.Context) roomactor.Result {
			return s.actor.Submit(ctx, roomactor.Propose(s.playerID, in.PotWinners))
		})
	case "confirm_settle":
		s.submit(func(ctx context.Context) roomactor.Result {
			return s.actor.Submit(ctx, roomactor.Confirm(s.playerID))
		})
	case "reject_settle":
		s.submit(func(ctx context.Context) roomactor.Result {
			return s.actor.Submit(ctx, roomactor.Reject(s.playerID))
		})
	case "rebuy":
		s.submit(func(ctx context.Context) roomactor.Result {
			return s.actor.Submit(ctx, roomactor.Rebuy(s.playerID))
		})
	case "cashout":
		s.submit(func(ctx context.Context) roomactor.Result {
			return s.actor.Submit(ctx, roomactor.Cashout(s.playerID))
		})
	case "end_game":
		s.submit(func(ctx context.Context) roomactor.Result {
			return s.actor.Submit(ctx, roomactor.EndGame(s.playerID))
		})
	default:
		s.writeJSON(newError("unknown frame type: " + in.Type))
	}
}

// submit runs fn against the room's actor and, only on failure, replies
// with an error frame — success is observed through the room's own
// broadcast, not a direct reply, per spec.md §4.2.
func (s *Session) submit(fn func(ctx context.Context) roomactor.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if res := fn(ctx); res.Err != nil {
		s.writeJSON(newError(res.Err.Error()))
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *Session) writeJSON(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("[Session] %s/%s failed to marshal frame: %v", s.roomID, s.playerID, err)
		return
	}
	select {
	case s.send <- payload:
	default:
		log.Printf("[Session] %s/%s send buffer full, dropping frame", s.roomID, s.playerID)
	}
}

func (s *Session) pushState(room engine.Room) {
	s.writeJSON(roomStateFrame{Type: "room_state", Room: room})
}
