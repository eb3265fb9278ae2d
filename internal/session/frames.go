package session

import "tablehost/engine"

// inboundFrame is the envelope every client→server message decodes into,
// per spec.md §6's client frame set (ping, sit, stand, ready, action,
// propose_settle, confirm_settle, reject_settle, rebuy, cashout,
// end_game). Not every field is meaningful for every Type.
type inboundFrame struct {
	Type       string              `json:"type"`
	Timestamp  int64               `json:"timestamp,omitempty"`
	Seat       int                 `json:"seat"`
	Ready      *bool               `json:"ready,omitempty"`
	Action     string              `json:"action,omitempty"`
	Amount     int64               `json:"amount,omitempty"`
	PotWinners map[string][]string `json:"pot_winners,omitempty"`
}

// pongFrame echoes the client's ping timestamp verbatim for latency
// measurement, per spec.md §4.3.
type pongFrame struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// roomStateFrame is the full authoritative snapshot, per spec.md §6's
// room_state{room}.
type roomStateFrame struct {
	Type string      `json:"type"`
	Room engine.Room `json:"room"`
}

// eventFrame is a discrete advisory, per spec.md §6's event{event, detail?}.
type eventFrame struct {
	Type  string `json:"type"`
	Event string `json:"event"`
	Detail any  `json:"detail,omitempty"`
}

// errorFrame is a transient failure notice the client displays and
// discards, per spec.md §6's error{message}.
type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newPong(ts int64) pongFrame   { return pongFrame{Type: "pong", Timestamp: ts} }
func newError(msg string) errorFrame { return errorFrame{Type: "error", Message: msg} }
