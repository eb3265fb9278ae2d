package roomactor

import "tablehost/engine"

type commandKind int

const (
	cmdJoin commandKind = iota
	cmdSit
	cmdStand
	cmdSetReady
	cmdSetConnected
	cmdRebuy
	cmdCashout
	cmdStartHand
	cmdAct
	cmdPropose
	cmdConfirm
	cmdReject
	cmdEndGame
)

// command is one request waiting to be applied by the actor's single
// command loop. The zero value of every field not relevant to Kind is
// simply ignored by dispatch.
type command struct {
	kind     commandKind
	playerID  string
	name      string
	emoji     string
	seat      int
	ready     bool
	connected bool
	action    engine.ActionKind
	raiseTo  int64
	winners  map[string][]string

	response chan Result
}

// Result is what Submit returns: the room's new state and any events, or
// an error (in which case Room/Events are zero and the prior room is
// unchanged).
type Result struct {
	Room   engine.Room
	Events []engine.Event
	Err    error
}

func (c command) dispatch(room engine.Room) (engine.Room, []engine.Event, error) {
	switch c.kind {
	case cmdJoin:
		return engine.Join(room, c.playerID, c.name, c.emoji)
	case cmdSit:
		return engine.Sit(room, c.playerID, c.seat)
	case cmdStand:
		return engine.Stand(room, c.playerID)
	case cmdSetReady:
		return engine.SetReady(room, c.playerID, c.ready)
	case cmdSetConnected:
		return engine.SetConnected(room, c.playerID, c.connected)
	case cmdRebuy:
		return engine.Rebuy(room, c.playerID)
	case cmdCashout:
		return engine.Cashout(room, c.playerID)
	case cmdStartHand:
		return engine.StartHand(room)
	case cmdAct:
		return engine.Act(room, c.playerID, c.action, c.raiseTo)
	case cmdPropose:
		return engine.Propose(room, c.playerID, c.winners)
	case cmdConfirm:
		return engine.Confirm(room, c.playerID)
	case cmdReject:
		return engine.Reject(room, c.playerID)
	case cmdEndGame:
		return engine.EndGame(room, c.playerID)
	default:
		return engine.Room{}, nil, engine.Internal("unknown command kind")
	}
}

// The Sit/Stand/... constructors below are the package's public surface
// for building commands to pass to Actor.Submit — callers never need to
// name the unexported command type directly.

func Join(playerID, name, emoji string) command {
	return command{kind: cmdJoin, playerID: playerID, name: name, emoji: emoji}
}

func Sit(playerID string, seat int) command { return command{kind: cmdSit, playerID: playerID, seat: seat} }

func Stand(playerID string) command { return command{kind: cmdStand, playerID: playerID} }

func SetReady(playerID string, ready bool) command {
	return command{kind: cmdSetReady, playerID: playerID, ready: ready}
}

func SetConnected(playerID string, connected bool) command {
	return command{kind: cmdSetConnected, playerID: playerID, connected: connected}
}

func Rebuy(playerID string) command { return command{kind: cmdRebuy, playerID: playerID} }

func Cashout(playerID string) command { return command{kind: cmdCashout, playerID: playerID} }

func StartHand() command { return command{kind: cmdStartHand} }

func Act(playerID string, action engine.ActionKind, raiseTo int64) command {
	return command{kind: cmdAct, playerID: playerID, action: action, raiseTo: raiseTo}
}

func Propose(playerID string, winners map[string][]string) command {
	return command{kind: cmdPropose, playerID: playerID, winners: winners}
}

func Confirm(playerID string) command { return command{kind: cmdConfirm, playerID: playerID} }

func Reject(playerID string) command { return command{kind: cmdReject, playerID: playerID} }

func EndGame(playerID string) command { return command{kind: cmdEndGame, playerID: playerID} }
