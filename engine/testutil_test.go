package engine

import "testing"

// newWaitingRoom builds a room with the given seat count, sb/bb/initial
// chip configuration and no players yet seated.
func newWaitingRoom(t *testing.T, seats int, sb, initialChips int64) Room {
	t.Helper()
	r, err := NewRoom("room-1", "owner", RoomConfig{
		Seats:        seats,
		SBAmount:     sb,
		InitialChips: initialChips,
	})
	if err != nil {
		t.Fatalf("NewRoom: %v", err)
	}
	return r
}

// seatReady seats playerID at seat with chips and marks them ready.
func seatReady(t *testing.T, room Room, playerID string, seat int, chips int64) Room {
	t.Helper()
	room.Players[playerID] = NewPlayer(playerID, playerID, "", chips)
	var err error
	room, _, err = Sit(room, playerID, seat)
	if err != nil {
		t.Fatalf("Sit(%s): %v", playerID, err)
	}
	room, _, err = SetReady(room, playerID, true)
	if err != nil {
		t.Fatalf("SetReady(%s): %v", playerID, err)
	}
	return room
}

func mustStart(t *testing.T, room Room) (Room, []Event) {
	t.Helper()
	out, events, err := StartHand(room)
	if err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	return out, events
}

func totalChipsInPlay(room Room) int64 {
	var total int64
	for _, p := range room.Players {
		total += p.Chips + p.CurrentBet
	}
	if room.Hand != nil {
		for _, pot := range room.Hand.Pots {
			total += pot.Amount
		}
	}
	return total
}
