package engine

import (
	"errors"
	"testing"
)

func newShowdownRoom(t *testing.T, amount int64, eligible []string) Room {
	t.Helper()
	room := newWaitingRoom(t, len(eligible), 10, 1000)
	for i, id := range eligible {
		room.Players[id] = NewPlayer(id, id, "", 1000)
		room.Seats[i] = id
		room.Players[id].Seat = i
	}
	room.Status = RoomPlaying
	room.Hand = &Hand{
		Phase:       PhaseShowdown,
		ActionOrder: append([]string(nil), eligible...),
		Pots:        []Pot{{ID: "pot-0", Amount: amount, EligiblePlayers: eligible}},
	}
	return room
}

func TestProposeRejectsNonEligibleWinner(t *testing.T) {
	room := newShowdownRoom(t, 100, []string{"A", "B"})
	if _, _, err := Propose(room, "A", map[string][]string{"pot-0": {"C"}}); KindOf(err) != KindValidation {
		t.Fatalf("expected a validation error for a non-eligible winner, got %v", err)
	}
}

func TestProposeRejectsIncompletePotCoverage(t *testing.T) {
	room := newShowdownRoom(t, 100, []string{"A", "B"})
	room.Hand.Pots = append(room.Hand.Pots, Pot{ID: "pot-1", Amount: 20, EligiblePlayers: []string{"A", "B"}})
	if _, _, err := Propose(room, "A", map[string][]string{"pot-0": {"A"}}); KindOf(err) != KindValidation {
		t.Fatalf("expected a validation error when pot_winners omits a pot, got %v", err)
	}
}

func TestSecondProposerConflictsWithPending(t *testing.T) {
	room := newShowdownRoom(t, 100, []string{"A", "B"})
	room, _, err := Propose(room, "A", map[string][]string{"pot-0": {"A"}})
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if _, _, err := Propose(room, "B", map[string][]string{"pot-0": {"B"}}); !errors.Is(err, ErrProposalConflict) {
		t.Fatalf("expected ErrProposalConflict, got %v", err)
	}
}

func TestProposerCanAmendTheirOwnProposal(t *testing.T) {
	room := newShowdownRoom(t, 100, []string{"A", "B"})
	room, _, err := Propose(room, "A", map[string][]string{"pot-0": {"A"}})
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	room, _, err = Propose(room, "A", map[string][]string{"pot-0": {"A", "B"}})
	if err != nil {
		t.Fatalf("amend Propose: %v", err)
	}
	if len(room.Hand.SettlementProposal.PotWinners["pot-0"]) != 2 {
		t.Fatalf("expected the amended proposal to stick, got %+v", room.Hand.SettlementProposal)
	}
}

func TestConfirmIsIdempotent(t *testing.T) {
	room := newShowdownRoom(t, 100, []string{"A", "B"})
	room, _, err := Propose(room, "A", map[string][]string{"pot-0": {"A"}})
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	room, _, err = Confirm(room, "A")
	if err != nil {
		t.Fatalf("Confirm A (already implicit): %v", err)
	}
	if len(room.Hand.SettlementProposal.ConfirmedBy) != 1 {
		t.Fatalf("expected confirming twice to stay idempotent, got %+v", room.Hand.SettlementProposal.ConfirmedBy)
	}
}

func TestRatificationDistributesPotsAndEndsTheHand(t *testing.T) {
	room := newShowdownRoom(t, 100, []string{"A", "B"})
	room, _, err := Propose(room, "A", map[string][]string{"pot-0": {"A"}})
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	room, _, err = Confirm(room, "B")
	if err != nil {
		t.Fatalf("Confirm B: %v", err)
	}
	if room.Hand != nil {
		t.Fatalf("expected the hand to be cleared on ratification")
	}
	if room.Status != RoomWaiting {
		t.Fatalf("expected the room to return to waiting, got %s", room.Status)
	}
	if room.Players["A"].Chips != 1100 {
		t.Fatalf("expected A to receive the full pot, got %d", room.Players["A"].Chips)
	}
}

func TestRejectDiscardsThePendingProposal(t *testing.T) {
	room := newShowdownRoom(t, 100, []string{"A", "B"})
	room, _, err := Propose(room, "A", map[string][]string{"pot-0": {"A"}})
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	room, _, err = Reject(room, "B")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if room.Hand.SettlementProposal != nil {
		t.Fatalf("expected the proposal discarded after a reject")
	}
}

func TestEndGameRequiresOwnerAndNoHandInProgress(t *testing.T) {
	room := newWaitingRoom(t, 2, 10, 1000)
	room = seatReady(t, room, "owner", 0, 1000)
	room.OwnerID = "owner"
	room = seatReady(t, room, "other", 1, 1000)

	if _, _, err := EndGame(room, "other"); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("expected ErrIllegalAction for a non-owner, got %v", err)
	}

	playing, _ := mustStart(t, room)
	if _, _, err := EndGame(playing, "owner"); !errors.Is(err, ErrHandInProgress) {
		t.Fatalf("expected ErrHandInProgress mid-hand, got %v", err)
	}

	out, events, err := EndGame(room, "owner")
	if err != nil {
		t.Fatalf("EndGame: %v", err)
	}
	if out.Status != RoomFinished {
		t.Fatalf("expected room finished, got %s", out.Status)
	}
	found := false
	for _, e := range events {
		if e.Type == "game_ended" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a game_ended event, got %+v", events)
	}
}
