package engine

import (
	"errors"
	"testing"
)

func TestLegalActionsForCurrentPlayer(t *testing.T) {
	room := newWaitingRoom(t, 3, 10, 1000)
	room = seatReady(t, room, "A", 0, 1000)
	room = seatReady(t, room, "B", 1, 1000)
	room = seatReady(t, room, "C", 2, 1000)
	room, _ = mustStart(t, room)

	actions, err := LegalActions(room, room.Hand.CurrentPlayerID)
	if err != nil {
		t.Fatalf("LegalActions: %v", err)
	}
	want := map[ActionKind]bool{ActionFold: true, ActionCall: true, ActionRaise: true, ActionAllIn: true}
	for _, a := range actions {
		if !want[a] {
			t.Fatalf("unexpected legal action %s", a)
		}
		delete(want, a)
	}
	if len(want) != 0 {
		t.Fatalf("missing expected legal actions: %v", want)
	}

	// A player who isn't the current actor gets an empty, non-error result.
	notTurn := "B"
	if notTurn == room.Hand.CurrentPlayerID {
		notTurn = "C"
	}
	actions, err = LegalActions(room, notTurn)
	if err != nil {
		t.Fatalf("LegalActions for non-current player: %v", err)
	}
	if len(actions) != 0 {
		t.Fatalf("expected no legal actions out of turn, got %v", actions)
	}
}

func TestActRejectsOutOfTurn(t *testing.T) {
	room := newWaitingRoom(t, 2, 10, 1000)
	room = seatReady(t, room, "A", 0, 1000)
	room = seatReady(t, room, "B", 1, 1000)
	room, _ = mustStart(t, room)

	notTurn := "B"
	if room.Hand.CurrentPlayerID == "B" {
		notTurn = "A"
	}
	if _, _, err := Act(room, notTurn, ActionFold, 0); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
}

func TestActRejectsIllegalCheck(t *testing.T) {
	room := newWaitingRoom(t, 2, 10, 1000)
	room = seatReady(t, room, "A", 0, 1000)
	room = seatReady(t, room, "B", 1, 1000)
	room, _ = mustStart(t, room)

	// A (SB) owes 10 to match the bb and cannot check.
	if _, _, err := Act(room, "A", ActionCheck, 0); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("expected ErrIllegalAction, got %v", err)
	}
}

func TestActRaiseBelowMinimumIsRejected(t *testing.T) {
	room := newWaitingRoom(t, 2, 10, 1000)
	room = seatReady(t, room, "A", 0, 1000)
	room = seatReady(t, room, "B", 1, 1000)
	room, _ = mustStart(t, room)

	if _, _, err := Act(room, "A", ActionRaise, 25); KindOf(err) != KindValidation {
		t.Fatalf("expected a validation error for an under-minimum raise, got %v", err)
	}
}

func TestRaiseReopensActionForEveryoneElse(t *testing.T) {
	room := newWaitingRoom(t, 3, 10, 1000)
	room = seatReady(t, room, "A", 0, 1000)
	room = seatReady(t, room, "B", 1, 1000)
	room = seatReady(t, room, "C", 2, 1000)
	room, _ = mustStart(t, room)

	// UTG is A; raise to 60.
	room, _, err := Act(room, "A", ActionRaise, 60)
	if err != nil {
		t.Fatalf("A raise: %v", err)
	}
	if room.Hand.CurrentBet != 60 || room.Hand.MinRaiseDelta != 20 {
		t.Fatalf("expected current_bet=60 min_raise_delta=20 (fixed at bb_amount), got %d/%d", room.Hand.CurrentBet, room.Hand.MinRaiseDelta)
	}
	if room.Players["B"].HasActedThisStreet {
		t.Fatalf("expected B's acted flag reset by the reopening raise")
	}
}

func TestShortAllInDoesNotReopenAction(t *testing.T) {
	room := newWaitingRoom(t, 3, 10, 1000)
	room = seatReady(t, room, "A", 0, 1000)
	room = seatReady(t, room, "B", 1, 1000)
	room = seatReady(t, room, "C", 2, 110) // bb only has 110 total

	room, _ = mustStart(t, room)
	// A (UTG) raises to 100.
	room, _, err := Act(room, "A", ActionRaise, 100)
	if err != nil {
		t.Fatalf("A raise: %v", err)
	}
	// B calls.
	room, _, err = Act(room, "B", ActionCall, 0)
	if err != nil {
		t.Fatalf("B call: %v", err)
	}
	// C (bb) goes all-in for a total of 110: 10 above the 100 bet, short
	// of the 20-chip minimum raise. A, who already acted on the 100 level,
	// must call the extra 10 but may not re-raise.
	room, _, err = Act(room, "C", ActionAllIn, 0)
	if err != nil {
		t.Fatalf("C all-in: %v", err)
	}
	if room.Hand.CurrentBet != 110 || room.Hand.CurrentPlayerID != "A" {
		t.Fatalf("expected current_bet=110 with A to act, got %d/%q", room.Hand.CurrentBet, room.Hand.CurrentPlayerID)
	}
	legal, err := LegalActions(room, "A")
	if err != nil {
		t.Fatalf("LegalActions: %v", err)
	}
	foundRaise := false
	for _, a := range legal {
		if a == ActionRaise {
			foundRaise = true
		}
	}
	if foundRaise {
		t.Fatalf("A should not be able to re-raise after a short all-in, got %v", legal)
	}
}

func TestFoldVictoryAwardsEntirePotImmediately(t *testing.T) {
	room := newWaitingRoom(t, 3, 10, 1000)
	room = seatReady(t, room, "A", 0, 1000)
	room = seatReady(t, room, "B", 1, 1000)
	room = seatReady(t, room, "C", 2, 1000)
	room, _ = mustStart(t, room)

	room, _, err := Act(room, "A", ActionFold, 0)
	if err != nil {
		t.Fatalf("A fold: %v", err)
	}
	room, events, err := Act(room, "B", ActionFold, 0)
	if err != nil {
		t.Fatalf("B fold: %v", err)
	}
	if room.Status != RoomWaiting || room.Hand != nil {
		t.Fatalf("expected the hand to end immediately on fold-to-one, got status=%s hand=%+v", room.Status, room.Hand)
	}
	found := false
	for _, e := range events {
		if e.Type == "single_winner" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a single_winner event, got %+v", events)
	}
	if room.Players["C"].Chips != 1010 {
		t.Fatalf("expected C to win the uncalled 30-chip pot net of C's own 20-chip bb post, got %d", room.Players["C"].Chips)
	}
}
