package engine

import "fmt"

// LegalActions is a pure projection of which ActionKinds playerID may
// submit right now. Act runs the same check itself, so nothing has to
// call this before submitting an action.
func LegalActions(room Room, playerID string) ([]ActionKind, error) {
	if room.Hand == nil {
		return nil, ErrNoHand
	}
	p, err := room.player(playerID)
	if err != nil {
		return nil, err
	}
	if room.Hand.CurrentPlayerID != playerID {
		return nil, nil
	}
	return legalActionsFor(room.Hand, p), nil
}

func legalActionsFor(h *Hand, p *Player) []ActionKind {
	out := []ActionKind{ActionFold}
	if p.Chips > 0 {
		out = append(out, ActionAllIn)
	}
	if p.CurrentBet == h.CurrentBet {
		out = append(out, ActionCheck)
	} else if h.CurrentBet > p.CurrentBet {
		out = append(out, ActionCall)
	}
	if !p.HasActedThisStreet && p.Chips+p.CurrentBet >= h.CurrentBet+h.MinRaiseDelta {
		out = append(out, ActionRaise)
	}
	return out
}

// Act applies a betting-step action for room.Hand.CurrentPlayerID, per
// spec.md §4.1.3. raiseTo is the target total CurrentBet and is ignored
// for every kind but ActionRaise.
func Act(room Room, playerID string, kind ActionKind, raiseTo int64) (Room, []Event, error) {
	if room.Hand == nil {
		return Room{}, nil, ErrNoHand
	}
	if room.Hand.CurrentPlayerID != playerID {
		return Room{}, nil, ErrNotYourTurn
	}
	p, err := room.player(playerID)
	if err != nil {
		return Room{}, nil, err
	}

	legal := legalActionsFor(room.Hand, p)
	admissible := false
	for _, k := range legal {
		if k == kind {
			admissible = true
			break
		}
	}
	if !admissible {
		return Room{}, nil, ErrIllegalAction
	}
	if kind == ActionRaise {
		if raiseTo < room.Hand.CurrentBet+room.Hand.MinRaiseDelta {
			return Room{}, nil, Validation(fmt.Sprintf("raise to %d is below the minimum of %d", raiseTo, room.Hand.CurrentBet+room.Hand.MinRaiseDelta))
		}
		if raiseTo > p.Chips+p.CurrentBet {
			return Room{}, nil, Validation("raise exceeds covered stack")
		}
	}

	out := room.Clone()
	h := out.Hand
	actor := out.Players[playerID]

	switch kind {
	case ActionFold:
		actor.Status = StatusFolded
		actor.LastAction = "fold"
	case ActionCheck:
		actor.LastAction = "check"
	case ActionCall:
		applyCall(h, actor)
	case ActionRaise:
		applyRaise(out.Players, h, actor, raiseTo)
	case ActionAllIn:
		applyAllIn(out.Players, h, actor)
	}
	actor.HasActedThisStreet = true

	if kind == ActionFold {
		if winnerID, ok := singleSurvivor(&out); ok {
			events, err := awardSingleWinner(&out, winnerID)
			if err != nil {
				return Room{}, nil, err
			}
			return out, events, nil
		}
	}

	if streetComplete(h, out.Players) {
		events := advanceStreet(&out)
		return out, events, nil
	}

	idx, ok := seekActive(h.ActionOrder, out.Players, h.ActionIndex+1)
	if !ok {
		events := advanceStreet(&out)
		return out, events, nil
	}
	setCurrentPlayer(h, idx, ok)
	return out, nil, nil
}

func applyCall(h *Hand, p *Player) {
	contribution := h.CurrentBet - p.CurrentBet
	if contribution > p.Chips {
		contribution = p.Chips
	}
	p.Chips -= contribution
	p.CurrentBet += contribution
	p.TotalBetThisHand += contribution
	if p.Chips == 0 {
		p.Status = StatusAllIn
	}
	p.LastAction = fmt.Sprintf("call %d", contribution)
}

func applyRaise(players map[string]*Player, h *Hand, p *Player, raiseTo int64) {
	contribution := raiseTo - p.CurrentBet
	p.Chips -= contribution
	p.CurrentBet = raiseTo
	p.TotalBetThisHand += contribution
	if p.Chips == 0 {
		p.Status = StatusAllIn
	}
	p.LastAction = fmt.Sprintf("raise %d", raiseTo)
	reopenBetting(players, h, p.ID, raiseTo)
}

func applyAllIn(players map[string]*Player, h *Hand, p *Player) {
	contribution := p.Chips
	newTotal := p.CurrentBet + contribution
	p.Chips = 0
	p.CurrentBet = newTotal
	p.TotalBetThisHand += contribution
	p.Status = StatusAllIn
	p.LastAction = fmt.Sprintf("all_in %d", newTotal)

	if newTotal <= h.CurrentBet {
		return
	}
	if newTotal-h.CurrentBet >= h.MinRaiseDelta {
		reopenBetting(players, h, p.ID, newTotal)
		return
	}
	// Short all-in: raises the bar for matching but does not reopen
	// action for players who already closed out the previous level.
	h.CurrentBet = newTotal
}

// reopenBetting records a legitimate raise to newBet by playerID and
// forces every other live player to act again. MinRaiseDelta is not
// touched here: spec.md §4.1.3 fixes the minimum raise and all-in reopen
// threshold at CurrentBet+bb_amount for the whole street, not at the size
// of the last raise, so it stays whatever hand start / street advance set
// it to (room.BBAmount) until the next street resets it again.
func reopenBetting(players map[string]*Player, h *Hand, playerID string, newBet int64) {
	h.CurrentBet = newBet
	h.LastRaiserID = playerID
	for _, id := range h.ActionOrder {
		if id == playerID {
			continue
		}
		if pl := players[id]; pl != nil && pl.Status == StatusActive {
			pl.HasActedThisStreet = false
		}
	}
}

func singleSurvivor(room *Room) (string, bool) {
	ids := room.nonFoldedSeatedIDs()
	if len(ids) == 1 {
		return ids[0], true
	}
	return "", false
}
