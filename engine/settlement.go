package engine

import "sort"

// Propose submits a pot winner declaration at showdown, per spec.md
// §4.1.6. Only the current proposer (to amend) or a fresh proposer (once
// none is pending) may set a new proposal.
func Propose(room Room, playerID string, potWinners map[string][]string) (Room, []Event, error) {
	if room.Hand == nil || room.Hand.Phase != PhaseShowdown {
		return Room{}, nil, ErrNotShowdown
	}
	if err := requireNonFoldedSeated(&room, playerID); err != nil {
		return Room{}, nil, err
	}
	if existing := room.Hand.SettlementProposal; existing != nil && existing.ProposerID != playerID {
		return Room{}, nil, ErrProposalConflict
	}
	if err := validatePotWinners(room.Hand.Pots, potWinners); err != nil {
		return Room{}, nil, err
	}

	out := room.Clone()
	copied := make(map[string][]string, len(potWinners))
	for k, v := range potWinners {
		copied[k] = append([]string(nil), v...)
	}
	out.Hand.SettlementProposal = &SettlementProposal{
		ProposerID:  playerID,
		PotWinners:  copied,
		ConfirmedBy: []string{playerID},
	}
	return out, nil, nil
}

func validatePotWinners(pots []Pot, potWinners map[string][]string) error {
	if len(potWinners) != len(pots) {
		return Validation("pot_winners must cover exactly the hand's pots")
	}
	for _, pot := range pots {
		winners, ok := potWinners[pot.ID]
		if !ok || len(winners) == 0 {
			return Validation("pot_winners missing winners for " + pot.ID)
		}
		seen := make(map[string]bool, len(winners))
		for _, w := range winners {
			if !pot.hasEligible(w) {
				return Validation(w + " is not eligible for " + pot.ID)
			}
			if seen[w] {
				return Validation(w + " is listed more than once for " + pot.ID)
			}
			seen[w] = true
		}
	}
	return nil
}

func requireNonFoldedSeated(room *Room, playerID string) error {
	p, err := room.player(playerID)
	if err != nil {
		return err
	}
	if !p.seated() {
		return ErrNotSeated
	}
	if p.Status == StatusFolded {
		return Validation("folded players cannot take part in settlement")
	}
	return nil
}

// Confirm adds playerID to the pending proposal's confirmations and
// ratifies (distributes pots, ends the hand) once every non-folded
// seated player has confirmed.
func Confirm(room Room, playerID string) (Room, []Event, error) {
	if room.Hand == nil || room.Hand.SettlementProposal == nil {
		return Room{}, nil, ErrNoProposal
	}
	if err := requireNonFoldedSeated(&room, playerID); err != nil {
		return Room{}, nil, err
	}

	out := room.Clone()
	sp := out.Hand.SettlementProposal
	if !sp.hasConfirmed(playerID) {
		sp.ConfirmedBy = append(sp.ConfirmedBy, playerID)
	}

	if isRatified(sp, out.nonFoldedSeatedIDs()) {
		events, err := distributeAndEndHand(&out, sp)
		if err != nil {
			return Room{}, nil, err
		}
		return out, events, nil
	}
	return out, nil, nil
}

func isRatified(sp *SettlementProposal, nonFolded []string) bool {
	if len(sp.ConfirmedBy) != len(nonFolded) {
		return false
	}
	confirmed := append([]string(nil), sp.ConfirmedBy...)
	sort.Strings(confirmed)
	want := append([]string(nil), nonFolded...)
	sort.Strings(want)
	for i := range want {
		if confirmed[i] != want[i] {
			return false
		}
	}
	return true
}

// Reject discards the pending proposal, returning the hand to
// pre-proposal showdown.
func Reject(room Room, playerID string) (Room, []Event, error) {
	if room.Hand == nil || room.Hand.SettlementProposal == nil {
		return Room{}, nil, ErrNoProposal
	}
	if err := requireNonFoldedSeated(&room, playerID); err != nil {
		return Room{}, nil, err
	}

	out := room.Clone()
	out.Hand.SettlementProposal = nil
	return out, nil, nil
}

func distributeAndEndHand(room *Room, sp *SettlementProposal) ([]Event, error) {
	for _, pot := range room.Hand.Pots {
		winners := sp.PotWinners[pot.ID]
		shares := splitPot(pot.Amount, winners, room.Hand.ActionOrder)
		for id, amt := range shares {
			p, err := room.player(id)
			if err != nil {
				return nil, Internal("settlement referenced unknown player " + id)
			}
			p.Chips += amt
		}
	}
	endHandToWaiting(room)
	return []Event{evPhaseChange(PhaseHandEnd)}, nil
}

// awardSingleWinner closes the hand out immediately when every other
// seated player has folded, per spec.md §4.1.4's fold-victory shortcut.
func awardSingleWinner(room *Room, winnerID string) ([]Event, error) {
	winner, err := room.player(winnerID)
	if err != nil {
		return nil, Internal("fold-victory winner not found")
	}
	pot := int64(0)
	for _, id := range room.seatedPlayerIDs() {
		if p := room.Players[id]; p != nil {
			pot += p.TotalBetThisHand
		}
	}
	winner.Chips += pot
	events := []Event{evPhaseChange(PhaseHandEnd), evSingleWinner(winnerID, winner.Name, pot)}
	endHandToWaiting(room)
	return events, nil
}

func endHandToWaiting(room *Room) {
	room.Status = RoomWaiting
	room.HandNumber++
	for _, id := range room.seatedPlayerIDs() {
		if p := room.Players[id]; p != nil {
			p.Ready = false
			p.CurrentBet = 0
			p.HasActedThisStreet = false
			if p.Status != StatusSittingOut {
				p.Status = StatusActive
			}
		}
	}
	room.Hand = nil
}

// EndGame closes the room permanently. Only the owner may invoke it, and
// only between hands.
func EndGame(room Room, playerID string) (Room, []Event, error) {
	if room.Status == RoomPlaying {
		return Room{}, nil, ErrHandInProgress
	}
	if playerID != room.OwnerID {
		return Room{}, nil, ErrIllegalAction
	}

	out := room.Clone()
	out.Status = RoomFinished
	standings := computeStandings(&out)
	return out, []Event{evGameEnded(standings)}, nil
}

func computeStandings(room *Room) []Standing {
	ids := room.seatedPlayerIDs()
	out := make([]Standing, 0, len(ids))
	for _, id := range ids {
		p := room.Players[id]
		net := p.Chips + int64(p.TotalCashouts)*room.InitialChips - int64(p.TotalRebuys)*room.InitialChips - room.InitialChips
		out = append(out, Standing{
			PlayerID:      id,
			Chips:         p.Chips,
			TotalRebuys:   p.TotalRebuys,
			TotalCashouts: p.TotalCashouts,
			Net:           net,
		})
	}
	return out
}
