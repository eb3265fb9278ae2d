package engine

import "testing"

func TestRebuildPotsStratifiesByContributionLevel(t *testing.T) {
	players := map[string]*Player{
		"P1": {ID: "P1", TotalBetThisHand: 100, Status: StatusAllIn},
		"P2": {ID: "P2", TotalBetThisHand: 200, Status: StatusAllIn},
		"P3": {ID: "P3", TotalBetThisHand: 200, Status: StatusActive},
	}
	h := &Hand{}
	rebuildPots(h, players, []string{"P1", "P2", "P3"})

	if len(h.Pots) != 2 {
		t.Fatalf("expected 2 pots, got %d: %+v", len(h.Pots), h.Pots)
	}
	if h.Pots[0].Amount != 300 || len(h.Pots[0].EligiblePlayers) != 3 {
		t.Fatalf("unexpected main pot: %+v", h.Pots[0])
	}
	if h.Pots[1].Amount != 200 || len(h.Pots[1].EligiblePlayers) != 2 {
		t.Fatalf("unexpected side pot: %+v", h.Pots[1])
	}
	if h.Pot != 500 {
		t.Fatalf("expected hand.pot to equal the sum of all pots (500), got %d", h.Pot)
	}
}

func TestRebuildPotsExcludesFoldedContributorsFromEligibilityButNotAmount(t *testing.T) {
	players := map[string]*Player{
		"P1": {ID: "P1", TotalBetThisHand: 50, Status: StatusFolded},
		"P2": {ID: "P2", TotalBetThisHand: 50, Status: StatusActive},
	}
	h := &Hand{}
	rebuildPots(h, players, []string{"P1", "P2"})

	if len(h.Pots) != 1 {
		t.Fatalf("expected a single pot, got %+v", h.Pots)
	}
	if h.Pots[0].Amount != 100 {
		t.Fatalf("expected folded chips still counted in the pot amount, got %d", h.Pots[0].Amount)
	}
	if len(h.Pots[0].EligiblePlayers) != 1 || h.Pots[0].EligiblePlayers[0] != "P2" {
		t.Fatalf("expected only P2 eligible, got %v", h.Pots[0].EligiblePlayers)
	}
}

func TestRebuildPotsMergesAdjacentStrataWithIdenticalEligibility(t *testing.T) {
	// P2 folds after contributing 40; P1 goes on to put in 100 total. Both
	// strata have the same eligible set (just P1, since P2 is excluded by
	// the fold either way) and collapse into one pot rather than two.
	players := map[string]*Player{
		"P1": {ID: "P1", TotalBetThisHand: 100, Status: StatusAllIn},
		"P2": {ID: "P2", TotalBetThisHand: 40, Status: StatusFolded},
	}
	h := &Hand{}
	rebuildPots(h, players, []string{"P1", "P2"})

	if len(h.Pots) != 1 {
		t.Fatalf("expected strata with identical eligibility to merge into one pot, got %+v", h.Pots)
	}
	if h.Pots[0].Amount != 140 || len(h.Pots[0].EligiblePlayers) != 1 || h.Pots[0].EligiblePlayers[0] != "P1" {
		t.Fatalf("expected a single 140-chip pot solely eligible to P1, got %+v", h.Pots[0])
	}
}

func TestRebuildPotsGivesAnUncalledExcessItsOwnPot(t *testing.T) {
	// P1 shoves for 100, P2 (all-in, not folded) can only call 40
	// of it: P1's uncalled excess becomes its own sole-eligible pot.
	players := map[string]*Player{
		"P1": {ID: "P1", TotalBetThisHand: 100, Status: StatusAllIn},
		"P2": {ID: "P2", TotalBetThisHand: 40, Status: StatusAllIn},
	}
	h := &Hand{}
	rebuildPots(h, players, []string{"P1", "P2"})

	if len(h.Pots) != 2 {
		t.Fatalf("expected 2 pots, got %+v", h.Pots)
	}
	if h.Pots[1].Amount != 60 || len(h.Pots[1].EligiblePlayers) != 1 || h.Pots[1].EligiblePlayers[0] != "P1" {
		t.Fatalf("expected P1's uncalled 60 excess as a sole-eligible pot, got %+v", h.Pots[1])
	}
}

func TestSplitPotAssignsRemainderToFirstInOrder(t *testing.T) {
	shares := splitPot(101, []string{"A", "B"}, []string{"B", "A"})
	if shares["B"] != 51 || shares["A"] != 50 {
		t.Fatalf("expected B=51 A=50, got %+v", shares)
	}
}

func TestSplitPotEvenAmount(t *testing.T) {
	shares := splitPot(100, []string{"A", "B"}, []string{"A", "B"})
	if shares["A"] != 50 || shares["B"] != 50 {
		t.Fatalf("expected an even 50/50 split, got %+v", shares)
	}
}
