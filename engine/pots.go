package engine

import (
	"sort"
	"strconv"
)

// rebuildPots recomputes h.Pots from each player's TotalBetThisHand,
// per spec.md §4.1.5. It is always a full rebuild, never an incremental
// mutation, so an undo/reorder can never desync the pot math.
func rebuildPots(h *Hand, players map[string]*Player, contributors []string) {
	type contrib struct {
		id     string
		amount int64
		folded bool
	}
	cs := make([]contrib, 0, len(contributors))
	for _, id := range contributors {
		p := players[id]
		if p == nil || p.TotalBetThisHand <= 0 {
			continue
		}
		cs = append(cs, contrib{id: id, amount: p.TotalBetThisHand, folded: p.Status == StatusFolded})
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i].amount < cs[j].amount })

	pots := make([]Pot, 0, len(cs))
	var prevLevel int64
	for i, c := range cs {
		levelDelta := c.amount - prevLevel
		if levelDelta <= 0 {
			continue
		}
		eligible := make([]string, 0, len(cs)-i)
		amount := int64(0)
		for j := i; j < len(cs); j++ {
			amount += levelDelta
			if !cs[j].folded {
				eligible = append(eligible, cs[j].id)
			}
		}
		sort.Strings(eligible)

		if len(pots) > 0 && sameEligibles(pots[len(pots)-1].EligiblePlayers, eligible) {
			pots[len(pots)-1].Amount += amount
		} else {
			pots = append(pots, Pot{Amount: amount, EligiblePlayers: eligible})
		}
		prevLevel = c.amount
	}
	for i := range pots {
		pots[i].ID = potID(i)
	}
	h.Pots = pots

	total := int64(0)
	for _, p := range pots {
		total += p.Amount
	}
	h.Pot = total
}

func sameEligibles(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func potID(i int) string {
	return "pot-" + strconv.Itoa(i)
}
