package engine

// StartHand transitions a waiting Room into a playing Room with a fresh
// Hand, per spec.md §4.1.2.
func StartHand(room Room) (Room, []Event, error) {
	if room.Status != RoomWaiting {
		return Room{}, nil, ErrNotWaiting
	}
	seated := room.seatedPlayerIDs()
	if len(seated) < 2 {
		return Room{}, nil, ErrNotEnoughPlayers
	}
	for _, id := range seated {
		p := room.Players[id]
		if !p.Ready {
			return Room{}, nil, ErrNotAllReady
		}
		if needsRebuy(&room, p) {
			return Room{}, nil, ErrMustRebuy
		}
		if needsCashout(&room, p) {
			return Room{}, nil, ErrMustCashout
		}
	}

	out := room.Clone()

	dealerSeat := firstDealerSeat(&out)
	if out.ButtonSeat >= 0 {
		dealerSeat = nextOccupiedSeat(out.Seats, out.ButtonSeat)
	}
	out.ButtonSeat = dealerSeat

	var sbSeat, bbSeat int
	if len(seated) == 2 {
		sbSeat = dealerSeat
		bbSeat = nextOccupiedSeat(out.Seats, dealerSeat)
	} else {
		sbSeat = nextOccupiedSeat(out.Seats, dealerSeat)
		bbSeat = nextOccupiedSeat(out.Seats, sbSeat)
	}

	h := &Hand{
		Phase:      PhasePreflop,
		DealerSeat: dealerSeat,
		SBSeat:     sbSeat,
		BBSeat:     bbSeat,
	}

	for _, id := range seated {
		p := out.Players[id]
		p.Ready = false
		p.CurrentBet = 0
		p.TotalBetThisHand = 0
		p.HasActedThisStreet = false
		p.LastAction = ""
		if p.Status != StatusSittingOut {
			p.Status = StatusActive
		}
	}

	postBlind(out.Players[out.Seats[sbSeat]], room.SBAmount)
	postBlind(out.Players[out.Seats[bbSeat]], room.BBAmount)
	h.CurrentBet = room.BBAmount
	h.MinRaiseDelta = room.BBAmount
	h.LastRaiserID = out.Seats[bbSeat]

	startSeat := nextOccupiedSeat(out.Seats, bbSeat)
	h.ActionOrder = buildActionOrder(&out, startSeat)
	idx, ok := seekActive(h.ActionOrder, out.Players, 0)
	setCurrentPlayer(h, idx, ok)

	out.Hand = h
	out.Status = RoomPlaying

	events := []Event{evPhaseChange(PhasePreflop)}
	if !ok || runsOutToShowdown(h, out.Players) {
		events = append(events, advanceThroughToShowdown(&out)...)
	}
	return out, events, nil
}

func firstDealerSeat(room *Room) int {
	for i, id := range room.Seats {
		if id != "" {
			return i
		}
	}
	return 0
}

func postBlind(p *Player, amount int64) {
	contribution := amount
	if p.Chips < contribution {
		contribution = p.Chips
	}
	p.Chips -= contribution
	p.CurrentBet = contribution
	p.TotalBetThisHand = contribution
	if p.Chips == 0 {
		p.Status = StatusAllIn
	}
}

// advanceThroughToShowdown walks the hand's phase markers to showdown
// without betting, used when posting the blinds leaves no active player
// who can still act (mirrors street.go's runsOutToShowdown path).
func advanceThroughToShowdown(room *Room) []Event {
	h := room.Hand
	events := []Event{}
	seated := room.seatedPlayerIDs()
	rebuildPots(h, room.Players, seated)
	for h.Phase != PhaseShowdown {
		h.Phase = nextStreet(h.Phase)
		events = append(events, evPhaseChange(h.Phase))
	}
	h.CurrentPlayerID = ""
	// Blinds alone decided the hand before any street rotated ActionOrder
	// off its preflop (UTG-first) order; rebuild it dealer-relative so
	// splitPot's "first left of dealer" remainder rule is well-defined.
	h.ActionOrder = buildActionOrder(room, nextOccupiedSeat(room.Seats, h.DealerSeat))
	return events
}

