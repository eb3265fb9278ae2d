package engine

// Sit seats player_id at seat, per spec.md §4.1.1.
func Sit(room Room, playerID string, seat int) (Room, []Event, error) {
	p, err := room.player(playerID)
	if err != nil {
		return Room{}, nil, err
	}
	if p.seated() {
		return Room{}, nil, ErrAlreadySeated
	}
	if seat < 0 || seat >= len(room.Seats) {
		if roomFull(room.Seats) {
			return Room{}, nil, ErrRoomFull
		}
		return Room{}, nil, Validation("seat out of range")
	}
	if room.Seats[seat] != "" {
		if roomFull(room.Seats) {
			return Room{}, nil, ErrRoomFull
		}
		return Room{}, nil, ErrSeatTaken
	}

	out := room.Clone()
	out.Seats[seat] = playerID
	op := out.Players[playerID]
	op.Seat = seat
	op.Ready = false
	return out, nil, nil
}

// Join records playerID as a room member without seating them, per
// spec.md §4.5's join_room: "returns the existing player (by device id)
// if already present; otherwise creates a new player, not yet seated."
// The existing-player case is a no-op so Admission can call this
// idempotently on every join attempt.
func Join(room Room, playerID, name, emoji string) (Room, []Event, error) {
	if _, err := room.player(playerID); err == nil {
		return room, nil, nil
	}
	if room.MaxChips != 0 && room.InitialChips > room.MaxChips {
		return Room{}, nil, Validation("initial_chips exceeds max_chips")
	}

	out := room.Clone()
	out.Players[playerID] = NewPlayer(playerID, name, emoji, room.InitialChips)
	return out, nil, nil
}

// SetConnected flips a player's liveness flag, per spec.md §4.3's Session
// Layer opening/closing a socket. It never forfeits a seat or a turn —
// only the flag changes.
func SetConnected(room Room, playerID string, connected bool) (Room, []Event, error) {
	p, err := room.player(playerID)
	if err != nil {
		return Room{}, nil, err
	}
	if p.IsConnected == connected {
		return room, nil, nil
	}

	out := room.Clone()
	out.Players[playerID].IsConnected = connected
	return out, nil, nil
}

// Stand frees playerID's seat. Rejected while a hand is in progress; a
// waiting or finished room allows it.
func Stand(room Room, playerID string) (Room, []Event, error) {
	if room.Status == RoomPlaying {
		return Room{}, nil, ErrHandInProgress
	}
	p, err := room.player(playerID)
	if err != nil {
		return Room{}, nil, err
	}
	if !p.seated() {
		return Room{}, nil, ErrNotSeated
	}

	out := room.Clone()
	op := out.Players[playerID]
	out.Seats[op.Seat] = ""
	op.Seat = -1
	op.Ready = false
	op.Status = StatusActive
	op.CurrentBet = 0
	op.TotalBetThisHand = 0
	op.HasActedThisStreet = false
	return out, nil, nil
}

func roomFull(seats []string) bool {
	for _, id := range seats {
		if id == "" {
			return false
		}
	}
	return true
}

func needsRebuy(r *Room, p *Player) bool {
	if r.RebuyMinimum == 0 {
		return p.Chips == 0
	}
	return p.Chips <= r.RebuyMinimum
}

func needsCashout(r *Room, p *Player) bool {
	return r.MaxChips > 0 && p.Chips > r.MaxChips
}

// SetReady toggles player_id's readiness, gated on rebuy/cashout thresholds.
func SetReady(room Room, playerID string, ready bool) (Room, []Event, error) {
	if room.Status != RoomWaiting {
		return Room{}, nil, ErrNotWaiting
	}
	p, err := room.player(playerID)
	if err != nil {
		return Room{}, nil, err
	}
	if !p.seated() {
		return Room{}, nil, ErrNotSeated
	}
	if ready {
		if needsRebuy(&room, p) {
			return Room{}, nil, ErrMustRebuy
		}
		if needsCashout(&room, p) {
			return Room{}, nil, ErrMustCashout
		}
	}

	out := room.Clone()
	out.Players[playerID].Ready = ready
	return out, nil, nil
}

// Rebuy adds a full buy-in to a blocked-low player.
func Rebuy(room Room, playerID string) (Room, []Event, error) {
	if room.Status != RoomWaiting {
		return Room{}, nil, ErrNotWaiting
	}
	p, err := room.player(playerID)
	if err != nil {
		return Room{}, nil, err
	}
	if !needsRebuy(&room, p) {
		return Room{}, nil, ErrRebuyNotAllowed
	}

	out := room.Clone()
	op := out.Players[playerID]
	op.Chips += room.InitialChips
	op.TotalRebuys++
	return out, nil, nil
}

// Cashout removes one buy-in from a blocked-high player.
func Cashout(room Room, playerID string) (Room, []Event, error) {
	if room.Status != RoomWaiting {
		return Room{}, nil, ErrNotWaiting
	}
	p, err := room.player(playerID)
	if err != nil {
		return Room{}, nil, err
	}
	if !needsCashout(&room, p) {
		return Room{}, nil, ErrCashoutNotAllowed
	}

	out := room.Clone()
	op := out.Players[playerID]
	op.Chips -= room.InitialChips
	op.TotalCashouts++
	return out, nil, nil
}
