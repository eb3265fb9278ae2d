package admission

import "math/rand"

// profileNames and profileEmojis back GET /random-profile, a small utility
// endpoint spec.md §6 lists alongside the admission HTTP surface proper —
// it has no engine-state implications, so a plain package-level table is
// enough.
var profileNames = []string{
	"Ace", "Bluff", "Chip", "Dealer", "Flush", "Gator", "Hustler", "Joker",
	"Kicker", "Limper", "Maverick", "Nit", "Outlaw", "Pocket", "Quads",
	"River", "Shark", "Tilt", "Value", "Wildcard",
}

var profileEmojis = []string{
	"🃏", "♠️", "♥️", "♦️", "♣️", "🎲", "🐊", "🦈", "🤠", "🎩", "🦁", "🐻", "🐸", "🦊", "🐙",
}

// RandomProfile returns a random display name/emoji pair, for clients that
// want a one-tap identity instead of typing one in.
func RandomProfile() (name, emoji string) {
	return profileNames[rand.Intn(len(profileNames))], profileEmojis[rand.Intn(len(profileEmojis))]
}
