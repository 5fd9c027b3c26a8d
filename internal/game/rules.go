package game

// IsWild reports whether the card is a TWO, playable on anything and
// accepting anything on top of it.
func IsWild(c Card) bool {
	return c.Rank == RankTwo
}

// IsBurn reports whether the card is a TEN, which removes the discard pile
// (itself included) from play.
func IsBurn(c Card) bool {
	return c.Rank == RankTen
}

// IsLowSetter reports whether the card is a SEVEN, which constrains the next
// play to value seven or lower.
func IsLowSetter(c Card) bool {
	return c.Rank == RankSeven
}

// CanPlayOn decides whether a card may be played. topPresent is false when
// the discard pile is empty, in which case anything plays. The guards run in
// order: a wild card plays on anything; a wild top accepts anything; an
// active low-constraint admits only values of seven or lower (a TEN does not
// override it); a TEN plays on anything else; otherwise the card's value
// must be at least the top's.
func CanPlayOn(card Card, top Card, topPresent bool, mustPlayLow bool) bool {
	if IsWild(card) {
		return true
	}

	if !topPresent {
		return true
	}

	if IsWild(top) {
		return true
	}

	if mustPlayLow {
		return card.Value() <= 7
	}

	if IsBurn(card) {
		return true
	}

	return card.Value() >= top.Value()
}

// sameRank reports whether every card shares the first card's rank. A
// multi-card play must be of a single rank.
func sameRank(cards []Card) bool {
	for _, c := range cards[1:] {
		if c.Rank != cards[0].Rank {
			return false
		}
	}

	return true
}
