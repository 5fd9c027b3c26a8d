package game

import "time"

// Queries. All of them are read-only and, like the mutations, must run under
// the owning room's lock.

// Started reports whether the deal has happened.
func (g *Game) Started() bool {
	return g.state != StateWaiting
}

// Finished reports whether the game has a winner.
func (g *Game) Finished() bool {
	return g.state == StateFinished
}

// Winner returns the winning seat's name, or "" while the game runs.
func (g *Game) Winner() string {
	return g.winner
}

// Seats returns the seated names in seating order.
func (g *Game) Seats() []string {
	names := make([]string, len(g.seats))
	for i, s := range g.seats {
		names[i] = s.name
	}

	return names
}

// CurrentPlayer returns the name of the seat whose turn it is.
func (g *Game) CurrentPlayer() string {
	if g.current >= len(g.seats) {
		return ""
	}

	return g.seats[g.current].name
}

// Hand returns a copy of the seat's hand, or nil for an unknown name.
func (g *Game) Hand(name string) []Card {
	idx := g.seatOf(name)
	if idx < 0 {
		return nil
	}

	hand := make([]Card, len(g.seats[idx].hand))
	copy(hand, g.seats[idx].hand)
	return hand
}

// ReserveCount returns the number of face-down reserves left for the seat.
func (g *Game) ReserveCount(name string) int {
	idx := g.seatOf(name)
	if idx < 0 {
		return 0
	}

	return len(g.seats[idx].reserves)
}

// DeckSize returns the number of cards left in the draw pile.
func (g *Game) DeckSize() int {
	return len(g.deck)
}

// DiscardSize returns the number of cards on the discard pile.
func (g *Game) DiscardSize() int {
	return len(g.discard)
}

// TopCard returns the top of the discard pile; ok is false when the pile is
// empty and the wire sentinel applies.
func (g *Game) TopCard() (Card, bool) {
	return g.top()
}

// MustPlayLow reports whether the low-constraint from a SEVEN is active.
func (g *Game) MustPlayLow() bool {
	return g.mustLow
}

// Turns returns the number of completed moves, for match summaries.
func (g *Game) Turns() int {
	return g.turns
}

// StartedAt returns the deal time, for match summaries.
func (g *Game) StartedAt() time.Time {
	return g.startedAt
}

// View is the personalized snapshot one seat is allowed to see: its own
// cards, the opponent reduced to counts, and the public table state.
type View struct {
	Hand             []Card
	Reserves         int
	OpponentHand     int
	OpponentReserves int
	CurrentPlayer    string
	TopCard          Card
	TopPresent       bool
	DeckSize         int
	MustPlayLow      bool
	YourTurn         bool
}

// StateFor renders the view for one seat. ok is false for names without a
// seat.
func (g *Game) StateFor(name string) (View, bool) {
	idx := g.seatOf(name)
	if idx < 0 {
		return View{}, false
	}

	v := View{
		Hand:          g.Hand(name),
		Reserves:      len(g.seats[idx].reserves),
		CurrentPlayer: g.CurrentPlayer(),
		DeckSize:      len(g.deck),
		MustPlayLow:   g.mustLow,
		YourTurn:      idx == g.current && g.state == StatePlaying,
	}

	v.TopCard, v.TopPresent = g.top()

	for i, s := range g.seats {
		if i == idx {
			continue
		}

		v.OpponentHand += len(s.hand)
		v.OpponentReserves += len(s.reserves)
	}

	return v, true
}

// cardCount sums every card dealt into the game, burned cards included. The
// conservation invariant says this equals the initial deck size for the
// whole of a match.
func (g *Game) cardCount() int {
	n := len(g.deck) + len(g.discard) + len(g.burned)
	for _, s := range g.seats {
		n += len(s.hand) + len(s.reserves)
	}

	return n
}
