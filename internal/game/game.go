package game

import (
	"errors"
	"time"
)

// State is the lifecycle phase of a game.
type State int

const (
	StateWaiting State = iota
	StatePlaying
	StateFinished
)

// Result reports the outcome of a successful mutation.
type Result int

const (
	// ResultOK means the move was applied and the turn handled normally.
	ResultOK Result = iota
	// ResultWin means the move emptied the acting seat's hand and reserves;
	// the game is finished and the turn did not advance.
	ResultWin
)

// Rule and state errors surfaced to the session layer.
var (
	ErrGameStarted   = errors.New("game: already started")
	ErrNotStarted    = errors.New("game: not started")
	ErrTooFewSeats   = errors.New("game: need at least two seats")
	ErrNotInGame     = errors.New("game: player not seated")
	ErrNotYourTurn   = errors.New("game: not this player's turn")
	ErrCardNotInHand = errors.New("game: card not in hand")
	ErrInvalidPlay   = errors.New("game: play violates the rules")
	ErrEmptyPile     = errors.New("game: discard pile is empty")
	ErrHandNotEmpty  = errors.New("game: hand must be empty to play a reserve")
	ErrNoReserves    = errors.New("game: no reserves left")
)

const (
	handSize    = 3
	reserveSize = 3
)

type seat struct {
	name     string
	hand     []Card
	reserves []Card
}

// Game is the state machine for one two-seat match. It is pure: no I/O, no
// locks. The room registry serializes every call.
type Game struct {
	seats     []*seat
	deck      []Card
	discard   []Card
	burned    []Card
	current   int
	forward   bool
	mustLow   bool
	state     State
	winner    string
	turns     int
	startedAt time.Time
}

// New returns an empty game awaiting seats.
func New() *Game {
	return &Game{forward: true}
}

// AddPlayer appends a seat. It fails once the game has started and ignores a
// name that is already seated.
func (g *Game) AddPlayer(name string) error {
	if g.state != StateWaiting {
		return ErrGameStarted
	}

	if g.seatOf(name) >= 0 {
		return nil
	}

	g.seats = append(g.seats, &seat{name: name})
	return nil
}

// Start shuffles a standard deck and deals. Each seat gets three reserves and
// then three hand cards in seating order; the discard pile starts empty and
// seat zero acts first.
func (g *Game) Start() error {
	return g.startWith(ShuffledDeck())
}

// StartWithDeck runs the deal against a caller-supplied deck ordering, for
// deterministic hands in tests and tooling. Start is the production entry
// point.
func (g *Game) StartWithDeck(deck []Card) error {
	return g.startWith(deck)
}

func (g *Game) startWith(deck []Card) error {
	if g.state != StateWaiting {
		return ErrGameStarted
	}

	if len(g.seats) < 2 {
		return ErrTooFewSeats
	}

	g.deck = deck
	g.discard = nil
	g.burned = nil
	g.current = 0
	g.forward = true
	g.mustLow = false
	g.turns = 0
	g.startedAt = time.Now()

	for _, s := range g.seats {
		s.reserves = g.draw(reserveSize)
	}
	for _, s := range g.seats {
		s.hand = g.draw(handSize)
	}

	g.state = StatePlaying
	return nil
}

func (g *Game) draw(n int) []Card {
	if n > len(g.deck) {
		n = len(g.deck)
	}

	cards := make([]Card, n)
	copy(cards, g.deck[:n])
	g.deck = g.deck[n:]
	return cards
}

// PlayCards applies a play of one or more same-rank cards from the acting
// seat's hand. On success the hand refills to three from the deck while the
// deck lasts; emptying both hand and reserves wins the game.
func (g *Game) PlayCards(name string, cards []Card) (Result, error) {
	idx, err := g.actingSeat(name)
	if err != nil {
		return ResultOK, err
	}

	if len(cards) == 0 || !sameRank(cards) {
		return ResultOK, ErrInvalidPlay
	}

	s := g.seats[idx]
	if !holdsAll(s.hand, cards) {
		return ResultOK, ErrCardNotInHand
	}

	top, present := g.top()
	if !CanPlayOn(cards[0], top, present, g.mustLow) {
		return ResultOK, ErrInvalidPlay
	}

	s.hand = removeCards(s.hand, cards)
	g.discard = append(g.discard, cards...)
	g.applyEffects(cards[0])
	g.refill(s)

	return g.finishTurn(idx)
}

// PlayReserve applies a blind play of the seat's first reserve card. The
// card is consumed either way: a card that beats the pile is played with its
// effects, one that does not goes to the seat's hand along with the whole
// pile, and the turn advances regardless.
func (g *Game) PlayReserve(name string) (Result, error) {
	idx, err := g.actingSeat(name)
	if err != nil {
		return ResultOK, err
	}

	s := g.seats[idx]
	if len(s.hand) > 0 {
		return ResultOK, ErrHandNotEmpty
	}

	if len(s.reserves) == 0 {
		return ResultOK, ErrNoReserves
	}

	card := s.reserves[0]
	s.reserves = s.reserves[1:]

	top, present := g.top()
	if !CanPlayOn(card, top, present, g.mustLow) {
		s.hand = append(s.hand, card)
		s.hand = append(s.hand, g.discard...)
		g.discard = nil
		g.mustLow = false
		g.advance()
		return ResultOK, nil
	}

	g.discard = append(g.discard, card)
	g.applyEffects(card)

	return g.finishTurn(idx)
}

// PickupPile moves the whole discard pile into the acting seat's hand and
// advances the turn. An empty pile cannot be picked up.
func (g *Game) PickupPile(name string) error {
	idx, err := g.actingSeat(name)
	if err != nil {
		return err
	}

	if len(g.discard) == 0 {
		return ErrEmptyPile
	}

	s := g.seats[idx]
	s.hand = append(s.hand, g.discard...)
	g.discard = nil
	g.mustLow = false
	g.advance()
	return nil
}

// actingSeat resolves the seat index of name and checks that the game is
// running and the turn is theirs.
func (g *Game) actingSeat(name string) (int, error) {
	if g.state != StatePlaying {
		return -1, ErrNotStarted
	}

	idx := g.seatOf(name)
	if idx < 0 {
		return -1, ErrNotInGame
	}

	if idx != g.current {
		return -1, ErrNotYourTurn
	}

	return idx, nil
}

// applyEffects handles the representative card of a play that has already
// been appended to the discard pile. A TEN burns the pile with itself; a
// SEVEN arms the low-constraint; everything else disarms it. Burned cards
// leave play for good but stay counted for the conservation invariant.
func (g *Game) applyEffects(card Card) {
	g.mustLow = false

	if IsBurn(card) {
		g.burned = append(g.burned, g.discard...)
		g.discard = nil
		return
	}

	if IsLowSetter(card) {
		g.mustLow = true
	}
}

func (g *Game) refill(s *seat) {
	for len(s.hand) < handSize && len(g.deck) > 0 {
		s.hand = append(s.hand, g.deck[0])
		g.deck = g.deck[1:]
	}
}

// finishTurn checks the win condition for the acting seat and otherwise
// advances to the next seat.
func (g *Game) finishTurn(idx int) (Result, error) {
	g.turns++

	s := g.seats[idx]
	if len(s.hand) == 0 && len(s.reserves) == 0 {
		g.state = StateFinished
		g.winner = s.name
		return ResultWin, nil
	}

	g.advance()
	return ResultOK, nil
}

// advance moves the current seat by one. The direction flag is carried for
// variants that reverse play; with two seats every move goes forward.
func (g *Game) advance() {
	if len(g.seats) == 0 {
		return
	}

	if g.forward {
		g.current = (g.current + 1) % len(g.seats)
	} else {
		g.current = (g.current - 1 + len(g.seats)) % len(g.seats)
	}
}

func (g *Game) seatOf(name string) int {
	for i, s := range g.seats {
		if s.name == name {
			return i
		}
	}

	return -1
}

func (g *Game) top() (Card, bool) {
	if len(g.discard) == 0 {
		return Card{}, false
	}

	return g.discard[len(g.discard)-1], true
}

// holdsAll reports whether hand contains every card of cards, counted as a
// multiset: playing two nines of hearts requires two in hand.
func holdsAll(hand []Card, cards []Card) bool {
	need := make(map[Card]int, len(cards))
	for _, c := range cards {
		need[c]++
	}

	for _, c := range hand {
		if need[c] > 0 {
			need[c]--
		}
	}

	for _, n := range need {
		if n > 0 {
			return false
		}
	}

	return true
}

// removeCards returns hand without cards, removing one occurrence per
// requested copy.
func removeCards(hand []Card, cards []Card) []Card {
	drop := make(map[Card]int, len(cards))
	for _, c := range cards {
		drop[c]++
	}

	kept := hand[:0]
	for _, c := range hand {
		if drop[c] > 0 {
			drop[c]--
			continue
		}

		kept = append(kept, c)
	}

	return kept
}
