// Package game implements the Gamba shedding-game state machine: a shuffled
// 52-card deck, three reserve and three hand cards per seat, turn-ordered
// plays with wild TWOs, low-constraining SEVENs and pile-burning TENs, blind
// reserve plays, pile pickups, and the win condition. The engine is pure: it
// performs no I/O and holds no locks; callers serialize access.
package game

import (
	"errors"
	"strconv"
	"strings"
)

// Rank is a card rank with its ordinal value: 2..10, then J=11, Q=12, K=13,
// A=14.
type Rank int

const (
	RankTwo   Rank = 2
	RankThree Rank = 3
	RankFour  Rank = 4
	RankFive  Rank = 5
	RankSix   Rank = 6
	RankSeven Rank = 7
	RankEight Rank = 8
	RankNine  Rank = 9
	RankTen   Rank = 10
	RankJack  Rank = 11
	RankQueen Rank = 12
	RankKing  Rank = 13
	RankAce   Rank = 14
)

// Suit is one of H, D, C, S.
type Suit byte

const (
	Hearts   Suit = 'H'
	Diamonds Suit = 'D'
	Clubs    Suit = 'C'
	Spades   Suit = 'S'
)

// ErrBadCard is returned for card codes that do not parse. Parsing is
// strict; a malformed token rejects the whole play.
var ErrBadCard = errors.New("game: malformed card code")

// Card is a rank and suit pair.
type Card struct {
	Rank Rank
	Suit Suit
}

// Value returns the card's ordinal value for comparisons.
func (c Card) Value() int {
	return int(c.Rank)
}

// String renders the wire code: decimal rank for 2..10, J/Q/K/A above,
// followed by the suit letter. Examples: "2H", "10D", "AS".
func (c Card) String() string {
	var rank string
	switch c.Rank {
	case RankJack:
		rank = "J"
	case RankQueen:
		rank = "Q"
	case RankKing:
		rank = "K"
	case RankAce:
		rank = "A"
	default:
		rank = strconv.Itoa(int(c.Rank))
	}

	return rank + string(c.Suit)
}

// ParseCard parses a wire card code. Accepted rank tokens are 2..10 and
// J, Q, K, A; suits are H, D, C, S. Anything else fails with ErrBadCard.
func ParseCard(code string) (Card, error) {
	if len(code) < 2 {
		return Card{}, ErrBadCard
	}

	var suit Suit
	switch code[len(code)-1] {
	case 'H':
		suit = Hearts
	case 'D':
		suit = Diamonds
	case 'C':
		suit = Clubs
	case 'S':
		suit = Spades
	default:
		return Card{}, ErrBadCard
	}

	var rank Rank
	switch token := code[:len(code)-1]; token {
	case "J":
		rank = RankJack
	case "Q":
		rank = RankQueen
	case "K":
		rank = RankKing
	case "A":
		rank = RankAce
	default:
		n, err := strconv.Atoi(token)
		if err != nil || n < 2 || n > 10 || token != strconv.Itoa(n) {
			return Card{}, ErrBadCard
		}

		rank = Rank(n)
	}

	return Card{Rank: rank, Suit: suit}, nil
}

// ParseCards parses a list of wire codes, failing on the first bad token.
func ParseCards(codes []string) ([]Card, error) {
	cards := make([]Card, 0, len(codes))
	for _, code := range codes {
		card, err := ParseCard(code)
		if err != nil {
			return nil, err
		}

		cards = append(cards, card)
	}

	return cards, nil
}

// FormatCards renders cards as a comma-separated list of wire codes.
func FormatCards(cards []Card) string {
	codes := make([]string, len(cards))
	for i, card := range cards {
		codes[i] = card.String()
	}

	return strings.Join(codes, ",")
}
