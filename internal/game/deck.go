package game

import "math/rand"

// DeckSize52 is the cardinality of a standard deck; the conservation
// invariant checks against it.
const DeckSize52 = 52

var suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// NewDeck returns a standard 52-card deck in suit-major order.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize52)
	for _, suit := range suits {
		for rank := RankTwo; rank <= RankAce; rank++ {
			deck = append(deck, Card{Rank: rank, Suit: suit})
		}
	}

	return deck
}

// ShuffledDeck returns a freshly shuffled standard deck.
func ShuffledDeck() []Card {
	deck := NewDeck()
	rand.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	return deck
}
