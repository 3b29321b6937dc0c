// Package poker implements the pure, deterministic pieces of the card
// game: the Card/Deck representation and the showdown hand evaluator.
package poker

import "math/rand"

// Card is an integer 0..51. Rank = Card % 13 (0=Two .. 12=Ace), Suit
// = Card / 13.
type Card int

// NumRanks and NumSuits size the rank/suit histograms used by Eval.
const (
	NumRanks = 13
	NumSuits = 4
	DeckSize = NumRanks * NumSuits
)

// Rank returns the card's rank, 0 (Two) through 12 (Ace).
func (c Card) Rank() int { return int(c) % NumRanks }

// Suit returns the card's suit, 0 through 3.
func (c Card) Suit() int { return int(c) / NumRanks }

var rankNames = [NumRanks]string{"2", "3", "4", "5", "6", "7", "8", "9", "T", "J", "Q", "K", "A"}
var suitNames = [NumSuits]string{"c", "d", "h", "s"}

// String renders a card as e.g. "Ah" (ace of hearts).
func (c Card) String() string {
	return rankNames[c.Rank()] + suitNames[c.Suit()]
}

// Deck is a shuffled stack of the 52 cards, drawn from the top
// (slice's current end) down.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// NewDeck returns a freshly shuffled 52-card deck seeded from src.
func NewDeck(src rand.Source) *Deck {
	d := &Deck{rng: rand.New(src)}
	d.Reset()
	return d
}

// Reset restores all 52 cards and reshuffles.
func (d *Deck) Reset() {
	d.cards = make([]Card, DeckSize)
	for i := range d.cards {
		d.cards[i] = Card(i)
	}
	d.Shuffle()
}

// Shuffle re-shuffles the cards currently in the deck.
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Draw removes and returns the top card. It panics if the deck is
// empty — a room never draws more than 2*seats + 5 cards from a fresh
// 52-card deck, so an empty draw is a program error, not a runtime
// condition to recover from.
func (d *Deck) Draw() Card {
	if len(d.cards) == 0 {
		panic("poker: draw from empty deck")
	}
	n := len(d.cards) - 1
	c := d.cards[n]
	d.cards = d.cards[:n]
	return c
}

// Remaining reports how many cards are left to draw.
func (d *Deck) Remaining() int {
	return len(d.cards)
}
