package engine

import (
	"fmt"
	"math/rand"
	"time"
)

func NewDeck(seed int64) []Card {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(seed))
	var deck []Card
	for s := 0; s < 4; s++ {
		for rnk := 2; rnk <= 14; rnk++ {
			deck = append(deck, Card{Rank: rnk, Suit: "cdhs"[s]})
		}
	}
	for i := len(deck) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

func (c Card) String() string {
	ranks := "  23456789TJQKA"
	return fmt.Sprintf("%c%c", ranks[c.Rank], c.Suit)
}

// ParseCard reads the "As"/"Td" notation back into a Card.
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return Card{}, fmt.Errorf("bad card %q", s)
	}
	rank := 0
	switch s[0] {
	case 'T':
		rank = 10
	case 'J':
		rank = 11
	case 'Q':
		rank = 12
	case 'K':
		rank = 13
	case 'A':
		rank = 14
	default:
		if s[0] >= '2' && s[0] <= '9' {
			rank = int(s[0] - '0')
		}
	}
	if rank == 0 {
		return Card{}, fmt.Errorf("bad rank in %q", s)
	}
	switch s[1] {
	case 'c', 'd', 'h', 's':
	default:
		return Card{}, fmt.Errorf("bad suit in %q", s)
	}
	return Card{Rank: rank, Suit: s[1]}, nil
}

// MustCards parses a space-separated card list; panics on bad input.
// Test and simulator helper.
func MustCards(s string) []Card {
	var out []Card
	start := -1
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ' ' {
			if start >= 0 {
				c, err := ParseCard(s[start:i])
				if err != nil {
					panic(err)
				}
				out = append(out, c)
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	return out
}

// ChipValue is the fixed per-card chip contribution: numerals at face
// value, faces at 10, Ace at 11.
func (c Card) ChipValue() int {
	switch {
	case c.Rank == 14:
		return 11
	case c.Rank >= 11:
		return 10
	default:
		return c.Rank
	}
}
