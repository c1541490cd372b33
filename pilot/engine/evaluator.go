package engine

import "strings"

// baseHandScores maps each hand type to its (base chips, base mult) pair.
var baseHandScores = map[HandType][2]int{
	HighCard:      {5, 1},
	Pair:          {10, 2},
	TwoPair:       {20, 2},
	ThreeOfAKind:  {30, 3},
	Straight:      {30, 4},
	Flush:         {35, 4},
	FullHouse:     {40, 4},
	FourOfAKind:   {60, 7},
	StraightFlush: {100, 8},
	RoyalFlush:    {100, 8},
	FiveOfAKind:   {120, 12},
	FlushHouse:    {140, 14},
	FlushFive:     {160, 16},
}

// BaseScore returns the (chips, mult) pair for a hand type.
func BaseScore(t HandType) (chips, mult int) {
	b := baseHandScores[t]
	return b[0], b[1]
}

// Classify buckets 1..5 played cards into a hand type. Ties between
// qualifying categories resolve to the strongest category, never to
// point totals. An empty subset degrades to HighCard.
func Classify(cards []Card) HandType {
	if len(cards) == 0 {
		return HighCard
	}

	rankCounts := map[int]int{}
	suitCounts := map[byte]int{}
	for _, c := range cards {
		rankCounts[c.Rank]++
		suitCounts[c.Suit]++
	}

	isFlush := false
	if len(cards) >= 5 {
		for _, n := range suitCounts {
			if n >= 5 {
				isFlush = true
			}
		}
	}
	straight := isStraight(rankCounts)

	// Largest and second-largest rank multiplicities.
	first, second := 0, 0
	for _, n := range rankCounts {
		if n > first {
			first, second = n, first
		} else if n > second {
			second = n
		}
	}

	switch {
	case straight && isFlush:
		if isRoyal(rankCounts) {
			return RoyalFlush
		}
		return StraightFlush
	case first == 5 && isFlush:
		return FlushFive
	case first == 5:
		return FiveOfAKind
	case first == 4:
		return FourOfAKind
	case first == 3 && second >= 2 && isFlush:
		return FlushHouse
	case first == 3 && second >= 2:
		return FullHouse
	case first == 3:
		return ThreeOfAKind
	case isFlush:
		return Flush
	case straight:
		return Straight
	case first == 2 && second == 2:
		return TwoPair
	case first == 2:
		return Pair
	}
	return HighCard
}

// isStraight needs at least five distinct ranks and accepts both a
// five-long run and the ace-low wheel (A,2,3,4,5).
func isStraight(rankCounts map[int]int) bool {
	if len(rankCounts) < 5 {
		return false
	}
	present := [15]bool{}
	for r := range rankCounts {
		present[r] = true
	}
	run := 0
	for r := 2; r <= 14; r++ {
		if present[r] {
			run++
			if run >= 5 {
				return true
			}
		} else {
			run = 0
		}
	}
	// wheel
	return present[14] && present[2] && present[3] && present[4] && present[5]
}

func isRoyal(rankCounts map[int]int) bool {
	for _, r := range []int{10, 11, 12, 13, 14} {
		if rankCounts[r] == 0 {
			return false
		}
	}
	return true
}

// Score classifies the subset and computes its full chip/mult breakdown,
// applying active joker effects in list order. Only cards participating in
// the classified hand contribute chips: a lone high card scores just the
// top card, a pair scores the paired cards, five-card hands score all
// five. The result is recomputed on every call; nothing is cached.
func Score(cards []Card, jokers []Joker) Hand {
	t := Classify(cards)
	baseChips, baseMult := BaseScore(t)

	chips := baseChips
	mult := baseMult
	for _, c := range ScoringCards(cards, t) {
		chips += c.ChipValue()
	}
	chips, mult = applyJokers(jokers, chips, mult, t)

	return Hand{
		Cards:      cards,
		Type:       t,
		BaseScore:  baseChips * baseMult,
		Chips:      chips,
		Mult:       mult,
		FinalScore: chips * mult,
	}
}

// ScoringCards picks the cards that participate in the classified hand.
// Rank-multiplicity hands keep every card whose rank appears at least
// twice; straights, flushes and their variants keep the whole subset;
// a high card keeps only the strongest card (Ace high).
func ScoringCards(cards []Card, t HandType) []Card {
	switch t {
	case HighCard:
		if len(cards) == 0 {
			return nil
		}
		best := cards[0]
		for _, c := range cards[1:] {
			if c.Rank > best.Rank {
				best = c
			}
		}
		return []Card{best}
	case Pair, TwoPair, ThreeOfAKind, FourOfAKind, FiveOfAKind:
		rankCounts := map[int]int{}
		for _, c := range cards {
			rankCounts[c.Rank]++
		}
		var out []Card
		for _, c := range cards {
			if rankCounts[c.Rank] >= 2 {
				out = append(out, c)
			}
		}
		return out
	default:
		return cards
	}
}

// applyJokers walks the joker list in order and adds each matching
// contribution. Matching is keyword-based on the free-text description,
// same approximation the recognition side feeds us: real per-joker rules
// aren't reconstructible from screen text alone.
func applyJokers(jokers []Joker, chips, mult int, t HandType) (int, int) {
	for _, j := range jokers {
		if !j.Active {
			continue
		}
		desc := strings.ToLower(j.Description)
		if strings.Contains(desc, "chips") {
			chips += 30
		}
		if strings.Contains(desc, "mult") {
			mult += 4
		}
		if strings.Contains(desc, "pair") && t == Pair {
			mult += 2
		}
	}
	return chips, mult
}
