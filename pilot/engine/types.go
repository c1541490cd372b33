package engine

// HandType names the poker/roguelike hand categories, weakest first.
type HandType string

const (
	HighCard      HandType = "High Card"
	Pair          HandType = "Pair"
	TwoPair       HandType = "Two Pair"
	ThreeOfAKind  HandType = "Three of a Kind"
	Straight      HandType = "Straight"
	Flush         HandType = "Flush"
	FullHouse     HandType = "Full House"
	FourOfAKind   HandType = "Four of a Kind"
	StraightFlush HandType = "Straight Flush"
	RoyalFlush    HandType = "Royal Flush"
	FiveOfAKind   HandType = "Five of a Kind"
	FlushHouse    HandType = "Flush House"
	FlushFive     HandType = "Flush Five"
)

// Point is an opaque screen position attached by the recognition side.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Card struct {
	Rank     int    `json:"rank"`               // 2..14, Ace=14
	Suit     byte   `json:"suit"`               // 'c','d','h','s'
	Enhanced bool   `json:"enhanced,omitempty"`
	Edition  string `json:"edition,omitempty"` // Foil, Holographic, Polychrome
	Seal     string `json:"seal,omitempty"`    // Red, Blue, Gold, Purple
	Pos      *Point `json:"position,omitempty"`
}

type Joker struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Rarity      string `json:"rarity"` // Common, Uncommon, Rare, Legendary
	Cost        int    `json:"cost,omitempty"`
	Active      bool   `json:"active"`
	Pos         *Point `json:"position,omitempty"`
}

// Hand is one scored play: classification plus the chip/mult breakdown.
// FinalScore is always Chips*Mult.
type Hand struct {
	Cards      []Card   `json:"cards"`
	Type       HandType `json:"hand_type"`
	BaseScore  int      `json:"base_score"`
	Chips      int      `json:"chips"`
	Mult       int      `json:"multiplier"`
	FinalScore int      `json:"final_score"`
}
