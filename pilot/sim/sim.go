// Package sim is a deterministic offline game used for self-play. It
// implements both the observer and actuator contracts, so the coordinator
// can drive it exactly like a live game: a shop phase first, then the
// blind, with wins and losses decided by the same scoring rules the
// strategy layer plans with.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"balatro-pilot/pilot/agent"
	"balatro-pilot/pilot/engine"
)

const (
	handSize       = 8
	startingMoney  = 8
	startingHands  = 4
	startingDrops  = 3
	baseRerollCost = 2
	shopSlots      = 2
)

// blindTarget keeps early antes winnable with four ordinary hands and
// scales linearly from there.
func blindTarget(ante int) int { return 100 * ante }

// catalog is the pool the shop restocks from. Descriptions matter: the
// scoring engine and the shop valuation both read them by keyword.
var catalog = []engine.Joker{
	{Name: "Joker", Description: "+4 Mult", Rarity: "Common", Cost: 2},
	{Name: "Sly Joker", Description: "+50 Chips if played hand contains a Pair", Rarity: "Common", Cost: 3},
	{Name: "Misprint", Description: "+4 Mult, printed crooked", Rarity: "Common", Cost: 4},
	{Name: "Banner", Description: "+30 Chips for each discard remaining", Rarity: "Common", Cost: 5},
	{Name: "Golden Joker", Description: "Earn $4 money at end of round", Rarity: "Common", Cost: 6},
	{Name: "Ceremonial Dagger", Description: "Gains Mult when a blind is cleared", Rarity: "Uncommon", Cost: 6},
	{Name: "Blueprint", Description: "Copies the Mult of the joker to the right", Rarity: "Rare", Cost: 10},
}

// Simulator holds one run at a single ante: shop, then blind.
type Simulator struct {
	mu sync.Mutex

	rng  *rand.Rand
	deck []engine.Card
	hand []engine.Card
	pile []engine.Card

	jokers []engine.Joker
	shop   agent.ShopState

	ante       int
	money      int
	handsLeft  int
	dropsLeft  int
	score      int
	target     int
	phase      string
	rerollCost int
}

// New seeds a simulator at the given ante. The same seed and ante always
// produce the same game.
func New(seed int64, ante int) *Simulator {
	if ante < 1 {
		ante = 1
	}
	s := &Simulator{
		rng:        rand.New(rand.NewSource(seed)),
		deck:       engine.NewDeck(seed),
		ante:       ante,
		money:      startingMoney,
		handsLeft:  startingHands,
		dropsLeft:  startingDrops,
		target:     blindTarget(ante),
		phase:      "shop",
		rerollCost: baseRerollCost,
	}
	s.draw(handSize)
	s.restock()
	return s
}

func (s *Simulator) draw(n int) {
	for i := 0; i < n; i++ {
		if len(s.deck) == 0 {
			return
		}
		s.hand = append(s.hand, s.deck[0])
		s.deck = s.deck[1:]
	}
}

func (s *Simulator) restock() {
	s.shop = agent.ShopState{RerollCost: s.rerollCost}
	for i := 0; i < shopSlots; i++ {
		s.shop.Jokers = append(s.shop.Jokers, catalog[s.rng.Intn(len(catalog))])
	}
}

// Capture returns a copy of the current state; the caller can mutate the
// returned slices freely.
func (s *Simulator) Capture(ctx context.Context) (agent.GameSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return agent.GameSnapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := agent.GameSnapshot{
		Hand:        append([]engine.Card{}, s.hand...),
		DiscardPile: append([]engine.Card{}, s.pile...),
		Jokers:      append([]engine.Joker{}, s.jokers...),
		Stats: agent.PlayerStats{
			Ante:         s.ante,
			Money:        s.money,
			HandsLeft:    s.handsLeft,
			DiscardsLeft: s.dropsLeft,
			CurrentScore: s.score,
			TargetScore:  s.target,
		},
		Blind: &agent.BlindInfo{
			Name:          fmt.Sprintf("Ante %d Blind", s.ante),
			Tier:          "Small",
			ScoreRequired: s.target,
		},
		DeckSize: len(s.deck),
		Phase:    s.phase,
	}
	if s.phase == "shop" {
		shop := s.shop
		shop.Jokers = append([]engine.Joker{}, s.shop.Jokers...)
		snap.Shop = &shop
	}
	return snap, nil
}

// Execute applies one action command to the game state. Impossible
// actions report a rejection instead of an error, matching how a real
// game would silently refuse an invalid click.
func (s *Simulator) Execute(ctx context.Context, cmd agent.ActionCommand) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd.Kind {
	case agent.Play:
		if s.phase != "select" || s.handsLeft <= 0 {
			return false, nil
		}
		if !s.remove(cmd.Cards) {
			return false, nil
		}
		h := engine.Score(cmd.Cards, s.jokers)
		s.score += h.FinalScore
		s.handsLeft--
		s.pile = append(s.pile, cmd.Cards...)
		s.draw(handSize - len(s.hand))
		return true, nil

	case agent.Discard:
		if s.phase != "select" || s.dropsLeft <= 0 {
			return false, nil
		}
		if !s.remove(cmd.Cards) {
			return false, nil
		}
		s.dropsLeft--
		s.pile = append(s.pile, cmd.Cards...)
		s.draw(handSize - len(s.hand))
		return true, nil

	case agent.BuyJoker:
		if s.phase != "shop" {
			return false, nil
		}
		for i, j := range s.shop.Jokers {
			if j.Name != cmd.Item {
				continue
			}
			if j.Cost > s.money {
				return false, nil
			}
			s.money -= j.Cost
			j.Active = true
			s.jokers = append(s.jokers, j)
			s.shop.Jokers = append(s.shop.Jokers[:i], s.shop.Jokers[i+1:]...)
			if !s.anyAffordable() {
				s.leaveShop()
			}
			return true, nil
		}
		return false, nil

	case agent.Reroll:
		if s.phase != "shop" || s.money < s.rerollCost {
			return false, nil
		}
		s.money -= s.rerollCost
		s.rerollCost++
		s.restock()
		return true, nil

	case agent.Skip:
		if s.phase != "shop" {
			return false, nil
		}
		s.leaveShop()
		return true, nil

	case agent.Wait:
		return true, nil
	}
	return false, nil
}

func (s *Simulator) leaveShop() {
	s.phase = "select"
	s.shop = agent.ShopState{}
}

func (s *Simulator) anyAffordable() bool {
	for _, j := range s.shop.Jokers {
		if j.Cost <= s.money {
			return true
		}
	}
	return false
}

// remove takes the named cards out of the hand; it fails without side
// effects when any card is missing.
func (s *Simulator) remove(cards []engine.Card) bool {
	remaining := append([]engine.Card{}, s.hand...)
	for _, c := range cards {
		found := -1
		for i, h := range remaining {
			if h.Rank == c.Rank && h.Suit == c.Suit {
				found = i
				break
			}
		}
		if found < 0 {
			return false
		}
		remaining = append(remaining[:found], remaining[found+1:]...)
	}
	s.hand = remaining
	return true
}
