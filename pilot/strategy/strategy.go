package strategy

import (
	"fmt"
	"sort"
	"strings"

	"balatro-pilot/pilot/agent"
	"balatro-pilot/pilot/engine"
)

// TopCandidates is how many ranked plays AnalyzeHand exposes.
const TopCandidates = 5

// Candidate is one playable subset with its full scoring breakdown.
type Candidate struct {
	Cards []engine.Card `json:"cards"`
	Hand  engine.Hand   `json:"hand"`
}

// Decision is what the coordinator executes. A Wait action means the
// engine found nothing legal to do; it is data, not an error.
type Decision struct {
	Action agent.ActionKind `json:"action"`
	Cards  []engine.Card    `json:"cards,omitempty"`
	Item   string           `json:"item,omitempty"`
	Reason string           `json:"reason"`
}

// ShopPick ranks one affordable shop item by estimated return.
type ShopPick struct {
	Kind  string  `json:"type"`
	Name  string  `json:"name"`
	Cost  int     `json:"cost"`
	Value float64 `json:"value"`
	ROI   float64 `json:"roi"`
}

// AntePlan is the coarse budget/focus plan for the current ante.
type AntePlan struct {
	Focus         string  `json:"focus"`
	ShopBudget    float64 `json:"shop_budget"`
	JokerPriority string  `json:"joker_priority"`
	RiskLevel     float64 `json:"risk_level"`
}

// Advisor surfaces memory-backed recommendations into shop decisions.
// Implemented by the memory store; nil disables it.
type Advisor interface {
	RecommendJoker(candidates []engine.Joker, snap agent.GameSnapshot) *engine.Joker
}

// Analyzer holds the tunable decision policy.
type Analyzer struct {
	RiskTolerance float64 // 0 conservative .. 1 aggressive
	Advisor       Advisor
}

func New(riskTolerance float64) *Analyzer {
	return &Analyzer{RiskTolerance: riskTolerance}
}

// AnalyzeHand scores every subset of size 1..min(5, len(hand)) and returns
// the strongest TopCandidates, best first. Equal scores keep enumeration
// order, so the ranking is deterministic for a given hand.
func (a *Analyzer) AnalyzeHand(hand []engine.Card, jokers []engine.Joker) []Candidate {
	all := a.enumerate(hand, jokers)
	if len(all) > TopCandidates {
		all = all[:TopCandidates]
	}
	return all
}

func (a *Analyzer) enumerate(hand []engine.Card, jokers []engine.Joker) []Candidate {
	n := len(hand)
	if n == 0 {
		return nil
	}
	maxSize := 5
	if n < maxSize {
		maxSize = n
	}
	var out []Candidate
	choose := make([]int, 5)
	subset := make([]engine.Card, 0, 5)
	var rec func(start, k, size int)
	rec = func(start, k, size int) {
		if k == size {
			subset = subset[:0]
			for i := 0; i < size; i++ {
				subset = append(subset, hand[choose[i]])
			}
			cards := append([]engine.Card{}, subset...)
			out = append(out, Candidate{Cards: cards, Hand: engine.Score(cards, jokers)})
			return
		}
		for i := start; i <= n-(size-k); i++ {
			choose[k] = i
			rec(i+1, k+1, size)
		}
	}
	for size := 1; size <= maxSize; size++ {
		rec(0, 0, size)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Hand.FinalScore > out[j].Hand.FinalScore
	})
	return out
}

// ChoosePlayOrDiscard runs the play policy in order: lethal play, forced
// play on the last hand, efficiency vs risk tolerance, dead-card discard,
// fallback play. An empty hand yields a Wait decision.
func (a *Analyzer) ChoosePlayOrDiscard(snap agent.GameSnapshot) Decision {
	ranked := a.AnalyzeHand(snap.Hand, snap.Jokers)
	if len(ranked) == 0 {
		return Decision{Action: agent.Wait, Reason: "no cards to act on"}
	}
	if !snap.CanPlay() {
		return Decision{Action: agent.Wait, Reason: "no hands left to play"}
	}
	best := ranked[0]
	remaining := snap.RemainingScore()

	if best.Hand.FinalScore >= remaining {
		return Decision{
			Action: agent.Play,
			Cards:  best.Cards,
			Reason: fmt.Sprintf("%s wins the round with %d", best.Hand.Type, best.Hand.FinalScore),
		}
	}
	if snap.Stats.HandsLeft <= 1 {
		return Decision{
			Action: agent.Play,
			Cards:  best.Cards,
			Reason: "last hand, must play",
		}
	}

	efficiency := float64(best.Hand.FinalScore) / float64(remaining)
	if efficiency >= a.RiskTolerance {
		return Decision{
			Action: agent.Play,
			Cards:  best.Cards,
			Reason: fmt.Sprintf("score efficiency %.2f", efficiency),
		}
	}

	if snap.CanDiscard() {
		if dead := deadCards(snap.Hand); len(dead) > 0 {
			return Decision{
				Action: agent.Discard,
				Cards:  dead,
				Reason: "hand too weak, discarding dead cards",
			}
		}
	}

	reason := "no discards left, playing best available"
	if snap.CanDiscard() {
		reason = "nothing worth discarding, playing best available"
	}
	return Decision{
		Action: agent.Play,
		Cards:  best.Cards,
		Reason: reason,
	}
}

// deadCards picks discard candidates: rank appears exactly once in hand
// and suit fewer than three times, so the card feeds neither a pair line
// nor a flush line. Lowest ranks go first, capped at three.
func deadCards(hand []engine.Card) []engine.Card {
	rankCounts := map[int]int{}
	suitCounts := map[byte]int{}
	for _, c := range hand {
		rankCounts[c.Rank]++
		suitCounts[c.Suit]++
	}
	var dead []engine.Card
	for _, c := range hand {
		if rankCounts[c.Rank] == 1 && suitCounts[c.Suit] < 3 {
			dead = append(dead, c)
		}
	}
	sort.SliceStable(dead, func(i, j int) bool { return dead[i].Rank < dead[j].Rank })
	if len(dead) > 3 {
		dead = dead[:3]
	}
	return dead
}

// Shop item valuation constants.
const shopBaseValue = 50.0

var rarityBonus = map[string]float64{
	"Common":    0,
	"Uncommon":  20,
	"Rare":      50,
	"Legendary": 100,
}

// EvaluateShop ranks every affordable shop joker by ROI, best first.
// Items the player cannot pay for never appear.
func (a *Analyzer) EvaluateShop(snap agent.GameSnapshot) []ShopPick {
	if snap.Shop == nil {
		return nil
	}
	money := snap.Stats.Money
	var picks []ShopPick
	for _, j := range snap.Shop.Jokers {
		if j.Cost <= 0 || j.Cost > money {
			continue
		}
		value := jokerValue(j)
		picks = append(picks, ShopPick{
			Kind:  "joker",
			Name:  j.Name,
			Cost:  j.Cost,
			Value: value,
			ROI:   value / float64(j.Cost),
		})
	}
	sort.SliceStable(picks, func(i, j int) bool { return picks[i].ROI > picks[j].ROI })
	return picks
}

func jokerValue(j engine.Joker) float64 {
	value := shopBaseValue + rarityBonus[j.Rarity]
	desc := strings.ToLower(j.Description)
	if strings.Contains(desc, "mult") {
		value += 30
	}
	if strings.Contains(desc, "chips") {
		value += 25
	}
	if strings.Contains(desc, "money") {
		value += 15
	}
	return value
}

// ChooseShopAction buys the best pick, letting a memory recommendation
// override when it also shows up near the top of the ROI ranking. With
// nothing worth buying it rerolls only while money comfortably covers it.
func (a *Analyzer) ChooseShopAction(snap agent.GameSnapshot) Decision {
	picks := a.EvaluateShop(snap)

	if a.Advisor != nil && snap.Shop != nil && len(snap.Shop.Jokers) > 0 {
		if rec := a.Advisor.RecommendJoker(snap.Shop.Jokers, snap); rec != nil {
			top := picks
			if len(top) > 3 {
				top = top[:3]
			}
			for _, p := range top {
				if p.Name == rec.Name {
					return Decision{
						Action: agent.BuyJoker,
						Item:   rec.Name,
						Reason: fmt.Sprintf("memory recommends %s", rec.Name),
					}
				}
			}
		}
	}

	if len(picks) > 0 {
		return Decision{
			Action: agent.BuyJoker,
			Item:   picks[0].Name,
			Reason: fmt.Sprintf("best ROI %.2f", picks[0].ROI),
		}
	}
	if snap.Shop != nil && snap.Stats.Money >= snap.Shop.RerollCost*2 {
		return Decision{Action: agent.Reroll, Reason: "rerolling for better options"}
	}
	return Decision{Action: agent.Skip, Reason: "nothing worth buying, saving money"}
}

// PlanAnte sets the coarse focus for the ante: build economy early, scale
// mid-game, spend down for survival late.
func (a *Analyzer) PlanAnte(snap agent.GameSnapshot) AntePlan {
	money := float64(snap.Stats.Money)
	plan := AntePlan{
		Focus:         "survival",
		ShopBudget:    money * 0.7,
		JokerPriority: "score_boost",
		RiskLevel:     a.RiskTolerance,
	}
	switch ante := snap.Stats.Ante; {
	case ante <= 3:
		plan.Focus = "economy"
		plan.ShopBudget = money * 0.5
		plan.JokerPriority = "money_generation"
	case ante <= 6:
		plan.Focus = "scaling"
		plan.JokerPriority = "score_multiplier"
	default:
		plan.ShopBudget = money * 0.9
		plan.JokerPriority = "any_advantage"
	}
	return plan
}
