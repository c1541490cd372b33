package agent

import (
	"context"
	"fmt"

	"balatro-pilot/pilot/engine"
)

type PlayerStats struct {
	Money        int `json:"money"`
	Ante         int `json:"ante"`
	HandsLeft    int `json:"hands_left"`
	DiscardsLeft int `json:"discards_left"`
	CurrentScore int `json:"current_score"`
	TargetScore  int `json:"target_score"`
	RoundNumber  int `json:"round_number"`
}

type BlindInfo struct {
	Name          string `json:"name"`
	Tier          string `json:"tier"` // Small | Big | Boss
	ScoreRequired int    `json:"score_requirement"`
	Reward        int    `json:"reward"`
	Effect        string `json:"effect,omitempty"`
}

type ShopState struct {
	Jokers       []engine.Joker `json:"jokers"`
	Cards        []engine.Card  `json:"cards"`
	BoosterPacks []string       `json:"booster_packs"`
	Vouchers     []string       `json:"vouchers"`
	RerollCost   int            `json:"reroll_cost"`
}

// GameSnapshot is the unit exchanged with the observation collaborator.
// The recognition side fills what it could read; Merge backfills the rest.
type GameSnapshot struct {
	Hand        []engine.Card  `json:"player_hand"`
	DiscardPile []engine.Card  `json:"discard_pile,omitempty"`
	Jokers      []engine.Joker `json:"active_jokers"`
	Shop        *ShopState     `json:"shop,omitempty"`
	Blind       *BlindInfo     `json:"current_blind,omitempty"`
	Stats       PlayerStats    `json:"player_stats"`
	DeckSize    int            `json:"deck_size,omitempty"`
	Phase       string         `json:"game_phase"` // select | play | shop | boss
}

func (s GameSnapshot) CanPlay() bool {
	return s.Stats.HandsLeft > 0 && len(s.Hand) > 0
}

func (s GameSnapshot) CanDiscard() bool {
	return s.Stats.DiscardsLeft > 0 && len(s.Hand) > 0
}

func (s GameSnapshot) HasWinningScore() bool {
	return s.Stats.CurrentScore >= s.Stats.TargetScore
}

// RemainingScore is the score still needed to clear the current blind.
func (s GameSnapshot) RemainingScore() int {
	r := s.Stats.TargetScore - s.Stats.CurrentScore
	if r < 0 {
		r = 0
	}
	return r
}

// Merge fills optional fields the latest capture missed from the previous
// snapshot. Player stats and hand are always taken from the new capture.
func Merge(prev, next GameSnapshot) GameSnapshot {
	if next.Shop == nil {
		next.Shop = prev.Shop
	}
	if next.Blind == nil {
		next.Blind = prev.Blind
	}
	if next.Jokers == nil {
		next.Jokers = prev.Jokers
	}
	if next.DiscardPile == nil {
		next.DiscardPile = prev.DiscardPile
	}
	if next.DeckSize == 0 {
		next.DeckSize = prev.DeckSize
	}
	if next.Phase == "" {
		next.Phase = prev.Phase
	}
	return next
}

type ActionKind string

const (
	Play     ActionKind = "play"
	Discard  ActionKind = "discard"
	BuyJoker ActionKind = "buy_joker"
	BuyCard  ActionKind = "buy_card"
	Reroll   ActionKind = "reroll"
	Skip     ActionKind = "skip"
	Wait     ActionKind = "wait"
)

type ActionCommand struct {
	Kind  ActionKind    `json:"kind"`
	Cards []engine.Card `json:"cards,omitempty"`
	Item  string        `json:"item,omitempty"`
	Pos   *engine.Point `json:"position,omitempty"`
}

// Observer pulls a structured snapshot out of the running game.
type Observer interface {
	Capture(ctx context.Context) (GameSnapshot, error)
}

// Actuator pushes one action command into the game. The boolean reports
// whether the game accepted the action.
type Actuator interface {
	Execute(ctx context.Context, cmd ActionCommand) (bool, error)
}

// Validate the decided action against the snapshot before execution.
func Validate(s GameSnapshot, cmd ActionCommand) error {
	switch cmd.Kind {
	case Play, Discard:
		if len(cmd.Cards) == 0 {
			return fmt.Errorf("%s requires cards", cmd.Kind)
		}
		if cmd.Kind == Play && len(cmd.Cards) > 5 {
			return fmt.Errorf("cannot play %d cards", len(cmd.Cards))
		}
		remaining := append([]engine.Card{}, s.Hand...)
		for _, c := range cmd.Cards {
			found := -1
			for i, h := range remaining {
				if h.Rank == c.Rank && h.Suit == c.Suit {
					found = i
					break
				}
			}
			if found < 0 {
				return fmt.Errorf("card %s not in hand", c)
			}
			remaining = append(remaining[:found], remaining[found+1:]...)
		}
	case BuyJoker:
		if s.Shop == nil {
			return fmt.Errorf("no shop in snapshot")
		}
		for _, j := range s.Shop.Jokers {
			if j.Name == cmd.Item {
				if j.Cost > s.Stats.Money {
					return fmt.Errorf("cannot afford %s (%d > %d)", j.Name, j.Cost, s.Stats.Money)
				}
				return nil
			}
		}
		return fmt.Errorf("joker %q not in shop", cmd.Item)
	case Reroll:
		if s.Shop != nil && s.Shop.RerollCost > s.Stats.Money {
			return fmt.Errorf("cannot afford reroll")
		}
	case BuyCard, Skip, Wait:
	default:
		return fmt.Errorf("unknown action kind %q", cmd.Kind)
	}
	return nil
}
