package agent

import (
	"testing"

	"balatro-pilot/pilot/engine"
)

func TestMergeRetainsOptionalFields(t *testing.T) {
	prev := GameSnapshot{
		Shop:     &ShopState{RerollCost: 5},
		Blind:    &BlindInfo{Name: "The Wall", Tier: "Boss", ScoreRequired: 600},
		Jokers:   []engine.Joker{{Name: "Misprint", Active: true}},
		DeckSize: 40,
		Phase:    "select",
	}
	next := GameSnapshot{
		Hand:  engine.MustCards("Ah Kd"),
		Stats: PlayerStats{Money: 7},
	}
	got := Merge(prev, next)
	if got.Shop == nil || got.Shop.RerollCost != 5 {
		t.Fatalf("shop not retained: %+v", got.Shop)
	}
	if got.Blind == nil || got.Blind.Name != "The Wall" {
		t.Fatalf("blind not retained: %+v", got.Blind)
	}
	if len(got.Jokers) != 1 || got.DeckSize != 40 || got.Phase != "select" {
		t.Fatalf("optional fields not retained: %+v", got)
	}
	if got.Stats.Money != 7 || len(got.Hand) != 2 {
		t.Fatalf("new capture fields overwritten: %+v", got)
	}
}

func TestValidatePlay(t *testing.T) {
	s := GameSnapshot{Hand: engine.MustCards("Ah Kd Qc")}
	if err := Validate(s, ActionCommand{Kind: Play, Cards: engine.MustCards("Ah Qc")}); err != nil {
		t.Fatalf("valid play rejected: %v", err)
	}
	if err := Validate(s, ActionCommand{Kind: Play, Cards: engine.MustCards("2h")}); err == nil {
		t.Fatal("play of card not in hand accepted")
	}
	if err := Validate(s, ActionCommand{Kind: Play}); err == nil {
		t.Fatal("empty play accepted")
	}
}

func TestValidatePlayDuplicateCards(t *testing.T) {
	// Hand holds one Ah; playing it twice must fail.
	s := GameSnapshot{Hand: engine.MustCards("Ah Kd")}
	if err := Validate(s, ActionCommand{Kind: Play, Cards: engine.MustCards("Ah Ah")}); err == nil {
		t.Fatal("duplicate play accepted")
	}
}

func TestValidateBuyJoker(t *testing.T) {
	s := GameSnapshot{
		Shop:  &ShopState{Jokers: []engine.Joker{{Name: "Greedy Joker", Cost: 6}}},
		Stats: PlayerStats{Money: 4},
	}
	if err := Validate(s, ActionCommand{Kind: BuyJoker, Item: "Greedy Joker"}); err == nil {
		t.Fatal("unaffordable joker accepted")
	}
	s.Stats.Money = 10
	if err := Validate(s, ActionCommand{Kind: BuyJoker, Item: "Greedy Joker"}); err != nil {
		t.Fatalf("affordable joker rejected: %v", err)
	}
	if err := Validate(s, ActionCommand{Kind: BuyJoker, Item: "Blueprint"}); err == nil {
		t.Fatal("missing joker accepted")
	}
}
