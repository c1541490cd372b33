package sim

import (
	"context"
	"reflect"
	"testing"

	"balatro-pilot/pilot/agent"
	"balatro-pilot/pilot/engine"
)

func TestSameSeedSameGame(t *testing.T) {
	ctx := context.Background()
	a := New(7, 1)
	b := New(7, 1)

	sa, err := a.Capture(ctx)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	sb, _ := b.Capture(ctx)
	if !reflect.DeepEqual(sa, sb) {
		t.Fatalf("diverged at start:\n%+v\n%+v", sa, sb)
	}

	// The same command sequence must land both games in the same state.
	cmds := []agent.ActionCommand{
		{Kind: agent.Skip},
		{Kind: agent.Play, Cards: sa.Hand[:2]},
	}
	for _, cmd := range cmds {
		if _, err := a.Execute(ctx, cmd); err != nil {
			t.Fatalf("execute: %v", err)
		}
		b.Execute(ctx, cmd)
	}
	sa, _ = a.Capture(ctx)
	sb, _ = b.Capture(ctx)
	if !reflect.DeepEqual(sa, sb) {
		t.Fatalf("diverged after play:\n%+v\n%+v", sa, sb)
	}
}

func TestPlayScoresAndRefills(t *testing.T) {
	ctx := context.Background()
	s := New(3, 1)
	s.Execute(ctx, agent.ActionCommand{Kind: agent.Skip})

	snap, _ := s.Capture(ctx)
	cards := snap.Hand[:2]
	want := engine.Score(cards, snap.Jokers).FinalScore

	ok, err := s.Execute(ctx, agent.ActionCommand{Kind: agent.Play, Cards: cards})
	if err != nil || !ok {
		t.Fatalf("play rejected: ok=%v err=%v", ok, err)
	}
	after, _ := s.Capture(ctx)
	if after.Stats.CurrentScore != want {
		t.Fatalf("score %d, want %d", after.Stats.CurrentScore, want)
	}
	if after.Stats.HandsLeft != snap.Stats.HandsLeft-1 {
		t.Fatalf("hands left %d", after.Stats.HandsLeft)
	}
	if len(after.Hand) != handSize {
		t.Fatalf("hand not refilled: %d cards", len(after.Hand))
	}
	if len(after.DiscardPile) != 2 {
		t.Fatalf("discard pile %d", len(after.DiscardPile))
	}
}

func TestPlayRejectsCardNotInHand(t *testing.T) {
	ctx := context.Background()
	s := New(3, 1)
	s.Execute(ctx, agent.ActionCommand{Kind: agent.Skip})

	before, _ := s.Capture(ctx)
	fake := engine.MustCards("As")
	ok, err := s.Execute(ctx, agent.ActionCommand{Kind: agent.Play, Cards: fake})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	after, _ := s.Capture(ctx)
	if ok && !cardsEqual(before.Hand, after.Hand) {
		// The ace happened to be in hand; that is a legal play.
		return
	}
	if ok {
		t.Fatal("play of absent card accepted without effect")
	}
	if !cardsEqual(before.Hand, after.Hand) {
		t.Fatal("rejected play mutated the hand")
	}
}

func cardsEqual(a, b []engine.Card) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuyJokerDeductsAndActivates(t *testing.T) {
	ctx := context.Background()
	s := New(9, 1)
	snap, _ := s.Capture(ctx)
	if snap.Shop == nil || len(snap.Shop.Jokers) == 0 {
		t.Fatal("shop not stocked")
	}

	var pick *engine.Joker
	for i := range snap.Shop.Jokers {
		if snap.Shop.Jokers[i].Cost <= snap.Stats.Money {
			pick = &snap.Shop.Jokers[i]
			break
		}
	}
	if pick == nil {
		t.Skip("no affordable joker in the first stock")
	}

	ok, err := s.Execute(ctx, agent.ActionCommand{Kind: agent.BuyJoker, Item: pick.Name})
	if err != nil || !ok {
		t.Fatalf("buy rejected: ok=%v err=%v", ok, err)
	}
	after, _ := s.Capture(ctx)
	if after.Stats.Money != snap.Stats.Money-pick.Cost {
		t.Fatalf("money %d, want %d", after.Stats.Money, snap.Stats.Money-pick.Cost)
	}
	if len(after.Jokers) != 1 || after.Jokers[0].Name != pick.Name || !after.Jokers[0].Active {
		t.Fatalf("joker not owned: %+v", after.Jokers)
	}
}

func TestRerollRestocksAndRaisesCost(t *testing.T) {
	ctx := context.Background()
	s := New(11, 1)
	before, _ := s.Capture(ctx)

	ok, _ := s.Execute(ctx, agent.ActionCommand{Kind: agent.Reroll})
	if !ok {
		t.Fatal("reroll rejected")
	}
	after, _ := s.Capture(ctx)
	if after.Stats.Money != before.Stats.Money-before.Shop.RerollCost {
		t.Fatalf("money %d after reroll", after.Stats.Money)
	}
	if after.Shop.RerollCost != before.Shop.RerollCost+1 {
		t.Fatalf("reroll cost %d", after.Shop.RerollCost)
	}
}

func TestShopActionsRejectedOutsideShop(t *testing.T) {
	ctx := context.Background()
	s := New(5, 1)
	s.Execute(ctx, agent.ActionCommand{Kind: agent.Skip})

	if ok, _ := s.Execute(ctx, agent.ActionCommand{Kind: agent.BuyJoker, Item: "Joker"}); ok {
		t.Fatal("buy accepted outside shop")
	}
	if ok, _ := s.Execute(ctx, agent.ActionCommand{Kind: agent.Reroll}); ok {
		t.Fatal("reroll accepted outside shop")
	}
}
