package memory

import (
	"testing"

	"balatro-pilot/pilot/agent"
	"balatro-pilot/pilot/engine"
)

func TestSessionLifecycle(t *testing.T) {
	s := NewStore(nil)
	id := s.StartSession("")
	if id == "" {
		t.Fatal("empty session id")
	}
	if s.ActiveSession() != id {
		t.Fatalf("active = %q, want %q", s.ActiveSession(), id)
	}
	s.RecordDecision(DecisionEvent{Action: "play", Context: DecisionContext{Ante: 1, Money: 4}})
	s.RecordHandPlayed(HandEvent{HandType: string(engine.Pair), Score: 48, Ante: 1, Success: true})
	s.RecordPurchase(PurchaseEvent{ItemType: "joker", Name: "Misprint", Cost: 5, Ante: 1})
	s.EndSession(2, 900, true)

	if s.ActiveSession() != "" {
		t.Fatal("session still active after EndSession")
	}
	last := s.LastSession()
	if last == nil || !last.Sealed() {
		t.Fatal("no sealed session in buffer")
	}
	if len(last.Decisions) != 1 || len(last.Hands) != 1 || len(last.Purchases) != 1 {
		t.Fatalf("events lost: %+v", last)
	}
	if last.FinalAnte != 2 || last.FinalScore != 900 || !last.Success {
		t.Fatalf("final fields wrong: %+v", last)
	}
}

func TestRecordingWithoutSessionIsNoOp(t *testing.T) {
	s := NewStore(nil)
	s.RecordDecision(DecisionEvent{Action: "play"})
	s.RecordHandPlayed(HandEvent{HandType: "Pair"})
	s.RecordPurchase(PurchaseEvent{ItemType: "joker", Name: "X"})
	s.EndSession(1, 0, false)
	if s.LastSession() != nil {
		t.Fatal("phantom session sealed")
	}
}

func TestAggregateSinglePurchaseWin(t *testing.T) {
	// One session buying joker X, then sealed with success: win rate 1.0,
	// usage 1.
	s := NewStore(nil)
	s.StartSession("s1")
	s.RecordPurchase(PurchaseEvent{ItemType: "joker", Name: "X", Cost: 5, Ante: 1})
	s.EndSession(3, 1200, true)

	agg := s.AggregateView()
	p := agg.Jokers["X"]
	if p == nil {
		t.Fatal("joker X not in aggregate")
	}
	if p.UsageCount != 1 || p.WinRate != 1.0 {
		t.Fatalf("usage=%d winRate=%v, want 1 and 1.0", p.UsageCount, p.WinRate)
	}
	if p.AvgScoreBoost != 200 {
		t.Fatalf("avg score boost %v, want 200", p.AvgScoreBoost)
	}
}

func TestAggregateWinRateIsWinsOverUsage(t *testing.T) {
	s := NewStore(nil)
	outcomes := []bool{true, false, true, true, false}
	for i, win := range outcomes {
		s.StartSession("")
		s.RecordPurchase(PurchaseEvent{ItemType: "joker", Name: "X", Cost: 5, Ante: 1})
		s.EndSession(i+1, 500, win)
	}
	p := s.AggregateView().Jokers["X"]
	if p.UsageCount != 5 {
		t.Fatalf("usage %d", p.UsageCount)
	}
	if p.WinRate < 0 || p.WinRate > 1 {
		t.Fatalf("win rate %v out of range", p.WinRate)
	}
	if p.WinRate != float64(p.Wins)/float64(p.UsageCount) {
		t.Fatalf("win rate %v != %d/%d", p.WinRate, p.Wins, p.UsageCount)
	}
	if p.Wins != 3 {
		t.Fatalf("wins %d, want 3", p.Wins)
	}
}

func TestAggregateIgnoresActiveSession(t *testing.T) {
	s := NewStore(nil)
	s.StartSession("open")
	s.RecordPurchase(PurchaseEvent{ItemType: "joker", Name: "Mid", Cost: 4, Ante: 2})
	if len(s.AggregateView().Jokers) != 0 {
		t.Fatal("aggregate saw in-progress data")
	}
}

func TestBufferEviction(t *testing.T) {
	s := NewStore(nil)
	s.SetCapacity(3)
	for i := 0; i < 5; i++ {
		s.StartSession("")
		s.EndSession(1, i, false)
	}
	sum := s.Summary()
	if sum.BufferUsed != 3 {
		t.Fatalf("buffer %d, want 3", sum.BufferUsed)
	}
	if s.LastSession().FinalScore != 4 {
		t.Fatalf("newest session evicted: %+v", s.LastSession())
	}
}

func TestRecommendJokerDeterministic(t *testing.T) {
	s := NewStore(nil)
	// Seed history: "Proven" won both runs, "Flop" lost its only one.
	for _, win := range []bool{true, true} {
		s.StartSession("")
		s.RecordPurchase(PurchaseEvent{ItemType: "joker", Name: "Proven", Cost: 5, Ante: 1})
		s.EndSession(4, 1500, win)
	}
	s.StartSession("")
	s.RecordPurchase(PurchaseEvent{ItemType: "joker", Name: "Flop", Cost: 5, Ante: 1})
	s.EndSession(1, 100, false)

	candidates := []engine.Joker{
		{Name: "Flop", Rarity: "Common"},
		{Name: "Proven", Rarity: "Common"},
		{Name: "Stranger", Rarity: "Common"},
	}
	first := s.RecommendJoker(candidates, agent.GameSnapshot{})
	if first == nil || first.Name != "Proven" {
		t.Fatalf("recommended %v, want Proven", first)
	}
	for i := 0; i < 10; i++ {
		again := s.RecommendJoker(candidates, agent.GameSnapshot{})
		if again == nil || again.Name != first.Name {
			t.Fatalf("recommendation not deterministic: %v", again)
		}
	}
}

func TestRecommendJokerTieBreaksFirstSeen(t *testing.T) {
	s := NewStore(nil)
	candidates := []engine.Joker{
		{Name: "A", Rarity: "Common"},
		{Name: "B", Rarity: "Common"},
	}
	got := s.RecommendJoker(candidates, agent.GameSnapshot{})
	if got == nil || got.Name != "A" {
		t.Fatalf("tie broke to %v, want first-seen A", got)
	}
}

func TestRecommendStrategy(t *testing.T) {
	s := NewStore(nil)
	ctx := DecisionContext{Ante: 2, Money: 10}
	// Two successful sessions playing, one failed session discarding.
	for _, win := range []bool{true, true} {
		s.StartSession("")
		s.RecordDecision(DecisionEvent{Action: "play", Context: ctx})
		s.EndSession(3, 1000, win)
	}
	s.StartSession("")
	s.RecordDecision(DecisionEvent{Action: "discard", Context: ctx})
	s.EndSession(1, 100, false)

	rec := s.RecommendStrategy(agent.GameSnapshot{Stats: agent.PlayerStats{Ante: 2, Money: 10}})
	if rec.Strategy != "learned" {
		t.Fatalf("strategy %q, want learned", rec.Strategy)
	}
	if rec.Confidence != 2.0/3.0 {
		t.Fatalf("confidence %v, want 2/3", rec.Confidence)
	}
	if len(rec.Actions) != 1 || rec.Actions[0].Type != "play" {
		t.Fatalf("actions %v, want play", rec.Actions)
	}
}

func TestRecommendStrategyNoMatches(t *testing.T) {
	s := NewStore(nil)
	rec := s.RecommendStrategy(agent.GameSnapshot{Stats: agent.PlayerStats{Ante: 5, Money: 50}})
	if rec.Strategy != "default" || rec.Confidence != 0.3 {
		t.Fatalf("got %+v, want default/0.3", rec)
	}
}

func TestRecommendStrategyMatchWindow(t *testing.T) {
	s := NewStore(nil)
	s.StartSession("")
	s.RecordDecision(DecisionEvent{Action: "play", Context: DecisionContext{Ante: 5, Money: 100}})
	s.EndSession(5, 2000, true)

	// Ante too far away.
	rec := s.RecommendStrategy(agent.GameSnapshot{Stats: agent.PlayerStats{Ante: 1, Money: 100}})
	if rec.Strategy != "default" {
		t.Fatalf("ante window leak: %+v", rec)
	}
	// Money ratio outside [0.5, 2.0].
	rec = s.RecommendStrategy(agent.GameSnapshot{Stats: agent.PlayerStats{Ante: 5, Money: 10}})
	if rec.Strategy != "default" {
		t.Fatalf("money window leak: %+v", rec)
	}
}

func TestRecommendStrategyOnlyFailures(t *testing.T) {
	s := NewStore(nil)
	s.StartSession("")
	s.RecordDecision(DecisionEvent{Action: "play", Context: DecisionContext{Ante: 2, Money: 10}})
	s.EndSession(1, 50, false)
	rec := s.RecommendStrategy(agent.GameSnapshot{Stats: agent.PlayerStats{Ante: 2, Money: 10}})
	if rec.Strategy != "exploration" || rec.Confidence != 0.4 {
		t.Fatalf("got %+v, want exploration/0.4", rec)
	}
}

func TestWilsonCI95Bounds(t *testing.T) {
	cases := [][2]int{{0, 0}, {0, 10}, {5, 10}, {10, 10}, {1, 1000}}
	for _, c := range cases {
		low, hi := WilsonCI95(c[0], c[1])
		if low < 0 || hi > 1 || low > hi {
			t.Errorf("WilsonCI95(%d,%d) = (%v,%v)", c[0], c[1], low, hi)
		}
	}
}
