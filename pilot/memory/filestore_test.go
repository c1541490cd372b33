package memory

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	s := NewStore(fs)
	s.StartSession("alpha")
	s.RecordDecision(DecisionEvent{Action: "play", Context: DecisionContext{Ante: 1, Money: 4}})
	s.RecordPurchase(PurchaseEvent{ItemType: "joker", Name: "Misprint", Cost: 5, Ante: 1})
	s.EndSession(2, 800, true)

	if _, err := os.Stat(filepath.Join(dir, "session_alpha.json")); err != nil {
		t.Fatalf("session document missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, aggregateFile)); err != nil {
		t.Fatalf("aggregate document missing: %v", err)
	}

	// Fresh store over the same directory sees the sealed history.
	reborn := NewStore(fs)
	if err := reborn.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	last := reborn.LastSession()
	if last == nil || last.ID != "alpha" || !last.Sealed() {
		t.Fatalf("reloaded session wrong: %+v", last)
	}
	if len(last.Decisions) != 1 || len(last.Purchases) != 1 {
		t.Fatalf("events lost in round trip: %+v", last)
	}
	p := reborn.AggregateView().Jokers["Misprint"]
	if p == nil || p.UsageCount != 1 || p.WinRate != 1.0 {
		t.Fatalf("aggregate lost in round trip: %+v", p)
	}
}

func TestFileStoreLoadCapped(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	s := NewStore(fs)
	for i := 0; i < 5; i++ {
		s.StartSession("")
		s.EndSession(1, i, false)
	}

	reborn := NewStore(fs)
	reborn.SetCapacity(2)
	if err := reborn.Load(); err != nil {
		t.Fatal(err)
	}
	if got := reborn.Summary().BufferUsed; got != 2 {
		t.Fatalf("loaded %d sessions, want 2", got)
	}
	// The newest sessions survive the cap.
	if reborn.LastSession().FinalScore != 4 {
		t.Fatalf("latest session dropped: %+v", reborn.LastSession())
	}
}

func TestFileStoreMissingAggregateIsFine(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	agg, err := fs.LoadAggregate()
	if err != nil || agg != nil {
		t.Fatalf("got %v, %v; want nil, nil", agg, err)
	}
}
