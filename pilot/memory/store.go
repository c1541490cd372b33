package memory

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity bounds the recent-session buffer.
const DefaultCapacity = 1000

// avgGameScore is the baseline used for the per-joker score-boost metric.
const avgGameScore = 1000

// Store owns the active session, the recent-session buffer, and the
// performance aggregate. Recording methods are no-ops while no session is
// active; the aggregate only ever changes when a session seals.
//
// The play loop is single-threaded, but the status API reads the store
// from HTTP handlers, hence the mutex.
type Store struct {
	mu        sync.RWMutex
	capacity  int
	recent    []*SessionRecord
	agg       *Aggregate
	active    *SessionRecord
	persister Persister
	now       func() time.Time
}

func NewStore(p Persister) *Store {
	return &Store{
		capacity:  DefaultCapacity,
		agg:       NewAggregate(),
		persister: p,
		now:       time.Now,
	}
}

// SetCapacity adjusts the recent-session buffer bound. Zero or negative
// keeps the default.
func (s *Store) SetCapacity(n int) {
	if n > 0 {
		s.capacity = n
	}
}

// Load pulls prior sealed sessions and the aggregate from storage. A
// failed read is reported but leaves the store usable.
func (s *Store) Load() error {
	if s.persister == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions, err := s.persister.LoadSessions(s.capacity)
	if err != nil {
		log.Printf("memory: loading sessions failed: %v", err)
		return err
	}
	s.recent = sessions
	agg, err := s.persister.LoadAggregate()
	if err != nil {
		log.Printf("memory: loading aggregate failed: %v", err)
		return err
	}
	if agg != nil {
		if agg.Jokers == nil {
			agg.Jokers = map[string]*JokerPerf{}
		}
		if agg.HandTypes == nil {
			agg.HandTypes = map[string]*HandTypePerf{}
		}
		s.agg = agg
	}
	log.Printf("memory: loaded %d sessions, %d tracked jokers", len(s.recent), len(s.agg.Jokers))
	return nil
}

// StartSession opens a fresh append-only record and returns its id.
// An empty id gets a UUID.
func (s *Store) StartSession(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = uuid.NewString()
	}
	if s.active != nil {
		log.Printf("memory: session %s still active, replacing", s.active.ID)
	}
	s.active = &SessionRecord{ID: id, StartedAt: s.now()}
	return id
}

// ActiveSession returns the id of the open session, or "".
func (s *Store) ActiveSession() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return ""
	}
	return s.active.ID
}

func (s *Store) RecordDecision(ev DecisionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		log.Printf("memory: decision recorded with no active session, dropped")
		return
	}
	if ev.Time.IsZero() {
		ev.Time = s.now()
	}
	if ev.Type == "" {
		ev.Type = DecisionGameplay
	}
	s.active.Decisions = append(s.active.Decisions, ev)
}

func (s *Store) RecordHandPlayed(ev HandEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		log.Printf("memory: hand recorded with no active session, dropped")
		return
	}
	if ev.Time.IsZero() {
		ev.Time = s.now()
	}
	s.active.Hands = append(s.active.Hands, ev)
}

func (s *Store) RecordPurchase(ev PurchaseEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		log.Printf("memory: purchase recorded with no active session, dropped")
		return
	}
	if ev.Time.IsZero() {
		ev.Time = s.now()
	}
	s.active.Purchases = append(s.active.Purchases, ev)
	if ev.ItemType == "joker" {
		for _, n := range s.active.JokersUsed {
			if n == ev.Name {
				return
			}
		}
		s.active.JokersUsed = append(s.active.JokersUsed, ev.Name)
	}
}

// EndSession seals the active record, folds it into the aggregate, keeps
// it in the bounded recent buffer, and persists both. Persistence errors
// are logged, never fatal.
func (s *Store) EndSession(finalAnte, finalScore int, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.active
	if rec == nil {
		log.Printf("memory: no active session to end")
		return
	}
	end := s.now()
	rec.EndedAt = &end
	rec.FinalAnte = finalAnte
	rec.FinalScore = finalScore
	rec.Success = success
	s.active = nil

	s.foldIntoAggregate(rec)

	s.recent = append(s.recent, rec)
	if over := len(s.recent) - s.capacity; over > 0 {
		s.recent = s.recent[over:]
	}

	if s.persister != nil {
		if err := s.persister.SaveSession(rec); err != nil {
			log.Printf("memory: saving session %s failed: %v", rec.ID, err)
		}
		if err := s.persister.SaveAggregate(s.agg); err != nil {
			log.Printf("memory: saving aggregate failed: %v", err)
		}
	}
	log.Printf("memory: session %s sealed, success=%v ante=%d score=%d", rec.ID, success, finalAnte, finalScore)
}

// foldIntoAggregate applies one sealed session's outcomes with incremental
// running averages.
func (s *Store) foldIntoAggregate(rec *SessionRecord) {
	for _, name := range rec.JokersUsed {
		p := s.agg.Jokers[name]
		if p == nil {
			p = &JokerPerf{}
			s.agg.Jokers[name] = p
		}
		p.UsageCount++
		if rec.Success {
			p.Wins++
		}
		p.WinRate = float64(p.Wins) / float64(p.UsageCount)
		p.TotalScore += rec.FinalScore
		p.AvgScoreBoost = float64(p.TotalScore)/float64(p.UsageCount) - avgGameScore
	}
	for _, h := range rec.Hands {
		p := s.agg.HandTypes[h.HandType]
		if p == nil {
			p = &HandTypePerf{}
			s.agg.HandTypes[h.HandType] = p
		}
		n := p.UsageCount + 1
		p.AvgScore = (p.AvgScore*float64(p.UsageCount) + float64(h.Score)) / float64(n)
		p.UsageCount = n
		if h.Success {
			p.Successes++
		}
		p.SuccessRate = float64(p.Successes) / float64(p.UsageCount)
	}
}

// AggregateView returns a deep copy safe to serve over HTTP.
func (s *Store) AggregateView() *Aggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := NewAggregate()
	for k, v := range s.agg.Jokers {
		cp := *v
		out.Jokers[k] = &cp
	}
	for k, v := range s.agg.HandTypes {
		cp := *v
		out.HandTypes[k] = &cp
	}
	return out
}

// LastSession returns the most recently sealed record, or nil.
func (s *Store) LastSession() *SessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.recent) == 0 {
		return nil
	}
	return s.recent[len(s.recent)-1]
}

func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wins := 0
	for _, r := range s.recent {
		if r.Success {
			wins++
		}
	}
	sum := Summary{
		TotalSessions: len(s.recent),
		Wins:          wins,
		TrackedJokers: len(s.agg.Jokers),
		BufferUsed:    len(s.recent),
		BufferCap:     s.capacity,
	}
	if sum.TotalSessions > 0 {
		sum.WinRate = float64(wins) / float64(sum.TotalSessions)
	}
	sum.WinRateLow, sum.WinRateHigh = WilsonCI95(wins, sum.TotalSessions)
	return sum
}

// WilsonCI95 gives a 95% confidence interval for a Bernoulli win rate.
func WilsonCI95(wins, total int) (low, hi float64) {
	if total <= 0 {
		return 0, 1
	}
	z := 1.96
	n := float64(total)
	p := float64(wins) / n
	den := 1 + (z*z)/n
	center := p + (z*z)/(2*n)
	half := z * math.Sqrt((p*(1-p))/n+(z*z)/(4*n*n))
	return (center - half) / den, (center + half) / den
}
