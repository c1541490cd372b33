package memory

import "time"

// decision event type tag used by the recommendation matcher.
const DecisionGameplay = "gameplay_decision"

type DecisionContext struct {
	Ante         int    `json:"ante"`
	Money        int    `json:"money"`
	HandsLeft    int    `json:"hands_left"`
	DiscardsLeft int    `json:"discards_left"`
	Phase        string `json:"game_phase"`
}

type DecisionEvent struct {
	Time    time.Time       `json:"timestamp"`
	Type    string          `json:"type"`
	Context DecisionContext `json:"context"`
	Action  string          `json:"action"`
	Reason  string          `json:"reason,omitempty"`
	Success bool            `json:"success"`
}

type HandEvent struct {
	Time      time.Time `json:"timestamp"`
	HandType  string    `json:"hand_type"`
	Score     int       `json:"score"`
	Cards     []string  `json:"cards"`
	Ante      int       `json:"ante"`
	HandsLeft int       `json:"hands_left"`
	Success   bool      `json:"success"`
}

type PurchaseEvent struct {
	Time     time.Time `json:"timestamp"`
	ItemType string    `json:"type"`
	Name     string    `json:"name"`
	Cost     int       `json:"cost"`
	Ante     int       `json:"ante"`
}

// SessionRecord is one complete play-through. Append-only while the
// session is active, immutable after EndSession seals it.
type SessionRecord struct {
	ID         string          `json:"session_id"`
	StartedAt  time.Time       `json:"start_time"`
	EndedAt    *time.Time      `json:"end_time,omitempty"`
	FinalAnte  int             `json:"final_ante"`
	FinalScore int             `json:"final_score"`
	Success    bool            `json:"success"`
	Decisions  []DecisionEvent `json:"decisions"`
	Hands      []HandEvent     `json:"hands_played"`
	Purchases  []PurchaseEvent `json:"shop_purchases"`
	JokersUsed []string        `json:"jokers_used"`
}

// Sealed reports whether the record has been closed by EndSession.
func (r *SessionRecord) Sealed() bool { return r.EndedAt != nil }

type JokerPerf struct {
	UsageCount    int     `json:"usage_count"`
	Wins          int     `json:"wins"`
	WinRate       float64 `json:"win_rate"`
	TotalScore    int     `json:"total_score"`
	AvgScoreBoost float64 `json:"avg_score_boost"`
}

type HandTypePerf struct {
	UsageCount  int     `json:"usage_count"`
	Successes   int     `json:"successes"`
	SuccessRate float64 `json:"success_rate"`
	AvgScore    float64 `json:"avg_score"`
}

// Aggregate holds the long-lived per-joker and per-hand-type running
// statistics. Only sealed sessions ever feed it.
type Aggregate struct {
	Jokers    map[string]*JokerPerf    `json:"joker_performance"`
	HandTypes map[string]*HandTypePerf `json:"hand_type_performance"`
}

func NewAggregate() *Aggregate {
	return &Aggregate{
		Jokers:    map[string]*JokerPerf{},
		HandTypes: map[string]*HandTypePerf{},
	}
}

type ActionFrequency struct {
	Type      string  `json:"type"`
	Frequency float64 `json:"frequency"`
}

type StrategyRecommendation struct {
	Strategy   string            `json:"strategy"` // default | learned | exploration
	Actions    []ActionFrequency `json:"actions,omitempty"`
	Confidence float64           `json:"confidence"`
}

type Summary struct {
	TotalSessions int     `json:"total_sessions"`
	Wins          int     `json:"wins"`
	WinRate       float64 `json:"win_rate"`
	WinRateLow    float64 `json:"win_rate_ci_low"`
	WinRateHigh   float64 `json:"win_rate_ci_high"`
	TrackedJokers int     `json:"tracked_jokers"`
	BufferUsed    int     `json:"buffer_used"`
	BufferCap     int     `json:"buffer_cap"`
}

// Persister is the durable storage behind the store. Implementations:
// the JSON file layout in this package and the Postgres store.
type Persister interface {
	SaveSession(rec *SessionRecord) error
	SaveAggregate(agg *Aggregate) error
	LoadSessions(max int) ([]*SessionRecord, error)
	LoadAggregate() (*Aggregate, error)
}
