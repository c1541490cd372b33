// Package coord sequences the observation, strategy, action, and memory
// phases of one play session. Single-threaded: exactly one cycle runs at
// a time, suspending only at the observer/actuator boundary and at the
// minimum-cycle delay.
package coord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"balatro-pilot/pilot/agent"
	"balatro-pilot/pilot/engine"
	"balatro-pilot/pilot/memory"
	"balatro-pilot/pilot/strategy"
)

// Failure classes a Result.Err wraps; match with errors.Is.
var (
	ErrObservationFailed = errors.New("observation failed")
	ErrCancelled         = errors.New("run cancelled")
)

type Phase string

const (
	PhaseInit        Phase = "initialization"
	PhaseObservation Phase = "observation"
	PhaseStrategy    Phase = "strategy"
	PhaseAction      Phase = "action"
	PhaseMemory      Phase = "memory"
	PhaseError       Phase = "error"
	PhaseEnded       Phase = "ended"
)

// DefaultMinCycle is the floor on one observation/decision/action cycle.
const DefaultMinCycle = 2 * time.Second

// Result is the user-visible outcome of a finished session.
type Result struct {
	SessionID  string   `json:"session_id"`
	Success    bool     `json:"success"`
	FinalAnte  int      `json:"final_ante"`
	FinalScore int      `json:"final_score"`
	Decisions  int      `json:"total_decisions"`
	Errors     []string `json:"errors,omitempty"`
	Err        error    `json:"-"`
}

type Coordinator struct {
	Observer agent.Observer
	Actuator agent.Actuator
	Analyzer *strategy.Analyzer
	Memory   *memory.Store
	MinCycle time.Duration

	mu      sync.RWMutex
	phase   Phase
	session string
	cycles  int
}

func New(obs agent.Observer, act agent.Actuator, an *strategy.Analyzer, mem *memory.Store) *Coordinator {
	return &Coordinator{
		Observer: obs,
		Actuator: act,
		Analyzer: an,
		Memory:   mem,
		MinCycle: DefaultMinCycle,
		phase:    PhaseInit,
	}
}

// Status is a point-in-time view for the HTTP API.
type Status struct {
	Phase     Phase  `json:"phase"`
	SessionID string `json:"session_id,omitempty"`
	Cycles    int    `json:"cycles"`
}

func (c *Coordinator) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Status{Phase: c.phase, SessionID: c.session, Cycles: c.cycles}
}

func (c *Coordinator) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
}

// Run plays one session to completion: start the session, pull the first
// snapshot, then cycle until a win, a loss, an observation failure, or
// cancellation. Every exit path seals the session through EndSession.
func (c *Coordinator) Run(ctx context.Context) Result {
	c.setPhase(PhaseInit)
	id := c.Memory.StartSession("")
	c.mu.Lock()
	c.session = id
	c.cycles = 0
	c.mu.Unlock()

	res := Result{SessionID: id}

	c.setPhase(PhaseObservation)
	snap, err := c.Observer.Capture(ctx)
	if err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrObservationFailed, err)
		res.Errors = append(res.Errors, res.Err.Error())
		return c.fail(res, snap)
	}

	for {
		if ctx.Err() != nil {
			res.Err = ErrCancelled
			res.Errors = append(res.Errors, res.Err.Error())
			return c.fail(res, snap)
		}

		// Termination checks run on the freshest snapshot, before any
		// further action is taken on it. With no hands left the blind
		// cannot be beaten no matter how many discards remain.
		if snap.HasWinningScore() {
			res.Success = true
			return c.finish(res, snap)
		}
		if snap.Stats.HandsLeft <= 0 && snap.Phase != "shop" {
			return c.finish(res, snap)
		}

		cycleStart := time.Now()

		// Strategy phase: route on the snapshot's game phase.
		c.setPhase(PhaseStrategy)
		if rec := c.Memory.RecommendStrategy(snap); rec.Strategy == "learned" {
			log.Printf("coord: memory suggests %v (confidence %.2f)", rec.Actions, rec.Confidence)
		}
		var d strategy.Decision
		if snap.Phase == "shop" {
			plan := c.Analyzer.PlanAnte(snap)
			log.Printf("coord: ante %d plan: focus=%s budget=%.0f", snap.Stats.Ante, plan.Focus, plan.ShopBudget)
			d = c.Analyzer.ChooseShopAction(snap)
		} else {
			d = c.Analyzer.ChoosePlayOrDiscard(snap)
		}

		// Action phase. A wait decision executes nothing; a rejected or
		// failed action is recorded as a failed outcome and the cycle
		// carries on to the memory phase.
		c.setPhase(PhaseAction)
		ok := true
		if d.Action != agent.Wait {
			cmd := agent.ActionCommand{Kind: d.Action, Cards: d.Cards, Item: d.Item}
			if err := agent.Validate(snap, cmd); err != nil {
				log.Printf("coord: action rejected: %v", err)
				ok = false
			} else if ok, err = c.Actuator.Execute(ctx, cmd); err != nil {
				log.Printf("coord: action failed: %v", err)
				ok = false
			}
		}

		// Memory phase.
		c.setPhase(PhaseMemory)
		c.record(snap, d, ok)
		res.Decisions++
		c.mu.Lock()
		c.cycles++
		c.mu.Unlock()

		// Enforce the cycle floor before observing again.
		if remain := c.MinCycle - time.Since(cycleStart); remain > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(remain):
			}
		}
		if ctx.Err() != nil {
			res.Err = ErrCancelled
			res.Errors = append(res.Errors, res.Err.Error())
			return c.fail(res, snap)
		}

		// Observation phase for the next cycle; optional fields the
		// capture missed carry over from the previous snapshot.
		c.setPhase(PhaseObservation)
		next, err := c.Observer.Capture(ctx)
		if err != nil {
			res.Err = fmt.Errorf("%w: %v", ErrObservationFailed, err)
			res.Errors = append(res.Errors, res.Err.Error())
			return c.fail(res, snap)
		}
		snap = agent.Merge(snap, next)
	}
}

// record writes the decision and its concrete effects into the session.
func (c *Coordinator) record(snap agent.GameSnapshot, d strategy.Decision, ok bool) {
	c.Memory.RecordDecision(memory.DecisionEvent{
		Type: memory.DecisionGameplay,
		Context: memory.DecisionContext{
			Ante:         snap.Stats.Ante,
			Money:        snap.Stats.Money,
			HandsLeft:    snap.Stats.HandsLeft,
			DiscardsLeft: snap.Stats.DiscardsLeft,
			Phase:        snap.Phase,
		},
		Action:  string(d.Action),
		Reason:  d.Reason,
		Success: ok,
	})

	switch {
	case d.Action == agent.Play && ok:
		h := engine.Score(d.Cards, snap.Jokers)
		cards := make([]string, len(h.Cards))
		for i, card := range h.Cards {
			cards[i] = card.String()
		}
		c.Memory.RecordHandPlayed(memory.HandEvent{
			HandType:  string(h.Type),
			Score:     h.FinalScore,
			Cards:     cards,
			Ante:      snap.Stats.Ante,
			HandsLeft: snap.Stats.HandsLeft,
			Success:   true,
		})
	case d.Action == agent.BuyJoker && ok:
		cost := 0
		if snap.Shop != nil {
			for _, j := range snap.Shop.Jokers {
				if j.Name == d.Item {
					cost = j.Cost
					break
				}
			}
		}
		c.Memory.RecordPurchase(memory.PurchaseEvent{
			ItemType: "joker",
			Name:     d.Item,
			Cost:     cost,
			Ante:     snap.Stats.Ante,
		})
	}
}

// finish seals the session with the outcome read from the last snapshot.
func (c *Coordinator) finish(res Result, snap agent.GameSnapshot) Result {
	res.FinalAnte = snap.Stats.Ante
	res.FinalScore = snap.Stats.CurrentScore
	c.Memory.EndSession(res.FinalAnte, res.FinalScore, res.Success)
	c.setPhase(PhaseEnded)
	return res
}

// fail is the error/cancellation exit: the session seals as unsuccessful.
func (c *Coordinator) fail(res Result, snap agent.GameSnapshot) Result {
	c.setPhase(PhaseError)
	res.Success = false
	res.FinalAnte = snap.Stats.Ante
	res.FinalScore = snap.Stats.CurrentScore
	c.Memory.EndSession(res.FinalAnte, res.FinalScore, false)
	c.setPhase(PhaseEnded)
	return res
}
