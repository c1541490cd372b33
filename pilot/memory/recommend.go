package memory

import (
	"balatro-pilot/pilot/agent"
	"balatro-pilot/pilot/engine"
)

// Recommendation tuning. Unknown jokers start at a neutral win rate and
// under-sampled ones get a flat exploration bump.
const (
	neutralWinRate      = 0.5
	explorationBonus    = 0.1
	explorationCutoff   = 5
	defaultConfidence   = 0.3
	exploreConfidence   = 0.4
	commonActionMinimum = 0.6
)

var recRarityBonus = map[string]float64{
	"Common":    0,
	"Uncommon":  0.1,
	"Rare":      0.2,
	"Legendary": 0.3,
}

// RecommendJoker scores each candidate by historical performance:
// composite = (winRate + rarityBonus + explorationBonus) * (1 + avgScoreBoost/1000).
// Deterministic: ties keep the first-seen candidate.
func (s *Store) RecommendJoker(candidates []engine.Joker, _ agent.GameSnapshot) *engine.Joker {
	if len(candidates) == 0 {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	bestScore := -1.0
	var best *engine.Joker
	for i := range candidates {
		j := &candidates[i]
		winRate := neutralWinRate
		boost := 0.0
		usage := 0
		if p := s.agg.Jokers[j.Name]; p != nil {
			winRate = p.WinRate
			boost = p.AvgScoreBoost
			usage = p.UsageCount
		}
		bonus := recRarityBonus[j.Rarity]
		if usage < explorationCutoff {
			bonus += explorationBonus
		}
		composite := (winRate + bonus) * (1 + boost/1000)
		if composite > bestScore {
			bestScore = composite
			best = j
		}
	}
	return best
}

// RecommendStrategy mines the recent-session buffer for decisions taken
// in similar spots (ante within one, money within a factor of two) and
// reports the action types that dominated the successful ones.
func (s *Store) RecommendStrategy(snap agent.GameSnapshot) StrategyRecommendation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type match struct {
		action  string
		success bool
	}
	var matches []match
	for _, rec := range s.recent {
		for _, d := range rec.Decisions {
			if d.Type != DecisionGameplay {
				continue
			}
			anteDiff := d.Context.Ante - snap.Stats.Ante
			if anteDiff < 0 {
				anteDiff = -anteDiff
			}
			// +1 smoothing keeps the ratio defined at zero money.
			ratio := float64(d.Context.Money+1) / float64(snap.Stats.Money+1)
			if anteDiff <= 1 && ratio >= 0.5 && ratio <= 2.0 {
				matches = append(matches, match{action: d.Action, success: rec.Success})
			}
		}
	}
	if len(matches) == 0 {
		return StrategyRecommendation{Strategy: "default", Confidence: defaultConfidence}
	}

	successCount := 0
	actionCounts := map[string]int{}
	var order []string
	for _, m := range matches {
		if !m.success {
			continue
		}
		successCount++
		if actionCounts[m.action] == 0 {
			order = append(order, m.action)
		}
		actionCounts[m.action]++
	}
	if successCount == 0 {
		return StrategyRecommendation{Strategy: "exploration", Confidence: exploreConfidence}
	}

	var actions []ActionFrequency
	for _, a := range order {
		freq := float64(actionCounts[a]) / float64(successCount)
		if freq >= commonActionMinimum {
			actions = append(actions, ActionFrequency{Type: a, Frequency: freq})
		}
	}
	return StrategyRecommendation{
		Strategy:   "learned",
		Actions:    actions,
		Confidence: float64(successCount) / float64(len(matches)),
	}
}
