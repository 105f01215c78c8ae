// File: internal/decision/scorer.go
package decision

import (
	"sort"

	"go.uber.org/zap"

	"github.com/xkilldash9x/tactician/api/schemas"
	"github.com/xkilldash9x/tactician/internal/config"
)

// Scorer rates candidates with static weights, situational bonuses and the
// performance tracker's history.
type Scorer struct {
	cfg         config.EngineConfig
	weapon      schemas.WeaponRecognizer
	minimap     schemas.MinimapAnalyzer
	performance schemas.PerformanceTracker
	logger      *zap.Logger
}

func NewScorer(cfg config.EngineConfig, collab Collaborators, logger *zap.Logger) *Scorer {
	return &Scorer{
		cfg:         cfg,
		weapon:      collab.Weapon,
		minimap:     collab.Minimap,
		performance: collab.Performance,
		logger:      logger.Named("scorer"),
	}
}

// Score returns scored copies of cands in the same order. Each score is
// clamped to [0, MaxScore] and also becomes the candidate's confidence.
// The input slice is left untouched.
func (sc *Scorer) Score(s *State, cands []Candidate) []Candidate {
	out := make([]Candidate, len(cands))
	for i, c := range cands {
		t := c.Action.Type
		score := Weight(t)*0.1 + sc.contextBonus(t, s)
		score *= sc.historyMultiplier(t)
		score = clamp(score, 0, sc.cfg.MaxScore)
		c.Score = score
		c.Confidence = score
		out[i] = c
	}
	return out
}

func (sc *Scorer) contextBonus(t schemas.ActionType, s *State) float64 {
	switch t {
	case schemas.ActionEmergencyHeal, schemas.ActionHeal:
		return (100 - s.Health()) / 100 * 2.0
	case schemas.ActionZoneRotation:
		if sc.minimap == nil || s.Minimap == nil {
			return 0
		}
		return sc.policy("rotation_urgency", func() float64 {
			return clamp01(sc.minimap.RotationUrgency(*s.Minimap))
		}) * 1.5
	case schemas.ActionEngageEnemy:
		if sc.weapon == nil || s.Weapon == nil {
			return 0
		}
		return sc.policy("weapon_effectiveness", func() float64 {
			return clamp01(sc.weapon.Effectiveness(*s.Weapon, sc.cfg.EngagementRange))
		}) * 1.0
	case schemas.ActionTakeCover:
		return s.OverallThreat * 0.8
	case schemas.ActionCollectLoot:
		return s.OpportunityScore * 0.6
	default:
		return 0
	}
}

// historyMultiplier is 1.0 unless the tracker has data for t.
func (sc *Scorer) historyMultiplier(t schemas.ActionType) float64 {
	if sc.performance == nil {
		return 1.0
	}
	var (
		rate float64
		ok   bool
	)
	if err := recoverCall(func() error {
		rate, ok = sc.performance.SuccessRate(t.String())
		return nil
	}); err != nil {
		sc.logger.Warn("Performance tracker failed.", zap.Error(err))
		return 1.0
	}
	if !ok {
		return 1.0
	}
	return 0.5 + clamp01(rate)*0.5
}

// policy evaluates a collaborator policy, yielding 0 if it panics.
func (sc *Scorer) policy(name string, fn func() float64) float64 {
	var v float64
	if err := recoverCall(func() error {
		v = fn()
		return nil
	}); err != nil {
		sc.logger.Warn("Collaborator policy failed.", zap.String("policy", name), zap.Error(err))
		return 0
	}
	return v
}

// Select picks the candidate with the strictly greatest score; on ties the
// earliest wins. Alternatives are the remaining candidates scoring above
// threshold, best first. ok is false only for an empty input.
func Select(scored []Candidate, threshold float64) (primary Candidate, alternatives []Candidate, ok bool) {
	if len(scored) == 0 {
		return Candidate{}, nil, false
	}
	best := 0
	for i := 1; i < len(scored); i++ {
		if scored[i].Score > scored[best].Score {
			best = i
		}
	}
	for i, c := range scored {
		if i != best && c.Score > threshold {
			alternatives = append(alternatives, c)
		}
	}
	sort.SliceStable(alternatives, func(i, j int) bool {
		return alternatives[i].Score > alternatives[j].Score
	})
	return scored[best], alternatives, true
}
