// File: internal/decision/candidates.go
package decision

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/xkilldash9x/tactician/api/schemas"
	"github.com/xkilldash9x/tactician/internal/config"
)

// Candidate is a proposed action. Confidence is the generator's raw belief and
// is replaced by the clamped Score once the candidate has been scored.
type Candidate struct {
	Action     schemas.Action `json:"action"`
	Confidence float64        `json:"confidence"`
	Score      float64        `json:"score"`
}

// Generator proposes candidates from a State. Each rule below is independent;
// the order of the returned slice is the order rules fired.
type Generator struct {
	cfg    config.EngineConfig
	weapon schemas.WeaponRecognizer
	logger *zap.Logger
}

func NewGenerator(cfg config.EngineConfig, weapon schemas.WeaponRecognizer, logger *zap.Logger) *Generator {
	return &Generator{cfg: cfg, weapon: weapon, logger: logger.Named("candidates")}
}

// Generate never returns an empty slice: scouting and repositioning are always proposed.
func (g *Generator) Generate(s *State) []Candidate {
	var out []Candidate
	add := func(t schemas.ActionType, target schemas.Point, tag string, confidence float64) {
		out = append(out, Candidate{
			Action:     schemas.Action{Type: t, Target: target, Context: tag},
			Confidence: confidence,
		})
	}

	// -- Emergency --
	if s.Health() < g.cfg.HealHealth {
		add(schemas.ActionEmergencyHeal, g.cfg.Anchors.Heal, "low_health", 0.9)
	}
	if s.Ammo() < g.cfg.EmergencyAmmo && s.WeaponKnown() {
		add(schemas.ActionEmergencyReload, g.cfg.Anchors.Reload, "low_ammo", 0.9)
	}

	// -- Positional --
	if s.OutsideSafeZone() {
		target := s.ScreenCenter()
		if s.Minimap != nil && s.Minimap.Zone != nil {
			target = s.ToScreen(s.Minimap.Zone.Center)
		}
		add(schemas.ActionZoneRotation, target, "outside_zone", 0.8)
	}

	// -- Combat --
	engaged := false
	for _, e := range s.Enemies() {
		if e.Confidence <= g.cfg.EngageConfidence {
			continue
		}
		engaged = true
		add(schemas.ActionEngageEnemy, e.Position, fmt.Sprintf("enemy_%d", e.ID), e.Confidence*0.8)
		add(schemas.ActionTakeCover, g.coverFrom(s, e.Position), fmt.Sprintf("cover_from_%d", e.ID), 0.7)
	}

	// -- Opportunity --
	if !engaged && s.OpportunityScore > g.cfg.LootOpportunity {
		add(schemas.ActionCollectLoot, nearestLoot(s), "loot", 0.5)
	}

	// -- Utility --
	center := s.ScreenCenter()
	add(schemas.ActionScoutArea, center, "scout", 0.4)
	add(schemas.ActionReposition, center, "reposition", 0.3)

	// -- Maintenance --
	if s.Weapon != nil && g.weapon != nil {
		weapon := *s.Weapon
		due := false
		if err := recoverCall(func() error {
			due = g.weapon.ReloadDue(weapon)
			return nil
		}); err != nil {
			g.logger.Warn("Reload policy failed.", zap.Error(err))
		}
		if due {
			add(schemas.ActionReload, g.cfg.Anchors.Reload, "reload_due", 0.6)
		}
	}

	return out
}

// coverFrom steps horizontally away from the enemy, starting at the screen
// centre where the player stands.
func (g *Generator) coverFrom(s *State, enemy schemas.Point) schemas.Point {
	center := s.ScreenCenter()
	dir := 1.0
	if enemy.X < center.X {
		dir = -1.0
	}
	return s.clampToScreen(schemas.Point{X: center.X - dir*g.cfg.CoverOffset, Y: center.Y})
}

// nearestLoot returns the screen position of the loot marker closest to the
// minimap centre, or the screen centre when there is none.
func nearestLoot(s *State) schemas.Point {
	if s.Minimap == nil {
		return s.ScreenCenter()
	}
	best, bestDist := schemas.Point{}, math.Inf(1)
	for _, m := range s.Minimap.Markers {
		if m.Kind != schemas.MarkerLoot {
			continue
		}
		d := math.Hypot(m.Position.X-0.5, m.Position.Y-0.5)
		if d < bestDist {
			best, bestDist = m.Position, d
		}
	}
	if math.IsInf(bestDist, 1) {
		return s.ScreenCenter()
	}
	return s.ToScreen(best)
}
