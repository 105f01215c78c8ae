// File: internal/decision/state.go
package decision

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/tactician/api/schemas"
	"github.com/xkilldash9x/tactician/internal/config"
)

// Defaults used when no collaborator reported a value.
const (
	DefaultHealth         = 100.0
	DefaultAmmo           = 30
	DefaultTimeToCollapse = 300.0
)

// State is the fused view of one frame. Any collaborator field may be nil.
// A State is never modified after Aggregate returns it.
type State struct {
	FrameID  string
	Context  *schemas.GameContext
	Players  []schemas.TrackedPlayer
	Teams    *schemas.TeamAnalysis
	Weapon   *schemas.WeaponSnapshot
	Minimap  *schemas.MinimapSnapshot
	GameType schemas.GameType

	OverallThreat    float64
	OpportunityScore float64

	ScreenWidth  int
	ScreenHeight int
	Timestamp    time.Time
}

// Health returns the reported health, DefaultHealth when unknown.
func (s *State) Health() float64 {
	if v, ok := s.Context.Resource(schemas.ResourceHealth); ok {
		return v
	}
	return DefaultHealth
}

// Ammo prefers the weapon recognizer's count over the HUD resource bar.
func (s *State) Ammo() int {
	if s.Weapon != nil {
		return s.Weapon.Ammo
	}
	if v, ok := s.Context.Resource(schemas.ResourceAmmo); ok {
		return int(v)
	}
	return DefaultAmmo
}

// WeaponKnown reports whether a specific weapon class was recognized.
func (s *State) WeaponKnown() bool {
	return s.Weapon != nil && s.Weapon.Type != "" && s.Weapon.Type != schemas.WeaponUnknown
}

// InSafeZone reads the HUD flag first and then the minimap. known is false
// when neither collaborator reported.
func (s *State) InSafeZone() (inZone, known bool) {
	if s.Context != nil {
		return s.Context.InSafeZone, true
	}
	if s.Minimap != nil {
		return s.Minimap.PlayerInZone, true
	}
	return false, false
}

// OutsideSafeZone is true only when a collaborator positively reported it.
func (s *State) OutsideSafeZone() bool {
	in, known := s.InSafeZone()
	return known && !in
}

// TimeToCollapse returns seconds until the zone closes, DefaultTimeToCollapse when unknown.
func (s *State) TimeToCollapse() float64 {
	if s.Context != nil && s.Context.TimeToCollapse > 0 {
		return s.Context.TimeToCollapse
	}
	if s.Minimap != nil && s.Minimap.Zone != nil && s.Minimap.Zone.TimeRemaining > 0 {
		return s.Minimap.Zone.TimeRemaining
	}
	return DefaultTimeToCollapse
}

// EnemyCount prefers the team classifier's count over tracker labels.
func (s *State) EnemyCount() int {
	if s.Teams != nil {
		return s.Teams.Enemy
	}
	n := 0
	for _, p := range s.Players {
		if p.Team == schemas.TeamEnemy {
			n++
		}
	}
	return n
}

// Enemies returns the players the team classifier labelled as enemies.
func (s *State) Enemies() []schemas.ClassifiedPlayer {
	if s.Teams == nil {
		return nil
	}
	return s.Teams.Enemies
}

// WeakEnemyCount counts classified enemies with confidence below 0.5.
func (s *State) WeakEnemyCount() int {
	n := 0
	for _, e := range s.Enemies() {
		if e.Confidence < 0.5 {
			n++
		}
	}
	return n
}

// AvailableWeapons is the number of weapons the HUD lists.
func (s *State) AvailableWeapons() int {
	if s.Context == nil {
		return 0
	}
	return len(s.Context.AvailableWeapons)
}

// ScreenCenter is where the player is assumed to stand.
func (s *State) ScreenCenter() schemas.Point {
	return schemas.Point{X: float64(s.ScreenWidth) / 2, Y: float64(s.ScreenHeight) / 2}
}

// ToScreen maps a minimap-normalized point onto the screen.
func (s *State) ToScreen(p schemas.Point) schemas.Point {
	return schemas.Point{X: clamp01(p.X) * float64(s.ScreenWidth), Y: clamp01(p.Y) * float64(s.ScreenHeight)}
}

func (s *State) clampToScreen(p schemas.Point) schemas.Point {
	return schemas.Point{
		X: clamp(p.X, 0, float64(s.ScreenWidth)),
		Y: clamp(p.Y, 0, float64(s.ScreenHeight)),
	}
}

// computeComposites fills OverallThreat and OpportunityScore. Inputs that no
// collaborator reported contribute nothing.
func (s *State) computeComposites() {
	threat := 0.4 * min(1.0, float64(s.EnemyCount())*0.2)
	threat += 0.3 * (1 - s.Health()/100)
	if s.OutsideSafeZone() {
		threat += 0.3
	}
	s.OverallThreat = clamp01(threat)

	opp := min(0.3, float64(s.AvailableWeapons())*0.1)
	opp += min(0.4, float64(s.WeakEnemyCount())*0.1)
	if in, known := s.InSafeZone(); known && in {
		opp += 0.3
	}
	s.OpportunityScore = clamp01(opp)
}

// -- Aggregation --

// Collaborators are the perception subsystems and the performance tracker.
// Any of them may be nil; the matching State field is then absent.
type Collaborators struct {
	Context     schemas.ContextAnalyzer
	Players     schemas.PlayerTracker
	Teams       schemas.TeamClassifier
	Weapon      schemas.WeaponRecognizer
	Minimap     schemas.MinimapAnalyzer
	GameType    schemas.GameTypeDetector
	Performance schemas.PerformanceTracker
}

// Aggregator merges collaborator outputs into a State.
type Aggregator struct {
	collab       Collaborators
	screenWidth  int
	screenHeight int
	now          func() time.Time
	logger       *zap.Logger
}

// NewAggregator creates an Aggregator. Screen size from the config is used
// when a frame does not report its own.
func NewAggregator(collab Collaborators, cfg config.EngineConfig, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		collab:       collab,
		screenWidth:  cfg.ScreenWidth,
		screenHeight: cfg.ScreenHeight,
		now:          time.Now,
		logger:       logger.Named("aggregator"),
	}
}

// Aggregate queries every collaborator once. A failing collaborator is logged
// and its field left absent; aggregation itself never fails.
func (a *Aggregator) Aggregate(ctx context.Context, frame *schemas.Frame) *State {
	s := &State{
		FrameID:      frame.ID,
		ScreenWidth:  frame.Width,
		ScreenHeight: frame.Height,
		Timestamp:    a.now(),
	}
	if s.ScreenWidth <= 0 || s.ScreenHeight <= 0 {
		s.ScreenWidth, s.ScreenHeight = a.screenWidth, a.screenHeight
	}

	c := a.collab
	if c.Context != nil {
		a.guard("context", func() error {
			v, err := c.Context.AnalyzeContext(ctx, frame)
			if err == nil {
				s.Context = v
			}
			return err
		})
	}
	if c.Players != nil {
		a.guard("players", func() error {
			v, err := c.Players.TrackPlayers(ctx, frame)
			if err == nil {
				s.Players = v
			}
			return err
		})
	}
	if c.Teams != nil {
		a.guard("teams", func() error {
			v, err := c.Teams.ClassifyTeams(ctx, frame)
			if err == nil {
				s.Teams = v
			}
			return err
		})
	}
	if c.Weapon != nil {
		a.guard("weapon", func() error {
			v, err := c.Weapon.RecognizeWeapon(ctx, frame)
			if err == nil {
				s.Weapon = v
			}
			return err
		})
	}
	if c.Minimap != nil {
		a.guard("minimap", func() error {
			v, err := c.Minimap.AnalyzeMinimap(ctx, frame)
			if err == nil {
				s.Minimap = v
			}
			return err
		})
	}
	if c.GameType != nil {
		a.guard("game_type", func() error {
			v, err := c.GameType.DetectGameType(ctx, frame)
			if err == nil {
				s.GameType = v
			}
			return err
		})
	}
	if s.GameType == "" {
		s.GameType = schemas.GameTypeUnknown
	}

	s.computeComposites()
	return s
}

// guard runs one collaborator call, turning errors and panics into a warning.
func (a *Aggregator) guard(name string, call func() error) {
	if err := recoverCall(call); err != nil {
		a.logger.Warn("Collaborator failed, continuing without it.",
			zap.String("collaborator", name), zap.Error(err))
	}
}

// recoverCall runs fn and converts a panic into an error.
func recoverCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func clamp(v, lo, hi float64) float64 {
	if v != v { // NaN
		return lo
	}
	return max(lo, min(hi, v))
}

func clamp01(v float64) float64 { return clamp(v, 0, 1) }
