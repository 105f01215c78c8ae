// File: internal/decision/helpers_test.go
package decision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/tactician/api/schemas"
	"github.com/xkilldash9x/tactician/internal/config"
	"github.com/xkilldash9x/tactician/internal/nn"
)

// -- Static collaborators --

// staticPerception returns fixed snapshots. A non-nil err makes every
// perception call fail.
type staticPerception struct {
	ctx      *schemas.GameContext
	players  []schemas.TrackedPlayer
	teams    *schemas.TeamAnalysis
	weapon   *schemas.WeaponSnapshot
	minimap  *schemas.MinimapSnapshot
	gameType schemas.GameType
	err      error

	reloadDue     bool
	effectiveness float64
	urgency       float64
}

func (p *staticPerception) AnalyzeContext(context.Context, *schemas.Frame) (*schemas.GameContext, error) {
	return p.ctx, p.err
}
func (p *staticPerception) TrackPlayers(context.Context, *schemas.Frame) ([]schemas.TrackedPlayer, error) {
	return p.players, p.err
}
func (p *staticPerception) ClassifyTeams(context.Context, *schemas.Frame) (*schemas.TeamAnalysis, error) {
	return p.teams, p.err
}
func (p *staticPerception) RecognizeWeapon(context.Context, *schemas.Frame) (*schemas.WeaponSnapshot, error) {
	return p.weapon, p.err
}
func (p *staticPerception) AnalyzeMinimap(context.Context, *schemas.Frame) (*schemas.MinimapSnapshot, error) {
	return p.minimap, p.err
}
func (p *staticPerception) DetectGameType(context.Context, *schemas.Frame) (schemas.GameType, error) {
	return p.gameType, p.err
}
func (p *staticPerception) ReloadDue(schemas.WeaponSnapshot) bool { return p.reloadDue }
func (p *staticPerception) Effectiveness(schemas.WeaponSnapshot, float64) float64 {
	return p.effectiveness
}
func (p *staticPerception) RotationUrgency(schemas.MinimapSnapshot) float64 { return p.urgency }

func (p *staticPerception) collaborators() Collaborators {
	return Collaborators{
		Context:  p,
		Players:  p,
		Teams:    p,
		Weapon:   p,
		Minimap:  p,
		GameType: p,
	}
}

// fixedRates is a PerformanceTracker backed by a map.
type fixedRates map[string]float64

func (f fixedRates) SuccessRate(t string) (float64, bool) {
	r, ok := f[t]
	return r, ok
}

var errCollaborator = errors.New("collaborator offline")

func withHealth(h float64) *schemas.GameContext {
	return &schemas.GameContext{
		Resources:  map[string]float64{schemas.ResourceHealth: h},
		InSafeZone: true,
	}
}

func testFrame(id string) *schemas.Frame {
	return &schemas.Frame{ID: id, Width: 2400, Height: 1080}
}

func testConfig() *config.Config {
	return config.NewDefaultConfig()
}

// newTestEngine builds and initializes an engine with a seeded network.
func newTestEngine(t *testing.T, collab Collaborators, opts ...Option) *Engine {
	t.Helper()
	cfg := testConfig()
	opts = append([]Option{WithNetwork(nn.NewSeeded(42, 0.01))}, opts...)
	e := New(cfg, collab, zaptest.NewLogger(t), opts...)
	require.NoError(t, e.Initialize(context.Background()))
	return e
}
