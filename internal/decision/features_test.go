// File: internal/decision/features_test.go
package decision

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/tactician/api/schemas"
	"github.com/xkilldash9x/tactician/internal/nn"
)

func TestVectorOfEmptyStateIsZero(t *testing.T) {
	v := EncodeFeatures(&State{ScreenWidth: 2400, ScreenHeight: 1080}).Vector()
	require.Len(t, v, nn.InputSize)
	if diff := cmp.Diff(make([]float64, nn.InputSize), v); diff != "" {
		t.Fatalf("missing collaborators must encode as zeros (-want +got):\n%s", diff)
	}
}

func TestVectorBlockLayout(t *testing.T) {
	s := &State{
		ScreenWidth:  2400,
		ScreenHeight: 1080,
		Weapon: &schemas.WeaponSnapshot{
			Type:         schemas.WeaponSniper,
			Ammo:         5,
			MagazineSize: 10,
			Damage:       80,
			Confidence:   0.9,
			Attachments:  2,
		},
	}
	f := EncodeFeatures(s)
	assert.Nil(t, f.Context)
	assert.Nil(t, f.Player)
	assert.Nil(t, f.Team)
	assert.Nil(t, f.Minimap)
	require.NotNil(t, f.Weapon)

	v := f.Vector()
	weapon := v[3*BlockSize : 4*BlockSize]
	want := []float64{
		3.0 / 7, // sniper ordinal over 8 classes
		0.05,
		0.8,
		0.9,
		0.4,
		0, 0, 0, 0, 0,
	}
	assert.InDeltaSlice(t, want, weapon, 1e-9)
	for i, x := range v {
		if i < 3*BlockSize || i >= 4*BlockSize {
			assert.Zero(t, x, "index %d belongs to an absent block", i)
		}
	}
}

func TestVectorNamedSlotsPrecedeReservedSlots(t *testing.T) {
	s := &State{
		ScreenWidth:  2400,
		ScreenHeight: 1080,
		Players: []schemas.TrackedPlayer{
			{ID: 1, Team: schemas.TeamNeutral, Threat: 0.8, Confidence: 0.9},
		},
		Teams: &schemas.TeamAnalysis{
			Friendly:     2,
			Enemy:        3,
			Neutral:      1,
			Confidence:   0.6,
			DetectedMode: schemas.GameTypeHardpoint,
			Enemies:      []schemas.ClassifiedPlayer{{ID: 4, Confidence: 0.3}},
		},
		Weapon: &schemas.WeaponSnapshot{Type: schemas.WeaponSniper, Ammo: 4, MagazineSize: 50, Damage: 90},
		Minimap: &schemas.MinimapSnapshot{
			Zone:           &schemas.Zone{Radius: 0.4, TimeRemaining: 150, Phase: 3, Center: schemas.Point{X: 0.7, Y: 0.2}},
			PlayerInZone:   true,
			DistanceToZone: 0.25,
			Markers:        []schemas.Marker{{Kind: schemas.MarkerLoot}, {Kind: "vehicle"}},
		},
	}
	v := EncodeFeatures(s).Vector()
	zeros := func(n int) []float64 { return make([]float64, n) }

	player := append([]float64{0.05, 0, 0, 0.8}, zeros(6)...)
	team := append([]float64{0.5, 0.3, 0.1, 0.6, 1}, zeros(5)...)
	weapon := append([]float64{3.0 / 7, 0.04, 0.9, 0, 0}, zeros(5)...)
	minimap := append([]float64{0.4, 0.5, 0.3, 1, 0.25, 0.2}, zeros(4)...)

	assert.InDeltaSlice(t, player, v[1*BlockSize:2*BlockSize], 1e-9, "player block")
	assert.InDeltaSlice(t, team, v[2*BlockSize:3*BlockSize], 1e-9, "team block")
	assert.InDeltaSlice(t, weapon, v[3*BlockSize:4*BlockSize], 1e-9, "weapon block")
	assert.InDeltaSlice(t, minimap, v[4*BlockSize:5*BlockSize], 1e-9, "minimap block")
}

func TestVectorIsClamped(t *testing.T) {
	s := &State{
		ScreenWidth:  2400,
		ScreenHeight: 1080,
		Context: &schemas.GameContext{
			Resources:    map[string]float64{schemas.ResourceHealth: 250, schemas.ResourceShield: -40},
			PlayersAlive: 400,
		},
		Players: []schemas.TrackedPlayer{
			{Team: schemas.TeamEnemy, Position: schemas.Point{X: -100, Y: 5000}, Threat: 3},
		},
	}
	for i, x := range EncodeFeatures(s).Vector() {
		assert.GreaterOrEqual(t, x, 0.0, "index %d", i)
		assert.LessOrEqual(t, x, 1.0, "index %d", i)
	}
}

func TestEncodePlayersAndTeams(t *testing.T) {
	s := &State{
		ScreenWidth:  2000,
		ScreenHeight: 1000,
		GameType:     schemas.GameTypeBattleRoyale,
		Players: []schemas.TrackedPlayer{
			{ID: 1, Team: schemas.TeamEnemy, Position: schemas.Point{X: 1000, Y: 500}, Threat: 0.8, Confidence: 1},
			{ID: 2, Team: schemas.TeamTeammate, Position: schemas.Point{X: 0, Y: 0}, Threat: 0.2, Confidence: 0.5},
		},
		Teams: &schemas.TeamAnalysis{
			Friendly:     1,
			Enemy:        1,
			Confidence:   0.7,
			DetectedMode: schemas.GameTypeBattleRoyale,
			Enemies:      []schemas.ClassifiedPlayer{{ID: 1, Confidence: 0.4}},
		},
	}
	f := EncodeFeatures(s)

	require.NotNil(t, f.Player)
	want := PlayerFeatures{Count: 0.1, Enemies: 0.1, Teammates: 0.25, MeanThreat: 0.5}
	if diff := cmp.Diff(want, *f.Player, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("player features mismatch (-want +got):\n%s", diff)
	}

	require.NotNil(t, f.Team)
	assert.InDelta(t, 0.25, f.Team.Friendly, 1e-9)
	assert.InDelta(t, 0.1, f.Team.Enemy, 1e-9)
	assert.InDelta(t, 0.7, f.Team.Confidence, 1e-9)
	assert.InDelta(t, 0.2, f.Team.Mode, 1e-9)
}
