// File: internal/decision/features.go
package decision

import (
	"github.com/xkilldash9x/tactician/api/schemas"
	"github.com/xkilldash9x/tactician/internal/nn"
)

// BlockSize is the number of values each feature block contributes.
const BlockSize = 10

// ContextFeatures encodes the HUD reading.
type ContextFeatures struct {
	Health           float64
	Shield           float64
	Ammo             float64
	PlayersAlive     float64
	InSafeZone       float64
	TimeToCollapse   float64
	AvailableWeapons float64
	Risk             float64
	CanEngage        float64
	GameType         float64
}

func (f ContextFeatures) values() [BlockSize]float64 {
	return [BlockSize]float64{f.Health, f.Shield, f.Ammo, f.PlayersAlive, f.InSafeZone,
		f.TimeToCollapse, f.AvailableWeapons, f.Risk, f.CanEngage, f.GameType}
}

// PlayerFeatures summarizes tracked players. The last six slots of the
// block are reserved and encode as zero.
type PlayerFeatures struct {
	Count      float64
	Enemies    float64
	Teammates  float64
	MeanThreat float64
}

func (f PlayerFeatures) values() [BlockSize]float64 {
	return [BlockSize]float64{f.Count, f.Enemies, f.Teammates, f.MeanThreat}
}

// TeamFeatures summarizes the team classifier. Five reserved slots follow.
type TeamFeatures struct {
	Friendly   float64
	Enemy      float64
	Neutral    float64
	Confidence float64
	Mode       float64
}

func (f TeamFeatures) values() [BlockSize]float64 {
	return [BlockSize]float64{f.Friendly, f.Enemy, f.Neutral, f.Confidence, f.Mode}
}

// WeaponFeatures describes the held weapon. Five reserved slots follow.
type WeaponFeatures struct {
	Type        float64
	Ammo        float64
	Damage      float64
	Confidence  float64
	Attachments float64
}

func (f WeaponFeatures) values() [BlockSize]float64 {
	return [BlockSize]float64{f.Type, f.Ammo, f.Damage, f.Confidence, f.Attachments}
}

// MinimapFeatures describes the zone and markers. Four reserved slots follow.
type MinimapFeatures struct {
	Radius        float64
	TimeRemaining float64
	Phase         float64
	InZone        float64
	Distance      float64
	Markers       float64
}

func (f MinimapFeatures) values() [BlockSize]float64 {
	return [BlockSize]float64{f.Radius, f.TimeRemaining, f.Phase, f.InZone, f.Distance, f.Markers}
}

// Features holds the five blocks. A nil block means the collaborator behind
// it reported nothing and encodes as zeros.
type Features struct {
	Context *ContextFeatures
	Player  *PlayerFeatures
	Team    *TeamFeatures
	Weapon  *WeaponFeatures
	Minimap *MinimapFeatures
}

// Vector flattens the blocks into the network input. Every value is clamped to [0,1].
func (f Features) Vector() []float64 {
	var blocks [5][BlockSize]float64
	if f.Context != nil {
		blocks[0] = f.Context.values()
	}
	if f.Player != nil {
		blocks[1] = f.Player.values()
	}
	if f.Team != nil {
		blocks[2] = f.Team.values()
	}
	if f.Weapon != nil {
		blocks[3] = f.Weapon.values()
	}
	if f.Minimap != nil {
		blocks[4] = f.Minimap.values()
	}

	v := make([]float64, 0, nn.InputSize)
	for _, b := range blocks {
		for _, x := range b {
			v = append(v, clamp01(x))
		}
	}
	return v
}

// EncodeFeatures builds the feature blocks for s.
func EncodeFeatures(s *State) Features {
	var f Features
	if s.Context != nil {
		f.Context = encodeContext(s)
	}
	if len(s.Players) > 0 {
		f.Player = encodePlayers(s)
	}
	if s.Teams != nil {
		f.Team = encodeTeams(s)
	}
	if s.Weapon != nil {
		f.Weapon = encodeWeapon(s.Weapon)
	}
	if s.Minimap != nil {
		f.Minimap = encodeMinimap(s.Minimap)
	}
	return f
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func ordinalf(ordinal, count int) float64 {
	if count <= 1 {
		return 0
	}
	return float64(ordinal) / float64(count-1)
}

func encodeContext(s *State) *ContextFeatures {
	c := s.Context
	shield, _ := c.Resource(schemas.ResourceShield)
	return &ContextFeatures{
		Health:           s.Health() / 100,
		Shield:           shield / 100,
		Ammo:             float64(s.Ammo()) / 100,
		PlayersAlive:     float64(c.PlayersAlive) / 100,
		InSafeZone:       boolf(c.InSafeZone),
		TimeToCollapse:   s.TimeToCollapse() / DefaultTimeToCollapse,
		AvailableWeapons: float64(len(c.AvailableWeapons)) / 5,
		Risk:             float64(c.Risk) / float64(schemas.RiskCritical),
		CanEngage:        boolf(c.CanEngage),
		GameType:         ordinalf(s.GameType.Ordinal(), schemas.GameTypeCount()),
	}
}

func encodePlayers(s *State) *PlayerFeatures {
	f := &PlayerFeatures{}
	var sumThreat float64
	for _, p := range s.Players {
		switch p.Team {
		case schemas.TeamEnemy:
			f.Enemies++
		case schemas.TeamTeammate:
			f.Teammates++
		}
		sumThreat += p.Threat
	}
	n := float64(len(s.Players))
	f.Count = n / 20
	f.Enemies /= 10
	f.Teammates /= 4
	f.MeanThreat = sumThreat / n
	return f
}

func encodeTeams(s *State) *TeamFeatures {
	t := s.Teams
	return &TeamFeatures{
		Friendly:   float64(t.Friendly) / 4,
		Enemy:      float64(t.Enemy) / 10,
		Neutral:    float64(t.Neutral) / 10,
		Confidence: t.Confidence,
		Mode:       ordinalf(t.DetectedMode.Ordinal(), schemas.GameTypeCount()),
	}
}

func encodeWeapon(w *schemas.WeaponSnapshot) *WeaponFeatures {
	return &WeaponFeatures{
		Type:        ordinalf(w.Type.Ordinal(), schemas.WeaponTypeCount()),
		Ammo:        float64(w.Ammo) / 100,
		Damage:      w.Damage / 100,
		Confidence:  w.Confidence,
		Attachments: float64(w.Attachments) / 5,
	}
}

func encodeMinimap(m *schemas.MinimapSnapshot) *MinimapFeatures {
	f := &MinimapFeatures{
		InZone:   boolf(m.PlayerInZone),
		Distance: m.DistanceToZone,
		Markers:  float64(len(m.Markers)) / 10,
	}
	if z := m.Zone; z != nil {
		f.Radius = z.Radius
		f.TimeRemaining = z.TimeRemaining / DefaultTimeToCollapse
		f.Phase = float64(z.Phase) / 10
	}
	return f
}
