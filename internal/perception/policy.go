// File: internal/perception/policy.go
package perception

import (
	"math"

	"github.com/xkilldash9x/tactician/api/schemas"
)

// RangeProfile describes how a weapon class performs with distance.
// Inside Optimal the weapon is fully effective. Beyond it, effectiveness
// drops linearly to Floor over Falloff pixels.
type RangeProfile struct {
	Optimal float64
	Falloff float64
	Floor   float64
}

// WeaponPolicy holds the reload and range rules for recognized weapons.
type WeaponPolicy struct {
	// ReloadFill triggers a reload when the magazine is at or below this fraction.
	ReloadFill float64
	// ReloadAmmo triggers a reload when this many rounds or fewer remain.
	ReloadAmmo int
	// Unknown is the effectiveness reported for weapons without a profile.
	Unknown float64
	Ranges  map[schemas.WeaponType]RangeProfile
}

// DefaultWeaponPolicy returns ranges tuned for a 2400x1080 capture.
func DefaultWeaponPolicy() WeaponPolicy {
	return WeaponPolicy{
		ReloadFill: 0.25,
		ReloadAmmo: 5,
		Unknown:    0.5,
		Ranges: map[schemas.WeaponType]RangeProfile{
			schemas.WeaponShotgun:      {Optimal: 150, Falloff: 250, Floor: 0.05},
			schemas.WeaponSMG:          {Optimal: 250, Falloff: 400, Floor: 0.2},
			schemas.WeaponPistol:       {Optimal: 200, Falloff: 400, Floor: 0.15},
			schemas.WeaponAssaultRifle: {Optimal: 450, Falloff: 600, Floor: 0.3},
			schemas.WeaponLMG:          {Optimal: 500, Falloff: 600, Floor: 0.3},
			schemas.WeaponMarksman:     {Optimal: 700, Falloff: 700, Floor: 0.35},
			schemas.WeaponSniper:       {Optimal: 1200, Falloff: 800, Floor: 0.4},
		},
	}
}

// ReloadDue reports whether w should be reloaded now. An empty magazine of
// unknown size is always due.
func (p WeaponPolicy) ReloadDue(w schemas.WeaponSnapshot) bool {
	if w.Ammo <= p.ReloadAmmo {
		return true
	}
	if w.MagazineSize <= 0 {
		return false
	}
	return float64(w.Ammo)/float64(w.MagazineSize) <= p.ReloadFill
}

// Effectiveness scores w at rangePx, in [0,1]. Some weapons are strong at
// short range and weak at long range, and the reverse for scoped classes.
func (p WeaponPolicy) Effectiveness(w schemas.WeaponSnapshot, rangePx float64) float64 {
	prof, ok := p.Ranges[w.Type]
	if !ok {
		return clamp01(p.Unknown)
	}
	if math.IsNaN(rangePx) || rangePx <= prof.Optimal {
		return 1
	}
	if prof.Falloff <= 0 {
		return clamp01(prof.Floor)
	}
	t := clamp01((rangePx - prof.Optimal) / prof.Falloff)
	return clamp01(lerpf(1, prof.Floor, t))
}

// ZonePolicy computes how urgently the player should head for the safe zone.
type ZonePolicy struct {
	// DistanceWeight and TimeWeight split the urgency between how far the
	// player is from the zone and how soon it closes.
	DistanceWeight float64
	TimeWeight     float64
	// Horizon is the collapse time, in seconds, at which time pressure is zero.
	Horizon float64
}

// DefaultZonePolicy weights distance slightly above time pressure.
func DefaultZonePolicy() ZonePolicy {
	return ZonePolicy{DistanceWeight: 0.6, TimeWeight: 0.4, Horizon: 300}
}

// RotationUrgency is zero inside the zone. Outside it, urgency grows with the
// normalized distance to the zone and with the shrinking time remaining.
func (p ZonePolicy) RotationUrgency(m schemas.MinimapSnapshot) float64 {
	if m.PlayerInZone {
		return 0
	}
	urgency := p.DistanceWeight * clamp01(m.DistanceToZone)
	pressure := 0.5
	if m.Zone != nil && m.Zone.TimeRemaining > 0 && p.Horizon > 0 {
		pressure = 1 - clamp01(m.Zone.TimeRemaining/p.Horizon)
	}
	urgency += p.TimeWeight * pressure
	return clamp01(urgency)
}

// lerpf linearly interpolates between from and to by t (0-1).
func lerpf(from, to, t float64) float64 {
	return from + (to-from)*t
}

// clamp01 restricts v to [0, 1]; NaN maps to 0.
func clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
