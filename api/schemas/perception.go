package schemas

import (
	"context"
	"strings"
	"time"
)

// -- Frame --

// Frame is one captured game screen handed to the decision engine.
type Frame struct {
	ID         string    `json:"id"`
	CapturedAt time.Time `json:"captured_at"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	// Image holds the encoded screen capture. Analyzers own its decoding.
	Image []byte `json:"-"`
	// Recorded carries analyzer outputs captured alongside the frame. Replay
	// collaborators read from it instead of running vision models.
	Recorded *RecordedPerception `json:"recorded,omitempty"`
	// Outcome is the observed result of the decision made on the previous
	// frame, when the capture pipeline knows it.
	Outcome *RecordedOutcome `json:"outcome,omitempty"`
}

// RecordedPerception is a serialized set of analyzer outputs for one frame.
// Failed lists analyzers that errored during capture; their fields are
// ignored.
type RecordedPerception struct {
	Context  *GameContext     `json:"context,omitempty"`
	Players  []TrackedPlayer  `json:"players,omitempty"`
	Teams    *TeamAnalysis    `json:"teams,omitempty"`
	Weapon   *WeaponSnapshot  `json:"weapon,omitempty"`
	Minimap  *MinimapSnapshot `json:"minimap,omitempty"`
	GameType GameType         `json:"game_type,omitempty"`
	Failed   []string         `json:"failed,omitempty"`
}

// RecordedOutcome is the capture pipeline's verdict on the previous action.
type RecordedOutcome struct {
	Success bool    `json:"success"`
	Reward  float64 `json:"reward"`
}

// -- Context / OCR --

// Resource keys read from GameContext.Resources.
const (
	ResourceHealth = "health"
	ResourceShield = "shield"
	ResourceAmmo   = "ammo"
)

// RiskLevel is the OCR analyzer's coarse danger reading.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

// GameContext is the context/OCR analyzer's view of the HUD.
type GameContext struct {
	Resources        map[string]float64 `json:"resources"`
	PlayersAlive     int                `json:"players_alive"`
	InSafeZone       bool               `json:"in_safe_zone"`
	TimeToCollapse   float64            `json:"time_to_collapse"`
	AvailableWeapons []string           `json:"available_weapons"`
	Risk             RiskLevel          `json:"risk"`
	CanEngage        bool               `json:"can_engage"`
	GameMode         string             `json:"game_mode"`
}

// Resource returns the named resource level when the analyzer read it.
func (c *GameContext) Resource(key string) (float64, bool) {
	if c == nil || c.Resources == nil {
		return 0, false
	}
	v, ok := c.Resources[key]
	return v, ok
}

// -- Players / Teams --

// TeamStatus is the tracker's affiliation tag for a player.
type TeamStatus string

const (
	TeamTeammate TeamStatus = "teammate"
	TeamEnemy    TeamStatus = "enemy"
	TeamNeutral  TeamStatus = "neutral"
	TeamUnknown  TeamStatus = "unknown"
)

// TrackedPlayer is one player followed across frames by the player tracker.
type TrackedPlayer struct {
	ID         int        `json:"id"`
	Position   Point      `json:"position"`
	Team       TeamStatus `json:"team"`
	Confidence float64    `json:"confidence"`
	Threat     float64    `json:"threat"`
}

// ClassifiedPlayer is a player the team classifier labelled as an enemy.
type ClassifiedPlayer struct {
	ID         int     `json:"id"`
	Position   Point   `json:"position"`
	Confidence float64 `json:"confidence"`
}

// TeamAnalysis summarizes the team classifier's output.
type TeamAnalysis struct {
	Friendly     int                `json:"friendly"`
	Enemy        int                `json:"enemy"`
	Neutral      int                `json:"neutral"`
	Confidence   float64            `json:"confidence"`
	DetectedMode GameType           `json:"detected_mode"`
	Enemies      []ClassifiedPlayer `json:"enemies"`
}

// -- Weapons --

// WeaponType is the weapon recognizer's class label.
type WeaponType string

const (
	WeaponUnknown      WeaponType = "unknown"
	WeaponAssaultRifle WeaponType = "assault_rifle"
	WeaponSMG          WeaponType = "smg"
	WeaponSniper       WeaponType = "sniper"
	WeaponShotgun      WeaponType = "shotgun"
	WeaponLMG          WeaponType = "lmg"
	WeaponMarksman     WeaponType = "marksman"
	WeaponPistol       WeaponType = "pistol"
)

var weaponOrdinals = []WeaponType{
	WeaponUnknown, WeaponAssaultRifle, WeaponSMG, WeaponSniper,
	WeaponShotgun, WeaponLMG, WeaponMarksman, WeaponPistol,
}

// Ordinal returns the weapon's position in the fixed class list, 0 when the
// class is not recognized.
func (w WeaponType) Ordinal() int {
	for i, t := range weaponOrdinals {
		if strings.EqualFold(string(t), string(w)) {
			return i
		}
	}
	return 0
}

// WeaponTypeCount is the number of weapon classes known to the encoder.
func WeaponTypeCount() int { return len(weaponOrdinals) }

// WeaponSnapshot describes the currently held weapon.
type WeaponSnapshot struct {
	Type         WeaponType `json:"type"`
	Ammo         int        `json:"ammo"`
	MagazineSize int        `json:"magazine_size"`
	Damage       float64    `json:"damage"`
	Confidence   float64    `json:"confidence"`
	Attachments  int        `json:"attachments"`
}

// -- Minimap --

// Zone is the current safe zone. Center and Radius are normalized to the
// minimap, in [0,1].
type Zone struct {
	Center        Point   `json:"center"`
	Radius        float64 `json:"radius"`
	TimeRemaining float64 `json:"time_remaining"`
	Phase         int     `json:"phase"`
}

// Marker is a point of interest on the minimap, normalized to [0,1].
type Marker struct {
	Kind     string `json:"kind"`
	Position Point  `json:"position"`
}

// MarkerLoot is the marker kind for loot drops.
const MarkerLoot = "loot"

// MinimapSnapshot is the minimap analyzer's output.
type MinimapSnapshot struct {
	Zone           *Zone    `json:"zone,omitempty"`
	PlayerInZone   bool     `json:"player_in_zone"`
	DistanceToZone float64  `json:"distance_to_zone"`
	Markers        []Marker `json:"markers,omitempty"`
}

// -- Game Type --

// GameType is the detector's coarse match classification.
type GameType string

const (
	GameTypeUnknown          GameType = "unknown"
	GameTypeBattleRoyale     GameType = "battle_royale"
	GameTypeTeamDeathmatch   GameType = "team_deathmatch"
	GameTypeDomination       GameType = "domination"
	GameTypeSearchAndDestroy GameType = "search_and_destroy"
	GameTypeHardpoint        GameType = "hardpoint"
)

var gameTypeOrdinals = []GameType{
	GameTypeUnknown, GameTypeBattleRoyale, GameTypeTeamDeathmatch,
	GameTypeDomination, GameTypeSearchAndDestroy, GameTypeHardpoint,
}

// Ordinal returns the game type's position in the fixed list, 0 for unknown.
func (g GameType) Ordinal() int {
	for i, t := range gameTypeOrdinals {
		if strings.EqualFold(string(t), string(g)) {
			return i
		}
	}
	return 0
}

// GameTypeCount is the number of game types known to the encoder.
func GameTypeCount() int { return len(gameTypeOrdinals) }

// -- Collaborator Interfaces --

// ContextAnalyzer reads HUD text and resource bars.
type ContextAnalyzer interface {
	AnalyzeContext(ctx context.Context, frame *Frame) (*GameContext, error)
}

// PlayerTracker follows on-screen players across frames.
type PlayerTracker interface {
	TrackPlayers(ctx context.Context, frame *Frame) ([]TrackedPlayer, error)
}

// TeamClassifier labels players as friendly, enemy or neutral.
type TeamClassifier interface {
	ClassifyTeams(ctx context.Context, frame *Frame) (*TeamAnalysis, error)
}

// WeaponRecognizer identifies the held weapon and owns the weapon policies.
type WeaponRecognizer interface {
	RecognizeWeapon(ctx context.Context, frame *Frame) (*WeaponSnapshot, error)
	// ReloadDue reports whether the weapon should be reloaded now.
	ReloadDue(weapon WeaponSnapshot) bool
	// Effectiveness scores the weapon at the given range in pixels, in [0,1].
	Effectiveness(weapon WeaponSnapshot, rangePx float64) float64
}

// MinimapAnalyzer reads the minimap and owns zone rotation urgency.
type MinimapAnalyzer interface {
	AnalyzeMinimap(ctx context.Context, frame *Frame) (*MinimapSnapshot, error)
	// RotationUrgency returns how pressing it is to move toward the zone, in [0,1].
	RotationUrgency(minimap MinimapSnapshot) float64
}

// GameTypeDetector classifies the match type.
type GameTypeDetector interface {
	DetectGameType(ctx context.Context, frame *Frame) (GameType, error)
}

// PerformanceTracker reports historical success per action type. ok is false
// when the tracker has no usable data for the type.
type PerformanceTracker interface {
	SuccessRate(actionType string) (rate float64, ok bool)
}
