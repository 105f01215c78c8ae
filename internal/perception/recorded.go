// File: internal/perception/recorded.go
package perception

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/xkilldash9x/tactician/api/schemas"
)

// Analyzer names as they appear in RecordedPerception.Failed.
const (
	AnalyzerContext  = "context"
	AnalyzerPlayers  = "players"
	AnalyzerTeams    = "teams"
	AnalyzerWeapon   = "weapon"
	AnalyzerMinimap  = "minimap"
	AnalyzerGameType = "game_type"
)

var (
	// ErrNoRecording is returned for frames captured without analyzer output.
	ErrNoRecording = errors.New("frame carries no recorded perception")
	// ErrAnalyzerFailed is returned when the capture pipeline marked the
	// analyzer as failed for this frame.
	ErrAnalyzerFailed = errors.New("analyzer failed during capture")
)

// Recorded serves analyzer outputs stored on each frame. One value
// implements every collaborator interface the decision engine consumes.
type Recorded struct {
	weapons WeaponPolicy
	zones   ZonePolicy
	logger  *zap.Logger
}

// NewRecorded builds the replay collaborators with the given policies.
func NewRecorded(weapons WeaponPolicy, zones ZonePolicy, logger *zap.Logger) *Recorded {
	return &Recorded{
		weapons: weapons,
		zones:   zones,
		logger:  logger.Named("perception"),
	}
}

// recording returns the frame's recording for analyzer, or the reason it
// cannot be used.
func (r *Recorded) recording(ctx context.Context, frame *schemas.Frame, analyzer string) (*schemas.RecordedPerception, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if frame == nil || frame.Recorded == nil {
		return nil, ErrNoRecording
	}
	if slices.Contains(frame.Recorded.Failed, analyzer) {
		r.logger.Debug("Recorded analyzer failure replayed.",
			zap.String("frame_id", frame.ID), zap.String("analyzer", analyzer))
		return nil, fmt.Errorf("%s: %w", analyzer, ErrAnalyzerFailed)
	}
	return frame.Recorded, nil
}

// AnalyzeContext returns the recorded HUD reading.
func (r *Recorded) AnalyzeContext(ctx context.Context, frame *schemas.Frame) (*schemas.GameContext, error) {
	rec, err := r.recording(ctx, frame, AnalyzerContext)
	if err != nil {
		return nil, err
	}
	return rec.Context, nil
}

// TrackPlayers returns the recorded tracked players.
func (r *Recorded) TrackPlayers(ctx context.Context, frame *schemas.Frame) ([]schemas.TrackedPlayer, error) {
	rec, err := r.recording(ctx, frame, AnalyzerPlayers)
	if err != nil {
		return nil, err
	}
	return rec.Players, nil
}

// ClassifyTeams returns the recorded team analysis.
func (r *Recorded) ClassifyTeams(ctx context.Context, frame *schemas.Frame) (*schemas.TeamAnalysis, error) {
	rec, err := r.recording(ctx, frame, AnalyzerTeams)
	if err != nil {
		return nil, err
	}
	return rec.Teams, nil
}

// RecognizeWeapon returns the recorded weapon.
func (r *Recorded) RecognizeWeapon(ctx context.Context, frame *schemas.Frame) (*schemas.WeaponSnapshot, error) {
	rec, err := r.recording(ctx, frame, AnalyzerWeapon)
	if err != nil {
		return nil, err
	}
	return rec.Weapon, nil
}

// AnalyzeMinimap returns the recorded minimap reading.
func (r *Recorded) AnalyzeMinimap(ctx context.Context, frame *schemas.Frame) (*schemas.MinimapSnapshot, error) {
	rec, err := r.recording(ctx, frame, AnalyzerMinimap)
	if err != nil {
		return nil, err
	}
	return rec.Minimap, nil
}

// DetectGameType returns the recorded game type, unknown when none was stored.
func (r *Recorded) DetectGameType(ctx context.Context, frame *schemas.Frame) (schemas.GameType, error) {
	rec, err := r.recording(ctx, frame, AnalyzerGameType)
	if err != nil {
		return schemas.GameTypeUnknown, err
	}
	if rec.GameType == "" {
		return schemas.GameTypeUnknown, nil
	}
	return rec.GameType, nil
}

// ReloadDue delegates to the weapon policy.
func (r *Recorded) ReloadDue(w schemas.WeaponSnapshot) bool { return r.weapons.ReloadDue(w) }

// Effectiveness delegates to the weapon policy.
func (r *Recorded) Effectiveness(w schemas.WeaponSnapshot, rangePx float64) float64 {
	return r.weapons.Effectiveness(w, rangePx)
}

// RotationUrgency delegates to the zone policy.
func (r *Recorded) RotationUrgency(m schemas.MinimapSnapshot) float64 {
	return r.zones.RotationUrgency(m)
}

// Compile-time checks.
var (
	_ schemas.ContextAnalyzer  = (*Recorded)(nil)
	_ schemas.PlayerTracker    = (*Recorded)(nil)
	_ schemas.TeamClassifier   = (*Recorded)(nil)
	_ schemas.WeaponRecognizer = (*Recorded)(nil)
	_ schemas.MinimapAnalyzer  = (*Recorded)(nil)
	_ schemas.GameTypeDetector = (*Recorded)(nil)
)
