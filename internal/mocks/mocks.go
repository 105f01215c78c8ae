// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/tactician/api/schemas"
	"github.com/xkilldash9x/tactician/internal/config"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

// --- Getters ---

func (m *MockConfig) Logger() config.LoggerConfig {
	return m.Called().Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Engine() config.EngineConfig {
	return m.Called().Get(0).(config.EngineConfig)
}

func (m *MockConfig) Priority() config.PriorityConfig {
	return m.Called().Get(0).(config.PriorityConfig)
}

func (m *MockConfig) Ledger() config.LedgerConfig {
	return m.Called().Get(0).(config.LedgerConfig)
}

func (m *MockConfig) Scorer() config.ScorerConfig {
	return m.Called().Get(0).(config.ScorerConfig)
}

func (m *MockConfig) Performance() config.PerformanceConfig {
	return m.Called().Get(0).(config.PerformanceConfig)
}

func (m *MockConfig) Feedback() config.FeedbackConfig {
	return m.Called().Get(0).(config.FeedbackConfig)
}

func (m *MockConfig) Replay() config.ReplayConfig {
	return m.Called().Get(0).(config.ReplayConfig)
}

// --- Setters ---

func (m *MockConfig) SetReplayFramesPath(p string)  { m.Called(p) }
func (m *MockConfig) SetReplayOutputPath(p string)  { m.Called(p) }
func (m *MockConfig) SetReplayFollow(b bool)        { m.Called(b) }
func (m *MockConfig) SetReplayFPS(fps float64)      { m.Called(fps) }
func (m *MockConfig) SetScorerWeightsPath(p string) { m.Called(p) }

// -- Perception Mocks --

// MockContextAnalyzer mocks schemas.ContextAnalyzer.
type MockContextAnalyzer struct {
	mock.Mock
}

func (m *MockContextAnalyzer) AnalyzeContext(ctx context.Context, frame *schemas.Frame) (*schemas.GameContext, error) {
	args := m.Called(ctx, frame)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schemas.GameContext), args.Error(1)
}

// MockPlayerTracker mocks schemas.PlayerTracker.
type MockPlayerTracker struct {
	mock.Mock
}

func (m *MockPlayerTracker) TrackPlayers(ctx context.Context, frame *schemas.Frame) ([]schemas.TrackedPlayer, error) {
	args := m.Called(ctx, frame)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schemas.TrackedPlayer), args.Error(1)
}

// MockTeamClassifier mocks schemas.TeamClassifier.
type MockTeamClassifier struct {
	mock.Mock
}

func (m *MockTeamClassifier) ClassifyTeams(ctx context.Context, frame *schemas.Frame) (*schemas.TeamAnalysis, error) {
	args := m.Called(ctx, frame)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schemas.TeamAnalysis), args.Error(1)
}

// MockWeaponRecognizer mocks schemas.WeaponRecognizer.
type MockWeaponRecognizer struct {
	mock.Mock
}

func (m *MockWeaponRecognizer) RecognizeWeapon(ctx context.Context, frame *schemas.Frame) (*schemas.WeaponSnapshot, error) {
	args := m.Called(ctx, frame)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schemas.WeaponSnapshot), args.Error(1)
}

func (m *MockWeaponRecognizer) ReloadDue(weapon schemas.WeaponSnapshot) bool {
	return m.Called(weapon).Bool(0)
}

func (m *MockWeaponRecognizer) Effectiveness(weapon schemas.WeaponSnapshot, rangePx float64) float64 {
	return m.Called(weapon, rangePx).Get(0).(float64)
}

// MockMinimapAnalyzer mocks schemas.MinimapAnalyzer.
type MockMinimapAnalyzer struct {
	mock.Mock
}

func (m *MockMinimapAnalyzer) AnalyzeMinimap(ctx context.Context, frame *schemas.Frame) (*schemas.MinimapSnapshot, error) {
	args := m.Called(ctx, frame)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schemas.MinimapSnapshot), args.Error(1)
}

func (m *MockMinimapAnalyzer) RotationUrgency(minimap schemas.MinimapSnapshot) float64 {
	return m.Called(minimap).Get(0).(float64)
}

// MockGameTypeDetector mocks schemas.GameTypeDetector.
type MockGameTypeDetector struct {
	mock.Mock
}

func (m *MockGameTypeDetector) DetectGameType(ctx context.Context, frame *schemas.Frame) (schemas.GameType, error) {
	args := m.Called(ctx, frame)
	return args.Get(0).(schemas.GameType), args.Error(1)
}

// MockPerformanceTracker mocks schemas.PerformanceTracker.
type MockPerformanceTracker struct {
	mock.Mock
}

func (m *MockPerformanceTracker) SuccessRate(actionType string) (float64, bool) {
	args := m.Called(actionType)
	return args.Get(0).(float64), args.Bool(1)
}

// -- Feedback Mocks --

// MockOutcomeRecorder mocks feedback.OutcomeRecorder.
type MockOutcomeRecorder struct {
	mock.Mock
}

func (m *MockOutcomeRecorder) RecordOutcome(report schemas.OutcomeReport) error {
	return m.Called(report).Error(0)
}

// MockOutcomeObserver mocks feedback.OutcomeObserver.
type MockOutcomeObserver struct {
	mock.Mock
}

func (m *MockOutcomeObserver) ObserveReport(report schemas.OutcomeReport) {
	m.Called(report)
}
