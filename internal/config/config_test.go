// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/tactician/api/schemas"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, "tactician", cfg.Logger().ServiceName)
	assert.Equal(t, 2400, cfg.Engine().ScreenWidth)
	assert.Equal(t, 1080, cfg.Engine().ScreenHeight)
	assert.Equal(t, schemas.Point{X: 1650, Y: 850}, cfg.Engine().Anchors.Heal)
	assert.Equal(t, schemas.Point{X: 1200, Y: 540}, cfg.Engine().Anchors.Wait)
	assert.Equal(t, 0.3, cfg.Engine().AlternativeThreshold)
	assert.Equal(t, 2.0, cfg.Engine().MaxScore)
	assert.Equal(t, 0.3, cfg.Engine().NetworkBlend)
	assert.Equal(t, 10, cfg.Engine().ExperienceMinEntries)
	assert.Equal(t, 20.0, cfg.Priority().EmergencyHealth)
	assert.Equal(t, 2, cfg.Priority().HighEnemyCount)
	assert.Equal(t, 100, cfg.Ledger().Capacity)
	assert.True(t, cfg.Scorer().Enabled)
	assert.Equal(t, int64(42), cfg.Scorer().Seed)
	assert.Equal(t, 3, cfg.Performance().MinSamples)
	assert.Equal(t, 2*time.Second, cfg.Feedback().SettleTime)
	assert.Equal(t, 30.0, cfg.Replay().FPS)

	assert.NoError(t, cfg.Validate(), "defaults must always validate")
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Core Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()

		badLedger := *cfg
		badLedger.LedgerCfg.Capacity = 0
		err := badLedger.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ledger.capacity must be a positive integer")

		badRate := *cfg
		badRate.ScorerCfg.LearningRate = 0
		err = badRate.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scorer.learning_rate must be positive")

		badFPS := *cfg
		badFPS.ReplayCfg.FPS = -1
		err = badFPS.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "replay.fps must not be negative")
	})

	t.Run("Engine Validation", func(t *testing.T) {
		valid := NewDefaultConfig().Engine()
		assert.NoError(t, valid.Validate())

		noScreen := valid
		noScreen.ScreenWidth = 0
		assert.ErrorContains(t, noScreen.Validate(), "screen_width and screen_height must be positive")

		badBlend := valid
		badBlend.NetworkBlend = 1.5
		assert.ErrorContains(t, badBlend.Validate(), "network_blend must be between 0.0 and 1.0")

		badMax := valid
		badMax.MaxScore = 0
		assert.ErrorContains(t, badMax.Validate(), "max_score must be positive")
	})

	t.Run("Priority Validation", func(t *testing.T) {
		valid := NewDefaultConfig().Priority()
		assert.NoError(t, valid.Validate())

		badThreat := valid
		badThreat.HighThreat = 1.2
		assert.ErrorContains(t, badThreat.Validate(), "high_threat must be between 0.0 and 1.0")

		badHealth := valid
		badHealth.EmergencyHealth = 120
		assert.ErrorContains(t, badHealth.Validate(), "emergency_health must be between 0 and 100")

		wrapped := NewDefaultConfig()
		wrapped.PriorityCfg.LowOpportunity = -0.1
		assert.ErrorContains(t, wrapped.Validate(), "priority configuration invalid")
	})
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlBytes := []byte(`
engine:
  screen_width: 1920
  anchors:
    heal: {x: 10, y: 20}
priority:
  high_enemy_count: 4
feedback:
  settle_time: 500ms
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlBytes)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, 1920, cfg.Engine().ScreenWidth)
		assert.Equal(t, 1080, cfg.Engine().ScreenHeight, "unset keys keep their default")
		assert.Equal(t, schemas.Point{X: 10, Y: 20}, cfg.Engine().Anchors.Heal)
		assert.Equal(t, 4, cfg.Priority().HighEnemyCount)
		assert.Equal(t, 500*time.Millisecond, cfg.Feedback().SettleTime)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("ledger.capacity", 0)

		cfg, err := NewConfigFromViper(v)
		assert.Nil(t, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "ledger.capacity must be a positive integer")
	})

	t.Run("Environment Variable Binding", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBufferString(`
scorer:
  weights_path: /from/config.json
`)))
		t.Setenv("TACTICIAN_WEIGHTS", "/from/env.json")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "/from/env.json", cfg.Scorer().WeightsPath)
	})
}

// -- Setters --

func TestReplaySetters(t *testing.T) {
	cfg := NewDefaultConfig()
	var iface Interface = cfg

	iface.SetReplayFramesPath("frames.jsonl")
	iface.SetReplayOutputPath("decisions.jsonl")
	iface.SetReplayFollow(true)
	iface.SetReplayFPS(60)
	iface.SetScorerWeightsPath("weights.json")

	assert.Equal(t, ReplayConfig{
		FramesPath: "frames.jsonl",
		OutputPath: "decisions.jsonl",
		Follow:     true,
		FPS:        60,
	}, iface.Replay())
	assert.Equal(t, "weights.json", iface.Scorer().WeightsPath)
}
