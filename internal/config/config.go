// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/tactician/api/schemas"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Engine() EngineConfig
	Priority() PriorityConfig
	Ledger() LedgerConfig
	Scorer() ScorerConfig
	Performance() PerformanceConfig
	Feedback() FeedbackConfig
	Replay() ReplayConfig

	// Replay Setters (populated from CLI flags)
	SetReplayFramesPath(string)
	SetReplayOutputPath(string)
	SetReplayFollow(bool)
	SetReplayFPS(float64)

	// Scorer Setters
	SetScorerWeightsPath(string)
}

// Config holds the entire application configuration.
// Sections are exported so viper can decode into them; components should read
// them through the Interface getters.
type Config struct {
	LoggerCfg      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	EngineCfg      EngineConfig      `mapstructure:"engine" yaml:"engine"`
	PriorityCfg    PriorityConfig    `mapstructure:"priority" yaml:"priority"`
	LedgerCfg      LedgerConfig      `mapstructure:"ledger" yaml:"ledger"`
	ScorerCfg      ScorerConfig      `mapstructure:"scorer" yaml:"scorer"`
	PerformanceCfg PerformanceConfig `mapstructure:"performance" yaml:"performance"`
	FeedbackCfg    FeedbackConfig    `mapstructure:"feedback" yaml:"feedback"`
	ReplayCfg      ReplayConfig      `mapstructure:"replay" yaml:"replay"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig           { return c.LoggerCfg }
func (c *Config) Engine() EngineConfig           { return c.EngineCfg }
func (c *Config) Priority() PriorityConfig       { return c.PriorityCfg }
func (c *Config) Ledger() LedgerConfig           { return c.LedgerCfg }
func (c *Config) Scorer() ScorerConfig           { return c.ScorerCfg }
func (c *Config) Performance() PerformanceConfig { return c.PerformanceCfg }
func (c *Config) Feedback() FeedbackConfig       { return c.FeedbackCfg }
func (c *Config) Replay() ReplayConfig           { return c.ReplayCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetReplayFramesPath(p string) { c.ReplayCfg.FramesPath = p }
func (c *Config) SetReplayOutputPath(p string) { c.ReplayCfg.OutputPath = p }
func (c *Config) SetReplayFollow(b bool)       { c.ReplayCfg.Follow = b }
func (c *Config) SetReplayFPS(fps float64)     { c.ReplayCfg.FPS = fps }
func (c *Config) SetScorerWeightsPath(p string) {
	c.ScorerCfg.WeightsPath = p
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// AnchorConfig pins the fixed screen positions used by actions that do not
// target anything visible (heal button, reload button, idle point).
type AnchorConfig struct {
	Heal   schemas.Point `mapstructure:"heal" yaml:"heal"`
	Reload schemas.Point `mapstructure:"reload" yaml:"reload"`
	Wait   schemas.Point `mapstructure:"wait" yaml:"wait"`
}

// EngineConfig configures candidate generation, scoring and blending.
type EngineConfig struct {
	// ScreenWidth and ScreenHeight are used when a frame does not report its size.
	ScreenWidth  int          `mapstructure:"screen_width" yaml:"screen_width"`
	ScreenHeight int          `mapstructure:"screen_height" yaml:"screen_height"`
	Anchors      AnchorConfig `mapstructure:"anchors" yaml:"anchors"`
	// CoverOffset is the horizontal distance, in pixels, a cover move steps away from an enemy.
	CoverOffset float64 `mapstructure:"cover_offset" yaml:"cover_offset"`
	// EngagementRange is the range assumed when asking the weapon for its effectiveness.
	EngagementRange float64 `mapstructure:"engagement_range" yaml:"engagement_range"`
	// EngageConfidence is the minimum classifier confidence before an enemy is worth a combat candidate.
	EngageConfidence     float64 `mapstructure:"engage_confidence" yaml:"engage_confidence"`
	HealHealth           float64 `mapstructure:"heal_health" yaml:"heal_health"`
	EmergencyAmmo        int     `mapstructure:"emergency_ammo" yaml:"emergency_ammo"`
	LootOpportunity      float64 `mapstructure:"loot_opportunity" yaml:"loot_opportunity"`
	AlternativeThreshold float64 `mapstructure:"alternative_threshold" yaml:"alternative_threshold"`
	MaxScore             float64 `mapstructure:"max_score" yaml:"max_score"`
	// NetworkBlend is the share of the final confidence taken from the learned scorer.
	NetworkBlend float64 `mapstructure:"network_blend" yaml:"network_blend"`
	// ExperienceMinEntries is the ledger size that must be exceeded before history adjusts confidence.
	ExperienceMinEntries int `mapstructure:"experience_min_entries" yaml:"experience_min_entries"`
}

// PriorityConfig holds the thresholds of the urgency decision table.
type PriorityConfig struct {
	EmergencyHealth     float64 `mapstructure:"emergency_health" yaml:"emergency_health"`
	ZoneCollapseSeconds float64 `mapstructure:"zone_collapse_seconds" yaml:"zone_collapse_seconds"`
	HighThreat          float64 `mapstructure:"high_threat" yaml:"high_threat"`
	HighEnemyCount      int     `mapstructure:"high_enemy_count" yaml:"high_enemy_count"`
	MediumThreat        float64 `mapstructure:"medium_threat" yaml:"medium_threat"`
	MediumOpportunity   float64 `mapstructure:"medium_opportunity" yaml:"medium_opportunity"`
	LowOpportunity      float64 `mapstructure:"low_opportunity" yaml:"low_opportunity"`
}

// LedgerConfig sizes the experience ledger.
type LedgerConfig struct {
	Capacity int `mapstructure:"capacity" yaml:"capacity"`
}

// ScorerConfig configures the learned scorer.
type ScorerConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// WeightsPath points at a JSON weights file. Empty means seeded initialization.
	WeightsPath string `mapstructure:"weights_path" yaml:"weights_path"`
	// RequireWeights turns a missing weights file into an initialization failure.
	RequireWeights bool    `mapstructure:"require_weights" yaml:"require_weights"`
	Seed           int64   `mapstructure:"seed" yaml:"seed"`
	LearningRate   float64 `mapstructure:"learning_rate" yaml:"learning_rate"`
}

// PerformanceConfig tunes the per-action success tracker.
type PerformanceConfig struct {
	MinSamples int `mapstructure:"min_samples" yaml:"min_samples"`
}

// FeedbackConfig sizes the outcome bus.
type FeedbackConfig struct {
	BufferSize int `mapstructure:"buffer_size" yaml:"buffer_size"`
	// SettleTime is how long shutdown lets subscribers work through buffered
	// outcomes before the remainder is dropped.
	SettleTime time.Duration `mapstructure:"settle_time" yaml:"settle_time"`
}

// ReplayConfig holds settings for the replay harness. Paths usually come from CLI flags.
type ReplayConfig struct {
	FramesPath string  `mapstructure:"frames_path" yaml:"frames_path"`
	OutputPath string  `mapstructure:"output_path" yaml:"output_path"`
	Follow     bool    `mapstructure:"follow" yaml:"follow"`
	FPS        float64 `mapstructure:"fps" yaml:"fps"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "tactician")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Engine --
	v.SetDefault("engine.screen_width", 2400)
	v.SetDefault("engine.screen_height", 1080)
	v.SetDefault("engine.anchors.heal.x", 1650)
	v.SetDefault("engine.anchors.heal.y", 850)
	v.SetDefault("engine.anchors.reload.x", 1750)
	v.SetDefault("engine.anchors.reload.y", 650)
	v.SetDefault("engine.anchors.wait.x", 1200)
	v.SetDefault("engine.anchors.wait.y", 540)
	v.SetDefault("engine.cover_offset", 200.0)
	v.SetDefault("engine.engagement_range", 300.0)
	v.SetDefault("engine.engage_confidence", 0.6)
	v.SetDefault("engine.heal_health", 30.0)
	v.SetDefault("engine.emergency_ammo", 5)
	v.SetDefault("engine.loot_opportunity", 0.5)
	v.SetDefault("engine.alternative_threshold", 0.3)
	v.SetDefault("engine.max_score", 2.0)
	v.SetDefault("engine.network_blend", 0.3)
	v.SetDefault("engine.experience_min_entries", 10)

	// -- Priority --
	v.SetDefault("priority.emergency_health", 20.0)
	v.SetDefault("priority.zone_collapse_seconds", 30.0)
	v.SetDefault("priority.high_threat", 0.7)
	v.SetDefault("priority.high_enemy_count", 2)
	v.SetDefault("priority.medium_threat", 0.4)
	v.SetDefault("priority.medium_opportunity", 0.6)
	v.SetDefault("priority.low_opportunity", 0.3)

	// -- Ledger --
	v.SetDefault("ledger.capacity", 100)

	// -- Scorer --
	v.SetDefault("scorer.enabled", true)
	v.SetDefault("scorer.weights_path", "")
	v.SetDefault("scorer.require_weights", false)
	v.SetDefault("scorer.seed", 42)
	v.SetDefault("scorer.learning_rate", 0.01)

	// -- Performance --
	v.SetDefault("performance.min_samples", 3)

	// -- Feedback --
	v.SetDefault("feedback.buffer_size", 64)
	v.SetDefault("feedback.settle_time", "2s")

	// -- Replay --
	v.SetDefault("replay.fps", 30.0)
	v.SetDefault("replay.follow", false)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Weights usually live outside the config file, next to the deployment.
	_ = v.BindEnv("scorer.weights_path", "TACTICIAN_WEIGHTS")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.EngineCfg.Validate(); err != nil {
		return fmt.Errorf("engine configuration invalid: %w", err)
	}
	if err := c.PriorityCfg.Validate(); err != nil {
		return fmt.Errorf("priority configuration invalid: %w", err)
	}
	if c.LedgerCfg.Capacity <= 0 {
		return fmt.Errorf("ledger.capacity must be a positive integer")
	}
	if c.ScorerCfg.LearningRate <= 0 {
		return fmt.Errorf("scorer.learning_rate must be positive")
	}
	if c.FeedbackCfg.BufferSize < 0 {
		return fmt.Errorf("feedback.buffer_size must not be negative")
	}
	if c.FeedbackCfg.SettleTime < 0 {
		return fmt.Errorf("feedback.settle_time must not be negative")
	}
	if c.ReplayCfg.FPS < 0 {
		return fmt.Errorf("replay.fps must not be negative")
	}
	return nil
}

// Validate checks the EngineConfig settings.
func (e *EngineConfig) Validate() error {
	if e.ScreenWidth <= 0 || e.ScreenHeight <= 0 {
		return fmt.Errorf("screen_width and screen_height must be positive")
	}
	if e.MaxScore <= 0 {
		return fmt.Errorf("max_score must be positive")
	}
	if e.NetworkBlend < 0 || e.NetworkBlend > 1 {
		return fmt.Errorf("network_blend must be between 0.0 and 1.0")
	}
	if e.ExperienceMinEntries < 0 {
		return fmt.Errorf("experience_min_entries must not be negative")
	}
	return nil
}

// Validate checks the PriorityConfig thresholds.
func (p *PriorityConfig) Validate() error {
	for name, v := range map[string]float64{
		"high_threat":        p.HighThreat,
		"medium_threat":      p.MediumThreat,
		"medium_opportunity": p.MediumOpportunity,
		"low_opportunity":    p.LowOpportunity,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0.0 and 1.0", name)
		}
	}
	if p.EmergencyHealth < 0 || p.EmergencyHealth > 100 {
		return fmt.Errorf("emergency_health must be between 0 and 100")
	}
	if p.ZoneCollapseSeconds < 0 {
		return fmt.Errorf("zone_collapse_seconds must not be negative")
	}
	return nil
}
