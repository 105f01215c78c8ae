// File: cmd/replay.go
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tactician/internal/config"
	"github.com/xkilldash9x/tactician/internal/decision"
	"github.com/xkilldash9x/tactician/internal/feedback"
	"github.com/xkilldash9x/tactician/internal/observability"
	"github.com/xkilldash9x/tactician/internal/perception"
	"github.com/xkilldash9x/tactician/internal/performance"
	"github.com/xkilldash9x/tactician/internal/replay"
)

type replayFlags struct {
	frames      string
	output      string
	follow      bool
	fps         float64
	weights     string
	saveWeights string
}

func newReplayCmd(a *app) *cobra.Command {
	var f replayFlags

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Run the decision engine over recorded frames",
		Long: `Replay reads frames with recorded perception from a JSON lines file, makes
one decision per frame and writes each decision as a JSON line. Outcomes
recorded on a frame are fed back to the decision made on the frame before it,
so the learned scorer trains as the replay runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyReplayFlags(cmd, a.cfg, f); err != nil {
				return err
			}
			return runReplay(cmd, a, f.saveWeights)
		},
	}

	replayCmd.Flags().StringVarP(&f.frames, "frames", "f", "", "JSON lines file of recorded frames (required)")
	replayCmd.Flags().StringVarP(&f.output, "output", "o", "-", "file for decision output, '-' for stdout")
	replayCmd.Flags().BoolVar(&f.follow, "follow", false, "keep reading as frames are appended")
	replayCmd.Flags().Float64Var(&f.fps, "fps", 0, "frames per second to pace the replay at (0 uses the configured rate)")
	replayCmd.Flags().StringVar(&f.weights, "weights", "", "learned scorer weights file (overrides scorer.weights_path)")
	replayCmd.Flags().StringVar(&f.saveWeights, "save-weights", "", "write the trained weights here when the replay ends")
	_ = replayCmd.MarkFlagRequired("frames")

	return replayCmd
}

// applyReplayFlags pushes explicitly set flags into the loaded configuration.
func applyReplayFlags(cmd *cobra.Command, cfg config.Interface, f replayFlags) error {
	frames, err := homedir.Expand(f.frames)
	if err != nil {
		return fmt.Errorf("invalid --frames path: %w", err)
	}
	cfg.SetReplayFramesPath(frames)

	output := f.output
	if output != "-" {
		if output, err = homedir.Expand(output); err != nil {
			return fmt.Errorf("invalid --output path: %w", err)
		}
	}
	cfg.SetReplayOutputPath(output)

	if cmd.Flags().Changed("follow") {
		cfg.SetReplayFollow(f.follow)
	}
	if cmd.Flags().Changed("fps") {
		if f.fps < 0 {
			return fmt.Errorf("--fps must not be negative")
		}
		cfg.SetReplayFPS(f.fps)
	}
	if f.weights != "" {
		weights, err := homedir.Expand(f.weights)
		if err != nil {
			return fmt.Errorf("invalid --weights path: %w", err)
		}
		cfg.SetScorerWeightsPath(weights)
	}
	return nil
}

func runReplay(cmd *cobra.Command, a *app, saveWeights string) error {
	ctx := cmd.Context()
	cfg := a.cfg
	logger := observability.GetLogger()
	replayCfg := cfg.Replay()

	out, closeOut, err := openOutput(cmd, replayCfg.OutputPath)
	if err != nil {
		return err
	}
	defer closeOut()

	tracker := performance.NewTracker(cfg.Performance(), logger)
	recorded := perception.NewRecorded(perception.DefaultWeaponPolicy(), perception.DefaultZonePolicy(), logger)
	collab := decision.Collaborators{
		Context:     recorded,
		Players:     recorded,
		Teams:       recorded,
		Weapon:      recorded,
		Minimap:     recorded,
		GameType:    recorded,
		Performance: tracker,
	}

	engine := decision.New(cfg, collab, logger)
	if err := engine.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize decision engine: %w", err)
	}

	bus := feedback.NewBus(cfg.Feedback(), logger)
	reporter := feedback.NewReporter(bus, engine, tracker, logger)
	source := replay.NewFileSource(replayCfg.FramesPath, replayCfg.Follow, logger)
	runner := replay.NewRunner(engine, bus, reporter, replay.NewJSONLSink(out), replayCfg.FPS, logger)

	summary, err := runner.Run(ctx, source)
	stats := engine.Stats()
	logger.Info("Replay summary.",
		zap.Int64("frames", summary.Frames),
		zap.Int64("malformed_lines", source.Malformed()),
		zap.Int64("decisions", summary.Decisions),
		zap.Int64("fallbacks", summary.Fallbacks),
		zap.Int64("outcomes_recorded", stats.OutcomesRecorded),
		zap.Int64("training_steps", stats.TrainingSteps),
	)
	for _, rec := range tracker.Snapshot() {
		logger.Info("Action performance.",
			zap.String("action_type", rec.ActionType),
			zap.Int("attempts", rec.Attempts),
			zap.Int("successes", rec.Successes),
			zap.Float64("success_rate", rec.Rate()),
			zap.Float64("total_reward", rec.Reward),
		)
	}
	if err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}

	if saveWeights != "" {
		return saveNetwork(engine, saveWeights, logger)
	}
	return nil
}

func saveNetwork(engine *decision.Engine, path string, logger *zap.Logger) error {
	net := engine.Network()
	if net == nil {
		return fmt.Errorf("--save-weights given but the learned scorer is disabled")
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("invalid --save-weights path: %w", err)
	}
	if err := net.Save(path); err != nil {
		return err
	}
	logger.Info("Learned scorer weights saved.", zap.String("path", path))
	return nil
}

// openOutput returns the decision writer and a function releasing it.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
