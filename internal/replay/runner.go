// File: internal/replay/runner.go
package replay

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/tactician/api/schemas"
	"github.com/xkilldash9x/tactician/internal/decision"
	"github.com/xkilldash9x/tactician/internal/feedback"
)

// Decider makes one decision per frame. *decision.Engine implements it.
type Decider interface {
	MakeDecision(ctx context.Context, frame *schemas.Frame) *decision.Result
}

// Summary counts what one replay run did.
type Summary struct {
	Frames         int64 `json:"frames" yaml:"frames"`
	Decisions      int64 `json:"decisions" yaml:"decisions"`
	Fallbacks      int64 `json:"fallbacks" yaml:"fallbacks"`
	OutcomesPosted int64 `json:"outcomes_posted" yaml:"outcomes_posted"`
}

// Runner drives the decision loop over a frame source. Recorded outcomes are
// posted to the feedback bus so the reporter can train the engine while the
// loop keeps going.
type Runner struct {
	decider  Decider
	bus      *feedback.Bus
	reporter *feedback.Reporter
	sink     Sink
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewRunner builds a runner paced at fps frames per second. A non-positive
// fps disables pacing. reporter may be nil when outcomes are applied elsewhere.
func NewRunner(decider Decider, bus *feedback.Bus, reporter *feedback.Reporter, sink Sink, fps float64, logger *zap.Logger) *Runner {
	limit := rate.Inf
	if fps > 0 && !math.IsInf(fps, 1) {
		limit = rate.Limit(fps)
	}
	if sink == nil {
		sink = DiscardSink{}
	}
	return &Runner{
		decider:  decider,
		bus:      bus,
		reporter: reporter,
		sink:     sink,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger.Named("replay"),
	}
}

// Run replays source until it is exhausted or ctx is cancelled, then shuts
// the bus down so pending outcomes settle. Cancellation of ctx is a clean stop.
func (r *Runner) Run(ctx context.Context, source Source) (Summary, error) {
	var summary Summary
	g, gctx := errgroup.WithContext(ctx)
	frames := make(chan *schemas.Frame)

	g.Go(func() error {
		defer close(frames)
		return source.Stream(gctx, frames)
	})

	if r.reporter != nil {
		g.Go(func() error {
			return r.reporter.Run(gctx)
		})
	}

	g.Go(func() error {
		// Shutting the bus down also ends the reporter once it has drained.
		defer r.bus.Shutdown()
		return r.loop(gctx, frames, &summary)
	})

	err := g.Wait()
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		err = nil
	}
	r.logger.Info("Replay finished.",
		zap.Int64("frames", summary.Frames),
		zap.Int64("decisions", summary.Decisions),
		zap.Int64("fallbacks", summary.Fallbacks),
		zap.Int64("outcomes_posted", summary.OutcomesPosted),
		zap.Error(err),
	)
	return summary, err
}

func (r *Runner) loop(ctx context.Context, frames <-chan *schemas.Frame, summary *Summary) error {
	var last *decision.Result
	for frame := range frames {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		summary.Frames++

		if frame.Outcome != nil && last != nil && !last.Fallback {
			report := schemas.OutcomeReport{
				DecisionID: last.ID,
				Action:     last.Primary,
				Success:    frame.Outcome.Success,
				Reward:     frame.Outcome.Reward,
			}
			if err := r.bus.Post(ctx, feedback.TopicOutcome, report); err != nil {
				return fmt.Errorf("failed to post outcome for decision %s: %w", last.ID, err)
			}
			summary.OutcomesPosted++
		}

		res := r.decider.MakeDecision(ctx, frame)
		if res.Fallback {
			summary.Fallbacks++
		} else {
			summary.Decisions++
		}
		if err := r.sink.Write(res); err != nil {
			return err
		}
		last = res
	}
	return ctx.Err()
}
