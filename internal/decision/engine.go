// File: internal/decision/engine.go
package decision

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tactician/api/schemas"
	"github.com/xkilldash9x/tactician/internal/config"
	"github.com/xkilldash9x/tactician/internal/nn"
)

var (
	ErrNotInitialized   = errors.New("decision engine not initialized")
	ErrNilFrame         = errors.New("nil frame")
	ErrNoCandidates     = errors.New("no action candidates")
	ErrOutcomeUnmatched = errors.New("no pending decision matches outcome")
)

// Result is the engine's answer for one frame.
type Result struct {
	ID            string             `json:"id"`
	FrameID       string             `json:"frame_id,omitempty"`
	Primary       schemas.Action     `json:"primary"`
	Alternatives  []Candidate        `json:"alternatives,omitempty"`
	Confidence    float64            `json:"confidence"`
	Priority      Priority           `json:"priority"`
	Rule          string             `json:"rule,omitempty"`
	Reasoning     string             `json:"reasoning"`
	Contributions map[string]float64 `json:"contributions,omitempty"`
	Fallback      bool               `json:"fallback,omitempty"`
	Timestamp     time.Time          `json:"timestamp"`
	Latency       time.Duration      `json:"latency_ns"`
}

// Stats are running counters of engine activity.
type Stats struct {
	Decisions        int64 `json:"decisions"`
	Fallbacks        int64 `json:"fallbacks"`
	OutcomesRecorded int64 `json:"outcomes_recorded"`
	TrainingSteps    int64 `json:"training_steps"`
	TrainingSkipped  int64 `json:"training_skipped"`
}

// Option customizes an Engine.
type Option func(*Engine)

// WithNetwork supplies the learned scorer instead of building one from config.
func WithNetwork(n *nn.Network) Option {
	return func(e *Engine) { e.network = n }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine fuses perception into one action per frame and learns from outcomes.
// MakeDecision is meant to be called from a single decision loop;
// RecordDecisionOutcome may be called concurrently from any goroutine.
type Engine struct {
	cfg    config.Interface
	collab Collaborators
	logger *zap.Logger
	now    func() time.Time

	aggregator *Aggregator
	classifier *Classifier
	generator  *Generator
	scorer     *Scorer
	network    *nn.Network
	ledger     *Ledger

	initMu      sync.Mutex
	initialized atomic.Bool
	initErr     error

	decisions, fallbacks, outcomes, trainSteps, trainSkips atomic.Int64
}

// New wires an engine. It is unusable until Initialize succeeds.
func New(cfg config.Interface, collab Collaborators, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		collab: collab,
		logger: logger.Named("engine"),
		now:    time.Now,
		ledger: NewLedger(cfg.Ledger().Capacity),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize compiles the priority table and prepares the learned scorer.
// On failure the engine stays in fallback mode and every decision reports err.
func (e *Engine) Initialize(ctx context.Context) error {
	e.initMu.Lock()
	defer e.initMu.Unlock()
	if e.initialized.Load() {
		return nil
	}

	err := e.initialize()
	e.initErr = err
	if err != nil {
		e.logger.Error("Decision engine initialization failed.", zap.Error(err))
		return err
	}
	e.initialized.Store(true)
	e.logger.Info("Decision engine initialized.",
		zap.Bool("learned_scorer", e.network != nil),
		zap.Int("ledger_capacity", e.ledger.Cap()))
	return nil
}

func (e *Engine) initialize() error {
	engineCfg := e.cfg.Engine()
	classifier, err := NewClassifier(e.cfg.Priority(), e.logger)
	if err != nil {
		return fmt.Errorf("priority table: %w", err)
	}
	if e.network == nil && e.cfg.Scorer().Enabled {
		n, err := nn.New(e.cfg.Scorer(), e.logger)
		if err != nil {
			return fmt.Errorf("learned scorer: %w", err)
		}
		e.network = n
	}

	e.aggregator = NewAggregator(e.collab, engineCfg, e.logger)
	e.aggregator.now = e.now
	e.classifier = classifier
	e.generator = NewGenerator(engineCfg, e.collab.Weapon, e.logger)
	e.scorer = NewScorer(engineCfg, e.collab, e.logger)
	return nil
}

// MakeDecision returns the best action for frame. It never fails: any problem
// yields the WAIT fallback with the reason in Reasoning.
func (e *Engine) MakeDecision(ctx context.Context, frame *schemas.Frame) (res *Result) {
	start := e.now()
	if !e.initialized.Load() {
		reason := ErrNotInitialized.Error()
		e.initMu.Lock()
		if e.initErr != nil {
			reason = fmt.Sprintf("%s: %v", ErrNotInitialized, e.initErr)
		}
		e.initMu.Unlock()
		return e.fallback(frame, reason)
	}
	if frame == nil {
		return e.fallback(nil, ErrNilFrame.Error())
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Panic recovered in decision pipeline",
				zap.String("frame_id", frame.ID),
				zap.Any("panic_value", r),
			)
			res = e.fallback(frame, fmt.Sprintf("decision pipeline panic: %v", r))
		}
	}()

	res, err := e.decide(ctx, frame)
	if err != nil {
		e.logger.Error("Decision pipeline failed.", zap.String("frame_id", frame.ID), zap.Error(err))
		return e.fallback(frame, err.Error())
	}
	res.Latency = e.now().Sub(start)
	e.decisions.Add(1)
	e.logger.Debug("Decision made.",
		zap.String("decision_id", res.ID),
		zap.String("action", res.Primary.Type.String()),
		zap.String("priority", res.Priority.String()),
		zap.Float64("confidence", res.Confidence),
		zap.Duration("latency", res.Latency),
	)
	return res
}

func (e *Engine) decide(ctx context.Context, frame *schemas.Frame) (*Result, error) {
	engineCfg := e.cfg.Engine()

	state := e.aggregator.Aggregate(ctx, frame)
	priority, rule := e.classifier.Classify(state)

	candidates := e.generator.Generate(state)
	scored := e.scorer.Score(state, candidates)
	primary, alternatives, ok := Select(scored, engineCfg.AlternativeThreshold)
	if !ok {
		return nil, ErrNoCandidates
	}

	confidence := primary.Score
	contributions := map[string]float64{ContributionHeuristic: primary.Score}
	features := EncodeFeatures(state).Vector()

	if nc, ok := e.networkConfidence(features, primary.Action.Type); ok {
		confidence = confidence*(1-engineCfg.NetworkBlend) + nc*engineCfg.NetworkBlend
		contributions[ContributionNetwork] = nc
	}

	if e.ledger.Len() > engineCfg.ExperienceMinEntries {
		if rate, matched := e.ledger.SuccessRate(primary.Action.Type); matched > 0 {
			mult := 0.5 + rate*0.5
			confidence *= mult
			contributions[ContributionExperience] = mult
		}
	}

	res := &Result{
		ID:            uuid.NewString(),
		FrameID:       frame.ID,
		Primary:       primary.Action,
		Alternatives:  alternatives,
		Confidence:    confidence,
		Priority:      priority,
		Rule:          rule,
		Contributions: contributions,
		Timestamp:     state.Timestamp,
	}
	res.Reasoning = Explain(res, state)

	e.ledger.Append(Entry{
		ID:         res.ID,
		FrameID:    frame.ID,
		Action:     primary.Action,
		Priority:   priority,
		Confidence: confidence,
		ExecutedAt: state.Timestamp,
		State:      state,
		Features:   features,
	})
	return res, nil
}

// networkConfidence is the learned scorer's probability for t. ok is false
// when there is no network or it failed.
func (e *Engine) networkConfidence(features []float64, t schemas.ActionType) (float64, bool) {
	if e.network == nil {
		return 0, false
	}
	idx, ok := t.Index()
	if !ok {
		return 0, false
	}
	var probs []float64
	err := recoverCall(func() (err error) {
		probs, err = e.network.Predict(features)
		return err
	})
	if err != nil {
		e.logger.Warn("Learned scorer failed, skipping blend.", zap.Error(err))
		return 0, false
	}
	return probs[idx], true
}

// fallback builds the safe WAIT result. It is never written to the ledger.
func (e *Engine) fallback(frame *schemas.Frame, reason string) *Result {
	e.fallbacks.Add(1)
	res := &Result{
		ID: uuid.NewString(),
		Primary: schemas.Action{
			Type:    schemas.ActionWait,
			Target:  e.cfg.Engine().Anchors.Wait,
			Context: "fallback",
		},
		Confidence: 0.1,
		Priority:   PriorityEmergency,
		Reasoning:  reason,
		Fallback:   true,
		Timestamp:  e.now(),
	}
	if frame != nil {
		res.FrameID = frame.ID
	}
	return res
}

// RecordDecisionOutcome applies feedback to the oldest pending decision whose
// action equals action, then runs one training step on the state that
// decision was made from.
func (e *Engine) RecordDecisionOutcome(action schemas.Action, success bool, reward float64) error {
	return e.resolve(func(en *Entry) bool {
		return en.Reward == 0 && en.Action.Equal(action)
	}, action, success, reward)
}

// RecordOutcome applies an execution report. A report carrying a decision ID
// resolves exactly that decision; otherwise it matches by action.
func (e *Engine) RecordOutcome(report schemas.OutcomeReport) error {
	if report.DecisionID == "" {
		return e.RecordDecisionOutcome(report.Action, report.Success, report.Reward)
	}
	return e.resolve(func(en *Entry) bool {
		return en.ID == report.DecisionID
	}, report.Action, report.Success, report.Reward)
}

func (e *Engine) resolve(match func(*Entry) bool, action schemas.Action, success bool, reward float64) error {
	entry, ok := e.ledger.Resolve(match, success, reward)
	if !ok {
		return fmt.Errorf("%w: %s", ErrOutcomeUnmatched, action.Type)
	}
	e.outcomes.Add(1)
	e.train(entry, success, reward)
	return nil
}

// train runs one step toward the observed outcome. Failures only skip the step.
func (e *Engine) train(entry Entry, success bool, reward float64) {
	if e.network == nil {
		return
	}
	log := e.logger.With(zap.String("decision_id", entry.ID), zap.String("action", entry.Action.Type.String()))

	idx, ok := entry.Action.Type.Index()
	if !ok {
		e.trainSkips.Add(1)
		log.Warn("Unknown action type, skipping training.")
		return
	}
	target, err := nn.Target(idx, TrainingTarget(success, reward))
	if err == nil {
		err = recoverCall(func() error {
			loss, err := e.network.Train(entry.Features, target)
			if err == nil {
				log.Debug("Training step applied.", zap.Float64("loss", loss))
			}
			return err
		})
	}
	if err != nil {
		e.trainSkips.Add(1)
		log.Warn("Training step skipped.", zap.Error(err))
		return
	}
	e.trainSteps.Add(1)
}

// TrainingTarget is the value placed at the action's output index.
func TrainingTarget(success bool, reward float64) float64 {
	if success {
		return math.Min(1, 0.5+reward)
	}
	return math.Max(0, 0.5-math.Abs(reward))
}

// GetRecentDecisions returns up to n of the newest ledger entries, oldest first.
func (e *Engine) GetRecentDecisions(n int) []Entry {
	return e.ledger.Recent(n)
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Decisions:        e.decisions.Load(),
		Fallbacks:        e.fallbacks.Load(),
		OutcomesRecorded: e.outcomes.Load(),
		TrainingSteps:    e.trainSteps.Load(),
		TrainingSkipped:  e.trainSkips.Load(),
	}
}

// Network exposes the learned scorer, nil when it is disabled.
func (e *Engine) Network() *nn.Network { return e.network }
