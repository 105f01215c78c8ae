// File: internal/performance/tracker.go
package performance

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/tactician/api/schemas"
	"github.com/xkilldash9x/tactician/internal/config"
)

// Record is the running tally for one action type.
type Record struct {
	ActionType string  `json:"action_type" yaml:"action_type"`
	Attempts   int     `json:"attempts" yaml:"attempts"`
	Successes  int     `json:"successes" yaml:"successes"`
	Reward     float64 `json:"reward" yaml:"reward"`
}

// Rate is the observed success ratio, 0 with no attempts.
func (r Record) Rate() float64 {
	if r.Attempts == 0 {
		return 0
	}
	return float64(r.Successes) / float64(r.Attempts)
}

// Tracker counts outcomes per action type. It reports a rate only once a
// type has at least minSamples attempts. Safe for concurrent use.
type Tracker struct {
	mu         sync.RWMutex
	records    map[string]*Record
	minSamples int
	logger     *zap.Logger
}

// NewTracker creates an empty tracker.
func NewTracker(cfg config.PerformanceConfig, logger *zap.Logger) *Tracker {
	minSamples := cfg.MinSamples
	if minSamples < 1 {
		minSamples = 1
	}
	return &Tracker{
		records:    make(map[string]*Record),
		minSamples: minSamples,
		logger:     logger.Named("performance"),
	}
}

// Observe adds one executed action to the tally.
func (t *Tracker) Observe(actionType string, success bool, reward float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[actionType]
	if !ok {
		rec = &Record{ActionType: actionType}
		t.records[actionType] = rec
	}
	rec.Attempts++
	if success {
		rec.Successes++
	}
	rec.Reward += reward

	if rec.Attempts == t.minSamples {
		t.logger.Debug("Action type has enough samples to influence scoring.",
			zap.String("action_type", actionType),
			zap.Float64("rate", rec.Rate()))
	}
}

// ObserveReport is Observe for an execution report.
func (t *Tracker) ObserveReport(report schemas.OutcomeReport) {
	t.Observe(report.Action.Type.String(), report.Success, report.Reward)
}

// SuccessRate implements schemas.PerformanceTracker.
func (t *Tracker) SuccessRate(actionType string) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.records[actionType]
	if !ok || rec.Attempts < t.minSamples {
		return 0, false
	}
	return rec.Rate(), true
}

// Snapshot returns a copy of every record sorted by action type.
func (t *Tracker) Snapshot() []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Record, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActionType < out[j].ActionType })
	return out
}

var _ schemas.PerformanceTracker = (*Tracker)(nil)
