// File: internal/feedback/reporter.go
package feedback

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/tactician/api/schemas"
)

// OutcomeRecorder applies an execution report to the decision that produced it.
type OutcomeRecorder interface {
	RecordOutcome(report schemas.OutcomeReport) error
}

// OutcomeObserver keeps long-run statistics of executed actions.
type OutcomeObserver interface {
	ObserveReport(report schemas.OutcomeReport)
}

// Reporter consumes outcome messages from the bus and hands each one to the
// engine and, when set, to the performance tracker.
type Reporter struct {
	bus      *Bus
	recorder OutcomeRecorder
	observer OutcomeObserver
	logger   *zap.Logger

	msgChan     <-chan Message
	unsubscribe func()
}

// NewReporter subscribes to TopicOutcome immediately so no report posted
// after construction is missed. observer may be nil.
func NewReporter(bus *Bus, recorder OutcomeRecorder, observer OutcomeObserver, logger *zap.Logger) *Reporter {
	msgChan, unsubscribe := bus.Subscribe(TopicOutcome)
	return &Reporter{
		bus:         bus,
		recorder:    recorder,
		observer:    observer,
		logger:      logger.Named("outcome_reporter"),
		msgChan:     msgChan,
		unsubscribe: unsubscribe,
	}
}

// Run processes messages until ctx is done or the bus closes the subscription.
func (r *Reporter) Run(ctx context.Context) error {
	defer r.unsubscribe()
	r.logger.Debug("Outcome reporter started.")
	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("Outcome reporter stopping.", zap.Error(ctx.Err()))
			return nil
		case msg, ok := <-r.msgChan:
			if !ok {
				r.logger.Debug("Outcome subscription closed.")
				return nil
			}
			r.processMessage(msg)
		}
	}
}

// processMessage applies one report. It always acknowledges the message and
// never lets a panic escape.
func (r *Reporter) processMessage(msg Message) {
	defer r.bus.Acknowledge(msg)
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Panic recovered while applying outcome",
				zap.String("message_id", msg.ID),
				zap.Any("panic_value", rec),
			)
		}
	}()

	report, err := reportFrom(msg)
	if err != nil {
		r.logger.Warn("Discarding malformed outcome message.", zap.String("message_id", msg.ID), zap.Error(err))
		return
	}

	if r.observer != nil {
		r.observer.ObserveReport(report)
	}

	if err := r.recorder.RecordOutcome(report); err != nil {
		r.logger.Warn("Outcome not applied.",
			zap.String("decision_id", report.DecisionID),
			zap.String("action", report.Action.Type.String()),
			zap.Error(err),
		)
		return
	}
	r.logger.Debug("Outcome applied.",
		zap.String("decision_id", report.DecisionID),
		zap.String("action", report.Action.Type.String()),
		zap.Bool("success", report.Success),
		zap.Float64("reward", report.Reward),
	)
}

var errBadPayload = errors.New("payload is not an outcome report")

func reportFrom(msg Message) (schemas.OutcomeReport, error) {
	switch p := msg.Payload.(type) {
	case schemas.OutcomeReport:
		return p, nil
	case *schemas.OutcomeReport:
		if p != nil {
			return *p, nil
		}
	}
	return schemas.OutcomeReport{}, fmt.Errorf("%w: %T", errBadPayload, msg.Payload)
}
