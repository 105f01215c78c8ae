// File: internal/decision/priority.go
package decision

import (
	"fmt"
	"strconv"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tactician/internal/config"
)

// PriorityEnv is the environment priority rules are evaluated against.
type PriorityEnv struct {
	Health         float64
	TimeToCollapse float64
	OutsideZone    bool
	Threat         float64
	Opportunity    float64
	EnemyCount     int
}

func newPriorityEnv(s *State) PriorityEnv {
	return PriorityEnv{
		Health:         s.Health(),
		TimeToCollapse: s.TimeToCollapse(),
		OutsideZone:    s.OutsideSafeZone(),
		Threat:         s.OverallThreat,
		Opportunity:    s.OpportunityScore,
		EnemyCount:     s.EnemyCount(),
	}
}

// PriorityRule is one row of the urgency table.
type PriorityRule struct {
	Name      string
	Condition string
	Tier      Priority

	program *vm.Program
}

// Classifier maps a State to its urgency tier. Rules are checked in table
// order and the first match wins; BACKGROUND applies when none match.
type Classifier struct {
	rules  []PriorityRule
	logger *zap.Logger
}

// PriorityRules renders the urgency table from configured thresholds.
func PriorityRules(cfg config.PriorityConfig) []PriorityRule {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []PriorityRule{
		{Name: "critical_health", Tier: PriorityEmergency,
			Condition: fmt.Sprintf("Health < %s", f(cfg.EmergencyHealth))},
		{Name: "zone_collapsing", Tier: PriorityEmergency,
			Condition: fmt.Sprintf("OutsideZone && TimeToCollapse < %s", f(cfg.ZoneCollapseSeconds))},
		{Name: "high_threat", Tier: PriorityHigh,
			Condition: fmt.Sprintf("Threat > %s", f(cfg.HighThreat))},
		{Name: "outnumbered", Tier: PriorityHigh,
			Condition: fmt.Sprintf("EnemyCount > %d", cfg.HighEnemyCount)},
		{Name: "contested", Tier: PriorityMedium,
			Condition: fmt.Sprintf("Threat > %s || Opportunity > %s", f(cfg.MediumThreat), f(cfg.MediumOpportunity))},
		{Name: "opportunity", Tier: PriorityLow,
			Condition: fmt.Sprintf("Opportunity > %s", f(cfg.LowOpportunity))},
	}
}

// NewClassifier compiles the urgency table into expr programs.
func NewClassifier(cfg config.PriorityConfig, logger *zap.Logger) (*Classifier, error) {
	rules := PriorityRules(cfg)
	for i := range rules {
		prog, err := expr.Compile(rules[i].Condition, expr.Env(PriorityEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile priority rule %q: %w", rules[i].Name, err)
		}
		rules[i].program = prog
	}
	return &Classifier{rules: rules, logger: logger.Named("priority")}, nil
}

// Classify returns the tier of the first matching rule and that rule's name.
// A rule that fails to evaluate is skipped.
func (c *Classifier) Classify(s *State) (Priority, string) {
	env := newPriorityEnv(s)
	for _, r := range c.rules {
		out, err := vm.Run(r.program, env)
		if err != nil {
			c.logger.Warn("Priority rule evaluation failed.", zap.String("rule", r.Name), zap.Error(err))
			continue
		}
		if match, ok := out.(bool); ok && match {
			return r.Tier, r.Name
		}
	}
	return PriorityBackground, "background"
}
