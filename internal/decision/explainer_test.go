// File: internal/decision/explainer_test.go
package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/tactician/api/schemas"
)

func TestExplain(t *testing.T) {
	testCases := []struct {
		name  string
		res   *Result
		state *State
		want  string
	}{
		{
			name: "emergency with context and contributions",
			res: &Result{
				Primary:  schemas.Action{Type: schemas.ActionEmergencyHeal, Context: "low_health"},
				Priority: PriorityEmergency,
				Rule:     "critical_health",
				Contributions: map[string]float64{
					ContributionNetwork:   0.125,
					ContributionHeuristic: 2,
				},
			},
			state: &State{OverallThreat: 0.65},
			want:  "EMERGENCY priority (critical_health); chose EMERGENCY_HEAL [low_health]; high threat 0.7; contributions: heuristic=2.00, network=0.12",
		},
		{
			name: "quiet frame",
			res: &Result{
				Primary:  schemas.Action{Type: schemas.ActionScoutArea},
				Priority: PriorityBackground,
				Rule:     "background",
			},
			state: &State{OverallThreat: 0.6, OpportunityScore: 0.2},
			want:  "BACKGROUND priority (background); chose SCOUT_AREA",
		},
		{
			name: "opportunity without state threat",
			res: &Result{
				Primary:  schemas.Action{Type: schemas.ActionCollectLoot, Context: "loot"},
				Priority: PriorityLow,
				Rule:     "opportunity",
			},
			state: &State{OpportunityScore: 0.9},
			want:  "LOW priority (opportunity); chose COLLECT_LOOT [loot]; high opportunity 0.9",
		},
		{
			name: "nil state",
			res: &Result{
				Primary:  schemas.Action{Type: schemas.ActionWait},
				Priority: PriorityMedium,
				Rule:     "contested",
			},
			want: "MEDIUM priority (contested); chose WAIT",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Explain(tc.res, tc.state))
		})
	}
}

func TestExplainDoesNotModifyInputs(t *testing.T) {
	res := &Result{
		Primary:       schemas.Action{Type: schemas.ActionTakeCover},
		Priority:      PriorityHigh,
		Contributions: map[string]float64{ContributionHeuristic: 1},
	}
	state := &State{OverallThreat: 0.9}
	before, beforeState := *res, *state

	_ = Explain(res, state)
	assert.Equal(t, before, *res)
	assert.Equal(t, beforeState, *state)
}
