// File: internal/decision/explainer.go
package decision

import (
	"fmt"
	"sort"
	"strings"
)

// Contribution keys recorded on a Result.
const (
	ContributionHeuristic  = "heuristic"
	ContributionNetwork    = "network"
	ContributionExperience = "experience"
)

// Explain renders a one-line justification of r. It only reads r and s.
func Explain(r *Result, s *State) string {
	var parts []string

	if r.Priority == PriorityEmergency {
		parts = append(parts, fmt.Sprintf("EMERGENCY priority (%s)", r.Rule))
	} else {
		parts = append(parts, fmt.Sprintf("%s priority (%s)", r.Priority, r.Rule))
	}

	action := r.Primary.Type.String()
	if r.Primary.Context != "" {
		action += " [" + r.Primary.Context + "]"
	}
	parts = append(parts, "chose "+action)

	if s != nil {
		if s.OverallThreat > 0.6 {
			parts = append(parts, fmt.Sprintf("high threat %.1f", s.OverallThreat))
		}
		if s.OpportunityScore > 0.6 {
			parts = append(parts, fmt.Sprintf("high opportunity %.1f", s.OpportunityScore))
		}
	}

	if len(r.Contributions) > 0 {
		keys := make([]string, 0, len(r.Contributions))
		for k := range r.Contributions {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		kv := make([]string, len(keys))
		for i, k := range keys {
			kv[i] = fmt.Sprintf("%s=%.2f", k, r.Contributions[k])
		}
		parts = append(parts, "contributions: "+strings.Join(kv, ", "))
	}

	return strings.Join(parts, "; ")
}
