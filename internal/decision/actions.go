// File: internal/decision/actions.go
package decision

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/tactician/api/schemas"
)

// Priority is the urgency tier of a decision. Lower values are more urgent.
type Priority int

const (
	PriorityEmergency Priority = iota
	PriorityHigh
	PriorityMedium
	PriorityLow
	PriorityBackground
)

var priorityNames = []string{"EMERGENCY", "HIGH", "MEDIUM", "LOW", "BACKGROUND"}

func (p Priority) String() string {
	if p < PriorityEmergency || p > PriorityBackground {
		return fmt.Sprintf("Priority(%d)", int(p))
	}
	return priorityNames[p]
}

func (p Priority) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Priority) UnmarshalText(text []byte) error {
	s := strings.ToUpper(strings.TrimSpace(string(text)))
	for i, name := range priorityNames {
		if name == s {
			*p = Priority(i)
			return nil
		}
	}
	return fmt.Errorf("unknown priority %q", s)
}

// actionWeights is the static importance of each action type, indexed by the
// canonical ordering.
var actionWeights = [schemas.ActionTypeCount]float64{
	schemas.ActionEmergencyHeal:   10,
	schemas.ActionEmergencyReload: 9,
	schemas.ActionZoneRotation:    8,
	schemas.ActionEngageEnemy:     7,
	schemas.ActionTakeCover:       6,
	schemas.ActionCollectLoot:     5,
	schemas.ActionReposition:      4,
	schemas.ActionScoutArea:       3,
	schemas.ActionReload:          2,
	schemas.ActionWait:            1,
	schemas.ActionHeal:            5,
	schemas.ActionSwitchWeapon:    3,
	schemas.ActionUseUtility:      3,
	schemas.ActionReviveTeammate:  5,
	schemas.ActionRetreat:         6,
}

// Weight returns the static weight of t, or 0 for values outside the closed set.
func Weight(t schemas.ActionType) float64 {
	i, ok := t.Index()
	if !ok {
		return 0
	}
	return actionWeights[i]
}
