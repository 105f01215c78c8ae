package schemas

import (
	"fmt"
	"strings"
)

// -- Action Schemas --

// ActionType enumerates every action the engine can choose. The set is closed:
// values outside the canonical list are rejected wherever they are decoded.
type ActionType int

const (
	ActionEmergencyHeal ActionType = iota
	ActionEmergencyReload
	ActionZoneRotation
	ActionEngageEnemy
	ActionTakeCover
	ActionCollectLoot
	ActionReposition
	ActionScoutArea
	ActionReload
	ActionWait
	ActionHeal
	ActionSwitchWeapon
	ActionUseUtility
	ActionReviveTeammate
	ActionRetreat

	actionTypeCount
)

// ActionTypeCount is the size of the canonical action ordering, and therefore
// the width of the learned scorer's output layer.
const ActionTypeCount = int(actionTypeCount)

var actionTypeNames = [ActionTypeCount]string{
	"EMERGENCY_HEAL",
	"EMERGENCY_RELOAD",
	"ZONE_ROTATION",
	"ENGAGE_ENEMY",
	"TAKE_COVER",
	"COLLECT_LOOT",
	"REPOSITION",
	"SCOUT_AREA",
	"RELOAD",
	"WAIT",
	"HEAL",
	"SWITCH_WEAPON",
	"USE_UTILITY",
	"REVIVE_TEAMMATE",
	"RETREAT",
}

// CanonicalActionTypes returns the fixed ordering used to index network
// outputs and training targets.
func CanonicalActionTypes() []ActionType {
	out := make([]ActionType, ActionTypeCount)
	for i := range out {
		out[i] = ActionType(i)
	}
	return out
}

// Index returns the canonical position of the type. ok is false for values
// outside the closed set.
func (t ActionType) Index() (int, bool) {
	if t < 0 || t >= actionTypeCount {
		return 0, false
	}
	return int(t), true
}

// Valid reports whether t is one of the known action types.
func (t ActionType) Valid() bool {
	_, ok := t.Index()
	return ok
}

func (t ActionType) String() string {
	if i, ok := t.Index(); ok {
		return actionTypeNames[i]
	}
	return fmt.Sprintf("ActionType(%d)", int(t))
}

// ParseActionType maps a tag such as "ENGAGE_ENEMY" back to its type.
func ParseActionType(s string) (ActionType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range actionTypeNames {
		if name == s {
			return ActionType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action type %q", s)
}

// MarshalText encodes the type as its tag so JSON and YAML stay readable.
func (t ActionType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid action type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tag produced by MarshalText.
func (t *ActionType) UnmarshalText(text []byte) error {
	parsed, err := ParseActionType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Point is a screen position in pixels.
type Point struct {
	X float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y float64 `json:"y" yaml:"y" mapstructure:"y"`
}

// Action is a concrete, executable choice: what to do and where on screen.
// Two actions are the same action when type, target and context tag match.
type Action struct {
	Type   ActionType `json:"type"`
	Target Point      `json:"target"`
	// Context is a free-form tag describing why the action was proposed
	// (e.g. "enemy_3", "low_health").
	Context string `json:"context,omitempty"`
}

// Equal reports whether two actions describe the same choice.
func (a Action) Equal(other Action) bool {
	return a.Type == other.Type && a.Target == other.Target && a.Context == other.Context
}

// OutcomeReport is posted by the execution layer once the effect of an
// executed action has been observed.
type OutcomeReport struct {
	DecisionID string  `json:"decision_id,omitempty"`
	Action     Action  `json:"action"`
	Success    bool    `json:"success"`
	Reward     float64 `json:"reward"`
}
