package schemas_test

import (
	"reflect"
	"testing"

	// Third party libraries for expressive and robust assertions.
	"github.com/stretchr/testify/assert"

	// Import the package we are testing.
	"github.com/xkilldash9x/tactician/api/schemas"
)

// TestStructJSONTags uses reflection to verify that the `json` tags on the
// recorded frame format are stable. Replay files written by older captures
// depend on them.
func TestStructJSONTags(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name         string
		structRef    interface{}
		expectedTags map[string]string
	}{
		{
			name:      "Frame",
			structRef: schemas.Frame{},
			expectedTags: map[string]string{
				"ID":         "id",
				"CapturedAt": "captured_at",
				"Width":      "width",
				"Height":     "height",
				"Image":      "-",
				"Recorded":   "recorded,omitempty",
				"Outcome":    "outcome,omitempty",
			},
		},
		{
			name:      "RecordedPerception",
			structRef: schemas.RecordedPerception{},
			expectedTags: map[string]string{
				"Context":  "context,omitempty",
				"Players":  "players,omitempty",
				"Teams":    "teams,omitempty",
				"Weapon":   "weapon,omitempty",
				"Minimap":  "minimap,omitempty",
				"GameType": "game_type,omitempty",
				"Failed":   "failed,omitempty",
			},
		},
		{
			name:      "Action",
			structRef: schemas.Action{},
			expectedTags: map[string]string{
				"Type":    "type",
				"Target":  "target",
				"Context": "context,omitempty",
			},
		},
		{
			name:      "OutcomeReport",
			structRef: schemas.OutcomeReport{},
			expectedTags: map[string]string{
				"DecisionID": "decision_id,omitempty",
				"Action":     "action",
				"Success":    "success",
				"Reward":     "reward",
			},
		},
		{
			name:      "MinimapSnapshot",
			structRef: schemas.MinimapSnapshot{},
			expectedTags: map[string]string{
				"Zone":           "zone,omitempty",
				"PlayerInZone":   "player_in_zone",
				"DistanceToZone": "distance_to_zone",
				"Markers":        "markers,omitempty",
			},
		},
	}

	for _, tc := range testCases {
		tt := tc
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			structType := reflect.TypeOf(tt.structRef)
			actualTags := make(map[string]string)

			for i := 0; i < structType.NumField(); i++ {
				field := structType.Field(i)
				if jsonTag := field.Tag.Get("json"); jsonTag != "" {
					actualTags[field.Name] = jsonTag
				}
			}

			assert.Equal(t, tt.expectedTags, actualTags, "JSON tags for struct %s do not match expectations", tt.name)
		})
	}
}
