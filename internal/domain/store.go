package domain

import (
	"context"
	"encoding/json"
)

// Persisted state keys.
const (
	KeyExercises          = "exercises"
	KeyHistory            = "history"
	KeyFolders            = "folders"
	KeyDefaultRestSeconds = "defaultRestSeconds"
	KeyBodyweightKg       = "bodyweightKg"
	KeyWeekStartDay       = "weekStartDay"
	KeyWorkoutName        = "workoutName"
	KeyWorkoutStartTime   = "workoutStartTime"
	KeyWorkoutTemplate    = "workoutTemplate"
	KeyEditingTemplate    = "editingTemplate"
	KeyCustomExercises    = "customExercises"

	// KeyLegacyTemplates is the flat template list older versions wrote. Read once.
	KeyLegacyTemplates = "templates"
)

//go:generate mockgen -destination=../repository/mocks_test.go -package=repository_test github.com/mansoorceksport/hutraz/internal/domain StateStore

// StateStore is the persistent key/value capability the core consumes.
// Load returns (nil, nil) when the key has never been written.
type StateStore interface {
	Load(ctx context.Context, key string) (json.RawMessage, error)
	Save(ctx context.Context, key string, value json.RawMessage) error
}

// Change describes which persisted keys a mutation touched.
type Change uint16

const (
	ChangeExercises Change = 1 << iota
	ChangeHistory
	ChangeFolders
	ChangeWorkoutMeta
	ChangeSettings
	ChangeCustomExercises

	ChangeNone Change = 0
)

// Has reports whether c includes all bits of other.
func (c Change) Has(other Change) bool {
	return other != 0 && c&other == other
}

// Keys lists the store keys covered by c.
func (c Change) Keys() []string {
	var keys []string
	if c.Has(ChangeExercises) {
		keys = append(keys, KeyExercises)
	}
	if c.Has(ChangeHistory) {
		keys = append(keys, KeyHistory)
	}
	if c.Has(ChangeFolders) {
		keys = append(keys, KeyFolders)
	}
	if c.Has(ChangeWorkoutMeta) {
		keys = append(keys, KeyWorkoutName, KeyWorkoutStartTime, KeyWorkoutTemplate, KeyEditingTemplate)
	}
	if c.Has(ChangeSettings) {
		keys = append(keys, KeyDefaultRestSeconds, KeyBodyweightKg, KeyWeekStartDay)
	}
	if c.Has(ChangeCustomExercises) {
		keys = append(keys, KeyCustomExercises)
	}
	return keys
}
