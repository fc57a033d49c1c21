package domain

// PersonalRecord is a new best for an exercise produced by a finished session.
type PersonalRecord struct {
	ExerciseName string       `json:"exerciseName"`
	Kind         ExerciseKind `json:"type"`
	Value        float64      `json:"value"`
	// PreviousBest is nil when the exercise had no qualifying history.
	PreviousBest *float64 `json:"previousBest,omitempty"`
	Set          Set      `json:"set"`
	Display      string   `json:"display"`
}

// BestSet is the highest scoring historical set of an exercise.
type BestSet struct {
	ExerciseName string       `json:"exerciseName"`
	Kind         ExerciseKind `json:"type"`
	Value        float64      `json:"value"`
	Set          Set          `json:"set"`
	Date         string       `json:"date"`
	Display      string       `json:"display"`
}
