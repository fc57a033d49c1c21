package domain

// SessionVolume aggregates the completed sets of one workout.
// Volume = sum(weight * reps) over completed sets.
type SessionVolume struct {
	TotalVolume     float64 `json:"totalVolume"`
	TotalSets       int     `json:"totalSets"`
	TotalReps       int     `json:"totalReps"`
	ExerciseCount   int     `json:"exerciseCount"`
	DurationSeconds int     `json:"durationSeconds"`
}

// Progression compares a finished workout with the previous use of its template.
type Progression struct {
	TemplateName  string        `json:"templateName"`
	PreviousDate  string        `json:"previousDate"`
	Current       SessionVolume `json:"current"`
	Previous      SessionVolume `json:"previous"`
	VolumeDelta   float64       `json:"volumeDelta"`
	SetsDelta     int           `json:"setsDelta"`
	DurationDelta int           `json:"durationDelta"`
}
