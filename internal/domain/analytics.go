package domain

import "time"

// DayActivity is one cell of the weekly activity strip.
type DayActivity struct {
	Date    string       `json:"date"`
	Weekday time.Weekday `json:"weekday"`
	Worked  bool         `json:"worked"`
	Today   bool         `json:"today"`
}

// WeekActivity covers the seven calendar days ending today.
type WeekActivity struct {
	Days []DayActivity `json:"days"`
	// ThisWeek counts worked days since the most recent configured week start.
	ThisWeek int `json:"thisWeek"`
}

// Suggestion proposes the template to run next.
type Suggestion struct {
	Ref          TemplateRef `json:"ref"`
	TemplateName string      `json:"templateName"`
	FolderName   string      `json:"folderName"`
	// After is the template of the most recent workout.
	After string `json:"after"`
}

// Totals are the lifetime counters shown on the home screen.
type Totals struct {
	Workouts   int `json:"workouts"`
	SetsLogged int `json:"setsLogged"`
}

// Summary is the post-workout report.
type Summary struct {
	Workout     Workout          `json:"workout"`
	NewRecords  []PersonalRecord `json:"newRecords"`
	Progression *Progression     `json:"progression,omitempty"`
	Suggestion  *Suggestion      `json:"suggestion,omitempty"`
	Volume      SessionVolume    `json:"volume"`
}
