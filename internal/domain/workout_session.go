package domain

import "time"

// SessionState is the lifecycle state of the session engine.
type SessionState int

const (
	StateIdle SessionState = iota
	StateActive
	StateEditingTemplate
)

func (s SessionState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateEditingTemplate:
		return "editing_template"
	}
	return "idle"
}

// Session is the single in-progress workout.
type Session struct {
	Name      string          `json:"name"`
	StartedAt *time.Time      `json:"startedAt,omitempty"`
	Exercises []ExerciseEntry `json:"exercises"`
	// TemplateName links the session to the template it was seeded from.
	TemplateName *string `json:"templateName,omitempty"`
	// EditingTemplate is set while the session edits a template instead of logging.
	EditingTemplate *TemplateRef `json:"editingTemplate,omitempty"`
}

// Clone returns a deep copy.
func (s Session) Clone() Session {
	out := s
	out.Exercises = CloneEntries(s.Exercises)
	if s.StartedAt != nil {
		t := *s.StartedAt
		out.StartedAt = &t
	}
	if s.TemplateName != nil {
		n := *s.TemplateName
		out.TemplateName = &n
	}
	if s.EditingTemplate != nil {
		r := *s.EditingTemplate
		out.EditingTemplate = &r
	}
	return out
}

// Workout is an immutable record of a finished session.
type Workout struct {
	Date            string          `json:"date" bson:"date"`
	Name            string          `json:"name" bson:"name"`
	TemplateName    *string         `json:"templateName" bson:"template_name"`
	DurationSeconds int             `json:"duration" bson:"duration"`
	Exercises       []ExerciseEntry `json:"exercises" bson:"exercises"`
}

// Clone returns a deep copy.
func (w Workout) Clone() Workout {
	out := w
	out.Exercises = CloneEntries(w.Exercises)
	if w.TemplateName != nil {
		n := *w.TemplateName
		out.TemplateName = &n
	}
	return out
}

// RestTimer is the countdown of the rest period currently running.
type RestTimer struct {
	TargetExerciseIndex  int       `json:"targetExerciseIndex"`
	TargetSetIndex       int       `json:"targetSetIndex"`
	RemainingSeconds     int       `json:"remainingSeconds"`
	TotalDurationSeconds int       `json:"totalDurationSeconds"`
	StartedAt            time.Time `json:"startedAt"`
}

// StringPtr is a small helper for optional strings.
func StringPtr(s string) *string {
	return &s
}
