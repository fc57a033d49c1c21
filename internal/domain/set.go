package domain

import "strings"

// Set is one logged data point. Values are kept as typed by the user; which of
// them matter depends on the exercise kind.
type Set struct {
	KG               string `json:"kg,omitempty" bson:"kg,omitempty"`
	Reps             string `json:"reps,omitempty" bson:"reps,omitempty"`
	Time             string `json:"time,omitempty" bson:"time,omitempty"`
	Distance         string `json:"distance,omitempty" bson:"distance,omitempty"`
	Completed        bool   `json:"done" bson:"done"`
	RestTakenSeconds *int   `json:"restTaken,omitempty" bson:"rest_taken,omitempty"`
}

// EmptySet returns a fresh set with no values.
func EmptySet() Set {
	return Set{}
}

// Get returns the raw value of field f.
func (s Set) Get(f SetField) string {
	switch f {
	case FieldKG:
		return s.KG
	case FieldReps:
		return s.Reps
	case FieldTime:
		return s.Time
	case FieldDistance:
		return s.Distance
	}
	return ""
}

// With returns a copy of s with field f set to value.
func (s Set) With(f SetField, value string) Set {
	switch f {
	case FieldKG:
		s.KG = value
	case FieldReps:
		s.Reps = value
	case FieldTime:
		s.Time = value
	case FieldDistance:
		s.Distance = value
	}
	return s
}

// IsComplete reports whether the set has the values its kind requires to be logged.
// distance_time accepts either value on its own.
func (s Set) IsComplete(kind ExerciseKind) bool {
	switch kind.Normalize() {
	case KindWeightReps:
		return filled(s.KG) && filled(s.Reps)
	case KindBodyweightReps, KindRepsOnly:
		return filled(s.Reps)
	case KindTimeOnly:
		return filled(s.Time)
	case KindDistanceTime:
		return filled(s.Distance) || filled(s.Time)
	}
	return false
}

// Values returns the kind-specific values of s without progress markers.
func (s Set) Values(kind ExerciseKind) Set {
	var out Set
	for _, f := range kind.Fields() {
		out = out.With(f, s.Get(f))
	}
	return out
}

// Reset clears the completed flag and the recorded rest.
func (s Set) Reset() Set {
	s.Completed = false
	s.RestTakenSeconds = nil
	return s
}

func (s Set) clone() Set {
	if s.RestTakenSeconds != nil {
		v := *s.RestTakenSeconds
		s.RestTakenSeconds = &v
	}
	return s
}

func filled(v string) bool {
	return strings.TrimSpace(v) != ""
}
