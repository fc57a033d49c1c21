package domain

import "fmt"

// ExerciseKind decides which values a set carries and how it is scored.
type ExerciseKind string

const (
	KindWeightReps     ExerciseKind = "weight_reps"
	KindBodyweightReps ExerciseKind = "bodyweight_reps"
	KindRepsOnly       ExerciseKind = "reps_only"
	KindTimeOnly       ExerciseKind = "time_only"
	KindDistanceTime   ExerciseKind = "distance_time"

	// legacyBodyweightReps is how older data spells KindBodyweightReps.
	legacyBodyweightReps = "bw_reps"
)

// SetField names an editable value of a set.
type SetField string

const (
	FieldKG       SetField = "kg"
	FieldReps     SetField = "reps"
	FieldTime     SetField = "time"
	FieldDistance SetField = "distance"
)

var kindFields = map[ExerciseKind][]SetField{
	KindWeightReps:     {FieldKG, FieldReps},
	KindBodyweightReps: {FieldKG, FieldReps},
	KindRepsOnly:       {FieldReps},
	KindTimeOnly:       {FieldTime},
	KindDistanceTime:   {FieldDistance, FieldTime},
}

var kindLabels = map[ExerciseKind]string{
	KindWeightReps:     "Weight + Reps",
	KindBodyweightReps: "BW ± kg",
	KindRepsOnly:       "Reps only",
	KindTimeOnly:       "Time",
	KindDistanceTime:   "Distance + Time",
}

// Kinds lists every exercise kind in display order.
func Kinds() []ExerciseKind {
	return []ExerciseKind{KindWeightReps, KindBodyweightReps, KindRepsOnly, KindTimeOnly, KindDistanceTime}
}

// ParseKind accepts canonical names, the legacy "bw_reps" alias, and treats an
// empty string as weight_reps (entries written before kinds existed).
func ParseKind(s string) (ExerciseKind, error) {
	switch s {
	case "":
		return KindWeightReps, nil
	case legacyBodyweightReps:
		return KindBodyweightReps, nil
	}
	k := ExerciseKind(s)
	if _, ok := kindFields[k]; !ok {
		return "", fmt.Errorf("unknown exercise kind %q", s)
	}
	return k, nil
}

// Valid reports whether k is one of the five known kinds.
func (k ExerciseKind) Valid() bool {
	_, ok := kindFields[k]
	return ok
}

// Normalize maps the zero value to weight_reps.
func (k ExerciseKind) Normalize() ExerciseKind {
	if k == "" {
		return KindWeightReps
	}
	return k
}

// Fields returns the set fields this kind records.
func (k ExerciseKind) Fields() []SetField {
	return append([]SetField(nil), kindFields[k.Normalize()]...)
}

// HasField reports whether f belongs to kind k.
func (k ExerciseKind) HasField(f SetField) bool {
	for _, kf := range kindFields[k.Normalize()] {
		if kf == f {
			return true
		}
	}
	return false
}

// Label is the human readable name of the kind.
func (k ExerciseKind) Label() string {
	return kindLabels[k.Normalize()]
}

func (k ExerciseKind) MarshalText() ([]byte, error) {
	return []byte(k), nil
}

func (k *ExerciseKind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
