package domain

// ExerciseEntry is a named movement with its ordered sets. It belongs either to
// the active session or, without progress markers, to a template.
// The name is the exercise's identity: templates and records match on it, so a
// rename detaches the entry from its history.
type ExerciseEntry struct {
	Name                string       `json:"name" bson:"name"`
	Kind                ExerciseKind `json:"type" bson:"type"`
	Sets                []Set        `json:"sets" bson:"sets"`
	RestOverrideSeconds *int         `json:"restOverride,omitempty" bson:"rest_override,omitempty"`
	Note                string       `json:"note,omitempty" bson:"note,omitempty"`
}

// Clone returns a deep copy.
func (e ExerciseEntry) Clone() ExerciseEntry {
	out := e
	out.Kind = e.Kind.Normalize()
	out.Sets = make([]Set, len(e.Sets))
	for i, s := range e.Sets {
		out.Sets[i] = s.clone()
	}
	if e.RestOverrideSeconds != nil {
		v := *e.RestOverrideSeconds
		out.RestOverrideSeconds = &v
	}
	return out
}

// EffectiveRest is the override when set, otherwise the session default.
func (e ExerciseEntry) EffectiveRest(defaultSeconds int) int {
	if e.RestOverrideSeconds != nil {
		return *e.RestOverrideSeconds
	}
	return defaultSeconds
}

// CompletedSets returns only the sets marked completed.
func (e ExerciseEntry) CompletedSets() []Set {
	var out []Set
	for _, s := range e.Sets {
		if s.Completed {
			out = append(out, s.clone())
		}
	}
	return out
}

// CloneEntries deep-copies a list of entries.
func CloneEntries(entries []ExerciseEntry) []ExerciseEntry {
	out := make([]ExerciseEntry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}

// CountSets returns the number of completed and incomplete sets across entries.
func CountSets(entries []ExerciseEntry) (completed, incomplete int) {
	for _, e := range entries {
		for _, s := range e.Sets {
			if s.Completed {
				completed++
			} else {
				incomplete++
			}
		}
	}
	return completed, incomplete
}

// IntPtr is a small helper for optional ints.
func IntPtr(v int) *int {
	return &v
}
