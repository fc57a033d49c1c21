package domain

import (
	"encoding/json"
	"fmt"
)

// DefaultFolderName is used for the folder that always exists and for legacy migration.
const DefaultFolderName = "My Templates"

// TemplateRef addresses a template by folder and template id.
type TemplateRef struct {
	FolderID   string `json:"folderId" bson:"folder_id"`
	TemplateID string `json:"templateId" bson:"template_id"`
}

// TemplateExercise describes intended values. Its sets never carry progress.
type TemplateExercise struct {
	Name                string       `json:"name" bson:"name"`
	Kind                ExerciseKind `json:"type" bson:"type"`
	Sets                []Set        `json:"sets" bson:"sets"`
	RestOverrideSeconds *int         `json:"restOverride,omitempty" bson:"rest_override,omitempty"`
	Note                string       `json:"note,omitempty" bson:"note,omitempty"`
}

// UnmarshalJSON also accepts the legacy shape where "sets" was a plain count.
func (t *TemplateExercise) UnmarshalJSON(b []byte) error {
	type alias TemplateExercise
	var raw struct {
		alias
		Sets json.RawMessage `json:"sets"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*t = TemplateExercise(raw.alias)
	t.Kind = t.Kind.Normalize()
	t.Sets = nil
	if len(raw.Sets) == 0 || string(raw.Sets) == "null" {
		return nil
	}
	var count int
	if err := json.Unmarshal(raw.Sets, &count); err == nil {
		if count < 0 {
			return fmt.Errorf("template exercise %q: negative set count", t.Name)
		}
		t.Sets = make([]Set, count)
		return nil
	}
	var sets []Set
	if err := json.Unmarshal(raw.Sets, &sets); err != nil {
		return fmt.Errorf("template exercise %q: %w", t.Name, err)
	}
	for i := range sets {
		sets[i] = sets[i].Values(t.Kind)
	}
	t.Sets = sets
	return nil
}

// Template is a reusable plan of exercises.
type Template struct {
	ID        string             `json:"id" bson:"id"`
	Name      string             `json:"name" bson:"name"`
	Exercises []TemplateExercise `json:"exercises" bson:"exercises"`
}

// Folder groups templates in a user-defined order.
type Folder struct {
	ID        string     `json:"id" bson:"id"`
	Name      string     `json:"name" bson:"name"`
	Open      bool       `json:"open" bson:"open"`
	Templates []Template `json:"templates" bson:"templates"`
}

// Clone returns a deep copy.
func (t Template) Clone() Template {
	out := t
	out.Exercises = make([]TemplateExercise, len(t.Exercises))
	for i, ex := range t.Exercises {
		out.Exercises[i] = ex.clone()
	}
	return out
}

// Clone returns a deep copy.
func (f Folder) Clone() Folder {
	out := f
	out.Templates = make([]Template, len(f.Templates))
	for i, t := range f.Templates {
		out.Templates[i] = t.Clone()
	}
	return out
}

// CloneFolders deep-copies a folder list.
func CloneFolders(folders []Folder) []Folder {
	out := make([]Folder, len(folders))
	for i, f := range folders {
		out[i] = f.Clone()
	}
	return out
}

func (t TemplateExercise) clone() TemplateExercise {
	out := t
	out.Sets = append([]Set(nil), t.Sets...)
	if t.RestOverrideSeconds != nil {
		v := *t.RestOverrideSeconds
		out.RestOverrideSeconds = &v
	}
	return out
}

// ToTemplateExercise strips progress from a session entry.
func ToTemplateExercise(e ExerciseEntry) TemplateExercise {
	kind := e.Kind.Normalize()
	sets := make([]Set, len(e.Sets))
	for i, s := range e.Sets {
		sets[i] = s.Values(kind)
	}
	out := TemplateExercise{
		Name: e.Name,
		Kind: kind,
		Sets: sets,
		Note: e.Note,
	}
	if e.RestOverrideSeconds != nil {
		out.RestOverrideSeconds = IntPtr(*e.RestOverrideSeconds)
	}
	return out
}

// ToEntry turns a template exercise into a session entry with fresh, uncompleted sets.
func (t TemplateExercise) ToEntry() ExerciseEntry {
	kind := t.Kind.Normalize()
	sets := make([]Set, len(t.Sets))
	for i, s := range t.Sets {
		sets[i] = s.Values(kind)
	}
	out := ExerciseEntry{
		Name: t.Name,
		Kind: kind,
		Sets: sets,
		Note: t.Note,
	}
	if t.RestOverrideSeconds != nil {
		out.RestOverrideSeconds = IntPtr(*t.RestOverrideSeconds)
	}
	return out
}
