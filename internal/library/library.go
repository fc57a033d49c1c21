// Package library holds the built-in exercise catalogue and the user's custom
// exercises, with the filters the exercise picker uses.
package library

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mansoorceksport/hutraz/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed exercises.yaml
var defaultCatalogue []byte

const (
	MovementAll   = "all"
	MovementPush  = "push"
	MovementPull  = "pull"
	MovementUpper = "upper"
	MovementLower = "lower"

	RegionUpper = "upper"
	RegionLower = "lower"

	EquipmentAll = "all"
)

// Exercise is a catalogue entry.
type Exercise struct {
	Name      string              `json:"name"`
	Muscle    string              `json:"muscle"`
	Equipment string              `json:"equipment"`
	Kind      domain.ExerciseKind `json:"type"`
	Movement  string              `json:"movement,omitempty"`
	Custom    bool                `json:"isCustom,omitempty"`
}

// MuscleGroup describes one muscle bucket of the catalogue.
type MuscleGroup struct {
	ID       string `yaml:"id"`
	Label    string `yaml:"label"`
	Movement string `yaml:"movement"`
	Body     string `yaml:"body"`
}

// Group is a muscle bucket with the exercises that belong to it.
type Group struct {
	Muscle    MuscleGroup
	Exercises []Exercise
}

// FilterOptions narrows the catalogue. Zero values match everything.
type FilterOptions struct {
	Search    string
	Movement  string
	Muscles   []string
	Equipment string
	MyOnly    bool
}

type catalogue struct {
	Muscles   []MuscleGroup `yaml:"muscles"`
	Equipment []string      `yaml:"equipment"`
	Exercises []struct {
		Name      string `yaml:"name"`
		Muscle    string `yaml:"muscle"`
		Equipment string `yaml:"equipment"`
		Kind      string `yaml:"kind"`
		Movement  string `yaml:"movement"`
	} `yaml:"exercises"`
}

// Library merges the built-in catalogue with custom exercises.
type Library struct {
	mu        sync.RWMutex
	store     domain.StateStore
	muscles   []MuscleGroup
	equipment []string
	defaults  []Exercise
	custom    []Exercise
}

// New parses the embedded catalogue.
func New(store domain.StateStore) (*Library, error) {
	return Parse(store, defaultCatalogue)
}

// Parse builds a library from a YAML catalogue.
func Parse(store domain.StateStore, data []byte) (*Library, error) {
	var c catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse exercise catalogue: %w", err)
	}
	lib := &Library{store: store, muscles: c.Muscles, equipment: c.Equipment}
	for _, e := range c.Exercises {
		kind, err := domain.ParseKind(e.Kind)
		if err != nil {
			return nil, fmt.Errorf("exercise %q: %w", e.Name, err)
		}
		lib.defaults = append(lib.defaults, Exercise{
			Name:      e.Name,
			Muscle:    e.Muscle,
			Equipment: e.Equipment,
			Kind:      kind,
			Movement:  e.Movement,
		})
	}
	return lib, nil
}

// Load reads the custom exercises.
func (l *Library) Load(ctx context.Context) error {
	raw, err := l.store.Load(ctx, domain.KeyCustomExercises)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", domain.KeyCustomExercises, err)
	}
	var custom []Exercise
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &custom); err != nil {
			return fmt.Errorf("failed to decode %s: %w", domain.KeyCustomExercises, err)
		}
	}
	for i := range custom {
		custom[i].Custom = true
		custom[i].Kind = custom[i].Kind.Normalize()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.custom = custom
	return nil
}

// Snapshot returns the persisted custom exercises when change covers them.
func (l *Library) Snapshot(change domain.Change) map[string]interface{} {
	out := make(map[string]interface{})
	if !change.Has(domain.ChangeCustomExercises) {
		return out
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out[domain.KeyCustomExercises] = append([]Exercise{}, l.custom...)
	return out
}

// Muscles lists the muscle groups in display order.
func (l *Library) Muscles() []MuscleGroup {
	return append([]MuscleGroup(nil), l.muscles...)
}

// Equipment lists the known equipment types.
func (l *Library) Equipment() []string {
	return append([]string(nil), l.equipment...)
}

// All returns built-in exercises followed by custom ones.
func (l *Library) All() []Exercise {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Exercise, 0, len(l.defaults)+len(l.custom))
	out = append(out, l.defaults...)
	return append(out, l.custom...)
}

// Find looks an exercise up by exact name.
func (l *Library) Find(name string) (Exercise, bool) {
	for _, e := range l.All() {
		if e.Name == name {
			return e, true
		}
	}
	return Exercise{}, false
}

// AddCustom stores a user-defined exercise.
func (l *Library) AddCustom(ex Exercise) (domain.Change, error) {
	ex, err := l.normalize(ex)
	if err != nil {
		return domain.ChangeNone, err
	}
	if _, ok := l.Find(ex.Name); ok {
		return domain.ChangeNone, domain.ErrDuplicateName
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	custom := append([]Exercise{}, l.custom...)
	l.custom = append(custom, ex)
	return domain.ChangeCustomExercises, nil
}

// UpdateCustom replaces the custom exercise called name.
func (l *Library) UpdateCustom(name string, ex Exercise) (domain.Change, error) {
	ex, err := l.normalize(ex)
	if err != nil {
		return domain.ChangeNone, err
	}
	if _, ok := l.Find(ex.Name); ok && ex.Name != name {
		return domain.ChangeNone, domain.ErrDuplicateName
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.customIndex(name)
	if i < 0 {
		return domain.ChangeNone, domain.ErrExerciseNotFound
	}
	custom := append([]Exercise{}, l.custom...)
	custom[i] = ex
	l.custom = custom
	return domain.ChangeCustomExercises, nil
}

// DeleteCustom removes a custom exercise. Built-in exercises cannot be deleted.
func (l *Library) DeleteCustom(name string) (domain.Change, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.customIndex(name)
	if i < 0 {
		return domain.ChangeNone, domain.ErrExerciseNotFound
	}
	custom := make([]Exercise, 0, len(l.custom)-1)
	custom = append(custom, l.custom[:i]...)
	l.custom = append(custom, l.custom[i+1:]...)
	return domain.ChangeCustomExercises, nil
}

// Filter returns the exercises matching every option, in catalogue order.
func (l *Library) Filter(opts FilterOptions) []Exercise {
	search := strings.ToLower(strings.TrimSpace(opts.Search))
	var out []Exercise
	for _, e := range l.All() {
		if search != "" && !strings.Contains(strings.ToLower(e.Name), search) {
			continue
		}
		if opts.MyOnly && !e.Custom {
			continue
		}
		switch opts.Movement {
		case MovementPush, MovementPull:
			if e.Movement != opts.Movement {
				continue
			}
		case MovementUpper, MovementLower:
			if l.BodyRegion(e) != opts.Movement {
				continue
			}
		}
		if len(opts.Muscles) > 0 && !contains(opts.Muscles, e.Muscle) {
			continue
		}
		if opts.Equipment != "" && opts.Equipment != EquipmentAll && e.Equipment != opts.Equipment {
			continue
		}
		out = append(out, e)
	}
	return out
}

// GroupByMuscle buckets exercises by muscle in catalogue order. Unknown
// muscles follow, sorted by name. Empty buckets are omitted.
func (l *Library) GroupByMuscle(exercises []Exercise) []Group {
	buckets := make(map[string][]Exercise)
	for _, e := range exercises {
		buckets[e.Muscle] = append(buckets[e.Muscle], e)
	}
	var groups []Group
	for _, m := range l.muscles {
		if exs := buckets[m.ID]; len(exs) > 0 {
			groups = append(groups, Group{Muscle: m, Exercises: exs})
		}
		delete(buckets, m.ID)
	}
	var rest []string
	for id := range buckets {
		rest = append(rest, id)
	}
	sort.Strings(rest)
	for _, id := range rest {
		groups = append(groups, Group{Muscle: MuscleGroup{ID: id, Label: id}, Exercises: buckets[id]})
	}
	return groups
}

// BodyRegion is upper or lower, from the exercise's muscle group.
func (l *Library) BodyRegion(e Exercise) string {
	if m, ok := l.muscle(e.Muscle); ok && m.Body != "" {
		return m.Body
	}
	return RegionUpper
}

// MovementLabel is the short tag shown next to an exercise.
func MovementLabel(e Exercise) string {
	switch {
	case e.Movement == MovementPush:
		return "Push"
	case e.Movement == MovementPull:
		return "Pull"
	case e.Muscle == "core":
		return "Core"
	}
	return ""
}

func (l *Library) normalize(ex Exercise) (Exercise, error) {
	ex.Name = strings.TrimSpace(ex.Name)
	if ex.Name == "" {
		return ex, domain.ErrBlankName
	}
	ex.Kind = ex.Kind.Normalize()
	if !ex.Kind.Valid() {
		return ex, fmt.Errorf("%w: kind %q", domain.ErrInvalidSetting, ex.Kind)
	}
	if ex.Movement == "" && ex.Muscle != "core" {
		if m, ok := l.muscle(ex.Muscle); ok {
			ex.Movement = m.Movement
		}
	}
	if ex.Muscle == "core" {
		ex.Movement = ""
	}
	ex.Custom = true
	return ex, nil
}

func (l *Library) muscle(id string) (MuscleGroup, bool) {
	for _, m := range l.muscles {
		if m.ID == id {
			return m, true
		}
	}
	return MuscleGroup{}, false
}

func (l *Library) customIndex(name string) int {
	for i, e := range l.custom {
		if e.Name == name {
			return i
		}
	}
	return -1
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
