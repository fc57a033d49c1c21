package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mansoorceksport/hutraz/internal/domain"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// TemplateService owns the folder and template hierarchy. There is always at
// least one folder.
type TemplateService struct {
	mu      sync.Mutex
	store   domain.StateStore
	now     func() time.Time
	folders []domain.Folder
}

func NewTemplateService(store domain.StateStore, now func() time.Time) *TemplateService {
	if now == nil {
		now = time.Now
	}
	return &TemplateService{store: store, now: now}
}

// generateULID creates a new ULID string
func (s *TemplateService) generateULID() string {
	return ulid.MustNew(ulid.Timestamp(s.now()), rand.Reader).String()
}

// Load reads folders, migrating the legacy flat template list when no folders
// were ever written. The returned change is non-empty when the loaded state
// differs from what is stored.
func (s *TemplateService) Load(ctx context.Context) (domain.Change, error) {
	var folders []domain.Folder
	found, err := loadKey(ctx, s.store, domain.KeyFolders, &folders)
	if err != nil {
		return domain.ChangeNone, err
	}

	change := domain.ChangeNone
	if !found {
		raw, err := s.store.Load(ctx, domain.KeyLegacyTemplates)
		if err != nil {
			return domain.ChangeNone, fmt.Errorf("failed to load %s: %w", domain.KeyLegacyTemplates, err)
		}
		migrated, err := MigrateLegacyTemplates(raw)
		if err != nil {
			logrus.WithError(err).Warn("skipping unreadable legacy templates")
		}
		if len(migrated) > 0 {
			logrus.WithField("templates", len(migrated[0].Templates)).Info("migrated legacy templates")
			folders = migrated
			change = domain.ChangeFolders
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders = domain.CloneFolders(folders)
	if s.ensureIDs() {
		change |= domain.ChangeFolders
	}
	if len(s.folders) == 0 {
		s.folders = []domain.Folder{s.newFolder(domain.DefaultFolderName)}
		change |= domain.ChangeFolders
	}
	return change, nil
}

// MigrateLegacyTemplates wraps a flat template array into one default folder.
// An absent or empty array yields no folders.
func MigrateLegacyTemplates(raw json.RawMessage) ([]domain.Folder, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var templates []domain.Template
	if err := json.Unmarshal(raw, &templates); err != nil {
		return nil, fmt.Errorf("failed to decode legacy templates: %w", err)
	}
	if len(templates) == 0 {
		return nil, nil
	}
	return []domain.Folder{{
		Name:      domain.DefaultFolderName,
		Open:      true,
		Templates: templates,
	}}, nil
}

// ensureIDs assigns ids to folders and templates written without one.
func (s *TemplateService) ensureIDs() bool {
	changed := false
	for i := range s.folders {
		if s.folders[i].ID == "" {
			s.folders[i].ID = s.generateULID()
			changed = true
		}
		for j := range s.folders[i].Templates {
			if s.folders[i].Templates[j].ID == "" {
				s.folders[i].Templates[j].ID = s.generateULID()
				changed = true
			}
		}
	}
	return changed
}

func (s *TemplateService) newFolder(name string) domain.Folder {
	return domain.Folder{ID: s.generateULID(), Name: name, Open: true, Templates: []domain.Template{}}
}

// Snapshot returns the persisted folders when change covers them.
func (s *TemplateService) Snapshot(change domain.Change) map[string]interface{} {
	out := make(map[string]interface{})
	if !change.Has(domain.ChangeFolders) {
		return out
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out[domain.KeyFolders] = domain.CloneFolders(s.folders)
	return out
}

// Folders returns a copy of the hierarchy.
func (s *TemplateService) Folders() []domain.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneFolders(s.folders)
}

// TemplateCount counts templates across all folders.
func (s *TemplateService) TemplateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, f := range s.folders {
		n += len(f.Templates)
	}
	return n
}

// CreateFolder appends a folder and returns its id.
func (s *TemplateService) CreateFolder(name string) (string, domain.Change, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ChangeNone, domain.ErrBlankName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.folders {
		if f.Name == name {
			return "", domain.ChangeNone, domain.ErrDuplicateName
		}
	}
	folder := s.newFolder(name)
	folders := domain.CloneFolders(s.folders)
	s.folders = append(folders, folder)
	return folder.ID, domain.ChangeFolders, nil
}

// RenameFolder changes a folder's name.
func (s *TemplateService) RenameFolder(id, name string) (domain.Change, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ChangeNone, domain.ErrBlankName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fi := s.folderIndex(id)
	if fi < 0 {
		return domain.ChangeNone, domain.ErrFolderNotFound
	}
	for i, f := range s.folders {
		if i != fi && f.Name == name {
			return domain.ChangeNone, domain.ErrDuplicateName
		}
	}
	folders := domain.CloneFolders(s.folders)
	folders[fi].Name = name
	s.folders = folders
	return domain.ChangeFolders, nil
}

// ToggleFolder flips a folder between open and collapsed.
func (s *TemplateService) ToggleFolder(id string) (domain.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fi := s.folderIndex(id)
	if fi < 0 {
		return domain.ChangeNone, domain.ErrFolderNotFound
	}
	folders := domain.CloneFolders(s.folders)
	folders[fi].Open = !folders[fi].Open
	s.folders = folders
	return domain.ChangeFolders, nil
}

// MoveFolder swaps a folder with its neighbour; a no-op at either end.
func (s *TemplateService) MoveFolder(id string, direction int) (domain.Change, error) {
	if direction != -1 && direction != 1 {
		return domain.ChangeNone, domain.ErrInvalidDirection
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fi := s.folderIndex(id)
	if fi < 0 {
		return domain.ChangeNone, domain.ErrFolderNotFound
	}
	fj := fi + direction
	if fj < 0 || fj >= len(s.folders) {
		return domain.ChangeNone, nil
	}
	folders := domain.CloneFolders(s.folders)
	folders[fi], folders[fj] = folders[fj], folders[fi]
	s.folders = folders
	return domain.ChangeFolders, nil
}

// DeleteFolder removes a folder and moves its templates to the end of the
// first remaining folder. The last folder cannot be deleted.
func (s *TemplateService) DeleteFolder(id string) (domain.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fi := s.folderIndex(id)
	if fi < 0 {
		return domain.ChangeNone, domain.ErrFolderNotFound
	}
	if len(s.folders) == 1 {
		return domain.ChangeNone, domain.ErrLastFolder
	}
	folders := domain.CloneFolders(s.folders)
	orphans := folders[fi].Templates
	folders = append(folders[:fi], folders[fi+1:]...)
	folders[0].Templates = append(folders[0].Templates, orphans...)
	s.folders = folders

	logrus.WithFields(logrus.Fields{
		"folder":    id,
		"moved":     len(orphans),
		"target":    folders[0].Name,
		"remaining": len(folders),
	}).Info("folder deleted")
	return domain.ChangeFolders, nil
}

// CreateTemplate appends a template to a folder. Progress markers are stripped.
func (s *TemplateService) CreateTemplate(folderID, name string, exercises []domain.TemplateExercise) (domain.TemplateRef, domain.Change, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.TemplateRef{}, domain.ChangeNone, domain.ErrBlankName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fi := s.folderIndex(folderID)
	if fi < 0 {
		return domain.TemplateRef{}, domain.ChangeNone, domain.ErrFolderNotFound
	}
	if _, _, ok := s.findByName(name); ok {
		return domain.TemplateRef{}, domain.ChangeNone, domain.ErrDuplicateName
	}
	tpl := domain.Template{ID: s.generateULID(), Name: name, Exercises: stripExercises(exercises)}
	folders := domain.CloneFolders(s.folders)
	folders[fi].Templates = append(folders[fi].Templates, tpl)
	s.folders = folders
	return domain.TemplateRef{FolderID: folderID, TemplateID: tpl.ID}, domain.ChangeFolders, nil
}

// SaveSessionAsTemplate stores the session's exercises as a new template.
func (s *TemplateService) SaveSessionAsTemplate(folderID, name string, entries []domain.ExerciseEntry) (domain.TemplateRef, domain.Change, error) {
	if len(entries) == 0 {
		return domain.TemplateRef{}, domain.ChangeNone, domain.ErrNoExercises
	}
	exercises := make([]domain.TemplateExercise, len(entries))
	for i, e := range entries {
		exercises[i] = domain.ToTemplateExercise(e)
	}
	return s.CreateTemplate(folderID, name, exercises)
}

// RenameTemplate changes a template's name. Workouts logged under the old name
// no longer count toward its progression.
func (s *TemplateService) RenameTemplate(ref domain.TemplateRef, name string) (domain.Change, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ChangeNone, domain.ErrBlankName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fi, ti, err := s.locate(ref)
	if err != nil {
		return domain.ChangeNone, err
	}
	if other, _, ok := s.findByName(name); ok && other != ref {
		return domain.ChangeNone, domain.ErrDuplicateName
	}
	folders := domain.CloneFolders(s.folders)
	folders[fi].Templates[ti].Name = name
	s.folders = folders
	return domain.ChangeFolders, nil
}

// ReplaceExercises overwrites a template's exercises, as when saving an edit.
func (s *TemplateService) ReplaceExercises(ref domain.TemplateRef, exercises []domain.TemplateExercise) (domain.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fi, ti, err := s.locate(ref)
	if err != nil {
		return domain.ChangeNone, err
	}
	folders := domain.CloneFolders(s.folders)
	folders[fi].Templates[ti].Exercises = stripExercises(exercises)
	s.folders = folders
	return domain.ChangeFolders, nil
}

// DeleteTemplate removes a template.
func (s *TemplateService) DeleteTemplate(ref domain.TemplateRef) (domain.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fi, ti, err := s.locate(ref)
	if err != nil {
		return domain.ChangeNone, err
	}
	folders := domain.CloneFolders(s.folders)
	tpls := folders[fi].Templates
	folders[fi].Templates = append(tpls[:ti], tpls[ti+1:]...)
	s.folders = folders
	return domain.ChangeFolders, nil
}

// MoveTemplate moves a template one position. Moving up from the top of a
// folder puts it at the end of the previous folder, moving down from the
// bottom puts it at the start of the next one. It returns the new ref.
func (s *TemplateService) MoveTemplate(ref domain.TemplateRef, direction int) (domain.TemplateRef, domain.Change, error) {
	if direction != -1 && direction != 1 {
		return ref, domain.ChangeNone, domain.ErrInvalidDirection
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fi, ti, err := s.locate(ref)
	if err != nil {
		return ref, domain.ChangeNone, err
	}
	folders := domain.CloneFolders(s.folders)
	tpls := folders[fi].Templates
	tj := ti + direction
	if tj >= 0 && tj < len(tpls) {
		tpls[ti], tpls[tj] = tpls[tj], tpls[ti]
		s.folders = folders
		return ref, domain.ChangeFolders, nil
	}

	fj := fi + direction
	if fj < 0 || fj >= len(folders) {
		return ref, domain.ChangeNone, nil
	}
	tpl := tpls[ti]
	folders[fi].Templates = append(tpls[:ti], tpls[ti+1:]...)
	if direction < 0 {
		folders[fj].Templates = append(folders[fj].Templates, tpl)
	} else {
		folders[fj].Templates = append([]domain.Template{tpl}, folders[fj].Templates...)
	}
	s.folders = folders
	return domain.TemplateRef{FolderID: folders[fj].ID, TemplateID: tpl.ID}, domain.ChangeFolders, nil
}

// MoveTemplateToFolder appends a template to another folder.
func (s *TemplateService) MoveTemplateToFolder(ref domain.TemplateRef, folderID string) (domain.TemplateRef, domain.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fi, ti, err := s.locate(ref)
	if err != nil {
		return ref, domain.ChangeNone, err
	}
	fj := s.folderIndex(folderID)
	if fj < 0 {
		return ref, domain.ChangeNone, domain.ErrFolderNotFound
	}
	if fi == fj {
		return ref, domain.ChangeNone, nil
	}
	folders := domain.CloneFolders(s.folders)
	tpls := folders[fi].Templates
	tpl := tpls[ti]
	folders[fi].Templates = append(tpls[:ti], tpls[ti+1:]...)
	folders[fj].Templates = append(folders[fj].Templates, tpl)
	s.folders = folders
	return domain.TemplateRef{FolderID: folderID, TemplateID: tpl.ID}, domain.ChangeFolders, nil
}

// Template returns a copy of the referenced template.
func (s *TemplateService) Template(ref domain.TemplateRef) (domain.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fi, ti, err := s.locate(ref)
	if err != nil {
		return domain.Template{}, err
	}
	return s.folders[fi].Templates[ti].Clone(), nil
}

// FindByName returns the first template with the given name in folder order.
func (s *TemplateService) FindByName(name string) (domain.TemplateRef, domain.Template, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, tpl, ok := s.findByName(name)
	if !ok {
		return ref, tpl, false
	}
	return ref, tpl.Clone(), true
}

// UpdateAllMatchingTemplates overwrites, in every template, the sets and note
// of each exercise the workout logged under the same name and kind.
func (s *TemplateService) UpdateAllMatchingTemplates(w domain.Workout) domain.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	source := workoutExercises(w)
	folders := domain.CloneFolders(s.folders)
	updated := 0
	for fi := range folders {
		for ti := range folders[fi].Templates {
			updated += syncTemplate(&folders[fi].Templates[ti], source)
		}
	}
	if updated == 0 {
		return domain.ChangeNone
	}
	s.folders = folders
	logrus.WithFields(logrus.Fields{"workout": w.Name, "exercises": updated}).Info("templates updated from workout")
	return domain.ChangeFolders
}

// UpdateTemplateFromWorkout does the same for the named template only.
func (s *TemplateService) UpdateTemplateFromWorkout(name string, w domain.Workout) (domain.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, _, ok := s.findByName(name)
	if !ok {
		return domain.ChangeNone, domain.ErrTemplateNotFound
	}
	fi, ti, err := s.locate(ref)
	if err != nil {
		return domain.ChangeNone, err
	}
	folders := domain.CloneFolders(s.folders)
	if syncTemplate(&folders[fi].Templates[ti], workoutExercises(w)) == 0 {
		return domain.ChangeNone, nil
	}
	s.folders = folders
	return domain.ChangeFolders, nil
}

// exerciseKey matches template exercises to logged ones. Sets only carry over
// between exercises of the same kind.
type exerciseKey struct {
	name string
	kind domain.ExerciseKind
}

func workoutExercises(w domain.Workout) map[exerciseKey]domain.TemplateExercise {
	out := make(map[exerciseKey]domain.TemplateExercise, len(w.Exercises))
	for _, ex := range w.Exercises {
		key := exerciseKey{ex.Name, ex.Kind.Normalize()}
		if _, dup := out[key]; dup {
			continue
		}
		out[key] = domain.ToTemplateExercise(ex)
	}
	return out
}

func syncTemplate(t *domain.Template, source map[exerciseKey]domain.TemplateExercise) int {
	n := 0
	for i, ex := range t.Exercises {
		src, ok := source[exerciseKey{ex.Name, ex.Kind.Normalize()}]
		if !ok {
			continue
		}
		t.Exercises[i].Sets = append([]domain.Set(nil), src.Sets...)
		t.Exercises[i].Note = src.Note
		n++
	}
	return n
}

func stripExercises(exercises []domain.TemplateExercise) []domain.TemplateExercise {
	out := make([]domain.TemplateExercise, len(exercises))
	for i, ex := range exercises {
		out[i] = domain.ToTemplateExercise(ex.ToEntry())
	}
	return out
}

func (s *TemplateService) folderIndex(id string) int {
	for i, f := range s.folders {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func (s *TemplateService) locate(ref domain.TemplateRef) (int, int, error) {
	fi := s.folderIndex(ref.FolderID)
	if fi < 0 {
		return -1, -1, domain.ErrTemplateNotFound
	}
	for ti, t := range s.folders[fi].Templates {
		if t.ID == ref.TemplateID {
			return fi, ti, nil
		}
	}
	return -1, -1, domain.ErrTemplateNotFound
}

func (s *TemplateService) findByName(name string) (domain.TemplateRef, domain.Template, bool) {
	for _, f := range s.folders {
		for _, t := range f.Templates {
			if t.Name == name {
				return domain.TemplateRef{FolderID: f.ID, TemplateID: t.ID}, t, true
			}
		}
	}
	return domain.TemplateRef{}, domain.Template{}, false
}
