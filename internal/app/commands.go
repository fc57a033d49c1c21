package app

import (
	"time"

	"github.com/mansoorceksport/hutraz/internal/domain"
	"github.com/mansoorceksport/hutraz/internal/library"
)

// ----- folders -----

func (a *App) CreateFolder(name string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, change, err := a.templates.CreateFolder(name)
	if err != nil {
		return "", err
	}
	a.persist(change)
	return id, nil
}

func (a *App) RenameFolder(id, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.templates.RenameFolder(id, name))
}

func (a *App) ToggleFolder(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.templates.ToggleFolder(id))
}

func (a *App) MoveFolder(id string, direction int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.templates.MoveFolder(id, direction))
}

// DeleteFolder moves the folder's templates into the first remaining folder.
func (a *App) DeleteFolder(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.templates.DeleteFolder(id))
}

// ----- templates -----

func (a *App) CreateTemplate(folderID, name string, exercises []domain.TemplateExercise) (domain.TemplateRef, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ref, change, err := a.templates.CreateTemplate(folderID, name, exercises)
	if err != nil {
		return ref, err
	}
	a.persist(change)
	return ref, nil
}

func (a *App) RenameTemplate(ref domain.TemplateRef, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.templates.RenameTemplate(ref, name))
}

func (a *App) DeleteTemplate(ref domain.TemplateRef) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.templates.DeleteTemplate(ref))
}

// MoveTemplate moves a template one step, crossing folder edges. It returns the new ref.
func (a *App) MoveTemplate(ref domain.TemplateRef, direction int) (domain.TemplateRef, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	next, change, err := a.templates.MoveTemplate(ref, direction)
	if err != nil {
		return ref, err
	}
	a.persist(change)
	return next, nil
}

func (a *App) MoveTemplateToFolder(ref domain.TemplateRef, folderID string) (domain.TemplateRef, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	next, change, err := a.templates.MoveTemplateToFolder(ref, folderID)
	if err != nil {
		return ref, err
	}
	a.persist(change)
	return next, nil
}

func (a *App) Template(ref domain.TemplateRef) (domain.Template, error) {
	return a.templates.Template(ref)
}

// ----- history -----

// DeleteWorkout removes workout i, counted from the newest.
func (a *App) DeleteWorkout(i int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.history.DeleteWorkout(i))
}

// ----- settings -----

// UpdateDefaultRest also applies to rest periods started from now on.
func (a *App) UpdateDefaultRest(seconds int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	change, err := a.settings.UpdateDefaultRest(seconds)
	if err != nil {
		return err
	}
	a.session.SetDefaultRest(seconds)
	a.persist(change)
	return nil
}

func (a *App) UpdateBodyweight(kg float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.settings.UpdateBodyweight(kg))
}

func (a *App) UpdateWeekStartDay(day time.Weekday) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.settings.UpdateWeekStartDay(day))
}

// ----- custom exercises -----

func (a *App) AddCustomExercise(ex library.Exercise) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.library.AddCustom(ex))
}

func (a *App) UpdateCustomExercise(name string, ex library.Exercise) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.library.UpdateCustom(name, ex))
}

func (a *App) DeleteCustomExercise(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.library.DeleteCustom(name))
}
