// Package app is the single entry point a UI drives: every command runs under
// one lock, and every state change is handed to a background persister.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mansoorceksport/hutraz/internal/domain"
	"github.com/mansoorceksport/hutraz/internal/library"
	"github.com/mansoorceksport/hutraz/internal/repository"
	"github.com/mansoorceksport/hutraz/internal/scheduler"
	"github.com/mansoorceksport/hutraz/internal/service"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// TemplateUpdate chooses what Finish writes back into templates.
type TemplateUpdate int

const (
	// UpdateNone leaves templates alone.
	UpdateNone TemplateUpdate = iota
	// UpdateSource updates only the template the session was started from.
	UpdateSource
	// UpdateAllMatching updates every template sharing an exercise name with the workout.
	UpdateAllMatching
)

// FinishOptions carries the user's choices on the finish dialog.
type FinishOptions struct {
	ConfirmIncomplete bool
	TemplateUpdate    TemplateUpdate
}

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Store     domain.StateStore
	Scheduler scheduler.Scheduler
	// Clock defaults to the scheduler's clock.
	Clock func() time.Time
	// PersistTimeout bounds each background write.
	PersistTimeout time.Duration
}

// App ties the session engine, templates, history, settings and the exercise
// library to one store.
type App struct {
	mu sync.Mutex

	clock     func() time.Time
	persister *repository.Persister
	metrics   *metrics

	session   *service.SessionService
	templates *service.TemplateService
	history   *service.HistoryService
	settings  *service.SettingsService
	library   *library.Library

	onRest func(service.RestResult)
}

// NewApp wires the services. Call Load before using it.
func NewApp(deps AppDependencies) (*App, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if deps.Scheduler == nil {
		deps.Scheduler = scheduler.NewTickerScheduler()
	}
	if deps.Clock == nil {
		deps.Clock = deps.Scheduler.Now
	}

	lib, err := library.New(deps.Store)
	if err != nil {
		return nil, err
	}
	m, err := newMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	a := &App{
		clock:     deps.Clock,
		persister: repository.NewPersister(deps.Store, deps.PersistTimeout),
		metrics:   m,
		session:   service.NewSessionService(deps.Store, deps.Scheduler),
		templates: service.NewTemplateService(deps.Store, deps.Clock),
		history:   service.NewHistoryService(deps.Store),
		settings:  service.NewSettingsService(deps.Store),
		library:   lib,
	}
	a.session.OnChange(a.sessionChanged)
	a.session.OnRestComplete(a.restCompleted)
	return a, nil
}

// Load reads every persisted key concurrently, then applies defaults and the
// legacy template migration.
func (a *App) Load(ctx context.Context) error {
	var templateChange domain.Change

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.session.Load(ctx) })
	g.Go(func() error { return a.history.Load(ctx) })
	g.Go(func() error { return a.settings.Load(ctx) })
	g.Go(func() error { return a.library.Load(ctx) })
	g.Go(func() error {
		change, err := a.templates.Load(ctx)
		templateChange = change
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.session.SetDefaultRest(a.settings.Get().DefaultRestSeconds)
	a.persist(templateChange)

	logrus.WithFields(logrus.Fields{
		"state":     a.session.State().String(),
		"workouts":  a.history.Len(),
		"templates": a.templates.TemplateCount(),
	}).Info("✓ state loaded")
	return nil
}

// Close stops the timers and waits for pending writes.
func (a *App) Close() error {
	a.session.Stop()
	return a.persister.Close()
}

// Flush waits until every change so far has reached the store.
func (a *App) Flush(ctx context.Context) error {
	return a.persister.Flush(ctx)
}

// OnRestComplete registers the UI's haptic or audio feedback for a finished rest.
func (a *App) OnRestComplete(fn func(service.RestResult)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onRest = fn
}

// WatchElapsed registers a per-second callback while a session is active.
func (a *App) WatchElapsed(fn func(seconds int)) {
	a.session.WatchElapsed(fn)
}

// persist must run with a.mu held so snapshots queue in mutation order.
func (a *App) persist(change domain.Change) {
	if change == domain.ChangeNone {
		return
	}
	values := make(map[string]interface{})
	for _, snap := range []map[string]interface{}{
		a.session.Snapshot(change),
		a.templates.Snapshot(change),
		a.history.Snapshot(change),
		a.settings.Snapshot(change),
		a.library.Snapshot(change),
	} {
		for k, v := range snap {
			values[k] = v
		}
	}
	if err := a.persister.Enqueue(values); err != nil {
		logrus.WithError(err).Warn("⚠️ failed to queue state")
	}
}

func (a *App) apply(change domain.Change, err error) error {
	if err != nil {
		return err
	}
	a.persist(change)
	return nil
}

func (a *App) sessionChanged(change domain.Change) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.persist(change)
}

func (a *App) restCompleted(res service.RestResult) {
	a.metrics.restTaken(res.Seconds)
	a.mu.Lock()
	hook := a.onRest
	a.mu.Unlock()
	if hook != nil {
		hook(res)
	}
}

// ----- session -----

// StartFromTemplate seeds a session from a template.
func (a *App) StartFromTemplate(ref domain.TemplateRef) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	tpl, err := a.templates.Template(ref)
	if err != nil {
		return err
	}
	return a.apply(a.session.Start(service.FromTemplate(tpl)))
}

// StartFromHistory repeats workout i of the history.
func (a *App) StartFromHistory(i int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	w, err := a.history.Get(i)
	if err != nil {
		return err
	}
	return a.apply(a.session.Start(service.FromWorkout(w)))
}

// StartBlank starts an empty session.
func (a *App) StartBlank(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.session.Start(service.Blank(name)))
}

// EditTemplate opens a template in the session editor.
func (a *App) EditTemplate(ref domain.TemplateRef) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	tpl, err := a.templates.Template(ref)
	if err != nil {
		return err
	}
	return a.apply(a.session.Start(service.EditTemplate(ref, tpl)))
}

// DiscardAndStart resolves a start conflict by dropping the current session.
func (a *App) DiscardAndStart() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.session.DiscardAndStart())
}

// KeepCurrent resolves a start conflict by keeping the current session.
func (a *App) KeepCurrent() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session.KeepCurrent()
}

func (a *App) AddExercise(name string, kind domain.ExerciseKind) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.session.AddExercise(name, kind))
}

func (a *App) RemoveExercise(i int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.session.RemoveExercise(i))
}

func (a *App) ReorderExercise(i, direction int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.session.ReorderExercise(i, direction))
}

func (a *App) AddSet(i int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.session.AddSet(i))
}

func (a *App) UpdateSetField(i, j int, field domain.SetField, value string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.session.UpdateSetField(i, j, field, value))
}

func (a *App) CompleteSet(i, j int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	ended, change, err := a.session.CompleteSet(i, j)
	if err != nil {
		return err
	}
	if ended != nil {
		a.metrics.restTaken(ended.Seconds)
	}
	a.metrics.setCompleted()
	a.persist(change)
	return nil
}

func (a *App) DeleteSet(i, j int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.session.DeleteSet(i, j))
}

// SetRestOverride sets the rest for exercise i; nil falls back to the default.
func (a *App) SetRestOverride(i int, seconds *int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.session.SetRestOverride(i, seconds))
}

func (a *App) SetNote(i int, note string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.session.SetNote(i, note))
}

func (a *App) RenameSession(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(a.session.Rename(name))
}

// SkipRest ends the running rest period, recording the time actually rested.
func (a *App) SkipRest() *service.RestResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	res, change := a.session.SkipRest()
	if res != nil {
		a.metrics.restTaken(res.Seconds)
	}
	a.persist(change)
	return res
}

// Finish logs the session and returns the post-workout summary.
func (a *App) Finish(ctx context.Context, opts FinishOptions) (*domain.Summary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	prior := a.history.All()
	workout, change, err := a.session.Finish(service.FinishOptions{ConfirmIncomplete: opts.ConfirmIncomplete})
	if err != nil {
		return nil, err
	}
	change |= a.history.Append(*workout)

	switch opts.TemplateUpdate {
	case UpdateSource:
		if workout.TemplateName != nil {
			tc, err := a.templates.UpdateTemplateFromWorkout(*workout.TemplateName, *workout)
			if err != nil {
				logrus.WithError(err).WithField("template", *workout.TemplateName).Warn("source template not updated")
			}
			change |= tc
		}
	case UpdateAllMatching:
		change |= a.templates.UpdateAllMatchingTemplates(*workout)
	}

	summary := service.Summary(*workout, prior, a.templates.Folders(), a.settings.Get().BodyweightKg)
	a.persist(change)
	a.metrics.workoutFinished(ctx, summary)
	return &summary, nil
}

// Cancel discards the session without logging it.
func (a *App) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.persist(a.session.Cancel())
}

// SaveEditedTemplate writes the template editor's exercises back into the template.
func (a *App) SaveEditedTemplate() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	ref, exercises, change, err := a.session.SaveEditedTemplate()
	if err != nil {
		return err
	}
	tc, err := a.templates.ReplaceExercises(ref, exercises)
	if err != nil {
		// the session is already closed; the template vanished while being edited
		a.persist(change)
		return err
	}
	a.persist(change | tc)
	return nil
}

// SaveSessionAsTemplate stores the current exercises as a new template.
func (a *App) SaveSessionAsTemplate(folderID, name string) (domain.TemplateRef, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ref, change, err := a.templates.SaveSessionAsTemplate(folderID, name, a.session.Session().Exercises)
	if err != nil {
		return ref, err
	}
	a.persist(change)
	return ref, nil
}

// ----- queries -----

func (a *App) State() domain.SessionState {
	return a.session.State()
}

func (a *App) Session() domain.Session {
	return a.session.Session()
}

func (a *App) RestTimer() *domain.RestTimer {
	return a.session.RestTimer()
}

func (a *App) HasPendingStart() bool {
	return a.session.HasPendingStart()
}

func (a *App) Elapsed() int {
	return a.session.Elapsed()
}

func (a *App) History() []domain.Workout {
	return a.history.All()
}

func (a *App) Folders() []domain.Folder {
	return a.templates.Folders()
}

func (a *App) Settings() domain.Settings {
	return a.settings.Get()
}

func (a *App) WeekActivity() domain.WeekActivity {
	return service.WeekActivity(a.history.All(), a.settings.Get().WeekStartDay, a.clock())
}

func (a *App) SuggestNext() *domain.Suggestion {
	return service.SuggestNext(a.history.All(), a.templates.Folders())
}

// BestSet is the all-time best logged set of an exercise, for its "PR:" line.
func (a *App) BestSet(name string, kind domain.ExerciseKind) *domain.BestSet {
	return service.BestSet(name, kind, a.history.All(), a.settings.Get().BodyweightKg)
}

func (a *App) Totals() domain.Totals {
	return service.Totals(a.history.All())
}

func (a *App) Exercises(opts library.FilterOptions) []library.Exercise {
	return a.library.Filter(opts)
}

// Library exposes the catalogue for grouping and labels.
func (a *App) Library() *library.Library {
	return a.library
}
