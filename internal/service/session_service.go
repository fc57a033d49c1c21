package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mansoorceksport/hutraz/internal/domain"
	"github.com/mansoorceksport/hutraz/internal/scheduler"
	"github.com/sirupsen/logrus"
)

// DefaultWorkoutName is used when a session is started without a name.
const DefaultWorkoutName = "Workout"

// StartSource seeds a new session.
type StartSource struct {
	name         string
	templateName *string
	editing      *domain.TemplateRef
	exercises    []domain.ExerciseEntry
}

// FromTemplate seeds a session from a template and links it for progression.
func FromTemplate(t domain.Template) StartSource {
	src := StartSource{name: t.Name, templateName: domain.StringPtr(t.Name)}
	for _, ex := range t.Exercises {
		src.exercises = append(src.exercises, ex.ToEntry())
	}
	return src
}

// FromWorkout repeats a logged workout with its values.
func FromWorkout(w domain.Workout) StartSource {
	src := StartSource{name: w.Name, exercises: domain.CloneEntries(w.Exercises)}
	if w.TemplateName != nil {
		src.templateName = domain.StringPtr(*w.TemplateName)
	}
	return src
}

// Blank starts an empty named session.
func Blank(name string) StartSource {
	return StartSource{name: strings.TrimSpace(name)}
}

// EditTemplate opens a template for editing. The session is bound to ref and
// saving writes back into the template instead of history.
func EditTemplate(ref domain.TemplateRef, t domain.Template) StartSource {
	src := FromTemplate(t)
	src.templateName = nil
	src.editing = &ref
	return src
}

// FinishOptions carries the user's answers to finish-time warnings.
type FinishOptions struct {
	// ConfirmIncomplete allows dropping sets that were never completed.
	ConfirmIncomplete bool
}

// SessionService is the workout session state machine. Mutators copy the
// exercise list, swap it in, and report which persisted keys changed; the
// caller decides when to persist.
type SessionService struct {
	mu sync.Mutex

	store domain.StateStore
	sched scheduler.Scheduler

	state       domain.SessionState
	session     domain.Session
	pending     *StartSource
	defaultRest int

	rest          *RestTimer
	elapsedCancel scheduler.Cancel
	elapsedTick   func(seconds int)

	onChange func(domain.Change)
	onRest   func(RestResult)
}

// NewSessionService creates an idle engine.
func NewSessionService(store domain.StateStore, sched scheduler.Scheduler) *SessionService {
	s := &SessionService{
		store:       store,
		sched:       sched,
		defaultRest: domain.DefaultRestSeconds,
	}
	s.rest = NewRestTimer(sched, s.guard, s.recordRest)
	s.rest.OnComplete(func(res RestResult) {
		s.mu.Lock()
		onChange, onRest := s.onChange, s.onRest
		s.mu.Unlock()
		if onChange != nil {
			onChange(domain.ChangeExercises)
		}
		if onRest != nil {
			onRest(res)
		}
	})
	return s
}

func (s *SessionService) guard(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// OnChange registers a hook for changes that happen outside a caller's
// mutation, i.e. a rest timer reaching zero.
func (s *SessionService) OnChange(fn func(domain.Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// OnRestComplete registers the notification fired when a rest period reaches zero.
func (s *SessionService) OnRestComplete(fn func(RestResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRest = fn
}

// WatchElapsed registers a per-second callback with the session's elapsed seconds.
// Ticks only arrive while a session is active.
func (s *SessionService) WatchElapsed(fn func(seconds int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsedTick = fn
}

// SetDefaultRest changes the rest used by exercises without an override.
func (s *SessionService) SetDefaultRest(seconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultRest = seconds
}

// Load restores the session persisted by a previous run.
func (s *SessionService) Load(ctx context.Context) error {
	var (
		exercises []domain.ExerciseEntry
		name      string
		startRaw  string
		tplName   *string
		editing   *domain.TemplateRef
	)
	if _, err := loadKey(ctx, s.store, domain.KeyExercises, &exercises); err != nil {
		return err
	}
	if _, err := loadKey(ctx, s.store, domain.KeyWorkoutName, &name); err != nil {
		return err
	}
	if _, err := loadKey(ctx, s.store, domain.KeyWorkoutStartTime, &startRaw); err != nil {
		return err
	}
	if _, err := loadKey(ctx, s.store, domain.KeyWorkoutTemplate, &tplName); err != nil {
		return err
	}
	if _, err := loadKey(ctx, s.store, domain.KeyEditingTemplate, &editing); err != nil {
		return err
	}

	session := domain.Session{
		Name:            name,
		Exercises:       domain.CloneEntries(exercises),
		TemplateName:    tplName,
		EditingTemplate: editing,
	}
	if startRaw != "" {
		if t, err := time.Parse(time.RFC3339, startRaw); err == nil {
			session.StartedAt = &t
		} else {
			logrus.WithError(err).Warn("ignoring unreadable workout start time")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
	switch {
	case editing != nil:
		s.state = domain.StateEditingTemplate
	case len(exercises) > 0 || session.StartedAt != nil:
		s.state = domain.StateActive
		if session.StartedAt == nil {
			now := s.sched.Now()
			s.session.StartedAt = &now
		}
		s.startElapsed()
	default:
		s.state = domain.StateIdle
	}
	return nil
}

// Snapshot returns the persisted representation of every key in change that
// this service owns.
func (s *SessionService) Snapshot(change domain.Change) map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]interface{})
	if change.Has(domain.ChangeExercises) {
		exercises := domain.CloneEntries(s.session.Exercises)
		out[domain.KeyExercises] = exercises
	}
	if change.Has(domain.ChangeWorkoutMeta) {
		out[domain.KeyWorkoutName] = s.session.Name
		if s.session.StartedAt != nil {
			out[domain.KeyWorkoutStartTime] = s.session.StartedAt.Format(time.RFC3339)
		} else {
			out[domain.KeyWorkoutStartTime] = nil
		}
		out[domain.KeyWorkoutTemplate] = s.session.TemplateName
		out[domain.KeyEditingTemplate] = s.session.EditingTemplate
	}
	return out
}

// State returns the lifecycle state.
func (s *SessionService) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Session returns a copy of the active session.
func (s *SessionService) Session() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone()
}

// RestTimer returns the running rest countdown, or nil.
func (s *SessionService) RestTimer() *domain.RestTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rest.State()
}

// HasPendingStart reports whether a start is waiting on a conflict decision.
func (s *SessionService) HasPendingStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Elapsed returns whole seconds since the session started.
func (s *SessionService) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed()
}

// Start begins a session. When one with exercises is already running the
// start is parked and ErrSessionConflict returned; resolve with DiscardAndStart
// or KeepCurrent.
func (s *SessionService) Start(src StartSource) (domain.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateIdle && len(s.session.Exercises) > 0 {
		pending := src
		s.pending = &pending
		return domain.ChangeNone, domain.ErrSessionConflict
	}
	s.pending = nil
	return s.begin(src), nil
}

// DiscardAndStart throws away the current session and applies the parked start.
func (s *SessionService) DiscardAndStart() (domain.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return domain.ChangeNone, domain.ErrNoPendingStart
	}
	src := *s.pending
	s.pending = nil
	return s.begin(src), nil
}

// KeepCurrent drops the parked start.
func (s *SessionService) KeepCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

func (s *SessionService) begin(src StartSource) domain.Change {
	s.stopTimers()

	exercises := domain.CloneEntries(src.exercises)
	for i := range exercises {
		for j := range exercises[i].Sets {
			exercises[i].Sets[j] = exercises[i].Sets[j].Reset()
		}
	}
	name := src.name
	if name == "" {
		name = DefaultWorkoutName
	}
	session := domain.Session{
		Name:      name,
		Exercises: exercises,
	}
	if src.templateName != nil {
		session.TemplateName = domain.StringPtr(*src.templateName)
	}
	if src.editing != nil {
		ref := *src.editing
		session.EditingTemplate = &ref
		s.state = domain.StateEditingTemplate
	} else {
		now := s.sched.Now()
		session.StartedAt = &now
		s.state = domain.StateActive
	}
	s.session = session
	if s.state == domain.StateActive {
		s.startElapsed()
	}

	logrus.WithFields(logrus.Fields{
		"name":      session.Name,
		"state":     s.state.String(),
		"exercises": len(exercises),
	}).Info("session started")
	return domain.ChangeExercises | domain.ChangeWorkoutMeta
}

// Rename changes the session name.
func (s *SessionService) Rename(name string) (domain.Change, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ChangeNone, domain.ErrBlankName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == domain.StateIdle {
		return domain.ChangeNone, domain.ErrNoActiveSession
	}
	s.session.Name = name
	return domain.ChangeWorkoutMeta, nil
}

// AddExercise appends an exercise with no sets. Adding to an idle engine
// starts a blank session first.
func (s *SessionService) AddExercise(name string, kind domain.ExerciseKind) (domain.Change, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ChangeNone, domain.ErrBlankName
	}
	kind = kind.Normalize()
	if !kind.Valid() {
		return domain.ChangeNone, domain.ErrUnknownField
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	change := domain.ChangeExercises
	if s.state == domain.StateIdle {
		change |= s.begin(Blank(""))
	}
	exercises := domain.CloneEntries(s.session.Exercises)
	exercises = append(exercises, domain.ExerciseEntry{Name: name, Kind: kind, Sets: []domain.Set{}})
	s.session.Exercises = exercises
	return change, nil
}

// RemoveExercise drops exercise i and its sets.
func (s *SessionService) RemoveExercise(i int) (domain.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkExercise(i); err != nil {
		return domain.ChangeNone, err
	}
	s.session.Exercises = removeEntry(s.session.Exercises, i)
	s.rest.ExerciseRemoved(i)
	return domain.ChangeExercises, nil
}

// ReorderExercise swaps exercise i with its neighbour in direction (-1 up, 1 down).
// Moving past either end is a no-op.
func (s *SessionService) ReorderExercise(i, direction int) (domain.Change, error) {
	if direction != -1 && direction != 1 {
		return domain.ChangeNone, domain.ErrInvalidDirection
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkExercise(i); err != nil {
		return domain.ChangeNone, err
	}
	j := i + direction
	if j < 0 || j >= len(s.session.Exercises) {
		return domain.ChangeNone, nil
	}
	exercises := domain.CloneEntries(s.session.Exercises)
	exercises[i], exercises[j] = exercises[j], exercises[i]
	s.session.Exercises = exercises
	s.rest.ExercisesSwapped(i, j)
	return domain.ChangeExercises, nil
}

// AddSet appends a set to exercise i, repeating the values of the last set.
func (s *SessionService) AddSet(i int) (domain.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkExercise(i); err != nil {
		return domain.ChangeNone, err
	}
	exercises := domain.CloneEntries(s.session.Exercises)
	ex := &exercises[i]
	next := domain.EmptySet()
	if n := len(ex.Sets); n > 0 {
		next = ex.Sets[n-1].Values(ex.Kind)
	}
	ex.Sets = append(ex.Sets, next)
	s.session.Exercises = exercises
	return domain.ChangeExercises, nil
}

// UpdateSetField edits one value of an uncompleted set.
func (s *SessionService) UpdateSetField(i, j int, field domain.SetField, value string) (domain.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkSet(i, j); err != nil {
		return domain.ChangeNone, err
	}
	ex := s.session.Exercises[i]
	if !ex.Kind.HasField(field) {
		return domain.ChangeNone, domain.ErrUnknownField
	}
	if ex.Sets[j].Completed {
		return domain.ChangeNone, domain.ErrSetCompleted
	}
	exercises := domain.CloneEntries(s.session.Exercises)
	exercises[i].Sets[j] = exercises[i].Sets[j].With(field, value)
	s.session.Exercises = exercises
	return domain.ChangeExercises, nil
}

// CompleteSet marks set j of exercise i done and starts its rest period.
// A rest period still running is completed first so its real length is kept;
// that result is returned, nil when no rest was running.
func (s *SessionService) CompleteSet(i, j int) (*RestResult, domain.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == domain.StateEditingTemplate {
		return nil, domain.ChangeNone, domain.ErrWrongState
	}
	if err := s.checkSet(i, j); err != nil {
		return nil, domain.ChangeNone, err
	}
	ex := s.session.Exercises[i]
	set := ex.Sets[j]
	if set.Completed {
		return nil, domain.ChangeNone, domain.ErrSetCompleted
	}
	if !set.IsComplete(ex.Kind) {
		return nil, domain.ChangeNone, domain.ErrIncompleteSet
	}

	var ended *RestResult
	if s.rest.Running() {
		ended = s.rest.Skip()
	}

	exercises := domain.CloneEntries(s.session.Exercises)
	exercises[i].Sets[j].Completed = true
	s.session.Exercises = exercises

	s.rest.Start(i, j, exercises[i].EffectiveRest(s.defaultRest))
	return ended, domain.ChangeExercises, nil
}

// DeleteSet removes set j of exercise i; an exercise left without sets is removed too.
func (s *SessionService) DeleteSet(i, j int) (domain.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkSet(i, j); err != nil {
		return domain.ChangeNone, err
	}
	exercises := domain.CloneEntries(s.session.Exercises)
	sets := exercises[i].Sets
	exercises[i].Sets = append(sets[:j:j], sets[j+1:]...)
	s.rest.SetRemoved(i, j)
	if len(exercises[i].Sets) == 0 {
		exercises = removeEntry(exercises, i)
		s.rest.ExerciseRemoved(i)
	}
	s.session.Exercises = exercises
	return domain.ChangeExercises, nil
}

// SetRestOverride sets or clears (nil) the rest override of exercise i.
func (s *SessionService) SetRestOverride(i int, seconds *int) (domain.Change, error) {
	if seconds != nil && (*seconds < 0 || *seconds > domain.MaxRestSeconds) {
		return domain.ChangeNone, domain.ErrInvalidSetting
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkExercise(i); err != nil {
		return domain.ChangeNone, err
	}
	exercises := domain.CloneEntries(s.session.Exercises)
	if seconds == nil {
		exercises[i].RestOverrideSeconds = nil
	} else {
		exercises[i].RestOverrideSeconds = domain.IntPtr(*seconds)
	}
	s.session.Exercises = exercises
	return domain.ChangeExercises, nil
}

// SetNote replaces the free-text note of exercise i.
func (s *SessionService) SetNote(i int, note string) (domain.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkExercise(i); err != nil {
		return domain.ChangeNone, err
	}
	exercises := domain.CloneEntries(s.session.Exercises)
	exercises[i].Note = note
	s.session.Exercises = exercises
	return domain.ChangeExercises, nil
}

// SkipRest ends the running rest period now.
func (s *SessionService) SkipRest() (*RestResult, domain.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.rest.Skip()
	if res == nil {
		return nil, domain.ChangeNone
	}
	return res, domain.ChangeExercises
}

// Finish turns the session into a workout. Incomplete sets are dropped, which
// needs opts.ConfirmIncomplete when there are any.
func (s *SessionService) Finish(opts FinishOptions) (*domain.Workout, domain.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case domain.StateIdle:
		return nil, domain.ChangeNone, domain.ErrNoActiveSession
	case domain.StateEditingTemplate:
		return nil, domain.ChangeNone, domain.ErrWrongState
	}
	if len(s.session.Exercises) == 0 {
		return nil, domain.ChangeNone, domain.ErrNoExercises
	}
	completed, incomplete := domain.CountSets(s.session.Exercises)
	if completed == 0 {
		return nil, domain.ChangeNone, domain.ErrNoCompletedSets
	}
	if incomplete > 0 && !opts.ConfirmIncomplete {
		return nil, domain.ChangeNone, &domain.IncompleteSetsError{Incomplete: incomplete, Completed: completed}
	}

	now := s.sched.Now()
	workout := domain.Workout{
		Date:            domain.FormatDate(now),
		Name:            s.session.Name,
		DurationSeconds: s.elapsed(),
	}
	if s.session.TemplateName != nil {
		workout.TemplateName = domain.StringPtr(*s.session.TemplateName)
	}
	for _, ex := range s.session.Exercises {
		sets := ex.CompletedSets()
		if len(sets) == 0 {
			continue
		}
		kept := ex.Clone()
		kept.Sets = sets
		workout.Exercises = append(workout.Exercises, kept)
	}

	logrus.WithFields(logrus.Fields{
		"name":      workout.Name,
		"duration":  workout.DurationSeconds,
		"completed": completed,
		"dropped":   incomplete,
		"exercises": len(workout.Exercises),
	}).Info("session finished")

	s.reset()
	return &workout, domain.ChangeExercises | domain.ChangeWorkoutMeta, nil
}

// Cancel discards the session without writing history.
func (s *SessionService) Cancel() domain.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	if s.state == domain.StateIdle && len(s.session.Exercises) == 0 {
		return domain.ChangeNone
	}
	s.reset()
	return domain.ChangeExercises | domain.ChangeWorkoutMeta
}

// SaveEditedTemplate ends template editing and hands back the edited exercises
// for the template at the returned ref.
func (s *SessionService) SaveEditedTemplate() (domain.TemplateRef, []domain.TemplateExercise, domain.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateEditingTemplate || s.session.EditingTemplate == nil {
		return domain.TemplateRef{}, nil, domain.ChangeNone, domain.ErrWrongState
	}
	ref := *s.session.EditingTemplate
	exercises := make([]domain.TemplateExercise, len(s.session.Exercises))
	for i, ex := range s.session.Exercises {
		exercises[i] = domain.ToTemplateExercise(ex)
	}
	s.reset()
	return ref, exercises, domain.ChangeExercises | domain.ChangeWorkoutMeta, nil
}

// Stop halts the rest and elapsed timers without touching the session.
func (s *SessionService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimers()
}

func (s *SessionService) reset() {
	s.stopTimers()
	s.session = domain.Session{}
	s.state = domain.StateIdle
}

func (s *SessionService) stopTimers() {
	s.rest.Cancel()
	if s.elapsedCancel != nil {
		s.elapsedCancel()
		s.elapsedCancel = nil
	}
}

func (s *SessionService) startElapsed() {
	if s.elapsedCancel != nil {
		s.elapsedCancel()
	}
	s.elapsedCancel = s.sched.Every(func() {
		s.mu.Lock()
		tick := s.elapsedTick
		secs := s.elapsed()
		active := s.state == domain.StateActive
		s.mu.Unlock()
		if tick != nil && active {
			tick(secs)
		}
	})
}

func (s *SessionService) elapsed() int {
	if s.session.StartedAt == nil {
		return 0
	}
	d := s.sched.Now().Sub(*s.session.StartedAt)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// recordRest runs under s.mu, called by the rest timer.
func (s *SessionService) recordRest(res RestResult) {
	if res.ExerciseIndex < 0 || res.ExerciseIndex >= len(s.session.Exercises) {
		return
	}
	if res.SetIndex < 0 || res.SetIndex >= len(s.session.Exercises[res.ExerciseIndex].Sets) {
		return
	}
	exercises := domain.CloneEntries(s.session.Exercises)
	exercises[res.ExerciseIndex].Sets[res.SetIndex].RestTakenSeconds = domain.IntPtr(res.Seconds)
	s.session.Exercises = exercises
}

func (s *SessionService) checkExercise(i int) error {
	if s.state == domain.StateIdle {
		return domain.ErrNoActiveSession
	}
	if i < 0 || i >= len(s.session.Exercises) {
		return domain.ErrIndexOutOfRange
	}
	return nil
}

func (s *SessionService) checkSet(i, j int) error {
	if err := s.checkExercise(i); err != nil {
		return err
	}
	if j < 0 || j >= len(s.session.Exercises[i].Sets) {
		return domain.ErrIndexOutOfRange
	}
	return nil
}

func removeEntry(entries []domain.ExerciseEntry, i int) []domain.ExerciseEntry {
	out := make([]domain.ExerciseEntry, 0, len(entries)-1)
	out = append(out, entries[:i]...)
	return append(out, entries[i+1:]...)
}
