package app

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/mansoorceksport/hutraz/internal/domain"
	"github.com/mansoorceksport/hutraz/internal/library"
	"github.com/mansoorceksport/hutraz/internal/repository"
	"github.com/mansoorceksport/hutraz/internal/scheduler"
	"github.com/mansoorceksport/hutraz/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var monday = time.Date(2024, time.March, 4, 18, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T, store domain.StateStore, start time.Time) (*App, *scheduler.ManualScheduler) {
	t.Helper()
	sched := scheduler.NewManualScheduler(start)
	a, err := NewApp(AppDependencies{Store: store, Scheduler: sched})
	require.NoError(t, err)
	require.NoError(t, a.Load(context.Background()))
	t.Cleanup(func() { _ = a.Close() })
	return a, sched
}

func logSet(t *testing.T, a *App, i, j int, kg, reps string) {
	t.Helper()
	require.NoError(t, a.UpdateSetField(i, j, domain.FieldKG, kg))
	require.NoError(t, a.UpdateSetField(i, j, domain.FieldReps, reps))
	require.NoError(t, a.CompleteSet(i, j))
}

func benchTemplate(sets int) []domain.TemplateExercise {
	return []domain.TemplateExercise{
		{Name: "Bench Press", Kind: domain.KindWeightReps, Sets: make([]domain.Set, sets)},
	}
}

// stallingStore holds every Save until release is closed.
type stallingStore struct {
	*repository.MemoryStore
	release chan struct{}
}

func (s *stallingStore) Save(ctx context.Context, key string, value json.RawMessage) error {
	select {
	case <-s.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.MemoryStore.Save(ctx, key, value)
}

func TestCommandsDoNotWaitForSlowStore(t *testing.T) {
	store := &stallingStore{MemoryStore: repository.NewMemoryStore(), release: make(chan struct{})}
	a, _ := newTestApp(t, store, monday)
	t.Cleanup(func() { close(store.release) })

	require.NoError(t, a.StartBlank("Evening"))
	require.NoError(t, a.AddExercise("Dips", domain.KindBodyweightReps))

	finished := make(chan error, 1)
	go func() {
		for i := 0; i < 400; i++ {
			if err := a.SetNote(0, fmt.Sprintf("note %d", i)); err != nil {
				finished <- err
				return
			}
		}
		finished <- nil
	}()
	select {
	case err := <-finished:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("SetNote blocked behind a stalled store")
	}
	assert.Equal(t, "note 399", a.Session().Exercises[0].Note)
}

func TestBodyweightRejectsNonFinite(t *testing.T) {
	a, _ := newTestApp(t, repository.NewMemoryStore(), monday)
	require.NoError(t, a.UpdateBodyweight(80))
	assert.ErrorIs(t, a.UpdateBodyweight(math.NaN()), domain.ErrInvalidSetting)
	assert.ErrorIs(t, a.UpdateBodyweight(math.Inf(1)), domain.ErrInvalidSetting)
	assert.Equal(t, 80.0, a.Settings().BodyweightKg)

	require.NoError(t, a.AddExercise("Dips", domain.KindBodyweightReps))
	require.NoError(t, a.AddSet(0))
	require.NoError(t, a.UpdateSetField(0, 0, domain.FieldReps, "8"))
	require.NoError(t, a.CompleteSet(0, 0))
	summary, err := a.Finish(context.Background(), FinishOptions{})
	require.NoError(t, err)
	require.Len(t, summary.NewRecords, 1)
	assert.Equal(t, 640.0, summary.NewRecords[0].Value)
}

func TestNewAppRequiresStore(t *testing.T) {
	_, err := NewApp(AppDependencies{})
	assert.Error(t, err)
}

func TestWorkoutRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	a, sched := newTestApp(t, store, monday)

	folders := a.Folders()
	require.Len(t, folders, 1)
	assert.Equal(t, domain.DefaultFolderName, folders[0].Name)

	ref, err := a.CreateTemplate(folders[0].ID, "Push Day", benchTemplate(2))
	require.NoError(t, err)

	var rests []service.RestResult
	a.OnRestComplete(func(r service.RestResult) { rests = append(rests, r) })

	require.NoError(t, a.StartFromTemplate(ref))
	assert.Equal(t, domain.StateActive, a.State())

	logSet(t, a, 0, 0, "80", "8")
	sched.Advance(domain.DefaultRestSeconds)
	require.Len(t, rests, 1)
	assert.Equal(t, service.RestResult{ExerciseIndex: 0, SetIndex: 0, Seconds: domain.DefaultRestSeconds}, rests[0])
	assert.Nil(t, a.RestTimer())

	logSet(t, a, 0, 1, "85", "6")
	sched.Advance(20)
	res := a.SkipRest()
	require.NotNil(t, res)
	assert.Equal(t, 20, res.Seconds)
	assert.Len(t, rests, 1, "skipping does not fire the completion hook")

	summary, err := a.Finish(ctx, FinishOptions{TemplateUpdate: UpdateSource})
	require.NoError(t, err)
	assert.Equal(t, "Push Day", summary.Workout.Name)
	assert.Equal(t, "4.3.2024", summary.Workout.Date)
	require.Len(t, summary.NewRecords, 1)
	assert.Equal(t, "80 kg × 8", summary.NewRecords[0].Display)
	require.NotNil(t, summary.Suggestion)
	assert.Equal(t, "Push Day", summary.Suggestion.TemplateName, "a lone template suggests itself")
	assert.Equal(t, domain.StateIdle, a.State())

	tpl, err := a.Template(ref)
	require.NoError(t, err)
	sets := tpl.Exercises[0].Sets
	require.Len(t, sets, 2)
	assert.Equal(t, "80", sets[0].KG)
	assert.Equal(t, "6", sets[1].Reps)
	assert.False(t, sets[1].Completed, "templates never carry progress")
	assert.Nil(t, sets[0].RestTakenSeconds)

	require.NoError(t, a.Flush(ctx))
	assert.Contains(t, store.Keys(), domain.KeyHistory)
	assert.Contains(t, store.Keys(), domain.KeyFolders)
	require.NoError(t, a.Close())

	reloaded, _ := newTestApp(t, store, monday.Add(24*time.Hour))
	history := reloaded.History()
	require.Len(t, history, 1)
	assert.Equal(t, 2, len(history[0].Exercises[0].Sets))
	assert.Equal(t, domain.Totals{Workouts: 1, SetsLogged: 2}, reloaded.Totals())

	best := reloaded.BestSet("Bench Press", domain.KindWeightReps)
	require.NotNil(t, best)
	assert.Equal(t, "80 kg × 8", best.Display)

	tpl, err = reloaded.Template(ref)
	require.NoError(t, err)
	assert.Equal(t, "85", tpl.Exercises[0].Sets[1].KG)

	week := reloaded.WeekActivity()
	require.Len(t, week.Days, 7)
	assert.True(t, week.Days[5].Worked)
	assert.True(t, week.Days[6].Today)
	assert.Equal(t, 1, week.ThisWeek)
}

func TestFinishNeedsConfirmationForIncompleteSets(t *testing.T) {
	a, _ := newTestApp(t, repository.NewMemoryStore(), monday)
	ref, err := a.CreateTemplate(a.Folders()[0].ID, "Push Day", benchTemplate(3))
	require.NoError(t, err)
	require.NoError(t, a.StartFromTemplate(ref))
	logSet(t, a, 0, 0, "60", "10")

	_, err = a.Finish(context.Background(), FinishOptions{})
	var incomplete *domain.IncompleteSetsError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 2, incomplete.Incomplete)
	assert.Equal(t, domain.StateActive, a.State())
	assert.Empty(t, a.History())

	summary, err := a.Finish(context.Background(), FinishOptions{ConfirmIncomplete: true})
	require.NoError(t, err)
	assert.Len(t, summary.Workout.Exercises[0].Sets, 1)

	tpl, err := a.Template(ref)
	require.NoError(t, err)
	assert.Len(t, tpl.Exercises[0].Sets, 3, "UpdateNone leaves templates alone")
	assert.Empty(t, tpl.Exercises[0].Sets[0].KG)
}

func TestFinishUpdatesAllMatchingTemplates(t *testing.T) {
	a, _ := newTestApp(t, repository.NewMemoryStore(), monday)
	folderID := a.Folders()[0].ID
	push, err := a.CreateTemplate(folderID, "Push Day", benchTemplate(3))
	require.NoError(t, err)
	upper, err := a.CreateTemplate(folderID, "Upper", append(benchTemplate(1),
		domain.TemplateExercise{Name: "Pull-ups", Kind: domain.KindBodyweightReps, Sets: make([]domain.Set, 2)}))
	require.NoError(t, err)

	require.NoError(t, a.AddExercise("Bench Press", domain.KindWeightReps))
	require.NoError(t, a.AddSet(0))
	logSet(t, a, 0, 0, "70", "5")

	_, err = a.Finish(context.Background(), FinishOptions{TemplateUpdate: UpdateAllMatching})
	require.NoError(t, err)

	for _, ref := range []domain.TemplateRef{push, upper} {
		tpl, err := a.Template(ref)
		require.NoError(t, err)
		require.Len(t, tpl.Exercises[0].Sets, 1, tpl.Name)
		assert.Equal(t, "70", tpl.Exercises[0].Sets[0].KG, tpl.Name)
	}
	tpl, err := a.Template(upper)
	require.NoError(t, err)
	assert.Len(t, tpl.Exercises[1].Sets, 2, "exercises missing from the workout are untouched")
}

func TestActiveSessionSurvivesReload(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	a, sched := newTestApp(t, store, monday)

	require.NoError(t, a.StartBlank("Evening"))
	require.NoError(t, a.AddExercise("Plank", domain.KindTimeOnly))
	require.NoError(t, a.AddSet(0))
	require.NoError(t, a.UpdateSetField(0, 0, domain.FieldTime, "60"))
	require.NoError(t, a.CompleteSet(0, 0))
	require.NoError(t, a.SetNote(0, "hold tight"))
	sched.Advance(90)
	require.NoError(t, a.Flush(ctx))
	require.NoError(t, a.Close())

	reloaded, _ := newTestApp(t, store, monday.Add(2*time.Minute))
	assert.Equal(t, domain.StateActive, reloaded.State())
	session := reloaded.Session()
	assert.Equal(t, "Evening", session.Name)
	require.Len(t, session.Exercises, 1)
	assert.Equal(t, "hold tight", session.Exercises[0].Note)
	assert.True(t, session.Exercises[0].Sets[0].Completed)
	assert.Equal(t, 120, reloaded.Elapsed())

	reloaded.Cancel()
	assert.Equal(t, domain.StateIdle, reloaded.State())
	assert.Empty(t, reloaded.History())
}

func TestSettingsApplyToNewRests(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	a, _ := newTestApp(t, store, monday)

	assert.ErrorIs(t, a.UpdateDefaultRest(-5), domain.ErrInvalidSetting)
	require.NoError(t, a.UpdateDefaultRest(45))
	require.NoError(t, a.UpdateBodyweight(80))
	require.NoError(t, a.UpdateWeekStartDay(time.Sunday))

	require.NoError(t, a.AddExercise("Bench Press", domain.KindWeightReps))
	require.NoError(t, a.AddSet(0))
	logSet(t, a, 0, 0, "50", "10")
	timer := a.RestTimer()
	require.NotNil(t, timer)
	assert.Equal(t, 45, timer.TotalDurationSeconds)
	a.Cancel()

	require.NoError(t, a.Flush(ctx))
	require.NoError(t, a.Close())

	reloaded, _ := newTestApp(t, store, monday)
	assert.Equal(t, domain.Settings{DefaultRestSeconds: 45, BodyweightKg: 80, WeekStartDay: time.Sunday}, reloaded.Settings())
}

func TestStartConflict(t *testing.T) {
	a, _ := newTestApp(t, repository.NewMemoryStore(), monday)
	ref, err := a.CreateTemplate(a.Folders()[0].ID, "Push Day", benchTemplate(1))
	require.NoError(t, err)

	require.NoError(t, a.StartBlank("Warmup"))
	require.NoError(t, a.AddExercise("Push-ups", domain.KindRepsOnly))

	err = a.StartFromTemplate(ref)
	assert.ErrorIs(t, err, domain.ErrSessionConflict)
	assert.True(t, a.HasPendingStart())

	a.KeepCurrent()
	assert.False(t, a.HasPendingStart())
	assert.Equal(t, "Warmup", a.Session().Name)

	require.ErrorIs(t, a.StartFromTemplate(ref), domain.ErrSessionConflict)
	require.NoError(t, a.DiscardAndStart())
	assert.Equal(t, "Push Day", a.Session().Name)
}

func TestEditTemplateThroughSession(t *testing.T) {
	a, _ := newTestApp(t, repository.NewMemoryStore(), monday)
	ref, err := a.CreateTemplate(a.Folders()[0].ID, "Push Day", benchTemplate(1))
	require.NoError(t, err)

	require.NoError(t, a.EditTemplate(ref))
	assert.Equal(t, domain.StateEditingTemplate, a.State())
	require.NoError(t, a.AddExercise("Dips", domain.KindBodyweightReps))
	require.NoError(t, a.SaveEditedTemplate())

	assert.Equal(t, domain.StateIdle, a.State())
	tpl, err := a.Template(ref)
	require.NoError(t, err)
	require.Len(t, tpl.Exercises, 2)
	assert.Equal(t, "Dips", tpl.Exercises[1].Name)
}

func TestCustomExercisesPersist(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	a, _ := newTestApp(t, store, monday)

	require.NoError(t, a.AddCustomExercise(library.Exercise{Name: "Sled Push", Muscle: "legs", Equipment: "Other"}))
	assert.ErrorIs(t, a.AddCustomExercise(library.Exercise{Name: "Squat"}), domain.ErrDuplicateName)
	require.NoError(t, a.Flush(ctx))
	require.NoError(t, a.Close())

	reloaded, _ := newTestApp(t, store, monday)
	mine := reloaded.Exercises(library.FilterOptions{MyOnly: true})
	require.Len(t, mine, 1)
	assert.Equal(t, "Sled Push", mine[0].Name)
	assert.Equal(t, library.RegionLower, reloaded.Library().BodyRegion(mine[0]))

	require.NoError(t, reloaded.DeleteCustomExercise("Sled Push"))
	assert.Empty(t, reloaded.Exercises(library.FilterOptions{MyOnly: true}))
}
