package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mansoorceksport/hutraz/internal/domain"
	"github.com/mansoorceksport/hutraz/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryNewestFirst(t *testing.T) {
	svc := NewHistoryService(repository.NewMemoryStore())
	require.NoError(t, svc.Load(context.Background()))
	assert.Nil(t, svc.Prior())

	assert.Equal(t, domain.ChangeHistory, svc.Append(domain.Workout{Name: "first"}))
	svc.Append(domain.Workout{Name: "second"})

	all := svc.All()
	require.Len(t, all, 2)
	assert.Equal(t, "second", all[0].Name)
	assert.Equal(t, []domain.Workout{{Name: "first"}}, svc.Prior())

	w, err := svc.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "first", w.Name)
	_, err = svc.Get(2)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)

	_, err = svc.DeleteWorkout(0)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.Len())
	_, err = svc.DeleteWorkout(5)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
}

func TestHistoryIsolatesCallers(t *testing.T) {
	svc := NewHistoryService(repository.NewMemoryStore())
	w := domain.Workout{Exercises: []domain.ExerciseEntry{{Name: "Squat", Sets: []domain.Set{{KG: "100"}}}}}
	svc.Append(w)
	w.Exercises[0].Sets[0].KG = "0"

	all := svc.All()
	assert.Equal(t, "100", all[0].Exercises[0].Sets[0].KG)
	all[0].Exercises[0].Name = "changed"
	assert.Equal(t, "Squat", svc.All()[0].Exercises[0].Name)
}

func TestHistoryLoad(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	raw := `[{"date":"2.1.2024","name":"B","templateName":null,"duration":60,"exercises":[{"name":"Dips","type":"bw_reps","sets":[{"reps":"10","done":true}]}]},
	         {"date":"1.1.2024","name":"A","templateName":"Push Day","duration":120,"exercises":[]}]`
	require.NoError(t, store.Save(ctx, domain.KeyHistory, json.RawMessage(raw)))

	svc := NewHistoryService(store)
	require.NoError(t, svc.Load(ctx))
	all := svc.All()
	require.Len(t, all, 2)
	assert.Equal(t, domain.KindBodyweightReps, all[0].Exercises[0].Kind)
	assert.Equal(t, "Push Day", *all[1].TemplateName)
	assert.Equal(t, 120, all[1].DurationSeconds)

	require.NoError(t, store.Save(ctx, domain.KeyHistory, json.RawMessage(`{`)))
	assert.Error(t, svc.Load(ctx))
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewSettingsService(store)
	require.NoError(t, svc.Load(ctx))
	assert.Equal(t, domain.DefaultSettings(), svc.Get())

	change, err := svc.UpdateDefaultRest(120)
	require.NoError(t, err)
	assert.Equal(t, domain.ChangeSettings, change)
	change, err = svc.UpdateDefaultRest(120)
	require.NoError(t, err)
	assert.Equal(t, domain.ChangeNone, change)

	_, err = svc.UpdateBodyweight(-3)
	assert.ErrorIs(t, err, domain.ErrInvalidSetting)
	_, err = svc.UpdateBodyweight(82.5)
	require.NoError(t, err)
	_, err = svc.UpdateWeekStartDay(time.Sunday)
	require.NoError(t, err)

	snap := svc.Snapshot(domain.ChangeSettings)
	assert.Equal(t, 0, snap[domain.KeyWeekStartDay])
	for k, v := range snap {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, k, data))
	}

	reloaded := NewSettingsService(store)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, domain.Settings{DefaultRestSeconds: 120, BodyweightKg: 82.5, WeekStartDay: time.Sunday}, reloaded.Get())
	assert.Empty(t, reloaded.Snapshot(domain.ChangeFolders))
}

func TestSettingsOutOfRangeFallsBack(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	require.NoError(t, store.Save(ctx, domain.KeyDefaultRestSeconds, json.RawMessage(`-20`)))
	require.NoError(t, store.Save(ctx, domain.KeyBodyweightKg, json.RawMessage(`72.5`)))
	require.NoError(t, store.Save(ctx, domain.KeyWeekStartDay, json.RawMessage(`9`)))

	svc := NewSettingsService(store)
	require.NoError(t, svc.Load(ctx))
	assert.Equal(t, domain.Settings{
		DefaultRestSeconds: domain.DefaultRestSeconds,
		BodyweightKg:       72.5,
		WeekStartDay:       time.Monday,
	}, svc.Get(), "only the out-of-range keys fall back")
}
