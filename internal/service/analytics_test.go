package service

import (
	"fmt"
	"math"
	"strconv"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/mansoorceksport/hutraz/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func done(kg, reps string) domain.Set {
	return domain.Set{KG: kg, Reps: reps, Completed: true}
}

func workout(date string, tpl *string, entries ...domain.ExerciseEntry) domain.Workout {
	return domain.Workout{Date: date, Name: "Workout", TemplateName: tpl, DurationSeconds: 3600, Exercises: entries}
}

func entry(name string, kind domain.ExerciseKind, sets ...domain.Set) domain.ExerciseEntry {
	return domain.ExerciseEntry{Name: name, Kind: kind, Sets: sets}
}

func TestProjection(t *testing.T) {
	tests := []struct {
		name string
		kind domain.ExerciseKind
		set  domain.Set
		bw   float64
		want float64
		ok   bool
	}{
		{"weight reps", domain.KindWeightReps, domain.Set{KG: "80", Reps: "5"}, 0, 400, true},
		{"weight missing reps", domain.KindWeightReps, domain.Set{KG: "80"}, 0, 0, false},
		{"zero weight", domain.KindWeightReps, domain.Set{KG: "0", Reps: "5"}, 0, 0, false},
		{"bodyweight added", domain.KindBodyweightReps, domain.Set{KG: "10", Reps: "5"}, 80, 450, true},
		{"bodyweight assisted", domain.KindBodyweightReps, domain.Set{KG: "-10", Reps: "5"}, 80, 350, true},
		{"bodyweight unknown", domain.KindBodyweightReps, domain.Set{Reps: "5"}, 0, 0, false},
		{"reps only", domain.KindRepsOnly, domain.Set{Reps: "25"}, 0, 25, true},
		{"time", domain.KindTimeOnly, domain.Set{Time: "1:30"}, 0, 90, true},
		{"distance", domain.KindDistanceTime, domain.Set{Distance: "5,5", Time: "30:00"}, 0, 5.5, true},
		{"time without distance", domain.KindDistanceTime, domain.Set{Time: "30:00"}, 0, 0, false},
		{"bodyweight not a number", domain.KindBodyweightReps, domain.Set{Reps: "8"}, math.NaN(), 0, false},
		{"bodyweight infinite", domain.KindBodyweightReps, domain.Set{Reps: "8"}, math.Inf(1), 0, false},
		{"overflowing volume", domain.KindWeightReps, domain.Set{KG: "1e308", Reps: "10"}, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Projection(tt.kind, tt.set, tt.bw)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestBestSetScansEveryStoredSet(t *testing.T) {
	history := []domain.Workout{
		workout("2.1.2024", nil, entry("Squat", domain.KindWeightReps, done("100", "5"))),
		// Older data kept sets that were never ticked off.
		workout("1.1.2024", nil, entry("Squat", domain.KindWeightReps, domain.Set{KG: "120", Reps: "5"})),
		workout("1.1.2024", nil, entry("Squat", domain.KindRepsOnly, domain.Set{Reps: "50"})),
	}
	best := BestSet("Squat", domain.KindWeightReps, history, 0)
	require.NotNil(t, best)
	assert.Equal(t, 600.0, best.Value)
	assert.Equal(t, "1.1.2024", best.Date)
	assert.Equal(t, "120 kg × 5", best.Display)

	assert.Nil(t, BestSet("Deadlift", domain.KindWeightReps, history, 0))
}

func TestFindNewPRs(t *testing.T) {
	prior := []domain.Workout{
		workout("1.1.2024", nil,
			entry("Bench Press", domain.KindWeightReps, done("85", "8")),
			entry("Plank", domain.KindTimeOnly, domain.Set{Time: "60", Completed: true}),
		),
	}

	t.Run("equal is not a record", func(t *testing.T) {
		w := workout("2.1.2024", nil, entry("Bench Press", domain.KindWeightReps, done("85", "8")))
		assert.Empty(t, FindNewPRs(w, prior, 0))
	})

	t.Run("strictly better", func(t *testing.T) {
		w := workout("2.1.2024", nil,
			entry("Bench Press", domain.KindWeightReps, done("80", "8"), done("90", "8")),
			entry("Plank", domain.KindTimeOnly, domain.Set{Time: "1:30", Completed: true}),
		)
		records := FindNewPRs(w, prior, 0)
		require.Len(t, records, 2)
		assert.Equal(t, "Bench Press", records[0].ExerciseName)
		assert.Equal(t, 720.0, records[0].Value)
		assert.Equal(t, 680.0, *records[0].PreviousBest)
		assert.Equal(t, "90 kg × 8", records[0].Display)
		assert.Equal(t, "1:30", records[1].Display)
	})

	t.Run("incomplete sets ignored", func(t *testing.T) {
		w := workout("2.1.2024", nil, entry("Bench Press", domain.KindWeightReps, domain.Set{KG: "200", Reps: "8"}))
		assert.Empty(t, FindNewPRs(w, prior, 0))
	})

	t.Run("one record per exercise and kind", func(t *testing.T) {
		w := workout("2.1.2024", nil,
			entry("Row", domain.KindWeightReps, done("60", "10")),
			entry("Row", domain.KindWeightReps, done("70", "10")),
			entry("Row", domain.KindRepsOnly, domain.Set{Reps: "20", Completed: true}),
		)
		records := FindNewPRs(w, nil, 0)
		require.Len(t, records, 2)
		assert.Equal(t, 700.0, records[0].Value)
		assert.Equal(t, domain.KindRepsOnly, records[1].Kind)
	})
}

// Records only ever move the all-time best upward.
func TestRecordsAreMonotonic(t *testing.T) {
	f := gofakeit.New(42)
	names := []string{"Squat", "Bench Press", "Deadlift"}

	var history []domain.Workout
	for n := 0; n < 60; n++ {
		w := workout(fmt.Sprintf("%d.1.2024", n%28+1), nil)
		for _, name := range names {
			if !f.Bool() {
				continue
			}
			ex := entry(name, domain.KindWeightReps)
			for i := f.Number(1, 4); i > 0; i-- {
				ex.Sets = append(ex.Sets, done(strconv.Itoa(f.Number(20, 200)), strconv.Itoa(f.Number(1, 12))))
			}
			w.Exercises = append(w.Exercises, ex)
		}

		records := FindNewPRs(w, history, 0)
		next := append([]domain.Workout{w}, history...)
		for _, name := range names {
			before := BestSet(name, domain.KindWeightReps, history, 0)
			after := BestSet(name, domain.KindWeightReps, next, 0)

			var rec *domain.PersonalRecord
			for i := range records {
				if records[i].ExerciseName == name {
					rec = &records[i]
				}
			}
			switch {
			case rec != nil:
				if before != nil {
					require.Greater(t, rec.Value, before.Value)
				}
				require.Equal(t, rec.Value, after.Value)
			case before != nil:
				require.Equal(t, before.Value, after.Value)
			default:
				require.Nil(t, after)
			}
		}
		history = next
	}
}

func TestVolume(t *testing.T) {
	w := workout("1.1.2024", nil,
		entry("Squat", domain.KindWeightReps, done("100", "5"), domain.Set{KG: "100", Reps: "5"}),
		entry("Pull-ups", domain.KindBodyweightReps, domain.Set{Reps: "10", Completed: true}),
		entry("Plank", domain.KindTimeOnly, domain.Set{Time: "60"}),
	)
	vol := Volume(w)
	assert.Equal(t, 500.0, vol.TotalVolume)
	assert.Equal(t, 2, vol.TotalSets)
	assert.Equal(t, 15, vol.TotalReps)
	assert.Equal(t, 2, vol.ExerciseCount)
	assert.Equal(t, 3600, vol.DurationSeconds)
}

func TestProgression(t *testing.T) {
	push := domain.StringPtr("Push Day")
	prior := []domain.Workout{
		workout("3.1.2024", domain.StringPtr("Leg Day"), entry("Squat", domain.KindWeightReps, done("100", "5"))),
		workout("2.1.2024", push, entry("Bench Press", domain.KindWeightReps, done("80", "8"))),
		workout("1.1.2024", push, entry("Bench Press", domain.KindWeightReps, done("70", "8"))),
	}
	finished := workout("4.1.2024", push, entry("Bench Press", domain.KindWeightReps, done("85", "8"), done("85", "8")))
	finished.DurationSeconds = 3000

	p := Progression(finished, prior)
	require.NotNil(t, p)
	assert.Equal(t, "2.1.2024", p.PreviousDate)
	assert.Equal(t, 1360.0-640.0, p.VolumeDelta)
	assert.Equal(t, 1, p.SetsDelta)
	assert.Equal(t, -600, p.DurationDelta)

	assert.Nil(t, Progression(workout("4.1.2024", nil), prior))
	assert.Nil(t, Progression(workout("4.1.2024", domain.StringPtr("Pull Day")), prior))
}

func TestSuggestNext(t *testing.T) {
	folders := []domain.Folder{
		{ID: "f1", Name: "PPL", Templates: []domain.Template{
			{ID: "a", Name: "Push Day"}, {ID: "b", Name: "Pull Day"}, {ID: "c", Name: "Leg Day"},
		}},
		{ID: "f2", Name: "Other", Templates: []domain.Template{{ID: "d", Name: "Cardio"}}},
	}

	assert.Nil(t, SuggestNext(nil, folders))
	assert.Nil(t, SuggestNext([]domain.Workout{workout("1.1.2024", nil)}, folders))
	assert.Nil(t, SuggestNext([]domain.Workout{workout("1.1.2024", domain.StringPtr("Gone"))}, folders))

	s := SuggestNext([]domain.Workout{workout("1.1.2024", domain.StringPtr("Pull Day"))}, folders)
	require.NotNil(t, s)
	assert.Equal(t, "Leg Day", s.TemplateName)
	assert.Equal(t, domain.TemplateRef{FolderID: "f1", TemplateID: "c"}, s.Ref)

	s = SuggestNext([]domain.Workout{workout("1.1.2024", domain.StringPtr("Leg Day"))}, folders)
	assert.Equal(t, "Push Day", s.TemplateName, "wraps to the start of the folder")

	s = SuggestNext([]domain.Workout{workout("1.1.2024", domain.StringPtr("Cardio"))}, folders)
	assert.Equal(t, "Cardio", s.TemplateName, "a lone template suggests itself")
}

func TestSummaryUsesFinishedWorkoutForSuggestion(t *testing.T) {
	folders := []domain.Folder{{ID: "f1", Name: "PPL", Templates: []domain.Template{
		{ID: "a", Name: "Push Day"}, {ID: "b", Name: "Pull Day"},
	}}}
	prior := []domain.Workout{workout("1.1.2024", domain.StringPtr("Pull Day"), entry("Row", domain.KindWeightReps, done("60", "10")))}
	finished := workout("2.1.2024", domain.StringPtr("Push Day"), entry("Bench Press", domain.KindWeightReps, done("80", "8")))

	s := Summary(finished, prior, folders, 0)
	require.NotNil(t, s.Suggestion)
	assert.Equal(t, "Pull Day", s.Suggestion.TemplateName)
	assert.Len(t, s.NewRecords, 1)
	assert.Nil(t, s.Progression)
	assert.Equal(t, 640.0, s.Volume.TotalVolume)
}
