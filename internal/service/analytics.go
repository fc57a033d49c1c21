package service

import (
	"math"

	"github.com/mansoorceksport/hutraz/internal/domain"
)

// Projection maps a set to the single number records are compared on.
// It reports false when the set has no positive, parseable value.
func Projection(kind domain.ExerciseKind, set domain.Set, bodyweightKg float64) (float64, bool) {
	var v float64
	switch kind.Normalize() {
	case domain.KindWeightReps:
		kg, ok1 := domain.ParseNumber(set.KG)
		reps, ok2 := domain.ParseNumber(set.Reps)
		if !ok1 || !ok2 {
			return 0, false
		}
		v = kg * reps
	case domain.KindBodyweightReps:
		reps, ok := domain.ParseNumber(set.Reps)
		if !ok {
			return 0, false
		}
		// weight delta is optional
		delta, _ := domain.ParseNumber(set.KG)
		v = (bodyweightKg + delta) * reps
	case domain.KindRepsOnly:
		reps, ok := domain.ParseNumber(set.Reps)
		if !ok {
			return 0, false
		}
		v = reps
	case domain.KindTimeOnly:
		secs, ok := domain.ParseSeconds(set.Time)
		if !ok {
			return 0, false
		}
		v = float64(secs)
	case domain.KindDistanceTime:
		dist, ok := domain.ParseNumber(set.Distance)
		if !ok {
			return 0, false
		}
		v = dist
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// BestSet finds the highest scoring set logged for an exercise across history.
// It returns nil when nothing qualifies.
func BestSet(name string, kind domain.ExerciseKind, history []domain.Workout, bodyweightKg float64) *domain.BestSet {
	kind = kind.Normalize()
	var best *domain.BestSet
	for _, w := range history {
		for _, ex := range w.Exercises {
			if ex.Name != name || ex.Kind.Normalize() != kind {
				continue
			}
			for _, set := range ex.Sets {
				v, ok := Projection(kind, set, bodyweightKg)
				if !ok || (best != nil && v <= best.Value) {
					continue
				}
				best = &domain.BestSet{
					ExerciseName: name,
					Kind:         kind,
					Value:        v,
					Set:          set.Values(kind),
					Date:         w.Date,
					Display:      domain.FormatSet(kind, set),
				}
			}
		}
	}
	return best
}

// FindNewPRs compares each exercise's best completed set in finished against
// the all-time best in prior. Only strictly better values are records; an
// exercise without qualifying history records any qualifying value.
func FindNewPRs(finished domain.Workout, prior []domain.Workout, bodyweightKg float64) []domain.PersonalRecord {
	var (
		order   []exerciseKey
		session = make(map[exerciseKey]domain.PersonalRecord)
	)
	for _, ex := range finished.Exercises {
		key := exerciseKey{name: ex.Name, kind: ex.Kind.Normalize()}
		for _, set := range ex.Sets {
			if !set.Completed {
				continue
			}
			v, ok := Projection(key.kind, set, bodyweightKg)
			if !ok {
				continue
			}
			cur, seen := session[key]
			if seen && v <= cur.Value {
				continue
			}
			if !seen {
				order = append(order, key)
			}
			session[key] = domain.PersonalRecord{
				ExerciseName: key.name,
				Kind:         key.kind,
				Value:        v,
				Set:          set.Values(key.kind),
				Display:      domain.FormatSet(key.kind, set),
			}
		}
	}

	var records []domain.PersonalRecord
	for _, key := range order {
		rec := session[key]
		if prev := BestSet(key.name, key.kind, prior, bodyweightKg); prev != nil {
			if rec.Value <= prev.Value {
				continue
			}
			pv := prev.Value
			rec.PreviousBest = &pv
		}
		records = append(records, rec)
	}
	return records
}

// Volume aggregates the completed sets of a workout. Volume counts every set
// whose kg and reps both parse, whatever the kind.
func Volume(w domain.Workout) domain.SessionVolume {
	vol := domain.SessionVolume{DurationSeconds: w.DurationSeconds}
	for _, ex := range w.Exercises {
		counted := false
		for _, set := range ex.Sets {
			if !set.Completed {
				continue
			}
			counted = true
			vol.TotalSets++
			reps, okReps := domain.ParseNumber(set.Reps)
			if okReps {
				vol.TotalReps += int(reps)
			}
			if kg, ok := domain.ParseNumber(set.KG); ok && okReps {
				vol.TotalVolume += kg * reps
			}
		}
		if counted {
			vol.ExerciseCount++
		}
	}
	return vol
}

// Progression compares finished with the newest prior workout of the same
// template. It returns nil for a workout without a template or the first use
// of one.
func Progression(finished domain.Workout, prior []domain.Workout) *domain.Progression {
	if finished.TemplateName == nil {
		return nil
	}
	name := *finished.TemplateName
	for _, w := range prior {
		if w.TemplateName == nil || *w.TemplateName != name {
			continue
		}
		cur, prev := Volume(finished), Volume(w)
		return &domain.Progression{
			TemplateName:  name,
			PreviousDate:  w.Date,
			Current:       cur,
			Previous:      prev,
			VolumeDelta:   cur.TotalVolume - prev.TotalVolume,
			SetsDelta:     cur.TotalSets - prev.TotalSets,
			DurationDelta: cur.DurationSeconds - prev.DurationSeconds,
		}
	}
	return nil
}

// SuggestNext proposes the template after the one used by the newest workout,
// wrapping to the start of its folder.
func SuggestNext(history []domain.Workout, folders []domain.Folder) *domain.Suggestion {
	if len(history) == 0 || history[0].TemplateName == nil {
		return nil
	}
	last := *history[0].TemplateName
	for _, f := range folders {
		for i, t := range f.Templates {
			if t.Name != last {
				continue
			}
			next := f.Templates[(i+1)%len(f.Templates)]
			return &domain.Suggestion{
				Ref:          domain.TemplateRef{FolderID: f.ID, TemplateID: next.ID},
				TemplateName: next.Name,
				FolderName:   f.Name,
				After:        last,
			}
		}
	}
	return nil
}

// Summary builds the post-workout report. prior must not contain finished.
func Summary(finished domain.Workout, prior []domain.Workout, folders []domain.Folder, bodyweightKg float64) domain.Summary {
	history := make([]domain.Workout, 0, len(prior)+1)
	history = append(history, finished)
	history = append(history, prior...)
	return domain.Summary{
		Workout:     finished.Clone(),
		NewRecords:  FindNewPRs(finished, prior, bodyweightKg),
		Progression: Progression(finished, prior),
		Suggestion:  SuggestNext(history, folders),
		Volume:      Volume(finished),
	}
}
