package service

import (
	"math"

	"github.com/mansoorceksport/hutraz/internal/domain"
	"github.com/mansoorceksport/hutraz/internal/scheduler"
)

// RestResult is a finished rest period and the set it belongs to.
// ExerciseIndex is -1 when the target set was deleted while the timer ran.
type RestResult struct {
	ExerciseIndex int
	SetIndex      int
	Seconds       int
}

// RestTimer keeps at most one rest countdown alive.
//
// It does no locking of its own: every method must be called while the owner's
// lock is held, and scheduler callbacks re-enter through guard.
type RestTimer struct {
	sched scheduler.Scheduler
	guard func(func())

	// record is called under the owner's lock when a rest period completes.
	record func(RestResult)
	// notify is called without the lock after a rest period completes.
	notify func(RestResult)

	slot *restSlot
	gen  int
}

type restSlot struct {
	gen    int
	state  domain.RestTimer
	cancel scheduler.Cancel
}

// NewRestTimer wires a timer to a scheduler. guard must run fn under the lock
// that protects the timer.
func NewRestTimer(sched scheduler.Scheduler, guard func(func()), record func(RestResult)) *RestTimer {
	return &RestTimer{sched: sched, guard: guard, record: record}
}

// OnComplete registers the completion notification (haptics, sound).
func (t *RestTimer) OnComplete(fn func(RestResult)) {
	t.notify = fn
}

// Start begins a rest period for the given set. A running period is replaced
// without being recorded.
func (t *RestTimer) Start(exerciseIndex, setIndex, seconds int) {
	t.Cancel()
	if seconds <= 0 {
		return
	}
	t.gen++
	gen := t.gen
	slot := &restSlot{
		gen: gen,
		state: domain.RestTimer{
			TargetExerciseIndex:  exerciseIndex,
			TargetSetIndex:       setIndex,
			RemainingSeconds:     seconds,
			TotalDurationSeconds: seconds,
			StartedAt:            t.sched.Now(),
		},
	}
	t.slot = slot
	slot.cancel = t.sched.Schedule(seconds,
		func(remaining int) {
			t.guard(func() {
				if t.slot != nil && t.slot.gen == gen {
					t.slot.state.RemainingSeconds = remaining
				}
			})
		},
		func() {
			var done *RestResult
			t.guard(func() {
				if t.slot != nil && t.slot.gen == gen {
					done = t.complete()
				}
			})
			if done != nil && t.notify != nil {
				t.notify(*done)
			}
		},
	)
}

// Skip ends the running period now, recording the real elapsed time.
// It returns nil when no timer is running.
func (t *RestTimer) Skip() *RestResult {
	if t.slot == nil {
		return nil
	}
	return t.complete()
}

// Cancel drops the running period without recording anything.
func (t *RestTimer) Cancel() {
	if t.slot == nil {
		return
	}
	t.slot.cancel()
	t.slot = nil
}

// Running reports whether a period is counting down.
func (t *RestTimer) Running() bool {
	return t.slot != nil
}

// State returns a copy of the running timer, or nil.
func (t *RestTimer) State() *domain.RestTimer {
	if t.slot == nil {
		return nil
	}
	st := t.slot.state
	return &st
}

// ExerciseRemoved keeps the target pointing at the same set after exercise i is removed.
func (t *RestTimer) ExerciseRemoved(i int) {
	if t.slot == nil {
		return
	}
	st := &t.slot.state
	switch {
	case st.TargetExerciseIndex == i:
		st.TargetExerciseIndex, st.TargetSetIndex = -1, -1
	case st.TargetExerciseIndex > i:
		st.TargetExerciseIndex--
	}
}

// ExercisesSwapped follows a reorder of exercises i and j.
func (t *RestTimer) ExercisesSwapped(i, j int) {
	if t.slot == nil {
		return
	}
	st := &t.slot.state
	switch st.TargetExerciseIndex {
	case i:
		st.TargetExerciseIndex = j
	case j:
		st.TargetExerciseIndex = i
	}
}

// SetRemoved follows the removal of set j of exercise i.
func (t *RestTimer) SetRemoved(i, j int) {
	if t.slot == nil {
		return
	}
	st := &t.slot.state
	if st.TargetExerciseIndex != i {
		return
	}
	switch {
	case st.TargetSetIndex == j:
		st.TargetExerciseIndex, st.TargetSetIndex = -1, -1
	case st.TargetSetIndex > j:
		st.TargetSetIndex--
	}
}

func (t *RestTimer) complete() *RestResult {
	slot := t.slot
	slot.cancel()
	t.slot = nil

	elapsed := t.sched.Now().Sub(slot.state.StartedAt).Seconds()
	res := RestResult{
		ExerciseIndex: slot.state.TargetExerciseIndex,
		SetIndex:      slot.state.TargetSetIndex,
		Seconds:       int(math.Max(0, math.Round(elapsed))),
	}
	if t.record != nil {
		t.record(res)
	}
	return &res
}
