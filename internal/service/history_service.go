package service

import (
	"context"
	"sync"

	"github.com/mansoorceksport/hutraz/internal/domain"
)

// HistoryService is the newest-first log of finished workouts.
type HistoryService struct {
	mu       sync.Mutex
	store    domain.StateStore
	workouts []domain.Workout
}

func NewHistoryService(store domain.StateStore) *HistoryService {
	return &HistoryService{store: store}
}

// Load reads the persisted history.
func (s *HistoryService) Load(ctx context.Context) error {
	var workouts []domain.Workout
	if _, err := loadKey(ctx, s.store, domain.KeyHistory, &workouts); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workouts = cloneWorkouts(workouts)
	return nil
}

// Snapshot returns the persisted history when change covers it.
func (s *HistoryService) Snapshot(change domain.Change) map[string]interface{} {
	out := make(map[string]interface{})
	if !change.Has(domain.ChangeHistory) {
		return out
	}
	out[domain.KeyHistory] = s.All()
	return out
}

// Append records a finished workout as the newest entry.
func (s *HistoryService) Append(w domain.Workout) domain.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	workouts := make([]domain.Workout, 0, len(s.workouts)+1)
	workouts = append(workouts, w.Clone())
	s.workouts = append(workouts, s.workouts...)
	return domain.ChangeHistory
}

// All returns every workout, newest first.
func (s *HistoryService) All() []domain.Workout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneWorkouts(s.workouts)
}

// Len is the number of logged workouts.
func (s *HistoryService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workouts)
}

// Prior returns every workout except the newest.
func (s *HistoryService) Prior() []domain.Workout {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.workouts) == 0 {
		return nil
	}
	return cloneWorkouts(s.workouts[1:])
}

// Get returns workout i, counted from the newest.
func (s *HistoryService) Get(i int) (domain.Workout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.workouts) {
		return domain.Workout{}, domain.ErrIndexOutOfRange
	}
	return s.workouts[i].Clone(), nil
}

// DeleteWorkout removes workout i.
func (s *HistoryService) DeleteWorkout(i int) (domain.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.workouts) {
		return domain.ChangeNone, domain.ErrIndexOutOfRange
	}
	workouts := make([]domain.Workout, 0, len(s.workouts)-1)
	workouts = append(workouts, s.workouts[:i]...)
	s.workouts = append(workouts, s.workouts[i+1:]...)
	return domain.ChangeHistory, nil
}

func cloneWorkouts(in []domain.Workout) []domain.Workout {
	out := make([]domain.Workout, len(in))
	for i, w := range in {
		out[i] = w.Clone()
	}
	return out
}
