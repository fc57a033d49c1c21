package service

import (
	"context"
	"sync"
	"time"

	"github.com/mansoorceksport/hutraz/internal/domain"
	"github.com/sirupsen/logrus"
)

// SettingsService holds the user preferences stored under separate keys.
type SettingsService struct {
	mu       sync.Mutex
	store    domain.StateStore
	settings domain.Settings
}

func NewSettingsService(store domain.StateStore) *SettingsService {
	return &SettingsService{store: store, settings: domain.DefaultSettings()}
}

// Load reads each setting, keeping the default for keys never written. A
// stored value out of range falls back to its own default only.
func (s *SettingsService) Load(ctx context.Context) error {
	stored := domain.DefaultSettings()
	if _, err := loadKey(ctx, s.store, domain.KeyDefaultRestSeconds, &stored.DefaultRestSeconds); err != nil {
		return err
	}
	if _, err := loadKey(ctx, s.store, domain.KeyBodyweightKg, &stored.BodyweightKg); err != nil {
		return err
	}
	if _, err := loadKey(ctx, s.store, domain.KeyWeekStartDay, &stored.WeekStartDay); err != nil {
		return err
	}

	settings := domain.DefaultSettings()
	keep := func(key string, apply func(*domain.Settings)) {
		next := settings
		apply(&next)
		if err := next.Validate(); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("stored setting out of range, using default")
			return
		}
		settings = next
	}
	keep(domain.KeyDefaultRestSeconds, func(st *domain.Settings) { st.DefaultRestSeconds = stored.DefaultRestSeconds })
	keep(domain.KeyBodyweightKg, func(st *domain.Settings) { st.BodyweightKg = stored.BodyweightKg })
	keep(domain.KeyWeekStartDay, func(st *domain.Settings) { st.WeekStartDay = stored.WeekStartDay })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return nil
}

// Snapshot returns the persisted settings when change covers them.
func (s *SettingsService) Snapshot(change domain.Change) map[string]interface{} {
	out := make(map[string]interface{})
	if !change.Has(domain.ChangeSettings) {
		return out
	}
	st := s.Get()
	out[domain.KeyDefaultRestSeconds] = st.DefaultRestSeconds
	out[domain.KeyBodyweightKg] = st.BodyweightKg
	out[domain.KeyWeekStartDay] = int(st.WeekStartDay)
	return out
}

func (s *SettingsService) Get() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateDefaultRest sets the rest used by exercises without an override.
func (s *SettingsService) UpdateDefaultRest(seconds int) (domain.Change, error) {
	return s.update(func(st *domain.Settings) { st.DefaultRestSeconds = seconds })
}

// UpdateBodyweight sets the bodyweight used by bodyweight_reps records.
func (s *SettingsService) UpdateBodyweight(kg float64) (domain.Change, error) {
	return s.update(func(st *domain.Settings) { st.BodyweightKg = kg })
}

// UpdateWeekStartDay sets the day weekly activity counts from.
func (s *SettingsService) UpdateWeekStartDay(day time.Weekday) (domain.Change, error) {
	return s.update(func(st *domain.Settings) { st.WeekStartDay = day })
}

func (s *SettingsService) update(apply func(*domain.Settings)) (domain.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.settings
	apply(&next)
	if err := next.Validate(); err != nil {
		return domain.ChangeNone, err
	}
	if next == s.settings {
		return domain.ChangeNone, nil
	}
	s.settings = next
	return domain.ChangeSettings, nil
}
