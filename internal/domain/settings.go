package domain

import (
	"fmt"
	"math"
	"time"
)

const (
	DefaultRestSeconds = 90
	MaxRestSeconds     = 60 * 60
	MaxBodyweightKg    = 500
)

// Settings are the user preferences the engine and analytics depend on.
type Settings struct {
	DefaultRestSeconds int          `json:"defaultRestSeconds"`
	BodyweightKg       float64      `json:"bodyweightKg"`
	WeekStartDay       time.Weekday `json:"weekStartDay"`
}

// DefaultSettings returns the values used before the user changes anything.
func DefaultSettings() Settings {
	return Settings{
		DefaultRestSeconds: DefaultRestSeconds,
		WeekStartDay:       time.Monday,
	}
}

// Validate rejects values outside the accepted ranges.
func (s Settings) Validate() error {
	if s.DefaultRestSeconds < 0 || s.DefaultRestSeconds > MaxRestSeconds {
		return fmt.Errorf("%w: default rest %d", ErrInvalidSetting, s.DefaultRestSeconds)
	}
	if math.IsNaN(s.BodyweightKg) || s.BodyweightKg < 0 || s.BodyweightKg > MaxBodyweightKg {
		return fmt.Errorf("%w: bodyweight %v", ErrInvalidSetting, s.BodyweightKg)
	}
	if s.WeekStartDay < time.Sunday || s.WeekStartDay > time.Saturday {
		return fmt.Errorf("%w: week start day %d", ErrInvalidSetting, s.WeekStartDay)
	}
	return nil
}
