package service

import (
	"time"

	"github.com/mansoorceksport/hutraz/internal/domain"
)

const activityDays = 7

// WeekActivity marks which of the last seven calendar days, ending today, had
// a workout. ThisWeek counts worked days since the latest weekStart.
func WeekActivity(history []domain.Workout, weekStart time.Weekday, today time.Time) domain.WeekActivity {
	worked := make(map[string]bool, len(history))
	for _, w := range history {
		worked[w.Date] = true
	}

	y, m, d := today.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, today.Location())

	activity := domain.WeekActivity{Days: make([]domain.DayActivity, 0, activityDays)}
	for i := activityDays - 1; i >= 0; i-- {
		day := midnight.AddDate(0, 0, -i)
		date := domain.FormatDate(day)
		activity.Days = append(activity.Days, domain.DayActivity{
			Date:    date,
			Weekday: day.Weekday(),
			Worked:  worked[date],
			Today:   i == 0,
		})
	}

	back := (int(midnight.Weekday()) - int(weekStart) + 7) % 7
	for i := 0; i <= back; i++ {
		if worked[domain.FormatDate(midnight.AddDate(0, 0, -i))] {
			activity.ThisWeek++
		}
	}
	return activity
}

// Totals counts logged workouts and every set stored with them.
func Totals(history []domain.Workout) domain.Totals {
	totals := domain.Totals{Workouts: len(history)}
	for _, w := range history {
		for _, ex := range w.Exercises {
			totals.SetsLogged += len(ex.Sets)
		}
	}
	return totals
}
