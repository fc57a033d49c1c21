package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the short-date format workouts are stamped with (day.month.year,
// no zero padding). Streak matching compares these strings exactly.
const DateLayout = "2.1.2006"

// FormatDate renders t with DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseNumber reads a user-entered number. Both "." and "," work as decimal separator.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseSeconds reads a duration written as "ss", "m:ss" or "h:mm:ss".
func ParseSeconds(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, false
	}
	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0, false
		}
		if i > 0 && n >= 60 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}

// FormatSeconds renders seconds as "m:ss", or "h:mm:ss" past an hour.
func FormatSeconds(sec int) string {
	if sec < 0 {
		sec = 0
	}
	h, m, s := sec/3600, (sec%3600)/60, sec%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatNumber drops a trailing ".0" so 85 prints as "85" and 82.5 as "82.5".
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatSet renders a set the way it is shown in summaries and PR lines.
func FormatSet(kind ExerciseKind, s Set) string {
	switch kind.Normalize() {
	case KindWeightReps:
		return fmt.Sprintf("%s kg × %s", numberOrRaw(s.KG), numberOrRaw(s.Reps))
	case KindBodyweightReps:
		delta, _ := ParseNumber(s.KG)
		switch {
		case delta > 0:
			return fmt.Sprintf("BW + %s kg × %s", FormatNumber(delta), numberOrRaw(s.Reps))
		case delta < 0:
			return fmt.Sprintf("BW - %s kg × %s", FormatNumber(-delta), numberOrRaw(s.Reps))
		}
		return fmt.Sprintf("BW × %s", numberOrRaw(s.Reps))
	case KindRepsOnly:
		return fmt.Sprintf("%s reps", numberOrRaw(s.Reps))
	case KindTimeOnly:
		return durationOrRaw(s.Time)
	case KindDistanceTime:
		var parts []string
		if filled(s.Distance) {
			parts = append(parts, numberOrRaw(s.Distance)+" km")
		}
		if filled(s.Time) {
			parts = append(parts, durationOrRaw(s.Time))
		}
		return strings.Join(parts, " · ")
	}
	return ""
}

func numberOrRaw(v string) string {
	if n, ok := ParseNumber(v); ok {
		return FormatNumber(n)
	}
	return strings.TrimSpace(v)
}

func durationOrRaw(v string) string {
	if n, ok := ParseSeconds(v); ok {
		return FormatSeconds(n)
	}
	return strings.TrimSpace(v)
}
