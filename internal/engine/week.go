package engine

import (
	"time"

	"fluxcoach/internal/model"
)

// Weeks run Monday through Sunday.

// WeekStart returns the enclosing Monday at local midnight. Uses
// AddDate to stay safe across month and year boundaries.
func WeekStart(t time.Time) time.Time {
	day := model.Midnight(t)
	weekday := int(day.Weekday()) // 0=Sun
	if weekday == 0 {
		weekday = 7 // Mon=1 .. Sun=7
	}
	return day.AddDate(0, 0, -(weekday - 1))
}

// WeekEnd returns the enclosing Sunday at local midnight.
func WeekEnd(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 6)
}
