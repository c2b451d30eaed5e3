package services

import (
	"time"

	"whogowin/domain/entities"
)

// DailyWindow returns the sales window of the daily draw covering now:
// midnight to 23:59:59 UTC of the same day
func DailyWindow(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, time.UTC)
	return start, end
}

// WeeklyWindow returns the sales window of the weekly draw covering now.
// Weeks start Monday 00:00 UTC and end Sunday 23:59:59.
func WeeklyWindow(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	monday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -daysSinceMonday)
	sunday := monday.AddDate(0, 0, 6)
	end := time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 23, 59, 59, 0, time.UTC)
	return monday, end
}

// MonthlyWindow returns the sales window of the monthly draw covering
// now: the first of the month until one second before the next month
func MonthlyWindow(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end
}

// scheduleWindow returns the current sales window for a draw cadence
func scheduleWindow(drawType entities.DrawType, now time.Time) (time.Time, time.Time) {
	switch drawType {
	case entities.DrawTypeWeekly:
		return WeeklyWindow(now)
	case entities.DrawTypeMonthly:
		return MonthlyWindow(now)
	default:
		return DailyWindow(now)
	}
}
