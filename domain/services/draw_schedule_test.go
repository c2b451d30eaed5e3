package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"whogowin/domain/entities"
)

func TestDailyWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 12, 14, 30, 45, 0, time.UTC)
	start, end := DailyWindow(now)

	assert.Equal(t, time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 6, 12, 23, 59, 59, 0, time.UTC), end)
}

func TestWeeklyWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "midweek",
			now:       time.Date(2024, 6, 12, 14, 0, 0, 0, time.UTC), // Wednesday
			wantStart: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 6, 16, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "monday is its own week start",
			now:       time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 6, 16, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "sunday belongs to the preceding monday",
			now:       time.Date(2024, 6, 16, 23, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 6, 16, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "week spanning a month boundary",
			now:       time.Date(2024, 7, 2, 9, 0, 0, 0, time.UTC), // Tuesday
			wantStart: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 7, 7, 23, 59, 59, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := WeeklyWindow(tt.now)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestMonthlyWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "mid-month",
			now:       time.Date(2024, 6, 12, 14, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "february in a leap year",
			now:       time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "december rolls into the new year",
			now:       time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := MonthlyWindow(tt.now)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestScheduleWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 12, 14, 0, 0, 0, time.UTC)

	dailyStart, _ := scheduleWindow(entities.DrawTypeDaily, now)
	assert.Equal(t, time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC), dailyStart)

	weeklyStart, _ := scheduleWindow(entities.DrawTypeWeekly, now)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), weeklyStart)

	monthlyStart, _ := scheduleWindow(entities.DrawTypeMonthly, now)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), monthlyStart)
}
