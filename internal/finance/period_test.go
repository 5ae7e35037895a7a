package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func settingsWith(monthAnchor, weekAnchor int) core.Settings {
	s := core.DefaultSettings("u1")
	s.StartOfMonth = monthAnchor
	s.StartOfWeek = weekAnchor
	return s
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func eod(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 23, 59, 59, 999_000_000, time.UTC)
}

func TestMonthWindow(t *testing.T) {
	tests := []struct {
		name      string
		anchor    int
		ref       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"calendar month", 1, day(2024, 3, 15), day(2024, 3, 1), eod(2024, 3, 31)},
		{"before anchor uses previous month", 15, day(2024, 3, 10), day(2024, 2, 15), eod(2024, 3, 14)},
		{"on anchor", 15, day(2024, 3, 15), day(2024, 3, 15), eod(2024, 4, 14)},
		{"crosses year backwards", 10, day(2024, 1, 5), day(2023, 12, 10), eod(2024, 1, 9)},
		{"crosses year forwards", 20, day(2024, 12, 25), day(2024, 12, 20), eod(2025, 1, 19)},
		{"anchor 31 in 30-day month", 31, day(2024, 4, 30), day(2024, 3, 31), eod(2024, 4, 30)},
		{"anchor 31 overflows short february", 31, day(2024, 3, 5), day(2024, 3, 2), eod(2024, 4, 30)},
		{"anchor 31 on the 31st", 31, day(2024, 5, 31), day(2024, 5, 31), eod(2024, 6, 30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := MonthWindow(settingsWith(tt.anchor, 1), tt.ref)
			assert.Equal(t, tt.wantStart, w.Start)
			assert.Equal(t, tt.wantEnd, w.End)
		})
	}
}

func TestMonthWindowStartsOnAnchorWhenPastIt(t *testing.T) {
	for anchor := 1; anchor <= 28; anchor++ {
		for d := anchor; d <= 28; d++ {
			ref := time.Date(2023, 7, d, 17, 45, 0, 0, time.UTC)
			w := MonthWindow(settingsWith(anchor, 0), ref)
			require.Equal(t, day(2023, 7, anchor), w.Start, "anchor %d ref day %d", anchor, d)
			require.True(t, w.Contains(ref), "anchor %d ref day %d", anchor, d)
		}
	}
}

func TestMonthWindowIgnoresTimeOfDayAndZone(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	late := time.Date(2024, 3, 31, 23, 30, 0, 0, loc)
	w := MonthWindow(settingsWith(1, 1), late)
	assert.Equal(t, day(2024, 3, 1), w.Start)
	assert.Equal(t, eod(2024, 3, 31), w.End)
}

func TestWeekWindow(t *testing.T) {
	tests := []struct {
		name      string
		anchor    int
		ref       time.Time
		wantStart time.Time
	}{
		{"monday anchor on friday", 1, day(2024, 3, 15), day(2024, 3, 11)},
		{"monday anchor on monday", 1, day(2024, 3, 11), day(2024, 3, 11)},
		{"monday anchor on sunday", 1, day(2024, 3, 17), day(2024, 3, 11)},
		{"sunday anchor on sunday", 0, day(2024, 3, 17), day(2024, 3, 17)},
		{"saturday anchor on friday", 6, day(2024, 3, 15), day(2024, 3, 9)},
		{"crosses month", 1, day(2024, 3, 1), day(2024, 2, 26)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := WeekWindow(settingsWith(1, tt.anchor), tt.ref)
			assert.Equal(t, tt.wantStart, w.Start)
			assert.Equal(t, eod(tt.wantStart.Year(), tt.wantStart.Month(), tt.wantStart.Day()+6), w.End)
		})
	}
}

func TestWeekWindowAlwaysSevenDaysAroundRef(t *testing.T) {
	span := 6*24*time.Hour + 23*time.Hour + 59*time.Minute + 59*time.Second + 999*time.Millisecond
	ref := day(2024, 1, 1)
	for i := 0; i < 400; i++ {
		for anchor := 0; anchor <= 6; anchor++ {
			w := WeekWindow(settingsWith(1, anchor), ref)
			require.Equal(t, span, w.End.Sub(w.Start))
			require.True(t, w.Contains(ref), "ref %s anchor %d", ref, anchor)
			require.Equal(t, time.Weekday(anchor), w.Start.Weekday())
			require.Len(t, w.Days(), 7)
		}
		ref = ref.AddDate(0, 0, 1).Add(13 * time.Hour)
	}
}

func TestWindowDays(t *testing.T) {
	w := MonthWindow(settingsWith(1, 1), day(2024, 2, 10))
	days := w.Days()
	require.Len(t, days, 29)
	assert.Equal(t, "2024-02-01", days[0].String())
	assert.Equal(t, "2024-02-29", days[28].String())
}
