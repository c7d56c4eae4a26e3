package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestSeed_Weekly(t *testing.T) {
	first := date(2024, 1, 2, 9, 0) // Tuesday
	got := Seed(first, Weekly(time.Tuesday, time.Thursday))

	require.Len(t, got, 2*WeeklyHorizonWeeks-1)
	assert.Equal(t, date(2024, 1, 4, 9, 0), got[0])
	assert.Equal(t, date(2024, 1, 9, 9, 0), got[1])
	assert.Equal(t, date(2024, 3, 21, 9, 0), got[len(got)-1])

	for i, occ := range got {
		assert.True(t, occ.After(first))
		assert.Contains(t, []time.Weekday{time.Tuesday, time.Thursday}, occ.Weekday())
		assert.Equal(t, 9, occ.Hour())
		if i > 0 {
			assert.True(t, occ.After(got[i-1]), "occurrences must be sorted and unique")
		}
	}
}

func TestSeed_WeeklyFirstNotOnConfiguredDay(t *testing.T) {
	first := date(2024, 1, 3, 18, 30) // Wednesday
	got := Seed(first, Weekly(time.Monday))

	require.Len(t, got, WeeklyHorizonWeeks)
	assert.Equal(t, date(2024, 1, 8, 18, 30), got[0])
}

func TestSeed_MonthlyFirstMonday(t *testing.T) {
	first := date(2024, 1, 1, 9, 0) // first Monday of January
	got := Seed(first, Monthly([]int{1}, time.Monday))

	require.Len(t, got, MonthlyHorizonMonths-1)
	assert.Equal(t, date(2024, 2, 5, 9, 0), got[0])
	assert.Equal(t, date(2024, 12, 2, 9, 0), got[len(got)-1])
	for _, occ := range got {
		assert.Equal(t, time.Monday, occ.Weekday())
		assert.LessOrEqual(t, occ.Day(), 7, "%s is not the first Monday", occ)
		assert.NotEqual(t, first, occ)
	}
}

func TestSeed_MonthlyFirstAndLast(t *testing.T) {
	first := date(2024, 1, 2, 8, 0)
	got := Seed(first, Monthly([]int{1, LastWeek}, time.Tuesday))

	require.NotEmpty(t, got)
	assert.Equal(t, date(2024, 1, 30, 8, 0), got[0])
	assert.Equal(t, date(2024, 2, 6, 8, 0), got[1])
	assert.Equal(t, date(2024, 2, 27, 8, 0), got[2])
}

func TestSeed_MonthlyDropsDatesBeforeFirst(t *testing.T) {
	first := date(2024, 1, 20, 8, 0) // after the first Tuesday of January
	got := Seed(first, Monthly([]int{1, LastWeek}, time.Tuesday))

	require.Len(t, got, 2*MonthlyHorizonMonths-1)
	assert.Equal(t, date(2024, 1, 30, 8, 0), got[0])
	assert.NotContains(t, got, date(2024, 1, 2, 8, 0))
}

func TestSeed_NotSeeded(t *testing.T) {
	first := date(2024, 1, 1, 9, 0)

	assert.Empty(t, Seed(first, None()))
	assert.Empty(t, Seed(first, Daily()))
	assert.Empty(t, Seed(first, Weekly()))
	assert.Empty(t, Seed(first, Monthly([]int{1})))
}

func TestMonthCandidates_LastFriday(t *testing.T) {
	got := monthCandidates(date(2024, 2, 1, 12, 0), 0, Monthly([]int{LastWeek}, time.Friday))

	assert.Equal(t, []time.Time{date(2024, 2, 23, 12, 0)}, got)
}

func TestAddMonthsClamped(t *testing.T) {
	assert.Equal(t, date(2024, 2, 29, 10, 15), addMonthsClamped(date(2024, 1, 31, 10, 15), 1))
	assert.Equal(t, date(2023, 2, 28, 10, 15), addMonthsClamped(date(2023, 1, 31, 10, 15), 1))
	assert.Equal(t, date(2025, 1, 15, 7, 0), addMonthsClamped(date(2024, 12, 15, 7, 0), 1))
}
