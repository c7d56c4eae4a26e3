package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindNext(t *testing.T) {
	tests := []struct {
		name     string
		base     time.Time
		rule     Rule
		expected time.Time
	}{
		{"Daily", date(2024, 1, 31, 9, 0), Daily(), date(2024, 2, 1, 9, 0)},
		{"Weekly Monday to Tuesday", date(2024, 1, 1, 9, 0), Weekly(time.Tuesday, time.Thursday), date(2024, 1, 2, 9, 0)},
		{"Weekly Tuesday to Thursday", date(2024, 1, 2, 9, 0), Weekly(time.Tuesday, time.Thursday), date(2024, 1, 4, 9, 0)},
		{"Weekly same day next week", date(2024, 1, 2, 9, 0), Weekly(time.Tuesday), date(2024, 1, 9, 9, 0)},
		{"Weekly without days", date(2024, 1, 2, 9, 0), Weekly(), date(2024, 1, 9, 9, 0)},
		{"Monthly without days clamps", date(2024, 1, 31, 10, 15), Monthly(nil), date(2024, 2, 29, 10, 15)},
		{"Monthly first Monday", date(2024, 1, 1, 9, 0), Monthly([]int{1}, time.Monday), date(2024, 2, 5, 9, 0)},
		{"Monthly default ordinal", date(2024, 1, 1, 9, 0), Monthly(nil, time.Monday), date(2024, 2, 5, 9, 0)},
		{"Monthly last in same month", date(2024, 1, 2, 8, 0), Monthly([]int{1, LastWeek}, time.Tuesday), date(2024, 1, 30, 8, 0)},
		{"Monthly last Friday of February", date(2024, 2, 1, 12, 0), Monthly([]int{LastWeek}, time.Friday), date(2024, 2, 23, 12, 0)},
		{"None advances a day", date(2024, 1, 1, 9, 0), None(), date(2024, 1, 2, 9, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FindNext(tt.base, tt.rule))
		})
	}
}

func TestFindNext_ClearsSeconds(t *testing.T) {
	base := time.Date(2024, 1, 1, 9, 0, 45, 500, time.UTC)

	assert.Equal(t, date(2024, 1, 2, 9, 0), FindNext(base, Daily()))
}

func weeklySlots(first time.Time, n, minutes int) []Slot {
	slots := make([]Slot, n)
	for i := range slots {
		slots[i] = Slot{Start: first.AddDate(0, 0, 7*i), Minutes: minutes}
	}
	return slots
}

func TestNextFree(t *testing.T) {
	base := date(2024, 1, 2, 9, 0) // Tuesday
	rule := Weekly(time.Tuesday)

	t.Run("Free slot", func(t *testing.T) {
		next := NextFree(base, rule, 60, nil)
		require.True(t, next.IsPresent())
		assert.Equal(t, date(2024, 1, 9, 9, 0), next.MustGet())
	})

	t.Run("Skips occupied slots", func(t *testing.T) {
		existing := weeklySlots(date(2024, 1, 9, 9, 0), 3, 60)
		next := NextFree(base, rule, 60, existing)
		require.True(t, next.IsPresent())
		assert.Equal(t, date(2024, 1, 30, 9, 0), next.MustGet())
	})

	t.Run("Zero duration ignores occupied slots", func(t *testing.T) {
		existing := weeklySlots(date(2024, 1, 9, 9, 0), 3, 60)
		next := NextFree(base, rule, 0, existing)
		assert.Equal(t, date(2024, 1, 9, 9, 0), next.MustGet())
	})

	t.Run("Last attempt still free", func(t *testing.T) {
		existing := weeklySlots(date(2024, 1, 9, 9, 0), MaxAttempts-1, 60)
		next := NextFree(base, rule, 60, existing)
		require.True(t, next.IsPresent())
		assert.Equal(t, date(2024, 1, 9, 9, 0).AddDate(0, 0, 7*(MaxAttempts-1)), next.MustGet())
	})

	t.Run("Gives up after bounded attempts", func(t *testing.T) {
		existing := weeklySlots(date(2024, 1, 9, 9, 0), MaxAttempts, 60)
		assert.True(t, NextFree(base, rule, 60, existing).IsAbsent())
	})

	t.Run("Everything occupied", func(t *testing.T) {
		existing := weeklySlots(date(2024, 1, 9, 9, 0), 100, 60)
		assert.True(t, NextFree(base, rule, 60, existing).IsAbsent())
	})
}

func TestOverlaps(t *testing.T) {
	nine := date(2024, 1, 1, 9, 0)
	ten := date(2024, 1, 1, 10, 0)

	assert.True(t, Overlaps(ten, 90, []Slot{{Start: nine, Minutes: 90}}))
	assert.False(t, Overlaps(ten, 30, []Slot{{Start: nine, Minutes: 30}}))
	assert.False(t, Overlaps(ten, 60, []Slot{{Start: nine, Minutes: 60}}), "touching intervals do not overlap")
	assert.False(t, Overlaps(nine, 0, []Slot{{Start: nine, Minutes: 60}}))
	assert.False(t, Overlaps(nine, 60, []Slot{{Start: nine.Add(30 * time.Minute), Minutes: 0}}))
	assert.True(t, Overlaps(nine, 30, []Slot{{Start: ten, Minutes: 15}, {Start: nine.Add(-10 * time.Minute), Minutes: 15}}))
	assert.False(t, Overlaps(nine, 30, nil))
}

func TestReschedule(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		expected time.Time
	}{
		{"Next hour too close", date(2024, 3, 5, 8, 45), date(2024, 3, 6, 9, 30)},
		{"Next hour", date(2024, 3, 5, 7, 0), date(2024, 3, 5, 8, 0)},
		{"Exactly thirty minutes", date(2024, 3, 5, 8, 30), date(2024, 3, 5, 9, 0)},
		{"Next hour crosses midnight", date(2024, 3, 5, 23, 10), date(2024, 3, 6, 0, 0)},
		{"Late evening falls back", date(2024, 3, 5, 23, 40), date(2024, 3, 6, 9, 30)},
		{"Month end", date(2024, 1, 31, 22, 50), date(2024, 2, 1, 9, 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Reschedule(tt.now, tt.now))
		})
	}
}
