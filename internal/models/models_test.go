package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/cadence/internal/recurrence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePriority(t *testing.T) {
	assert.Equal(t, PriorityLow, NormalizePriority("LOW"))
	assert.Equal(t, PriorityHigh, NormalizePriority(" high "))
	assert.Equal(t, PriorityHigh, NormalizePriority("urgent"))
	assert.Equal(t, PriorityMed, NormalizePriority("med"))
	assert.Equal(t, PriorityMed, NormalizePriority(""))
	assert.Equal(t, PriorityMed, NormalizePriority("whatever"))
}

func TestNormalizeColor(t *testing.T) {
	tests := []struct {
		in       string
		expected string
		ok       bool
	}{
		{"", DefaultGroupColor, true},
		{"#FFAA00", "#ffaa00", true},
		{"#abc", "#abc", true},
		{"Blue", "blue", true},
		{"#12345", "", false},
		{"chartreuse", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizeColor(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.expected, got, tt.in)
	}
}

func TestReminder_LegacyTags(t *testing.T) {
	r := &Reminder{Tags: []string{"work", "rec:weekly:Mon,Wed", "dur:45", "focus"}}
	r.LiftLegacyTags()

	assert.Equal(t, []string{"work", "focus"}, r.Tags)
	assert.Equal(t, recurrence.Weekly(time.Monday, time.Wednesday), r.Recurrence)
	assert.Equal(t, 45, r.DurationMinutes)
	assert.Equal(t, []string{"work", "focus", "rec:weekly:Mon,Wed", "dur:45"}, r.WireTags())
}

func TestReminder_LiftKeepsStructuredFields(t *testing.T) {
	r := &Reminder{
		Tags:            []string{"rec:daily", "dur:10"},
		Recurrence:      recurrence.Monthly([]int{-1}, time.Friday),
		DurationMinutes: 90,
	}
	r.LiftLegacyTags()

	assert.Empty(t, r.Tags)
	assert.Equal(t, recurrence.Monthly([]int{-1}, time.Friday), r.Recurrence)
	assert.Equal(t, 90, r.DurationMinutes)
}

func TestReminder_IsOverdue(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.True(t, (&Reminder{Status: StatusTodo, DueAt: &past}).IsOverdue(now))
	assert.False(t, (&Reminder{Status: StatusDone, DueAt: &past}).IsOverdue(now))
	assert.False(t, (&Reminder{Status: StatusTodo, DueAt: &future}).IsOverdue(now))
	assert.False(t, (&Reminder{Status: StatusTodo}).IsOverdue(now))
}

func TestSlots(t *testing.T) {
	due := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	slots := Slots([]*Reminder{
		{DueAt: &due, DurationMinutes: 30},
		{DurationMinutes: 60},
	})

	require.Len(t, slots, 1)
	assert.Equal(t, recurrence.Slot{Start: due, Minutes: 30}, slots[0])
}

func TestReminder_NextInstance(t *testing.T) {
	due := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	group := uuid.New()
	notified := due
	r := &Reminder{
		ID:              uuid.New(),
		UserID:          7,
		Title:           "standup",
		Notes:           "daily sync",
		DueAt:           &due,
		GroupID:         &group,
		Tags:            []string{"work"},
		Recurrence:      recurrence.Weekly(time.Tuesday),
		DurationMinutes: 15,
		Status:          StatusDone,
		Priority:        PriorityHigh,
		NotifiedAt:      &notified,
	}

	next := r.NextInstance(due.AddDate(0, 0, 7))
	assert.Equal(t, uuid.Nil, next.ID)
	assert.Equal(t, StatusTodo, next.Status)
	assert.Nil(t, next.NotifiedAt)
	assert.Equal(t, due.AddDate(0, 0, 7), *next.DueAt)
	assert.Equal(t, r.Title, next.Title)
	assert.Equal(t, r.Notes, next.Notes)
	assert.Equal(t, r.Recurrence, next.Recurrence)
	assert.Equal(t, r.DurationMinutes, next.DurationMinutes)
	assert.Equal(t, r.Priority, next.Priority)
	assert.Equal(t, group, *next.GroupID)

	next.Tags[0] = "changed"
	assert.Equal(t, "work", r.Tags[0])
}

func TestReminder_Clone(t *testing.T) {
	due := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	r := &Reminder{Title: "a", DueAt: &due, Tags: []string{"x"}}

	c := r.Clone()
	*c.DueAt = due.Add(time.Hour)
	c.Tags[0] = "y"

	assert.Equal(t, due, *r.DueAt)
	assert.Equal(t, "x", r.Tags[0])
}
