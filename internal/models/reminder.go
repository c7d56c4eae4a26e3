package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/cadence/internal/recurrence"
)

type Status string

const (
	StatusTodo Status = "todo"
	StatusDone Status = "done"
)

type Priority string

const (
	PriorityLow  Priority = "low"
	PriorityMed  Priority = "med"
	PriorityHigh Priority = "high"
)

// NormalizePriority maps user input to a Priority, defaulting to med.
func NormalizePriority(p string) Priority {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "low", "l", "1":
		return PriorityLow
	case "high", "h", "3", "urgent":
		return PriorityHigh
	default:
		return PriorityMed
	}
}

// Reminder is one dated (or inbox) occurrence. Occurrences generated from a
// recurrence rule are independent rows with no link to each other.
type Reminder struct {
	ID              uuid.UUID       `json:"id"`
	UserID          int64           `json:"user_id"`
	Title           string          `json:"title"`
	Notes           string          `json:"notes"`
	DueAt           *time.Time      `json:"due_at"` // nil = inbox
	GroupID         *uuid.UUID      `json:"group_id"`
	Tags            []string        `json:"tags"` // free-form labels
	Recurrence      recurrence.Rule `json:"recurrence"`
	DurationMinutes int             `json:"duration_minutes"`
	Status          Status          `json:"status"`
	Priority        Priority        `json:"priority"`
	NotifiedAt      *time.Time      `json:"notified_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// IsRecurring returns true if this reminder has a recurrence rule
func (r *Reminder) IsRecurring() bool {
	return r.Recurrence.IsRecurring()
}

func (r *Reminder) IsDone() bool {
	return r.Status == StatusDone
}

// IsOverdue reports whether the reminder is still open and due before now.
func (r *Reminder) IsOverdue(now time.Time) bool {
	return r.Status != StatusDone && r.DueAt != nil && r.DueAt.Before(now)
}

// WireTags returns the labels followed by the legacy rec:/dur: encoding of
// the rule and duration.
func (r *Reminder) WireTags() []string {
	return recurrence.Encode(r.Recurrence, r.DurationMinutes, r.Tags)
}

// LiftLegacyTags moves any rec:/dur: encodings found in Tags into the
// structured fields. Encodings only override fields that are still unset.
func (r *Reminder) LiftLegacyTags() {
	if !r.Recurrence.IsRecurring() {
		r.Recurrence = recurrence.Decode(r.Tags)
	}
	if r.DurationMinutes <= 0 {
		r.DurationMinutes = recurrence.DecodeDuration(r.Tags)
	}
	r.Tags = recurrence.StripEncoded(r.Tags)
}

// Slot returns the span the reminder occupies, false for inbox reminders.
func (r *Reminder) Slot() (recurrence.Slot, bool) {
	if r.DueAt == nil {
		return recurrence.Slot{}, false
	}
	return recurrence.Slot{Start: *r.DueAt, Minutes: r.DurationMinutes}, true
}

// Slots collects the occupied spans of the scheduled reminders.
func Slots(reminders []*Reminder) []recurrence.Slot {
	slots := make([]recurrence.Slot, 0, len(reminders))
	for _, r := range reminders {
		if s, ok := r.Slot(); ok {
			slots = append(slots, s)
		}
	}
	return slots
}

// NextInstance clones r into a new todo occurrence due at dueAt. The clone
// has no id; the store assigns one.
func (r *Reminder) NextInstance(dueAt time.Time) *Reminder {
	due := dueAt
	next := &Reminder{
		UserID:          r.UserID,
		Title:           r.Title,
		Notes:           r.Notes,
		DueAt:           &due,
		Tags:            append([]string(nil), r.Tags...),
		Recurrence:      r.Recurrence,
		DurationMinutes: r.DurationMinutes,
		Status:          StatusTodo,
		Priority:        r.Priority,
	}
	if r.GroupID != nil {
		g := *r.GroupID
		next.GroupID = &g
	}
	return next
}

// Clone returns a deep copy of r.
func (r *Reminder) Clone() *Reminder {
	c := *r
	c.Tags = append([]string(nil), r.Tags...)
	if r.DueAt != nil {
		d := *r.DueAt
		c.DueAt = &d
	}
	if r.GroupID != nil {
		g := *r.GroupID
		c.GroupID = &g
	}
	if r.NotifiedAt != nil {
		n := *r.NotifiedAt
		c.NotifiedAt = &n
	}
	return &c
}
