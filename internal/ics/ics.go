// Package ics renders reminders as an iCalendar document so they can be
// imported into calendar applications.
package ics

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/hray3182/cadence/internal/models"
)

const productID = "-//cadence//Reminders//EN"

// ContentType is the media type of an exported document.
const ContentType = "text/calendar; charset=utf-8"

// Non-standard properties carrying reminder state that VEVENT has no slot for.
const (
	propStatus = "X-CADENCE-STATUS"
	propRule   = "X-CADENCE-RRULE"
)

// ErrEmpty is returned when there is no scheduled reminder to export.
var ErrEmpty = errors.New("no scheduled reminders to export")

// Export writes one VEVENT per scheduled reminder. Inbox reminders are
// skipped. Occurrences are exported individually; the rule is attached as
// an informational property so importers do not expand it a second time.
func Export(w io.Writer, reminders []*models.Reminder, groups map[uuid.UUID]*models.Group, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	for _, r := range reminders {
		if r.DueAt == nil {
			continue
		}
		cal.Children = append(cal.Children, event(r, groups, stamp).Component)
	}
	if len(cal.Children) == 0 {
		return ErrEmpty
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

func event(r *models.Reminder, groups map[uuid.UUID]*models.Group, stamp time.Time) *ical.Event {
	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, r.ID.String())
	ev.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ev.Props.SetText(ical.PropSummary, r.Title)

	start := r.DueAt.UTC()
	ev.Props.SetDateTime(ical.PropDateTimeStart, start)
	if r.DurationMinutes > 0 {
		ev.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(time.Duration(r.DurationMinutes)*time.Minute))
	}
	if r.Notes != "" {
		ev.Props.SetText(ical.PropDescription, r.Notes)
	}
	if !r.UpdatedAt.IsZero() {
		ev.Props.SetDateTime(ical.PropLastModified, r.UpdatedAt.UTC())
	}
	ev.Props.SetText(ical.PropPriority, strconv.Itoa(icalPriority(r.Priority)))

	categories := append([]string(nil), r.Tags...)
	if r.GroupID != nil {
		if g, ok := groups[*r.GroupID]; ok {
			categories = append(categories, g.Name)
		}
	}
	for _, c := range categories {
		prop := ical.NewProp(ical.PropCategories)
		prop.SetText(c)
		ev.Props.Add(prop)
	}

	status := ical.NewProp(propStatus)
	status.SetText(string(r.Status))
	ev.Props.Set(status)

	if rule := r.Recurrence.RRule(); rule != "" {
		if err := r.Recurrence.CheckRRule(start); err != nil {
			log.Printf("Failed to export recurrence of %s: %v", r.ID, err)
		} else {
			prop := ical.NewProp(propRule)
			prop.Value = rule
			ev.Props.Set(prop)
		}
	}
	return ev
}

// icalPriority maps priorities to the RFC 5545 scale (1 highest, 9 lowest).
func icalPriority(p models.Priority) int {
	switch p {
	case models.PriorityHigh:
		return 1
	case models.PriorityLow:
		return 9
	default:
		return 5
	}
}
