package recurrence

import "time"

// RescheduleMinLead is the shortest acceptable lead time for the next
// top-of-the-hour slot.
const RescheduleMinLead = 30 * time.Minute

// Fallback slot used when the next hour is too close.
const (
	fallbackHour   = 9
	fallbackMinute = 30
)

// Reschedule picks a new due time for an overdue reminder: the next top of
// the hour after now, or 09:30 on the day after refDay when that hour is less
// than RescheduleMinLead away.
//
// This is a two-slot heuristic. It does not look at existing occurrences, so
// the chosen slot may overlap another reminder.
func Reschedule(now, refDay time.Time) time.Time {
	nextHour := time.Date(now.Year(), now.Month(), now.Day(), now.Hour()+1, 0, 0, 0, now.Location())
	if nextHour.Sub(now) >= RescheduleMinLead {
		return nextHour
	}
	return time.Date(refDay.Year(), refDay.Month(), refDay.Day()+1, fallbackHour, fallbackMinute, 0, 0, refDay.Location())
}
