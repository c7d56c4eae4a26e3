// Package insights computes the aggregates shown on the stats views.
package insights

import (
	"math"
	"time"

	"github.com/hray3182/cadence/internal/models"
)

// Summary counts reminders by state.
type Summary struct {
	Done    int `json:"done"`
	Pending int `json:"pending"`
	Overdue int `json:"overdue"`
	Total   int `json:"total"`
	Percent int `json:"percent"` // done / total, rounded
}

// DayCount is the number of reminders due on one day and how many of them
// are done.
type DayCount struct {
	Date    time.Time `json:"date"`
	Label   string    `json:"label"`
	Created int       `json:"created"`
	Done    int       `json:"done"`
}

// Report is the full stats payload.
type Report struct {
	Summary Summary    `json:"summary"`
	Days    []DayCount `json:"days"`
}

func Summarize(reminders []*models.Reminder, now time.Time) Summary {
	var s Summary
	for _, r := range reminders {
		if r.IsDone() {
			s.Done++
			continue
		}
		s.Pending++
		if r.IsOverdue(now) {
			s.Overdue++
		}
	}
	s.Total = s.Done + s.Pending
	if s.Total > 0 {
		s.Percent = int(math.Round(float64(s.Done) / float64(s.Total) * 100))
	}
	return s
}

// ByDay buckets reminders by the calendar day of their due date in start's
// location, for days consecutive days from start. Inbox reminders and those
// outside the window are ignored.
func ByDay(reminders []*models.Reminder, start time.Time, days int) []DayCount {
	loc := start.Location()
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)

	rows := make([]DayCount, days)
	index := make(map[string]int, days)
	for i := range rows {
		d := first.AddDate(0, 0, i)
		rows[i] = DayCount{Date: d, Label: d.Format("01-02")}
		index[d.Format(time.DateOnly)] = i
	}

	for _, r := range reminders {
		if r.DueAt == nil {
			continue
		}
		i, ok := index[r.DueAt.In(loc).Format(time.DateOnly)]
		if !ok {
			continue
		}
		rows[i].Created++
		if r.IsDone() {
			rows[i].Done++
		}
	}
	return rows
}

// Build assembles the report for the window starting at start.
func Build(reminders []*models.Reminder, start time.Time, days int, now time.Time) Report {
	return Report{
		Summary: Summarize(reminders, now),
		Days:    ByDay(reminders, start, days),
	}
}
