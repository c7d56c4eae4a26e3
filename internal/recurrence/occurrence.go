package recurrence

import (
	"log"
	"sort"
	"time"

	"github.com/hray3182/cadence/internal/rrule"
)

// Generation horizons for batch seeding.
const (
	WeeklyHorizonWeeks   = 12
	MonthlyHorizonMonths = 12
)

// Seed expands rule from the first persisted occurrence and returns the
// additional occurrence times to create, sorted ascending. The first
// occurrence itself and anything before it are never returned: for monthly
// rules, ordinal dates of the first month that fall before first are
// dropped rather than backfilled.
//
// Only weekly and monthly rules are seeded. Daily reminders advance one step
// at a time when an occurrence is completed.
func Seed(first time.Time, rule Rule) []time.Time {
	if len(rule.Days) == 0 {
		return nil
	}

	var candidates []time.Time
	switch rule.Kind {
	case KindWeekly:
		for w := 0; w < WeeklyHorizonWeeks; w++ {
			base := first.AddDate(0, 0, 7*w)
			for _, d := range rule.Days {
				diff := (int(d) - int(base.Weekday()) + 7) % 7
				candidates = append(candidates, atClockOf(base.AddDate(0, 0, diff), first))
			}
		}
	case KindMonthly:
		for m := 0; m < MonthlyHorizonMonths; m++ {
			candidates = append(candidates, monthCandidates(first, m, rule)...)
		}
	default:
		return nil
	}

	anchor := atClockOf(first, first)
	seen := make(map[int64]bool, len(candidates))
	var out []time.Time
	for _, c := range candidates {
		if !c.After(anchor) || seen[c.UnixNano()] {
			continue
		}
		seen[c.UnixNano()] = true
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// monthCandidates returns the ordinal weekday dates of the month that is
// offset months after ref's month, at ref's clock time, sorted ascending.
func monthCandidates(ref time.Time, offset int, rule Rule) []time.Time {
	month := time.Date(ref.Year(), ref.Month()+time.Month(offset), 1, 0, 0, 0, 0, ref.Location())

	var dates []time.Time
	for _, d := range rule.Days {
		got, err := rrule.MonthlyOrdinalDates(month.Year(), month.Month(), d, rule.ordinals(), ref)
		if err != nil {
			log.Printf("Failed to expand %s for %s: %v", EncodeRule(rule), month.Format("2006-01"), err)
			continue
		}
		dates = append(dates, got...)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// atClockOf returns t's calendar date at ref's hour and minute, seconds
// cleared, in t's location.
func atClockOf(t, ref time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), ref.Hour(), ref.Minute(), 0, 0, t.Location())
}

// addMonthsClamped adds n calendar months and clamps the day to the last day
// of the target month (Jan 31 + 1 month = Feb 29 in a leap year).
func addMonthsClamped(t time.Time, n int) time.Time {
	target := time.Date(t.Year(), t.Month()+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	day := t.Day()
	if last := daysIn(target.Year(), target.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
