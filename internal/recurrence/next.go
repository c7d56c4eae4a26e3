package recurrence

import (
	"time"

	"github.com/samber/mo"
)

// MaxAttempts bounds how many times NextFree moves past an occupied slot.
const MaxAttempts = 30

// weeklyScanDays is how far ahead FindNext looks for a configured weekday.
const weeklyScanDays = 14

// FindNext returns the occurrence that follows base under rule. The result
// always carries base's hour and minute.
func FindNext(base time.Time, rule Rule) time.Time {
	return atClockOf(findNext(base, rule), base)
}

func findNext(base time.Time, rule Rule) time.Time {
	switch rule.Kind {
	case KindDaily:
		return base.AddDate(0, 0, 1)

	case KindWeekly:
		if len(rule.Days) == 0 {
			return base.AddDate(0, 0, 7)
		}
		for i := 1; i <= weeklyScanDays; i++ {
			cand := base.AddDate(0, 0, i)
			if containsDay(rule.Days, cand.Weekday()) {
				return cand
			}
		}
		return base.AddDate(0, 0, 7)

	case KindMonthly:
		if len(rule.Days) == 0 {
			return addMonthsClamped(base, 1)
		}
		for m := 0; m < MonthlyHorizonMonths; m++ {
			for _, c := range monthCandidates(base, m, rule) {
				if c.After(base) {
					return c
				}
			}
		}
		return addMonthsClamped(base, 1)

	default:
		return base.AddDate(0, 0, 1)
	}
}

// NextFree resolves the occurrence after base that does not overlap any of
// the existing slots. Each occupied candidate is skipped by advancing the
// rule again, up to MaxAttempts times; when the bound is reached no
// occurrence is returned.
func NextFree(base time.Time, rule Rule, durationMinutes int, existing []Slot) mo.Option[time.Time] {
	next := FindNext(base, rule)
	attempts := 0
	for attempts < MaxAttempts && Overlaps(next, durationMinutes, existing) {
		next = atClockOf(FindNext(next, rule), base)
		attempts++
	}
	if attempts >= MaxAttempts {
		return mo.None[time.Time]()
	}
	return mo.Some(next)
}

func containsDay(days []time.Weekday, d time.Weekday) bool {
	for _, x := range days {
		if x == d {
			return true
		}
	}
	return false
}
