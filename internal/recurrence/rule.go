// Package recurrence expands reminder recurrence rules into concrete
// occurrence dates and picks the next free slot when an occurrence is
// completed. Everything in this package is pure and synchronous.
package recurrence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hray3182/cadence/internal/rrule"
)

// Kind is the recurrence frequency of a rule.
type Kind int

const (
	KindNone Kind = iota
	KindDaily
	KindWeekly
	KindMonthly
)

func (k Kind) String() string {
	switch k {
	case KindDaily:
		return "daily"
	case KindWeekly:
		return "weekly"
	case KindMonthly:
		return "monthly"
	default:
		return "none"
	}
}

// ParseKind maps an encoded kind to a Kind. Unknown values map to KindNone.
func ParseKind(s string) Kind {
	switch s {
	case "daily":
		return KindDaily
	case "weekly":
		return KindWeekly
	case "monthly":
		return KindMonthly
	default:
		return KindNone
	}
}

// LastWeek is the ordinal for the last occurrence of a weekday in a month.
const LastWeek = -1

// Rule is a decoded recurrence rule.
//
// Days keeps the order in which the days were configured so that a decoded
// rule re-encodes to the exact same tag. Weeks holds ordinals from
// {1,2,3,4,-1} and is only meaningful for KindMonthly; an empty list means
// "first week".
type Rule struct {
	Kind  Kind
	Days  []time.Weekday
	Weeks []int
}

// None returns the non-recurring rule.
func None() Rule { return Rule{} }

// Daily returns a rule that repeats every day.
func Daily() Rule { return Rule{Kind: KindDaily} }

// Weekly returns a rule that repeats on the given weekdays.
func Weekly(days ...time.Weekday) Rule {
	r := Rule{Kind: KindWeekly}
	if len(days) > 0 {
		r.Days = append([]time.Weekday(nil), days...)
	}
	return r
}

// Monthly returns a rule that repeats on the given ordinal weekdays of every
// month, e.g. Monthly([]int{1, -1}, time.Tuesday) for the first and last
// Tuesday.
func Monthly(weeks []int, days ...time.Weekday) Rule {
	r := Rule{Kind: KindMonthly}
	if len(weeks) > 0 {
		r.Weeks = append([]int(nil), weeks...)
	}
	if len(days) > 0 {
		r.Days = append([]time.Weekday(nil), days...)
	}
	return r
}

// IsRecurring reports whether the rule produces further occurrences.
func (r Rule) IsRecurring() bool {
	return r.Kind != KindNone
}

// ordinals returns the configured week ordinals, defaulting to the first week.
func (r Rule) ordinals() []int {
	if len(r.Weeks) == 0 {
		return []int{1}
	}
	return r.Weeks
}

// RRule renders the rule as an RFC 5545 RRULE value. Non-recurring rules
// render as the empty string.
func (r Rule) RRule() string {
	b, ok := r.builder()
	if !ok {
		return ""
	}
	return b.String()
}

// CheckRRule reports whether the rendered RRULE is accepted by rrule-go for
// an event starting at dtstart. Non-recurring rules always pass.
func (r Rule) CheckRRule(dtstart time.Time) error {
	b, ok := r.builder()
	if !ok {
		return nil
	}
	return b.Validate(dtstart)
}

func (r Rule) builder() (rrule.Builder, bool) {
	b := rrule.Builder{ByDay: r.Days, Ordinals: r.Weeks}
	switch r.Kind {
	case KindDaily:
		b.Freq = rrule.FreqDaily
	case KindWeekly:
		b.Freq = rrule.FreqWeekly
	case KindMonthly:
		b.Freq = rrule.FreqMonthly
	default:
		return b, false
	}
	return b, true
}

// Describe returns a short human readable description, e.g.
// "every month on 1st Tue, last Tue".
func (r Rule) Describe() string {
	return rrule.HumanReadable(r.RRule())
}

var dayCodes = [...]string{
	time.Sunday:    "Sun",
	time.Monday:    "Mon",
	time.Tuesday:   "Tue",
	time.Wednesday: "Wed",
	time.Thursday:  "Thu",
	time.Friday:    "Fri",
	time.Saturday:  "Sat",
}

// DayCode returns the three letter code used in the tag encoding.
func DayCode(d time.Weekday) string {
	if d < time.Sunday || d > time.Saturday {
		return ""
	}
	return dayCodes[d]
}

// ParseDay parses a three letter day code (Mon..Sun).
func ParseDay(code string) (time.Weekday, bool) {
	for d, c := range dayCodes {
		if c == code {
			return time.Weekday(d), true
		}
	}
	return 0, false
}

// ValidWeek reports whether n is a supported week ordinal.
func ValidWeek(n int) bool {
	return n == LastWeek || (n >= 1 && n <= 4)
}

type ruleJSON struct {
	Kind  string   `json:"kind"`
	Days  []string `json:"days,omitempty"`
	Weeks []int    `json:"weeks,omitempty"`
}

// MarshalJSON stores the rule as {"kind":"weekly","days":["Mon","Wed"]}.
func (r Rule) MarshalJSON() ([]byte, error) {
	out := ruleJSON{Kind: r.Kind.String(), Weeks: r.Weeks}
	for _, d := range r.Days {
		out.Days = append(out.Days, DayCode(d))
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the stored rule. Unknown days and invalid ordinals are
// dropped rather than rejected; an unknown kind yields KindNone.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var in ruleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("failed to parse recurrence rule: %w", err)
	}
	*r = Rule{Kind: ParseKind(in.Kind)}
	if r.Kind == KindNone {
		return nil
	}
	for _, code := range in.Days {
		if d, ok := ParseDay(code); ok {
			r.Days = append(r.Days, d)
		}
	}
	for _, n := range in.Weeks {
		if ValidWeek(n) {
			r.Weeks = append(r.Weeks, n)
		}
	}
	return nil
}
