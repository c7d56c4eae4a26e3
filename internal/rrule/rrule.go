package rrule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Common frequencies
const (
	FreqDaily   = rrule.DAILY
	FreqWeekly  = rrule.WEEKLY
	FreqMonthly = rrule.MONTHLY
)

// weekdays maps time.Weekday (Sunday = 0) to rrule-go weekdays (Monday = 0).
var weekdays = [...]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

var dayCodes = [...]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

// MonthlyOrdinalDates returns the dates in the given month that fall on the
// n-th weekday for each ordinal (1..5, or -1 for the last one). Ordinals that
// do not exist in the month are skipped. Each date carries the clock time of
// ref in ref's location. The result is sorted ascending.
func MonthlyOrdinalDates(year int, month time.Month, day time.Weekday, ordinals []int, ref time.Time) ([]time.Time, error) {
	loc := ref.Location()
	start := time.Date(year, month, 1, ref.Hour(), ref.Minute(), 0, 0, loc)
	end := start.AddDate(0, 1, 0)

	byday := make([]rrule.Weekday, 0, len(ordinals))
	for _, n := range ordinals {
		if n == 0 || n < -5 || n > 5 {
			continue
		}
		byday = append(byday, weekdays[day].Nth(n))
	}
	if len(byday) == 0 {
		return nil, nil
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.MONTHLY,
		Dtstart:   start,
		Byweekday: byday,
		Until:     end,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build monthly rule: %w", err)
	}

	var dates []time.Time
	for _, t := range rule.Between(start.Add(-time.Second), end, false) {
		// Guard against wall-clock normalization pushing a date out of the month.
		if t.Month() != month {
			continue
		}
		dates = append(dates, t.In(loc))
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// Builder creates an RRULE string from components
type Builder struct {
	Freq     rrule.Frequency
	ByDay    []time.Weekday
	Ordinals []int // only used with FreqMonthly
}

func (b *Builder) String() string {
	var parts []string

	freqMap := map[rrule.Frequency]string{
		rrule.DAILY:   "DAILY",
		rrule.WEEKLY:  "WEEKLY",
		rrule.MONTHLY: "MONTHLY",
	}
	parts = append(parts, fmt.Sprintf("FREQ=%s", freqMap[b.Freq]))

	if len(b.ByDay) > 0 && b.Freq != rrule.DAILY {
		var days []string
		if b.Freq == rrule.MONTHLY {
			ordinals := b.Ordinals
			if len(ordinals) == 0 {
				ordinals = []int{1}
			}
			for _, d := range b.ByDay {
				for _, n := range ordinals {
					days = append(days, fmt.Sprintf("%+d%s", n, dayCodes[d]))
				}
			}
		} else {
			for _, d := range b.ByDay {
				days = append(days, dayCodes[d])
			}
		}
		parts = append(parts, fmt.Sprintf("BYDAY=%s", strings.Join(days, ",")))
	}

	return strings.Join(parts, ";")
}

// Validate parses the built rule with rrule-go to make sure it is well formed.
func (b *Builder) Validate(dtstart time.Time) error {
	opt, err := rrule.StrToROption(b.String())
	if err != nil {
		return fmt.Errorf("failed to parse RRULE: %w", err)
	}
	opt.Dtstart = dtstart
	if _, err := rrule.NewRRule(*opt); err != nil {
		return fmt.Errorf("invalid RRULE: %w", err)
	}
	return nil
}

// HumanReadable returns a short English description of an RRULE string
func HumanReadable(ruleStr string) string {
	ruleStr = strings.TrimPrefix(ruleStr, "RRULE:")

	parts := strings.Split(ruleStr, ";")
	info := make(map[string]string)
	for _, p := range parts {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) == 2 {
			info[kv[0]] = kv[1]
		}
	}

	var result strings.Builder

	switch info["FREQ"] {
	case "DAILY":
		result.WriteString("every day")
	case "WEEKLY":
		result.WriteString("every week")
	case "MONTHLY":
		result.WriteString("every month")
	}

	if byDay := info["BYDAY"]; byDay != "" && result.Len() > 0 {
		dayMap := map[string]string{
			"MO": "Mon", "TU": "Tue", "WE": "Wed", "TH": "Thu",
			"FR": "Fri", "SA": "Sat", "SU": "Sun",
		}
		var named []string
		for _, d := range strings.Split(byDay, ",") {
			code := d[len(d)-min(2, len(d)):]
			name, ok := dayMap[code]
			if !ok {
				continue
			}
			if prefix := strings.TrimSuffix(d, code); prefix != "" {
				if n, err := strconv.Atoi(prefix); err == nil {
					name = ordinalName(n) + " " + name
				}
			}
			named = append(named, name)
		}
		if len(named) > 0 {
			result.WriteString(" on " + strings.Join(named, ", "))
		}
	}

	if result.Len() == 0 {
		return "once"
	}
	return result.String()
}

func ordinalName(n int) string {
	switch n {
	case -1:
		return "last"
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	default:
		return fmt.Sprintf("%dth", n)
	}
}
