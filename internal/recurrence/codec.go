package recurrence

import (
	"strconv"
	"strings"
	"time"
)

// Tag prefixes of the legacy tag encoding. Reminders used to carry their
// recurrence and duration as entries of the free-form tag list; the codec
// below converts between that encoding and Rule.
const (
	recPrefix = "rec:"
	durPrefix = "dur:"
)

// IsEncoded reports whether tag is a recurrence or duration encoding.
func IsEncoded(tag string) bool {
	return strings.HasPrefix(tag, recPrefix) || strings.HasPrefix(tag, durPrefix)
}

// StripEncoded returns the tags that are not recurrence or duration
// encodings, in their original order.
func StripEncoded(tags []string) []string {
	labels := make([]string, 0, len(tags))
	for _, t := range tags {
		if !IsEncoded(t) {
			labels = append(labels, t)
		}
	}
	return labels
}

// Encode replaces any recurrence and duration encodings in existing with the
// encoding of rule and durationMinutes. Other tags keep their order. The rule
// is only appended when it recurs, the duration only when it is positive.
func Encode(rule Rule, durationMinutes int, existing []string) []string {
	tags := StripEncoded(existing)
	if tag := EncodeRule(rule); tag != "" {
		tags = append(tags, tag)
	}
	if durationMinutes > 0 {
		tags = append(tags, durPrefix+strconv.Itoa(durationMinutes))
	}
	return tags
}

// EncodeRule returns the tag for rule, or "" when it does not recur.
//
//	rec:daily
//	rec:weekly:Mon,Wed
//	rec:monthly:weeks=1,3;days=Tue,Thu
func EncodeRule(rule Rule) string {
	switch rule.Kind {
	case KindDaily:
		return recPrefix + "daily"
	case KindWeekly:
		return recPrefix + "weekly:" + joinDays(rule.Days)
	case KindMonthly:
		var fields []string
		if len(rule.Weeks) > 0 {
			weeks := make([]string, len(rule.Weeks))
			for i, n := range rule.Weeks {
				weeks[i] = strconv.Itoa(n)
			}
			fields = append(fields, "weeks="+strings.Join(weeks, ","))
		}
		if len(rule.Days) > 0 {
			fields = append(fields, "days="+joinDays(rule.Days))
		}
		return recPrefix + "monthly:" + strings.Join(fields, ";")
	default:
		return ""
	}
}

// Decode returns the rule encoded by the first rec:* tag. Missing, unknown or
// malformed encodings decode to the non-recurring rule; Decode never fails.
func Decode(tags []string) Rule {
	for _, t := range tags {
		if strings.HasPrefix(t, recPrefix) {
			return decodeRule(t)
		}
	}
	return None()
}

func decodeRule(tag string) Rule {
	parts := strings.Split(tag, ":")
	if len(parts) < 2 {
		return None()
	}

	switch ParseKind(parts[1]) {
	case KindDaily:
		return Daily()
	case KindWeekly:
		r := Rule{Kind: KindWeekly}
		if len(parts) > 2 {
			r.Days = parseDays(parts[2])
		}
		return r
	case KindMonthly:
		r := Rule{Kind: KindMonthly}
		if len(parts) < 3 {
			return r
		}
		payload := strings.Join(parts[2:], ":")
		for _, field := range strings.Split(payload, ";") {
			key, value, ok := strings.Cut(strings.TrimSpace(field), "=")
			if !ok {
				continue
			}
			switch key {
			case "weeks":
				r.Weeks = parseWeeks(value)
			case "days":
				r.Days = parseDays(value)
			}
		}
		return r
	default:
		return None()
	}
}

// DecodeDuration returns the minutes encoded by the first dur:* tag. Missing,
// non-numeric and negative values yield 0.
func DecodeDuration(tags []string) int {
	for _, t := range tags {
		if !strings.HasPrefix(t, durPrefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(t, durPrefix)))
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	return 0
}

func joinDays(days []time.Weekday) string {
	codes := make([]string, 0, len(days))
	for _, d := range days {
		if c := DayCode(d); c != "" {
			codes = append(codes, c)
		}
	}
	return strings.Join(codes, ",")
}

func parseDays(s string) []time.Weekday {
	var days []time.Weekday
	for _, code := range strings.Split(s, ",") {
		if d, ok := ParseDay(strings.TrimSpace(code)); ok {
			days = append(days, d)
		}
	}
	return days
}

func parseWeeks(s string) []int {
	var weeks []int
	for _, v := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || !ValidWeek(n) {
			continue
		}
		weeks = append(weeks, n)
	}
	return weeks
}
