package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hray3182/cadence/internal/models"
	"github.com/hray3182/cadence/internal/recurrence"
)

var errEmptyTitle = errors.New("a title is required")

// defaultClock is used when a date is given without a time.
const defaultHour, defaultMinute = 9, 0

// RemindArgs is a parsed /remind command.
type RemindArgs struct {
	Reminder *models.Reminder
	// Group is the @name given, resolved by the caller.
	Group string
}

// ParseRemind reads "[when] title [| option]...". when is one of
// "YYYY-MM-DD HH:MM", "YYYY-MM-DD", "today|tomorrow [HH:MM]" or "HH:MM";
// without it the reminder goes to the inbox. Options:
//
//	daily
//	every mon,wed
//	monthly 1,-1 tue
//	90m | 2h | 1h30m
//	#tag  !high  @group
func ParseRemind(args string, now time.Time) (*RemindArgs, error) {
	parts := strings.Split(args, "|")
	head := strings.Fields(parts[0])

	due, rest, err := parseWhen(head, now)
	if err != nil {
		return nil, err
	}

	r := &models.Reminder{
		DueAt:    due,
		Status:   models.StatusTodo,
		Priority: models.PriorityMed,
	}
	out := &RemindArgs{Reminder: r}

	var title []string
	for _, word := range rest {
		if !out.applyMarker(word) {
			title = append(title, word)
		}
	}
	r.Title = strings.Join(title, " ")
	if r.Title == "" {
		return nil, errEmptyTitle
	}

	for _, opt := range parts[1:] {
		if err := out.applyOption(strings.TrimSpace(opt)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseWhen(words []string, now time.Time) (*time.Time, []string, error) {
	if len(words) == 0 {
		return nil, nil, nil
	}
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	var (
		day     time.Time
		hasDay  bool
		clockAt = -1
	)
	switch strings.ToLower(words[0]) {
	case "today":
		day, hasDay = today, true
	case "tomorrow":
		day, hasDay = today.AddDate(0, 0, 1), true
	default:
		if d, err := time.ParseInLocation(time.DateOnly, words[0], loc); err == nil {
			day, hasDay = d, true
		}
	}

	i := 0
	if hasDay {
		i = 1
	}
	if i < len(words) {
		if c, err := time.Parse("15:04", words[i]); err == nil {
			clockAt = c.Hour()*60 + c.Minute()
			i++
		}
	}

	switch {
	case !hasDay && clockAt < 0:
		return nil, words, nil
	case !hasDay:
		at := time.Date(today.Year(), today.Month(), today.Day(), clockAt/60, clockAt%60, 0, 0, loc)
		// A bare clock time already past today means tomorrow.
		if !at.After(now) {
			at = time.Date(today.Year(), today.Month(), today.Day()+1, clockAt/60, clockAt%60, 0, 0, loc)
		}
		return &at, words[i:], nil
	case clockAt < 0:
		clockAt = defaultHour*60 + defaultMinute
	}
	at := time.Date(day.Year(), day.Month(), day.Day(), clockAt/60, clockAt%60, 0, 0, loc)
	return &at, words[i:], nil
}

// applyMarker consumes #tag, !priority and @group words.
func (a *RemindArgs) applyMarker(word string) bool {
	if len(word) < 2 {
		return false
	}
	switch word[0] {
	case '#':
		a.Reminder.Tags = append(a.Reminder.Tags, word[1:])
	case '!':
		a.Reminder.Priority = models.NormalizePriority(word[1:])
	case '@':
		a.Group = word[1:]
	default:
		return false
	}
	return true
}

func (a *RemindArgs) applyOption(opt string) error {
	if opt == "" {
		return nil
	}
	fields := strings.Fields(strings.ToLower(opt))
	switch fields[0] {
	case "daily":
		a.Reminder.Recurrence = recurrence.Daily()
		return nil
	case "every", "weekly":
		if len(fields) != 2 {
			return fmt.Errorf("usage: every mon,wed")
		}
		days, err := parseDays(fields[1])
		if err != nil {
			return err
		}
		a.Reminder.Recurrence = recurrence.Weekly(days...)
		return nil
	case "monthly":
		if len(fields) != 3 {
			return fmt.Errorf("usage: monthly 1,-1 tue")
		}
		weeks, err := parseWeeks(fields[1])
		if err != nil {
			return err
		}
		days, err := parseDays(fields[2])
		if err != nil {
			return err
		}
		a.Reminder.Recurrence = recurrence.Monthly(weeks, days...)
		return nil
	}

	if len(fields) == 1 {
		if d, err := time.ParseDuration(fields[0]); err == nil && d >= time.Minute {
			a.Reminder.DurationMinutes = int(d / time.Minute)
			return nil
		}
	}
	for _, word := range strings.Fields(opt) {
		if !a.applyMarker(word) {
			return fmt.Errorf("unknown option %q", opt)
		}
	}
	return nil
}

func parseDays(s string) ([]time.Weekday, error) {
	var days []time.Weekday
	for _, code := range strings.Split(s, ",") {
		if len(code) != 3 {
			return nil, fmt.Errorf("unknown day %q", code)
		}
		d, ok := recurrence.ParseDay(strings.ToUpper(code[:1]) + strings.ToLower(code[1:]))
		if !ok {
			return nil, fmt.Errorf("unknown day %q", code)
		}
		days = append(days, d)
	}
	return days, nil
}

func parseWeeks(s string) ([]int, error) {
	var weeks []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(part)
		if err != nil || !recurrence.ValidWeek(n) {
			return nil, fmt.Errorf("week must be 1-4 or -1, got %q", part)
		}
		weeks = append(weeks, n)
	}
	return weeks, nil
}
