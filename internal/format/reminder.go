package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/cadence/internal/insights"
	"github.com/hray3182/cadence/internal/models"
)

const (
	shortIDLen = 8
	dueLayout  = "Mon 01-02 15:04"
)

// ShortID is the id prefix shown to users and accepted back by commands.
func ShortID(id uuid.UUID) string {
	return id.String()[:shortIDLen]
}

// Reminder renders one reminder as a Markdown block.
func Reminder(r *models.Reminder, loc *time.Location) string {
	var sb strings.Builder
	mark := "⬜"
	if r.IsDone() {
		mark = "✅"
	}
	fmt.Fprintf(&sb, "%s **%s** `%s`\n", mark, r.Title, ShortID(r.ID))

	details := []string{"inbox"}
	if r.DueAt != nil {
		details = []string{r.DueAt.In(loc).Format(dueLayout)}
	}
	if r.DurationMinutes > 0 {
		details = append(details, Duration(r.DurationMinutes))
	}
	if r.Priority == models.PriorityHigh {
		details = append(details, "high")
	}
	fmt.Fprintf(&sb, "   📅 %s\n", strings.Join(details, " · "))

	if r.IsRecurring() {
		fmt.Fprintf(&sb, "   🔄 %s\n", r.Recurrence.Describe())
	}
	if len(r.Tags) > 0 {
		fmt.Fprintf(&sb, "   🏷 #%s\n", strings.Join(r.Tags, " #"))
	}
	return sb.String()
}

// ReminderList renders a titled list, or empty when there is nothing to show.
func ReminderList(title string, reminders []*models.Reminder, loc *time.Location, empty string) string {
	if len(reminders) == 0 {
		return empty
	}
	var sb strings.Builder
	sb.WriteString("**" + title + "**\n\n")
	for _, r := range reminders {
		sb.WriteString(Reminder(r, loc))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Duration renders minutes as "45m", "2h" or "1h30m".
func Duration(minutes int) string {
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh%02dm", h, m)
	}
}

// Report renders completion stats with a small bar per day.
func Report(r insights.Report) string {
	var sb strings.Builder
	s := r.Summary
	fmt.Fprintf(&sb, "📊 **Stats**\n\nDone %d/%d (%d%%)\nPending %d, overdue %d\n\n", s.Done, s.Total, s.Percent, s.Pending, s.Overdue)
	for _, d := range r.Days {
		if d.Created == 0 {
			continue
		}
		fmt.Fprintf(&sb, "`%s` %s%s %d/%d\n", d.Label,
			strings.Repeat("■", d.Done), strings.Repeat("□", d.Created-d.Done), d.Done, d.Created)
	}
	return sb.String()
}
