// Package planner is the reminder service used by the bot and the HTTP API.
// It persists reminders, seeds recurring series, advances a series when an
// occurrence is completed and keeps the query cache consistent with writes.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/cadence/internal/auth"
	"github.com/hray3182/cadence/internal/cache"
	"github.com/hray3182/cadence/internal/insights"
	"github.com/hray3182/cadence/internal/models"
	"github.com/hray3182/cadence/internal/recurrence"
	"github.com/hray3182/cadence/internal/repository"
	"github.com/jmhodges/clock"
)

var (
	// ErrInvalid wraps input validation failures.
	ErrInvalid = errors.New("invalid input")
	// ErrAmbiguous is returned when an id prefix matches several reminders.
	ErrAmbiguous = errors.New("ambiguous id prefix")
)

// MinPrefixLen is the shortest id prefix Resolve accepts.
const MinPrefixLen = 4

// The occurrences loaded for overlap checks start existingBefore ahead of
// the completed occurrence and span MaxAttempts monthly steps after it.
const (
	existingBefore = 24 * time.Hour
	existingMonths = recurrence.MaxAttempts + 1
)

type Planner struct {
	reminders repository.ReminderStore
	groups    repository.GroupStore
	cache     *cache.Cache
	clk       clock.Clock
	loc       *time.Location
}

func New(reminders repository.ReminderStore, groups repository.GroupStore, c *cache.Cache, clk clock.Clock, loc *time.Location) *Planner {
	if loc == nil {
		loc = time.Local
	}
	return &Planner{
		reminders: reminders,
		groups:    groups,
		cache:     c,
		clk:       clk,
		loc:       loc,
	}
}

// Location returns the time zone reminders are scheduled in.
func (p *Planner) Location() *time.Location {
	return p.loc
}

// Now returns the current time in the planner's location.
func (p *Planner) Now() time.Time {
	return p.clk.Now().In(p.loc)
}

// SaveReminder creates or updates r. The primary write is authoritative and
// its error is returned. For a new weekly or monthly reminder with a due date
// the rest of the series is then seeded one record at a time; failures there
// are logged and skipped. It returns the number of seeded occurrences.
func (p *Planner) SaveReminder(ctx context.Context, r *models.Reminder) (int, error) {
	if err := p.prepare(ctx, r); err != nil {
		return 0, err
	}
	isNew := r.ID == uuid.Nil

	if err := p.reminders.Upsert(ctx, r); err != nil {
		return 0, fmt.Errorf("failed to save reminder: %w", err)
	}
	defer p.invalidateReminders()

	if !isNew || r.DueAt == nil {
		return 0, nil
	}

	seeded := 0
	for _, at := range recurrence.Seed(r.DueAt.In(p.loc), r.Recurrence) {
		occ := r.NextInstance(at)
		if err := p.reminders.Upsert(ctx, occ); err != nil {
			log.Printf("Failed to create occurrence of %s at %s: %v", r.ID, at.Format(time.RFC3339), err)
			continue
		}
		seeded++
	}
	return seeded, nil
}

// prepare validates r and fills defaults. For an existing reminder it keeps
// the notification stamp unless the due date moved.
func (p *Planner) prepare(ctx context.Context, r *models.Reminder) error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if r.DurationMinutes < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrInvalid)
	}
	r.LiftLegacyTags()
	if r.Status != models.StatusDone {
		r.Status = models.StatusTodo
	}
	r.Priority = models.NormalizePriority(string(r.Priority))
	if r.DueAt != nil {
		due := r.DueAt.In(p.loc).Truncate(time.Minute)
		r.DueAt = &due
	}

	if r.GroupID != nil {
		if _, err := p.groups.Get(ctx, *r.GroupID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: unknown group %s", ErrInvalid, r.GroupID)
			}
			return fmt.Errorf("failed to check group: %w", err)
		}
	}

	if r.ID == uuid.Nil {
		r.NotifiedAt = nil
		return nil
	}
	existing, err := p.reminders.Get(ctx, r.ID)
	if err != nil {
		return err
	}
	r.NotifiedAt = existing.NotifiedAt
	if !sameTime(existing.DueAt, r.DueAt) {
		r.NotifiedAt = nil
	}
	return nil
}

// ToggleResult reports a status change and the follow-up occurrence, if one
// was created.
type ToggleResult struct {
	Reminder *models.Reminder
	Next     *models.Reminder
}

// ToggleDone sets the status of a reminder. Cached range results are updated
// before the write and restored if it fails. Marking a recurring occurrence
// done creates the next free occurrence of its series; reopening it never
// removes that occurrence.
func (p *Planner) ToggleDone(ctx context.Context, id uuid.UUID, done bool) (*ToggleResult, error) {
	r, err := p.reminders.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	status := models.StatusTodo
	if done {
		status = models.StatusDone
	}
	result := &ToggleResult{Reminder: r}
	if r.Status == status {
		return result, nil
	}

	snapshot := p.cache.Snapshot(cache.PrefixReminders)
	p.cache.Update(cache.PrefixReminders, withStatus(id, status))
	if err := p.reminders.SetStatus(ctx, id, status); err != nil {
		p.cache.Restore(snapshot)
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	r.Status = status
	p.invalidateReminders()

	if !done || r.DueAt == nil || !r.IsRecurring() {
		return result, nil
	}

	next, err := p.advance(ctx, r)
	if err != nil {
		log.Printf("Failed to create next occurrence of %s: %v", r.ID, err)
		return result, nil
	}
	result.Next = next
	return result, nil
}

// advance persists the next free occurrence after r. It returns nil without
// error when every candidate within the attempt bound is occupied.
//
// Only occurrences starting at most existingBefore before r are checked, so
// one that starts earlier and runs longer than that is not seen as a
// conflict.
func (p *Planner) advance(ctx context.Context, r *models.Reminder) (*models.Reminder, error) {
	base := r.DueAt.In(p.loc)
	existing, err := p.reminders.List(ctx, base.Add(-existingBefore), base.AddDate(0, existingMonths, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to load existing occurrences: %w", err)
	}

	at, ok := recurrence.NextFree(base, r.Recurrence, r.DurationMinutes, models.Slots(existing)).Get()
	if !ok {
		log.Printf("No free slot for next occurrence of %s after %d attempts", r.ID, recurrence.MaxAttempts)
		return nil, nil
	}

	next := r.NextInstance(at)
	if err := p.reminders.Upsert(ctx, next); err != nil {
		return nil, err
	}
	p.invalidateReminders()
	return next, nil
}

// Reschedule moves a reminder to the slot picked by recurrence.Reschedule
// relative to refDay. A zero refDay means today.
func (p *Planner) Reschedule(ctx context.Context, id uuid.UUID, refDay time.Time) (*models.Reminder, error) {
	r, err := p.reminders.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := p.Now()
	if refDay.IsZero() {
		refDay = now
	}
	due := recurrence.Reschedule(now, refDay.In(p.loc))
	r.DueAt = &due
	r.NotifiedAt = nil

	if err := p.reminders.Upsert(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to reschedule reminder: %w", err)
	}
	p.invalidateReminders()
	return r, nil
}

// RescheduleOverdue moves every open reminder due before now. It returns the
// moved reminders; individual failures are logged and skipped.
func (p *Planner) RescheduleOverdue(ctx context.Context) ([]*models.Reminder, error) {
	now := p.Now()
	overdue, err := p.reminders.ListOverdue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue reminders: %w", err)
	}

	var moved []*models.Reminder
	for _, r := range overdue {
		due := recurrence.Reschedule(now, now)
		r.DueAt = &due
		r.NotifiedAt = nil
		if err := p.reminders.Upsert(ctx, r); err != nil {
			log.Printf("Failed to reschedule %s: %v", r.ID, err)
			continue
		}
		moved = append(moved, r)
	}
	if len(moved) > 0 {
		p.invalidateReminders()
	}
	return moved, nil
}

func (p *Planner) DeleteReminder(ctx context.Context, id uuid.UUID) error {
	if err := p.reminders.Delete(ctx, id); err != nil {
		return err
	}
	p.invalidateReminders()
	return nil
}

func (p *Planner) GetReminder(ctx context.Context, id uuid.UUID) (*models.Reminder, error) {
	return p.reminders.Get(ctx, id)
}

// ListRange returns reminders due in [start, end). Results are cached until
// the next reminder write; callers must not modify them.
func (p *Planner) ListRange(ctx context.Context, start, end time.Time) ([]*models.Reminder, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("%w: range end must be after start", ErrInvalid)
	}
	key, err := userKey(ctx, cache.PrefixReminders, "range", start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	if v, ok := p.cache.Get(key); ok {
		return v.([]*models.Reminder), nil
	}

	list, err := p.reminders.List(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	p.cache.Set(key, list)
	return list, nil
}

// ListInbox returns the reminders without a due date.
func (p *Planner) ListInbox(ctx context.Context) ([]*models.Reminder, error) {
	key, err := userKey(ctx, cache.PrefixReminders, "inbox")
	if err != nil {
		return nil, err
	}
	if v, ok := p.cache.Get(key); ok {
		return v.([]*models.Reminder), nil
	}

	list, err := p.reminders.ListInbox(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox: %w", err)
	}
	p.cache.Set(key, list)
	return list, nil
}

func (p *Planner) Search(ctx context.Context, keyword string) ([]*models.Reminder, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: keyword is required", ErrInvalid)
	}
	return p.reminders.Search(ctx, keyword)
}

func (p *Planner) Overdue(ctx context.Context) ([]*models.Reminder, error) {
	return p.reminders.ListOverdue(ctx, p.Now())
}

// Resolve finds the reminder whose id starts with prefix.
func (p *Planner) Resolve(ctx context.Context, prefix string) (*models.Reminder, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if len(prefix) < MinPrefixLen || strings.Trim(prefix, "0123456789abcdef-") != "" {
		return nil, fmt.Errorf("%w: %q is not an id prefix", ErrInvalid, prefix)
	}
	if id, err := uuid.Parse(prefix); err == nil {
		return p.reminders.Get(ctx, id)
	}

	found, err := p.reminders.FindByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to look up reminder: %w", err)
	}
	switch len(found) {
	case 0:
		return nil, repository.ErrNotFound
	case 1:
		return found[0], nil
	default:
		return nil, ErrAmbiguous
	}
}

// Insights aggregates the reminders due in the days starting at start.
func (p *Planner) Insights(ctx context.Context, start time.Time, days int) (insights.Report, error) {
	if days <= 0 || days > 366 {
		return insights.Report{}, fmt.Errorf("%w: days must be between 1 and 366", ErrInvalid)
	}
	start = start.In(p.loc)
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, p.loc)
	key, err := userKey(ctx, cache.PrefixInsights, from.Format(time.DateOnly), fmt.Sprint(days))
	if err != nil {
		return insights.Report{}, err
	}
	if v, ok := p.cache.Get(key); ok {
		return v.(insights.Report), nil
	}

	list, err := p.reminders.List(ctx, from, from.AddDate(0, 0, days))
	if err != nil {
		return insights.Report{}, fmt.Errorf("failed to list reminders: %w", err)
	}
	report := insights.Build(list, from, days, p.Now())
	p.cache.Set(key, report)
	return report, nil
}

func (p *Planner) ListGroups(ctx context.Context) ([]*models.Group, error) {
	key, err := userKey(ctx, cache.PrefixGroups, "all")
	if err != nil {
		return nil, err
	}
	if v, ok := p.cache.Get(key); ok {
		return v.([]*models.Group), nil
	}

	groups, err := p.groups.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	p.cache.Set(key, groups)
	return groups, nil
}

// FindGroup returns the group with the given name, case-insensitively.
func (p *Planner) FindGroup(ctx context.Context, name string) (*models.Group, error) {
	groups, err := p.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		if strings.EqualFold(g.Name, strings.TrimSpace(name)) {
			return g, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (p *Planner) SaveGroup(ctx context.Context, g *models.Group) error {
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" {
		return fmt.Errorf("%w: group name is required", ErrInvalid)
	}
	color, ok := models.NormalizeColor(g.Color)
	if !ok {
		return fmt.Errorf("%w: unsupported color %q", ErrInvalid, g.Color)
	}
	g.Color = color

	if err := p.groups.Upsert(ctx, g); err != nil {
		return fmt.Errorf("failed to save group: %w", err)
	}
	p.cache.InvalidatePrefix(cache.PrefixGroups)
	return nil
}

// DeleteGroup removes a group. Reminders in it stay, without a group.
func (p *Planner) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	if err := p.groups.Delete(ctx, id); err != nil {
		return err
	}
	p.cache.InvalidatePrefix(cache.PrefixGroups)
	p.invalidateReminders()
	return nil
}

// CacheStats reports the query cache occupancy.
func (p *Planner) CacheStats() cache.Stats {
	return p.cache.Stats()
}

// invalidateReminders drops every cached range result and aggregate.
func (p *Planner) invalidateReminders() {
	p.cache.InvalidatePrefix(cache.PrefixReminders, cache.PrefixInsights)
}

// withStatus returns a cache update that replaces the reminder with id by a
// copy carrying status. Cached slices are never modified in place.
func withStatus(id uuid.UUID, status models.Status) func(any) any {
	return func(v any) any {
		list, ok := v.([]*models.Reminder)
		if !ok {
			return v
		}
		out := make([]*models.Reminder, len(list))
		for i, r := range list {
			if r.ID == id {
				c := r.Clone()
				c.Status = status
				r = c
			}
			out[i] = r
		}
		return out
	}
}

func userKey(ctx context.Context, prefix string, parts ...string) (string, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return "", err
	}
	return cache.Key(prefix, append([]string{fmt.Sprint(userID)}, parts...)...), nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
