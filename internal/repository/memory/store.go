// Package memory is an in-process implementation of the repository stores,
// used by tests and by the API when no database is configured.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/cadence/internal/auth"
	"github.com/hray3182/cadence/internal/models"
	"github.com/hray3182/cadence/internal/repository"
	"github.com/jmhodges/clock"
)

// Store implements the reminder, group and notification stores using
// in-memory maps. Records are copied on the way in and out.
type Store struct {
	mu        sync.RWMutex
	clk       clock.Clock
	reminders map[uuid.UUID]*models.Reminder
	groups    map[uuid.UUID]*models.Group
}

// New creates a new in-memory store stamping records with clk.
func New(clk clock.Clock) *Store {
	return &Store{
		clk:       clk,
		reminders: make(map[uuid.UUID]*models.Reminder),
		groups:    make(map[uuid.UUID]*models.Group),
	}
}

// Reminders returns the reminder store view.
func (s *Store) Reminders() *Reminders { return (*Reminders)(s) }

// Groups returns the group store view.
func (s *Store) Groups() *Groups { return (*Groups)(s) }

// Reminders is the repository.ReminderStore view of a Store.
type Reminders Store

func (r *Reminders) store() *Store { return (*Store)(r) }

func (r *Reminders) Upsert(ctx context.Context, reminder *models.Reminder) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clk.Now()
	if reminder.ID == uuid.Nil {
		reminder.ID = uuid.New()
	}
	if existing, ok := s.reminders[reminder.ID]; ok {
		if existing.UserID != userID {
			return repository.ErrNotFound
		}
		reminder.CreatedAt = existing.CreatedAt
	} else {
		reminder.CreatedAt = now
	}
	reminder.UserID = userID
	reminder.UpdatedAt = now
	if reminder.Tags == nil {
		reminder.Tags = []string{}
	}

	s.reminders[reminder.ID] = reminder.Clone()
	return nil
}

func (r *Reminders) Get(ctx context.Context, id uuid.UUID) (*models.Reminder, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()

	reminder, ok := s.reminders[id]
	if !ok || reminder.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return reminder.Clone(), nil
}

func (r *Reminders) List(ctx context.Context, start, end time.Time) ([]*models.Reminder, error) {
	return r.filter(ctx, func(m *models.Reminder) bool {
		return m.DueAt != nil && !m.DueAt.Before(start) && m.DueAt.Before(end)
	})
}

func (r *Reminders) ListInbox(ctx context.Context) ([]*models.Reminder, error) {
	return r.filter(ctx, func(m *models.Reminder) bool { return m.DueAt == nil })
}

func (r *Reminders) ListOverdue(ctx context.Context, now time.Time) ([]*models.Reminder, error) {
	return r.filter(ctx, func(m *models.Reminder) bool { return m.IsOverdue(now) })
}

func (r *Reminders) Search(ctx context.Context, keyword string) ([]*models.Reminder, error) {
	keyword = strings.ToLower(keyword)
	return r.filter(ctx, func(m *models.Reminder) bool {
		return strings.Contains(strings.ToLower(m.Title), keyword) ||
			strings.Contains(strings.ToLower(m.Notes), keyword) ||
			strings.Contains(strings.ToLower(strings.Join(m.Tags, " ")), keyword)
	})
}

func (r *Reminders) FindByPrefix(ctx context.Context, prefix string) ([]*models.Reminder, error) {
	prefix = strings.ToLower(prefix)
	return r.filter(ctx, func(m *models.Reminder) bool {
		return strings.HasPrefix(m.ID.String(), prefix)
	})
}

func (r *Reminders) SetStatus(ctx context.Context, id uuid.UUID, status models.Status) error {
	return r.update(ctx, id, func(m *models.Reminder) { m.Status = status })
}

func (r *Reminders) Delete(ctx context.Context, id uuid.UUID) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	reminder, ok := s.reminders[id]
	if !ok || reminder.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.reminders, id)
	return nil
}

func (r *Reminders) PendingNotifications(_ context.Context, now time.Time) ([]*models.Reminder, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Reminder
	for _, m := range s.reminders {
		if m.Status == models.StatusTodo && m.NotifiedAt == nil && m.DueAt != nil && !m.DueAt.After(now) {
			out = append(out, m.Clone())
		}
	}
	sortByDue(out)
	return out, nil
}

func (r *Reminders) SetNotifiedAt(_ context.Context, id uuid.UUID, at time.Time) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	reminder, ok := s.reminders[id]
	if !ok {
		return repository.ErrNotFound
	}
	t := at
	reminder.NotifiedAt = &t
	return nil
}

func (r *Reminders) filter(ctx context.Context, keep func(*models.Reminder) bool) ([]*models.Reminder, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Reminder
	for _, m := range s.reminders {
		if m.UserID == userID && keep(m) {
			out = append(out, m.Clone())
		}
	}
	sortByDue(out)
	return out, nil
}

func (r *Reminders) update(ctx context.Context, id uuid.UUID, apply func(*models.Reminder)) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	reminder, ok := s.reminders[id]
	if !ok || reminder.UserID != userID {
		return repository.ErrNotFound
	}
	apply(reminder)
	reminder.UpdatedAt = s.clk.Now()
	return nil
}

// sortByDue orders scheduled reminders by due time, inbox reminders last,
// ties by creation time.
func sortByDue(rs []*models.Reminder) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		switch {
		case a.DueAt == nil && b.DueAt == nil:
			return a.CreatedAt.Before(b.CreatedAt)
		case a.DueAt == nil:
			return false
		case b.DueAt == nil:
			return true
		case !a.DueAt.Equal(*b.DueAt):
			return a.DueAt.Before(*b.DueAt)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})
}

// Groups is the repository.GroupStore view of a Store.
type Groups Store

func (g *Groups) store() *Store { return (*Store)(g) }

func (g *Groups) Upsert(ctx context.Context, group *models.Group) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	s := g.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clk.Now()
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	if group.Color == "" {
		group.Color = models.DefaultGroupColor
	}
	if existing, ok := s.groups[group.ID]; ok {
		if existing.UserID != userID {
			return repository.ErrNotFound
		}
		group.CreatedAt = existing.CreatedAt
	} else {
		group.CreatedAt = now
	}
	group.UserID = userID
	group.UpdatedAt = now

	cp := *group
	s.groups[group.ID] = &cp
	return nil
}

func (g *Groups) Get(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	s := g.store()
	s.mu.RLock()
	defer s.mu.RUnlock()

	group, ok := s.groups[id]
	if !ok || group.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *group
	return &cp, nil
}

func (g *Groups) List(ctx context.Context) ([]*models.Group, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	s := g.store()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Group
	for _, group := range s.groups {
		if group.UserID == userID {
			cp := *group
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes the group and clears group_id on the reminders that
// referenced it.
func (g *Groups) Delete(ctx context.Context, id uuid.UUID) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	s := g.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[id]
	if !ok || group.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.groups, id)
	for _, r := range s.reminders {
		if r.GroupID != nil && *r.GroupID == id {
			r.GroupID = nil
		}
	}
	return nil
}

var (
	_ repository.ReminderStore     = (*Reminders)(nil)
	_ repository.NotificationStore = (*Reminders)(nil)
	_ repository.GroupStore        = (*Groups)(nil)
)
