package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/cadence/internal/models"
)

// ErrNotFound is returned when a record does not exist or belongs to another
// user.
var ErrNotFound = errors.New("not found")

// ReminderStore persists reminders of the user in the context principal.
type ReminderStore interface {
	// Upsert inserts r when its id is unknown and updates it otherwise. It
	// assigns an id to new reminders and fills the timestamps.
	Upsert(ctx context.Context, r *models.Reminder) error
	Get(ctx context.Context, id uuid.UUID) (*models.Reminder, error)
	// List returns reminders due in [start, end), ordered by due time.
	List(ctx context.Context, start, end time.Time) ([]*models.Reminder, error)
	ListInbox(ctx context.Context) ([]*models.Reminder, error)
	ListOverdue(ctx context.Context, now time.Time) ([]*models.Reminder, error)
	Search(ctx context.Context, keyword string) ([]*models.Reminder, error)
	FindByPrefix(ctx context.Context, prefix string) ([]*models.Reminder, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.Status) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// GroupStore persists groups of the user in the context principal.
type GroupStore interface {
	Upsert(ctx context.Context, g *models.Group) error
	Get(ctx context.Context, id uuid.UUID) (*models.Group, error)
	List(ctx context.Context) ([]*models.Group, error)
	// Delete removes the group and clears it from referencing reminders.
	Delete(ctx context.Context, id uuid.UUID) error
}

// NotificationStore is the cross-user view used by the notifier. It is not
// scoped to a principal.
type NotificationStore interface {
	PendingNotifications(ctx context.Context, now time.Time) ([]*models.Reminder, error)
	SetNotifiedAt(ctx context.Context, id uuid.UUID, at time.Time) error
}
