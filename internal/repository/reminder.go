package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/cadence/internal/auth"
	"github.com/hray3182/cadence/internal/database"
	"github.com/hray3182/cadence/internal/models"
	"github.com/jackc/pgx/v5"
)

const reminderColumns = `id, user_id, title, notes, due_at, group_id, tags, recurrence,
	duration_minutes, status, priority, notified_at, created_at, updated_at`

type ReminderRepository struct {
	db *database.DB
}

func NewReminderRepository(db *database.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func (r *ReminderRepository) Upsert(ctx context.Context, reminder *models.Reminder) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	if reminder.ID == uuid.Nil {
		reminder.ID = uuid.New()
	}
	reminder.UserID = userID
	if reminder.Tags == nil {
		reminder.Tags = []string{}
	}

	err = r.db.Pool.QueryRow(ctx,
		`INSERT INTO reminders (id, user_id, title, notes, due_at, group_id, tags, recurrence,
			duration_minutes, status, priority, notified_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title, notes = EXCLUDED.notes, due_at = EXCLUDED.due_at,
			group_id = EXCLUDED.group_id, tags = EXCLUDED.tags, recurrence = EXCLUDED.recurrence,
			duration_minutes = EXCLUDED.duration_minutes, status = EXCLUDED.status,
			priority = EXCLUDED.priority, notified_at = EXCLUDED.notified_at, updated_at = NOW()
		 WHERE reminders.user_id = EXCLUDED.user_id
		 RETURNING created_at, updated_at`,
		reminder.ID, reminder.UserID, reminder.Title, reminder.Notes, reminder.DueAt, reminder.GroupID,
		reminder.Tags, reminder.Recurrence, reminder.DurationMinutes, string(reminder.Status),
		string(reminder.Priority), reminder.NotifiedAt,
	).Scan(&reminder.CreatedAt, &reminder.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to upsert reminder: %w", err)
	}
	return nil
}

func (r *ReminderRepository) Get(ctx context.Context, id uuid.UUID) (*models.Reminder, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}

	reminder, err := scanReminder(r.db.Pool.QueryRow(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return reminder, nil
}

func (r *ReminderRepository) List(ctx context.Context, start, end time.Time) ([]*models.Reminder, error) {
	return r.query(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE user_id = $1 AND due_at >= $2 AND due_at < $3
		 ORDER BY due_at ASC, created_at ASC`,
		start, end,
	)
}

func (r *ReminderRepository) ListInbox(ctx context.Context) ([]*models.Reminder, error) {
	return r.query(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE user_id = $1 AND due_at IS NULL
		 ORDER BY created_at DESC`,
	)
}

func (r *ReminderRepository) ListOverdue(ctx context.Context, now time.Time) ([]*models.Reminder, error) {
	return r.query(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE user_id = $1 AND status = 'todo' AND due_at IS NOT NULL AND due_at < $2
		 ORDER BY due_at ASC`,
		now,
	)
}

func (r *ReminderRepository) Search(ctx context.Context, keyword string) ([]*models.Reminder, error) {
	return r.query(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE user_id = $1 AND (title ILIKE $2 OR notes ILIKE $2 OR array_to_string(tags, ' ') ILIKE $2)
		 ORDER BY due_at ASC NULLS LAST`,
		"%"+keyword+"%",
	)
}

func (r *ReminderRepository) FindByPrefix(ctx context.Context, prefix string) ([]*models.Reminder, error) {
	return r.query(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE user_id = $1 AND id::text LIKE $2
		 ORDER BY due_at ASC NULLS LAST`,
		strings.ToLower(prefix)+"%",
	)
}

func (r *ReminderRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.Status) error {
	return r.exec(ctx,
		`UPDATE reminders SET status = $3, updated_at = NOW() WHERE user_id = $1 AND id = $2`,
		id, string(status),
	)
}

func (r *ReminderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `DELETE FROM reminders WHERE user_id = $1 AND id = $2`, id)
}

// PendingNotifications returns open reminders of every user that are due and
// have not been announced yet.
func (r *ReminderRepository) PendingNotifications(ctx context.Context, now time.Time) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE status = 'todo' AND notified_at IS NULL AND due_at IS NOT NULL AND due_at <= $1
		 ORDER BY due_at ASC`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending reminders: %w", err)
	}
	return collectReminders(rows)
}

func (r *ReminderRepository) SetNotifiedAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE reminders SET notified_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder notified: %w", err)
	}
	return nil
}

// query runs a user scoped select; $1 is always the user id.
func (r *ReminderRepository) query(ctx context.Context, sql string, args ...any) ([]*models.Reminder, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Pool.Query(ctx, sql, append([]any{userID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	return collectReminders(rows)
}

// exec runs a user scoped statement and reports ErrNotFound when it touched
// nothing; $1 is always the user id.
func (r *ReminderRepository) exec(ctx context.Context, sql string, args ...any) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}

	tag, err := r.db.Pool.Exec(ctx, sql, append([]any{userID}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectReminders(rows pgx.Rows) ([]*models.Reminder, error) {
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, reminder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reminders: %w", err)
	}
	return reminders, nil
}

func scanReminder(row pgx.Row) (*models.Reminder, error) {
	reminder := &models.Reminder{}
	var status, priority string
	if err := row.Scan(&reminder.ID, &reminder.UserID, &reminder.Title, &reminder.Notes, &reminder.DueAt,
		&reminder.GroupID, &reminder.Tags, &reminder.Recurrence, &reminder.DurationMinutes, &status,
		&priority, &reminder.NotifiedAt, &reminder.CreatedAt, &reminder.UpdatedAt); err != nil {
		return nil, err
	}
	reminder.Status = models.Status(status)
	reminder.Priority = models.Priority(priority)
	// Rows written before the structured columns existed carry rec:/dur: tags.
	reminder.LiftLegacyTags()
	return reminder, nil
}
