package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hray3182/cadence/internal/auth"
	"github.com/hray3182/cadence/internal/database"
	"github.com/hray3182/cadence/internal/models"
	"github.com/jackc/pgx/v5"
)

type GroupRepository struct {
	db *database.DB
}

func NewGroupRepository(db *database.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Upsert(ctx context.Context, group *models.Group) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	if group.Color == "" {
		group.Color = models.DefaultGroupColor
	}
	group.UserID = userID

	err = r.db.Pool.QueryRow(ctx,
		`INSERT INTO groups (id, user_id, name, color) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, color = EXCLUDED.color, updated_at = NOW()
		 WHERE groups.user_id = EXCLUDED.user_id
		 RETURNING created_at, updated_at`,
		group.ID, group.UserID, group.Name, group.Color,
	).Scan(&group.CreatedAt, &group.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to upsert group: %w", err)
	}
	return nil
}

func (r *GroupRepository) Get(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}

	group := &models.Group{}
	err = r.db.Pool.QueryRow(ctx,
		`SELECT id, user_id, name, color, created_at, updated_at
		 FROM groups WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&group.ID, &group.UserID, &group.Name, &group.Color, &group.CreatedAt, &group.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

func (r *GroupRepository) List(ctx context.Context) ([]*models.Group, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, user_id, name, color, created_at, updated_at
		 FROM groups WHERE user_id = $1 ORDER BY name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.UserID, &group.Name, &group.Color, &group.CreatedAt, &group.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// Delete removes the group. Referencing reminders keep existing with a NULL
// group_id (foreign key ON DELETE SET NULL).
func (r *GroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}

	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM groups WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
