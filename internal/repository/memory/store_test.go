package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/cadence/internal/auth"
	"github.com/hray3182/cadence/internal/models"
	"github.com/hray3182/cadence/internal/repository"
	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userCtx(id int64) context.Context {
	return auth.WithPrincipal(context.Background(), &auth.Principal{UserID: id})
}

func at(d, h int) *time.Time {
	t := time.Date(2024, 1, d, h, 0, 0, 0, time.UTC)
	return &t
}

func TestReminders_RequiresPrincipal(t *testing.T) {
	store := New(clock.NewFake()).Reminders()
	ctx := context.Background()

	assert.ErrorIs(t, store.Upsert(ctx, &models.Reminder{Title: "x"}), auth.ErrNotAuthenticated)
	_, err := store.List(ctx, time.Time{}, time.Now())
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
	_, err = store.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
	assert.ErrorIs(t, store.Delete(ctx, uuid.New()), auth.ErrNotAuthenticated)
}

func TestReminders_UpsertAndGet(t *testing.T) {
	clk := clock.NewFake()
	clk.Set(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))
	store := New(clk).Reminders()
	ctx := userCtx(1)

	r := &models.Reminder{Title: "dentist", DueAt: at(3, 9), Status: models.StatusTodo}
	require.NoError(t, store.Upsert(ctx, r))
	require.NotEqual(t, uuid.Nil, r.ID)
	assert.Equal(t, int64(1), r.UserID)
	assert.Equal(t, clk.Now(), r.CreatedAt)

	// Mutating the caller's copy does not change the stored record.
	r.Title = "changed"
	got, err := store.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "dentist", got.Title)

	clk.Add(time.Hour)
	got.Title = "dentist (moved)"
	require.NoError(t, store.Upsert(ctx, got))
	again, err := store.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "dentist (moved)", again.Title)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), again.CreatedAt)
	assert.Equal(t, clk.Now(), again.UpdatedAt)
}

func TestReminders_ScopedToUser(t *testing.T) {
	store := New(clock.NewFake()).Reminders()

	r := &models.Reminder{Title: "mine", DueAt: at(2, 9)}
	require.NoError(t, store.Upsert(userCtx(1), r))

	_, err := store.Get(userCtx(2), r.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, store.Delete(userCtx(2), r.ID), repository.ErrNotFound)
	assert.ErrorIs(t, store.Upsert(userCtx(2), &models.Reminder{ID: r.ID, Title: "stolen"}), repository.ErrNotFound)

	list, err := store.List(userCtx(2), *at(1, 0), *at(31, 0))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReminders_Queries(t *testing.T) {
	store := New(clock.NewFake()).Reminders()
	ctx := userCtx(1)

	late := &models.Reminder{Title: "late", DueAt: at(5, 9), Status: models.StatusTodo}
	early := &models.Reminder{Title: "early", DueAt: at(2, 9), Status: models.StatusTodo, Notes: "bring papers"}
	done := &models.Reminder{Title: "done", DueAt: at(1, 9), Status: models.StatusDone}
	inbox := &models.Reminder{Title: "someday", Tags: []string{"ideas"}}
	for _, r := range []*models.Reminder{late, early, done, inbox} {
		require.NoError(t, store.Upsert(ctx, r))
	}

	list, err := store.List(ctx, *at(1, 0), *at(5, 9))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "done", list[0].Title)
	assert.Equal(t, "early", list[1].Title)

	in, err := store.ListInbox(ctx)
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, "someday", in[0].Title)

	overdue, err := store.ListOverdue(ctx, *at(3, 0))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "early", overdue[0].Title)

	found, err := store.Search(ctx, "PAPERS")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, early.ID, found[0].ID)

	found, err = store.Search(ctx, "idea")
	require.NoError(t, err)
	require.Len(t, found, 1)

	byPrefix, err := store.FindByPrefix(ctx, late.ID.String()[:8])
	require.NoError(t, err)
	require.Len(t, byPrefix, 1)
	assert.Equal(t, late.ID, byPrefix[0].ID)
}

func TestReminders_StatusAndNotifications(t *testing.T) {
	store := New(clock.NewFake()).Reminders()
	ctx := userCtx(1)

	a := &models.Reminder{Title: "a", DueAt: at(1, 9), Status: models.StatusTodo}
	b := &models.Reminder{Title: "b", DueAt: at(1, 10), Status: models.StatusTodo}
	c := &models.Reminder{Title: "c", DueAt: at(9, 10), Status: models.StatusTodo}
	for _, r := range []*models.Reminder{a, b, c} {
		require.NoError(t, store.Upsert(ctx, r))
	}
	require.NoError(t, store.SetStatus(ctx, b.ID, models.StatusDone))
	assert.ErrorIs(t, store.SetStatus(ctx, uuid.New(), models.StatusDone), repository.ErrNotFound)

	pending, err := store.PendingNotifications(context.Background(), *at(2, 0))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, a.ID, pending[0].ID)

	require.NoError(t, store.SetNotifiedAt(context.Background(), a.ID, *at(2, 0)))
	pending, err = store.PendingNotifications(context.Background(), *at(2, 0))
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestGroups_DeleteClearsReminders(t *testing.T) {
	s := New(clock.NewFake())
	ctx := userCtx(1)

	g := &models.Group{Name: "work"}
	require.NoError(t, s.Groups().Upsert(ctx, g))
	assert.Equal(t, models.DefaultGroupColor, g.Color)

	r := &models.Reminder{Title: "standup", DueAt: at(2, 9), GroupID: &g.ID}
	require.NoError(t, s.Reminders().Upsert(ctx, r))

	require.NoError(t, s.Groups().Delete(ctx, g.ID))
	_, err := s.Groups().Get(ctx, g.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	got, err := s.Reminders().Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, got.GroupID)
}

func TestGroups_List(t *testing.T) {
	s := New(clock.NewFake())
	for _, name := range []string{"work", "home", "errands"} {
		require.NoError(t, s.Groups().Upsert(userCtx(1), &models.Group{Name: name, Color: "#ff0000"}))
	}
	require.NoError(t, s.Groups().Upsert(userCtx(2), &models.Group{Name: "other"}))

	groups, err := s.Groups().List(userCtx(1))
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, "errands", groups[0].Name)
	assert.Equal(t, "work", groups[2].Name)
}
