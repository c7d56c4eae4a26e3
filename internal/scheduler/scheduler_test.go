package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/cadence/internal/auth"
	"github.com/hray3182/cadence/internal/models"
	"github.com/hray3182/cadence/internal/repository/memory"
	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func setup(t *testing.T) (*Scheduler, *fakeSender, *memory.Store, clock.FakeClock, context.Context) {
	t.Helper()
	clk := clock.NewFake()
	clk.Set(time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	store := memory.New(clk)
	sender := &fakeSender{}
	ctx := auth.WithPrincipal(context.Background(), &auth.Principal{UserID: 7})
	return New(sender, store.Reminders(), clk, time.UTC, ""), sender, store, clk, ctx
}

func add(t *testing.T, ctx context.Context, store *memory.Store, r *models.Reminder) *models.Reminder {
	t.Helper()
	if r.Status == "" {
		r.Status = models.StatusTodo
	}
	require.NoError(t, store.Reminders().Upsert(ctx, r))
	return r
}

func due(hh, mm int) *time.Time {
	t := time.Date(2024, 1, 10, hh, mm, 0, 0, time.UTC)
	return &t
}

func TestCheck(t *testing.T) {
	s, sender, store, clk, ctx := setup(t)

	dueNow := add(t, ctx, store, &models.Reminder{Title: "Pay rent", Notes: "landlord IBAN in notes app", DueAt: due(8, 30)})
	add(t, ctx, store, &models.Reminder{Title: "Later", DueAt: due(12, 0)})
	add(t, ctx, store, &models.Reminder{Title: "Finished", DueAt: due(8, 0), Status: models.StatusDone})
	add(t, ctx, store, &models.Reminder{Title: "Inbox"})

	assert.Equal(t, 1, s.Check(context.Background()))
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, int64(7), msg.ChatID)
	assert.Contains(t, msg.Text, "Pay rent")
	assert.Contains(t, msg.Text, "landlord IBAN")
	assert.IsType(t, tgbotapi.InlineKeyboardMarkup{}, msg.ReplyMarkup)

	got, err := store.Reminders().Get(ctx, dueNow.ID)
	require.NoError(t, err)
	require.NotNil(t, got.NotifiedAt)
	assert.True(t, got.NotifiedAt.Equal(clk.Now()))

	// Already announced.
	assert.Zero(t, s.Check(context.Background()))

	clk.Add(3 * time.Hour)
	assert.Equal(t, 1, s.Check(context.Background()))
	assert.Contains(t, sender.sent[1].Text, "Later")
}

func TestCheck_SendFailureIsRetried(t *testing.T) {
	s, sender, store, _, ctx := setup(t)
	r := add(t, ctx, store, &models.Reminder{Title: "Call", DueAt: due(8, 0)})

	sender.err = errors.New("telegram down")
	assert.Zero(t, s.Check(context.Background()))
	got, err := store.Reminders().Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, got.NotifiedAt)

	sender.err = nil
	assert.Equal(t, 1, s.Check(context.Background()))
}

func TestStart(t *testing.T) {
	s, sender, store, _, ctx := setup(t)
	add(t, ctx, store, &models.Reminder{Title: "Call", DueAt: due(8, 0)})

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(runCtx) }()

	require.Eventually(t, func() bool {
		s.Notify()
		return sender.count() > 0
	}, time.Second, 10*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestStart_InvalidSchedule(t *testing.T) {
	clk := clock.NewFake()
	s := New(&fakeSender{}, memory.New(clk).Reminders(), clk, time.UTC, "every now and then")
	assert.Error(t, s.Start(context.Background()))
}

func TestNotify_DoesNotBlock(t *testing.T) {
	s, _, _, _, _ := setup(t)
	s.Notify()
	s.Notify()
	assert.Len(t, s.notifyCh, 1)
}
