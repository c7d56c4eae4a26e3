package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/cadence/internal/format"
	"github.com/hray3182/cadence/internal/models"
	"github.com/hray3182/cadence/internal/repository"
	"github.com/jmhodges/clock"
	"github.com/robfig/cron/v3"
)

// DefaultSchedule is the cron spec used when none is configured.
const DefaultSchedule = "@every 1m"

// Sender is the part of *tgbotapi.BotAPI the scheduler uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Scheduler announces due reminders. Checks are driven by a cron schedule
// and run one at a time.
type Scheduler struct {
	api      Sender
	store    repository.NotificationStore
	clk      clock.Clock
	loc      *time.Location
	spec     string
	notifyCh chan struct{}
}

func New(api Sender, store repository.NotificationStore, clk clock.Clock, loc *time.Location, spec string) *Scheduler {
	if spec == "" {
		spec = DefaultSchedule
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		api:      api,
		store:    store,
		clk:      clk,
		loc:      loc,
		spec:     spec,
		notifyCh: make(chan struct{}, 1),
	}
}

// Notify triggers an immediate check. Non-blocking if a check is already pending.
func (s *Scheduler) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
		// Channel already has a pending notification, skip
	}
}

// Start runs checks until ctx is done. It fails only on an invalid schedule.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(s.loc))
	if _, err := c.AddFunc(s.spec, s.Notify); err != nil {
		return fmt.Errorf("failed to parse notify schedule %q: %w", s.spec, err)
	}
	c.Start()
	log.Printf("Scheduler started (%s)", s.spec)
	defer func() {
		<-c.Stop().Done()
		log.Println("Scheduler stopped")
	}()

	s.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.notifyCh:
			s.Check(ctx)
		}
	}
}

// Check sends one message per due, unannounced reminder and stamps it. A
// reminder whose message fails is retried on the next check. It returns the
// number of reminders announced.
func (s *Scheduler) Check(ctx context.Context) int {
	now := s.clk.Now()
	reminders, err := s.store.PendingNotifications(ctx, now)
	if err != nil {
		log.Printf("Failed to get pending reminders: %v", err)
		return 0
	}

	sent := 0
	for _, r := range reminders {
		sentMsg, err := s.api.Send(Notification(r, s.loc))
		if err != nil {
			log.Printf("Failed to send reminder notification: %v", err)
			continue
		}
		if err := s.store.SetNotifiedAt(ctx, r.ID, now); err != nil {
			log.Printf("Failed to mark reminder %s notified: %v", r.ID, err)
			continue
		}
		sent++
		log.Printf("Sent reminder %s to user %d (msg_id=%d)", r.ID, r.UserID, sentMsg.MessageID)
	}
	return sent
}

// Notification builds the message announcing r to its owner.
func Notification(r *models.Reminder, loc *time.Location) tgbotapi.MessageConfig {
	text := "⏰ **Reminder**\n\n" + format.Reminder(r, loc)
	if r.Notes != "" {
		text += "\n" + r.Notes
	}

	parsed := format.ParseMarkdown(text)
	msg := tgbotapi.NewMessage(r.UserID, parsed.Text)
	msg.Entities = parsed.Entities
	msg.ReplyMarkup = format.ReminderKeyboard(r.ID)
	return msg
}
