package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/cadence/internal/format"
	"github.com/hray3182/cadence/internal/models"
)

const remindUsage = "Usage: /remind [YYYY-MM-DD] [HH:MM] <title> [#tag] [!high] [@group] [| daily | every mon,wed | monthly 1,-1 tue] [| 90m]\n" +
	"Example: /remind 2024-03-05 19:00 Book club @Social | monthly -1 fri | 2h"

const (
	defaultListDays = 7
	maxListDays     = 366
)

func (h *Handlers) handleRemind(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		h.sendMessage(msg.Chat.ID, remindUsage)
		return
	}

	parsed, err := ParseRemind(args, h.planner.Now())
	if err != nil {
		h.sendMessage(msg.Chat.ID, "⚠️ "+err.Error()+"\n\n"+remindUsage)
		return
	}
	if parsed.Group != "" {
		g, err := h.planner.FindGroup(ctx, parsed.Group)
		if err != nil {
			h.sendMessage(msg.Chat.ID, fmt.Sprintf("⚠️ No group named %q, create it with /group", parsed.Group))
			return
		}
		parsed.Reminder.GroupID = &g.ID
	}

	h.saveReminder(ctx, msg.Chat.ID, parsed.Reminder)
}

func (h *Handlers) saveReminder(ctx context.Context, chatID int64, r *models.Reminder) {
	seeded, err := h.planner.SaveReminder(ctx, r)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	text := "⏰ **Saved**\n\n" + format.Reminder(r, h.planner.Location())
	if seeded > 0 {
		text += fmt.Sprintf("\n🔁 %d more occurrences scheduled", seeded)
	}
	h.sendReminder(chatID, text, r)
}

func (h *Handlers) handleReminderList(ctx context.Context, msg *tgbotapi.Message) {
	days := defaultListDays
	if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > maxListDays {
			h.sendMessage(msg.Chat.ID, fmt.Sprintf("⚠️ days must be between 1 and %d", maxListDays))
			return
		}
		days = n
	}

	now := h.planner.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	reminders, err := h.planner.ListRange(ctx, start, start.AddDate(0, 0, days))
	if err != nil {
		h.replyError(msg.Chat.ID, err)
		return
	}

	title := fmt.Sprintf("⏰ Next %d days", days)
	h.sendMessage(msg.Chat.ID, format.ReminderList(title, reminders, h.planner.Location(), "⏰ Nothing scheduled"))
}

func (h *Handlers) handleInbox(ctx context.Context, msg *tgbotapi.Message) {
	reminders, err := h.planner.ListInbox(ctx)
	if err != nil {
		h.replyError(msg.Chat.ID, err)
		return
	}
	h.sendMessage(msg.Chat.ID, format.ReminderList("📥 Inbox", reminders, h.planner.Location(), "📥 Inbox is empty"))
}

func (h *Handlers) handleSearch(ctx context.Context, msg *tgbotapi.Message) {
	keyword := strings.TrimSpace(msg.CommandArguments())
	if keyword == "" {
		h.sendMessage(msg.Chat.ID, "Usage: /search <keyword>")
		return
	}
	h.search(ctx, msg.Chat.ID, keyword)
}

func (h *Handlers) search(ctx context.Context, chatID int64, keyword string) {
	reminders, err := h.planner.Search(ctx, keyword)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	title := fmt.Sprintf("🔎 %q", keyword)
	h.sendMessage(chatID, format.ReminderList(title, reminders, h.planner.Location(), "🔎 No match"))
}

func (h *Handlers) handleToggle(ctx context.Context, msg *tgbotapi.Message, done bool) {
	prefix := strings.TrimSpace(msg.CommandArguments())
	if prefix == "" {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("Usage: /%s <id>", msg.Command()))
		return
	}

	r, err := h.planner.Resolve(ctx, prefix)
	if err != nil {
		h.replyError(msg.Chat.ID, err)
		return
	}
	res, err := h.planner.ToggleDone(ctx, r.ID, done)
	if err != nil {
		h.replyError(msg.Chat.ID, err)
		return
	}
	h.sendMessage(msg.Chat.ID, toggleText(res, h.planner.Location()))
}

func (h *Handlers) handleReschedule(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	loc := h.planner.Location()

	if len(args) == 0 {
		moved, err := h.planner.RescheduleOverdue(ctx)
		if err != nil {
			h.replyError(msg.Chat.ID, err)
			return
		}
		h.sendMessage(msg.Chat.ID, format.ReminderList(fmt.Sprintf("⏭ Moved %d overdue", len(moved)), moved, loc, "👍 Nothing overdue"))
		return
	}

	var refDay time.Time
	if len(args) > 1 {
		d, err := time.ParseInLocation(time.DateOnly, args[1], loc)
		if err != nil {
			h.sendMessage(msg.Chat.ID, "Usage: /reschedule [id] [YYYY-MM-DD]")
			return
		}
		refDay = d
	}

	r, err := h.planner.Resolve(ctx, args[0])
	if err != nil {
		h.replyError(msg.Chat.ID, err)
		return
	}
	r, err = h.planner.Reschedule(ctx, r.ID, refDay)
	if err != nil {
		h.replyError(msg.Chat.ID, err)
		return
	}
	h.sendReminder(msg.Chat.ID, "⏭ **Rescheduled**\n\n"+format.Reminder(r, loc), r)
}

func (h *Handlers) handleDelete(ctx context.Context, msg *tgbotapi.Message) {
	prefix := strings.TrimSpace(msg.CommandArguments())
	if prefix == "" {
		h.sendMessage(msg.Chat.ID, "Usage: /delete <id>")
		return
	}

	r, err := h.planner.Resolve(ctx, prefix)
	if err != nil {
		h.replyError(msg.Chat.ID, err)
		return
	}
	if err := h.planner.DeleteReminder(ctx, r.ID); err != nil {
		h.replyError(msg.Chat.ID, err)
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("🗑 Deleted **%s**", r.Title))
}
