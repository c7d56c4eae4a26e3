package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/cadence/internal/ai"
	"github.com/hray3182/cadence/internal/format"
)

// handleAIMessage reads free text with the model and acts on the draft.
func (h *Handlers) handleAIMessage(ctx context.Context, msg *tgbotapi.Message) {
	if h.ai == nil {
		h.sendMessage(msg.Chat.ID, "Natural language input is not enabled, use /remind instead (see /help)")
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	h.debug("Incoming message from %s: %s", msg.From.UserName, text)

	draft, err := h.ai.ParseDraft(ctx, text, h.planner.Now())
	if err != nil {
		log.Printf("Failed to parse message with AI: %v", err)
		h.sendMessage(msg.Chat.ID, "Sorry, I could not understand that. Try /remind instead")
		return
	}
	h.debug("AI draft: %s", draft.RawResponse)

	switch draft.Action {
	case ai.ActionCreate:
		h.createFromDraft(ctx, msg.Chat.ID, draft)
	case ai.ActionList:
		now := h.planner.Now()
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		reminders, err := h.planner.ListRange(ctx, start, start.AddDate(0, 0, defaultListDays))
		if err != nil {
			h.replyError(msg.Chat.ID, err)
			return
		}
		title := fmt.Sprintf("⏰ Next %d days", defaultListDays)
		h.sendMessage(msg.Chat.ID, format.ReminderList(title, reminders, h.planner.Location(), "⏰ Nothing scheduled"))
	case ai.ActionSearch:
		if strings.TrimSpace(draft.Keyword) == "" {
			h.sendMessage(msg.Chat.ID, "What should I look for?")
			return
		}
		h.search(ctx, msg.Chat.ID, draft.Keyword)
	default:
		reply := draft.Message
		if reply == "" {
			reply = "I can only help with reminders, see /help"
		}
		h.sendMessage(msg.Chat.ID, reply)
	}
}

func (h *Handlers) createFromDraft(ctx context.Context, chatID int64, draft *ai.Draft) {
	r, err := draft.Reminder(h.planner.Location())
	if errors.Is(err, ai.ErrBadDueDate) {
		h.sendMessage(chatID, "Sorry, I could not read the date. Try /remind "+h.planner.Now().Format("2006-01-02 15:04")+" <title>")
		return
	}
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	h.saveReminder(ctx, chatID, r)
}
