package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/hray3182/cadence/internal/ai"
	"github.com/hray3182/cadence/internal/auth"
	"github.com/hray3182/cadence/internal/format"
	"github.com/hray3182/cadence/internal/models"
	"github.com/hray3182/cadence/internal/planner"
	"github.com/hray3182/cadence/internal/repository"
)

// API is the part of *tgbotapi.BotAPI the handlers use.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type UserRegistry interface {
	GetOrCreate(ctx context.Context, userID int64, userName string) (*models.User, error)
}

// DraftParser turns free text into a reminder draft.
type DraftParser interface {
	ParseDraft(ctx context.Context, text string, now time.Time) (*ai.Draft, error)
}

type Handlers struct {
	api     API
	users   UserRegistry
	planner *planner.Planner
	ai      DraftParser
	devMode bool
}

// New creates the handlers. aiClient may be nil, in which case free text
// is answered with a hint instead.
func New(api API, users UserRegistry, p *planner.Planner, aiClient DraftParser, devMode bool) *Handlers {
	return &Handlers{
		api:     api,
		users:   users,
		planner: p,
		ai:      aiClient,
		devMode: devMode,
	}
}

// authorize registers the sender and returns a context carrying them as
// principal.
func (h *Handlers) authorize(ctx context.Context, from *tgbotapi.User) (context.Context, bool) {
	if from == nil {
		return ctx, false
	}
	if _, err := h.users.GetOrCreate(ctx, from.ID, from.UserName); err != nil {
		log.Printf("Failed to get/create user: %v", err)
		return ctx, false
	}
	return auth.WithPrincipal(ctx, &auth.Principal{UserID: from.ID, Name: from.UserName}), true
}

func (h *Handlers) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	ctx, ok := h.authorize(ctx, msg.From)
	if !ok {
		return
	}

	switch msg.Command() {
	case "start":
		h.handleStart(ctx, msg)
	case "help":
		h.handleHelp(ctx, msg)
	case "remind":
		h.handleRemind(ctx, msg)
	case "reminders":
		h.handleReminderList(ctx, msg)
	case "inbox":
		h.handleInbox(ctx, msg)
	case "search":
		h.handleSearch(ctx, msg)
	case "done":
		h.handleToggle(ctx, msg, true)
	case "undo":
		h.handleToggle(ctx, msg, false)
	case "reschedule":
		h.handleReschedule(ctx, msg)
	case "delete":
		h.handleDelete(ctx, msg)
	case "groups":
		h.handleGroupList(ctx, msg)
	case "group":
		h.handleGroup(ctx, msg)
	case "delgroup":
		h.handleDeleteGroup(ctx, msg)
	case "stats":
		h.handleStats(ctx, msg)
	case "export":
		h.handleExport(ctx, msg)
	default:
		h.sendMessage(msg.Chat.ID, "Unknown command, see /help")
	}
}

func (h *Handlers) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	ctx, ok := h.authorize(ctx, msg.From)
	if !ok {
		return
	}
	h.handleAIMessage(ctx, msg)
}

// HandleCallbackQuery handles the buttons of format.ReminderKeyboard.
func (h *Handlers) HandleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	answer := tgbotapi.NewCallback(callback.ID, "")
	if _, err := h.api.Request(answer); err != nil {
		log.Printf("Failed to answer callback: %v", err)
	}
	if callback.Message == nil {
		return
	}
	ctx, ok := h.authorize(ctx, callback.From)
	if !ok {
		return
	}

	action, rawID, found := strings.Cut(callback.Data, ":")
	if !found {
		return
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return
	}

	chatID, messageID := callback.Message.Chat.ID, callback.Message.MessageID
	loc := h.planner.Location()
	switch action {
	case format.CallbackDone:
		res, err := h.planner.ToggleDone(ctx, id, true)
		if err != nil {
			h.answerCallbackWithAlert(callback.ID, errorText(err))
			return
		}
		h.editMessageText(chatID, messageID, toggleText(res, loc))
	case format.CallbackResched:
		r, err := h.planner.Reschedule(ctx, id, time.Time{})
		if err != nil {
			h.answerCallbackWithAlert(callback.ID, errorText(err))
			return
		}
		h.editMessageText(chatID, messageID, "⏭ **Rescheduled**\n\n"+format.Reminder(r, loc))
	}
}

func (h *Handlers) debug(pattern string, args ...any) {
	if h.devMode {
		log.Printf("[debug] "+pattern, args...)
	}
}

func (h *Handlers) answerCallbackWithAlert(callbackID string, text string) {
	answer := tgbotapi.NewCallbackWithAlert(callbackID, text)
	if _, err := h.api.Request(answer); err != nil {
		log.Printf("Failed to answer callback with alert: %v", err)
	}
}

func (h *Handlers) editMessageText(chatID int64, messageID int, text string) {
	parsed := format.ParseMarkdown(text)
	edit := tgbotapi.NewEditMessageText(chatID, messageID, parsed.Text)
	edit.Entities = parsed.Entities
	if _, err := h.api.Send(edit); err != nil {
		log.Printf("Failed to edit message: %v", err)
	}
}

func (h *Handlers) sendMessage(chatID int64, text string) {
	h.send(chatID, text, nil)
}

// sendReminder sends text with Done and Reschedule buttons for an open
// reminder.
func (h *Handlers) sendReminder(chatID int64, text string, r *models.Reminder) {
	if r.IsDone() {
		h.send(chatID, text, nil)
		return
	}
	keyboard := format.ReminderKeyboard(r.ID)
	h.send(chatID, text, &keyboard)
}

func (h *Handlers) send(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	parsed := format.ParseMarkdown(text)
	msg := tgbotapi.NewMessage(chatID, parsed.Text)
	msg.Entities = parsed.Entities
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	if _, err := h.api.Send(msg); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

func (h *Handlers) replyError(chatID int64, err error) {
	h.sendMessage(chatID, errorText(err))
}

func errorText(err error) string {
	switch {
	case errors.Is(err, planner.ErrInvalid):
		return "⚠️ " + err.Error()
	case errors.Is(err, planner.ErrAmbiguous):
		return "⚠️ That id prefix matches several reminders, type more characters"
	case errors.Is(err, repository.ErrNotFound):
		return "⚠️ Not found"
	default:
		log.Printf("Request failed: %v", err)
		return "Something went wrong, please try again later"
	}
}

func toggleText(res *planner.ToggleResult, loc *time.Location) string {
	head := "↩️ **Reopened**"
	if res.Reminder.IsDone() {
		head = "✅ **Done**"
	}
	text := head + "\n\n" + format.Reminder(res.Reminder, loc)
	if res.Next != nil {
		text += "\n🔁 Next: " + res.Next.DueAt.In(loc).Format("Mon 2006-01-02 15:04")
	}
	return text
}

func (h *Handlers) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	text := fmt.Sprintf(`👋 Hi %s!

I'm cadence, I keep track of your reminders.

Tell me what to remember, for example:
• "dentist tomorrow at 8:30"
• "gym every Tuesday and Thursday 7pm for 90 minutes"
• "book club every last Friday at 19:00"

See /help for all commands`, msg.From.FirstName)
	h.sendMessage(msg.Chat.ID, text)
}

func (h *Handlers) handleHelp(ctx context.Context, msg *tgbotapi.Message) {
	text := "📖 **Commands**\n\n" +
		"**Reminders**\n" +
		"/remind <when> <title> [| options] - add a reminder\n" +
		"/reminders [days] - upcoming reminders\n" +
		"/inbox - reminders without a date\n" +
		"/search <keyword> - find reminders\n" +
		"/done <id> - mark done\n" +
		"/undo <id> - reopen\n" +
		"/reschedule [id] [YYYY-MM-DD] - move to the next free hour, or all overdue\n" +
		"/delete <id> - delete\n\n" +
		"**Groups**\n" +
		"/groups - list groups\n" +
		"/group <name> [color] - add or recolor a group\n" +
		"/delgroup <name> - delete a group\n\n" +
		"**Other**\n" +
		"/stats [days] - completion stats\n" +
		"/export - calendar file\n\n" +
		remindUsage
	h.sendMessage(msg.Chat.ID, text)
}
