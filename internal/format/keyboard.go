package format

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// Callback data prefixes of the reminder buttons, followed by ":<id>".
const (
	CallbackDone    = "done"
	CallbackResched = "resched"
)

// ReminderKeyboard returns the Done and Reschedule buttons for an open
// reminder.
func ReminderKeyboard(id uuid.UUID) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Done", CallbackDone+":"+id.String()),
			tgbotapi.NewInlineKeyboardButtonData("⏭ Reschedule", CallbackResched+":"+id.String()),
		),
	)
}
