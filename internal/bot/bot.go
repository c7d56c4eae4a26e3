package bot

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/cadence/internal/ai"
	"github.com/hray3182/cadence/internal/bot/handlers"
	"github.com/hray3182/cadence/internal/planner"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	handlers *handlers.Handlers
}

// New wires the update handlers. aiClient may be nil.
func New(api *tgbotapi.BotAPI, users handlers.UserRegistry, p *planner.Planner, aiClient *ai.Client, devMode bool) *Bot {
	var parser handlers.DraftParser
	if aiClient != nil {
		parser = aiClient
	}

	return &Bot{
		api:      api,
		handlers: handlers.New(api, users, p, parser, devMode),
	}
}

// commands is the menu shown by Telegram clients.
var commands = []tgbotapi.BotCommand{
	{Command: "remind", Description: "Add a reminder"},
	{Command: "reminders", Description: "Upcoming reminders"},
	{Command: "inbox", Description: "Reminders without a date"},
	{Command: "search", Description: "Find reminders"},
	{Command: "done", Description: "Mark a reminder done"},
	{Command: "reschedule", Description: "Move overdue reminders"},
	{Command: "groups", Description: "List groups"},
	{Command: "stats", Description: "Completion stats"},
	{Command: "export", Description: "Download an .ics calendar"},
	{Command: "help", Description: "Show usage"},
}

func (b *Bot) Start(ctx context.Context) error {
	log.Printf("Authorized on account %s", b.api.Self.UserName)

	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		log.Printf("Failed to register command menu: %v", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handlers.HandleCallbackQuery(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}

	// Handle commands
	if update.Message.IsCommand() {
		b.handlers.HandleCommand(ctx, update.Message)
		return
	}

	b.handlers.HandleMessage(ctx, update.Message)
}
