package handlers

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/cadence/internal/format"
	"github.com/hray3182/cadence/internal/ics"
)

// handleStats shows completion stats for the last n days, today included.
func (h *Handlers) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	days := defaultListDays
	if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil {
			h.sendMessage(msg.Chat.ID, "Usage: /stats [days]")
			return
		}
		days = n
	}

	start := h.planner.Now().AddDate(0, 0, 1-days)
	report, err := h.planner.Insights(ctx, start, days)
	if err != nil {
		h.replyError(msg.Chat.ID, err)
		return
	}
	h.sendMessage(msg.Chat.ID, format.Report(report))

	stats := h.planner.CacheStats()
	h.debug("Cache: %d active, %d expired", stats.ActiveEntries, stats.ExpiredEntries)
}

func (h *Handlers) handleExport(ctx context.Context, msg *tgbotapi.Message) {
	data, err := h.planner.Export(ctx)
	if errors.Is(err, ics.ErrEmpty) {
		h.sendMessage(msg.Chat.ID, "📅 Nothing scheduled to export")
		return
	}
	if err != nil {
		h.replyError(msg.Chat.ID, err)
		return
	}

	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FileBytes{Name: "cadence.ics", Bytes: data})
	doc.Caption = "📅 Import this file into your calendar"
	if _, err := h.api.Send(doc); err != nil {
		log.Printf("Failed to send calendar export: %v", err)
		h.sendMessage(msg.Chat.ID, "Failed to send the calendar file, please try again later")
	}
}
