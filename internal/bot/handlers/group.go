package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/cadence/internal/models"
	"github.com/hray3182/cadence/internal/repository"
)

func (h *Handlers) handleGroupList(ctx context.Context, msg *tgbotapi.Message) {
	groups, err := h.planner.ListGroups(ctx)
	if err != nil {
		h.replyError(msg.Chat.ID, err)
		return
	}
	if len(groups) == 0 {
		h.sendMessage(msg.Chat.ID, "🗂 No groups yet, add one with /group <name> [color]")
		return
	}

	var sb strings.Builder
	sb.WriteString("🗂 **Groups**\n\n")
	for _, g := range groups {
		fmt.Fprintf(&sb, "• **%s** `%s`\n", g.Name, g.Color)
	}
	h.sendMessage(msg.Chat.ID, sb.String())
}

// handleGroup creates a group, or recolors it when the name exists.
// Usage: /group <name> [color]
func (h *Handlers) handleGroup(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		h.sendMessage(msg.Chat.ID, "Usage: /group <name> [color]\nColors: a named color such as blue, or #rrggbb")
		return
	}
	name, color := args[0], ""
	if len(args) > 1 {
		color = args[1]
	}

	g, err := h.planner.FindGroup(ctx, name)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		g = &models.Group{Name: name}
	case err != nil:
		h.replyError(msg.Chat.ID, err)
		return
	}
	if color != "" || g.Color == "" {
		g.Color = color
	}

	if err := h.planner.SaveGroup(ctx, g); err != nil {
		h.replyError(msg.Chat.ID, err)
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("🗂 Saved group **%s** `%s`", g.Name, g.Color))
}

func (h *Handlers) handleDeleteGroup(ctx context.Context, msg *tgbotapi.Message) {
	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" {
		h.sendMessage(msg.Chat.ID, "Usage: /delgroup <name>")
		return
	}

	g, err := h.planner.FindGroup(ctx, name)
	if err != nil {
		h.replyError(msg.Chat.ID, err)
		return
	}
	if err := h.planner.DeleteGroup(ctx, g.ID); err != nil {
		h.replyError(msg.Chat.ID, err)
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("🗑 Deleted group **%s**, its reminders were kept", g.Name))
}
