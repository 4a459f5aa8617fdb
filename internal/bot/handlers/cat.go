package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/catcare/internal/models"
)

func (h *Handlers) handleAddCat(ctx context.Context, msg *tgbotapi.Message) {
	fields := strings.Fields(msg.CommandArguments())
	if len(fields) == 0 {
		h.sendMessage(msg.Chat.ID, "Usage: /addcat <name> [breed]\nExample: /addcat Mochi Ragdoll")
		return
	}
	if _, err := h.findCat(ctx, msg.From.ID, fields[0]); err == nil {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("You already have a cat called %s", fields[0]))
		return
	}

	cat, err := h.svc.AddCat(ctx, &models.Cat{
		OwnerID: msg.From.ID,
		Name:    fields[0],
		Breed:   strings.Join(fields[1:], " "),
	})
	if err != nil {
		h.sendError(msg.Chat.ID, "add the cat", err)
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("🐱 Added **%s**\nUse `@%s` in /remind to link reminders.", cat.Name, cat.Name))
}

func (h *Handlers) handleCatList(ctx context.Context, msg *tgbotapi.Message) {
	cats, err := h.svc.Cats(ctx, msg.From.ID)
	if err != nil {
		h.sendError(msg.Chat.ID, "list cats", err)
		return
	}
	if len(cats) == 0 {
		h.sendMessage(msg.Chat.ID, "🐱 No cats yet, add one with /addcat")
		return
	}

	var sb strings.Builder
	sb.WriteString("🐱 **Your cats**\n\n")
	for _, c := range cats {
		sb.WriteString("**" + c.Name + "**")
		if c.Breed != "" {
			sb.WriteString(", " + c.Breed)
		}
		if c.Age > 0 {
			fmt.Fprintf(&sb, ", %d y", c.Age)
		}
		if c.Vet.Name != "" {
			sb.WriteString("\n   🏥 " + c.Vet.Name)
			if c.Vet.Phone != "" {
				sb.WriteString(" " + c.Vet.Phone)
			}
		}
		sb.WriteString("\n")
	}
	h.sendMessage(msg.Chat.ID, sb.String())
}

func (h *Handlers) findCat(ctx context.Context, ownerID int64, name string) (*models.Cat, error) {
	cats, err := h.svc.Cats(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, c := range cats {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("no cat called %q, see /cats", name)
}

func (h *Handlers) catNames(ctx context.Context, ownerID int64) map[string]string {
	names := make(map[string]string)
	cats, err := h.svc.Cats(ctx, ownerID)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to load cat names")
		return names
	}
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names
}

func (h *Handlers) handleSetVet(ctx context.Context, msg *tgbotapi.Message) {
	args := msg.CommandArguments()
	phone := ""
	if i := strings.Index(args, "|"); i >= 0 {
		args, phone = args[:i], strings.TrimSpace(args[i+1:])
	}
	fields := strings.Fields(args)
	if len(fields) < 2 {
		h.sendMessage(msg.Chat.ID, "Usage: /setvet <cat> <vet name> [| phone]")
		return
	}
	cat, err := h.findCat(ctx, msg.From.ID, fields[0])
	if err != nil {
		h.sendMessage(msg.Chat.ID, err.Error())
		return
	}
	cat.Vet.Name = strings.Join(fields[1:], " ")
	if phone != "" {
		cat.Vet.Phone = phone
	}
	if err := h.svc.UpdateCat(ctx, cat); err != nil {
		h.sendError(msg.Chat.ID, "update the cat", err)
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("🏥 Vet for **%s**: %s", cat.Name, cat.Vet.Name))
}

func (h *Handlers) handleDeleteCat(ctx context.Context, msg *tgbotapi.Message) {
	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" {
		h.sendMessage(msg.Chat.ID, "Usage: /delcat <cat>")
		return
	}
	cat, err := h.findCat(ctx, msg.From.ID, name)
	if err != nil {
		h.sendMessage(msg.Chat.ID, err.Error())
		return
	}
	if err := h.svc.DeleteCat(ctx, msg.From.ID, cat.ID); err != nil {
		h.sendError(msg.Chat.ID, "delete the cat", err)
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("🗑 Removed %s", cat.Name))
}
