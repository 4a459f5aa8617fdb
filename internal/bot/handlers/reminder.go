package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/catcare/internal/calendar"
	"github.com/hray3182/catcare/internal/channel"
	"github.com/hray3182/catcare/internal/models"
	"github.com/hray3182/catcare/internal/rrule"
)

const listLimit = 30

func (h *Handlers) handleRemind(ctx context.Context, msg *tgbotapi.Message) {
	args, err := parseRemind(msg.CommandArguments(), h.clk.Now(), h.loc)
	if err != nil {
		h.sendMessage(msg.Chat.ID, err.Error()+"\nExample: `/remind medication weekly 2024-06-01 20:00 @Mochi Heartworm pill`")
		return
	}

	var catID, catName string
	if args.CatName != "" {
		cat, err := h.findCat(ctx, msg.From.ID, args.CatName)
		if err != nil {
			h.sendMessage(msg.Chat.ID, err.Error())
			return
		}
		catID, catName = cat.ID, cat.Name
	}

	r, err := h.svc.Add(ctx, &models.Reminder{
		OwnerID:             msg.From.ID,
		CatID:               catID,
		Title:               args.Title,
		Description:         args.Description,
		Type:                args.Type,
		Frequency:           args.Frequency,
		ScheduledTime:       args.When,
		IsActive:            true,
		NotificationEnabled: true,
	})
	if err != nil {
		h.sendError(msg.Chat.ID, "create the reminder", err)
		return
	}
	if r.IsRecurring() {
		// Materialize the rest of the series right away.
		if _, err := h.svc.Generate(ctx); err != nil {
			h.log.Error().Err(err).Msg("failed to generate after add")
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s **Reminder set**\n%s\n", channel.Emoji(r.Type), r.Title)
	if catName != "" {
		fmt.Fprintf(&sb, "🐱 %s\n", catName)
	}
	fmt.Fprintf(&sb, "🕘 %s\n", rrule.Describe(r.Frequency, r.ScheduledTime, h.loc))
	fmt.Fprintf(&sb, "🆔 `%s`", shortID(r.ID))
	h.sendMessage(msg.Chat.ID, sb.String())
}

func (h *Handlers) handleReminderList(ctx context.Context, msg *tgbotapi.Message) {
	arg := strings.TrimSpace(msg.CommandArguments())
	var (
		list []*models.Reminder
		err  error
	)
	if strings.HasPrefix(arg, "@") {
		cat, cerr := h.findCat(ctx, msg.From.ID, strings.TrimPrefix(arg, "@"))
		if cerr != nil {
			h.sendMessage(msg.Chat.ID, cerr.Error())
			return
		}
		list, err = h.svc.ByCat(ctx, msg.From.ID, cat.ID)
	} else {
		list, err = h.svc.List(ctx, msg.From.ID)
	}
	if err != nil {
		h.sendError(msg.Chat.ID, "list reminders", err)
		return
	}

	// Only open reminders from now on; history would drown the list.
	now := h.clk.Now()
	var open []*models.Reminder
	for _, r := range list {
		if !r.IsCompleted && !r.ScheduledTime.Before(now) {
			open = append(open, r)
		}
	}
	if len(open) == 0 {
		h.sendMessage(msg.Chat.ID, "⏰ No open reminders")
		return
	}
	h.sendMessage(msg.Chat.ID, h.formatList("⏰ **Reminders**", open, h.catNames(ctx, msg.From.ID)))
}

func (h *Handlers) handleUpcoming(ctx context.Context, msg *tgbotapi.Message) {
	hours := 0
	if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			h.sendMessage(msg.Chat.ID, "Usage: /upcoming [hours]")
			return
		}
		hours = n
	}
	list, err := h.svc.Upcoming(ctx, msg.From.ID, hours)
	if err != nil {
		h.sendError(msg.Chat.ID, "list upcoming reminders", err)
		return
	}
	if len(list) == 0 {
		h.sendMessage(msg.Chat.ID, "🎉 Nothing due soon")
		return
	}
	h.sendMessage(msg.Chat.ID, h.formatList("📅 **Upcoming**", list, h.catNames(ctx, msg.From.ID)))
}

func (h *Handlers) formatList(header string, list []*models.Reminder, cats map[string]string) string {
	var sb strings.Builder
	sb.WriteString(header + "\n\n")
	for i, r := range list {
		if i == listLimit {
			fmt.Fprintf(&sb, "… and %d more", len(list)-listLimit)
			break
		}
		status := ""
		if !r.IsActive {
			status = " ⏸"
		}
		fmt.Fprintf(&sb, "%s **%s**%s `%s`\n", channel.Emoji(r.Type), r.Title, status, shortID(r.ID))
		fmt.Fprintf(&sb, "   🕘 %s", r.ScheduledTime.In(h.loc).Format("Mon 2006-01-02 15:04"))
		if r.IsRecurring() {
			fmt.Fprintf(&sb, " 🔁 %s", r.Frequency)
		}
		if name := cats[r.CatID]; name != "" {
			fmt.Fprintf(&sb, " 🐱 %s", name)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// resolveReminder finds the caller's reminder by full id or unique prefix.
func (h *Handlers) resolveReminder(ctx context.Context, ownerID int64, token string) (*models.Reminder, error) {
	list, err := h.svc.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(list))
	for i, r := range list {
		ids[i] = r.ID
	}
	id, err := matchID(ids, token)
	if err != nil {
		return nil, err
	}
	for _, r := range list {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("no reminder matches %q", token)
}

func (h *Handlers) withReminder(ctx context.Context, msg *tgbotapi.Message, usage string) *models.Reminder {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		h.sendMessage(msg.Chat.ID, usage)
		return nil
	}
	r, err := h.resolveReminder(ctx, msg.From.ID, arg)
	if err != nil {
		h.sendMessage(msg.Chat.ID, err.Error())
		return nil
	}
	return r
}

func (h *Handlers) handleDone(ctx context.Context, msg *tgbotapi.Message) {
	r := h.withReminder(ctx, msg, "Usage: /done <id>")
	if r == nil {
		return
	}
	r, err := h.svc.Toggle(ctx, msg.From.ID, r.ID)
	if err != nil {
		h.sendError(msg.Chat.ID, "update the reminder", err)
		return
	}
	if r.IsCompleted {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("✅ Done: %s", r.Title))
	} else {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("↩️ Reopened: %s", r.Title))
	}
}

func (h *Handlers) handleDoneCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, id string) {
	r, err := h.svc.Get(ctx, callback.From.ID, id)
	if err != nil {
		h.answerCallbackWithAlert(callback.ID, "This reminder no longer exists")
		return
	}
	if !r.IsCompleted {
		if r, err = h.svc.Toggle(ctx, callback.From.ID, id); err != nil {
			h.log.Error().Err(err).Str("reminder", id).Msg("failed to complete reminder from callback")
			return
		}
	}
	h.editMessageText(callback.Message.Chat.ID, callback.Message.MessageID,
		fmt.Sprintf("✅ **Done**: %s\n%s", r.Title, r.ScheduledTime.In(h.loc).Format("2006-01-02 15:04")))
}

func (h *Handlers) handleDelete(ctx context.Context, msg *tgbotapi.Message) {
	r := h.withReminder(ctx, msg, "Usage: /delete <id>")
	if r == nil {
		return
	}
	if err := h.svc.Delete(ctx, msg.From.ID, r.ID); err != nil {
		h.sendError(msg.Chat.ID, "delete the reminder", err)
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("🗑 Deleted: %s", r.Title))
}

func (h *Handlers) handlePause(ctx context.Context, msg *tgbotapi.Message, active bool) {
	usage := "Usage: /pause <id>"
	if active {
		usage = "Usage: /resume <id>"
	}
	r := h.withReminder(ctx, msg, usage)
	if r == nil {
		return
	}
	r, err := h.svc.SetActive(ctx, msg.From.ID, r.ID, active)
	if err != nil {
		h.sendError(msg.Chat.ID, "update the reminder", err)
		return
	}
	if active {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("▶️ Resumed: %s", r.Title))
	} else {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("⏸ Paused: %s", r.Title))
	}
}

func (h *Handlers) handleGenerate(ctx context.Context, msg *tgbotapi.Message) {
	n, err := h.svc.Generate(ctx)
	if err != nil {
		h.sendError(msg.Chat.ID, "generate reminders", err)
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("🔁 Created %d upcoming reminders", n))
}

func (h *Handlers) handleICS(ctx context.Context, msg *tgbotapi.Message) {
	r := h.withReminder(ctx, msg, "Usage: /ics <id>")
	if r == nil {
		return
	}
	event := calendar.ForReminder(r, h.catNames(ctx, msg.From.ID)[r.CatID])
	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FileBytes{
		Name:  calendar.FileName,
		Bytes: calendar.ICS(h.clk.Now(), event),
	})
	doc.Caption = "📅 " + r.Title
	if _, err := h.api.Send(doc); err != nil {
		h.log.Warn().Err(err).Msg("failed to send calendar file")
		h.sendMessage(msg.Chat.ID, "Failed to send the calendar file, please try again later.")
	}
}
