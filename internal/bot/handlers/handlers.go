package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmhodges/clock"
	"github.com/rs/zerolog"

	"github.com/hray3182/catcare/internal/channel"
	"github.com/hray3182/catcare/internal/config"
	"github.com/hray3182/catcare/internal/format"
	"github.com/hray3182/catcare/internal/recurrence"
	"github.com/hray3182/catcare/internal/reminders"
	"github.com/hray3182/catcare/internal/repository"
)

type Handlers struct {
	api      *tgbotapi.BotAPI
	svc      *reminders.Service
	settings *config.SettingsStore
	clk      clock.Clock
	loc      *time.Location
	log      zerolog.Logger
}

func New(api *tgbotapi.BotAPI, svc *reminders.Service, settings *config.SettingsStore, clk clock.Clock, loc *time.Location, log zerolog.Logger) *Handlers {
	return &Handlers{
		api:      api,
		svc:      svc,
		settings: settings,
		clk:      clk,
		loc:      loc,
		log:      log,
	}
}

func (h *Handlers) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		h.handleStart(ctx, msg)
	case "help":
		h.handleHelp(ctx, msg)
	case "addcat":
		h.handleAddCat(ctx, msg)
	case "cats":
		h.handleCatList(ctx, msg)
	case "setvet":
		h.handleSetVet(ctx, msg)
	case "delcat":
		h.handleDeleteCat(ctx, msg)
	case "remind":
		h.handleRemind(ctx, msg)
	case "reminders":
		h.handleReminderList(ctx, msg)
	case "upcoming":
		h.handleUpcoming(ctx, msg)
	case "done":
		h.handleDone(ctx, msg)
	case "delete":
		h.handleDelete(ctx, msg)
	case "pause":
		h.handlePause(ctx, msg, false)
	case "resume":
		h.handlePause(ctx, msg, true)
	case "generate":
		h.handleGenerate(ctx, msg)
	case "ics":
		h.handleICS(ctx, msg)
	case "settings":
		h.handleSettings(ctx, msg)
	case "test":
		h.handleTest(ctx, msg)
	default:
		h.sendMessage(msg.Chat.ID, "Unknown command, see /help")
	}
}

func (h *Handlers) HandleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	// Answer callback to remove loading state
	answer := tgbotapi.NewCallback(callback.ID, "")
	if _, err := h.api.Request(answer); err != nil {
		h.log.Warn().Err(err).Msg("failed to answer callback")
	}
	if callback.Message == nil {
		return
	}

	switch {
	case strings.HasPrefix(callback.Data, channel.DoneCallbackPrefix):
		h.handleDoneCallback(ctx, callback, strings.TrimPrefix(callback.Data, channel.DoneCallbackPrefix))
	case strings.HasPrefix(callback.Data, "settings:"):
		h.handleSettingsCallback(ctx, callback, strings.Split(strings.TrimPrefix(callback.Data, "settings:"), ":"))
	}
}

func (h *Handlers) answerCallbackWithAlert(callbackID string, text string) {
	answer := tgbotapi.NewCallbackWithAlert(callbackID, text)
	if _, err := h.api.Request(answer); err != nil {
		h.log.Warn().Err(err).Msg("failed to answer callback with alert")
	}
}

func (h *Handlers) editMessageText(chatID int64, messageID int, text string) {
	parsed := format.ParseMarkdown(text)
	edit := tgbotapi.NewEditMessageText(chatID, messageID, parsed.Text)
	edit.Entities = parsed.Entities
	if _, err := h.api.Send(edit); err != nil {
		h.log.Warn().Err(err).Int64("chat", chatID).Msg("failed to edit message")
	}
}

func (h *Handlers) editMessageWithKeyboard(chatID int64, messageID int, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	parsed := format.ParseMarkdown(text)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, parsed.Text, keyboard)
	edit.Entities = parsed.Entities
	if _, err := h.api.Send(edit); err != nil {
		h.log.Warn().Err(err).Int64("chat", chatID).Msg("failed to edit message")
	}
}

func (h *Handlers) deleteMessage(chatID int64, messageID int) {
	if _, err := h.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		h.log.Warn().Err(err).Int64("chat", chatID).Msg("failed to delete message")
	}
}

func (h *Handlers) sendMessage(chatID int64, text string) {
	parsed := format.ParseMarkdown(text)
	msg := tgbotapi.NewMessage(chatID, parsed.Text)
	msg.Entities = parsed.Entities
	if _, err := h.api.Send(msg); err != nil {
		h.log.Warn().Err(err).Int64("chat", chatID).Msg("failed to send message")
	}
}

// sendError reports err to the user. Store failures are logged and hidden.
func (h *Handlers) sendError(chatID int64, action string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		h.sendMessage(chatID, "Not found.")
		return
	case errors.Is(err, recurrence.ErrInvalidReminder), errors.Is(err, reminders.ErrInvalidCat):
		h.sendMessage(chatID, "⚠️ "+err.Error())
		return
	}
	h.log.Error().Err(err).Str("action", action).Int64("chat", chatID).Msg("command failed")
	h.sendMessage(chatID, fmt.Sprintf("Failed to %s, please try again later.", action))
}

func (h *Handlers) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	text := fmt.Sprintf(`👋 Hi %s!

I'm CatCare, your cat care scheduler.

I can help you:
🐱 keep a profile for each cat
🍽 remember feeding, medication, vet visits and grooming
🔁 repeat reminders daily, weekly or monthly
📧 notify you here, by email or by SMS

Start with /addcat, then /remind. See /help for every command.`, msg.From.FirstName)
	h.sendMessage(msg.Chat.ID, text)
}

func (h *Handlers) handleHelp(ctx context.Context, msg *tgbotapi.Message) {
	text := "📖 **Commands**\n\n" +
		"**Cats**\n" +
		"/addcat <name> [breed] - add a cat\n" +
		"/cats - list your cats\n" +
		"/setvet <cat> <vet name> [| phone] - save vet contact\n" +
		"/delcat <cat> - remove a cat, its reminders stay\n\n" +
		"**Reminders**\n" +
		"/remind <type> <frequency> <when> [@cat] <title> [| description]\n" +
		"   e.g. `/remind feeding daily 08:00 @Mochi Breakfast`\n" +
		"/reminders [@cat] - list reminders\n" +
		"/upcoming [hours] - due in the next 24 hours\n" +
		"/done <id> - mark done or undo\n" +
		"/pause <id>, /resume <id> - stop or restart a series\n" +
		"/delete <id> - delete a reminder\n" +
		"/ics <id> - export to your calendar\n" +
		"/generate - create upcoming recurring reminders now\n\n" +
		"**Notifications**\n" +
		"/settings - channels and lead time\n" +
		"/test - send a test notification\n\n" +
		"Types: feeding, medication, vet, grooming, other\n" +
		"Frequencies: once, daily, weekly, monthly"
	h.sendMessage(msg.Chat.ID, text)
}
