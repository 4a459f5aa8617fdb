package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/catcare/internal/format"
	"github.com/hray3182/catcare/internal/notify"
)

var leadChoices = []int{5, 15, 30, 60}

const settingsUsage = "Usage:\n" +
	"/settings - open the menu\n" +
	"/settings email <address>|off\n" +
	"/settings sms <phone>|off\n" +
	"/settings push on|off\n" +
	"/settings lead <minutes>"

func (h *Handlers) handleSettings(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		parsed := format.ParseMarkdown(h.settingsText(h.settings.Current()))
		reply := tgbotapi.NewMessage(msg.Chat.ID, parsed.Text)
		reply.Entities = parsed.Entities
		reply.ReplyMarkup = h.settingsKeyboard(h.settings.Current())
		if _, err := h.api.Send(reply); err != nil {
			h.log.Warn().Err(err).Msg("failed to send settings menu")
		}
		return
	}
	if len(args) != 2 {
		h.sendMessage(msg.Chat.ID, settingsUsage)
		return
	}

	s := h.settings.Current()
	value := args[1]
	off := strings.EqualFold(value, "off")
	switch strings.ToLower(args[0]) {
	case "email":
		if off {
			s.Email.Enabled = false
		} else {
			s.Email = notify.EmailSettings{Enabled: true, Address: value}
		}
	case "sms":
		if off {
			s.SMS.Enabled = false
		} else {
			s.SMS = notify.SMSSettings{Enabled: true, PhoneNumber: value}
		}
	case "push":
		switch strings.ToLower(value) {
		case "on":
			s.Push.Enabled = true
		case "off":
			s.Push.Enabled = false
		default:
			h.sendMessage(msg.Chat.ID, settingsUsage)
			return
		}
	case "lead":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			h.sendMessage(msg.Chat.ID, "Lead time must be a number of minutes")
			return
		}
		// Zero in the file means "default"; a negative value stores an explicit zero lead.
		if n == 0 {
			n = -1
		}
		s.LeadMinutes = n
	default:
		h.sendMessage(msg.Chat.ID, settingsUsage)
		return
	}

	if err := h.saveSettings(s); err != nil {
		h.sendMessage(msg.Chat.ID, "⚠️ "+err.Error())
		return
	}
	h.sendMessage(msg.Chat.ID, h.settingsText(s))
}

// saveSettings validates and persists s. Invalid values never reach the file.
func (h *Handlers) saveSettings(s notify.Settings) error {
	if err := s.Validate(); err != nil {
		return settingsError(err)
	}
	if err := h.settings.Update(s); err != nil {
		h.log.Error().Err(err).Msg("failed to save notification settings")
		return errors.New("failed to save settings, please try again later")
	}
	return nil
}

func settingsError(err error) error {
	switch {
	case errors.Is(err, notify.ErrNoChannels):
		return errors.New("at least one channel must stay enabled")
	case errors.Is(err, notify.ErrInvalidAddress), errors.Is(err, notify.ErrMissingAddress):
		return errors.New("please enter a valid email address")
	case errors.Is(err, notify.ErrMissingPhone):
		return errors.New("please enter a phone number for SMS")
	}
	return err
}

func onOff(enabled bool) string {
	if enabled {
		return "✅"
	}
	return "❌"
}

func (h *Handlers) settingsText(s notify.Settings) string {
	var sb strings.Builder
	sb.WriteString("⚙️ **Notification settings**\n\n")
	fmt.Fprintf(&sb, "%s Push\n", onOff(s.Push.Enabled))
	fmt.Fprintf(&sb, "%s Email", onOff(s.Email.Enabled))
	if s.Email.Address != "" {
		fmt.Fprintf(&sb, " `%s`", s.Email.Address)
	}
	fmt.Fprintf(&sb, "\n%s SMS", onOff(s.SMS.Enabled))
	if s.SMS.PhoneNumber != "" {
		fmt.Fprintf(&sb, " `%s`", s.SMS.PhoneNumber)
	}
	fmt.Fprintf(&sb, "\n⏱ Lead time: %d min", s.Lead())
	if !s.AnyEnabled() {
		sb.WriteString("\n\n⚠️ No channel can deliver right now")
	}
	return sb.String()
}

func (h *Handlers) settingsKeyboard(s notify.Settings) tgbotapi.InlineKeyboardMarkup {
	leads := make([]tgbotapi.InlineKeyboardButton, 0, len(leadChoices))
	for _, m := range leadChoices {
		label := fmt.Sprintf("%d min", m)
		if m == s.Lead() {
			label = "• " + label
		}
		leads = append(leads, tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("settings:lead:%d", m)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(onOff(s.Push.Enabled)+" Push", "settings:toggle:push"),
			tgbotapi.NewInlineKeyboardButtonData(onOff(s.Email.Enabled)+" Email", "settings:toggle:email"),
			tgbotapi.NewInlineKeyboardButtonData(onOff(s.SMS.Enabled)+" SMS", "settings:toggle:sms"),
		),
		leads,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔔 Test", "settings:test"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Close", "settings:close"),
		),
	)
}

func (h *Handlers) handleSettingsCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, parts []string) {
	if len(parts) == 0 {
		return
	}
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID
	s := h.settings.Current()

	switch parts[0] {
	case "toggle":
		if len(parts) < 2 {
			return
		}
		switch parts[1] {
		case "push":
			s.Push.Enabled = !s.Push.Enabled
		case "email":
			s.Email.Enabled = !s.Email.Enabled
		case "sms":
			s.SMS.Enabled = !s.SMS.Enabled
		default:
			return
		}
	case "lead":
		if len(parts) < 2 {
			return
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil || n <= 0 {
			return
		}
		s.LeadMinutes = n
	case "test":
		h.sendTest(ctx, chatID, callback.From.ID)
		return
	case "close":
		h.deleteMessage(chatID, messageID)
		return
	default:
		return
	}

	if err := h.saveSettings(s); err != nil {
		h.answerCallbackWithAlert(callback.ID, err.Error())
		return
	}
	h.editMessageWithKeyboard(chatID, messageID, h.settingsText(s), h.settingsKeyboard(s))
}

func (h *Handlers) handleTest(ctx context.Context, msg *tgbotapi.Message) {
	h.sendTest(ctx, msg.Chat.ID, msg.From.ID)
}

func (h *Handlers) sendTest(ctx context.Context, chatID, ownerID int64) {
	report, err := h.svc.SendTest(ctx, ownerID)
	if err != nil {
		h.sendMessage(chatID, "⚠️ "+settingsError(err).Error())
		return
	}

	var sb strings.Builder
	sb.WriteString("🔔 **Test notification**\n")
	for _, res := range report.Results {
		if res.Err != nil {
			fmt.Fprintf(&sb, "❌ %s: %v\n", res.Kind, res.Err)
		} else {
			fmt.Fprintf(&sb, "✅ %s (%s)\n", res.Kind, res.Channel)
		}
	}
	h.sendMessage(chatID, sb.String())
}
