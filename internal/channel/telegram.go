package channel

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/catcare/internal/format"
	"github.com/hray3182/catcare/internal/notify"
)

// Sender is the part of *tgbotapi.BotAPI the push channel uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// DoneCallbackPrefix marks the callback data of the inline "done" button.
const DoneCallbackPrefix = "done:"

// Telegram delivers notifications as bot messages. The recipient is a chat id.
type Telegram struct {
	api Sender
	loc *time.Location
}

func NewTelegram(api Sender, loc *time.Location) *Telegram {
	return &Telegram{api: api, loc: loc}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Send(ctx context.Context, to string, p notify.Payload) error {
	chatID, err := strconv.ParseInt(to, 10, 64)
	if err != nil || chatID == 0 {
		return fmt.Errorf("invalid chat id %q", to)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	parsed := format.ParseMarkdown(Markdown(p, t.loc))
	msg := tgbotapi.NewMessage(chatID, parsed.Text)
	msg.Entities = parsed.Entities
	if p.ReminderID != "" {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Done", DoneCallbackPrefix+p.ReminderID),
			),
		)
	}

	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
