package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/hray3182/catcare/internal/bot/handlers"
)

type Bot struct {
	api *tgbotapi.BotAPI
	log zerolog.Logger
}

func New(token string, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return &Bot{api: api, log: log}, nil
}

// API exposes the client so the push channel and handlers share one connection.
func (b *Bot) API() *tgbotapi.BotAPI {
	return b.api
}

func (b *Bot) Start(ctx context.Context, h *handlers.Handlers) error {
	b.log.Info().Str("account", b.api.Self.UserName).Msg("authorized")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, h, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, h *handlers.Handlers, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Interface("panic", r).Int("update", update.UpdateID).Msg("handler panicked")
		}
	}()

	if update.CallbackQuery != nil {
		h.HandleCallbackQuery(ctx, update.CallbackQuery)
		return
	}
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}
	h.HandleCommand(ctx, update.Message)
}
