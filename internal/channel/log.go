package channel

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/hray3182/catcare/internal/notify"
)

// Log writes notifications to the logger. It stands in for push when no bot
// token is configured.
type Log struct {
	log zerolog.Logger
}

func NewLog(log zerolog.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) Name() string { return "log" }

func (l *Log) Send(_ context.Context, to string, p notify.Payload) error {
	l.log.Info().
		Str("to", to).
		Str("reminder", p.ReminderID).
		Str("type", string(p.Type)).
		Str("cat", p.CatName).
		Time("scheduled", p.ScheduledTime).
		Msg(p.Title + ": " + p.Message)
	return nil
}
