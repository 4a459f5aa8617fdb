package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmhodges/clock"
	"github.com/rs/zerolog"

	"github.com/hray3182/catcare/internal/bot"
	"github.com/hray3182/catcare/internal/bot/handlers"
	"github.com/hray3182/catcare/internal/channel"
	"github.com/hray3182/catcare/internal/config"
	"github.com/hray3182/catcare/internal/database"
	"github.com/hray3182/catcare/internal/logging"
	"github.com/hray3182/catcare/internal/notify"
	"github.com/hray3182/catcare/internal/reminders"
	"github.com/hray3182/catcare/internal/repository"
	"github.com/hray3182/catcare/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New(os.Stderr, "info", true)
		boot.Fatal().Err(err).Msg("failed to load config")
	}
	log := logging.New(os.Stdout, cfg.LogLevel, !cfg.LogJSON)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Str("tz", cfg.Timezone).Msg("invalid timezone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings := config.NewSettingsStore(cfg.SettingsPath, logging.Component(log, "settings"))
	if _, err := settings.Load(); err != nil {
		log.Fatal().Err(err).Msg("failed to load notification settings")
	}
	go func() {
		if err := settings.Watch(ctx); err != nil {
			log.Warn().Err(err).Msg("settings file is not watched")
		}
	}()

	store, closeStore := openStore(ctx, cfg, log)
	defer closeStore()

	clk := clock.New()
	timers := notify.NewScheduler(clk, logging.Component(log, "notify"), cfg.RearmGrace)
	defer timers.Stop()
	dispatcher := notify.NewDispatcher(logging.Component(log, "dispatch"), clk, cfg.SendRate)

	var b *bot.Bot
	if cfg.TelegramToken != "" {
		b, err = bot.New(cfg.TelegramToken, logging.Component(log, "bot"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create bot")
		}
		dispatcher.Register(notify.KindPush, channel.NewTelegram(b.API(), loc))
	} else {
		log.Warn().Msg("TELEGRAM_TOKEN not set, push notifications go to the log")
		dispatcher.Register(notify.KindPush, channel.NewLog(logging.Component(log, "push")))
	}
	if cfg.SMTPHost != "" {
		email, err := channel.NewEmail(channel.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, loc, clk)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid smtp configuration")
		}
		dispatcher.Register(notify.KindEmail, email)
	}
	if cfg.SMSAccountSID != "" {
		sms, err := channel.NewSMS(channel.SMSConfig{
			BaseURL:    cfg.SMSBaseURL,
			AccountSID: cfg.SMSAccountSID,
			AuthToken:  cfg.SMSAuthToken,
			From:       cfg.SMSFrom,
		}, nil)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid sms configuration")
		}
		dispatcher.Register(notify.KindSMS, sms)
	}

	svc := reminders.New(reminders.Config{
		Store:      store,
		Scheduler:  timers,
		Dispatcher: dispatcher,
		Settings:   settings,
		Clock:      clk,
		Location:   loc,
		Log:        logging.Component(log, "reminders"),
	})

	sched, err := scheduler.New(svc, cfg.GenerateSpec, loc, settings.Subscribe(), logging.Component(log, "scheduler"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		sched.Start(ctx)
	}()

	if b == nil {
		log.Info().Msg("running headless")
		<-ctx.Done()
	} else {
		h := handlers.New(b.API(), svc, settings, clk, loc, logging.Component(log, "handlers"))
		if err := b.Start(ctx, h); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("bot stopped")
		}
	}

	log.Info().Msg("shutting down")
	stop()
	<-done
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (repository.Store, func()) {
	switch cfg.StoreDriver {
	case "sqlite":
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath, logging.Component(log, "sqlite"))
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("failed to open sqlite store")
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("using sqlite store")
		store := repository.NewSQLiteStore(db)
		return store, func() { store.Close() }
	case "postgres":
		if cfg.DatabaseURI == "" {
			log.Fatal().Msg("DATABASE_URI is required for the postgres store")
		}
		db, err := database.New(ctx, cfg.DatabaseURI)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		if err := db.Migrate(ctx, logging.Component(log, "migrate")); err != nil {
			db.Close()
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		log.Info().Msg("connected to database")
		return repository.NewRepositories(db), db.Close
	default:
		log.Fatal().Str("driver", cfg.StoreDriver).Msg("unknown STORE_DRIVER")
		return nil, nil
	}
}
