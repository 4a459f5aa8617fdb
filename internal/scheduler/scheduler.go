// Package scheduler runs the periodic maintenance of reminders: topping up
// recurring series and re-arming notification timers.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/hray3182/catcare/internal/notify"
)

const DefaultStartDelay = 2 * time.Second

// Maintainer is the part of the reminder service the scheduler drives.
type Maintainer interface {
	Generate(ctx context.Context) (int, error)
	Rearm(ctx context.Context) (int, error)
}

type Scheduler struct {
	svc        Maintainer
	log        zerolog.Logger
	spec       string
	schedule   cron.Schedule
	loc        *time.Location
	startDelay time.Duration
	settings   <-chan notify.Settings

	notifyCh chan struct{}
	rearmCh  chan struct{}
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// New creates a scheduler that regenerates recurring reminders on spec, a
// five-field cron expression or descriptor such as "@daily". settings may be
// nil; otherwise every value received on it triggers a re-arm so a changed
// lead time takes effect.
func New(svc Maintainer, spec string, loc *time.Location, settings <-chan notify.Settings, log zerolog.Logger) (*Scheduler, error) {
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid generate schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		svc:        svc,
		log:        log,
		spec:       spec,
		schedule:   schedule,
		loc:        loc,
		startDelay: DefaultStartDelay,
		settings:   settings,
		notifyCh:   make(chan struct{}, 1),
		rearmCh:    make(chan struct{}, 1),
	}, nil
}

// SetStartDelay changes how long Start waits before the first run.
func (s *Scheduler) SetStartDelay(d time.Duration) {
	s.startDelay = d
}

// Notify triggers an immediate generation. Non-blocking if a run is already pending.
func (s *Scheduler) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

// RearmNow triggers an immediate re-arm of notification timers.
func (s *Scheduler) RearmNow() {
	select {
	case s.rearmCh <- struct{}{}:
	default:
	}
}

// Start generates and re-arms once, then keeps generating on the cron
// schedule and on Notify until ctx is done. Runs never overlap.
func (s *Scheduler) Start(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.startDelay):
	}

	s.generate(ctx)
	s.rearm(ctx)

	c := cron.New(cron.WithParser(parser), cron.WithLocation(s.loc))
	c.Schedule(s.schedule, cron.FuncJob(s.Notify))
	c.Start()
	defer func() { <-c.Stop().Done() }()
	s.log.Info().Str("spec", s.spec).Str("tz", s.loc.String()).Msg("scheduler started")

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return
		case <-s.notifyCh:
			s.generate(ctx)
		case <-s.rearmCh:
			s.rearm(ctx)
		case _, ok := <-s.settings:
			if !ok {
				s.settings = nil
				continue
			}
			s.log.Debug().Msg("notification settings changed")
			s.rearm(ctx)
		}
	}
}

func (s *Scheduler) generate(ctx context.Context) {
	n, err := s.svc.Generate(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to generate recurring reminders")
		return
	}
	s.log.Debug().Int("generated", n).Msg("generation run finished")
}

func (s *Scheduler) rearm(ctx context.Context) {
	if _, err := s.svc.Rearm(ctx); err != nil {
		s.log.Error().Err(err).Msg("failed to re-arm notifications")
	}
}
