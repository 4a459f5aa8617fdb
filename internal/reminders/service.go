// Package reminders owns the reminder lifecycle: persisting edits, keeping
// notification timers in step with the store and topping up recurring series.
package reminders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmhodges/clock"
	"github.com/rs/zerolog"

	"github.com/hray3182/catcare/internal/models"
	"github.com/hray3182/catcare/internal/notify"
	"github.com/hray3182/catcare/internal/recurrence"
	"github.com/hray3182/catcare/internal/repository"
)

const (
	DefaultUpcomingHours = 24
	deliverTimeout       = 30 * time.Second
)

// SettingsSource supplies the notification settings in effect right now.
type SettingsSource interface {
	Current() notify.Settings
}

type Config struct {
	Store      repository.Store
	Scheduler  *notify.Scheduler
	Dispatcher *notify.Dispatcher
	Settings   SettingsSource
	Clock      clock.Clock
	Location   *time.Location
	Log        zerolog.Logger
	NewID      func() string
}

type Service struct {
	store    repository.Store
	sched    *notify.Scheduler
	disp     *notify.Dispatcher
	settings SettingsSource
	clk      clock.Clock
	loc      *time.Location
	log      zerolog.Logger
	newID    func() string
}

func New(cfg Config) *Service {
	s := &Service{
		store:    cfg.Store,
		sched:    cfg.Scheduler,
		disp:     cfg.Dispatcher,
		settings: cfg.Settings,
		clk:      cfg.Clock,
		loc:      cfg.Location,
		log:      cfg.Log,
		newID:    cfg.NewID,
	}
	if s.clk == nil {
		s.clk = clock.New()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

func validate(r *models.Reminder) error {
	switch {
	case strings.TrimSpace(r.Title) == "":
		return &recurrence.InputError{ReminderID: r.ID, Field: "title", Reason: "empty"}
	case !r.Type.Valid():
		return &recurrence.InputError{ReminderID: r.ID, Field: "type", Reason: fmt.Sprintf("unknown value %q", r.Type)}
	case !r.Frequency.Valid():
		return &recurrence.InputError{ReminderID: r.ID, Field: "frequency", Reason: fmt.Sprintf("unknown value %q", r.Frequency)}
	case r.ScheduledTime.IsZero():
		return &recurrence.InputError{ReminderID: r.ID, Field: "scheduledTime", Reason: "zero time"}
	}
	return nil
}

func notifiable(r *models.Reminder) bool {
	return r.NotificationEnabled && r.IsActive && !r.IsCompleted
}

// sync arms or cancels the notification timer to match r's current state.
// A reminder already notified for its current due time is left alone.
func (s *Service) sync(r *models.Reminder) {
	if !notifiable(r) {
		s.sched.Cancel(r.ID)
		return
	}
	if s.sched.Delivered(r) {
		return
	}
	s.sched.Schedule(r, s.settings.Current().Lead(), s.Deliver)
}

// Add stores a new reminder built from draft and schedules its notification.
func (s *Service) Add(ctx context.Context, draft *models.Reminder) (*models.Reminder, error) {
	if err := validate(draft); err != nil {
		return nil, err
	}
	now := s.clk.Now()
	r := draft.Clone()
	r.ID = s.newID()
	r.CreatedAt = now
	r.UpdatedAt = now

	if err := s.store.CreateReminder(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}
	s.sync(r)
	s.log.Info().Str("reminder", r.ID).Str("title", r.Title).Str("frequency", string(r.Frequency)).
		Time("at", r.ScheduledTime).Msg("reminder added")
	return r, nil
}

// Update persists r and re-arms its notification.
func (s *Service) Update(ctx context.Context, r *models.Reminder) error {
	if err := validate(r); err != nil {
		return err
	}
	r.UpdatedAt = s.clk.Now()
	if err := s.store.UpdateReminder(ctx, r); err != nil {
		return fmt.Errorf("failed to update reminder %s: %w", r.ID, err)
	}
	s.sync(r)
	return nil
}

// Get returns a reminder owned by ownerID. Reminders of other owners are
// reported as repository.ErrNotFound.
func (s *Service) Get(ctx context.Context, ownerID int64, id string) (*models.Reminder, error) {
	r, err := s.store.GetReminder(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, ownerID int64, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.store.DeleteReminder(ctx, id); err != nil {
		return fmt.Errorf("failed to delete reminder %s: %w", id, err)
	}
	s.sched.Cancel(id)
	return nil
}

// Toggle flips the completion flag and returns the updated reminder.
func (s *Service) Toggle(ctx context.Context, ownerID int64, id string) (*models.Reminder, error) {
	r, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	r.IsCompleted = !r.IsCompleted
	if err := s.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// SetActive pauses or resumes a reminder. For a recurring reminder every
// instance of its series changes together, so a paused series stops
// generating new instances and none of its notifications fire.
func (s *Service) SetActive(ctx context.Context, ownerID int64, id string, active bool) (*models.Reminder, error) {
	r, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	series := []*models.Reminder{r}
	if r.IsRecurring() {
		all, err := s.store.RemindersByOwner(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load series of %s: %w", id, err)
		}
		series = series[:0]
		key := r.Series()
		for _, other := range all {
			if other.Series() == key {
				series = append(series, other)
			}
		}
	}

	now := s.clk.Now()
	for _, inst := range series {
		inst.IsActive = active
		inst.UpdatedAt = now
	}
	if err := s.store.UpdateReminders(ctx, series); err != nil {
		return nil, fmt.Errorf("failed to update series of %s: %w", id, err)
	}
	for _, inst := range series {
		if inst.ID == id {
			r = inst
		}
		if active && s.sched.Missed(inst) {
			continue
		}
		s.sync(inst)
	}
	s.log.Info().Str("reminder", id).Int("instances", len(series)).Bool("active", active).Msg("series activity changed")
	return r, nil
}

func (s *Service) List(ctx context.Context, ownerID int64) ([]*models.Reminder, error) {
	return s.store.RemindersByOwner(ctx, ownerID)
}

func (s *Service) ByCat(ctx context.Context, ownerID int64, catID string) ([]*models.Reminder, error) {
	all, err := s.store.RemindersByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	var out []*models.Reminder
	for _, r := range all {
		if r.CatID == catID {
			out = append(out, r)
		}
	}
	return out, nil
}

// Upcoming returns open reminders due within the next hours, soonest first.
// hours <= 0 means DefaultUpcomingHours.
func (s *Service) Upcoming(ctx context.Context, ownerID int64, hours int) ([]*models.Reminder, error) {
	if hours <= 0 {
		hours = DefaultUpcomingHours
	}
	all, err := s.store.RemindersByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	now := s.clk.Now()
	until := now.Add(time.Duration(hours) * time.Hour)

	var out []*models.Reminder
	for _, r := range all {
		if r.Due(now, until) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledTime.Before(out[j].ScheduledTime)
	})
	return out, nil
}

// Generate materializes recurring instances up to the default horizon,
// persists the new ones and arms their notifications. Each owner's reminders
// are expanded separately. It returns the number of new instances.
func (s *Service) Generate(ctx context.Context) (int, error) {
	all, err := s.store.ListReminders(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load reminders: %w", err)
	}

	byOwner := make(map[int64][]*models.Reminder)
	var owners []int64
	for _, r := range all {
		if _, ok := byOwner[r.OwnerID]; !ok {
			owners = append(owners, r.OwnerID)
		}
		byOwner[r.OwnerID] = append(byOwner[r.OwnerID], r)
	}

	horizon := recurrence.DefaultHorizon(s.clk.Now())
	var fresh []*models.Reminder
	for _, owner := range owners {
		existing := byOwner[owner]
		expanded, err := recurrence.Expand(existing, horizon,
			recurrence.WithClock(s.clk),
			recurrence.WithLocation(s.loc),
			recurrence.WithIDFunc(s.newID),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to expand reminders of %d: %w", owner, err)
		}
		fresh = append(fresh, expanded[len(existing):]...)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	if err := s.store.AppendReminders(ctx, fresh); err != nil {
		return 0, fmt.Errorf("failed to store generated reminders: %w", err)
	}
	for _, r := range fresh {
		// Backfilled days that are already past are stored but not notified.
		if notifiable(r) && !s.sched.Missed(r) {
			s.sync(r)
		}
	}
	s.log.Info().Int("generated", len(fresh)).Time("horizon", horizon).Msg("recurring reminders generated")
	return len(fresh), nil
}

// Rearm schedules notifications for every stored reminder; used after start.
func (s *Service) Rearm(ctx context.Context) (int, error) {
	all, err := s.store.ListReminders(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load reminders: %w", err)
	}
	return s.sched.Rearm(all, s.settings.Current(), s.Deliver), nil
}

// Deliver sends the notification for r through every enabled channel. It is
// the callback handed to the scheduler.
func (s *Service) Deliver(r *models.Reminder) {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()
	s.send(ctx, notify.PayloadFor(r, s.catName(ctx, r.CatID)))
}

func (s *Service) send(ctx context.Context, p notify.Payload) notify.Report {
	report := s.disp.Send(ctx, s.settings.Current(), p)
	if len(report.Results) == 0 {
		s.log.Warn().Str("reminder", p.ReminderID).Msg("no notification channel enabled")
	}
	return report
}

// SendTest delivers a sample notification to check the channel setup. It
// fails without sending when the current settings are unusable.
func (s *Service) SendTest(ctx context.Context, ownerID int64) (notify.Report, error) {
	if err := s.settings.Current().Validate(); err != nil {
		return notify.Report{}, err
	}
	return s.send(ctx, notify.Payload{
		OwnerID:       ownerID,
		Title:         "Test notification",
		Message:       "This is a test notification from CatCare. If you can read it, delivery works.",
		Type:          models.TypeOther,
		Frequency:     models.FrequencyOnce,
		CatName:       "Test Cat",
		ScheduledTime: s.clk.Now(),
	}), nil
}

func (s *Service) catName(ctx context.Context, catID string) string {
	if catID == "" {
		return ""
	}
	cat, err := s.store.GetCat(ctx, catID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warn().Err(err).Str("cat", catID).Msg("failed to resolve cat name")
		}
		return ""
	}
	return cat.Name
}
