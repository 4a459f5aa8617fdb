// Package recurrence materializes future instances of recurring reminders.
//
// Expansion is pure: it reads a snapshot of every stored instance and returns
// that snapshot plus whatever instances are missing up to a horizon. Running it
// again on its own output adds nothing, which is what lets the caller invoke it
// on every start and on demand.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmhodges/clock"

	"github.com/hray3182/catcare/internal/models"
)

// ErrInvalidReminder is wrapped by every InputError.
var ErrInvalidReminder = errors.New("invalid reminder")

// InputError reports reminder data the expander cannot reason about.
type InputError struct {
	ReminderID string
	Field      string
	Reason     string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("reminder %q: %s: %s", e.ReminderID, e.Field, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidReminder
}

type options struct {
	clk   clock.Clock
	loc   *time.Location
	newID func() string
}

// Option customizes an expansion.
type Option func(*options)

// WithClock sets the clock used for CreatedAt/UpdatedAt of new instances.
func WithClock(clk clock.Clock) Option {
	return func(o *options) { o.clk = clk }
}

// WithLocation sets the time zone whose calendar and wall clock are used for
// period arithmetic and duplicate detection. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.loc = loc }
}

// WithIDFunc replaces the uuid generator for new instance IDs.
func WithIDFunc(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

// Expand returns all followed by the instances needed so that every eligible
// series has one occurrence per period strictly before horizon. Input
// instances are neither modified nor reordered; new instances are appended
// after them, grouped by series in increasing ScheduledTime order.
func Expand(all []*models.Reminder, horizon time.Time, opts ...Option) ([]*models.Reminder, error) {
	o := options{
		clk:   clock.New(),
		loc:   time.UTC,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if horizon.IsZero() {
		return nil, &InputError{Field: "horizon", Reason: "zero time"}
	}

	series := Group(all)
	out := make([]*models.Reminder, 0, len(all))
	out = append(out, all...)

	done := make(map[models.SeriesKey]bool)
	for _, tmpl := range all {
		if !eligible(tmpl) {
			continue
		}
		key := tmpl.Series()
		// Every later template of an already expanded series would only find
		// days that are already covered.
		if done[key] {
			continue
		}
		done[key] = true

		generated, err := expandSeries(tmpl, series[key], horizon, &o)
		if err != nil {
			return nil, err
		}
		out = append(out, generated...)
	}
	return out, nil
}

func eligible(r *models.Reminder) bool {
	return r.IsActive && r.Frequency != models.FrequencyOnce
}

func expandSeries(tmpl *models.Reminder, instances []*models.Reminder, horizon time.Time, o *options) ([]*models.Reminder, error) {
	if !tmpl.Frequency.Valid() {
		return nil, &InputError{ReminderID: tmpl.ID, Field: "frequency", Reason: fmt.Sprintf("unknown value %q", tmpl.Frequency)}
	}
	occupied := make(map[day]bool, len(instances))
	for _, r := range instances {
		if r.ScheduledTime.IsZero() {
			return nil, &InputError{ReminderID: r.ID, Field: "scheduledTime", Reason: "zero time"}
		}
		occupied[dayOf(r.ScheduledTime, o.loc)] = true
	}

	anchor := Latest(instances)
	if anchor == nil {
		return nil, nil
	}

	// Periods are added on the wall clock of the configured zone, whatever
	// location the stored instant carries.
	var generated []*models.Reminder
	next, _ := AddPeriod(anchor.ScheduledTime.In(o.loc), tmpl.Frequency)
	for next.Before(horizon) {
		d := dayOf(next, o.loc)
		if !occupied[d] {
			occupied[d] = true
			generated = append(generated, instanceOf(tmpl, next, o))
		}
		next, _ = AddPeriod(next, tmpl.Frequency)
	}
	return generated, nil
}

func instanceOf(tmpl *models.Reminder, at time.Time, o *options) *models.Reminder {
	now := o.clk.Now()
	r := tmpl.Clone()
	r.ID = o.newID()
	r.ScheduledTime = at
	r.IsCompleted = false
	r.CreatedAt = now
	r.UpdatedAt = now
	return r
}

// Group partitions reminders by series, preserving input order within each series.
func Group(all []*models.Reminder) map[models.SeriesKey][]*models.Reminder {
	series := make(map[models.SeriesKey][]*models.Reminder)
	for _, r := range all {
		key := r.Series()
		series[key] = append(series[key], r)
	}
	return series
}

// Latest returns the instance with the greatest ScheduledTime. Ties keep the
// earliest instance in input order. Returns nil for an empty slice.
func Latest(instances []*models.Reminder) *models.Reminder {
	var latest *models.Reminder
	for _, r := range instances {
		if latest == nil || r.ScheduledTime.After(latest.ScheduledTime) {
			latest = r
		}
	}
	return latest
}

// Anchors returns the latest instance of every series.
func Anchors(all []*models.Reminder) map[models.SeriesKey]*models.Reminder {
	anchors := make(map[models.SeriesKey]*models.Reminder)
	for key, instances := range Group(all) {
		anchors[key] = Latest(instances)
	}
	return anchors
}
