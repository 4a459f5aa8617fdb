package notify

import (
	"sync"
	"time"

	"github.com/jmhodges/clock"
	"github.com/rs/zerolog"

	"github.com/hray3182/catcare/internal/models"
)

// DeliverFunc is invoked once when a reminder's notification is due.
type DeliverFunc func(r *models.Reminder)

// CancelFunc stops a pending notification. Calling it after the
// notification fired, or more than once, does nothing.
type CancelFunc func()

type pending struct {
	mu       sync.Mutex
	fired    bool
	canceled bool
	stop     chan struct{}
}

// Scheduler arms one-shot timers for reminder notifications. Timers live in
// memory only; after a restart Rearm has to be called with the stored reminders.
type Scheduler struct {
	clk   clock.Clock
	log   zerolog.Logger
	grace time.Duration

	mu      sync.Mutex
	byID    map[string]*pending
	sent    map[string]time.Time // reminder ID to the due time it was delivered for
	wg      sync.WaitGroup
	stopped bool
}

// NewScheduler creates a scheduler. grace is how far past its due time a
// reminder may be and still be re-armed by Rearm.
func NewScheduler(clk clock.Clock, log zerolog.Logger, grace time.Duration) *Scheduler {
	return &Scheduler{
		clk:   clk,
		log:   log,
		grace: grace,
		byID:  make(map[string]*pending),
		sent:  make(map[string]time.Time),
	}
}

// FireAt returns the instant the notification for r should be delivered.
func FireAt(r *models.Reminder, leadMinutes int) time.Time {
	return r.ScheduledTime.Add(-time.Duration(leadMinutes) * time.Minute)
}

// Schedule arranges for deliver to be called with a snapshot of r at
// ScheduledTime minus leadMinutes. When that moment has already passed,
// deliver runs before Schedule returns. Scheduling a reminder ID that
// already has a pending timer replaces the old timer.
func (s *Scheduler) Schedule(r *models.Reminder, leadMinutes int, deliver DeliverFunc) CancelFunc {
	snapshot := r.Clone()
	fireAt := FireAt(snapshot, leadMinutes)
	delay := fireAt.Sub(s.clk.Now())

	s.Cancel(snapshot.ID)

	if delay <= 0 {
		s.log.Debug().Str("reminder", snapshot.ID).Time("fire_at", fireAt).Msg("notification already due, delivering now")
		s.markSent(snapshot)
		deliver(snapshot)
		return func() {}
	}

	p := &pending{stop: make(chan struct{})}
	timer := s.clk.NewTimer(delay)

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		timer.Stop()
		return func() {}
	}
	s.byID[snapshot.ID] = p
	s.wg.Add(1)
	s.mu.Unlock()

	s.log.Debug().Str("reminder", snapshot.ID).Time("fire_at", fireAt).Dur("in", delay).Msg("notification scheduled")

	go func() {
		defer s.wg.Done()
		select {
		case <-timer.C:
		case <-p.stop:
			timer.Stop()
			return
		}

		p.mu.Lock()
		if p.canceled {
			p.mu.Unlock()
			return
		}
		p.fired = true
		p.mu.Unlock()

		s.forget(snapshot.ID, p)
		s.markSent(snapshot)
		deliver(snapshot)
	}()

	return func() { s.cancel(snapshot.ID, p) }
}

// Cancel stops the pending notification for a reminder, if any.
func (s *Scheduler) Cancel(reminderID string) bool {
	s.mu.Lock()
	p, ok := s.byID[reminderID]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return s.cancel(reminderID, p)
}

func (s *Scheduler) cancel(reminderID string, p *pending) bool {
	p.mu.Lock()
	if p.fired || p.canceled {
		p.mu.Unlock()
		return false
	}
	p.canceled = true
	close(p.stop)
	p.mu.Unlock()

	s.forget(reminderID, p)
	return true
}

func (s *Scheduler) forget(reminderID string, p *pending) {
	s.mu.Lock()
	if s.byID[reminderID] == p {
		delete(s.byID, reminderID)
	}
	s.mu.Unlock()
}

func (s *Scheduler) markSent(r *models.Reminder) {
	s.mu.Lock()
	s.sent[r.ID] = r.ScheduledTime
	s.mu.Unlock()
}

// Delivered reports whether the notification for r at its current due time
// has already gone out.
func (s *Scheduler) Delivered(r *models.Reminder) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.sent[r.ID]
	return ok && at.Equal(r.ScheduledTime)
}

// Missed reports whether r is due earlier than now minus the grace window.
// Missed reminders are never notified after the fact.
func (s *Scheduler) Missed(r *models.Reminder) bool {
	return r.ScheduledTime.Before(s.clk.Now().Add(-s.grace))
}

// Rearm schedules every reminder that still deserves a notification:
// enabled, active, not completed, not missed and not delivered yet for its
// current due time. It returns how many reminders were scheduled or delivered.
func (s *Scheduler) Rearm(reminders []*models.Reminder, settings Settings, deliver DeliverFunc) int {
	s.pruneSent()
	lead := settings.Lead()
	n := 0
	for _, r := range reminders {
		if !r.NotificationEnabled || !r.IsActive || r.IsCompleted {
			continue
		}
		if s.Missed(r) || s.Delivered(r) {
			continue
		}
		s.Schedule(r, lead, deliver)
		n++
	}
	s.log.Info().Int("armed", n).Int("total", len(reminders)).Msg("notifications re-armed")
	return n
}

// pruneSent forgets deliveries that Missed already excludes.
func (s *Scheduler) pruneSent() {
	cutoff := s.clk.Now().Add(-s.grace)
	s.mu.Lock()
	for id, at := range s.sent {
		if at.Before(cutoff) {
			delete(s.sent, id)
		}
	}
	s.mu.Unlock()
}

// Pending returns the number of timers that have neither fired nor been canceled.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Stop cancels every pending timer and waits for their goroutines to exit.
// Deliveries already in progress are allowed to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	all := make(map[string]*pending, len(s.byID))
	for id, p := range s.byID {
		all[id] = p
	}
	s.mu.Unlock()

	for id, p := range all {
		s.cancel(id, p)
	}
	s.wg.Wait()
}
