package notify

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/jmhodges/clock"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Kind names a delivery channel slot.
type Kind string

const (
	KindPush  Kind = "push"
	KindEmail Kind = "email"
	KindSMS   Kind = "sms"
)

// Channel delivers a payload to one recipient. Implementations own their
// own timeouts; the dispatcher does not impose a deadline.
type Channel interface {
	Name() string
	Send(ctx context.Context, to string, p Payload) error
}

// ChannelError wraps a failure from a single channel. Channel is empty when
// nothing was registered for Kind.
type ChannelError struct {
	Kind    Kind
	Channel string
	Err     error
}

func (e *ChannelError) Error() string {
	if e.Channel == "" {
		return fmt.Sprintf("%s channel: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s channel (%s): %v", e.Kind, e.Channel, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// ChannelResult is the outcome of one delivery attempt.
type ChannelResult struct {
	Kind     Kind
	Channel  string
	To       string
	Err      error
	Duration time.Duration
}

// Report holds one result per attempted channel, in push, email, sms order.
type Report struct {
	Results []ChannelResult
}

// OK reports whether no attempted channel failed.
func (r Report) OK() bool {
	return len(r.Failed()) == 0
}

// Failed returns the results that carry an error.
func (r Report) Failed() []ChannelResult {
	var out []ChannelResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Succeeded returns the results that were delivered.
func (r Report) Succeeded() []ChannelResult {
	var out []ChannelResult
	for _, res := range r.Results {
		if res.Err == nil {
			out = append(out, res)
		}
	}
	return out
}

type target struct {
	kind Kind
	to   string
}

// Dispatcher fans a payload out to every enabled channel.
type Dispatcher struct {
	log     zerolog.Logger
	clk     clock.Clock
	limiter *rate.Limiter

	mu       sync.RWMutex
	channels map[Kind]Channel
}

// NewDispatcher creates a dispatcher. ratePerSec <= 0 disables throttling.
func NewDispatcher(log zerolog.Logger, clk clock.Clock, ratePerSec int) *Dispatcher {
	limit := rate.Inf
	burst := 1
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
		burst = ratePerSec
	}
	return &Dispatcher{
		log:      log,
		clk:      clk,
		limiter:  rate.NewLimiter(limit, burst),
		channels: make(map[Kind]Channel),
	}
}

// Register installs ch for kind, replacing any previous channel.
func (d *Dispatcher) Register(kind Kind, ch Channel) {
	d.mu.Lock()
	d.channels[kind] = ch
	d.mu.Unlock()
}

func (d *Dispatcher) channel(kind Kind) Channel {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.channels[kind]
}

func targets(s Settings, p Payload) []target {
	var out []target
	if s.Push.Enabled {
		chatID := s.Push.ChatID
		if chatID == 0 {
			chatID = p.OwnerID
		}
		out = append(out, target{kind: KindPush, to: strconv.FormatInt(chatID, 10)})
	}
	if s.Email.Enabled && s.Email.Address != "" {
		out = append(out, target{kind: KindEmail, to: s.Email.Address})
	}
	if s.SMS.Enabled && s.SMS.PhoneNumber != "" {
		out = append(out, target{kind: KindSMS, to: s.SMS.PhoneNumber})
	}
	return out
}

// Send delivers p through every channel enabled in s and waits for all of
// them. It never fails as a whole: each channel's outcome is in the report.
func (d *Dispatcher) Send(ctx context.Context, s Settings, p Payload) Report {
	tgts := targets(s, p)
	results := make([]ChannelResult, len(tgts))

	var wg sync.WaitGroup
	for i, tgt := range tgts {
		wg.Add(1)
		go func(i int, tgt target) {
			defer wg.Done()
			results[i] = d.sendOne(ctx, tgt, p)
		}(i, tgt)
	}
	wg.Wait()

	report := Report{Results: results}
	for _, res := range report.Results {
		if res.Err != nil {
			d.log.Warn().Err(res.Err).Str("channel", string(res.Kind)).Str("reminder", p.ReminderID).Msg("notification delivery failed")
		} else {
			d.log.Info().Str("channel", string(res.Kind)).Str("reminder", p.ReminderID).Dur("took", res.Duration).Msg("notification delivered")
		}
	}
	return report
}

func (d *Dispatcher) sendOne(ctx context.Context, tgt target, p Payload) (res ChannelResult) {
	res = ChannelResult{Kind: tgt.kind, To: tgt.to}
	start := d.clk.Now()
	defer func() {
		if rec := recover(); rec != nil {
			d.log.Error().Str("channel", string(tgt.kind)).Str("stack", string(debug.Stack())).Msg("channel panicked")
			res.Err = &ChannelError{Kind: tgt.kind, Channel: res.Channel, Err: fmt.Errorf("panic: %v", rec)}
		}
		res.Duration = d.clk.Now().Sub(start)
	}()

	ch := d.channel(tgt.kind)
	if ch == nil {
		res.Err = &ChannelError{Kind: tgt.kind, Err: ErrChannelDisabled}
		return res
	}
	res.Channel = ch.Name()

	if err := d.limiter.Wait(ctx); err != nil {
		res.Err = &ChannelError{Kind: tgt.kind, Channel: res.Channel, Err: err}
		return res
	}
	if err := ch.Send(ctx, tgt.to, p); err != nil {
		res.Err = &ChannelError{Kind: tgt.kind, Channel: res.Channel, Err: err}
	}
	return res
}
