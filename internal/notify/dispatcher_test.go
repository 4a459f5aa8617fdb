package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jmhodges/clock"
	"github.com/rs/zerolog"

	"github.com/hray3182/catcare/internal/models"
)

type stubChannel struct {
	name string
	err  error
	boom bool

	mu   sync.Mutex
	sent []string
}

func (c *stubChannel) Name() string { return c.name }

func (c *stubChannel) Send(_ context.Context, to string, _ Payload) error {
	if c.boom {
		panic("channel exploded")
	}
	c.mu.Lock()
	c.sent = append(c.sent, to)
	c.mu.Unlock()
	return c.err
}

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(zerolog.Nop(), clock.NewFake(), 0)
}

func testPayload() Payload {
	r := reminderAt("r1", epoch)
	r.OwnerID = 42
	return PayloadFor(r, "Mochi")
}

func TestDispatchPartialFailure(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher()
	push := &stubChannel{name: "telegram"}
	email := &stubChannel{name: "smtp", err: errors.New("smtp: connection refused")}
	d.Register(KindPush, push)
	d.Register(KindEmail, email)

	settings := Settings{
		Push:  PushSettings{Enabled: true},
		Email: EmailSettings{Enabled: true, Address: "owner@example.com"},
	}
	report := d.Send(context.Background(), settings, testPayload())

	if len(report.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(report.Results))
	}
	if report.OK() {
		t.Fatal("report should not be OK with a failed channel")
	}
	ok := report.Succeeded()
	if len(ok) != 1 || ok[0].Kind != KindPush || ok[0].Channel != "telegram" || ok[0].To != "42" {
		t.Fatalf("unexpected successes: %+v", ok)
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0].Kind != KindEmail {
		t.Fatalf("unexpected failures: %+v", failed)
	}
	var chErr *ChannelError
	if !errors.As(failed[0].Err, &chErr) || chErr.Kind != KindEmail || chErr.Channel != "smtp" {
		t.Fatalf("failure is not a ChannelError for smtp: %v", failed[0].Err)
	}
	if len(push.sent) != 1 {
		t.Fatalf("push attempts = %d, want 1", len(push.sent))
	}
}

func TestDispatchRecoversPanickingChannel(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher()
	d.Register(KindPush, &stubChannel{name: "telegram"})
	d.Register(KindSMS, &stubChannel{name: "twilio", boom: true})

	settings := Settings{
		Push: PushSettings{Enabled: true, ChatID: 7},
		SMS:  SMSSettings{Enabled: true, PhoneNumber: "+15550100"},
	}
	report := d.Send(context.Background(), settings, testPayload())

	if len(report.Succeeded()) != 1 || len(report.Failed()) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Results[0].To != "7" {
		t.Fatalf("push target = %q, want the configured chat", report.Results[0].To)
	}
	var chErr *ChannelError
	if !errors.As(report.Results[1].Err, &chErr) || chErr.Channel != "twilio" {
		t.Fatalf("panic not attributed to the sms channel: %v", report.Results[1].Err)
	}
}

func TestDispatchUnregisteredChannel(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher()
	settings := Settings{Email: EmailSettings{Enabled: true, Address: "owner@example.com"}}

	report := d.Send(context.Background(), settings, testPayload())
	if len(report.Results) != 1 || !errors.Is(report.Results[0].Err, ErrChannelDisabled) {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestDispatchSkipsIncompleteChannels(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher()
	email := &stubChannel{name: "smtp"}
	d.Register(KindEmail, email)

	// Email enabled without an address is not attempted.
	settings := Settings{Email: EmailSettings{Enabled: true}}
	report := d.Send(context.Background(), settings, testPayload())
	if len(report.Results) != 0 || !report.OK() {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(email.sent) != 0 {
		t.Fatal("email channel should not have been called")
	}
}

func TestPayloadFor(t *testing.T) {
	t.Parallel()
	r := &models.Reminder{ID: "r", Title: "Brush", Type: models.TypeGrooming, ScheduledTime: epoch}
	p := PayloadFor(r, "")
	if p.Message != "Time for Brush" {
		t.Fatalf("Message = %q", p.Message)
	}
	r.Description = "Use the soft brush"
	if p := PayloadFor(r, "Mochi"); p.Message != "Use the soft brush" || p.CatName != "Mochi" {
		t.Fatalf("unexpected payload: %+v", p)
	}
}

func TestSettingsValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		s    Settings
		want error
	}{
		{name: "nothing enabled", s: Settings{}, want: ErrNoChannels},
		{name: "email without address", s: Settings{Email: EmailSettings{Enabled: true}}, want: ErrMissingAddress},
		{name: "bad email", s: Settings{Email: EmailSettings{Enabled: true, Address: "nope"}}, want: ErrInvalidAddress},
		{name: "sms without phone", s: Settings{SMS: SMSSettings{Enabled: true}}, want: ErrMissingPhone},
		{name: "defaults", s: DefaultSettings(), want: nil},
	}
	for _, tt := range tests {
		if err := tt.s.Validate(); !errors.Is(err, tt.want) {
			t.Fatalf("%s: Validate() = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestSettingsLead(t *testing.T) {
	t.Parallel()
	if got := (Settings{}).Lead(); got != DefaultLeadMinutes {
		t.Fatalf("zero Lead = %d", got)
	}
	if got := (Settings{LeadMinutes: -3}).Lead(); got != 0 {
		t.Fatalf("negative Lead = %d", got)
	}
	if got := (Settings{LeadMinutes: 30}).Lead(); got != 30 {
		t.Fatalf("Lead = %d", got)
	}
}
