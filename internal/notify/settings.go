package notify

import (
	"errors"
	"regexp"
)

// DefaultLeadMinutes is how long before the due time a notification fires.
const DefaultLeadMinutes = 15

var (
	ErrNoChannels      = errors.New("no notification channels enabled")
	ErrInvalidAddress  = errors.New("invalid email address")
	ErrMissingPhone    = errors.New("sms enabled without a phone number")
	ErrMissingAddress  = errors.New("email enabled without an address")
	ErrChannelDisabled = errors.New("channel not configured")
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type EmailSettings struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

type SMSSettings struct {
	Enabled     bool   `yaml:"enabled"`
	PhoneNumber string `yaml:"phone_number"`
}

type PushSettings struct {
	Enabled bool  `yaml:"enabled"`
	ChatID  int64 `yaml:"chat_id"` // Overrides the reminder owner's chat when set
}

// Settings selects the delivery channels and lead time. It is passed by value
// to every dispatch so a reload never races an in-flight delivery.
type Settings struct {
	Push        PushSettings  `yaml:"push"`
	Email       EmailSettings `yaml:"email"`
	SMS         SMSSettings   `yaml:"sms"`
	LeadMinutes int           `yaml:"lead_minutes"`
}

func DefaultSettings() Settings {
	return Settings{
		Push:        PushSettings{Enabled: true},
		LeadMinutes: DefaultLeadMinutes,
	}
}

// Lead returns the configured lead time, falling back to the default when unset.
func (s Settings) Lead() int {
	if s.LeadMinutes < 0 {
		return 0
	}
	if s.LeadMinutes == 0 {
		return DefaultLeadMinutes
	}
	return s.LeadMinutes
}

// AnyEnabled reports whether at least one channel would be attempted.
func (s Settings) AnyEnabled() bool {
	return s.Push.Enabled ||
		(s.Email.Enabled && s.Email.Address != "") ||
		(s.SMS.Enabled && s.SMS.PhoneNumber != "")
}

// Validate checks the settings a user is about to save or test with.
func (s Settings) Validate() error {
	if !s.Push.Enabled && !s.Email.Enabled && !s.SMS.Enabled {
		return ErrNoChannels
	}
	if s.Email.Enabled {
		if s.Email.Address == "" {
			return ErrMissingAddress
		}
		if !ValidEmail(s.Email.Address) {
			return ErrInvalidAddress
		}
	}
	if s.SMS.Enabled && s.SMS.PhoneNumber == "" {
		return ErrMissingPhone
	}
	return nil
}

func ValidEmail(addr string) bool {
	return emailRe.MatchString(addr)
}
