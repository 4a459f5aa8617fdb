// Package channel implements the notification delivery channels: Telegram
// push, SMTP email, Twilio-compatible SMS and a log-only fallback.
package channel

import (
	"fmt"
	"strings"
	"time"

	"github.com/hray3182/catcare/internal/models"
	"github.com/hray3182/catcare/internal/notify"
)

const timeLayout = "2006-01-02 15:04"

// Emoji returns the icon used for a reminder type.
func Emoji(t models.ReminderType) string {
	switch t {
	case models.TypeFeeding:
		return "🍽"
	case models.TypeMedication:
		return "💊"
	case models.TypeVet:
		return "🏥"
	case models.TypeGrooming:
		return "✂️"
	default:
		return "🐱"
	}
}

func localTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(timeLayout) + " (" + loc.String() + ")"
}

// Markdown renders p for chat clients understood by format.ParseMarkdown.
func Markdown(p notify.Payload, loc *time.Location) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s **%s**\n%s\n", Emoji(p.Type), p.Title, p.Message)
	if p.CatName != "" {
		fmt.Fprintf(&sb, "\n🐱 %s", p.CatName)
	}
	fmt.Fprintf(&sb, "\n🕘 %s", localTime(p.ScheduledTime, loc))
	if p.Frequency.IsRecurring() {
		fmt.Fprintf(&sb, "\n🔁 %s", p.Frequency)
	}
	return sb.String()
}

// Subject is the email subject line for p.
func Subject(p notify.Payload) string {
	return "Cat Care Reminder: " + p.Title
}

// PlainText is the email body for p.
func PlainText(p notify.Payload, loc *time.Location) string {
	cat := p.CatName
	if cat == "" {
		cat = "Your cat"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\n", p.Message)
	fmt.Fprintf(&sb, "Cat: %s\n", cat)
	fmt.Fprintf(&sb, "Type: %s\n", p.Type)
	fmt.Fprintf(&sb, "Scheduled: %s\n", localTime(p.ScheduledTime, loc))
	sb.WriteString("\n-- \nCatCare Scheduler\n")
	return sb.String()
}

// ShortText is the single-line SMS body for p.
func ShortText(p notify.Payload) string {
	s := "🐱 CatCare: " + p.Title + " - " + p.Message
	if p.CatName != "" {
		s += " (" + p.CatName + ")"
	}
	return s
}
