// Package calendar exports reminders as iCalendar (RFC 5545) files.
package calendar

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hray3182/catcare/internal/models"
	"github.com/hray3182/catcare/internal/rrule"
)

const (
	ProdID          = "-//CatCare//Scheduling//EN"
	FileName        = "appointment.ics"
	DefaultDuration = 30 * time.Minute

	stampLayout = "20060102T150405Z"
	maxLineLen  = 75
)

// Event is one VEVENT. Start and End are absolute instants and are written in UTC.
type Event struct {
	UID         string
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	RRule       string
}

// NewEvent builds a one-off event with a random UID. A zero end means
// DefaultDuration after start.
func NewEvent(title string, start, end time.Time, description, location string) Event {
	if end.IsZero() || !end.After(start) {
		end = start.Add(DefaultDuration)
	}
	return Event{
		UID:         uuid.NewString() + "@catcare",
		Title:       title,
		Description: description,
		Location:    location,
		Start:       start,
		End:         end,
	}
}

// ForReminder builds the event for a reminder. Recurring reminders carry an
// RRULE so a calendar app repeats them on its own.
func ForReminder(r *models.Reminder, catName string) Event {
	title := r.Title
	if catName != "" {
		title += " (" + catName + ")"
	}
	return Event{
		UID:         r.ID + "@catcare",
		Title:       title,
		Description: r.Description,
		Start:       r.ScheduledTime,
		End:         r.ScheduledTime.Add(DefaultDuration),
		RRule:       rrule.RuleString(r.Frequency, r.ScheduledTime),
	}
}

// ICS renders events as a single VCALENDAR document.
func ICS(stamp time.Time, events ...Event) []byte {
	var buf bytes.Buffer
	// bytes.Buffer writes do not fail.
	_ = Write(&buf, stamp, events...)
	return buf.Bytes()
}

// Write streams the VCALENDAR document for events to w.
func Write(w io.Writer, stamp time.Time, events ...Event) error {
	lw := &lineWriter{w: w}
	lw.line("BEGIN:VCALENDAR")
	lw.line("VERSION:2.0")
	lw.line("PRODID:" + ProdID)
	lw.line("CALSCALE:GREGORIAN")
	for _, e := range events {
		lw.line("BEGIN:VEVENT")
		lw.line("UID:" + e.UID)
		lw.line("DTSTAMP:" + utc(stamp))
		lw.line("DTSTART:" + utc(e.Start))
		lw.line("DTEND:" + utc(e.End))
		if e.RRule != "" {
			lw.line("RRULE:" + e.RRule)
		}
		lw.line("SUMMARY:" + escape(e.Title))
		if e.Description != "" {
			lw.line("DESCRIPTION:" + escape(e.Description))
		}
		if e.Location != "" {
			lw.line("LOCATION:" + escape(e.Location))
		}
		lw.line("END:VEVENT")
	}
	lw.line("END:VCALENDAR")
	return lw.err
}

func utc(t time.Time) string {
	return t.UTC().Format(stampLayout)
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	",", `\,`,
	"\r\n", `\n`,
	"\n", `\n`,
)

func escape(s string) string {
	return textEscaper.Replace(s)
}

type lineWriter struct {
	w   io.Writer
	err error
}

// line writes one content line, folded at 75 octets without splitting a
// UTF-8 sequence, terminated by CRLF.
func (lw *lineWriter) line(s string) {
	if lw.err != nil {
		return
	}
	var b strings.Builder
	limit := maxLineLen
	for len(s) > limit {
		cut := limit
		for cut > 0 && !startsRune(s[cut]) {
			cut--
		}
		b.WriteString(s[:cut])
		b.WriteString("\r\n ")
		s = s[cut:]
		// Continuation lines start with a space that counts toward the limit.
		limit = maxLineLen - 1
	}
	b.WriteString(s)
	b.WriteString("\r\n")
	if _, err := io.WriteString(lw.w, b.String()); err != nil {
		lw.err = fmt.Errorf("failed to write calendar: %w", err)
	}
}

func startsRune(c byte) bool {
	return c&0xC0 != 0x80
}
