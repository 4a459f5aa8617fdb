package calendar

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/hray3182/catcare/internal/models"
)

var stamp = time.Date(2024, time.February, 1, 12, 0, 0, 0, time.UTC)

func lines(b []byte) []string {
	return strings.Split(strings.TrimSuffix(string(b), "\r\n"), "\r\n")
}

func TestICSOneOff(t *testing.T) {
	t.Parallel()
	taipei := time.FixedZone("CST", 8*3600)
	start := time.Date(2024, time.March, 5, 10, 0, 0, 0, taipei)
	e := NewEvent("Vet checkup", start, time.Time{}, "Bring the vaccination card", "Happy Paws Clinic, 12 Main St")

	out := ICS(stamp, e)
	got := lines(out)
	if got[0] != "BEGIN:VCALENDAR" || got[len(got)-1] != "END:VCALENDAR" {
		t.Fatalf("bad envelope: %q", got)
	}
	for _, want := range []string{
		"PRODID:-//CatCare//Scheduling//EN",
		"DTSTAMP:20240201T120000Z",
		"DTSTART:20240305T020000Z",
		"DTEND:20240305T023000Z",
		"SUMMARY:Vet checkup",
		"DESCRIPTION:Bring the vaccination card",
		`LOCATION:Happy Paws Clinic\, 12 Main St`,
	} {
		if !contains(got, want) {
			t.Fatalf("missing line %q in\n%s", want, out)
		}
	}
	if !strings.HasSuffix(e.UID, "@catcare") {
		t.Fatalf("UID = %q", e.UID)
	}
	if strings.Contains(string(out), "RRULE") {
		t.Fatal("one-off event must not repeat")
	}
}

func TestForReminderWeekly(t *testing.T) {
	t.Parallel()
	r := &models.Reminder{
		ID:            "r-1",
		Title:         "Brush",
		Description:   "Use the soft brush; then treats",
		Type:          models.TypeGrooming,
		Frequency:     models.FrequencyWeekly,
		ScheduledTime: time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC),
	}
	got := lines(ICS(stamp, ForReminder(r, "Mochi")))
	for _, want := range []string{
		"UID:r-1@catcare",
		"SUMMARY:Brush (Mochi)",
		`DESCRIPTION:Use the soft brush\; then treats`,
	} {
		if !contains(got, want) {
			t.Fatalf("missing line %q in %q", want, got)
		}
	}
	var rule string
	for _, l := range got {
		if strings.HasPrefix(l, "RRULE:") {
			rule = l
		}
	}
	if !strings.Contains(rule, "FREQ=WEEKLY") || !strings.Contains(rule, "BYDAY=MO") {
		t.Fatalf("RRULE = %q", rule)
	}
}

func TestEscapeNewlines(t *testing.T) {
	t.Parallel()
	if got := escape("a\\b\nc,d"); got != `a\\b\nc\,d` {
		t.Fatalf("escape = %q", got)
	}
}

func TestLineFolding(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("貓", 60)
	out := ICS(stamp, NewEvent(long, stamp, stamp.Add(time.Hour), "", ""))

	var unfolded []string
	for _, l := range lines(out) {
		if len(l) > maxLineLen {
			t.Fatalf("line longer than %d octets: %d", maxLineLen, len(l))
		}
		if !utf8.ValidString(l) {
			t.Fatalf("fold split a UTF-8 sequence: %q", l)
		}
		if strings.HasPrefix(l, " ") {
			unfolded[len(unfolded)-1] += l[1:]
			continue
		}
		unfolded = append(unfolded, l)
	}
	if !contains(unfolded, "SUMMARY:"+long) {
		t.Fatal("unfolded summary does not round trip")
	}
}

func contains(lines []string, want string) bool {
	for _, l := range lines {
		if l == want {
			return true
		}
	}
	return false
}
