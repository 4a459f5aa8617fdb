package recurrence

import (
	"errors"
	"fmt"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/jmhodges/clock"

	"github.com/hray3182/catcare/internal/models"
)

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func feed(id string, freq models.Frequency, scheduled time.Time) *models.Reminder {
	return &models.Reminder{
		ID:                  id,
		CatID:               "c1",
		Title:               "Feed",
		Description:         "wet food",
		Type:                models.TypeFeeding,
		Frequency:           freq,
		ScheduledTime:       scheduled,
		IsActive:            true,
		NotificationEnabled: true,
	}
}

func seqIDs() Option {
	n := 0
	return WithIDFunc(func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	})
}

func fakeClock(now time.Time) clock.FakeClock {
	fc := clock.NewFake()
	fc.Set(now)
	return fc
}

func TestExpandWeeklyScenario(t *testing.T) {
	t.Parallel()
	in := []*models.Reminder{feed("r1", models.FrequencyWeekly, at("2024-01-01T08:00"))}

	out, err := Expand(in, at("2024-01-22T00:00"), seqIDs())
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	got := out[len(in):]
	want := []time.Time{at("2024-01-08T08:00"), at("2024-01-15T08:00")}
	if len(got) != len(want) {
		t.Fatalf("generated %d instances, want %d", len(got), len(want))
	}
	for i, r := range got {
		if !r.ScheduledTime.Equal(want[i]) {
			t.Fatalf("instance %d at %s, want %s", i, r.ScheduledTime, want[i])
		}
	}
	if out[0] != in[0] {
		t.Fatal("original instance must be returned first and unchanged")
	}
}

func TestExpandCopiesTemplate(t *testing.T) {
	t.Parallel()
	now := at("2024-03-01T12:00")
	tmpl := feed("r1", models.FrequencyDaily, at("2024-03-01T07:30"))
	tmpl.IsCompleted = true
	tmpl.CreatedAt = at("2024-01-01T00:00")

	out, err := Expand([]*models.Reminder{tmpl}, at("2024-03-03T00:00"), WithClock(fakeClock(now)), seqIDs())
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d reminders, want 2", len(out))
	}
	r := out[1]
	if r.ID != "gen-1" {
		t.Fatalf("ID = %q, want gen-1", r.ID)
	}
	if r.Series() != tmpl.Series() || r.Description != tmpl.Description || !r.NotificationEnabled || !r.IsActive {
		t.Fatalf("template fields not copied: %+v", r)
	}
	if r.IsCompleted {
		t.Fatal("generated instance must not be completed")
	}
	if !r.CreatedAt.Equal(now) || !r.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps = %s/%s, want %s", r.CreatedAt, r.UpdatedAt, now)
	}
	if !r.ScheduledTime.Equal(at("2024-03-02T07:30")) {
		t.Fatalf("ScheduledTime = %s", r.ScheduledTime)
	}
	if !tmpl.IsCompleted || tmpl.ID != "r1" {
		t.Fatal("template was mutated")
	}
}

func TestExpandIdempotent(t *testing.T) {
	t.Parallel()
	horizon := at("2024-06-01T00:00")
	in := []*models.Reminder{
		feed("a", models.FrequencyDaily, at("2024-03-01T08:00")),
		feed("b", models.FrequencyWeekly, at("2024-03-04T19:00")),
		feed("c", models.FrequencyMonthly, at("2024-01-31T09:15")),
		feed("d", models.FrequencyOnce, at("2024-03-10T10:00")),
	}
	in[1].Title = "Brush"
	in[1].Type = models.TypeGrooming
	in[2].Title = "Pill"
	in[2].Type = models.TypeMedication

	first, err := Expand(in, horizon)
	if err != nil {
		t.Fatalf("first Expand error: %v", err)
	}
	second, err := Expand(first, horizon)
	if err != nil {
		t.Fatalf("second Expand error: %v", err)
	}
	if len(second) != len(first) {
		t.Fatalf("second expansion added %d instances", len(second)-len(first))
	}
}

func TestExpandNoDuplicateDays(t *testing.T) {
	t.Parallel()
	// The series already holds two instances on 05-01 and one on 05-04.
	in := []*models.Reminder{
		feed("a", models.FrequencyDaily, at("2024-05-01T08:00")),
		feed("b", models.FrequencyDaily, at("2024-05-01T20:00")),
		feed("c", models.FrequencyDaily, at("2024-05-04T21:00")),
	}
	out, err := Expand(in, at("2024-05-10T00:00"))
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}

	perDay := map[string]int{}
	for _, r := range out {
		perDay[r.ScheduledTime.UTC().Format("2006-01-02")]++
	}
	for d, n := range perDay {
		// 05-01 already held two instances before expansion.
		if n > 1 && d != "2024-05-01" {
			t.Fatalf("day %s has %d instances", d, n)
		}
	}
	// Anchor is the 05-04 21:00 instance, so 05-05 through 05-09 are generated.
	if got := len(out) - len(in); got != 5 {
		t.Fatalf("generated %d instances, want 5", got)
	}
	if !out[len(in)].ScheduledTime.Equal(at("2024-05-05T21:00")) {
		t.Fatalf("first generated at %s", out[len(in)].ScheduledTime)
	}
}

func TestExpandAnchorsOnLatestInstance(t *testing.T) {
	t.Parallel()
	in := []*models.Reminder{
		feed("a", models.FrequencyWeekly, at("2024-01-01T08:00")),
		// Same series, later anchor on a different time of day.
		feed("b", models.FrequencyWeekly, at("2024-01-08T18:00")),
	}
	out, err := Expand(in, at("2024-01-30T00:00"))
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	got := out[len(in):]
	want := []time.Time{at("2024-01-15T18:00"), at("2024-01-22T18:00"), at("2024-01-29T18:00")}
	if len(got) != len(want) {
		t.Fatalf("generated %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].ScheduledTime.Equal(want[i]) {
			t.Fatalf("instance %d at %s, want %s", i, got[i].ScheduledTime, want[i])
		}
	}
}

func TestExpandMonthlyClampsToMonthEnd(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		anchor time.Time
		want   time.Time
	}{
		{name: "non-leap", anchor: at("2023-01-31T09:00"), want: at("2023-02-28T09:00")},
		{name: "leap", anchor: at("2024-01-31T09:00"), want: at("2024-02-29T09:00")},
		{name: "december", anchor: at("2024-12-15T09:00"), want: at("2025-01-15T09:00")},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := []*models.Reminder{feed("m", models.FrequencyMonthly, tt.anchor)}
			out, err := Expand(in, tt.want.Add(time.Minute))
			if err != nil {
				t.Fatalf("Expand error: %v", err)
			}
			if len(out) != 2 {
				t.Fatalf("got %d reminders, want 2", len(out))
			}
			if !out[1].ScheduledTime.Equal(tt.want) {
				t.Fatalf("next = %s, want %s", out[1].ScheduledTime, tt.want)
			}
		})
	}
}

func TestExpandDailyKeepsTimeOfDay(t *testing.T) {
	t.Parallel()
	anchor := at("2024-02-10T06:45")
	out, err := Expand([]*models.Reminder{feed("d", models.FrequencyDaily, anchor)}, at("2024-02-20T00:00"))
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	if !out[1].ScheduledTime.Equal(anchor.Add(24 * time.Hour)) {
		t.Fatalf("first generated at %s", out[1].ScheduledTime)
	}
	for i := 2; i < len(out); i++ {
		if !out[i].ScheduledTime.After(out[i-1].ScheduledTime) {
			t.Fatalf("instances not strictly increasing at %d", i)
		}
		if h, m, _ := out[i].ScheduledTime.Clock(); h != 6 || m != 45 {
			t.Fatalf("instance %d at %02d:%02d", i, h, m)
		}
	}
}

func TestExpandInertSeries(t *testing.T) {
	t.Parallel()
	inactive := feed("i", models.FrequencyDaily, at("2024-01-01T08:00"))
	inactive.IsActive = false
	once := feed("o", models.FrequencyOnce, at("2024-01-01T08:00"))
	once.Title = "Vet visit"

	out, err := Expand([]*models.Reminder{inactive, once}, at("2030-01-01T00:00"))
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("inert series generated %d instances", len(out)-2)
	}
}

func TestExpandEmpty(t *testing.T) {
	t.Parallel()
	out, err := Expand(nil, at("2024-01-01T00:00"))
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("got %d reminders from empty input", len(out))
	}
}

func TestExpandHorizonBeforeAnchor(t *testing.T) {
	t.Parallel()
	in := []*models.Reminder{feed("a", models.FrequencyDaily, at("2024-06-01T08:00"))}
	out, err := Expand(in, at("2024-05-01T00:00"))
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("generated %d instances past the horizon", len(out)-1)
	}
}

func TestExpandInputErrors(t *testing.T) {
	t.Parallel()
	zero := feed("z", models.FrequencyDaily, time.Time{})
	bogus := feed("b", models.Frequency("hourly"), at("2024-01-01T08:00"))

	for _, in := range [][]*models.Reminder{{zero}, {bogus}} {
		_, err := Expand(in, at("2024-02-01T00:00"))
		if err == nil {
			t.Fatalf("expected error for %+v", in[0])
		}
		var inputErr *InputError
		if !errors.As(err, &inputErr) {
			t.Fatalf("error %v is not an InputError", err)
		}
		if !errors.Is(err, ErrInvalidReminder) {
			t.Fatalf("error %v does not wrap ErrInvalidReminder", err)
		}
	}

	if _, err := Expand(nil, time.Time{}); !errors.Is(err, ErrInvalidReminder) {
		t.Fatalf("zero horizon error = %v", err)
	}
}

func TestExpandDayBoundaryLocation(t *testing.T) {
	t.Parallel()
	taipei := time.FixedZone("UTC+8", 8*3600)
	// 2024-03-01T20:00Z is already 2024-03-02 in Taipei, so an existing
	// instance at that instant occupies the 03-02 Taipei day.
	in := []*models.Reminder{
		feed("a", models.FrequencyDaily, at("2024-03-01T01:00")),
		feed("b", models.FrequencyDaily, at("2024-03-01T20:00")),
	}
	out, err := Expand(in, at("2024-03-04T00:00"), WithLocation(taipei))
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	// Anchor 03-01T20:00Z: candidates 03-02T20:00Z (03-03 Taipei, free) and
	// 03-03T20:00Z (03-04 Taipei, free).
	if got := len(out) - len(in); got != 2 {
		t.Fatalf("generated %d instances, want 2", got)
	}
}

func TestExpandKeepsLocalTimeAcrossDST(t *testing.T) {
	t.Parallel()
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	// Stores hand back UTC instants. 08:00 EST on 03-09 is 13:00Z; after the
	// switch to EDT on 03-10 the same wall clock is 12:00Z.
	anchor := time.Date(2024, time.March, 9, 8, 0, 0, 0, ny).UTC()
	in := []*models.Reminder{feed("a", models.FrequencyDaily, anchor)}

	out, err := Expand(in, time.Date(2024, time.March, 13, 0, 0, 0, 0, ny), WithLocation(ny))
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	got := out[len(in):]
	if len(got) != 3 {
		t.Fatalf("generated %d instances, want 3", len(got))
	}
	for i, r := range got {
		want := time.Date(2024, time.March, 10+i, 8, 0, 0, 0, ny)
		if !r.ScheduledTime.Equal(want) {
			t.Fatalf("instance %d at %s, want %s", i, r.ScheduledTime.In(ny), want)
		}
	}
}

func TestExpandMonthlyUsesLocalCalendar(t *testing.T) {
	t.Parallel()
	taipei := time.FixedZone("UTC+8", 8*3600)
	// 2024-01-31 06:00 in Taipei is still 01-30 in UTC; month arithmetic must
	// clamp on the Taipei calendar.
	anchor := time.Date(2024, time.January, 31, 6, 0, 0, 0, taipei).UTC()
	in := []*models.Reminder{feed("a", models.FrequencyMonthly, anchor)}

	out, err := Expand(in, time.Date(2024, time.March, 1, 0, 0, 0, 0, taipei), WithLocation(taipei))
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	got := out[len(in):]
	want := time.Date(2024, time.February, 29, 6, 0, 0, 0, taipei)
	if len(got) != 1 || !got[0].ScheduledTime.Equal(want) {
		t.Fatalf("generated %v, want one instance at %s", got, want)
	}
}

func TestLatest(t *testing.T) {
	t.Parallel()
	if Latest(nil) != nil {
		t.Fatal("Latest(nil) should be nil")
	}
	a := feed("a", models.FrequencyDaily, at("2024-01-02T08:00"))
	b := feed("b", models.FrequencyDaily, at("2024-01-05T08:00"))
	c := feed("c", models.FrequencyDaily, at("2024-01-05T08:00"))
	if got := Latest([]*models.Reminder{a, b, c}); got != b {
		t.Fatalf("Latest = %s, want b", got.ID)
	}
}

func TestAnchors(t *testing.T) {
	t.Parallel()
	a := feed("a", models.FrequencyDaily, at("2024-01-02T08:00"))
	b := feed("b", models.FrequencyDaily, at("2024-01-09T08:00"))
	c := feed("c", models.FrequencyWeekly, at("2024-01-03T08:00"))
	anchors := Anchors([]*models.Reminder{a, b, c})
	if len(anchors) != 2 {
		t.Fatalf("got %d series, want 2", len(anchors))
	}
	if anchors[a.Series()] != b || anchors[c.Series()] != c {
		t.Fatalf("unexpected anchors: %+v", anchors)
	}
}

func TestDefaultHorizon(t *testing.T) {
	t.Parallel()
	if got := DefaultHorizon(at("2024-11-30T10:00")); !got.Equal(at("2025-02-28T10:00")) {
		t.Fatalf("DefaultHorizon = %s", got)
	}
}
