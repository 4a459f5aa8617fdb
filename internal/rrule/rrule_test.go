package rrule

import (
	"strings"
	"testing"
	"time"

	"github.com/hray3182/catcare/internal/models"
)

func TestRuleString(t *testing.T) {
	t.Parallel()
	monday := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		freq     models.Frequency
		at       time.Time
		contains []string
	}{
		{models.FrequencyDaily, monday, []string{"FREQ=DAILY"}},
		{models.FrequencyWeekly, monday, []string{"FREQ=WEEKLY", "BYDAY=MO"}},
		{models.FrequencyMonthly, monday, []string{"FREQ=MONTHLY", "BYMONTHDAY=1"}},
		{models.FrequencyMonthly, time.Date(2024, time.January, 31, 9, 0, 0, 0, time.UTC), []string{"BYMONTHDAY=28,29,30,31", "BYSETPOS=-1"}},
	}
	for _, tt := range tests {
		got := RuleString(tt.freq, tt.at)
		for _, want := range tt.contains {
			if !strings.Contains(got, want) {
				t.Fatalf("RuleString(%s, %s) = %q, missing %q", tt.freq, tt.at, got, want)
			}
		}
		if _, err := Parse("RRULE:"+got, tt.at); err != nil {
			t.Fatalf("Parse(%q) error: %v", got, err)
		}
	}
	if got := RuleString(models.FrequencyOnce, monday); got != "" {
		t.Fatalf("RuleString(once) = %q", got)
	}
}

func TestNextOccurrencesMonthlyClamps(t *testing.T) {
	t.Parallel()
	start := time.Date(2023, time.January, 31, 8, 0, 0, 0, time.UTC)
	got, err := NextOccurrences(models.FrequencyMonthly, start, start, 3)
	if err != nil {
		t.Fatalf("NextOccurrences error: %v", err)
	}
	want := []time.Time{
		time.Date(2023, time.February, 28, 8, 0, 0, 0, time.UTC),
		time.Date(2023, time.March, 31, 8, 0, 0, 0, time.UTC),
		time.Date(2023, time.April, 30, 8, 0, 0, 0, time.UTC),
	}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("occurrence %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestNextOccurrencesOnce(t *testing.T) {
	t.Parallel()
	at := time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC)
	got, _ := NextOccurrences(models.FrequencyOnce, at, at.Add(-time.Hour), 5)
	if len(got) != 1 || !got[0].Equal(at) {
		t.Fatalf("got %v", got)
	}
	got, _ = NextOccurrences(models.FrequencyOnce, at, at, 5)
	if len(got) != 0 {
		t.Fatalf("past one-off returned %v", got)
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()
	at := time.Date(2024, time.January, 1, 1, 30, 0, 0, time.UTC)
	taipei := time.FixedZone("CST", 8*3600)
	tests := []struct {
		freq models.Frequency
		want string
	}{
		{models.FrequencyOnce, "once on 2024-01-01 at 09:30"},
		{models.FrequencyDaily, "every day at 09:30"},
		{models.FrequencyWeekly, "every week on Monday at 09:30"},
		{models.FrequencyMonthly, "every month on day 1 at 09:30"},
	}
	for _, tt := range tests {
		if got := Describe(tt.freq, at, taipei); got != tt.want {
			t.Fatalf("Describe(%s) = %q, want %q", tt.freq, got, tt.want)
		}
	}
}
