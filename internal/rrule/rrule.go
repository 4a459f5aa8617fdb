// Package rrule maps reminder frequencies onto RFC 5545 recurrence rules.
package rrule

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/hray3182/catcare/internal/models"
)

// Option returns the recurrence options for a series starting at dtstart.
// ok is false for one-off and unknown frequencies.
//
// Monthly series on day 29 or later pick the last existing day among
// 28..dtstart.Day(), so short months are clamped instead of skipped.
func Option(freq models.Frequency, dtstart time.Time) (opt rrule.ROption, ok bool) {
	opt = rrule.ROption{Dtstart: dtstart, Interval: 1}
	switch freq {
	case models.FrequencyDaily:
		opt.Freq = rrule.DAILY
	case models.FrequencyWeekly:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = []rrule.Weekday{weekday(dtstart.Weekday())}
	case models.FrequencyMonthly:
		opt.Freq = rrule.MONTHLY
		if d := dtstart.Day(); d > 28 {
			for day := 28; day <= d; day++ {
				opt.Bymonthday = append(opt.Bymonthday, day)
			}
			opt.Bysetpos = []int{-1}
		} else {
			opt.Bymonthday = []int{d}
		}
	default:
		return rrule.ROption{}, false
	}
	return opt, true
}

// RuleString returns the RRULE value (without the "RRULE:" prefix) for freq,
// or "" when freq does not repeat.
func RuleString(freq models.Frequency, dtstart time.Time) string {
	opt, ok := Option(freq, dtstart)
	if !ok {
		return ""
	}
	return opt.RRuleString()
}

// Parse parses an RRULE string anchored at dtstart.
func Parse(ruleStr string, dtstart time.Time) (*rrule.RRule, error) {
	ruleStr = strings.TrimPrefix(ruleStr, "RRULE:")
	opt, err := rrule.StrToROption(ruleStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RRULE: %w", err)
	}
	opt.Dtstart = dtstart
	return rrule.NewRRule(*opt)
}

// NextOccurrences returns up to n occurrences of the series strictly after
// the given time.
func NextOccurrences(freq models.Frequency, dtstart, after time.Time, n int) ([]time.Time, error) {
	opt, ok := Option(freq, dtstart)
	if !ok {
		if dtstart.After(after) && n > 0 {
			return []time.Time{dtstart}, nil
		}
		return nil, nil
	}
	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, err
	}

	var out []time.Time
	next := rule.Iterator()
	for len(out) < n {
		t, ok := next()
		if !ok {
			break
		}
		if t.After(after) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Describe returns an English description such as "every week on Monday at 09:00".
func Describe(freq models.Frequency, dtstart time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	local := dtstart.In(loc)
	at := local.Format("15:04")
	switch freq {
	case models.FrequencyOnce:
		return "once on " + local.Format("2006-01-02") + " at " + at
	case models.FrequencyDaily:
		return "every day at " + at
	case models.FrequencyWeekly:
		return "every week on " + local.Weekday().String() + " at " + at
	case models.FrequencyMonthly:
		if local.Day() > 28 {
			return fmt.Sprintf("every month on day %d (or the last day) at %s", local.Day(), at)
		}
		return fmt.Sprintf("every month on day %d at %s", local.Day(), at)
	}
	return string(freq)
}

func weekday(d time.Weekday) rrule.Weekday {
	switch d {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}
