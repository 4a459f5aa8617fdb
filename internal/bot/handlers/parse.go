package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hray3182/catcare/internal/models"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

var typeAliases = map[string]models.ReminderType{
	"feed":     models.TypeFeeding,
	"food":     models.TypeFeeding,
	"med":      models.TypeMedication,
	"meds":     models.TypeMedication,
	"medicine": models.TypeMedication,
	"groom":    models.TypeGrooming,
}

var errRemindUsage = errors.New("usage: /remind <type> <frequency> <when> [@cat] <title> [| description]")

type remindArgs struct {
	Type        models.ReminderType
	Frequency   models.Frequency
	When        time.Time
	CatName     string
	Title       string
	Description string
}

func parseType(s string) (models.ReminderType, error) {
	s = strings.ToLower(s)
	if t := models.ReminderType(s); t.Valid() {
		return t, nil
	}
	if t, ok := typeAliases[s]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown reminder type %q (feeding, medication, vet, grooming, other)", s)
}

func parseFrequency(s string) (models.Frequency, error) {
	f := models.Frequency(strings.ToLower(s))
	if !f.Valid() {
		return "", fmt.Errorf("unknown frequency %q (once, daily, weekly, monthly)", s)
	}
	return f, nil
}

// parseWhen reads "HH:MM", "tomorrow HH:MM" or "YYYY-MM-DD HH:MM" from the
// front of tokens in loc. A bare time that already passed today means
// tomorrow. It returns the number of tokens consumed.
func parseWhen(tokens []string, now time.Time, loc *time.Location) (time.Time, int, error) {
	if len(tokens) == 0 {
		return time.Time{}, 0, errors.New("missing time")
	}
	now = now.In(loc)

	if len(tokens) >= 2 {
		if d, err := time.ParseInLocation(dateLayout, tokens[0], loc); err == nil {
			c, err := time.Parse(clockLayout, tokens[1])
			if err != nil {
				return time.Time{}, 0, fmt.Errorf("bad time %q, use HH:MM", tokens[1])
			}
			return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, loc), 2, nil
		}
		if strings.EqualFold(tokens[0], "tomorrow") {
			c, err := time.Parse(clockLayout, tokens[1])
			if err != nil {
				return time.Time{}, 0, fmt.Errorf("bad time %q, use HH:MM", tokens[1])
			}
			d := now.AddDate(0, 0, 1)
			return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, loc), 2, nil
		}
	}

	c, err := time.Parse(clockLayout, tokens[0])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("bad time %q, use HH:MM or YYYY-MM-DD HH:MM", tokens[0])
	}
	t := time.Date(now.Year(), now.Month(), now.Day(), c.Hour(), c.Minute(), 0, 0, loc)
	if t.Before(now) {
		d := now.AddDate(0, 0, 1)
		t = time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, loc)
	}
	return t, 1, nil
}

func parseRemind(args string, now time.Time, loc *time.Location) (remindArgs, error) {
	var out remindArgs
	main, desc, _ := strings.Cut(args, "|")
	out.Description = strings.TrimSpace(desc)

	tokens := strings.Fields(main)
	if len(tokens) < 4 {
		return out, errRemindUsage
	}
	var err error
	if out.Type, err = parseType(tokens[0]); err != nil {
		return out, err
	}
	if out.Frequency, err = parseFrequency(tokens[1]); err != nil {
		return out, err
	}
	when, n, err := parseWhen(tokens[2:], now, loc)
	if err != nil {
		return out, err
	}
	out.When = when

	rest := tokens[2+n:]
	if len(rest) > 0 && strings.HasPrefix(rest[0], "@") {
		out.CatName = strings.TrimPrefix(rest[0], "@")
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return out, errRemindUsage
	}
	out.Title = strings.Join(rest, " ")
	return out, nil
}

// matchID resolves a full id or a unique id prefix typed by the user.
func matchID(ids []string, token string) (string, error) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return "", errors.New("missing id")
	}
	var found []string
	for _, id := range ids {
		if id == token {
			return id, nil
		}
		if strings.HasPrefix(id, token) {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("no reminder matches %q", token)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%q matches %d reminders, type more of the id", token, len(found))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
