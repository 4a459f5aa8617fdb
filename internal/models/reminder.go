package models

import "time"

// ReminderType is the kind of care a reminder is about.
type ReminderType string

const (
	TypeFeeding    ReminderType = "feeding"
	TypeMedication ReminderType = "medication"
	TypeVet        ReminderType = "vet"
	TypeGrooming   ReminderType = "grooming"
	TypeOther      ReminderType = "other"
)

// Valid reports whether t is one of the known reminder types.
func (t ReminderType) Valid() bool {
	switch t {
	case TypeFeeding, TypeMedication, TypeVet, TypeGrooming, TypeOther:
		return true
	}
	return false
}

// Frequency controls how a reminder repeats.
type Frequency string

const (
	FrequencyOnce    Frequency = "once"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOnce, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// IsRecurring returns true for every frequency except once
func (f Frequency) IsRecurring() bool {
	return f != FrequencyOnce
}

// SeriesKey groups reminder instances that belong to the same recurring task.
type SeriesKey struct {
	Title     string
	CatID     string
	Type      ReminderType
	Frequency Frequency
}

type Reminder struct {
	ID                  string       `json:"id"`
	OwnerID             int64        `json:"owner_id"`
	CatID               string       `json:"cat_id"`
	Title               string       `json:"title"`
	Description         string       `json:"description"`
	Type                ReminderType `json:"type"`
	Frequency           Frequency    `json:"frequency"`
	ScheduledTime       time.Time    `json:"scheduled_time"` // Due moment
	IsActive            bool         `json:"is_active"`      // Series still generates occurrences
	IsCompleted         bool         `json:"is_completed"`
	NotificationEnabled bool         `json:"notification_enabled"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// Series returns the identity tuple shared by all instances of this reminder's series.
func (r *Reminder) Series() SeriesKey {
	return SeriesKey{
		Title:     r.Title,
		CatID:     r.CatID,
		Type:      r.Type,
		Frequency: r.Frequency,
	}
}

// IsRecurring returns true if this reminder repeats
func (r *Reminder) IsRecurring() bool {
	return r.Frequency.IsRecurring()
}

// Clone returns a shallow copy; Reminder has no reference fields.
func (r *Reminder) Clone() *Reminder {
	c := *r
	return &c
}

// Due reports whether the reminder is open and scheduled within [from, to].
func (r *Reminder) Due(from, to time.Time) bool {
	if !r.IsActive || r.IsCompleted {
		return false
	}
	return !r.ScheduledTime.Before(from) && !r.ScheduledTime.After(to)
}
