package notify

import (
	"time"

	"github.com/hray3182/catcare/internal/models"
)

// Payload is what every channel renders into its own message format.
type Payload struct {
	ReminderID    string
	OwnerID       int64
	Title         string
	Message       string
	Type          models.ReminderType
	Frequency     models.Frequency
	CatName       string
	ScheduledTime time.Time
}

// PayloadFor builds the payload for a reminder. The message falls back to a
// generic line when the reminder has no description.
func PayloadFor(r *models.Reminder, catName string) Payload {
	msg := r.Description
	if msg == "" {
		msg = "Time for " + r.Title
	}
	return Payload{
		ReminderID:    r.ID,
		OwnerID:       r.OwnerID,
		Title:         r.Title,
		Message:       msg,
		Type:          r.Type,
		Frequency:     r.Frequency,
		CatName:       catName,
		ScheduledTime: r.ScheduledTime,
	}
}
