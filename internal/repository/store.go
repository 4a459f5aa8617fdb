package repository

import (
	"context"
	"errors"

	"github.com/hray3182/catcare/internal/models"
)

// ErrNotFound is returned when a reminder or cat id does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence surface the reminder service needs. Both the
// Postgres and the SQLite implementation satisfy it.
type Store interface {
	ListReminders(ctx context.Context) ([]*models.Reminder, error)
	RemindersByOwner(ctx context.Context, ownerID int64) ([]*models.Reminder, error)
	GetReminder(ctx context.Context, id string) (*models.Reminder, error)
	CreateReminder(ctx context.Context, r *models.Reminder) error
	// AppendReminders inserts every reminder or none of them.
	AppendReminders(ctx context.Context, rs []*models.Reminder) error
	UpdateReminder(ctx context.Context, r *models.Reminder) error
	// UpdateReminders updates every reminder or none of them.
	UpdateReminders(ctx context.Context, rs []*models.Reminder) error
	DeleteReminder(ctx context.Context, id string) error

	CreateCat(ctx context.Context, c *models.Cat) error
	GetCat(ctx context.Context, id string) (*models.Cat, error)
	CatsByOwner(ctx context.Context, ownerID int64) ([]*models.Cat, error)
	UpdateCat(ctx context.Context, c *models.Cat) error
	DeleteCat(ctx context.Context, id string) error
}
