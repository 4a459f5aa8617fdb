package repository

import (
	"context"

	"github.com/hray3182/catcare/internal/database"
	"github.com/hray3182/catcare/internal/models"
)

// Repositories bundles the Postgres repositories into a Store.
type Repositories struct {
	Reminder *ReminderRepository
	Cat      *CatRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Reminder: NewReminderRepository(db),
		Cat:      NewCatRepository(db),
	}
}

var _ Store = (*Repositories)(nil)

func (r *Repositories) ListReminders(ctx context.Context) ([]*models.Reminder, error) {
	return r.Reminder.List(ctx)
}

func (r *Repositories) RemindersByOwner(ctx context.Context, ownerID int64) ([]*models.Reminder, error) {
	return r.Reminder.GetByOwner(ctx, ownerID)
}

func (r *Repositories) GetReminder(ctx context.Context, id string) (*models.Reminder, error) {
	return r.Reminder.GetByID(ctx, id)
}

func (r *Repositories) CreateReminder(ctx context.Context, rem *models.Reminder) error {
	return r.Reminder.Create(ctx, rem)
}

func (r *Repositories) AppendReminders(ctx context.Context, rs []*models.Reminder) error {
	return r.Reminder.CreateBatch(ctx, rs)
}

func (r *Repositories) UpdateReminder(ctx context.Context, rem *models.Reminder) error {
	return r.Reminder.Update(ctx, rem)
}

func (r *Repositories) UpdateReminders(ctx context.Context, rs []*models.Reminder) error {
	return r.Reminder.UpdateBatch(ctx, rs)
}

func (r *Repositories) DeleteReminder(ctx context.Context, id string) error {
	return r.Reminder.Delete(ctx, id)
}

func (r *Repositories) CreateCat(ctx context.Context, c *models.Cat) error {
	return r.Cat.Create(ctx, c)
}

func (r *Repositories) GetCat(ctx context.Context, id string) (*models.Cat, error) {
	return r.Cat.GetByID(ctx, id)
}

func (r *Repositories) CatsByOwner(ctx context.Context, ownerID int64) ([]*models.Cat, error) {
	return r.Cat.GetByOwner(ctx, ownerID)
}

func (r *Repositories) UpdateCat(ctx context.Context, c *models.Cat) error {
	return r.Cat.Update(ctx, c)
}

func (r *Repositories) DeleteCat(ctx context.Context, id string) error {
	return r.Cat.Delete(ctx, id)
}
