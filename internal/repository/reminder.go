package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hray3182/catcare/internal/database"
	"github.com/hray3182/catcare/internal/models"
)

const reminderColumns = `id::text, owner_id, cat_id, title, description, type, frequency, scheduled_time,
	is_active, is_completed, notification_enabled, created_at, updated_at`

const insertReminderSQL = `INSERT INTO reminders (id, owner_id, cat_id, title, description, type, frequency, scheduled_time,
	is_active, is_completed, notification_enabled, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

type ReminderRepository struct {
	db *database.DB
}

func NewReminderRepository(db *database.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func insertArgs(r *models.Reminder) []any {
	return []any{
		r.ID, r.OwnerID, r.CatID, r.Title, r.Description, string(r.Type), string(r.Frequency), r.ScheduledTime,
		r.IsActive, r.IsCompleted, r.NotificationEnabled, r.CreatedAt, r.UpdatedAt,
	}
}

func scanReminder(row pgx.Row) (*models.Reminder, error) {
	r := &models.Reminder{}
	var typ, freq string
	if err := row.Scan(&r.ID, &r.OwnerID, &r.CatID, &r.Title, &r.Description, &typ, &freq, &r.ScheduledTime,
		&r.IsActive, &r.IsCompleted, &r.NotificationEnabled, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Type = models.ReminderType(typ)
	r.Frequency = models.Frequency(freq)
	return r, nil
}

func (r *ReminderRepository) query(ctx context.Context, sql string, args ...any) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

// List returns every stored reminder ordered by scheduled time.
func (r *ReminderRepository) List(ctx context.Context) ([]*models.Reminder, error) {
	return r.query(ctx, `SELECT `+reminderColumns+` FROM reminders ORDER BY scheduled_time ASC, created_at ASC`)
}

func (r *ReminderRepository) GetByOwner(ctx context.Context, ownerID int64) ([]*models.Reminder, error) {
	return r.query(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE owner_id = $1 ORDER BY scheduled_time ASC`,
		ownerID,
	)
}

func (r *ReminderRepository) GetByID(ctx context.Context, id string) (*models.Reminder, error) {
	// Postgres rejects malformed uuids with a syntax error instead of no rows.
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	reminder, err := scanReminder(r.db.Pool.QueryRow(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return reminder, err
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	_, err := r.db.Pool.Exec(ctx, insertReminderSQL, insertArgs(reminder)...)
	return err
}

// CreateBatch inserts reminders in a single transaction.
func (r *ReminderRepository) CreateBatch(ctx context.Context, reminders []*models.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, reminder := range reminders {
		batch.Queue(insertReminderSQL, insertArgs(reminder)...)
	}
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert %d reminders: %w", len(reminders), err)
		}
		return nil
	})
}

const updateReminderSQL = `UPDATE reminders SET cat_id = $1, title = $2, description = $3, type = $4, frequency = $5,
	scheduled_time = $6, is_active = $7, is_completed = $8, notification_enabled = $9, updated_at = $10
	WHERE id = $11`

func updateArgs(r *models.Reminder) []any {
	return []any{
		r.CatID, r.Title, r.Description, string(r.Type), string(r.Frequency),
		r.ScheduledTime, r.IsActive, r.IsCompleted, r.NotificationEnabled,
		r.UpdatedAt, r.ID,
	}
}

func (r *ReminderRepository) Update(ctx context.Context, reminder *models.Reminder) error {
	tag, err := r.db.Pool.Exec(ctx, updateReminderSQL, updateArgs(reminder)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateBatch updates reminders in a single transaction. A missing id rolls
// back the whole batch with ErrNotFound.
func (r *ReminderRepository) UpdateBatch(ctx context.Context, reminders []*models.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, reminder := range reminders {
		batch.Queue(updateReminderSQL, updateArgs(reminder)...)
	}
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		br := tx.SendBatch(ctx, batch)
		for _, reminder := range reminders {
			tag, err := br.Exec()
			if err != nil {
				br.Close()
				return fmt.Errorf("failed to update reminder %s: %w", reminder.ID, err)
			}
			if tag.RowsAffected() == 0 {
				br.Close()
				return ErrNotFound
			}
		}
		return br.Close()
	})
}

func (r *ReminderRepository) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return ErrNotFound
	}
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
