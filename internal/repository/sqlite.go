package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hray3182/catcare/internal/models"
)

// Fixed-width UTC text so that ORDER BY on the column is chronological.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore keeps reminders and cats in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps a database opened by database.OpenSQLite.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

var _ Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad stored time %q: %w", s, err)
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

const sqliteReminderColumns = `id, owner_id, cat_id, title, description, type, frequency, scheduled_time,
	is_active, is_completed, notification_enabled, created_at, updated_at`

func scanSQLiteReminder(row rowScanner) (*models.Reminder, error) {
	r := &models.Reminder{}
	var typ, freq, scheduled, created, updated string
	if err := row.Scan(&r.ID, &r.OwnerID, &r.CatID, &r.Title, &r.Description, &typ, &freq, &scheduled,
		&r.IsActive, &r.IsCompleted, &r.NotificationEnabled, &created, &updated); err != nil {
		return nil, err
	}
	r.Type = models.ReminderType(typ)
	r.Frequency = models.Frequency(freq)

	var err error
	if r.ScheduledTime, err = parseTime(scheduled); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SQLiteStore) queryReminders(ctx context.Context, query string, args ...any) ([]*models.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		r, err := scanSQLiteReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

func (s *SQLiteStore) ListReminders(ctx context.Context) ([]*models.Reminder, error) {
	return s.queryReminders(ctx,
		`SELECT `+sqliteReminderColumns+` FROM reminders ORDER BY scheduled_time ASC, created_at ASC`)
}

func (s *SQLiteStore) RemindersByOwner(ctx context.Context, ownerID int64) ([]*models.Reminder, error) {
	return s.queryReminders(ctx,
		`SELECT `+sqliteReminderColumns+` FROM reminders WHERE owner_id = ? ORDER BY scheduled_time ASC`,
		ownerID)
}

func (s *SQLiteStore) GetReminder(ctx context.Context, id string) (*models.Reminder, error) {
	r, err := scanSQLiteReminder(s.db.QueryRowContext(ctx,
		`SELECT `+sqliteReminderColumns+` FROM reminders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertSQLiteReminder(ctx context.Context, ex execer, r *models.Reminder) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO reminders (`+sqliteReminderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.OwnerID, r.CatID, r.Title, r.Description, string(r.Type), string(r.Frequency), formatTime(r.ScheduledTime),
		r.IsActive, r.IsCompleted, r.NotificationEnabled, formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
	)
	return err
}

func (s *SQLiteStore) CreateReminder(ctx context.Context, r *models.Reminder) error {
	return insertSQLiteReminder(ctx, s.db, r)
}

func (s *SQLiteStore) AppendReminders(ctx context.Context, rs []*models.Reminder) error {
	if len(rs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, r := range rs {
		if err := insertSQLiteReminder(ctx, tx, r); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert reminder %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func updateSQLiteReminder(ctx context.Context, ex execer, r *models.Reminder) error {
	return affected(ex.ExecContext(ctx,
		`UPDATE reminders SET cat_id = ?, title = ?, description = ?, type = ?, frequency = ?, scheduled_time = ?,
		 is_active = ?, is_completed = ?, notification_enabled = ?, updated_at = ?
		 WHERE id = ?`,
		r.CatID, r.Title, r.Description, string(r.Type), string(r.Frequency), formatTime(r.ScheduledTime),
		r.IsActive, r.IsCompleted, r.NotificationEnabled, formatTime(r.UpdatedAt), r.ID,
	))
}

func (s *SQLiteStore) UpdateReminder(ctx context.Context, r *models.Reminder) error {
	return updateSQLiteReminder(ctx, s.db, r)
}

func (s *SQLiteStore) UpdateReminders(ctx context.Context, rs []*models.Reminder) error {
	if len(rs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, r := range rs {
		if err := updateSQLiteReminder(ctx, tx, r); err != nil {
			tx.Rollback()
			if errors.Is(err, ErrNotFound) {
				return err
			}
			return fmt.Errorf("failed to update reminder %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) DeleteReminder(ctx context.Context, id string) error {
	return affected(s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id))
}

const sqliteCatColumns = `id, owner_id, name, breed, age, weight_kg, color, microchip,
	vet_name, vet_phone, vet_address, created_at, updated_at`

func scanSQLiteCat(row rowScanner) (*models.Cat, error) {
	c := &models.Cat{}
	var created, updated string
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Breed, &c.Age, &c.WeightKg, &c.Color, &c.Microchip,
		&c.Vet.Name, &c.Vet.Phone, &c.Vet.Address, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if c.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *SQLiteStore) CreateCat(ctx context.Context, c *models.Cat) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cats (`+sqliteCatColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, c.Breed, c.Age, c.WeightKg, c.Color, c.Microchip,
		c.Vet.Name, c.Vet.Phone, c.Vet.Address, formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	return err
}

func (s *SQLiteStore) GetCat(ctx context.Context, id string) (*models.Cat, error) {
	c, err := scanSQLiteCat(s.db.QueryRowContext(ctx,
		`SELECT `+sqliteCatColumns+` FROM cats WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

func (s *SQLiteStore) CatsByOwner(ctx context.Context, ownerID int64) ([]*models.Cat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteCatColumns+` FROM cats WHERE owner_id = ? ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []*models.Cat
	for rows.Next() {
		c, err := scanSQLiteCat(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (s *SQLiteStore) UpdateCat(ctx context.Context, c *models.Cat) error {
	return affected(s.db.ExecContext(ctx,
		`UPDATE cats SET name = ?, breed = ?, age = ?, weight_kg = ?, color = ?, microchip = ?,
		 vet_name = ?, vet_phone = ?, vet_address = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.Breed, c.Age, c.WeightKg, c.Color, c.Microchip,
		c.Vet.Name, c.Vet.Phone, c.Vet.Address, formatTime(c.UpdatedAt), c.ID,
	))
}

func (s *SQLiteStore) DeleteCat(ctx context.Context, id string) error {
	return affected(s.db.ExecContext(ctx, `DELETE FROM cats WHERE id = ?`, id))
}
