package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hray3182/catcare/internal/database"
	"github.com/hray3182/catcare/internal/models"
)

const catColumns = `id::text, owner_id, name, breed, age, weight_kg, color, microchip,
	vet_name, vet_phone, vet_address, created_at, updated_at`

type CatRepository struct {
	db *database.DB
}

func NewCatRepository(db *database.DB) *CatRepository {
	return &CatRepository{db: db}
}

func scanCat(row pgx.Row) (*models.Cat, error) {
	c := &models.Cat{}
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Breed, &c.Age, &c.WeightKg, &c.Color, &c.Microchip,
		&c.Vet.Name, &c.Vet.Phone, &c.Vet.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CatRepository) Create(ctx context.Context, c *models.Cat) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO cats (id, owner_id, name, breed, age, weight_kg, color, microchip, vet_name, vet_phone, vet_address, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID, c.OwnerID, c.Name, c.Breed, c.Age, c.WeightKg, c.Color, c.Microchip,
		c.Vet.Name, c.Vet.Phone, c.Vet.Address, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (r *CatRepository) GetByID(ctx context.Context, id string) (*models.Cat, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	c, err := scanCat(r.db.Pool.QueryRow(ctx, `SELECT `+catColumns+` FROM cats WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

func (r *CatRepository) GetByOwner(ctx context.Context, ownerID int64) ([]*models.Cat, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+catColumns+` FROM cats WHERE owner_id = $1 ORDER BY name ASC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []*models.Cat
	for rows.Next() {
		c, err := scanCat(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *CatRepository) Update(ctx context.Context, c *models.Cat) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE cats SET name = $1, breed = $2, age = $3, weight_kg = $4, color = $5, microchip = $6,
		 vet_name = $7, vet_phone = $8, vet_address = $9, updated_at = $10
		 WHERE id = $11`,
		c.Name, c.Breed, c.Age, c.WeightKg, c.Color, c.Microchip,
		c.Vet.Name, c.Vet.Phone, c.Vet.Address, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CatRepository) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return ErrNotFound
	}
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM cats WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
