package reminders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hray3182/catcare/internal/models"
	"github.com/hray3182/catcare/internal/repository"
)

// ErrInvalidCat is returned when a cat has no name.
var ErrInvalidCat = errors.New("cat name is required")

func (s *Service) AddCat(ctx context.Context, draft *models.Cat) (*models.Cat, error) {
	if strings.TrimSpace(draft.Name) == "" {
		return nil, ErrInvalidCat
	}
	now := s.clk.Now()
	c := *draft
	c.ID = s.newID()
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := s.store.CreateCat(ctx, &c); err != nil {
		return nil, fmt.Errorf("failed to create cat: %w", err)
	}
	return &c, nil
}

func (s *Service) Cats(ctx context.Context, ownerID int64) ([]*models.Cat, error) {
	return s.store.CatsByOwner(ctx, ownerID)
}

func (s *Service) Cat(ctx context.Context, ownerID int64, id string) (*models.Cat, error) {
	c, err := s.store.GetCat(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (s *Service) UpdateCat(ctx context.Context, c *models.Cat) error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrInvalidCat
	}
	c.UpdatedAt = s.clk.Now()
	return s.store.UpdateCat(ctx, c)
}

// DeleteCat removes the cat. Its reminders are kept and show no cat name.
func (s *Service) DeleteCat(ctx context.Context, ownerID int64, id string) error {
	if _, err := s.Cat(ctx, ownerID, id); err != nil {
		return err
	}
	return s.store.DeleteCat(ctx, id)
}
