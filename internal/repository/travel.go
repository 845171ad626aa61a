package repository

import (
	"context"
	"errors"
	"fmt"

	"travel-planner-backend/internal/apperr"
	"travel-planner-backend/internal/models"
	"travel-planner-backend/internal/store"
)

// TravelRepository handles persistence of custom travels
type TravelRepository struct {
	travels *store.Collection[models.Travel]
}

// NewTravelRepository creates a new travel repository
func NewTravelRepository(travels *store.Collection[models.Travel]) *TravelRepository {
	return &TravelRepository{travels: travels}
}

// List returns every travel in stored order
func (r *TravelRepository) List(ctx context.Context) []models.Travel {
	return r.travels.LoadAll(ctx)
}

// GetByID retrieves a travel by ID
func (r *TravelRepository) GetByID(ctx context.Context, id int) (*models.Travel, error) {
	travel, ok := r.travels.FindByID(ctx, id)
	if !ok {
		return nil, apperr.NotFound("Travel not found")
	}
	return &travel, nil
}

// Create stores a new travel
func (r *TravelRepository) Create(ctx context.Context, travel models.Travel) (models.Travel, error) {
	created, err := r.travels.Insert(ctx, travel)
	if err != nil {
		return models.Travel{}, fmt.Errorf("failed to create travel: %w", err)
	}
	return created, nil
}

// Update applies a patch to a travel
func (r *TravelRepository) Update(ctx context.Context, id int, patch models.TravelPatch) (models.Travel, error) {
	updated, err := r.travels.Update(ctx, id, patch)
	if errors.Is(err, store.ErrNotFound) {
		return models.Travel{}, apperr.NotFound("Travel not found")
	}
	if err != nil {
		return models.Travel{}, fmt.Errorf("failed to update travel: %w", err)
	}
	return updated, nil
}

// Delete removes a travel
func (r *TravelRepository) Delete(ctx context.Context, id int) error {
	removed, err := r.travels.Remove(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete travel: %w", err)
	}
	if !removed {
		return apperr.NotFound("Travel not found")
	}
	return nil
}
