package repository

import (
	"context"
	"errors"
	"fmt"

	"travel-planner-backend/internal/apperr"
	"travel-planner-backend/internal/cache"
	"travel-planner-backend/internal/models"
	"travel-planner-backend/internal/store"
)

// TourRepository serves popular tours through a TTL cache
type TourRepository struct {
	tours *cache.TTL[models.PopularTour]
}

// NewTourRepository creates a new tour repository
func NewTourRepository(tours *cache.TTL[models.PopularTour]) *TourRepository {
	return &TourRepository{tours: tours}
}

// All returns every popular tour
func (r *TourRepository) All(ctx context.Context) []models.PopularTour {
	return r.tours.Get(ctx)
}

// GetByID retrieves a popular tour by ID
func (r *TourRepository) GetByID(ctx context.Context, id int) (*models.PopularTour, error) {
	for _, tour := range r.tours.Get(ctx) {
		if tour.ID == id {
			return &tour, nil
		}
	}
	return nil, apperr.NotFound("Tour not found")
}

// Warm preloads the cache
func (r *TourRepository) Warm(ctx context.Context) {
	r.tours.Warm(ctx)
}

// TipRepository serves travel tips through a TTL cache
type TipRepository struct {
	tips *cache.TTL[models.Tip]
}

// NewTipRepository creates a new tip repository
func NewTipRepository(tips *cache.TTL[models.Tip]) *TipRepository {
	return &TipRepository{tips: tips}
}

// All returns every tip
func (r *TipRepository) All(ctx context.Context) []models.Tip {
	return r.tips.Get(ctx)
}

// Warm preloads the cache
func (r *TipRepository) Warm(ctx context.Context) {
	r.tips.Warm(ctx)
}

// TravelDetailRepository handles persistence of travel details and their comments
type TravelDetailRepository struct {
	details *store.Collection[models.TravelDetail]
}

// NewTravelDetailRepository creates a new travel detail repository
func NewTravelDetailRepository(details *store.Collection[models.TravelDetail]) *TravelDetailRepository {
	return &TravelDetailRepository{details: details}
}

// List returns every travel detail
func (r *TravelDetailRepository) List(ctx context.Context) []models.TravelDetail {
	return r.details.LoadAll(ctx)
}

// GetByID retrieves a travel detail by ID
func (r *TravelDetailRepository) GetByID(ctx context.Context, id int) (*models.TravelDetail, error) {
	detail, ok := r.details.FindByID(ctx, id)
	if !ok {
		return nil, apperr.NotFound("Travel detail not found")
	}
	return &detail, nil
}

// Modify replaces the travel detail by fn's result. Nothing is written if fn fails.
func (r *TravelDetailRepository) Modify(ctx context.Context, id int, fn func(models.TravelDetail) (models.TravelDetail, error)) (models.TravelDetail, error) {
	detail, err := r.details.Modify(ctx, id, fn)
	if errors.Is(err, store.ErrNotFound) {
		return models.TravelDetail{}, apperr.NotFound("Travel detail not found")
	}
	if err != nil {
		return models.TravelDetail{}, fmt.Errorf("failed to modify travel detail: %w", err)
	}
	return detail, nil
}
