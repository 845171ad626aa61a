package services

import (
	"context"
	"math/rand"
	"strings"

	"travel-planner-backend/internal/apperr"
	"travel-planner-backend/internal/models"
	"travel-planner-backend/internal/repository"
)

// PopularLimit is the number of tours returned by PopularTours
const PopularLimit = 12

// CatalogService serves the read-mostly reference data: popular tours,
// tips and travel details
type CatalogService struct {
	tourRepo   *repository.TourRepository
	tipRepo    *repository.TipRepository
	detailRepo *repository.TravelDetailRepository
	shuffle    func(n int, swap func(i, j int))
}

// NewCatalogService creates a new catalog service
func NewCatalogService(tourRepo *repository.TourRepository, tipRepo *repository.TipRepository, detailRepo *repository.TravelDetailRepository) *CatalogService {
	return &CatalogService{
		tourRepo:   tourRepo,
		tipRepo:    tipRepo,
		detailRepo: detailRepo,
		shuffle:    rand.Shuffle,
	}
}

// PopularTours returns up to PopularLimit tours in random order
func (s *CatalogService) PopularTours(ctx context.Context) []models.PopularTour {
	tours := s.tourRepo.All(ctx)
	s.shuffle(len(tours), func(i, j int) {
		tours[i], tours[j] = tours[j], tours[i]
	})
	if len(tours) > PopularLimit {
		tours = tours[:PopularLimit]
	}
	return tours
}

// AllTours returns every popular tour in stored order
func (s *CatalogService) AllTours(ctx context.Context) []models.PopularTour {
	return s.tourRepo.All(ctx)
}

// GetTour returns a popular tour by ID
func (s *CatalogService) GetTour(ctx context.Context, id int) (*models.PopularTour, error) {
	return s.tourRepo.GetByID(ctx, id)
}

// Tips returns every travel tip
func (s *CatalogService) Tips(ctx context.Context) []models.Tip {
	return s.tipRepo.All(ctx)
}

// TravelDetails returns every travel detail
func (s *CatalogService) TravelDetails(ctx context.Context) []models.TravelDetail {
	return s.detailRepo.List(ctx)
}

// GetTravelDetail returns a travel detail by ID
func (s *CatalogService) GetTravelDetail(ctx context.Context, id int) (*models.TravelDetail, error) {
	return s.detailRepo.GetByID(ctx, id)
}

// Warm preloads the tour and tip caches
func (s *CatalogService) Warm(ctx context.Context) {
	s.tourRepo.Warm(ctx)
	s.tipRepo.Warm(ctx)
}

// TravelService manages user-created travels
type TravelService struct {
	travelRepo *repository.TravelRepository
}

// NewTravelService creates a new travel service
func NewTravelService(travelRepo *repository.TravelRepository) *TravelService {
	return &TravelService{travelRepo: travelRepo}
}

// List returns every travel
func (s *TravelService) List(ctx context.Context) []models.Travel {
	return s.travelRepo.List(ctx)
}

// Get returns a travel by ID
func (s *TravelService) Get(ctx context.Context, id int) (*models.Travel, error) {
	return s.travelRepo.GetByID(ctx, id)
}

// Create stores a new travel. Title, city and date are required.
func (s *TravelService) Create(ctx context.Context, travel models.Travel) (*models.Travel, error) {
	travel.Title = strings.TrimSpace(travel.Title)
	travel.City = strings.TrimSpace(travel.City)
	travel.Date = strings.TrimSpace(travel.Date)
	if travel.Title == "" || travel.City == "" || travel.Date == "" {
		return nil, apperr.InvalidInput("Title, city and date are required")
	}

	created, err := s.travelRepo.Create(ctx, travel)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update changes the given fields of a travel. Required fields may not be cleared.
func (s *TravelService) Update(ctx context.Context, id int, patch models.TravelPatch) (*models.Travel, error) {
	if patch.Empty() {
		return nil, apperr.InvalidInput("No fields to update")
	}
	for _, field := range []*string{patch.Title, patch.City, patch.Date} {
		if field != nil && strings.TrimSpace(*field) == "" {
			return nil, apperr.InvalidInput("Title, city and date cannot be empty")
		}
	}

	updated, err := s.travelRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a travel
func (s *TravelService) Delete(ctx context.Context, id int) error {
	return s.travelRepo.Delete(ctx, id)
}
