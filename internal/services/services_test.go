package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"travel-planner-backend/internal/cache"
	"travel-planner-backend/internal/models"
	"travel-planner-backend/internal/repository"
	"travel-planner-backend/internal/store"
)

func init() {
	passwordCost = bcrypt.MinCost
}

type fixture struct {
	dir     string
	users   *store.Collection[models.User]
	tours   *store.Collection[models.PopularTour]
	details *store.Collection[models.TravelDetail]

	userRepo   *repository.UserRepository
	tourRepo   *repository.TourRepository
	tipRepo    *repository.TipRepository
	detailRepo *repository.TravelDetailRepository
	travelRepo *repository.TravelRepository
}

func seed(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// setupFixture builds every collection over files in a temp dir.
// Empty seed strings leave the document missing.
func setupFixture(t *testing.T, seeds map[string]string) *fixture {
	t.Helper()
	dir := t.TempDir()
	for name, content := range seeds {
		seed(t, dir, name, content)
	}

	backend := func(name string) store.Backend {
		return store.NewFileBackend(filepath.Join(dir, name))
	}

	f := &fixture{
		dir:     dir,
		users:   store.NewCollection[models.User]("users", backend("users.json")),
		tours:   store.NewCollection[models.PopularTour]("popular_tours", backend("popularTours.json")),
		details: store.NewCollection[models.TravelDetail]("travel_details", backend("travelDetails.json")),
	}
	tips := store.NewCollection[models.Tip]("tips", backend("tips.json"))
	travels := store.NewCollection[models.Travel]("travels", backend("travels.json"))

	f.userRepo = repository.NewUserRepository(f.users)
	f.tourRepo = repository.NewTourRepository(cache.ForCollection(f.tours, 5*time.Minute, nil))
	f.tipRepo = repository.NewTipRepository(cache.ForCollection(tips, 24*time.Hour, nil))
	f.detailRepo = repository.NewTravelDetailRepository(f.details)
	f.travelRepo = repository.NewTravelRepository(travels)
	return f
}

func intPtr(i int) *int { return &i }
