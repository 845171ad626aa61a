package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"travel-planner-backend/internal/config"
	"travel-planner-backend/internal/handlers"
	"travel-planner-backend/internal/models"
	"travel-planner-backend/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// collections holds every record store of the application
type collections struct {
	users   *store.Collection[models.User]
	travels *store.Collection[models.Travel]
	tours   *store.Collection[models.PopularTour]
	tips    *store.Collection[models.Tip]
	details *store.Collection[models.TravelDetail]
	close   func()
}

func (c *collections) staters() []handlers.CollectionStater {
	return []handlers.CollectionStater{c.users, c.travels, c.tours, c.tips, c.details}
}

// openCollections opens the configured document backend and creates the collections
func openCollections(ctx context.Context, cfg *config.Config) (*collections, error) {
	var (
		backend func(name string) store.Backend
		closeFn = func() {}
	)

	switch cfg.Storage.Driver {
	case "file":
		backend = func(name string) store.Backend {
			return store.NewFileBackend(cfg.Storage.CollectionPath(name))
		}
		log.Info().Str("data_dir", cfg.Storage.DataDir).Msg("Using JSON file storage")

	case "bolt":
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.BoltPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		db, err := store.OpenBolt(cfg.Storage.BoltPath)
		if err != nil {
			return nil, err
		}
		backend = db.Backend
		closeFn = func() {
			if err := db.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close bolt database")
			}
		}
		log.Info().Str("path", cfg.Storage.BoltPath).Msg("Using bolt storage")

	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		pg := store.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		backend = pg.Backend
		closeFn = pool.Close
		log.Info().Msg("Database connection established")

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	return &collections{
		users:   store.NewCollection[models.User]("users", backend("users")),
		travels: store.NewCollection[models.Travel]("travels", backend("travels")),
		tours:   store.NewCollection[models.PopularTour]("popularTours", backend("popularTours")),
		tips:    store.NewCollection[models.Tip]("tips", backend("tips")),
		details: store.NewCollection[models.TravelDetail]("travelDetails", backend("travelDetails")),
		close:   closeFn,
	}, nil
}
