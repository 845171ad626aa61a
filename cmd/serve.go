package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"travel-planner-backend/internal/avatars"
	"travel-planner-backend/internal/cache"
	"travel-planner-backend/internal/config"
	"travel-planner-backend/internal/handlers"
	"travel-planner-backend/internal/metrics"
	"travel-planner-backend/internal/middleware"
	"travel-planner-backend/internal/repository"
	"travel-planner-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const commentPingInterval = 50 * time.Second

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long:  "Start the HTTP API server with the storage and avatar backends selected in the config file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath)
		},
	}
}

// application holds the services behind the HTTP API
type application struct {
	cfg      *config.Config
	users    *services.UserService
	resolver *services.ResolverService
	catalog  *services.CatalogService
	travels  *services.TravelService
	hub      *services.CommentHub
	avatars  avatars.Storage
	health   *handlers.HealthHandler
}

func runServe(configPath string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logger
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cols, err := openCollections(ctx, cfg)
	if err != nil {
		return err
	}
	defer cols.close()

	avatarStorage, err := newAvatarStorage(ctx, cfg)
	if err != nil {
		return err
	}

	app := newApplication(cfg, cols, avatarStorage)
	app.catalog.Warm(ctx)
	go app.hub.Run(ctx, commentPingInterval)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      app.router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	app.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
	return nil
}

func newAvatarStorage(ctx context.Context, cfg *config.Config) (avatars.Storage, error) {
	switch cfg.Avatars.Driver {
	case "s3":
		storage, err := avatars.NewS3Storage(ctx, avatars.S3Options{
			Region:    cfg.AWS.Region,
			Bucket:    cfg.AWS.S3Bucket,
			Prefix:    cfg.Avatars.Prefix,
			AccessKey: cfg.AWS.AccessKey,
			SecretKey: cfg.AWS.SecretKey,
			Endpoint:  cfg.AWS.Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create avatar storage: %w", err)
		}
		log.Info().Str("bucket", cfg.AWS.S3Bucket).Msg("Storing avatars in S3")
		return storage, nil
	default:
		storage, err := avatars.NewLocalStorage(cfg.Avatars.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to create avatar storage: %w", err)
		}
		log.Info().Str("dir", cfg.Avatars.Dir).Msg("Storing avatars on disk")
		return storage, nil
	}
}

func newApplication(cfg *config.Config, cols *collections, avatarStorage avatars.Storage) *application {
	// Initialize repositories
	userRepo := repository.NewUserRepository(cols.users)
	travelRepo := repository.NewTravelRepository(cols.travels)
	tourRepo := repository.NewTourRepository(cache.ForCollection(cols.tours, cfg.Cache.ToursTTL, nil))
	tipRepo := repository.NewTipRepository(cache.ForCollection(cols.tips, cfg.Cache.TipsTTL, nil))
	detailRepo := repository.NewTravelDetailRepository(cols.details)

	// Initialize services
	hub := services.NewCommentHub()
	return &application{
		cfg:      cfg,
		users:    services.NewUserService(userRepo, avatarStorage, cfg.JWT.Secret, cfg.JWT.TokenTTL),
		resolver: services.NewResolverService(userRepo, tourRepo, detailRepo, hub, nil),
		catalog:  services.NewCatalogService(tourRepo, tipRepo, detailRepo),
		travels:  services.NewTravelService(travelRepo),
		hub:      hub,
		avatars:  avatarStorage,
		health:   handlers.NewHealthHandler(cols.staters()...),
	}
}

func (a *application) router() http.Handler {
	userHandler := handlers.NewUserHandler(a.users, a.cfg.Avatars.MaxSize)
	travelHandler := handlers.NewTravelHandler(a.travels, a.resolver)
	catalogHandler := handlers.NewCatalogHandler(a.catalog)
	commentHandler := handlers.NewCommentHandler(a.resolver, a.users, a.catalog, a.hub, a.cfg.Server.CORSOrigin)
	staticHandler := handlers.NewStaticHandler(a.cfg.Server.ImagesDir, a.avatars)
	authLimiter := middleware.NewRateLimiter(a.cfg.RateLimit.PerMinute, a.cfg.RateLimit.Burst)

	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(corsMiddleware(a.cfg.Server.CORSOrigin))
	r.Use(middleware.OptionalAuth(a.users))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	requireSelf := middleware.RequireSelf("userId")

	r.Route("/auth", func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Post("/register", userHandler.Register)
		r.Post("/login", userHandler.Login)
		r.With(requireSelf).Delete("/delete-account/{userId}", userHandler.DeleteAccount)
	})

	r.Get("/user/{userId}", userHandler.GetUser)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(a.users))
		r.Post("/verifyPassword", userHandler.VerifyPassword)
		r.Post("/updateProfile", userHandler.UpdateProfile)
		r.Post("/updateAvatar", userHandler.UpdateAvatar)
	})

	r.Route("/travels", func(r chi.Router) {
		r.Get("/", travelHandler.List)
		r.Post("/", travelHandler.Create)
		r.Get("/{id}", travelHandler.Get)
		r.Put("/{id}", travelHandler.Update)
		r.Delete("/{id}", travelHandler.Delete)
		r.Get("/user/{userId}", travelHandler.UserTours)
		r.With(requireSelf).Post("/user/{userId}/add", travelHandler.AddUserTour)
		r.With(requireSelf).Delete("/user-tours/{userId}/{travelId}", travelHandler.RemoveUserTour)
	})

	r.Get("/popular-tours", catalogHandler.PopularTours)
	r.Get("/popular-tours/{id}", catalogHandler.GetTour)
	r.Get("/popularTours", catalogHandler.PopularTours)
	r.Get("/allTours", catalogHandler.AllTours)
	r.Get("/allTours/{id}", catalogHandler.GetTour)
	r.Get("/tips", catalogHandler.Tips)

	r.Route("/travel-details", func(r chi.Router) {
		r.Get("/", catalogHandler.TravelDetails)
		r.Get("/{id}", catalogHandler.GetTravelDetail)
		r.Get("/{id}/comments", commentHandler.List)
		r.Post("/{id}/comments", commentHandler.Add)
		r.Get("/{id}/comments/ws", commentHandler.Feed)
		r.Delete("/{id}/comments/{commentId}", commentHandler.Delete)
	})

	r.Get("/images/*", staticHandler.Image)
	r.Get("/uploads/avatars/{name}", staticHandler.Avatar)
	r.Get("/health", a.health.Health)
	r.Handle("/metrics", metrics.Handler())

	return r
}
