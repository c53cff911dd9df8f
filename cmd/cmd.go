package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"story-backend/internal/config"
	"story-backend/internal/handlers"
	"story-backend/internal/media"
	"story-backend/internal/middleware"
	"story-backend/internal/models"
	"story-backend/internal/repository"
	"story-backend/internal/services"
	"story-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 15 * time.Second

func Run() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	db, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	if err := repository.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database schema")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	storyRepo := repository.NewStoryRepository(db)
	relationRepo := repository.NewRelationRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)
	elementRepo := repository.NewElementRepository(db)
	archiveRepo := repository.NewArchiveRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	blobs, err := storage.NewS3Store(ctx, cfg.AWS)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create S3 store")
	}

	var notifier services.Notifier = services.NoopNotifier{}
	if cfg.APNs.Enabled {
		apns, err := services.NewAPNsNotifier(cfg.APNs, userRepo)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create APNs notifier")
		}
		notifier = apns
	}

	// Initialize services
	wsHub := services.NewWSHub()
	userService := services.NewUserService(userRepo, cfg.JWT.Secret, cfg.JWT.ExpiryDays, nil)
	relationService := services.NewRelationService(relationRepo, userRepo, nil)
	visibility := services.NewVisibilityResolver(storyRepo, relationRepo, nil)
	quotaService := services.NewQuotaService(storyRepo, archiveRepo, cfg.Story.QuotaLimitBytes, cfg.Story.ArchivedSizeEstimateBytes)
	elementService := services.NewElementService(storyRepo, elementRepo, visibility, wsHub, nil)
	analyticsService := services.NewAnalyticsService(storyRepo, engagementRepo, elementRepo, nil)
	storyService := services.NewStoryService(services.StoryDeps{
		Stories:    storyRepo,
		Relations:  relationRepo,
		Engagement: engagementRepo,
		Elements:   elementRepo,
		Archive:    archiveRepo,
		Threads:    messageRepo,
		Blobs:      blobs,
		Media: media.NewProcessor(media.Limits{
			MaxFileSizeBytes: cfg.Story.MaxFileSizeBytes,
			MaxWidth:         cfg.Story.MaxImageWidth,
			MaxHeight:        cfg.Story.MaxImageHeight,
			MaxPixels:        cfg.Story.MaxImagePixels,
		}),
		Quota:      quotaService,
		Visibility: visibility,
		Builder:    elementService,
		Publisher:  wsHub,
		Notifier:   notifier,
	}, services.StoryOptions{
		DefaultDurationHours: cfg.Story.DefaultDurationHours,
		FeedLimit:            cfg.Story.FeedLimit,
	}, nil)

	sweeper := services.NewSweeper(storyService, cfg.Story.SweepInterval)
	go sweeper.Run(ctx)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	relationHandler := handlers.NewRelationHandler(relationService)
	storyHandler := handlers.NewStoryHandler(storyService, quotaService, elementService, cfg.Story.MaxFileSizeBytes)
	archiveHandler := handlers.NewArchiveHandler(storyService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	elementHandler := handlers.NewElementHandler(elementService)
	wsHandler := handlers.NewWebSocketHandler(wsHub, userService, visibility)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/users", userHandler.CreateUser)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))

			r.Put("/users/me/push-token", userHandler.UpdatePushToken)

			relationRoutes := map[string]models.RelationKind{
				"/follows":       models.RelationFollow,
				"/close-friends": models.RelationCloseFriend,
				"/blocks":        models.RelationBlock,
				"/hidden":        models.RelationHidden,
			}
			for prefix, kind := range relationRoutes {
				r.Post(prefix+"/{user_id}", relationHandler.Add(kind))
				r.Delete(prefix+"/{user_id}", relationHandler.Remove(kind))
			}

			r.Route("/stories", func(r chi.Router) {
				r.Post("/", storyHandler.CreateStory)
				r.Get("/", storyHandler.ListStories)
				r.Get("/quota", storyHandler.GetQuota)

				r.Route("/{story_id}", func(r chi.Router) {
					r.Get("/", storyHandler.GetStory)
					r.Delete("/", storyHandler.DeleteStory)
					r.Put("/privacy", storyHandler.UpdatePrivacy)
					r.Put("/duration", storyHandler.UpdateDuration)
					r.Post("/views", storyHandler.RecordView)
					r.Post("/reactions", storyHandler.React)
					r.Post("/replies", storyHandler.Reply)
					r.Get("/elements", storyHandler.ListElements)
					r.Post("/elements", storyHandler.AddElement)
					r.Get("/viewers", analyticsHandler.GetViewers)
					r.Get("/analytics", analyticsHandler.GetAnalytics)
					r.Get("/analytics/export", analyticsHandler.Export)
				})
			})

			r.Post("/elements/{element_id}/responses", elementHandler.RecordResponse)
			r.Get("/elements/{element_id}/results", elementHandler.PollResults)

			r.Get("/archive", archiveHandler.ListArchive)
			r.Post("/archive/{archive_id}/restore", archiveHandler.Restore)
			r.Delete("/archive/{archive_id}", archiveHandler.Purge)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Stop the sweeper before the pool goes away
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Shutdown HTTP server
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level, format string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
