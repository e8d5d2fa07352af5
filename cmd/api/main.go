package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rewear/rewear-api/internal/config"
	"github.com/rewear/rewear-api/internal/domain/admin"
	"github.com/rewear/rewear-api/internal/domain/auth"
	"github.com/rewear/rewear-api/internal/domain/category"
	"github.com/rewear/rewear-api/internal/domain/dashboard"
	"github.com/rewear/rewear-api/internal/domain/favorite"
	"github.com/rewear/rewear-api/internal/domain/item"
	"github.com/rewear/rewear-api/internal/domain/ledger"
	"github.com/rewear/rewear-api/internal/domain/notification"
	"github.com/rewear/rewear-api/internal/domain/profile"
	"github.com/rewear/rewear-api/internal/domain/swap"
	"github.com/rewear/rewear-api/internal/domain/upload"
	"github.com/rewear/rewear-api/internal/domain/user"
	"github.com/rewear/rewear-api/internal/middleware"
	"github.com/rewear/rewear-api/internal/pkg/database"
	"github.com/rewear/rewear-api/internal/pkg/imaging"
	"github.com/rewear/rewear-api/internal/pkg/jwt"
	"github.com/rewear/rewear-api/internal/pkg/storage"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()

	setupLogger(cfg)

	log.Info().Str("env", cfg.Env).Str("version", version).Msg("Starting ReWear API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if cfg.RunMigrations {
		if err := database.Migrate(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, refresh tokens and WS fan-out disabled")
	}
	if redisClient != nil {
		defer database.CloseRedis(redisClient)
	}

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	store := storage.New(storage.Config{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		AccessKeySecret: cfg.S3AccessKeySecret,
		BucketName:      cfg.S3BucketName,
		PublicURL:       cfg.S3PublicURL,
	})
	processor := imaging.NewProcessor(imaging.DefaultConfig())

	// Repositories
	userRepo := user.NewRepository(db)
	profileRepo := profile.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db)
	categoryRepo := category.NewRepository(db)
	itemRepo := item.NewRepository(db)
	swapRepo := swap.NewRepository(db)
	favoriteRepo := favorite.NewRepository(db)
	notificationRepo := notification.NewRepository(db)
	adminRepo := admin.NewRepository(db)
	dashboardRepo := dashboard.NewRepository(db)

	// Services
	ledgerService := ledger.NewService(ledgerRepo)
	profileService := profile.NewService(profileRepo)

	hub := notification.NewHub(redisClient)
	go hub.Run()
	notificationService := notification.NewService(notificationRepo, hub)

	itemService := item.NewService(db, itemRepo, categoryRepo, ledgerService, int64(cfg.ListingBonusPoints))
	swapService := swap.NewService(db, swapRepo, itemRepo, ledgerService, notificationService)
	authService := auth.NewService(db, userRepo, profileRepo, ledgerService, jwtService, redisClient, int64(cfg.WelcomeBonusPoints))

	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	go notificationService.StartCleanup(cleanupCtx, 6*time.Hour, 30*24*time.Hour)

	// Handlers
	authHandler := auth.NewHandler(authService)
	profileHandler := profile.NewHandler(profileService, itemService)
	categoryHandler := category.NewHandler(categoryRepo)
	itemHandler := item.NewHandler(itemService)
	swapHandler := swap.NewHandler(swapService)
	favoriteHandler := favorite.NewHandler(favoriteRepo, itemRepo)
	notificationHandler := notification.NewHandler(notificationService, hub, cfg.AllowedOrigins)
	ledgerHandler := ledger.NewHandler(ledgerService)
	uploadHandler := upload.NewHandler(store, processor)
	dashboardHandler := dashboard.NewHandler(dashboardRepo, ledgerService)
	adminHandler := admin.NewHandler(adminRepo, userRepo, itemRepo, swapRepo, ledgerService, notificationService)

	authMiddleware := middleware.Auth(jwtService)

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"` + version + `"}`))
	})

	r.Route("/ws", func(ws chi.Router) {
		ws.Use(wsTokenToHeader)
		ws.Use(authMiddleware)
		ws.Get("/", notificationHandler.WebSocket)
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(30 * time.Second))

		api.Mount("/auth", authHandler.Routes(authMiddleware))
		api.Mount("/profiles", profileHandler.Routes(authMiddleware))
		api.Mount("/categories", categoryHandler.Routes())
		api.Mount("/items", itemHandler.Routes(authMiddleware))
		api.Mount("/swaps", swapHandler.Routes(authMiddleware))
		api.Mount("/favorites", favoriteHandler.Routes(authMiddleware))
		api.Mount("/notifications", notificationHandler.Routes(authMiddleware))
		api.Mount("/points", ledgerHandler.Routes(authMiddleware))
		api.Mount("/uploads", uploadHandler.Routes(authMiddleware))
		api.Mount("/dashboard", dashboardHandler.Routes(authMiddleware))
		api.Mount("/admin", adminHandler.Routes(authMiddleware, middleware.RequireAdmin()))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	cancelCleanup()
	hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Server stopped")
}

// wsTokenToHeader copies the access token from the query string into the
// Authorization header. Browsers can't set headers on WebSocket upgrades.
func wsTokenToHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := r.URL.Query().Get("token"); token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		next.ServeHTTP(w, r)
	})
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
