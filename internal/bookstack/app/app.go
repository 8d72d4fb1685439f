package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/smtp"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/cache"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/catalog"
	httpapi "github.com/aussiebroadwan/bookstack/internal/bookstack/http"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/service"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/store"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/store/drivers/postgres"
	"github.com/aussiebroadwan/bookstack/pkg/slogx"
	"github.com/aussiebroadwan/bookstack/pkg/tokenx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"

	verificationTokenTTL = 24 * time.Hour
)

// Application encapsulates the bookstack service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db    store.Store
	redis *redis.Client

	// Services
	authService         *service.AuthService
	userService         *service.UserService
	searchService       *service.SearchService
	suggestService      *service.SuggestService
	historyService      *service.HistoryService
	bookService         *service.BookService
	ratingService       *service.RatingService
	reviewService       *service.ReviewService
	bookmarkService     *service.BookmarkService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "bookstack",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.AuthSecret == "" {
		return nil, fmt.Errorf("AUTH_SECRET must be set")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initRedis(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("bookstack starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down bookstack...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	// Close Redis and database connections
	if err := app.redis.Close(); err != nil {
		app.logger.Error("error closing redis", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("bookstack stopped")
	return nil
}

// initDatabase initializes the database pool and applies migrations.
func (app *Application) initDatabase() error {
	ctx := context.Background()

	db, err := postgres.NewStore(ctx, app.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initRedis connects the Redis client and verifies the connection. The
// revocation registry depends on Redis, so a dead Redis is fatal at boot.
func (app *Application) initRedis() error {
	app.redis = cache.NewClient(cache.Config{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPass,
		DB:       app.cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cache.Ping(ctx, app.redis); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	codec := &tokenx.Codec{
		Secret: []byte(app.cfg.AuthSecret),
		Issuer: app.cfg.Issuer,
	}

	blacklist := cache.NewBlacklist(app.redis)
	results := cache.NewResultCache(app.redis)
	history := cache.NewHistoryStore(app.redis)

	app.authService = &service.AuthService{
		Store:         app.db,
		Codec:         codec,
		Blacklist:     blacklist,
		AccessTTL:     app.cfg.AccessTTL,
		RefreshTTL:    app.cfg.RefreshTTL,
		SingleSession: app.cfg.SingleSession,
	}

	var smtpAuth smtp.Auth
	if app.cfg.SMTPUsername != "" {
		smtpAuth = smtp.PlainAuth("", app.cfg.SMTPUsername, app.cfg.SMTPPassword, app.cfg.SMTPHost)
	}
	app.userService = &service.UserService{
		Store: app.db,
		Mailer: &service.SMTPMailer{
			Addr:    fmt.Sprintf("%s:%d", app.cfg.SMTPHost, app.cfg.SMTPPort),
			From:    app.cfg.MailFrom,
			Auth:    smtpAuth,
			BaseURL: app.cfg.PublicURL,
		},
		VerificationTTL: verificationTokenTTL,
	}

	app.historyService = &service.HistoryService{Store: app.db, Cache: history}
	app.searchService = &service.SearchService{
		Store:   app.db,
		Cache:   results,
		History: app.historyService,
	}
	app.suggestService = &service.SuggestService{Store: app.db, Cache: results}

	app.bookService = &service.BookService{
		Store:       app.db,
		Catalog:     catalog.NewClient(app.cfg.CatalogURL, app.cfg.UpstreamTO, app.cfg.UpstreamRPS),
		Recommender: catalog.NewRecommender(app.cfg.RecommenderURL, app.cfg.UpstreamTO, app.cfg.UpstreamRPS),
	}

	app.ratingService = &service.RatingService{Store: app.db}
	app.reviewService = &service.ReviewService{Store: app.db, Cache: results}
	app.bookmarkService = &service.BookmarkService{Store: app.db, Cache: results}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.HistoryRetention,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.redis,
		app.logger,
	)

	// Wire services to router
	router.AuthService = app.authService
	router.UserService = app.userService
	router.SearchService = app.searchService
	router.SuggestService = app.suggestService
	router.HistoryService = app.historyService
	router.BookService = app.bookService
	router.RatingService = app.ratingService
	router.ReviewService = app.reviewService
	router.BookmarkService = app.bookmarkService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
