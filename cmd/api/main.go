package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/tariff_api/internal/cache"
	"github.com/GTDGit/tariff_api/internal/catalog"
	"github.com/GTDGit/tariff_api/internal/config"
	"github.com/GTDGit/tariff_api/internal/database"
	"github.com/GTDGit/tariff_api/internal/handler"
	"github.com/GTDGit/tariff_api/internal/middleware"
	"github.com/GTDGit/tariff_api/internal/repository"
	"github.com/GTDGit/tariff_api/internal/service"
	"github.com/GTDGit/tariff_api/internal/worker"
)

// main is the application entrypoint for the tariff lookup API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Str("source", cfg.Catalog.Source).Msg("starting tariff api")

	// 3. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Load reference data
	cat, loadErr := loadCatalog(ctx, cfg)
	if loadErr != nil {
		log.Error().Err(loadErr).Msg("reference data could not be loaded, serving DATA_LOAD_ERROR")
	} else {
		stats := cat.Stats()
		log.Info().
			Str("version", stats.Version).
			Int("tariffs", stats.Tariffs).
			Int("postal_codes", stats.PostalCodes).
			Int("value_ranges", stats.ValueRanges).
			Msg("reference data loaded")
	}

	// 5. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.HTTP.AllowedHosts))
	router.Use(middleware.LoggingMiddleware())

	if loadErr != nil {
		setupBlockedRoutes(router, handler.NewHealthHandler(nil, loadErr, cfg.Catalog.Source), loadErr)
	} else {
		// 5a. Connect to Redis (optional)
		var tariffCache service.TariffCache
		if cfg.Redis.Enabled() {
			redisClient, err := cache.NewRedisClient(ctx, &cfg.Redis)
			if err != nil {
				log.Warn().Err(err).Msg("redis connection failed - tariff cache disabled")
			} else {
				defer redisClient.Close()
				tariffCache = cache.NewTariffCache(redisClient, cfg.Redis.TTL)
				log.Info().Msg("redis connected successfully")
			}
		}

		// 5b. Initialize services
		resolver := service.NewCantonResolver(cat)
		engine := service.NewTariffQueryEngine(cat)
		eligibility := service.NewEligibilityService(cat, resolver, engine, tariffCache)

		// 5c. Start cache warm worker
		if tariffCache != nil && cfg.Redis.WarmInterval > 0 {
			go worker.NewCacheWarmWorker(cat, engine, tariffCache, cfg.Redis.WarmInterval).Start(ctx)
		}

		// 5d. Initialize handlers
		handlers := &Handlers{
			Health:    handler.NewHealthHandler(cat, nil, cfg.Catalog.Source),
			Canton:    handler.NewCantonHandler(resolver),
			Reference: handler.NewReferenceHandler(cat),
			Tariff:    handler.NewTariffHandler(eligibility, cat),
		}

		var limiter *middleware.RateLimiter
		if cfg.HTTP.RateLimitPerMinute > 0 {
			limiter = middleware.NewRateLimiter(ctx, cfg.HTTP.RateLimitPerMinute, time.Minute)
		}
		setupRoutes(router, handlers, limiter)
	}

	// 6. Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 7. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 8. Cancel context to stop background goroutines
	cancel()

	// 9. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health    *handler.HealthHandler
	Canton    *handler.CantonHandler
	Reference *handler.ReferenceHandler
	Tariff    *handler.TariffHandler
}

// setupRoutes registers all routes. limiter may be nil.
func setupRoutes(router *gin.Engine, handlers *Handlers, limiter *middleware.RateLimiter) {
	v1 := router.Group("/v1")
	{
		v1.GET("/health", handlers.Health.GetHealth)
		v1.GET("/cantons", handlers.Canton.GetCantons)
		v1.GET("/deductibles", handlers.Reference.GetDeductibles)
		v1.GET("/age-bracket", handlers.Reference.GetAgeBracket)
		v1.GET("/value-ranges", handlers.Reference.GetValueRanges)
	}

	search := router.Group("/v1/tariffs")
	if limiter != nil {
		search.Use(limiter.Handle())
	}
	search.POST("/search", handlers.Tariff.Search)
}

// setupBlockedRoutes answers every /v1 request with the load error. Nothing
// is queried until the process is restarted with valid reference data.
func setupBlockedRoutes(router *gin.Engine, health *handler.HealthHandler, loadErr error) {
	router.GET("/v1/health", health.GetHealth)
	router.NoRoute(middleware.CatalogGuard(loadErr))
}

// loadCatalog builds the configured source and loads the reference tables.
// Database connections are closed once the tables are in memory.
func loadCatalog(ctx context.Context, cfg *config.Config) (*catalog.Catalog, error) {
	loadCtx, cancel := context.WithTimeout(ctx, cfg.Catalog.LoadTimeout)
	defer cancel()

	tariffs := catalog.FileSpec{Path: cfg.Catalog.TariffFile, Sheet: cfg.Catalog.TariffSheet}
	valueRanges := catalog.FileSpec{Path: cfg.Catalog.ValueRangesFile, Sheet: cfg.Catalog.ValueRangesSheet}
	postal := catalog.FileSpec{Path: cfg.Catalog.PostalFile, Sheet: cfg.Catalog.PostalSheet}

	switch cfg.Catalog.Source {
	case config.SourceS3:
		s3Svc, err := service.NewS3Service(loadCtx, &cfg.S3)
		if err != nil {
			return nil, err
		}
		return catalog.Load(loadCtx, catalog.NewObjectSource(s3Svc, tariffs, valueRanges, postal))

	case config.SourcePostgres:
		db, err := database.Connect(loadCtx, &cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		defer db.Close()

		if err := database.Migrate(db.DB, cfg.DB.MigrationsPath); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		log.Info().Msg("migrations completed successfully")
		return catalog.Load(loadCtx, repository.NewReferenceRepository(db))

	default:
		return catalog.Load(loadCtx, &catalog.FileSource{Tariffs: tariffs, ValueRanges: valueRanges, Postal: postal})
	}
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
