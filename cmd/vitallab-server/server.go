package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vitallab/vitallab/internal/config"
	"github.com/vitallab/vitallab/internal/domain/cases"
	"github.com/vitallab/vitallab/internal/domain/labs"
	"github.com/vitallab/vitallab/internal/domain/tracks"
	"github.com/vitallab/vitallab/internal/domain/vitals"
	"github.com/vitallab/vitallab/internal/platform/cache"
	"github.com/vitallab/vitallab/internal/platform/db"
	"github.com/vitallab/vitallab/internal/platform/middleware"
	"github.com/vitallab/vitallab/internal/platform/vitaldb"
	"github.com/vitallab/vitallab/internal/platform/wire"
)

const redisKeyPrefix = "vitallab:"

// services holds the domain services behind the API and the sync commands.
type services struct {
	cases  *cases.Service
	tracks *tracks.Service
	labs   *labs.Service
	vitals *vitals.Service
}

func newClient(cfg *config.Config, logger zerolog.Logger) *vitaldb.Client {
	return vitaldb.NewClient(vitaldb.Config{
		BaseURL:    cfg.VitalDBURL,
		Timeout:    cfg.VitalDBTimeout(),
		RetryCount: cfg.VitalDBRetryCount,
	}, logger)
}

// readSource wraps the client in the payload cache selected by CACHE_MODE.
// List payloads are cached in every mode; track payloads only in redis mode,
// where entries expire after CACHE_TTL. The returned close function releases
// the cache backend.
func readSource(ctx context.Context, cfg *config.Config, client vitaldb.Source, logger zerolog.Logger) (vitaldb.Source, func(), error) {
	closeFn := func() {}

	switch cfg.CacheMode {
	case config.CacheNone:
		return client, closeFn, nil
	case config.CacheRedis:
		rdb, err := cache.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		store := cache.NewRedis(rdb, redisKeyPrefix, cfg.CacheTTL)
		closeFn = func() { _ = rdb.Close() }
		logger.Info().Dur("ttl", cfg.CacheTTL).Msg("using redis payload cache")
		return vitaldb.NewCachedSource(client,
			cache.NewLoader("vitaldb", store, logger),
			cache.NewLoader("vitaldb_tracks", store, logger),
		), closeFn, nil
	default:
		lists := cache.NewLoader("vitaldb", cache.NewMemory(), logger)
		return vitaldb.NewCachedSource(client, lists, nil), closeFn, nil
	}
}

// newServices wires repositories for the configured data sources. read
// serves API reads in remote mode; upstream feeds synchronization. pool may
// be nil when nothing needs the database.
func newServices(cfg *config.Config, pool *pgxpool.Pool, read, upstream vitaldb.Source, logger zerolog.Logger) (*services, error) {
	s := &services{}

	var trackRepo tracks.Repository
	switch cfg.DataSource {
	case config.DataSourceLocal:
		if pool == nil {
			return nil, fmt.Errorf("data source %q needs a database", cfg.DataSource)
		}
		caseRepo := cases.NewCaseRepoPG(pool)
		trackStore := tracks.NewTrackRepoPG(pool, cfg.SyncBatchSize)
		labRepo := labs.NewLabRepoPG(pool)

		s.cases = cases.NewService(caseRepo, caseRepo, upstream, logger)
		s.tracks = tracks.NewService(trackStore, trackStore, upstream, logger)
		s.labs = labs.NewService(labRepo, labRepo, upstream, logger)
		trackRepo = trackStore
	default:
		trackRemote := tracks.NewRemoteRepo(read)

		s.cases = cases.NewService(cases.NewRemoteRepo(read), nil, nil, logger)
		s.tracks = tracks.NewService(trackRemote, nil, nil, logger)
		s.labs = labs.NewService(labs.NewRemoteRepo(read), nil, nil, logger)
		trackRepo = trackRemote
	}

	var tables vitals.TableSource
	switch cfg.VitalsSource {
	case config.VitalsStore:
		if pool == nil {
			return nil, fmt.Errorf("vitals source %q needs a database", cfg.VitalsSource)
		}
		if cfg.DataSource != config.DataSourceLocal {
			trackRepo = tracks.NewTrackRepoPG(pool, cfg.SyncBatchSize)
		}
		tables = vitals.NewStoreSource(trackRepo, cfg.SyncConcurrency)
	default:
		tables = vitals.NewFileSource(cfg.VitalsDataDir)
	}
	s.vitals = vitals.NewService(tables, s.cases, logger)

	return s, nil
}

// newServer builds the echo instance with middleware and routes. pool is
// nil when the API runs without a database.
func newServer(cfg *config.Config, svc *services, pool *pgxpool.Pool, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = wire.Serializer{}
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Metrics())
	e.Use(middleware.SecurityHeaders(middleware.SecurityConfig{
		HSTS:      cfg.IsProduction(),
		DocsPaths: []string{"/docs"},
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", "X-Request-ID", "If-None-Match"},
	}))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy", "version": "v1"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool, db.NewMigrator(pool, cfg.MigrationsDir), cfg.DBSchema))
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API group
	apiV1 := e.Group(apiPrefix)
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           middleware.DefaultRateLimitConfig().IdleTTL,
	}))
	apiV1.Use(middleware.ETag(middleware.DefaultCacheConfig()))
	if pool != nil {
		apiV1.Use(db.ConnMiddleware(pool))
	}

	cases.NewHandler(svc.cases).RegisterRoutes(apiV1)
	tracks.NewHandler(svc.tracks).RegisterRoutes(apiV1)
	labs.NewHandler(svc.labs).RegisterRoutes(apiV1)
	vitals.NewHandler(svc.vitals).RegisterRoutes(apiV1)

	apiDocs().RegisterRoutes(e.Group(""))

	return e
}

func runServer() error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx := context.Background()

	// Database
	var pool *pgxpool.Pool
	if cfg.NeedsDatabase() {
		pool, err = openPool(ctx, cfg, cfg.DBSchema)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		logger.Info().Str("schema", cfg.DBSchema).Msg("connected to database")
	}

	// Upstream
	client := newClient(cfg, logger)
	read, closeCache, err := readSource(ctx, cfg, client, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up payload cache")
	}
	defer closeCache()

	svc, err := newServices(cfg, pool, read, client, logger)
	if err != nil {
		return err
	}
	e := newServer(cfg, svc, pool, logger)

	logger.Info().
		Str("data_source", cfg.DataSource).
		Str("vitals_source", cfg.VitalsSource).
		Str("cache_mode", cfg.CacheMode).
		Msg("api configured")

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
