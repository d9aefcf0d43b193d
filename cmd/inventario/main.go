package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/inventario/inventario/internal/app"
	"github.com/inventario/inventario/internal/auth"
	"github.com/inventario/inventario/internal/cart"
	"github.com/inventario/inventario/internal/catalog"
	"github.com/inventario/inventario/internal/observability"
	"github.com/inventario/inventario/internal/platform/cache"
	"github.com/inventario/inventario/internal/platform/db"
	"github.com/inventario/inventario/internal/session"
	"github.com/inventario/inventario/internal/shared"
	"github.com/inventario/inventario/internal/view"
	"github.com/inventario/inventario/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()
	if err := db.Migrate(ctx, dbpool); err != nil {
		logger.Error("migrate schema", slog.Any("error", err))
		os.Exit(1)
	}

	// Redis is mandatory for the redis session backend and optional otherwise:
	// without it statistics are computed on every request and no warmups are queued.
	redisClient, err := cache.Connect(ctx, cfg.RedisAddr, 5*time.Second)
	if err != nil {
		if cfg.SessionBackend == app.SessionBackendRedis {
			logger.Error("connect redis", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Warn("redis unavailable, running without cache and job queue", slog.Any("error", err))
		redisClient = nil
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	store := newSessionStore(cfg, redisClient)
	sessions := session.NewManager(store, session.Config{
		IdleTimeout:  cfg.SessionIdleTimeout,
		Secure:       cfg.IsProduction(),
		StoreTimeout: cfg.StoreTimeout,
	}, logger)
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret, cfg.IsProduction())

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	authService := auth.NewService(auth.NewRepository(dbpool), logger, cfg.StoreTimeout)
	if cfg.BootstrapAccounts {
		if err := authService.Bootstrap(ctx, auth.DefaultSeedAccounts()); err != nil {
			logger.Error("bootstrap accounts", slog.Any("error", err))
			os.Exit(1)
		}
	}

	catalogRepo := catalog.NewRepository(dbpool)
	var statsCache catalog.StatsCache
	var queue jobs.WarmupEnqueuer
	jobHandler := jobs.NewHandler(nil, logger)
	if redisClient != nil {
		statsCache = cache.NewVersioned(redisClient, "catalog:stats", cfg.StatsCacheTTL)

		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		jobClient := jobs.NewClient(redisOpts)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		queue = jobClient

		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	}
	statsService := catalog.NewStatsService(catalogRepo, statsCache, logger, cfg.StoreTimeout)
	catalogService := catalog.NewService(catalogRepo, catalogRepo, logger, cfg.StoreTimeout).
		WithInvalidator(jobs.CatalogChanged{Stats: statsService, Queue: queue, Logger: logger})

	cartService := cart.NewService(store, catalogService, cfg.StoreTimeout)
	pages := view.NewPages(templates, csrfManager, sessions, logger).WithCartCounter(cartService)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Sessions:       sessions,
		CSRF:           csrfManager,
		Pages:          pages,
		Metrics:        metrics,
		AuthHandler:    auth.NewHandler(logger, authService, pages, sessions, metrics),
		CatalogHandler: catalog.NewHandler(logger, catalogService, statsService, pages),
		CartHandler:    cart.NewHandler(logger, cartService, pages, metrics),
		JobHandler:     jobHandler,
		AccessLog:      true,
	})

	if cfg.SessionBackend == app.SessionBackendMemory {
		sweep := jobs.NewSessionSweepJob(sessions, logger, metrics.Jobs(), 30*time.Second)
		scheduler, err := jobs.Schedule(cfg.SessionSweepSpec, sweep, logger)
		if err != nil {
			logger.Error("schedule session sweep", slog.Any("error", err))
			os.Exit(1)
		}
		scheduler.Start()
		defer func() { <-scheduler.Stop().Done() }()
	}

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("sessions", cfg.SessionBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func newSessionStore(cfg *app.Config, client *redis.Client) session.Store {
	if cfg.SessionBackend == app.SessionBackendRedis && client != nil {
		return session.NewRedisStore(client, cfg.SessionIdleTimeout)
	}
	return session.NewMemoryStore()
}
