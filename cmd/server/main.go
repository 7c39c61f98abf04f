package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/clinicrx/backend/internal/application/catalog"
	commissionapp "github.com/clinicrx/backend/internal/application/commission"
	financeapp "github.com/clinicrx/backend/internal/application/finance"
	reportapp "github.com/clinicrx/backend/internal/application/report"
	tradeapp "github.com/clinicrx/backend/internal/application/trade"
	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/clinicrx/backend/internal/domain/state"
	"github.com/clinicrx/backend/internal/infrastructure/cache"
	"github.com/clinicrx/backend/internal/infrastructure/config"
	"github.com/clinicrx/backend/internal/infrastructure/event"
	"github.com/clinicrx/backend/internal/infrastructure/logger"
	"github.com/clinicrx/backend/internal/infrastructure/persistence"
	"github.com/clinicrx/backend/internal/infrastructure/store"
	"github.com/clinicrx/backend/internal/infrastructure/telemetry"
	"github.com/clinicrx/backend/internal/interfaces/http/handler"
	"github.com/clinicrx/backend/internal/interfaces/http/middleware"
	"github.com/clinicrx/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceVersion = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting clinic backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("persistence", cfg.Persistence.Backend),
	)

	shared.Tolerance = cfg.Ledger.Tolerance

	ctx := logger.WithOperator(logger.WithContext(context.Background(), log), "startup")

	// Telemetry
	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    serviceVersion,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	meter := meterProvider.Meter(cfg.Telemetry.ServiceName)

	// Redis is shared by the snapshot repository and the idempotency store
	var redisClient *redis.Client
	if cfg.Persistence.Backend == "redis" || (cfg.Idempotency.Enabled && cfg.Idempotency.Backend == "redis") {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			if cfg.Persistence.Backend == "redis" {
				log.Fatal("Failed to connect to Redis", zap.Error(err))
			}
			log.Warn("Redis unavailable", zap.Error(err))
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					log.Error("Error closing Redis client", zap.Error(err))
				}
			}()
		}
	}

	// Snapshot repository
	var (
		db        *persistence.Database
		dbMetrics *telemetry.DBMetrics
		repo      state.SnapshotRepository
	)
	switch cfg.Persistence.Backend {
	case "gorm":
		gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 200*time.Millisecond)
		db, err = persistence.NewDatabase(&cfg.Database, gormLog)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}()
		if err := db.EnsureSchema(); err != nil {
			log.Fatal("Failed to prepare database schema", zap.Error(err))
		}

		dbSystem := "postgresql"
		if db.Driver == "sqlite" {
			dbSystem = "sqlite"
		}
		if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
			Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
			DBSystem:   dbSystem,
			LogFullSQL: cfg.App.Env == "development",
		}, log); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
		if sqlDB, err := db.DB.DB(); err == nil {
			dbMetrics, err = telemetry.NewDBMetrics(meter, sqlDB, cfg.Telemetry.MetricsInterval, log)
			if err != nil {
				log.Fatal("Failed to initialize database metrics", zap.Error(err))
			}
		}
		repo = persistence.NewGormSnapshotRepository(db.DB, cfg.Persistence.Retain)
		log.Info("Database connected successfully", zap.String("driver", db.Driver))
	case "redis":
		repo = persistence.NewRedisSnapshotRepository(redisClient, cfg.Persistence.RedisKey)
	default:
		log.Warn("Persistence disabled, state is lost on restart")
	}

	// Restore the last saved snapshot
	appStore := store.NewMemoryStore(nil, log)
	if repo != nil {
		snap, err := repo.Load(ctx)
		switch {
		case errors.Is(err, state.ErrNoSnapshot):
			log.Info("No saved snapshot, starting empty")
		case err != nil:
			log.Fatal("Failed to load snapshot", zap.Error(err))
		default:
			appStore.Replace(snap)
			log.Info("Snapshot restored",
				zap.Int64("revision", snap.Revision),
				zap.Int("items", snap.Items.Len()),
			)
		}
	}

	// Application services
	itemService := catalogapp.NewItemService(appStore)
	purchaseService := tradeapp.NewPurchaseInvoiceService(appStore)
	salesService := tradeapp.NewSalesInvoiceService(appStore)
	dueService := financeapp.NewDueSettlementService(appStore)
	commissionService := commissionapp.NewCommissionService(appStore)
	reportService := reportapp.NewReportService(appStore, cfg.Ledger.LowStockThreshold)

	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:             meter,
		Logger:            log,
		InventoryProvider: reportService,
	})
	if err != nil {
		log.Fatal("Failed to initialize business metrics", zap.Error(err))
	}
	purchaseService.SetBusinessMetrics(businessMetrics)
	salesService.SetBusinessMetrics(businessMetrics)
	dueService.SetBusinessMetrics(businessMetrics)
	commissionService.SetBusinessMetrics(businessMetrics)

	// Event bus: metrics and the snapshot saver observe every committed change
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(businessMetrics)

	var saver *persistence.SnapshotSaver
	if repo != nil {
		saver = persistence.NewSnapshotSaver(appStore, repo, persistence.SaverConfig{
			Debounce:     cfg.Persistence.Debounce,
			AutosaveCron: cfg.Persistence.AutosaveCron,
		}, log)
		saver.MarkSaved(appStore.Revision())
		saver.SetRecorder(businessMetrics)
		eventBus.Subscribe(saver)
	}

	itemService.SetEventPublisher(eventBus)
	purchaseService.SetEventPublisher(eventBus)
	salesService.SetEventPublisher(eventBus)
	dueService.SetEventPublisher(eventBus)
	commissionService.SetEventPublisher(eventBus)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	if saver != nil {
		if err := saver.Start(ctx); err != nil {
			log.Fatal("Failed to start snapshot saver", zap.Error(err))
		}
	}
	businessMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.MetricsInterval)
	if dbMetrics != nil {
		dbMetrics.Start(ctx)
	}

	// HTTP
	var idempotencyStore shared.IdempotencyStore
	if cfg.Idempotency.Enabled {
		idempotencyStore = cache.NewIdempotencyStore(cfg.Idempotency, redisClient, log)
	}

	engine, err := router.NewEngine(router.EngineConfig{
		Logger: log,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Meter:          meter,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Idempotency:    idempotencyStore,
		IdempotencyTTL: cfg.Idempotency.TTL,
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	r := router.NewRouter(engine)
	router.RegisterAPI(r, router.Handlers{
		Items:      handler.NewItemHandler(itemService),
		Purchases:  handler.NewPurchaseHandler(purchaseService),
		Sales:      handler.NewSalesHandler(salesService),
		Finance:    handler.NewFinanceHandler(dueService),
		Commission: handler.NewCommissionHandler(commissionService),
		Reports:    handler.NewReportHandler(reportService),
	})
	r.Setup()

	systemHandler := handler.NewSystemHandler(appStore)
	if db != nil {
		systemHandler.AddCheck("database", func(context.Context) error { return db.Ping() })
	}
	if redisClient != nil {
		systemHandler.AddCheck("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}
	router.RegisterSystem(engine, systemHandler)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Write whatever the last requests committed before the bus goes away
	if saver != nil {
		if err := saver.Stop(shutdownCtx); err != nil {
			log.Error("Final snapshot save failed", zap.Error(err))
		}
	}
	_ = eventBus.Stop(shutdownCtx)
	businessMetrics.Stop()
	if dbMetrics != nil {
		dbMetrics.Stop()
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracer provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
