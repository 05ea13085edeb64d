package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	approvalapp "github.com/vendorportal/backend/internal/application/approval"
	syncapp "github.com/vendorportal/backend/internal/application/sync"
	"github.com/vendorportal/backend/internal/infrastructure/auth"
	"github.com/vendorportal/backend/internal/infrastructure/config"
	"github.com/vendorportal/backend/internal/infrastructure/lock"
	"github.com/vendorportal/backend/internal/infrastructure/logger"
	"github.com/vendorportal/backend/internal/infrastructure/netsuite"
	"github.com/vendorportal/backend/internal/infrastructure/notify"
	"github.com/vendorportal/backend/internal/infrastructure/persistence"
	"github.com/vendorportal/backend/internal/infrastructure/scheduler"
	"github.com/vendorportal/backend/internal/infrastructure/telemetry"
	"github.com/vendorportal/backend/internal/interfaces/http/handler"
	"github.com/vendorportal/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

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
		_ = logger.Sync(log)
	}()

	log.Info("Starting vendor portal backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("netsuite_env", cfg.NetSuite.Environment),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Telemetry: tracing, metrics and continuous profiling.
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:             cfg.Telemetry.ProfilerEnabled,
		ServerAddress:       cfg.Telemetry.ProfilerAddress,
		ApplicationName:     cfg.App.Name,
		ProfileCPU:          true,
		ProfileAllocObjects: true,
		ProfileAllocSpace:   true,
		ProfileInuseObjects: true,
		ProfileInuseSpace:   true,
		ProfileGoroutines:   true,
	}, log)
	if err != nil {
		log.Warn("Continuous profiling unavailable", zap.Error(err))
	} else {
		defer func() {
			if err := profiler.Stop(); err != nil {
				log.Error("Error stopping profiler", zap.Error(err))
			}
		}()
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.ProfilerEnabled {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Span profiles unavailable", zap.Error(err))
		}
	}

	// Database.
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, gormLogLevel)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled {
		if err := db.EnableTracing(cfg.Database.DBName); err != nil {
			log.Warn("Database tracing unavailable", zap.Error(err))
		}
	}
	log.Info("Database connected")

	// Row locker: Redis when reachable, in-process otherwise.
	lockerFactory := lock.NewRowLockerFactory(cfg.Redis, lock.WithLogger(log))
	locker, err := lockerFactory.CreateLocker()
	if err != nil {
		log.Fatal("Failed to create row locker", zap.Error(err))
	}

	// Sync metrics shared by the sync and approval services.
	syncMetrics, err := telemetry.NewSyncMetrics(meterProvider.Meter("vendorportal-backend/sync"), log)
	if err != nil {
		log.Warn("Sync metrics unavailable", zap.Error(err))
	}

	// NetSuite gateway provider. Settings are re-read per sync run so an
	// environment or credential switch takes effect without a restart.
	provider, err := netsuite.NewProvider(func() (*config.NetSuiteConfig, error) {
		fresh, err := config.Load()
		if err != nil {
			return nil, err
		}
		return &fresh.NetSuite, nil
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize NetSuite provider", zap.Error(err))
	}
	if syncMetrics != nil {
		provider = provider.WithMetrics(syncMetrics)
	}

	// Repositories.
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	itemRepo := persistence.NewGormItemRepository(db.DB)
	orderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	commentRepo := persistence.NewGormCommentRepository(db.DB)
	syncLogRepo := persistence.NewGormSyncLogRepository(db.DB)

	// Application services.
	notifier := notify.NewWebhookNotifier(&cfg.Notify, log)

	syncService := syncapp.NewService(provider, accountRepo, itemRepo, orderRepo,
		syncLogRepo, locker, notifier, &cfg.Sync, log)
	approvalService := approvalapp.NewService(provider, orderRepo, commentRepo,
		locker, notifier, log)
	if syncMetrics != nil {
		syncService.SetMetrics(syncMetrics)
		approvalService.SetMetrics(syncMetrics)
	}

	// Scheduled syncs.
	syncScheduler := scheduler.NewSyncScheduler(&cfg.Scheduler, syncService, log)
	if err := syncScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start sync scheduler", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := syncScheduler.Stop(stopCtx); err != nil {
			log.Error("Error stopping sync scheduler", zap.Error(err))
		}
	}()

	// HTTP surface.
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := router.New(router.Deps{
		Config:   cfg,
		Logger:   log,
		Verifier: auth.NewTokenVerifier(&cfg.Auth),
		Meter:    meterProvider,
		Health:   handler.NewHealthHandler(db.DB, version),
		Sync:     handler.NewSyncHandler(syncService, syncLogRepo),
		Approval: handler.NewApprovalHandler(approvalService),
	})

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
