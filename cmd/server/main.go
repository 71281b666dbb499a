package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/dallastaras/nutrikpi/internal/config"
	"github.com/dallastaras/nutrikpi/internal/repository/cache"
	"github.com/dallastaras/nutrikpi/internal/repository/mongodb"
	"github.com/dallastaras/nutrikpi/internal/repository/sheets"
	"github.com/dallastaras/nutrikpi/internal/scheduler"
	"github.com/dallastaras/nutrikpi/internal/server/handlers"
	"github.com/dallastaras/nutrikpi/internal/server/router"
	importersvc "github.com/dallastaras/nutrikpi/internal/service/importer"
	reportingsvc "github.com/dallastaras/nutrikpi/internal/service/reporting"
	"github.com/dallastaras/nutrikpi/pkg/clients/notify"
	"github.com/dallastaras/nutrikpi/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	var metricCache cache.Cache
	if cfg.Redis.Enabled() {
		redisCache, err := cache.NewRedisCache(context.Background(), cfg.Redis)
		if err != nil {
			baseLogger.Fatal("failed to init redis cache", zap.Error(err))
		}
		defer func() { _ = redisCache.Close() }()
		metricCache = redisCache
		baseLogger.Info("redis metric cache enabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		baseLogger.Warn("redis address missing, metric caching disabled")
	}

	// Both stay nil when no spreadsheet is configured.
	var importHTTP handlers.ImportService
	var importJob scheduler.Importer
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		importSvc := importersvc.NewService(sheetsRepo, mongoRepo, metricCache, cfg.Reporting.DistrictID, cfg.Sheets.MetricsRange, baseLogger.Named("svc.importer"))
		importHTTP, importJob = importSvc, importSvc
	} else {
		baseLogger.Warn("google sheets credentials missing, metrics import disabled")
	}

	var notifier notify.Client = notify.Noop{}
	if cfg.Notify.Enabled() {
		notifier = notify.NewClient(cfg.Notify)
	} else {
		baseLogger.Warn("notification webhook missing, weekly digest will only be stored")
	}

	reportingSvc := reportingsvc.NewService(mongoRepo, mongoRepo, metricCache, baseLogger.Named("svc.reporting"))
	kpiHandler := handlers.NewKPIHandler(reportingSvc, importHTTP, baseLogger.Named("handlers.kpi"))
	engine := router.New(kpiHandler, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, reportingSvc, importJob, notifier, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
