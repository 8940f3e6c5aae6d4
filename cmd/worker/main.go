package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pulibrary/pdc-describe-sub000/internal/adapters/alert"
	"github.com/pulibrary/pdc-describe-sub000/internal/adapters/eventbroker/nats"
	"github.com/pulibrary/pdc-describe-sub000/internal/adapters/repository/postgres"
	"github.com/pulibrary/pdc-describe-sub000/internal/adapters/storage"
	"github.com/pulibrary/pdc-describe-sub000/internal/config"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/port"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/service/activity"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/service/cleanup"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/service/completion"
	"github.com/robfig/cron/v3"
)

func main() {

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	// Initialize database
	db, err := postgres.Open(ctx, cfg.Database, 5*time.Second)
	if err != nil {
		logger.Error("failed to init database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()
	logger.Info("db connection established")

	objectStore, err := storage.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to init object store", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	logger.Info("object store initialized", "driver", cfg.Storage.Driver)

	publisher, err := nats.NewNATSPublisher(ctx, cfg.NATS, logger)
	if err != nil {
		logger.Error("failed to init NATS publisher", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close NATS publisher", "error", err)
		}
	}()

	// Initialize services
	unitOfWork := postgres.NewUnitOfWork(db)
	alerter := alert.New(cfg.Alert, logger)
	notifier := activity.NewActivityNotifier(publisher, logger)
	completionService := completion.NewCompletionService(unitOfWork, objectStore, alerter, notifier, cfg.Migration, logger)
	cleanupService := cleanup.NewCleanupService(unitOfWork, alerter, cfg.Legacy.StagingDir, cfg.Migration, logger)

	// Initialize NATS consumer
	natsConsumer, err := nats.NewNATSConsumer(cfg.NATS, logger)
	if err != nil {
		logger.Error("failed to create NATS consumer", "error", err)
		os.Exit(1)
	}
	logger.Info("NATS consumer initialized")

	if err := natsConsumer.Subscribe(ctx, completionService); err != nil {
		logger.Error("failed to subscribe to NATS", "error", err)
		os.Exit(1)
	}
	logger.Info("NATS subscription active")

	scheduler, err := initMaintenance(ctx, cleanupService, cfg.Migration.CleanupSchedule, logger)
	if err != nil {
		logger.Error("failed to schedule maintenance", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Metrics.Port),
		Handler: promhttp.Handler(),
	}
	go func() {
		logger.Info("starting metrics server", "port", cfg.Metrics.Port)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start metrics server", "error", err)
			stop()
		}
	}()

	// Wait for termination signal
	<-ctx.Done()
	logger.Info("gracefully shutting down completion worker")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := natsConsumer.Close(); err != nil {
		logger.Error("failed to close NATS consumer during shutdown", "error", err)
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("maintenance jobs still running at shutdown")
	}

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown metrics server", "error", err)
	}

	logger.Info("completion worker shutdown complete")
}

func initMaintenance(ctx context.Context, service port.CleanupService, schedule string, logger *slog.Logger) (*cron.Cron, error) {
	scheduler := cron.New(cron.WithSeconds())

	_, err := scheduler.AddFunc(schedule, func() {
		now := time.Now()
		logger.Info("maintenance task starting")
		if err := service.CleanupStaging(ctx, now); err != nil {
			logger.Error("failed to cleanup staging", "error", err)
		}
		if err := service.ReportStalled(ctx, now); err != nil {
			logger.Error("failed to report stalled migrations", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}

	logger.Info("maintenance task scheduled", "schedule", schedule)
	return scheduler, nil
}
