package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pulibrary/pdc-describe-sub000/internal/adapters/eventbroker/nats"
	"github.com/pulibrary/pdc-describe-sub000/internal/adapters/handlers/http/chi"
	"github.com/pulibrary/pdc-describe-sub000/internal/adapters/handlers/http/chi/v1/snapshot"
	"github.com/pulibrary/pdc-describe-sub000/internal/adapters/handlers/http/chi/v1/work"
	"github.com/pulibrary/pdc-describe-sub000/internal/adapters/legacy/dspace"
	"github.com/pulibrary/pdc-describe-sub000/internal/adapters/repository/postgres"
	"github.com/pulibrary/pdc-describe-sub000/internal/adapters/storage"
	"github.com/pulibrary/pdc-describe-sub000/internal/config"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/service/activity"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/service/migration"
)

func main() {

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

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

	//storage
	objectStore, err := storage.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to init object store", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}

	//legacy repository
	legacyClient, err := dspace.NewClient(cfg.Legacy, logger)
	if err != nil {
		logger.Error("failed to init legacy client", "error", err)
		os.Exit(1)
	}

	//task queue and activity notifications
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

	unitOfWork := postgres.NewUnitOfWork(db)

	notifier := activity.NewActivityNotifier(publisher, logger)
	migrationService := migration.NewMigrationService(
		unitOfWork,
		legacyClient,
		objectStore,
		publisher,
		notifier,
		cfg.Storage,
		cfg.Migration,
		logger,
	)

	//http
	workHandler := work.NewWorkHandlerV1(migrationService, logger)
	snapshotHandler := snapshot.NewSnapshotHandlerV1(migrationService, logger)

	router := chi.NewRouter(logger, workHandler, snapshotHandler, cfg.Env.Env)
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("starting server", "host", cfg.Server.Host, "port", cfg.Server.Port)
		servErr := server.ListenAndServe()
		if servErr != nil && !errors.Is(servErr, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", servErr)
			stop()
		}
	}()

	//wait for context cancel
	<-ctx.Done()
	logger.Info("gracefully shutting down app")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	} else {
		logger.Info("server gracefully shutdown complete")
	}

	wg.Wait()
	logger.Info("app shutdown complete")

}
