package migration

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/pulibrary/pdc-describe-sub000/internal/config"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/port"
)

var (
	migrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "migration_runs_total",
			Help: "Migrations by result",
		},
		[]string{"result"},
	)

	plannedFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "migration_planned_files_total",
			Help: "Planned files by origin and transfer action",
		},
		[]string{"origin", "action"},
	)

	enqueueFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "migration_enqueue_failures_total",
			Help: "Completion tasks that could not be enqueued",
		},
	)
)

type migrationService struct {
	uow               port.UnitOfWork
	legacy            port.LegacySource
	store             port.ObjectStore
	tasks             port.TaskQueue
	notifier          port.ActivityNotifier
	sourceBucket      string
	destinationBucket string
	skip              map[string]struct{}
	logger            *slog.Logger
}

// NewMigrationService creates a new migration orchestrator
func NewMigrationService(
	uow port.UnitOfWork,
	legacy port.LegacySource,
	store port.ObjectStore,
	tasks port.TaskQueue,
	notifier port.ActivityNotifier,
	storageCfg config.StorageConfig,
	migrationCfg config.MigrationConfig,
	logger *slog.Logger,
) port.MigrationService {
	skip := make(map[string]struct{}, len(migrationCfg.SkipARKs))
	for _, ark := range migrationCfg.SkipARKs {
		if path := domain.ARKPath(ark); path != "" {
			skip[path] = struct{}{}
		}
	}

	return &migrationService{
		uow:               uow,
		legacy:            legacy,
		store:             store,
		tasks:             tasks,
		notifier:          notifier,
		sourceBucket:      storageCfg.SourceBucket,
		destinationBucket: storageCfg.DestinationBucket,
		skip:              skip,
		logger:            logger,
	}
}

func (s *migrationService) skipsLegacy(ark string) bool {
	_, ok := s.skip[domain.ARKPath(ark)]
	return ok
}
