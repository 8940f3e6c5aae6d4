package cleanup

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/pulibrary/pdc-describe-sub000/internal/config"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/port"
)

var (
	stagedFilesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "migration_staged_files_removed_total",
			Help: "Expired staged legacy downloads removed",
		},
	)

	stalledSnapshots = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "migration_stalled_snapshots",
			Help: "Migration snapshots with started records past the stall threshold",
		},
	)
)

type cleanupService struct {
	uow          port.UnitOfWork
	alerter      port.Alerter
	stagingDir   string
	stagingTTL   time.Duration
	stalledAfter time.Duration
	logger       *slog.Logger

	mu sync.Mutex
	// alerted holds the UpdatedAt of each stalled snapshot at the time it was reported
	alerted map[uuid.UUID]time.Time
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(uow port.UnitOfWork, alerter port.Alerter, stagingDir string, cfg config.MigrationConfig, logger *slog.Logger) port.CleanupService {
	return &cleanupService{
		uow:          uow,
		alerter:      alerter,
		stagingDir:   stagingDir,
		stagingTTL:   cfg.StagingTTL,
		stalledAfter: cfg.StalledAfter,
		logger:       logger,
		alerted:      make(map[uuid.UUID]time.Time),
	}
}
