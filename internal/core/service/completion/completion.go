package completion

import (
	"log/slog"
	"time"

	"github.com/jpillora/backoff"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/pulibrary/pdc-describe-sub000/internal/config"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/port"
)

var (
	completionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "migration_completions_total",
			Help: "Completion tasks by outcome",
		},
		[]string{"outcome"},
	)

	updateConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "migration_snapshot_update_conflicts_total",
			Help: "Snapshot writes retried after a concurrent update",
		},
	)
)

type completionService struct {
	uow      port.UnitOfWork
	store    port.ObjectStore
	alerter  port.Alerter
	notifier port.ActivityNotifier
	retries  int
	logger   *slog.Logger
}

// NewCompletionService creates the handler of completion tasks
func NewCompletionService(
	uow port.UnitOfWork,
	store port.ObjectStore,
	alerter port.Alerter,
	notifier port.ActivityNotifier,
	cfg config.MigrationConfig,
	logger *slog.Logger,
) port.MessageService {
	return &completionService{
		uow:      uow,
		store:    store,
		alerter:  alerter,
		notifier: notifier,
		retries:  cfg.UpdateRetries,
		logger:   logger,
	}
}

func newBackoff() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    10 * time.Millisecond,
		Max:    time.Second,
		Factor: 2,
		Jitter: true,
	}
}
