package activity

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/port"
)

var notificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "migration_activity_notifications_total",
		Help: "Activity notifications by type and result",
	},
	[]string{"type", "result"},
)

type notifier struct {
	publisher port.NotificationPublisher
	logger    *slog.Logger
}

// NewActivityNotifier creates a notifier that publishes recorded activities.
// Publishing is best effort: the activity is already persisted.
func NewActivityNotifier(publisher port.NotificationPublisher, logger *slog.Logger) port.ActivityNotifier {
	return &notifier{
		publisher: publisher,
		logger:    logger,
	}
}

func (n *notifier) Notify(ctx context.Context, activities ...domain.Activity) {
	for _, activity := range activities {
		if err := n.publisher.PublishActivity(ctx, activity); err != nil {
			notificationsTotal.WithLabelValues(string(activity.Type), "error").Inc()
			n.logger.Error("failed to publish activity",
				"activity_id", activity.ID,
				"work_id", activity.WorkID,
				"type", activity.Type,
				"err", err)
			continue
		}
		notificationsTotal.WithLabelValues(string(activity.Type), "published").Inc()
	}
}
