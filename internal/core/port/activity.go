package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
)

// ActivityRepository is an interface to define activity log interactions
type ActivityRepository interface {
	Create(ctx context.Context, activity domain.Activity) error
	FindByWorkID(ctx context.Context, workID uuid.UUID) ([]domain.Activity, error)
	ExistsForSnapshot(ctx context.Context, snapshotID uuid.UUID, activityType domain.ActivityType) (bool, error)
}

// ActivityNotifier enqueues outbound notifications for recorded activities
type ActivityNotifier interface {
	Notify(ctx context.Context, activities ...domain.Activity)
}
