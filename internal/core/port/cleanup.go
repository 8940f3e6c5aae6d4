package port

import (
	"context"
	"time"
)

// CleanupService is service that handles periodic maintenance
type CleanupService interface {
	CleanupStaging(ctx context.Context, now time.Time) error
	ReportStalled(ctx context.Context, now time.Time) error
}
