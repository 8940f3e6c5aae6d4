package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
)

// MigrationService is an interface to define the migration orchestrator
type MigrationService interface {
	RegisterWork(ctx context.Context, work domain.Work) error
	GetWork(ctx context.Context, id uuid.UUID) (*domain.Work, error)
	MigrateWork(ctx context.Context, workID uuid.UUID) (*domain.MigrationResult, error)
	GetSnapshot(ctx context.Context, id uuid.UUID) (*domain.UploadSnapshot, error)
	ListSnapshots(ctx context.Context, workID uuid.UUID) ([]*domain.UploadSnapshot, error)
	ListActivities(ctx context.Context, workID uuid.UUID) ([]domain.Activity, error)
}
