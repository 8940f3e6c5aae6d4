package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
)

// WorkRepository is an interface to define work repository interactions
type WorkRepository interface {
	Upsert(ctx context.Context, work domain.Work) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Work, error)
	MarkMigrated(ctx context.Context, id uuid.UUID) error
}
