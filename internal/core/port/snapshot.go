package port

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
)

// SnapshotRepository is the durable store of upload snapshots.
// UpdateRecord is a read-modify-write of the full record list guarded by the snapshot version,
// it returns domain.ErrConcurrentUpdate when another writer got there first.
type SnapshotRepository interface {
	Create(ctx context.Context, snapshot *domain.UploadSnapshot) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.UploadSnapshot, error)
	FindByWorkID(ctx context.Context, workID uuid.UUID) ([]*domain.UploadSnapshot, error)
	UpdateRecord(ctx context.Context, id uuid.UUID, filename string, mutate domain.RecordMutation) (*domain.RecordUpdate, error)
	FindStalled(ctx context.Context, updatedBefore time.Time) ([]*domain.UploadSnapshot, error)
}
