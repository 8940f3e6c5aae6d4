package migration

import (
	"context"

	"github.com/google/uuid"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
)

func (s *migrationService) GetSnapshot(ctx context.Context, id uuid.UUID) (*domain.UploadSnapshot, error) {
	return s.uow.SnapshotRepo().FindByID(ctx, id)
}

func (s *migrationService) ListSnapshots(ctx context.Context, workID uuid.UUID) ([]*domain.UploadSnapshot, error) {
	if _, err := s.uow.WorkRepo().FindByID(ctx, workID); err != nil {
		return nil, err
	}
	return s.uow.SnapshotRepo().FindByWorkID(ctx, workID)
}

func (s *migrationService) ListActivities(ctx context.Context, workID uuid.UUID) ([]domain.Activity, error) {
	if _, err := s.uow.WorkRepo().FindByID(ctx, workID); err != nil {
		return nil, err
	}
	return s.uow.ActivityRepo().FindByWorkID(ctx, workID)
}
