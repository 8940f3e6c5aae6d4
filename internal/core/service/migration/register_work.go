package migration

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
)

func (s *migrationService) RegisterWork(ctx context.Context, work domain.Work) error {
	switch {
	case work.ID == uuid.Nil:
		return fmt.Errorf("%w: missing id", domain.ErrInvalidWork)
	case strings.TrimSpace(work.DOI) == "":
		return fmt.Errorf("%w: missing doi", domain.ErrInvalidWork)
	case domain.ARKPath(work.ARK) == "":
		return fmt.Errorf("%w: missing ark", domain.ErrInvalidWork)
	}

	if err := s.uow.WorkRepo().Upsert(ctx, work); err != nil {
		return err
	}

	s.logger.Info("work registered", "work_id", work.ID, "doi", work.DOI, "ark", work.ARK)
	return nil
}

func (s *migrationService) GetWork(ctx context.Context, id uuid.UUID) (*domain.Work, error) {
	return s.uow.WorkRepo().FindByID(ctx, id)
}
