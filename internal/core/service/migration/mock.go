package migration

import (
	"context"

	"github.com/google/uuid"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// MockMigrationService is a mock implementation of MigrationService
type MockMigrationService struct {
	mock.Mock
}

// NewMockMigrationService creates a new MockMigrationService
func NewMockMigrationService() *MockMigrationService {
	return &MockMigrationService{}
}

func (m *MockMigrationService) RegisterWork(ctx context.Context, work domain.Work) error {
	args := m.Called(ctx, work)
	return args.Error(0)
}

func (m *MockMigrationService) GetWork(ctx context.Context, id uuid.UUID) (*domain.Work, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Work), args.Error(1)
}

func (m *MockMigrationService) MigrateWork(ctx context.Context, workID uuid.UUID) (*domain.MigrationResult, error) {
	args := m.Called(ctx, workID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MigrationResult), args.Error(1)
}

func (m *MockMigrationService) GetSnapshot(ctx context.Context, id uuid.UUID) (*domain.UploadSnapshot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UploadSnapshot), args.Error(1)
}

func (m *MockMigrationService) ListSnapshots(ctx context.Context, workID uuid.UUID) ([]*domain.UploadSnapshot, error) {
	args := m.Called(ctx, workID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.UploadSnapshot), args.Error(1)
}

func (m *MockMigrationService) ListActivities(ctx context.Context, workID uuid.UUID) ([]domain.Activity, error) {
	args := m.Called(ctx, workID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Activity), args.Error(1)
}
