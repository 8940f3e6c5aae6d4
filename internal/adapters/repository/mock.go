package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/port"
	"github.com/stretchr/testify/mock"
)

type MockWorkRepository struct {
	mock.Mock
}

func NewMockWorkRepository() *MockWorkRepository {
	return &MockWorkRepository{}
}

func (m *MockWorkRepository) Upsert(ctx context.Context, work domain.Work) error {
	args := m.Called(ctx, work)
	return args.Error(0)
}

func (m *MockWorkRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Work, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Work), args.Error(1)
}

func (m *MockWorkRepository) MarkMigrated(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockSnapshotRepository struct {
	mock.Mock
}

func NewMockSnapshotRepository() *MockSnapshotRepository {
	return &MockSnapshotRepository{}
}

func (m *MockSnapshotRepository) Create(ctx context.Context, snapshot *domain.UploadSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockSnapshotRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.UploadSnapshot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UploadSnapshot), args.Error(1)
}

func (m *MockSnapshotRepository) FindByWorkID(ctx context.Context, workID uuid.UUID) ([]*domain.UploadSnapshot, error) {
	args := m.Called(ctx, workID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.UploadSnapshot), args.Error(1)
}

// UpdateRecord returns the configured update. When the first return value is a *domain.UploadSnapshot
// the mutation is applied to it, which lets tests observe what the caller asked for.
func (m *MockSnapshotRepository) UpdateRecord(ctx context.Context, id uuid.UUID, filename string, mutate domain.RecordMutation) (*domain.RecordUpdate, error) {
	args := m.Called(ctx, id, filename, mutate)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	switch v := args.Get(0).(type) {
	case *domain.UploadSnapshot:
		update, err := v.UpdateRecord(filename, mutate)
		if err != nil {
			return nil, err
		}
		return &update, nil
	case *domain.RecordUpdate:
		return v, nil
	}
	return nil, nil
}

func (m *MockSnapshotRepository) FindStalled(ctx context.Context, updatedBefore time.Time) ([]*domain.UploadSnapshot, error) {
	args := m.Called(ctx, updatedBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.UploadSnapshot), args.Error(1)
}

type MockActivityRepository struct {
	mock.Mock
}

func NewMockActivityRepository() *MockActivityRepository {
	return &MockActivityRepository{}
}

func (m *MockActivityRepository) Create(ctx context.Context, activity domain.Activity) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}

func (m *MockActivityRepository) FindByWorkID(ctx context.Context, workID uuid.UUID) ([]domain.Activity, error) {
	args := m.Called(ctx, workID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Activity), args.Error(1)
}

func (m *MockActivityRepository) ExistsForSnapshot(ctx context.Context, snapshotID uuid.UUID, activityType domain.ActivityType) (bool, error) {
	args := m.Called(ctx, snapshotID, activityType)
	return args.Bool(0), args.Error(1)
}

type MockUnitOfWork struct {
	mock.Mock
	workRepo     *MockWorkRepository
	snapshotRepo *MockSnapshotRepository
	activityRepo *MockActivityRepository
}

func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		workRepo:     &MockWorkRepository{},
		snapshotRepo: &MockSnapshotRepository{},
		activityRepo: &MockActivityRepository{},
	}
}

func (m *MockUnitOfWork) WorkRepo() port.WorkRepository {
	return m.workRepo
}

func (m *MockUnitOfWork) SnapshotRepo() port.SnapshotRepository {
	return m.snapshotRepo
}

func (m *MockUnitOfWork) ActivityRepo() port.ActivityRepository {
	return m.activityRepo
}

func (m *MockUnitOfWork) Execute(ctx context.Context, fn func(uow port.UnitOfWork) error) error {
	args := m.Called(ctx, fn)

	if err := fn(m); err != nil {
		return err
	}

	return args.Error(0)
}

func (m *MockUnitOfWork) GetWorkRepoMock() *MockWorkRepository {
	return m.workRepo
}

func (m *MockUnitOfWork) GetSnapshotRepoMock() *MockSnapshotRepository {
	return m.snapshotRepo
}

func (m *MockUnitOfWork) GetActivityRepoMock() *MockActivityRepository {
	return m.activityRepo
}
