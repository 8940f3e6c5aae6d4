package storage

import (
	"context"

	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func NewMockStorage() *MockStorage {
	return &MockStorage{}
}

func (m *MockStorage) ListObjects(ctx context.Context, bucket, prefix string) (*domain.ObjectListing, error) {
	args := m.Called(ctx, bucket, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ObjectListing), args.Error(1)
}

func (m *MockStorage) UploadFile(ctx context.Context, bucket, key, localPath string) (string, error) {
	args := m.Called(ctx, bucket, key, localPath)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) CopyObject(ctx context.Context, sourceBucket, sourceKey, targetBucket, targetKey string, size int64) (*domain.CopyResult, error) {
	args := m.Called(ctx, sourceBucket, sourceKey, targetBucket, targetKey, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CopyResult), args.Error(1)
}

func (m *MockStorage) DeleteObject(ctx context.Context, bucket, key string) error {
	args := m.Called(ctx, bucket, key)
	return args.Error(0)
}

func (m *MockStorage) ObjectExists(ctx context.Context, bucket, key string) (bool, error) {
	args := m.Called(ctx, bucket, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) StatObject(ctx context.Context, bucket, key string) (*domain.FileDescriptor, error) {
	args := m.Called(ctx, bucket, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FileDescriptor), args.Error(1)
}

func (m *MockStorage) ObjectChecksum(ctx context.Context, bucket, key string) (string, error) {
	args := m.Called(ctx, bucket, key)
	return args.String(0), args.Error(1)
}
