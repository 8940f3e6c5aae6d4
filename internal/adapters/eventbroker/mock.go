package eventbroker

import (
	"context"

	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type MockTaskQueue struct {
	mock.Mock
}

func NewMockTaskQueue() *MockTaskQueue {
	return &MockTaskQueue{}
}

func (m *MockTaskQueue) EnqueueCompletion(ctx context.Context, task domain.CompletionTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

type MockNotificationPublisher struct {
	mock.Mock
}

func NewMockNotificationPublisher() *MockNotificationPublisher {
	return &MockNotificationPublisher{}
}

func (m *MockNotificationPublisher) PublishActivity(ctx context.Context, activity domain.Activity) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}
