package activity

import (
	"context"

	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// MockActivityNotifier is a mock implementation of ActivityNotifier
type MockActivityNotifier struct {
	mock.Mock
}

func NewMockActivityNotifier() *MockActivityNotifier {
	return &MockActivityNotifier{}
}

func (m *MockActivityNotifier) Notify(ctx context.Context, activities ...domain.Activity) {
	m.Called(ctx, activities)
}
