package alert

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockAlerter struct {
	mock.Mock
}

func NewMockAlerter() *MockAlerter {
	return &MockAlerter{}
}

func (m *MockAlerter) Alert(ctx context.Context, message string, attrs map[string]string) error {
	args := m.Called(ctx, message, attrs)
	return args.Error(0)
}
