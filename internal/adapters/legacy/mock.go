package legacy

import (
	"context"

	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type MockLegacySource struct {
	mock.Mock
}

func NewMockLegacySource() *MockLegacySource {
	return &MockLegacySource{}
}

func (m *MockLegacySource) ListBitstreams(ctx context.Context, ark string) ([]domain.Bitstream, error) {
	args := m.Called(ctx, ark)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Bitstream), args.Error(1)
}

func (m *MockLegacySource) DownloadBitstreams(ctx context.Context, bitstreams []domain.Bitstream) []domain.DownloadResult {
	args := m.Called(ctx, bitstreams)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.DownloadResult)
}
