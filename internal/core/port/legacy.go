package port

import (
	"context"

	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
)

// LegacySource is the legacy repository bitstream API
type LegacySource interface {
	// ListBitstreams resolves the ARK to a legacy item and lists its bitstreams.
	// An ARK without legacy item yields an empty list.
	ListBitstreams(ctx context.Context, ark string) ([]domain.Bitstream, error)
	// DownloadBitstreams stages and verifies every bitstream. The result has one entry per input, in input order.
	DownloadBitstreams(ctx context.Context, bitstreams []domain.Bitstream) []domain.DownloadResult
}
