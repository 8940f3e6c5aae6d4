package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pulibrary/pdc-describe-sub000/internal/adapters/storage/minio"
	"github.com/pulibrary/pdc-describe-sub000/internal/adapters/storage/s3"
	"github.com/pulibrary/pdc-describe-sub000/internal/config"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/port"
)

const (
	DriverMinio = "minio"
	DriverS3    = "s3"
)

// New builds the object store selected by cfg.Storage.Driver
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (port.ObjectStore, error) {
	switch cfg.Storage.Driver {
	case DriverMinio, "":
		adapter, err := minio.NewAdapter(ctx, cfg.Minio, logger, cfg.Storage.DestinationBucket)
		if err != nil {
			return nil, err
		}
		return adapter, nil
	case DriverS3:
		adapter, err := s3.NewAdapter(ctx, cfg.S3, logger)
		if err != nil {
			return nil, err
		}
		return adapter, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
