package port

import (
	"context"

	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
)

// ObjectStore is an interface to define object storage interactions
type ObjectStore interface {
	ListObjects(ctx context.Context, bucket, prefix string) (*domain.ObjectListing, error)
	UploadFile(ctx context.Context, bucket, key, localPath string) (string, error)
	CopyObject(ctx context.Context, sourceBucket, sourceKey, targetBucket, targetKey string, size int64) (*domain.CopyResult, error)
	DeleteObject(ctx context.Context, bucket, key string) error
	ObjectExists(ctx context.Context, bucket, key string) (bool, error)
	StatObject(ctx context.Context, bucket, key string) (*domain.FileDescriptor, error)
	ObjectChecksum(ctx context.Context, bucket, key string) (string, error)
}
