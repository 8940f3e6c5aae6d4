package minio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pulibrary/pdc-describe-sub000/internal/config"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
)

// maxSingleCopySize is the largest object a single server-side copy accepts
const maxSingleCopySize = 5 * 1024 * 1024 * 1024

// Adapter is an adapter for minio
type Adapter struct {
	client *minio.Client
	logger *slog.Logger
}

// NewAdapter returns Adapter. Missing buckets are created.
func NewAdapter(ctx context.Context, cfg config.MinioConfig, logger *slog.Logger, buckets ...string) (*Adapter, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	for _, bucket := range buckets {
		if bucket == "" {
			continue
		}
		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
		}
		if !exists {
			if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
				return nil, fmt.Errorf("failed to create bucket: %w", err)
			}
		}
	}

	return &Adapter{client: client, logger: logger}, nil
}

// ListObjects lists every object under the prefix. Zero-byte objects are returned as directories.
func (a *Adapter) ListObjects(ctx context.Context, bucket, prefix string) (*domain.ObjectListing, error) {
	listing := &domain.ObjectListing{}

	for object := range a.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if object.Err != nil {
			return nil, classify(object.Err, fmt.Sprintf("failed to list %s/%s", bucket, prefix))
		}
		descriptor := domain.FileDescriptor{
			Filename:     object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			Checksum:     domain.NormalizeChecksum(object.ETag),
		}
		if descriptor.IsDirectory() {
			listing.Directories = append(listing.Directories, descriptor)
			continue
		}
		listing.Files = append(listing.Files, descriptor)
	}

	return listing, nil
}

// UploadFile uploads a local file and records its MD5 as object metadata
func (a *Adapter) UploadFile(ctx context.Context, bucket, key, localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", domain.ErrTransferFailure, localPath, err)
	}
	checksum, size, err := domain.ComputeMD5(file)
	file.Close()
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", domain.ErrTransferFailure, localPath, err)
	}

	info, err := a.client.FPutObject(ctx, bucket, key, localPath, minio.PutObjectOptions{
		UserMetadata:   map[string]string{domain.ChecksumMetadataKey: checksum},
		SendContentMd5: true,
	})
	if err != nil {
		return "", fmt.Errorf("%w: upload %s: %v", domain.ErrTransferFailure, key, err)
	}

	a.logger.Info("object uploaded",
		slog.String("bucket", bucket),
		slog.String("key", info.Key),
		slog.Int64("size", size))

	return info.Key, nil
}

// CopyObject copies an object server side. Rejections by the server are reported on the result.
func (a *Adapter) CopyObject(ctx context.Context, sourceBucket, sourceKey, targetBucket, targetKey string, size int64) (*domain.CopyResult, error) {
	src := minio.CopySrcOptions{Bucket: sourceBucket, Object: sourceKey}
	dst := minio.CopyDestOptions{Bucket: targetBucket, Object: targetKey}

	var (
		info minio.UploadInfo
		err  error
	)
	if size > maxSingleCopySize {
		info, err = a.client.ComposeObject(ctx, dst, src)
	} else {
		info, err = a.client.CopyObject(ctx, dst, src)
	}
	if err != nil {
		if isAPIError(err) {
			a.logger.Warn("object copy rejected",
				slog.String("source", sourceBucket+"/"+sourceKey),
				slog.String("target", targetBucket+"/"+targetKey),
				slog.String("error", err.Error()))
			return &domain.CopyResult{Key: targetKey, Failure: err}, nil
		}
		return nil, classify(err, "failed to copy "+sourceKey)
	}

	a.logger.Info("object copied",
		slog.String("source", sourceBucket+"/"+sourceKey),
		slog.String("target", targetBucket+"/"+targetKey))

	return &domain.CopyResult{Key: info.Key, ETag: domain.NormalizeChecksum(info.ETag)}, nil
}

// DeleteObject deletes an object from storage
func (a *Adapter) DeleteObject(ctx context.Context, bucket, key string) error {
	err := a.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return classify(err, "failed to delete object")
	}

	a.logger.Info("object deleted",
		slog.String("key", key),
		slog.String("bucket", bucket))

	return nil
}

// ObjectExists reports whether the key exists in the bucket
func (a *Adapter) ObjectExists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := a.StatObject(ctx, bucket, key)
	if errors.Is(err, domain.ErrObjectNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// StatObject retrieves obj info
func (a *Adapter) StatObject(ctx context.Context, bucket, key string) (*domain.FileDescriptor, error) {
	info, err := a.stat(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	return &domain.FileDescriptor{
		Filename:     info.Key,
		Size:         info.Size,
		LastModified: info.LastModified,
		Checksum:     domain.NormalizeChecksum(info.ETag),
	}, nil
}

// ObjectChecksum returns the MD5 of the stored content
func (a *Adapter) ObjectChecksum(ctx context.Context, bucket, key string) (string, error) {
	info, err := a.stat(ctx, bucket, key)
	if err != nil {
		return "", err
	}

	etag := domain.NormalizeChecksum(info.ETag)
	if etag != "" && !domain.IsMultipartETag(etag) {
		return etag, nil
	}
	if checksum := domain.MetadataChecksum(info.UserMetadata); checksum != "" {
		return checksum, nil
	}

	object, err := a.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", classify(err, "failed to get object")
	}
	defer object.Close()

	checksum, _, err := domain.ComputeMD5(object)
	if err != nil {
		return "", classify(err, "failed to read object "+key)
	}
	return checksum, nil
}

func (a *Adapter) stat(ctx context.Context, bucket, key string) (*minio.ObjectInfo, error) {
	info, err := a.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s/%s: %w", bucket, key, domain.ErrObjectNotFound)
		}
		return nil, classify(err, "failed to get object info")
	}
	return &info, nil
}

func isAPIError(err error) bool {
	return minio.ToErrorResponse(err).Code != ""
}

// classify wraps err, marking transport failures as domain.ErrSourceUnavailable.
// minio.ToErrorResponse does not unwrap, so err must be the client error itself.
func classify(err error, msg string) error {
	if isAPIError(err) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%s: %w: %w", msg, domain.ErrSourceUnavailable, err)
}
