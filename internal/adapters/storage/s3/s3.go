package s3

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/pulibrary/pdc-describe-sub000/internal/config"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
	"golang.org/x/sync/errgroup"
)

const (
	maxSingleCopySize = 5 * 1024 * 1024 * 1024
	copyPartSize      = 100 * 1024 * 1024
	copyConcurrency   = 5
)

// Adapter implements port.ObjectStore on the AWS SDK
type Adapter struct {
	client *s3.Client
	logger *slog.Logger
}

// NewAdapter returns Adapter. Static credentials are used when configured, the default chain otherwise.
func NewAdapter(ctx context.Context, cfg config.S3Config, logger *slog.Logger) (*Adapter, error) {
	options := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		options = append(options, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &Adapter{client: client, logger: logger}, nil
}

// ListObjects lists every object under the prefix. Zero-byte objects are returned as directories.
func (a *Adapter) ListObjects(ctx context.Context, bucket, prefix string) (*domain.ObjectListing, error) {
	listing := &domain.ObjectListing{}

	paginator := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify(err, fmt.Sprintf("failed to list %s/%s", bucket, prefix))
		}
		for _, obj := range page.Contents {
			descriptor := domain.FileDescriptor{
				Filename:     aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
				Checksum:     domain.NormalizeChecksum(aws.ToString(obj.ETag)),
			}
			if descriptor.IsDirectory() {
				listing.Directories = append(listing.Directories, descriptor)
				continue
			}
			listing.Files = append(listing.Files, descriptor)
		}
	}

	return listing, nil
}

// UploadFile uploads a local file with its Content-MD5 and records the MD5 as object metadata
func (a *Adapter) UploadFile(ctx context.Context, bucket, key, localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", domain.ErrTransferFailure, localPath, err)
	}
	defer file.Close()

	checksum, size, err := domain.ComputeMD5(file)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", domain.ErrTransferFailure, localPath, err)
	}
	contentMD5, err := domain.ChecksumToBase64(checksum)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTransferFailure, err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		return "", fmt.Errorf("%w: rewind %s: %v", domain.ErrTransferFailure, localPath, err)
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          file,
		ContentLength: aws.Int64(size),
		ContentMD5:    aws.String(contentMD5),
		Metadata:      map[string]string{domain.ChecksumMetadataKey: checksum},
	})
	if err != nil {
		return "", fmt.Errorf("%w: upload %s: %v", domain.ErrTransferFailure, key, err)
	}

	a.logger.Info("object uploaded",
		slog.String("bucket", bucket),
		slog.String("key", key),
		slog.Int64("size", size))

	return key, nil
}

// CopyObject copies an object server side. Rejections by the server are reported on the result.
func (a *Adapter) CopyObject(ctx context.Context, sourceBucket, sourceKey, targetBucket, targetKey string, size int64) (*domain.CopyResult, error) {
	var (
		etag string
		err  error
	)
	if size > maxSingleCopySize {
		etag, err = a.multipartCopy(ctx, sourceBucket, sourceKey, targetBucket, targetKey, size)
	} else {
		var out *s3.CopyObjectOutput
		out, err = a.client.CopyObject(ctx, &s3.CopyObjectInput{
			Bucket:     aws.String(targetBucket),
			Key:        aws.String(targetKey),
			CopySource: aws.String(copySource(sourceBucket, sourceKey)),
		})
		if err == nil && out.CopyObjectResult != nil {
			etag = aws.ToString(out.CopyObjectResult.ETag)
		}
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

	return &domain.CopyResult{Key: targetKey, ETag: domain.NormalizeChecksum(etag)}, nil
}

// multipartCopy copies objects above the single copy limit part by part
func (a *Adapter) multipartCopy(ctx context.Context, sourceBucket, sourceKey, targetBucket, targetKey string, size int64) (string, error) {
	created, err := a.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(targetBucket),
		Key:    aws.String(targetKey),
	})
	if err != nil {
		return "", fmt.Errorf("failed to initiate multipart upload: %w", err)
	}
	uploadID := created.UploadId

	numParts := (size + copyPartSize - 1) / copyPartSize
	parts := make([]types.CompletedPart, numParts)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(copyConcurrency)
	for i := int64(0); i < numParts; i++ {
		partNumber := int32(i + 1)
		start := i * copyPartSize
		end := start + copyPartSize - 1
		if end >= size {
			end = size - 1
		}
		g.Go(func() error {
			out, err := a.client.UploadPartCopy(gctx, &s3.UploadPartCopyInput{
				Bucket:          aws.String(targetBucket),
				Key:             aws.String(targetKey),
				CopySource:      aws.String(copySource(sourceBucket, sourceKey)),
				PartNumber:      aws.Int32(partNumber),
				UploadId:        uploadID,
				CopySourceRange: aws.String(fmt.Sprintf("bytes=%d-%d", start, end)),
			})
			if err != nil {
				return fmt.Errorf("failed to copy part %d: %w", partNumber, err)
			}
			parts[partNumber-1] = types.CompletedPart{
				ETag:       out.CopyPartResult.ETag,
				PartNumber: aws.Int32(partNumber),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		_, _ = a.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
			Bucket:   aws.String(targetBucket),
			Key:      aws.String(targetKey),
			UploadId: uploadID,
		})
		return "", err
	}

	sort.Slice(parts, func(i, j int) bool {
		return aws.ToInt32(parts[i].PartNumber) < aws.ToInt32(parts[j].PartNumber)
	})

	out, err := a.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(targetBucket),
		Key:             aws.String(targetKey),
		UploadId:        uploadID,
		MultipartUpload: &types.CompletedMultipartUpload{Parts: parts},
	})
	if err != nil {
		return "", fmt.Errorf("failed to complete multipart upload: %w", err)
	}

	return aws.ToString(out.ETag), nil
}

// DeleteObject deletes an object from storage
func (a *Adapter) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
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
	_, err := a.head(ctx, bucket, key)
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
	out, err := a.head(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	return &domain.FileDescriptor{
		Filename:     key,
		Size:         aws.ToInt64(out.ContentLength),
		LastModified: aws.ToTime(out.LastModified),
		Checksum:     domain.NormalizeChecksum(aws.ToString(out.ETag)),
	}, nil
}

// ObjectChecksum returns the MD5 of the stored content
func (a *Adapter) ObjectChecksum(ctx context.Context, bucket, key string) (string, error) {
	out, err := a.head(ctx, bucket, key)
	if err != nil {
		return "", err
	}

	etag := domain.NormalizeChecksum(aws.ToString(out.ETag))
	if etag != "" && !domain.IsMultipartETag(etag) {
		return etag, nil
	}
	if checksum := domain.MetadataChecksum(out.Metadata); checksum != "" {
		return checksum, nil
	}

	obj, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", classify(err, "failed to get object")
	}
	defer obj.Body.Close()

	checksum, _, err := domain.ComputeMD5(obj.Body)
	if err != nil {
		return "", classify(err, "failed to read object "+key)
	}
	return checksum, nil
}

func (a *Adapter) head(ctx context.Context, bucket, key string) (*s3.HeadObjectOutput, error) {
	out, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s/%s: %w", bucket, key, domain.ErrObjectNotFound)
		}
		return nil, classify(err, "failed to get object info")
	}
	return out, nil
}

func copySource(bucket, key string) string {
	return bucket + "/" + url.PathEscape(key)
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}

func isAPIError(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr)
}

// classify wraps err, marking transport failures as domain.ErrSourceUnavailable
func classify(err error, msg string) error {
	if isAPIError(err) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%s: %w: %w", msg, domain.ErrSourceUnavailable, err)
}
