// Package s3 backs the blob-store capability with a MinIO (S3-compatible)
// bucket.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/carhive/marketplace/internal/listing/domain"
)

type BlobStore struct {
	client *minio.Client
	bucket string
	// publicBaseURL is set when the bucket is served publicly; empty means
	// callers must fall back to signed URLs.
	publicBaseURL string
	logger        *zap.Logger
}

func NewBlobStore(endpoint, accessKey, secretKey, bucket string, useSSL bool, publicBaseURL string, logger *zap.Logger) (*BlobStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client for %s: %w", endpoint, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		exists, existsErr := client.BucketExists(ctx, bucket)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("make or verify bucket %s: %w", bucket, err)
		}
	}
	logger.Info("blob store ready", zap.String("endpoint", endpoint), zap.String("bucket", bucket))

	return &BlobStore{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		logger:        logger,
	}, nil
}

// Upload writes the object under the given path. PutObject overwrites an
// existing object with the same key, which is exactly the upsert contract.
func (s *BlobStore) Upload(ctx context.Context, path string, data []byte, opts domain.UploadOptions) error {
	_, err := s.client.PutObject(ctx, s.bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: opts.ContentType,
	})
	if err != nil {
		s.logger.Error("put object failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("upload %s to bucket %s: %w", path, s.bucket, err)
	}
	return nil
}

// List enumerates the objects under a folder prefix in store order.
func (s *BlobStore) List(ctx context.Context, folder string, opts domain.ListOptions) ([]domain.BlobEntry, error) {
	prefix := strings.TrimSuffix(folder, "/") + "/"
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	var entries []domain.BlobEntry
	skipped := 0
	for object := range objects {
		if object.Err != nil {
			return nil, fmt.Errorf("list %s in bucket %s: %w", folder, s.bucket, object.Err)
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		entries = append(entries, domain.BlobEntry{
			Name: strings.TrimPrefix(object.Key, prefix),
			Size: object.Size,
		})
		if opts.Limit > 0 && len(entries) >= opts.Limit {
			break
		}
	}
	return entries, nil
}

func (s *BlobStore) PublicURL(path string) (string, bool) {
	if s.publicBaseURL == "" {
		return "", false
	}
	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucket, path), true
}

func (s *BlobStore) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, path, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("sign url for %s: %w", path, err)
	}
	return u.String(), nil
}
