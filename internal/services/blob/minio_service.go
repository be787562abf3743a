package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
)

// Service implements BlobService against any S3-compatible object store.
// The bucket is created on first use if absent.
type Service struct {
	client *minio.Client
	bucket string
	logger arbor.ILogger
}

// NewService creates the blob service and ensures the bucket exists.
func NewService(ctx context.Context, config *common.BlobConfig, logger arbor.ILogger) (*Service, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
		Region: config.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	s := &Service{
		client: client,
		bucket: config.Bucket,
		logger: logger,
	}

	exists, err := client.BucketExists(ctx, config.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", config.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, config.Bucket, minio.MakeBucketOptions{Region: config.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", config.Bucket, err)
		}
		logger.Info().Str("bucket", config.Bucket).Msg("Bucket created")
	}

	logger.Debug().
		Str("endpoint", config.Endpoint).
		Str("bucket", config.Bucket).
		Msg("Blob service initialized")

	return s, nil
}

// Put stores an object under key. Content type is advisory.
func (s *Service) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}

	s.logger.Debug().Str("key", key).Int("size", len(data)).Msg("Object stored")
	return nil
}

// Get retrieves an object's bytes.
func (s *Service) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

// Delete removes an object; deleting a missing key is not an error.
func (s *Service) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// Exists reports whether an object is present under key.
func (s *Service) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object %s: %w", key, err)
	}
	return true, nil
}

// PresignGet returns a time-limited download URL for key.
func (s *Service) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s: %w", key, err)
	}
	return u.String(), nil
}

var _ interfaces.BlobService = (*Service)(nil)
