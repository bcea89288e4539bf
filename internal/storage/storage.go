package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/therealutkarshpriyadarshi/curator/internal/config"
	"github.com/therealutkarshpriyadarshi/curator/internal/metrics"
)

// Storage mirrors remote thumbnails into object storage so playlist
// artwork survives upstream link rot. Mirroring is best-effort; callers
// fall back to the remote URL on any failure.
type Storage struct {
	client     *minio.Client
	bucketName string
	http       *http.Client
}

// New creates a new storage client
func New(cfg config.StorageConfig) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	// Ensure bucket exists
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}

		// Thumbnails are served by stable URL, so the bucket allows
		// anonymous reads
		policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, cfg.BucketName)
		if err := client.SetBucketPolicy(ctx, cfg.BucketName, policy); err != nil {
			return nil, fmt.Errorf("failed to set bucket policy: %w", err)
		}
	}

	return &Storage{
		client:     client,
		bucketName: cfg.BucketName,
		http:       &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// MirrorThumbnail downloads a remote thumbnail and stores a copy under
// objectName, returning the mirrored object's public URL. The URL is
// persisted on the playlist row, so it must not expire.
func (s *Storage) MirrorThumbnail(ctx context.Context, sourceURL, objectName string) (string, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build thumbnail request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		metrics.RecordStorageOperation("mirror", "error", time.Since(start).Seconds())
		return "", fmt.Errorf("failed to download thumbnail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordStorageOperation("mirror", "error", time.Since(start).Seconds())
		return "", fmt.Errorf("thumbnail source returned %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	if err := s.Upload(ctx, objectName, resp.Body, resp.ContentLength, contentType); err != nil {
		metrics.RecordStorageOperation("mirror", "error", time.Since(start).Seconds())
		return "", err
	}

	metrics.RecordStorageOperation("mirror", "success", time.Since(start).Seconds())
	return s.PublicURL(objectName), nil
}

// PublicURL returns the stable URL for an object in the public-read bucket
func (s *Storage) PublicURL(objectName string) string {
	return s.client.EndpointURL().String() + "/" + s.bucketName + "/" + objectName
}

// Upload uploads an object to storage
func (s *Storage) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}

	return nil
}

// Download downloads an object from storage
func (s *Storage) Download(ctx context.Context, objectName string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, s.bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to download object: %w", err)
	}

	return object, nil
}

// Delete deletes an object from storage
func (s *Storage) Delete(ctx context.Context, objectName string) error {
	err := s.client.RemoveObject(ctx, s.bucketName, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}

// GetURL returns a presigned URL for an object
func (s *Storage) GetURL(ctx context.Context, objectName string) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucketName, objectName, 24*time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate URL: %w", err)
	}

	return url.String(), nil
}
