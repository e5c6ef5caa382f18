// Package storage holds the object storage adapters for document files.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"qms/internal/domain"
)

// MinioConfig configures an S3-compatible bucket
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string // Optional base URL for public links, e.g. a CDN
}

// MinioStorage stores objects in an S3-compatible bucket (MinIO, Supabase
// Storage S3 endpoint)
type MinioStorage struct {
	client *minio.Client
	bucket string
	config MinioConfig
}

// NewMinioStorage creates the client. No request is made until first use.
func NewMinioStorage(cfg MinioConfig) (*MinioStorage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioStorage{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *MinioStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

func (s *MinioStorage) Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, path, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return &domain.StorageError{Op: "upload object", Err: err}
	}
	return nil
}

// Get opens the object. The object is stat'ed first so a missing key
// surfaces here as NotFound rather than on the first read.
func (s *MinioStorage) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapError("get object", path, err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, s.mapError("stat object", path, err)
	}
	return obj, nil
}

// Delete removes the object. Removing a missing object is not an error.
func (s *MinioStorage) Delete(ctx context.Context, path string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return &domain.StorageError{Op: "delete object", Err: err}
	}
	return nil
}

// PublicURL returns a public URL for the object (if bucket policy allows)
func (s *MinioStorage) PublicURL(path string) string {
	return publicURL(s.config, path)
}

func publicURL(cfg MinioConfig, path string) string {
	escaped := escapePath(path)
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/") + "/" + escaped
	}
	protocol := "http"
	if cfg.UseSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, cfg.Endpoint, cfg.Bucket, escaped)
}

// escapePath escapes each segment, keeping the separators
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func (s *MinioStorage) mapError(op, path string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return domain.NotFoundf("object %s", path)
	}
	return &domain.StorageError{Op: op, Err: err}
}
