package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Ensure MinioStore implements EvidenceStore.
var _ EvidenceStore = (*MinioStore)(nil)

// MinioConfig describes the object store connection.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// MinioStore keeps evidence files as objects under a per-family prefix.
type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioClient connects to the object store and makes sure the bucket exists.
func NewMinioClient(ctx context.Context, cfg MinioConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return client, nil
}

// NewMinioStore returns a store writing below prefix in bucket.
func NewMinioStore(client *minio.Client, bucket, prefix string) *MinioStore {
	return &MinioStore{client: client, bucket: bucket, prefix: prefix}
}

// Ready reports whether the bucket is reachable.
func (s *MinioStore) Ready(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %s is missing", s.bucket)
	}
	return nil
}

func (s *MinioStore) key(name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	return path.Join(s.prefix, name), nil
}

func (s *MinioStore) Write(ctx context.Context, name string, r io.Reader, size int64) error {
	ctx, span := tracer.Start(ctx, "MinioStore.Write", trace.WithAttributes(
		attribute.String("evidence.name", name),
		attribute.Int64("evidence.size", size),
	))
	defer span.End()

	key, err := s.key(name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid name")
		return err
	}

	_, err = s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	switch {
	case err == nil:
		span.SetStatus(codes.Error, "object exists")
		return ErrEvidenceExists
	case minio.ToErrorResponse(err).Code != "NoSuchKey":
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to stat object")
		return fmt.Errorf("stat evidence object: %w", err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to put object")
		return fmt.Errorf("put evidence object: %w", err)
	}

	span.SetStatus(codes.Ok, "put object")
	return nil
}

func (s *MinioStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	ctx, span := tracer.Start(ctx, "MinioStore.Open", trace.WithAttributes(
		attribute.String("evidence.name", name),
	))
	defer span.End()

	key, err := s.key(name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid name")
		return nil, err
	}

	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			span.SetStatus(codes.Ok, "did not find object")
			return nil, ErrEvidenceNotExist
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to stat object")
		return nil, fmt.Errorf("stat evidence object: %w", err)
	}

	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get object")
		return nil, fmt.Errorf("get evidence object: %w", err)
	}

	span.SetStatus(codes.Ok, "got object")
	return object, nil
}

func (s *MinioStore) DeleteIfExists(ctx context.Context, name string) error {
	ctx, span := tracer.Start(ctx, "MinioStore.DeleteIfExists", trace.WithAttributes(
		attribute.String("evidence.name", name),
	))
	defer span.End()

	key, err := s.key(name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid name")
		return err
	}

	// Removing a missing key is not an error for S3-compatible stores.
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to remove object")
		return fmt.Errorf("remove evidence object: %w", err)
	}

	span.SetStatus(codes.Ok, "removed object")
	return nil
}
