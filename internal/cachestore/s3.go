package cachestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/avast/retry-go/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/gridci/gridci/internal/cachekey"
)

// s3RetryAttempts bounds how often a transient backend error is retried
// before the failure is surfaced (and then degraded to "no cache" by the
// job runner).
const s3RetryAttempts = 3

// S3Config carries the connection settings for an S3-compatible backend.
type S3Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// S3 stores cache entries as objects in an S3-compatible bucket, one object
// per key. Transient backend errors are retried a few times before the
// operation is reported as failed.
type S3 struct {
	client *minio.Client
	bucket string
}

// NewS3 builds a store from the given connection settings.
func NewS3(cfg S3Config) (*S3, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 cache backend requires an endpoint and a bucket")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating s3 client for %s: %w", cfg.Endpoint, err)
	}

	return &S3{client: client, bucket: cfg.Bucket}, nil
}

// Restore implements Store.
func (s *S3) Restore(ctx context.Context, key cachekey.Key) (Contents, error) {
	return retry.DoWithData(func() (Contents, error) {
		obj, err := s.client.GetObject(ctx, s.bucket, key.String(), minio.GetObjectOptions{})
		if err != nil {
			return nil, fmt.Errorf("fetching cache object %s: %w", key, err)
		}
		defer obj.Close()

		data, err := io.ReadAll(obj)
		if err != nil {
			if minio.ToErrorResponse(err).Code == "NoSuchKey" {
				return nil, ErrMiss
			}
			return nil, fmt.Errorf("reading cache object %s: %w", key, err)
		}
		return data, nil
	},
		retry.Context(ctx),
		retry.Attempts(s3RetryAttempts),
		retry.LastErrorOnly(true),
		// A miss is a definitive answer, not a transient fault.
		retry.RetryIf(func(err error) bool { return !errors.Is(err, ErrMiss) }),
	)
}

// Save implements Store.
func (s *S3) Save(ctx context.Context, key cachekey.Key, contents Contents) error {
	return retry.Do(func() error {
		_, err := s.client.PutObject(ctx, s.bucket, key.String(),
			bytes.NewReader(contents), int64(len(contents)),
			minio.PutObjectOptions{ContentType: "application/gzip"})
		if err != nil {
			return fmt.Errorf("storing cache object %s: %w", key, err)
		}
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(s3RetryAttempts),
		retry.LastErrorOnly(true),
	)
}
