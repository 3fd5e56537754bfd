package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/cors"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

// ErrBucketTaken is returned by EnsureBucket when the bucket name belongs to another account.
var ErrBucketTaken = errors.New("bucket name already taken")

// MinioStorage implements Backend using any S3-compatible object store.
// Pointing STORAGE_ENDPOINT at AWS, MinIO or another provider needs no code changes.
type MinioStorage struct {
	client *minio.Client
	bucket string
	region string
}

// NewMinioStorage creates the client for bucket. It performs no network I/O;
// call Probe to check reachability.
func NewMinioStorage(endpoint, region, accessKey, secretKey, bucket string, useSSL bool) (*MinioStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinioStorage{client: client, bucket: bucket, region: region}, nil
}

// Probe performs the single reachability check used at startup: the bucket must exist
// and be visible with the configured credentials.
func (s *MinioStorage) Probe(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w: %w", s.bucket, ErrBackendUnavailable, err)
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist: %w", s.bucket, ErrBackendUnavailable)
	}
	return nil
}

// Put streams reader to the bucket under key. size must be the exact byte count
// (pass -1 only if the size is genuinely unknown, the client will buffer it).
func (s *MinioStorage) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return classify("put object", key, err)
}

// List returns every object in the bucket.
func (s *MinioStorage) List(ctx context.Context) ([]Object, error) {
	objects := []Object{}
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if info.Err != nil {
			return nil, classify("list objects", s.bucket, info.Err)
		}
		objects = append(objects, Object{
			Key:          info.Key,
			Size:         info.Size,
			LastModified: info.LastModified,
		})
	}
	return objects, nil
}

// Delete removes the object at key from the bucket. Missing keys are ignored.
func (s *MinioStorage) Delete(ctx context.Context, key string) error {
	err := classify("remove object", key, s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// RetrievalURL returns a presigned GET URL for key that expires after expiry.
func (s *MinioStorage) RetrievalURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", classify("presign object", key, err)
	}
	return u.String(), nil
}

// Stat returns metadata for key.
func (s *MinioStorage) Stat(ctx context.Context, key string) (Object, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return Object{}, classify("stat object", key, err)
	}
	return Object{Key: info.Key, Size: info.Size, LastModified: info.LastModified}, nil
}

// Open streams the object content through the gateway.
func (s *MinioStorage) Open(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, Object{}, classify("get object", key, err)
	}
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, Object{}, classify("get object", key, err)
	}
	return obj, Object{Key: info.Key, Size: info.Size, LastModified: info.LastModified}, nil
}

func (s *MinioStorage) Mode() Mode { return ModeS3 }

func (s *MinioStorage) Capabilities() Capabilities {
	return Capabilities{SignedURLs: true, DirectDownload: true}
}

func (s *MinioStorage) Label() string { return s.bucket }

// EnsureBucket creates the bucket in the configured region when it is missing.
// It reports whether a bucket was created.
func (s *MinioStorage) EnsureBucket(ctx context.Context) (bool, error) {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return false, fmt.Errorf("check bucket existence: %w", err)
	}
	if exists {
		return false, nil
	}

	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	if err != nil {
		switch minio.ToErrorResponse(err).Code {
		case "BucketAlreadyOwnedByYou":
			return false, nil
		case "BucketAlreadyExists":
			return false, fmt.Errorf("create bucket %q: %w", s.bucket, ErrBucketTaken)
		}
		return false, fmt.Errorf("create bucket %q: %w", s.bucket, err)
	}
	log.Infof("storage: created bucket %q in %s", s.bucket, s.region)
	return true, nil
}

// ApplyCORS installs a permissive CORS rule so browsers can follow presigned links.
func (s *MinioStorage) ApplyCORS(ctx context.Context) error {
	cfg := &cors.Config{
		CORSRules: []cors.Rule{{
			AllowedHeader: []string{"*"},
			AllowedMethod: []string{"GET", "PUT", "POST", "DELETE"},
			AllowedOrigin: []string{"*"},
			ExposeHeader:  []string{"ETag"},
			MaxAgeSeconds: 3000,
		}},
	}
	if err := s.client.SetBucketCors(ctx, s.bucket, cfg); err != nil {
		return fmt.Errorf("set bucket cors: %w", err)
	}
	return nil
}

// VerifyAccess lists at most one object to confirm read access to the bucket.
func (s *MinioStorage) VerifyAccess(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{MaxKeys: 1}) {
		if info.Err != nil {
			return fmt.Errorf("list bucket %q: %w", s.bucket, info.Err)
		}
		break
	}
	return nil
}

// classify maps client errors onto the package error kinds.
func classify(op, key string, err error) error {
	if err == nil {
		return nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%s %q: %w", op, key, ErrNotFound)
	}
	return fmt.Errorf("%s %q: %w: %w", op, key, ErrBackendUnavailable, err)
}
