package minio

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dontpanicw/ClinicMedia/config"
	"github.com/dontpanicw/ClinicMedia/internal/domain"
	"github.com/dontpanicw/ClinicMedia/internal/port"
	"github.com/dontpanicw/ClinicMedia/pkg/log"
)

var _ port.BlobStore = (*MediaMinioStorage)(nil)

const publicReadPolicy = `{
  "Version": "2012-10-17",
  "Statement": [{
    "Effect": "Allow",
    "Principal": {"AWS": ["*"]},
    "Action": ["s3:GetObject"],
    "Resource": ["arn:aws:s3:::%s/*"]
  }]
}`

type MediaMinioStorage struct {
	mc      *minio.Client
	config  *config.Config
	baseURL string

	initAttempts int
	initDelay    time.Duration
}

func NewMinioStorage(cfg *config.Config) *MediaMinioStorage {
	return &MediaMinioStorage{
		config:       cfg,
		baseURL:      cfg.MediaBaseURL(),
		initAttempts: 5,
		initDelay:    3 * time.Second,
	}
}

// Init connects to MinIO, creates the bucket if missing and makes it
// anonymously readable so returned URLs work without signing.
func (s *MediaMinioStorage) Init(ctx context.Context) error {
	var err error

	for k := 0; k < s.initAttempts; k++ {
		if err = s.connect(ctx); err == nil {
			return nil
		}
		log.WithError(err).Warnf("MinIO is not ready (attempt %d/%d)", k+1, s.initAttempts)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.initDelay):
		}
	}

	return fmt.Errorf("failed to connect to MinIO after %d attempts: %w", s.initAttempts, err)
}

func (s *MediaMinioStorage) connect(ctx context.Context) error {
	client, err := minio.New(s.config.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(s.config.MinioRootUser, s.config.MinioRootPassword, ""),
		Secure: s.config.MinioUseSSL,
	})
	if err != nil {
		return err
	}

	exists, err := client.BucketExists(ctx, s.config.BucketName)
	if err != nil {
		return err
	}
	if !exists {
		if err := client.MakeBucket(ctx, s.config.BucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.config.BucketName, err)
		}
		log.Infof("Bucket %s created", s.config.BucketName)
	}

	policy := fmt.Sprintf(publicReadPolicy, s.config.BucketName)
	if err := client.SetBucketPolicy(ctx, s.config.BucketName, policy); err != nil {
		return fmt.Errorf("failed to set public-read policy on %s: %w", s.config.BucketName, err)
	}

	s.mc = client
	return nil
}

func (s *MediaMinioStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (domain.StoredObject, error) {
	if s.mc == nil {
		return domain.StoredObject{}, fmt.Errorf("%w: minio client is not initialized", domain.ErrStorageUnavailable)
	}

	info, err := s.mc.PutObject(ctx, s.config.BucketName, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return domain.StoredObject{}, fmt.Errorf("failed to upload object %s: %w", key, err)
	}

	log.WithFields(log.Fields{"key": key, "size": info.Size}).Info("object stored in MinIO")
	return domain.StoredObject{Key: key, URL: s.baseURL + "/" + key}, nil
}

func (s *MediaMinioStorage) Remove(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("%w: object key cannot be empty", domain.ErrBadRequest)
	}
	if s.mc == nil {
		return fmt.Errorf("%w: minio client is not initialized", domain.ErrStorageUnavailable)
	}

	// RemoveObject succeeds for missing keys, so stat first to report them.
	if _, err := s.mc.StatObject(ctx, s.config.BucketName, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return fmt.Errorf("object %s: %w", key, domain.ErrAssetNotFound)
		}
		return fmt.Errorf("failed to stat object %s: %w", key, err)
	}

	if err := s.mc.RemoveObject(ctx, s.config.BucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", key, err)
	}

	log.WithField("key", key).Info("object removed from MinIO")
	return nil
}

func (s *MediaMinioStorage) KeyFromURL(url string) (string, bool) {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	return key, key != ""
}
