// Package objstore keeps item photos in an S3-compatible bucket.
package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/erazemk/reunite/internal/store"
)

// Config describes the bucket photos are stored in.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Prefix    string
	UseSSL    bool
}

// Store implements store.ImageStore on top of an S3 bucket.
type Store struct {
	api    *minio.Client
	bucket string
	prefix string
}

var _ store.ImageStore = (*Store)(nil)

// New returns a store for cfg. It does not contact the server.
func New(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("s3 endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating s3 client: %w", err)
	}

	return &Store{
		api:    api,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	ok, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", s.bucket, err)
	}
	if ok {
		return nil
	}
	if err := s.api.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("creating bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Key returns the object key holding an item's photo.
func (s *Store) Key(itemID string) string {
	return path.Join(s.prefix, "items", itemID)
}

// PutImage uploads an item's photo.
func (s *Store) PutImage(ctx context.Context, itemID string, data []byte, mime string) error {
	_, err := s.api.PutObject(ctx, s.bucket, s.Key(itemID), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: mime})
	if err != nil {
		return fmt.Errorf("uploading image: %w", err)
	}
	return nil
}

// GetImage downloads an item's photo. Both results are empty when no photo
// is stored.
func (s *Store) GetImage(ctx context.Context, itemID string) ([]byte, string, error) {
	obj, err := s.api.GetObject(ctx, s.bucket, s.Key(itemID), minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("getting image: %w", err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if isNotFound(err) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting image: %w", err)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", fmt.Errorf("reading image: %w", err)
	}
	return data, info.ContentType, nil
}

// DeleteImage removes an item's photo. Removing a missing photo is not an error.
func (s *Store) DeleteImage(ctx context.Context, itemID string) error {
	err := s.api.RemoveObject(ctx, s.bucket, s.Key(itemID), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("deleting image: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
