package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/galerija/imagepipe/internal/config"
)

// MinioStore implements Store backed by a MinIO / S3-compatible server.
type MinioStore struct {
	client *minio.Client
}

// NewMinioStore builds a client from the configured endpoint and
// credentials. It does not touch the network; the first operation does.
func NewMinioStore(cfg config.Minio) (*MinioStore, error) {
	endpoint := fmt.Sprintf("%s:%d", cfg.Endpoint, cfg.Port)
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client init: %w", err)
	}
	return &MinioStore{client: client}, nil
}

func (s *MinioStore) Exists(ctx context.Context, bucket string) (bool, error) {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return false, classify("bucket_exists", bucket, "", err)
	}
	return exists, nil
}

func (s *MinioStore) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return classify("bucket_exists", bucket, "", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return classify("make_bucket", bucket, "", err)
	}
	return nil
}

// List walks the bucket recursively under prefix. Pagination happens
// inside the SDK; the result is a finite snapshot.
func (s *MinioStore) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, classify("list", bucket, prefix, obj.Err)
		}
		if obj.Key == "" {
			continue
		}
		objects = append(objects, ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return objects, nil
}

func (s *MinioStore) Stat(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, classify("stat", bucket, key, err)
	}
	return ObjectInfo{Key: info.Key, Size: info.Size, LastModified: info.LastModified}, nil
}

func (s *MinioStore) GetToFile(ctx context.Context, bucket, key, localPath string) error {
	if err := s.client.FGetObject(ctx, bucket, key, localPath, minio.GetObjectOptions{}); err != nil {
		return classify("get", bucket, key, err)
	}
	return nil
}

func (s *MinioStore) PutFromFile(ctx context.Context, bucket, key, localPath, contentType string) error {
	opts := minio.PutObjectOptions{}
	if contentType != "" {
		opts.ContentType = contentType
	}
	if _, err := s.client.FPutObject(ctx, bucket, key, localPath, opts); err != nil {
		return classify("put", bucket, key, err)
	}
	return nil
}

func (s *MinioStore) Remove(ctx context.Context, bucket, key string) error {
	if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return classify("remove", bucket, key, err)
	}
	return nil
}

func (s *MinioStore) PresignedGetURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, bucket, key, ttl, url.Values{})
	if err != nil {
		return "", classify("presign", bucket, key, err)
	}
	return u.String(), nil
}

var _ Store = (*MinioStore)(nil)

// classify maps SDK failures onto the store error taxonomy.
func classify(op, bucket, key string, err error) error {
	kind := KindUnknown

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		kind = KindNotFound
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		kind = KindPermissionDenied
	}

	if kind == KindUnknown {
		var netErr net.Error
		var urlErr *url.Error
		if errors.As(err, &netErr) || errors.As(err, &urlErr) {
			kind = KindConnectionFailed
		}
	}

	return &Error{Kind: kind, Op: op, Bucket: bucket, Key: key, Err: err}
}
