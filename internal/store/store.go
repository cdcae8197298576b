package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ObjectInfo represents metadata for a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Store captures the S3-compatible operations the pipeline needs.
type Store interface {
	Exists(ctx context.Context, bucket string) (bool, error)
	EnsureBucket(ctx context.Context, bucket string) error
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)
	GetToFile(ctx context.Context, bucket, key, localPath string) error
	PutFromFile(ctx context.Context, bucket, key, localPath, contentType string) error
	Remove(ctx context.Context, bucket, key string) error
	PresignedGetURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// Kind classifies store failures for callers that need to branch on them.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConnectionFailed
	KindPermissionDenied
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConnectionFailed:
		return "connection_failed"
	case KindPermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}

// Error wraps a failed store operation with its classification.
type Error struct {
	Kind   Kind
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store %s %s/%s: %s: %v", e.Op, e.Bucket, e.Key, e.Kind, e.Err)
	}
	return fmt.Sprintf("store %s %s: %s: %v", e.Op, e.Bucket, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err represents a missing object or bucket.
// Callers treat this as "nothing to do" rather than a failure.
func IsNotFound(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == KindNotFound
}
