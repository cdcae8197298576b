package store

import (
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"missing key", minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}, KindNotFound},
		{"missing bucket", minio.ErrorResponse{Code: "NoSuchBucket", Message: "The specified bucket does not exist."}, KindNotFound},
		{"stat miss", minio.ErrorResponse{Code: "NotFound", Message: "Not Found"}, KindNotFound},
		{"access denied", minio.ErrorResponse{Code: "AccessDenied", Message: "Access Denied."}, KindPermissionDenied},
		{"bad access key", minio.ErrorResponse{Code: "InvalidAccessKeyId", Message: "unknown key"}, KindPermissionDenied},
		{"bad signature", minio.ErrorResponse{Code: "SignatureDoesNotMatch", Message: "signature mismatch"}, KindPermissionDenied},
		{"connection refused", &url.Error{Op: "Get", URL: "http://localhost:9000", Err: fmt.Errorf("connection refused")}, KindConnectionFailed},
		{"anything else", fmt.Errorf("disk on fire"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("stat", "products", "a.jpg", tt.err)

			var storeErr *Error
			require.ErrorAs(t, err, &storeErr)
			assert.Equal(t, tt.want, storeErr.Kind)
			assert.Equal(t, "stat", storeErr.Op)
			assert.Equal(t, "products", storeErr.Bucket)
			assert.Equal(t, "a.jpg", storeErr.Key)
		})
	}
}

func TestClassifyPreservesCause(t *testing.T) {
	cause := minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}
	err := classify("get", "products", "a.jpg", cause)
	assert.True(t, errors.Is(err, cause), "original error must stay reachable through Unwrap")
}

func TestIsNotFound(t *testing.T) {
	notFound := &Error{Kind: KindNotFound, Op: "get", Bucket: "b", Key: "k", Err: fmt.Errorf("missing")}
	assert.True(t, IsNotFound(notFound))
	assert.True(t, IsNotFound(fmt.Errorf("download: %w", notFound)))

	other := &Error{Kind: KindConnectionFailed, Op: "get", Err: fmt.Errorf("refused")}
	assert.False(t, IsNotFound(other))
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsNotFound(fmt.Errorf("plain")))
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: KindNotFound, Op: "stat", Bucket: "products", Key: "a.jpg", Err: fmt.Errorf("missing")}
	msg := err.Error()
	assert.Contains(t, msg, "stat")
	assert.Contains(t, msg, "products")
	assert.Contains(t, msg, "a.jpg")
}
