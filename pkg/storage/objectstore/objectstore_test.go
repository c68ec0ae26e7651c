package objectstore

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampExpiry(t *testing.T) {
	cases := map[string]struct {
		in   time.Duration
		want time.Duration
	}{
		"zero":        {0, MaxSignedURLExpiry},
		"negative":    {-time.Hour, MaxSignedURLExpiry},
		"far future":  {250 * 365 * 24 * time.Hour, MaxSignedURLExpiry},
		"within":      {time.Hour, time.Hour},
		"sub-second":  {time.Millisecond, time.Second},
		"exactly max": {MaxSignedURLExpiry, MaxSignedURLExpiry},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClampExpiry(tc.in))
		})
	}
}

func TestIsNotFound(t *testing.T) {
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsNotFound(errors.New("connection reset")))
	assert.True(t, IsNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, IsNotFound(fmt.Errorf("delete: %w", minio.ErrorResponse{Code: "NoSuchKey"})))
	assert.False(t, IsNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "ftp"})
	assert.Error(t, err)
}

func TestNewMinioClient(t *testing.T) {
	cl, err := New(Config{Provider: "minio", Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	require.NoError(t, err)
	_, ok := cl.(Listener)
	assert.True(t, ok)
	assert.NoError(t, cl.Close())
}
