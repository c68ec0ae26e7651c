package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/notification"
)

// MaxSignedURLExpiry is the longest lifetime a SigV4 presigned URL may carry.
const MaxSignedURLExpiry = 7 * 24 * time.Hour

// Config contains the information required to talk to an object store.
type Config struct {
	Provider  string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Client represents the capabilities the thumbnail pipelines expect. Every
// call names the bucket because events may originate from any bucket the
// store notifies about.
type Client interface {
	// Download copies bucket/key into the local file at dest.
	Download(ctx context.Context, bucket, key, dest string) error
	// Upload stores the local file src at bucket/key with the given content type.
	Upload(ctx context.Context, bucket, src, key, contentType string) error
	// Delete removes bucket/key. A missing object is not an error.
	Delete(ctx context.Context, bucket, key string) error
	// SignedURL returns a presigned GET URL valid for expiry.
	SignedURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
	Close() error
}

// Listener is implemented by stores that can stream bucket notifications.
type Listener interface {
	Listen(ctx context.Context, bucket, prefix, suffix string, events []string) <-chan notification.Info
}

// New creates an object store client based on the given configuration.
func New(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "minio", "s3":
		return newMinioClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported object store provider: %s", cfg.Provider)
	}
}

type minioClient struct {
	client *minio.Client
}

func newMinioClient(cfg Config) (*minioClient, error) {
	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	return &minioClient{client: cl}, nil
}

func (m *minioClient) Download(ctx context.Context, bucket, key, dest string) error {
	return m.client.FGetObject(ctx, bucket, key, dest, minio.GetObjectOptions{})
}

func (m *minioClient) Upload(ctx context.Context, bucket, src, key, contentType string) error {
	_, err := m.client.FPutObject(ctx, bucket, key, src, minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (m *minioClient) Delete(ctx context.Context, bucket, key string) error {
	err := m.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
	if IsNotFound(err) {
		return nil
	}
	return err
}

func (m *minioClient) SignedURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, bucket, key, ClampExpiry(expiry), url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (m *minioClient) Listen(ctx context.Context, bucket, prefix, suffix string, events []string) <-chan notification.Info {
	return m.client.ListenBucketNotification(ctx, bucket, prefix, suffix, events)
}

func (m *minioClient) Close() error {
	return nil
}

// ClampExpiry bounds expiry to what presigning accepts. Non-positive values
// and anything past the maximum become MaxSignedURLExpiry.
func ClampExpiry(expiry time.Duration) time.Duration {
	if expiry <= 0 || expiry > MaxSignedURLExpiry {
		return MaxSignedURLExpiry
	}
	if expiry < time.Second {
		return time.Second
	}
	return expiry
}

// IsNotFound reports whether err is a missing bucket or key response.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		return false
	}
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchObject"
}
