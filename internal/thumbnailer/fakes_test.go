package thumbnailer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/your-org/thumbflow/pkg/docstore"
	"github.com/your-org/thumbflow/pkg/metrics"
)

const testBucket = "media"

// memStore is an in-memory ObjectStore. Like a strict client it reports
// NoSuchKey when deleting an absent object.
type memStore struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	calls        []string
	uploadErr    error
}

func newMemStore() *memStore {
	return &memStore{
		objects:      map[string][]byte{},
		contentTypes: map[string]string{},
	}
}

func (m *memStore) put(key string, data []byte, contentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[testBucket+"/"+key] = data
	m.contentTypes[testBucket+"/"+key] = contentType
}

func (m *memStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[testBucket+"/"+key]
	return ok
}

func (m *memStore) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *memStore) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *memStore) Download(_ context.Context, bucket, key, dest string) error {
	m.record("download " + key)
	m.mu.Lock()
	data, ok := m.objects[bucket+"/"+key]
	m.mu.Unlock()
	if !ok {
		return minio.ErrorResponse{Code: "NoSuchKey", Key: key, BucketName: bucket}
	}
	return os.WriteFile(dest, data, 0o644)
}

func (m *memStore) Upload(_ context.Context, bucket, src, key, contentType string) error {
	m.record("upload " + key)
	if m.uploadErr != nil {
		return m.uploadErr
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = data
	m.contentTypes[bucket+"/"+key] = contentType
	return nil
}

func (m *memStore) Delete(_ context.Context, bucket, key string) error {
	m.record("delete " + key)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[bucket+"/"+key]; !ok {
		return minio.ErrorResponse{Code: "NoSuchKey", Key: key, BucketName: bucket}
	}
	delete(m.objects, bucket+"/"+key)
	return nil
}

func (m *memStore) SignedURL(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	m.record("sign " + key)
	m.mu.Lock()
	_, ok := m.objects[bucket+"/"+key]
	m.mu.Unlock()
	if !ok {
		return "", minio.ErrorResponse{Code: "NoSuchKey", Key: key, BucketName: bucket}
	}
	u := url.URL{Scheme: "https", Host: "store.test", Path: "/" + bucket + "/" + key}
	u.RawQuery = url.Values{"X-Amz-Expires": {fmt.Sprint(int(expiry.Seconds()))}}.Encode()
	return u.String(), nil
}

// stubExtractor writes a fixed payload or fails with err.
type stubExtractor struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (s *stubExtractor) ExtractFrame(_ context.Context, input, output string) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, err := os.Stat(input); err != nil {
		return fmt.Errorf("%w: %v", ErrFrameExtraction, err)
	}
	return os.WriteFile(output, []byte("jpeg"), 0o644)
}

type published struct {
	key     string
	value   []byte
	headers map[string]string
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []published
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, key []byte, value []byte, headers map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, published{key: string(key), value: value, headers: headers})
	return p.err
}

type fixture struct {
	service   *Service
	store     *memStore
	index     docstore.Store
	extractor *stubExtractor
	publisher *recordingPublisher
	staging   *Staging
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	index, err := docstore.Open(context.Background(), docstore.Config{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	f := &fixture{
		store:     newMemStore(),
		index:     index,
		extractor: &stubExtractor{},
		publisher: &recordingPublisher{},
		staging:   NewStaging(t.TempDir()),
		now:       time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
	}
	f.service = NewService(Params{
		Config: Config{
			TargetDir:       "public/video",
			ThumbnailDir:    "public/video/thumbnail",
			MIMEType:        "video/mp4",
			Collection:      "videos",
			SignedURLExpiry: 7 * 24 * time.Hour,
			StepTimeout:     time.Minute,
		},
		Store:     f.store,
		Index:     index,
		Extractor: f.extractor,
		Staging:   f.staging,
		Publisher: f.publisher,
		Metrics:   m,
		Logger:    zaptest.NewLogger(t),
		Now:       func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) record(t *testing.T, sourcePath string) (IndexRecord, error) {
	t.Helper()
	var rec IndexRecord
	err := f.index.Get(context.Background(), "videos", DeriveKey(sourcePath), &rec)
	return rec, err
}

func (f *fixture) requireNoStagedFiles(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.staging.Root())
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	require.NoError(t, err)
	require.Empty(t, entries, "staged files left behind")
}

func finalizeEvent(name, contentType string) StorageObjectEvent {
	return StorageObjectEvent{ID: "ev-1", Kind: KindFinalize, Name: name, Bucket: testBucket, ContentType: contentType}
}

func deleteEvent(name, contentType string) StorageObjectEvent {
	return StorageObjectEvent{ID: "ev-2", Kind: KindDelete, Name: name, Bucket: testBucket, ContentType: contentType}
}
