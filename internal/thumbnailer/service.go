package thumbnailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/your-org/thumbflow/pkg/docstore"
	"github.com/your-org/thumbflow/pkg/metrics"
	"github.com/your-org/thumbflow/pkg/tracing"
)

// ThumbnailContentType is the content type thumbnails are published with.
const ThumbnailContentType = "image/jpeg"

const (
	pipelineUpload = "upload"
	pipelineDelete = "delete"
)

// ObjectStore is the slice of the object store the pipelines call.
type ObjectStore interface {
	Download(ctx context.Context, bucket, key, dest string) error
	Upload(ctx context.Context, bucket, src, key, contentType string) error
	Delete(ctx context.Context, bucket, key string) error
	SignedURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// Publisher announces finished pipeline runs.
type Publisher interface {
	Publish(ctx context.Context, key []byte, value []byte, headers map[string]string) error
}

// Config holds the fixed pipeline settings.
type Config struct {
	TargetDir       string
	ThumbnailDir    string
	MIMEType        string
	Collection      string
	SignedURLExpiry time.Duration
	// StepTimeout bounds each I/O step; zero leaves steps unbounded.
	StepTimeout time.Duration
}

// Service runs the upload and deletion pipelines against shared,
// process-wide collaborators.
type Service struct {
	cfg       Config
	validator Validator
	store     ObjectStore
	index     docstore.Store
	extractor FrameExtractor
	staging   *Staging
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

type Params struct {
	Config    Config
	Store     ObjectStore
	Index     docstore.Store
	Extractor FrameExtractor
	Staging   *Staging
	// Publisher and Metrics are optional.
	Publisher Publisher
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Now       func() time.Time
}

// NewService constructs a thumbnail Service.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	staging := p.Staging
	if staging == nil {
		staging = NewStaging("")
	}
	return &Service{
		cfg: p.Config,
		validator: Validator{
			TargetDir: p.Config.TargetDir,
			MIMEType:  p.Config.MIMEType,
			Logger:    logger,
		},
		store:     p.Store,
		index:     p.Index,
		extractor: p.Extractor,
		staging:   staging,
		publisher: p.Publisher,
		metrics:   p.Metrics,
		logger:    logger,
		now:       now,
	}
}

func (s *Service) eventLogger(ev StorageObjectEvent) *zap.Logger {
	return s.logger.With(
		zap.String("event_id", ev.ID),
		zap.String("kind", string(ev.Kind)),
		zap.String("bucket", ev.Bucket),
		zap.String("object", ev.Name),
	)
}

// step runs fn as one traced, timed pipeline stage and prefixes its error
// with the stage name.
func (s *Service) step(ctx context.Context, pipeline, name string, fn func(ctx context.Context) error) error {
	ctx, span := tracing.StartSpan(ctx, "thumbnailer."+name, attribute.String("pipeline", pipeline))
	if s.cfg.StepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.StepTimeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	s.metrics.ObserveStage(pipeline, name, err, time.Since(start))
	tracing.End(span, err)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (s *Service) announce(ctx context.Context, log *zap.Logger, ev ThumbnailEvent) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error("marshal thumbnail event", zap.Error(err))
		return
	}
	headers := map[string]string{
		"event_id":   ev.ID,
		"event_type": ev.Type,
	}
	if err := s.publisher.Publish(ctx, []byte(ev.Key), payload, headers); err != nil {
		log.Error("publish thumbnail event", zap.String("event_type", ev.Type), zap.Error(err))
	}
}
