package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures the full runtime configuration for the thumbflow service.
type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	Trigger  TriggerConfig
	Kafka    KafkaConfig
	Storage  StorageConfig
	Docstore DocstoreConfig
	Pipeline PipelineConfig
	Tracing  TracingConfig
	Metrics  MetricsConfig
}

type AppConfig struct {
	Name        string `env:"APP_NAME" envDefault:"thumbflow"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	Version     string `env:"APP_VERSION" envDefault:"0.1.0"`
	LogLevel    string `env:"APP_LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"APP_LOG_FORMAT" envDefault:"json"`
	Region      string `env:"APP_REGION" envDefault:"asia-northeast1"`
}

type HTTPConfig struct {
	Addr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"10m"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	MaxBodyBytes int64         `env:"HTTP_MAX_BODY_BYTES" envDefault:"1048576"`
}

// TriggerConfig selects where storage-change notifications come from.
type TriggerConfig struct {
	// Source is one of webhook, kafka or listen.
	Source string `env:"TRIGGER_SOURCE" envDefault:"webhook"`
	// ListenBucket is only used by the listen source.
	ListenBucket string `env:"TRIGGER_LISTEN_BUCKET" envDefault:"media"`
}

type KafkaConfig struct {
	Brokers           []string      `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	NotificationTopic string        `env:"KAFKA_NOTIFICATION_TOPIC" envDefault:"minio.bucket-events"`
	ConsumerGroup     string        `env:"KAFKA_CONSUMER_GROUP" envDefault:"thumbflow"`
	ThumbnailTopic    string        `env:"KAFKA_THUMBNAIL_TOPIC" envDefault:""`
	Retries           int           `env:"KAFKA_RETRIES" envDefault:"3"`
	CompressionCodec  string        `env:"KAFKA_COMPRESSION_CODEC" envDefault:"snappy"`
	BatchSize         int           `env:"KAFKA_BATCH_SIZE" envDefault:"100"`
	BatchTimeout      time.Duration `env:"KAFKA_BATCH_TIMEOUT" envDefault:"1s"`
}

type StorageConfig struct {
	Provider  string `env:"STORAGE_PROVIDER" envDefault:"minio"`
	Endpoint  string `env:"STORAGE_ENDPOINT" envDefault:"localhost:9000"`
	Region    string `env:"STORAGE_REGION" envDefault:"us-east-1"`
	AccessKey string `env:"STORAGE_ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey string `env:"STORAGE_SECRET_KEY" envDefault:"minioadmin"`
	UseSSL    bool   `env:"STORAGE_USE_SSL" envDefault:"false"`
	// SignedURLExpiry is capped at seven days by SigV4 presigning.
	SignedURLExpiry time.Duration `env:"STORAGE_SIGNED_URL_EXPIRY" envDefault:"168h"`
}

type DocstoreConfig struct {
	Driver string `env:"DOCSTORE_DRIVER" envDefault:"sqlite"`
	DSN    string `env:"DOCSTORE_DSN" envDefault:"file:thumbflow.db?_pragma=busy_timeout(5000)"`
	Region string `env:"DOCSTORE_REGION" envDefault:""`
}

type PipelineConfig struct {
	TargetDir    string        `env:"PIPELINE_TARGET_DIR" envDefault:"public/video"`
	ThumbnailDir string        `env:"PIPELINE_THUMBNAIL_DIR" envDefault:"public/video/thumbnail"`
	MIMEType     string        `env:"PIPELINE_TARGET_MIME_TYPE" envDefault:"video/mp4"`
	Collection   string        `env:"PIPELINE_COLLECTION" envDefault:"videos"`
	FFmpegPath   string        `env:"PIPELINE_FFMPEG_PATH" envDefault:"ffmpeg"`
	FrameOffset  time.Duration `env:"PIPELINE_FRAME_OFFSET" envDefault:"1s"`
	StagingDir   string        `env:"PIPELINE_STAGING_DIR" envDefault:""`
	StepTimeout  time.Duration `env:"PIPELINE_STEP_TIMEOUT" envDefault:"2m"`
}

type TracingConfig struct {
	Endpoint     string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	Insecure     bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	SampleRatio  float64 `env:"OTEL_TRACES_SAMPLER_RATIO" envDefault:"1.0"`
	ResourceAttr string  `env:"OTEL_RESOURCE_ATTRIBUTES" envDefault:"service.namespace=thumbflow"`
}

type MetricsConfig struct {
	Addr string `env:"METRICS_ADDR" envDefault:":9102"`
}

// maxSignedURLExpiry is the longest lifetime SigV4 presigning accepts.
const maxSignedURLExpiry = 7 * 24 * time.Hour

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if exp := c.Storage.SignedURLExpiry; exp <= 0 || exp > maxSignedURLExpiry {
		return fmt.Errorf("STORAGE_SIGNED_URL_EXPIRY=%s: must be within (0, %s]", exp, maxSignedURLExpiry)
	}
	return nil
}
