package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7/pkg/notification"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/your-org/thumbflow/internal/thumbnailer"
	"github.com/your-org/thumbflow/pkg/config"
	"github.com/your-org/thumbflow/pkg/docstore"
	"github.com/your-org/thumbflow/pkg/kafka"
	"github.com/your-org/thumbflow/pkg/logger"
	"github.com/your-org/thumbflow/pkg/metrics"
	"github.com/your-org/thumbflow/pkg/storage/objectstore"
	"github.com/your-org/thumbflow/pkg/tracing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logr, err := logger.New(logger.Options{
		Level:   cfg.App.LogLevel,
		Format:  cfg.App.LogFormat,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		Region:  cfg.App.Region,
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	traceShutdown, err := tracing.Init(ctx, tracing.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
		Attributes:  parseResourceAttributes(cfg.Tracing.ResourceAttr),
		ServiceName: cfg.App.Name,
	})
	if err != nil {
		logr.Fatal("init tracing", zap.Error(err))
	}
	defer traceShutdown(context.Background()) //nolint:errcheck

	pipelineMetrics, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		logr.Fatal("init metrics", zap.Error(err))
	}

	store, err := objectstore.New(objectstore.Config{
		Provider:  cfg.Storage.Provider,
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		logr.Fatal("init object store", zap.Error(err))
	}
	defer store.Close() //nolint:errcheck

	index, err := docstore.Open(ctx, docstore.Config{
		Driver: cfg.Docstore.Driver,
		DSN:    cfg.Docstore.DSN,
		Region: cfg.Docstore.Region,
	})
	if err != nil {
		logr.Fatal("init docstore", zap.Error(err))
	}
	defer index.Close() //nolint:errcheck

	params := thumbnailer.Params{
		Config: thumbnailer.Config{
			TargetDir:       cfg.Pipeline.TargetDir,
			ThumbnailDir:    cfg.Pipeline.ThumbnailDir,
			MIMEType:        cfg.Pipeline.MIMEType,
			Collection:      cfg.Pipeline.Collection,
			SignedURLExpiry: cfg.Storage.SignedURLExpiry,
			StepTimeout:     cfg.Pipeline.StepTimeout,
		},
		Store: store,
		Index: index,
		Extractor: thumbnailer.FFmpegExtractor{
			Binary: cfg.Pipeline.FFmpegPath,
			Offset: cfg.Pipeline.FrameOffset,
		},
		Staging: thumbnailer.NewStaging(cfg.Pipeline.StagingDir),
		Metrics: pipelineMetrics,
		Logger:  logr,
	}
	if cfg.Kafka.ThumbnailTopic != "" {
		producer := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.ThumbnailTopic,
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			Compression:  kafka.CompressionFromString(cfg.Kafka.CompressionCodec),
			RequiredAcks: kafkago.RequireAll,
			MaxAttempts:  cfg.Kafka.Retries,
		})
		defer producer.Close(context.Background()) //nolint:errcheck
		params.Publisher = producer
	}

	service := thumbnailer.NewService(params)
	dispatcher := thumbnailer.NewDispatcher(service, logr)
	handler := thumbnailer.NewHTTPHandler(dispatcher, logr, cfg.HTTP.MaxBodyBytes, cfg.HTTP.WriteTimeout)

	go serveMetrics(ctx, cfg.Metrics.Addr, logr)

	switch cfg.Trigger.Source {
	case "webhook":
		// served below
	case "kafka":
		consumer := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.NotificationTopic,
			GroupID: cfg.Kafka.ConsumerGroup,
		})
		consumer.OnError = func(msg kafkago.Message, err error) {
			logr.Error("notification handling failed",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
		go func() {
			defer consumer.Close() //nolint:errcheck
			if err := consumer.Run(ctx, dispatcher.HandleMessage); err != nil {
				logr.Error("kafka consumer stopped", zap.Error(err))
				stop()
			}
		}()
	case "listen":
		listener, ok := store.(objectstore.Listener)
		if !ok {
			logr.Fatal("object store cannot stream notifications", zap.String("provider", cfg.Storage.Provider))
		}
		events := []string{string(notification.ObjectCreatedAll), string(notification.ObjectRemovedAll)}
		go dispatcher.Listen(ctx, listener.Listen(ctx, cfg.Trigger.ListenBucket, cfg.Pipeline.TargetDir+"/", "", events))
	default:
		logr.Fatal("unsupported trigger source", zap.String("source", cfg.Trigger.Source))
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logr.Error("http server shutdown failed", zap.Error(err))
		}
	}()

	logr.Info("thumbflow starting",
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("trigger", cfg.Trigger.Source),
		zap.String("target_dir", cfg.Pipeline.TargetDir),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Fatal("http server failed", zap.Error(err))
	}
}

func serveMetrics(ctx context.Context, addr string, logr *zap.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Error("metrics server failed", zap.Error(err))
	}
}

func parseResourceAttributes(raw string) map[string]string {
	if raw == "" {
		return map[string]string{}
	}
	attrs := map[string]string{}
	pairs := strings.Split(raw, ",")
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		if !strings.Contains(pair, "=") {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		attrs[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return attrs
}
