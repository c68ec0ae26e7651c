package thumbnailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7/pkg/notification"
	"go.uber.org/zap"
)

// Dispatcher routes storage events to the matching pipeline. Each event is
// one invocation; a failure does not stop later events in the same batch.
type Dispatcher struct {
	service *Service
	logger  *zap.Logger
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(service *Service, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{service: service, logger: logger}
}

// Dispatch runs the pipeline for a single event.
func (d *Dispatcher) Dispatch(ctx context.Context, ev StorageObjectEvent) error {
	switch ev.Kind {
	case KindFinalize:
		_, err := d.service.HandleFinalize(ctx, ev)
		return err
	case KindDelete:
		return d.service.HandleDelete(ctx, ev)
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}

// DispatchAll runs every event and joins their errors.
func (d *Dispatcher) DispatchAll(ctx context.Context, events []StorageObjectEvent) error {
	var errs []error
	for _, ev := range events {
		if err := d.Dispatch(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s %s/%s: %w", ev.Kind, ev.Bucket, ev.Name, err))
		}
	}
	return errors.Join(errs...)
}

// HandleMessage decodes a notification body and dispatches its records. It
// matches the kafka consumer handler signature.
func (d *Dispatcher) HandleMessage(ctx context.Context, _ []byte, value []byte) error {
	events, err := DecodeNotification(value, d.logger)
	if err != nil {
		return err
	}
	return d.DispatchAll(ctx, events)
}

// Listen consumes a bucket notification stream until it closes or ctx ends.
func (d *Dispatcher) Listen(ctx context.Context, stream <-chan notification.Info) {
	for {
		select {
		case <-ctx.Done():
			return
		case info, ok := <-stream:
			if !ok {
				return
			}
			events, err := EventsFromInfo(info, d.logger)
			if err != nil {
				d.logger.Error("bucket notification failed", zap.Error(err))
				continue
			}
			if err := d.DispatchAll(ctx, events); err != nil {
				d.logger.Error("event handling failed", zap.Error(err))
			}
		}
	}
}
