package thumbnailer

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7/pkg/notification"
	"go.uber.org/zap"
)

var (
	createdPrefix = strings.TrimSuffix(string(notification.ObjectCreatedAll), "*")
	removedPrefix = strings.TrimSuffix(string(notification.ObjectRemovedAll), "*")
)

// extensionTypes covers what removal records need; the mime package only
// knows about .mp4 when the host has a mime.types file.
var extensionTypes = map[string]string{
	".mp4":  "video/mp4",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// notificationEnvelope is the body MinIO sends to webhook and Kafka targets.
type notificationEnvelope struct {
	EventName string               `json:"EventName"`
	Key       string               `json:"Key"`
	Records   []notification.Event `json:"Records"`
}

// DecodeNotification parses an S3-style notification body into storage events.
// Records that are neither creations nor removals are dropped. Records whose
// key cannot be decoded are logged and skipped so the rest of the batch runs.
func DecodeNotification(body []byte, logger *zap.Logger) ([]StorageObjectEvent, error) {
	var env notificationEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}
	return eventsFromRecords(env.Records, logger), nil
}

// EventsFromInfo converts a ListenBucketNotification batch.
func EventsFromInfo(info notification.Info, logger *zap.Logger) ([]StorageObjectEvent, error) {
	if info.Err != nil {
		return nil, fmt.Errorf("bucket notification: %w", info.Err)
	}
	return eventsFromRecords(info.Records, logger), nil
}

func eventsFromRecords(records []notification.Event, logger *zap.Logger) []StorageObjectEvent {
	if logger == nil {
		logger = zap.NewNop()
	}
	events := make([]StorageObjectEvent, 0, len(records))
	for _, rec := range records {
		ev, ok, err := eventFromRecord(rec)
		if err != nil {
			logger.Warn("skipping notification record",
				zap.String("event_name", rec.EventName),
				zap.String("bucket", rec.S3.Bucket.Name),
				zap.Error(err),
			)
			continue
		}
		if ok {
			events = append(events, ev)
		}
	}
	return events
}

func eventFromRecord(rec notification.Event) (StorageObjectEvent, bool, error) {
	var kind EventKind
	switch {
	case strings.HasPrefix(rec.EventName, createdPrefix):
		kind = KindFinalize
	case strings.HasPrefix(rec.EventName, removedPrefix):
		kind = KindDelete
	default:
		return StorageObjectEvent{}, false, nil
	}

	// Object keys arrive URL-encoded.
	name, err := url.QueryUnescape(rec.S3.Object.Key)
	if err != nil {
		return StorageObjectEvent{}, false, fmt.Errorf("unescape object key %q: %w", rec.S3.Object.Key, err)
	}

	ev := StorageObjectEvent{
		ID:          uuid.NewString(),
		Kind:        kind,
		Name:        name,
		Bucket:      rec.S3.Bucket.Name,
		ContentType: rec.S3.Object.ContentType,
		Region:      rec.AwsRegion,
	}
	if ev.ContentType == "" && kind == KindDelete {
		ev.ContentType = removedContentType(name, rec.S3.Object.UserMetadata)
	}
	return ev, true, nil
}

// removedContentType recovers the content type removal records usually omit,
// from user metadata first and the key extension second.
func removedContentType(name string, meta map[string]string) string {
	for k, v := range meta {
		if strings.EqualFold(k, "content-type") && v != "" {
			return v
		}
	}
	ext := strings.ToLower(path.Ext(name))
	if ct, ok := extensionTypes[ext]; ok {
		return ct
	}
	ct, _, _ := strings.Cut(mime.TypeByExtension(ext), ";")
	return ct
}
