package thumbnailer

import "time"

// EventKind says which pipeline a storage event drives.
type EventKind string

const (
	KindFinalize EventKind = "finalize"
	KindDelete   EventKind = "delete"
)

// StorageObjectEvent is one storage-change notification, reduced to what the
// pipelines read.
type StorageObjectEvent struct {
	ID          string
	Kind        EventKind
	Name        string
	Bucket      string
	ContentType string
	Region      string
}

// IndexRecord is the document stored at DeriveKey(source path).
type IndexRecord struct {
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Updated      time.Time `json:"updated"`
}

// ThumbnailEvent is published after a pipeline finishes successfully.
type ThumbnailEvent struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Key           string    `json:"key"`
	Bucket        string    `json:"bucket"`
	SourcePath    string    `json:"source_path"`
	ThumbnailPath string    `json:"thumbnail_path"`
	URL           string    `json:"url,omitempty"`
	ThumbnailURL  string    `json:"thumbnail_url,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

const (
	EventThumbnailCreated = "thumbnail.created"
	EventThumbnailDeleted = "thumbnail.deleted"
)
