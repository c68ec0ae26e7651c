package thumbnailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testValidator() Validator {
	return Validator{TargetDir: "public/video", MIMEType: "video/mp4"}
}

func TestInScope(t *testing.T) {
	cases := []struct {
		name string
		ev   StorageObjectEvent
		want bool
	}{
		{"exact match", StorageObjectEvent{Name: "public/video/clip.mp4", ContentType: "video/mp4"}, true},
		{"other directory", StorageObjectEvent{Name: "other/video/x.mp4", ContentType: "video/mp4"}, false},
		{"nested directory", StorageObjectEvent{Name: "public/video/thumbnail/x.mp4", ContentType: "video/mp4"}, false},
		{"prefix directory", StorageObjectEvent{Name: "public/videos/x.mp4", ContentType: "video/mp4"}, false},
		{"wrong content type", StorageObjectEvent{Name: "public/video/x.webm", ContentType: "video/webm"}, false},
		{"missing content type", StorageObjectEvent{Name: "public/video/x.mp4"}, false},
		{"missing name", StorageObjectEvent{ContentType: "video/mp4"}, false},
		{"image", StorageObjectEvent{Name: "public/images/a.png", ContentType: "image/png"}, false},
		{"doubled slash", StorageObjectEvent{Name: "public/video//a.mp4", ContentType: "video/mp4"}, false},
		{"dot segment", StorageObjectEvent{Name: "public/video/./a.mp4", ContentType: "video/mp4"}, false},
		{"dot-dot segment", StorageObjectEvent{Name: "public/video/x/../a.mp4", ContentType: "video/mp4"}, false},
		{"no directory", StorageObjectEvent{Name: "a.mp4", ContentType: "video/mp4"}, false},
		{"directory only", StorageObjectEvent{Name: "public/video/", ContentType: "video/mp4"}, false},
	}
	v := testValidator()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, v.InScope(tc.ev))
		})
	}
}

func TestInScopeLogsReason(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	v := testValidator()
	v.Logger = zap.New(core)

	v.InScope(StorageObjectEvent{Name: "public/video/x.webm", ContentType: "video/webm"})
	v.InScope(StorageObjectEvent{Name: "other/x.mp4", ContentType: "video/mp4"})

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "content_type", entries[0].ContextMap()["check"])
		assert.Equal(t, "video/webm", entries[0].ContextMap()["value"])
		assert.Equal(t, "directory", entries[1].ContextMap()["check"])
		assert.Equal(t, "other", entries[1].ContextMap()["value"])
	}
}
