package thumbnailer

import (
	"strings"

	"go.uber.org/zap"
)

// Validator decides whether a storage event belongs to the pipelines.
type Validator struct {
	TargetDir string
	MIMEType  string
	Logger    *zap.Logger
}

// InScope reports whether ev sits directly in TargetDir and carries exactly
// MIMEType. Rejections are logged and otherwise silent.
func (v Validator) InScope(ev StorageObjectEvent) bool {
	check, value := v.rejection(ev)
	if check == "" {
		return true
	}
	if v.Logger != nil {
		v.Logger.Info("event out of scope",
			zap.String("check", check),
			zap.String("value", value),
			zap.String("object", ev.Name),
		)
	}
	return false
}

// rejection returns the failed check and the offending value, or "" when ev
// is in scope.
func (v Validator) rejection(ev StorageObjectEvent) (string, string) {
	// The raw prefix is compared so that keys like "dir//a" or "dir/./a"
	// stay distinct from "dir/a".
	dir, base := "", ev.Name
	if i := strings.LastIndex(ev.Name, "/"); i >= 0 {
		dir, base = ev.Name[:i], ev.Name[i+1:]
	}
	if dir == "" || dir != v.TargetDir {
		return "directory", dir
	}
	if base == "" {
		return "name", ev.Name
	}
	if ev.ContentType != v.MIMEType {
		return "content_type", ev.ContentType
	}
	return "", ""
}
