package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// File areas, mirroring the plugin's file area layout. Group files are the
// live per-(activity, group) documents, initial files are the upload captured
// at activity creation, templates are the site-level per-format overrides.
const (
	AreaInitial   = "initial"
	AreaGroup     = "group"
	AreaTemplates = "templates"
)

var ErrObjectNotFound = errors.New("object not found")

// ValidArea reports whether the named file area exists.
func ValidArea(area string) bool {
	switch area {
	case AreaInitial, AreaGroup, AreaTemplates:
		return true
	}
	return false
}

// GroupPrefix is the object prefix for the live document of one
// (activity, group) pair. The area holds at most one object.
func GroupPrefix(activityID string, groupID int64) string {
	return fmt.Sprintf("%s/%s/%d/", AreaGroup, activityID, groupID)
}

// InitialPrefix is the object prefix for an activity's initial upload.
func InitialPrefix(activityID string) string {
	return fmt.Sprintf("%s/%s/", AreaInitial, activityID)
}

// TemplatePrefix is the object prefix for a site-level template slot.
func TemplatePrefix(slot int) string {
	return fmt.Sprintf("%s/%d/", AreaTemplates, slot)
}

// Storage is the object-store contract the document store and file handlers
// depend on. Backed by MinIO in production and MemoryStorage in tests.
type Storage interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Copy(ctx context.Context, src, dst string) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	FirstKey(ctx context.Context, prefix string) (string, error)
}
