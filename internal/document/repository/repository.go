package repository

import (
	"context"
	"errors"

	"github.com/synergylearning/moodle-mod-onlyoffice/internal/document"
)

var ErrNotFound = errors.New("document not found")

// Repository is the persistence contract for document records. Key and lock
// updates are single-field writes: the backing store's row-level atomicity is
// what keeps concurrent callback and lock requests consistent.
type Repository interface {
	Create(ctx context.Context, doc *document.Document) (string, error)
	Get(ctx context.Context, id string) (*document.Document, error)
	GetByActivityGroup(ctx context.Context, activityID string, groupID int64) (*document.Document, error)
	SetKey(ctx context.Context, id, key string) error
	SetLocked(ctx context.Context, id string, locked bool) error
	ListAll(ctx context.Context) ([]*document.Document, error)
	DeleteByActivity(ctx context.Context, activityID string) error
}
