package repository

import (
	"context"

	"github.com/synergylearning/moodle-mod-onlyoffice/internal/activity"
)

// Repository is the persistence contract for activity instances.
type Repository interface {
	Create(ctx context.Context, act *activity.Activity) (string, error)
	Get(ctx context.Context, id string) (*activity.Activity, error)
	Update(ctx context.Context, act *activity.Activity) error
	Delete(ctx context.Context, id string) error
}
