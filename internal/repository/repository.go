package repository

import (
	"alcyxob/gym-manager/internal/domain" // Import our defined domain models
	"context"
)

// Error constants for repository layer
var (
	ErrNotFound      = RepositoryError("not found")
	ErrSaveFailed    = RepositoryError("save failed")
	ErrCorruptRecord = RepositoryError("corrupt record")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Collection persists one entity kind as a whole.
// Load returns every stored record in stored order; Save replaces the stored
// contents with items. Managers load before every operation and save the full
// collection after every mutation, so no state is cached between calls.
type Collection[T any] interface {
	Load(ctx context.Context) ([]T, error)
	Save(ctx context.Context, items []T) error
}

// Repositories bundles the collections the gym managers depend on.
type Repositories struct {
	Members    Collection[domain.Member]
	Trainers   Collection[domain.Trainer]
	Admins     Collection[domain.Admin]
	Schedules  Collection[domain.WorkoutSchedule]
	Attendance Collection[domain.Attendance]
	Plans      Collection[domain.SubscriptionPlan]
}
