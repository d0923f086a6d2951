package repositories

import (
	"context"
	"errors"
)

// ErrDuplicate is returned when a unique key (username, email, tutor profile
// per user) is already taken.
var ErrDuplicate = errors.New("duplicate record")

// Repository groups the per-entity repositories of one storage backend.
type Repository interface {
	User() UserRepository
	TutorProfile() TutorProfileRepository
	Job() JobRepository
	Bid() BidRepository
	Message() MessageRepository
	Review() ReviewRepository
	Notification() NotificationRepository
	Session() SessionRepository
	Stats() StatsRepository

	// WithTransaction runs fn against a repository bound to one transaction.
	// fn must only use the repository it is given. Returning an error rolls
	// every write back.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager owns the lifecycle of a backend.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
