package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
)

// PostgreSQLRepository implements repositories.Repository on top of gorm.
// It runs unchanged against any gorm dialect; tests use sqlite.
type PostgreSQLRepository struct {
	db *gorm.DB

	user         repositories.UserRepository
	tutorProfile repositories.TutorProfileRepository
	job          repositories.JobRepository
	bid          repositories.BidRepository
	message      repositories.MessageRepository
	review       repositories.ReviewRepository
	notification repositories.NotificationRepository
	session      repositories.SessionRepository
	stats        repositories.StatsRepository
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	DB *gorm.DB
}

// NewPostgreSQLRepository creates a repository with all sub-repositories bound to db.
func NewPostgreSQLRepository(config RepositoryConfig) *PostgreSQLRepository {
	return newRepository(config.DB)
}

func newRepository(db *gorm.DB) *PostgreSQLRepository {
	return &PostgreSQLRepository{
		db:           db,
		user:         NewUserRepository(db),
		tutorProfile: NewTutorProfileRepository(db),
		job:          NewJobRepository(db),
		bid:          NewBidRepository(db),
		message:      NewMessageRepository(db),
		review:       NewReviewRepository(db),
		notification: NewNotificationRepository(db),
		session:      NewSessionRepository(db),
		stats:        NewStatsRepository(db),
	}
}

func (r *PostgreSQLRepository) User() repositories.UserRepository { return r.user }

func (r *PostgreSQLRepository) TutorProfile() repositories.TutorProfileRepository {
	return r.tutorProfile
}

func (r *PostgreSQLRepository) Job() repositories.JobRepository { return r.job }

func (r *PostgreSQLRepository) Bid() repositories.BidRepository { return r.bid }

func (r *PostgreSQLRepository) Message() repositories.MessageRepository { return r.message }

func (r *PostgreSQLRepository) Review() repositories.ReviewRepository { return r.review }

func (r *PostgreSQLRepository) Notification() repositories.NotificationRepository {
	return r.notification
}

func (r *PostgreSQLRepository) Session() repositories.SessionRepository { return r.session }

func (r *PostgreSQLRepository) Stats() repositories.StatsRepository { return r.stats }

// WithTransaction executes a function within a database transaction
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepository(tx))
	})
}

// Ping checks database connectivity
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// DB exposes the handle for migrations.
func (r *PostgreSQLRepository) DB() *gorm.DB {
	return r.db
}

// RepositoryManager manages repository lifecycle
type RepositoryManager struct {
	repo   *PostgreSQLRepository
	config RepositoryConfig
}

// NewRepositoryManager creates a new repository manager
func NewRepositoryManager(config RepositoryConfig) *RepositoryManager {
	return &RepositoryManager{config: config}
}

// Initialize migrates the schema and builds the repository.
func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return errors.New("database connection is required")
	}
	if err := Migrate(rm.config.DB); err != nil {
		return err
	}
	rm.repo = NewPostgreSQLRepository(rm.config)
	return nil
}

// GetRepository returns the repository instance
func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

// HealthCheck performs a health check on the repository
func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return errors.New("repository not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return rm.repo.Ping(ctx)
}

// Shutdown gracefully shuts down the repository
func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}
	return rm.repo.Close()
}
