package repositories

import (
	"context"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
)

// Every GetX returns (nil, nil) when the record does not exist. Lists are
// newest first unless the method says otherwise.

type UserFilters struct {
	Role   *models.UserRole
	Status *models.UserStatus
}

type TutorFilters struct {
	ApprovalStatus *models.ApprovalStatus
	// Subject matches one entry of the comma-separated list, case-insensitively.
	Subject string
}

type JobFilters struct {
	Status    *models.JobStatus
	StudentID *uint
}

type UserRepository interface {
	// Create assigns the id, timestamps and the active status.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id uint, upd models.UserUpdate) (*models.User, error)
	List(ctx context.Context, filters UserFilters) ([]*models.User, error)
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.User, error)
	Delete(ctx context.Context, id uint) error
}

type TutorProfileRepository interface {
	// Create assigns the id, timestamps and the pending approval status.
	Create(ctx context.Context, profile *models.TutorProfile) error
	GetByID(ctx context.Context, id uint) (*models.TutorProfile, error)
	GetByUserID(ctx context.Context, userID uint) (*models.TutorProfile, error)
	Update(ctx context.Context, id uint, upd models.TutorProfileUpdate) (*models.TutorProfile, error)
	List(ctx context.Context, filters TutorFilters) ([]*models.TutorProfile, error)
	// RecomputeRating rewrites average rating and total reviews from the
	// tutor's reviews. No-op when the tutor has no profile.
	RecomputeRating(ctx context.Context, tutorID uint) error
	DeleteByUserID(ctx context.Context, userID uint) error
}

type JobRepository interface {
	// Create assigns the id, timestamps and the open status.
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id uint) (*models.Job, error)
	Update(ctx context.Context, id uint, upd models.JobUpdate) (*models.Job, error)
	List(ctx context.Context, filters JobFilters) ([]*models.Job, error)
	GetOpen(ctx context.Context) ([]*models.Job, error)
	GetByStudent(ctx context.Context, studentID uint) ([]*models.Job, error)
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.Job, error)
	// DeleteByStudent removes the student's jobs and returns their ids.
	DeleteByStudent(ctx context.Context, studentID uint) ([]uint, error)
}

type BidRepository interface {
	// Create assigns the id, timestamp and the pending status. Callers check
	// GetByJobAndTutor first; there is no storage-level uniqueness.
	Create(ctx context.Context, bid *models.JobBid) error
	GetByID(ctx context.Context, id uint) (*models.JobBid, error)
	Update(ctx context.Context, id uint, upd models.BidUpdate) (*models.JobBid, error)
	GetByJob(ctx context.Context, jobID uint) ([]*models.JobBid, error)
	GetByTutor(ctx context.Context, tutorID uint) ([]*models.JobBid, error)
	GetByJobAndTutor(ctx context.Context, jobID, tutorID uint) (*models.JobBid, error)
	DeleteByJobs(ctx context.Context, jobIDs []uint) error
	DeleteByTutor(ctx context.Context, tutorID uint) error
}

type MessageRepository interface {
	// Create assigns the id and timestamp; messages start unread.
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	// GetBetweenUsers returns the thread oldest first.
	GetBetweenUsers(ctx context.Context, userA, userB uint) ([]*models.Message, error)
	// GetConversations returns one summary per counterpart of userID.
	GetConversations(ctx context.Context, userID uint) ([]*models.ConversationSummary, error)
	// MarkRead flags every unread message from senderID to receiverID as read.
	MarkRead(ctx context.Context, receiverID, senderID uint) (int64, error)
	DeleteByUser(ctx context.Context, userID uint) error
}

type ReviewRepository interface {
	// Create stores the review and recomputes the tutor's rating in the same
	// storage operation.
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uint) (*models.Review, error)
	GetByTutor(ctx context.Context, tutorID uint) ([]*models.Review, error)
	// DeleteByUser removes reviews written or received by userID and returns
	// the ids of the tutors whose ratings are now stale.
	DeleteByUser(ctx context.Context, userID uint) ([]uint, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id uint) (*models.Notification, error)
	GetByUser(ctx context.Context, userID uint, unreadOnly bool) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id uint) error
	DeleteByUser(ctx context.Context, userID uint) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	// Get returns (nil, nil) for unknown or expired sessions.
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// StatsRepository aggregates counts for the admin analytics.
type StatsRepository interface {
	CountUsersByRole(ctx context.Context) (map[models.UserRole]int64, error)
	CountUsersByStatus(ctx context.Context) (map[models.UserStatus]int64, error)
	CountTutorsByApproval(ctx context.Context) (map[models.ApprovalStatus]int64, error)
	CountJobsByStatus(ctx context.Context) (map[models.JobStatus]int64, error)
	CountBidsByStatus(ctx context.Context) (map[models.BidStatus]int64, error)
	Totals(ctx context.Context) (*models.EntityTotals, error)
	// AverageRating is the mean over all reviews, 0 without reviews.
	AverageRating(ctx context.Context) (float64, error)
	CountUnreadMessages(ctx context.Context) (int64, error)
}
