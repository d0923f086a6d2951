package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
)

// ===== RESULT TYPES =====

// AuthResult is returned by every operation that opens a session. Token goes
// into the session cookie.
type AuthResult struct {
	User      *models.PublicUser
	Token     string
	ExpiresAt time.Time
}

type AcceptBidResult struct {
	Bid *models.JobBid  `json:"bid"`
	Job *models.JobView `json:"job"`
}

// Export is a generated file ready to be streamed.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ===== SERVICES =====

type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req *models.LoginRequest) (*AuthResult, error)
	Logout(ctx context.Context, token string) error

	// Authenticate resolves a session token to the current user record.
	// Unknown, expired or orphaned sessions yield ErrUnauthenticated; banned
	// users yield a *BannedError.
	Authenticate(ctx context.Context, token string) (*models.User, error)

	CurrentUser(ctx context.Context, userID uint) (*models.CurrentUser, error)
	UpdateCurrentUser(ctx context.Context, userID uint, req *models.UpdateUserRequest) (*models.PublicUser, error)
}

// ExternalAuthService logs users in with a token issued by an external
// identity provider.
type ExternalAuthService interface {
	Enabled() bool
	Login(ctx context.Context, req *models.CasdoorLoginRequest) (*AuthResult, error)
}

type TutorService interface {
	List(ctx context.Context, params models.ListTutorsParams) ([]*models.TutorView, error)
	GetDetail(ctx context.Context, userID uint) (*models.TutorDetail, error)
	// SaveProfile creates the tutor's profile or updates its self-service
	// fields. created reports which of the two happened.
	SaveProfile(ctx context.Context, userID uint, req *models.TutorProfileRequest) (view *models.TutorView, created bool, err error)
}

type JobService interface {
	List(ctx context.Context, params models.ListJobsParams) ([]*models.JobView, error)
	GetDetail(ctx context.Context, jobID uint) (*models.JobDetail, error)
	Create(ctx context.Context, studentID uint, req *models.JobCreateRequest) (*models.JobView, error)
	UpdateStatus(ctx context.Context, jobID, studentID uint, req *models.JobStatusRequest) (*models.JobView, error)
	ListByStudent(ctx context.Context, studentID uint) ([]*models.JobView, error)

	CreateBid(ctx context.Context, jobID, tutorID uint, req *models.BidCreateRequest) (*models.JobBid, error)
	ListTutorBids(ctx context.Context, tutorID uint) ([]*models.BidView, error)
	AcceptBid(ctx context.Context, bidID, studentID uint) (*AcceptBidResult, error)
}

type MessageService interface {
	Send(ctx context.Context, senderID uint, req *models.MessageCreateRequest) (*models.Message, error)
	// Thread returns the messages between the two users oldest first and marks
	// the ones addressed to userID as read.
	Thread(ctx context.Context, userID, otherID uint) ([]*models.Message, error)
	Conversations(ctx context.Context, userID uint) ([]*models.Conversation, error)
}

type ReviewService interface {
	Create(ctx context.Context, studentID uint, req *models.ReviewCreateRequest) (*models.Review, error)
}

type NotificationService interface {
	List(ctx context.Context, userID uint, unreadOnly bool) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uint) (*models.Notification, error)
}

type AdminService interface {
	ListUsers(ctx context.Context) ([]*models.PublicUser, error)
	UpdateUserStatus(ctx context.Context, adminID, userID uint, req *models.UserStatusRequest) (*models.PublicUser, error)
	UpdateUserRole(ctx context.Context, adminID, userID uint, req *models.UserRoleRequest) (*models.PublicUser, error)
	DeleteUser(ctx context.Context, adminID, userID uint) error

	ListTutors(ctx context.Context, approval models.ApprovalStatus) ([]*models.TutorView, error)
	UpdateTutorApproval(ctx context.Context, tutorUserID uint, req *models.TutorApprovalRequest) (*models.TutorView, error)

	Analytics(ctx context.Context) (*models.Analytics, error)
	ExportUsers(ctx context.Context) (*Export, error)

	// EnsureAdmin creates the bootstrap admin unless an admin already exists.
	EnsureAdmin(ctx context.Context, username, email, password string) error
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Auth() AuthService
	ExternalAuth() ExternalAuthService
	Tutor() TutorService
	Job() JobService
	Message() MessageService
	Review() ReviewService
	Notification() NotificationService
	Admin() AdminService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
