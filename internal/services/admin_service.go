package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/cache"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/events"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/security"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/validator"
)

type adminService struct {
	repo      repositories.Repository
	sessions  repositories.SessionRepository
	cache     *cache.CacheManager
	events    events.EventPublisher
	hasher    security.PasswordHasher
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewAdminService(deps *Dependencies) AdminService {
	return &adminService{
		repo:      deps.Repo,
		sessions:  deps.Sessions,
		cache:     deps.Cache,
		events:    deps.Events,
		hasher:    deps.Hasher,
		logger:    deps.Logger,
		validator: deps.Validator,
		now:       time.Now,
	}
}

// ===== USERS =====

func (s *adminService) ListUsers(ctx context.Context) ([]*models.PublicUser, error) {
	users, err := s.repo.User().List(ctx, repositories.UserFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return models.PublicUsers(users), nil
}

func (s *adminService) UpdateUserStatus(ctx context.Context, adminID, userID uint, req *models.UserStatusRequest) (*models.PublicUser, error) {
	s.logger.Info("Updating user status", "admin_id", adminID, "user_id", userID, "status", req.Status)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if adminID == userID {
		return nil, ErrSelfModeration
	}
	if _, err := requireUser(ctx, s.repo, userID); err != nil {
		return nil, err
	}

	upd := models.UserUpdate{Status: &req.Status}
	if req.Status == models.UserActive {
		upd.ClearBanReason = true
	} else {
		upd.BanReason = trimmed(req.BanReason)
	}
	updated, err := s.repo.User().Update(ctx, userID, upd)
	if err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}
	if updated == nil {
		return nil, ErrUserNotFound
	}

	// Directory entries show the account status.
	if updated.Role == models.RoleTutor {
		cache.InvalidateTutorCache(ctx, s.cache)
	}
	if updated.IsBanned() {
		if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
			s.logger.Error("Failed to revoke sessions of banned user", "user_id", userID, "error", err)
		}
	}

	title := "Your account was reactivated"
	if updated.IsBanned() {
		title = "Your account was banned"
	}
	publish(ctx, s.events, s.logger, models.NotificationAccountStatus, userID, title, derefString(updated.BanReason),
		events.UserStatusData{Status: updated.Status, BanReason: updated.BanReason})
	return updated.Public(), nil
}

func (s *adminService) UpdateUserRole(ctx context.Context, adminID, userID uint, req *models.UserRoleRequest) (*models.PublicUser, error) {
	s.logger.Info("Updating user role", "admin_id", adminID, "user_id", userID, "role", req.Role)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if adminID == userID {
		return nil, ErrSelfModeration
	}
	updated, err := s.repo.User().Update(ctx, userID, models.UserUpdate{Role: &req.Role})
	if err != nil {
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}
	if updated == nil {
		return nil, ErrUserNotFound
	}

	cache.InvalidateTutorCache(ctx, s.cache)
	return updated.Public(), nil
}

// DeleteUser removes the user and everything that references them, then
// recomputes the ratings of tutors who lost reviews.
func (s *adminService) DeleteUser(ctx context.Context, adminID, userID uint) error {
	s.logger.Warn("Deleting user", "admin_id", adminID, "user_id", userID)

	if adminID == userID {
		return ErrSelfModeration
	}
	if _, err := requireUser(ctx, s.repo, userID); err != nil {
		return err
	}

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		jobIDs, err := tx.Job().DeleteByStudent(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to delete jobs: %w", err)
		}
		if err := tx.Bid().DeleteByJobs(ctx, jobIDs); err != nil {
			return fmt.Errorf("failed to delete bids on jobs: %w", err)
		}
		if err := tx.Bid().DeleteByTutor(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete bids: %w", err)
		}
		if err := tx.Message().DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		staleTutors, err := tx.Review().DeleteByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to delete reviews: %w", err)
		}
		for _, tutorID := range staleTutors {
			if err := tx.TutorProfile().RecomputeRating(ctx, tutorID); err != nil {
				return fmt.Errorf("failed to recompute rating of tutor %d: %w", tutorID, err)
			}
		}
		if err := tx.TutorProfile().DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete tutor profile: %w", err)
		}
		if err := tx.Notification().DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete notifications: %w", err)
		}
		if err := tx.Session().DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete sessions: %w", err)
		}
		return tx.User().Delete(ctx, userID)
	})
	if err != nil {
		return err
	}

	// Sessions may live outside the transactional store.
	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		s.logger.Error("Failed to revoke sessions of deleted user", "user_id", userID, "error", err)
	}
	cache.InvalidateTutorCache(ctx, s.cache)
	s.logger.Info("User deleted", "user_id", userID)
	return nil
}

// ===== TUTORS =====

func (s *adminService) ListTutors(ctx context.Context, approval models.ApprovalStatus) ([]*models.TutorView, error) {
	var filters repositories.TutorFilters
	if approval != "" {
		if !approval.IsValid() {
			return nil, ErrInvalidStatus
		}
		filters.ApprovalStatus = &approval
	}
	return tutorViews(ctx, s.repo, filters, false)
}

func (s *adminService) UpdateTutorApproval(ctx context.Context, tutorUserID uint, req *models.TutorApprovalRequest) (*models.TutorView, error) {
	s.logger.Info("Updating tutor approval", "tutor_id", tutorUserID, "status", req.Status)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	profile, err := s.repo.TutorProfile().GetByUserID(ctx, tutorUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tutor profile: %w", err)
	}
	if profile == nil {
		return nil, ErrTutorNotFound
	}
	user, err := requireUser(ctx, s.repo, tutorUserID)
	if err != nil {
		return nil, err
	}

	upd := models.TutorProfileUpdate{ApprovalStatus: &req.Status}
	if req.Status == models.ApprovalRejected {
		upd.RejectionReason = trimmed(req.RejectionReason)
	} else {
		upd.ClearRejectionReason = true
	}
	updated, err := s.repo.TutorProfile().Update(ctx, profile.ID, upd)
	if err != nil {
		return nil, fmt.Errorf("failed to update tutor approval: %w", err)
	}
	if updated == nil {
		return nil, ErrTutorNotFound
	}

	cache.InvalidateTutorCache(ctx, s.cache)
	publish(ctx, s.events, s.logger, models.NotificationTutorApproval, tutorUserID,
		fmt.Sprintf("Your tutor profile is %s", updated.ApprovalStatus),
		derefString(updated.RejectionReason),
		events.TutorApprovalData{Status: updated.ApprovalStatus, RejectionReason: updated.RejectionReason})
	return models.NewTutorView(updated, user), nil
}

// ===== ANALYTICS =====

func (s *adminService) Analytics(ctx context.Context) (*models.Analytics, error) {
	stats := s.repo.Stats()
	a := &models.Analytics{GeneratedAt: s.now().UTC()}

	var err error
	if a.UsersByRole, err = stats.CountUsersByRole(ctx); err != nil {
		return nil, fmt.Errorf("failed to count users by role: %w", err)
	}
	if a.UsersByStatus, err = stats.CountUsersByStatus(ctx); err != nil {
		return nil, fmt.Errorf("failed to count users by status: %w", err)
	}
	if a.TutorsByApproval, err = stats.CountTutorsByApproval(ctx); err != nil {
		return nil, fmt.Errorf("failed to count tutors by approval: %w", err)
	}
	if a.JobsByStatus, err = stats.CountJobsByStatus(ctx); err != nil {
		return nil, fmt.Errorf("failed to count jobs by status: %w", err)
	}
	if a.BidsByStatus, err = stats.CountBidsByStatus(ctx); err != nil {
		return nil, fmt.Errorf("failed to count bids by status: %w", err)
	}
	totals, err := stats.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count totals: %w", err)
	}
	a.Totals = *totals
	if a.AverageRating, err = stats.AverageRating(ctx); err != nil {
		return nil, fmt.Errorf("failed to compute average rating: %w", err)
	}
	if a.UnreadMessages, err = stats.CountUnreadMessages(ctx); err != nil {
		return nil, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return a, nil
}

// ===== BOOTSTRAP =====

func (s *adminService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if username == "" || email == "" || password == "" {
		s.logger.Debug("Bootstrap admin not configured")
		return nil
	}

	role := models.RoleAdmin
	admins, err := s.repo.User().List(ctx, repositories.UserFilters{Role: &role})
	if err != nil {
		return fmt.Errorf("failed to list admins: %w", err)
	}
	if len(admins) > 0 {
		return nil
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := &models.User{
		Username: username,
		Password: hash,
		Email:    email,
		FullName: "Administrator",
		Role:     models.RoleAdmin,
	}
	if err := s.repo.User().Create(ctx, admin); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return fmt.Errorf("bootstrap admin %q collides with an existing user: %w", username, err)
		}
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	s.logger.Info("Bootstrap admin created", "user_id", admin.ID, "username", username)
	return nil
}
