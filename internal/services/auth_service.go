package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/cache"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/metrics"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/security"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/validator"
)

type authService struct {
	repo      repositories.Repository
	sessions  *sessionIssuer
	cache     *cache.CacheManager
	hasher    security.PasswordHasher
	logger    *slog.Logger
	validator *validator.BusinessValidator
}

func NewAuthService(deps *Dependencies) AuthService {
	return &authService{
		repo:      deps.Repo,
		sessions:  newSessionIssuer(deps),
		cache:     deps.Cache,
		hasher:    deps.Hasher,
		logger:    deps.Logger,
		validator: validator.NewBusinessValidator(deps.Validator),
	}
}

func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*AuthResult, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = normalizeEmail(req.Email)
	s.logger.Info("Registering user", "username", req.Username, "role", req.Role)

	if err := s.validator.ValidateRegister(req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(metrics.StatusFailure).Inc()
		return nil, err
	}
	if !req.Role.IsSelfService() {
		metrics.RegistrationsTotal.WithLabelValues(metrics.StatusFailure).Inc()
		return nil, ErrInvalidRole
	}
	if err := s.checkAvailable(ctx, req.Username, req.Email); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(metrics.StatusFailure).Inc()
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: req.Username,
		Password: hash,
		Email:    req.Email,
		FullName: strings.TrimSpace(req.FullName),
		Role:     req.Role,
	}
	if err := s.repo.User().Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			// Lost a race with a concurrent registration; report which key.
			if availErr := s.checkAvailable(ctx, req.Username, req.Email); availErr != nil {
				return nil, availErr
			}
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	s.logger.Info("User registered successfully", "user_id", user.ID, "role", user.Role)

	return s.sessions.open(ctx, user)
}

func (s *authService) checkAvailable(ctx context.Context, username, email string) error {
	existing, err := s.repo.User().GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return ErrUsernameTaken
	}
	existing, err = s.repo.User().GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return ErrEmailTaken
	}
	return nil
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*AuthResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.StatusFailure).Inc()
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(req.Password, user.Password)
	if err != nil {
		s.logger.Warn("Stored password hash is unreadable", "user_id", user.ID, "error", err)
	}
	if !ok {
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.StatusFailure).Inc()
		return nil, ErrInvalidCredentials
	}
	if user.IsBanned() {
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.StatusBanned).Inc()
		return nil, &BannedError{Reason: user.BanReason}
	}

	metrics.LoginAttemptsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	s.logger.Info("User logged in", "user_id", user.ID)
	return s.sessions.open(ctx, user)
}

func (s *authService) Logout(ctx context.Context, token string) error {
	session, err := s.sessions.resolve(ctx, token)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	if err := s.sessions.sessions.Delete(ctx, session.ID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.logger.Info("User logged out", "user_id", session.UserID)
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	session, err := s.sessions.resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrUnauthenticated
	}

	user, err := s.repo.User().GetByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session user: %w", err)
	}
	if user == nil {
		if err := s.sessions.sessions.Delete(ctx, session.ID); err != nil {
			s.logger.Warn("Failed to delete orphaned session", "error", err)
		}
		return nil, ErrUnauthenticated
	}
	if user.IsBanned() {
		return nil, &BannedError{Reason: user.BanReason}
	}
	return user, nil
}

func (s *authService) CurrentUser(ctx context.Context, userID uint) (*models.CurrentUser, error) {
	user, err := requireUser(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	current := &models.CurrentUser{PublicUser: user.Public()}
	if user.Role != models.RoleTutor {
		return current, nil
	}

	profile, err := s.repo.TutorProfile().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tutor profile: %w", err)
	}
	if profile != nil {
		current.TutorProfile = models.NewTutorView(profile, user)
	}
	return current, nil
}

func (s *authService) UpdateCurrentUser(ctx context.Context, userID uint, req *models.UpdateUserRequest) (*models.PublicUser, error) {
	s.logger.Info("Updating own account", "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	user, err := requireUser(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}

	var upd models.UserUpdate
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, validator.ValidationErrors{{Field: "full_name", Message: "must not be blank", Rule: "business_logic"}}
		}
		upd.FullName = &name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != user.Email {
			other, err := s.repo.User().GetByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if other != nil && other.ID != userID {
				return nil, ErrEmailTaken
			}
			upd.Email = &email
		}
	}
	if req.Password != nil {
		ok, _ := s.hasher.Verify(derefString(req.CurrentPassword), user.Password)
		if !ok {
			return nil, ErrWrongPassword
		}
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		upd.Password = &hash
	}

	updated, err := s.repo.User().Update(ctx, userID, upd)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if updated == nil {
		return nil, ErrUserNotFound
	}
	// Directory entries embed the tutor's public user.
	if updated.Role == models.RoleTutor {
		cache.InvalidateTutorCache(ctx, s.cache)
	}
	return updated.Public(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
