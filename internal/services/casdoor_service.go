package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/google/uuid"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/security"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/validator"
)

// ExternalClaims is the identity extracted from a verified provider token.
type ExternalClaims struct {
	Email       string
	Name        string
	DisplayName string
	Type        string
}

// TokenVerifier verifies a provider token and returns its identity.
type TokenVerifier interface {
	Verify(token string) (*ExternalClaims, error)
}

type casdoorVerifier struct {
	client *casdoorsdk.Client
}

func (v *casdoorVerifier) Verify(token string) (*ExternalClaims, error) {
	claims, err := v.client.ParseJwtToken(token)
	if err != nil {
		return nil, err
	}
	return &ExternalClaims{
		Email:       claims.User.Email,
		Name:        claims.User.Name,
		DisplayName: claims.User.DisplayName,
		Type:        claims.User.Type,
	}, nil
}

type casdoorService struct {
	repo      repositories.Repository
	sessions  *sessionIssuer
	hasher    security.PasswordHasher
	verifier  TokenVerifier
	logger    *slog.Logger
	validator *validator.Validator
}

// NewCasdoorService returns a disabled service when Casdoor is not configured.
func NewCasdoorService(deps *Dependencies) ExternalAuthService {
	var verifier TokenVerifier
	if deps.Casdoor.Enabled() {
		verifier = &casdoorVerifier{client: casdoorsdk.NewClient(
			deps.Casdoor.Endpoint,
			deps.Casdoor.ClientID,
			deps.Casdoor.ClientSecret,
			deps.Casdoor.Cert,
			deps.Casdoor.Organization,
			deps.Casdoor.Application,
		)}
	}
	return NewExternalAuthService(deps, verifier)
}

// NewExternalAuthService builds the service around any verifier; nil disables it.
func NewExternalAuthService(deps *Dependencies, verifier TokenVerifier) ExternalAuthService {
	return &casdoorService{
		repo:      deps.Repo,
		sessions:  newSessionIssuer(deps),
		hasher:    deps.Hasher,
		verifier:  verifier,
		logger:    deps.Logger,
		validator: deps.Validator,
	}
}

func (s *casdoorService) Enabled() bool {
	return s.verifier != nil
}

func (s *casdoorService) Login(ctx context.Context, req *models.CasdoorLoginRequest) (*AuthResult, error) {
	if !s.Enabled() {
		return nil, ErrExternalAuthOff
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	claims, err := s.verifier.Verify(req.Token)
	if err != nil {
		s.logger.Warn("External token rejected", "error", err)
		return nil, ErrInvalidCredentials
	}
	email := normalizeEmail(claims.Email)
	if email == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.User().GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		if user, err = s.provision(ctx, email, claims); err != nil {
			return nil, err
		}
	}
	if user.IsBanned() {
		return nil, &BannedError{Reason: user.BanReason}
	}

	s.logger.Info("External login", "user_id", user.ID)
	return s.sessions.open(ctx, user)
}

// provision creates a local account for a first-time external user. The
// password is random; the account can only log in through the provider until
// it is changed.
func (s *casdoorService) provision(ctx context.Context, email string, claims *ExternalClaims) (*models.User, error) {
	username, err := s.freeUsername(ctx, claims.Name, email)
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	fullName := strings.TrimSpace(claims.DisplayName)
	if fullName == "" {
		fullName = username
	}
	user := &models.User{
		Username: username,
		Password: hash,
		Email:    email,
		FullName: fullName,
		Role:     externalRole(claims.Type),
	}
	if err := s.repo.User().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create external user: %w", err)
	}
	s.logger.Info("Provisioned external user", "user_id", user.ID, "role", user.Role)
	return user, nil
}

var usernameCleaner = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

func (s *casdoorService) freeUsername(ctx context.Context, name, email string) (string, error) {
	base := usernameCleaner.ReplaceAllString(name, "")
	if len(base) < 3 {
		base = usernameCleaner.ReplaceAllString(strings.SplitN(email, "@", 2)[0], "")
	}
	if len(base) < 3 {
		base = "user"
	}
	if len(base) > 40 {
		base = base[:40]
	}

	candidate := base
	for i := 1; i <= 100; i++ {
		existing, err := s.repo.User().GetByUsername(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}
		if existing == nil {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return "", ErrUsernameTaken
}

// externalRole maps the provider's user type. Admin is never granted.
func externalRole(userType string) models.UserRole {
	switch strings.ToLower(strings.TrimSpace(userType)) {
	case "tutor", "teacher", "instructor":
		return models.RoleTutor
	default:
		return models.RoleStudent
	}
}
