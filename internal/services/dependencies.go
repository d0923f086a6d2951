package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/cache"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/config"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/events"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/metrics"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/security"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/validator"
)

const defaultSessionTTL = 7 * 24 * time.Hour

// Dependencies is everything the services share. Sessions may live outside
// Repo (redis); when nil, Repo.Session() is used.
type Dependencies struct {
	Repo       repositories.Repository
	Sessions   repositories.SessionRepository
	Cache      *cache.CacheManager
	Events     events.EventPublisher
	Hasher     security.PasswordHasher
	Tokens     *security.SessionTokenSigner
	Validator  *validator.Validator
	Logger     *slog.Logger
	SessionTTL time.Duration
	Casdoor    config.CasdoorConfig
}

func (d *Dependencies) setDefaults() error {
	if d.Repo == nil {
		return errors.New("repository is required")
	}
	if d.Hasher == nil {
		return errors.New("password hasher is required")
	}
	if d.Tokens == nil {
		return errors.New("session token signer is required")
	}
	if d.Sessions == nil {
		d.Sessions = d.Repo.Session()
	}
	if d.Validator == nil {
		d.Validator = validator.New()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Events == nil {
		d.Events = events.NewMockEventPublisher(d.Logger)
	}
	if d.Cache == nil {
		d.Cache = cache.NewCacheManager(nil)
	}
	if d.SessionTTL <= 0 {
		d.SessionTTL = defaultSessionTTL
	}
	return nil
}

// publish sends an event and only logs failures; the originating request has
// already succeeded.
func publish(ctx context.Context, pub events.EventPublisher, logger *slog.Logger, eventType models.NotificationType, recipientID uint, title, body string, data interface{}) {
	event, err := events.NewEvent(eventType, recipientID, title, body, data)
	if err == nil {
		err = pub.Publish(ctx, event)
	}
	if err != nil {
		metrics.EventPublishFailuresTotal.WithLabelValues(string(eventType)).Inc()
		logger.WarnContext(ctx, "Failed to publish event", "type", eventType, "recipient_id", recipientID, "error", err)
	}
}

// sessionIssuer opens server-side sessions and signs the cookie token.
type sessionIssuer struct {
	sessions repositories.SessionRepository
	tokens   *security.SessionTokenSigner
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func newSessionIssuer(d *Dependencies) *sessionIssuer {
	return &sessionIssuer{
		sessions: d.Sessions,
		tokens:   d.Tokens,
		ttl:      d.SessionTTL,
		logger:   d.Logger,
		now:      time.Now,
	}
}

func (si *sessionIssuer) open(ctx context.Context, user *models.User) (*AuthResult, error) {
	now := si.now().UTC()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(si.ttl),
		CreatedAt: now,
	}
	if err := si.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	// Logins sweep sessions that expired without a logout.
	if removed, err := si.sessions.DeleteExpired(ctx); err != nil {
		si.logger.WarnContext(ctx, "Failed to prune expired sessions", "error", err)
	} else if removed > 0 {
		si.logger.DebugContext(ctx, "Pruned expired sessions", "count", removed)
	}
	token, err := si.tokens.Sign(session.ID, session.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	return &AuthResult{User: user.Public(), Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// resolve maps a token to its live session, or nil.
func (si *sessionIssuer) resolve(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, nil
	}
	sid, err := si.tokens.Parse(token)
	if err != nil {
		return nil, nil
	}
	session, err := si.sessions.Get(ctx, sid)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil || session.Expired(si.now()) {
		return nil, nil
	}
	return session, nil
}

// loadUsers fetches the users behind ids; missing ids are absent from the map.
func loadUsers(ctx context.Context, repo repositories.Repository, ids []uint) (map[uint]*models.User, error) {
	if len(ids) == 0 {
		return map[uint]*models.User{}, nil
	}
	users, err := repo.User().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	return users, nil
}

func requireUser(ctx context.Context, repo repositories.Repository, id uint) (*models.User, error) {
	user, err := repo.User().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
