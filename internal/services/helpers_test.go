package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/events"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories/memory"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/security"
)

type testEnv struct {
	repo   repositories.Repository
	events *events.MockEventPublisher
	deps   *Dependencies
	sm     ServiceManager
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, configure ...func(*Dependencies, *ServiceManagerConfig)) *testEnv {
	t.Helper()

	hasher, err := security.NewArgon2idHasher(security.FastParams)
	require.NoError(t, err)
	tokens, err := security.NewSessionTokenSigner("test-session-secret")
	require.NoError(t, err)

	logger := quietLogger()
	repo := memory.NewStore().Repository()
	pub := events.NewMockEventPublisher(logger)

	deps := &Dependencies{
		Repo:   repo,
		Events: pub,
		Hasher: hasher,
		Tokens: tokens,
		Logger: logger,
	}
	var cfg ServiceManagerConfig
	for _, fn := range configure {
		fn(deps, &cfg)
	}

	sm := NewServiceManager(deps, cfg)
	require.NoError(t, sm.Initialize(context.Background()))
	return &testEnv{repo: repo, events: pub, deps: deps, sm: sm}
}

func (e *testEnv) register(t *testing.T, username string, role models.UserRole) *AuthResult {
	t.Helper()
	res, err := e.sm.Auth().Register(context.Background(), &models.RegisterRequest{
		Username: username,
		Password: "secret123",
		Email:    username + "@example.com",
		FullName: "User " + username,
		Role:     role,
	})
	require.NoError(t, err)
	return res
}

// newAdmin stores an admin directly; admins cannot self-register.
func (e *testEnv) newAdmin(t *testing.T) *models.User {
	t.Helper()
	hash, err := e.deps.Hasher.Hash("admin-secret")
	require.NoError(t, err)
	admin := &models.User{Username: "root", Password: hash, Email: "root@example.com", FullName: "Root", Role: models.RoleAdmin}
	require.NoError(t, e.repo.User().Create(context.Background(), admin))
	return admin
}

func (e *testEnv) tutorWithProfile(t *testing.T, username string) *AuthResult {
	t.Helper()
	res := e.register(t, username, models.RoleTutor)
	subjects := "Mathematics, Physics"
	_, created, err := e.sm.Tutor().SaveProfile(context.Background(), res.User.ID, &models.TutorProfileRequest{Subjects: &subjects})
	require.NoError(t, err)
	require.True(t, created)
	return res
}

func (e *testEnv) createJob(t *testing.T, studentID uint) *models.JobView {
	t.Helper()
	job, err := e.sm.Job().Create(context.Background(), studentID, &models.JobCreateRequest{
		Title:       "Algebra help",
		Description: "Need help with linear equations every week.",
		Subjects:    "Mathematics",
		Budget:      "$30-40/hour",
	})
	require.NoError(t, err)
	return job
}

func bidReq(amount float64) *models.BidCreateRequest {
	return &models.BidCreateRequest{Message: "I can help", BidAmount: amount}
}

func eventTypes(evts []*events.Event) []models.NotificationType {
	out := make([]models.NotificationType, 0, len(evts))
	for _, e := range evts {
		out = append(out, e.Type)
	}
	return out
}

func ptr[T any](v T) *T { return &v }
