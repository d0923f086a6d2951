package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/validator"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.register(t, "alice", models.RoleStudent)
	assert.NotZero(t, res.User.ID)
	assert.Equal(t, models.UserActive, res.User.Status)
	assert.NotEmpty(t, res.Token)

	// The new session is usable immediately.
	user, err := env.sm.Auth().Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, user.ID)
	assert.NotEqual(t, "secret123", user.Password)

	tests := []struct {
		name    string
		req     models.RegisterRequest
		wantErr error
	}{
		{
			name:    "duplicate username",
			req:     models.RegisterRequest{Username: "alice", Password: "secret123", Email: "other@example.com", FullName: "A", Role: models.RoleStudent},
			wantErr: ErrUsernameTaken,
		},
		{
			name:    "duplicate email in other case",
			req:     models.RegisterRequest{Username: "alice2", Password: "secret123", Email: "ALICE@example.com", FullName: "A", Role: models.RoleTutor},
			wantErr: ErrEmailTaken,
		},
		{
			name:    "admin cannot self register",
			req:     models.RegisterRequest{Username: "boss", Password: "secret123", Email: "boss@example.com", FullName: "B", Role: models.RoleAdmin},
			wantErr: ErrInvalidRole,
		},
		{
			name:    "unknown role",
			req:     models.RegisterRequest{Username: "x-user", Password: "secret123", Email: "x@example.com", FullName: "X", Role: "parent"},
			wantErr: ErrInvalidRole,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.sm.Auth().Register(ctx, &tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("invalid payload lists fields", func(t *testing.T) {
		_, err := env.sm.Auth().Register(ctx, &models.RegisterRequest{Username: "a", Password: "1", Email: "nope", Role: models.RoleStudent})
		var ve validator.ValidationErrors
		require.True(t, errors.As(err, &ve))
		fields := map[string]bool{}
		for _, e := range ve {
			fields[e.Field] = true
		}
		assert.True(t, fields["username"])
		assert.True(t, fields["password"])
		assert.True(t, fields["email"])
		assert.True(t, fields["full_name"])
	})

	users, err := env.repo.User().List(ctx, repositories.UserFilters{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "bob", models.RoleTutor)

	res, err := env.sm.Auth().Login(ctx, &models.LoginRequest{Username: "bob", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "bob", res.User.Username)

	_, err = env.sm.Auth().Login(ctx, &models.LoginRequest{Username: "bob", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.sm.Auth().Login(ctx, &models.LoginRequest{Username: "nobody", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	t.Run("banned user gets the reason", func(t *testing.T) {
		admin := env.newAdmin(t)
		_, err := env.sm.Admin().UpdateUserStatus(ctx, admin.ID, res.User.ID, &models.UserStatusRequest{
			Status: models.UserBanned, BanReason: ptr("spam"),
		})
		require.NoError(t, err)

		_, err = env.sm.Auth().Login(ctx, &models.LoginRequest{Username: "bob", Password: "secret123"})
		assert.ErrorIs(t, err, ErrUserBanned)
		var banned *BannedError
		require.True(t, errors.As(err, &banned))
		assert.Equal(t, "spam", *banned.Reason)
	})
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.register(t, "carol", models.RoleStudent)

	_, err := env.sm.Auth().Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = env.sm.Auth().Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	require.NoError(t, env.sm.Auth().Logout(ctx, res.Token))
	_, err = env.sm.Auth().Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// Logging out twice is harmless.
	assert.NoError(t, env.sm.Auth().Logout(ctx, res.Token))
}

func TestExpiredSessionIsRejected(t *testing.T) {
	env := newTestEnv(t, func(d *Dependencies, _ *ServiceManagerConfig) {
		d.SessionTTL = time.Millisecond
	})
	res := env.register(t, "dave", models.RoleStudent)
	time.Sleep(5 * time.Millisecond)

	_, err := env.sm.Auth().Authenticate(context.Background(), res.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

type sweepRecorder struct {
	repositories.SessionRepository
	calls   int
	removed int64
}

func (r *sweepRecorder) DeleteExpired(ctx context.Context) (int64, error) {
	n, err := r.SessionRepository.DeleteExpired(ctx)
	r.calls++
	r.removed += n
	return n, err
}

func TestLoginPrunesExpiredSessions(t *testing.T) {
	var rec *sweepRecorder
	env := newTestEnv(t, func(d *Dependencies, _ *ServiceManagerConfig) {
		d.SessionTTL = 20 * time.Millisecond
		rec = &sweepRecorder{SessionRepository: d.Repo.Session()}
		d.Sessions = rec
	})

	env.register(t, "dave", models.RoleStudent)
	assert.Equal(t, 1, rec.calls)
	assert.Zero(t, rec.removed)

	time.Sleep(30 * time.Millisecond)
	res := env.register(t, "erin", models.RoleStudent)
	assert.Equal(t, 2, rec.calls)
	assert.Equal(t, int64(1), rec.removed)

	_, err := env.sm.Auth().Authenticate(context.Background(), res.Token)
	assert.NoError(t, err)
}

func TestCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	student := env.register(t, "erin", models.RoleStudent)
	me, err := env.sm.Auth().CurrentUser(ctx, student.User.ID)
	require.NoError(t, err)
	assert.Nil(t, me.TutorProfile)

	tutor := env.tutorWithProfile(t, "frank")
	me, err = env.sm.Auth().CurrentUser(ctx, tutor.User.ID)
	require.NoError(t, err)
	require.NotNil(t, me.TutorProfile)
	assert.Equal(t, []string{"Mathematics", "Physics"}, me.TutorProfile.SubjectList)
	assert.Equal(t, models.ApprovalPending, me.TutorProfile.ApprovalStatus)
}

func TestUpdateCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.register(t, "gina", models.RoleStudent)
	env.register(t, "hank", models.RoleStudent)

	updated, err := env.sm.Auth().UpdateCurrentUser(ctx, res.User.ID, &models.UpdateUserRequest{
		FullName: ptr("  Gina G  "),
		Email:    ptr("Gina.New@Example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Gina G", updated.FullName)
	assert.Equal(t, "gina.new@example.com", updated.Email)

	_, err = env.sm.Auth().UpdateCurrentUser(ctx, res.User.ID, &models.UpdateUserRequest{Email: ptr("hank@example.com")})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = env.sm.Auth().UpdateCurrentUser(ctx, res.User.ID, &models.UpdateUserRequest{
		Password: ptr("new-secret"), CurrentPassword: ptr("wrong"),
	})
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, err = env.sm.Auth().UpdateCurrentUser(ctx, res.User.ID, &models.UpdateUserRequest{
		Password: ptr("new-secret"), CurrentPassword: ptr("secret123"),
	})
	require.NoError(t, err)
	_, err = env.sm.Auth().Login(ctx, &models.LoginRequest{Username: "gina", Password: "new-secret"})
	assert.NoError(t, err)
}

type fakeVerifier struct {
	claims *ExternalClaims
	err    error
}

func (f *fakeVerifier) Verify(string) (*ExternalClaims, error) {
	return f.claims, f.err
}

func TestExternalLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	assert.False(t, env.sm.ExternalAuth().Enabled())
	_, err := env.sm.ExternalAuth().Login(ctx, &models.CasdoorLoginRequest{Token: "x"})
	assert.ErrorIs(t, err, ErrExternalAuthOff)

	verifier := &fakeVerifier{claims: &ExternalClaims{Email: "Ivy@Example.com", Name: "ivy", DisplayName: "Ivy Lee", Type: "admin"}}
	ext := NewExternalAuthService(env.deps, verifier)
	require.True(t, ext.Enabled())

	res, err := ext.Login(ctx, &models.CasdoorLoginRequest{Token: "provider-token"})
	require.NoError(t, err)
	assert.Equal(t, "ivy@example.com", res.User.Email)
	assert.Equal(t, models.RoleStudent, res.User.Role, "admin is never granted from the provider")

	again, err := ext.Login(ctx, &models.CasdoorLoginRequest{Token: "provider-token"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, again.User.ID)

	verifier.err = errors.New("bad signature")
	_, err = ext.Login(ctx, &models.CasdoorLoginRequest{Token: "forged"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestExternalRole(t *testing.T) {
	tests := map[string]models.UserRole{
		"tutor":   models.RoleTutor,
		"Teacher": models.RoleTutor,
		"normal":  models.RoleStudent,
		"admin":   models.RoleStudent,
		"":        models.RoleStudent,
	}
	for in, want := range tests {
		assert.Equal(t, want, externalRole(in), in)
	}
}
