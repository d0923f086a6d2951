package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/events"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories/memory"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/security"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/services"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/utils"
)

const testCookie = "tm_session"

type testServer struct {
	router *gin.Engine
	repo   repositories.Repository
	deps   *services.Dependencies
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hasher, err := security.NewArgon2idHasher(security.FastParams)
	require.NoError(t, err)
	tokens, err := security.NewSessionTokenSigner("handler-test-secret")
	require.NoError(t, err)

	logger := utils.NopLogger()
	repo := memory.NewStore().Repository()
	deps := &services.Dependencies{
		Repo:   repo,
		Events: events.NewMockEventPublisher(logger.Slog()),
		Hasher: hasher,
		Tokens: tokens,
		Logger: logger.Slog(),
	}
	sm := services.NewServiceManager(deps, services.ServiceManagerConfig{})
	require.NoError(t, sm.Initialize(context.Background()))

	router := gin.New()
	SetupMiddleware(router, logger, nil)
	NewHandlerManager(sm, logger, CookieConfig{Name: testCookie}).SetupRoutes(router)
	return &testServer{router: router, repo: repo, deps: deps}
}

// client keeps the session cookie between requests like a browser would.
type client struct {
	s      *testServer
	cookie *http.Cookie
}

func (s *testServer) client() *client { return &client{s: s} }

func (c *client) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	w := httptest.NewRecorder()
	c.s.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == testCookie {
			if ck.MaxAge < 0 || ck.Value == "" {
				c.cookie = nil
			} else {
				c.cookie = ck
			}
		}
	}
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (c *client) register(t *testing.T, username string, role models.UserRole) *models.PublicUser {
	t.Helper()
	w := c.do(t, http.MethodPost, "/api/register", models.RegisterRequest{
		Username: username,
		Password: "secret123",
		Email:    username + "@example.com",
		FullName: "User " + username,
		Role:     role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, c.cookie, "registration logs the user in")
	return decode[*models.PublicUser](t, w)
}

func (s *testServer) admin(t *testing.T) *client {
	t.Helper()
	hash, err := s.deps.Hasher.Hash("admin-secret")
	require.NoError(t, err)
	require.NoError(t, s.repo.User().Create(context.Background(), &models.User{
		Username: "root", Password: hash, Email: "root@example.com", FullName: "Root", Role: models.RoleAdmin,
	}))
	c := s.client()
	w := c.do(t, http.MethodPost, "/api/login", models.LoginRequest{Username: "root", Password: "admin-secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return c
}

func postJob(t *testing.T, c *client) *models.JobView {
	t.Helper()
	w := c.do(t, http.MethodPost, "/api/jobs", models.JobCreateRequest{
		Title:       "Calculus tutor",
		Description: "Weekly sessions on derivatives and integrals.",
		Subjects:    "Mathematics",
		Budget:      "$25-35/hour",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[*models.JobView](t, w)
}

func TestAnonymousCannotPostJob(t *testing.T) {
	s := newTestServer(t)
	w := s.client().do(t, http.MethodPost, "/api/jobs", models.JobCreateRequest{Title: "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	jobs, err := s.repo.Job().List(context.Background(), repositories.JobFilters{})
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestRoleGates(t *testing.T) {
	s := newTestServer(t)
	tutor := s.client()
	tutor.register(t, "tilda", models.RoleTutor)
	student := s.client()
	student.register(t, "stan", models.RoleStudent)

	assert.Equal(t, http.StatusForbidden, tutor.do(t, http.MethodPost, "/api/jobs", models.JobCreateRequest{}).Code)
	assert.Equal(t, http.StatusForbidden, student.do(t, http.MethodPost, "/api/tutors/profile", models.TutorProfileRequest{}).Code)
	assert.Equal(t, http.StatusForbidden, student.do(t, http.MethodGet, "/api/admin/users", nil).Code)

	// Admin is not an implicit student.
	admin := s.admin(t)
	assert.Equal(t, http.StatusForbidden, admin.do(t, http.MethodPost, "/api/jobs", models.JobCreateRequest{}).Code)
}

func TestSessionCookieRoundTrip(t *testing.T) {
	s := newTestServer(t)
	c := s.client()
	me := c.register(t, "cara", models.RoleStudent)

	w := c.do(t, http.MethodGet, "/api/user", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	got := decode[models.CurrentUser](t, w)
	assert.Equal(t, me.ID, got.ID)
	assert.Nil(t, got.TutorProfile)

	w = c.do(t, http.MethodPost, "/api/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, c.cookie, "logout expires the cookie")
	assert.Equal(t, http.StatusUnauthorized, c.do(t, http.MethodGet, "/api/user", nil).Code)

	w = c.do(t, http.MethodPost, "/api/login", models.LoginRequest{Username: "cara", Password: "wrong-one"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = c.do(t, http.MethodPost, "/api/login", models.LoginRequest{Username: "cara", Password: "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusOK, c.do(t, http.MethodGet, "/api/user", nil).Code)
}

func TestRegisterErrors(t *testing.T) {
	s := newTestServer(t)
	s.client().register(t, "dupe", models.RoleStudent)

	tests := []struct {
		name    string
		body    interface{}
		message string
	}{
		{"duplicate username", models.RegisterRequest{Username: "dupe", Password: "secret123", Email: "other@example.com", FullName: "D", Role: models.RoleStudent}, "username already exists"},
		{"duplicate email", models.RegisterRequest{Username: "fresh", Password: "secret123", Email: "dupe@example.com", FullName: "D", Role: models.RoleStudent}, "email already exists"},
		{"admin role", models.RegisterRequest{Username: "sneaky", Password: "secret123", Email: "s@example.com", FullName: "S", Role: models.RoleAdmin}, "invalid role"},
		{"validation", models.RegisterRequest{Username: "x"}, "Validation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.client().do(t, http.MethodPost, "/api/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.message, decode[ErrorResponse](t, w).Message)
		})
	}

	c := s.client()
	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	c.s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDoubleBidReturns400(t *testing.T) {
	s := newTestServer(t)
	student := s.client()
	student.register(t, "sid", models.RoleStudent)
	tutor := s.client()
	tutor.register(t, "tess", models.RoleTutor)
	job := postJob(t, student)

	bid := models.BidCreateRequest{Message: "Happy to help", BidAmount: 30}
	w := tutor.do(t, http.MethodPost, "/api/jobs/"+itoa(job.ID)+"/bids", bid)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = tutor.do(t, http.MethodPost, "/api/jobs/"+itoa(job.ID)+"/bids", bid)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "already bid on this job", decode[ErrorResponse](t, w).Message)

	w = tutor.do(t, http.MethodPost, "/api/jobs/999/bids", bid)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarketplaceFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	student := s.client()
	stu := student.register(t, "stella", models.RoleStudent)
	tutor := s.client()
	tut := tutor.register(t, "theo", models.RoleTutor)
	stranger := s.client()
	stranger.register(t, "sven", models.RoleStudent)

	w := tutor.do(t, http.MethodPost, "/api/tutors/profile", models.TutorProfileRequest{SubjectList: []string{"Mathematics"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = tutor.do(t, http.MethodPost, "/api/tutors/profile", models.TutorProfileRequest{Bio: strPtr("Ten years of teaching")})
	require.Equal(t, http.StatusOK, w.Code, "second save updates")

	job := postJob(t, student)
	assert.Equal(t, models.JobOpen, job.Status)
	require.NotNil(t, job.BudgetRange)
	assert.Equal(t, 35.0, job.BudgetRange.Max)

	w = tutor.do(t, http.MethodPost, "/api/jobs/"+itoa(job.ID)+"/bids", models.BidCreateRequest{Message: "Pick me", BidAmount: 30})
	require.Equal(t, http.StatusCreated, w.Code)
	bid := decode[models.JobBid](t, w)

	assert.Equal(t, http.StatusForbidden, stranger.do(t, http.MethodPatch, "/api/bids/"+itoa(bid.ID)+"/accept", nil).Code)

	w = student.do(t, http.MethodPatch, "/api/bids/"+itoa(bid.ID)+"/accept", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	accepted := decode[services.AcceptBidResult](t, w)
	assert.Equal(t, models.BidAccepted, accepted.Bid.Status)
	assert.Equal(t, models.JobAssigned, accepted.Job.Status)

	w = s.client().do(t, http.MethodGet, "/api/jobs/"+itoa(job.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[models.JobDetail](t, w)
	require.Len(t, detail.Bids, 1)
	assert.Equal(t, "theo", detail.Bids[0].Tutor.Username)
	assert.NotContains(t, w.Body.String(), "$argon2id$")

	w = student.do(t, http.MethodPatch, "/api/jobs/"+itoa(job.ID)+"/status", models.JobStatusRequest{Status: models.JobCompleted})
	require.Equal(t, http.StatusOK, w.Code)
	w = student.do(t, http.MethodPatch, "/api/jobs/"+itoa(job.ID)+"/status", models.JobStatusRequest{Status: models.JobOpen})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = student.do(t, http.MethodPatch, "/api/jobs/"+itoa(job.ID)+"/status", models.JobStatusRequest{Status: "paused"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = student.do(t, http.MethodPost, "/api/reviews", models.ReviewCreateRequest{TutorID: tut.ID, JobID: &job.ID, Rating: 4, Comment: "Clear explanations"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = student.do(t, http.MethodPost, "/api/reviews", models.ReviewCreateRequest{TutorID: tut.ID, Rating: 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.client().do(t, http.MethodGet, "/api/tutors/"+itoa(tut.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[models.TutorDetail](t, w)
	assert.Equal(t, 4.0, profile.AverageRating)
	assert.Equal(t, "Ten years of teaching", profile.Bio)
	require.Len(t, profile.Reviews, 1)
	assert.Equal(t, stu.ID, profile.Reviews[0].Student.ID)

	w = s.client().do(t, http.MethodGet, "/api/tutors/424242", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.client().do(t, http.MethodGet, "/api/jobs?status=assigned", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]*models.JobView](t, w))
	w = s.client().do(t, http.MethodGet, "/api/jobs?status=nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = tutor.do(t, http.MethodGet, "/api/tutor/bids", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]*models.BidView](t, w), 1)

	w = student.do(t, http.MethodGet, "/api/student/jobs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]*models.JobView](t, w), 1)
}

func TestJobDetailAlwaysListsBids(t *testing.T) {
	s := newTestServer(t)
	student := s.client()
	student.register(t, "sam", models.RoleStudent)
	job := postJob(t, student)

	w := s.client().do(t, http.MethodGet, "/api/jobs/"+itoa(job.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	require.Contains(t, detail, "bids")
	assert.JSONEq(t, `[]`, string(detail["bids"]))

	w = s.client().do(t, http.MethodGet, "/api/jobs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.NotContains(t, list[0], "bids")
}

func TestMessagingOverHTTP(t *testing.T) {
	s := newTestServer(t)
	a := s.client()
	alice := a.register(t, "alice", models.RoleStudent)
	b := s.client()
	bob := b.register(t, "bob", models.RoleTutor)

	assert.Equal(t, http.StatusUnauthorized, s.client().do(t, http.MethodPost, "/api/messages", models.MessageCreateRequest{ReceiverID: bob.ID, Content: "hi"}).Code)

	w := a.do(t, http.MethodPost, "/api/messages", models.MessageCreateRequest{ReceiverID: bob.ID, Content: "Hi Bob"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.False(t, decode[models.Message](t, w).IsRead)

	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, "/api/messages", models.MessageCreateRequest{ReceiverID: alice.ID, Content: "me"}).Code)

	w = a.do(t, http.MethodPost, "/api/messages", models.MessageCreateRequest{ReceiverID: bob.ID, Content: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "content")
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodPost, "/api/messages", models.MessageCreateRequest{ReceiverID: 999, Content: "?"}).Code)

	w = b.do(t, http.MethodGet, "/api/messages/conversations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	convs := decode[[]*models.Conversation](t, w)
	require.Len(t, convs, 1)
	assert.Equal(t, alice.ID, convs[0].UserID)
	assert.Equal(t, 1, convs[0].UnreadCount)

	w = b.do(t, http.MethodGet, "/api/messages/"+itoa(alice.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode[[]*models.Message](t, w), 1)

	w = b.do(t, http.MethodGet, "/api/messages/conversations", nil)
	assert.Zero(t, decode[[]*models.Conversation](t, w)[0].UnreadCount)
}

func TestAdminOverHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := s.admin(t)
	user := s.client()
	u := user.register(t, "mallory", models.RoleStudent)
	tutor := s.client()
	tut := tutor.register(t, "tina", models.RoleTutor)
	require.Equal(t, http.StatusCreated, tutor.do(t, http.MethodPost, "/api/tutors/profile", models.TutorProfileRequest{SubjectList: []string{"Art"}}).Code)

	w := admin.do(t, http.MethodGet, "/api/admin/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]*models.PublicUser](t, w), 3)
	assert.NotContains(t, w.Body.String(), "$argon2id$")

	w = admin.do(t, http.MethodPatch, "/api/admin/tutors/"+itoa(tut.ID)+"/approval", models.TutorApprovalRequest{Status: models.ApprovalApproved})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.client().do(t, http.MethodGet, "/api/tutors?approval=approved", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]*models.TutorView](t, w), 1)

	// Banning kills the live session and blocks new logins with the reason.
	w = admin.do(t, http.MethodPatch, "/api/admin/users/"+itoa(u.ID)+"/status", models.UserStatusRequest{Status: models.UserBanned, BanReason: strPtr("spam")})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, http.StatusUnauthorized, user.do(t, http.MethodGet, "/api/user", nil).Code)

	w = user.do(t, http.MethodPost, "/api/login", models.LoginRequest{Username: "mallory", Password: "secret123"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "spam")

	w = admin.do(t, http.MethodGet, "/api/admin/analytics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	analytics := decode[models.Analytics](t, w)
	assert.Equal(t, int64(1), analytics.UsersByStatus[models.UserBanned])
	assert.Equal(t, int64(1), analytics.TutorsByApproval[models.ApprovalApproved])

	w = admin.do(t, http.MethodGet, "/api/admin/export/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotEmpty(t, w.Body.Bytes())

	w = admin.do(t, http.MethodDelete, "/api/admin/users/"+itoa(u.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, admin.do(t, http.MethodDelete, "/api/admin/users/"+itoa(u.ID), nil).Code)
	assert.Equal(t, http.StatusBadRequest, admin.do(t, http.MethodDelete, "/api/admin/users/abc", nil).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	w := s.client().do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[models.HealthResponse](t, w)
	assert.Equal(t, "healthy", health.Status)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = s.client().do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tutoring_marketplace_http_requests_total")
}

func TestCasdoorLoginDisabled(t *testing.T) {
	s := newTestServer(t)
	w := s.client().do(t, http.MethodPost, "/api/auth/casdoor", models.CasdoorLoginRequest{Token: "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
