package services

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/cache"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
)

func TestSaveProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tutor := env.register(t, "lena", models.RoleTutor)
	student := env.register(t, "mo", models.RoleStudent)

	rate := 42.5
	view, created, err := env.sm.Tutor().SaveProfile(ctx, tutor.User.ID, &models.TutorProfileRequest{
		SubjectList: []string{"Chemistry", " Biology "},
		HourlyRate:  &rate,
		Bio:         ptr("  Lab nerd  "),
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Chemistry, Biology", view.Subjects)
	assert.Equal(t, "Lab nerd", view.Bio)
	assert.Equal(t, models.ApprovalPending, view.ApprovalStatus)
	assert.Zero(t, view.AverageRating)

	online := true
	view, created, err = env.sm.Tutor().SaveProfile(ctx, tutor.User.ID, &models.TutorProfileRequest{IsOnline: &online})
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, view.IsOnline)
	assert.Equal(t, "Chemistry, Biology", view.Subjects, "unset fields are kept")
	assert.Equal(t, 42.5, *view.HourlyRate)

	_, _, err = env.sm.Tutor().SaveProfile(ctx, student.User.ID, &models.TutorProfileRequest{Bio: ptr("hi")})
	assert.ErrorIs(t, err, ErrNotATutor)
}

func TestListTutorsFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.tutorWithProfile(t, "nina")
	other := env.register(t, "otto", models.RoleTutor)
	subjects := "Spanish"
	_, _, err := env.sm.Tutor().SaveProfile(ctx, other.User.ID, &models.TutorProfileRequest{Subjects: &subjects})
	require.NoError(t, err)

	all, err := env.sm.Tutor().List(ctx, models.ListTutorsParams{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	maths, err := env.sm.Tutor().List(ctx, models.ListTutorsParams{Subject: "mathematics"})
	require.NoError(t, err)
	require.Len(t, maths, 1)
	assert.Equal(t, "nina", maths[0].User.Username)

	approved, err := env.sm.Tutor().List(ctx, models.ListTutorsParams{Approval: models.ApprovalApproved})
	require.NoError(t, err)
	assert.Empty(t, approved)

	_, err = env.sm.Tutor().List(ctx, models.ListTutorsParams{Approval: "nope"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = env.sm.Tutor().GetDetail(ctx, 999)
	assert.ErrorIs(t, err, ErrTutorNotFound)
}

func TestTutorDirectoryCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	env := newTestEnv(t, func(d *Dependencies, _ *ServiceManagerConfig) {
		d.Cache = cache.NewCacheManager(client)
	})
	ctx := context.Background()
	student := env.register(t, "pia", models.RoleStudent)
	tutor := env.tutorWithProfile(t, "quin")

	detail, err := env.sm.Tutor().GetDetail(ctx, tutor.User.ID)
	require.NoError(t, err)
	assert.Zero(t, detail.TotalReviews)
	_, err = env.sm.Tutor().List(ctx, models.ListTutorsParams{})
	require.NoError(t, err)

	detailKey := cache.TutorCacheConfig.Prefix + cache.TutorDetailKey(tutor.User.ID)
	listKey := cache.TutorCacheConfig.Prefix + cache.TutorListKey("", "")
	assert.True(t, mr.Exists(detailKey))
	assert.True(t, mr.Exists(listKey))
	assert.Greater(t, mr.TTL(detailKey).Seconds(), 0.0)

	// A review invalidates the directory so the new rating is visible.
	_, err = env.sm.Review().Create(ctx, student.User.ID, &models.ReviewCreateRequest{TutorID: tutor.User.ID, Rating: 3})
	require.NoError(t, err)
	assert.False(t, mr.Exists(detailKey))
	assert.False(t, mr.Exists(listKey))

	detail, err = env.sm.Tutor().GetDetail(ctx, tutor.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.TotalReviews)
	assert.Equal(t, 3.0, detail.AverageRating)
}

func TestModerationRefreshesTutorDirectory(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	env := newTestEnv(t, func(d *Dependencies, _ *ServiceManagerConfig) {
		d.Cache = cache.NewCacheManager(client)
	})
	ctx := context.Background()
	admin := env.newAdmin(t)
	tutor := env.tutorWithProfile(t, "rhea")
	tutorID := tutor.User.ID

	detail, err := env.sm.Tutor().GetDetail(ctx, tutorID)
	require.NoError(t, err)
	assert.Equal(t, models.UserActive, detail.User.Status)

	_, err = env.sm.Admin().UpdateUserStatus(ctx, admin.ID, tutorID, &models.UserStatusRequest{Status: models.UserBanned, BanReason: ptr("fake credentials")})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.TutorCacheConfig.Prefix+cache.TutorDetailKey(tutorID)))

	detail, err = env.sm.Tutor().GetDetail(ctx, tutorID)
	require.NoError(t, err)
	assert.Equal(t, models.UserBanned, detail.User.Status)

	// Demotion hides the profile publicly but keeps it for admins.
	_, err = env.sm.Admin().UpdateUserRole(ctx, admin.ID, tutorID, &models.UserRoleRequest{Role: models.RoleStudent})
	require.NoError(t, err)

	_, err = env.sm.Tutor().GetDetail(ctx, tutorID)
	assert.ErrorIs(t, err, ErrTutorNotFound)
	public, err := env.sm.Tutor().List(ctx, models.ListTutorsParams{})
	require.NoError(t, err)
	assert.Empty(t, public)
	all, err := env.sm.Admin().ListTutors(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.RoleStudent, all[0].User.Role)

	_, err = env.sm.Admin().UpdateUserRole(ctx, admin.ID, tutorID, &models.UserRoleRequest{Role: models.RoleTutor})
	require.NoError(t, err)
	public, err = env.sm.Tutor().List(ctx, models.ListTutorsParams{})
	require.NoError(t, err)
	assert.Len(t, public, 1)
}
