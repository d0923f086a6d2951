package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/config"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
)

func TestBanAndReactivate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.newAdmin(t)
	user := env.register(t, "dora", models.RoleStudent)

	_, err := env.sm.Admin().UpdateUserStatus(ctx, admin.ID, admin.ID, &models.UserStatusRequest{Status: models.UserBanned})
	assert.ErrorIs(t, err, ErrSelfModeration)

	banned, err := env.sm.Admin().UpdateUserStatus(ctx, admin.ID, user.User.ID, &models.UserStatusRequest{
		Status: models.UserBanned, BanReason: ptr("abusive messages"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.UserBanned, banned.Status)
	assert.Equal(t, "abusive messages", *banned.BanReason)

	// Existing sessions stop working immediately.
	_, err = env.sm.Auth().Authenticate(ctx, user.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	active, err := env.sm.Admin().UpdateUserStatus(ctx, admin.ID, user.User.ID, &models.UserStatusRequest{Status: models.UserActive})
	require.NoError(t, err)
	assert.Equal(t, models.UserActive, active.Status)
	assert.Nil(t, active.BanReason, "activation clears the reason")

	_, err = env.sm.Admin().UpdateUserStatus(ctx, admin.ID, 4040, &models.UserStatusRequest{Status: models.UserBanned})
	assert.ErrorIs(t, err, ErrUserNotFound)

	types := eventTypes(env.events.GetPublishedEvents())
	assert.Equal(t, []models.NotificationType{models.NotificationAccountStatus, models.NotificationAccountStatus}, types)
}

func TestUpdateUserRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.newAdmin(t)
	user := env.register(t, "eli", models.RoleStudent)

	updated, err := env.sm.Admin().UpdateUserRole(ctx, admin.ID, user.User.ID, &models.UserRoleRequest{Role: models.RoleTutor})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTutor, updated.Role)

	_, err = env.sm.Admin().UpdateUserRole(ctx, admin.ID, admin.ID, &models.UserRoleRequest{Role: models.RoleStudent})
	assert.ErrorIs(t, err, ErrSelfModeration)
}

func TestTutorApproval(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tutor := env.tutorWithProfile(t, "fay")

	_, err := env.sm.Admin().UpdateTutorApproval(ctx, 555, &models.TutorApprovalRequest{Status: models.ApprovalApproved})
	assert.ErrorIs(t, err, ErrTutorNotFound)

	rejected, err := env.sm.Admin().UpdateTutorApproval(ctx, tutor.User.ID, &models.TutorApprovalRequest{
		Status: models.ApprovalRejected, RejectionReason: ptr("missing credentials"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalRejected, rejected.ApprovalStatus)
	assert.Equal(t, "missing credentials", *rejected.RejectionReason)

	// Editing a rejected profile resubmits it.
	bio := "Now with credentials"
	view, created, err := env.sm.Tutor().SaveProfile(ctx, tutor.User.ID, &models.TutorProfileRequest{Bio: &bio})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, models.ApprovalPending, view.ApprovalStatus)
	assert.Nil(t, view.RejectionReason)

	approved, err := env.sm.Admin().UpdateTutorApproval(ctx, tutor.User.ID, &models.TutorApprovalRequest{Status: models.ApprovalApproved})
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, approved.ApprovalStatus)

	pending, err := env.sm.Admin().ListTutors(ctx, models.ApprovalPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
	all, err := env.sm.Admin().ListTutors(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
	_, err = env.sm.Admin().ListTutors(ctx, "maybe")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestDeleteUserCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.newAdmin(t)
	doomed := env.register(t, "gus", models.RoleStudent)
	keeper := env.register(t, "hal", models.RoleStudent)
	tutor := env.tutorWithProfile(t, "iris")

	job := env.createJob(t, doomed.User.ID)
	_, err := env.sm.Job().CreateBid(ctx, job.ID, tutor.User.ID, bidReq(30))
	require.NoError(t, err)
	_, err = env.sm.Message().Send(ctx, doomed.User.ID, &models.MessageCreateRequest{ReceiverID: tutor.User.ID, Content: "hi"})
	require.NoError(t, err)
	for _, r := range []struct {
		student uint
		rating  int
	}{{doomed.User.ID, 1}, {keeper.User.ID, 5}} {
		_, err = env.sm.Review().Create(ctx, r.student, &models.ReviewCreateRequest{TutorID: tutor.User.ID, Rating: r.rating})
		require.NoError(t, err)
	}

	assert.ErrorIs(t, env.sm.Admin().DeleteUser(ctx, admin.ID, admin.ID), ErrSelfModeration)
	require.NoError(t, env.sm.Admin().DeleteUser(ctx, admin.ID, doomed.User.ID))
	assert.ErrorIs(t, env.sm.Admin().DeleteUser(ctx, admin.ID, doomed.User.ID), ErrUserNotFound)

	gone, err := env.repo.User().GetByID(ctx, doomed.User.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	jobs, err := env.repo.Job().GetByStudent(ctx, doomed.User.ID)
	require.NoError(t, err)
	assert.Empty(t, jobs)
	bids, err := env.repo.Bid().GetByTutor(ctx, tutor.User.ID)
	require.NoError(t, err)
	assert.Empty(t, bids, "bids on the deleted student's jobs are removed")
	convs, err := env.repo.Message().GetConversations(ctx, tutor.User.ID)
	require.NoError(t, err)
	assert.Empty(t, convs)

	profile, err := env.repo.TutorProfile().GetByUserID(ctx, tutor.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, profile.AverageRating)
	assert.Equal(t, 1, profile.TotalReviews)

	_, err = env.sm.Auth().Authenticate(ctx, doomed.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAnalyticsAndExport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newAdmin(t)
	student := env.register(t, "jan", models.RoleStudent)
	tutor := env.tutorWithProfile(t, "kim")
	job := env.createJob(t, student.User.ID)
	_, err := env.sm.Job().CreateBid(ctx, job.ID, tutor.User.ID, bidReq(30))
	require.NoError(t, err)
	_, err = env.sm.Review().Create(ctx, student.User.ID, &models.ReviewCreateRequest{TutorID: tutor.User.ID, Rating: 4})
	require.NoError(t, err)

	a, err := env.sm.Admin().Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.UsersByRole[models.RoleAdmin])
	assert.Equal(t, int64(1), a.UsersByRole[models.RoleStudent])
	assert.Equal(t, int64(1), a.UsersByRole[models.RoleTutor])
	assert.Equal(t, int64(3), a.UsersByStatus[models.UserActive])
	assert.Equal(t, int64(1), a.TutorsByApproval[models.ApprovalPending])
	assert.Equal(t, int64(1), a.JobsByStatus[models.JobOpen])
	assert.Equal(t, int64(1), a.BidsByStatus[models.BidPending])
	assert.Equal(t, int64(1), a.Totals.Reviews)
	assert.Equal(t, 4.0, a.AverageRating)

	export, err := env.sm.Admin().ExportUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, xlsxContentType, export.ContentType)
	assert.Contains(t, export.Filename, ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(export.Data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{sheetUsers, sheetTutors, sheetAnalytics}, f.GetSheetList())

	rows, err := f.GetRows(sheetUsers)
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus three users")
	assert.Equal(t, "Username", rows[0][1])
	for _, row := range rows {
		for _, cell := range row {
			assert.NotContains(t, cell, "$argon2id$", "password hashes never leave the service")
		}
	}

	tutorRows, err := f.GetRows(sheetTutors)
	require.NoError(t, err)
	require.Len(t, tutorRows, 2)
	assert.Equal(t, "kim", tutorRows[1][1])
}

func TestEnsureAdmin(t *testing.T) {
	env := newTestEnv(t, func(_ *Dependencies, cfg *ServiceManagerConfig) {
		cfg.Admin = config.AdminConfig{Username: "boss", Email: "Boss@Example.com", Password: "bootstrap-pass"}
	})
	ctx := context.Background()

	role := models.RoleAdmin
	admins, err := env.repo.User().List(ctx, repositories.UserFilters{Role: &role})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "boss@example.com", admins[0].Email)

	// Idempotent once an admin exists.
	require.NoError(t, env.sm.Admin().EnsureAdmin(ctx, "other", "other@example.com", "pw"))
	admins, err = env.repo.User().List(ctx, repositories.UserFilters{Role: &role})
	require.NoError(t, err)
	assert.Len(t, admins, 1)

	_, err = env.sm.Auth().Login(ctx, &models.LoginRequest{Username: "boss", Password: "bootstrap-pass"})
	assert.NoError(t, err)
}
