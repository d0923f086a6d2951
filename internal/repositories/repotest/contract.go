// Package repotest holds the behavioural contract every storage backend must
// satisfy. Backends call Run from their own tests.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
)

// Factory returns an empty repository. It is called once per subtest.
type Factory func(t *testing.T) repositories.Repository

func Run(t *testing.T, newRepo Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, repo repositories.Repository)
	}{
		{"users", testUsers},
		{"tutor profiles", testTutorProfiles},
		{"jobs", testJobs},
		{"bids", testBids},
		{"messages", testMessages},
		{"reviews recompute rating", testReviews},
		{"notifications", testNotifications},
		{"sessions", testSessions},
		{"stats", testStats},
		{"transaction rollback", testTransactionRollback},
		{"transaction commit", testTransactionCommit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newRepo(t))
		})
	}
}

// NewUser creates a user with a derived email and a placeholder hash.
func NewUser(t *testing.T, repo repositories.Repository, username string, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		FullName: username,
		Password: "$argon2id$placeholder",
		Role:     role,
	}
	require.NoError(t, repo.User().Create(context.Background(), u))
	return u
}

func testUsers(t *testing.T, repo repositories.Repository) {
	ctx := context.Background()

	a := NewUser(t, repo, "alice", models.RoleStudent)
	b := NewUser(t, repo, "bob", models.RoleTutor)
	assert.NotZero(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, models.UserActive, a.Status)

	got, err := repo.User().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)

	missing, err := repo.User().GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	byName, err := repo.User().GetByUsername(ctx, "bob")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, b.ID, byName.ID)

	byEmail, err := repo.User().GetByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, a.ID, byEmail.ID)

	dup := &models.User{Username: "alice", Email: "other@example.com", FullName: "x", Password: "x", Role: models.RoleStudent}
	err = repo.User().Create(ctx, dup)
	assert.True(t, errors.Is(err, repositories.ErrDuplicate), "got %v", err)

	banned := models.UserBanned
	reason := "spam"
	updated, err := repo.User().Update(ctx, a.ID, models.UserUpdate{Status: &banned, BanReason: &reason})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, models.UserBanned, updated.Status)
	require.NotNil(t, updated.BanReason)
	assert.Equal(t, "spam", *updated.BanReason)
	assert.Equal(t, "alice", updated.Username)

	active := models.UserActive
	updated, err = repo.User().Update(ctx, a.ID, models.UserUpdate{Status: &active, ClearBanReason: true})
	require.NoError(t, err)
	assert.Nil(t, updated.BanReason)

	none, err := repo.User().Update(ctx, 9999, models.UserUpdate{Status: &active})
	require.NoError(t, err)
	assert.Nil(t, none)

	tutorRole := models.RoleTutor
	tutors, err := repo.User().List(ctx, repositories.UserFilters{Role: &tutorRole})
	require.NoError(t, err)
	require.Len(t, tutors, 1)
	assert.Equal(t, b.ID, tutors[0].ID)

	byIDs, err := repo.User().GetByIDs(ctx, []uint{a.ID, b.ID, 9999})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)

	require.NoError(t, repo.User().Delete(ctx, b.ID))
	gone, err := repo.User().GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func testTutorProfiles(t *testing.T, repo repositories.Repository) {
	ctx := context.Background()
	tutor := NewUser(t, repo, "tina", models.RoleTutor)
	other := NewUser(t, repo, "tom", models.RoleTutor)

	p := &models.TutorProfile{UserID: tutor.ID, Subjects: "Mathematics, Physics", ApprovalStatus: models.ApprovalApproved, AverageRating: 4.9}
	require.NoError(t, repo.TutorProfile().Create(ctx, p))
	assert.Equal(t, models.ApprovalPending, p.ApprovalStatus)
	assert.Zero(t, p.AverageRating)

	err := repo.TutorProfile().Create(ctx, &models.TutorProfile{UserID: tutor.ID})
	assert.True(t, errors.Is(err, repositories.ErrDuplicate), "got %v", err)

	require.NoError(t, repo.TutorProfile().Create(ctx, &models.TutorProfile{UserID: other.ID, Subjects: "Chemistry"}))

	got, err := repo.TutorProfile().GetByUserID(ctx, tutor.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.ID, got.ID)

	approved := models.ApprovalApproved
	bio := "Ten years of teaching"
	upd, err := repo.TutorProfile().Update(ctx, p.ID, models.TutorProfileUpdate{ApprovalStatus: &approved, Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, upd.ApprovalStatus)
	assert.Equal(t, bio, upd.Bio)
	assert.Equal(t, "Mathematics, Physics", upd.Subjects)

	list, err := repo.TutorProfile().List(ctx, repositories.TutorFilters{Subject: "physics"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, tutor.ID, list[0].UserID)

	list, err = repo.TutorProfile().List(ctx, repositories.TutorFilters{Subject: "phys"})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = repo.TutorProfile().List(ctx, repositories.TutorFilters{ApprovalStatus: &approved})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.TutorProfile().DeleteByUserID(ctx, other.ID))
	gone, err := repo.TutorProfile().GetByUserID(ctx, other.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func testJobs(t *testing.T, repo repositories.Repository) {
	ctx := context.Background()
	s1 := NewUser(t, repo, "stu1", models.RoleStudent)
	s2 := NewUser(t, repo, "stu2", models.RoleStudent)

	j1 := &models.Job{StudentID: s1.ID, Title: "Algebra", Description: "help", Subjects: "Mathematics", Status: models.JobCompleted}
	require.NoError(t, repo.Job().Create(ctx, j1))
	assert.Equal(t, models.JobOpen, j1.Status)

	j2 := &models.Job{StudentID: s1.ID, Title: "Essays", Description: "help", Subjects: "English"}
	require.NoError(t, repo.Job().Create(ctx, j2))
	j3 := &models.Job{StudentID: s2.ID, Title: "Chem", Description: "help", Subjects: "Chemistry"}
	require.NoError(t, repo.Job().Create(ctx, j3))

	ids := map[uint]bool{j1.ID: true, j2.ID: true, j3.ID: true}
	assert.Len(t, ids, 3)

	all, err := repo.Job().List(ctx, repositories.JobFilters{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, j3.ID, all[0].ID)

	assigned := models.JobAssigned
	_, err = repo.Job().Update(ctx, j2.ID, models.JobUpdate{Status: &assigned})
	require.NoError(t, err)

	open, err := repo.Job().GetOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	for _, j := range open {
		assert.Equal(t, models.JobOpen, j.Status)
	}

	mine, err := repo.Job().GetByStudent(ctx, s1.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	byIDs, err := repo.Job().GetByIDs(ctx, []uint{j1.ID, j3.ID})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)

	deleted, err := repo.Job().DeleteByStudent(ctx, s1.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{j1.ID, j2.ID}, deleted)

	left, err := repo.Job().List(ctx, repositories.JobFilters{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, j3.ID, left[0].ID)
}

func testBids(t *testing.T, repo repositories.Repository) {
	ctx := context.Background()
	student := NewUser(t, repo, "stu", models.RoleStudent)
	t1 := NewUser(t, repo, "tut1", models.RoleTutor)
	t2 := NewUser(t, repo, "tut2", models.RoleTutor)

	job := &models.Job{StudentID: student.ID, Title: "Physics", Description: "d"}
	require.NoError(t, repo.Job().Create(ctx, job))

	b1 := &models.JobBid{JobID: job.ID, TutorID: t1.ID, BidAmount: 40, Status: models.BidAccepted}
	require.NoError(t, repo.Bid().Create(ctx, b1))
	assert.Equal(t, models.BidPending, b1.Status)
	b2 := &models.JobBid{JobID: job.ID, TutorID: t2.ID, BidAmount: 35}
	require.NoError(t, repo.Bid().Create(ctx, b2))

	found, err := repo.Bid().GetByJobAndTutor(ctx, job.ID, t1.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, b1.ID, found.ID)

	none, err := repo.Bid().GetByJobAndTutor(ctx, job.ID, student.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	byJob, err := repo.Bid().GetByJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, byJob, 2)

	accepted := models.BidAccepted
	upd, err := repo.Bid().Update(ctx, b1.ID, models.BidUpdate{Status: &accepted})
	require.NoError(t, err)
	assert.Equal(t, models.BidAccepted, upd.Status)

	other, err := repo.Bid().GetByID(ctx, b2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BidPending, other.Status)

	byTutor, err := repo.Bid().GetByTutor(ctx, t2.ID)
	require.NoError(t, err)
	require.Len(t, byTutor, 1)
	assert.Equal(t, b2.ID, byTutor[0].ID)

	require.NoError(t, repo.Bid().DeleteByTutor(ctx, t2.ID))
	require.NoError(t, repo.Bid().DeleteByJobs(ctx, nil))
	byJob, err = repo.Bid().GetByJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, byJob, 1)

	require.NoError(t, repo.Bid().DeleteByJobs(ctx, []uint{job.ID}))
	byJob, err = repo.Bid().GetByJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Empty(t, byJob)
}

func testMessages(t *testing.T, repo repositories.Repository) {
	ctx := context.Background()
	a := NewUser(t, repo, "ann", models.RoleStudent)
	b := NewUser(t, repo, "ben", models.RoleTutor)
	c := NewUser(t, repo, "cat", models.RoleTutor)

	send := func(from, to uint, content string) *models.Message {
		m := &models.Message{SenderID: from, ReceiverID: to, Content: content, IsRead: true}
		require.NoError(t, repo.Message().Create(ctx, m))
		assert.False(t, m.IsRead)
		return m
	}
	first := send(b.ID, a.ID, "hi ann")
	send(a.ID, b.ID, "hi ben")
	send(b.ID, a.ID, "are you free?")
	send(c.ID, a.ID, "hello from cat")
	send(b.ID, c.ID, "unrelated")

	thread, err := repo.Message().GetBetweenUsers(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, first.ID, thread[0].ID)
	assert.Equal(t, "are you free?", thread[2].Content)

	convs, err := repo.Message().GetConversations(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	unread := map[uint]int{}
	for _, s := range convs {
		unread[s.UserID] = s.UnreadCount
	}
	assert.Equal(t, map[uint]int{b.ID: 2, c.ID: 1}, unread)

	n, err := repo.Message().MarkRead(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	convs, err = repo.Message().GetConversations(ctx, a.ID)
	require.NoError(t, err)
	for _, s := range convs {
		if s.UserID == b.ID {
			assert.Zero(t, s.UnreadCount)
			assert.Equal(t, "are you free?", s.LastMessage)
		}
	}

	// ben's view: ann's message to ben is still unread.
	convs, err = repo.Message().GetConversations(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	for _, s := range convs {
		if s.UserID == a.ID {
			assert.Equal(t, 1, s.UnreadCount)
		}
	}

	require.NoError(t, repo.Message().DeleteByUser(ctx, c.ID))
	convs, err = repo.Message().GetConversations(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, convs, 1)
}

func testReviews(t *testing.T, repo repositories.Repository) {
	ctx := context.Background()
	student := NewUser(t, repo, "stu", models.RoleStudent)
	other := NewUser(t, repo, "stu2", models.RoleStudent)
	tutor := NewUser(t, repo, "tut", models.RoleTutor)
	require.NoError(t, repo.TutorProfile().Create(ctx, &models.TutorProfile{UserID: tutor.ID}))

	for _, rating := range []int{5, 4} {
		require.NoError(t, repo.Review().Create(ctx, &models.Review{TutorID: tutor.ID, StudentID: student.ID, Rating: rating}))
	}
	require.NoError(t, repo.Review().Create(ctx, &models.Review{TutorID: tutor.ID, StudentID: other.ID, Rating: 3}))

	profile, err := repo.TutorProfile().GetByUserID(ctx, tutor.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, profile.AverageRating, 1e-9)
	assert.Equal(t, 3, profile.TotalReviews)

	reviews, err := repo.Review().GetByTutor(ctx, tutor.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 3)
	assert.Equal(t, 3, reviews[0].Rating)

	// A tutor without a profile still accepts reviews.
	bare := NewUser(t, repo, "bare", models.RoleTutor)
	require.NoError(t, repo.Review().Create(ctx, &models.Review{TutorID: bare.ID, StudentID: student.ID, Rating: 2}))

	affected, err := repo.Review().DeleteByUser(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{tutor.ID}, affected)

	require.NoError(t, repo.TutorProfile().RecomputeRating(ctx, tutor.ID))
	profile, err = repo.TutorProfile().GetByUserID(ctx, tutor.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, profile.AverageRating, 1e-9)
	assert.Equal(t, 2, profile.TotalReviews)
}

func testNotifications(t *testing.T, repo repositories.Repository) {
	ctx := context.Background()
	u := NewUser(t, repo, "nora", models.RoleTutor)

	n1 := &models.Notification{UserID: u.ID, Type: models.NotificationBidAccepted, Title: "Bid accepted", Payload: []byte(`{"bid_id":1}`)}
	require.NoError(t, repo.Notification().Create(ctx, n1))
	n2 := &models.Notification{UserID: u.ID, Type: models.NotificationMessageSent, Title: "New message"}
	require.NoError(t, repo.Notification().Create(ctx, n2))

	require.NoError(t, repo.Notification().MarkRead(ctx, n1.ID))

	unread, err := repo.Notification().GetByUser(ctx, u.ID, true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, n2.ID, unread[0].ID)

	all, err := repo.Notification().GetByUser(ctx, u.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := repo.Notification().GetByID(ctx, n1.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)
	assert.JSONEq(t, `{"bid_id":1}`, string(got.Payload))

	require.NoError(t, repo.Notification().DeleteByUser(ctx, u.ID))
	all, err = repo.Notification().GetByUser(ctx, u.ID, false)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testSessions(t *testing.T, repo repositories.Repository) {
	ctx := context.Background()
	u := NewUser(t, repo, "sam", models.RoleStudent)
	now := time.Now()

	live := &models.Session{ID: "live-session", UserID: u.ID, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Session().Create(ctx, live))
	stale := &models.Session{ID: "stale-session", UserID: u.ID, ExpiresAt: now.Add(-time.Minute)}
	require.NoError(t, repo.Session().Create(ctx, stale))

	got, err := repo.Session().Get(ctx, "live-session")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.UserID)

	expired, err := repo.Session().Get(ctx, "stale-session")
	require.NoError(t, err)
	assert.Nil(t, expired)

	removed, err := repo.Session().DeleteExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	require.NoError(t, repo.Session().Delete(ctx, "live-session"))
	got, err = repo.Session().Get(ctx, "live-session")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.Session().Create(ctx, &models.Session{ID: "again", UserID: u.ID, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, repo.Session().DeleteByUser(ctx, u.ID))
	got, err = repo.Session().Get(ctx, "again")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testStats(t *testing.T, repo repositories.Repository) {
	ctx := context.Background()
	student := NewUser(t, repo, "stu", models.RoleStudent)
	tutor := NewUser(t, repo, "tut", models.RoleTutor)
	NewUser(t, repo, "adm", models.RoleAdmin)
	require.NoError(t, repo.TutorProfile().Create(ctx, &models.TutorProfile{UserID: tutor.ID}))

	job := &models.Job{StudentID: student.ID, Title: "t", Description: "d"}
	require.NoError(t, repo.Job().Create(ctx, job))
	require.NoError(t, repo.Bid().Create(ctx, &models.JobBid{JobID: job.ID, TutorID: tutor.ID, BidAmount: 10}))
	require.NoError(t, repo.Message().Create(ctx, &models.Message{SenderID: student.ID, ReceiverID: tutor.ID, Content: "hi"}))
	require.NoError(t, repo.Review().Create(ctx, &models.Review{TutorID: tutor.ID, StudentID: student.ID, Rating: 4}))
	require.NoError(t, repo.Review().Create(ctx, &models.Review{TutorID: tutor.ID, StudentID: student.ID, Rating: 5}))

	roles, err := repo.Stats().CountUsersByRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[models.UserRole]int64{models.RoleStudent: 1, models.RoleTutor: 1, models.RoleAdmin: 1}, roles)

	statuses, err := repo.Stats().CountUsersByStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, statuses[models.UserActive])

	approvals, err := repo.Stats().CountTutorsByApproval(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, approvals[models.ApprovalPending])

	jobs, err := repo.Stats().CountJobsByStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, jobs[models.JobOpen])

	bids, err := repo.Stats().CountBidsByStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, bids[models.BidPending])

	totals, err := repo.Stats().Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.EntityTotals{Users: 3, TutorProfiles: 1, Jobs: 1, Bids: 1, Messages: 1, Reviews: 2}, *totals)

	avg, err := repo.Stats().AverageRating(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, avg, 1e-9)

	unread, err := repo.Stats().CountUnreadMessages(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)
}

func testTransactionRollback(t *testing.T, repo repositories.Repository) {
	ctx := context.Background()
	student := NewUser(t, repo, "stu", models.RoleStudent)
	tutor := NewUser(t, repo, "tut", models.RoleTutor)

	job := &models.Job{StudentID: student.ID, Title: "t", Description: "d"}
	require.NoError(t, repo.Job().Create(ctx, job))
	bid := &models.JobBid{JobID: job.ID, TutorID: tutor.ID, BidAmount: 20}
	require.NoError(t, repo.Bid().Create(ctx, bid))

	boom := errors.New("boom")
	err := repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		accepted := models.BidAccepted
		if _, err := tx.Bid().Update(ctx, bid.ID, models.BidUpdate{Status: &accepted}); err != nil {
			return err
		}
		assigned := models.JobAssigned
		if _, err := tx.Job().Update(ctx, job.ID, models.JobUpdate{Status: &assigned}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	gotBid, err := repo.Bid().GetByID(ctx, bid.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BidPending, gotBid.Status)
	gotJob, err := repo.Job().GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobOpen, gotJob.Status)
}

func testTransactionCommit(t *testing.T, repo repositories.Repository) {
	ctx := context.Background()
	student := NewUser(t, repo, "stu", models.RoleStudent)
	tutor := NewUser(t, repo, "tut", models.RoleTutor)
	require.NoError(t, repo.TutorProfile().Create(ctx, &models.TutorProfile{UserID: tutor.ID}))

	err := repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		return tx.Review().Create(ctx, &models.Review{TutorID: tutor.ID, StudentID: student.ID, Rating: 5})
	})
	require.NoError(t, err)

	profile, err := repo.TutorProfile().GetByUserID(ctx, tutor.ID)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, profile.AverageRating, 1e-9)
	assert.Equal(t, 1, profile.TotalReviews)
	require.NoError(t, repo.Ping(ctx))
}
