package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/events"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/metrics"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/validator"
)

func TestBidAcceptedEventTargetsTutor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.register(t, "nora", models.RoleStudent)
	tutor := env.register(t, "oscar", models.RoleTutor)
	job := env.createJob(t, student.User.ID)

	bid, err := env.sm.Job().CreateBid(ctx, job.ID, tutor.User.ID, bidReq(50))
	require.NoError(t, err)
	env.events.ClearEvents()

	_, err = env.sm.Job().AcceptBid(ctx, bid.ID, student.User.ID)
	require.NoError(t, err)

	published := env.events.GetPublishedEvents()
	require.Len(t, published, 1)
	e := published[0]
	assert.Equal(t, models.NotificationBidAccepted, e.Type)
	assert.Equal(t, tutor.User.ID, e.RecipientID)
	assert.Equal(t, events.EventSource, e.Source)

	var data events.BidAcceptedData
	require.NoError(t, json.Unmarshal(e.Data, &data))
	assert.Equal(t, events.BidAcceptedData{BidID: bid.ID, JobID: job.ID, StudentID: student.User.ID}, data)
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := env.register(t, "paul", models.RoleStudent)
	receiver := env.register(t, "quinn", models.RoleTutor)

	before := testutil.ToFloat64(metrics.EventPublishFailuresTotal.WithLabelValues(string(models.NotificationMessageSent)))
	env.events.Err = errors.New("broker down")

	msg, err := env.sm.Message().Send(ctx, sender.User.ID, &models.MessageCreateRequest{ReceiverID: receiver.User.ID, Content: "hello"})
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)

	after := testutil.ToFloat64(metrics.EventPublishFailuresTotal.WithLabelValues(string(models.NotificationMessageSent)))
	assert.Equal(t, before+1, after)
}

func TestSendMessage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.register(t, "rita", models.RoleStudent)
	b := env.register(t, "saul", models.RoleTutor)

	msg, err := env.sm.Message().Send(ctx, a.User.ID, &models.MessageCreateRequest{ReceiverID: b.User.ID, Content: "  Are you free?  "})
	require.NoError(t, err)
	assert.False(t, msg.IsRead)
	assert.Equal(t, "Are you free?", msg.Content)
	assert.Equal(t, a.User.ID, msg.SenderID)

	_, err = env.sm.Message().Send(ctx, a.User.ID, &models.MessageCreateRequest{ReceiverID: a.User.ID, Content: "me"})
	assert.ErrorIs(t, err, ErrMessageToSelf)

	_, err = env.sm.Message().Send(ctx, a.User.ID, &models.MessageCreateRequest{ReceiverID: 999, Content: "ghost"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = env.sm.Message().Send(ctx, a.User.ID, &models.MessageCreateRequest{ReceiverID: b.User.ID})
	var ve validator.ValidationErrors
	assert.True(t, errors.As(err, &ve))

	published := env.events.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, b.User.ID, published[0].RecipientID)
	assert.Equal(t, "New message from User rita", published[0].Title)
}

func TestConversationsAndThread(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	me := env.register(t, "tara", models.RoleStudent)
	x := env.register(t, "ulf", models.RoleTutor)
	y := env.register(t, "vera", models.RoleTutor)

	send := func(from, to uint, content string) {
		_, err := env.sm.Message().Send(ctx, from, &models.MessageCreateRequest{ReceiverID: to, Content: content})
		require.NoError(t, err)
	}
	send(x.User.ID, me.User.ID, "one")
	send(x.User.ID, me.User.ID, "two")
	send(me.User.ID, x.User.ID, "three")
	send(y.User.ID, me.User.ID, "four")

	convs, err := env.sm.Message().Conversations(ctx, me.User.ID)
	require.NoError(t, err)
	require.Len(t, convs, 2, "one entry per counterpart")

	byUser := map[uint]*models.Conversation{}
	for _, c := range convs {
		byUser[c.UserID] = c
		require.NotNil(t, c.User)
	}
	assert.Equal(t, 2, byUser[x.User.ID].UnreadCount)
	assert.Equal(t, 1, byUser[y.User.ID].UnreadCount)
	assert.Equal(t, y.User.ID, convs[0].UserID, "latest conversation first")

	thread, err := env.sm.Message().Thread(ctx, me.User.ID, x.User.ID)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, "one", thread[0].Content)
	assert.Equal(t, "three", thread[2].Content)

	convs, err = env.sm.Message().Conversations(ctx, me.User.ID)
	require.NoError(t, err)
	for _, c := range convs {
		if c.UserID == x.User.ID {
			assert.Zero(t, c.UnreadCount, "opening the thread marks it read")
		}
	}

	// The counterpart's view is unaffected: their own message to me is not theirs to read.
	theirs, err := env.sm.Message().Conversations(ctx, x.User.ID)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, 1, theirs[0].UnreadCount)

	_, err = env.sm.Message().Thread(ctx, me.User.ID, 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestNotifications(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "wade", models.RoleStudent)
	other := env.register(t, "xavi", models.RoleStudent)

	n := &models.Notification{UserID: owner.User.ID, Type: models.NotificationBidCreated, Title: "New bid"}
	require.NoError(t, env.repo.Notification().Create(ctx, n))

	list, err := env.sm.Notification().List(ctx, owner.User.ID, true)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = env.sm.Notification().MarkRead(ctx, other.User.ID, n.ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	read, err := env.sm.Notification().MarkRead(ctx, owner.User.ID, n.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	list, err = env.sm.Notification().List(ctx, owner.User.ID, true)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = env.sm.Notification().List(ctx, owner.User.ID, false)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestReviewRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.register(t, "yuri", models.RoleStudent)
	other := env.register(t, "zoe", models.RoleStudent)
	tutor := env.tutorWithProfile(t, "abel")
	otherJob := env.createJob(t, other.User.ID)

	tests := []struct {
		name    string
		req     models.ReviewCreateRequest
		wantErr error
	}{
		{"missing tutor", models.ReviewCreateRequest{TutorID: 999, Rating: 4}, ErrTutorNotFound},
		{"reviewee is not a tutor", models.ReviewCreateRequest{TutorID: other.User.ID, Rating: 4}, ErrNotATutor},
		{"missing job", models.ReviewCreateRequest{TutorID: tutor.User.ID, JobID: ptr(uint(999)), Rating: 4}, ErrJobNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.sm.Review().Create(ctx, student.User.ID, &tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := env.sm.Review().Create(ctx, student.User.ID, &models.ReviewCreateRequest{TutorID: tutor.User.ID, JobID: &otherJob.ID, Rating: 4})
	var perr *PermissionError
	assert.True(t, errors.As(err, &perr))

	_, err = env.sm.Review().Create(ctx, student.User.ID, &models.ReviewCreateRequest{TutorID: tutor.User.ID, Rating: 6})
	var ve validator.ValidationErrors
	assert.True(t, errors.As(err, &ve))

	reviews, err := env.repo.Review().GetByTutor(ctx, tutor.User.ID)
	require.NoError(t, err)
	assert.Empty(t, reviews, "rejected reviews leave nothing behind")
}

func TestAverageRatingAfterManyReviews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.register(t, "bea", models.RoleStudent)
	tutor := env.tutorWithProfile(t, "cody")

	ratings := []int{5, 3, 4, 1, 2, 5}
	sum := 0
	for i, r := range ratings {
		_, err := env.sm.Review().Create(ctx, student.User.ID, &models.ReviewCreateRequest{TutorID: tutor.User.ID, Rating: r})
		require.NoError(t, err)
		sum += r

		profile, err := env.repo.TutorProfile().GetByUserID(ctx, tutor.User.ID)
		require.NoError(t, err)
		assert.InDelta(t, float64(sum)/float64(i+1), profile.AverageRating, 1e-9)
		assert.Equal(t, i+1, profile.TotalReviews)
	}
}
