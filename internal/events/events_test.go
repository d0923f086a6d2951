package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/config"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories/memory"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories/repotest"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewEvent(t *testing.T) {
	e, err := NewEvent(models.NotificationBidAccepted, 9, "Bid accepted", "Your bid was accepted", BidAcceptedData{BidID: 1, JobID: 2, StudentID: 3})
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, EventSource, e.Source)
	assert.Equal(t, EventVersion, e.Version)
	assert.False(t, e.Timestamp.IsZero())
	assert.JSONEq(t, `{"bid_id":1,"job_id":2,"student_id":3}`, string(e.Data))

	n := e.Notification()
	assert.Equal(t, uint(9), n.UserID)
	assert.Equal(t, models.NotificationBidAccepted, n.Type)
	assert.Equal(t, "Bid accepted", n.Title)
}

func TestNewPubSubWithoutBrokersUsesGoChannel(t *testing.T) {
	ps, err := NewPubSub(config.KafkaConfig{}, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, BackendGoChannel, ps.Backend)
	assert.NoError(t, ps.Close())
}

func TestMockEventPublisher(t *testing.T) {
	m := NewMockEventPublisher(quietLogger())
	e, err := NewEvent(models.NotificationMessageSent, 1, "t", "b", nil)
	require.NoError(t, err)

	require.NoError(t, m.Publish(context.Background(), e))
	assert.Len(t, m.GetPublishedEvents(), 1)
	m.ClearEvents()
	assert.Empty(t, m.GetPublishedEvents())

	m.Err = errors.New("down")
	assert.Error(t, m.Publish(context.Background(), e))
}

func TestConsumerDropsBadMessages(t *testing.T) {
	repo := memory.NewStore().Repository()
	c := NewNotificationConsumer(repo, quietLogger())

	assert.NoError(t, c.Handle(message.NewMessage(watermill.NewUUID(), []byte("not json"))))

	payload, _ := json.Marshal(Event{ID: "x", Type: models.NotificationMessageSent, RecipientID: 404})
	assert.NoError(t, c.Handle(message.NewMessage(watermill.NewUUID(), payload)))

	notes, err := repo.Notification().GetByUser(context.Background(), 404, false)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestPublishedEventBecomesNotification(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := memory.NewStore().Repository()
	tutor := repotest.NewUser(t, repo, "tutor", models.RoleTutor)

	ps := NewGoChannelPubSub(watermill.NopLogger{})
	defer ps.Close()

	router, err := NewRouter(ps.Subscriber, NewNotificationConsumer(repo, quietLogger()), quietLogger())
	require.NoError(t, err)
	go func() { _ = router.Run(ctx) }()
	<-router.Running()
	defer router.Close()

	publisher := NewEventPublisher(ps.Publisher, quietLogger())
	e, err := NewEvent(models.NotificationBidAccepted, tutor.ID, "Your bid was accepted", "", BidAcceptedData{BidID: 5})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(ctx, e))

	var got []*models.Notification
	require.Eventually(t, func() bool {
		got, err = repo.Notification().GetByUser(ctx, tutor.ID, false)
		return err == nil && len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, models.NotificationBidAccepted, got[0].Type)
	assert.False(t, got[0].IsRead)
	assert.JSONEq(t, `{"bid_id":5,"job_id":0,"student_id":0}`, string(got[0].Payload))
}
