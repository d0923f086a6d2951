package events

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
)

// NotificationConsumer stores one notification per consumed event.
type NotificationConsumer struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewNotificationConsumer(repo repositories.Repository, logger *slog.Logger) *NotificationConsumer {
	return &NotificationConsumer{repo: repo, logger: logger}
}

func (c *NotificationConsumer) Handle(msg *message.Message) error {
	var event Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		// Malformed payloads would be redelivered forever; drop them.
		c.logger.Error("Dropping malformed event", "message_uuid", msg.UUID, "error", err)
		return nil
	}
	if event.RecipientID == 0 {
		c.logger.Warn("Dropping event without recipient", "event_id", event.ID, "type", event.Type)
		return nil
	}

	ctx := msg.Context()
	user, err := c.repo.User().GetByID(ctx, event.RecipientID)
	if err != nil {
		return err
	}
	if user == nil {
		c.logger.Debug("Recipient no longer exists", "event_id", event.ID, "recipient_id", event.RecipientID)
		return nil
	}

	if err := c.repo.Notification().Create(ctx, event.Notification()); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

// NewRouter subscribes the consumer to every topic.
func NewRouter(subscriber message.Subscriber, consumer *NotificationConsumer, logger *slog.Logger) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create event router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)

	for _, topic := range Topics {
		router.AddNoPublisherHandler(
			"notifications."+string(topic),
			string(topic),
			subscriber,
			consumer.Handle,
		)
	}
	return router, nil
}
