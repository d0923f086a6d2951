package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/events"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/metrics"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/validator"
)

// previewLength bounds the message text copied into notifications.
const previewLength = 120

type messageService struct {
	repo      repositories.Repository
	events    events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewMessageService(deps *Dependencies) MessageService {
	return &messageService{
		repo:      deps.Repo,
		events:    deps.Events,
		logger:    deps.Logger,
		validator: deps.Validator,
	}
}

func (s *messageService) Send(ctx context.Context, senderID uint, req *models.MessageCreateRequest) (*models.Message, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.ReceiverID == senderID {
		return nil, ErrMessageToSelf
	}

	receiver, err := s.repo.User().GetByID(ctx, req.ReceiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get receiver: %w", err)
	}
	if receiver == nil {
		return nil, ErrUserNotFound
	}
	sender, err := requireUser(ctx, s.repo, senderID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiver.ID,
		Content:    req.Content,
	}
	if err := s.repo.Message().Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	metrics.MessagesTotal.Inc()
	s.logger.Debug("Message sent", "message_id", msg.ID, "sender_id", senderID, "receiver_id", receiver.ID)

	publish(ctx, s.events, s.logger, models.NotificationMessageSent, receiver.ID,
		fmt.Sprintf("New message from %s", sender.FullName),
		preview(msg.Content),
		events.MessageSentData{MessageID: msg.ID, SenderID: senderID})
	return msg, nil
}

func (s *messageService) Thread(ctx context.Context, userID, otherID uint) ([]*models.Message, error) {
	if _, err := requireUser(ctx, s.repo, otherID); err != nil {
		return nil, err
	}

	if _, err := s.repo.Message().MarkRead(ctx, userID, otherID); err != nil {
		return nil, fmt.Errorf("failed to mark messages read: %w", err)
	}
	messages, err := s.repo.Message().GetBetweenUsers(ctx, userID, otherID)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return messages, nil
}

// Conversations joins the summaries with the counterparts' public profiles.
// Storage already orders them latest conversation first.
func (s *messageService) Conversations(ctx context.Context, userID uint) ([]*models.Conversation, error) {
	summaries, err := s.repo.Message().GetConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversations: %w", err)
	}
	ids := make([]uint, 0, len(summaries))
	for _, cs := range summaries {
		ids = append(ids, cs.UserID)
	}
	users, err := loadUsers(ctx, s.repo, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Conversation, 0, len(summaries))
	for _, cs := range summaries {
		out = append(out, &models.Conversation{ConversationSummary: *cs, User: users[cs.UserID].Public()})
	}
	return out, nil
}

func preview(content string) string {
	r := []rune(content)
	if len(r) <= previewLength {
		return content
	}
	return string(r[:previewLength]) + "..."
}
