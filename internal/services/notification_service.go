package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
)

type notificationService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewNotificationService(deps *Dependencies) NotificationService {
	return &notificationService{repo: deps.Repo, logger: deps.Logger}
}

func (s *notificationService) List(ctx context.Context, userID uint, unreadOnly bool) ([]*models.Notification, error) {
	notifications, err := s.repo.Notification().GetByUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead reports another user's notification as missing rather than forbidden.
func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID uint) (*models.Notification, error) {
	n, err := s.repo.Notification().GetByID(ctx, notificationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	if n == nil || n.UserID != userID {
		return nil, ErrNotificationNotFound
	}
	if n.IsRead {
		return n, nil
	}
	if err := s.repo.Notification().MarkRead(ctx, notificationID); err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	n.IsRead = true
	return n, nil
}
