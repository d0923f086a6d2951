package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
)

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) repositories.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	n.IsRead = false
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return handleDBError(err, "create notification")
	}
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, handleDBError(err, "get notification by id")
	}
	return &n, nil
}

func (r *notificationRepository) GetByUser(ctx context.Context, userID uint, unreadOnly bool) ([]*models.Notification, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var out []*models.Notification
	if err := newestFirst(query).Find(&out).Error; err != nil {
		return nil, handleDBError(err, "get user notifications")
	}
	return out, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Update("is_read", true).Error
	if err != nil {
		return handleDBError(err, "mark notification read")
	}
	return nil
}

func (r *notificationRepository) DeleteByUser(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Notification{}).Error; err != nil {
		return handleDBError(err, "delete user notifications")
	}
	return nil
}
