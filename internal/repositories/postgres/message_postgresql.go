package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
)

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) repositories.MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	msg.IsRead = false
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return handleDBError(err, "create message")
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	if err := r.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, handleDBError(err, "get message by id")
	}
	return &msg, nil
}

func (r *messageRepository) GetBetweenUsers(ctx context.Context, userA, userB uint) ([]*models.Message, error) {
	var msgs []*models.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userA, userB, userB, userA).
		Order("created_at ASC").Order("id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, handleDBError(err, "get messages between users")
	}
	return msgs, nil
}

func (r *messageRepository) GetConversations(ctx context.Context, userID uint) ([]*models.ConversationSummary, error) {
	var msgs []*models.Message
	err := r.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Find(&msgs).Error
	if err != nil {
		return nil, handleDBError(err, "get user conversations")
	}
	return repositories.SummarizeConversations(userID, msgs), nil
}

func (r *messageRepository) MarkRead(ctx context.Context, receiverID, senderID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", receiverID, senderID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, handleDBError(res.Error, "mark messages read")
	}
	return res.RowsAffected, nil
}

func (r *messageRepository) DeleteByUser(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).Where("sender_id = ? OR receiver_id = ?", userID, userID).Delete(&models.Message{}).Error
	if err != nil {
		return handleDBError(err, "delete user messages")
	}
	return nil
}
