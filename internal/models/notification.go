package models

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationBidCreated    NotificationType = "bid.created"
	NotificationBidAccepted   NotificationType = "bid.accepted"
	NotificationMessageSent   NotificationType = "message.sent"
	NotificationReviewCreated NotificationType = "review.created"
	NotificationTutorApproval NotificationType = "tutor.approval_changed"
	NotificationAccountStatus NotificationType = "user.status_changed"
)

type Notification struct {
	ID      uint             `json:"id" gorm:"primaryKey"`
	UserID  uint             `json:"user_id" gorm:"not null;index"`
	Type    NotificationType `json:"type" gorm:"size:50;not null;index"`
	Title   string           `json:"title" gorm:"size:255;not null"`
	Body    string           `json:"body" gorm:"type:text"`
	Payload datatypes.JSON   `json:"payload"`
	IsRead  bool             `json:"is_read" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
