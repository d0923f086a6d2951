package models

import "time"

type Message struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	SenderID   uint   `json:"sender_id" gorm:"not null;index"`
	ReceiverID uint   `json:"receiver_id" gorm:"not null;index"`
	Content    string `json:"content" gorm:"type:text;not null"`
	IsRead     bool   `json:"is_read" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}

// Counterpart returns the other participant from userID's point of view.
func (m *Message) Counterpart(userID uint) uint {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// ConversationSummary is derived from messages, never stored.
type ConversationSummary struct {
	UserID        uint      `json:"user_id"`
	UnreadCount   int       `json:"unread_count"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
}

type Conversation struct {
	ConversationSummary
	User *PublicUser `json:"user"`
}
