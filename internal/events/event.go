package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
)

const (
	EventSource  = "tutoring-marketplace"
	EventVersion = "1.0"
)

// Topics lists every topic the service publishes; one per event type.
var Topics = []models.NotificationType{
	models.NotificationBidCreated,
	models.NotificationBidAccepted,
	models.NotificationMessageSent,
	models.NotificationReviewCreated,
	models.NotificationTutorApproval,
	models.NotificationAccountStatus,
}

// Event is the envelope carried in every message payload. RecipientID is the
// user the resulting notification belongs to.
type Event struct {
	ID          string                  `json:"id"`
	Type        models.NotificationType `json:"type"`
	Source      string                  `json:"source"`
	Version     string                  `json:"version"`
	Timestamp   time.Time               `json:"timestamp"`
	RecipientID uint                    `json:"recipient_id"`
	Title       string                  `json:"title"`
	Body        string                  `json:"body"`
	Data        json.RawMessage         `json:"data,omitempty"`
}

// NewEvent builds an envelope; data is marshalled into Data.
func NewEvent(eventType models.NotificationType, recipientID uint, title, body string, data interface{}) (*Event, error) {
	e := &Event{
		ID:          watermill.NewUUID(),
		Type:        eventType,
		Source:      EventSource,
		Version:     EventVersion,
		Timestamp:   time.Now().UTC(),
		RecipientID: recipientID,
		Title:       title,
		Body:        body,
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal event data: %w", err)
		}
		e.Data = raw
	}
	return e, nil
}

// Notification converts the event into the record the consumer stores.
func (e *Event) Notification() *models.Notification {
	n := &models.Notification{
		UserID: e.RecipientID,
		Type:   e.Type,
		Title:  e.Title,
		Body:   e.Body,
	}
	if len(e.Data) > 0 {
		n.Payload = append([]byte(nil), e.Data...)
	}
	return n
}

type BidCreatedData struct {
	BidID     uint    `json:"bid_id"`
	JobID     uint    `json:"job_id"`
	TutorID   uint    `json:"tutor_id"`
	BidAmount float64 `json:"bid_amount"`
}

type BidAcceptedData struct {
	BidID     uint `json:"bid_id"`
	JobID     uint `json:"job_id"`
	StudentID uint `json:"student_id"`
}

type MessageSentData struct {
	MessageID uint `json:"message_id"`
	SenderID  uint `json:"sender_id"`
}

type ReviewCreatedData struct {
	ReviewID  uint `json:"review_id"`
	StudentID uint `json:"student_id"`
	Rating    int  `json:"rating"`
}

type TutorApprovalData struct {
	Status          models.ApprovalStatus `json:"status"`
	RejectionReason *string               `json:"rejection_reason,omitempty"`
}

type UserStatusData struct {
	Status    models.UserStatus `json:"status"`
	BanReason *string           `json:"ban_reason,omitempty"`
}
