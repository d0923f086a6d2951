package memory

import (
	"context"
	"sort"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
)

type messageRepository struct {
	*repository
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	defer r.write()()

	db := r.db()
	db.messageSeq++
	msg.ID = db.messageSeq
	msg.CreatedAt = r.s.now()
	msg.IsRead = false
	db.messages[msg.ID] = cloneMessage(msg)
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	defer r.read()()

	if m, ok := r.db().messages[id]; ok {
		return cloneMessage(m), nil
	}
	return nil, nil
}

func (r *messageRepository) GetBetweenUsers(ctx context.Context, userA, userB uint) ([]*models.Message, error) {
	defer r.read()()

	out := make([]*models.Message, 0)
	for _, m := range r.db().messages {
		if (m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA) {
			out = append(out, cloneMessage(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *messageRepository) GetConversations(ctx context.Context, userID uint) ([]*models.ConversationSummary, error) {
	defer r.read()()

	var mine []*models.Message
	for _, m := range r.db().messages {
		if m.SenderID == userID || m.ReceiverID == userID {
			mine = append(mine, m)
		}
	}
	return repositories.SummarizeConversations(userID, mine), nil
}

func (r *messageRepository) MarkRead(ctx context.Context, receiverID, senderID uint) (int64, error) {
	defer r.write()()

	var n int64
	for _, m := range r.db().messages {
		if m.ReceiverID == receiverID && m.SenderID == senderID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *messageRepository) DeleteByUser(ctx context.Context, userID uint) error {
	defer r.write()()

	db := r.db()
	for id, m := range db.messages {
		if m.SenderID == userID || m.ReceiverID == userID {
			delete(db.messages, id)
		}
	}
	return nil
}
