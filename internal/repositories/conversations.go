package repositories

import (
	"sort"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
)

// SummarizeConversations groups userID's messages by counterpart. Unread counts
// only messages the counterpart sent to userID. Summaries are ordered by their
// latest message, newest first.
func SummarizeConversations(userID uint, messages []*models.Message) []*models.ConversationSummary {
	byCounterpart := make(map[uint]*models.ConversationSummary)
	lastID := make(map[uint]uint)

	for _, m := range messages {
		if m.SenderID != userID && m.ReceiverID != userID {
			continue
		}
		other := m.Counterpart(userID)
		s, seen := byCounterpart[other]
		if !seen {
			s = &models.ConversationSummary{UserID: other}
			byCounterpart[other] = s
		}
		if m.SenderID == other && m.ReceiverID == userID && !m.IsRead {
			s.UnreadCount++
		}
		if !seen || m.CreatedAt.After(s.LastMessageAt) || (m.CreatedAt.Equal(s.LastMessageAt) && m.ID > lastID[other]) {
			s.LastMessage = m.Content
			s.LastMessageAt = m.CreatedAt
			lastID[other] = m.ID
		}
	}

	out := make([]*models.ConversationSummary, 0, len(byCounterpart))
	for _, s := range byCounterpart {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastMessageAt.Equal(out[j].LastMessageAt) {
			return out[i].LastMessageAt.After(out[j].LastMessageAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}
