package memory

import (
	"context"
	"time"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
)

type notificationRepository struct {
	*repository
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	defer r.write()()

	db := r.db()
	db.notificationSeq++
	n.ID = db.notificationSeq
	n.CreatedAt = r.s.now()
	n.IsRead = false
	db.notifications[n.ID] = cloneNotification(n)
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	defer r.read()()

	if n, ok := r.db().notifications[id]; ok {
		return cloneNotification(n), nil
	}
	return nil, nil
}

func (r *notificationRepository) GetByUser(ctx context.Context, userID uint, unreadOnly bool) ([]*models.Notification, error) {
	defer r.read()()

	out := make([]*models.Notification, 0)
	for _, n := range r.db().notifications {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, cloneNotification(n))
	}
	newestFirst(out, func(n *models.Notification) time.Time { return n.CreatedAt }, func(n *models.Notification) uint { return n.ID })
	return out, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uint) error {
	defer r.write()()

	if n, ok := r.db().notifications[id]; ok {
		n.IsRead = true
	}
	return nil
}

func (r *notificationRepository) DeleteByUser(ctx context.Context, userID uint) error {
	defer r.write()()

	db := r.db()
	for id, n := range db.notifications {
		if n.UserID == userID {
			delete(db.notifications, id)
		}
	}
	return nil
}
