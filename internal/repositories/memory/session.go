package memory

import (
	"context"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
)

type sessionRepository struct {
	*repository
}

func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	defer r.write()()

	if session.CreatedAt.IsZero() {
		session.CreatedAt = r.s.now()
	}
	s := *session
	r.db().sessions[session.ID] = &s
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	defer r.read()()

	s, ok := r.db().sessions[id]
	if !ok || s.Expired(r.s.now()) {
		return nil, nil
	}
	c := *s
	return &c, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	defer r.write()()

	delete(r.db().sessions, id)
	return nil
}

func (r *sessionRepository) DeleteByUser(ctx context.Context, userID uint) error {
	defer r.write()()

	db := r.db()
	for id, s := range db.sessions {
		if s.UserID == userID {
			delete(db.sessions, id)
		}
	}
	return nil
}

func (r *sessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	defer r.write()()

	var n int64
	now := r.s.now()
	db := r.db()
	for id, s := range db.sessions {
		if s.Expired(now) {
			delete(db.sessions, id)
			n++
		}
	}
	return n, nil
}
