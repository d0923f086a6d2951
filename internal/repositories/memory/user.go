package memory

import (
	"context"
	"strings"
	"time"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
)

type userRepository struct {
	*repository
}

// conflicts reports whether another user already holds username or email.
func (r *userRepository) conflicts(exclude uint, username, email string) bool {
	for _, u := range r.db().users {
		if u.ID == exclude {
			continue
		}
		if (username != "" && u.Username == username) || (email != "" && strings.EqualFold(u.Email, email)) {
			return true
		}
	}
	return false
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer r.write()()

	if r.conflicts(0, user.Username, user.Email) {
		return repositories.ErrDuplicate
	}

	db := r.db()
	db.userSeq++
	now := r.s.now()
	user.ID = db.userSeq
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Status == "" {
		user.Status = models.UserActive
	}
	db.users[user.ID] = cloneUser(user)
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	defer r.read()()

	if u, ok := r.db().users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	defer r.read()()

	for _, u := range r.db().users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	defer r.read()()

	for _, u := range r.db().users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *userRepository) Update(ctx context.Context, id uint, upd models.UserUpdate) (*models.User, error) {
	defer r.write()()

	u, ok := r.db().users[id]
	if !ok {
		return nil, nil
	}

	var username, email string
	if upd.Username != nil {
		username = *upd.Username
	}
	if upd.Email != nil {
		email = *upd.Email
	}
	if r.conflicts(id, username, email) {
		return nil, repositories.ErrDuplicate
	}

	upd.Apply(u)
	u.UpdatedAt = r.s.now()
	return cloneUser(u), nil
}

func (r *userRepository) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, error) {
	defer r.read()()

	users := make([]*models.User, 0, len(r.db().users))
	for _, u := range r.db().users {
		if filters.Role != nil && u.Role != *filters.Role {
			continue
		}
		if filters.Status != nil && u.Status != *filters.Status {
			continue
		}
		users = append(users, cloneUser(u))
	}
	newestFirst(users, func(u *models.User) time.Time { return u.CreatedAt }, func(u *models.User) uint { return u.ID })
	return users, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.User, error) {
	defer r.read()()

	out := make(map[uint]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.db().users[id]; ok {
			out[id] = cloneUser(u)
		}
	}
	return out, nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	defer r.write()()

	delete(r.db().users, id)
	return nil
}
