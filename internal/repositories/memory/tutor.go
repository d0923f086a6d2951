package memory

import (
	"context"
	"time"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
)

type tutorProfileRepository struct {
	*repository
}

func (r *tutorProfileRepository) Create(ctx context.Context, profile *models.TutorProfile) error {
	defer r.write()()

	db := r.db()
	if findProfile(db, profile.UserID) != nil {
		return repositories.ErrDuplicate
	}

	db.profileSeq++
	now := r.s.now()
	profile.ID = db.profileSeq
	profile.CreatedAt = now
	profile.UpdatedAt = now
	profile.ApprovalStatus = models.ApprovalPending
	profile.AverageRating = 0
	profile.TotalReviews = 0
	db.profiles[profile.ID] = cloneProfile(profile)
	return nil
}

func (r *tutorProfileRepository) GetByID(ctx context.Context, id uint) (*models.TutorProfile, error) {
	defer r.read()()

	if p, ok := r.db().profiles[id]; ok {
		return cloneProfile(p), nil
	}
	return nil, nil
}

func (r *tutorProfileRepository) GetByUserID(ctx context.Context, userID uint) (*models.TutorProfile, error) {
	defer r.read()()

	if p := findProfile(r.db(), userID); p != nil {
		return cloneProfile(p), nil
	}
	return nil, nil
}

func (r *tutorProfileRepository) Update(ctx context.Context, id uint, upd models.TutorProfileUpdate) (*models.TutorProfile, error) {
	defer r.write()()

	p, ok := r.db().profiles[id]
	if !ok {
		return nil, nil
	}
	upd.Apply(p)
	p.UpdatedAt = r.s.now()
	return cloneProfile(p), nil
}

func (r *tutorProfileRepository) List(ctx context.Context, filters repositories.TutorFilters) ([]*models.TutorProfile, error) {
	defer r.read()()

	out := make([]*models.TutorProfile, 0, len(r.db().profiles))
	for _, p := range r.db().profiles {
		if filters.ApprovalStatus != nil && p.ApprovalStatus != *filters.ApprovalStatus {
			continue
		}
		if filters.Subject != "" && !models.HasSubject(p.Subjects, filters.Subject) {
			continue
		}
		out = append(out, cloneProfile(p))
	}
	newestFirst(out, func(p *models.TutorProfile) time.Time { return p.CreatedAt }, func(p *models.TutorProfile) uint { return p.ID })
	return out, nil
}

func (r *tutorProfileRepository) RecomputeRating(ctx context.Context, tutorID uint) error {
	defer r.write()()

	recomputeRating(r.db(), tutorID, r.s.now())
	return nil
}

func (r *tutorProfileRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	defer r.write()()

	db := r.db()
	for id, p := range db.profiles {
		if p.UserID == userID {
			delete(db.profiles, id)
		}
	}
	return nil
}

func findProfile(db *tables, userID uint) *models.TutorProfile {
	for _, p := range db.profiles {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// recomputeRating must be called with the write lock held.
func recomputeRating(db *tables, tutorID uint, now time.Time) {
	p := findProfile(db, tutorID)
	if p == nil {
		return
	}
	var reviews []*models.Review
	for _, rv := range db.reviews {
		if rv.TutorID == tutorID {
			reviews = append(reviews, rv)
		}
	}
	p.AverageRating, p.TotalReviews = models.AverageRating(reviews)
	p.UpdatedAt = now
}
