package memory

import (
	"context"
	"time"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
)

type reviewRepository struct {
	*repository
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	defer r.write()()

	db := r.db()
	db.reviewSeq++
	now := r.s.now()
	review.ID = db.reviewSeq
	review.CreatedAt = now
	db.reviews[review.ID] = cloneReview(review)

	recomputeRating(db, review.TutorID, now)
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	defer r.read()()

	if rv, ok := r.db().reviews[id]; ok {
		return cloneReview(rv), nil
	}
	return nil, nil
}

func (r *reviewRepository) GetByTutor(ctx context.Context, tutorID uint) ([]*models.Review, error) {
	defer r.read()()

	out := make([]*models.Review, 0)
	for _, rv := range r.db().reviews {
		if rv.TutorID == tutorID {
			out = append(out, cloneReview(rv))
		}
	}
	newestFirst(out, func(rv *models.Review) time.Time { return rv.CreatedAt }, func(rv *models.Review) uint { return rv.ID })
	return out, nil
}

func (r *reviewRepository) DeleteByUser(ctx context.Context, userID uint) ([]uint, error) {
	defer r.write()()

	affected := make(map[uint]struct{})
	db := r.db()
	for id, rv := range db.reviews {
		if rv.StudentID == userID || rv.TutorID == userID {
			if rv.TutorID != userID {
				affected[rv.TutorID] = struct{}{}
			}
			delete(db.reviews, id)
		}
	}

	tutors := make([]uint, 0, len(affected))
	for id := range affected {
		tutors = append(tutors, id)
	}
	return tutors, nil
}
