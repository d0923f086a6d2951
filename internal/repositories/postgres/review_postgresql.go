package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
)

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) repositories.ReviewRepository {
	return &reviewRepository{db: db}
}

// Create inserts the review and recomputes the tutor rating on the same
// handle, so both land in the caller's transaction when there is one.
func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return handleDBError(err, "create review")
	}
	return recomputeRating(ctx, r.db, review.TutorID)
}

func (r *reviewRepository) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, handleDBError(err, "get review by id")
	}
	return &review, nil
}

func (r *reviewRepository) GetByTutor(ctx context.Context, tutorID uint) ([]*models.Review, error) {
	var reviews []*models.Review
	if err := newestFirst(r.db.WithContext(ctx).Where("tutor_id = ?", tutorID)).Find(&reviews).Error; err != nil {
		return nil, handleDBError(err, "get reviews by tutor")
	}
	return reviews, nil
}

func (r *reviewRepository) DeleteByUser(ctx context.Context, userID uint) ([]uint, error) {
	var tutors []uint
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("student_id = ? AND tutor_id <> ?", userID, userID).
		Distinct().Pluck("tutor_id", &tutors).Error
	if err != nil {
		return nil, handleDBError(err, "find reviewed tutors")
	}

	err = r.db.WithContext(ctx).Where("student_id = ? OR tutor_id = ?", userID, userID).Delete(&models.Review{}).Error
	if err != nil {
		return nil, handleDBError(err, "delete user reviews")
	}
	return tutors, nil
}
