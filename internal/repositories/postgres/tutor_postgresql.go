package postgres

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
)

type tutorProfileRepository struct {
	db *gorm.DB
}

func NewTutorProfileRepository(db *gorm.DB) repositories.TutorProfileRepository {
	return &tutorProfileRepository{db: db}
}

func (r *tutorProfileRepository) Create(ctx context.Context, profile *models.TutorProfile) error {
	profile.ApprovalStatus = models.ApprovalPending
	profile.AverageRating = 0
	profile.TotalReviews = 0
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return handleDBError(err, "create tutor profile")
	}
	return nil
}

func (r *tutorProfileRepository) first(ctx context.Context, op, query string, args ...interface{}) (*models.TutorProfile, error) {
	var profile models.TutorProfile
	if err := r.db.WithContext(ctx).Where(query, args...).First(&profile).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, handleDBError(err, op)
	}
	return &profile, nil
}

func (r *tutorProfileRepository) GetByID(ctx context.Context, id uint) (*models.TutorProfile, error) {
	return r.first(ctx, "get tutor profile by id", "id = ?", id)
}

func (r *tutorProfileRepository) GetByUserID(ctx context.Context, userID uint) (*models.TutorProfile, error) {
	return r.first(ctx, "get tutor profile by user", "user_id = ?", userID)
}

func (r *tutorProfileRepository) Update(ctx context.Context, id uint, upd models.TutorProfileUpdate) (*models.TutorProfile, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil || existing == nil {
		return nil, err
	}

	cols := upd.Columns()
	if len(cols) > 0 {
		cols["updated_at"] = time.Now()
		if err := r.db.WithContext(ctx).Model(&models.TutorProfile{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return nil, handleDBError(err, "update tutor profile")
		}
	}
	return r.GetByID(ctx, id)
}

func (r *tutorProfileRepository) List(ctx context.Context, filters repositories.TutorFilters) ([]*models.TutorProfile, error) {
	query := r.db.WithContext(ctx).Model(&models.TutorProfile{})
	if filters.ApprovalStatus != nil {
		query = query.Where("approval_status = ?", *filters.ApprovalStatus)
	}
	if filters.Subject != "" {
		// Coarse match in SQL, exact list membership checked below.
		query = query.Where("LOWER(subjects) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(filters.Subject))+"%")
	}

	var profiles []*models.TutorProfile
	if err := newestFirst(query).Find(&profiles).Error; err != nil {
		return nil, handleDBError(err, "list tutor profiles")
	}

	if filters.Subject == "" {
		return profiles, nil
	}
	out := profiles[:0]
	for _, p := range profiles {
		if models.HasSubject(p.Subjects, filters.Subject) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *tutorProfileRepository) RecomputeRating(ctx context.Context, tutorID uint) error {
	return recomputeRating(ctx, r.db, tutorID)
}

func (r *tutorProfileRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.TutorProfile{}).Error; err != nil {
		return handleDBError(err, "delete tutor profile")
	}
	return nil
}

// recomputeRating re-reads every review of the tutor and writes the mean and
// count onto the profile.
func recomputeRating(ctx context.Context, db *gorm.DB, tutorID uint) error {
	var reviews []*models.Review
	if err := db.WithContext(ctx).Select("rating").Where("tutor_id = ?", tutorID).Find(&reviews).Error; err != nil {
		return handleDBError(err, "load reviews for rating")
	}
	avg, count := models.AverageRating(reviews)

	err := db.WithContext(ctx).Model(&models.TutorProfile{}).
		Where("user_id = ?", tutorID).
		Updates(map[string]interface{}{
			"average_rating": avg,
			"total_reviews":  count,
			"updated_at":     time.Now(),
		}).Error
	if err != nil {
		return handleDBError(err, "update tutor rating")
	}
	return nil
}
