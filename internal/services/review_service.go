package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/cache"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/events"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/metrics"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/validator"
)

type reviewService struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	events    events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewReviewService(deps *Dependencies) ReviewService {
	return &reviewService{
		repo:      deps.Repo,
		cache:     deps.Cache,
		events:    deps.Events,
		logger:    deps.Logger,
		validator: deps.Validator,
	}
}

// Create stores the review and recomputes the tutor's rating in one
// transaction.
func (s *reviewService) Create(ctx context.Context, studentID uint, req *models.ReviewCreateRequest) (*models.Review, error) {
	s.logger.Info("Creating review", "student_id", studentID, "tutor_id", req.TutorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	review := &models.Review{
		TutorID:   req.TutorID,
		StudentID: studentID,
		JobID:     req.JobID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
	}
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		tutor, err := tx.User().GetByID(ctx, req.TutorID)
		if err != nil {
			return fmt.Errorf("failed to get tutor: %w", err)
		}
		if tutor == nil {
			return ErrTutorNotFound
		}
		if tutor.Role != models.RoleTutor {
			return ErrNotATutor
		}

		if req.JobID != nil {
			job, err := tx.Job().GetByID(ctx, *req.JobID)
			if err != nil {
				return fmt.Errorf("failed to get job: %w", err)
			}
			if job == nil {
				return ErrJobNotFound
			}
			if job.StudentID != studentID {
				return NewPermissionError(studentID, job.ID, "job", "review", "not the job owner")
			}
		}

		if err := tx.Review().Create(ctx, review); err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateTutorCache(ctx, s.cache)
	metrics.ReviewsTotal.Inc()
	s.logger.Info("Review created successfully", "review_id", review.ID, "tutor_id", review.TutorID)

	publish(ctx, s.events, s.logger, models.NotificationReviewCreated, review.TutorID,
		"You received a new review",
		fmt.Sprintf("A student rated you %d out of %d.", review.Rating, models.MaxRating),
		events.ReviewCreatedData{ReviewID: review.ID, StudentID: studentID, Rating: review.Rating})
	return review, nil
}
