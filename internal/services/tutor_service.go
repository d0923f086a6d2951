package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/cache"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/validator"
)

type tutorService struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	logger    *slog.Logger
	validator *validator.Validator
}

func NewTutorService(deps *Dependencies) TutorService {
	return &tutorService{
		repo:      deps.Repo,
		cache:     deps.Cache,
		logger:    deps.Logger,
		validator: deps.Validator,
	}
}

func (s *tutorService) List(ctx context.Context, params models.ListTutorsParams) ([]*models.TutorView, error) {
	if params.Approval != "" && !params.Approval.IsValid() {
		return nil, ErrInvalidStatus
	}
	filters := repositories.TutorFilters{Subject: strings.TrimSpace(params.Subject)}
	if params.Approval != "" {
		filters.ApprovalStatus = &params.Approval
	}

	var views []*models.TutorView
	key := cache.TutorListKey(strings.ToLower(filters.Subject), string(params.Approval))
	err := s.cache.Tutor.CacheOrExecute(ctx, key, &views, cache.TutorCacheConfig.TTL, func() (interface{}, error) {
		return tutorViews(ctx, s.repo, filters, true)
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (s *tutorService) GetDetail(ctx context.Context, userID uint) (*models.TutorDetail, error) {
	var detail models.TutorDetail
	err := s.cache.Tutor.CacheOrExecute(ctx, cache.TutorDetailKey(userID), &detail, cache.TutorCacheConfig.TTL, func() (interface{}, error) {
		return s.loadDetail(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (s *tutorService) loadDetail(ctx context.Context, userID uint) (*models.TutorDetail, error) {
	profile, err := s.repo.TutorProfile().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tutor profile: %w", err)
	}
	if profile == nil {
		return nil, ErrTutorNotFound
	}
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tutor user: %w", err)
	}
	// Profiles of users moved off the tutor role stay stored but are not public.
	if user == nil || user.Role != models.RoleTutor {
		return nil, ErrTutorNotFound
	}

	reviews, err := s.repo.Review().GetByTutor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}
	studentIDs := make([]uint, 0, len(reviews))
	for _, r := range reviews {
		studentIDs = append(studentIDs, r.StudentID)
	}
	students, err := loadUsers(ctx, s.repo, studentIDs)
	if err != nil {
		return nil, err
	}

	views := make([]*models.ReviewView, 0, len(reviews))
	for _, r := range reviews {
		views = append(views, &models.ReviewView{Review: r, Student: students[r.StudentID].Public()})
	}
	return &models.TutorDetail{TutorView: models.NewTutorView(profile, user), Reviews: views}, nil
}

func (s *tutorService) SaveProfile(ctx context.Context, userID uint, req *models.TutorProfileRequest) (*models.TutorView, bool, error) {
	s.logger.Info("Saving tutor profile", "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, false, err
	}
	user, err := requireUser(ctx, s.repo, userID)
	if err != nil {
		return nil, false, err
	}
	if user.Role != models.RoleTutor {
		return nil, false, ErrNotATutor
	}

	upd := profileUpdate(req)
	existing, err := s.repo.TutorProfile().GetByUserID(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get tutor profile: %w", err)
	}

	var saved *models.TutorProfile
	created := existing == nil
	if created {
		profile := &models.TutorProfile{UserID: userID}
		upd.Apply(profile)
		if err := s.repo.TutorProfile().Create(ctx, profile); err != nil {
			return nil, false, fmt.Errorf("failed to create tutor profile: %w", err)
		}
		saved = profile
	} else {
		// A rejected tutor who edits their profile goes back into review.
		if existing.ApprovalStatus == models.ApprovalRejected {
			pending := models.ApprovalPending
			upd.ApprovalStatus = &pending
			upd.ClearRejectionReason = true
		}
		if saved, err = s.repo.TutorProfile().Update(ctx, existing.ID, upd); err != nil {
			return nil, false, fmt.Errorf("failed to update tutor profile: %w", err)
		}
		if saved == nil {
			return nil, false, ErrTutorNotFound
		}
	}

	cache.InvalidateTutorCache(ctx, s.cache)
	s.logger.Info("Tutor profile saved", "user_id", userID, "profile_id", saved.ID, "created", created)
	return models.NewTutorView(saved, user), created, nil
}

// profileUpdate copies only the self-service fields of the request.
func profileUpdate(req *models.TutorProfileRequest) models.TutorProfileUpdate {
	upd := models.TutorProfileUpdate{
		Education:    trimmed(req.Education),
		Experience:   trimmed(req.Experience),
		Languages:    trimmed(req.Languages),
		HourlyRate:   req.HourlyRate,
		Bio:          trimmed(req.Bio),
		ProfileImage: trimmed(req.ProfileImage),
		Location:     trimmed(req.Location),
		IsOnline:     req.IsOnline,
	}
	switch {
	case len(req.SubjectList) > 0:
		subjects := models.JoinSubjects(req.SubjectList)
		upd.Subjects = &subjects
	case req.Subjects != nil:
		subjects := models.JoinSubjects([]string{*req.Subjects})
		upd.Subjects = &subjects
	}
	return upd
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// tutorViews joins profiles with their users, dropping profiles whose user is
// gone. The public directory also drops users no longer holding the tutor role.
func tutorViews(ctx context.Context, repo repositories.Repository, filters repositories.TutorFilters, public bool) ([]*models.TutorView, error) {
	profiles, err := repo.TutorProfile().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list tutor profiles: %w", err)
	}
	ids := make([]uint, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.UserID)
	}
	users, err := loadUsers(ctx, repo, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*models.TutorView, 0, len(profiles))
	for _, p := range profiles {
		u, ok := users[p.UserID]
		if !ok || (public && u.Role != models.RoleTutor) {
			continue
		}
		views = append(views, models.NewTutorView(p, u))
	}
	return views, nil
}
