package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/events"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/metrics"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/validator"
)

type jobService struct {
	repo      repositories.Repository
	events    events.EventPublisher
	logger    *slog.Logger
	validator *validator.BusinessValidator
}

func NewJobService(deps *Dependencies) JobService {
	return &jobService{
		repo:      deps.Repo,
		events:    deps.Events,
		logger:    deps.Logger,
		validator: validator.NewBusinessValidator(deps.Validator),
	}
}

// ===== JOBS =====

func (s *jobService) List(ctx context.Context, params models.ListJobsParams) ([]*models.JobView, error) {
	var filters repositories.JobFilters
	if params.Status != "" {
		if !params.Status.IsValid() {
			return nil, ErrInvalidStatus
		}
		filters.Status = &params.Status
	}

	jobs, err := s.repo.Job().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return s.jobViews(ctx, jobs)
}

func (s *jobService) GetDetail(ctx context.Context, jobID uint) (*models.JobDetail, error) {
	job, err := s.getJob(ctx, s.repo, jobID)
	if err != nil {
		return nil, err
	}

	bids, err := s.repo.Bid().GetByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bids: %w", err)
	}
	ids := []uint{job.StudentID}
	for _, b := range bids {
		ids = append(ids, b.TutorID)
	}
	users, err := loadUsers(ctx, s.repo, ids)
	if err != nil {
		return nil, err
	}

	detail := &models.JobDetail{
		JobView: models.NewJobView(job, users[job.StudentID]),
		Bids:    make([]*models.BidView, 0, len(bids)),
	}
	for _, b := range bids {
		detail.Bids = append(detail.Bids, &models.BidView{JobBid: b, Tutor: users[b.TutorID].Public()})
	}
	return detail, nil
}

func (s *jobService) Create(ctx context.Context, studentID uint, req *models.JobCreateRequest) (*models.JobView, error) {
	s.logger.Info("Creating job", "student_id", studentID, "title", req.Title)

	if err := s.validator.ValidateJobCreate(req); err != nil {
		return nil, err
	}
	student, err := requireUser(ctx, s.repo, studentID)
	if err != nil {
		return nil, err
	}

	job := &models.Job{
		StudentID:    studentID,
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		Subjects:     models.JoinSubjects(append([]string{req.Subjects}, req.SubjectList...)),
		Location:     strings.TrimSpace(req.Location),
		HoursPerWeek: req.HoursPerWeek,
		Budget:       strings.TrimSpace(req.Budget),
	}
	if err := s.repo.Job().Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.logger.Info("Job created successfully", "job_id", job.ID)
	return models.NewJobView(job, student), nil
}

func (s *jobService) UpdateStatus(ctx context.Context, jobID, studentID uint, req *models.JobStatusRequest) (*models.JobView, error) {
	s.logger.Info("Updating job status", "job_id", jobID, "student_id", studentID, "status", req.Status)

	job, err := s.getJob(ctx, s.repo, jobID)
	if err != nil {
		return nil, err
	}
	if job.StudentID != studentID {
		return nil, NewPermissionError(studentID, jobID, "job", "update", "not the job owner")
	}
	if !req.Status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if !validator.CanTransitionJob(job.Status, req.Status) {
		return nil, ErrJobStatusFinal
	}

	updated, err := s.repo.Job().Update(ctx, jobID, models.JobUpdate{Status: &req.Status})
	if err != nil {
		return nil, fmt.Errorf("failed to update job status: %w", err)
	}
	if updated == nil {
		return nil, ErrJobNotFound
	}

	student, err := s.repo.User().GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return models.NewJobView(updated, student), nil
}

func (s *jobService) ListByStudent(ctx context.Context, studentID uint) ([]*models.JobView, error) {
	jobs, err := s.repo.Job().GetByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get student jobs: %w", err)
	}
	return s.jobViews(ctx, jobs)
}

// ===== BIDS =====

func (s *jobService) CreateBid(ctx context.Context, jobID, tutorID uint, req *models.BidCreateRequest) (*models.JobBid, error) {
	s.logger.Info("Creating bid", "job_id", jobID, "tutor_id", tutorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var bid *models.JobBid
	var job *models.Job
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		if job, err = s.getJob(ctx, tx, jobID); err != nil {
			return err
		}
		if !job.IsOpen() {
			return ErrJobNotOpen
		}

		existing, err := tx.Bid().GetByJobAndTutor(ctx, jobID, tutorID)
		if err != nil {
			return fmt.Errorf("failed to check existing bid: %w", err)
		}
		if existing != nil {
			return ErrAlreadyBid
		}

		bid = &models.JobBid{
			JobID:     jobID,
			TutorID:   tutorID,
			Message:   strings.TrimSpace(req.Message),
			BidAmount: req.BidAmount,
		}
		if err := tx.Bid().Create(ctx, bid); err != nil {
			return fmt.Errorf("failed to create bid: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.BidsTotal.WithLabelValues("placed").Inc()
	s.logger.Info("Bid created successfully", "bid_id", bid.ID)

	publish(ctx, s.events, s.logger, models.NotificationBidCreated, job.StudentID,
		"New bid on your job",
		fmt.Sprintf("A tutor bid %.2f on %q.", bid.BidAmount, job.Title),
		events.BidCreatedData{BidID: bid.ID, JobID: job.ID, TutorID: tutorID, BidAmount: bid.BidAmount})
	return bid, nil
}

func (s *jobService) ListTutorBids(ctx context.Context, tutorID uint) ([]*models.BidView, error) {
	bids, err := s.repo.Bid().GetByTutor(ctx, tutorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tutor bids: %w", err)
	}
	jobIDs := make([]uint, 0, len(bids))
	for _, b := range bids {
		jobIDs = append(jobIDs, b.JobID)
	}
	jobs, err := s.repo.Job().GetByIDs(ctx, jobIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get jobs: %w", err)
	}
	studentIDs := make([]uint, 0, len(jobs))
	for _, j := range jobs {
		studentIDs = append(studentIDs, j.StudentID)
	}
	students, err := loadUsers(ctx, s.repo, studentIDs)
	if err != nil {
		return nil, err
	}

	views := make([]*models.BidView, 0, len(bids))
	for _, b := range bids {
		view := &models.BidView{JobBid: b}
		if job, ok := jobs[b.JobID]; ok {
			view.Job = models.NewJobView(job, students[job.StudentID])
		}
		views = append(views, view)
	}
	return views, nil
}

// AcceptBid marks the bid accepted and the job assigned in one transaction.
// Other bids on the job keep their status.
func (s *jobService) AcceptBid(ctx context.Context, bidID, studentID uint) (*AcceptBidResult, error) {
	s.logger.Info("Accepting bid", "bid_id", bidID, "student_id", studentID)

	var result AcceptBidResult
	var student *models.User
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		bid, err := tx.Bid().GetByID(ctx, bidID)
		if err != nil {
			return fmt.Errorf("failed to get bid: %w", err)
		}
		if bid == nil {
			return ErrBidNotFound
		}
		job, err := s.getJob(ctx, tx, bid.JobID)
		if err != nil {
			return err
		}
		if job.StudentID != studentID {
			return NewPermissionError(studentID, bidID, "bid", "accept", "not the job owner")
		}
		if bid.Status != models.BidPending {
			return ErrBidNotPending
		}
		if !job.IsOpen() {
			return ErrJobNotOpen
		}

		accepted := models.BidAccepted
		if result.Bid, err = tx.Bid().Update(ctx, bidID, models.BidUpdate{Status: &accepted}); err != nil {
			return fmt.Errorf("failed to accept bid: %w", err)
		}
		assigned := models.JobAssigned
		if job, err = tx.Job().Update(ctx, job.ID, models.JobUpdate{Status: &assigned}); err != nil {
			return fmt.Errorf("failed to assign job: %w", err)
		}
		if student, err = tx.User().GetByID(ctx, studentID); err != nil {
			return fmt.Errorf("failed to get student: %w", err)
		}
		result.Job = models.NewJobView(job, student)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.BidsTotal.WithLabelValues("accepted").Inc()
	s.logger.Info("Bid accepted", "bid_id", bidID, "job_id", result.Job.ID, "tutor_id", result.Bid.TutorID)

	publish(ctx, s.events, s.logger, models.NotificationBidAccepted, result.Bid.TutorID,
		"Your bid was accepted",
		fmt.Sprintf("Your bid on %q was accepted.", result.Job.Title),
		events.BidAcceptedData{BidID: bidID, JobID: result.Job.ID, StudentID: studentID})
	return &result, nil
}

// ===== HELPERS =====

func (s *jobService) getJob(ctx context.Context, repo repositories.Repository, jobID uint) (*models.Job, error) {
	job, err := repo.Job().GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

func (s *jobService) jobViews(ctx context.Context, jobs []*models.Job) ([]*models.JobView, error) {
	ids := make([]uint, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.StudentID)
	}
	students, err := loadUsers(ctx, s.repo, ids)
	if err != nil {
		return nil, err
	}
	views := make([]*models.JobView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, models.NewJobView(j, students[j.StudentID]))
	}
	return views, nil
}
