package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
)

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) repositories.JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(ctx context.Context, job *models.Job) error {
	job.Status = models.JobOpen
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return handleDBError(err, "create job")
	}
	return nil
}

func (r *jobRepository) GetByID(ctx context.Context, id uint) (*models.Job, error) {
	var job models.Job
	if err := r.db.WithContext(ctx).First(&job, id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, handleDBError(err, "get job by id")
	}
	return &job, nil
}

func (r *jobRepository) Update(ctx context.Context, id uint, upd models.JobUpdate) (*models.Job, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil || existing == nil {
		return nil, err
	}

	cols := upd.Columns()
	if len(cols) > 0 {
		cols["updated_at"] = time.Now()
		if err := r.db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return nil, handleDBError(err, "update job")
		}
	}
	return r.GetByID(ctx, id)
}

func (r *jobRepository) List(ctx context.Context, filters repositories.JobFilters) ([]*models.Job, error) {
	query := r.db.WithContext(ctx).Model(&models.Job{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}

	var jobs []*models.Job
	if err := newestFirst(query).Find(&jobs).Error; err != nil {
		return nil, handleDBError(err, "list jobs")
	}
	return jobs, nil
}

func (r *jobRepository) GetOpen(ctx context.Context) ([]*models.Job, error) {
	status := models.JobOpen
	return r.List(ctx, repositories.JobFilters{Status: &status})
}

func (r *jobRepository) GetByStudent(ctx context.Context, studentID uint) ([]*models.Job, error) {
	return r.List(ctx, repositories.JobFilters{StudentID: &studentID})
}

func (r *jobRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.Job, error) {
	out := make(map[uint]*models.Job, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var jobs []*models.Job
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&jobs).Error; err != nil {
		return nil, handleDBError(err, "get jobs by ids")
	}
	for _, j := range jobs {
		out[j.ID] = j
	}
	return out, nil
}

func (r *jobRepository) DeleteByStudent(ctx context.Context, studentID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Job{}).Where("student_id = ?", studentID).Pluck("id", &ids).Error; err != nil {
		return nil, handleDBError(err, "find student jobs")
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Job{}).Error; err != nil {
		return nil, handleDBError(err, "delete student jobs")
	}
	return ids, nil
}
