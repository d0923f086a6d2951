package memory

import (
	"context"
	"time"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
)

type jobRepository struct {
	*repository
}

func (r *jobRepository) Create(ctx context.Context, job *models.Job) error {
	defer r.write()()

	db := r.db()
	db.jobSeq++
	now := r.s.now()
	job.ID = db.jobSeq
	job.CreatedAt = now
	job.UpdatedAt = now
	job.Status = models.JobOpen
	db.jobs[job.ID] = cloneJob(job)
	return nil
}

func (r *jobRepository) GetByID(ctx context.Context, id uint) (*models.Job, error) {
	defer r.read()()

	if j, ok := r.db().jobs[id]; ok {
		return cloneJob(j), nil
	}
	return nil, nil
}

func (r *jobRepository) Update(ctx context.Context, id uint, upd models.JobUpdate) (*models.Job, error) {
	defer r.write()()

	j, ok := r.db().jobs[id]
	if !ok {
		return nil, nil
	}
	upd.Apply(j)
	j.UpdatedAt = r.s.now()
	return cloneJob(j), nil
}

func (r *jobRepository) List(ctx context.Context, filters repositories.JobFilters) ([]*models.Job, error) {
	defer r.read()()

	out := make([]*models.Job, 0)
	for _, j := range r.db().jobs {
		if filters.Status != nil && j.Status != *filters.Status {
			continue
		}
		if filters.StudentID != nil && j.StudentID != *filters.StudentID {
			continue
		}
		out = append(out, cloneJob(j))
	}
	newestFirst(out, func(j *models.Job) time.Time { return j.CreatedAt }, func(j *models.Job) uint { return j.ID })
	return out, nil
}

func (r *jobRepository) GetOpen(ctx context.Context) ([]*models.Job, error) {
	status := models.JobOpen
	return r.List(ctx, repositories.JobFilters{Status: &status})
}

func (r *jobRepository) GetByStudent(ctx context.Context, studentID uint) ([]*models.Job, error) {
	return r.List(ctx, repositories.JobFilters{StudentID: &studentID})
}

func (r *jobRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.Job, error) {
	defer r.read()()

	out := make(map[uint]*models.Job, len(ids))
	for _, id := range ids {
		if j, ok := r.db().jobs[id]; ok {
			out[id] = cloneJob(j)
		}
	}
	return out, nil
}

func (r *jobRepository) DeleteByStudent(ctx context.Context, studentID uint) ([]uint, error) {
	defer r.write()()

	var ids []uint
	db := r.db()
	for id, j := range db.jobs {
		if j.StudentID == studentID {
			ids = append(ids, id)
			delete(db.jobs, id)
		}
	}
	return ids, nil
}
