package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
)

type bidRepository struct {
	db *gorm.DB
}

func NewBidRepository(db *gorm.DB) repositories.BidRepository {
	return &bidRepository{db: db}
}

func (r *bidRepository) Create(ctx context.Context, bid *models.JobBid) error {
	bid.Status = models.BidPending
	if err := r.db.WithContext(ctx).Create(bid).Error; err != nil {
		return handleDBError(err, "create bid")
	}
	return nil
}

func (r *bidRepository) GetByID(ctx context.Context, id uint) (*models.JobBid, error) {
	var bid models.JobBid
	if err := r.db.WithContext(ctx).First(&bid, id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, handleDBError(err, "get bid by id")
	}
	return &bid, nil
}

func (r *bidRepository) Update(ctx context.Context, id uint, upd models.BidUpdate) (*models.JobBid, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil || existing == nil {
		return nil, err
	}

	if cols := upd.Columns(); len(cols) > 0 {
		if err := r.db.WithContext(ctx).Model(&models.JobBid{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return nil, handleDBError(err, "update bid")
		}
	}
	return r.GetByID(ctx, id)
}

func (r *bidRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]*models.JobBid, error) {
	var bids []*models.JobBid
	if err := newestFirst(r.db.WithContext(ctx).Where(query, args...)).Find(&bids).Error; err != nil {
		return nil, handleDBError(err, op)
	}
	return bids, nil
}

func (r *bidRepository) GetByJob(ctx context.Context, jobID uint) ([]*models.JobBid, error) {
	return r.list(ctx, "get bids by job", "job_id = ?", jobID)
}

func (r *bidRepository) GetByTutor(ctx context.Context, tutorID uint) ([]*models.JobBid, error) {
	return r.list(ctx, "get bids by tutor", "tutor_id = ?", tutorID)
}

func (r *bidRepository) GetByJobAndTutor(ctx context.Context, jobID, tutorID uint) (*models.JobBid, error) {
	var bid models.JobBid
	err := r.db.WithContext(ctx).Where("job_id = ? AND tutor_id = ?", jobID, tutorID).First(&bid).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, handleDBError(err, "get bid by job and tutor")
	}
	return &bid, nil
}

func (r *bidRepository) DeleteByJobs(ctx context.Context, jobIDs []uint) error {
	if len(jobIDs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Where("job_id IN ?", jobIDs).Delete(&models.JobBid{}).Error; err != nil {
		return handleDBError(err, "delete bids by jobs")
	}
	return nil
}

func (r *bidRepository) DeleteByTutor(ctx context.Context, tutorID uint) error {
	if err := r.db.WithContext(ctx).Where("tutor_id = ?", tutorID).Delete(&models.JobBid{}).Error; err != nil {
		return handleDBError(err, "delete bids by tutor")
	}
	return nil
}
