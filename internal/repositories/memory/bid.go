package memory

import (
	"context"
	"time"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
)

type bidRepository struct {
	*repository
}

func (r *bidRepository) Create(ctx context.Context, bid *models.JobBid) error {
	defer r.write()()

	db := r.db()
	db.bidSeq++
	bid.ID = db.bidSeq
	bid.CreatedAt = r.s.now()
	bid.Status = models.BidPending
	db.bids[bid.ID] = cloneBid(bid)
	return nil
}

func (r *bidRepository) GetByID(ctx context.Context, id uint) (*models.JobBid, error) {
	defer r.read()()

	if b, ok := r.db().bids[id]; ok {
		return cloneBid(b), nil
	}
	return nil, nil
}

func (r *bidRepository) Update(ctx context.Context, id uint, upd models.BidUpdate) (*models.JobBid, error) {
	defer r.write()()

	b, ok := r.db().bids[id]
	if !ok {
		return nil, nil
	}
	upd.Apply(b)
	return cloneBid(b), nil
}

func (r *bidRepository) filter(match func(*models.JobBid) bool) []*models.JobBid {
	out := make([]*models.JobBid, 0)
	for _, b := range r.db().bids {
		if match(b) {
			out = append(out, cloneBid(b))
		}
	}
	newestFirst(out, func(b *models.JobBid) time.Time { return b.CreatedAt }, func(b *models.JobBid) uint { return b.ID })
	return out
}

func (r *bidRepository) GetByJob(ctx context.Context, jobID uint) ([]*models.JobBid, error) {
	defer r.read()()
	return r.filter(func(b *models.JobBid) bool { return b.JobID == jobID }), nil
}

func (r *bidRepository) GetByTutor(ctx context.Context, tutorID uint) ([]*models.JobBid, error) {
	defer r.read()()
	return r.filter(func(b *models.JobBid) bool { return b.TutorID == tutorID }), nil
}

func (r *bidRepository) GetByJobAndTutor(ctx context.Context, jobID, tutorID uint) (*models.JobBid, error) {
	defer r.read()()

	for _, b := range r.db().bids {
		if b.JobID == jobID && b.TutorID == tutorID {
			return cloneBid(b), nil
		}
	}
	return nil, nil
}

func (r *bidRepository) DeleteByJobs(ctx context.Context, jobIDs []uint) error {
	if len(jobIDs) == 0 {
		return nil
	}
	defer r.write()()

	set := make(map[uint]struct{}, len(jobIDs))
	for _, id := range jobIDs {
		set[id] = struct{}{}
	}
	db := r.db()
	for id, b := range db.bids {
		if _, ok := set[b.JobID]; ok {
			delete(db.bids, id)
		}
	}
	return nil
}

func (r *bidRepository) DeleteByTutor(ctx context.Context, tutorID uint) error {
	defer r.write()()

	db := r.db()
	for id, b := range db.bids {
		if b.TutorID == tutorID {
			delete(db.bids, id)
		}
	}
	return nil
}
