package memory

import (
	"context"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
)

type statsRepository struct {
	*repository
}

func (r *statsRepository) CountUsersByRole(ctx context.Context) (map[models.UserRole]int64, error) {
	defer r.read()()

	out := make(map[models.UserRole]int64)
	for _, u := range r.db().users {
		out[u.Role]++
	}
	return out, nil
}

func (r *statsRepository) CountUsersByStatus(ctx context.Context) (map[models.UserStatus]int64, error) {
	defer r.read()()

	out := make(map[models.UserStatus]int64)
	for _, u := range r.db().users {
		out[u.Status]++
	}
	return out, nil
}

func (r *statsRepository) CountTutorsByApproval(ctx context.Context) (map[models.ApprovalStatus]int64, error) {
	defer r.read()()

	out := make(map[models.ApprovalStatus]int64)
	for _, p := range r.db().profiles {
		out[p.ApprovalStatus]++
	}
	return out, nil
}

func (r *statsRepository) CountJobsByStatus(ctx context.Context) (map[models.JobStatus]int64, error) {
	defer r.read()()

	out := make(map[models.JobStatus]int64)
	for _, j := range r.db().jobs {
		out[j.Status]++
	}
	return out, nil
}

func (r *statsRepository) CountBidsByStatus(ctx context.Context) (map[models.BidStatus]int64, error) {
	defer r.read()()

	out := make(map[models.BidStatus]int64)
	for _, b := range r.db().bids {
		out[b.Status]++
	}
	return out, nil
}

func (r *statsRepository) Totals(ctx context.Context) (*models.EntityTotals, error) {
	defer r.read()()

	db := r.db()
	return &models.EntityTotals{
		Users:         int64(len(db.users)),
		TutorProfiles: int64(len(db.profiles)),
		Jobs:          int64(len(db.jobs)),
		Bids:          int64(len(db.bids)),
		Messages:      int64(len(db.messages)),
		Reviews:       int64(len(db.reviews)),
	}, nil
}

func (r *statsRepository) AverageRating(ctx context.Context) (float64, error) {
	defer r.read()()

	reviews := make([]*models.Review, 0, len(r.db().reviews))
	for _, rv := range r.db().reviews {
		reviews = append(reviews, rv)
	}
	avg, _ := models.AverageRating(reviews)
	return avg, nil
}

func (r *statsRepository) CountUnreadMessages(ctx context.Context) (int64, error) {
	defer r.read()()

	var n int64
	for _, m := range r.db().messages {
		if !m.IsRead {
			n++
		}
	}
	return n, nil
}
