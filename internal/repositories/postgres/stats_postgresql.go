package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
)

type statsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) repositories.StatsRepository {
	return &statsRepository{db: db}
}

type groupCount struct {
	GroupKey string
	Total    int64
}

func (r *statsRepository) groupBy(ctx context.Context, model interface{}, column string) ([]groupCount, error) {
	var rows []groupCount
	err := r.db.WithContext(ctx).Model(model).
		Select(column + " AS group_key, COUNT(*) AS total").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, handleDBError(err, "count by "+column)
	}
	return rows, nil
}

func (r *statsRepository) CountUsersByRole(ctx context.Context) (map[models.UserRole]int64, error) {
	rows, err := r.groupBy(ctx, &models.User{}, "role")
	if err != nil {
		return nil, err
	}
	out := make(map[models.UserRole]int64, len(rows))
	for _, row := range rows {
		out[models.UserRole(row.GroupKey)] = row.Total
	}
	return out, nil
}

func (r *statsRepository) CountUsersByStatus(ctx context.Context) (map[models.UserStatus]int64, error) {
	rows, err := r.groupBy(ctx, &models.User{}, "status")
	if err != nil {
		return nil, err
	}
	out := make(map[models.UserStatus]int64, len(rows))
	for _, row := range rows {
		out[models.UserStatus(row.GroupKey)] = row.Total
	}
	return out, nil
}

func (r *statsRepository) CountTutorsByApproval(ctx context.Context) (map[models.ApprovalStatus]int64, error) {
	rows, err := r.groupBy(ctx, &models.TutorProfile{}, "approval_status")
	if err != nil {
		return nil, err
	}
	out := make(map[models.ApprovalStatus]int64, len(rows))
	for _, row := range rows {
		out[models.ApprovalStatus(row.GroupKey)] = row.Total
	}
	return out, nil
}

func (r *statsRepository) CountJobsByStatus(ctx context.Context) (map[models.JobStatus]int64, error) {
	rows, err := r.groupBy(ctx, &models.Job{}, "status")
	if err != nil {
		return nil, err
	}
	out := make(map[models.JobStatus]int64, len(rows))
	for _, row := range rows {
		out[models.JobStatus(row.GroupKey)] = row.Total
	}
	return out, nil
}

func (r *statsRepository) CountBidsByStatus(ctx context.Context) (map[models.BidStatus]int64, error) {
	rows, err := r.groupBy(ctx, &models.JobBid{}, "status")
	if err != nil {
		return nil, err
	}
	out := make(map[models.BidStatus]int64, len(rows))
	for _, row := range rows {
		out[models.BidStatus(row.GroupKey)] = row.Total
	}
	return out, nil
}

func (r *statsRepository) Totals(ctx context.Context) (*models.EntityTotals, error) {
	totals := &models.EntityTotals{}
	counts := []struct {
		model interface{}
		dst   *int64
	}{
		{&models.User{}, &totals.Users},
		{&models.TutorProfile{}, &totals.TutorProfiles},
		{&models.Job{}, &totals.Jobs},
		{&models.JobBid{}, &totals.Bids},
		{&models.Message{}, &totals.Messages},
		{&models.Review{}, &totals.Reviews},
	}
	for _, c := range counts {
		if err := r.db.WithContext(ctx).Model(c.model).Count(c.dst).Error; err != nil {
			return nil, handleDBError(err, "count totals")
		}
	}
	return totals, nil
}

func (r *statsRepository) AverageRating(ctx context.Context) (float64, error) {
	var avg float64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0)").
		Scan(&avg).Error
	if err != nil {
		return 0, handleDBError(err, "average rating")
	}
	return avg, nil
}

func (r *statsRepository) CountUnreadMessages(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Message{}).Where("is_read = ?", false).Count(&n).Error; err != nil {
		return 0, handleDBError(err, "count unread messages")
	}
	return n, nil
}
