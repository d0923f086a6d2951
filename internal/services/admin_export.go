package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	dateLayout      = "2006-01-02 15:04"

	sheetUsers     = "Users"
	sheetTutors    = "Tutors"
	sheetAnalytics = "Analytics"
)

// ExportUsers builds a workbook with the users, the tutor profiles and the
// analytics summary.
func (s *adminService) ExportUsers(ctx context.Context) (*Export, error) {
	s.logger.Info("Exporting users workbook")

	users, err := s.repo.User().List(ctx, repositories.UserFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	tutors, err := tutorViews(ctx, s.repo, repositories.TutorFilters{}, false)
	if err != nil {
		return nil, err
	}
	analytics, err := s.Analytics(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", sheetUsers); err != nil {
		return nil, fmt.Errorf("failed to name users sheet: %w", err)
	}
	if err := writeRows(f, sheetUsers, userRows(users)); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(sheetTutors); err != nil {
		return nil, fmt.Errorf("failed to add tutors sheet: %w", err)
	}
	if err := writeRows(f, sheetTutors, tutorRows(tutors)); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(sheetAnalytics); err != nil {
		return nil, fmt.Errorf("failed to add analytics sheet: %w", err)
	}
	if err := writeRows(f, sheetAnalytics, analyticsRows(analytics)); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return &Export{
		Filename:    fmt.Sprintf("users-%s.xlsx", analytics.GeneratedAt.Format("20060102-150405")),
		ContentType: xlsxContentType,
		Data:        buf.Bytes(),
	}, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func userRows(users []*models.User) [][]interface{} {
	rows := [][]interface{}{{"ID", "Username", "Email", "Full name", "Role", "Status", "Ban reason", "Created at"}}
	for _, u := range users {
		rows = append(rows, []interface{}{
			u.ID, u.Username, u.Email, u.FullName, string(u.Role), string(u.Status),
			derefString(u.BanReason), u.CreatedAt.UTC().Format(dateLayout),
		})
	}
	return rows
}

func tutorRows(tutors []*models.TutorView) [][]interface{} {
	rows := [][]interface{}{{"User ID", "Username", "Full name", "Subjects", "Hourly rate", "Average rating", "Total reviews", "Approval", "Rejection reason"}}
	for _, t := range tutors {
		var rate interface{} = ""
		if t.HourlyRate != nil {
			rate = *t.HourlyRate
		}
		rows = append(rows, []interface{}{
			t.UserID, t.User.Username, t.User.FullName, t.Subjects, rate,
			t.AverageRating, t.TotalReviews, string(t.ApprovalStatus), derefString(t.RejectionReason),
		})
	}
	return rows
}

func analyticsRows(a *models.Analytics) [][]interface{} {
	rows := [][]interface{}{{"Metric", "Value"}}
	add := func(metric string, value interface{}) {
		rows = append(rows, []interface{}{metric, value})
	}
	addCounts := func(prefix string, counts map[string]int64) {
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			add(prefix+k, counts[k])
		}
	}

	add("Generated at", a.GeneratedAt.Format(dateLayout))
	add("Users", a.Totals.Users)
	add("Tutor profiles", a.Totals.TutorProfiles)
	add("Jobs", a.Totals.Jobs)
	add("Bids", a.Totals.Bids)
	add("Messages", a.Totals.Messages)
	add("Reviews", a.Totals.Reviews)
	add("Average rating", a.AverageRating)
	add("Unread messages", a.UnreadMessages)
	addCounts("Users with role ", stringKeys(a.UsersByRole))
	addCounts("Users with status ", stringKeys(a.UsersByStatus))
	addCounts("Tutors ", stringKeys(a.TutorsByApproval))
	addCounts("Jobs ", stringKeys(a.JobsByStatus))
	addCounts("Bids ", stringKeys(a.BidsByStatus))
	return rows
}

func stringKeys[K ~string](m map[K]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}
