package memory

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/security"
)

// DemoPassword is the password of every seeded demo account.
const DemoPassword = "password123"

type seedUser struct {
	username, email, fullName string
	role                      models.UserRole
}

var demoUsers = []seedUser{
	{"admin", "admin@tutormarket.local", "Site Admin", models.RoleAdmin},
	{"emma", "emma@example.com", "Emma Johnson", models.RoleStudent},
	{"liam", "liam@example.com", "Liam Smith", models.RoleStudent},
	{"sarah", "sarah@example.com", "Dr. Sarah Chen", models.RoleTutor},
	{"james", "james@example.com", "James Wilson", models.RoleTutor},
	{"maria", "maria@example.com", "Maria Garcia", models.RoleTutor},
}

func ptr[T any](v T) *T { return &v }

// Seed fills an empty repository with demo data. Seeding a repository that
// already has users is a no-op.
func Seed(ctx context.Context, repo repositories.Repository, hasher security.PasswordHasher) error {
	existing, err := repo.User().List(ctx, repositories.UserFilters{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	return repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		hash, err := hasher.Hash(DemoPassword)
		if err != nil {
			return err
		}

		users := make(map[string]*models.User, len(demoUsers))
		for _, su := range demoUsers {
			u := &models.User{Username: su.username, Email: su.email, FullName: su.fullName, Role: su.role, Password: hash}
			if err := tx.User().Create(ctx, u); err != nil {
				return fmt.Errorf("seed user %s: %w", su.username, err)
			}
			users[su.username] = u
		}

		profiles := []struct {
			user     string
			profile  models.TutorProfile
			approval models.ApprovalStatus
		}{
			{"sarah", models.TutorProfile{
				Education: "PhD Mathematics, MIT", Experience: "10 years teaching calculus and linear algebra",
				Languages: "English, Mandarin", HourlyRate: ptr(65.0), Subjects: "Mathematics, Calculus, Statistics",
				Bio: "Patient tutor focused on building intuition.", Location: "Boston, MA", IsOnline: true,
			}, models.ApprovalApproved},
			{"james", models.TutorProfile{
				Education: "MSc Physics, Stanford", Experience: "6 years of high school and college physics",
				Languages: "English", HourlyRate: ptr(50.0), Subjects: "Physics, Mathematics",
				Bio: "Hands-on problem solving.", Location: "Remote",
			}, models.ApprovalApproved},
			{"maria", models.TutorProfile{
				Education: "BA Spanish Literature", Experience: "3 years of conversational Spanish",
				Languages: "Spanish, English", HourlyRate: ptr(35.0), Subjects: "Spanish, Literature",
				Bio: "Native speaker, relaxed lessons.", Location: "Austin, TX",
			}, models.ApprovalPending},
		}
		for _, sp := range profiles {
			p := sp.profile
			p.UserID = users[sp.user].ID
			if err := tx.TutorProfile().Create(ctx, &p); err != nil {
				return fmt.Errorf("seed profile %s: %w", sp.user, err)
			}
			if sp.approval != models.ApprovalPending {
				if _, err := tx.TutorProfile().Update(ctx, p.ID, models.TutorProfileUpdate{ApprovalStatus: ptr(sp.approval)}); err != nil {
					return err
				}
			}
		}

		calculus := &models.Job{
			StudentID: users["emma"].ID, Title: "Calculus II help before finals",
			Description: "Need weekly sessions on integration techniques and series.",
			Subjects:    "Mathematics, Calculus", Location: "Online", HoursPerWeek: ptr(3), Budget: "$40-60/hour",
		}
		physics := &models.Job{
			StudentID: users["emma"].ID, Title: "AP Physics mechanics",
			Description: "Looking for a tutor to review kinematics and Newton's laws.",
			Subjects:    "Physics", Location: "Boston, MA", HoursPerWeek: ptr(2), Budget: "$45/hour",
		}
		spanish := &models.Job{
			StudentID: users["liam"].ID, Title: "Conversational Spanish",
			Description: "Want to practice speaking before a trip to Madrid.",
			Subjects:    "Spanish", Location: "Online", HoursPerWeek: ptr(1), Budget: "negotiable",
		}
		for _, j := range []*models.Job{calculus, physics, spanish} {
			if err := tx.Job().Create(ctx, j); err != nil {
				return fmt.Errorf("seed job %q: %w", j.Title, err)
			}
		}

		bids := []*models.JobBid{
			{JobID: calculus.ID, TutorID: users["sarah"].ID, Message: "I have taught Calc II for a decade.", BidAmount: 55},
			{JobID: calculus.ID, TutorID: users["james"].ID, Message: "Happy to help with series.", BidAmount: 45},
			{JobID: physics.ID, TutorID: users["james"].ID, Message: "Mechanics is my favourite topic.", BidAmount: 45},
		}
		for _, b := range bids {
			if err := tx.Bid().Create(ctx, b); err != nil {
				return fmt.Errorf("seed bid: %w", err)
			}
		}

		// The physics job is already assigned to James.
		if _, err := tx.Bid().Update(ctx, bids[2].ID, models.BidUpdate{Status: ptr(models.BidAccepted)}); err != nil {
			return err
		}
		if _, err := tx.Job().Update(ctx, physics.ID, models.JobUpdate{Status: ptr(models.JobAssigned)}); err != nil {
			return err
		}

		messages := []*models.Message{
			{SenderID: users["emma"].ID, ReceiverID: users["sarah"].ID, Content: "Hi Sarah, are you free on Tuesday evenings?"},
			{SenderID: users["sarah"].ID, ReceiverID: users["emma"].ID, Content: "Yes, 6pm works for me."},
			{SenderID: users["emma"].ID, ReceiverID: users["james"].ID, Content: "Thanks for accepting the physics job!"},
		}
		for _, m := range messages {
			if err := tx.Message().Create(ctx, m); err != nil {
				return fmt.Errorf("seed message: %w", err)
			}
		}

		reviews := []*models.Review{
			{TutorID: users["sarah"].ID, StudentID: users["liam"].ID, Rating: 5, Comment: "Explains everything clearly."},
			{TutorID: users["james"].ID, StudentID: users["emma"].ID, JobID: ptr(physics.ID), Rating: 4, Comment: "Great examples."},
		}
		for _, rv := range reviews {
			if err := tx.Review().Create(ctx, rv); err != nil {
				return fmt.Errorf("seed review: %w", err)
			}
		}
		return nil
	})
}
