package models

import (
	"strings"
	"time"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// TutorProfile is one-to-one with a tutor user. AverageRating and TotalReviews
// are written only by the review recomputation.
type TutorProfile struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	UserID          uint           `json:"user_id" gorm:"uniqueIndex;not null"`
	Education       string         `json:"education" gorm:"type:text"`
	Experience      string         `json:"experience" gorm:"type:text"`
	Languages       string         `json:"languages" gorm:"size:255"`
	HourlyRate      *float64       `json:"hourly_rate"`
	Subjects        string         `json:"subjects" gorm:"type:text"`
	Bio             string         `json:"bio" gorm:"type:text"`
	ProfileImage    string         `json:"profile_image" gorm:"size:500"`
	Location        string         `json:"location" gorm:"size:255"`
	IsOnline        bool           `json:"is_online" gorm:"default:false"`
	AverageRating   float64        `json:"average_rating" gorm:"default:0"`
	TotalReviews    int            `json:"total_reviews" gorm:"default:0"`
	ApprovalStatus  ApprovalStatus `json:"approval_status" gorm:"size:20;not null;default:pending;index"`
	RejectionReason *string        `json:"rejection_reason" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TutorProfile) TableName() string {
	return "tutor_profiles"
}

func (p *TutorProfile) SubjectList() []string {
	return SplitSubjects(p.Subjects)
}

// TutorProfileUpdate holds the self-service and approval fields of a profile.
// Rating fields are deliberately absent.
type TutorProfileUpdate struct {
	Education    *string
	Experience   *string
	Languages    *string
	HourlyRate   *float64
	Subjects     *string
	Bio          *string
	ProfileImage *string
	Location     *string
	IsOnline     *bool

	ApprovalStatus       *ApprovalStatus
	RejectionReason      *string
	ClearRejectionReason bool
}

func (upd TutorProfileUpdate) Apply(p *TutorProfile) {
	if upd.Education != nil {
		p.Education = *upd.Education
	}
	if upd.Experience != nil {
		p.Experience = *upd.Experience
	}
	if upd.Languages != nil {
		p.Languages = *upd.Languages
	}
	if upd.HourlyRate != nil {
		rate := *upd.HourlyRate
		p.HourlyRate = &rate
	}
	if upd.Subjects != nil {
		p.Subjects = *upd.Subjects
	}
	if upd.Bio != nil {
		p.Bio = *upd.Bio
	}
	if upd.ProfileImage != nil {
		p.ProfileImage = *upd.ProfileImage
	}
	if upd.Location != nil {
		p.Location = *upd.Location
	}
	if upd.IsOnline != nil {
		p.IsOnline = *upd.IsOnline
	}
	if upd.ApprovalStatus != nil {
		p.ApprovalStatus = *upd.ApprovalStatus
	}
	if upd.ClearRejectionReason {
		p.RejectionReason = nil
	} else if upd.RejectionReason != nil {
		reason := *upd.RejectionReason
		p.RejectionReason = &reason
	}
}

func (upd TutorProfileUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if upd.Education != nil {
		cols["education"] = *upd.Education
	}
	if upd.Experience != nil {
		cols["experience"] = *upd.Experience
	}
	if upd.Languages != nil {
		cols["languages"] = *upd.Languages
	}
	if upd.HourlyRate != nil {
		cols["hourly_rate"] = *upd.HourlyRate
	}
	if upd.Subjects != nil {
		cols["subjects"] = *upd.Subjects
	}
	if upd.Bio != nil {
		cols["bio"] = *upd.Bio
	}
	if upd.ProfileImage != nil {
		cols["profile_image"] = *upd.ProfileImage
	}
	if upd.Location != nil {
		cols["location"] = *upd.Location
	}
	if upd.IsOnline != nil {
		cols["is_online"] = *upd.IsOnline
	}
	if upd.ApprovalStatus != nil {
		cols["approval_status"] = *upd.ApprovalStatus
	}
	if upd.ClearRejectionReason {
		cols["rejection_reason"] = nil
	} else if upd.RejectionReason != nil {
		cols["rejection_reason"] = *upd.RejectionReason
	}
	return cols
}

// SplitSubjects turns the stored comma-separated subjects into a trimmed list.
func SplitSubjects(subjects string) []string {
	out := []string{}
	for _, s := range strings.Split(subjects, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// JoinSubjects is the inverse of SplitSubjects.
func JoinSubjects(subjects []string) string {
	return strings.Join(SplitSubjects(strings.Join(subjects, ",")), ", ")
}

// HasSubject reports whether subject appears in the list, case-insensitively.
func HasSubject(subjects, subject string) bool {
	subject = strings.TrimSpace(subject)
	for _, s := range SplitSubjects(subjects) {
		if strings.EqualFold(s, subject) {
			return true
		}
	}
	return false
}

// TutorView is a profile joined with its public user.
type TutorView struct {
	*TutorProfile
	SubjectList []string    `json:"subject_list"`
	User        *PublicUser `json:"user"`
}

func NewTutorView(p *TutorProfile, u *User) *TutorView {
	return &TutorView{TutorProfile: p, SubjectList: p.SubjectList(), User: u.Public()}
}

// TutorDetail adds the tutor's reviews to the directory view.
type TutorDetail struct {
	*TutorView
	Reviews []*ReviewView `json:"reviews"`
}
