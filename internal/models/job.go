package models

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

type JobStatus string

const (
	JobOpen      JobStatus = "open"
	JobAssigned  JobStatus = "assigned"
	JobCompleted JobStatus = "completed"
	JobCancelled JobStatus = "cancelled"
)

func (s JobStatus) IsValid() bool {
	switch s {
	case JobOpen, JobAssigned, JobCompleted, JobCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether a job in this status can no longer change.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobCancelled
}

type BidStatus string

const (
	BidPending  BidStatus = "pending"
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
)

func (s BidStatus) IsValid() bool {
	switch s {
	case BidPending, BidAccepted, BidRejected:
		return true
	}
	return false
}

type Job struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	StudentID    uint      `json:"student_id" gorm:"not null;index"`
	Title        string    `json:"title" gorm:"not null;size:200"`
	Description  string    `json:"description" gorm:"type:text;not null"`
	Subjects     string    `json:"subjects" gorm:"type:text"`
	Location     string    `json:"location" gorm:"size:255"`
	HoursPerWeek *int      `json:"hours_per_week"`
	Budget       string    `json:"budget" gorm:"size:100"`
	Status       JobStatus `json:"status" gorm:"size:20;not null;default:open;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

func (j *Job) IsOpen() bool {
	return j.Status == JobOpen
}

type JobUpdate struct {
	Title        *string
	Description  *string
	Subjects     *string
	Location     *string
	HoursPerWeek *int
	Budget       *string
	Status       *JobStatus
}

func (upd JobUpdate) Apply(j *Job) {
	if upd.Title != nil {
		j.Title = *upd.Title
	}
	if upd.Description != nil {
		j.Description = *upd.Description
	}
	if upd.Subjects != nil {
		j.Subjects = *upd.Subjects
	}
	if upd.Location != nil {
		j.Location = *upd.Location
	}
	if upd.HoursPerWeek != nil {
		hours := *upd.HoursPerWeek
		j.HoursPerWeek = &hours
	}
	if upd.Budget != nil {
		j.Budget = *upd.Budget
	}
	if upd.Status != nil {
		j.Status = *upd.Status
	}
}

func (upd JobUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if upd.Title != nil {
		cols["title"] = *upd.Title
	}
	if upd.Description != nil {
		cols["description"] = *upd.Description
	}
	if upd.Subjects != nil {
		cols["subjects"] = *upd.Subjects
	}
	if upd.Location != nil {
		cols["location"] = *upd.Location
	}
	if upd.HoursPerWeek != nil {
		cols["hours_per_week"] = *upd.HoursPerWeek
	}
	if upd.Budget != nil {
		cols["budget"] = *upd.Budget
	}
	if upd.Status != nil {
		cols["status"] = *upd.Status
	}
	return cols
}

type JobBid struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	JobID     uint      `json:"job_id" gorm:"not null;index"`
	TutorID   uint      `json:"tutor_id" gorm:"not null;index"`
	Message   string    `json:"message" gorm:"type:text"`
	BidAmount float64   `json:"bid_amount" gorm:"not null"`
	Status    BidStatus `json:"status" gorm:"size:20;not null;default:pending;index"`

	CreatedAt time.Time `json:"created_at"`
}

func (JobBid) TableName() string {
	return "job_bids"
}

type BidUpdate struct {
	Message   *string
	BidAmount *float64
	Status    *BidStatus
}

func (upd BidUpdate) Apply(b *JobBid) {
	if upd.Message != nil {
		b.Message = *upd.Message
	}
	if upd.BidAmount != nil {
		b.BidAmount = *upd.BidAmount
	}
	if upd.Status != nil {
		b.Status = *upd.Status
	}
}

func (upd BidUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if upd.Message != nil {
		cols["message"] = *upd.Message
	}
	if upd.BidAmount != nil {
		cols["bid_amount"] = *upd.BidAmount
	}
	if upd.Status != nil {
		cols["status"] = *upd.Status
	}
	return cols
}

// BudgetRange is the structured reading of a free-text budget such as "$30-40/hour".
type BudgetRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Unit string  `json:"unit,omitempty"`
}

var budgetPattern = regexp.MustCompile(`^\$?\s*(\d+(?:\.\d+)?)\s*(?:(?:-|–|to)\s*\$?\s*(\d+(?:\.\d+)?))?\s*(?:(?:/|per)\s*([A-Za-z]+))?$`)

// ParseBudget returns nil when the text does not look like an amount or range.
func ParseBudget(budget string) *BudgetRange {
	m := budgetPattern.FindStringSubmatch(strings.TrimSpace(budget))
	if m == nil {
		return nil
	}
	lo, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	hi := lo
	if m[2] != "" {
		if hi, err = strconv.ParseFloat(m[2], 64); err != nil {
			return nil
		}
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	return &BudgetRange{Min: lo, Max: hi, Unit: normalizeUnit(m[3])}
}

func normalizeUnit(unit string) string {
	switch strings.ToLower(unit) {
	case "":
		return ""
	case "h", "hr", "hrs", "hour", "hours":
		return "hour"
	case "wk", "week":
		return "week"
	case "mo", "month":
		return "month"
	case "session", "lesson":
		return "session"
	default:
		return strings.ToLower(unit)
	}
}

// BidView is a bid joined with its tutor and, for a tutor's own list, its job.
type BidView struct {
	*JobBid
	Tutor *PublicUser `json:"tutor,omitempty"`
	Job   *JobView    `json:"job,omitempty"`
}

// JobView is the response shape of a job.
type JobView struct {
	*Job
	SubjectList []string     `json:"subject_list"`
	BudgetRange *BudgetRange `json:"budget_range,omitempty"`
	Student     *PublicUser  `json:"student,omitempty"`
}

// JobDetail is a job with every bid on it. Bids is always present, empty for
// a job nobody has bid on.
type JobDetail struct {
	*JobView
	Bids []*BidView `json:"bids"`
}

func NewJobView(j *Job, student *User) *JobView {
	return &JobView{
		Job:         j,
		SubjectList: SplitSubjects(j.Subjects),
		BudgetRange: ParseBudget(j.Budget),
		Student:     student.Public(),
	}
}
