package models

import "time"

// ===== AUTH =====

type RegisterRequest struct {
	Username string   `json:"username" validate:"required,min=3,max=50,username"`
	Password string   `json:"password" validate:"required,min=6,max=128"`
	Email    string   `json:"email" validate:"required,email,max=255"`
	FullName string   `json:"full_name" validate:"required,min=1,max=100"`
	Role     UserRole `json:"role" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CasdoorLoginRequest struct {
	Token string `json:"token" validate:"required"`
}

type UpdateUserRequest struct {
	FullName        *string `json:"full_name" validate:"omitempty,min=1,max=100"`
	Email           *string `json:"email" validate:"omitempty,email,max=255"`
	Password        *string `json:"password" validate:"omitempty,min=6,max=128"`
	CurrentPassword *string `json:"current_password" validate:"required_with=Password"`
}

// CurrentUser is the response of GET /api/user.
type CurrentUser struct {
	*PublicUser
	TutorProfile *TutorView `json:"tutor_profile,omitempty"`
}

// ===== TUTORS =====

type TutorProfileRequest struct {
	Education    *string  `json:"education" validate:"omitempty,max=2000"`
	Experience   *string  `json:"experience" validate:"omitempty,max=2000"`
	Languages    *string  `json:"languages" validate:"omitempty,max=255"`
	HourlyRate   *float64 `json:"hourly_rate" validate:"omitempty,gte=0,lte=10000"`
	Subjects     *string  `json:"subjects" validate:"omitempty,max=1000"`
	SubjectList  []string `json:"subject_list" validate:"omitempty,max=50,dive,min=1,max=100"`
	Bio          *string  `json:"bio" validate:"omitempty,max=5000"`
	ProfileImage *string  `json:"profile_image" validate:"omitempty,max=500"`
	Location     *string  `json:"location" validate:"omitempty,max=255"`
	IsOnline     *bool    `json:"is_online"`
}

type ListTutorsParams struct {
	Subject  string         `form:"subject"`
	Approval ApprovalStatus `form:"approval"`
}

// ===== JOBS & BIDS =====

type JobCreateRequest struct {
	Title        string   `json:"title" validate:"required,min=3,max=200"`
	Description  string   `json:"description" validate:"required,min=10,max=5000"`
	Subjects     string   `json:"subjects" validate:"required_without=SubjectList,max=1000"`
	SubjectList  []string `json:"subject_list" validate:"omitempty,max=50,dive,min=1,max=100"`
	Location     string   `json:"location" validate:"omitempty,max=255"`
	HoursPerWeek *int     `json:"hours_per_week" validate:"omitempty,min=1,max=168"`
	Budget       string   `json:"budget" validate:"omitempty,max=100"`
}

type JobStatusRequest struct {
	Status JobStatus `json:"status" validate:"required"`
}

type ListJobsParams struct {
	Status JobStatus `form:"status"`
}

type BidCreateRequest struct {
	Message   string  `json:"message" validate:"required,min=1,max=2000"`
	BidAmount float64 `json:"bid_amount" validate:"required,gt=0,lte=100000"`
}

// ===== MESSAGES & REVIEWS =====

type MessageCreateRequest struct {
	ReceiverID uint   `json:"receiver_id" validate:"required"`
	Content    string `json:"content" validate:"required,min=1,max=5000"`
}

type ReviewCreateRequest struct {
	TutorID uint   `json:"tutor_id" validate:"required"`
	JobID   *uint  `json:"job_id" validate:"omitempty,min=1"`
	Rating  int    `json:"rating" validate:"required,rating"`
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

// ===== ADMIN =====

type UserStatusRequest struct {
	Status    UserStatus `json:"status" validate:"required,user_status"`
	BanReason *string    `json:"ban_reason" validate:"omitempty,max=1000"`
}

type UserRoleRequest struct {
	Role UserRole `json:"role" validate:"required,user_role"`
}

type TutorApprovalRequest struct {
	Status          ApprovalStatus `json:"status" validate:"required,approval_status"`
	RejectionReason *string        `json:"rejection_reason" validate:"omitempty,max=1000"`
}

type EntityTotals struct {
	Users         int64 `json:"users"`
	TutorProfiles int64 `json:"tutor_profiles"`
	Jobs          int64 `json:"jobs"`
	Bids          int64 `json:"bids"`
	Messages      int64 `json:"messages"`
	Reviews       int64 `json:"reviews"`
}

type Analytics struct {
	UsersByRole      map[UserRole]int64       `json:"users_by_role"`
	UsersByStatus    map[UserStatus]int64     `json:"users_by_status"`
	TutorsByApproval map[ApprovalStatus]int64 `json:"tutors_by_approval"`
	JobsByStatus     map[JobStatus]int64      `json:"jobs_by_status"`
	BidsByStatus     map[BidStatus]int64      `json:"bids_by_status"`
	Totals           EntityTotals             `json:"totals"`
	AverageRating    float64                  `json:"average_rating"`
	UnreadMessages   int64                    `json:"unread_messages"`
	GeneratedAt      time.Time                `json:"generated_at"`
}

// ===== RESPONSES =====

type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}
