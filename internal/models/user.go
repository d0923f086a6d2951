package models

import (
	"time"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTutor   UserRole = "tutor"
	RoleAdmin   UserRole = "admin"
)

func (r UserRole) IsValid() bool {
	switch r {
	case RoleStudent, RoleTutor, RoleAdmin:
		return true
	}
	return false
}

// IsSelfService reports whether the role may be chosen at registration.
func (r UserRole) IsSelfService() bool {
	return r == RoleStudent || r == RoleTutor
}

type UserStatus string

const (
	UserActive UserStatus = "active"
	UserBanned UserStatus = "banned"
)

func (s UserStatus) IsValid() bool {
	return s == UserActive || s == UserBanned
}

type User struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Username  string     `json:"username" gorm:"uniqueIndex;not null;size:100"`
	Password  string     `json:"-" gorm:"not null;size:255"`
	Email     string     `json:"email" gorm:"uniqueIndex;not null;size:255"`
	FullName  string     `json:"full_name" gorm:"not null;size:100"`
	Role      UserRole   `json:"role" gorm:"not null;size:20;index"`
	Status    UserStatus `json:"status" gorm:"not null;size:20;default:active;index"`
	BanReason *string    `json:"ban_reason" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsBanned() bool {
	return u.Status == UserBanned
}

// UserUpdate carries the fields of a partial user update; nil fields are left untouched.
type UserUpdate struct {
	Username  *string
	Password  *string
	Email     *string
	FullName  *string
	Role      *UserRole
	Status    *UserStatus
	BanReason *string
	// ClearBanReason wins over BanReason.
	ClearBanReason bool
}

// Apply merges the set fields into u.
func (upd UserUpdate) Apply(u *User) {
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Password != nil {
		u.Password = *upd.Password
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.Status != nil {
		u.Status = *upd.Status
	}
	if upd.ClearBanReason {
		u.BanReason = nil
	} else if upd.BanReason != nil {
		reason := *upd.BanReason
		u.BanReason = &reason
	}
}

// Columns returns the column/value map used by the relational backend.
func (upd UserUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if upd.Username != nil {
		cols["username"] = *upd.Username
	}
	if upd.Password != nil {
		cols["password"] = *upd.Password
	}
	if upd.Email != nil {
		cols["email"] = *upd.Email
	}
	if upd.FullName != nil {
		cols["full_name"] = *upd.FullName
	}
	if upd.Role != nil {
		cols["role"] = *upd.Role
	}
	if upd.Status != nil {
		cols["status"] = *upd.Status
	}
	if upd.ClearBanReason {
		cols["ban_reason"] = nil
	} else if upd.BanReason != nil {
		cols["ban_reason"] = *upd.BanReason
	}
	return cols
}

// PublicUser is the only shape in which a user leaves the service.
type PublicUser struct {
	ID        uint       `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	Role      UserRole   `json:"role"`
	Status    UserStatus `json:"status"`
	BanReason *string    `json:"ban_reason,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		Status:    u.Status,
		BanReason: u.BanReason,
		CreatedAt: u.CreatedAt,
	}
}

func PublicUsers(users []*User) []*PublicUser {
	out := make([]*PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}

// Session is a server-side login session referenced by the signed cookie.
type Session struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
