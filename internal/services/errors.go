package services

import (
	"errors"
	"fmt"
)

// Authentication
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrUserBanned         = errors.New("account is banned")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidRole        = errors.New("invalid role")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrExternalAuthOff    = errors.New("external login is not configured")
)

// Lookups
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrTutorNotFound        = errors.New("tutor not found")
	ErrJobNotFound          = errors.New("job not found")
	ErrBidNotFound          = errors.New("bid not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// Business rules
var (
	ErrInvalidStatus  = errors.New("invalid status")
	ErrJobStatusFinal = errors.New("job status can no longer change")
	ErrJobNotOpen     = errors.New("job is not open")
	ErrAlreadyBid     = errors.New("already bid on this job")
	ErrBidNotPending  = errors.New("bid is not pending")
	ErrNotATutor      = errors.New("user is not a tutor")
	ErrMessageToSelf  = errors.New("cannot send a message to yourself")
	ErrSelfModeration = errors.New("admins cannot change or delete their own account")
)

// PermissionError reports an authenticated user acting on a resource they do
// not own.
type PermissionError struct {
	UserID     uint
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func NewPermissionError(userID, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %d cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

// BannedError carries the ban reason to the login response.
type BannedError struct {
	Reason *string
}

func (e *BannedError) Error() string {
	if e.Reason != nil && *e.Reason != "" {
		return fmt.Sprintf("%s: %s", ErrUserBanned, *e.Reason)
	}
	return ErrUserBanned.Error()
}

func (e *BannedError) Unwrap() error {
	return ErrUserBanned
}
