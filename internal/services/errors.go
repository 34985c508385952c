package services

import (
	"errors"
	"fmt"
)

// ===== SENTINEL ERRORS =====

var (
	ErrAssessmentNotFound  = errors.New("assessment not found")
	ErrAssessmentNotActive = errors.New("assessment is not active")
	ErrSlugTaken           = errors.New("assessment slug already in use")

	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrAttemptNotActive        = errors.New("attempt is not in progress")
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	ErrAttemptLimitReached     = errors.New("maximum attempts reached")

	ErrCareerAlreadySelected = errors.New("career already selected")
	ErrSelectionNotFound     = errors.New("career selection not found")
	ErrPredictionUnavailable = errors.New("career prediction unavailable")

	ErrRoadmapNotFound      = errors.New("roadmap progress not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrUserNotFound         = errors.New("user not found")

	ErrInvalidOTP = errors.New("invalid or expired verification code")

	ErrValidationFailed = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
)

// UnansweredError rejects a submission that still has open questions.
// The count is surfaced to the client so it can point the student back.
type UnansweredError struct {
	Count int
}

func (e *UnansweredError) Error() string {
	return fmt.Sprintf("attempt has %d unanswered questions", e.Count)
}

// PermissionError carries the denied subject and action for logging.
type PermissionError struct {
	UserID   string
	Resource string
	ID       interface{}
	Action   string
	Reason   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %v: %s", e.UserID, e.Action, e.Resource, e.ID, e.Reason)
}

func (e *PermissionError) Unwrap() error {
	return ErrForbidden
}

func NewPermissionError(userID string, id interface{}, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:   userID,
		Resource: resource,
		ID:       id,
		Action:   action,
		Reason:   reason,
	}
}

func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}
