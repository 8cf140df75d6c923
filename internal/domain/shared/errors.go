// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadyProcessed = errors.New("already processed")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Storage errors
	ErrStorageConflict    = errors.New("storage conflict")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// External service errors
	ErrExternalService = errors.New("external service error")
	ErrTimeout         = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "learner", "catalog", "progress"
	Op      string // Operation that failed, e.g., "Create", "Complete"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Learner domain errors
var (
	ErrLearnerNotFound      = NewDomainError("learner", "Find", ErrNotFound, "learner not found")
	ErrLearnerAlreadyExists = NewDomainError("learner", "Create", ErrAlreadyExists, "learner already exists")
	ErrProfileNotFound      = NewDomainError("learner", "FindProfile", ErrNotFound, "learner profile not found")
	ErrInvalidDailyGoal     = NewDomainError("learner", "Validate", ErrValueOutOfRange, "daily goal must be positive")
	ErrInvalidProficiency   = NewDomainError("learner", "Validate", ErrInvalidInput, "invalid proficiency level")
)

// Catalog domain errors
var (
	ErrLanguageNotFound  = NewDomainError("catalog", "FindLanguage", ErrNotFound, "language not found")
	ErrUnitNotFound      = NewDomainError("catalog", "FindUnit", ErrNotFound, "unit not found")
	ErrLessonNotFound    = NewDomainError("catalog", "FindLesson", ErrNotFound, "lesson not found")
	ErrExerciseNotFound  = NewDomainError("catalog", "FindExercise", ErrNotFound, "exercise not found")
	ErrInvalidLessonType = NewDomainError("catalog", "Validate", ErrInvalidInput, "invalid lesson type")
	ErrLessonLocked      = NewDomainError("catalog", "CheckUnlock", ErrForbidden, "lesson prerequisite not completed")
)

// Progress domain errors
var (
	ErrCompletionNotFound = NewDomainError("progress", "Find", ErrNotFound, "completion record not found")
	ErrInvalidXPReward    = NewDomainError("progress", "Validate", ErrNegativeValue, "xp reward must be non-negative")
)

// Leaderboard domain errors
var (
	ErrInvalidRange = NewDomainError("leaderboard", "Validate", ErrInvalidInput, "invalid leaderboard range")
	ErrInvalidRank  = NewDomainError("leaderboard", "Validate", ErrValueOutOfRange, "invalid rank")
)

// Community domain errors
var (
	ErrCommunityNotFound = NewDomainError("community", "Find", ErrNotFound, "community not found")
	ErrPostNotFound      = NewDomainError("community", "FindPost", ErrNotFound, "post not found")
	ErrAlreadyMember     = NewDomainError("community", "Join", ErrAlreadyExists, "already a member of this community")
	ErrNotMember         = NewDomainError("community", "Leave", ErrNotFound, "not a member of this community")
)

// Notification domain errors
var (
	ErrNotificationNotFound = NewDomainError("notification", "Find", ErrNotFound, "notification not found")
	ErrNotificationFailed   = NewDomainError("notification", "Send", ErrExternalService, "failed to deliver notification")
	ErrInvalidChannel       = NewDomainError("notification", "Validate", ErrInvalidInput, "invalid notification channel")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsStorageUnavailable checks if the error is a transient persistence failure.
// Callers may retry; the core itself never does.
func IsStorageUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrTimeout)
}
