package services

import (
	"errors"
	"fmt"

	apperrors "github.com/skilltrack/learning-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Auth specific errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
	ErrCSRFMismatch       = errors.New("csrf token mismatch")

	// User specific errors
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailTaken     = errors.New("email already in use")
	ErrInvalidRole    = errors.New("invalid user role")
	ErrUserHasRecords = errors.New("user has enrollment records")

	// Team specific errors
	ErrTeamNotFound      = errors.New("team not found")
	ErrTeamNameTaken     = errors.New("team name already in use")
	ErrTeamNotEmpty      = errors.New("team still has members")
	ErrNotTeamManager    = errors.New("manager not assigned to this team")
	ErrOutsideTeamAccess = errors.New("user is outside the manager's team")

	// Course specific errors
	ErrCourseNotFound    = errors.New("course not found")
	ErrThumbnailTooLarge = errors.New("thumbnail exceeds maximum size")
	ErrInvalidDueDate    = errors.New("invalid course due date")
	ErrCourseHasLearners = errors.New("course has active enrollments")

	// Enrollment specific errors
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrAlreadyEnrolled    = errors.New("user already enrolled in course")
	ErrInvalidProgress    = errors.New("progress must be between 0 and 100")
	ErrNotAssignable      = errors.New("courses can only be assigned to employees")
	ErrSelfEnrollDenied   = errors.New("role cannot self-enroll")

	// Metrics/KPI specific errors
	ErrMetricsUnavailable = errors.New("metrics store unavailable")
	ErrKpiNotFound        = errors.New("kpi snapshot not found")
	ErrInvalidKpiScope    = errors.New("invalid kpi scope")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	UserID     uint   `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %d cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
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

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrTeamNotFound) ||
		errors.Is(err, ErrCourseNotFound) ||
		errors.Is(err, ErrEnrollmentNotFound) ||
		errors.Is(err, ErrKpiNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" or
// "forbidden" condition
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrCSRFMismatch) ||
		errors.Is(err, ErrNotTeamManager) ||
		errors.Is(err, ErrOutsideTeamAccess) ||
		errors.Is(err, ErrSelfEnrollDenied) {
		return true
	}
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrInvalidProgress) ||
		errors.Is(err, ErrNotAssignable) ||
		errors.Is(err, ErrInvalidRole) ||
		errors.Is(err, ErrInvalidDueDate) ||
		errors.Is(err, ErrInvalidKpiScope) ||
		errors.Is(err, ErrThumbnailTooLarge) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrAlreadyEnrolled) ||
		errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrTeamNameTaken) ||
		errors.Is(err, ErrTeamNotEmpty) ||
		errors.Is(err, ErrUserHasRecords) ||
		errors.Is(err, ErrCourseHasLearners)
}

// IsUnavailable checks if error represents a dependency outage
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrMetricsUnavailable)
}
