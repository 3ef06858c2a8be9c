package pennywise

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pennywise-app/pennywise-go/internal/types"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrNotAuthenticated is returned when the persistence mirror
	// rejects the bearer token
	ErrNotAuthenticated = types.ErrNotAuthenticated

	// ErrRateLimited is returned when the persistence mirror throttles
	// the push
	ErrRateLimited = types.ErrRateLimited

	// ErrMirrorUnavailable is returned when the persistence mirror
	// answers with a server error
	ErrMirrorUnavailable = types.ErrServerError

	// ErrInvalidFrequency is returned for an unknown recurring frequency
	ErrInvalidFrequency = errors.New("invalid frequency")

	// ErrImmutableField is returned when an update touches a field that
	// cannot change after creation
	ErrImmutableField = errors.New("field is immutable after creation")

	// ErrSchedulerRunning is returned when the recurring scheduler is
	// already started
	ErrSchedulerRunning = errors.New("scheduler already running")

	// ErrFlushInProgress is returned when a flush job is already in progress
	ErrFlushInProgress = errors.New("flush already in progress")

	// ErrFlushTimeout is returned when a flush job times out
	ErrFlushTimeout = errors.New("flush timeout")
)

// Error represents a store error
type Error struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches target
func (e *Error) Is(target error) bool {
	if e.Err != nil {
		return errors.Is(e.Err, target)
	}

	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.Code == t.Code
}

// MissingReference identifies a transaction reference whose account is
// no longer in the registry
type MissingReference struct {
	Field string `json:"field"`
	ID    string `json:"id"`
}

// ReferenceNotFoundError reports transaction references that could not
// be resolved during propagation. References that did resolve have
// still been applied; callers decide whether to surface or ignore the
// stale ones.
type ReferenceNotFoundError struct {
	Missing []MissingReference `json:"missing"`
}

// Error implements the error interface
func (e *ReferenceNotFoundError) Error() string {
	if len(e.Missing) == 0 {
		return "referenced account not found"
	}
	fields := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		fields[i] = fmt.Sprintf("%s=%s", m.Field, m.ID)
	}
	return fmt.Sprintf("referenced account not found: %s", strings.Join(fields, ", "))
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []*ValidationError `json:"errors"`
}

// Error implements the error interface
func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d validation errors occurred", len(e.Errors))
}

// NewError creates a new store error
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an error with additional context
func WrapError(err error, code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsReferenceNotFound reports whether err carries stale transaction
// references
func IsReferenceNotFound(err error) bool {
	var refErr *ReferenceNotFoundError
	return errors.As(err, &refErr)
}

// IsValidation reports whether err is a validation failure
func IsValidation(err error) bool {
	var single *ValidationError
	var multi *ValidationErrors
	return errors.As(err, &single) || errors.As(err, &multi)
}
