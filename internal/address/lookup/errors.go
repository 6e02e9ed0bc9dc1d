package lookup

import (
	"errors"
	"fmt"

	"cadastro/pkg/platform/sentinel"
)

// ErrorCategory is the normalized failure taxonomy of the remote postal lookup.
type ErrorCategory string

const (
	// ErrorTimeout indicates the remote service took too long to respond
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData indicates the remote service answered with an undecodable payload
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorOutage indicates a transport failure or a 5xx answer
	ErrorOutage ErrorCategory = "outage"

	// ErrorNotFound indicates the remote service has no data for the code
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorRateLimited indicates the remote service throttled us
	ErrorRateLimited ErrorCategory = "rate_limited"
)

// Error wraps lookup failures with a category.
//
// not_found and bad_data match sentinel.ErrNotFound; every other category
// matches sentinel.ErrUnavailable.
type Error struct {
	Category   ErrorCategory
	PostalCode string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("postal lookup %s [%s]: %s: %v", e.PostalCode, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("postal lookup %s [%s]: %s", e.PostalCode, e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

func (e *Error) Is(target error) bool {
	switch target {
	case sentinel.ErrNotFound:
		return e.Category == ErrorNotFound || e.Category == ErrorBadData
	case sentinel.ErrUnavailable:
		return e.Category != ErrorNotFound && e.Category != ErrorBadData
	default:
		return false
	}
}

func newError(category ErrorCategory, postalCode, message string, underlying error) *Error {
	retryable := category == ErrorTimeout ||
		category == ErrorOutage ||
		category == ErrorRateLimited

	return &Error{
		Category:   category,
		PostalCode: postalCode,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var le *Error
	if errors.As(err, &le) {
		return le.Retryable
	}
	return false
}

// GetCategory extracts the category from an error; unknown errors are outages.
func GetCategory(err error) ErrorCategory {
	var le *Error
	if errors.As(err, &le) {
		return le.Category
	}
	return ErrorOutage
}
