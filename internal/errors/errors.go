package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrForbidden is returned when the access control matrix denies an operation.
	ErrForbidden = errors.New("operation not permitted")
	// ErrInvalidTransition is returned for an illegal issue status change.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrQuotaExceeded is returned when a free-tier citizen hits the submission cap.
	ErrQuotaExceeded = errors.New("free issue quota exceeded, upgrade to premium to submit more")
	// ErrInvalidBoostTarget is returned for a boost against a non-owned,
	// already boosted or terminal issue.
	ErrInvalidBoostTarget = errors.New("issue cannot be boosted")
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a concurrent mutation race is lost.
	ErrConflict = errors.New("conflicting concurrent update")
	// ErrStorage is returned on transient storage failure and is retryable.
	ErrStorage = errors.New("storage unavailable")
	// ErrUserBlocked is returned when a blocked citizen attempts a gated action.
	ErrUserBlocked = errors.New("account is blocked by admin")
	// ErrCategoryExists is returned when creating a duplicate category name.
	ErrCategoryExists = errors.New("category already exists")
	// ErrInvalidPayment is returned for a malformed checkout request.
	ErrInvalidPayment = errors.New("invalid payment request")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrUserBlocked):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, ErrInvalidTransition):
		return NewHTTPError(http.StatusConflict, err.Error(), "INVALID_TRANSITION")
	case errors.Is(err, ErrQuotaExceeded):
		return NewHTTPError(http.StatusPaymentRequired, err.Error(), "QUOTA_EXCEEDED")
	case errors.Is(err, ErrInvalidBoostTarget):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_BOOST_TARGET")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, ErrConflict):
		return NewHTTPError(http.StatusConflict, err.Error(), "CONFLICT")
	case errors.Is(err, ErrStorage):
		return NewHTTPError(http.StatusServiceUnavailable, err.Error(), "STORAGE_ERROR")
	case errors.Is(err, ErrCategoryExists):
		return NewHTTPError(http.StatusConflict, err.Error(), "CATEGORY_EXISTS")
	case errors.Is(err, ErrInvalidPayment):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_PAYMENT")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
