package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an error for the boundary layer.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindUpstream         Kind = "upstream"
	KindStorage          Kind = "storage_fault"
	KindTransientNetwork Kind = "transient_network_fault"
)

// Error represents an application error with a stable kind and code.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"error"`
	// Status overrides the kind's default HTTP status when non-zero.
	Status int   `json:"-"`
	Err    error `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same code, so wrapped sentinels compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// StatusCode maps the error to an HTTP status.
func (e *Error) StatusCode() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindValidation, KindUpstream:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTransientNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the caller may retry the same request.
func (e *Error) Retryable() bool {
	return e.Kind == KindTransientNetwork
}

// New creates a new Error
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap returns a copy of sentinel carrying cause.
func Wrap(sentinel *Error, cause error) *Error {
	out := *sentinel
	out.Err = cause
	return &out
}

// WithMessage returns a copy of sentinel with a more specific message.
func WithMessage(sentinel *Error, message string) *Error {
	out := *sentinel
	out.Message = message
	return &out
}

// WithStatus returns a copy of e that responds with status.
func WithStatus(e *Error, status int) *Error {
	out := *e
	out.Status = status
	return &out
}

// From extracts an *Error from err, classifying unknown errors as storage faults.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(ErrInternal, err)
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return stderrors.As(err, &appErr) && appErr.Kind == kind
}

// Validation errors
var (
	ErrInvalidCart  = New(KindValidation, "invalid_cart", "Cart must contain at least one item with a name, a positive quantity and a non-negative price")
	ErrMissingField = New(KindValidation, "missing_fields", "Missing required fields")
	ErrInvalidEvent = New(KindValidation, "invalid_webhook", "Webhook signature verification failed")
)

// Lookup errors
var (
	ErrOrderNotFound   = New(KindNotFound, "order_not_found", "Order not found")
	ErrSessionNotFound = New(KindNotFound, "session_not_found", "Payment session not found")
	ErrUserNotFound    = New(KindNotFound, "user_not_found", "Username not found")
)

// Business errors
var (
	ErrUsernameTaken     = New(KindConflict, "username_taken", "Username already taken")
	ErrSoulMarkClaimed   = New(KindConflict, "soulmark_claimed", "SoulMark already belongs to another identity")
	ErrOrderAlreadyPaid  = New(KindConflict, "order_paid", "Order has already been paid")
	ErrPaymentIncomplete = New(KindUpstream, "payment_incomplete", "Payment not completed")
	ErrUpstream          = New(KindUpstream, "processor_error", "Payment processor error")
)

// Infrastructure errors
var (
	ErrStorageFault     = New(KindStorage, "storage_fault", "Registry storage error")
	ErrTransientNetwork = New(KindTransientNetwork, "processor_unavailable", "Payment processor unavailable, please retry")
	ErrInternal         = New(KindStorage, "internal_error", "Internal server error")
)

// Respond writes err as a JSON error response.
func Respond(c *gin.Context, err error) {
	appErr := From(err)
	if appErr.Retryable() {
		c.Header("Retry-After", "2")
	}
	c.JSON(appErr.StatusCode(), gin.H{"error": appErr.Message, "code": appErr.Code})
}
