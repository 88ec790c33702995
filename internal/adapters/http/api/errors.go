package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/diploma/internal/adapters/repository"
	"github.com/okian/diploma/internal/domain/credits"
	"github.com/okian/diploma/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrBackpressure  = errors.New("backpressure")
	ErrRateLimited   = errors.New("rate limited")
	ErrLimitExceeded = errors.New("limit exceeded")
	ErrNotFound      = errors.New("not found")
	ErrInternal      = errors.New("internal error")
)

// Error tags an underlying error with the handler operation and an API kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewKind returns an error of the given kind with no further cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap tags err with op, classifying it as internal.
func Wrap(op string, err error) error {
	return &Error{Op: op, Kind: ErrInternal, Err: err}
}

// classify maps an error to an HTTP status and a response code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, credits.ErrUnknownSubject):
		return http.StatusUnprocessableEntity, "unknown_subject"
	case errors.Is(err, credits.ErrInvalidXPValue):
		return http.StatusUnprocessableEntity, "invalid_xp"
	case errors.Is(err, ErrLimitExceeded):
		return http.StatusBadRequest, "limit_exceeded"
	case errors.Is(err, ErrBadRequest), errors.Is(err, model.ErrMissingStudentID):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
