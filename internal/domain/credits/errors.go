package credits

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. Typed errors below unwrap to them so
// callers can use errors.Is without caring about the details.
var (
	ErrUnknownSubject = errors.New("unknown subject")
	ErrInvalidXPValue = errors.New("invalid xp value")
	ErrInvalidCatalog = errors.New("invalid catalog")
)

// UnknownSubjectError reports an XP map key that has no catalog entry.
type UnknownSubjectError struct {
	Subject SubjectKey
}

func (e *UnknownSubjectError) Error() string {
	return fmt.Sprintf("unknown subject %q", string(e.Subject))
}

func (e *UnknownSubjectError) Unwrap() error { return ErrUnknownSubject }

// InvalidXPValueError reports a negative or non-numeric XP value.
type InvalidXPValueError struct {
	Subject SubjectKey
	Value   string
}

func (e *InvalidXPValueError) Error() string {
	return fmt.Sprintf("invalid xp value %q for subject %q", e.Value, string(e.Subject))
}

func (e *InvalidXPValueError) Unwrap() error { return ErrInvalidXPValue }

// ErrorKind classifies err for metrics labels and API error codes.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownSubject):
		return "unknown_subject"
	case errors.Is(err, ErrInvalidXPValue):
		return "invalid_xp"
	case errors.Is(err, ErrInvalidCatalog):
		return "invalid_catalog"
	default:
		return "internal"
	}
}
