package repository

import "errors"

// Sentinel kinds for cohort store errors.
var (
	ErrNotFound       = errors.New("student not found")
	ErrInvalidLimit   = errors.New("invalid cohort limit")
	ErrInvalidStudent = errors.New("invalid student id")
)
