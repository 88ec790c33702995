// Package repository defines the cohort store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/okian/diploma/internal/domain/model"
)

// Entry represents one row of the cohort ranking.
type Entry struct {
	Rank              int
	StudentID         string
	Credits           float64
	MeetsRequirements bool
	SubmissionID      string
	EvaluatedAt       time.Time
}

// Store provides read/write access to the cohort state.
type Store interface {
	// Upsert replaces the student's stored evaluation. Records submitted
	// before the stored one are ignored and reported as not applied.
	Upsert(ctx context.Context, rec model.StudentRecord) (bool, error)

	// Get returns the full stored evaluation for a student.
	// Returns ErrNotFound if the student is unknown.
	Get(ctx context.Context, studentID string) (model.StudentRecord, error)

	// Rank returns the current dense rank of a student.
	// Returns ErrNotFound if the student is unknown.
	Rank(ctx context.Context, studentID string) (Entry, error)

	// TopN returns the top-N entries ordered by verified credits desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of students tracked.
	Count(ctx context.Context) int

	// ReadyCount returns how many students currently meet requirements.
	ReadyCount(ctx context.Context) int
}
