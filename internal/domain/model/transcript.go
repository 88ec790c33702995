// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"strings"
	"time"

	"github.com/okian/diploma/internal/domain/credits"
)

// ErrMissingStudentID is returned when a transcript names no student.
var ErrMissingStudentID = errors.New("student id is required")

// Transcript is one submitted snapshot of a student's XP.
// Verified holds reviewed work; Pending holds work still awaiting review.
type Transcript struct {
	SubmissionID string        // unique id for idempotency
	StudentID    string        // student the XP belongs to
	Verified     credits.XPMap // reviewed XP per subject
	Pending      credits.XPMap // unreviewed XP per subject, may be nil
	SubmittedAt  time.Time
}

// Validate checks the transcript against the catalog without evaluating it.
func (t Transcript) Validate(c *credits.Catalog) error {
	if strings.TrimSpace(t.StudentID) == "" {
		return ErrMissingStudentID
	}
	_, err := c.Merge(t.Verified, t.Pending)
	return err
}

// StudentRecord is the latest evaluation kept for a student.
type StudentRecord struct {
	StudentID    string
	SubmissionID string
	Report       credits.Report
	SubmittedAt  time.Time // orders submissions for the same student
	EvaluatedAt  time.Time
}

// Credits returns the verified credits used for cohort ordering.
func (r StudentRecord) Credits() float64 {
	return r.Report.Summary.TotalCreditsEarned
}

// Ready reports whether the student meets graduation requirements.
func (r StudentRecord) Ready() bool {
	return r.Report.Summary.MeetsRequirements
}
