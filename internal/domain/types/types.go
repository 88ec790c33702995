// Package types contains common types used across the application
package types

import (
	"time"

	"github.com/okian/diploma/internal/domain/credits"
)

// CohortEntry represents one student's position in the cohort ranking.
type CohortEntry struct {
	Rank              int     `json:"rank"`
	StudentID         string  `json:"student_id"`
	CreditsEarned     float64 `json:"credits_earned"`
	MeetsRequirements bool    `json:"meets_requirements"`
}

// StudentStanding is a student's latest stored evaluation and cohort position.
type StudentStanding struct {
	StudentID    string         `json:"student_id"`
	SubmissionID string         `json:"submission_id"`
	Rank         int            `json:"rank"`
	Position     int            `json:"position"`
	CohortSize   int            `json:"cohort_size"`
	Report       credits.Report `json:"report"`
	SubmittedAt  time.Time      `json:"submitted_at"`
	EvaluatedAt  time.Time      `json:"evaluated_at"`
}
