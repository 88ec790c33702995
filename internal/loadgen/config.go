// Package loadgen drives a running diploma service with generated transcripts
// and checks the resulting cohort against local evaluations.
package loadgen

import (
	"time"

	"github.com/okian/diploma/internal/domain/credits"
	"github.com/okian/diploma/internal/domain/types"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Students int           // Number of transcripts to generate
	TopN     int           // Number of cohort entries to fetch
	Workers  int           // Number of concurrent submitters
	Timeout  time.Duration // HTTP request timeout
	Wait     time.Duration // How long to wait for the workers to drain
	Sample   int           // Number of students re-evaluated locally
	Seed     uint64        // Generator seed; 0 picks one from the clock
	Verbose  bool          // Log every failure
}

// Transcript is the request body of POST /transcripts.
type Transcript struct {
	SubmissionID string        `json:"submission_id,omitempty"`
	StudentID    string        `json:"student_id"`
	Verified     credits.XPMap `json:"verified"`
	Pending      credits.XPMap `json:"pending,omitempty"`
}

// AckResponse is the response from a transcript submission.
type AckResponse struct {
	Status       string `json:"status"`
	SubmissionID string `json:"submission_id"`
	Duplicate    bool   `json:"duplicate"`
}

// CatalogResponse is the body of GET /catalog.
type CatalogResponse struct {
	Subjects             []credits.Definition `json:"subjects"`
	TotalCreditsRequired float64              `json:"total_credits_required"`
}

// CohortResponse is the body of GET /cohort.
type CohortResponse struct {
	Students []types.CohortEntry `json:"students"`
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Submitted  int
	Accepted   int
	Duplicate  int
	Failed     int
	Verified   int
	Mismatched int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
