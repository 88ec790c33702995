package loadgen

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/diploma/internal/domain/credits"
	"github.com/okian/diploma/internal/domain/types"
)

// ErrVerification is returned when the service disagrees with local results.
var ErrVerification = errors.New("verification failed")

// creditTolerance absorbs float formatting differences over JSON.
const creditTolerance = 1e-9

// VerifyCohort checks that entries are ordered by credits descending then
// student id ascending, with dense ranks starting at 1.
func VerifyCohort(entries []types.CohortEntry) error {
	for i, e := range entries {
		if i == 0 {
			if e.Rank != 1 {
				return fmt.Errorf("%w: first entry has rank %d", ErrVerification, e.Rank)
			}
			continue
		}
		prev := entries[i-1]
		switch {
		case e.CreditsEarned > prev.CreditsEarned:
			return fmt.Errorf("%w: entry %d (%s, %.3f) outranks entry %d (%s, %.3f)",
				ErrVerification, i, e.StudentID, e.CreditsEarned, i-1, prev.StudentID, prev.CreditsEarned)
		case e.CreditsEarned == prev.CreditsEarned:
			if e.StudentID <= prev.StudentID {
				return fmt.Errorf("%w: tie at %.3f not ordered by id (%s after %s)",
					ErrVerification, e.CreditsEarned, e.StudentID, prev.StudentID)
			}
			if e.Rank != prev.Rank {
				return fmt.Errorf("%w: tied entries %s and %s have ranks %d and %d",
					ErrVerification, prev.StudentID, e.StudentID, prev.Rank, e.Rank)
			}
		default:
			if e.Rank != prev.Rank+1 {
				return fmt.Errorf("%w: rank jumps from %d to %d at %s",
					ErrVerification, prev.Rank, e.Rank, e.StudentID)
			}
		}
	}
	return nil
}

// VerifyStanding recomputes t locally and compares it with the stored standing.
func VerifyStanding(c *credits.Catalog, t Transcript, got types.StudentStanding) error { //nolint:gocritic // hugeParam
	want, err := c.Summarize(t.Verified)
	if err != nil {
		return fmt.Errorf("local evaluation of %s: %w", t.StudentID, err)
	}
	have := got.Report.Summary
	if math.Abs(want.TotalCreditsEarned-have.TotalCreditsEarned) > creditTolerance {
		return fmt.Errorf("%w: %s has %.6f credits, expected %.6f",
			ErrVerification, t.StudentID, have.TotalCreditsEarned, want.TotalCreditsEarned)
	}
	if want.MeetsRequirements != have.MeetsRequirements {
		return fmt.Errorf("%w: %s readiness is %t, expected %t",
			ErrVerification, t.StudentID, have.MeetsRequirements, want.MeetsRequirements)
	}
	return nil
}
