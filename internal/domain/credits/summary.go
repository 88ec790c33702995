package credits

import "math/big"

// GraduationSummary is the aggregate verified standing of one student.
type GraduationSummary struct {
	TotalCreditsEarned   float64 `json:"total_credits_earned"`
	TotalCreditsRequired float64 `json:"total_credits_required"`
	MeetsRequirements    bool    `json:"meets_requirements"`
}

// Summarize folds verified XP into a GraduationSummary. Every catalog subject
// contributes, missing ones as zero, and per-subject credits are summed
// uncapped.
//
// The sum and the threshold check are exact; TotalCreditsEarned is the
// nearest float64 to the exact total, so equal totals always report the same
// value whatever subjects they came from.
//
// Only ever pass verified XP here; pending work must not count toward
// graduation.
func (c *Catalog) Summarize(verified XPMap) (GraduationSummary, error) {
	if err := c.validate(verified); err != nil {
		return GraduationSummary{}, err
	}
	return c.summarize(verified), nil
}

// summarize assumes verified is valid.
func (c *Catalog) summarize(verified XPMap) GraduationSummary {
	total := new(big.Rat)
	for _, def := range c.defs {
		if xp := verified[def.Key]; xp > 0 {
			total.Add(total, creditsFor(def, xp))
		}
	}
	earned, _ := total.Float64()
	return GraduationSummary{
		TotalCreditsEarned:   earned,
		TotalCreditsRequired: c.totalRequired,
		MeetsRequirements:    total.Cmp(c.totalExact) >= 0,
	}
}

// Remaining returns the credits still missing, never negative.
func (s GraduationSummary) Remaining() float64 {
	if s.MeetsRequirements || s.TotalCreditsEarned >= s.TotalCreditsRequired {
		return 0
	}
	return s.TotalCreditsRequired - s.TotalCreditsEarned
}

// Percentage returns overall progress toward the threshold, capped at 100.
func (s GraduationSummary) Percentage() float64 {
	if s.TotalCreditsEarned <= 0 || s.TotalCreditsRequired <= 0 {
		return 0
	}
	return percentage(s.TotalCreditsEarned, s.TotalCreditsRequired)
}
