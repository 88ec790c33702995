package credits

import (
	"math/big"
	"sort"
)

// MergedSubjectProgress places a subject's pending (unreviewed) work next to
// its verified progress.
type MergedSubjectProgress struct {
	SubjectProgress

	PendingXPEarned      int64   `json:"pending_xp_earned"`
	PendingCreditsEarned float64 `json:"pending_credits_earned"`
	// TotalWithPending is verified plus pending credits, uncapped. Display only.
	TotalWithPending float64 `json:"total_with_pending"`
	// TotalPercentage is TotalWithPending as a bar percentage, capped at 100.
	TotalPercentage float64 `json:"total_percentage"`
}

// Merge computes verified and pending progress side by side for every subject
// present in either map, in catalog order. pending may be nil. Both maps are
// fully validated before anything is computed.
func (c *Catalog) Merge(verified, pending XPMap) ([]MergedSubjectProgress, error) {
	if err := c.validate(verified); err != nil {
		return nil, err
	}
	if err := c.validate(pending); err != nil {
		return nil, err
	}
	return c.merge(verified, pending), nil
}

// merge assumes both maps are valid.
func (c *Catalog) merge(verified, pending XPMap) []MergedSubjectProgress {
	out := make([]MergedSubjectProgress, 0, len(verified)+len(pending))
	for i, def := range c.defs {
		vxp, inVerified := verified[def.Key]
		pxp, inPending := pending[def.Key]
		if !inVerified && !inPending {
			continue
		}
		v := c.progressAt(i, vxp)
		p := c.progressAt(i, pxp)
		total, _ := new(big.Rat).Add(creditsFor(def, vxp), creditsFor(def, pxp)).Float64()
		m := MergedSubjectProgress{
			SubjectProgress:      v,
			PendingXPEarned:      pxp,
			PendingCreditsEarned: p.CreditsEarned,
			TotalWithPending:     total,
		}
		if m.TotalWithPending > 0 {
			m.TotalPercentage = percentage(m.TotalWithPending, def.CreditsRequired)
		}
		out = append(out, m)
	}
	return out
}

// TopSubjects ranks progress by verified credits, highest first, and returns
// at most n entries (all when n <= 0). Equal credits keep catalog order so
// identical data always renders identically.
func (c *Catalog) TopSubjects(progress []SubjectProgress, n int) []SubjectProgress {
	ranked := make([]SubjectProgress, len(progress))
	copy(ranked, progress)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].CreditsEarned != ranked[j].CreditsEarned {
			return ranked[i].CreditsEarned > ranked[j].CreditsEarned
		}
		return c.position(ranked[i].Subject) < c.position(ranked[j].Subject)
	})
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
