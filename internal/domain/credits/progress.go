package credits

import (
	"maps"
	"math"
	"math/big"
	"slices"
	"strconv"
)

// maxPercentage is where the progress bar saturates.
const maxPercentage = 100

// SubjectProgress is one subject's verified standing.
type SubjectProgress struct {
	Subject            SubjectKey `json:"subject"`
	DisplayName        string     `json:"display_name"`
	XPEarned           int64      `json:"xp_earned"`
	CreditsEarned      float64    `json:"credits_earned"`
	CreditsRequired    float64    `json:"credits_required"`
	ProgressPercentage float64    `json:"progress_percentage"`
	IsComplete         bool       `json:"is_complete"`
}

// Progress converts one subject's XP into credits. CreditsEarned is never
// capped; ProgressPercentage saturates at 100.
func (c *Catalog) Progress(key SubjectKey, xp int64) (SubjectProgress, error) {
	i, ok := c.index[key]
	if !ok {
		return SubjectProgress{}, &UnknownSubjectError{Subject: key}
	}
	if xp < 0 {
		return SubjectProgress{}, &InvalidXPValueError{Subject: key, Value: strconv.FormatInt(xp, 10)}
	}
	return c.progressAt(i, xp), nil
}

// progressAt assumes i indexes c.defs and xp >= 0.
func (c *Catalog) progressAt(i int, xp int64) SubjectProgress {
	def := c.defs[i]
	p := SubjectProgress{
		Subject:         def.Key,
		DisplayName:     def.DisplayName,
		XPEarned:        xp,
		CreditsRequired: def.CreditsRequired,
	}
	if xp == 0 {
		return p
	}
	earned := creditsFor(def, xp)
	p.CreditsEarned, _ = earned.Float64()
	p.ProgressPercentage = percentage(p.CreditsEarned, def.CreditsRequired)
	p.IsComplete = earned.Cmp(c.required[i]) >= 0
	return p
}

// creditsFor is the exact xp / xp_per_credit quotient.
func creditsFor(def Definition, xp int64) *big.Rat {
	return new(big.Rat).SetFrac64(xp, def.XPPerCredit)
}

func percentage(earned, required float64) float64 {
	return math.Min(earned/required, 1) * maxPercentage
}

// Breakdown returns verified progress for every catalog subject, in catalog
// order. Subjects missing from verified count as zero XP.
func (c *Catalog) Breakdown(verified XPMap) ([]SubjectProgress, error) {
	if err := c.validate(verified); err != nil {
		return nil, err
	}
	out := make([]SubjectProgress, len(c.defs))
	for i, def := range c.defs {
		out[i] = c.progressAt(i, verified[def.Key])
	}
	return out, nil
}

// validate checks every key and value of m. Keys are visited in sorted order
// so the reported error does not depend on map iteration.
func (c *Catalog) validate(m XPMap) error {
	for _, key := range slices.Sorted(maps.Keys(m)) {
		if _, ok := c.index[key]; !ok {
			return &UnknownSubjectError{Subject: key}
		}
		if v := m[key]; v < 0 {
			return &InvalidXPValueError{Subject: key, Value: strconv.FormatInt(v, 10)}
		}
	}
	return nil
}

// ParseXP converts a textual XP value into an integer. Anything that is not a
// non-negative whole number yields an *InvalidXPValueError.
func ParseXP(subject SubjectKey, raw string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Accept whole numbers written in float form, e.g. "150.0" or "1e3".
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != math.Trunc(f) || math.IsInf(f, 0) || f >= math.MaxInt64 {
			return 0, &InvalidXPValueError{Subject: subject, Value: raw}
		}
		v = int64(f)
	}
	if v < 0 {
		return 0, &InvalidXPValueError{Subject: subject, Value: raw}
	}
	return v, nil
}

// ParseXPMap converts a map of textual XP values. Keys are checked against
// the catalog before their values are parsed, in the same order validate
// uses, so textual and typed input report the same error.
func (c *Catalog) ParseXPMap(raw map[string]string) (XPMap, error) {
	out := make(XPMap, len(raw))
	for _, k := range slices.Sorted(maps.Keys(raw)) {
		key := SubjectKey(k)
		if _, ok := c.index[key]; !ok {
			return nil, &UnknownSubjectError{Subject: key}
		}
		v, err := ParseXP(key, raw[k])
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}
