// Package credits converts per-subject XP into academic credit units and
// decides graduation readiness.
//
// Everything in this package is a pure function of its inputs and an
// immutable Catalog, so it is safe to call from any number of goroutines.
package credits

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// TotalCreditsRequired is the graduation threshold of the default catalog.
// It is fixed and independent of the per-subject requirements.
const TotalCreditsRequired = 20.0

// defaultXPPerCredit is the conversion rate shared by every built-in subject.
const defaultXPPerCredit = 1000

// SubjectKey identifies an academic subject.
type SubjectKey string

// Built-in subject keys.
const (
	LanguageArts      SubjectKey = "language_arts"
	Math              SubjectKey = "math"
	Science           SubjectKey = "science"
	SocialStudies     SubjectKey = "social_studies"
	FinancialLiteracy SubjectKey = "financial_literacy"
	Health            SubjectKey = "health"
	PE                SubjectKey = "pe"
	FineArts          SubjectKey = "fine_arts"
	CTE               SubjectKey = "cte"
	DigitalLiteracy   SubjectKey = "digital_literacy"
	Electives         SubjectKey = "electives"
)

// Definition describes how one subject converts XP into credits.
type Definition struct {
	Key             SubjectKey `json:"subject"`
	DisplayName     string     `json:"display_name"`
	CreditsRequired float64    `json:"credits_required"`
	XPPerCredit     int64      `json:"xp_per_credit"`
}

// XPMap maps subjects to non-negative XP totals.
type XPMap map[SubjectKey]int64

// Catalog is the read-only table of subject definitions. It is built once
// and never mutated afterwards.
type Catalog struct {
	defs          []Definition
	index         map[SubjectKey]int
	totalRequired float64

	// Exact decimal forms of the requirements; threshold checks use these.
	required   []*big.Rat
	totalExact *big.Rat
}

// NewCatalog validates defs and builds a Catalog. Definitions keep the order
// they are given in; that order is the catalog-declared display order.
func NewCatalog(defs []Definition, totalRequired float64) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: no subjects", ErrInvalidCatalog)
	}
	if !(totalRequired > 0) || math.IsInf(totalRequired, 1) {
		return nil, fmt.Errorf("%w: total credits required must be positive and finite, got %v", ErrInvalidCatalog, totalRequired)
	}

	c := &Catalog{
		defs:          make([]Definition, 0, len(defs)),
		index:         make(map[SubjectKey]int, len(defs)),
		totalRequired: totalRequired,
		required:      make([]*big.Rat, 0, len(defs)),
		totalExact:    decimalRat(totalRequired),
	}
	for _, d := range defs {
		key := SubjectKey(strings.TrimSpace(string(d.Key)))
		switch {
		case key == "":
			return nil, fmt.Errorf("%w: empty subject key", ErrInvalidCatalog)
		case !(d.CreditsRequired > 0) || math.IsInf(d.CreditsRequired, 1):
			return nil, fmt.Errorf("%w: subject %q credits required must be positive and finite", ErrInvalidCatalog, key)
		case d.XPPerCredit <= 0:
			return nil, fmt.Errorf("%w: subject %q xp per credit must be positive", ErrInvalidCatalog, key)
		}
		if _, dup := c.index[key]; dup {
			return nil, fmt.Errorf("%w: duplicate subject %q", ErrInvalidCatalog, key)
		}
		d.Key = key
		if strings.TrimSpace(d.DisplayName) == "" {
			d.DisplayName = string(key)
		}
		c.index[key] = len(c.defs)
		c.defs = append(c.defs, d)
		c.required = append(c.required, decimalRat(d.CreditsRequired))
	}
	return c, nil
}

// decimalRat returns the decimal value f was written as, so 0.9 becomes 9/10
// rather than the nearest binary fraction. f must be finite.
func decimalRat(f float64) *big.Rat {
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(f, 'g', -1, 64))
	if !ok {
		return new(big.Rat).SetFloat64(f)
	}
	return r
}

// DefaultDefinitions returns a fresh copy of the built-in subject table.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Key: LanguageArts, DisplayName: "Language Arts", CreditsRequired: 4, XPPerCredit: defaultXPPerCredit},
		{Key: Math, DisplayName: "Mathematics", CreditsRequired: 3, XPPerCredit: defaultXPPerCredit},
		{Key: Science, DisplayName: "Science", CreditsRequired: 3, XPPerCredit: defaultXPPerCredit},
		{Key: SocialStudies, DisplayName: "Social Studies", CreditsRequired: 3.5, XPPerCredit: defaultXPPerCredit},
		{Key: FinancialLiteracy, DisplayName: "Financial Literacy", CreditsRequired: 0.5, XPPerCredit: defaultXPPerCredit},
		{Key: Health, DisplayName: "Health", CreditsRequired: 0.5, XPPerCredit: defaultXPPerCredit},
		{Key: PE, DisplayName: "Physical Education", CreditsRequired: 2, XPPerCredit: defaultXPPerCredit},
		{Key: FineArts, DisplayName: "Fine Arts", CreditsRequired: 1.5, XPPerCredit: defaultXPPerCredit},
		{Key: CTE, DisplayName: "Career & Technical Education", CreditsRequired: 1, XPPerCredit: defaultXPPerCredit},
		{Key: DigitalLiteracy, DisplayName: "Digital Literacy", CreditsRequired: 0.5, XPPerCredit: defaultXPPerCredit},
		{Key: Electives, DisplayName: "Electives", CreditsRequired: 4, XPPerCredit: defaultXPPerCredit},
	}
}

// defaultCatalog is built at package init; the built-in table is known valid.
var defaultCatalog = mustCatalog(DefaultDefinitions(), TotalCreditsRequired) //nolint:gochecknoglobals // immutable after init

func mustCatalog(defs []Definition, total float64) *Catalog {
	c, err := NewCatalog(defs, total)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog { return defaultCatalog }

// Lookup returns the definition for key or an *UnknownSubjectError.
func (c *Catalog) Lookup(key SubjectKey) (Definition, error) {
	i, ok := c.index[key]
	if !ok {
		return Definition{}, &UnknownSubjectError{Subject: key}
	}
	return c.defs[i], nil
}

// Definitions returns the catalog entries in declared order.
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// TotalCreditsRequired returns the graduation threshold for this catalog.
func (c *Catalog) TotalCreditsRequired() float64 { return c.totalRequired }

// Len returns the number of subjects.
func (c *Catalog) Len() int { return len(c.defs) }

// position returns the catalog-declared index of key, or Len() when unknown.
func (c *Catalog) position(key SubjectKey) int {
	if i, ok := c.index[key]; ok {
		return i
	}
	return len(c.defs)
}
