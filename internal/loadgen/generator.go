package loadgen

import (
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/diploma/internal/domain/credits"
)

// profile bounds the share of each subject's requirement a student completes.
type profile struct {
	name     string
	min, max float64
}

// Performer profiles; weighted toward the middle of the range.
var profiles = []profile{
	{name: "average", min: 0.4, max: 0.8},
	{name: "average", min: 0.4, max: 0.8},
	{name: "high", min: 0.8, max: 1.1},
	{name: "low", min: 0.05, max: 0.4},
	{name: "elite", min: 1.0, max: 1.5},
	{name: "very_low", min: 0, max: 0.1},
	{name: "wide", min: 0, max: 1.5},
}

// pendingChance is the probability that a subject also carries pending XP.
const pendingChance = 0.3

// Generator produces random transcripts for a catalog.
type Generator struct {
	defs []credits.Definition
	rng  *rand.Rand
}

// NewGenerator creates a generator over defs. Equal seeds give equal XP.
func NewGenerator(defs []credits.Definition, seed uint64) *Generator {
	return &Generator{defs: defs, rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Transcripts returns n transcripts with unique student and submission ids.
func (g *Generator) Transcripts(n int) []Transcript {
	out := make([]Transcript, n)
	for i := range out {
		out[i] = g.transcript()
	}
	return out
}

func (g *Generator) transcript() Transcript {
	p := profiles[g.rng.IntN(len(profiles))]
	t := Transcript{
		SubmissionID: uuid.NewString(),
		StudentID:    uuid.NewString(),
		Verified:     make(credits.XPMap, len(g.defs)),
	}
	for _, def := range g.defs {
		share := p.min + g.rng.Float64()*(p.max-p.min)
		t.Verified[def.Key] = xpFor(def, share)

		if g.rng.Float64() < pendingChance {
			if t.Pending == nil {
				t.Pending = make(credits.XPMap)
			}
			t.Pending[def.Key] = xpFor(def, g.rng.Float64()*0.25)
		}
	}
	return t
}

// xpFor converts a share of a subject's requirement into whole XP.
func xpFor(def credits.Definition, share float64) int64 {
	return int64(math.Round(share * def.CreditsRequired * float64(def.XPPerCredit)))
}
