package credits_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/okian/diploma/internal/domain/credits"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCatalog_Summarize(t *testing.T) {
	Convey("Given a catalog requiring 4 total credits", t, func() {
		c := testCatalog()

		Convey("When the map is empty", func() {
			s, err := c.Summarize(nil)

			Convey("Then nothing is earned", func() {
				So(err, ShouldBeNil)
				So(s.TotalCreditsEarned, ShouldEqual, 0)
				So(s.TotalCreditsRequired, ShouldEqual, 4)
				So(s.MeetsRequirements, ShouldBeFalse)
				So(s.Remaining(), ShouldEqual, 4)
				So(s.Percentage(), ShouldEqual, 0)
			})
		})

		Convey("When credits exactly reach the threshold", func() {
			s, err := c.Summarize(credits.XPMap{mathKey: 200, scienceKey: 150, artKey: 25})

			Convey("Then requirements are met", func() {
				So(err, ShouldBeNil)
				So(s.TotalCreditsEarned, ShouldEqual, 4)
				So(s.MeetsRequirements, ShouldBeTrue)
				So(s.Remaining(), ShouldEqual, 0)
				So(s.Percentage(), ShouldEqual, 100)
			})
		})

		Convey("When one subject is over-earned", func() {
			s, err := c.Summarize(credits.XPMap{mathKey: 500})

			Convey("Then the surplus counts toward the total", func() {
				So(err, ShouldBeNil)
				So(s.TotalCreditsEarned, ShouldEqual, 5)
				So(s.MeetsRequirements, ShouldBeTrue)
			})
		})

		Convey("When the map contains an unknown subject", func() {
			_, err := c.Summarize(credits.XPMap{mathKey: 100, "history": 10})

			Convey("Then ErrUnknownSubject is returned", func() {
				So(errors.Is(err, credits.ErrUnknownSubject), ShouldBeTrue)
			})
		})

		Convey("When the map contains a negative value", func() {
			_, err := c.Summarize(credits.XPMap{mathKey: -100})

			Convey("Then ErrInvalidXPValue is returned", func() {
				So(errors.Is(err, credits.ErrInvalidXPValue), ShouldBeTrue)
			})
		})
	})
}

func TestCatalog_SummarizeThreshold(t *testing.T) {
	Convey("Given the built-in catalog requiring 20 credits", t, func() {
		c := credits.DefaultCatalog()

		Convey("When per-subject credits are not exact in binary but sum to exactly 20", func() {
			for _, m := range []credits.XPMap{
				{credits.LanguageArts: 200, credits.Math: 16400, credits.Science: 3400},
				{credits.LanguageArts: 200, credits.Math: 16900, credits.Science: 2900},
				{credits.LanguageArts: 200, credits.Math: 17400, credits.Science: 2400},
				{credits.Math: 100, credits.Science: 200, credits.Electives: 19700},
			} {
				s, err := c.Summarize(m)

				So(err, ShouldBeNil)
				So(s.TotalCreditsEarned, ShouldEqual, 20)
				So(s.MeetsRequirements, ShouldBeTrue)
				So(s.Remaining(), ShouldEqual, 0)
				So(s.Percentage(), ShouldEqual, 100)
			}
		})

		Convey("When the total falls one xp short", func() {
			s, err := c.Summarize(credits.XPMap{credits.LanguageArts: 199, credits.Math: 16400, credits.Science: 3400})

			Convey("Then requirements are not met", func() {
				So(err, ShouldBeNil)
				So(s.MeetsRequirements, ShouldBeFalse)
				So(s.Remaining(), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When equal xp totals are spread across subjects differently", func() {
			rng := rand.New(rand.NewSource(7)) //nolint:gosec // deterministic test data
			defs := c.Definitions()

			Convey("Then every split reports the same total", func() {
				for _, xp := range []int64{300, 20000, 12345, 19999} {
					var want float64
					for i := 0; i < 50; i++ {
						m := credits.XPMap{}
						left := xp
						for left > 0 {
							step := 1 + rng.Int63n(left)
							m[defs[rng.Intn(len(defs))].Key] += step
							left -= step
						}
						s, err := c.Summarize(m)
						So(err, ShouldBeNil)
						if i == 0 {
							want = s.TotalCreditsEarned
						}
						So(s.TotalCreditsEarned, ShouldEqual, want)
						So(s.MeetsRequirements, ShouldEqual, xp >= 20000)
					}
				}
			})
		})
	})

	Convey("Given a catalog whose threshold is not exact in binary", t, func() {
		c, err := credits.NewCatalog([]credits.Definition{
			{Key: mathKey, CreditsRequired: 0.3, XPPerCredit: 10},
			{Key: scienceKey, CreditsRequired: 0.6, XPPerCredit: 10},
		}, 0.9)
		So(err, ShouldBeNil)

		Convey("When xp reaches it exactly", func() {
			s, err := c.Summarize(credits.XPMap{mathKey: 3, scienceKey: 6})

			Convey("Then requirements are met and each subject is complete", func() {
				So(err, ShouldBeNil)
				So(s.TotalCreditsEarned, ShouldEqual, 0.9)
				So(s.MeetsRequirements, ShouldBeTrue)

				breakdown, err := c.Breakdown(credits.XPMap{mathKey: 3, scienceKey: 6})
				So(err, ShouldBeNil)
				So(breakdown[0].IsComplete, ShouldBeTrue)
				So(breakdown[1].IsComplete, ShouldBeTrue)
			})
		})
	})
}

func TestCatalog_SummarizeProperties(t *testing.T) {
	Convey("Given the built-in catalog and random verified xp", t, func() {
		c := credits.DefaultCatalog()
		rng := rand.New(rand.NewSource(42)) //nolint:gosec // deterministic test data
		defs := c.Definitions()

		randomMap := func() credits.XPMap {
			m := credits.XPMap{}
			for _, def := range defs {
				if rng.Intn(3) > 0 {
					m[def.Key] = rng.Int63n(6000)
				}
			}
			return m
		}

		Convey("Then the total does not depend on key insertion order", func() {
			for i := 0; i < 100; i++ {
				m := randomMap()
				want, err := c.Summarize(m)
				So(err, ShouldBeNil)

				keys := make([]credits.SubjectKey, 0, len(m))
				for k := range m {
					keys = append(keys, k)
				}
				for j := 0; j < 5; j++ {
					rng.Shuffle(len(keys), func(a, b int) { keys[a], keys[b] = keys[b], keys[a] })
					shuffled := make(credits.XPMap, len(m))
					for _, k := range keys {
						shuffled[k] = m[k]
					}
					got, err := c.Summarize(shuffled)
					So(err, ShouldBeNil)
					So(got.TotalCreditsEarned, ShouldEqual, want.TotalCreditsEarned)
					So(got.MeetsRequirements, ShouldEqual, want.MeetsRequirements)
				}
			}
		})

		Convey("Then adding verified xp never lowers the total and never revokes readiness", func() {
			for i := 0; i < 100; i++ {
				m := randomMap()
				prev, err := c.Summarize(m)
				So(err, ShouldBeNil)
				for step := 0; step < 10; step++ {
					def := defs[rng.Intn(len(defs))]
					m[def.Key] += rng.Int63n(3000)
					next, err := c.Summarize(m)
					So(err, ShouldBeNil)
					So(next.TotalCreditsEarned, ShouldBeGreaterThanOrEqualTo, prev.TotalCreditsEarned)
					if prev.MeetsRequirements {
						So(next.MeetsRequirements, ShouldBeTrue)
					}
					prev = next
				}
			}
		})

		Convey("Then pending xp never grants readiness", func() {
			verified := credits.XPMap{}
			pending := credits.XPMap{}
			for _, def := range defs {
				verified[def.Key] = 0
				pending[def.Key] = 1 << 50
			}
			report, err := c.Evaluate(verified, pending, 0)
			So(err, ShouldBeNil)
			So(report.Summary.TotalCreditsEarned, ShouldEqual, 0)
			So(report.Summary.MeetsRequirements, ShouldBeFalse)
			for _, s := range report.Subjects {
				So(s.TotalWithPending, ShouldBeGreaterThan, s.CreditsRequired)
				So(s.IsComplete, ShouldBeFalse)
			}
		})
	})
}
