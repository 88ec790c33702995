package credits_test

import (
	"errors"
	"testing"

	"github.com/okian/diploma/internal/domain/credits"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCatalog_Merge(t *testing.T) {
	Convey("Given verified {math: 100} and pending {math: 50, science: 30}", t, func() {
		c := testCatalog()
		merged, err := c.Merge(
			credits.XPMap{mathKey: 100},
			credits.XPMap{mathKey: 50, scienceKey: 30},
		)

		Convey("Then both subjects appear in catalog order", func() {
			So(err, ShouldBeNil)
			So(len(merged), ShouldEqual, 2)
			So(merged[0].Subject, ShouldEqual, mathKey)
			So(merged[1].Subject, ShouldEqual, scienceKey)
		})

		Convey("Then math shows verified and pending credits separately", func() {
			m := merged[0]
			So(m.CreditsEarned, ShouldEqual, 1.0)
			So(m.PendingCreditsEarned, ShouldEqual, 0.5)
			So(m.PendingXPEarned, ShouldEqual, 50)
			So(m.TotalWithPending, ShouldEqual, 1.5)
			So(m.ProgressPercentage, ShouldEqual, 50)
			So(m.TotalPercentage, ShouldEqual, 75)
		})

		Convey("Then science with only pending xp has zero verified credits", func() {
			s := merged[1]
			So(s.CreditsEarned, ShouldEqual, 0)
			So(s.XPEarned, ShouldEqual, 0)
			So(s.PendingCreditsEarned, ShouldEqual, 0.3)
			So(s.TotalWithPending, ShouldEqual, 0.3)
			So(s.IsComplete, ShouldBeFalse)
			So(s.CreditsRequired, ShouldEqual, 2)
		})
	})

	Convey("Given no pending map", t, func() {
		c := testCatalog()
		merged, err := c.Merge(credits.XPMap{mathKey: 300, artKey: 10}, nil)

		Convey("Then pending fields are zero and totals equal verified credits", func() {
			So(err, ShouldBeNil)
			So(len(merged), ShouldEqual, 2)
			for _, m := range merged {
				So(m.PendingXPEarned, ShouldEqual, 0)
				So(m.PendingCreditsEarned, ShouldEqual, 0)
				So(m.TotalWithPending, ShouldEqual, m.CreditsEarned)
			}
			So(merged[0].TotalWithPending, ShouldEqual, 3)
			So(merged[0].TotalPercentage, ShouldEqual, 100)
		})
	})

	Convey("Given a pending map with an unknown subject", t, func() {
		c := testCatalog()
		merged, err := c.Merge(credits.XPMap{mathKey: 100}, credits.XPMap{"history": 10})

		Convey("Then no partial result is returned", func() {
			So(merged, ShouldBeNil)
			So(errors.Is(err, credits.ErrUnknownSubject), ShouldBeTrue)
		})
	})

	Convey("Given a verified map with an unknown subject", t, func() {
		c := testCatalog()
		report, err := c.Evaluate(credits.XPMap{"history": 10}, credits.XPMap{mathKey: 5}, 3)

		Convey("Then Evaluate fails before building anything", func() {
			So(errors.Is(err, credits.ErrUnknownSubject), ShouldBeTrue)
			So(report.Subjects, ShouldBeNil)
			So(report.TopSubjects, ShouldBeNil)
		})
	})
}

func TestCatalog_TopSubjects(t *testing.T) {
	Convey("Given subjects with tied credits", t, func() {
		c := testCatalog()
		progress := []credits.SubjectProgress{
			{Subject: artKey, CreditsEarned: 1},
			{Subject: scienceKey, CreditsEarned: 1},
			{Subject: mathKey, CreditsEarned: 0.5},
		}

		Convey("When ranking all of them", func() {
			ranked := c.TopSubjects(progress, 0)

			Convey("Then ties keep catalog order and the input is untouched", func() {
				So(len(ranked), ShouldEqual, 3)
				So(ranked[0].Subject, ShouldEqual, scienceKey)
				So(ranked[1].Subject, ShouldEqual, artKey)
				So(ranked[2].Subject, ShouldEqual, mathKey)
				So(progress[0].Subject, ShouldEqual, artKey)
			})
		})

		Convey("When ranking repeatedly", func() {
			first := c.TopSubjects(progress, 2)

			Convey("Then the order is stable across calls", func() {
				for i := 0; i < 20; i++ {
					So(c.TopSubjects(progress, 2), ShouldResemble, first)
				}
				So(len(first), ShouldEqual, 2)
			})
		})
	})

	Convey("Given a full evaluation", t, func() {
		c := testCatalog()
		report, err := c.Evaluate(
			credits.XPMap{mathKey: 100, scienceKey: 150, artKey: 50},
			credits.XPMap{mathKey: 1000},
			2,
		)

		Convey("Then top subjects are ranked by verified credits only", func() {
			So(err, ShouldBeNil)
			So(len(report.TopSubjects), ShouldEqual, 2)
			So(report.TopSubjects[0].Subject, ShouldEqual, scienceKey)
			So(report.TopSubjects[1].Subject, ShouldEqual, mathKey)
			So(report.Summary.TotalCreditsEarned, ShouldEqual, 3.5)
			So(report.Summary.MeetsRequirements, ShouldBeFalse)
		})
	})
}

func TestCatalog_MergeExactTotals(t *testing.T) {
	Convey("Given verified and pending credits that are not exact in binary", t, func() {
		merged, err := credits.DefaultCatalog().Merge(
			credits.XPMap{credits.Math: 100},
			credits.XPMap{credits.Math: 200},
		)

		Convey("Then the combined total is the exact sum", func() {
			So(err, ShouldBeNil)
			So(merged, ShouldHaveLength, 1)
			So(merged[0].TotalWithPending, ShouldEqual, 0.3)
		})
	})
}
