package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/okian/diploma/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCohortEntry(t *testing.T) {
	Convey("Given a CohortEntry", t, func() {
		entry := types.CohortEntry{
			Rank:              2,
			StudentID:         "student-7",
			CreditsEarned:     18.25,
			MeetsRequirements: false,
		}

		Convey("When encoding it as JSON", func() {
			data, err := json.Marshal(entry)

			Convey("Then it uses snake_case field names", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual,
					`{"rank":2,"student_id":"student-7","credits_earned":18.25,"meets_requirements":false}`)
			})
		})

		Convey("When it is the zero value", func() {
			var zero types.CohortEntry

			Convey("Then it has no rank and no credits", func() {
				So(zero.Rank, ShouldEqual, 0)
				So(zero.StudentID, ShouldBeEmpty)
				So(zero.CreditsEarned, ShouldEqual, 0.0)
				So(zero.MeetsRequirements, ShouldBeFalse)
			})
		})
	})
}
