package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/diploma/internal/config"
	"github.com/okian/diploma/internal/domain/credits"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 200_000)
			convey.So(cfg.MaxCohortLimit, convey.ShouldEqual, 100)
			convey.So(cfg.TopSubjects, convey.ShouldEqual, 3)
			convey.So(cfg.TotalCreditsRequired, convey.ShouldEqual, credits.TotalCreditsRequired)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the built-in catalog is used", func() {
			c, err := cfg.Catalog()
			convey.So(err, convey.ShouldBeNil)
			convey.So(c, convey.ShouldEqual, credits.DefaultCatalog())
		})
	})
}

func TestConfig_Catalog(t *testing.T) {
	convey.Convey("Given custom subjects", t, func() {
		cfg := config.New()
		cfg.TotalCreditsRequired = 5
		cfg.Subjects = []config.SubjectConfig{
			{Key: "math", DisplayName: "Math", CreditsRequired: 2, XPPerCredit: 100},
			{Key: "science", CreditsRequired: 3, XPPerCredit: 200},
		}

		convey.Convey("Then the catalog reflects them", func() {
			c, err := cfg.Catalog()
			convey.So(err, convey.ShouldBeNil)
			convey.So(c.Len(), convey.ShouldEqual, 2)
			convey.So(c.TotalCreditsRequired(), convey.ShouldEqual, 5)
			def, err := c.Lookup("science")
			convey.So(err, convey.ShouldBeNil)
			convey.So(def.XPPerCredit, convey.ShouldEqual, 200)
		})

		convey.Convey("When a subject is invalid", func() {
			cfg.Subjects[1].XPPerCredit = 0

			convey.Convey("Then validation fails", func() {
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(errors.Is(err, credits.ErrInvalidCatalog), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given only a different threshold", t, func() {
		cfg := config.New()
		cfg.TotalCreditsRequired = 24

		convey.Convey("Then the built-in subjects are kept with the new threshold", func() {
			c, err := cfg.Catalog()
			convey.So(err, convey.ShouldBeNil)
			convey.So(c.Len(), convey.ShouldEqual, credits.DefaultCatalog().Len())
			convey.So(c.TotalCreditsRequired(), convey.ShouldEqual, 24)
		})
	})
}
