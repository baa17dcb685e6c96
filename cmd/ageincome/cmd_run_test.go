package main

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/ageincome/internal/config"
)

func TestApplyRunFlags(t *testing.T) {
	Convey("Given a loaded, valid config", t, func() {
		cfg := config.New()
		So(cfg.Validate(), ShouldBeNil)

		Convey("When flags push values out of bounds", func() {
			So(runCmd.Flags().Set("workers", "0"), ShouldBeNil)
			So(runCmd.Flags().Set("age-min", "80"), ShouldBeNil)
			So(runCmd.Flags().Set("age-max", "20"), ShouldBeNil)
			applyRunFlags(runCmd, cfg)

			Convey("Then the merged config no longer validates", func() {
				So(cfg.WorkerCount, ShouldEqual, 0)
				So(cfg.AgeMin, ShouldEqual, 80)
				So(cfg.Validate(), ShouldWrap, config.ErrInvalidConfig)
			})
		})

		Convey("When flags stay within bounds", func() {
			So(runCmd.Flags().Set("workers", "4"), ShouldBeNil)
			So(runCmd.Flags().Set("age-min", "18"), ShouldBeNil)
			So(runCmd.Flags().Set("age-max", "70"), ShouldBeNil)
			So(runCmd.Flags().Set("output", "out.json"), ShouldBeNil)
			applyRunFlags(runCmd, cfg)

			Convey("Then the overrides land and still validate", func() {
				So(cfg.WorkerCount, ShouldEqual, 4)
				So(cfg.AgeMin, ShouldEqual, 18)
				So(cfg.AgeMax, ShouldEqual, 70)
				So(cfg.OutputPath, ShouldEqual, "out.json")
				So(cfg.Validate(), ShouldBeNil)
			})
		})
	})
}

func TestCSVSibling(t *testing.T) {
	Convey("Given artifact paths", t, func() {
		So(csvSibling("income_percentiles.json"), ShouldEqual, "income_percentiles.csv")
		So(csvSibling("out/data"), ShouldEqual, "out/data.csv")
	})
}
