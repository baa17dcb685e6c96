package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/ageincome/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaults(t *testing.T) {
	Convey("Given a fresh Config", t, func() {
		cfg := config.New()

		Convey("Then the defaults match the published methodology", func() {
			So(cfg.IncomeVariable, ShouldEqual, "INCTOT")
			So(cfg.WeightVariable, ShouldEqual, "ASECWT")
			So(cfg.Percentiles, ShouldResemble, []float64{1, 5, 10, 25, 50, 75, 90, 95, 99})
			So(cfg.AgeMin, ShouldEqual, 16)
			So(cfg.AgeMax, ShouldEqual, 75)
			So(cfg.MinCellSize, ShouldEqual, 25)
			So(cfg.OutputPath, ShouldEqual, "income_percentiles.json")
			So(cfg.NoWorkerScreen, ShouldBeFalse)
			So(cfg.IncludeZeroIncome, ShouldBeFalse)
			So(cfg.WriteCSV, ShouldBeTrue)
			So(cfg.WorkerCount, ShouldBeGreaterThanOrEqualTo, 1)
		})

		Convey("And they validate cleanly", func() {
			So(cfg.Validate(), ShouldBeNil)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given a valid base config", t, func() {
		base := config.New()

		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty output path", func(c *config.Config) { c.OutputPath = "" }},
			{"empty percentile list", func(c *config.Config) { c.Percentiles = nil }},
			{"rank above 100", func(c *config.Config) { c.Percentiles = []float64{50, 101} }},
			{"negative rank", func(c *config.Config) { c.Percentiles = []float64{-1, 50} }},
			{"non-increasing ranks", func(c *config.Config) { c.Percentiles = []float64{50, 50} }},
			{"inverted age window", func(c *config.Config) { c.AgeMin = 80; c.AgeMax = 20 }},
			{"negative age_min", func(c *config.Config) { c.AgeMin = -1 }},
			{"zero min_cell_size", func(c *config.Config) { c.MinCellSize = 0 }},
			{"zero worker_count", func(c *config.Config) { c.WorkerCount = 0 }},
			{"empty income variable", func(c *config.Config) { c.IncomeVariable = "" }},
			{"empty weight variable", func(c *config.Config) { c.WeightVariable = "" }},
		}

		for _, tc := range cases {
			Convey("When the config has "+tc.name, func() {
				cfg := *base
				tc.mutate(&cfg)

				Convey("Then validation rejects it", func() {
					So(cfg.Validate(), ShouldWrap, config.ErrInvalidConfig)
				})
			})
		}
	})
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	Convey("Given no file and no environment overrides", t, func() {
		t.Setenv("AGEINCOME_CONFIG", "")

		Convey("When loading", func() {
			cfg, err := config.Load(ctx)

			Convey("Then the defaults come back", func() {
				So(err, ShouldBeNil)
				So(cfg.AgeMin, ShouldEqual, 16)
				So(cfg.OutputPath, ShouldEqual, "income_percentiles.json")
			})
		})
	})

	Convey("Given environment overrides", t, func() {
		t.Setenv("AGEINCOME_CONFIG", "")
		t.Setenv("AGEINCOME_INPUT", "/data/cps_asec.csv.gz")
		t.Setenv("AGEINCOME_AGE_MIN", "18")
		t.Setenv("AGEINCOME_LOG_LEVEL", "debug")

		Convey("When loading", func() {
			cfg, err := config.Load(ctx)

			Convey("Then env wins over defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.InputPath, ShouldEqual, "/data/cps_asec.csv.gz")
				So(cfg.AgeMin, ShouldEqual, 18)
				So(cfg.LogLevel, ShouldEqual, "debug")
				So(cfg.AgeMax, ShouldEqual, 75)
			})
		})
	})

	Convey("Given a YAML config file", t, func() {
		path := filepath.Join(t.TempDir(), "ageincome.yaml")
		content := "output: /tmp/custom.json\nmin_cell_size: 50\n"
		So(os.WriteFile(path, []byte(content), 0o600), ShouldBeNil)
		t.Setenv("AGEINCOME_CONFIG", path)

		Convey("When loading", func() {
			cfg, err := config.Load(ctx)

			Convey("Then file values layer over defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.OutputPath, ShouldEqual, "/tmp/custom.json")
				So(cfg.MinCellSize, ShouldEqual, 50)
			})
		})

		Convey("When an env var overrides the file", func() {
			t.Setenv("AGEINCOME_MIN_CELL_SIZE", "10")
			cfg, err := config.Load(ctx)

			Convey("Then env wins", func() {
				So(err, ShouldBeNil)
				So(cfg.MinCellSize, ShouldEqual, 10)
			})
		})
	})

	Convey("Given a config file path that does not exist", t, func() {
		t.Setenv("AGEINCOME_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

		Convey("When loading", func() {
			_, err := config.Load(ctx)

			Convey("Then loading fails with a load error", func() {
				So(err, ShouldWrap, config.ErrLoadConfig)
			})
		})
	})

	Convey("Given an invalid override", t, func() {
		t.Setenv("AGEINCOME_CONFIG", "")
		t.Setenv("AGEINCOME_MIN_CELL_SIZE", "0")

		Convey("When loading", func() {
			_, err := config.Load(ctx)

			Convey("Then validation rejects it", func() {
				So(err, ShouldWrap, config.ErrInvalidConfig)
			})
		})
	})
}
