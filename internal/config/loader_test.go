package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pfrederiksen/xc-results/internal/config"
	"github.com/pfrederiksen/xc-results/internal/race"
	"github.com/smartystreets/goconvey/convey"
)

const racesYAML = `
log_level: debug
store: sqlite://results.db
politeness_delay: 500ms
workers: 3
grad_reference_year: 2026
school_aliases:
  "fchs": "Fort Collins High School"
races:
  - meet_name: Fort Collins Invitational
    race_name: Varsity Boys
    distance: 5K
    race_class: varsity
    gender: boys
    venue: Edora Park
    date: "2025-09-12"
    season: "2025"
    file: results/fci.txt
    algorithm: HyTek
    results_title: Varsity Boys 5000 Meter Run
  - meet_name: Poudre Classic
    race_name: JV Girls
    distance: 3 Mile
    race_class: jv
    gender: girls
    url: https://example.com/classic
    race_number: 2
    algorithm: indexed
`

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load("")

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
				convey.So(cfg.Store, convey.ShouldEqual, config.DefaultStore)
				convey.So(cfg.Workers, convey.ShouldEqual, 1)
				convey.So(cfg.FetchTimeout, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.PolitenessDelay, convey.ShouldEqual, config.DefaultPolitenessDelay)
				convey.So(cfg.GradReferenceYear, convey.ShouldEqual, 2025)
				convey.So(cfg.Races, convey.ShouldBeEmpty)
				convey.So(cfg.Dir, convey.ShouldEqual, "")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeConfigFile(t, racesYAML)
			cfg, err := config.Load(path)

			convey.Convey("Then settings and races come from the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.Store, convey.ShouldEqual, "sqlite://results.db")
				convey.So(cfg.PolitenessDelay, convey.ShouldEqual, 500*time.Millisecond)
				convey.So(cfg.Workers, convey.ShouldEqual, 3)
				convey.So(cfg.GradReferenceYear, convey.ShouldEqual, 2026)
				convey.So(cfg.SchoolAliases["fchs"], convey.ShouldEqual, "Fort Collins High School")
				convey.So(cfg.Dir, convey.ShouldEqual, filepath.Dir(path))
				convey.So(len(cfg.Races), convey.ShouldEqual, 2)
			})

			convey.Convey("Then race descriptors are decoded and normalized", func() {
				convey.So(err, convey.ShouldBeNil)
				first := cfg.Races[0]
				convey.So(first.MeetName, convey.ShouldEqual, "Fort Collins Invitational")
				convey.So(first.Date, convey.ShouldEqual, "2025-09-12")
				convey.So(first.File, convey.ShouldEqual, "results/fci.txt")
				convey.So(first.Algorithm, convey.ShouldEqual, race.AlgorithmHyTek)
				convey.So(first.ResultsTitle, convey.ShouldEqual, "Varsity Boys 5000 Meter Run")

				second := cfg.Races[1]
				convey.So(second.URL, convey.ShouldEqual, "https://example.com/classic")
				convey.So(second.RaceNumber, convey.ShouldEqual, 2)
				convey.So(second.Algorithm, convey.ShouldEqual, race.AlgorithmIndexed)
				convey.So(second.StorageGender(), convey.ShouldEqual, race.GenderFemale)
			})
		})

		convey.Convey("When XCR_CONFIG names the file", func() {
			path := writeConfigFile(t, racesYAML)
			_ = os.Setenv("XCR_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load("")

			convey.Convey("Then the file is loaded", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(cfg.Races), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			path := writeConfigFile(t, racesYAML)
			_ = os.Setenv("XCR_WORKERS", "8")
			_ = os.Setenv("XCR_STORE", "memory://")
			_ = os.Setenv("XCR_FETCH_TIMEOUT", "5s")
			defer clearConfigEnvVars()

			cfg, err := config.Load(path)

			convey.Convey("Then environment variables take precedence", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Workers, convey.ShouldEqual, 8)
				convey.So(cfg.Store, convey.ShouldEqual, "memory://")
				convey.So(cfg.FetchTimeout, convey.ShouldEqual, 5*time.Second)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			})
		})

		convey.Convey("When only DATABASE_URL names a store", func() {
			_ = os.Setenv("DATABASE_URL", "postgres://xc:xc@localhost/xc")
			defer clearConfigEnvVars()

			cfg, err := config.Load("")

			convey.Convey("Then it is used as the store", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Store, convey.ShouldEqual, "postgres://xc:xc@localhost/xc")
			})
		})

		convey.Convey("When the file does not exist", func() {
			_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the file is not valid YAML", func() {
			_, err := config.Load(writeConfigFile(t, "races: [unclosed"))

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfigValidation(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		clearConfigEnvVars()

		tests := []struct {
			name    string
			content string
		}{
			{"unknown algorithm", "races:\n  - race_name: x\n    algorithm: csv\n"},
			{"negative race number", "races:\n  - race_name: x\n    race_number: -1\n"},
			{"zero workers", "workers: 0\n"},
			{"unknown log level", "log_level: loud\n"},
			{"negative delay", "politeness_delay: -1s\n"},
			{"implausible grad year", "grad_reference_year: 25\n"},
		}

		for _, tt := range tests {
			path := writeConfigFile(t, tt.content)

			convey.Convey("When loading "+tt.name, func() {
				_, err := config.Load(path)

				convey.Convey("Then ErrInvalidConfig is returned", func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}
	})
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "races.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, name := range []string{
		"XCR_CONFIG",
		"XCR_STORE",
		"XCR_WORKERS",
		"XCR_FETCH_TIMEOUT",
		"XCR_LOG_LEVEL",
		"DATABASE_URL",
	} {
		_ = os.Unsetenv(name)
	}
}
