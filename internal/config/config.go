// Package config loads application settings and the list of races to ingest.
//
// Values are layered, lowest precedence first: built-in defaults, a YAML
// file, then XCR_-prefixed environment variables.
package config

import (
	"time"

	"github.com/pfrederiksen/xc-results/internal/race"
	"github.com/pfrederiksen/xc-results/internal/scraper"
)

const (
	// DefaultStore is the JSON snapshot directory used when neither store nor
	// DATABASE_URL is set.
	DefaultStore = "~/.local/share/xc-results"

	DefaultPolitenessDelay = 2 * time.Second
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Store is the storage DSN, see storage.Open.
	Store string `koanf:"store"`

	UserAgent    string        `koanf:"user_agent"`
	FetchTimeout time.Duration `koanf:"fetch_timeout"`

	// PolitenessDelay is the pause after each network fetch.
	PolitenessDelay time.Duration `koanf:"politeness_delay"`

	// Workers bounds how many races are processed at once.
	Workers int `koanf:"workers"`

	// GradReferenceYear is the graduation year of this season's seniors.
	GradReferenceYear int `koanf:"grad_reference_year"`

	// MetricsFile, when set, receives a Prometheus textfile after each run.
	MetricsFile string `koanf:"metrics_file"`

	// SchoolAliases extends the built-in school name normalization table.
	SchoolAliases map[string]string `koanf:"school_aliases"`

	Races []race.Descriptor `koanf:"races"`

	// Dir is the directory of the loaded file. Relative race file paths
	// resolve against it.
	Dir string `koanf:"-"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		UserAgent:         scraper.UserAgent,
		FetchTimeout:      scraper.Timeout,
		PolitenessDelay:   DefaultPolitenessDelay,
		Workers:           1,
		GradReferenceYear: scraper.DefaultReferenceYear,
		SchoolAliases:     map[string]string{},
	}
}
