package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pfrederiksen/xc-results/internal/race"
)

const envPrefix = "XCR_"

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}

// Load builds a Config by layering defaults, the YAML file at path, and env
// vars. An empty path falls back to XCR_CONFIG; with neither set only
// defaults and env apply. Order of precedence (low -> high):
//  1. defaults (New)
//  2. file (YAML)
//  3. env (prefix XCR_), e.g. XCR_STORE, XCR_WORKERS
//
// Store falls back to DATABASE_URL, then DefaultStore.
func Load(path string) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// XCR_POLITENESS_DELAY -> politeness_delay. Keys are flat, so underscores
	// are kept to match the koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: environment: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
		cfg.Dir = filepath.Dir(abs)
	}

	if cfg.Store == "" {
		cfg.Store = os.Getenv("DATABASE_URL")
	}
	if cfg.Store == "" {
		cfg.Store = DefaultStore
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings and normalizes each race's algorithm identifier.
// Layout-specific descriptor checks happen when the batch starts.
func (c *Config) Validate() error {
	if !logLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("%w: fetch_timeout must be positive", ErrInvalidConfig)
	}
	if c.PolitenessDelay < 0 {
		return fmt.Errorf("%w: politeness_delay must not be negative", ErrInvalidConfig)
	}
	if c.GradReferenceYear < 1900 {
		return fmt.Errorf("%w: grad_reference_year %d out of range", ErrInvalidConfig, c.GradReferenceYear)
	}

	for i := range c.Races {
		d := &c.Races[i]
		alg, err := race.ParseAlgorithm(string(d.Algorithm))
		if err != nil {
			return fmt.Errorf("%w: races[%d] (%s): %w", ErrInvalidConfig, i, d.Name(), err)
		}
		d.Algorithm = alg
		if d.RaceNumber < 0 {
			return fmt.Errorf("%w: races[%d] (%s): race_number must not be negative", ErrInvalidConfig, i, d.Name())
		}
	}
	return nil
}
