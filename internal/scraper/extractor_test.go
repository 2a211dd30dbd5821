package scraper

import (
	"errors"
	"testing"

	"github.com/pfrederiksen/xc-results/internal/race"
	"github.com/pfrederiksen/xc-results/internal/racetime"
)

func TestDispatcher(t *testing.T) {
	d := NewDispatcher(Options{ReferenceYear: 2026})

	if got := d.Algorithms(); len(got) != len(race.Algorithms) {
		t.Errorf("Algorithms() = %v, want %d entries", got, len(race.Algorithms))
	}

	for _, alg := range race.Algorithms {
		t.Run(string(alg), func(t *testing.T) {
			ex, err := d.For(alg)
			if err != nil {
				t.Fatalf("For(%q) error = %v", alg, err)
			}
			if ex.Algorithm() != alg {
				t.Errorf("For(%q).Algorithm() = %q", alg, ex.Algorithm())
			}
		})
	}

	ex, err := d.For("")
	if err != nil || ex.Algorithm() != race.AlgorithmDefault {
		t.Errorf("For(\"\") = %v, %v; want default chain", ex, err)
	}

	if _, err := d.For("csv"); err == nil {
		t.Error("For(csv) should fail")
	}
}

func TestStrictness(t *testing.T) {
	d := NewDispatcher(Options{})
	strict := map[race.Algorithm]bool{race.AlgorithmHyTek: true}

	for _, alg := range race.Algorithms {
		ex, _ := d.For(alg)
		if ex.Strict() != strict[alg] {
			t.Errorf("%s Strict() = %v, want %v", alg, ex.Strict(), strict[alg])
		}
	}
}

func TestParseTimeCeilingIsFatal(t *testing.T) {
	_, err := parseTime("1:00:00.01")
	if !race.IsFatal(err) || !errors.Is(err, racetime.ErrExceedsCeiling) {
		t.Errorf("parseTime() error = %v, want fatal ceiling error", err)
	}

	_, err = parseTime("abc")
	if err == nil || race.IsFatal(err) {
		t.Errorf("parseTime(abc) error = %v, want non-fatal", err)
	}

	v, err := parseTime("60:00")
	if err != nil || v != 3600 {
		t.Errorf("parseTime(60:00) = %v, %v; want 3600 at the ceiling", v, err)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 3); got != "abc..." {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("abc", 3); got != "abc" {
		t.Errorf("truncate() = %q", got)
	}
}
