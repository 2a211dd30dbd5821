// Package validate sanity-checks one extractor invocation's output before it
// is normalized and merged.
package validate

import (
	"fmt"
	"math"
	"sort"

	"github.com/pfrederiksen/xc-results/internal/race"
	"github.com/pfrederiksen/xc-results/internal/racetime"
)

// Report describes what Check found.
type Report struct {
	Count           int
	MaxPlace        int
	DuplicatePlaces []int
	Warnings        []string
}

// PlaceMismatch reports whether the highest place differs from the record
// count. Publishers that drop scratched athletes trigger this.
func (r *Report) PlaceMismatch() bool {
	return r.MaxPlace != r.Count
}

// Check validates records and returns the records to keep. Records sharing a
// place with an earlier record are dropped and reported. Places below one,
// negative times and non-finite times are dropped. A time above the sanity
// ceiling returns a fatal error; nothing is kept in that case.
func Check(records []race.Record) ([]race.Record, *Report, error) {
	report := &Report{}
	kept := make([]race.Record, 0, len(records))
	places := make(map[int]bool, len(records))
	dupes := make(map[int]bool)

	for _, rec := range records {
		if math.IsNaN(rec.Seconds) || math.IsInf(rec.Seconds, 0) || rec.Seconds < 0 {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("dropped place %d: invalid time %v", rec.Place, rec.Seconds))
			continue
		}
		if rec.Seconds > racetime.Ceiling {
			return nil, report, race.Fatal(
				fmt.Sprintf("place %d time %s above %v seconds", rec.Place, racetime.Format(rec.Seconds), racetime.Ceiling),
				racetime.ErrExceedsCeiling)
		}
		if rec.Place < 1 {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("dropped %s: invalid place %d", rec.Athlete.FullName(), rec.Place))
			continue
		}
		if places[rec.Place] {
			dupes[rec.Place] = true
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("dropped %s: place %d already taken", rec.Athlete.FullName(), rec.Place))
			continue
		}

		places[rec.Place] = true
		kept = append(kept, rec)
		if rec.Place > report.MaxPlace {
			report.MaxPlace = rec.Place
		}
	}

	report.Count = len(kept)
	for p := range dupes {
		report.DuplicatePlaces = append(report.DuplicatePlaces, p)
	}
	sort.Ints(report.DuplicatePlaces)

	if report.PlaceMismatch() {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("max place %d does not match record count %d", report.MaxPlace, report.Count))
	}

	return kept, report, nil
}
