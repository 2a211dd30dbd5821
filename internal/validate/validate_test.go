package validate

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/pfrederiksen/xc-results/internal/race"
	"github.com/pfrederiksen/xc-results/internal/racetime"
)

func records(places ...int) []race.Record {
	out := make([]race.Record, 0, len(places))
	for i, p := range places {
		out = append(out, race.Record{
			Place:   p,
			Athlete: race.Athlete{FirstName: "Runner", LastName: string(rune('A' + i))},
			Seconds: 1000 + float64(i),
		})
	}
	return out
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name         string
		records      []race.Record
		wantKept     int
		wantMax      int
		wantMismatch bool
		wantDupes    []int
	}{
		{
			name:     "contiguous places",
			records:  records(1, 2, 3, 4, 5),
			wantKept: 5,
			wantMax:  5,
		},
		{
			name:         "gap in places is a soft mismatch",
			records:      records(1, 2, 3, 4, 6),
			wantKept:     5,
			wantMax:      6,
			wantMismatch: true,
		},
		{
			name:      "duplicate place dropped",
			records:   records(1, 2, 2, 3),
			wantKept:  3,
			wantMax:   3,
			wantDupes: []int{2},
		},
		{
			name:     "empty input",
			records:  nil,
			wantKept: 0,
			wantMax:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, report, err := Check(tt.records)
			if err != nil {
				t.Fatalf("Check() unexpected error: %v", err)
			}

			if len(kept) != tt.wantKept {
				t.Errorf("kept %d records, want %d", len(kept), tt.wantKept)
			}
			if report.MaxPlace != tt.wantMax {
				t.Errorf("MaxPlace = %d, want %d", report.MaxPlace, tt.wantMax)
			}
			if report.PlaceMismatch() != tt.wantMismatch {
				t.Errorf("PlaceMismatch() = %v, want %v", report.PlaceMismatch(), tt.wantMismatch)
			}
			if len(report.DuplicatePlaces) != len(tt.wantDupes) {
				t.Errorf("DuplicatePlaces = %v, want %v", report.DuplicatePlaces, tt.wantDupes)
			}
		})
	}
}

func TestCheck_MismatchWarning(t *testing.T) {
	_, report, err := Check(records(1, 2, 3, 4, 6))
	if err != nil {
		t.Fatalf("mismatch must not abort: %v", err)
	}

	found := false
	for _, w := range report.Warnings {
		if strings.Contains(w, "max place 6") && strings.Contains(w, "count 5") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected mismatch warning, got %v", report.Warnings)
	}
}

func TestCheck_Ceiling(t *testing.T) {
	recs := records(1, 2)
	recs[1].Seconds = racetime.Ceiling + 0.01

	_, _, err := Check(recs)
	if !race.IsFatal(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if !errors.Is(err, racetime.ErrExceedsCeiling) {
		t.Errorf("expected ErrExceedsCeiling in chain, got %v", err)
	}
}

func TestCheck_InvalidValues(t *testing.T) {
	recs := records(1, 2, 3, 0)
	recs[1].Seconds = math.NaN()
	recs[2].Seconds = -5

	kept, report, err := Check(recs)
	if err != nil {
		t.Fatalf("Check() unexpected error: %v", err)
	}
	if len(kept) != 1 {
		t.Errorf("kept %d records, want 1", len(kept))
	}
	if len(report.Warnings) < 3 {
		t.Errorf("expected a warning per dropped record, got %v", report.Warnings)
	}
}
