package ingest

import (
	"time"

	"github.com/pfrederiksen/xc-results/internal/race"
	"github.com/pfrederiksen/xc-results/internal/racetime"
)

// Status is the outcome of one race.
type Status string

const (
	StatusStored  Status = "stored"
	StatusParsed  Status = "parsed" // dry run: extracted and validated, not written
	StatusSkipped Status = "skipped"
	StatusEmpty   Status = "empty"
	StatusFailed  Status = "failed"
	StatusFatal   Status = "fatal"
)

// Winner is the first-place finisher of a race.
type Winner struct {
	Name    string  `json:"name"`
	School  string  `json:"school"`
	Seconds float64 `json:"time_seconds"`
	Time    string  `json:"time"`
	Pace    string  `json:"pace,omitempty"`
}

// RaceSummary reports what happened to one descriptor.
type RaceSummary struct {
	Race      race.Descriptor `json:"race"`
	Status    Status          `json:"status"`
	Parsed    int             `json:"parsed"`
	Kept      int             `json:"kept"`
	Inserted  int             `json:"inserted"`
	Existing  int             `json:"existing"`
	Repeated  int             `json:"repeated"`
	Warnings  []string        `json:"warnings,omitempty"`
	Winner    *Winner         `json:"winner,omitempty"`
	Error     string          `json:"error,omitempty"`
	ElapsedMS int64           `json:"elapsed_ms"`
}

// Report is the result of one Run.
type Report struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	DryRun     bool          `json:"dry_run"`
	Races      []RaceSummary `json:"races"`
}

// Count returns how many races ended with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, rs := range r.Races {
		if rs.Status == s {
			n++
		}
	}
	return n
}

// Inserted returns the total rows written.
func (r *Report) Inserted() int {
	n := 0
	for _, rs := range r.Races {
		n += rs.Inserted
	}
	return n
}

// Parsed returns the total records extracted.
func (r *Report) Parsed() int {
	n := 0
	for _, rs := range r.Races {
		n += rs.Parsed
	}
	return n
}

// winnerOf picks the lowest place among records.
func winnerOf(records []race.Record, distance string) *Winner {
	var best *race.Record
	for i := range records {
		if best == nil || records[i].Place < best.Place {
			best = &records[i]
		}
	}
	if best == nil {
		return nil
	}

	w := &Winner{
		Name:    best.Athlete.FullName(),
		School:  best.Athlete.School,
		Seconds: best.Seconds,
		Time:    racetime.Format(best.Seconds),
	}
	if pace, ok := racetime.Pace(best.Seconds, distance); ok {
		w.Pace = racetime.Format(pace) + "/mi"
	}
	return w
}
