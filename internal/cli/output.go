package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pfrederiksen/xc-results/internal/ingest"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult is the JSON document written for a run.
type OutputResult struct {
	*ingest.Report
	RaceCount     int `json:"race_count"`
	ParsedCount   int `json:"parsed_count"`
	InsertedCount int `json:"inserted_count"`
}

// WriteOutput writes the report in the specified format
func WriteOutput(w io.Writer, report *ingest.Report, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatText:
		return writeText(w, report, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs the report as JSON
func writeJSON(w io.Writer, report *ingest.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(OutputResult{
		Report:        report,
		RaceCount:     len(report.Races),
		ParsedCount:   report.Parsed(),
		InsertedCount: report.Inserted(),
	})
}

// writeText outputs the report as human-readable text
func writeText(w io.Writer, report *ingest.Report, verbose bool) error {
	if len(report.Races) == 0 {
		fmt.Fprintln(w, "No races selected.")
		return nil
	}

	for _, rs := range report.Races {
		fmt.Fprintf(w, "%s: %s\n", raceLabel(rs), strings.ToUpper(string(rs.Status)))

		switch rs.Status {
		case ingest.StatusStored:
			fmt.Fprintf(w, "  %d parsed, %d new, %d already stored\n", rs.Parsed, rs.Inserted, rs.Existing)
		case ingest.StatusParsed:
			fmt.Fprintf(w, "  %d parsed, %d kept\n", rs.Parsed, rs.Kept)
		default:
			if rs.Error != "" {
				fmt.Fprintf(w, "  %s\n", rs.Error)
			}
		}

		if rs.Winner != nil {
			winner := fmt.Sprintf("  Winner: %s", rs.Winner.Name)
			if rs.Winner.School != "" {
				winner += fmt.Sprintf(" (%s)", rs.Winner.School)
			}
			winner += " " + rs.Winner.Time
			if rs.Winner.Pace != "" {
				winner += ", " + rs.Winner.Pace
			}
			fmt.Fprintln(w, winner)
		}

		if verbose {
			fmt.Fprintf(w, "     Source: %s\n", rs.Race.Source())
			if rs.Race.Date != "" {
				fmt.Fprintf(w, "     Date: %s\n", rs.Race.Date)
			}
			if rs.Repeated > 0 {
				fmt.Fprintf(w, "     Repeated in source: %d\n", rs.Repeated)
			}
			for _, warning := range rs.Warnings {
				fmt.Fprintf(w, "     Warning: %s\n", warning)
			}
			fmt.Fprintf(w, "     Elapsed: %dms\n", rs.ElapsedMS)
		}
	}

	if report.DryRun {
		fmt.Fprintf(w, "\nTotal: %d races, %d results parsed, nothing written (dry run)\n",
			len(report.Races), report.Parsed())
	} else {
		fmt.Fprintf(w, "\nTotal: %d races, %d results parsed, %d stored\n",
			len(report.Races), report.Parsed(), report.Inserted())
	}

	return nil
}

// raceLabel names a race as "Meet / Race", or just the meet for single-race meets.
func raceLabel(rs ingest.RaceSummary) string {
	name := rs.Race.Name()
	if rs.Race.MeetName == "" || name == rs.Race.MeetName {
		return name
	}
	return rs.Race.MeetName + " / " + name
}
