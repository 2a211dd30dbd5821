package scraper

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pfrederiksen/xc-results/internal/logger"
	"github.com/pfrederiksen/xc-results/internal/race"
)

var (
	// Example: "  1 Ruffer, Ryan              SR Fossil Ridge            15:57.10    1"
	hytekRow = regexp.MustCompile(
		`^\s*(\d+)\s+(.+?)\s+(SR|JR|SO|FR|Sr|Jr|So|Fr|12|11|10|9)\s+(.+?)\s+(\d[\d:.]*)(?:\s+(\d+))?\s*$`)

	// An event header names a run or race, e.g. "Varsity Boys 5000 Meter Run"
	// or "Event 4  Girls 3 Mile Run".
	hytekEvent = regexp.MustCompile(`(?i)\b(run|race|relay|meters?|mile|\d+\s*k)\b`)

	hytekColumns = regexp.MustCompile(`(?i)^\s*(pl|place)?\s*name\s+(yr|year|grade)\b`)
	hytekNoPlace = regexp.MustCompile(`^\s*(--|DNF|DNS|DQ|SCR|NT)(\s|$)`)
)

// HyTekExtractor reads Hy-Tek Meet Manager text results. The race is located
// by its exact results title; the section ends at the next event header, the
// team scores, or the end of the document.
//
// The layout is stable across meets, so it is strict: a row with a place and
// a time-shaped token that does not parse aborts the run.
type HyTekExtractor struct {
	opts Options
}

func (e *HyTekExtractor) Algorithm() race.Algorithm { return race.AlgorithmHyTek }
func (e *HyTekExtractor) Strict() bool              { return true }

func (e *HyTekExtractor) Check(d race.Descriptor) error {
	if strings.TrimSpace(d.ResultsTitle) == "" {
		return fmt.Errorf("hytek layout: %w", ErrMissingTitle)
	}
	return nil
}

func isHyTekEvent(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || startsWithDigit(trimmed) || hytekNoPlace.MatchString(line) || hytekColumns.MatchString(line) {
		return false
	}
	return hytekEvent.MatchString(trimmed)
}

func (e *HyTekExtractor) Extract(doc *Document, d race.Descriptor) ([]race.Record, error) {
	if err := e.Check(d); err != nil {
		return nil, race.Fatal("hytek descriptor", err)
	}

	title := normalizeHeader(d.ResultsTitle)
	scan := sectionScan{
		matches:    func(line string) bool { return normalizeHeader(line) == title },
		boundary:   isHyTekEvent,
		occurrence: d.RaceNumber,
	}

	sec, ok := scan.find(Lines(doc.Text()))
	if !ok {
		return nil, fmt.Errorf("%q: %w", d.ResultsTitle, ErrSectionNotFound)
	}

	var records []race.Record
	for i, line := range sec.lines {
		lineNo := sec.offset + i + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "===") || hytekColumns.MatchString(line) {
			continue
		}
		if hytekNoPlace.MatchString(line) {
			logger.Debug("non-scoring entry", logger.Fields{"race": d.Name(), "line": trimmed})
			continue
		}

		m := hytekRow.FindStringSubmatch(line)
		if m == nil {
			skipLine(d, lineNo, line, "does not match hytek row grammar")
			continue
		}

		seconds, err := parseTime(m[5])
		if err != nil {
			return nil, race.Fatal(fmt.Sprintf("hytek line %d: %q", lineNo, trimmed), err)
		}

		place, _ := parsePlace(m[1])
		first, last := splitName(m[2])
		athlete := race.Athlete{
			FirstName: first,
			LastName:  last,
			School:    strings.TrimSpace(m[4]),
		}
		if year, ok := GradYear(m[3], e.opts.referenceYear()); ok {
			athlete.GradYear = year
		}

		// A blank points column marks a non-scoring finisher.
		rec := race.Record{Place: place, Athlete: athlete, Seconds: seconds, HasPoints: true}
		if pts, ok := parsePlace(m[6]); ok {
			rec.Points = pts
		}
		records = append(records, rec)
	}

	logger.Debug("parsed hytek section", logger.Fields{"race": d.Name(), "header": strings.TrimSpace(sec.header), "count": len(records)})
	return records, nil
}
