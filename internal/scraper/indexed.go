package scraper

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pfrederiksen/xc-results/internal/logger"
	"github.com/pfrederiksen/xc-results/internal/race"
)

var (
	// Example: "Race #3 - Varsity Boys 5K"
	indexedHeader = regexp.MustCompile(`(?i)^\s*(race|heat)\s*#?\s*\d+\b`)
	columnGap     = regexp.MustCompile(`\s{2,}`)
)

// IndexedExtractor reads combined documents whose race headers repeat, such as
// one "Varsity Boys" block per division. The header is matched by results
// title (or the class/gender header) and race_number picks which matching
// header to use. Rows are columns separated by two or more spaces: place,
// name, grade, school, time and optional points.
//
// Relaxed: a missing race_number means the first match, and rows with a bad
// time are skipped.
type IndexedExtractor struct {
	opts Options
}

func (e *IndexedExtractor) Algorithm() race.Algorithm { return race.AlgorithmIndexed }
func (e *IndexedExtractor) Strict() bool              { return false }

func (e *IndexedExtractor) Check(d race.Descriptor) error {
	if sectionTitle(d) == "" {
		return fmt.Errorf("indexed layout: %w (or race_class and gender)", ErrMissingTitle)
	}
	if d.RaceNumber < 0 {
		return fmt.Errorf("indexed layout: race_number must be positive, got %d", d.RaceNumber)
	}
	return nil
}

func (e *IndexedExtractor) Extract(doc *Document, d race.Descriptor) ([]race.Record, error) {
	if err := e.Check(d); err != nil {
		return nil, err
	}
	if d.RaceNumber == 0 {
		logger.Debug("no race_number, using first matching section", logger.Fields{"race": d.Name()})
	}

	title := normalizeHeader(sectionTitle(d))
	scan := sectionScan{
		matches: func(line string) bool {
			if !indexedHeader.MatchString(line) {
				return false
			}
			h := normalizeHeader(line)
			return h == title || strings.HasPrefix(h, title+" ")
		},
		boundary:   indexedHeader.MatchString,
		occurrence: d.RaceNumber,
	}

	sec, ok := scan.find(Lines(doc.Text()))
	if !ok {
		return nil, fmt.Errorf("%q #%d: %w", sectionTitle(d), max(d.RaceNumber, 1), ErrSectionNotFound)
	}

	var records []race.Record
	for i, line := range sec.lines {
		lineNo := sec.offset + i + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "---") || strings.HasPrefix(trimmed, "===") {
			continue
		}

		fields := columnGap.Split(trimmed, -1)
		place, ok := parsePlace(fields[0])
		if !ok {
			// Column headings and DNF/DNS placeholders.
			continue
		}
		if len(fields) < 5 {
			skipLine(d, lineNo, line, fmt.Sprintf("expected 5 columns, got %d", len(fields)))
			continue
		}

		seconds, err := parseTime(fields[4])
		if err != nil {
			if race.IsFatal(err) {
				return nil, err
			}
			skipLine(d, lineNo, line, err.Error())
			continue
		}

		first, last := splitName(fields[1])
		athlete := race.Athlete{FirstName: first, LastName: last, School: fields[3]}
		if year, ok := GradYear(fields[2], e.opts.referenceYear()); ok {
			athlete.GradYear = year
		}

		rec := race.Record{Place: place, Athlete: athlete, Seconds: seconds}
		if len(fields) > 5 {
			if pts, ok := parsePlace(fields[5]); ok {
				rec.Points = pts
				rec.HasPoints = true
			}
		}
		records = append(records, rec)
	}

	logger.Debug("parsed indexed section", logger.Fields{"race": d.Name(), "header": strings.TrimSpace(sec.header), "count": len(records)})
	return records, nil
}
