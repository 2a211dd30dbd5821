package scraper

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/xc-results/internal/logger"
	"github.com/pfrederiksen/xc-results/internal/race"
)

// minTabbedFields is place, name, grade, school, time.
const minTabbedFields = 5

// TabbedExtractor reads tab-separated result dumps where each race is a title
// line followed by rows of place, name, grade, school, time and optional
// points. Any later non-empty line without a tab ends the section.
//
// Relaxed: without a results title the header is derived from race class
// and gender, and rows with a bad time are skipped.
type TabbedExtractor struct {
	opts Options
}

func (e *TabbedExtractor) Algorithm() race.Algorithm { return race.AlgorithmTabbed }
func (e *TabbedExtractor) Strict() bool              { return false }

func (e *TabbedExtractor) Check(d race.Descriptor) error {
	if sectionTitle(d) == "" {
		return fmt.Errorf("tabbed layout: %w (or race_class and gender)", ErrMissingTitle)
	}
	return nil
}

// sectionTitle is the explicit results title, else the derived class/gender header.
func sectionTitle(d race.Descriptor) string {
	if t := strings.TrimSpace(d.ResultsTitle); t != "" {
		return t
	}
	if strings.TrimSpace(d.RaceClass) == "" || strings.TrimSpace(d.Gender) == "" {
		return ""
	}
	return d.SectionHeader()
}

func (e *TabbedExtractor) Extract(doc *Document, d race.Descriptor) ([]race.Record, error) {
	if err := e.Check(d); err != nil {
		return nil, err
	}

	title := normalizeHeader(sectionTitle(d))
	scan := sectionScan{
		matches: func(line string) bool {
			if strings.Contains(line, "\t") {
				return false
			}
			h := normalizeHeader(line)
			return h == title || strings.HasPrefix(h, title+" ")
		},
		boundary: func(line string) bool {
			return strings.TrimSpace(line) != "" && !strings.Contains(line, "\t")
		},
		occurrence: d.RaceNumber,
	}

	sec, ok := scan.find(Lines(doc.Raw()))
	if !ok {
		return nil, fmt.Errorf("%q: %w", sectionTitle(d), ErrSectionNotFound)
	}

	var records []race.Record
	for i, line := range sec.lines {
		lineNo := sec.offset + i + 1
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		for j := range fields {
			fields[j] = strings.TrimSpace(fields[j])
		}
		if len(fields) < minTabbedFields {
			skipLine(d, lineNo, line, fmt.Sprintf("expected %d tab-separated fields, got %d", minTabbedFields, len(fields)))
			continue
		}

		place, ok := parsePlace(fields[0])
		if !ok {
			// Column headings and DNF/DNS placeholders.
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
		if len(fields) > minTabbedFields && fields[5] != "" {
			if pts, ok := parsePlace(fields[5]); ok {
				rec.Points = pts
				rec.HasPoints = true
			}
		}
		records = append(records, rec)
	}

	logger.Debug("parsed tabbed section", logger.Fields{"race": d.Name(), "header": strings.TrimSpace(sec.header), "count": len(records)})
	return records, nil
}
