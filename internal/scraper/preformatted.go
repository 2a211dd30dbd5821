package scraper

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pfrederiksen/xc-results/internal/logger"
	"github.com/pfrederiksen/xc-results/internal/race"
)

// Example: "    1   1/124   3392 Ryan Ruffer      M   Fossil Ridge High School   15:57  5:08"
// Columns: Place Div/Tot Bib# Name Sex School Time [Pace]
var preformattedRow = regexp.MustCompile(
	`^\s*(\d+)\s+\d+/\d+\s+\d+\s+(.+?)\s+(M|F)\s+(.+?)\s+(\d{1,2}:\d{2}(?::\d{2})?(?:\.\d{1,2})?)(?:\s+.*)?$`)

// PreformattedExtractor reads MileSplit-style fixed-width text from a <pre>
// block. Everything before the first "====" separator is header.
type PreformattedExtractor struct{}

func (e *PreformattedExtractor) Algorithm() race.Algorithm { return race.AlgorithmPreformatted }
func (e *PreformattedExtractor) Strict() bool              { return false }
func (e *PreformattedExtractor) Check(race.Descriptor) error {
	return nil
}

func (e *PreformattedExtractor) Extract(doc *Document, d race.Descriptor) ([]race.Record, error) {
	text, ok := doc.Preformatted()
	if !ok {
		// Plain-text exports of the same layout have no <pre> wrapper.
		if doc.IsMarkup() || !strings.Contains(doc.Raw(), "====") {
			return nil, fmt.Errorf("preformatted block: %w", ErrNoContent)
		}
		text = doc.Raw()
	}
	return e.parse(text, d)
}

func (e *PreformattedExtractor) parse(text string, d race.Descriptor) ([]race.Record, error) {
	var records []race.Record
	inResults := false

	for i, line := range Lines(text) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if strings.Contains(trimmed, "====") {
			inResults = true
			continue
		}
		if !inResults {
			continue
		}

		m := preformattedRow.FindStringSubmatch(line)
		if m == nil {
			if startsWithDigit(trimmed) {
				skipLine(d, i+1, line, "does not match preformatted row grammar")
			}
			continue
		}

		place, _ := parsePlace(m[1])
		seconds, err := parseTime(m[5])
		if err != nil {
			if race.IsFatal(err) {
				return nil, err
			}
			skipLine(d, i+1, line, err.Error())
			continue
		}

		first, last := splitName(m[2])
		gender := race.GenderMale
		if m[3] == "F" {
			gender = race.GenderFemale
		}

		records = append(records, race.Record{
			Place: place,
			Athlete: race.Athlete{
				FirstName: first,
				LastName:  last,
				Gender:    gender,
				School:    strings.TrimSpace(m[4]),
			},
			Seconds: seconds,
		})
	}

	logger.Debug("parsed preformatted results", logger.Fields{"count": len(records), "race": d.Name()})
	return records, nil
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
