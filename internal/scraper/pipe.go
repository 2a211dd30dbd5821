package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pfrederiksen/xc-results/internal/logger"
	"github.com/pfrederiksen/xc-results/internal/race"
)

// Example: "| 1 |   | Fossil Ridge High School Joey Benson | 9 | Fossil Ridge High School | 18:21.00 | 1 |"
var pipeRow = regexp.MustCompile(
	`\|\s*(\d+)\s*\|[^|]*\|\s*([^|]+?)\s*\|\s*(\d+)\s*\|[^|]*\|\s*(\d{1,2}:\d{2}(?::\d{2})?(?:\.\d{1,2})?)\s*\|`)

var (
	femaleHeader  = regexp.MustCompile(`(?i)\b(girls|female|women)\b`)
	maleHeader    = regexp.MustCompile(`(?i)\b(boys|male|men)\b`)
	jvHeader      = regexp.MustCompile(`(?i)\b(jv|junior varsity)\b`)
	varsityHeader = regexp.MustCompile(`(?i)\bvarsity\b`)
	frosh         = regexp.MustCompile(`(?i)\bfreshman\b`)
)

// schoolIndicators mark the last word of a school name inside a
// school-and-athlete blob.
var schoolIndicators = map[string]bool{
	"high":      true,
	"school":    true,
	"middle":    true,
	"academy":   true,
	"charter":   true,
	"classical": true,
	"prep":      true,
	"hs":        true,
}

// PipeExtractor reads pipe-delimited result text, as rendered by pages that
// publish results as markdown-like tables instead of HTML tables.
type PipeExtractor struct {
	opts Options
}

func (e *PipeExtractor) Algorithm() race.Algorithm { return race.AlgorithmPipe }
func (e *PipeExtractor) Strict() bool              { return false }
func (e *PipeExtractor) Check(race.Descriptor) error {
	return nil
}

// pipeState is the header context carried from line to line.
type pipeState struct {
	gender string
	class  string
}

// newPipeState seeds the context from the descriptor, so header-less text
// keeps the configured gender and class. Boys varsity is the fallback.
func newPipeState(d race.Descriptor) *pipeState {
	s := &pipeState{gender: race.GenderMale, class: "varsity"}
	if g := d.StorageGender(); g != "" {
		s.gender = g
	}
	if c := strings.ToLower(strings.TrimSpace(d.RaceClass)); c != "" {
		s.class = c
	}
	return s
}

// observe updates the state from a header-like line.
func (s *pipeState) observe(line string) {
	if femaleHeader.MatchString(line) {
		s.gender = race.GenderFemale
	} else if maleHeader.MatchString(line) {
		s.gender = race.GenderMale
	}

	switch {
	case jvHeader.MatchString(line):
		s.class = "jv"
	case varsityHeader.MatchString(line):
		s.class = "varsity"
	case frosh.MatchString(line):
		s.class = "freshman"
	}
}

func (e *PipeExtractor) Extract(doc *Document, d race.Descriptor) ([]race.Record, error) {
	return e.parse(doc.Text(), d)
}

func (e *PipeExtractor) parse(text string, d race.Descriptor) ([]race.Record, error) {
	state := newPipeState(d)

	var records []race.Record
	checked, matched := 0, 0

	for i, line := range Lines(text) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		checked++

		m := pipeRow.FindStringSubmatch(line)
		if m == nil {
			// Only non-result lines can change the header context, so an
			// athlete named "Carmen" never flips the gender.
			state.observe(line)
			continue
		}
		matched++

		place, _ := parsePlace(m[1])
		seconds, err := parseTime(m[4])
		if err != nil {
			if race.IsFatal(err) {
				return nil, err
			}
			skipLine(d, i+1, line, err.Error())
			continue
		}

		school, first, last, ok := splitSchoolBlob(m[2])
		if !ok {
			skipLine(d, i+1, line, "could not find athlete name in "+strconv.Quote(m[2]))
			continue
		}

		athlete := race.Athlete{
			FirstName: first,
			LastName:  last,
			Gender:    state.gender,
			School:    school,
		}
		if year, ok := GradYear(m[3], e.opts.referenceYear()); ok {
			athlete.GradYear = year
		}

		records = append(records, race.Record{
			Place:   place,
			Athlete: athlete,
			Seconds: seconds,
			Class:   state.class,
		})
	}

	logger.Debug("parsed pipe-delimited results", logger.Fields{
		"race":    d.Name(),
		"checked": checked,
		"matched": matched,
		"count":   len(records),
	})
	return records, nil
}

// splitSchoolBlob separates "Fossil Ridge High School Joey Benson" into school
// and athlete name using the last school-indicator word. Without one, the last
// two words are the name and the school is unknown.
func splitSchoolBlob(blob string) (school, first, last string, ok bool) {
	words := strings.Fields(blob)

	lastIdx := -1
	for i, w := range words {
		if schoolIndicators[strings.ToLower(w)] {
			lastIdx = i
		}
	}

	if lastIdx >= 0 && lastIdx < len(words)-2 {
		return strings.Join(words[:lastIdx+1], " "), words[lastIdx+1], strings.Join(words[lastIdx+2:], " "), true
	}
	if len(words) >= 2 {
		return race.UnknownSchool, words[len(words)-2], words[len(words)-1], true
	}
	return "", "", "", false
}
