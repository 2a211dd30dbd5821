package scraper

import (
	"regexp"
	"strings"
)

var (
	teamScoresHeader = regexp.MustCompile(`(?i)^\s*team\s+(scores|results|standings)\b`)
	eventPrefix      = regexp.MustCompile(`(?i)^(event|race)\s*#?\s*\d+\s*[-:.]?\s*`)
)

// normalizeHeader lower-cases a header line, collapses whitespace and strips
// any leading "Event 3" or "Race #3 -" numbering.
func normalizeHeader(line string) string {
	s := strings.ToLower(strings.Join(strings.Fields(line), " "))
	return eventPrefix.ReplaceAllString(s, "")
}

// sectionScan locates one race inside a combined document.
type sectionScan struct {
	// matches reports whether a line is the wanted section's header.
	matches func(line string) bool

	// boundary reports whether a line ends the section.
	boundary func(line string) bool

	// occurrence picks among repeated matching headers, 1-based.
	occurrence int
}

// section is a located block of lines; offset is the document line number
// of lines[0], minus one.
type section struct {
	header string
	lines  []string
	offset int
}

// find returns the lines between the selected header and the next boundary
// or the end of the document.
func (s sectionScan) find(lines []string) (section, bool) {
	want := s.occurrence
	if want < 1 {
		want = 1
	}

	seen := 0
	for i, line := range lines {
		if strings.TrimSpace(line) == "" || !s.matches(line) {
			continue
		}
		seen++
		if seen < want {
			continue
		}

		end := len(lines)
		for j := i + 1; j < len(lines); j++ {
			if teamScoresHeader.MatchString(lines[j]) || s.boundary(lines[j]) {
				end = j
				break
			}
		}
		return section{header: line, lines: lines[i+1 : end], offset: i + 1}, true
	}
	return section{}, false
}
