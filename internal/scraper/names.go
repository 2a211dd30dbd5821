package scraper

import (
	"strconv"
	"strings"
)

// splitName splits "First Last..." or "Last, First" into first and last
// names. A single token is returned as the first name.
func splitName(s string) (first, last string) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ","); i >= 0 {
		last = strings.TrimSpace(s[:i])
		first = strings.TrimSpace(s[i+1:])
		return strings.Join(strings.Fields(first), " "), strings.Join(strings.Fields(last), " ")
	}

	parts := strings.Fields(s)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// gradeOffsets maps year tokens to years until graduation.
var gradeOffsets = map[string]int{
	"SR": 0, "12": 0,
	"JR": 1, "11": 1,
	"SO": 2, "10": 2,
	"FR": 3, "9": 3, "09": 3,
}

// GradYear converts a year/grade token (SR, JR, SO, FR or 9-12) to a
// graduation year relative to the year seniors graduate.
func GradYear(token string, referenceYear int) (int, bool) {
	token = strings.ToUpper(strings.TrimSpace(token))
	if offset, ok := gradeOffsets[token]; ok {
		return referenceYear + offset, true
	}

	// Some layouts print the class year itself.
	if n, err := strconv.Atoi(token); err == nil && n >= referenceYear && n <= referenceYear+3 {
		return n, true
	}
	return 0, false
}

// parsePlace reads a place token. Placeholders such as "--", "DNF" or "DQ"
// return false.
func parsePlace(s string) (int, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
