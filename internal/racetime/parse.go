package racetime

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Ceiling is the largest elapsed time, in seconds, accepted from any source.
const Ceiling = 3600.0

var (
	// ErrUnparseable is returned when the text matches none of the time shapes.
	ErrUnparseable = errors.New("unparseable time")

	// ErrExceedsCeiling is returned when a well-formed time is above Ceiling.
	ErrExceedsCeiling = errors.New("time exceeds sanity ceiling")
)

// ParseError reports the input that failed to parse.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Input)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Most specific shapes first so that "1:02:03" is never read as "1:02".
var shapes = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"H:MM:SS.ff", regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})\.(\d{1,2})$`)},
	{"H:MM:SS", regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})$`)},
	{"MM:SS.ff", regexp.MustCompile(`^()(\d{1,2}):(\d{2})\.(\d{1,2})$`)},
	{"MM:SS", regexp.MustCompile(`^()(\d{1,2}):(\d{2})$`)},
	{"SSSS.ff", regexp.MustCompile(`^()()(\d{3,4})\.(\d{1,2})$`)},
}

var timeish = regexp.MustCompile(`^\d[\d:.]*$`)

// LooksLikeTime reports whether s has the rough character set of a time
// token, without validating its shape.
func LooksLikeTime(s string) bool {
	return timeish.MatchString(strings.TrimSpace(s))
}

// Parse converts a time string to seconds. Surrounding whitespace is ignored.
// The returned error wraps ErrUnparseable or ErrExceedsCeiling.
func Parse(s string) (float64, error) {
	s = strings.TrimSpace(s)

	for _, shape := range shapes {
		m := shape.pattern.FindStringSubmatch(s)
		if m == nil {
			continue
		}

		hours := atoi(m[1])
		minutes := atoi(m[2])
		seconds := atoi(m[3])

		// Seconds and minutes fields must stay below 60 when a larger unit is present.
		if (m[2] != "" && seconds >= 60) || (m[1] != "" && minutes >= 60) {
			return 0, &ParseError{Input: s, Err: ErrUnparseable}
		}

		centis := int64(hours*3600+minutes*60+seconds) * 100
		if len(m) > 4 && m[4] != "" {
			frac := atoi(m[4])
			if len(m[4]) == 1 {
				frac *= 10
			}
			centis += int64(frac)
		}

		value := float64(centis) / 100
		if value > Ceiling {
			return value, &ParseError{Input: s, Err: ErrExceedsCeiling}
		}
		return value, nil
	}

	return 0, &ParseError{Input: s, Err: ErrUnparseable}
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
