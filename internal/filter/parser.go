package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const monthNames = `(jan|january|feb|february|mar|march|apr|april|may|jun|june|jul|july|aug|august|sep|sept|september|oct|october|nov|november|dec|december)`

var (
	sameMonthRange  = regexp.MustCompile(`(?i)^` + monthNames + `\s+(\d{1,2})\s*-\s*(\d{1,2})$`)
	crossMonthRange = regexp.MustCompile(`(?i)^` + monthNames + `\s+(\d{1,2})\s*-\s*` + monthNames + `\s+(\d{1,2})$`)
	wholeMonth      = regexp.MustCompile(`(?i)^` + monthNames + `$`)
	isoRange        = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s*\.\.\s*(\d{4}-\d{2}-\d{2})$`)
)

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// ParseDateRange parses a date range string into start and end times.
//
// Supported formats:
//   - "Sep 1-15" or "September 1-15": one month
//   - "Sep 28 - Oct 4": across months; an earlier end month is next year
//   - "October": the whole month
//   - "2025-09-01..2025-09-30": explicit dates, year included
//
// Month-name forms fall in the given year, normally the season being
// ingested. Times are UTC; the start is 00:00:00 and the end 23:59:59.
func ParseDateRange(input string, year int) (*time.Time, *time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil, fmt.Errorf("date range cannot be empty")
	}

	var from, to time.Time

	switch {
	case isoRange.MatchString(input):
		m := isoRange.FindStringSubmatch(input)
		start, err := time.Parse("2006-01-02", m[1])
		if err != nil {
			return nil, nil, fmt.Errorf("invalid date: %s", m[1])
		}
		end, err := time.Parse("2006-01-02", m[2])
		if err != nil {
			return nil, nil, fmt.Errorf("invalid date: %s", m[2])
		}
		from, to = start, endOfDay(end)

	case sameMonthRange.MatchString(input):
		m := sameMonthRange.FindStringSubmatch(input)
		month := months[strings.ToLower(m[1])]
		day1, err := parseDay(m[2])
		if err != nil {
			return nil, nil, err
		}
		day2, err := parseDay(m[3])
		if err != nil {
			return nil, nil, err
		}
		from = time.Date(year, month, day1, 0, 0, 0, 0, time.UTC)
		to = endOfDay(time.Date(year, month, day2, 0, 0, 0, 0, time.UTC))

	case crossMonthRange.MatchString(input):
		m := crossMonthRange.FindStringSubmatch(input)
		month1, month2 := months[strings.ToLower(m[1])], months[strings.ToLower(m[3])]
		day1, err := parseDay(m[2])
		if err != nil {
			return nil, nil, err
		}
		day2, err := parseDay(m[4])
		if err != nil {
			return nil, nil, err
		}

		endYear := year
		if month2 < month1 {
			endYear++
		}
		from = time.Date(year, month1, day1, 0, 0, 0, 0, time.UTC)
		to = endOfDay(time.Date(endYear, month2, day2, 0, 0, 0, 0, time.UTC))

	case wholeMonth.MatchString(input):
		month := months[strings.ToLower(input)]
		from = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		// Day 0 of the next month is the last day of this one
		to = endOfDay(time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC))

	default:
		return nil, nil, fmt.Errorf("invalid date range format. use 'Sep 1-15', 'Sep 28 - Oct 4', 'October' or '2025-09-01..2025-09-30'")
	}

	if from.After(to) {
		return nil, nil, fmt.Errorf("start date must be before end date")
	}
	return &from, &to, nil
}

func parseDay(s string) (int, error) {
	day, err := strconv.Atoi(s)
	if err != nil || day < 1 || day > 31 {
		return 0, fmt.Errorf("invalid day: %s", s)
	}
	return day, nil
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}
