// Package filter narrows the configured race list to the races a run should
// ingest.
//
// Criteria combine with AND; values within one criterion combine with OR:
//   - Meets: meet name substring, case-insensitive
//   - Genders: boys/girls/male/female/mixed, compared after normalization
//   - Classes: race class, case-insensitive
//   - Seasons: exact season string
//   - DateFrom/DateTo: inclusive range on the descriptor date
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.Genders = []string{"girls"}
//	f.Meets = []string{"invitational"}
//	races := f.Apply(cfg.Races)
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/xc-results/internal/race"
)

// Filter represents race selection criteria
type Filter struct {
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// Meet name filtering (case-insensitive substring match)
	Meets []string `json:"meets,omitempty"`

	Genders []string `json:"genders,omitempty"`
	Classes []string `json:"classes,omitempty"`
	Seasons []string `json:"seasons,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all races until criteria are added.
func NewFilter() *Filter {
	return &Filter{
		Meets:   []string{},
		Genders: []string{},
		Classes: []string{},
		Seasons: []string{},
	}
}

// IsEmpty checks if the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Meets) == 0 &&
		len(f.Genders) == 0 &&
		len(f.Classes) == 0 &&
		len(f.Seasons) == 0
}

// Matches checks if a race descriptor matches all active filter criteria.
// A descriptor whose date cannot be parsed never matches a date range.
func (f *Filter) Matches(d race.Descriptor) bool {
	if f.IsEmpty() {
		return true
	}

	if f.DateFrom != nil || f.DateTo != nil {
		date := ParseDate(d.Date)
		if date == nil {
			return false
		}
		if f.DateFrom != nil && date.Before(*f.DateFrom) {
			return false
		}
		if f.DateTo != nil && date.After(*f.DateTo) {
			return false
		}
	}

	if len(f.Meets) > 0 {
		meetLower := strings.ToLower(d.MeetName)
		if !anyMatch(f.Meets, func(m string) bool { return strings.Contains(meetLower, strings.ToLower(m)) }) {
			return false
		}
	}

	if len(f.Genders) > 0 {
		gender := d.StorageGender()
		if !anyMatch(f.Genders, func(g string) bool { return race.NormalizeGender(g) == gender }) {
			return false
		}
	}

	if len(f.Classes) > 0 {
		if !anyMatch(f.Classes, func(c string) bool { return strings.EqualFold(strings.TrimSpace(c), strings.TrimSpace(d.RaceClass)) }) {
			return false
		}
	}

	if len(f.Seasons) > 0 {
		if !anyMatch(f.Seasons, func(s string) bool { return strings.TrimSpace(s) == strings.TrimSpace(d.Season) }) {
			return false
		}
	}

	return true
}

func anyMatch(values []string, match func(string) bool) bool {
	for _, v := range values {
		if match(v) {
			return true
		}
	}
	return false
}

// Apply returns the matching descriptors in their original order. An empty
// filter returns the input unchanged.
func (f *Filter) Apply(races []race.Descriptor) []race.Descriptor {
	if f.IsEmpty() {
		return races
	}

	var filtered []race.Descriptor
	for _, d := range races {
		if f.Matches(d) {
			filtered = append(filtered, d)
		}
	}

	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "From: Sep 1, 2025 | To: Sep 30, 2025 | Meets: invitational | Genders: girls"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}

	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}

	if len(f.Meets) > 0 {
		parts = append(parts, fmt.Sprintf("Meets: %s", strings.Join(f.Meets, ", ")))
	}

	if len(f.Genders) > 0 {
		parts = append(parts, fmt.Sprintf("Genders: %s", strings.Join(f.Genders, ", ")))
	}

	if len(f.Classes) > 0 {
		parts = append(parts, fmt.Sprintf("Classes: %s", strings.Join(f.Classes, ", ")))
	}

	if len(f.Seasons) > 0 {
		parts = append(parts, fmt.Sprintf("Seasons: %s", strings.Join(f.Seasons, ", ")))
	}

	return strings.Join(parts, " | ")
}

// ParseDate attempts to parse a descriptor's date.
// Returns nil if parsing fails
func ParseDate(dateText string) *time.Time {
	formats := []string{
		"2006-01-02",
		"1/2/2006",
		"01/02/2006",
		"January 2, 2006",
		"Jan 2, 2006",
	}

	normalized := strings.TrimSpace(dateText)
	for _, format := range formats {
		t, err := time.Parse(format, normalized)
		if err == nil {
			return &t
		}
	}

	return nil
}
