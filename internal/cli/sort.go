package cli

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/xc-results/internal/filter"
	"github.com/pfrederiksen/xc-results/internal/ingest"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortNone     SortOrder = ""
	SortByDate   SortOrder = "date"
	SortByMeet   SortOrder = "meet"
	SortByStatus SortOrder = "status"
)

func (o SortOrder) valid() bool {
	switch o {
	case SortNone, SortByDate, SortByMeet, SortByStatus:
		return true
	}
	return false
}

// statusRank orders problems first so they are seen before successes.
var statusRank = map[ingest.Status]int{
	ingest.StatusFatal:   0,
	ingest.StatusFailed:  1,
	ingest.StatusEmpty:   2,
	ingest.StatusSkipped: 3,
	ingest.StatusParsed:  4,
	ingest.StatusStored:  5,
}

// sortSummaries sorts race summaries based on the specified sort order.
// SortNone keeps configuration order.
func sortSummaries(races []ingest.RaceSummary, sortOrder SortOrder) {
	switch sortOrder {
	case SortByDate:
		sort.SliceStable(races, func(i, j int) bool {
			return compareByDate(races[i], races[j])
		})
	case SortByMeet:
		sort.SliceStable(races, func(i, j int) bool {
			mi, mj := strings.ToLower(races[i].Race.MeetName), strings.ToLower(races[j].Race.MeetName)
			if mi != mj {
				return mi < mj
			}
			// If meets are equal, sort by race name
			return strings.ToLower(races[i].Race.Name()) < strings.ToLower(races[j].Race.Name())
		})
	case SortByStatus:
		sort.SliceStable(races, func(i, j int) bool {
			return statusRank[races[i].Status] < statusRank[races[j].Status]
		})
	}
}

// compareByDate compares two races by their meet date
// Returns true if race i should come before race j
func compareByDate(i, j ingest.RaceSummary) bool {
	dateI := filter.ParseDate(i.Race.Date)
	dateJ := filter.ParseDate(j.Race.Date)

	// If both dates are valid, compare them
	if dateI != nil && dateJ != nil {
		return dateI.Before(*dateJ)
	}

	// If only one date is valid, put the valid one first
	if dateI != nil {
		return true
	}
	if dateJ != nil {
		return false
	}

	// If neither has a valid date, sort by meet name
	return strings.ToLower(i.Race.MeetName) < strings.ToLower(j.Race.MeetName)
}
