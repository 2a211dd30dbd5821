package scraper

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/xc-results/internal/logger"
	"github.com/pfrederiksen/xc-results/internal/race"
	"github.com/pfrederiksen/xc-results/internal/racetime"
)

var (
	tableTimeHint = regexp.MustCompile(`\d{1,2}:\d{2}`)
	firstNumber   = regexp.MustCompile(`\d+`)
)

// minTableCells is the narrowest row treated as a result.
const minTableCells = 4

// TableExtractor reads results from the first HTML table that contains a
// time. A header row is recognized by keyword and used to locate school,
// grade, name and time columns when it names them; otherwise the first cell
// is the place, the second the name and the time is the second-to-last cell,
// or the nearest time-shaped cell when that one is not.
type TableExtractor struct {
	opts Options
}

func (e *TableExtractor) Algorithm() race.Algorithm { return race.AlgorithmTable }
func (e *TableExtractor) Strict() bool              { return false }
func (e *TableExtractor) Check(race.Descriptor) error {
	return nil
}

// columns holds header-derived cell indexes; -1 means absent.
type columns struct {
	name, school, grade, time int
}

// timeColumn guesses the time cell of a row without a header: the
// second-to-last cell (a pace column usually follows), then the last, then
// the remaining cells after the name from right to left.
func timeColumn(cells []string) int {
	candidates := []int{len(cells) - 2, len(cells) - 1}
	for i := len(cells) - 3; i > 1; i-- {
		candidates = append(candidates, i)
	}
	for _, i := range candidates {
		if racetime.LooksLikeTime(cells[i]) {
			return i
		}
	}
	return len(cells) - 2
}

func defaultColumns() columns {
	return columns{name: 1, school: -1, grade: -1, time: -1}
}

func (e *TableExtractor) Extract(doc *Document, d race.Descriptor) ([]race.Record, error) {
	if !doc.IsMarkup() {
		return nil, fmt.Errorf("results table: %w", ErrNoContent)
	}
	html, err := doc.HTML()
	if err != nil {
		return nil, err
	}

	var table *goquery.Selection
	html.Find("table").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if tableTimeHint.MatchString(sel.Text()) {
			table = sel
			return false
		}
		return true
	})
	if table == nil {
		return nil, fmt.Errorf("results table: %w", ErrNoContent)
	}

	var records []race.Record
	cols := defaultColumns()
	headerSeen := false
	var fatal error

	table.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := cellTexts(row)
		if len(cells) < minTableCells {
			return true
		}

		if !headerSeen && isHeaderRow(cells) {
			headerSeen = true
			cols = headerColumns(cells)
			return true
		}

		rec, ok, err := e.parseRow(cells, cols)
		if err != nil {
			if race.IsFatal(err) {
				fatal = err
				return false
			}
			skipLine(d, i+1, strings.Join(cells, " | "), err.Error())
			return true
		}
		if ok {
			records = append(records, rec)
		}
		return true
	})

	if fatal != nil {
		return nil, fatal
	}

	logger.Debug("parsed table results", logger.Fields{"count": len(records), "race": d.Name()})
	return records, nil
}

func (e *TableExtractor) parseRow(cells []string, cols columns) (race.Record, bool, error) {
	m := firstNumber.FindString(cells[0])
	place, ok := parsePlace(m)
	if !ok {
		// Non-finishers carry no place.
		return race.Record{}, false, nil
	}

	timeIdx := cols.time
	if timeIdx < 0 || timeIdx >= len(cells) {
		timeIdx = timeColumn(cells)
	}
	seconds, err := parseTime(cells[timeIdx])
	if err != nil {
		return race.Record{}, false, err
	}

	nameIdx := cols.name
	if nameIdx < 0 || nameIdx >= len(cells) {
		nameIdx = 1
	}
	first, last := splitName(cells[nameIdx])
	if first == "" || last == "" {
		return race.Record{}, false, fmt.Errorf("incomplete name %q", cells[nameIdx])
	}

	athlete := race.Athlete{FirstName: first, LastName: last, School: race.UnknownSchool}
	if cols.school >= 0 && cols.school < len(cells) && cells[cols.school] != "" {
		athlete.School = cells[cols.school]
	}
	if cols.grade >= 0 && cols.grade < len(cells) {
		if year, ok := GradYear(cells[cols.grade], e.opts.referenceYear()); ok {
			athlete.GradYear = year
		}
	}

	return race.Record{Place: place, Athlete: athlete, Seconds: seconds}, true, nil
}

func cellTexts(row *goquery.Selection) []string {
	var cells []string
	row.Find("td, th").Each(func(i int, cell *goquery.Selection) {
		cells = append(cells, strings.Join(strings.Fields(cell.Text()), " "))
	})
	return cells
}

func isHeaderRow(cells []string) bool {
	for _, c := range cells {
		lc := strings.ToLower(c)
		if strings.Contains(lc, "place") || strings.Contains(lc, "name") || strings.Contains(lc, "time") {
			return true
		}
	}
	return false
}

func headerColumns(cells []string) columns {
	cols := columns{name: -1, school: -1, grade: -1, time: -1}
	for i, c := range cells {
		switch lc := strings.ToLower(c); {
		case cols.name < 0 && (strings.Contains(lc, "name") || strings.Contains(lc, "athlete")):
			cols.name = i
		case cols.school < 0 && (strings.Contains(lc, "school") || strings.Contains(lc, "team")):
			cols.school = i
		case cols.grade < 0 && (lc == "yr" || lc == "year" || lc == "gr" || lc == "grade"):
			cols.grade = i
		case cols.time < 0 && (lc == "time" || lc == "finals" || lc == "mark"):
			cols.time = i
		}
	}
	return cols
}
