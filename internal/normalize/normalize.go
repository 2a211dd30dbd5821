// Package normalize canonicalizes athlete names and school names so the same
// runner resolves to one stored athlete across documents.
package normalize

import (
	"strings"

	"github.com/pfrederiksen/xc-results/internal/race"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultSchoolAliases maps lower-cased truncated or abbreviated school names
// seen in result documents to their canonical form.
var DefaultSchoolAliases = map[string]string{
	"fort collins":            "Fort Collins High School",
	"fort collins high":       "Fort Collins High School",
	"fort collins high sc":    "Fort Collins High School",
	"fort collins high schoo": "Fort Collins High School",
	"fchs":                    "Fort Collins High School",
	"fossil ridge":            "Fossil Ridge High School",
	"fossil ridge high sc":    "Fossil Ridge High School",
	"rocky mountain":          "Rocky Mountain High School",
	"rocky mountain high sc":  "Rocky Mountain High School",
	"poudre":                  "Poudre High School",
	"poudre high sc":          "Poudre High School",
	"loveland":                "Loveland High School",
	"mountain view":           "Mountain View High School",
	"thompson valley":         "Thompson Valley High School",
	"windsor":                 "Windsor High School",
	"severance":               "Severance High School",
	"timnath":                 "Timnath High School",
	"liberty common":          "Liberty Common High School",
}

// Normalizer applies name casing and the school alias table. It holds no
// mutable state after construction and is safe for concurrent use.
type Normalizer struct {
	schools map[string]string
}

// New creates a Normalizer from the default alias table plus extra aliases,
// which take precedence.
func New(extra map[string]string) *Normalizer {
	schools := make(map[string]string, len(DefaultSchoolAliases)+len(extra))
	for k, v := range DefaultSchoolAliases {
		schools[k] = v
	}
	for k, v := range extra {
		schools[strings.ToLower(collapse(k))] = v
	}
	return &Normalizer{schools: schools}
}

// Name title-cases each whitespace-separated token: "mary ann" -> "Mary Ann".
func Name(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		// Caser values keep state, so one per call.
		fields[i] = cases.Title(language.English).String(f)
	}
	return strings.Join(fields, " ")
}

// School maps a school name to its canonical form: exact alias match first,
// then the " HS" suffix rewrite, then a truncated "High Sc..." suffix rewrite.
func (n *Normalizer) School(s string) string {
	s = collapse(s)
	if s == "" {
		return race.UnknownSchool
	}

	if canonical, ok := n.schools[strings.ToLower(s)]; ok {
		return canonical
	}

	if cut, ok := cutSuffixFold(s, " hs"); ok {
		return cut + " High School"
	}

	// Truncated forms run from "High Sc" to the full "High School".
	for l := len("high school"); l >= len("high sc"); l-- {
		if cut, ok := cutSuffixFold(s, " "+"high school"[:l]); ok {
			return cut + " High School"
		}
	}

	return s
}

// cutSuffixFold is strings.CutSuffix with case folding. Indexes stay in
// s, so non-ASCII text before the suffix is never split.
func cutSuffixFold(s, suffix string) (string, bool) {
	if len(s) <= len(suffix) || !strings.EqualFold(s[len(s)-len(suffix):], suffix) {
		return s, false
	}
	return s[:len(s)-len(suffix)], true
}

// Athlete normalizes name casing and school.
func (n *Normalizer) Athlete(a race.Athlete) race.Athlete {
	a.FirstName = Name(a.FirstName)
	a.LastName = Name(a.LastName)
	a.School = n.School(a.School)
	a.Gender = race.NormalizeGender(a.Gender)
	return a
}

// Records normalizes parsed records for a race: athlete fields, the
// descriptor's gender where the layout carried none, and derived varsity
// points where the layout carried no points column.
func (n *Normalizer) Records(records []race.Record, d race.Descriptor) []race.Record {
	out := make([]race.Record, 0, len(records))
	for _, rec := range records {
		if rec.Athlete.Gender == "" {
			rec.Athlete.Gender = d.StorageGender()
		}
		rec.Athlete = n.Athlete(rec.Athlete)

		if !rec.HasPoints {
			class := rec.Class
			if class == "" {
				class = d.RaceClass
			}
			rec.Points = race.VarsityPoints(class, rec.Place)
		}

		out = append(out, rec)
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
