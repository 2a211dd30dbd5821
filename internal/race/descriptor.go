package race

import (
	"fmt"
	"strings"
)

// Algorithm identifies the extractor that understands a source layout.
type Algorithm string

const (
	AlgorithmDefault      Algorithm = "default"
	AlgorithmTable        Algorithm = "table"
	AlgorithmPreformatted Algorithm = "preformatted"
	AlgorithmPipe         Algorithm = "pipe"
	AlgorithmHyTek        Algorithm = "hytek"
	AlgorithmTabbed       Algorithm = "tabbed"
	AlgorithmIndexed      Algorithm = "indexed"
)

// Algorithms lists every recognized identifier.
var Algorithms = []Algorithm{
	AlgorithmDefault,
	AlgorithmTable,
	AlgorithmPreformatted,
	AlgorithmPipe,
	AlgorithmHyTek,
	AlgorithmTabbed,
	AlgorithmIndexed,
}

// ParseAlgorithm maps a configuration value to an Algorithm. Empty selects
// AlgorithmDefault.
func ParseAlgorithm(s string) (Algorithm, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return AlgorithmDefault, nil
	}
	for _, a := range Algorithms {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown algorithm %q", s)
}

// Descriptor identifies exactly one race's results within one source document.
type Descriptor struct {
	MeetName     string    `koanf:"meet_name" json:"meet_name"`
	RaceName     string    `koanf:"race_name" json:"race_name"`
	Distance     string    `koanf:"distance" json:"distance"`
	RaceClass    string    `koanf:"race_class" json:"race_class"`
	Gender       string    `koanf:"gender" json:"gender"`
	Venue        string    `koanf:"venue" json:"venue"`
	Date         string    `koanf:"date" json:"date"`
	Season       string    `koanf:"season" json:"season"`
	URL          string    `koanf:"url" json:"url,omitempty"`
	File         string    `koanf:"file" json:"file,omitempty"`
	Algorithm    Algorithm `koanf:"algorithm" json:"algorithm"`
	ResultsTitle string    `koanf:"results_title" json:"results_title,omitempty"`
	RaceNumber   int       `koanf:"race_number" json:"race_number,omitempty"`
}

// Name returns the race name, falling back to the meet name for descriptors
// that describe a single-race meet.
func (d Descriptor) Name() string {
	if d.RaceName != "" {
		return d.RaceName
	}
	return d.MeetName
}

// Source returns the URL or file path the results are read from.
func (d Descriptor) Source() string {
	if d.File != "" {
		return d.File
	}
	return d.URL
}

// IsNetwork reports whether the descriptor is fetched over the network.
func (d Descriptor) IsNetwork() bool {
	return d.File == "" && d.URL != ""
}

// StorageGender maps the descriptor's gender vocabulary to the stored form.
func (d Descriptor) StorageGender() string {
	return NormalizeGender(d.Gender)
}

// SectionHeader derives a results-section title from race class and gender,
// e.g. "Varsity Boys". Used by section-scoped layouts when no explicit
// results title is configured.
func (d Descriptor) SectionHeader() string {
	class := classLabels[strings.ToLower(strings.TrimSpace(d.RaceClass))]
	if class == "" {
		class = strings.TrimSpace(d.RaceClass)
	}

	gender := "Boys"
	switch NormalizeGender(d.Gender) {
	case GenderFemale:
		gender = "Girls"
	case GenderMixed:
		gender = "Mixed"
	}

	return strings.TrimSpace(class + " " + gender)
}

// Fields returns structured log fields identifying the race.
func (d Descriptor) Fields() map[string]interface{} {
	return map[string]interface{}{
		"meet":      d.MeetName,
		"race":      d.Name(),
		"class":     d.RaceClass,
		"gender":    d.Gender,
		"algorithm": string(d.Algorithm),
		"source":    d.Source(),
	}
}

var classLabels = map[string]string{
	"varsity":         "Varsity",
	"jv":              "JV",
	"junior varsity":  "JV",
	"freshman":        "Freshman",
	"c":               "C",
	"open":            "Open",
	"middle school":   "Middle School",
	"varsity reserve": "Varsity Reserve",
}

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderMixed  = "mixed"
)

var genders = map[string]string{
	"boys":   GenderMale,
	"boy":    GenderMale,
	"men":    GenderMale,
	"male":   GenderMale,
	"m":      GenderMale,
	"girls":  GenderFemale,
	"girl":   GenderFemale,
	"women":  GenderFemale,
	"female": GenderFemale,
	"f":      GenderFemale,
	"mixed":  GenderMixed,
}

// NormalizeGender maps boys/girls style labels to male/female/mixed.
// Unrecognized values are returned lower-cased.
func NormalizeGender(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if g, ok := genders[s]; ok {
		return g
	}
	return s
}
