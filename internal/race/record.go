package race

import (
	"crypto/sha1"
	"fmt"
	"math"
	"strings"
)

// UnknownSchool is recorded when a layout does not carry a school.
const UnknownSchool = "Unknown School"

// Athlete identifies a runner. Storage identity is first name, last name,
// gender and school; GradYear is informational.
type Athlete struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Gender    string `json:"gender"`
	School    string `json:"school"`
	GradYear  int    `json:"graduation_year,omitempty"`
}

// FullName joins first and last name.
func (a Athlete) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Record is one finisher parsed from a results document.
type Record struct {
	Place   int     `json:"place"`
	Athlete Athlete `json:"athlete"`
	Seconds float64 `json:"time_seconds"`

	// Points is the scoring credit. HasPoints is set when the layout
	// supplied a points column; otherwise points are derived from place.
	Points    int  `json:"points"`
	HasPoints bool `json:"-"`

	// Class is the race class inferred from the document, when the layout
	// tracks it. Empty means the descriptor's class applies.
	Class string `json:"-"`
}

// Key returns the dedup identity of the record.
func (r Record) Key() Key {
	return NewKey(r.Athlete.FirstName, r.Athlete.LastName, r.Athlete.School, r.Seconds, r.Place)
}

// Key is the identity of a stored result within one race. Time is held in
// whole hundredths so float noise never defeats equality. Sources publish no
// athlete id, so two same-named runners from one school with the same time
// and place share a key.
type Key struct {
	FirstName string
	LastName  string
	School    string
	Centis    int64
	Place     int
}

// NewKey builds a Key from raw fields, lower-casing names and rounding time.
func NewKey(first, last, school string, seconds float64, place int) Key {
	return Key{
		FirstName: strings.ToLower(strings.TrimSpace(first)),
		LastName:  strings.ToLower(strings.TrimSpace(last)),
		School:    strings.ToLower(strings.TrimSpace(school)),
		Centis:    int64(math.Round(seconds * 100)),
		Place:     place,
	}
}

// ID returns a deterministic digest of the key.
func (k Key) ID() string {
	h := sha1.New()
	fmt.Fprintf(h, "%s|%s|%s|%d|%d", k.FirstName, k.LastName, k.School, k.Centis, k.Place)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// KeySet is the set of results already stored for a race.
type KeySet map[Key]struct{}

// NewKeySet creates a set containing keys.
func NewKeySet(keys ...Key) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Add inserts k.
func (s KeySet) Add(k Key) {
	s[k] = struct{}{}
}

// Has reports whether k is present.
func (s KeySet) Has(k Key) bool {
	_, ok := s[k]
	return ok
}

// VarsityScorers is the number of finishers that earn varsity points.
const VarsityScorers = 7

// VarsityPoints awards 8-place points to the top seven finishers of a
// varsity race and nothing otherwise.
func VarsityPoints(class string, place int) int {
	if !strings.EqualFold(strings.TrimSpace(class), "varsity") {
		return 0
	}
	if place < 1 || place > VarsityScorers {
		return 0
	}
	return VarsityScorers + 1 - place
}
