package normalize

import (
	"testing"

	"github.com/pfrederiksen/xc-results/internal/race"
)

func TestName(t *testing.T) {
	tests := map[string]string{
		"john":        "John",
		"JOHN":        "John",
		"mary  ann":   "Mary Ann",
		"smith-jones": "Smith-Jones",
		"de la cruz":  "De La Cruz",
		"":            "",
		"  ryan ":     "Ryan",
	}

	for input, want := range tests {
		if got := Name(input); got != want {
			t.Errorf("Name(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSchool(t *testing.T) {
	n := New(nil)

	tests := []struct {
		input string
		want  string
	}{
		{"fort collins", "Fort Collins High School"},
		{"Fort Collins HS", "Fort Collins High School"},
		{"Fort Collins High Sc", "Fort Collins High School"},
		{"Fort  Collins   High Sc", "Fort Collins High School"},
		{"Fort Collins High School", "Fort Collins High School"},
		{"Grand Junction HS", "Grand Junction High School"},
		{"Grand Junction High Scho", "Grand Junction High School"},
		{"Grand Junction High", "Grand Junction High"},
		{"Boulder Prep Academy", "Boulder Prep Academy"},
		{"İnönü HS", "İnönü High School"},
		{"İnönü High Sch", "İnönü High School"},
		{"Ridge HIGH SCHOOL", "Ridge High School"},
		{"", race.UnknownSchool},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := n.School(tt.input); got != tt.want {
				t.Errorf("School(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSchool_ExtraAliases(t *testing.T) {
	n := New(map[string]string{"Ridge": "Fossil Ridge High School", "poudre": "Poudre"})

	if got := n.School("RIDGE"); got != "Fossil Ridge High School" {
		t.Errorf("School(RIDGE) = %q", got)
	}
	if got := n.School("poudre"); got != "Poudre" {
		t.Errorf("extra alias should override default, got %q", got)
	}
}

func TestRecords(t *testing.T) {
	n := New(nil)
	d := race.Descriptor{RaceClass: "varsity", Gender: "girls"}

	records := []race.Record{
		{Place: 1, Athlete: race.Athlete{FirstName: "jane", LastName: "doe", School: "fort collins"}, Seconds: 1100},
		{Place: 2, Athlete: race.Athlete{FirstName: "amy", LastName: "lee", Gender: "M", School: "Poudre HS"}, Seconds: 1110},
		{Place: 3, Athlete: race.Athlete{FirstName: "kim", LastName: "ng", School: "Loveland"}, Seconds: 1120, Points: 9, HasPoints: true},
		{Place: 4, Athlete: race.Athlete{FirstName: "liz", LastName: "fox", School: "Windsor"}, Seconds: 1130, Class: "jv"},
	}

	got := n.Records(records, d)

	if got[0].Athlete.FirstName != "Jane" || got[0].Athlete.School != "Fort Collins High School" {
		t.Errorf("record 0 not normalized: %+v", got[0].Athlete)
	}
	if got[0].Athlete.Gender != race.GenderFemale {
		t.Errorf("record 0 gender = %q, want descriptor gender", got[0].Athlete.Gender)
	}
	if got[1].Athlete.Gender != race.GenderMale {
		t.Errorf("record 1 gender = %q, want layout gender kept", got[1].Athlete.Gender)
	}
	if got[0].Points != 7 || got[1].Points != 6 {
		t.Errorf("derived points = %d, %d; want 7, 6", got[0].Points, got[1].Points)
	}
	if got[2].Points != 9 {
		t.Errorf("layout points overwritten: %d", got[2].Points)
	}
	if got[3].Points != 0 {
		t.Errorf("jv record scored %d points", got[3].Points)
	}
	if records[0].Athlete.FirstName != "jane" {
		t.Error("Records must not modify its input")
	}
}
