package racetime

import "testing"

func TestFormat(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{1002.45, "16:42.45"},
		{308, "5:08.00"},
		{3723, "1:02:03.00"},
		{999.5, "16:39.50"},
		{59.999, "1:00.00"},
		{-1, "N/A"},
	}

	for _, tt := range tests {
		if got := Format(tt.seconds); got != tt.want {
			t.Errorf("Format(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	inputs := []string{"16:42.45", "1:02:03", "999.50", "19:07.3", "59:59.99", "4:05"}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			value, err := Parse(input)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", input, err)
			}

			again, err := Parse(Format(value))
			if err != nil {
				t.Fatalf("Parse(Format(%v)) error: %v", value, err)
			}
			if again != value {
				t.Errorf("round trip of %q: got %v, want %v", input, again, value)
			}
		})
	}
}

func TestCentis(t *testing.T) {
	if Centis(1002.450001) != Centis(1002.454) {
		t.Errorf("Centis(1002.450001) = %d, Centis(1002.454) = %d, want equal",
			Centis(1002.450001), Centis(1002.454))
	}
	if got := Centis(1002.456); got != 100246 {
		t.Errorf("Centis(1002.456) = %d, want 100246", got)
	}
}

func TestPace(t *testing.T) {
	pace, ok := Pace(1002.45, "5K")
	if !ok {
		t.Fatal("Pace(5K) not ok")
	}
	if Format(pace) != "5:22.66" {
		t.Errorf("Pace(16:42.45, 5K) = %s, want 5:22.66", Format(pace))
	}

	if _, ok := Pace(600, "1 mile"); !ok {
		t.Error("Pace should accept lower-case '1 mile'")
	}

	if _, ok := Pace(600, "marathon"); ok {
		t.Error("Pace should reject unknown distance")
	}
}
