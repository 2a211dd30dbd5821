package racetime

import (
	"fmt"
	"math"
	"strings"
)

// Centis rounds seconds to whole hundredths.
func Centis(seconds float64) int64 {
	return int64(math.Round(seconds * 100))
}

// Format renders seconds as M:SS.ff, or H:MM:SS.ff from one hour up.
func Format(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "N/A"
	}

	c := Centis(seconds)
	hours := c / 360000
	minutes := (c / 6000) % 60
	secs := (c / 100) % 60
	frac := c % 100

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, frac)
	}
	return fmt.Sprintf("%d:%02d.%02d", minutes, secs, frac)
}

// miles per distance label, as written in race descriptors.
var distanceMiles = map[string]float64{
	"5K":     3.10686,
	"3K":     1.86411,
	"8K":     4.97097,
	"10K":    6.21371,
	"1M":     1.0,
	"2M":     2.0,
	"3M":     3.0,
	"1 MILE": 1.0,
	"2 MILE": 2.0,
	"3 MILE": 3.0,
	"1600M":  0.99419,
	"3200M":  1.98838,
	"5000M":  3.10686,
	"8000M":  4.97097,
	"10000M": 6.21371,
}

// Miles converts a distance label such as "5K" or "3200M" to miles.
func Miles(distance string) (float64, bool) {
	m, ok := distanceMiles[strings.ToUpper(strings.TrimSpace(distance))]
	return m, ok
}

// Pace returns seconds per mile for a finish time over the given distance.
// ok is false for distances outside the known table.
func Pace(seconds float64, distance string) (float64, bool) {
	miles, ok := Miles(distance)
	if !ok || miles <= 0 {
		return 0, false
	}
	return seconds / miles, true
}
