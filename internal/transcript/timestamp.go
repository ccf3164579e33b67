package transcript

import (
	"fmt"
	"math"
)

// Format renders a seconds offset as MM:SS. Minutes are not capped at 59.
func Format(seconds float64) string {
	minutes := int(math.Floor(seconds / 60))
	secs := int(math.Floor(math.Mod(seconds, 60)))
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// Range renders "MM:SS-MM:SS" for a segment starting at start.
func Range(start, duration float64) string {
	return Format(start) + "-" + Format(start+duration)
}
