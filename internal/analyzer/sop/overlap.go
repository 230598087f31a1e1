package sop

import "math"

// OverlapCheck is the result of a tolerance overlap test between two price ranges.
type OverlapCheck struct {
	Overlapping bool
	OverlapLow  float64
	OverlapHigh float64
	Tolerance   float64
}

// ToleranceOverlap treats the entry range as overlapping the primary range when
// the gap between them is no wider than ratio times the primary range.
func ToleranceOverlap(primaryHigh, primaryLow, entryHigh, entryLow, ratio float64) OverlapCheck {
	tol := (primaryHigh - primaryLow) * ratio
	low := math.Max(primaryLow, entryLow)
	high := math.Min(primaryHigh, entryHigh)
	return OverlapCheck{
		Overlapping: high+tol >= low,
		OverlapLow:  low,
		OverlapHigh: high,
		Tolerance:   tol,
	}
}
