// Package score normalizes heterogeneous provider verdict counts into a
// single 0-100 risk score and assigns risk bands. Both are pure and shared
// by every component that derives a label from a score.
package score

import "math"

// Stats holds the provider's verdict counts for an indicator.
type Stats struct {
	Harmless   int64 `json:"harmless"`
	Suspicious int64 `json:"suspicious"`
	Malicious  int64 `json:"malicious"`
}

// Band is a coarse risk label derived from a score.
type Band string

// Risk bands.
const (
	BandLow    Band = "Low"
	BandMedium Band = "Medium"
	BandHigh   Band = "High"
)

// Band thresholds: scores below MediumThreshold are Low, scores below
// HighThreshold are Medium, the rest are High.
const (
	MediumThreshold = 30
	HighThreshold   = 70
)

// Compute converts verdict counts into a 0-100 risk score. A nil stats
// object or a zero total yields 0; suspicious verdicts weigh half as much
// as malicious ones, and the result rounds half-up.
func Compute(stats *Stats) int {
	if stats == nil {
		return 0
	}
	total := stats.Harmless + stats.Suspicious + stats.Malicious
	if total <= 0 {
		return 0
	}
	raw := (float64(stats.Suspicious)*0.5 + float64(stats.Malicious)) / float64(total) * 100
	value := int(math.Round(raw))
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

// BandFor returns the risk band for a score.
func BandFor(value int) Band {
	switch {
	case value < MediumThreshold:
		return BandLow
	case value < HighThreshold:
		return BandMedium
	default:
		return BandHigh
	}
}
