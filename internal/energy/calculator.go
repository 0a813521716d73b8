// Package energy computes a user's 0–100 energy level from time-windowed
// activity aggregates. The score is never stored as ground truth; it is
// recomputed from Aggregates on every read.
package energy

import (
	"math"
	"time"
)

// Weights and caps of the score terms.
const (
	Base = 20

	ActivePerItem = 15
	ActiveCap     = 45

	CrystalPerItem = 10
	CrystalCap     = 30
	CrystalWindow  = 7 * 24 * time.Hour

	FocusPerDive = 10
	FocusCap     = 20

	RecencyMax         = 5
	RecencyFullWindow  = time.Hour
	RecencyDecayWindow = 24 * time.Hour

	Min = 0
	Max = 100
)

// Aggregates is a snapshot of the inputs to the score for one user.
type Aggregates struct {
	// ActiveItems counts kindling or blazing items the user contributes to.
	ActiveItems int
	// RecentCrystals counts items the user owns that crystallized within
	// CrystalWindow of the snapshot time.
	RecentCrystals int
	// OpenDives counts the user's dive sessions that have not surfaced.
	OpenDives int
	// LastContributedAt is the latest contribution across the user's items.
	LastContributedAt *time.Time
}

// Breakdown is the score with each term shown separately.
type Breakdown struct {
	Base    int `json:"base"`
	Active  int `json:"active"`
	Crystal int `json:"crystal"`
	Focus   int `json:"focus"`
	Recency int `json:"recency"`
	Total   int `json:"total"`
}

// Compute returns the energy level for a at time now.
func Compute(a Aggregates, now time.Time) int {
	return Explain(a, now).Total
}

// Explain returns the per-term breakdown for a at time now.
func Explain(a Aggregates, now time.Time) Breakdown {
	b := Breakdown{
		Base:    Base,
		Active:  capped(a.ActiveItems, ActivePerItem, ActiveCap),
		Crystal: capped(a.RecentCrystals, CrystalPerItem, CrystalCap),
		Focus:   capped(a.OpenDives, FocusPerDive, FocusCap),
		Recency: recency(a.LastContributedAt, now),
	}
	total := b.Base + b.Active + b.Crystal + b.Focus + b.Recency
	b.Total = max(Min, min(Max, total))
	return b
}

func capped(count, per, limit int) int {
	if count <= 0 {
		return 0
	}
	return min(limit, count*per)
}

func recency(last *time.Time, now time.Time) int {
	if last == nil {
		return 0
	}
	ago := now.Sub(*last)
	switch {
	case ago < RecencyFullWindow:
		return RecencyMax
	case ago < RecencyDecayWindow:
		hours := ago.Hours()
		v := int(math.Round(RecencyMax * (1 - hours/RecencyDecayWindow.Hours())))
		return max(0, v)
	default:
		return 0
	}
}
