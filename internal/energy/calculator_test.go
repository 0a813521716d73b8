package energy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func ago(d time.Duration) *time.Time {
	t := now.Add(-d)
	return &t
}

func TestCompute_Scenario(t *testing.T) {
	// Two blazing items, one crystal from three days ago, one open dive and a
	// contribution half an hour ago.
	a := Aggregates{
		ActiveItems:       2,
		RecentCrystals:    1,
		OpenDives:         1,
		LastContributedAt: ago(30 * time.Minute),
	}
	b := Explain(a, now)
	assert.Equal(t, Breakdown{Base: 20, Active: 30, Crystal: 10, Focus: 10, Recency: 5, Total: 75}, b)
	assert.Equal(t, 75, Compute(a, now))
}

func TestCompute_IdleUserGetsBase(t *testing.T) {
	assert.Equal(t, Base, Compute(Aggregates{}, now))
}

func TestCompute_TermsAreCapped(t *testing.T) {
	b := Explain(Aggregates{ActiveItems: 10, RecentCrystals: 10, OpenDives: 10}, now)
	assert.Equal(t, ActiveCap, b.Active)
	assert.Equal(t, CrystalCap, b.Crystal)
	assert.Equal(t, FocusCap, b.Focus)
}

func TestCompute_ClampedTo100(t *testing.T) {
	// 20 + 45 + 30 + 20 + 5 = 120 before clamping.
	a := Aggregates{ActiveItems: 3, RecentCrystals: 3, OpenDives: 2, LastContributedAt: ago(time.Minute)}
	b := Explain(a, now)
	assert.Equal(t, Max, b.Total)
	assert.Equal(t, 120, b.Base+b.Active+b.Crystal+b.Focus+b.Recency)
}

func TestRecency(t *testing.T) {
	cases := []struct {
		name string
		last *time.Time
		want int
	}{
		{"never", nil, 0},
		{"just now", ago(0), 5},
		{"59 minutes", ago(59 * time.Minute), 5},
		{"1 hour", ago(time.Hour), 5},        // round(5*(1-1/24)) = round(4.79)
		{"6 hours", ago(6 * time.Hour), 4},   // round(3.75)
		{"12 hours", ago(12 * time.Hour), 3}, // round(2.5) rounds half away from zero
		{"18 hours", ago(18 * time.Hour), 1}, // round(1.25)
		{"23 hours", ago(23 * time.Hour), 0}, // round(0.21)
		{"24 hours", ago(24 * time.Hour), 0},
		{"a week", ago(7 * 24 * time.Hour), 0},
		{"future", ago(-time.Hour), 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Explain(Aggregates{LastContributedAt: tc.last}, now).Recency)
		})
	}
}

func TestCompute_MonotonicPerTerm(t *testing.T) {
	base := Aggregates{ActiveItems: 1, RecentCrystals: 1, OpenDives: 0, LastContributedAt: ago(10 * time.Hour)}
	prev := Compute(base, now)

	for i := 2; i < 6; i++ {
		a := base
		a.ActiveItems = i
		got := Compute(a, now)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}

	prev = Compute(base, now)
	for i := 2; i < 6; i++ {
		a := base
		a.RecentCrystals = i
		got := Compute(a, now)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}

	prev = Compute(base, now)
	for i := 1; i < 6; i++ {
		a := base
		a.OpenDives = i
		got := Compute(a, now)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}

	// More recent contribution never lowers the score.
	prev = -1
	for h := 30; h >= 0; h-- {
		a := base
		a.LastContributedAt = ago(time.Duration(h) * time.Hour)
		got := Compute(a, now)
		assert.GreaterOrEqual(t, got, prev, "hours ago %d", h)
		prev = got
	}
}

func TestCompute_AlwaysInRange(t *testing.T) {
	for active := -1; active < 6; active++ {
		for crystals := -1; crystals < 6; crystals++ {
			for dives := -1; dives < 4; dives++ {
				got := Compute(Aggregates{ActiveItems: active, RecentCrystals: crystals, OpenDives: dives, LastContributedAt: ago(0)}, now)
				assert.GreaterOrEqual(t, got, Min)
				assert.LessOrEqual(t, got, Max)
			}
		}
	}
}
