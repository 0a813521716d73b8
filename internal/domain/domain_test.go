package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemState_Transitions(t *testing.T) {
	allowed := map[ItemState][]ItemState{
		ItemDormant:      {ItemKindling},
		ItemKindling:     {ItemBlazing, ItemCooling},
		ItemBlazing:      {ItemCooling, ItemCrystallized},
		ItemCooling:      {ItemBlazing, ItemCrystallized},
		ItemCrystallized: nil,
	}
	all := []ItemState{ItemDormant, ItemKindling, ItemBlazing, ItemCooling, ItemCrystallized}

	for from, targets := range allowed {
		for _, to := range all {
			assert.Equal(t, contains(targets, to), from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func contains(states []ItemState, s ItemState) bool {
	for _, st := range states {
		if st == s {
			return true
		}
	}
	return false
}

func TestItemState_OwnershipAndTransfer(t *testing.T) {
	assert.False(t, ItemDormant.Owned())
	for _, s := range []ItemState{ItemKindling, ItemBlazing, ItemCooling, ItemCrystallized} {
		assert.True(t, s.Owned(), s)
	}

	assert.False(t, ItemDormant.Transferable())
	assert.False(t, ItemCrystallized.Transferable())
	assert.True(t, ItemCooling.Transferable())

	assert.True(t, ItemKindling.Active())
	assert.True(t, ItemBlazing.Active())
	assert.False(t, ItemCooling.Active())
}

func TestParse(t *testing.T) {
	s, err := ParseItemState("blazing")
	require.NoError(t, err)
	assert.Equal(t, ItemBlazing, s)
	_, err = ParseItemState("smouldering")
	assert.Error(t, err)

	o, err := ParseOrbitalState("deep_work")
	require.NoError(t, err)
	assert.Equal(t, OrbitDeepWork, o)
	_, err = ParseOrbitalState("asleep")
	assert.Error(t, err)

	_, err = ParsePingType("loud")
	assert.Error(t, err)
	_, err = ParsePingStatus("archived")
	assert.Error(t, err)

	d, err := ParseDepth("")
	require.NoError(t, err)
	assert.Equal(t, DepthShallow, d)
	_, err = ParseDepth("bottomless")
	assert.Error(t, err)
}

func TestTransitionOrbit_ReleasesOnlyWhenLeavingDeepWork(t *testing.T) {
	all := []OrbitalState{OrbitOpen, OrbitFocused, OrbitDeepWork, OrbitAway, OrbitSupernova}
	for _, from := range all {
		for _, to := range all {
			tr := TransitionOrbit(from, to)
			want := from == OrbitDeepWork && to != OrbitDeepWork
			assert.Equal(t, want, tr.ReleaseQueue, "%s -> %s", from, to)
		}
	}
}

func TestPingStatus_ForwardOnly(t *testing.T) {
	assert.True(t, PingSent.CanAdvance(PingDelivered))
	assert.True(t, PingSent.CanAdvance(PingRead))
	assert.True(t, PingDelivered.CanAdvance(PingRead))
	assert.False(t, PingDelivered.CanAdvance(PingSent))
	assert.False(t, PingRead.CanAdvance(PingDelivered))
	assert.False(t, PingRead.CanAdvance(PingRead))
	assert.False(t, PingSent.CanAdvance(PingSent))
}

func TestInitialPingStatus(t *testing.T) {
	assert.Equal(t, PingSent, InitialPingStatus(PingGentle, OrbitDeepWork))
	assert.Equal(t, PingDelivered, InitialPingStatus(PingGentle, OrbitOpen))
	assert.Equal(t, PingSent, InitialPingStatus(PingWarm, OrbitDeepWork))
	assert.Equal(t, PingSent, InitialPingStatus(PingDirect, OrbitOpen))
}

func TestPositionBetween(t *testing.T) {
	assert.Equal(t, 1.0, PositionBetween(nil, nil))

	p := 4.0
	assert.Equal(t, 5.0, PositionBetween(&p, nil))
	assert.Equal(t, 3.0, PositionBetween(nil, &p))

	lo, hi := 1.0, 2.0
	mid := PositionBetween(&lo, &hi)
	assert.Equal(t, 1.5, mid)

	// Appending never hits a ceiling.
	last := PositionBetween(nil, nil)
	for i := 0; i < 20; i++ {
		next := PositionBetween(&last, nil)
		assert.Greater(t, next, last)
		last = next
	}
}

func TestPositionFits_ExhaustedGap(t *testing.T) {
	lo, hi := 1.0, 2.0
	assert.True(t, PositionFits(PositionBetween(&lo, &hi), &lo, &hi))
	assert.False(t, PositionFits(lo, &lo, &hi))
	assert.False(t, PositionFits(hi, &lo, &hi))
	assert.True(t, PositionFits(7, nil, nil))

	// Halving one gap runs out of float64 precision well before 100 steps.
	fits := 0
	for i := 0; i < 100; i++ {
		mid := PositionBetween(&lo, &hi)
		if !PositionFits(mid, &lo, &hi) {
			break
		}
		hi = mid
		fits++
	}
	assert.Less(t, fits, 100)
}

func TestConnection_RecordInteraction(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewConnection("c1", "team", "zoe", "adam", now)
	assert.Equal(t, "adam", c.UserAID)
	assert.Equal(t, "zoe", c.UserBID)
	assert.Equal(t, 1, c.SharedWorkItems)
	assert.Equal(t, InitialResonance, c.ResonanceScore)
	assert.Equal(t, "zoe", c.Other("adam"))

	later := now.Add(time.Hour)
	c.RecordInteraction(later)
	assert.Equal(t, 2, c.SharedWorkItems)
	assert.Equal(t, 15, c.ResonanceScore)
	assert.Equal(t, later, c.LastInteractionAt)

	c.ResonanceScore = 98
	c.RecordInteraction(later)
	assert.Equal(t, MaxResonance, c.ResonanceScore)
}

func TestCrystal(t *testing.T) {
	f, b := Crystal(nil)
	assert.Zero(t, f)
	assert.Zero(t, b)

	f, b = Crystal([]Contributor{{EnergyContributed: 30}, {EnergyContributed: 10}})
	assert.Equal(t, 2, f)
	assert.Equal(t, 30, b) // mean 20 + 2*5

	_, b = Crystal([]Contributor{{EnergyContributed: 400}})
	assert.Equal(t, 100, b)
}

func TestDiveSession_Duration(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(44*time.Minute + 31*time.Second)
	d := DiveSession{DivedAt: start, SurfacedAt: &end}
	assert.False(t, d.Open())
	assert.Equal(t, 45, d.DurationMinutes(time.Time{}))

	open := DiveSession{DivedAt: start}
	assert.True(t, open.Open())
	assert.Equal(t, 10, open.DurationMinutes(start.Add(10*time.Minute+10*time.Second)))
}
