package domain

import "fmt"

// OrbitalState is a user's attention mode.
type OrbitalState string

const (
	OrbitOpen      OrbitalState = "open"
	OrbitFocused   OrbitalState = "focused"
	OrbitDeepWork  OrbitalState = "deep_work"
	OrbitAway      OrbitalState = "away"
	OrbitSupernova OrbitalState = "supernova"
)

// ParseOrbitalState converts s into an OrbitalState.
func ParseOrbitalState(s string) (OrbitalState, error) {
	o := OrbitalState(s)
	if !o.Valid() {
		return "", fmt.Errorf("unknown orbital state %q", s)
	}
	return o, nil
}

// Valid reports whether o is one of the declared states.
func (o OrbitalState) Valid() bool {
	switch o {
	case OrbitOpen, OrbitFocused, OrbitDeepWork, OrbitAway, OrbitSupernova:
		return true
	}
	return false
}

// HoldsGentlePings reports whether gentle pings addressed to a user in this
// state are queued instead of delivered.
func (o OrbitalState) HoldsGentlePings() bool {
	switch o {
	case OrbitDeepWork:
		return true
	case OrbitOpen, OrbitFocused, OrbitAway, OrbitSupernova:
		return false
	}
	return false
}

// OrbitalTransition is the outcome of moving a user between orbital states.
// Every transition is allowed; the only side effect is the release of the
// gentle-ping queue when the user leaves a holding state.
type OrbitalTransition struct {
	From         OrbitalState
	To           OrbitalState
	ReleaseQueue bool
}

// TransitionOrbit computes the transition from → to.
func TransitionOrbit(from, to OrbitalState) OrbitalTransition {
	return OrbitalTransition{
		From:         from,
		To:           to,
		ReleaseQueue: from.HoldsGentlePings() && !to.HoldsGentlePings(),
	}
}
