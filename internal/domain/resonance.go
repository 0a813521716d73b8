package domain

import "time"

// Resonance scoring constants.
const (
	InitialResonance = 10
	ResonanceStep    = 5
	MaxResonance     = 100
)

// OrderPair returns the two user IDs in storage order.
func OrderPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// NewConnection starts the resonance between a and b after their first
// ownership transfer.
func NewConnection(id, teamID, a, b string, now time.Time) Connection {
	ua, ub := OrderPair(a, b)
	return Connection{
		ID:                id,
		TeamID:            teamID,
		UserAID:           ua,
		UserBID:           ub,
		SharedWorkItems:   1,
		ResonanceScore:    InitialResonance,
		LastInteractionAt: now,
		CreatedAt:         now,
	}
}

// RecordInteraction bumps an existing connection. Scores never decrease.
func (c *Connection) RecordInteraction(now time.Time) {
	c.SharedWorkItems++
	c.ResonanceScore = min(MaxResonance, c.ResonanceScore+ResonanceStep)
	c.LastInteractionAt = now
}

// Other returns the member of the pair that is not userID.
func (c Connection) Other(userID string) string {
	if c.UserAID == userID {
		return c.UserBID
	}
	return c.UserAID
}
