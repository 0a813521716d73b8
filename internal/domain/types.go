// Package domain holds the entities of the energy engine and the closed
// state types whose transition rules every component shares.
package domain

import "time"

// User is a team member with an attention state.
type User struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email,omitempty"`
	OrbitalState OrbitalState `json:"orbital_state"`
	// CurrentEnergyLevel is a display hint. Reads overwrite it with the
	// calculator's result.
	CurrentEnergyLevel int        `json:"current_energy_level"`
	LastActiveAt       *time.Time `json:"last_active_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Team groups users. Streams belong to exactly one team.
type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Stream is a team-scoped container of work items.
type Stream struct {
	ID           string      `json:"id"`
	TeamID       string      `json:"team_id"`
	Name         string      `json:"name"`
	Description  string      `json:"description,omitempty"`
	State        StreamState `json:"state"`
	ItemCount    int         `json:"item_count"`
	CreatedBy    string      `json:"created_by"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	EvaporatedAt *time.Time  `json:"evaporated_at,omitempty"`
}

// WorkItem is a unit of work moving through the energy lifecycle.
type WorkItem struct {
	ID          string    `json:"id"`
	StreamID    string    `json:"stream_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Depth       Depth     `json:"depth"`
	Tags        []string  `json:"tags"`
	State       ItemState `json:"state"`
	EnergyLevel int       `json:"energy_level"`
	// PrimaryOwnerID is empty exactly when State is dormant.
	PrimaryOwnerID string     `json:"primary_owner_id,omitempty"`
	Position       float64    `json:"position"`
	Facets         int        `json:"facets"`
	Brilliance     int        `json:"brilliance"`
	Version        int64      `json:"version"`
	CreatedBy      string     `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	KindledAt      *time.Time `json:"kindled_at,omitempty"`
	CrystallizedAt *time.Time `json:"crystallized_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Contributor joins a user to a work item they have put energy into.
type Contributor struct {
	WorkItemID        string    `json:"work_item_id"`
	UserID            string    `json:"user_id"`
	EnergyContributed int       `json:"energy_contributed"`
	IsPrimary         bool      `json:"is_primary"`
	LastContributedAt time.Time `json:"last_contributed_at"`
	CreatedAt         time.Time `json:"created_at"`
}

// DiveSession is one focus interval of a user on a stream.
type DiveSession struct {
	ID         string     `json:"id"`
	StreamID   string     `json:"stream_id"`
	UserID     string     `json:"user_id"`
	DivedAt    time.Time  `json:"dived_at"`
	SurfacedAt *time.Time `json:"surfaced_at,omitempty"`
}

// Open reports whether the session has not surfaced yet.
func (d DiveSession) Open() bool { return d.SurfacedAt == nil }

// DurationMinutes is the session length in whole minutes, rounded to the
// nearest minute. Open sessions are measured up to now.
func (d DiveSession) DurationMinutes(now time.Time) int {
	end := now
	if d.SurfacedAt != nil {
		end = *d.SurfacedAt
	}
	return int(end.Sub(d.DivedAt).Round(time.Minute) / time.Minute)
}

// Ping is a directed notification between two users.
type Ping struct {
	ID          string     `json:"id"`
	FromUserID  string     `json:"from_user_id"`
	ToUserID    string     `json:"to_user_id"`
	Type        PingType   `json:"type"`
	Status      PingStatus `json:"status"`
	Message     string     `json:"message,omitempty"`
	WorkItemID  string     `json:"work_item_id,omitempty"`
	StreamID    string     `json:"stream_id,omitempty"`
	SentAt      time.Time  `json:"sent_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`
}

// Expired reports whether the ping is past its expiry at now.
func (p Ping) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Connection is the symmetric resonance between two users. UserAID always
// sorts before UserBID.
type Connection struct {
	ID                string    `json:"id"`
	TeamID            string    `json:"team_id"`
	UserAID           string    `json:"user_a_id"`
	UserBID           string    `json:"user_b_id"`
	SharedWorkItems   int       `json:"shared_work_items"`
	ResonanceScore    int       `json:"resonance_score"`
	LastInteractionAt time.Time `json:"last_interaction_at"`
	CreatedAt         time.Time `json:"created_at"`
}
