package domain

import "fmt"

// PingType sets how insistent a ping is.
type PingType string

const (
	PingGentle PingType = "gentle"
	PingWarm   PingType = "warm"
	PingDirect PingType = "direct"
)

// ParsePingType converts s into a PingType.
func ParsePingType(s string) (PingType, error) {
	switch t := PingType(s); t {
	case PingGentle, PingWarm, PingDirect:
		return t, nil
	}
	return "", fmt.Errorf("unknown ping type %q", s)
}

// Gated reports whether delivery of this type depends on the recipient's
// orbital state.
func (t PingType) Gated() bool {
	switch t {
	case PingGentle:
		return true
	case PingWarm, PingDirect:
		return false
	}
	return false
}

// PingStatus is the delivery status of a ping.
type PingStatus string

const (
	PingSent      PingStatus = "sent"
	PingDelivered PingStatus = "delivered"
	PingRead      PingStatus = "read"
)

// ParsePingStatus converts s into a PingStatus.
func ParsePingStatus(s string) (PingStatus, error) {
	switch st := PingStatus(s); st {
	case PingSent, PingDelivered, PingRead:
		return st, nil
	}
	return "", fmt.Errorf("unknown ping status %q", s)
}

func (s PingStatus) rank() int {
	switch s {
	case PingSent:
		return 0
	case PingDelivered:
		return 1
	case PingRead:
		return 2
	}
	return -1
}

// CanAdvance reports whether s → to moves strictly forward along
// sent → delivered → read.
func (s PingStatus) CanAdvance(to PingStatus) bool {
	from, next := s.rank(), to.rank()
	return from >= 0 && next > from
}

// InitialPingStatus decides the status a new ping is created in. Gentle
// pings to a recipient whose orbital state holds them stay at sent until the
// recipient leaves that state; other gentle pings are delivered at once.
// Warm and direct pings always start at sent and are advanced by the recipient.
func InitialPingStatus(t PingType, recipient OrbitalState) PingStatus {
	if t.Gated() && !recipient.HoldsGentlePings() {
		return PingDelivered
	}
	return PingSent
}
