package domain

import "fmt"

// StreamState is the lifecycle state of a stream.
type StreamState string

const (
	StreamNascent    StreamState = "nascent"
	StreamFlowing    StreamState = "flowing"
	StreamEvaporated StreamState = "evaporated"
)

// ParseStreamState converts s into a StreamState.
func ParseStreamState(s string) (StreamState, error) {
	switch st := StreamState(s); st {
	case StreamNascent, StreamFlowing, StreamEvaporated:
		return st, nil
	}
	return "", fmt.Errorf("unknown stream state %q", s)
}

// Live reports whether the stream still accepts items and dives.
func (s StreamState) Live() bool {
	switch s {
	case StreamNascent, StreamFlowing:
		return true
	case StreamEvaporated:
		return false
	}
	return false
}
