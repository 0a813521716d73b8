// Package api exposes the energy engine over HTTP.
package api

import (
	"github.com/wk-j/dev-team-sub001/internal/domain"
)

// CreateStreamRequest is the body of POST /api/v1/streams.
type CreateStreamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateWorkItemRequest is the body of POST /api/v1/streams/:id/items.
type CreateWorkItemRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Depth       string   `json:"depth"`
	Tags        []string `json:"tags"`
	AfterItemID string   `json:"after_item_id"`
}

// TransferRequest is the body of assign and handoff.
type TransferRequest struct {
	TargetUserID string `json:"target_user_id"`
	Message      string `json:"message"`
}

// ContributeRequest is the body of POST /api/v1/items/:id/contribute.
type ContributeRequest struct {
	Amount int `json:"amount"`
}

// StateRequest carries a target state for items, orbits and pings.
type StateRequest struct {
	State  string `json:"state"`
	Status string `json:"status"`
}

// CreatePingRequest is the body of POST /api/v1/pings.
type CreatePingRequest struct {
	ToUserID   string `json:"to_user_id"`
	Type       string `json:"type"`
	Message    string `json:"message"`
	WorkItemID string `json:"work_item_id"`
	StreamID   string `json:"stream_id"`
}

// StreamListResponse wraps GET /api/v1/streams.
type StreamListResponse struct {
	Streams []*domain.Stream `json:"streams"`
	Total   int              `json:"total"`
}

// ItemListResponse wraps GET /api/v1/streams/:id/items.
type ItemListResponse struct {
	Items []*domain.WorkItem `json:"items"`
	Total int                `json:"total"`
}

// DiverListResponse wraps GET /api/v1/streams/:id/divers.
type DiverListResponse struct {
	Divers []domain.DiveSession `json:"divers"`
}

// PingListResponse wraps GET /api/v1/pings.
type PingListResponse struct {
	Pings []*domain.Ping `json:"pings"`
	Total int            `json:"total"`
}

// ConnectionListResponse wraps GET /api/v1/me/connections.
type ConnectionListResponse struct {
	Connections []domain.Connection `json:"connections"`
}

// ProblemDetail follows RFC 7807 for error responses.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}
