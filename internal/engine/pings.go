package engine

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/wk-j/dev-team-sub001/internal/domain"
	apperrors "github.com/wk-j/dev-team-sub001/internal/errors"
	"github.com/wk-j/dev-team-sub001/internal/store"
)

const maxMessageLen = 1000

// Mailboxes for ListPings.
const (
	Inbox  = "inbox"
	Outbox = "outbox"
)

// CreatePingInput describes a ping to send.
type CreatePingInput struct {
	ToUserID   string
	Type       string
	Message    string
	WorkItemID string
	StreamID   string
}

// CreatePing sends a ping to a teammate. A gentle ping to someone in
// deep_work is held at sent until they come out of it; any other gentle
// ping is delivered at once.
func (e *Engine) CreatePing(ctx context.Context, actorID string, in CreatePingInput) (*domain.Ping, error) {
	const op = "createPing"
	if strings.TrimSpace(in.ToUserID) == "" {
		return nil, apperrors.InvalidArgument(op, "recipient is required")
	}
	if in.ToUserID == actorID {
		return nil, apperrors.InvalidArgument(op, "cannot ping yourself")
	}
	typ, err := domain.ParsePingType(in.Type)
	if err != nil {
		return nil, apperrors.InvalidArgument(op, "%v", err)
	}
	if utf8.RuneCountInString(in.Message) > maxMessageLen {
		return nil, apperrors.InvalidArgument(op, "message is longer than %d characters", maxMessageLen)
	}

	var p *domain.Ping
	err = e.command(ctx, op, actorID, func(tx *store.Tx, fx *effects) error {
		team, err := e.actorTeam(ctx, op, actorID)
		if err != nil {
			return err
		}
		if err := e.requireMember(ctx, op, in.ToUserID, team); err != nil {
			return err
		}
		streamID := in.StreamID
		if in.WorkItemID != "" {
			w, _, err := e.visibleItem(ctx, tx, op, actorID, in.WorkItemID)
			if err != nil {
				return err
			}
			if streamID != "" && streamID != w.StreamID {
				return apperrors.InvalidArgument(op, "work item %s is not in stream %s", w.ID, streamID)
			}
			streamID = w.StreamID
		}
		if streamID != "" {
			st, err := e.visibleStream(ctx, tx, op, actorID, streamID)
			if err != nil {
				return err
			}
			if !st.State.Live() {
				return apperrors.InvalidState(op, "stream %s is %s", streamID, st.State)
			}
		}

		now := e.now()
		p, err = e.sendPing(ctx, tx, actorID, in.ToUserID, typ, in.Message, in.WorkItemID, streamID, now)
		if err != nil {
			return err
		}
		fx.entityID = p.ID
		return tx.TouchUser(ctx, actorID, now)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// sendPing stores a ping whose initial status depends on the recipient's
// current orbit.
func (e *Engine) sendPing(ctx context.Context, tx *store.Tx, from, to string, typ domain.PingType, message, itemID, streamID string, now time.Time) (*domain.Ping, error) {
	recipient, err := tx.GetUser(ctx, to)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, apperrors.NotFound("sendPing", "user %s not found", to)
	}
	p := &domain.Ping{
		ID:         e.newID(),
		FromUserID: from,
		ToUserID:   to,
		Type:       typ,
		Status:     domain.InitialPingStatus(typ, recipient.OrbitalState),
		Message:    strings.TrimSpace(message),
		WorkItemID: itemID,
		StreamID:   streamID,
		SentAt:     now,
		ExpiresAt:  now.Add(e.pingTTL),
	}
	if p.Status == domain.PingDelivered {
		p.DeliveredAt = &now
	}
	if err := tx.InsertPing(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePingStatus lets the recipient move a ping forward to delivered or
// read. Expired pings are frozen.
func (e *Engine) UpdatePingStatus(ctx context.Context, actorID, pingID, status string) (*domain.Ping, error) {
	const op = "updatePingStatus"
	to, err := domain.ParsePingStatus(status)
	if err != nil {
		return nil, apperrors.InvalidArgument(op, "%v", err)
	}

	var p *domain.Ping
	err = e.command(ctx, op, actorID, func(tx *store.Tx, fx *effects) error {
		fx.entityID = pingID
		var err error
		p, err = tx.GetPing(ctx, pingID)
		if err != nil {
			return err
		}
		switch {
		case p == nil:
			return apperrors.NotFound(op, "ping %s not found", pingID)
		case p.ToUserID == actorID:
		case p.FromUserID == actorID:
			return apperrors.Forbidden(op, "only the recipient can update ping %s", pingID)
		default:
			return apperrors.NotFound(op, "ping %s not found", pingID)
		}

		now := e.now()
		if p.Expired(now) {
			return apperrors.InvalidState(op, "ping %s expired at %s", pingID, p.ExpiresAt.Format(time.RFC3339))
		}
		if !p.Status.CanAdvance(to) {
			return apperrors.InvalidState(op, "ping %s cannot move from %s to %s", pingID, p.Status, to)
		}
		from := p.Status
		p.Status = to
		if p.DeliveredAt == nil {
			p.DeliveredAt = &now
		}
		if to == domain.PingRead {
			p.ReadAt = &now
		}
		if err := tx.UpdatePingStatus(ctx, p); err != nil {
			return err
		}
		recordTransition(fx, "ping", from, to)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPings returns the actor's unexpired pings, newest first. box selects
// received (inbox, the default) or sent (outbox) pings.
func (e *Engine) ListPings(ctx context.Context, actorID, box, status string, limit int) ([]*domain.Ping, error) {
	const op = "listPings"
	f := store.PingFilter{Now: e.now(), Limit: limit}
	switch box {
	case "", Inbox:
		f.ToUserID = actorID
	case Outbox:
		f.FromUserID = actorID
	default:
		return nil, apperrors.InvalidArgument(op, "unknown mailbox %q", box)
	}
	if status != "" {
		s, err := domain.ParsePingStatus(status)
		if err != nil {
			return nil, apperrors.InvalidArgument(op, "%v", err)
		}
		f.Status = s
	}

	var pings []*domain.Ping
	err := e.view(ctx, func(tx *store.Tx) error {
		var err error
		pings, err = tx.ListPings(ctx, f)
		return err
	})
	if pings == nil && err == nil {
		pings = []*domain.Ping{}
	}
	return pings, err
}
