package engine

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/wk-j/dev-team-sub001/internal/domain"
	apperrors "github.com/wk-j/dev-team-sub001/internal/errors"
	"github.com/wk-j/dev-team-sub001/internal/store"
)

const maxNameLen = 200

func cleanName(op, field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", apperrors.InvalidArgument(op, "%s is required", field)
	}
	if utf8.RuneCountInString(v) > maxNameLen {
		return "", apperrors.InvalidArgument(op, "%s is longer than %d characters", field, maxNameLen)
	}
	return v, nil
}

// CreateStream creates a nascent stream in the actor's team.
func (e *Engine) CreateStream(ctx context.Context, actorID, name, description string) (*domain.Stream, error) {
	const op = "createStream"
	name, err := cleanName(op, "name", name)
	if err != nil {
		return nil, err
	}

	var st *domain.Stream
	err = e.command(ctx, op, actorID, func(tx *store.Tx, fx *effects) error {
		team, err := e.actorTeam(ctx, op, actorID)
		if err != nil {
			return err
		}
		now := e.now()
		st = &domain.Stream{
			ID:          e.newID(),
			TeamID:      team,
			Name:        name,
			Description: strings.TrimSpace(description),
			State:       domain.StreamNascent,
			CreatedBy:   actorID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		fx.entityID = st.ID
		if err := tx.InsertStream(ctx, st); err != nil {
			return err
		}
		return tx.TouchUser(ctx, actorID, now)
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// ListStreams returns the streams of the actor's team. Evaporated streams
// are left out unless includeEvaporated is set.
func (e *Engine) ListStreams(ctx context.Context, actorID string, includeEvaporated bool) ([]*domain.Stream, error) {
	team, err := e.actorTeam(ctx, "listStreams", actorID)
	if err != nil {
		return nil, err
	}
	var out []*domain.Stream
	err = e.view(ctx, func(tx *store.Tx) error {
		out, err = tx.ListStreams(ctx, team, includeEvaporated)
		return err
	})
	if out == nil && err == nil {
		out = []*domain.Stream{}
	}
	return out, err
}

// GetStream returns one stream of the actor's team.
func (e *Engine) GetStream(ctx context.Context, actorID, streamID string) (*domain.Stream, error) {
	var st *domain.Stream
	err := e.view(ctx, func(tx *store.Tx) error {
		var err error
		st, err = e.visibleStream(ctx, tx, "getStream", actorID, streamID)
		return err
	})
	return st, err
}

// EvaporateStream retires a stream for good and surfaces everyone diving
// in it.
func (e *Engine) EvaporateStream(ctx context.Context, actorID, streamID string) (*domain.Stream, error) {
	const op = "evaporateStream"
	var st *domain.Stream
	err := e.command(ctx, op, actorID, func(tx *store.Tx, fx *effects) error {
		fx.entityID = streamID
		cur, err := e.visibleStream(ctx, tx, op, actorID, streamID)
		if err != nil {
			return err
		}
		if !cur.State.Live() {
			return apperrors.InvalidState(op, "stream %s is already evaporated", streamID)
		}
		now := e.now()
		if _, err := tx.SurfaceStreamDives(ctx, streamID, now); err != nil {
			return err
		}
		if err := tx.SetStreamState(ctx, streamID, domain.StreamEvaporated, now); err != nil {
			return err
		}
		recordTransition(fx, "stream", cur.State, domain.StreamEvaporated)
		st, err = tx.GetStream(ctx, streamID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// ListStreamItems returns the items of a stream in position order.
func (e *Engine) ListStreamItems(ctx context.Context, actorID, streamID string) ([]*domain.WorkItem, error) {
	var items []*domain.WorkItem
	err := e.view(ctx, func(tx *store.Tx) error {
		if _, err := e.visibleStream(ctx, tx, "listStreamItems", actorID, streamID); err != nil {
			return err
		}
		var err error
		items, err = tx.ListWorkItems(ctx, streamID)
		return err
	})
	if items == nil && err == nil {
		items = []*domain.WorkItem{}
	}
	return items, err
}

// ListDivers returns the users currently diving in a stream.
func (e *Engine) ListDivers(ctx context.Context, actorID, streamID string) ([]domain.DiveSession, error) {
	var divers []domain.DiveSession
	err := e.view(ctx, func(tx *store.Tx) error {
		if _, err := e.visibleStream(ctx, tx, "listDivers", actorID, streamID); err != nil {
			return err
		}
		var err error
		divers, err = tx.OpenDivers(ctx, streamID)
		return err
	})
	return divers, err
}
