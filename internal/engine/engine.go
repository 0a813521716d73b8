// Package engine implements the energy and resonance state machines. Every
// command authorizes the actor by team membership, validates the current
// state, and applies its transition together with all secondary effects in
// one store transaction, so a rejected command changes nothing.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wk-j/dev-team-sub001/internal/domain"
	apperrors "github.com/wk-j/dev-team-sub001/internal/errors"
	"github.com/wk-j/dev-team-sub001/internal/membership"
	"github.com/wk-j/dev-team-sub001/internal/metrics"
	"github.com/wk-j/dev-team-sub001/internal/requestid"
	"github.com/wk-j/dev-team-sub001/internal/store"
)

// DefaultPingTTL is how long a ping stays actionable.
const DefaultPingTTL = 7 * 24 * time.Hour

// Engine runs commands and queries against the store.
type Engine struct {
	store   *store.Store
	members membership.Directory
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
	pingTTL time.Duration
	newID   func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPingTTL sets the lifetime of new pings.
func WithPingTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.pingTTL = ttl
		}
	}
}

// New creates an engine.
func New(st *store.Store, members membership.Directory, m *metrics.Metrics, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:   st,
		members: members,
		metrics: m,
		logger:  logger.With().Str("component", "engine").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
		pingTTL: DefaultPingTTL,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type transition struct {
	entity, from, to string
}

// effects collects what a command changed, reported only once the
// transaction has committed.
type effects struct {
	entityID    string
	transitions []transition
	released    int
}

// recordTransition notes a state change of entity.
func recordTransition[S ~string](fx *effects, entity string, from, to S) {
	fx.transitions = append(fx.transitions, transition{entity, string(from), string(to)})
}

// command runs fn in a write transaction and records its outcome.
func (e *Engine) command(ctx context.Context, name, actorID string, fn func(tx *store.Tx, fx *effects) error) error {
	start := time.Now()
	var fx effects
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		fx = effects{}
		return fn(tx, &fx)
	})
	if errors.Is(err, store.ErrStale) {
		err = apperrors.InvalidState(name, "work item was modified concurrently; reload and retry")
	}

	code := apperrors.Code(err)
	e.metrics.RecordCommand(name, code, time.Since(start).Seconds())

	var ev *zerolog.Event
	switch code {
	case "ok":
		ev = e.logger.Info()
		for _, t := range fx.transitions {
			e.metrics.RecordTransition(t.entity, t.from, t.to)
		}
		e.metrics.AddReleasedPings(fx.released)
	case "internal", "unavailable":
		ev = e.logger.Error().Err(err)
	default:
		ev = e.logger.Debug().Err(err)
	}
	ev.Str("command", name).
		Str("actor_id", actorID).
		Str("entity_id", fx.entityID).
		Str("outcome", code).
		Str("request_id", requestid.FromContext(ctx)).
		Dur("took", time.Since(start)).
		Msg("command")
	return err
}

// view runs read-only work.
func (e *Engine) view(ctx context.Context, fn func(tx *store.Tx) error) error {
	return e.store.View(ctx, fn)
}

// actorTeam returns the team the actor works in.
func (e *Engine) actorTeam(ctx context.Context, op, actorID string) (string, error) {
	team, err := e.members.TeamOf(ctx, actorID)
	if err != nil {
		return "", err
	}
	if team == "" {
		return "", apperrors.Forbidden(op, "user %s belongs to no team", actorID)
	}
	return team, nil
}

// requireMember rejects a target user outside teamID.
func (e *Engine) requireMember(ctx context.Context, op, userID, teamID string) error {
	ok, err := e.members.IsMember(ctx, userID, teamID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Forbidden(op, "user %s is not on team %s", userID, teamID)
	}
	return nil
}

// visibleStream loads a stream the actor's team owns. Streams of other
// teams are reported as absent.
func (e *Engine) visibleStream(ctx context.Context, tx *store.Tx, op, actorID, streamID string) (*domain.Stream, error) {
	st, err := tx.GetStream(ctx, streamID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, apperrors.NotFound(op, "stream %s not found", streamID)
	}
	ok, err := e.members.IsMember(ctx, actorID, st.TeamID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NotFound(op, "stream %s not found", streamID)
	}
	return st, nil
}

// visibleItem loads a work item together with its stream.
func (e *Engine) visibleItem(ctx context.Context, tx *store.Tx, op, actorID, itemID string) (*domain.WorkItem, *domain.Stream, error) {
	w, err := tx.GetWorkItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if w == nil {
		return nil, nil, apperrors.NotFound(op, "work item %s not found", itemID)
	}
	st, err := e.visibleStream(ctx, tx, op, actorID, w.StreamID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.NotFound(op, "work item %s not found", itemID)
		}
		return nil, nil, err
	}
	return w, st, nil
}

// visibleUser loads a user sharing a team with the actor.
func (e *Engine) visibleUser(ctx context.Context, tx *store.Tx, op, actorID, userID string) (*domain.User, error) {
	if userID != actorID {
		team, err := e.actorTeam(ctx, op, actorID)
		if err != nil {
			return nil, err
		}
		ok, err := e.members.IsMember(ctx, userID, team)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperrors.NotFound(op, "user %s not found", userID)
		}
	}
	u, err := tx.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperrors.NotFound(op, "user %s not found", userID)
	}
	return u, nil
}
