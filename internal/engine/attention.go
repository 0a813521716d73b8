package engine

import (
	"context"

	"github.com/wk-j/dev-team-sub001/internal/domain"
	apperrors "github.com/wk-j/dev-team-sub001/internal/errors"
	"github.com/wk-j/dev-team-sub001/internal/store"
)

// OrbitResult is the outcome of an orbital state change.
type OrbitResult struct {
	User                 *domain.User `json:"user"`
	DeliveredQueuedCount int          `json:"delivered_queued_count"`
}

// SetOrbitalState moves the actor to a new attention state. Leaving
// deep_work delivers every gentle ping held while the user was there.
func (e *Engine) SetOrbitalState(ctx context.Context, actorID, state string) (*OrbitResult, error) {
	const op = "setOrbitalState"
	to, err := domain.ParseOrbitalState(state)
	if err != nil {
		return nil, apperrors.InvalidArgument(op, "%v", err)
	}

	var res OrbitResult
	err = e.command(ctx, op, actorID, func(tx *store.Tx, fx *effects) error {
		fx.entityID = actorID
		user, err := tx.GetUser(ctx, actorID)
		if err != nil {
			return err
		}
		if user == nil {
			return apperrors.NotFound(op, "user %s not found", actorID)
		}
		if res.DeliveredQueuedCount, err = e.moveOrbit(ctx, tx, fx, user, to); err != nil {
			return err
		}
		if res.User, err = tx.GetUser(ctx, actorID); err != nil {
			return err
		}
		return e.fillEnergy(ctx, tx, res.User)
	})
	if err != nil {
		return nil, err
	}
	e.metrics.ObserveEnergy(res.User.CurrentEnergyLevel)
	return &res, nil
}

// moveOrbit stores the user's new orbital state and, when the user leaves
// deep_work, releases their queued gentle pings in one batch. It returns how
// many pings were released.
func (e *Engine) moveOrbit(ctx context.Context, tx *store.Tx, fx *effects, user *domain.User, to domain.OrbitalState) (int, error) {
	now := e.now()
	t := domain.TransitionOrbit(user.OrbitalState, to)
	if err := tx.SetOrbitalState(ctx, user.ID, t.To, now); err != nil {
		return 0, err
	}
	if t.From != t.To {
		recordTransition(fx, "user", t.From, t.To)
	}
	if !t.ReleaseQueue {
		return 0, nil
	}
	n, err := tx.ReleaseGentlePings(ctx, user.ID, now)
	if err != nil {
		return 0, err
	}
	fx.released += int(n)
	return int(n), nil
}
