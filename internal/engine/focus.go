package engine

import (
	"context"

	"github.com/wk-j/dev-team-sub001/internal/domain"
	apperrors "github.com/wk-j/dev-team-sub001/internal/errors"
	"github.com/wk-j/dev-team-sub001/internal/store"
)

// DiveResult is the outcome of a dive.
type DiveResult struct {
	Session    domain.DiveSession   `json:"session"`
	OpenDivers []domain.DiveSession `json:"open_divers"`
}

// SurfaceResult is the outcome of a surface.
type SurfaceResult struct {
	Session         domain.DiveSession   `json:"session"`
	DurationMinutes int                  `json:"duration_minutes"`
	OpenDivers      []domain.DiveSession `json:"open_divers"`
}

// Dive opens a focus session on a stream. Any other open session of the
// user is surfaced first, so a user never has two open dives. The user's
// orbit becomes focused.
func (e *Engine) Dive(ctx context.Context, actorID, streamID string) (*DiveResult, error) {
	const op = "dive"
	var res DiveResult
	err := e.command(ctx, op, actorID, func(tx *store.Tx, fx *effects) error {
		fx.entityID = streamID
		st, err := e.visibleStream(ctx, tx, op, actorID, streamID)
		if err != nil {
			return err
		}
		if !st.State.Live() {
			return apperrors.InvalidState(op, "stream %s is %s", streamID, st.State)
		}
		user, err := tx.GetUser(ctx, actorID)
		if err != nil {
			return err
		}
		if user == nil {
			return apperrors.NotFound(op, "user %s not found", actorID)
		}

		now := e.now()
		if _, err := tx.SurfaceAllDives(ctx, actorID, now); err != nil {
			return err
		}
		session, err := tx.OpenDive(ctx, streamID, actorID, now)
		if err != nil {
			return err
		}
		if _, err := e.moveOrbit(ctx, tx, fx, user, domain.OrbitFocused); err != nil {
			return err
		}
		res.Session = *session
		res.OpenDivers, err = tx.OpenDivers(ctx, streamID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Surface closes the user's open session on a stream and returns the
// user's orbit to open.
func (e *Engine) Surface(ctx context.Context, actorID, streamID string) (*SurfaceResult, error) {
	const op = "surface"
	var res SurfaceResult
	err := e.command(ctx, op, actorID, func(tx *store.Tx, fx *effects) error {
		fx.entityID = streamID
		if _, err := e.visibleStream(ctx, tx, op, actorID, streamID); err != nil {
			return err
		}
		session, err := tx.GetDive(ctx, streamID, actorID)
		if err != nil {
			return err
		}
		if session == nil || !session.Open() {
			return apperrors.NotFound(op, "no open dive on stream %s", streamID)
		}
		user, err := tx.GetUser(ctx, actorID)
		if err != nil {
			return err
		}
		if user == nil {
			return apperrors.NotFound(op, "user %s not found", actorID)
		}

		now := e.now()
		if err := tx.CloseDive(ctx, session.ID, now); err != nil {
			return err
		}
		session.SurfacedAt = &now
		if _, err := e.moveOrbit(ctx, tx, fx, user, domain.OrbitOpen); err != nil {
			return err
		}
		res.Session = *session
		res.DurationMinutes = session.DurationMinutes(now)
		res.OpenDivers, err = tx.OpenDivers(ctx, streamID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}
