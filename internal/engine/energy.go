package engine

import (
	"context"

	"github.com/wk-j/dev-team-sub001/internal/domain"
	"github.com/wk-j/dev-team-sub001/internal/energy"
	"github.com/wk-j/dev-team-sub001/internal/store"
)

// EnergyReport is a user's energy level and how it was reached.
type EnergyReport struct {
	UserID    string           `json:"user_id"`
	Level     int              `json:"energy_level"`
	Breakdown energy.Breakdown `json:"breakdown"`
}

// UserEnergy computes the energy of a teammate as of now. Nothing is
// written back.
func (e *Engine) UserEnergy(ctx context.Context, actorID, userID string) (*EnergyReport, error) {
	var r *EnergyReport
	err := e.view(ctx, func(tx *store.Tx) error {
		if _, err := e.visibleUser(ctx, tx, "userEnergy", actorID, userID); err != nil {
			return err
		}
		var err error
		r, err = e.explain(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.metrics.ObserveEnergy(r.Level)
	return r, nil
}

// EnergyOf computes a user's energy without a team check. It serves
// operator tooling.
func (e *Engine) EnergyOf(ctx context.Context, userID string) (*EnergyReport, error) {
	var r *EnergyReport
	err := e.view(ctx, func(tx *store.Tx) error {
		var err error
		r, err = e.explain(ctx, tx, userID)
		return err
	})
	return r, err
}

// GetUser returns a teammate with a freshly computed energy level.
func (e *Engine) GetUser(ctx context.Context, actorID, userID string) (*domain.User, error) {
	var u *domain.User
	err := e.view(ctx, func(tx *store.Tx) error {
		var err error
		if u, err = e.visibleUser(ctx, tx, "getUser", actorID, userID); err != nil {
			return err
		}
		return e.fillEnergy(ctx, tx, u)
	})
	if err != nil {
		return nil, err
	}
	e.metrics.ObserveEnergy(u.CurrentEnergyLevel)
	return u, nil
}

func (e *Engine) explain(ctx context.Context, tx *store.Tx, userID string) (*EnergyReport, error) {
	now := e.now()
	agg, err := tx.EnergyAggregates(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	b := energy.Explain(agg, now)
	return &EnergyReport{UserID: userID, Level: b.Total, Breakdown: b}, nil
}

// fillEnergy replaces the stored energy hint of u with the computed value.
func (e *Engine) fillEnergy(ctx context.Context, tx *store.Tx, u *domain.User) error {
	r, err := e.explain(ctx, tx, u.ID)
	if err != nil {
		return err
	}
	u.CurrentEnergyLevel = r.Level
	return nil
}
