package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wk-j/dev-team-sub001/internal/domain"
)

// UpsertTeam inserts a team or renames an existing one.
func (t *Tx) UpsertTeam(ctx context.Context, team domain.Team) error {
	_, err := t.q.ExecContext(ctx, `
	INSERT INTO teams (id, name, created_at) VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, team.ID, team.Name, ms(team.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert team: %w", err)
	}
	return nil
}

// UpsertUser inserts a user or refreshes its profile fields. Attention
// state and activity timestamps are left alone on update.
func (t *Tx) UpsertUser(ctx context.Context, u domain.User) error {
	state := u.OrbitalState
	if state == "" {
		state = domain.OrbitOpen
	}
	_, err := t.q.ExecContext(ctx, `
	INSERT INTO users (id, name, email, orbital_state, current_energy_level, created_at, updated_at)
	VALUES (?, ?, ?, ?, 0, ?, ?)
	ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email, updated_at = excluded.updated_at
	`, u.ID, u.Name, nullString(u.Email), string(state), ms(u.CreatedAt), ms(u.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// AddMember puts a user on a team. Existing memberships are kept.
func (t *Tx) AddMember(ctx context.Context, teamID, userID, role string, at time.Time) error {
	if role == "" {
		role = "member"
	}
	_, err := t.q.ExecContext(ctx, `
	INSERT INTO team_members (team_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)
	ON CONFLICT(team_id, user_id) DO UPDATE SET role = excluded.role
	`, teamID, userID, role, ms(at))
	if err != nil {
		return fmt.Errorf("failed to add team member: %w", err)
	}
	return nil
}

const userColumns = `id, name, email, orbital_state, current_energy_level, last_active_at, created_at, updated_at`

// GetUser returns the user with id, or nil if there is none.
func (t *Tx) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u := &domain.User{}
	var email sql.NullString
	var state string
	var lastActive sql.NullInt64
	var createdAt, updatedAt int64

	err := t.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id).Scan(
		&u.ID, &u.Name, &email, &state, &u.CurrentEnergyLevel, &lastActive, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.Email = email.String
	u.OrbitalState = domain.OrbitalState(state)
	u.LastActiveAt = timePtr(lastActive)
	u.CreatedAt = fromMs(createdAt)
	u.UpdatedAt = fromMs(updatedAt)
	return u, nil
}

// SetOrbitalState records a new attention state and stamps activity.
func (t *Tx) SetOrbitalState(ctx context.Context, userID string, state domain.OrbitalState, now time.Time) error {
	res, err := t.q.ExecContext(ctx, `
	UPDATE users SET orbital_state = ?, last_active_at = ?, updated_at = ? WHERE id = ?
	`, string(state), ms(now), ms(now), userID)
	if err != nil {
		return fmt.Errorf("failed to set orbital state: %w", err)
	}
	return mustAffect(res, "user", userID)
}

// TouchUser stamps last activity.
func (t *Tx) TouchUser(ctx context.Context, userID string, now time.Time) error {
	_, err := t.q.ExecContext(ctx, `UPDATE users SET last_active_at = ? WHERE id = ?`, ms(now), userID)
	if err != nil {
		return fmt.Errorf("failed to touch user: %w", err)
	}
	return nil
}

// TeamsOf returns the IDs of the teams a user belongs to, oldest membership
// first. It reads straight from the pool, so it is safe to call while a
// write transaction is open.
func (s *Store) TeamsOf(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT team_id FROM team_members WHERE user_id = ? ORDER BY joined_at, team_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, id)
	}
	return teams, rows.Err()
}

func mustAffect(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s not found", what, id)
	}
	return nil
}
