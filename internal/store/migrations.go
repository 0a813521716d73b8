package store

import (
	"fmt"
)

func (s *Store) migrate() error {
	return s.migrateV1()
}

// SchemaVersion returns the applied schema version, or "" before migration.
func (s *Store) SchemaVersion() string {
	var version string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	if err != nil {
		return ""
	}
	return version
}

func (s *Store) migrateV1() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("failed to create meta table: %w", err)
	}
	if s.SchemaVersion() >= "1" {
		return nil
	}

	schema := `
	CREATE TABLE IF NOT EXISTS teams (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id                   TEXT PRIMARY KEY,
		name                 TEXT NOT NULL,
		email                TEXT,
		orbital_state        TEXT NOT NULL DEFAULT 'open',
		current_energy_level INTEGER NOT NULL DEFAULT 0,
		last_active_at       INTEGER,
		created_at           INTEGER NOT NULL,
		updated_at           INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS team_members (
		team_id   TEXT NOT NULL REFERENCES teams(id),
		user_id   TEXT NOT NULL REFERENCES users(id),
		role      TEXT NOT NULL DEFAULT 'member',
		joined_at INTEGER NOT NULL,
		PRIMARY KEY (team_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_members_user ON team_members(user_id, joined_at);

	CREATE TABLE IF NOT EXISTS streams (
		id            TEXT PRIMARY KEY,
		team_id       TEXT NOT NULL REFERENCES teams(id),
		name          TEXT NOT NULL,
		description   TEXT NOT NULL DEFAULT '',
		state         TEXT NOT NULL DEFAULT 'nascent',
		item_count    INTEGER NOT NULL DEFAULT 0,
		created_by    TEXT NOT NULL,
		created_at    INTEGER NOT NULL,
		updated_at    INTEGER NOT NULL,
		evaporated_at INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_streams_team ON streams(team_id, state);

	CREATE TABLE IF NOT EXISTS work_items (
		id               TEXT PRIMARY KEY,
		stream_id        TEXT NOT NULL REFERENCES streams(id),
		title            TEXT NOT NULL,
		description      TEXT NOT NULL DEFAULT '',
		depth            TEXT NOT NULL DEFAULT 'shallow',
		tags             TEXT NOT NULL DEFAULT '[]',
		state            TEXT NOT NULL DEFAULT 'dormant',
		energy_level     INTEGER NOT NULL DEFAULT 0,
		primary_owner_id TEXT REFERENCES users(id),
		position         REAL NOT NULL,
		facets           INTEGER NOT NULL DEFAULT 0,
		brilliance       INTEGER NOT NULL DEFAULT 0,
		version          INTEGER NOT NULL DEFAULT 1,
		created_by       TEXT NOT NULL,
		created_at       INTEGER NOT NULL,
		kindled_at       INTEGER,
		crystallized_at  INTEGER,
		updated_at       INTEGER NOT NULL,
		CHECK ((state = 'dormant') = (primary_owner_id IS NULL))
	);

	CREATE INDEX IF NOT EXISTS idx_items_stream ON work_items(stream_id, position);
	CREATE INDEX IF NOT EXISTS idx_items_owner ON work_items(primary_owner_id, state, crystallized_at);

	CREATE TABLE IF NOT EXISTS work_item_contributors (
		work_item_id        TEXT NOT NULL REFERENCES work_items(id),
		user_id             TEXT NOT NULL REFERENCES users(id),
		energy_contributed  INTEGER NOT NULL DEFAULT 0,
		is_primary          INTEGER NOT NULL DEFAULT 0,
		last_contributed_at INTEGER NOT NULL,
		created_at          INTEGER NOT NULL,
		PRIMARY KEY (work_item_id, user_id)
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_contrib_one_primary ON work_item_contributors(work_item_id) WHERE is_primary = 1;
	CREATE INDEX IF NOT EXISTS idx_contrib_user ON work_item_contributors(user_id, last_contributed_at);

	CREATE TABLE IF NOT EXISTS stream_divers (
		id          TEXT PRIMARY KEY,
		stream_id   TEXT NOT NULL REFERENCES streams(id),
		user_id     TEXT NOT NULL REFERENCES users(id),
		dived_at    INTEGER NOT NULL,
		surfaced_at INTEGER,
		UNIQUE (stream_id, user_id)
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_divers_one_open ON stream_divers(user_id) WHERE surfaced_at IS NULL;

	CREATE TABLE IF NOT EXISTS resonance_pings (
		id           TEXT PRIMARY KEY,
		from_user_id TEXT NOT NULL REFERENCES users(id),
		to_user_id   TEXT NOT NULL REFERENCES users(id),
		type         TEXT NOT NULL,
		status       TEXT NOT NULL DEFAULT 'sent',
		message      TEXT NOT NULL DEFAULT '',
		work_item_id TEXT REFERENCES work_items(id),
		stream_id    TEXT REFERENCES streams(id),
		sent_at      INTEGER NOT NULL,
		delivered_at INTEGER,
		read_at      INTEGER,
		expires_at   INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pings_inbox ON resonance_pings(to_user_id, status, type);
	CREATE INDEX IF NOT EXISTS idx_pings_outbox ON resonance_pings(from_user_id, sent_at);

	CREATE TABLE IF NOT EXISTS resonance_connections (
		id                  TEXT PRIMARY KEY,
		team_id             TEXT NOT NULL REFERENCES teams(id),
		user_a_id           TEXT NOT NULL REFERENCES users(id),
		user_b_id           TEXT NOT NULL REFERENCES users(id),
		shared_work_items   INTEGER NOT NULL DEFAULT 0,
		resonance_score     INTEGER NOT NULL DEFAULT 0,
		last_interaction_at INTEGER NOT NULL,
		created_at          INTEGER NOT NULL,
		UNIQUE (user_a_id, user_b_id),
		CHECK (user_a_id < user_b_id)
	);

	INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', '1');
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v1: %w", err)
	}

	return nil
}
