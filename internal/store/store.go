package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	apperrors "github.com/wk-j/dev-team-sub001/internal/errors"
	"github.com/wk-j/dev-team-sub001/internal/retry"
)

// Store manages the SQLite database.
type Store struct {
	db      *sql.DB
	logger  zerolog.Logger
	retry   retry.Config
	writeMu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithRetry sets how transactions are retried on a busy database.
func WithRetry(cfg retry.Config) Option {
	return func(s *Store) { s.retry = cfg }
}

// New opens (or creates) the SQLite database and runs migrations.
func New(dbPath string, logger zerolog.Logger, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.With().Str("component", "store").Logger(),
		retry:  retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	s.logger.Info().Str("path", dbPath).Msg("store initialized")
	return s, nil
}

// dsn puts the pragmas on the connection string so that every pooled
// connection gets them, and makes write transactions take the write lock
// when they begin.
func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(ON)")
	q.Set("_txlock", "immediate")
	return path + "?" + q.Encode()
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying database connection (for testing).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx runs fn inside one write transaction. Writers are serialized in
// process; across processes the immediate transaction lock does the same.
// If fn returns an error the transaction rolls back and nothing it wrote is
// kept. Busy or locked databases cause the whole unit to be retried.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return retry.Do(ctx, s.retry, func(ctx context.Context) error {
		sqlTx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return classify("begin", err)
		}
		if err := fn(&Tx{q: sqlTx}); err != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("rollback failed")
			}
			return classify("tx", err)
		}
		if err := sqlTx.Commit(); err != nil {
			return classify("commit", err)
		}
		return nil
	})
}

// View runs read-only work inside one read transaction, so every query in
// fn sees the same snapshot. Read-only transactions begin deferred and do
// not take the write lock, even with _txlock=immediate.
func (s *Store) View(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return classify("view begin", err)
	}
	defer func() {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Warn().Err(rbErr).Msg("view rollback failed")
		}
	}()
	return classify("view", fn(&Tx{q: sqlTx}))
}

// classify marks busy and locked databases as transient so WithTx retries
// them. Any other error passes through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			if !apperrors.IsRetryable(err) {
				return apperrors.Unavailable(op, err)
			}
		}
	}
	return err
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx exposes the queries of the store. Inside WithTx every call shares one
// transaction.
type Tx struct {
	q querier
}

// ErrStale is returned when an optimistic version check fails because the
// row changed since it was read.
var ErrStale = errors.New("row modified concurrently")

func ms(t time.Time) int64 { return t.UnixMilli() }

func fromMs(v int64) time.Time { return time.UnixMilli(v).UTC() }

func nullMs(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMs(v.Int64)
	return &t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
