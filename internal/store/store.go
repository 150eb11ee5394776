// Package store persists earned badges in SQLite.
//
// The (company_id, badge_id) UNIQUE index is the at-most-once boundary for
// awards: concurrent awarders may race, and exactly one insert wins.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aaltino/hubempresas-sub001/internal/badges"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Config holds store configuration.
type Config struct {
	DataDir string
}

// Store is a SQLite-backed badges.Recorder.
type Store struct {
	db    *sql.DB
	cfg   Config
	hooks storeHooks
}

var _ badges.Recorder = (*Store)(nil)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type storeHooks struct {
	exec  func(ctx context.Context, db execer, query string, args ...any) (sql.Result, error)
	query func(ctx context.Context, db queryer, query string, args ...any) (*sql.Rows, error)
}

func defaultStoreHooks() storeHooks {
	return storeHooks{
		exec: func(ctx context.Context, db execer, query string, args ...any) (sql.Result, error) {
			return db.ExecContext(ctx, query, args...)
		},
		query: func(ctx context.Context, db queryer, query string, args ...any) (*sql.Rows, error) {
			return db.QueryContext(ctx, query, args...)
		},
	}
}

func (s *Store) execHook(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if s.hooks.exec != nil {
		return s.hooks.exec(ctx, s.db, query, args...)
	}
	return s.db.ExecContext(ctx, query, args...)
}

func (s *Store) queryHook(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if s.hooks.query != nil {
		return s.hooks.query(ctx, s.db, query, args...)
	}
	return s.db.QueryContext(ctx, query, args...)
}

// New creates the data directory if needed, opens SQLite with WAL mode and
// runs migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "progression.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	// One connection keeps the per-connection pragmas in force.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg, hooks: defaultStoreHooks()}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS company_badges (
			id              TEXT PRIMARY KEY,
			company_id      TEXT NOT NULL,
			badge_id        TEXT NOT NULL,
			earned_at       TEXT NOT NULL,
			earned_by_event TEXT NOT NULL DEFAULT ''
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_company_badge_unique ON company_badges(company_id, badge_id);
		CREATE INDEX IF NOT EXISTS idx_company_badges_company ON company_badges(company_id, earned_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts a CompanyBadge. A second award of the same badge to the
// same company returns badges.ErrAlreadyAwarded.
func (s *Store) Record(ctx context.Context, cb badges.CompanyBadge) error {
	if cb.ID == "" || cb.CompanyID == "" || cb.BadgeID == "" {
		return fmt.Errorf("store: company badge needs id, company and badge")
	}
	_, err := s.execHook(ctx,
		`INSERT INTO company_badges (id, company_id, badge_id, earned_at, earned_by_event)
		 VALUES (?, ?, ?, ?, ?)`,
		cb.ID, cb.CompanyID, cb.BadgeID, cb.EarnedAt.UTC().Format(time.RFC3339Nano), cb.EarnedByEvent,
	)
	if isUniqueViolation(err) {
		return badges.ErrAlreadyAwarded
	}
	if err != nil {
		return fmt.Errorf("store: record badge: %w", err)
	}
	return nil
}

// Earned returns the company's badges, oldest first.
func (s *Store) Earned(ctx context.Context, companyID string) ([]badges.CompanyBadge, error) {
	rows, err := s.queryHook(ctx,
		`SELECT id, company_id, badge_id, earned_at, earned_by_event
		 FROM company_badges WHERE company_id = ?
		 ORDER BY earned_at ASC, badge_id ASC`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: query badges: %w", err)
	}
	defer rows.Close()

	out := []badges.CompanyBadge{}
	for rows.Next() {
		var cb badges.CompanyBadge
		var earnedAt string
		if err := rows.Scan(&cb.ID, &cb.CompanyID, &cb.BadgeID, &earnedAt, &cb.EarnedByEvent); err != nil {
			return nil, fmt.Errorf("store: scan badge: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, earnedAt)
		if err != nil {
			return nil, fmt.Errorf("store: badge %s has bad earned_at %q: %w", cb.ID, earnedAt, err)
		}
		cb.EarnedAt = t
		out = append(out, cb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate badges: %w", err)
	}
	return out, nil
}

// Revoke removes an earned badge. It is the explicit operation that takes
// a pair back to not-earned; awarding never does. Revoking a badge the
// company does not hold returns sql.ErrNoRows.
func (s *Store) Revoke(ctx context.Context, companyID, badgeID string) error {
	res, err := s.execHook(ctx,
		`DELETE FROM company_badges WHERE company_id = ? AND badge_id = ?`,
		companyID, badgeID,
	)
	if err != nil {
		return fmt.Errorf("store: revoke badge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: revoke badge: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("store: company %q does not hold badge %q: %w", companyID, badgeID, sql.ErrNoRows)
	}
	return nil
}

// isUniqueViolation checks if an error is a SQLite UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsNotFound reports whether err came from revoking a badge that was not held.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
