/*
Package sqlite provides the durable SQLite-backed ThresholdStore.

PURPOSE:
  Persists, per creator, the first period the period diamonds met the tracked
  threshold. The same file survives restarts and every run reads it.

INTERFACES IMPLEMENTED:
  generic.ThresholdStore:  Lookup + write-once insert
  generic.ThresholdLister: Single record and full listing

WRITE-ONCE ENFORCEMENT:
  - creator_id is the PRIMARY KEY
  - inserts use ON CONFLICT(creator_id) DO NOTHING
  - no UPDATE or DELETE statement exists for creator_thresholds
  The insert and the read-back of the stored label run in one transaction, so
  two concurrent writers for the same creator both observe the winner.

KEY TABLES:
  creator_thresholds(creator_id, first_reached_period, recorded_at)

CONNECTION SETTINGS:
  One open connection. SQLite allows a single writer anyway, and ":memory:"
  databases exist per connection. PRAGMAs: WAL journal, NORMAL sync, 5s busy
  timeout.

MIGRATION:
  Versioned goose migrations embedded from migrations/*.sql, applied on New().

USAGE:
  st, err := sqlite.New("./data/payouts.db", logger)
  if err != nil { ... }
  defer st.Close()
  engine := rewards.NewEngine(ruleset, st)

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for tests and dry runs
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/warp/payout-engine/generic"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Store implements generic.ThresholdLister on SQLite.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

// Compile-time check that Store implements generic.ThresholdLister
var _ generic.ThresholdLister = (*Store)(nil)

// New opens (or creates) the database at dbPath and applies migrations.
// Use ":memory:" for a throwaway database.
func New(dbPath string, logger zerolog.Logger) (*Store, error) {
	logger = logger.With().Str("component", "threshold_store").Logger()
	logger.Info().Str("path", dbPath).Msg("opening threshold store")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(db, logger); err != nil {
		db.Close()
		return nil, err
	}
	if err := runMigrations(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func applyPragmas(db *sql.DB, logger zerolog.Logger) error {
	pragmas := []struct {
		name  string
		value string
	}{
		{"journal_mode", "WAL"},
		{"synchronous", "NORMAL"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "ON"},
		{"temp_store", "MEMORY"},
	}

	for _, p := range pragmas {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return fmt.Errorf("failed to set PRAGMA %s: %w", p.name, err)
		}
		logger.Debug().Str("pragma", p.name).Str("value", p.value).Msg("SQLite pragma set")
	}
	return nil
}

func runMigrations(db *sql.DB, logger zerolog.Logger) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{logger})

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}

	logger.Debug().Msg("migrations completed")
	return nil
}

// gooseLogger routes goose output through zerolog.
type gooseLogger struct {
	logger zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Debug().Msgf(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Fatal().Msgf(format, v...)
}

// =============================================================================
// THRESHOLD STORE
// =============================================================================

// FirstReached returns the recorded label for creatorID.
func (s *Store) FirstReached(ctx context.Context, creatorID string) (generic.PeriodLabel, bool, error) {
	if creatorID == "" {
		return "", false, generic.ErrCreatorIDRequired
	}

	var label string
	err := s.db.QueryRowContext(ctx,
		`SELECT first_reached_period FROM creator_thresholds WHERE creator_id = ?`,
		creatorID,
	).Scan(&label)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read threshold: %w", err)
	}
	return generic.PeriodLabel(label), true, nil
}

// SetFirstReachedIfAbsent inserts label unless creatorID already has a
// record, and returns the stored label. The record is committed on return.
func (s *Store) SetFirstReachedIfAbsent(ctx context.Context, creatorID string, label generic.PeriodLabel) (generic.PeriodLabel, bool, error) {
	if creatorID == "" {
		return "", false, generic.ErrCreatorIDRequired
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO creator_thresholds (creator_id, first_reached_period, recorded_at)
		VALUES (?, ?, ?)
		ON CONFLICT(creator_id) DO NOTHING
	`, creatorID, label.String(), s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", false, fmt.Errorf("failed to insert threshold: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("failed to insert threshold: %w", err)
	}

	var stored string
	if err := tx.QueryRowContext(ctx,
		`SELECT first_reached_period FROM creator_thresholds WHERE creator_id = ?`,
		creatorID,
	).Scan(&stored); err != nil {
		return "", false, fmt.Errorf("failed to read back threshold: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("failed to commit threshold: %w", err)
	}

	inserted := affected == 1
	if inserted {
		s.logger.Debug().Str("creator_id", creatorID).Str("period", stored).Msg("threshold recorded")
	}
	return generic.PeriodLabel(stored), inserted, nil
}

// =============================================================================
// THRESHOLD LISTER
// =============================================================================

// Threshold returns the full record for creatorID.
func (s *Store) Threshold(ctx context.Context, creatorID string) (generic.ThresholdRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT creator_id, first_reached_period, recorded_at
		FROM creator_thresholds WHERE creator_id = ?
	`, creatorID)
	if err != nil {
		return generic.ThresholdRecord{}, fmt.Errorf("failed to read threshold: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return generic.ThresholdRecord{}, fmt.Errorf("failed to read threshold: %w", err)
		}
		return generic.ThresholdRecord{}, fmt.Errorf("creator %q: %w", creatorID, generic.ErrThresholdNotFound)
	}
	return scanRecord(rows)
}

// ListThresholds returns every record ordered by creator identifier.
func (s *Store) ListThresholds(ctx context.Context) ([]generic.ThresholdRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT creator_id, first_reached_period, recorded_at
		FROM creator_thresholds ORDER BY creator_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list thresholds: %w", err)
	}
	defer rows.Close()

	var out []generic.ThresholdRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(rows *sql.Rows) (generic.ThresholdRecord, error) {
	var (
		rec        generic.ThresholdRecord
		label      string
		recordedAt string
	)
	if err := rows.Scan(&rec.CreatorID, &label, &recordedAt); err != nil {
		return rec, fmt.Errorf("failed to scan threshold: %w", err)
	}
	rec.FirstReachedPeriod = generic.PeriodLabel(label)
	rec.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
	return rec, nil
}
