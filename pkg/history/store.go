// Package history persists a compact, queryable summary of every completed
// generate/analyze run so trends can be inspected without re-parsing run
// directories. Failures here are logged and never fail a run (SPEC_FULL §4.9).
package history

import (
	"context"
	stdsql "database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver for migrations

	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
)

//go:embed migrations
var migrationsFS embed.FS

// Store persists RunSummary records in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to Postgres, applies pending migrations, and returns a ready Store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if err := runMigrations(cfg.DSN()); err != nil {
		return nil, fmt.Errorf("run history migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse history store DSN: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open history store pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping history store: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Record upserts one run's summary at run end.
func (s *Store) Record(ctx context.Context, run models.RunSummary) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO run_summaries
			(id, kind, subject, started_at, finished_at, success, classification, confidence, test_case_count, run_dir)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			subject = EXCLUDED.subject,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at,
			success = EXCLUDED.success,
			classification = EXCLUDED.classification,
			confidence = EXCLUDED.confidence,
			test_case_count = EXCLUDED.test_case_count,
			run_dir = EXCLUDED.run_dir`,
		run.ID, string(run.Kind), run.Subject, run.StartedAt, run.FinishedAt,
		run.Success, string(run.Classification), run.Confidence, run.TestCaseCount, run.RunDir,
	)
	if err != nil {
		return fmt.Errorf("record run summary %s: %w", run.ID, err)
	}
	return nil
}

// ListFilter narrows List by kind, subject substring, and a [Since, Until) window.
// Zero values are treated as "no constraint" for that field.
type ListFilter struct {
	Kind    models.RunKind
	Subject string
	Since   *time.Time
	Until   *time.Time
}

// Get returns a single run summary by id.
func (s *Store) Get(ctx context.Context, runID string) (models.RunSummary, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, kind, subject, started_at, finished_at, success, classification, confidence, test_case_count, run_dir
		FROM run_summaries WHERE id = $1`, runID)
	return scanRunSummary(row)
}

// List returns run summaries matching filter, most recent first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]models.RunSummary, error) {
	query := `
		SELECT id, kind, subject, started_at, finished_at, success, classification, confidence, test_case_count, run_dir
		FROM run_summaries
		WHERE ($1 = '' OR kind = $1)
		  AND ($2 = '' OR subject ILIKE '%' || $2 || '%')
		  AND ($3::timestamptz IS NULL OR started_at >= $3)
		  AND ($4::timestamptz IS NULL OR started_at < $4)
		ORDER BY started_at DESC`

	rows, err := s.pool.Query(ctx, query, string(filter.Kind), filter.Subject, filter.Since, filter.Until)
	if err != nil {
		return nil, fmt.Errorf("list run summaries: %w", err)
	}
	defer rows.Close()

	var results []models.RunSummary
	for rows.Next() {
		run, err := scanRunSummary(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, run)
	}
	return results, rows.Err()
}

// rowScanner abstracts over pgx.Row and pgx.Rows, both of which expose Scan.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunSummary(row rowScanner) (models.RunSummary, error) {
	var (
		run            models.RunSummary
		kind           string
		classification string
	)
	err := row.Scan(
		&run.ID, &kind, &run.Subject, &run.StartedAt, &run.FinishedAt,
		&run.Success, &classification, &run.Confidence, &run.TestCaseCount, &run.RunDir,
	)
	if err != nil {
		return models.RunSummary{}, fmt.Errorf("scan run summary: %w", err)
	}
	run.Kind = models.RunKind(kind)
	run.Classification = models.Classification(classification)
	return run, nil
}

// runMigrations applies pending embedded migrations using golang-migrate
// over a throwaway database/sql connection (golang-migrate's postgres driver
// requires database/sql, not pgx's native pool interface).
func runMigrations(dsn string) error {
	hasMigrations, err := hasEmbeddedMigrations()
	if err != nil {
		return fmt.Errorf("check embedded migrations: %w", err)
	}
	if !hasMigrations {
		return fmt.Errorf("no embedded migration files found — binary may be built incorrectly")
	}

	db, err := stdsql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create postgres migration driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "qe_agentflow_history", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return sourceDriver.Close()
}

func hasEmbeddedMigrations() (bool, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read embedded migrations: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && len(entry.Name()) > 4 && entry.Name()[len(entry.Name())-4:] == ".sql" {
			return true, nil
		}
	}
	return false, nil
}
