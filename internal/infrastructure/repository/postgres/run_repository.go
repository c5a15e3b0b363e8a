package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/stewardai/adaptive-rag/internal/core/domain"
)

// RunRepository archives completed pipeline runs for audit.
type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082301)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	answer TEXT NOT NULL,
	category TEXT NOT NULL,
	tone TEXT NOT NULL,
	success BOOLEAN NOT NULL,
	is_fallback BOOLEAN NOT NULL,
	attempts INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pipeline_runs_created_at ON pipeline_runs(created_at);
CREATE INDEX IF NOT EXISTS idx_pipeline_runs_is_fallback ON pipeline_runs(is_fallback);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return tx.Commit()
}

func (r *RunRepository) SaveRun(ctx context.Context, run *domain.RunRecord) error {
	if run == nil || run.ID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "save run", errors.New("missing run id"))
	}

	const query = `
INSERT INTO pipeline_runs (id, query, answer, category, tone, success, is_fallback, attempts, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO NOTHING
`
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if _, err := r.db.ExecContext(ctx, query,
		run.ID, run.Query, run.Answer, run.Category, run.Tone,
		run.Success, run.IsFallback, run.Attempts, createdAt,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (r *RunRepository) GetRunByID(ctx context.Context, id string) (*domain.RunRecord, error) {
	const query = `
SELECT id, query, answer, category, tone, success, is_fallback, attempts, created_at
FROM pipeline_runs
WHERE id = $1
`
	var run domain.RunRecord
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.Query, &run.Answer, &run.Category, &run.Tone,
		&run.Success, &run.IsFallback, &run.Attempts, &run.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrRunNotFound, "get run", err)
	}
	if err != nil {
		return nil, fmt.Errorf("select run: %w", err)
	}
	return &run, nil
}
