package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/civic-issues/internal/core/domain"
)

const schemaLockID int64 = 2024011501

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

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker/cli startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS issue_types (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL CHECK (role IN ('admin', 'employee')),
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS issues (
	id BIGSERIAL PRIMARY KEY,
	issue_type_id BIGINT NOT NULL REFERENCES issue_types(id),
	latitude DOUBLE PRECISION,
	longitude DOUBLE PRECISION,
	captured_at TIMESTAMPTZ,
	image_url TEXT NOT NULL,
	image_path TEXT NOT NULL,
	extraction_error BOOLEAN NOT NULL DEFAULT FALSE,
	error_message TEXT,
	raw_extraction_text TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK ((latitude IS NULL) = (longitude IS NULL)),
	CHECK (latitude IS NULL OR latitude BETWEEN -90 AND 90),
	CHECK (longitude IS NULL OR longitude BETWEEN -180 AND 180)
);

CREATE INDEX IF NOT EXISTS idx_issues_created_at ON issues(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_issues_captured_at ON issues(captured_at);
CREATE INDEX IF NOT EXISTS idx_issues_type ON issues(issue_type_id);
CREATE INDEX IF NOT EXISTS idx_issues_extraction_error ON issues(extraction_error);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapWriteError turns constraint violations into domain error kinds.
func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return domain.WrapError(domain.ErrConflict, op, err)
		case pgForeignKeyViolation:
			return domain.WrapError(domain.ErrInvalidInput, op, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func expectAffected(res sql.Result, op string, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, op, fmt.Errorf("id %d", id))
	}
	return nil
}
