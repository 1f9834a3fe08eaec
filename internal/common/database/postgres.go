package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"candidate-matching-workers/internal/common/config"

	_ "github.com/lib/pq"
)

type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// Schema is the relational layout the stores read and write. Statements are
// idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		description  TEXT NOT NULL,
		requirements TEXT NOT NULL,
		department   TEXT,
		location     TEXT,
		salary_range TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS resumes (
		id              TEXT PRIMARY KEY,
		candidate_name  TEXT NOT NULL,
		candidate_email TEXT NOT NULL,
		phone           TEXT,
		parsed_data     TEXT NOT NULL DEFAULT '{}',
		status          TEXT NOT NULL DEFAULT 'UPLOADED',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id    TEXT PRIMARY KEY,
		name  TEXT,
		email TEXT UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS evaluations (
		id                 TEXT PRIMARY KEY,
		job_id             TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		resume_id          TEXT NOT NULL REFERENCES resumes(id) ON DELETE CASCADE,
		evaluated_by_id    TEXT REFERENCES users(id),
		overall_score      DOUBLE PRECISION NOT NULL,
		skills_score       DOUBLE PRECISION NOT NULL,
		experience_score   DOUBLE PRECISION NOT NULL,
		education_score    DOUBLE PRECISION NOT NULL,
		cultural_fit_score DOUBLE PRECISION,
		explanation        TEXT NOT NULL,
		recommendation     TEXT NOT NULL,
		status             TEXT NOT NULL DEFAULT 'PENDING',
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (job_id, resume_id)
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id       TEXT PRIMARY KEY,
		name     TEXT NOT NULL UNIQUE,
		category TEXT NOT NULL DEFAULT 'CUSTOM',
		color    TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS resume_tags (
		id        TEXT PRIMARY KEY,
		resume_id TEXT NOT NULL REFERENCES resumes(id) ON DELETE CASCADE,
		tag_id    TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		UNIQUE (resume_id, tag_id)
	)`,
	`CREATE INDEX IF NOT EXISTS evaluations_job_score_idx ON evaluations (job_id, overall_score DESC)`,
}

func (c *PostgresClient) EnsureSchema(ctx context.Context) error {
	for _, stmt := range Schema {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
