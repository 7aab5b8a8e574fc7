package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS panel_results (
    id           UUID PRIMARY KEY,
    candidate_id TEXT NOT NULL,
    job_id       TEXT NOT NULL,
    type         TEXT NOT NULL,
    personas     TEXT NOT NULL,
    payload      JSONB NOT NULL,
    company_note TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (candidate_id, job_id, type, personas)
)`

const upsertResult = `
INSERT INTO panel_results (id, candidate_id, job_id, type, personas, payload, company_note)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (candidate_id, job_id, type, personas)
DO UPDATE SET
    payload = EXCLUDED.payload,
    company_note = EXCLUDED.company_note,
    updated_at = CURRENT_TIMESTAMP
RETURNING id, created_at, updated_at`

const getResult = `
SELECT id, payload, company_note, created_at, updated_at
FROM panel_results
WHERE candidate_id = $1 AND job_id = $2 AND type = $3 AND personas = $4`

// PostgresStore keeps results in the panel_results table.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects with lib/pq and makes sure the table exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create panel_results: %w", err)
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, rec Record) (Record, error) {
	k := rec.Key
	err := s.db.QueryRowContext(ctx, upsertResult,
		uuid.New(), k.CandidateID, k.JobID, string(k.Kind), k.Personas, []byte(rec.Payload), rec.CompanyNote,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return Record{}, fmt.Errorf("upsert %s result: %w", k.Kind, err)
	}
	return rec, nil
}

func (s *PostgresStore) Get(ctx context.Context, key Key) (Record, error) {
	rec := Record{Key: key}
	var payload []byte
	err := s.db.QueryRowContext(ctx, getResult, key.CandidateID, key.JobID, string(key.Kind), key.Personas).
		Scan(&rec.ID, &payload, &rec.CompanyNote, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get %s result: %w", key.Kind, err)
	}
	rec.Payload = payload
	return rec, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
