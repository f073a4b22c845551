package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rvasanth/cardpipe/internal/model"
)

// PostgresStore writes records into the pan_cards table. Date fields are
// TEXT columns on purpose: the OCR service produces noisy dates (and the
// 0000-00-00 sentinel) that a DATE column would reject, and rejecting them
// here would turn tolerable noise into lost records.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens a pgx pool and makes sure the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 5 * time.Minute
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	const stmt = `
CREATE TABLE IF NOT EXISTS pan_cards (
	id TEXT PRIMARY KEY,
	age INT NOT NULL,
	date_of_birth TEXT NOT NULL,
	date_of_issue TEXT NOT NULL,
	fathers_name TEXT NOT NULL,
	id_number TEXT NOT NULL,
	is_scanned SMALLINT NOT NULL,
	minor SMALLINT NOT NULL,
	name_on_card TEXT NOT NULL,
	pan_type TEXT NOT NULL,
	verified SMALLINT NOT NULL,
	source_file TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pan_cards_id_number ON pan_cards(id_number);`
	if _, err := s.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Ping verifies connectivity, used by the preflight check command.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Save inserts one record. The relational backend represents the pending
// verification state as verified=0.
func (s *PostgresStore) Save(ctx context.Context, rec model.NormalizedRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pan_cards (id, age, date_of_birth, date_of_issue, fathers_name, id_number,
			is_scanned, minor, name_on_card, pan_type, verified, source_file, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, rec.ID, rec.Age, rec.DateOfBirth, rec.DateOfIssue, rec.FathersName, rec.IDNumber,
		rec.IsScanned, rec.Minor, rec.NameOnCard, rec.PANType, verifiedFlag(rec.Verification),
		rec.SourceFile, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Delete removes a record by id, compensating a failed archive.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM pan_cards WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func verifiedFlag(state model.VerificationState) int {
	if state == model.VerificationPending {
		return 0
	}
	return 1
}
