package deals

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/fintaar/crossrail/internal/domain"
)

const dealsSchema = `
CREATE TABLE IF NOT EXISTS fx_deals (
    deal_id     TEXT PRIMARY KEY,
    pair        TEXT NOT NULL,
    status      TEXT NOT NULL,
    payload     JSONB NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_fx_deals_pair_status ON fx_deals (pair, status);
`

// PostgresStore is the shared-deployment alternative to FileStore.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects and ensures the schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	if _, err := db.Exec(dealsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure deals schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error { return s.db.Close() }

// Save upserts one deal row.
func (s *PostgresStore) Save(ctx context.Context, d domain.Deal) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return &domain.PersistenceError{Op: "encode deal " + d.DealID, Err: err}
	}
	const q = `
		INSERT INTO fx_deals (deal_id, pair, status, payload, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (deal_id)
		DO UPDATE SET pair = $2, status = $3, payload = $4, updated_at = now()`
	if _, err := s.db.ExecContext(ctx, q, d.DealID, d.Pair, string(d.Status), payload); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			log.Error().Str("deal", d.DealID).Str("pq_code", string(pqErr.Code)).Msg("deal upsert failed")
		}
		return &domain.PersistenceError{Op: "save deal " + d.DealID, Err: err}
	}
	return nil
}

// LoadAll reads the whole deal book.
func (s *PostgresStore) LoadAll(ctx context.Context) ([]domain.Deal, error) {
	rows, err := s.db.QueryxContext(ctx, `SELECT payload FROM fx_deals ORDER BY deal_id`)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load deals", Err: err}
	}
	defer rows.Close()

	var out []domain.Deal
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, &domain.PersistenceError{Op: "scan deal", Err: err}
		}
		var d domain.Deal
		if err := json.Unmarshal(payload, &d); err != nil {
			return nil, &domain.PersistenceError{Op: "decode deal", Err: err}
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
