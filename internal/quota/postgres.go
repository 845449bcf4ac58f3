package quota

import (
	"context"
	"fmt"

	"clipforge/internal/infra"
)

const (
	querySelectUsage = `SELECT succeeded FROM usage_counters WHERE fingerprint = $1`
	queryUpsertUsage = `INSERT INTO usage_counters (fingerprint, succeeded, updated_at)
VALUES ($1, 1, now())
ON CONFLICT (fingerprint)
DO UPDATE SET succeeded = usage_counters.succeeded + 1, updated_at = now()`
)

// PostgresStore persists usage counters so the free-tier cap survives
// restarts and is shared across replicas.
type PostgresStore struct {
	db    infra.SQLExecutor
	limit int
}

// NewPostgresStore wraps db with a per-fingerprint cap of limit.
func NewPostgresStore(db infra.SQLExecutor, limit int) *PostgresStore {
	return &PostgresStore{db: db, limit: limit}
}

func (s *PostgresStore) Allow(ctx context.Context, key string) (bool, int, error) {
	var used int
	err := s.db.QueryRow(ctx, querySelectUsage, key).Scan(&used)
	if err != nil {
		if infra.IsNoRows(err) {
			return true, s.limit, nil
		}
		return false, 0, fmt.Errorf("quota: read usage: %w", err)
	}
	remaining := s.limit - used
	if remaining < 0 {
		remaining = 0
	}
	return used < s.limit, remaining, nil
}

func (s *PostgresStore) RecordSuccess(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, queryUpsertUsage, key); err != nil {
		return fmt.Errorf("quota: record success: %w", err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
