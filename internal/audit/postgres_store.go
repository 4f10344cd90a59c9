package audit

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a PostgreSQL-backed, durable audit trail. Unlike
// MemoryStore its history survives process restarts and is shared across
// every admin API instance pointed at the same database.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed audit store. Callers
// must have already run the lock_audit_events migration (see Schema).
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is the DDL for the table PostgresStore expects. It is not run
// automatically; the caller's migration tooling owns schema changes.
const Schema = `
CREATE TABLE IF NOT EXISTS lock_audit_events (
	id         BIGSERIAL PRIMARY KEY,
	lock_name  TEXT NOT NULL,
	owner_id   TEXT NOT NULL,
	action     TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS lock_audit_events_lock_name_idx
	ON lock_audit_events (lock_name, occurred_at);
`

// Record implements Store.
func (s *PostgresStore) Record(ctx context.Context, ev Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO lock_audit_events (lock_name, owner_id, action, occurred_at)
		VALUES ($1, $2, $3, $4)
	`, ev.LockName, ev.OwnerID, ev.Action, ev.At)
	return err
}

// ListByLock implements Store.
func (s *PostgresStore) ListByLock(ctx context.Context, lockName string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = historySize
	}
	rows, err := s.db.Query(ctx, `
		SELECT lock_name, owner_id, action, occurred_at
		FROM lock_audit_events
		WHERE lock_name = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`, lockName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.LockName, &ev.OwnerID, &ev.Action, &ev.At); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// reverse to oldest-first, matching MemoryStore.ListByLock's ordering
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}
