package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Domenick1991/flightshop/internal/domain"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
)

var securityEventSchema = []string{
	`CREATE TABLE IF NOT EXISTS security_events (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		data JSONB,
		severity TEXT NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS security_events_occurred_at_idx ON security_events (occurred_at)`,
	`CREATE INDEX IF NOT EXISTS security_events_type_idx ON security_events (type)`,
	`CREATE INDEX IF NOT EXISTS security_events_client_ip_idx ON security_events ((data->>'client_ip'))`,
}

type PGSecurityEventRepository struct {
	db *pgxpool.Pool
}

func NewPGSecurityEventRepository(db *pgxpool.Pool) SecurityEventRepository {
	return &PGSecurityEventRepository{db: db}
}

func (r *PGSecurityEventRepository) EnsureIndexes(ctx context.Context) error {
	for _, stmt := range securityEventSchema {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return storageErr(err, "create security event schema")
		}
	}
	return nil
}

func (r *PGSecurityEventRepository) Insert(ctx context.Context, event domain.SecurityEvent) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return errors.Wrap(err, "encode event data")
	}
	_, err = r.db.Exec(ctx, `INSERT INTO security_events (id, type, data, severity, occurred_at)
		VALUES ($1, $2, $3, $4, $5)`, event.ID, string(event.Type), data, string(event.Severity), event.Timestamp)
	if err != nil {
		return storageErr(err, "insert security event")
	}
	return nil
}

func (r *PGSecurityEventRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM security_events WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, storageErr(err, "purge security events")
	}
	return tag.RowsAffected(), nil
}

var _ SecurityEventRepository = (*PGSecurityEventRepository)(nil)
