package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Domenick1991/flightshop/internal/domain"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

var sessionSchema = []string{
	`CREATE TABLE IF NOT EXISTS booking_sessions (
		id TEXT NOT NULL,
		token TEXT NOT NULL,
		search_params JSONB NOT NULL,
		offers JSONB NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		used BOOLEAN NOT NULL DEFAULT FALSE,
		used_at TIMESTAMPTZ,
		client_ip TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS booking_sessions_token_key ON booking_sessions (token)`,
	`CREATE INDEX IF NOT EXISTS booking_sessions_id_idx ON booking_sessions (id)`,
	`CREATE INDEX IF NOT EXISTS booking_sessions_token_used_expires_idx ON booking_sessions (token, used, expires_at)`,
	`CREATE INDEX IF NOT EXISTS booking_sessions_expires_at_idx ON booking_sessions (expires_at)`,
}

const sessionColumns = `id, token, search_params, offers, expires_at, created_at, used, used_at, client_ip, user_agent`

// PGSessionRepository stores sessions in PostgreSQL. Postgres has no TTL
// eviction, so expired rows stay until PurgeExpired runs from the worker.
type PGSessionRepository struct {
	db *pgxpool.Pool
}

func NewPGSessionRepository(db *pgxpool.Pool) SessionRepository {
	return &PGSessionRepository{db: db}
}

func (r *PGSessionRepository) EnsureIndexes(ctx context.Context) error {
	for _, stmt := range sessionSchema {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return storageErr(err, "create session schema")
		}
	}
	return nil
}

func (r *PGSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	params, err := json.Marshal(session.SearchParams)
	if err != nil {
		return errors.Wrap(err, "encode search params")
	}
	offers, err := json.Marshal(session.Offers)
	if err != nil {
		return errors.Wrap(err, "encode offers")
	}

	_, err = r.db.Exec(ctx, `INSERT INTO booking_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		session.ID, session.Token, params, offers, session.ExpiresAt, session.CreatedAt,
		session.Used, session.UsedAt, session.ClientIP, session.UserAgent)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return errors.Mark(errors.Wrap(err, "insert session"), domain.ErrDuplicateToken)
		}
		return storageErr(err, "insert session")
	}
	return nil
}

func (r *PGSessionRepository) FindActiveByToken(ctx context.Context, token string, now time.Time) (*domain.Session, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM booking_sessions
		WHERE token = $1 AND used = FALSE AND expires_at > $2`, token, now)
	return scanSession(row)
}

func (r *PGSessionRepository) ConsumeIfValid(ctx context.Context, token string, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE booking_sessions SET used = TRUE, used_at = $2
		WHERE token = $1 AND used = FALSE AND expires_at > $2`, token, now)
	if err != nil {
		return false, storageErr(err, "consume session")
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PGSessionRepository) FindByToken(ctx context.Context, token string) (*domain.Session, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM booking_sessions WHERE token = $1`, token)
	return scanSession(row)
}

func (r *PGSessionRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM booking_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, storageErr(err, "purge expired sessions")
	}
	return tag.RowsAffected(), nil
}

func (r *PGSessionRepository) Stats(ctx context.Context, now time.Time) (domain.SessionStats, error) {
	var stats domain.SessionStats
	err := r.db.QueryRow(ctx, `SELECT
			count(*),
			count(*) FILTER (WHERE used = FALSE AND expires_at > $1),
			count(*) FILTER (WHERE used = TRUE),
			count(*) FILTER (WHERE expires_at <= $1)
		FROM booking_sessions`, now).
		Scan(&stats.Total, &stats.Active, &stats.Used, &stats.Expired)
	if err != nil {
		return domain.SessionStats{}, storageErr(err, "count sessions")
	}
	return stats, nil
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var (
		s      domain.Session
		params []byte
		offers []byte
	)
	err := row.Scan(&s.ID, &s.Token, &params, &offers, &s.ExpiresAt, &s.CreatedAt, &s.Used, &s.UsedAt, &s.ClientIP, &s.UserAgent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, storageErr(err, "find session")
	}
	if err := json.Unmarshal(params, &s.SearchParams); err != nil {
		return nil, errors.Wrap(err, "decode search params")
	}
	if err := json.Unmarshal(offers, &s.Offers); err != nil {
		return nil, errors.Wrap(err, "decode offers")
	}
	return &s, nil
}

var _ SessionRepository = (*PGSessionRepository)(nil)
