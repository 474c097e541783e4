package storage

import (
	"context"

	"github.com/Domenick1991/flightshop/config"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
)

func ConnectPostgres(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "postgres connect"), ErrFailedToConnect)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Mark(errors.Wrap(err, "postgres ping"), ErrFailedToConnect)
	}
	return pool, nil
}

func PostgresHealthcheck(pool *pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		return errors.Wrap(pool.Ping(ctx), "postgres ping")
	}
}
