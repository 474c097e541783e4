// Package storage opens and probes the database connections the repositories run on.
package storage

import (
	"context"
	"time"

	"github.com/Domenick1991/flightshop/config"
	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var ErrFailedToConnect = errors.New("failed to connect to database")

// ConnectMongo retries until the server answers a ping, the attempts run out
// or ctx is done.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Mark(errors.Wrap(ctx.Err(), "mongo connect"), ErrFailedToConnect)
			case <-time.After(cfg.RetryInterval):
			}
		}

		opts := options.Client().ApplyURI(cfg.URI).SetBSONOptions(DocumentOptions())
		if cfg.ConnectTimeout > 0 {
			opts.SetConnectTimeout(cfg.ConnectTimeout).SetServerSelectionTimeout(cfg.ConnectTimeout)
		}
		if cfg.MaxPoolSize > 0 {
			opts.SetMaxPoolSize(cfg.MaxPoolSize)
		}

		client, err := mongo.Connect(opts)
		if err != nil {
			lastErr = err
			continue
		}
		if err := client.Ping(ctx, nil); err != nil {
			lastErr = err
			_ = client.Disconnect(context.Background())
			continue
		}
		return client, nil
	}
	return nil, errors.Mark(errors.Wrap(lastErr, "mongo connect"), ErrFailedToConnect)
}

// DocumentOptions decodes nested documents into maps rather than bson.D, so
// untyped supplier payloads read back the same way they were written.
func DocumentOptions() *options.BSONOptions {
	return &options.BSONOptions{DefaultDocumentM: true}
}

func MongoHealthcheck(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return errors.Wrap(client.Ping(ctx, nil), "mongo ping")
	}
}
