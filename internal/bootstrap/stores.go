package bootstrap

import (
	"context"

	"github.com/Domenick1991/flightshop/config"
	"github.com/Domenick1991/flightshop/internal/repository"
	"github.com/Domenick1991/flightshop/internal/storage"
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

// Stores are the session, audit and order repositories for the configured
// backend.
type Stores struct {
	Sessions repository.SessionRepository
	Events   repository.SecurityEventRepository
	Orders   repository.OrderRepository
	Checks   []Check
	close    func()
}

func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

func OpenStores(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*Stores, error) {
	switch cfg.Session.Backend {
	case config.BackendMongo:
		client, err := storage.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.Mongo.Database)
		log.WithField("database", cfg.Mongo.Database).Info("session store: mongo")
		return &Stores{
			Sessions: repository.NewMongoSessionRepository(db, cfg.Mongo.SessionCollection),
			Events:   repository.NewMongoSecurityEventRepository(db, cfg.Mongo.EventCollection, cfg.Session.EventRetention),
			Orders:   repository.NewMongoOrderRepository(db, cfg.Mongo.OrderCollection),
			Checks:   []Check{{Name: "mongo", Fn: storage.MongoHealthcheck(client)}},
			close:    func() { _ = client.Disconnect(context.Background()) },
		}, nil

	case config.BackendPostgres:
		pool, err := storage.ConnectPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		log.WithField("host", cfg.Database.Host).Info("session store: postgres")
		return &Stores{
			Sessions: repository.NewPGSessionRepository(pool),
			Events:   repository.NewPGSecurityEventRepository(pool),
			Orders:   repository.NewPGOrderRepository(pool),
			Checks:   []Check{{Name: "postgres", Fn: storage.PostgresHealthcheck(pool)}},
			close:    pool.Close,
		}, nil
	}
	return nil, errors.Newf("unknown session backend %q", cfg.Session.Backend)
}
