package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/flightshop/internal/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type MongoSecurityEventRepository struct {
	coll      *mongo.Collection
	retention time.Duration
}

func NewMongoSecurityEventRepository(db *mongo.Database, collection string, retention time.Duration) SecurityEventRepository {
	if retention <= 0 {
		retention = domain.SecurityEventRetention
	}
	return &MongoSecurityEventRepository{coll: db.Collection(collection), retention: retention}
}

func (r *MongoSecurityEventRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().SetName("timestamp_ttl").SetExpireAfterSeconds(int32(r.retention / time.Second)),
		},
		{
			Keys:    bson.D{{Key: "type", Value: 1}},
			Options: options.Index().SetName("type"),
		},
		{
			Keys:    bson.D{{Key: "data.client_ip", Value: 1}},
			Options: options.Index().SetName("client_ip"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, models); err != nil && !isIndexConflict(err) {
		return storageErr(err, "create security event indexes")
	}
	return nil
}

func (r *MongoSecurityEventRepository) Insert(ctx context.Context, event domain.SecurityEvent) error {
	if _, err := r.coll.InsertOne(ctx, event); err != nil {
		return storageErr(err, "insert security event")
	}
	return nil
}

// PurgeBefore is a manual fallback; the TTL index normally removes old events.
func (r *MongoSecurityEventRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, storageErr(err, "purge security events")
	}
	return res.DeletedCount, nil
}

var _ SecurityEventRepository = (*MongoSecurityEventRepository)(nil)
