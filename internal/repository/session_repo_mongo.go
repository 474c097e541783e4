package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/flightshop/internal/domain"
	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	mongoIndexOptionsConflict  = 85
	mongoIndexKeySpecsConflict = 86
)

type MongoSessionRepository struct {
	coll *mongo.Collection
}

func NewMongoSessionRepository(db *mongo.Database, collection string) SessionRepository {
	return &MongoSessionRepository{coll: db.Collection(collection)}
}

func (r *MongoSessionRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("expires_at_ttl").SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetName("token_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetName("id"),
		},
		{
			Keys: bson.D{
				{Key: "token", Value: 1},
				{Key: "used", Value: 1},
				{Key: "expires_at", Value: 1},
			},
			Options: options.Index().SetName("token_used_expires_at"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, models); err != nil && !isIndexConflict(err) {
		return storageErr(err, "create session indexes")
	}
	return nil
}

func (r *MongoSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if _, err := r.coll.InsertOne(ctx, session); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Mark(errors.Wrap(err, "insert session"), domain.ErrDuplicateToken)
		}
		return storageErr(err, "insert session")
	}
	return nil
}

func (r *MongoSessionRepository) FindActiveByToken(ctx context.Context, token string, now time.Time) (*domain.Session, error) {
	return r.findOne(ctx, activeFilter(token, now))
}

func (r *MongoSessionRepository) ConsumeIfValid(ctx context.Context, token string, now time.Time) (bool, error) {
	res, err := r.coll.UpdateOne(ctx, activeFilter(token, now), bson.M{
		"$set": bson.M{"used": true, "used_at": now},
	})
	if err != nil {
		return false, storageErr(err, "consume session")
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoSessionRepository) FindByToken(ctx context.Context, token string) (*domain.Session, error) {
	return r.findOne(ctx, bson.M{"token": token})
}

func (r *MongoSessionRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, storageErr(err, "purge expired sessions")
	}
	return res.DeletedCount, nil
}

func (r *MongoSessionRepository) Stats(ctx context.Context, now time.Time) (domain.SessionStats, error) {
	var stats domain.SessionStats
	counts := []struct {
		dst    *int64
		filter bson.M
	}{
		{&stats.Total, bson.M{}},
		{&stats.Active, bson.M{"used": false, "expires_at": bson.M{"$gt": now}}},
		{&stats.Used, bson.M{"used": true}},
		{&stats.Expired, bson.M{"expires_at": bson.M{"$lte": now}}},
	}
	for _, c := range counts {
		n, err := r.coll.CountDocuments(ctx, c.filter)
		if err != nil {
			return domain.SessionStats{}, storageErr(err, "count sessions")
		}
		*c.dst = n
	}
	return stats, nil
}

func (r *MongoSessionRepository) findOne(ctx context.Context, filter bson.M) (*domain.Session, error) {
	var s domain.Session
	if err := r.coll.FindOne(ctx, filter).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, storageErr(err, "find session")
	}
	return &s, nil
}

func activeFilter(token string, now time.Time) bson.M {
	return bson.M{
		"token":      token,
		"used":       false,
		"expires_at": bson.M{"$gt": now},
	}
}

func isIndexConflict(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == mongoIndexOptionsConflict || cmdErr.Code == mongoIndexKeySpecsConflict
	}
	return false
}

var _ SessionRepository = (*MongoSessionRepository)(nil)
