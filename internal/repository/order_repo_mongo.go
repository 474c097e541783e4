package repository

import (
	"context"

	"github.com/Domenick1991/flightshop/internal/domain"
	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type MongoOrderRepository struct {
	coll *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database, collection string) OrderRepository {
	return &MongoOrderRepository{coll: db.Collection(collection)}
}

func (r *MongoOrderRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "order_id", Value: 1}},
			Options: options.Index().SetName("order_id_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetName("session_id"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, models); err != nil && !isIndexConflict(err) {
		return storageErr(err, "create order indexes")
	}
	return nil
}

func (r *MongoOrderRepository) Save(ctx context.Context, b *domain.Booking) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"order_id": b.OrderID},
		bson.M{"$setOnInsert": b},
		options.UpdateOne().SetUpsert(true))
	if err != nil {
		return storageErr(err, "insert order")
	}
	return nil
}

func (r *MongoOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.coll.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, storageErr(err, "find order")
	}
	return &b, nil
}

var _ OrderRepository = (*MongoOrderRepository)(nil)
