package repo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

const (
	productsCollection = "products"
	usersCollection    = "users"
	ordersCollection   = "orders"
)

// MongoStore owns the client and hands out the collection-backed repos.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

// EnsureIndexes creates the unique username index and the orders-by-user index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	if _, err := s.db.Collection(ordersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "created", Value: 1}},
	}); err != nil {
		return fmt.Errorf("orders index: %w", err)
	}
	return nil
}

func (s *MongoStore) Products() *MongoProductRepo {
	return &MongoProductRepo{coll: s.db.Collection(productsCollection)}
}

func (s *MongoStore) Users() *MongoUserRepo {
	return &MongoUserRepo{coll: s.db.Collection(usersCollection)}
}

func (s *MongoStore) Orders() *MongoOrderRepo {
	return &MongoOrderRepo{coll: s.db.Collection(ordersCollection)}
}

// Drop removes the whole database. Used by tests.
func (s *MongoStore) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// objectID parses a hex id; malformed ids resolve to nothing.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, usecase.ErrNotFound
	}
	return oid, nil
}

func nowUTC() time.Time {
	// BSON dates carry millisecond precision
	return time.Now().UTC().Truncate(time.Millisecond)
}
