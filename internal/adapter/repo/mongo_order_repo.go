package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

type MongoOrderRepo struct{ coll *mongo.Collection }

type orderDoc struct {
	ID             primitive.ObjectID `bson:"_id"`
	OrderedProduct primitive.ObjectID `bson:"orderedProduct"`
	User           primitive.ObjectID `bson:"user"`
	Quantity       int                `bson:"quantity"`
	Address        string             `bson:"address"`
	Created        time.Time          `bson:"created"`
	Shipped        bool               `bson:"shipped"`
	Finished       bool               `bson:"finished"`
}

func (d orderDoc) toDomain() domain.Order {
	return domain.Order{
		ID:        d.ID.Hex(),
		UserID:    d.User.Hex(),
		ProductID: d.OrderedProduct.Hex(),
		Quantity:  d.Quantity,
		Address:   d.Address,
		Created:   d.Created,
		Shipped:   d.Shipped,
		Finished:  d.Finished,
	}
}

func (r *MongoOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	user, err := primitive.ObjectIDFromHex(o.UserID)
	if err != nil {
		return errors.New("order user is not a valid id")
	}
	product, err := primitive.ObjectIDFromHex(o.ProductID)
	if err != nil {
		return errors.New("ordered product is not a valid id")
	}
	d := orderDoc{
		ID:             primitive.NewObjectID(),
		OrderedProduct: product,
		User:           user,
		Quantity:       o.Quantity,
		Address:        o.Address,
		Created:        o.Created,
		Shipped:        o.Shipped,
		Finished:       o.Finished,
	}
	if _, err := r.coll.InsertOne(ctx, d); err != nil {
		return err
	}
	o.ID = d.ID.Hex()
	return nil
}

func (r *MongoOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var d orderDoc
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, usecase.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o := d.toDomain()
	return &o, nil
}

func (r *MongoOrderRepo) ListByUser(ctx context.Context, userID string, finished *bool) ([]domain.Order, error) {
	oid, err := objectID(userID)
	if err != nil {
		return []domain.Order{}, nil
	}
	q := bson.M{"user": oid}
	if finished != nil {
		q["finished"] = *finished
	}
	cur, err := r.coll.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "created", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *MongoOrderRepo) MarkFinished(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"finished": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return usecase.ErrNotFound
	}
	return nil
}

// MarkShipped is a guarded transition: it only matches unshipped orders.
func (r *MongoOrderRepo) MarkShipped(ctx context.Context, id string) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "shipped": false},
		bson.M{"$set": bson.M{"shipped": true}},
	)
	if err != nil {
		return false, err
	}
	if res.ModifiedCount > 0 {
		return true, nil
	}

	// nothing matched: either unknown or already shipped
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, usecase.ErrNotFound
	}
	return false, nil
}

var _ usecase.OrderRepo = (*MongoOrderRepo)(nil)
