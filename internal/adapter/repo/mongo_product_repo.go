package repo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

type MongoProductRepo struct{ coll *mongo.Collection }

type imageDoc struct {
	Data        []byte `bson:"data,omitempty"`
	ContentType string `bson:"contentType,omitempty"`
}

type reviewDoc struct {
	ID       string             `bson:"id"`
	Text     string             `bson:"text"`
	Rating   int                `bson:"rating"`
	PostedBy primitive.ObjectID `bson:"postedBy"`
	Created  time.Time          `bson:"created"`
}

type productDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Label       string             `bson:"label"`
	Description string             `bson:"description"`
	Category    string             `bson:"category"`
	Price       int                `bson:"price"`
	Stock       int                `bson:"stock"`
	Rating      *int               `bson:"rating,omitempty"`
	Image       *imageDoc          `bson:"image,omitempty"`
	Reviews     []reviewDoc        `bson:"reviews"`
	Created     time.Time          `bson:"created"`
	Updated     *time.Time         `bson:"updated,omitempty"`
}

// withoutImage is applied to every read; image bytes never leave the store.
var withoutImage = bson.M{"image.data": 0}

func (d productDoc) toDomain() domain.Product {
	p := domain.Product{
		ID:          d.ID.Hex(),
		Label:       d.Label,
		Description: d.Description,
		Category:    d.Category,
		Price:       d.Price,
		Stock:       d.Stock,
		Rating:      d.Rating,
		Created:     d.Created,
		Updated:     d.Updated,
		Reviews:     make([]domain.Review, 0, len(d.Reviews)),
	}
	for _, r := range d.Reviews {
		p.Reviews = append(p.Reviews, domain.Review{
			ID:       r.ID,
			Text:     r.Text,
			Rating:   r.Rating,
			PostedBy: r.PostedBy.Hex(),
			Created:  r.Created,
		})
	}
	return p
}

func toReviewDoc(r domain.Review) (reviewDoc, error) {
	poster, err := primitive.ObjectIDFromHex(r.PostedBy)
	if err != nil {
		return reviewDoc{}, err
	}
	return reviewDoc{ID: r.ID, Text: r.Text, Rating: r.Rating, PostedBy: poster, Created: r.Created}, nil
}

func (r *MongoProductRepo) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}

func productQuery(f usecase.ProductFilter) bson.M {
	q := bson.M{}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.LabelContains != "" {
		q["label"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.LabelContains), Options: "i"}
	}
	return q
}

func (r *MongoProductRepo) List(ctx context.Context, f usecase.ProductFilter) ([]domain.Product, error) {
	opts := options.Find().SetProjection(withoutImage)
	if f.NewestFirst {
		opts.SetSort(bson.D{{Key: "created", Value: -1}})
	}
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cur, err := r.coll.Find(ctx, productQuery(f), opts)
	if err != nil {
		return nil, err
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *MongoProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var d productDoc
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(withoutImage)).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, usecase.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p := d.toDomain()
	return &p, nil
}

func (r *MongoProductRepo) Create(ctx context.Context, p *domain.Product) error {
	d := productDoc{
		ID:          primitive.NewObjectID(),
		Label:       p.Label,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Stock:       p.Stock,
		Rating:      p.Rating,
		Reviews:     []reviewDoc{},
		Created:     p.Created,
		Updated:     p.Updated,
	}
	if p.Image != nil {
		d.Image = &imageDoc{Data: p.Image.Data, ContentType: p.Image.ContentType}
	}
	for _, rv := range p.Reviews {
		rd, err := toReviewDoc(rv)
		if err != nil {
			return err
		}
		d.Reviews = append(d.Reviews, rd)
	}
	if _, err := r.coll.InsertOne(ctx, d); err != nil {
		return err
	}
	p.ID = d.ID.Hex()
	return nil
}

func (r *MongoProductRepo) AddReview(ctx context.Context, productID string, rv domain.Review) (*domain.Product, error) {
	oid, err := objectID(productID)
	if err != nil {
		return nil, err
	}
	rd, err := toReviewDoc(rv)
	if err != nil {
		return nil, err
	}

	var d productDoc
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$addToSet": bson.M{"reviews": rd},
			"$set":      bson.M{"updated": nowUTC()},
		},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(withoutImage),
	).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, usecase.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p := d.toDomain()
	return &p, nil
}

// ReserveStock is a single conditional update: it matches only while enough
// stock is left, so concurrent reservations cannot go below zero.
func (r *MongoProductRepo) ReserveStock(ctx context.Context, productID string, qty int) (bool, error) {
	oid, err := objectID(productID)
	if err != nil {
		return false, nil
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "stock": bson.M{"$gte": qty}},
		bson.M{
			"$inc": bson.M{"stock": -qty},
			"$set": bson.M{"updated": nowUTC()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoProductRepo) ReleaseStock(ctx context.Context, productID string, qty int) error {
	oid, err := objectID(productID)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$inc": bson.M{"stock": qty}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return usecase.ErrNotFound
	}
	return nil
}

var _ usecase.ProductRepo = (*MongoProductRepo)(nil)
