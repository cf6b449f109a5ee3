package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

type MongoUserRepo struct{ coll *mongo.Collection }

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"passwordHash"`
	Roles        []string           `bson:"roles"`
	Created      time.Time          `bson:"created"`
}

func (d userDoc) toDomain() *domain.User {
	roles := d.Roles
	if roles == nil {
		roles = []string{}
	}
	return &domain.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Roles:        roles,
		Created:      d.Created,
	}
}

func (r *MongoUserRepo) Create(ctx context.Context, u *domain.User) error {
	d := userDoc{
		ID:           primitive.NewObjectID(),
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Roles:        u.Roles,
		Created:      u.Created,
	}
	if d.Roles == nil {
		d.Roles = []string{}
	}
	if _, err := r.coll.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return usecase.ErrUsernameTaken
		}
		return err
	}
	u.ID = d.ID.Hex()
	return nil
}

func (r *MongoUserRepo) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var d userDoc
	err := r.coll.FindOne(ctx, filter).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, usecase.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d.toDomain(), nil
}

func (r *MongoUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoUserRepo) Update(ctx context.Context, u *domain.User) error {
	oid, err := objectID(u.ID)
	if err != nil {
		return err
	}
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"username":     u.Username,
		"passwordHash": u.PasswordHash,
		"roles":        roles,
	}})
	if mongo.IsDuplicateKeyError(err) {
		return usecase.ErrUsernameTaken
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return usecase.ErrNotFound
	}
	return nil
}

var _ usecase.UserRepo = (*MongoUserRepo)(nil)
