package repository

import (
	"context"
	"errors"

	"github.com/example/gemora/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoNewsStore struct {
	coll *mongo.Collection
}

func NewMongoNewsStore(db *mongo.Database) *MongoNewsStore {
	return &MongoNewsStore{coll: db.Collection(models.NewsPost{}.CollectionName())}
}

func (s *MongoNewsStore) Insert(ctx context.Context, post *models.NewsPost) error {
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, post)
	return err
}

func (s *MongoNewsStore) Find(ctx context.Context, q NewsQuery) ([]*models.NewsPost, error) {
	filter := bson.M{}
	if q.Status != nil {
		filter["status"] = *q.Status
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []*models.NewsPost{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *MongoNewsStore) SetStatus(ctx context.Context, id primitive.ObjectID, status models.NewsStatus) (*models.NewsPost, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var post models.NewsPost
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status}}, opts).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *MongoNewsStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
