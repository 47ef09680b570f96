package repository

import (
	"context"
	"errors"
	"time"

	"github.com/example/gemora/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCatalogStore stores one catalog kind. newItem returns an empty value
// to decode into.
type MongoCatalogStore[P models.CatalogItem] struct {
	coll    *mongo.Collection
	newItem func() P
}

func NewMongoCatalogStore[P models.CatalogItem](db *mongo.Database, kind models.ProductKind, newItem func() P) *MongoCatalogStore[P] {
	return &MongoCatalogStore[P]{
		coll:    db.Collection(kind.Collection()),
		newItem: newItem,
	}
}

func NewMongoGemStore(db *mongo.Database) *MongoCatalogStore[*models.Gem] {
	return NewMongoCatalogStore(db, models.KindGem, func() *models.Gem { return &models.Gem{} })
}

func NewMongoInstrumentStore(db *mongo.Database) *MongoCatalogStore[*models.Instrument] {
	return NewMongoCatalogStore(db, models.KindInstrument, func() *models.Instrument { return &models.Instrument{} })
}

func (s *MongoCatalogStore[P]) Insert(ctx context.Context, item P) error {
	if item.Key().IsZero() {
		item.SetKey(primitive.NewObjectID())
	}
	_, err := s.coll.InsertOne(ctx, item)
	return err
}

func (s *MongoCatalogStore[P]) decodeOne(res *mongo.SingleResult) (P, error) {
	item := s.newItem()
	if err := res.Decode(item); err != nil {
		var zero P
		if errors.Is(err, mongo.ErrNoDocuments) {
			return zero, ErrNotFound
		}
		return zero, err
	}
	item.Normalize()
	return item, nil
}

func (s *MongoCatalogStore[P]) FindByID(ctx context.Context, id primitive.ObjectID) (P, error) {
	return s.decodeOne(s.coll.FindOne(ctx, bson.M{"_id": id}))
}

func (s *MongoCatalogStore[P]) Find(ctx context.Context, q CatalogQuery) ([]P, error) {
	cursor, err := s.coll.Find(ctx, catalogFilter(q), options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []P{}
	for cursor.Next(ctx) {
		item := s.newItem()
		if err := cursor.Decode(item); err != nil {
			return nil, err
		}
		item.Normalize()
		items = append(items, item)
	}
	return items, cursor.Err()
}

// catalogFilter matches on status. Legacy documents without a status count as
// Approved when their old isApproved flag is set, and as Pending otherwise.
func catalogFilter(q CatalogQuery) bson.M {
	if q.Status == nil {
		return bson.M{}
	}
	legacy := bson.M{"status": bson.M{"$exists": false}}
	switch *q.Status {
	case models.StatusApproved:
		legacy["isApproved"] = true
	case models.StatusPending:
		legacy["isApproved"] = bson.M{"$ne": true}
	default:
		return bson.M{"status": *q.Status}
	}
	return bson.M{"$or": bson.A{bson.M{"status": *q.Status}, legacy}}
}

func (s *MongoCatalogStore[P]) SetStatus(ctx context.Context, id primitive.ObjectID, status models.ModerationStatus) (P, error) {
	update := bson.M{
		"$set":   bson.M{"status": status, "updatedAt": time.Now()},
		"$unset": bson.M{"isApproved": ""},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return s.decodeOne(s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts))
}

// ApprovePending approves everything catalogFilter treats as Pending, so legacy
// documents already flagged isApproved are left alone.
func (s *MongoCatalogStore[P]) ApprovePending(ctx context.Context) (int64, error) {
	pending := models.StatusPending
	filter := catalogFilter(CatalogQuery{Status: &pending})
	update := bson.M{
		"$set":   bson.M{"status": models.StatusApproved, "updatedAt": time.Now()},
		"$unset": bson.M{"isApproved": ""},
	}
	res, err := s.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *MongoCatalogStore[P]) Delete(ctx context.Context, id primitive.ObjectID) (P, error) {
	return s.decodeOne(s.coll.FindOneAndDelete(ctx, bson.M{"_id": id}))
}

func (s *MongoCatalogStore[P]) IncrementStock(ctx context.Context, id primitive.ObjectID, delta int) (int, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"countInStock": 1})

	var out struct {
		CountInStock int `bson:"countInStock"`
	}
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"countInStock": delta}}, opts).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return out.CountInStock, nil
}
