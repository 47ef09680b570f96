package repository

import (
	"context"
	"testing"

	"github.com/example/gemora/pkg/config"
	"github.com/example/gemora/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoCatalogStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("increment stock returns new count", func(mt *mtest.T) {
		store := NewMongoGemStore(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{{Key: "_id", Value: id}, {Key: "countInStock", Value: -1}}},
		})

		count, err := store.IncrementStock(context.Background(), id, -3)
		require.NoError(mt, err)
		assert.Equal(mt, -1, count)
	})

	mt.Run("increment stock on missing item", func(mt *mtest.T) {
		store := NewMongoGemStore(mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		_, err := store.IncrementStock(context.Background(), primitive.NewObjectID(), -1)
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("approve pending reports modified count", func(mt *mtest.T) {
		store := NewMongoInstrumentStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 3},
			bson.E{Key: "nModified", Value: 3},
		))

		n, err := store.ApprovePending(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), n)
	})

	mt.Run("approve pending skips legacy approved documents", func(mt *mtest.T) {
		store := NewMongoGemStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		_, err := store.ApprovePending(context.Background())
		require.NoError(mt, err)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		require.Equal(mt, "update", evt.CommandName)
		q := evt.Command.Lookup("updates", "0", "q")

		assert.Equal(mt, string(models.StatusPending), q.Document().Lookup("$or", "0", "status").StringValue())
		legacy := q.Document().Lookup("$or", "1").Document()
		assert.False(mt, legacy.Lookup("status", "$exists").Boolean())
		assert.True(mt, legacy.Lookup("isApproved", "$ne").Boolean())
		assert.True(mt, evt.Command.Lookup("updates", "0", "multi").Boolean())
	})

	mt.Run("find normalizes legacy documents", func(mt *mtest.T) {
		store := NewMongoGemStore(mt.DB)
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "name", Value: "Sapphire"},
				{Key: "imageUrl", Value: "https://cdn/s.jpg"},
				{Key: "isApproved", Value: true},
			}),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch),
		)

		gems, err := store.Find(context.Background(), CatalogQuery{})
		require.NoError(mt, err)
		require.Len(mt, gems, 1)
		assert.Equal(mt, models.StatusApproved, gems[0].Status)
		assert.Equal(mt, []string{"https://cdn/s.jpg"}, gems[0].Images)
	})
}

func TestMongoOrderStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find by id missing", func(mt *mtest.T) {
		store := NewMongoOrderStore(mt.DB)
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := store.FindByID(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		store := NewMongoOrderStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := store.Delete(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("insert assigns id", func(mt *mtest.T) {
		store := NewMongoOrderStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		order := &models.Order{OrderStatus: models.OrderProcessing}
		require.NoError(mt, store.Insert(context.Background(), order))
		assert.False(mt, order.ID.IsZero())
	})
}

func TestMongoUserStoreDuplicate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate email", func(mt *mtest.T) {
		store := NewMongoUserStore(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := store.Create(context.Background(), &models.User{Email: "a@b.c"})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})
}

func TestAuditLogs(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("newest first", func(mt *mtest.T) {
		repo := &MongoRepository{database: mt.DB, config: &config.MongoDBConfig{AuditCollection: mt.Coll.Name()}}
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
				bson.D{{Key: "action", Value: "order.paid"}, {Key: "entity_id", Value: "o1"}},
				bson.D{{Key: "action", Value: "order.created"}, {Key: "entity_id", Value: "o1"}},
			),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch),
		)

		logs, err := repo.GetAuditLogs(context.Background(), "o1", 10)
		require.NoError(mt, err)
		require.Len(mt, logs, 2)
		assert.Equal(mt, "order.paid", logs[0].Action)
	})
}
