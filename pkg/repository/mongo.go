package repository

import (
	"context"
	"time"

	"github.com/example/gemora/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepository struct {
	client   *mongo.Client
	database *mongo.Database
	config   *config.MongoDBConfig
}

func NewMongoRepository(cfg *config.MongoDBConfig) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	return NewMongoRepositoryFromClient(client, cfg), nil
}

func NewMongoRepositoryFromClient(client *mongo.Client, cfg *config.MongoDBConfig) *MongoRepository {
	return &MongoRepository{
		client:   client,
		database: client.Database(cfg.Database),
		config:   cfg,
	}
}

func (m *MongoRepository) Database() *mongo.Database {
	return m.database
}

func (m *MongoRepository) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// WithinTransaction runs fn inside a session transaction. Requires a replica
// set or sharded cluster.
func (m *MongoRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := m.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// EnsureIndexes creates the indexes the stores rely on.
func (m *MongoRepository) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"orders": {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		"gems": {
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		"tools": {
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		"newsposts": {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		m.config.AuditCollection: {
			{Keys: bson.D{{Key: "entity_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}
	for coll, indexes := range specs {
		if _, err := m.database.Collection(coll).Indexes().CreateMany(ctx, indexes); err != nil {
			return err
		}
	}
	return nil
}

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Service   string             `bson:"service" json:"service"`
	Action    string             `bson:"action" json:"action"`
	EntityID  string             `bson:"entity_id" json:"entityId"`
	ActorID   string             `bson:"actor_id,omitempty" json:"actorId,omitempty"`
	Data      bson.M             `bson:"data" json:"data"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

func (m *MongoRepository) CreateAuditLog(ctx context.Context, log *AuditLog) error {
	collection := m.database.Collection(m.config.AuditCollection)
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	_, err := collection.InsertOne(ctx, log)
	return err
}

func (m *MongoRepository) GetAuditLogs(ctx context.Context, entityID string, limit int64) ([]*AuditLog, error) {
	collection := m.database.Collection(m.config.AuditCollection)

	filter := bson.M{"entity_id": entityID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	logs := []*AuditLog{}
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}

	return logs, nil
}
