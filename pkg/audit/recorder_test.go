package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/gemora/pkg/repository"
	"github.com/example/gemora/pkg/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestActorRecorderWritesInOrder(t *testing.T) {
	store := memory.NewAuditStore()
	rec, err := NewActorRecorder(store, "gemora-api", zap.NewNop())
	require.NoError(t, err)
	defer rec.Close(time.Second)

	rec.Record(Entry{Action: ActionOrderCreated, EntityID: "o1", ActorID: "u1"})
	rec.Record(Entry{Action: ActionOrderPaid, EntityID: "o1", ActorID: "u1", Data: bson.M{"paid": true}})
	rec.Record(Entry{Action: ActionOrderCreated, EntityID: "o2"})
	require.NoError(t, rec.Flush(time.Second))

	logs, err := store.GetAuditLogs(context.Background(), "o1", 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, ActionOrderPaid, logs[0].Action)
	assert.Equal(t, ActionOrderCreated, logs[1].Action)
	assert.Equal(t, "gemora-api", logs[0].Service)
	assert.Equal(t, "u1", logs[0].ActorID)
}

type failingStore struct{ repository.AuditStore }

func (failingStore) CreateAuditLog(context.Context, *repository.AuditLog) error {
	return errors.New("mongo down")
}

func TestActorRecorderSurvivesWriteFailure(t *testing.T) {
	rec, err := NewActorRecorder(failingStore{}, "gemora-api", zap.NewNop())
	require.NoError(t, err)

	rec.Record(Entry{Action: ActionOrderDeleted, EntityID: "o1"})
	assert.NoError(t, rec.Flush(time.Second))
	rec.Close(time.Second)
}
