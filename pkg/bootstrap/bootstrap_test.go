package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/example/gemora/pkg/apperr"
	"github.com/example/gemora/pkg/audit"
	"github.com/example/gemora/pkg/auth"
	"github.com/example/gemora/pkg/config"
	"github.com/example/gemora/pkg/repository/memory"
	"github.com/example/gemora/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func memoryConfig(t *testing.T) *config.Config {
	return &config.Config{
		MongoDB: config.MongoDBConfig{Driver: "memory"},
		Auth:    config.AuthConfig{JWTSecret: "s", TokenTTL: time.Hour},
		Orders:  config.OrdersConfig{Consistency: config.ConsistencyBestEffort},
		Storage: config.StorageConfig{Driver: "local", LocalRoot: t.TempDir(), LocalURL: "/uploads", Folder: "gemora"},
		Chat:    config.ChatConfig{Model: "gemini-2.5-flash"},
	}
}

func TestOpenStoresMemory(t *testing.T) {
	cfg := memoryConfig(t)
	stores, err := OpenStores(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, stores.Mongo)
	assert.IsType(t, memory.TxRunner{}, stores.Tx)
	assert.NoError(t, stores.Ping(context.Background()))
	assert.NoError(t, stores.Close(context.Background()))
}

func TestOpenCacheDisabled(t *testing.T) {
	cache, probe, closeFn := OpenCache(context.Background(), &config.RedisConfig{}, zap.NewNop())
	assert.IsType(t, &memory.Cache{}, cache)
	assert.Nil(t, probe)
	assert.NoError(t, closeFn())
}

func TestOptionalCollaboratorsDisabled(t *testing.T) {
	transcripts, err := OpenTranscripts(&config.MySQLConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, transcripts)

	assistant, err := OpenAssistant(context.Background(), &config.ChatConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, assistant)
}

func TestBuildServicesWithoutAssistant(t *testing.T) {
	cfg := memoryConfig(t)
	stores, err := OpenStores(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	services, err := BuildServices(cfg, Deps{
		Stores:   stores,
		Cache:    memory.NewCache(),
		Uploader: storage.NewLocalStore(cfg.Storage.LocalRoot, cfg.Storage.LocalURL),
		Recorder: audit.Nop{},
	}, zap.NewNop())
	require.NoError(t, err)

	_, err = services.Chat.Ask(context.Background(), nil, "127.0.0.1", "hello")
	require.Error(t, err)
	assert.Equal(t, apperr.KindDependency, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "API key not configured")

	history, err := services.Chat.History(context.Background(), auth.Principal{}, 10)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = BuildServices(cfg, Deps{}, zap.NewNop())
	assert.Error(t, err)
}
