// Package bootstrap turns a Config into connected stores and services. The
// API server and the operator CLI share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/gemora/gateway"
	"github.com/example/gemora/pkg/ai"
	"github.com/example/gemora/pkg/audit"
	"github.com/example/gemora/pkg/auth"
	"github.com/example/gemora/pkg/config"
	"github.com/example/gemora/pkg/models"
	"github.com/example/gemora/pkg/repository"
	"github.com/example/gemora/pkg/repository/memory"
	"github.com/example/gemora/pkg/service"
	"github.com/example/gemora/pkg/storage"
	"go.uber.org/zap"
)

type Stores struct {
	Users       repository.UserStore
	Orders      repository.OrderStore
	Gems        repository.CatalogStore[*models.Gem]
	Instruments repository.CatalogStore[*models.Instrument]
	News        repository.NewsStore
	Audit       repository.AuditStore
	Tx          repository.TxRunner

	// Mongo is nil for the memory driver.
	Mongo *repository.MongoRepository
}

// OpenStores connects the document stores selected by mongodb.driver.
func OpenStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	if cfg.MongoDB.Driver == "memory" {
		logger.Warn("Using in-memory stores; data is lost on restart")
		return &Stores{
			Users:       memory.NewUserStore(),
			Orders:      memory.NewOrderStore(),
			Gems:        memory.NewGemStore(),
			Instruments: memory.NewInstrumentStore(),
			News:        memory.NewNewsStore(),
			Audit:       memory.NewAuditStore(),
			Tx:          memory.TxRunner{},
		}, nil
	}

	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := mongoRepo.Ping(ctx); err != nil {
		_ = mongoRepo.Close(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	db := mongoRepo.Database()
	logger.Info("Connected to MongoDB", zap.String("database", cfg.MongoDB.Database))

	return &Stores{
		Users:       repository.NewMongoUserStore(db),
		Orders:      repository.NewMongoOrderStore(db),
		Gems:        repository.NewMongoGemStore(db),
		Instruments: repository.NewMongoInstrumentStore(db),
		News:        repository.NewMongoNewsStore(db),
		Audit:       mongoRepo,
		Tx:          mongoRepo,
		Mongo:       mongoRepo,
	}, nil
}

func (s *Stores) Ping(ctx context.Context) error {
	if s.Mongo == nil {
		return nil
	}
	return s.Mongo.Ping(ctx)
}

func (s *Stores) Close(ctx context.Context) error {
	if s.Mongo == nil {
		return nil
	}
	return s.Mongo.Close(ctx)
}

// OpenCache returns Redis when enabled and reachable, otherwise a
// process-local cache. The returned probe is nil for the local cache.
func OpenCache(ctx context.Context, cfg *config.RedisConfig, logger *zap.Logger) (repository.Cache, func(context.Context) error, func() error) {
	if !cfg.Enabled {
		return memory.NewCache(), nil, func() error { return nil }
	}
	redisCache := repository.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		logger.Warn("Redis unreachable, falling back to in-process cache", zap.String("addr", cfg.Addr), zap.Error(err))
		_ = redisCache.Close()
		return memory.NewCache(), nil, func() error { return nil }
	}
	logger.Info("Connected to Redis", zap.String("addr", cfg.Addr))
	return redisCache, redisCache.Ping, redisCache.Close
}

// OpenTranscripts connects the MySQL chat history when enabled. Both return
// values are nil when it is disabled.
func OpenTranscripts(cfg *config.MySQLConfig, logger *zap.Logger) (*repository.ChatHistoryRepository, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	repo, err := repository.NewChatHistoryRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	if err := repo.AutoMigrate(); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("failed to migrate chat history: %w", err)
	}
	logger.Info("Chat transcripts stored in MySQL", zap.String("database", cfg.Database))
	return repo, nil
}

// OpenAssistant returns the Gemini assistant, or nil when no key is set.
func OpenAssistant(ctx context.Context, cfg *config.ChatConfig, logger *zap.Logger) (*ai.GeminiAssistant, error) {
	if cfg.APIKey == "" {
		logger.Warn("chat.api_key not set; chat requests will fail")
		return nil, nil
	}
	return ai.NewGeminiAssistant(ctx, cfg.APIKey, cfg.Model)
}

// Deps are the collaborators BuildServices wires together. Assistant and
// Transcripts may be nil.
type Deps struct {
	Stores      *Stores
	Cache       repository.Cache
	Uploader    storage.Uploader
	Recorder    audit.Recorder
	Assistant   *ai.GeminiAssistant
	Transcripts *repository.ChatHistoryRepository
}

func BuildServices(cfg *config.Config, deps Deps, logger *zap.Logger) (*gateway.Services, error) {
	if deps.Stores == nil {
		return nil, errors.New("bootstrap: stores are required")
	}
	stores := deps.Stores
	folder := cfg.Storage.Folder

	gems := service.NewCatalogService[*models.Gem](models.KindGem, stores.Gems, deps.Cache, deps.Uploader,
		folder, deps.Recorder, cfg.Cache.CatalogTTL, logger)
	instruments := service.NewCatalogService[*models.Instrument](models.KindInstrument, stores.Instruments, deps.Cache, deps.Uploader,
		folder, deps.Recorder, cfg.Cache.CatalogTTL, logger)

	orders := service.NewOrderService(
		stores.Orders,
		stores.Users,
		map[models.ProductKind]service.StockAdjuster{
			models.KindGem:        gems,
			models.KindInstrument: instruments,
		},
		stores.Tx,
		stores.Audit,
		deps.Recorder,
		service.OrderServiceConfig{
			Consistency:       cfg.Orders.Consistency,
			StrictTransitions: cfg.Orders.StrictTransitions,
		},
		logger,
	)

	// Typed nils must not reach the service's interfaces.
	var assistant service.Assistant
	if deps.Assistant != nil {
		assistant = deps.Assistant
	}
	var transcripts repository.TranscriptStore
	if deps.Transcripts != nil {
		transcripts = deps.Transcripts
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	return &gateway.Services{
		Users:       service.NewUserService(stores.Users, tokens, deps.Cache, deps.Uploader, folder, deps.Recorder, cfg.Cache.PrincipalTTL, logger),
		Orders:      orders,
		Gems:        gems,
		Instruments: instruments,
		News:        service.NewNewsService(stores.News, logger),
		Chat:        service.NewChatService(assistant, transcripts, cfg.Chat.Model, logger),
		Uploader:    deps.Uploader,
	}, nil
}
