package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/gemora/gateway"
	"github.com/example/gemora/pkg/audit"
	"github.com/example/gemora/pkg/bootstrap"
	"github.com/example/gemora/pkg/config"
	"github.com/example/gemora/pkg/discovery"
	gemoragrpc "github.com/example/gemora/pkg/grpc"
	"github.com/example/gemora/pkg/logger"
	"github.com/example/gemora/pkg/storage"
	"go.uber.org/zap"
)

const healthInterval = 15 * time.Second

func main() {
	configPath := os.Getenv("GEMORA_CONFIG")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Gemora API",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port),
		zap.String("host", cfg.Server.Host),
		zap.String("consistency", cfg.Orders.Consistency))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, err := bootstrap.OpenStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open stores", zap.Error(err))
	}
	if stores.Mongo != nil {
		if err := stores.Mongo.EnsureIndexes(ctx); err != nil {
			log.Warn("Failed to ensure indexes", zap.Error(err))
		}
	}

	cache, redisProbe, closeCache := bootstrap.OpenCache(ctx, &cfg.Redis, log)

	transcripts, err := bootstrap.OpenTranscripts(&cfg.MySQL, log)
	if err != nil {
		log.Warn("Chat transcripts disabled", zap.Error(err))
	}

	assistant, err := bootstrap.OpenAssistant(ctx, &cfg.Chat, log)
	if err != nil {
		log.Warn("Chat assistant unavailable", zap.Error(err))
	}

	uploader, err := storage.New(ctx, &cfg.Storage)
	if err != nil {
		log.Fatal("Failed to set up storage", zap.Error(err))
	}

	recorder, err := audit.NewActorRecorder(stores.Audit, cfg.Server.Name, log)
	if err != nil {
		log.Fatal("Failed to start audit recorder", zap.Error(err))
	}

	services, err := bootstrap.BuildServices(cfg, bootstrap.Deps{
		Stores:      stores,
		Cache:       cache,
		Uploader:    uploader,
		Recorder:    recorder,
		Assistant:   assistant,
		Transcripts: transcripts,
	}, log)
	if err != nil {
		log.Fatal("Failed to build services", zap.Error(err))
	}

	// Create gateway
	gw := gateway.NewGateway(cfg, log, services)
	gw.SetupRoutes()

	errCh := make(chan error, 2)
	go func() {
		if err := gw.Start(); err != nil {
			errCh <- fmt.Errorf("gateway: %w", err)
		}
	}()

	// gRPC health
	var health *gemoragrpc.HealthServer
	if cfg.GRPC.Enabled {
		probes := map[string]gemoragrpc.Probe{"mongodb": stores.Ping}
		if redisProbe != nil {
			probes["redis"] = redisProbe
		}
		if transcripts != nil {
			probes["mysql"] = transcripts.Ping
		}
		health = gemoragrpc.NewHealthServer(&cfg.GRPC, log, probes)
		go func() {
			if err := health.Start(); err != nil {
				errCh <- fmt.Errorf("grpc: %w", err)
			}
		}()
		go health.Watch(ctx, healthInterval)
	}

	// Service registration
	var registry *discovery.Registry
	instance := discovery.Instance{Name: cfg.Server.Name, Host: cfg.Server.Host, Port: cfg.Server.Port}
	if len(cfg.Etcd.Endpoints) > 0 {
		registry, err = discovery.NewRegistry(&cfg.Etcd, log)
		if err != nil {
			log.Warn("Failed to connect to etcd, continuing without registration", zap.Error(err))
		} else if err := registry.Register(ctx, instance); err != nil {
			log.Warn("Failed to register instance", zap.Error(err))
		}
	}

	log.Info("Gemora API started")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("Received shutdown signal")
	case err := <-errCh:
		log.Error("Server error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if registry != nil {
		if err := registry.Deregister(shutdownCtx, instance); err != nil {
			log.Warn("Failed to deregister instance", zap.Error(err))
		}
		registry.Close()
	}
	if err := gw.Shutdown(shutdownCtx); err != nil {
		log.Error("Gateway shutdown failed", zap.Error(err))
	}
	if health != nil {
		health.Stop()
	}
	cancel()

	recorder.Close(5 * time.Second)
	if assistant != nil {
		assistant.Close()
	}
	if transcripts != nil {
		transcripts.Close()
	}
	closeCache()
	if err := stores.Close(shutdownCtx); err != nil {
		log.Warn("Failed to close stores", zap.Error(err))
	}

	log.Info("Gemora API stopped")
}
