package main

import (
	"context"
	"time"

	"github.com/example/gemora/gateway"
	"github.com/example/gemora/pkg/audit"
	"github.com/example/gemora/pkg/bootstrap"
	"github.com/example/gemora/pkg/config"
	"github.com/example/gemora/pkg/logger"
	"github.com/example/gemora/pkg/storage"
	"go.uber.org/zap"
)

// app is what a command needs; close releases it.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	stores   *bootstrap.Stores
	services *gateway.Services
	close    func()
}

func boot(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	stores, err := bootstrap.OpenStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	cache, _, closeCache := bootstrap.OpenCache(ctx, &cfg.Redis, log)
	uploader, err := storage.New(ctx, &cfg.Storage)
	if err != nil {
		closeCache()
		_ = stores.Close(ctx)
		return nil, err
	}
	recorder, err := audit.NewActorRecorder(stores.Audit, "gemoractl", log)
	if err != nil {
		closeCache()
		_ = stores.Close(ctx)
		return nil, err
	}

	services, err := bootstrap.BuildServices(cfg, bootstrap.Deps{
		Stores:   stores,
		Cache:    cache,
		Uploader: uploader,
		Recorder: recorder,
	}, log)
	if err != nil {
		recorder.Close(time.Second)
		closeCache()
		_ = stores.Close(ctx)
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   log,
		stores:   stores,
		services: services,
		close: func() {
			recorder.Close(5 * time.Second)
			closeCache()
			_ = stores.Close(context.Background())
			_ = log.Sync()
		},
	}, nil
}
