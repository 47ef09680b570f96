// Package grpc exposes the standard gRPC health service for the API. Each
// dependency probe is reported as its own service name; the empty name
// reports SERVING only when every probe passes.
package grpc

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/example/gemora/pkg/config"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Probe checks one dependency.
type Probe func(ctx context.Context) error

type HealthServer struct {
	config *config.GRPCConfig
	logger *zap.Logger
	server *grpc.Server
	health *health.Server
	probes map[string]Probe
	names  []string

	stopOnce sync.Once
	done     chan struct{}
}

func NewHealthServer(cfg *config.GRPCConfig, logger *zap.Logger, probes map[string]Probe) *HealthServer {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	names := make([]string, 0, len(probes))
	for name := range probes {
		names = append(names, name)
		hs.SetServingStatus(name, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	sort.Strings(names)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthServer{
		config: cfg,
		logger: logger.Named("grpc"),
		server: srv,
		health: hs,
		probes: probes,
		names:  names,
		done:   make(chan struct{}),
	}
}

// Check runs every probe once and publishes the results.
func (s *HealthServer) Check(ctx context.Context) {
	overall := healthpb.HealthCheckResponse_SERVING
	for _, name := range s.names {
		status := healthpb.HealthCheckResponse_SERVING
		if err := s.probes[name](ctx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			overall = healthpb.HealthCheckResponse_NOT_SERVING
			s.logger.Warn("Health probe failed", zap.String("probe", name), zap.Error(err))
		}
		s.health.SetServingStatus(name, status)
	}
	s.health.SetServingStatus("", overall)
}

// Watch re-runs the probes every interval until ctx is done or the server stops.
func (s *HealthServer) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		probeCtx, cancel := context.WithTimeout(ctx, interval)
		s.Check(probeCtx)
		cancel()

		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
		}
	}
}

func (s *HealthServer) Serve(lis net.Listener) error {
	s.logger.Info("gRPC health service started", zap.String("address", lis.Addr().String()))
	return s.server.Serve(lis)
}

func (s *HealthServer) Start() error {
	addr := s.config.Addr()
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(lis)
}

func (s *HealthServer) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.health.Shutdown()
		s.server.GracefulStop()
	})
}
