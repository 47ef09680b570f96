// Package discovery registers API instances in etcd so load balancers and
// operators can find them.
package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/example/gemora/pkg/config"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

type Registry struct {
	client *clientv3.Client
	config *config.EtcdConfig
	logger *zap.Logger
	lease  clientv3.LeaseID
}

type Instance struct {
	Name string
	Host string
	Port int
}

func (i Instance) Addr() string {
	return net.JoinHostPort(i.Host, strconv.Itoa(i.Port))
}

// InstanceKey is the etcd key an instance is registered under:
// <prefix><name>/<host>:<port>.
func InstanceKey(prefix string, instance Instance) string {
	return fmt.Sprintf("%s%s/%s", prefix, instance.Name, instance.Addr())
}

func parseInstance(name, value string) (Instance, error) {
	host, rawPort, err := net.SplitHostPort(strings.TrimSpace(value))
	if err != nil {
		return Instance{}, fmt.Errorf("invalid instance address %q: %w", value, err)
	}
	port, err := strconv.Atoi(rawPort)
	if err != nil {
		return Instance{}, fmt.Errorf("invalid instance port %q: %w", value, err)
	}
	return Instance{Name: name, Host: host, Port: port}, nil
}

func NewRegistry(cfg *config.EtcdConfig, logger *zap.Logger) (*Registry, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	return &Registry{
		client: cli,
		config: cfg,
		logger: logger.Named("discovery"),
	}, nil
}

// Register puts the instance under a lease and keeps the lease alive until
// ctx is cancelled or Deregister is called.
func (r *Registry) Register(ctx context.Context, instance Instance) error {
	key := InstanceKey(r.config.Prefix, instance)

	lease, err := r.client.Grant(ctx, r.config.LeaseTTL)
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}

	if _, err := r.client.Put(ctx, key, instance.Addr(), clientv3.WithLease(lease.ID)); err != nil {
		return fmt.Errorf("failed to register instance: %w", err)
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return fmt.Errorf("failed to keep alive: %w", err)
	}
	r.lease = lease.ID

	go func() {
		for range ch {
		}
		r.logger.Info("Lease keep-alive stopped", zap.String("key", key))
	}()

	r.logger.Info("Instance registered",
		zap.String("key", key),
		zap.Int64("lease_ttl", r.config.LeaseTTL))
	return nil
}

func (r *Registry) Discover(ctx context.Context, name string) ([]Instance, error) {
	prefix := fmt.Sprintf("%s%s/", r.config.Prefix, name)

	resp, err := r.client.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to discover %s: %w", name, err)
	}

	instances := make([]Instance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		instance, err := parseInstance(name, string(kv.Value))
		if err != nil {
			r.logger.Warn("Skipping malformed instance", zap.String("key", string(kv.Key)), zap.Error(err))
			continue
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

// Deregister removes the key and revokes the lease.
func (r *Registry) Deregister(ctx context.Context, instance Instance) error {
	if _, err := r.client.Delete(ctx, InstanceKey(r.config.Prefix, instance)); err != nil {
		return fmt.Errorf("failed to deregister instance: %w", err)
	}
	if r.lease != 0 {
		if _, err := r.client.Revoke(ctx, r.lease); err != nil {
			return fmt.Errorf("failed to revoke lease: %w", err)
		}
		r.lease = 0
	}
	return nil
}

func (r *Registry) Close() error {
	return r.client.Close()
}
