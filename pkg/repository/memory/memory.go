// Package memory implements the repository interfaces in process. It backs
// the "memory" mongodb driver and the service and gateway tests.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/example/gemora/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
)

// clone copies src into dst through BSON so stored values never alias
// caller-owned memory, matching what a round trip to Mongo does.
func clone(src, dst interface{}) {
	data, err := bson.Marshal(src)
	if err != nil {
		panic(err)
	}
	if err := bson.Unmarshal(data, dst); err != nil {
		panic(err)
	}
}

// AuditStore keeps audit entries in insertion order.
type AuditStore struct {
	mu   sync.RWMutex
	logs []*repository.AuditLog
}

func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

func (s *AuditStore) CreateAuditLog(_ context.Context, log *repository.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	var c repository.AuditLog
	clone(log, &c)
	s.logs = append(s.logs, &c)
	return nil
}

func (s *AuditStore) GetAuditLogs(_ context.Context, entityID string, limit int64) ([]*repository.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*repository.AuditLog{}
	for i := len(s.logs) - 1; i >= 0; i-- {
		if s.logs[i].EntityID != entityID {
			continue
		}
		var c repository.AuditLog
		clone(s.logs[i], &c)
		out = append(out, &c)
		if limit > 0 && int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (s *AuditStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs)
}

// TxRunner runs fn directly. Memory stores have no rollback.
type TxRunner struct{}

func (TxRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type entry struct {
	data    []byte
	expires time.Time
}

// Cache is a map-backed repository.Cache.
type Cache struct {
	mu    sync.Mutex
	items map[string]entry
	now   func() time.Time
}

func NewCache() *Cache {
	return &Cache{items: map[string]entry{}, now: time.Now}
}

func (c *Cache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	e, ok := c.items[key]
	if ok && !e.expires.IsZero() && c.now().After(e.expires) {
		delete(c.items, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(e.data, dest)
}

func (c *Cache) SetJSON(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	e := entry{data: data}
	if expiration > 0 {
		e.expires = c.now().Add(expiration)
	}
	c.mu.Lock()
	c.items[key] = e
	c.mu.Unlock()
	return nil
}

func (c *Cache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// newestFirst reverses items, which are in insertion order, then sorts them by
// creation time, newest first. Ties keep the latest insert first.
func newestFirst[T any](items []T, createdAt func(T) time.Time) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).After(createdAt(items[j]))
	})
}
