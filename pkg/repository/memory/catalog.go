package memory

import (
	"context"
	"sync"
	"time"

	"github.com/example/gemora/pkg/models"
	"github.com/example/gemora/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CatalogStore[P models.CatalogItem] struct {
	mu      sync.RWMutex
	items   []P
	newItem func() P
	now     func() time.Time
}

func NewCatalogStore[P models.CatalogItem](newItem func() P) *CatalogStore[P] {
	return &CatalogStore[P]{newItem: newItem, now: time.Now}
}

func NewGemStore() *CatalogStore[*models.Gem] {
	return NewCatalogStore(func() *models.Gem { return &models.Gem{} })
}

func NewInstrumentStore() *CatalogStore[*models.Instrument] {
	return NewCatalogStore(func() *models.Instrument { return &models.Instrument{} })
}

func (s *CatalogStore[P]) copyOf(item P) P {
	c := s.newItem()
	clone(item, c)
	c.Normalize()
	return c
}

func (s *CatalogStore[P]) indexOf(id primitive.ObjectID) int {
	for i, it := range s.items {
		if it.Key() == id {
			return i
		}
	}
	return -1
}

func (s *CatalogStore[P]) Insert(_ context.Context, item P) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.Key().IsZero() {
		item.SetKey(primitive.NewObjectID())
	}
	c := s.newItem()
	clone(item, c)
	s.items = append(s.items, c)
	return nil
}

func (s *CatalogStore[P]) FindByID(_ context.Context, id primitive.ObjectID) (P, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		var zero P
		return zero, repository.ErrNotFound
	}
	return s.copyOf(s.items[i]), nil
}

func (s *CatalogStore[P]) Find(_ context.Context, q repository.CatalogQuery) ([]P, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []P{}
	for i := len(s.items) - 1; i >= 0; i-- {
		c := s.copyOf(s.items[i])
		if q.Status != nil && c.Moderation() != *q.Status {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *CatalogStore[P]) SetStatus(_ context.Context, id primitive.ObjectID, status models.ModerationStatus) (P, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		var zero P
		return zero, repository.ErrNotFound
	}
	s.items[i].SetModeration(status)
	s.items[i].Stamp(s.now())
	return s.copyOf(s.items[i]), nil
}

func (s *CatalogStore[P]) ApprovePending(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, it := range s.items {
		switch it.Moderation() {
		case models.StatusPending, "":
			it.SetModeration(models.StatusApproved)
			it.Stamp(s.now())
			n++
		}
	}
	return n, nil
}

func (s *CatalogStore[P]) Delete(_ context.Context, id primitive.ObjectID) (P, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		var zero P
		return zero, repository.ErrNotFound
	}
	deleted := s.copyOf(s.items[i])
	s.items = append(s.items[:i], s.items[i+1:]...)
	return deleted, nil
}

func (s *CatalogStore[P]) IncrementStock(_ context.Context, id primitive.ObjectID, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return 0, repository.ErrNotFound
	}
	return s.items[i].AddStock(delta), nil
}
