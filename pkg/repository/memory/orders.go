package memory

import (
	"context"
	"sync"
	"time"

	"github.com/example/gemora/pkg/models"
	"github.com/example/gemora/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStore struct {
	mu     sync.RWMutex
	orders []*models.Order
}

func NewOrderStore() *OrderStore {
	return &OrderStore{}
}

func (s *OrderStore) indexOf(id primitive.ObjectID) int {
	for i, o := range s.orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func (s *OrderStore) Insert(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	var c models.Order
	clone(order, &c)
	s.orders = append(s.orders, &c)
	return nil
}

func (s *OrderStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	var c models.Order
	clone(s.orders[i], &c)
	return &c, nil
}

func (s *OrderStore) Find(_ context.Context, q repository.OrderQuery) ([]*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Order{}
	for _, o := range s.orders {
		if q.UserID != nil && o.UserID != *q.UserID {
			continue
		}
		var c models.Order
		clone(o, &c)
		out = append(out, &c)
	}
	newestFirst(out, func(o *models.Order) time.Time { return o.CreatedAt })
	return out, nil
}

func (s *OrderStore) Update(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(order.ID)
	if i < 0 {
		return repository.ErrNotFound
	}
	var c models.Order
	clone(order, &c)
	s.orders[i] = &c
	return nil
}

func (s *OrderStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return repository.ErrNotFound
	}
	s.orders = append(s.orders[:i], s.orders[i+1:]...)
	return nil
}

func (s *OrderStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}
