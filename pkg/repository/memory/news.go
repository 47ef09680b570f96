package memory

import (
	"context"
	"sync"
	"time"

	"github.com/example/gemora/pkg/models"
	"github.com/example/gemora/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NewsStore struct {
	mu    sync.RWMutex
	posts []*models.NewsPost
}

func NewNewsStore() *NewsStore {
	return &NewsStore{}
}

func (s *NewsStore) indexOf(id primitive.ObjectID) int {
	for i, p := range s.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *NewsStore) Insert(_ context.Context, post *models.NewsPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	var c models.NewsPost
	clone(post, &c)
	s.posts = append(s.posts, &c)
	return nil
}

func (s *NewsStore) Find(_ context.Context, q repository.NewsQuery) ([]*models.NewsPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.NewsPost{}
	for _, p := range s.posts {
		if q.Status != nil && p.Status != *q.Status {
			continue
		}
		var c models.NewsPost
		clone(p, &c)
		out = append(out, &c)
	}
	newestFirst(out, func(p *models.NewsPost) time.Time { return p.CreatedAt })
	return out, nil
}

func (s *NewsStore) SetStatus(_ context.Context, id primitive.ObjectID, status models.NewsStatus) (*models.NewsPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	s.posts[i].Status = status
	var c models.NewsPost
	clone(s.posts[i], &c)
	return &c, nil
}

func (s *NewsStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return repository.ErrNotFound
	}
	s.posts = append(s.posts[:i], s.posts[i+1:]...)
	return nil
}
