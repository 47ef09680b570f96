package memory

import (
	"context"
	"sync"
	"time"

	"github.com/example/gemora/pkg/models"
	"github.com/example/gemora/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStore struct {
	mu    sync.RWMutex
	users []*models.User
}

func NewUserStore() *UserStore {
	return &UserStore{}
}

func (s *UserStore) indexOf(id primitive.ObjectID) int {
	for i, u := range s.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func (s *UserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	var c models.User
	clone(user, &c)
	s.users = append(s.users, &c)
	return nil
}

func (s *UserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	var c models.User
	clone(s.users[i], &c)
	return &c, nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = models.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			var c models.User
			clone(u, &c)
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *UserStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.User{}
	for _, id := range ids {
		if i := s.indexOf(id); i >= 0 {
			var c models.User
			clone(s.users[i], &c)
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *UserStore) List(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		var c models.User
		clone(u, &c)
		out = append(out, &c)
	}
	newestFirst(out, func(u *models.User) time.Time { return u.CreatedAt })
	return out, nil
}

func (s *UserStore) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(user.ID)
	if i < 0 {
		return repository.ErrNotFound
	}
	for j, u := range s.users {
		if j != i && u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	var c models.User
	clone(user, &c)
	s.users[i] = &c
	return nil
}
