package repository

import (
	"context"
	"errors"
	"time"

	"github.com/example/gemora/pkg/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("repository: not found")
	ErrDuplicate = errors.New("repository: duplicate key")
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// OrderQuery narrows Find. A nil UserID matches every order.
type OrderQuery struct {
	UserID *primitive.ObjectID
}

type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	// Find returns matching orders newest first.
	Find(ctx context.Context, q OrderQuery) ([]*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// CatalogQuery narrows a catalog listing. A nil Status matches every item.
type CatalogQuery struct {
	Status *models.ModerationStatus
}

type CatalogStore[P models.CatalogItem] interface {
	Insert(ctx context.Context, item P) error
	FindByID(ctx context.Context, id primitive.ObjectID) (P, error)
	Find(ctx context.Context, q CatalogQuery) ([]P, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.ModerationStatus) (P, error)
	// ApprovePending approves every Pending item and every legacy item that
	// has no status, returning how many were modified.
	ApprovePending(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) (P, error)
	// IncrementStock atomically adds delta to countInStock and returns the new
	// count. There is no floor.
	IncrementStock(ctx context.Context, id primitive.ObjectID, delta int) (int, error)
}

type NewsQuery struct {
	Status *models.NewsStatus
}

type NewsStore interface {
	Insert(ctx context.Context, post *models.NewsPost) error
	Find(ctx context.Context, q NewsQuery) ([]*models.NewsPost, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.NewsStatus) (*models.NewsPost, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type AuditStore interface {
	CreateAuditLog(ctx context.Context, log *AuditLog) error
	GetAuditLogs(ctx context.Context, entityID string, limit int64) ([]*AuditLog, error)
}

type TranscriptStore interface {
	SaveTranscript(ctx context.Context, t *models.ChatTranscript) error
	RecentTranscripts(ctx context.Context, userID string, limit int) ([]models.ChatTranscript, error)
}

// TxRunner runs fn so that every store call made with the ctx it receives
// commits or aborts together.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Cache is a JSON key/value cache. GetJSON reports false on a miss.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
