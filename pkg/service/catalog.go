package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/gemora/pkg/apperr"
	"github.com/example/gemora/pkg/audit"
	"github.com/example/gemora/pkg/auth"
	"github.com/example/gemora/pkg/metrics"
	"github.com/example/gemora/pkg/models"
	"github.com/example/gemora/pkg/repository"
	"github.com/example/gemora/pkg/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MaxImagesPerItem caps the files accepted on catalog create.
const MaxImagesPerItem = 5

// VisibilityQuery is the one place that decides what a caller may list:
// admins see every item, everyone else only Approved ones.
func VisibilityQuery(p *auth.Principal) repository.CatalogQuery {
	if p != nil && p.IsAdmin() {
		return repository.CatalogQuery{}
	}
	approved := models.StatusApproved
	return repository.CatalogQuery{Status: &approved}
}

// CatalogService runs the moderation workflow for one catalog kind.
type CatalogService[P models.CatalogItem] struct {
	kind     models.ProductKind
	label    string
	store    repository.CatalogStore[P]
	cache    repository.Cache
	uploader storage.Uploader
	folder   string
	recorder audit.Recorder
	cacheTTL time.Duration
	now      clock
	logger   *zap.Logger
}

func NewCatalogService[P models.CatalogItem](
	kind models.ProductKind,
	store repository.CatalogStore[P],
	cache repository.Cache,
	uploader storage.Uploader,
	folder string,
	recorder audit.Recorder,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *CatalogService[P] {
	return &CatalogService[P]{
		kind:     kind,
		label:    string(kind),
		store:    store,
		cache:    cache,
		uploader: uploader,
		folder:   strings.Trim(folder, "/") + "/" + kind.Collection(),
		recorder: recorder,
		cacheTTL: cacheTTL,
		now:      time.Now,
		logger:   logger.Named("catalog").With(zap.String("kind", string(kind))),
	}
}

func (s *CatalogService[P]) Kind() models.ProductKind { return s.kind }

func (s *CatalogService[P]) publicCacheKey() string {
	return fmt.Sprintf("catalog:%s:approved", strings.ToLower(string(s.kind)))
}

func (s *CatalogService[P]) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.publicCacheKey()); err != nil {
		s.logger.Warn("Failed to invalidate catalog cache", zap.Error(err))
	}
}

// List returns the items visible to p. p is nil for anonymous callers.
func (s *CatalogService[P]) List(ctx context.Context, p *auth.Principal) ([]P, error) {
	q := VisibilityQuery(p)
	public := q.Status != nil

	if public && s.cache != nil {
		var cached []P
		hit, err := s.cache.GetJSON(ctx, s.publicCacheKey(), &cached)
		if err != nil {
			s.logger.Warn("Catalog cache read failed", zap.Error(err))
		}
		metrics.ObserveCache("catalog", hit && err == nil)
		if hit && err == nil {
			return cached, nil
		}
	}

	items, err := s.store.Find(ctx, q)
	if err != nil {
		return nil, apperr.Dependency("Server Error", err)
	}

	if public && s.cache != nil {
		if err := s.cache.SetJSON(ctx, s.publicCacheKey(), items, s.cacheTTL); err != nil {
			s.logger.Warn("Catalog cache write failed", zap.Error(err))
		}
	}
	return items, nil
}

// Get returns an item whatever its moderation status.
func (s *CatalogService[P]) Get(ctx context.Context, rawID string) (P, error) {
	var zero P
	id, err := parseID(rawID, strings.ToLower(s.label))
	if err != nil {
		return zero, err
	}
	item, err := s.store.FindByID(ctx, id)
	if err != nil {
		return zero, storeErr(err, s.label+" not found", "Server Error")
	}
	return item, nil
}

// Create stores a new item owned by p. Admin submissions skip review.
func (s *CatalogService[P]) Create(ctx context.Context, p auth.Principal, item P, files []storage.File) (P, error) {
	var zero P
	if len(files) > MaxImagesPerItem {
		return zero, apperr.InvalidInput(fmt.Sprintf("At most %d images are allowed", MaxImagesPerItem))
	}
	if item.RequiresImage() && len(files) == 0 && item.ImageCount() == 0 {
		return zero, apperr.InvalidInput("At least one image is required")
	}
	if err := item.Validate(); err != nil {
		return zero, apperr.InvalidInput(err.Error())
	}

	for _, f := range files {
		url, err := s.uploader.Upload(ctx, s.folder, f)
		if err != nil {
			return zero, apperr.Dependency("Failed to upload image", err)
		}
		item.AppendImages(url)
	}

	item.SetKey(primitive.NewObjectID())
	item.SetModeration(models.StatusPending)
	if p.IsAdmin() {
		item.SetModeration(models.StatusApproved)
	}
	item.AssignSeller(p.UserID)
	item.Stamp(s.now())
	item.Normalize()

	if err := s.store.Insert(ctx, item); err != nil {
		return zero, apperr.Dependency("Invalid data", err)
	}
	s.invalidate(ctx)
	return item, nil
}

// SetStatus changes an item's moderation status. Admins may change any item;
// a seller may change their own gem.
func (s *CatalogService[P]) SetStatus(ctx context.Context, p auth.Principal, rawID, rawStatus string) (P, error) {
	var zero P
	status, ok := models.ParseModerationStatus(rawStatus)
	if !ok {
		return zero, apperr.InvalidInput("Invalid status value")
	}
	current, err := s.Get(ctx, rawID)
	if err != nil {
		return zero, err
	}
	if !p.IsAdmin() {
		seller := current.Seller()
		if seller == nil || *seller != p.UserID {
			return zero, apperr.Forbidden("Not authorized to change this " + strings.ToLower(s.label))
		}
	}

	updated, err := s.store.SetStatus(ctx, current.Key(), status)
	if err != nil {
		return zero, storeErr(err, s.label+" not found", "Server Error")
	}
	s.invalidate(ctx)

	s.recorder.Record(audit.Entry{
		Action:   audit.ActionCatalogStatus,
		EntityID: updated.Key().Hex(),
		ActorID:  p.UserID.Hex(),
		Data:     bson.M{"kind": string(s.kind), "from": string(current.Moderation()), "to": string(status)},
	})
	return updated, nil
}

// BulkApprove approves every pending item and returns how many changed.
func (s *CatalogService[P]) BulkApprove(ctx context.Context, p auth.Principal) (int64, error) {
	if err := requireAdmin(p); err != nil {
		return 0, err
	}
	n, err := s.ApproveAllPending(ctx)
	if err != nil {
		return 0, err
	}
	s.recorder.Record(audit.Entry{
		Action:   audit.ActionCatalogBulk,
		EntityID: s.kind.Collection(),
		ActorID:  p.UserID.Hex(),
		Data:     bson.M{"modifiedCount": n},
	})
	return n, nil
}

// ApproveAllPending is BulkApprove without a principal, for operator tooling.
func (s *CatalogService[P]) ApproveAllPending(ctx context.Context) (int64, error) {
	n, err := s.store.ApprovePending(ctx)
	if err != nil {
		return 0, apperr.Dependency("Server Error", err)
	}
	s.invalidate(ctx)
	s.logger.Info("Bulk approved pending items", zap.Int64("modified", n))
	return n, nil
}

func (s *CatalogService[P]) Delete(ctx context.Context, p auth.Principal, rawID string) (P, error) {
	var zero P
	if err := requireAdmin(p); err != nil {
		return zero, err
	}
	id, err := parseID(rawID, strings.ToLower(s.label))
	if err != nil {
		return zero, err
	}
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return zero, storeErr(err, s.label+" not found in database", "Server error during deletion")
	}
	s.invalidate(ctx)

	s.recorder.Record(audit.Entry{
		Action:   audit.ActionCatalogDeleted,
		EntityID: id.Hex(),
		ActorID:  p.UserID.Hex(),
		Data:     bson.M{"kind": string(s.kind)},
	})
	return deleted, nil
}

// AdjustStock applies delta to an item's stock. It backs order placement.
func (s *CatalogService[P]) AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) (int, error) {
	count, err := s.store.IncrementStock(ctx, id, delta)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx)
	return count, nil
}
