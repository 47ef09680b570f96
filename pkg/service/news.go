package service

import (
	"context"
	"strings"
	"time"

	"github.com/example/gemora/pkg/apperr"
	"github.com/example/gemora/pkg/models"
	"github.com/example/gemora/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type NewsInput struct {
	Title    string   `json:"title"`
	Excerpt  string   `json:"excerpt"`
	Content  string   `json:"content"`
	Author   string   `json:"author"`
	Status   string   `json:"status"`
	ImageURL string   `json:"imageUrl"`
	Tags     []string `json:"tags"`
}

type NewsService struct {
	store  repository.NewsStore
	now    clock
	logger *zap.Logger
}

func NewNewsService(store repository.NewsStore, logger *zap.Logger) *NewsService {
	return &NewsService{store: store, now: time.Now, logger: logger.Named("news")}
}

func (s *NewsService) Create(ctx context.Context, in NewsInput) (*models.NewsPost, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Excerpt) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, apperr.InvalidInput("Title, excerpt and content are required")
	}
	status := models.NewsPublished
	if in.Status != "" {
		var ok bool
		if status, ok = models.ParseNewsStatus(in.Status); !ok {
			return nil, apperr.InvalidInput("Invalid status value")
		}
	}
	author := strings.TrimSpace(in.Author)
	if author == "" {
		author = "Admin"
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	post := &models.NewsPost{
		ID:        primitive.NewObjectID(),
		Title:     strings.TrimSpace(in.Title),
		Excerpt:   in.Excerpt,
		Content:   in.Content,
		Author:    author,
		Status:    status,
		ImageURL:  in.ImageURL,
		Tags:      tags,
		CreatedAt: s.now(),
	}
	if err := s.store.Insert(ctx, post); err != nil {
		return nil, apperr.Dependency("Failed to create news post", err)
	}
	return post, nil
}

// List returns posts newest first, optionally narrowed to one status.
func (s *NewsService) List(ctx context.Context, rawStatus string) ([]*models.NewsPost, error) {
	q := repository.NewsQuery{}
	if rawStatus != "" {
		status, ok := models.ParseNewsStatus(rawStatus)
		if !ok {
			return nil, apperr.InvalidInput("Invalid status value")
		}
		q.Status = &status
	}
	posts, err := s.store.Find(ctx, q)
	if err != nil {
		return nil, apperr.Dependency("Failed to load news", err)
	}
	return posts, nil
}

func (s *NewsService) SetStatus(ctx context.Context, rawID, rawStatus string) (*models.NewsPost, error) {
	status, ok := models.ParseNewsStatus(rawStatus)
	if !ok {
		return nil, apperr.InvalidInput("Invalid status value")
	}
	id, err := parseID(rawID, "news")
	if err != nil {
		return nil, err
	}
	post, err := s.store.SetStatus(ctx, id, status)
	if err != nil {
		return nil, storeErr(err, "News post not found", "Failed to update news post")
	}
	return post, nil
}

func (s *NewsService) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, "news")
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return storeErr(err, "News post not found", "Failed to delete news post")
	}
	return nil
}
