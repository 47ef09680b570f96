package service

import (
	"context"
	"testing"
	"time"

	"github.com/example/gemora/pkg/apperr"
	"github.com/example/gemora/pkg/models"
	"github.com/example/gemora/pkg/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestNewsCreateDefaults(t *testing.T) {
	svc := NewNewsService(memory.NewNewsStore(), zap.NewNop())

	post, err := svc.Create(context.Background(), NewsInput{Title: " Ceylon sapphires ", Excerpt: "e", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, "Ceylon sapphires", post.Title)
	assert.Equal(t, "Admin", post.Author)
	assert.Equal(t, models.NewsPublished, post.Status)
	assert.Equal(t, []string{}, post.Tags)

	_, err = svc.Create(context.Background(), NewsInput{Title: "t", Excerpt: "e"})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = svc.Create(context.Background(), NewsInput{Title: "t", Excerpt: "e", Content: "c", Status: "Hidden"})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestNewsListAndStatus(t *testing.T) {
	svc := NewNewsService(memory.NewNewsStore(), zap.NewNop())
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	var ids []primitive.ObjectID
	for i, status := range []string{"Published", "Draft", "Published"} {
		at := base.Add(time.Duration(i) * time.Hour)
		svc.now = func() time.Time { return at }
		post, err := svc.Create(ctx, NewsInput{Title: "post", Excerpt: "e", Content: "c", Status: status})
		require.NoError(t, err)
		ids = append(ids, post.ID)
	}

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)

	drafts, err := svc.List(ctx, "Draft")
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, ids[1], drafts[0].ID)

	_, err = svc.List(ctx, "bogus")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	archived, err := svc.SetStatus(ctx, ids[0].Hex(), "Archived")
	require.NoError(t, err)
	assert.Equal(t, models.NewsArchived, archived.Status)

	_, err = svc.SetStatus(ctx, primitive.NewObjectID().Hex(), "Draft")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	require.NoError(t, svc.Delete(ctx, ids[1].Hex()))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(svc.Delete(ctx, ids[1].Hex())))
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(svc.Delete(ctx, "nope")))
}
