package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/gemora/pkg/apperr"
	"github.com/example/gemora/pkg/audit"
	"github.com/example/gemora/pkg/models"
	"github.com/example/gemora/pkg/repository/memory"
	"github.com/example/gemora/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type gemFixture struct {
	svc      *CatalogService[*models.Gem]
	cache    *memory.Cache
	uploader *fakeUploader
	auditor  *recordingAuditor
}

func newGemFixture() *gemFixture {
	f := &gemFixture{cache: memory.NewCache(), uploader: &fakeUploader{}, auditor: &recordingAuditor{}}
	f.svc = NewCatalogService[*models.Gem](models.KindGem, memory.NewGemStore(), f.cache, f.uploader, "gemora", f.auditor, time.Minute, zap.NewNop())
	return f
}

func newGem(name string) *models.Gem {
	return &models.Gem{Name: name, Carat: 2.1, PhoneNumber: "0771234567", Price: 500, CountInStock: 3}
}

func TestCreateGemModeration(t *testing.T) {
	f := newGemFixture()
	ctx := context.Background()
	seller := userPrincipal()

	pending, err := f.svc.Create(ctx, seller, newGem("Sapphire"), nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, pending.Status)
	require.NotNil(t, pending.SellerID)
	assert.Equal(t, seller.UserID, *pending.SellerID)
	assert.False(t, pending.ID.IsZero())

	approved, err := f.svc.Create(ctx, adminPrincipal(), newGem("Emerald"), nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
}

func TestCreateGemValidation(t *testing.T) {
	f := newGemFixture()

	_, err := f.svc.Create(context.Background(), userPrincipal(), &models.Gem{Name: "Opal"}, nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	assert.Equal(t, "Name, carat and phone number are required", err.Error())
}

func TestCreateGemUploadsImages(t *testing.T) {
	f := newGemFixture()
	files := []storage.File{
		{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte{1}},
		{Name: "b.jpg", ContentType: "image/jpeg", Data: []byte{2}},
	}

	gem, err := f.svc.Create(context.Background(), userPrincipal(), newGem("Topaz"), files)
	require.NoError(t, err)
	assert.Equal(t, 2, f.uploader.calls)
	assert.Equal(t, []string{"https://cdn.test/gemora/gems/a.jpg", "https://cdn.test/gemora/gems/b.jpg"}, gem.Images)

	tooMany := make([]storage.File, MaxImagesPerItem+1)
	_, err = f.svc.Create(context.Background(), userPrincipal(), newGem("Jade"), tooMany)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	f.uploader.err = errors.New("bucket gone")
	_, err = f.svc.Create(context.Background(), userPrincipal(), newGem("Onyx"), files[:1])
	assert.Equal(t, apperr.KindDependency, apperr.KindOf(err))
}

func TestCreateInstrumentRequiresImage(t *testing.T) {
	svc := NewCatalogService[*models.Instrument](models.KindInstrument, memory.NewInstrumentStore(), nil, &fakeUploader{}, "gemora", audit.Nop{}, time.Minute, zap.NewNop())
	inst := &models.Instrument{Name: "Refractometer", Brand: "Kruss", Category: "testing", Price: 300}

	_, err := svc.Create(context.Background(), adminPrincipal(), inst, nil)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	created, err := svc.Create(context.Background(), adminPrincipal(), inst,
		[]storage.File{{Name: "r.png", ContentType: "image/png", Data: []byte{1}}})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, created.Status)
	assert.Len(t, created.Images, 1)
}

func TestCreateInstrumentAcceptsImageURL(t *testing.T) {
	svc := NewCatalogService[*models.Instrument](models.KindInstrument, memory.NewInstrumentStore(), nil, &fakeUploader{}, "gemora", audit.Nop{}, time.Minute, zap.NewNop())
	inst := &models.Instrument{Name: "Polariscope", Brand: "Eickhorst", Category: "testing", Price: 220,
		ImageURL: "https://cdn.test/polariscope.jpg"}

	created, err := svc.Create(context.Background(), userPrincipal(), inst, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.test/polariscope.jpg"}, created.Images)
	assert.Equal(t, models.StatusPending, created.Status)
}

func TestListVisibility(t *testing.T) {
	f := newGemFixture()
	ctx := context.Background()
	seller := userPrincipal()
	_, err := f.svc.Create(ctx, seller, newGem("Pending"), nil)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, adminPrincipal(), newGem("Approved"), nil)
	require.NoError(t, err)

	anon, err := f.svc.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, anon, 1)
	assert.Equal(t, "Approved", anon[0].Name)

	own, err := f.svc.List(ctx, &seller)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	admin := adminPrincipal()
	all, err := f.svc.List(ctx, &admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListCachesApprovedItems(t *testing.T) {
	f := newGemFixture()
	ctx := context.Background()
	admin := adminPrincipal()
	_, err := f.svc.Create(ctx, admin, newGem("Garnet"), nil)
	require.NoError(t, err)

	key := "catalog:gem:approved"
	assert.False(t, f.cache.Has(key))

	_, err = f.svc.List(ctx, nil)
	require.NoError(t, err)
	assert.True(t, f.cache.Has(key))

	_, err = f.svc.List(ctx, &admin)
	require.NoError(t, err)
	assert.True(t, f.cache.Has(key))

	_, err = f.svc.Create(ctx, admin, newGem("Amethyst"), nil)
	require.NoError(t, err)
	assert.False(t, f.cache.Has(key))

	items, err := f.svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestSetStatusAuthorization(t *testing.T) {
	f := newGemFixture()
	ctx := context.Background()
	seller := userPrincipal()
	gem, err := f.svc.Create(ctx, seller, newGem("Spinel"), nil)
	require.NoError(t, err)

	_, err = f.svc.SetStatus(ctx, userPrincipal(), gem.ID.Hex(), "Approved")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.svc.SetStatus(ctx, seller, gem.ID.Hex(), "Sold")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = f.svc.SetStatus(ctx, seller, "123", "Approved")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	updated, err := f.svc.SetStatus(ctx, seller, gem.ID.Hex(), "Rejected")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, updated.Status)

	updated, err = f.svc.SetStatus(ctx, adminPrincipal(), gem.ID.Hex(), "Approved")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Status)
	assert.Contains(t, f.auditor.actions(), audit.ActionCatalogStatus)
}

func TestBulkApprove(t *testing.T) {
	f := newGemFixture()
	ctx := context.Background()
	for _, name := range []string{"A", "B", "C"} {
		_, err := f.svc.Create(ctx, userPrincipal(), newGem(name), nil)
		require.NoError(t, err)
	}
	_, err := f.svc.Create(ctx, adminPrincipal(), newGem("D"), nil)
	require.NoError(t, err)

	_, err = f.svc.BulkApprove(ctx, userPrincipal())
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	n, err := f.svc.BulkApprove(ctx, adminPrincipal())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = f.svc.BulkApprove(ctx, adminPrincipal())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	visible, err := f.svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, visible, 4)
}

func TestDeleteGem(t *testing.T) {
	f := newGemFixture()
	ctx := context.Background()
	admin := adminPrincipal()
	gem, err := f.svc.Create(ctx, admin, newGem("Zircon"), nil)
	require.NoError(t, err)

	_, err = f.svc.Delete(ctx, userPrincipal(), gem.ID.Hex())
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	deleted, err := f.svc.Delete(ctx, admin, gem.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Zircon", deleted.Name)

	_, err = f.svc.Delete(ctx, admin, gem.ID.Hex())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.svc.Get(ctx, gem.ID.Hex())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
