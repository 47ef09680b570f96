package service

import (
	"context"
	"testing"
	"time"

	"github.com/example/gemora/pkg/apperr"
	"github.com/example/gemora/pkg/audit"
	"github.com/example/gemora/pkg/auth"
	"github.com/example/gemora/pkg/models"
	"github.com/example/gemora/pkg/repository/memory"
	"github.com/example/gemora/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type userFixture struct {
	svc     *UserService
	store   *memory.UserStore
	cache   *memory.Cache
	auditor *recordingAuditor
}

func newUserFixture() *userFixture {
	f := &userFixture{store: memory.NewUserStore(), cache: memory.NewCache(), auditor: &recordingAuditor{}}
	f.svc = NewUserService(f.store, auth.NewTokenManager("test-secret", time.Hour), f.cache, &fakeUploader{}, "gemora", f.auditor, time.Minute, zap.NewNop())
	return f
}

func register(t *testing.T, f *userFixture, email string) *AuthResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), RegisterInput{Name: "Lin", Email: email, Password: "hunter22"})
	require.NoError(t, err)
	return res
}

func TestRegister(t *testing.T) {
	f := newUserFixture()
	res := register(t, f, " Lin@Gemora.test ")

	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "lin@gemora.test", res.User.Email)
	assert.Equal(t, models.RoleUser, res.User.Role)

	_, err := f.svc.Register(context.Background(), RegisterInput{Name: "Lin", Email: "lin@gemora.test", Password: "hunter22"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	assert.Equal(t, "Email already exists", err.Error())

	_, err = f.svc.Register(context.Background(), RegisterInput{Name: "Lin", Email: "x@gemora.test", Password: "abc"})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = f.svc.Register(context.Background(), RegisterInput{Email: "y@gemora.test", Password: "hunter22"})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestLogin(t *testing.T) {
	f := newUserFixture()
	register(t, f, "lin@gemora.test")
	ctx := context.Background()

	res, err := f.svc.Login(ctx, LoginInput{Email: "LIN@gemora.test", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	_, err = f.svc.Login(ctx, LoginInput{Email: "lin@gemora.test", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
	assert.Equal(t, "Invalid credentials", err.Error())

	_, err = f.svc.Login(ctx, LoginInput{Email: "ghost@gemora.test", Password: "hunter22"})
	assert.Equal(t, "Invalid credentials", err.Error())
}

func TestAuthenticate(t *testing.T) {
	f := newUserFixture()
	res := register(t, f, "lin@gemora.test")
	ctx := context.Background()

	p, err := f.svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, p.UserID.Hex())
	assert.Equal(t, models.RoleUser, p.Role)
	assert.True(t, f.cache.Has(principalKey(p.UserID)))

	cases := map[string]string{
		"":        "No token provided",
		"garbage": "Invalid token",
		"a.b.c":   "Invalid token",
	}
	for token, msg := range cases {
		_, err := f.svc.Authenticate(ctx, token)
		require.Error(t, err)
		assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
		assert.Equal(t, msg, err.Error())
	}

	expired := auth.NewTokenManager("test-secret", -time.Minute)
	token, err := expired.Issue(p.UserID)
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, token)
	assert.Equal(t, "Token expired", err.Error())
}

func TestAuthenticateUnknownUser(t *testing.T) {
	f := newUserFixture()
	token, err := auth.NewTokenManager("test-secret", time.Hour).Issue(userPrincipal().UserID)
	require.NoError(t, err)

	_, err = f.svc.Authenticate(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, "User not found", err.Error())
}

func TestSetRoleInvalidatesPrincipalCache(t *testing.T) {
	f := newUserFixture()
	res := register(t, f, "lin@gemora.test")
	ctx := context.Background()

	p, err := f.svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, models.RoleUser, p.Role)

	_, err = f.svc.SetRole(ctx, &p, res.User.ID, "admin")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	admin := adminPrincipal()
	_, err = f.svc.SetRole(ctx, &admin, res.User.ID, "superuser")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	updated, err := f.svc.SetRole(ctx, &admin, res.User.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)
	assert.False(t, f.cache.Has(principalKey(p.UserID)))

	p, err = f.svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.True(t, p.IsAdmin())
	assert.Contains(t, f.auditor.actions(), audit.ActionUserRole)

	// operator tooling passes no principal
	_, err = f.svc.SetRole(ctx, nil, res.User.ID, "user")
	require.NoError(t, err)
}

func TestProfileUpdates(t *testing.T) {
	f := newUserFixture()
	res := register(t, f, "lin@gemora.test")
	ctx := context.Background()
	p, err := f.svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)

	name := "  Lin Wei "
	user, err := f.svc.UpdateProfile(ctx, p, &name, &storage.File{Name: "me.png", ContentType: "image/png", Data: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, "Lin Wei", user.Name)
	assert.Equal(t, "https://cdn.test/gemora/profiles/me.png", user.ProfileImage)

	empty := " "
	_, err = f.svc.UpdateProfile(ctx, p, &empty, nil)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	err = f.svc.ChangePassword(ctx, p, "wrong-one", "newsecret")
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	require.NoError(t, f.svc.ChangePassword(ctx, p, "hunter22", "newsecret"))
	_, err = f.svc.Login(ctx, LoginInput{Email: "lin@gemora.test", Password: "newsecret"})
	require.NoError(t, err)
}

func TestListUsersRequiresAdmin(t *testing.T) {
	f := newUserFixture()
	register(t, f, "a@gemora.test")
	register(t, f, "b@gemora.test")

	_, err := f.svc.List(context.Background(), userPrincipal())
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	users, err := f.svc.List(context.Background(), adminPrincipal())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
