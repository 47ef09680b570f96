package auth

import (
	"testing"
	"time"

	"github.com/example/gemora/pkg/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	id := primitive.NewObjectID()

	token, err := m.Issue(id)
	require.NoError(t, err)

	got, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestTokenExpired(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }
	token, err := m.Issue(primitive.NewObjectID())
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewTokenManager("one", time.Hour).Issue(primitive.NewObjectID())
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = NewTokenManager("one", time.Hour).Verify("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenRejectsNoneAlg(t *testing.T) {
	claims := Claims{UserID: primitive.NewObjectID().Hex()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer abc"))
	assert.Empty(t, BearerToken("abc"))
	assert.Empty(t, BearerToken(""))
}

func TestPrincipalRoles(t *testing.T) {
	p := Principal{Role: models.RoleAdmin}
	assert.True(t, p.IsAdmin())
	assert.True(t, p.HasRole(models.RoleUser, models.RoleAdmin))
	assert.False(t, Principal{Role: models.RoleUser}.HasRole(models.RoleAdmin))
}
