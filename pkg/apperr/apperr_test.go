package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("Order not found")))
	assert.Equal(t, KindForbidden, KindOf(fmt.Errorf("wrapped: %w", Forbidden("no"))))
	assert.Equal(t, KindDependency, KindOf(errors.New("plain")))
	assert.True(t, Is(Conflict("x"), KindConflict))
	assert.False(t, Is(errors.New("x"), KindConflict))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindInvalidInput:    http.StatusBadRequest,
		KindUnauthenticated: http.StatusUnauthorized,
		KindForbidden:       http.StatusForbidden,
		KindNotFound:        http.StatusNotFound,
		KindConflict:        http.StatusConflict,
		KindRateLimited:     http.StatusTooManyRequests,
		KindUnavailable:     http.StatusServiceUnavailable,
		KindDependency:      http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, HTTPStatus(kind), kind.String())
	}
}

func TestDependencyUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Dependency("Failed to create order", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed to create order: connection refused", err.Error())
}

func TestWithDetail(t *testing.T) {
	base := InvalidInput("Chat failed")
	err := base.WithDetail("Message cannot be empty")

	assert.Equal(t, "Message cannot be empty", err.Detail)
	assert.Empty(t, base.Detail)
}
