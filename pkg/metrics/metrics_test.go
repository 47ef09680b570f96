package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGinMiddlewareUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/api/gems/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(RequestTotal.WithLabelValues("GET", "/api/gems/:id", "204"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/gems/abc", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	after := testutil.ToFloat64(RequestTotal.WithLabelValues("GET", "/api/gems/:id", "204"))
	assert.Equal(t, before+1, after)
}

func TestHandlerExposesDomainMetrics(t *testing.T) {
	StockUnderflow.WithLabelValues("Gem").Inc()

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gemora_stock_underflow_total")
}

func TestObserveCache(t *testing.T) {
	hits := testutil.ToFloat64(CacheHits.WithLabelValues("test"))
	ObserveCache("test", true)
	ObserveCache("test", false)
	assert.Equal(t, hits+1, testutil.ToFloat64(CacheHits.WithLabelValues("test")))
	assert.Equal(t, float64(1), testutil.ToFloat64(CacheMisses.WithLabelValues("test")))
}
