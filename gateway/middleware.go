package gateway

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/example/gemora/pkg/apperr"
	"github.com/example/gemora/pkg/auth"
	"github.com/example/gemora/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	principalKey = "principal"
	requestIDKey = "request_id"

	requestIDHeader = "X-Request-ID"
)

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(requestIDKey)),
		}
		if p := principalFrom(c); p != nil {
			fields = append(fields, zap.String("user_id", p.UserID.Hex()))
		}
		logger.Info("HTTP request", fields...)
	}
}

func recoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("Panic while handling request",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(requestIDKey)))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
	})
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// timeoutMiddleware bounds every request context; store calls inherit it.
func timeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// requireAuth resolves the bearer token to a principal or rejects with 401.
func (g *Gateway) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		p, err := g.services.Users.Authenticate(c.Request.Context(), token)
		if err != nil {
			g.respondError(c, err)
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// optionalAuth attaches a principal when a valid token is present and
// otherwise lets the request through anonymously.
func (g *Gateway) optionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		if token != "" {
			if p, err := g.services.Users.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(principalKey, p)
			}
		}
		c.Next()
	}
}

func authorize(roles ...models.Role) gin.HandlerFunc {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	denied := "Access denied. Required roles: " + strings.Join(names, ", ")

	return func(c *gin.Context) {
		p := principalFrom(c)
		if p == nil {
			abortWith(c, apperr.Unauthenticated("Authentication required"))
			return
		}
		if !p.HasRole(roles...) {
			abortWith(c, apperr.Forbidden(denied))
			return
		}
		c.Next()
	}
}

func principalFrom(c *gin.Context) *auth.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, ok := v.(auth.Principal)
	if !ok {
		return nil
	}
	return &p
}

// mustPrincipal is for handlers behind requireAuth.
func mustPrincipal(c *gin.Context) auth.Principal {
	if p := principalFrom(c); p != nil {
		return *p
	}
	return auth.Principal{}
}

// limiterIdleTTL is how long a client's bucket survives without requests.
const limiterIdleTTL = 10 * time.Minute

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter hands out one token bucket per client IP. Buckets idle for
// limiterIdleTTL are dropped on the next sweep.
type ipLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*clientBucket
	limit     rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

func newIPLimiter(perMinute float64, burst int) *ipLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(perMinute / 60)
	}
	if burst <= 0 {
		burst = 1
	}
	return &ipLimiter{
		buckets:   map[string]*clientBucket{},
		limit:     limit,
		burst:     burst,
		now:       time.Now,
		lastSweep: time.Now(),
	}
}

func (l *ipLimiter) allow(ip string) bool {
	if l.limit == rate.Inf {
		return true
	}
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= limiterIdleTTL {
		l.sweepLocked(now)
	}
	b, ok := l.buckets[ip]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

func (l *ipLimiter) sweepLocked(now time.Time) {
	for ip, b := range l.buckets {
		if now.Sub(b.lastSeen) >= limiterIdleTTL {
			delete(l.buckets, ip)
		}
	}
	l.lastSweep = now
}

func (g *Gateway) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.limiter.allow(c.ClientIP()) {
			abortWith(c, apperr.RateLimited("Too many chat requests, please slow down"))
			return
		}
		c.Next()
	}
}
