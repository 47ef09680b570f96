// Package gateway is the HTTP surface of the API. Handlers decode requests,
// pass the request principal to the services and render their results.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	_ "github.com/example/gemora/docs"
	"github.com/example/gemora/pkg/config"
	"github.com/example/gemora/pkg/metrics"
	"github.com/example/gemora/pkg/models"
	"github.com/example/gemora/pkg/service"
	"github.com/example/gemora/pkg/storage"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Services are the collaborators the handlers call.
type Services struct {
	Users       *service.UserService
	Orders      *service.OrderService
	Gems        *service.CatalogService[*models.Gem]
	Instruments *service.CatalogService[*models.Instrument]
	News        *service.NewsService
	Chat        *service.ChatService
	Uploader    storage.Uploader
}

type Gateway struct {
	config   *config.Config
	logger   *zap.Logger
	router   *gin.Engine
	server   *http.Server
	services *Services
	limiter  *ipLimiter
}

func NewGateway(cfg *config.Config, logger *zap.Logger, services *Services) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.MaxMultipartMemory = cfg.Storage.MaxBytes
	router.Use(recoveryMiddleware(logger))
	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware(logger))
	router.Use(metrics.GinMiddleware())
	router.Use(timeoutMiddleware(cfg.Server.RequestTimeout))

	return &Gateway{
		config: cfg,
		logger: logger,
		router: router,
		server: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		services: services,
		limiter:  newIPLimiter(cfg.Chat.RatePerMinute, cfg.Chat.Burst),
	}
}

func (g *Gateway) SetupRoutes() {
	g.router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "message": "GEMORA API running"})
	})
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	g.router.GET("/metrics", gin.WrapH(metrics.Handler()))
	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if g.config.Storage.Driver == "local" {
		g.router.Static(g.config.Storage.LocalURL, g.config.Storage.LocalRoot)
	}

	requireAuth := g.requireAuth()
	optionalAuth := g.optionalAuth()
	anyUser := authorize(models.RoleUser, models.RoleAdmin)
	adminOnly := authorize(models.RoleAdmin)

	api := g.router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", g.register)
			authRoutes.POST("/login", g.login)
			authRoutes.GET("/me", requireAuth, g.me)
		}

		users := api.Group("/users", requireAuth)
		{
			users.GET("", adminOnly, g.listUsers)
			users.PUT("/profile", g.updateProfile)
			users.PUT("/password", g.changePassword)
			users.PUT("/:id/role", adminOnly, g.setRole)
		}

		orders := api.Group("/orders", requireAuth)
		{
			orders.POST("", g.createOrder)
			orders.GET("/myorders", g.myOrders)
			orders.GET("", adminOnly, g.allOrders)
			orders.GET("/:id", g.getOrder)
			orders.PUT("/:id/status", adminOnly, g.updateOrderStatus)
			orders.PUT("/:id/pay", g.payOrder)
			orders.DELETE("/:id", adminOnly, g.deleteOrder)
			orders.GET("/:id/audit", adminOnly, g.orderAudit)
		}

		gems := newCatalogHandler(g, g.services.Gems, func() *models.Gem { return &models.Gem{CountInStock: 1} })
		gems.register(api.Group("/gems"), requireAuth, optionalAuth)

		instruments := newCatalogHandler(g, g.services.Instruments, func() *models.Instrument { return &models.Instrument{} })
		instruments.register(api.Group("/instruments"), requireAuth, optionalAuth)
		instruments.register(api.Group("/tools"), requireAuth, optionalAuth)

		news := api.Group("/news")
		{
			news.GET("", g.listNews)
			news.POST("", requireAuth, anyUser, g.createNews)
			news.PUT("/:id/status", requireAuth, anyUser, g.setNewsStatus)
			news.DELETE("/:id", requireAuth, anyUser, g.deleteNews)
		}

		chat := api.Group("/chat")
		{
			chat.POST("", optionalAuth, g.rateLimit(), g.chat)
			chat.GET("/history", requireAuth, g.chatHistory)
		}

		api.POST("/uploads", requireAuth, g.upload)
	}
}

// Handler exposes the router, mainly for tests.
func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) Start() error {
	g.logger.Info("Gateway starting", zap.String("address", g.server.Addr))

	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	return g.server.Shutdown(ctx)
}
