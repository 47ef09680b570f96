package gateway

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/example/gemora/pkg/apperr"
	"github.com/example/gemora/pkg/models"
	"github.com/example/gemora/pkg/service"
	"github.com/gin-gonic/gin"
)

// catalogHandler serves one catalog kind. Gems and instruments share it.
type catalogHandler[P models.CatalogItem] struct {
	gw      *Gateway
	svc     *service.CatalogService[P]
	newItem func() P
	label   string
}

func newCatalogHandler[P models.CatalogItem](gw *Gateway, svc *service.CatalogService[P], newItem func() P) *catalogHandler[P] {
	return &catalogHandler[P]{gw: gw, svc: svc, newItem: newItem, label: string(svc.Kind())}
}

func (h *catalogHandler[P]) register(rg *gin.RouterGroup, requireAuth, optionalAuth gin.HandlerFunc) {
	rg.GET("", optionalAuth, h.list)
	rg.GET("/:id", h.get)
	rg.POST("", requireAuth, authorize(models.RoleUser, models.RoleAdmin), h.create)
	rg.PUT("/bulk/approve", requireAuth, authorize(models.RoleAdmin), h.bulkApprove)
	rg.PUT("/:id/status", requireAuth, h.setStatus)
	rg.DELETE("/:id", requireAuth, authorize(models.RoleAdmin), h.delete)
}

func (h *catalogHandler[P]) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), principalFrom(c))
	if err != nil {
		h.gw.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *catalogHandler[P]) get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.gw.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// create accepts JSON, or multipart fields with up to five "image" files.
func (h *catalogHandler[P]) create(c *gin.Context) {
	item := h.newItem()
	if err := c.ShouldBind(item); err != nil {
		h.gw.respondError(c, apperr.InvalidInput("Invalid data").WithDetail(err.Error()))
		return
	}
	files, err := h.gw.formFiles(c, "image")
	if err != nil {
		h.gw.respondError(c, err)
		return
	}

	created, err := h.svc.Create(c.Request.Context(), mustPrincipal(c), item, files)
	if err != nil {
		h.gw.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

type statusRequest struct {
	Status string `json:"status" form:"status"`
}

func (h *catalogHandler[P]) setStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBind(&req); err != nil {
		h.gw.respondError(c, apperr.InvalidInput("Invalid status value"))
		return
	}
	item, err := h.svc.SetStatus(c.Request.Context(), mustPrincipal(c), c.Param("id"), req.Status)
	if err != nil {
		h.gw.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *catalogHandler[P]) bulkApprove(c *gin.Context) {
	n, err := h.svc.BulkApprove(c.Request.Context(), mustPrincipal(c))
	if err != nil {
		h.gw.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       fmt.Sprintf("Successfully approved %d %ss", n, strings.ToLower(h.label)),
		"modifiedCount": n,
	})
}

func (h *catalogHandler[P]) delete(c *gin.Context) {
	deleted, err := h.svc.Delete(c.Request.Context(), mustPrincipal(c), c.Param("id"))
	if err != nil {
		h.gw.respondError(c, err)
		return
	}
	body := gin.H{"message": h.label + " deleted successfully"}
	body["deleted"+h.label] = deleted
	c.JSON(http.StatusOK, body)
}
