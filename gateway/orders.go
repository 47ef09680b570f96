package gateway

import (
	"net/http"
	"strconv"

	"github.com/example/gemora/pkg/apperr"
	"github.com/example/gemora/pkg/service"
	"github.com/gin-gonic/gin"
)

// createOrder godoc
// @Summary Place an order
// @Tags orders
// @Accept json
// @Produce json
// @Param order body service.CreateOrderInput true "Cart snapshot"
// @Success 201 {object} models.Order
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /api/orders [post]
func (g *Gateway) createOrder(c *gin.Context) {
	var in service.CreateOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		g.respondError(c, apperr.InvalidInput("Invalid request body"))
		return
	}
	order, err := g.services.Orders.Create(c.Request.Context(), mustPrincipal(c), in)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (g *Gateway) myOrders(c *gin.Context) {
	orders, err := g.services.Orders.Mine(c.Request.Context(), mustPrincipal(c))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (g *Gateway) allOrders(c *gin.Context) {
	orders, err := g.services.Orders.All(c.Request.Context(), mustPrincipal(c))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (g *Gateway) getOrder(c *gin.Context) {
	order, err := g.services.Orders.Get(c.Request.Context(), mustPrincipal(c), c.Param("id"))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type orderStatusRequest struct {
	Status      string `json:"status"`
	OrderStatus string `json:"orderStatus"`
}

// updateOrderStatus godoc
// @Summary Change an order's status
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order id"
// @Param status body orderStatusRequest true "New status"
// @Success 200 {object} models.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /api/orders/{id}/status [put]
func (g *Gateway) updateOrderStatus(c *gin.Context) {
	var req orderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.respondError(c, apperr.InvalidInput("Status is required"))
		return
	}
	status := req.Status
	if status == "" {
		status = req.OrderStatus
	}
	order, err := g.services.Orders.UpdateStatus(c.Request.Context(), mustPrincipal(c), c.Param("id"), status)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (g *Gateway) payOrder(c *gin.Context) {
	order, err := g.services.Orders.Pay(c.Request.Context(), mustPrincipal(c), c.Param("id"))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (g *Gateway) deleteOrder(c *gin.Context) {
	if err := g.services.Orders.Delete(c.Request.Context(), mustPrincipal(c), c.Param("id")); err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order removed"})
}

func (g *Gateway) orderAudit(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)
	logs, err := g.services.Orders.AuditTrail(c.Request.Context(), mustPrincipal(c), c.Param("id"), limit)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
