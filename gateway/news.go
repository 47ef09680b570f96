package gateway

import (
	"net/http"

	"github.com/example/gemora/pkg/apperr"
	"github.com/example/gemora/pkg/service"
	"github.com/gin-gonic/gin"
)

func (g *Gateway) listNews(c *gin.Context) {
	posts, err := g.services.News.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (g *Gateway) createNews(c *gin.Context) {
	var in service.NewsInput
	if err := c.ShouldBindJSON(&in); err != nil {
		g.respondError(c, apperr.InvalidInput("Invalid request body"))
		return
	}
	post, err := g.services.News.Create(c.Request.Context(), in)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (g *Gateway) setNewsStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.respondError(c, apperr.InvalidInput("Invalid status value"))
		return
	}
	post, err := g.services.News.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (g *Gateway) deleteNews(c *gin.Context) {
	if err := g.services.News.Delete(c.Request.Context(), c.Param("id")); err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "News post deleted"})
}
