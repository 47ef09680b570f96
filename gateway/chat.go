package gateway

import (
	"net/http"
	"strconv"

	"github.com/example/gemora/pkg/apperr"
	"github.com/gin-gonic/gin"
)

type chatRequest struct {
	Message string `json:"message"`
}

// chat godoc
// @Summary Ask the gem assistant
// @Tags chat
// @Accept json
// @Produce json
// @Param message body chatRequest true "Customer message"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 429 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/chat [post]
func (g *Gateway) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.respondError(c, apperr.InvalidInput("Chat failed").WithDetail("Message cannot be empty"))
		return
	}
	reply, err := g.services.Chat.Ask(c.Request.Context(), principalFrom(c), c.ClientIP(), req.Message)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reply": reply})
}

func (g *Gateway) chatHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	history, err := g.services.Chat.History(c.Request.Context(), mustPrincipal(c), limit)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}
