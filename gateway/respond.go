package gateway

import (
	"errors"

	"github.com/example/gemora/pkg/apperr"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func errorBody(err error) gin.H {
	var e *apperr.Error
	if !errors.As(err, &e) {
		return gin.H{"message": "Server error"}
	}
	body := gin.H{"message": e.Message}
	if e.Detail != "" {
		body["error"] = e.Detail
	}
	return body
}

func abortWith(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.HTTPStatus(apperr.KindOf(err)), errorBody(err))
}

// respondError renders err as {message, error?}. Dependency and availability
// failures are logged with their cause, which never reaches the client.
func (g *Gateway) respondError(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindDependency, apperr.KindUnavailable:
		g.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err))
	}
	abortWith(c, err)
}
