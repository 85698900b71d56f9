package apperrors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Respond writes err as a JSON error body. Internal errors are logged with the request path.
func Respond(c *gin.Context, logger *zap.Logger, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError && logger != nil {
		logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": Message(err)})
}
