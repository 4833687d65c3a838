package middleware

import (
	"fmt"
	"io"
	"net/http"

	"merchant-service/shared/logger"

	"github.com/gin-gonic/gin"
)

// Recovery turns a handler panic into a 500 with the usual {message, path}
// body and logs the panic value through log.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		log.WithField("panic", fmt.Sprint(recovered)).
			ErrorContext(c.Request.Context(), "%s %s panicked", c.Request.Method, c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"message": "internal server error",
			"path":    c.Request.URL.Path,
		})
	})
}
