package handlers

import (
	"errors"
	"net/http"

	"merchant-service/internal/domain/entities"
	"merchant-service/shared/logger"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidBody = "invalid request body"
	msgValidation  = "validation failed"
	msgUnavailable = "merchant id could not be allocated, retry later"
	msgInternal    = "internal server error"
)

// respondError maps domain errors onto status codes. Every body carries the
// request path; store failures are logged but never echoed.
func respondError(c *gin.Context, log logger.Logger, err error) {
	path := c.Request.URL.Path
	ctx := c.Request.Context()

	var (
		validation *entities.ValidationError
		notFound   *entities.NotFoundError
		collision  *entities.IdentifierCollisionError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{
			"message": msgValidation,
			"path":    path,
			"errors":  validation.Fields,
		})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{
			"message": notFound.Error(),
			"path":    path,
		})
	case errors.As(err, &collision):
		log.WithError(err).ErrorContext(ctx, "merchant id generation exhausted %d attempts", collision.Attempts)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"message": msgUnavailable,
			"path":    path,
		})
	default:
		log.WithError(err).ErrorContext(ctx, "%s %s failed", c.Request.Method, path)
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": msgInternal,
			"path":    path,
		})
	}
}

func respondBadBody(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{
		"message": msgInvalidBody,
		"path":    c.Request.URL.Path,
	})
}
