package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/logger"
)

// PipelineKeyHeader carries the shared key the external job scheduler sends.
const PipelineKeyHeader = "X-API-Key"

func abortWithAppError(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.StatusCode,
		gin.H{"error": gin.H{"code": err.Code, "message": err.Message}})
}

// PipelineAuthMiddleware guards the job endpoints with the shared pipeline key.
// With no key configured every call answers 503.
func PipelineAuthMiddleware(apiKey string) gin.HandlerFunc {
	log := logger.Named("pipeline")
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWithAppError(c, apperrors.ErrPipelineNotConfigured)
			return
		}
		if subtle.ConstantTimeCompare([]byte(c.GetHeader(PipelineKeyHeader)), []byte(apiKey)) != 1 {
			requestID, _ := c.Get(requestIDKey)
			log.Warnw("rejected pipeline call",
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP(),
				"request_id", requestID,
			)
			abortWithAppError(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}
