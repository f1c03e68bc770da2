package middleware

import (
	"time"

	"amen-chat/internal/services"
	"amen-chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoggingMiddleware logs one structured line per request, tagged with the
// authenticated caller when the auth middleware has run.
func LoggingMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		log := l
		if log == nil {
			log = logger.GetGlobalLogger()
		}
		if log == nil {
			return
		}

		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if userID, ok := services.UserIDFromContext(c.Request.Context()); ok {
			fields = append(fields, zap.String("user_id", userID))
		}
		log.InfoCtx(c.Request.Context(), "request", fields...)
	}
}
