package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	logger "github.com/identityops/idassign/logging"
)

// Logger logs every request against the status server. Snapshot lookups
// carry the operation id so a run can be traced from its CLI output to the
// requests observers made against it.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if operationID := c.Param("id"); operationID != "" {
			fields = append(fields, zap.String("operationID", operationID))
		}

		if len(c.Errors) > 0 {
			for _, e := range c.Errors.Errors() {
				logger.Error("Status request failed", append(fields, zap.String("error", e))...)
			}
			return
		}
		logger.Info("Status request served", fields...)
	}
}
