package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tasklet/backend/internal/infrastructure/log"
	"github.com/tasklet/backend/internal/interfaces/http/response"
)

// AccessLog 访问日志中间件
func AccessLog() gin.HandlerFunc {
	logger := log.NewModuleLogger("http", "access")

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		reqLogger := log.FromContext(c.Request.Context(), logger)
		switch {
		case status >= 500:
			reqLogger.Error("HTTP request", attrs...)
		case status >= 400:
			reqLogger.Warn("HTTP request", attrs...)
		default:
			reqLogger.Log(c.Request.Context(), slog.LevelDebug, "HTTP request", attrs...)
		}
	}
}

// Recovery 捕获 panic 并返回 500
func Recovery() gin.HandlerFunc {
	logger := log.NewModuleLogger("http", "recovery")

	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.FromContext(c.Request.Context(), logger).Error("Panic recovered",
			"path", c.Request.URL.Path,
			"panic", recovered,
		)
		response.AbortWithError(c, http.StatusInternalServerError, "Internal server error")
	})
}
