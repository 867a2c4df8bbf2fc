package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tasklet/backend/internal/infrastructure/metrics"
)

// Metrics 记录 HTTP 请求指标
// 使用路由模板（如 /api/todos/:id）作为标签，避免 ID 导致标签爆炸
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		m.RecordHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
