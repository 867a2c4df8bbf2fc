package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tasklet/backend/internal/infrastructure/log"
)

// HeaderRequestID 请求 ID 头
const HeaderRequestID = "X-Request-ID"

// maxRequestIDLength 客户端传入的请求 ID 最大长度
const maxRequestIDLength = 128

// RequestID 为每个请求分配请求 ID，并写入响应头和 context
// 客户端已携带合法 ID 时沿用
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.New().String()
		}

		c.Header(HeaderRequestID, id)
		c.Set(string(log.RequestContextID), id)
		c.Request = c.Request.WithContext(log.WithRequestID(c.Request.Context(), id))

		c.Next()
	}
}

// GetRequestID 获取当前请求 ID
func GetRequestID(c *gin.Context) string {
	return log.RequestIDFromContext(c.Request.Context())
}
