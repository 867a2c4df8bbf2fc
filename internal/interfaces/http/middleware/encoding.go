package middleware

import (
	"bytes"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/tasklet/backend/internal/infrastructure/log"
	"github.com/tasklet/backend/internal/interfaces/http/response"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// DefaultMaxBodyBytes 请求体上限
const DefaultMaxBodyBytes int64 = 1 << 20

// 请求体错误消息
const (
	MsgBodyUnreadable = "Invalid request body"
	MsgBodyTooLarge   = "Request body too large"
)

// NormalizeBody 限制请求体大小，并把非 UTF-8 的请求体按 GBK 转为 UTF-8
// Windows 中文环境下的 curl 默认以 GBK (代码页 936) 发送标题
func NormalizeBody(maxBytes int64) gin.HandlerFunc {
	logger := log.NewModuleLogger("http", "body")

	return func(c *gin.Context) {
		// 只处理有请求体的请求
		if c.Request.Body == nil || c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBytes+1))
		c.Request.Body.Close()
		if err != nil {
			response.AbortWithError(c, http.StatusBadRequest, MsgBodyUnreadable)
			return
		}
		if int64(len(body)) > maxBytes {
			response.AbortWithError(c, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
			return
		}

		if converted, ok := toUTF8(body); ok {
			logger.Debug("Request body transcoded from GBK",
				"path", c.Request.URL.Path,
				"bytes", len(body),
			)
			body = converted
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Request.ContentLength = int64(len(body))
		c.Next()
	}
}

// toUTF8 非法 UTF-8 时尝试按 GBK 解码，转换成功返回 true
func toUTF8(body []byte) ([]byte, bool) {
	if utf8.Valid(body) {
		return body, false
	}
	decoded, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), body)
	if err != nil || !utf8.Valid(decoded) {
		return body, false
	}
	return decoded, true
}
