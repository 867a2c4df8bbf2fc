package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error" example:"Todo not found"`
}

// MessageResponse 消息响应
type MessageResponse struct {
	Message string `json:"message" example:"Todo deleted successfully"`
}

// Success 成功响应（200，直接返回数据本身）
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created 创建成功响应（201）
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, message string) {
	c.JSON(httpCode, ErrorResponse{Error: message})
}

// AbortWithError 错误响应并中止后续处理
func AbortWithError(c *gin.Context, httpCode int, message string) {
	c.AbortWithStatusJSON(httpCode, ErrorResponse{Error: message})
}

// Message 消息响应
func Message(c *gin.Context, httpCode int, message string) {
	c.JSON(httpCode, MessageResponse{Message: message})
}
