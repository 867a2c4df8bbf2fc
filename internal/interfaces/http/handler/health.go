package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tasklet/backend/internal/infrastructure/storage"
	"github.com/tasklet/backend/internal/version"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	store storage.Store
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(store storage.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database" example:"sqlite"`
	Version  string `json:"version" example:"dev"`
}

// Check 健康检查
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:   "ok",
		Database: string(h.store.Driver()),
		Version:  version.Version,
	}

	if err := h.store.Ping(ctx); err != nil {
		resp.Status = "unavailable"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
