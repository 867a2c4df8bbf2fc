package http

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/tasklet/backend/internal/infrastructure/config"
	"github.com/tasklet/backend/internal/infrastructure/log"
	"github.com/tasklet/backend/internal/infrastructure/metrics"
	"github.com/tasklet/backend/internal/interfaces/http/handler"
	"github.com/tasklet/backend/internal/interfaces/http/middleware"
	"github.com/tasklet/backend/internal/interfaces/mcp"

	_ "github.com/tasklet/backend/docs" // Swagger docs
)

//go:embed web/index.html
var indexHTML []byte

// HTTPServer HTTP 服务器
type HTTPServer struct {
	router *gin.Engine
	server *http.Server
	logger *slog.Logger
}

// NewServer 创建 HTTP 服务器
func NewServer(
	cfg *config.ServerConfig,
	todoHandler *handler.TodoHandler,
	realtimeHandler *handler.RealtimeHandler,
	healthHandler *handler.HealthHandler,
	m *metrics.Metrics,
	mcpServer *mcp.MCPServer,
) *HTTPServer {
	if !log.IsDebugMode() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.AccessLog(),
		middleware.Metrics(m),
		middleware.NormalizeBody(middleware.DefaultMaxBodyBytes),
	)

	// 注册路由
	api := router.Group("/api")
	{
		todos := api.Group("/todos")
		todos.GET("", todoHandler.List)
		todos.POST("", todoHandler.Create)
		todos.GET("/stats", todoHandler.Stats)
		todos.POST("/clear-completed", todoHandler.ClearCompleted)
		todos.GET("/:id", todoHandler.Get)
		todos.PATCH("/:id", todoHandler.Update)
		todos.DELETE("/:id", todoHandler.Delete)
	}

	// 页面
	router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
	})

	// 健康检查
	router.GET("/health", healthHandler.Check)

	// 指标
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// 实时推送
	router.GET("/ws", realtimeHandler.Serve)

	// Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// MCP SSE 端点
	if mcpServer != nil {
		router.Any("/mcp/sse", gin.WrapH(mcpServer.GetHandler()))
	}

	return &HTTPServer{
		router: router,
		server: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: log.NewModuleLogger("http", "server"),
	}
}

// Handler 返回路由（测试用）
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Serve 在指定 listener 上提供服务
func (s *HTTPServer) Serve(listener net.Listener) error {
	s.logger.Info("HTTP server starting",
		"addr", listener.Addr().String(),
	)

	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Stop 停止服务器
func (s *HTTPServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}
