package wire

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tasklet/backend/internal/domain/events"
	"github.com/tasklet/backend/internal/infrastructure/config"
	applog "github.com/tasklet/backend/internal/infrastructure/log"
	"github.com/tasklet/backend/internal/infrastructure/metrics"
	"github.com/tasklet/backend/internal/infrastructure/singleton"
	"github.com/tasklet/backend/internal/infrastructure/websocket"
	"github.com/tasklet/backend/internal/interfaces"
	"github.com/tasklet/backend/internal/interfaces/http/handler"
)

// App 应用主结构，组合所有服务
type App struct {
	HTTPServer *interfaces.HTTPServer

	wsHub    *websocket.Hub
	eventBus events.EventBus
	realtime *handler.RealtimeHandler
	metrics  *metrics.Metrics
	cfg      *config.Config
	logger   *slog.Logger

	unsubscribers []func()
	errCh         chan error
	stopOnce      sync.Once
}

// NewApp 创建应用实例
func NewApp(
	httpServer *interfaces.HTTPServer,
	wsHub *websocket.Hub,
	eventBus events.EventBus,
	realtime *handler.RealtimeHandler,
	m *metrics.Metrics,
	cfg *config.Config,
) *App {
	return &App{
		HTTPServer: httpServer,
		wsHub:      wsHub,
		eventBus:   eventBus,
		realtime:   realtime,
		metrics:    m,
		cfg:        cfg,
		logger:     applog.NewModuleLogger("app", "main"),
		errCh:      make(chan error, 1),
	}
}

// Start 启动所有服务
func (a *App) Start() error {
	a.logger.Info("Starting tasklet backend application")

	// 单例检查：同一地址上已有健康实例时返回 singleton.ErrAlreadyRunning
	listener, err := singleton.Acquire(context.Background(), a.cfg.Server.HTTPAddr)
	if err != nil {
		return err
	}

	if err := a.startComponents(); err != nil {
		listener.Close()
		return err
	}

	// 启动 HTTP 服务器（goroutine）
	go func() {
		if err := a.HTTPServer.Serve(listener); err != nil {
			a.logger.Error("Failed to start HTTP server",
				"error", err,
			)
			a.errCh <- err
		}
	}()

	a.logger.Info("Tasklet backend application started successfully")
	return nil
}

// startComponents 启动 HTTP 之外的组件
func (a *App) startComponents() error {
	a.setupEventSubscribers()

	if err := a.metrics.RegisterGaugeFunc(
		"tasklet_websocket_connections",
		"Number of open realtime connections",
		a.realtime.Connections,
	); err != nil {
		return err
	}

	// 启动 WebSocket Hub
	a.wsHub.Start()

	// 配置文件变更时热更新日志级别
	if a.cfg != nil && a.cfg.Watch(func(l config.LogConfig) {
		applog.SetLevel(l.Level)
		a.logger.Info("Log level reloaded", "level", l.Level)
	}) {
		a.logger.Info("Watching config file", "path", a.cfg.ConfigFileUsed())
	}
	return nil
}

// setupEventSubscribers 注册事件订阅者
func (a *App) setupEventSubscribers() {
	if a.eventBus == nil {
		return
	}

	// 实时推送
	a.unsubscribers = append(a.unsubscribers,
		a.eventBus.SubscribeMultiple(events.TodoEventTypes, a.realtime),
	)

	// 事件计数
	a.unsubscribers = append(a.unsubscribers,
		a.eventBus.SubscribeMultiple(events.TodoEventTypes, a.metrics),
	)
	a.logger.Debug("Subscribers registered", "event_types", len(events.TodoEventTypes))
}

// Errors 返回 HTTP 服务器运行期错误
func (a *App) Errors() <-chan error {
	return a.errCh
}

// Stop 停止所有服务
func (a *App) Stop() error {
	var stopErr error
	a.stopOnce.Do(func() {
		a.logger.Info("Stopping tasklet backend application")

		if err := a.HTTPServer.Stop(); err != nil {
			a.logger.Error("Failed to stop HTTP server",
				"error", err,
			)
			stopErr = err
		}

		// 关闭事件总线，已发布的事件先推送给客户端
		if a.eventBus != nil {
			a.eventBus.Close()
		}

		for _, unsubscribe := range a.unsubscribers {
			unsubscribe()
		}
		a.unsubscribers = nil

		a.wsHub.Stop()

		a.logger.Info("Tasklet backend application stopped")
	})
	return stopErr
}
