package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	apptodo "github.com/tasklet/backend/internal/application/todo"
	"github.com/tasklet/backend/internal/domain/events"
	"github.com/tasklet/backend/internal/infrastructure/config"
	"github.com/tasklet/backend/internal/infrastructure/log"
	wshub "github.com/tasklet/backend/internal/infrastructure/websocket"
)

// 连接保活参数
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// RealtimeHandler 实时推送处理器
// 订阅待办事件并广播给所有 WebSocket 客户端
type RealtimeHandler struct {
	hub      *wshub.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewRealtimeHandler 创建实时推送处理器
func NewRealtimeHandler(hub *wshub.Hub, cfg *config.WebSocketConfig) *RealtimeHandler {
	return &RealtimeHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true // 无鉴权，允许所有来源
			},
		},
		logger: log.NewModuleLogger("http", "realtime"),
	}
}

// HandleEvent 实现 events.Handler，将待办事件转换为推送帧并广播
func (h *RealtimeHandler) HandleEvent(event events.Event) error {
	frame := apptodo.NewChangeFrame(event)
	if frame == nil {
		return nil
	}
	return h.hub.Broadcast(frame)
}

// Connections 当前连接数
func (h *RealtimeHandler) Connections() float64 {
	return float64(h.hub.ConnectionCount())
}

// Serve 升级为 WebSocket 连接
// @Summary 订阅待办变更
// @Description 升级为 WebSocket，服务端推送 {type, id, todo?, timestamp} 帧
// @Tags 实时
// @Success 101
// @Router /ws [get]
func (h *RealtimeHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade connection", "error", err)
		return
	}

	client := wshub.NewConnection()
	if err := h.hub.Register(client); err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	h.logger.Debug("Client connected", "remote", c.ClientIP())

	go h.writePump(conn, client)
	h.readPump(conn, client)
}

// readPump 读取消息（仅处理控制帧和断开）
func (h *RealtimeHandler) readPump(conn *websocket.Conn, client *wshub.Connection) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		// 收到 Pong 说明对方存活，续期读取超时
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Warn("Connection read error", "error", err)
			}
			return
		}
	}
}

// writePump 写入消息
func (h *RealtimeHandler) writePump(conn *websocket.Conn, client *wshub.Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 已注销该连接
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Debug("Failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
