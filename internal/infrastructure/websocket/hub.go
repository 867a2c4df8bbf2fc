package websocket

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/tasklet/backend/internal/infrastructure/log"
)

// DefaultSendBuffer 每个连接的发送队列长度
const DefaultSendBuffer = 64

// ErrHubStopped Hub 已停止
var ErrHubStopped = errors.New("websocket hub stopped")

// Hub WebSocket 连接管理中心
// 所有连接属于同一个广播组，消息按发布顺序投递到每个连接
type Hub struct {
	// 已注册的连接
	conns map[*Connection]bool
	// 注册连接
	register chan *Connection
	// 注销连接
	unregister chan *Connection
	// 广播消息
	broadcast chan []byte
	// done 关闭后 Hub 停止工作
	done     chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex
}

// Connection WebSocket 连接
type Connection struct {
	// Send 待发送的消息队列，Hub 注销连接时关闭
	Send chan []byte
}

// NewConnection 创建连接
func NewConnection() *Connection {
	return &Connection{Send: make(chan []byte, DefaultSendBuffer)}
}

// NewHub 创建 Hub
func NewHub() *Hub {
	return &Hub{
		conns:      make(map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan []byte, DefaultSendBuffer),
		done:       make(chan struct{}),
	}
}

// Run 运行 Hub（需要在 goroutine 中运行）
func (h *Hub) Run() {
	logger := log.NewModuleLogger("websocket", "hub")

	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.conns[conn] = true
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			h.remove(conn)
			h.mu.Unlock()

		case data := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.conns {
				select {
				case conn.Send <- data:
				default:
					// 发送队列已满，视为慢连接断开
					h.remove(conn)
					logger.Warn("Dropping slow websocket connection")
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for conn := range h.conns {
				h.remove(conn)
			}
			h.mu.Unlock()
			return
		}
	}
}

// remove 移除连接并关闭发送队列，调用方需持有写锁
func (h *Hub) remove(conn *Connection) {
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		close(conn.Send)
	}
}

// Start 启动 Hub（启动后台 goroutine）
func (h *Hub) Start() {
	go h.Run()
}

// Stop 停止 Hub 并关闭所有连接的发送队列
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// Register 注册连接
func (h *Hub) Register(conn *Connection) error {
	select {
	case h.register <- conn:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// Unregister 注销连接
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Broadcast 向所有连接广播消息
func (h *Hub) Broadcast(data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- jsonData:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// ConnectionCount 当前连接数
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
