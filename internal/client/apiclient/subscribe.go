package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// 推送事件类型
const (
	EventCreated = "todo.created"
	EventUpdated = "todo.updated"
	EventDeleted = "todo.deleted"
)

// ChangeEvent 实时推送的待办变更
type ChangeEvent struct {
	Type      string    `json:"type"`
	ID        int64     `json:"id"`
	Todo      *Todo     `json:"todo,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// websocketURL 将 http(s) 地址转换为 /ws 的 ws(s) 地址
func websocketURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

// Subscribe 订阅变更推送，阻塞直到 ctx 取消或连接断开
// ctx 取消时返回 nil
func (c *Client) Subscribe(ctx context.Context, onEvent func(ChangeEvent)) error {
	wsURL, err := websocketURL(c.baseURL)
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: DefaultTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	// ctx 取消时关闭连接以打断 ReadJSON
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}

		var event ChangeEvent
		if err := json.Unmarshal(data, &event); err != nil {
			// 跳过无法解析的帧
			continue
		}
		onEvent(event)
	}
}
