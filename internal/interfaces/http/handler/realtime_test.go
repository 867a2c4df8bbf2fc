package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apptodo "github.com/tasklet/backend/internal/application/todo"
	"github.com/tasklet/backend/internal/domain/events"
	"github.com/tasklet/backend/internal/domain/todo"
	"github.com/tasklet/backend/internal/infrastructure/config"
	wshub "github.com/tasklet/backend/internal/infrastructure/websocket"
)

func setupRealtime(t *testing.T) (*RealtimeHandler, *websocket.Conn) {
	t.Helper()

	hub := wshub.NewHub()
	hub.Start()
	t.Cleanup(hub.Stop)

	h := NewRealtimeHandler(hub, &config.WebSocketConfig{ReadBufferSize: 1024, WriteBufferSize: 1024})

	router := gin.New()
	router.GET("/ws", h.Serve)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	return h, conn
}

func readFrame(t *testing.T, conn *websocket.Conn) apptodo.ChangeFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame apptodo.ChangeFrame
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func TestRealtimeHandler_BroadcastsTodoEvents(t *testing.T) {
	h, conn := setupRealtime(t)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	item := &todo.Todo{ID: 7, Title: "Buy milk", CreatedAt: at, UpdatedAt: at}
	require.NoError(t, h.HandleEvent(events.NewTodoEvent(events.TodoCreated, item, at)))
	require.NoError(t, h.HandleEvent(events.NewTodoDeletedEvent(7, at)))

	created := readFrame(t, conn)
	assert.Equal(t, "todo.created", created.Type)
	assert.Equal(t, int64(7), created.ID)
	require.NotNil(t, created.Todo)
	assert.Equal(t, "Buy milk", created.Todo.Title)
	assert.Equal(t, "2026-03-01T09:00:00.000Z", created.Timestamp)

	deleted := readFrame(t, conn)
	assert.Equal(t, "todo.deleted", deleted.Type)
	assert.Equal(t, int64(7), deleted.ID)
	assert.Nil(t, deleted.Todo)
}

// otherEvent 非待办事件
type otherEvent struct{}

func (otherEvent) Type() events.EventType { return "other" }
func (otherEvent) Timestamp() time.Time   { return time.Now() }

func TestRealtimeHandler_IgnoresOtherEvents(t *testing.T) {
	h, _ := setupRealtime(t)
	assert.NoError(t, h.HandleEvent(otherEvent{}))
	assert.Equal(t, 1.0, h.Connections())
}
