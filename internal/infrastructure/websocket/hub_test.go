package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func receive(t *testing.T, conn *Connection) []byte {
	t.Helper()
	select {
	case data, ok := <-conn.Send:
		require.True(t, ok, "send channel closed")
		return data
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
		return nil
	}
}

func TestHub_BroadcastToAll(t *testing.T) {
	hub := startHub(t)

	a, b := NewConnection(), NewConnection()
	require.NoError(t, hub.Register(a))
	require.NoError(t, hub.Register(b))
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Broadcast(map[string]any{"type": "todo.created", "id": 1}))

	for _, conn := range []*Connection{a, b} {
		var msg map[string]any
		require.NoError(t, json.Unmarshal(receive(t, conn), &msg))
		assert.Equal(t, "todo.created", msg["type"])
	}
}

func TestHub_PreservesOrder(t *testing.T) {
	hub := startHub(t)

	conn := NewConnection()
	require.NoError(t, hub.Register(conn))

	for i := 1; i <= 5; i++ {
		require.NoError(t, hub.Broadcast(i))
	}
	for i := 1; i <= 5; i++ {
		assert.Equal(t, []byte{byte('0' + i)}, receive(t, conn))
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := startHub(t)

	conn := NewConnection()
	require.NoError(t, hub.Register(conn))
	hub.Unregister(conn)

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 0 }, time.Second, 10*time.Millisecond)
	_, ok := <-conn.Send
	assert.False(t, ok, "注销后发送队列应关闭")

	// 重复注销不应 panic
	hub.Unregister(conn)
}

func TestHub_DropsSlowConnection(t *testing.T) {
	hub := startHub(t)

	slow := &Connection{Send: make(chan []byte)}
	require.NoError(t, hub.Register(slow))
	require.NoError(t, hub.Broadcast("x"))

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_Stop(t *testing.T) {
	hub := NewHub()
	hub.Start()

	conn := NewConnection()
	require.NoError(t, hub.Register(conn))
	hub.Stop()
	hub.Stop()

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 0 }, time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, hub.Register(NewConnection()), ErrHubStopped)

	// 停止后广播不阻塞
	done := make(chan error, 1)
	go func() {
		for i := 0; i < DefaultSendBuffer+1; i++ {
			if err := hub.Broadcast(i); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrHubStopped)
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked after stop")
	}
}
