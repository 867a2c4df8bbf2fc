package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasklet/backend/internal/domain/events"
	"github.com/tasklet/backend/internal/domain/todo"
)

func TestRecordHTTPRequest(t *testing.T) {
	m := NewMetrics()

	m.RecordHTTPRequest("GET", "/api/todos", 200, 15*time.Millisecond)
	m.RecordHTTPRequest("GET", "/api/todos", 200, 5*time.Millisecond)
	m.RecordHTTPRequest("PATCH", "", 404, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/todos", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("PATCH", "unmatched", "404")))
}

func TestHandleEvent(t *testing.T) {
	m := NewMetrics()
	now := time.Now()

	require.NoError(t, m.HandleEvent(events.NewTodoEvent(events.TodoCreated, &todo.Todo{ID: 1}, now)))
	require.NoError(t, m.HandleEvent(events.NewTodoDeletedEvent(1, now)))
	require.NoError(t, m.HandleEvent(events.NewTodoDeletedEvent(2, now)))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TodoEventsTotal.WithLabelValues("todo.created")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TodoEventsTotal.WithLabelValues("todo.deleted")))
}

func TestHandler(t *testing.T) {
	m := NewMetrics()
	require.NoError(t, m.RegisterGaugeFunc("tasklet_websocket_connections", "Open websocket connections", func() float64 { return 3 }))
	m.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `tasklet_http_requests_total{method="GET",route="/health",service="tasklet",status="200"} 1`)
	assert.Contains(t, body, `tasklet_websocket_connections{service="tasklet"} 3`)
	assert.Contains(t, body, "go_goroutines")
}
