package events

import (
	"time"

	"github.com/tasklet/backend/internal/domain/todo"
)

// TodoEvent 待办变更事件
type TodoEvent struct {
	EventType EventType
	TodoID    int64
	// Todo 变更后的完整记录，删除事件为 nil
	Todo      *todo.Todo
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *TodoEvent) Type() EventType {
	return e.EventType
}

// Timestamp 实现 Event 接口
func (e *TodoEvent) Timestamp() time.Time {
	return e.EventTime
}

// NewTodoEvent 创建待办变更事件
func NewTodoEvent(eventType EventType, item *todo.Todo, at time.Time) *TodoEvent {
	return &TodoEvent{
		EventType: eventType,
		TodoID:    item.ID,
		Todo:      item,
		EventTime: at,
	}
}

// NewTodoDeletedEvent 创建待办删除事件
func NewTodoDeletedEvent(id int64, at time.Time) *TodoEvent {
	return &TodoEvent{
		EventType: TodoDeleted,
		TodoID:    id,
		EventTime: at,
	}
}
