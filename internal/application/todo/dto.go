package todo

import (
	"time"

	"github.com/tasklet/backend/internal/domain/events"
	"github.com/tasklet/backend/internal/domain/todo"
)

// TimeLayout 对外时间格式：UTC 毫秒精度 ISO-8601
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// TodoDTO 待办对外表示
type TodoDTO struct {
	ID        int64  `json:"id" example:"1"`
	Title     string `json:"title" example:"Buy milk"`
	Completed bool   `json:"completed" example:"false"`
	CreatedAt string `json:"createdAt" example:"2026-03-01T09:00:00.000Z"`
	UpdatedAt string `json:"updatedAt" example:"2026-03-01T09:00:00.000Z"`
}

// CreateTodoDTO 创建请求
type CreateTodoDTO struct {
	Title string `json:"title" example:"Buy milk"`
}

// UpdateTodoDTO 更新请求，字段均可省略
type UpdateTodoDTO struct {
	Title     *string `json:"title,omitempty" example:"Buy oat milk"`
	Completed *bool   `json:"completed,omitempty" example:"true"`
}

// ClearCompletedDTO 清除已完成待办的结果
type ClearCompletedDTO struct {
	Deleted int64  `json:"deleted" example:"2"`
	Message string `json:"message" example:"Completed todos cleared"`
}

// ToDTO 转换为 DTO
func ToDTO(item *todo.Todo) *TodoDTO {
	if item == nil {
		return nil
	}
	return &TodoDTO{
		ID:        item.ID,
		Title:     item.Title,
		Completed: item.Completed,
		CreatedAt: FormatTime(item.CreatedAt),
		UpdatedAt: FormatTime(item.UpdatedAt),
	}
}

// ToDTOs 批量转换，空列表返回空切片而非 nil
func ToDTOs(items []*todo.Todo) []*TodoDTO {
	result := make([]*TodoDTO, 0, len(items))
	for _, item := range items {
		result = append(result, ToDTO(item))
	}
	return result
}

// FormatTime 格式化时间
func FormatTime(t time.Time) string {
	return todo.Timestamp(t).Format(TimeLayout)
}

// ChangeFrame 实时推送帧
type ChangeFrame struct {
	Type      string   `json:"type" example:"todo.updated"`
	ID        int64    `json:"id" example:"1"`
	Todo      *TodoDTO `json:"todo,omitempty"`
	Timestamp string   `json:"timestamp" example:"2026-03-01T09:00:00.000Z"`
}

// NewChangeFrame 由待办事件生成推送帧，非待办事件返回 nil
func NewChangeFrame(event events.Event) *ChangeFrame {
	todoEvent, ok := event.(*events.TodoEvent)
	if !ok {
		return nil
	}
	return &ChangeFrame{
		Type:      string(todoEvent.EventType),
		ID:        todoEvent.TodoID,
		Todo:      ToDTO(todoEvent.Todo),
		Timestamp: FormatTime(todoEvent.EventTime),
	}
}
