package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	apptodo "github.com/tasklet/backend/internal/application/todo"
	"github.com/tasklet/backend/internal/domain/todo"
	"github.com/tasklet/backend/internal/infrastructure/log"
)

// ListTodosInput 列表工具输入
type ListTodosInput struct{}

// ListTodosOutput 列表工具输出
type ListTodosOutput struct {
	Todos     []*apptodo.TodoDTO `json:"todos" jsonschema:"Todos ordered by creation time, newest first"`
	Remaining int                `json:"remaining" jsonschema:"Number of todos not yet completed"`
}

// CreateTodoInput 创建工具输入
type CreateTodoInput struct {
	Title string `json:"title" jsonschema:"Todo title (required)"`
}

// TodoOutput 单个待办输出
type TodoOutput struct {
	Todo *apptodo.TodoDTO `json:"todo" jsonschema:"The todo after the operation"`
}

// UpdateTodoInput 更新工具输入
type UpdateTodoInput struct {
	ID        int64   `json:"id" jsonschema:"Todo ID (required)"`
	Title     *string `json:"title,omitempty" jsonschema:"New title (optional)"`
	Completed *bool   `json:"completed,omitempty" jsonschema:"New completion state (optional)"`
}

// DeleteTodoInput 删除工具输入
type DeleteTodoInput struct {
	ID int64 `json:"id" jsonschema:"Todo ID (required)"`
}

// DeleteTodoOutput 删除工具输出
type DeleteTodoOutput struct {
	Success bool   `json:"success" jsonschema:"Whether the todo was deleted"`
	Message string `json:"message" jsonschema:"Result message"`
}

// ClearCompletedInput 清除工具输入
type ClearCompletedInput struct{}

// ClearCompletedOutput 清除工具输出
type ClearCompletedOutput struct {
	Deleted int64 `json:"deleted" jsonschema:"Number of deleted todos"`
}

// TodoStatsInput 统计工具输入
type TodoStatsInput struct{}

// listTodosTool 列出待办
func (s *MCPServer) listTodosTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListTodosInput,
) (*mcp.CallToolResult, ListTodosOutput, error) {
	items, err := s.service.List(ctx)
	if err != nil {
		return nil, ListTodosOutput{}, s.toolError(ctx, err, "Failed to fetch todos")
	}

	output := ListTodosOutput{Todos: apptodo.ToDTOs(items)}
	for _, item := range items {
		if !item.Completed {
			output.Remaining++
		}
	}
	return nil, output, nil
}

// createTodoTool 创建待办
func (s *MCPServer) createTodoTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CreateTodoInput,
) (*mcp.CallToolResult, TodoOutput, error) {
	item, err := s.service.Create(ctx, input.Title)
	if err != nil {
		return nil, TodoOutput{}, s.toolError(ctx, err, "Failed to create todo")
	}
	return nil, TodoOutput{Todo: apptodo.ToDTO(item)}, nil
}

// updateTodoTool 更新待办
func (s *MCPServer) updateTodoTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input UpdateTodoInput,
) (*mcp.CallToolResult, TodoOutput, error) {
	item, err := s.service.Update(ctx, input.ID, todo.Patch{
		Title:     input.Title,
		Completed: input.Completed,
	})
	if err != nil {
		return nil, TodoOutput{}, s.toolError(ctx, err, "Failed to update todo")
	}
	return nil, TodoOutput{Todo: apptodo.ToDTO(item)}, nil
}

// deleteTodoTool 删除待办
func (s *MCPServer) deleteTodoTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input DeleteTodoInput,
) (*mcp.CallToolResult, DeleteTodoOutput, error) {
	if err := s.service.Delete(ctx, input.ID); err != nil {
		return nil, DeleteTodoOutput{}, s.toolError(ctx, err, "Failed to delete todo")
	}
	return nil, DeleteTodoOutput{Success: true, Message: "Todo deleted successfully"}, nil
}

// clearCompletedTool 清除已完成的待办
func (s *MCPServer) clearCompletedTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ClearCompletedInput,
) (*mcp.CallToolResult, ClearCompletedOutput, error) {
	deleted, err := s.service.ClearCompleted(ctx)
	if err != nil {
		return nil, ClearCompletedOutput{}, s.toolError(ctx, err, "Failed to clear completed todos")
	}
	return nil, ClearCompletedOutput{Deleted: deleted}, nil
}

// todoStatsTool 统计待办
func (s *MCPServer) todoStatsTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input TodoStatsInput,
) (*mcp.CallToolResult, todo.Stats, error) {
	stats, err := s.service.Stats(ctx)
	if err != nil {
		return nil, todo.Stats{}, s.toolError(ctx, err, "Failed to fetch stats")
	}
	return nil, *stats, nil
}

// toolError 转换为面向调用方的错误，存储错误只记录日志不暴露底层原因
func (s *MCPServer) toolError(ctx context.Context, err error, fallback string) error {
	var vErr *todo.ValidationError
	switch {
	case errors.As(err, &vErr):
		return errors.New(vErr.Message)
	case errors.Is(err, todo.ErrInvalidID):
		return errors.New("Invalid todo ID")
	case errors.Is(err, todo.ErrNotFound):
		return errors.New("Todo not found")
	default:
		log.FromContext(ctx, s.logger).Error(fallback, "error", err)
		return errors.New(fallback)
	}
}
