package mcp

import (
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	apptodo "github.com/tasklet/backend/internal/application/todo"
	"github.com/tasklet/backend/internal/infrastructure/log"
	"github.com/tasklet/backend/internal/version"
)

// ServerName MCP 服务名
const ServerName = "tasklet"

// MCPServer MCP 服务器
type MCPServer struct {
	server  *mcp.Server
	handler http.Handler
	service *apptodo.Service
	logger  *slog.Logger
}

// NewServer 创建 MCP 服务器
func NewServer(service *apptodo.Service) *MCPServer {
	// 创建 MCP 服务器实例
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil, // 使用默认能力
	)

	mcpServer := &MCPServer{
		server:  server,
		service: service,
		logger:  log.NewModuleLogger("mcp", "tools"),
	}

	// 注册工具：list_todos
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_todos",
		Description: "List all todos, newest first. No parameters required. Returns: todos array and remaining count.",
	}, mcpServer.listTodosTool)

	// 注册工具：create_todo
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_todo",
		Description: "Create a new todo. Parameters: title (string, required) - leading and trailing whitespace is trimmed and the result must not be empty. Returns: the created todo.",
	}, mcpServer.createTodoTool)

	// 注册工具：update_todo
	mcp.AddTool(server, &mcp.Tool{
		Name: "update_todo",
		Description: `Update a todo. Fields that are omitted keep their value.
Parameters:
- id (int, required): Todo ID
- title (string, optional): New title, must not be empty after trimming
- completed (bool, optional): New completion state

Returns: the updated todo.`,
	}, mcpServer.updateTodoTool)

	// 注册工具：delete_todo
	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_todo",
		Description: "Delete a todo. Parameters: id (int, required) - todo ID. Returns: success flag and message.",
	}, mcpServer.deleteTodoTool)

	// 注册工具：clear_completed_todos
	mcp.AddTool(server, &mcp.Tool{
		Name:        "clear_completed_todos",
		Description: "Delete every completed todo. No parameters required. Returns: number of deleted todos.",
	}, mcpServer.clearCompletedTool)

	// 注册工具：todo_stats
	mcp.AddTool(server, &mcp.Tool{
		Name:        "todo_stats",
		Description: "Count todos. No parameters required. Returns: total, completed and remaining counts.",
	}, mcpServer.todoStatsTool)

	// 创建 SSE Handler
	mcpServer.handler = mcp.NewSSEHandler(
		func(r *http.Request) *mcp.Server {
			// 每个请求返回同一个服务器实例
			return server
		},
		nil, // SSEOptions，使用默认值
	)

	log.NewModuleLogger("mcp", "server").Debug("MCP server ready", "tools", 6)
	return mcpServer
}

// GetHandler 获取 HTTP Handler（用于集成到 HTTP 服务器）
func (s *MCPServer) GetHandler() http.Handler {
	return s.handler
}

// Server 返回底层 MCP 服务器
func (s *MCPServer) Server() *mcp.Server {
	return s.server
}
