// Package apiclient 基于 resty 封装的 tasklet HTTP 客户端
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout 默认请求超时
const DefaultTimeout = 10 * time.Second

// Todo 待办
type Todo struct {
	ID        int64     `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Completed bool      `json:"completed" yaml:"completed"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// Stats 待办统计
type Stats struct {
	Total     int64 `json:"total" yaml:"total"`
	Completed int64 `json:"completed" yaml:"completed"`
	Remaining int64 `json:"remaining" yaml:"remaining"`
}

// UpdateRequest 更新请求，nil 字段不发送
type UpdateRequest struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// ClearResult 清除已完成待办的结果
type ClearResult struct {
	Deleted int64  `json:"deleted" yaml:"deleted"`
	Message string `json:"message" yaml:"message"`
}

// APIError 服务端返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tasklet: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("tasklet: HTTP %d: %s", e.StatusCode, e.Message)
}

// IsNotFound 是否为 404
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Client tasklet API 客户端
type Client struct {
	client  *resty.Client
	baseURL string
}

// New 创建客户端，baseURL 形如 http://localhost:8080
func New(baseURL string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(DefaultTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		client:  client,
		baseURL: baseURL,
	}
}

// BaseURL 返回服务地址
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do 执行请求，2xx 解析到 result，其余解析为 APIError
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	apiErr := &APIError{}
	req := c.client.R().
		SetContext(ctx).
		SetError(apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr.StatusCode = resp.StatusCode()
		// 代理可能去掉 Content-Type，此时 resty 不会解析错误体
		if apiErr.Message == "" {
			_ = json.Unmarshal(resp.Body(), apiErr)
		}
		return apiErr
	}
	return nil
}

// List 获取全部待办，按创建时间倒序
func (c *Client) List(ctx context.Context) ([]Todo, error) {
	var todos []Todo
	if err := c.do(ctx, resty.MethodGet, "/api/todos", nil, &todos); err != nil {
		return nil, err
	}
	if todos == nil {
		todos = []Todo{}
	}
	return todos, nil
}

// Get 获取单个待办
func (c *Client) Get(ctx context.Context, id int64) (*Todo, error) {
	var todo Todo
	if err := c.do(ctx, resty.MethodGet, todoPath(id), nil, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// Create 创建待办
func (c *Client) Create(ctx context.Context, title string) (*Todo, error) {
	var todo Todo
	body := map[string]string{"title": title}
	if err := c.do(ctx, resty.MethodPost, "/api/todos", body, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// Update 部分更新待办
func (c *Client) Update(ctx context.Context, id int64, req UpdateRequest) (*Todo, error) {
	var todo Todo
	if err := c.do(ctx, resty.MethodPatch, todoPath(id), req, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// Delete 删除待办
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, resty.MethodDelete, todoPath(id), nil, nil)
}

// ClearCompleted 删除全部已完成待办
func (c *Client) ClearCompleted(ctx context.Context) (*ClearResult, error) {
	var result ClearResult
	if err := c.do(ctx, resty.MethodPost, "/api/todos/clear-completed", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Stats 获取统计
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.do(ctx, resty.MethodGet, "/api/todos/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// HealthCheck 健康检查
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.do(ctx, resty.MethodGet, "/health", nil, nil)
}

func todoPath(id int64) string {
	return fmt.Sprintf("/api/todos/%d", id)
}
