package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	apptodo "github.com/tasklet/backend/internal/application/todo"
	"github.com/tasklet/backend/internal/domain/todo"
	"github.com/tasklet/backend/internal/infrastructure/log"
	"github.com/tasklet/backend/internal/interfaces/http/response"
)

// 响应文案
const (
	MsgInvalidBody     = "Invalid request body"
	MsgInvalidID       = "Invalid todo ID"
	MsgNotFound        = "Todo not found"
	MsgDeleted         = "Todo deleted successfully"
	MsgCleared         = "Completed todos cleared"
	MsgFetchFailed     = "Failed to fetch todos"
	MsgFetchOneFailed  = "Failed to fetch todo"
	MsgCreateFailed    = "Failed to create todo"
	MsgUpdateFailed    = "Failed to update todo"
	MsgDeleteFailed    = "Failed to delete todo"
	MsgStatsFailed     = "Failed to fetch stats"
	MsgClearFailed     = "Failed to clear completed todos"
	maxRequestBodySize = 1 << 20
)

var errInvalidBody = errors.New("invalid request body")

// TodoHandler 待办事项处理器
type TodoHandler struct {
	service *apptodo.Service
	logger  *slog.Logger
}

// NewTodoHandler 创建待办事项处理器
func NewTodoHandler(service *apptodo.Service) *TodoHandler {
	return &TodoHandler{
		service: service,
		logger:  log.NewModuleLogger("http", "todo"),
	}
}

// List 获取待办列表
// @Summary 获取待办列表
// @Description 按创建时间倒序返回全部待办
// @Tags 待办
// @Produce json
// @Success 200 {array} apptodo.TodoDTO
// @Failure 500 {object} response.ErrorResponse
// @Router /todos [get]
func (h *TodoHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, MsgFetchFailed)
		return
	}
	response.Success(c, apptodo.ToDTOs(items))
}

// Get 获取单个待办
// @Summary 获取单个待办
// @Tags 待办
// @Produce json
// @Param id path int true "待办 ID"
// @Success 200 {object} apptodo.TodoDTO
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /todos/{id} [get]
func (h *TodoHandler) Get(c *gin.Context) {
	id, err := todo.ParseID(c.Param("id"))
	if err != nil {
		h.fail(c, err, MsgFetchOneFailed)
		return
	}

	item, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, MsgFetchOneFailed)
		return
	}
	response.Success(c, apptodo.ToDTO(item))
}

// Create 创建待办
// @Summary 创建待办
// @Description 标题去除首尾空白后不能为空
// @Tags 待办
// @Accept json
// @Produce json
// @Param body body apptodo.CreateTodoDTO true "待办标题"
// @Success 201 {object} apptodo.TodoDTO
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /todos [post]
func (h *TodoHandler) Create(c *gin.Context) {
	fields, err := readFields(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, MsgInvalidBody)
		return
	}

	// 标题缺失或不是字符串时按空标题处理
	title, _, _ := stringField(fields, "title")

	item, err := h.service.Create(c.Request.Context(), title)
	if err != nil {
		h.fail(c, err, MsgCreateFailed)
		return
	}
	response.Created(c, apptodo.ToDTO(item))
}

// Update 更新待办
// @Summary 更新待办
// @Description 切换完成状态或重命名，未提供的字段保持不变
// @Tags 待办
// @Accept json
// @Produce json
// @Param id path int true "待办 ID"
// @Param body body apptodo.UpdateTodoDTO false "更新内容"
// @Success 200 {object} apptodo.TodoDTO
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /todos/{id} [patch]
func (h *TodoHandler) Update(c *gin.Context) {
	id, err := todo.ParseID(c.Param("id"))
	if err != nil {
		h.fail(c, err, MsgUpdateFailed)
		return
	}

	fields, err := readFields(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, MsgInvalidBody)
		return
	}

	var patch todo.Patch

	title, present, ok := stringField(fields, "title")
	if present {
		if !ok {
			h.fail(c, todo.NewValidationError("title", todo.MsgTitleEmpty), MsgUpdateFailed)
			return
		}
		patch.Title = &title
	}

	// 非布尔值的 completed 直接忽略
	if completed, ok := boolField(fields, "completed"); ok {
		patch.Completed = &completed
	}

	item, err := h.service.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.fail(c, err, MsgUpdateFailed)
		return
	}
	response.Success(c, apptodo.ToDTO(item))
}

// Delete 删除待办
// @Summary 删除待办
// @Tags 待办
// @Produce json
// @Param id path int true "待办 ID"
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /todos/{id} [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	id, err := todo.ParseID(c.Param("id"))
	if err != nil {
		h.fail(c, err, MsgDeleteFailed)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err, MsgDeleteFailed)
		return
	}
	response.Message(c, http.StatusOK, MsgDeleted)
}

// ClearCompleted 清除已完成的待办
// @Summary 清除已完成的待办
// @Tags 待办
// @Produce json
// @Success 200 {object} apptodo.ClearCompletedDTO
// @Failure 500 {object} response.ErrorResponse
// @Router /todos/clear-completed [post]
func (h *TodoHandler) ClearCompleted(c *gin.Context) {
	deleted, err := h.service.ClearCompleted(c.Request.Context())
	if err != nil {
		h.fail(c, err, MsgClearFailed)
		return
	}
	response.Success(c, apptodo.ClearCompletedDTO{Deleted: deleted, Message: MsgCleared})
}

// Stats 获取待办统计
// @Summary 获取待办统计
// @Tags 待办
// @Produce json
// @Success 200 {object} todo.Stats
// @Failure 500 {object} response.ErrorResponse
// @Router /todos/stats [get]
func (h *TodoHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err, MsgStatsFailed)
		return
	}
	response.Success(c, stats)
}

// fail 将错误映射为响应，服务端错误使用 fallback 文案且不暴露底层原因
func (h *TodoHandler) fail(c *gin.Context, err error, fallback string) {
	logger := log.FromContext(c.Request.Context(), h.logger)

	var vErr *todo.ValidationError
	switch {
	case errors.As(err, &vErr):
		logger.Debug("Validation failed", "field", vErr.Field, "message", vErr.Message)
		response.Error(c, http.StatusBadRequest, vErr.Message)
	case errors.Is(err, todo.ErrInvalidID):
		logger.Debug("Invalid todo id", "raw", c.Param("id"))
		response.Error(c, http.StatusBadRequest, MsgInvalidID)
	case errors.Is(err, todo.ErrNotFound):
		logger.Debug("Todo not found", "raw", c.Param("id"))
		response.Error(c, http.StatusNotFound, MsgNotFound)
	default:
		logger.Error(fallback, "error", err)
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, fallback)
	}
}

// readFields 读取 JSON 对象请求体，空请求体视为 {}
func readFields(c *gin.Context) (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage)
	if c.Request.Body == nil {
		return fields, nil
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBodySize))
	if err != nil {
		return nil, errInvalidBody
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return fields, nil
	}

	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, errInvalidBody
	}
	if fields == nil {
		fields = make(map[string]json.RawMessage)
	}
	return fields, nil
}

// stringField 读取字符串字段
// present 表示字段存在且不为 null，ok 表示值为字符串
func stringField(fields map[string]json.RawMessage, key string) (value string, present bool, ok bool) {
	raw, exists := fields[key]
	if !exists || isNull(raw) {
		return "", false, false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", true, false
	}
	return value, true, true
}

// boolField 读取布尔字段，缺失或类型不符时 ok 为 false
func boolField(fields map[string]json.RawMessage, key string) (value bool, ok bool) {
	raw, exists := fields[key]
	if !exists || isNull(raw) {
		return false, false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return false, false
	}
	return value, true
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
