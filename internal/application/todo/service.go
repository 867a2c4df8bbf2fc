package todo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tasklet/backend/internal/domain/events"
	"github.com/tasklet/backend/internal/domain/todo"
	"github.com/tasklet/backend/internal/infrastructure/log"
)

// Service 待办应用服务（用例编排）
type Service struct {
	repo      todo.Repository
	publisher Publisher
	now       func() time.Time
	logger    *slog.Logger
}

// NewService 创建待办应用服务
func NewService(repo todo.Repository, publisher Publisher) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
		logger:    log.NewModuleLogger("todo", "service"),
	}
}

// SetClock 替换时钟（测试用）
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// List 获取全部待办，最新创建的在前
func (s *Service) List(ctx context.Context) ([]*todo.Todo, error) {
	items, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, &todo.StorageError{Op: "list", Err: err}
	}
	return items, nil
}

// Get 获取单个待办
func (s *Service) Get(ctx context.Context, id int64) (*todo.Todo, error) {
	if id <= 0 {
		return nil, todo.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, &todo.StorageError{Op: "get", Err: err}
	}
	if item == nil {
		return nil, todo.ErrNotFound
	}
	return item, nil
}

// Create 创建待办（用例）
func (s *Service) Create(ctx context.Context, rawTitle string) (*todo.Todo, error) {
	// 1. 校验标题
	title, ok := todo.NormalizeTitle(rawTitle)
	if !ok {
		return nil, todo.NewValidationError("title", todo.MsgTitleRequired)
	}

	// 2. 保存
	now := todo.Timestamp(s.now())
	item := &todo.Todo{
		Title:     title,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, item); err != nil {
		return nil, &todo.StorageError{Op: "create", Err: err}
	}

	// 3. 广播
	s.publish(events.NewTodoEvent(events.TodoCreated, item, now))

	s.logger.Debug("Todo created", "todo_id", item.ID)
	return item, nil
}

// Update 部分更新待办（用例）
// 空 patch 只刷新 updated_at
func (s *Service) Update(ctx context.Context, id int64, patch todo.Patch) (*todo.Todo, error) {
	if id <= 0 {
		return nil, todo.ErrInvalidID
	}

	if patch.Title != nil {
		title, ok := todo.NormalizeTitle(*patch.Title)
		if !ok {
			return nil, todo.NewValidationError("title", todo.MsgTitleEmpty)
		}
		patch.Title = &title
	}

	now := todo.Timestamp(s.now())
	item, err := s.repo.Update(ctx, id, patch, now)
	if err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			return nil, todo.ErrNotFound
		}
		return nil, &todo.StorageError{Op: "update", Err: err}
	}

	s.publish(events.NewTodoEvent(events.TodoUpdated, item, now))

	s.logger.Debug("Todo updated", "todo_id", id)
	return item, nil
}

// Delete 删除待办（用例）
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return todo.ErrInvalidID
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			return todo.ErrNotFound
		}
		return &todo.StorageError{Op: "delete", Err: err}
	}

	s.publish(events.NewTodoDeletedEvent(id, todo.Timestamp(s.now())))

	s.logger.Debug("Todo deleted", "todo_id", id)
	return nil
}

// ClearCompleted 删除所有已完成的待办，返回删除数量
func (s *Service) ClearCompleted(ctx context.Context) (int64, error) {
	ids, err := s.repo.DeleteCompleted(ctx)
	if err != nil {
		return 0, &todo.StorageError{Op: "clear", Err: err}
	}

	now := todo.Timestamp(s.now())
	for _, id := range ids {
		s.publish(events.NewTodoDeletedEvent(id, now))
	}

	if len(ids) > 0 {
		s.logger.Info("Completed todos cleared", "count", len(ids))
	}
	return int64(len(ids)), nil
}

// Stats 统计待办数量
func (s *Service) Stats(ctx context.Context) (*todo.Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, &todo.StorageError{Op: "stats", Err: err}
	}
	return stats, nil
}

// publish 发布事件，发布失败不影响已完成的写入
func (s *Service) publish(event events.Event) {
	if s.publisher == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Event publish panicked", "event_type", string(event.Type()), "panic", r)
		}
	}()
	s.publisher.Publish(event)
}
