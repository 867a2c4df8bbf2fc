package viewmodel

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/tasklet/backend/internal/client/apiclient"
	"github.com/tasklet/backend/internal/infrastructure/log"
)

// 展示给用户的错误类别
const (
	ErrLoad   = "Failed to load todos"
	ErrAdd    = "Failed to add todo"
	ErrUpdate = "Failed to update todo"
	ErrDelete = "Failed to delete todo"
)

// Client 视图模型依赖的传输层
type Client interface {
	List(ctx context.Context) ([]apiclient.Todo, error)
	Create(ctx context.Context, title string) (*apiclient.Todo, error)
	Update(ctx context.Context, id int64, req apiclient.UpdateRequest) (*apiclient.Todo, error)
	Delete(ctx context.Context, id int64) error
}

// ViewModel 客户端待办列表状态
// 调用失败时列表保持不变，仅记录错误类别，不重试
type ViewModel struct {
	mu      sync.RWMutex
	client  Client
	items   []apiclient.Todo
	err     string
	loading bool
	logger  *slog.Logger
}

// New 创建视图模型，初始处于加载中
func New(client Client) *ViewModel {
	return &ViewModel{
		client:  client,
		items:   []apiclient.Todo{},
		loading: true,
		logger:  log.NewModuleLogger("client", "viewmodel"),
	}
}

// Items 当前列表的副本
func (vm *ViewModel) Items() []apiclient.Todo {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return append([]apiclient.Todo(nil), vm.items...)
}

// Err 最近一次失败的错误类别，无错误时为空
func (vm *ViewModel) Err() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.err
}

// Loading 是否仍在首次加载
func (vm *ViewModel) Loading() bool {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.loading
}

// Total 总数
func (vm *ViewModel) Total() int {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return len(vm.items)
}

// Remaining 未完成数
func (vm *ViewModel) Remaining() int {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return Remaining(vm.items)
}

// Load 拉取全量列表
func (vm *ViewModel) Load(ctx context.Context) error {
	todos, err := vm.client.List(ctx)

	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.loading = false
	if err != nil {
		vm.fail(ErrLoad, err)
		return err
	}
	vm.items = todos
	return nil
}

// Add 新建待办，标题去除首尾空白后为空时不发请求
func (vm *ViewModel) Add(ctx context.Context, title string) error {
	if strings.TrimSpace(title) == "" {
		return nil
	}

	created, err := vm.client.Create(ctx, title)

	vm.mu.Lock()
	defer vm.mu.Unlock()
	if err != nil {
		vm.fail(ErrAdd, err)
		return err
	}
	vm.items = Prepend(vm.items, *created)
	return nil
}

// Toggle 切换完成状态
func (vm *ViewModel) Toggle(ctx context.Context, id int64, completed bool) error {
	next := !completed
	return vm.update(ctx, id, apiclient.UpdateRequest{Completed: &next})
}

// Rename 修改标题
func (vm *ViewModel) Rename(ctx context.Context, id int64, title string) error {
	return vm.update(ctx, id, apiclient.UpdateRequest{Title: &title})
}

func (vm *ViewModel) update(ctx context.Context, id int64, req apiclient.UpdateRequest) error {
	updated, err := vm.client.Update(ctx, id, req)

	vm.mu.Lock()
	defer vm.mu.Unlock()
	if err != nil {
		vm.fail(ErrUpdate, err)
		return err
	}
	vm.items = Replace(vm.items, *updated)
	return nil
}

// Delete 删除待办
func (vm *ViewModel) Delete(ctx context.Context, id int64) error {
	err := vm.client.Delete(ctx, id)

	vm.mu.Lock()
	defer vm.mu.Unlock()
	if err != nil {
		vm.fail(ErrDelete, err)
		return err
	}
	vm.items = Remove(vm.items, id)
	return nil
}

// Apply 合并实时推送的变更
func (vm *ViewModel) Apply(event apiclient.ChangeEvent) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	switch event.Type {
	case apiclient.EventCreated:
		if event.Todo != nil {
			vm.items = Prepend(vm.items, *event.Todo)
		}
	case apiclient.EventUpdated:
		if event.Todo != nil {
			vm.items = ReplaceIfNewer(vm.items, *event.Todo)
		}
	case apiclient.EventDeleted:
		vm.items = Remove(vm.items, event.ID)
	default:
		vm.logger.Debug("Ignoring unknown change event", "type", event.Type)
	}
}

// fail 记录错误类别，调用方需持有写锁
func (vm *ViewModel) fail(category string, err error) {
	vm.err = category
	vm.logger.Warn(category, "error", err)
}
