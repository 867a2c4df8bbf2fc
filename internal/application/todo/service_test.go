package todo

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasklet/backend/internal/domain/events"
	"github.com/tasklet/backend/internal/domain/todo"
	"github.com/tasklet/backend/internal/infrastructure/config"
	"github.com/tasklet/backend/internal/infrastructure/storage"
)

// memoryRepository 内存仓储，用于测试用例编排
type memoryRepository struct {
	mu     sync.Mutex
	items  map[int64]*todo.Todo
	nextID int64
	// failWith 非 nil 时所有操作返回该错误
	failWith error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{items: make(map[int64]*todo.Todo)}
}

func (r *memoryRepository) FindAll(ctx context.Context) ([]*todo.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	result := make([]*todo.Todo, 0, len(r.items))
	for _, item := range r.items {
		copied := *item
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r *memoryRepository) FindByID(ctx context.Context, id int64) (*todo.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	item, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	copied := *item
	return &copied, nil
}

func (r *memoryRepository) Insert(ctx context.Context, item *todo.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.nextID++
	item.ID = r.nextID
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *memoryRepository) Update(ctx context.Context, id int64, patch todo.Patch, updatedAt time.Time) (*todo.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	item, ok := r.items[id]
	if !ok {
		return nil, todo.ErrNotFound
	}
	if patch.Title != nil {
		item.Title = *patch.Title
	}
	if patch.Completed != nil {
		item.Completed = *patch.Completed
	}
	item.UpdatedAt = updatedAt
	if item.UpdatedAt.Before(item.CreatedAt) {
		item.UpdatedAt = item.CreatedAt
	}
	copied := *item
	return &copied, nil
}

func (r *memoryRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.items[id]; !ok {
		return todo.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memoryRepository) DeleteCompleted(ctx context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	ids := make([]int64, 0)
	for id, item := range r.items {
		if item.Completed {
			ids = append(ids, id)
			delete(r.items, id)
		}
	}
	return ids, nil
}

func (r *memoryRepository) Stats(ctx context.Context) (*todo.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	stats := &todo.Stats{Total: int64(len(r.items))}
	for _, item := range r.items {
		if item.Completed {
			stats.Completed++
		}
	}
	stats.Remaining = stats.Total - stats.Completed
	return stats, nil
}

// recordingPublisher 记录发布的事件
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]events.EventType, 0, len(p.events))
	for _, e := range p.events {
		result = append(result, e.Type())
	}
	return result
}

// steppingClock 每次调用前进一秒
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := current
		current = current.Add(time.Second)
		return now
	}
}

func setupService(t *testing.T) (*Service, *memoryRepository, *recordingPublisher) {
	t.Helper()
	repo := newMemoryRepository()
	pub := &recordingPublisher{}
	svc := NewService(repo, pub)
	svc.SetClock(steppingClock(time.Date(2026, 3, 1, 9, 0, 0, 123456789, time.UTC)))
	return svc, repo, pub
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestService_Create(t *testing.T) {
	svc, _, pub := setupService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, "  Buy milk  ")
	require.NoError(t, err)
	assert.Equal(t, int64(1), item.ID)
	assert.Equal(t, "Buy milk", item.Title, "标题应去除首尾空白")
	assert.False(t, item.Completed)
	assert.True(t, item.CreatedAt.Equal(item.UpdatedAt))
	assert.Equal(t, 123000000, item.CreatedAt.Nanosecond(), "时间应截断到毫秒")
	assert.Equal(t, []events.EventType{events.TodoCreated}, pub.types())
}

func TestService_Create_EmptyTitle(t *testing.T) {
	svc, repo, pub := setupService(t)

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := svc.Create(context.Background(), title)
		require.Error(t, err)
		assert.ErrorIs(t, err, todo.ErrValidation)

		var vErr *todo.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, todo.MsgTitleRequired, vErr.Message)
	}

	assert.Empty(t, repo.items, "校验失败不应写入")
	assert.Empty(t, pub.types())
}

func TestService_ListNewestFirst(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		_, err := svc.Create(ctx, title)
		require.NoError(t, err)
	}

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "third", items[0].Title)
	assert.Equal(t, "first", items[2].Title)
}

func TestService_Update(t *testing.T) {
	svc, _, pub := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "Buy milk")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, todo.Patch{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "Buy milk", updated.Title)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

	renamed, err := svc.Update(ctx, created.ID, todo.Patch{Title: strPtr("  Buy oat milk ")})
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", renamed.Title)
	assert.True(t, renamed.Completed)

	assert.Equal(t, []events.EventType{events.TodoCreated, events.TodoUpdated, events.TodoUpdated}, pub.types())
}

func TestService_Update_EmptyPatchTouches(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "Buy milk")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, todo.Patch{})
	require.NoError(t, err)
	assert.Equal(t, created.Title, updated.Title)
	assert.Equal(t, created.Completed, updated.Completed)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestService_Update_ClockStepBack(t *testing.T) {
	store, cleanup, err := storage.ProvideStore(&config.DatabaseConfig{URL: "sqlite::memory:"})
	require.NoError(t, err)
	t.Cleanup(cleanup)

	svc := NewService(store, nil)
	ctx := context.Background()
	noon := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	svc.SetClock(func() time.Time { return noon })
	created, err := svc.Create(ctx, "Buy milk")
	require.NoError(t, err)

	// 时钟回拨两秒
	svc.SetClock(func() time.Time { return noon.Add(-2 * time.Second) })
	updated, err := svc.Update(ctx, created.ID, todo.Patch{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))
	assert.True(t, updated.UpdatedAt.Equal(created.CreatedAt))

	persisted, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, persisted.UpdatedAt.Equal(updated.UpdatedAt))
}

func TestService_Update_Errors(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "Buy milk")
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, todo.Patch{Title: strPtr("   ")})
	var vErr *todo.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, todo.MsgTitleEmpty, vErr.Message)

	// 校验失败时不修改记录
	current, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", current.Title)

	_, err = svc.Update(ctx, 999, todo.Patch{Completed: boolPtr(true)})
	assert.ErrorIs(t, err, todo.ErrNotFound)

	_, err = svc.Update(ctx, 0, todo.Patch{})
	assert.ErrorIs(t, err, todo.ErrInvalidID)
}

func TestService_Delete(t *testing.T) {
	svc, _, pub := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "Buy milk")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), todo.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, -1), todo.ErrInvalidID)

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, todo.ErrNotFound)

	assert.Equal(t, []events.EventType{events.TodoCreated, events.TodoDeleted}, pub.types())
}

func TestService_ClearCompletedAndStats(t *testing.T) {
	svc, _, pub := setupService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "a")
	require.NoError(t, err)
	b, err := svc.Create(ctx, "b")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "c")
	require.NoError(t, err)

	_, err = svc.Update(ctx, a.ID, todo.Patch{Completed: boolPtr(true)})
	require.NoError(t, err)
	_, err = svc.Update(ctx, b.ID, todo.Patch{Completed: boolPtr(true)})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, todo.Stats{Total: 3, Completed: 2, Remaining: 1}, *stats)

	deleted, err := svc.ClearCompleted(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, todo.Stats{Total: 1, Completed: 0, Remaining: 1}, *stats)

	types := pub.types()
	assert.Equal(t, events.TodoDeleted, types[len(types)-1])
	assert.Equal(t, events.TodoDeleted, types[len(types)-2])
}

func TestService_StorageErrors(t *testing.T) {
	svc, repo, pub := setupService(t)
	ctx := context.Background()
	repo.failWith = errors.New("connection refused")

	_, err := svc.List(ctx)
	assert.ErrorIs(t, err, todo.ErrStorage)

	_, err = svc.Create(ctx, "Buy milk")
	assert.ErrorIs(t, err, todo.ErrStorage)

	_, err = svc.Update(ctx, 1, todo.Patch{Completed: boolPtr(true)})
	assert.ErrorIs(t, err, todo.ErrStorage)

	err = svc.Delete(ctx, 1)
	assert.ErrorIs(t, err, todo.ErrStorage)

	_, err = svc.ClearCompleted(ctx)
	assert.ErrorIs(t, err, todo.ErrStorage)

	_, err = svc.Stats(ctx)
	var sErr *todo.StorageError
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, "stats", sErr.Op)

	assert.Empty(t, pub.types(), "失败的操作不应广播")
}

// panickingPublisher 模拟发布失败
type panickingPublisher struct{}

func (panickingPublisher) Publish(events.Event) { panic("bus closed") }

func TestService_PublishFailureDoesNotFailWrite(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo, panickingPublisher{})

	item, err := svc.Create(context.Background(), "Buy milk")
	require.NoError(t, err)
	assert.Len(t, repo.items, 1)
	assert.Equal(t, int64(1), item.ID)
}

func TestService_NilPublisher(t *testing.T) {
	svc := NewService(newMemoryRepository(), nil)
	_, err := svc.Create(context.Background(), "Buy milk")
	assert.NoError(t, err)
}

func TestToDTO(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 5_000_000, time.FixedZone("CST", 8*3600))
	dto := ToDTO(&todo.Todo{ID: 7, Title: "x", Completed: true, CreatedAt: at, UpdatedAt: at})

	assert.Equal(t, int64(7), dto.ID)
	assert.Equal(t, "2026-03-01T01:00:00.005Z", dto.CreatedAt)
	assert.Nil(t, ToDTO(nil))
	assert.NotNil(t, ToDTOs(nil))
	assert.Empty(t, ToDTOs(nil))
}
