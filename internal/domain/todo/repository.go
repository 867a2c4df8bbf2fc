package todo

import (
	"context"
	"time"
)

// Repository 待办事项仓储接口
// 单行的插入、更新、删除由存储层保证原子性
type Repository interface {
	// FindAll 按创建时间倒序返回全部待办
	FindAll(ctx context.Context) ([]*Todo, error)

	// FindByID 根据 ID 查找待办，不存在时返回 nil, nil
	FindByID(ctx context.Context, id int64) (*Todo, error)

	// Insert 插入新待办，成功后回填 ID
	Insert(ctx context.Context, item *Todo) error

	// Update 按 patch 更新字段并刷新 updated_at（不早于 created_at），返回写入后的完整记录
	// 无匹配记录时返回 ErrNotFound
	Update(ctx context.Context, id int64, patch Patch, updatedAt time.Time) (*Todo, error)

	// Delete 删除待办，无匹配记录时返回 ErrNotFound
	Delete(ctx context.Context, id int64) error

	// DeleteCompleted 删除所有已完成的待办，返回被删除的 ID
	DeleteCompleted(ctx context.Context) ([]int64, error)

	// Stats 统计总数与已完成数
	Stats(ctx context.Context) (*Stats, error)
}
