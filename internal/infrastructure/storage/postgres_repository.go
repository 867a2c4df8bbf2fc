package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tasklet/backend/internal/domain/todo"
)

// PostgresRepository 待办事项 PostgreSQL 仓储实现
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresRepository)(nil)

// NewPostgresRepository 创建 PostgreSQL 仓储实例
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS todos (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_created_at ON todos (created_at DESC)`,
}

// postgresColumns id 统一转为 bigint，兼容早期以 SERIAL 建的表
const postgresColumns = `id::bigint, title, completed, created_at, updated_at`

// Migrate 初始化待办事项表
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create todos schema: %w", err)
		}
	}
	return nil
}

// Ping 检查连接
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close 关闭连接池
func (r *PostgresRepository) Close() {
	r.pool.Close()
}

// Driver 返回后端类型
func (r *PostgresRepository) Driver() Driver {
	return DriverPostgres
}

// scanPostgresTodo 读取一行待办
func scanPostgresTodo(row pgx.Row) (*todo.Todo, error) {
	var item todo.Todo
	if err := row.Scan(&item.ID, &item.Title, &item.Completed, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	item.CreatedAt = todo.Timestamp(item.CreatedAt)
	item.UpdatedAt = todo.Timestamp(item.UpdatedAt)
	return &item, nil
}

// FindAll 获取所有待办事项，最新创建的在前
func (r *PostgresRepository) FindAll(ctx context.Context) ([]*todo.Todo, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+postgresColumns+` FROM todos ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	items := make([]*todo.Todo, 0)
	for rows.Next() {
		item, err := scanPostgresTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}
	return items, nil
}

// FindByID 根据 ID 查找待办事项
func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*todo.Todo, error) {
	item, err := scanPostgresTodo(r.pool.QueryRow(ctx,
		`SELECT `+postgresColumns+` FROM todos WHERE id = $1::bigint`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query todo: %w", err)
	}
	return item, nil
}

// Insert 插入待办事项并回填 ID
func (r *PostgresRepository) Insert(ctx context.Context, item *todo.Todo) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO todos (title, completed, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id::bigint`,
		item.Title, item.Completed, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to insert todo: %w", err)
	}
	return nil
}

// Update 部分更新待办事项
func (r *PostgresRepository) Update(ctx context.Context, id int64, patch todo.Patch, updatedAt time.Time) (*todo.Todo, error) {
	set, args := buildSetClause(patch, updatedAt, "GREATEST", func(n int) string { return "$" + strconv.Itoa(n) })
	args = append(args, id)

	query := `UPDATE todos SET ` + set + ` WHERE id = $` + strconv.Itoa(len(args)) + `::bigint RETURNING ` + postgresColumns

	item, err := scanPostgresTodo(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, todo.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	return item, nil
}

// Delete 删除待办事项
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM todos WHERE id = $1::bigint`, id)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return todo.ErrNotFound
	}
	return nil
}

// DeleteCompleted 删除所有已完成的待办事项
func (r *PostgresRepository) DeleteCompleted(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `DELETE FROM todos WHERE completed RETURNING id::bigint`)
	if err != nil {
		return nil, fmt.Errorf("failed to delete completed todos: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to delete completed todos: %w", err)
	}
	return ids, nil
}

// Stats 统计待办数量
func (r *PostgresRepository) Stats(ctx context.Context) (*todo.Stats, error) {
	var stats todo.Stats
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE completed) FROM todos`,
	).Scan(&stats.Total, &stats.Completed)
	if err != nil {
		return nil, fmt.Errorf("failed to count todos: %w", err)
	}
	stats.Remaining = stats.Total - stats.Completed
	return &stats, nil
}
