package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tasklet/backend/internal/domain/todo"
)

// SQLiteRepository 待办事项 SQLite 仓储实现
type SQLiteRepository struct {
	db *sql.DB
}

var _ Store = (*SQLiteRepository)(nil)

// NewSQLiteRepository 创建 SQLite 仓储实例
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// sqliteSchema 表结构，时间以 Unix 毫秒存储
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS todos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_todos_created_at ON todos(created_at DESC);`,
}

const sqliteColumns = `id, title, completed, created_at, updated_at`

// Migrate 初始化待办事项表
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	for _, stmt := range sqliteSchema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create todos schema: %w", err)
		}
	}
	return nil
}

// Ping 检查连接
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close 关闭数据库
func (r *SQLiteRepository) Close() {
	_ = r.db.Close()
}

// Driver 返回后端类型
func (r *SQLiteRepository) Driver() Driver {
	return DriverSQLite
}

// scanner 兼容 *sql.Row 与 *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

// scanSQLiteTodo 读取一行待办
func scanSQLiteTodo(s scanner) (*todo.Todo, error) {
	var item todo.Todo
	var completed int64
	var createdAt, updatedAt int64

	if err := s.Scan(&item.ID, &item.Title, &completed, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	item.Completed = completed != 0
	item.CreatedAt = time.UnixMilli(createdAt).UTC()
	item.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &item, nil
}

// FindAll 获取所有待办事项，最新创建的在前
func (r *SQLiteRepository) FindAll(ctx context.Context) ([]*todo.Todo, error) {
	query := `SELECT ` + sqliteColumns + ` FROM todos ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	items := make([]*todo.Todo, 0)
	for rows.Next() {
		item, err := scanSQLiteTodo(rows)
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
func (r *SQLiteRepository) FindByID(ctx context.Context, id int64) (*todo.Todo, error) {
	query := `SELECT ` + sqliteColumns + ` FROM todos WHERE id = ?`

	item, err := scanSQLiteTodo(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query todo: %w", err)
	}
	return item, nil
}

// Insert 插入待办事项并回填 ID
func (r *SQLiteRepository) Insert(ctx context.Context, item *todo.Todo) error {
	query := `INSERT INTO todos (title, completed, created_at, updated_at) VALUES (?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		item.Title,
		boolToInt(item.Completed),
		item.CreatedAt.UnixMilli(),
		item.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert todo: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted id: %w", err)
	}
	item.ID = id
	return nil
}

// Update 部分更新待办事项
func (r *SQLiteRepository) Update(ctx context.Context, id int64, patch todo.Patch, updatedAt time.Time) (*todo.Todo, error) {
	set, args := buildSetClause(patch, updatedAt.UnixMilli(), "MAX", func(int) string { return "?" })
	args = append(args, id)

	query := `UPDATE todos SET ` + set + ` WHERE id = ? RETURNING ` + sqliteColumns

	item, err := scanSQLiteTodo(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, todo.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	return item, nil
}

// Delete 删除待办事项
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return todo.ErrNotFound
	}
	return nil
}

// DeleteCompleted 删除所有已完成的待办事项
func (r *SQLiteRepository) DeleteCompleted(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `DELETE FROM todos WHERE completed = 1 RETURNING id`)
	if err != nil {
		return nil, fmt.Errorf("failed to delete completed todos: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan deleted id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to delete completed todos: %w", err)
	}
	return ids, nil
}

// Stats 统计待办数量
func (r *SQLiteRepository) Stats(ctx context.Context) (*todo.Stats, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(completed), 0) FROM todos`

	var stats todo.Stats
	if err := r.db.QueryRowContext(ctx, query).Scan(&stats.Total, &stats.Completed); err != nil {
		return nil, fmt.Errorf("failed to count todos: %w", err)
	}
	stats.Remaining = stats.Total - stats.Completed
	return &stats, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
