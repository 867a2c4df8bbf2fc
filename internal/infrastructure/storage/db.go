package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tasklet/backend/internal/domain/todo"
	"github.com/tasklet/backend/internal/infrastructure/config"
	"github.com/tasklet/backend/internal/infrastructure/log"
	_ "modernc.org/sqlite"
)

// Driver 存储后端类型
type Driver string

const (
	// DriverPostgres PostgreSQL（pgx 连接池）
	DriverPostgres Driver = "postgres"
	// DriverSQLite 嵌入式 SQLite（modernc.org/sqlite）
	DriverSQLite Driver = "sqlite"
)

// ErrUnsupportedURL 无法识别的数据库连接串
var ErrUnsupportedURL = errors.New("unsupported database url")

// sqliteBusyTimeout SQLite 写锁等待时间
const sqliteBusyTimeout = 5 * time.Second

// Store 待办存储：仓储接口加上生命周期管理
type Store interface {
	todo.Repository

	// Migrate 创建表和索引（幂等）
	Migrate(ctx context.Context) error
	// Ping 检查数据库连接
	Ping(ctx context.Context) error
	// Close 关闭连接
	Close()
	// Driver 返回后端类型
	Driver() Driver
}

// ParseURL 根据连接串判断后端类型并返回驱动可用的 DSN
//
//	postgres://..., postgresql://...  -> PostgreSQL
//	sqlite://path, file:path, sqlite::memory:  -> SQLite
func ParseURL(raw string) (Driver, string, error) {
	url := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres, url, nil
	case url == "sqlite::memory:":
		return DriverSQLite, ":memory:", nil
	case strings.HasPrefix(url, "sqlite://"):
		path := strings.TrimPrefix(url, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("%w: empty sqlite path", ErrUnsupportedURL)
		}
		return DriverSQLite, path, nil
	case strings.HasPrefix(url, "file:"):
		return DriverSQLite, url, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedURL, redact(url))
	}
}

// redact 隐去连接串中的密码
func redact(url string) string {
	at := strings.LastIndex(url, "@")
	scheme := strings.Index(url, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return url
	}
	return url[:scheme+3] + "***" + url[at:]
}

// Open 打开存储，不执行迁移
func Open(ctx context.Context, cfg *config.DatabaseConfig) (Store, error) {
	driver, dsn, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	switch driver {
	case DriverPostgres:
		return openPostgres(ctx, dsn, cfg.MaxConns)
	default:
		return openSQLite(ctx, dsn)
	}
}

// openPostgres 创建 pgx 连接池
func openPostgres(ctx context.Context, dsn string, maxConns int32) (Store, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres url: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return NewPostgresRepository(pool), nil
}

// openSQLite 打开 SQLite 数据库
func openSQLite(ctx context.Context, dsn string) (Store, error) {
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		// 确保目录存在
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite 只允许单写者，单连接也让 :memory: 库在整个进程内共享
	db.SetMaxOpenConns(1)

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d;", sqliteBusyTimeout.Milliseconds()),
		"PRAGMA journal_mode = WAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewSQLiteRepository(db), nil
}

// ProvideStore 打开存储并执行迁移（供 wire 使用）
func ProvideStore(cfg *config.DatabaseConfig) (Store, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger := log.NewModuleLogger("storage", "db")
	logger.Info("Database ready", "driver", string(store.Driver()))

	cleanup := func() {
		store.Close()
		logger.Info("Database closed")
	}
	return store, cleanup, nil
}

// ProvideRepository 将存储暴露为领域仓储接口
func ProvideRepository(store Store) todo.Repository {
	return store
}

// buildSetClause 生成 UPDATE 的 SET 子句，placeholder 按序号返回占位符
// updated_at 取 greatest(created_at, updatedAt)，时钟回拨时也不早于创建时间
func buildSetClause(patch todo.Patch, updatedAt any, greatest string, placeholder func(n int) string) (string, []any) {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 3)

	if patch.Title != nil {
		args = append(args, *patch.Title)
		sets = append(sets, "title = "+placeholder(len(args)))
	}
	if patch.Completed != nil {
		args = append(args, *patch.Completed)
		sets = append(sets, "completed = "+placeholder(len(args)))
	}
	args = append(args, updatedAt)
	sets = append(sets, "updated_at = "+greatest+"(created_at, "+placeholder(len(args))+")")

	return strings.Join(sets, ", "), args
}
