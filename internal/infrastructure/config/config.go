package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	applog "github.com/tasklet/backend/internal/infrastructure/log"
)

// 配置键，同时对应同名的大写环境变量（如 database_url -> DATABASE_URL）
const (
	KeyDatabaseURL   = "database_url"
	KeyDBMaxConns    = "db_max_conns"
	KeyHTTPAddr      = "http_addr"
	KeyLogLevel      = "log_level"
	KeyLogFormat     = "log_format"
	KeyLogAddSource  = "log_add_source"
	KeyWSReadBuffer  = "ws_read_buffer"
	KeyWSWriteBuffer = "ws_write_buffer"
)

// 默认值
const (
	DefaultHTTPAddr   = ":8080"
	DefaultDBMaxConns = 10
)

// dotenvFiles 未指定配置文件时依次尝试的 dotenv 文件
var dotenvFiles = []string{".env.local", ".env"}

// ErrMissingDatabaseURL 未配置数据库连接串，进程应直接退出
var ErrMissingDatabaseURL = errors.New("DATABASE_URL is not defined")

// Config 应用配置
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	WebSocket WebSocketConfig
	Log       LogConfig

	v  *viper.Viper
	mu sync.Mutex
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPAddr string
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// URL 连接串：postgres://... 或 sqlite://path
	URL string
	// MaxConns PostgreSQL 连接池上限
	MaxConns int32
}

// WebSocketConfig WebSocket 配置
type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
}

// LogConfig 日志配置
type LogConfig struct {
	Level     string
	Format    string
	AddSource bool
}

// Option 加载选项
type Option func(*options)

type options struct {
	configFile string
	flags      map[string]*pflag.Flag
}

// WithConfigFile 指定配置文件（yaml / json / toml / dotenv）
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configFile = path
	}
}

// WithFlag 绑定命令行参数，优先级高于环境变量
func WithFlag(key string, flag *pflag.Flag) Option {
	return func(o *options) {
		if flag == nil {
			return
		}
		if o.flags == nil {
			o.flags = make(map[string]*pflag.Flag)
		}
		o.flags[key] = flag
	}
}

// Load 加载配置
// 优先级：命令行参数 > 环境变量 > 配置文件 > 默认值
func Load(opts ...Option) (*Config, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	for key, flag := range o.flags {
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
		}
	}

	if err := readConfigFile(v, o.configFile); err != nil {
		return nil, err
	}

	cfg := &Config{v: v}
	cfg.apply(v)

	if cfg.Database.URL == "" {
		return nil, ErrMissingDatabaseURL
	}

	return cfg, nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyHTTPAddr, DefaultHTTPAddr)
	v.SetDefault(KeyDBMaxConns, DefaultDBMaxConns)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyLogAddSource, false)
	v.SetDefault(KeyWSReadBuffer, 1024)
	v.SetDefault(KeyWSWriteBuffer, 1024)
}

// readConfigFile 读取配置文件
// 显式指定的文件必须存在；未指定时尝试工作目录下的 .env.local / .env
func readConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		for _, candidate := range dotenvFiles {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return nil
		}
	}

	v.SetConfigFile(path)
	if isDotenv(path) {
		v.SetConfigType("env")
	}

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

// isDotenv 判断是否为 dotenv 文件（.env, .env.local, prod.env 等）
func isDotenv(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".env") || filepath.Ext(base) == ".env"
}

// apply 从 viper 读取当前值
func (c *Config) apply(v *viper.Viper) {
	c.Server = ServerConfig{
		HTTPAddr: v.GetString(KeyHTTPAddr),
	}
	c.Database = DatabaseConfig{
		URL:      strings.TrimSpace(v.GetString(KeyDatabaseURL)),
		MaxConns: v.GetInt32(KeyDBMaxConns),
	}
	c.WebSocket = WebSocketConfig{
		ReadBufferSize:  v.GetInt(KeyWSReadBuffer),
		WriteBufferSize: v.GetInt(KeyWSWriteBuffer),
	}
	c.Log = LogConfig{
		Level:     v.GetString(KeyLogLevel),
		Format:    v.GetString(KeyLogFormat),
		AddSource: v.GetBool(KeyLogAddSource),
	}
}

// ConfigFileUsed 返回实际读取的配置文件路径，未读取时为空
func (c *Config) ConfigFileUsed() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}

// Watch 监听配置文件变化并回调最新的日志配置
// 仅日志级别支持热更新，其余配置需重启生效
func (c *Config) Watch(onChange func(LogConfig)) bool {
	if c.ConfigFileUsed() == "" {
		return false
	}

	logger := applog.NewModuleLogger("config", "watcher")

	c.v.OnConfigChange(func(e fsnotify.Event) {
		c.mu.Lock()
		c.Log = LogConfig{
			Level:     c.v.GetString(KeyLogLevel),
			Format:    c.v.GetString(KeyLogFormat),
			AddSource: c.v.GetBool(KeyLogAddSource),
		}
		logCfg := c.Log
		c.mu.Unlock()

		logger.Info("Config file changed",
			"file", e.Name,
			"op", e.Op.String(),
			"log_level", logCfg.Level,
		)
		onChange(logCfg)
	})
	c.v.WatchConfig()

	return true
}

// LogSettings 返回当前日志配置的快照
func (c *Config) LogSettings() LogConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Log
}

// ToLogConfig 转换为日志系统配置
func (l LogConfig) ToLogConfig() *applog.Config {
	return &applog.Config{
		Level:     l.Level,
		Format:    l.Format,
		AddSource: l.AddSource,
	}
}

// NewDatabaseConfig 创建数据库配置
func NewDatabaseConfig(cfg *Config) *DatabaseConfig {
	return &cfg.Database
}

// NewServerConfig 创建服务器配置
func NewServerConfig(cfg *Config) *ServerConfig {
	return &cfg.Server
}

// NewWebSocketConfig 创建 WebSocket 配置
func NewWebSocketConfig(cfg *Config) *WebSocketConfig {
	return &cfg.WebSocket
}
