package log

import (
	"os"
	"strconv"
	"strings"
)

// 支持的日志格式
const (
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatText    = "text"
)

// Config 日志配置
type Config struct {
	// Level 日志级别：debug, info, warn, error
	Level string `json:"level" yaml:"level"`

	// Format 日志格式：console, json, text
	Format string `json:"format" yaml:"format"`

	// AddSource 是否添加源文件信息
	AddSource bool `json:"add_source" yaml:"add_source"`
}

// NewConfigFromEnv 从环境变量创建配置
// LOG_LEVEL / LOG_FORMAT / LOG_ADD_SOURCE，ENV=development 时强制调试输出
func NewConfigFromEnv() *Config {
	cfg := &Config{
		Level:     getEnvWithDefault("LOG_LEVEL", "info"),
		Format:    getEnvWithDefault("LOG_FORMAT", FormatConsole),
		AddSource: getEnvBool("LOG_ADD_SOURCE", false),
	}
	return cfg.Normalize()
}

// Normalize 统一大小写、补全未知格式，并应用开发环境覆盖
func (c *Config) Normalize() *Config {
	c.Level = strings.ToLower(strings.TrimSpace(c.Level))
	if c.Level == "" {
		c.Level = "info"
	}

	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	switch c.Format {
	case FormatConsole, FormatJSON, FormatText:
	default:
		c.Format = FormatConsole
	}

	// 在开发环境自动设置
	if isDevelopment() {
		c.Level = "debug"
		c.Format = FormatConsole
		c.AddSource = true
	}
	return c
}

// isDevelopment 检查是否为开发环境
func isDevelopment() bool {
	return strings.EqualFold(getEnvWithDefault("ENV", "production"), "development")
}

// getEnvWithDefault 获取环境变量，带默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool 获取布尔型环境变量，无法解析时返回默认值
func getEnvBool(key string, defaultValue bool) bool {
	boolValue, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return boolValue
}
