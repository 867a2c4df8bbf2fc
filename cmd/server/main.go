// @title Tasklet API
// @version 1.0
// @description tasklet 待办服务 API
// @host localhost:8080
// @BasePath /api
// @schemes http
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tasklet/backend/internal/infrastructure/config"
	applog "github.com/tasklet/backend/internal/infrastructure/log"
	"github.com/tasklet/backend/internal/version"
)

// 全局参数
var (
	flagConfig string
)

var rootCmd = &cobra.Command{
	Use:           "tasklet-server",
	Short:         "Tasklet todo service",
	Long:          `Tasklet serves the todo REST API, the single-page UI, realtime updates over websocket and MCP tools.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "", "config file (default: .env.local or .env in the working directory)")
	flags.String("database-url", "", "database connection string (env DATABASE_URL)")
	flags.String("http-addr", config.DefaultHTTPAddr, "HTTP listen address (env HTTP_ADDR)")
	flags.String("log-level", "info", "log level: debug, info, warn, error (env LOG_LEVEL)")
	flags.String("log-format", "console", "log format: console, json, text (env LOG_FORMAT)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig 加载配置并初始化日志
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	cfg, err := config.Load(
		config.WithConfigFile(flagConfig),
		config.WithFlag(config.KeyDatabaseURL, flags.Lookup("database-url")),
		config.WithFlag(config.KeyHTTPAddr, flags.Lookup("http-addr")),
		config.WithFlag(config.KeyLogLevel, flags.Lookup("log-level")),
		config.WithFlag(config.KeyLogFormat, flags.Lookup("log-format")),
	)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	applog.Init(cfg.Log.ToLogConfig())
	return cfg, nil
}
