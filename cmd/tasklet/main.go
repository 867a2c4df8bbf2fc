// Package main tasklet 命令行客户端
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tasklet/backend/internal/client/apiclient"
	applog "github.com/tasklet/backend/internal/infrastructure/log"
	"github.com/tasklet/backend/internal/version"
)

// 配置键
const (
	keyURL      = "url"
	keyOutput   = "output"
	defaultURL  = "http://localhost:8080"
	exitUserErr = 1
	exitSysErr  = 2
)

var settings = viper.New()

var rootCmd = &cobra.Command{
	Use:           "tasklet",
	Short:         "Command line client for the tasklet todo service",
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch settings.GetString(keyOutput) {
		case outputTable, outputJSON, outputYAML:
			return nil
		default:
			return fmt.Errorf("unsupported output %q (table, json, yaml)", settings.GetString(keyOutput))
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String(keyURL, defaultURL, "tasklet server URL (env TASKLET_URL)")
	flags.StringP(keyOutput, "o", outputTable, "output format: table, json, yaml (env TASKLET_OUTPUT)")

	settings.SetEnvPrefix("tasklet")
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()
	_ = settings.BindPFlag(keyURL, flags.Lookup(keyURL))
	_ = settings.BindPFlag(keyOutput, flags.Lookup(keyOutput))

	rootCmd.AddCommand(
		listCmd,
		addCmd,
		doneCmd,
		undoCmd,
		renameCmd,
		rmCmd,
		clearCompletedCmd,
		statsCmd,
		tuiCmd,
	)
}

func main() {
	// 日志输出到 stderr，避免干扰命令输出
	applog.SetOutput(os.Stderr)
	applog.Init(&applog.Config{Level: "warn", Format: "console"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode 服务端拒绝的请求返回 1，其余错误返回 2
func exitCode(err error) int {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
		return exitUserErr
	}
	return exitSysErr
}

func newClient() *apiclient.Client {
	return apiclient.New(settings.GetString(keyURL))
}
