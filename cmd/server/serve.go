package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	applog "github.com/tasklet/backend/internal/infrastructure/log"
	"github.com/tasklet/backend/internal/infrastructure/singleton"
	"github.com/tasklet/backend/internal/version"
	"github.com/tasklet/backend/internal/wire"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := applog.GetLogger()

	// Wire 生成的初始化函数
	app, cleanup, err := wire.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer cleanup()

	if err := app.Start(); err != nil {
		if errors.Is(err, singleton.ErrAlreadyRunning) {
			logger.Info("Another tasklet instance is already serving this address, exiting",
				"addr", cfg.Server.HTTPAddr,
			)
			return nil
		}
		return fmt.Errorf("start application: %w", err)
	}
	logger.Info("Tasklet started",
		"addr", cfg.Server.HTTPAddr,
		"version", version.Version,
	)

	// 优雅关闭
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("Shutting down application...", "signal", sig.String())
	case runErr = <-app.Errors():
	}

	if err := app.Stop(); err != nil {
		logger.Error("Error during application shutdown",
			"error", err,
		)
	}
	logger.Info("Application stopped")
	return runErr
}
