package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	applog "github.com/tasklet/backend/internal/infrastructure/log"
	"github.com/tasklet/backend/internal/infrastructure/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the todos table and index, then exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		store, err := storage.Open(ctx, &cfg.Database)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		applog.GetLogger().Info("Migration complete", "driver", string(store.Driver()))
		return nil
	},
}
