package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tasklet/backend/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the server version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "tasklet-server", version.String())
	},
}
