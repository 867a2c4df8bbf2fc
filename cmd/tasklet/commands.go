package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tasklet/backend/internal/client/apiclient"
	"github.com/tasklet/backend/internal/client/tui"
)

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid todo id %q", arg)
	}
	return id, nil
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List todos, newest first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		todos, err := newClient().List(cmd.Context())
		if err != nil {
			return err
		}
		return printTodos(cmd.OutOrStdout(), todos)
	},
}

var addCmd = &cobra.Command{
	Use:   "add <title...>",
	Short: "Create a todo",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		todo, err := newClient().Create(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printTodo(cmd.OutOrStdout(), todo)
	},
}

// setCompletedCmd 生成 done / undo 命令
func setCompletedCmd(use, short string, completed bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			todo, err := newClient().Update(cmd.Context(), id, apiclient.UpdateRequest{Completed: &completed})
			if err != nil {
				return err
			}
			return printTodo(cmd.OutOrStdout(), todo)
		},
	}
}

var (
	doneCmd = setCompletedCmd("done", "Mark a todo as completed", true)
	undoCmd = setCompletedCmd("undo", "Mark a todo as not completed", false)
)

var renameCmd = &cobra.Command{
	Use:   "rename <id> <title...>",
	Short: "Change the title of a todo",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		title := strings.Join(args[1:], " ")
		todo, err := newClient().Update(cmd.Context(), id, apiclient.UpdateRequest{Title: &title})
		if err != nil {
			return err
		}
		return printTodo(cmd.OutOrStdout(), todo)
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a todo",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := newClient().Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted todo %d\n", id)
		return nil
	},
}

var clearCompletedCmd = &cobra.Command{
	Use:   "clear-completed",
	Short: "Delete every completed todo",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := newClient().ClearCompleted(cmd.Context())
		if err != nil {
			return err
		}
		return printValue(cmd.OutOrStdout(), result, func() string {
			return fmt.Sprintf("%s (%d)", result.Message, result.Deleted)
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show todo counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := newClient().Stats(cmd.Context())
		if err != nil {
			return err
		}
		return printValue(cmd.OutOrStdout(), stats, func() string {
			return fmt.Sprintf("%d of %d tasks remaining (%d completed)", stats.Remaining, stats.Total, stats.Completed)
		})
	},
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive terminal UI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tui.Run(cmd.Context(), newClient())
	},
}
