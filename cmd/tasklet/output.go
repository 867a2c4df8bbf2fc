package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/tasklet/backend/internal/client/apiclient"
	"gopkg.in/yaml.v3"
)

// 输出格式
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

const timeLayout = "2006-01-02 15:04"

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// printValue 按输出格式打印，table 格式使用 text 生成的文本
func printValue(w io.Writer, v any, text func() string) error {
	switch settings.GetString(keyOutput) {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		_, err := fmt.Fprintln(w, text())
		return err
	}
}

func printTodo(w io.Writer, todo *apiclient.Todo) error {
	return printValue(w, todo, func() string {
		return todoTable([]apiclient.Todo{*todo})
	})
}

func printTodos(w io.Writer, todos []apiclient.Todo) error {
	return printValue(w, todos, func() string {
		if len(todos) == 0 {
			return "No todos yet."
		}
		remaining := 0
		for _, t := range todos {
			if !t.Completed {
				remaining++
			}
		}
		return fmt.Sprintf("%s\n%d of %d tasks remaining", todoTable(todos), remaining, len(todos))
	})
}

// todoTable 渲染待办表格
func todoTable(todos []apiclient.Todo) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "DONE", "TITLE", "CREATED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, todo := range todos {
		done := " "
		if todo.Completed {
			done = "x"
		}
		t.Row(
			strconv.FormatInt(todo.ID, 10),
			done,
			todo.Title,
			todo.CreatedAt.Local().Format(timeLayout),
		)
	}
	return t.Render()
}
